// Command cexdemo is a documentation-by-example driver, not a required
// interface: it loads engine configuration and exercises one full AEAD
// round trip so a reader can see the library's pieces wired together end
// to end.
package main

import (
	"crypto/rand"
	"fmt"
	"log"
	"os"

	"github.com/kryptid/cex/config"
	"github.com/kryptid/cex/gcm"
)

func main() {
	cfg := config.Default()
	if len(os.Args) > 1 {
		loaded, err := config.Load(os.Args[1])
		if err != nil {
			log.Printf("using defaults, could not load %s: %v", os.Args[1], err)
		} else {
			cfg = loaded
		}
	}

	key := make([]byte, 32)
	nonce := make([]byte, 12)
	if _, err := rand.Read(key); err != nil {
		log.Fatal(err)
	}
	if _, err := rand.Read(nonce); err != nil {
		log.Fatal(err)
	}

	plaintext := []byte("the quick brown fox jumps over the lazy dog")
	aad := []byte("cexdemo-header-v1")

	enc := gcm.New(gcm.Options{
		ParallelMaxDegree: cfg.ParallelMaxDegree,
		ParallelBlockSize: cfg.ParallelBlockSize,
	})
	if err := enc.Initialize(true, key, nonce); err != nil {
		log.Fatal(err)
	}
	if err := enc.SetAssociatedData(aad); err != nil {
		log.Fatal(err)
	}
	ciphertext := make([]byte, len(plaintext))
	if err := enc.Transform(ciphertext, plaintext); err != nil {
		log.Fatal(err)
	}
	tag := make([]byte, gcm.MaxTagLen)
	if err := enc.Finalize(tag, gcm.MaxTagLen); err != nil {
		log.Fatal(err)
	}

	dec := gcm.New(gcm.Options{})
	if err := dec.Initialize(false, key, nonce); err != nil {
		log.Fatal(err)
	}
	if err := dec.SetAssociatedData(aad); err != nil {
		log.Fatal(err)
	}
	recovered := make([]byte, len(ciphertext))
	if err := dec.Transform(recovered, ciphertext); err != nil {
		log.Fatal(err)
	}
	ok, err := dec.Verify(tag, gcm.MaxTagLen)
	if err != nil {
		log.Fatal(err)
	}
	if !ok {
		log.Fatal("tag verification failed")
	}

	fmt.Printf("plaintext:  %s\n", plaintext)
	fmt.Printf("ciphertext: %x\n", ciphertext)
	fmt.Printf("tag:        %x\n", tag)
	fmt.Printf("recovered:  %s\n", recovered)
}
