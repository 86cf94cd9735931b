// Package drbg implements the two deterministic random-bit generator
// backends spec.md §4.H requires: a hash-counter DRBG keyed by any digest,
// and a block-cipher-counter DRBG built on this module's ctrmode driver.
// Both fill a caller-sized output buffer in digest/block-sized chunks
// through a small internal byte buffer that amortizes small reads.
package drbg

import (
	"encoding/binary"
	"fmt"
	"hash"

	"github.com/kryptid/cex/blockcipher"
	"github.com/kryptid/cex/cexerr"
	"github.com/kryptid/cex/ctrmode"
)

// MinBufferSize is the smallest legal DRBG output buffer size (spec.md
// §4.H: "≥ 64").
const MinBufferSize = 64

// EntropyProvider is anything Reset can re-seed from — the jitter package
// and crypto/rand.Reader both satisfy a GetBytes-shaped provider through
// the small adapter below.
type EntropyProvider interface {
	GetBytes(out []byte) error
}

// MinSeedSize tabulates the minimum seed length, in bytes, spec.md §4.H
// requires per backing digest (counter byte-length plus that digest's
// block size, tabulated directly rather than derived, since the
// contributing counter width differs per digest per the original design).
var MinSeedSize = map[string]int{
	"BLAKE2b-512": 72,
	"SHA-512":     136,
	"Keccak-512":  80,
	"Skein-1024":  136,
}

// HashDRBG is a hash-counter deterministic random bit generator: each
// output block is Digest(key || counter), counter incrementing after
// every block.
type HashDRBG struct {
	newHash  func() hash.Hash
	digest   string
	key      []byte
	counter  uint64
	bufSize  int
	buf      []byte
	pos      int
}

// NewHashDRBG returns an uninitialized hash-counter DRBG over the given
// digest constructor. digestName must be a key of MinSeedSize so
// Initialize can enforce the minimum seed length.
func NewHashDRBG(digestName string, newHash func() hash.Hash, bufSize int) (*HashDRBG, error) {
	if bufSize < MinBufferSize {
		return nil, fmt.Errorf("%w: drbg buffer size must be >= %d, got %d", cexerr.ErrInvalidParameter, MinBufferSize, bufSize)
	}
	if _, ok := MinSeedSize[digestName]; !ok {
		return nil, fmt.Errorf("%w: unknown digest %q for hash DRBG", cexerr.ErrInvalidParameter, digestName)
	}
	return &HashDRBG{newHash: newHash, digest: digestName, bufSize: bufSize}, nil
}

// Initialize sets the generator's key/counter from seed. seed must be at
// least MinSeedSize[digestName] bytes.
func (d *HashDRBG) Initialize(seed []byte) error {
	if min := MinSeedSize[d.digest]; len(seed) < min {
		return fmt.Errorf("%w: %s DRBG seed must be >= %d bytes, got %d", cexerr.ErrInvalidKeyMaterial, d.digest, min, len(seed))
	}
	d.key = append([]byte(nil), seed...)
	d.counter = 0
	d.buf = nil
	d.pos = 0
	return nil
}

func (d *HashDRBG) fillBlock() []byte {
	h := d.newHash()
	h.Write(d.key)
	var ctrBytes [8]byte
	binary.BigEndian.PutUint64(ctrBytes[:], d.counter)
	h.Write(ctrBytes[:])
	d.counter++
	return h.Sum(nil)
}

func (d *HashDRBG) refill() {
	d.buf = d.buf[:0]
	for len(d.buf) < d.bufSize {
		d.buf = append(d.buf, d.fillBlock()...)
	}
	d.pos = 0
}

// Generate fills out with pseudo-random bytes drawn from the internal
// buffer, refilling from the digest whenever the buffer is exhausted.
func (d *HashDRBG) Generate(out []byte) error {
	if d.key == nil {
		return fmt.Errorf("%w: Generate requires Initialize first", cexerr.ErrInvalidState)
	}
	for len(out) > 0 {
		if d.pos >= len(d.buf) {
			d.refill()
		}
		n := copy(out, d.buf[d.pos:])
		out = out[n:]
		d.pos += n
	}
	return nil
}

// Reset re-seeds the generator by drawing a fresh seed of the same length
// as the current key from provider.
func (d *HashDRBG) Reset(provider EntropyProvider) error {
	if d.key == nil {
		return fmt.Errorf("%w: Reset requires Initialize first", cexerr.ErrInvalidState)
	}
	seed := make([]byte, len(d.key))
	if err := provider.GetBytes(seed); err != nil {
		return err
	}
	return d.Initialize(seed)
}

// CounterDRBG is a block-cipher-counter deterministic random bit
// generator: it reuses this module's CTR driver over AES, generating
// keystream from an all-zero message as its random output.
type CounterDRBG struct {
	bufSize int
	drv     *ctrmode.Driver
	buf     []byte
	pos     int
}

// NewCounterDRBG returns an uninitialized block-cipher-counter DRBG.
func NewCounterDRBG(bufSize int) (*CounterDRBG, error) {
	if bufSize < MinBufferSize {
		return nil, fmt.Errorf("%w: drbg buffer size must be >= %d, got %d", cexerr.ErrInvalidParameter, MinBufferSize, bufSize)
	}
	return &CounterDRBG{bufSize: bufSize}, nil
}

// Initialize keys the generator from the first 16, 24 or 32 bytes of
// seed (selecting AES-128/192/256) and primes the counter from the
// remaining bytes (zero-padded/truncated to one block).
func (d *CounterDRBG) Initialize(seed []byte) error {
	var keyLen int
	switch {
	case len(seed) >= 32+blockcipher.BlockSize:
		keyLen = 32
	case len(seed) >= 24+blockcipher.BlockSize:
		keyLen = 24
	case len(seed) >= 16+blockcipher.BlockSize:
		keyLen = 16
	default:
		return fmt.Errorf("%w: counter DRBG seed must be at least 16+%d bytes, got %d", cexerr.ErrInvalidKeyMaterial, blockcipher.BlockSize, len(seed))
	}
	block, err := blockcipher.NewAES(seed[:keyLen])
	if err != nil {
		return err
	}
	var initial ctrmode.Counter
	copy(initial[:], seed[keyLen:])
	d.drv = ctrmode.New(block, initial)
	d.buf = nil
	d.pos = 0
	return nil
}

func (d *CounterDRBG) refill() {
	d.buf = make([]byte, d.bufSize)
	zero := make([]byte, d.bufSize)
	d.drv.ParallelXORKeyStream(d.buf, zero, 1)
	d.pos = 0
}

// Generate fills out with keystream bytes.
func (d *CounterDRBG) Generate(out []byte) error {
	if d.drv == nil {
		return fmt.Errorf("%w: Generate requires Initialize first", cexerr.ErrInvalidState)
	}
	for len(out) > 0 {
		if d.pos >= len(d.buf) {
			d.refill()
		}
		n := copy(out, d.buf[d.pos:])
		out = out[n:]
		d.pos += n
	}
	return nil
}

// Reset re-seeds the generator, drawing a fresh 16+16-byte seed
// (AES-128 key plus initial counter) from provider.
func (d *CounterDRBG) Reset(provider EntropyProvider) error {
	seed := make([]byte, 16+blockcipher.BlockSize)
	if err := provider.GetBytes(seed); err != nil {
		return err
	}
	return d.Initialize(seed)
}
