// Package mac implements the keyed message-authentication constructions
// SPEC_FULL.md's MAC layer (component J) requires: HMAC over the standard
// library's hash constructors, and a keyed BLAKE2b MAC using blake2b-simd's
// native keying support, following the same construction piknik's auth.go
// uses for its request-signing MAC.
package mac

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/sha512"
	"fmt"
	"hash"

	"github.com/minio/blake2b-simd"

	"github.com/kryptid/cex/cexerr"
)

// Tag is a MAC output; its length depends on the underlying construction.
type Tag []byte

// HMAC wraps crypto/hmac over a caller-selected digest constructor.
type HMAC struct {
	h hash.Hash
}

// NewHMACSHA256 returns an HMAC-SHA-256 instance keyed with key.
func NewHMACSHA256(key []byte) (*HMAC, error) {
	return newHMAC(key, sha256.New)
}

// NewHMACSHA512 returns an HMAC-SHA-512 instance keyed with key.
func NewHMACSHA512(key []byte) (*HMAC, error) {
	return newHMAC(key, sha512.New)
}

func newHMAC(key []byte, newHash func() hash.Hash) (*HMAC, error) {
	if len(key) == 0 {
		return nil, fmt.Errorf("%w: HMAC key must be non-empty", cexerr.ErrInvalidKeyMaterial)
	}
	return &HMAC{h: hmac.New(newHash, key)}, nil
}

// Write absorbs message bytes.
func (m *HMAC) Write(p []byte) (int, error) { return m.h.Write(p) }

// Sum returns the MAC tag appended to b.
func (m *HMAC) Sum(b []byte) []byte { return m.h.Sum(b) }

// Size returns the tag length in bytes.
func (m *HMAC) Size() int { return m.h.Size() }

// Reset clears absorbed message state, retaining the key.
func (m *HMAC) Reset() { m.h.Reset() }

// Verify reports whether tag matches the MAC of everything written so far,
// using a constant-time comparison. Like gcm.Verify, this never surfaces
// its result as an error to avoid a verification-oracle side channel.
func (m *HMAC) Verify(tag []byte) bool {
	return hmac.Equal(m.Sum(nil), tag)
}

// BLAKE2bMAC is a keyed BLAKE2b-512 MAC, using blake2b-simd's native key
// parameter rather than the generic HMAC construction (BLAKE2b is designed
// to be secure as a keyed hash directly).
type BLAKE2bMAC struct {
	h hash.Hash
}

// MaxBLAKE2bKeyLen is the largest legal BLAKE2b key size in bytes.
const MaxBLAKE2bKeyLen = 64

// blake2bDigestSize is BLAKE2b's default output size in bytes.
const blake2bDigestSize = 64

// NewBLAKE2bMAC returns a keyed BLAKE2b-512 MAC instance. key must be
// between 1 and MaxBLAKE2bKeyLen bytes.
func NewBLAKE2bMAC(key []byte) (*BLAKE2bMAC, error) {
	if len(key) == 0 || len(key) > MaxBLAKE2bKeyLen {
		return nil, fmt.Errorf("%w: BLAKE2b MAC key must be 1..%d bytes, got %d", cexerr.ErrInvalidKeyMaterial, MaxBLAKE2bKeyLen, len(key))
	}
	h, err := blake2b.New(&blake2b.Config{Size: blake2bDigestSize, Key: key})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", cexerr.ErrInvalidKeyMaterial, err)
	}
	return &BLAKE2bMAC{h: h}, nil
}

func (m *BLAKE2bMAC) Write(p []byte) (int, error) { return m.h.Write(p) }
func (m *BLAKE2bMAC) Sum(b []byte) []byte         { return m.h.Sum(b) }
func (m *BLAKE2bMAC) Size() int                   { return m.h.Size() }
func (m *BLAKE2bMAC) Reset()                      { m.h.Reset() }

// Verify reports whether tag matches the MAC of everything written so far.
func (m *BLAKE2bMAC) Verify(tag []byte) bool {
	return hmac.Equal(m.Sum(nil), tag)
}
