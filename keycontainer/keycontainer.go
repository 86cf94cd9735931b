// Package keycontainer implements the symmetric key material container
// (component I): a Key/Nonce/Info bundle with size validation and a
// length-prefixed binary wire format, plus an ed25519 signing convenience
// for out-of-band key distribution grounded on the same key-generation and
// hex-encoding idiom the reference client/server tooling used for its own
// pre-shared keys.
package keycontainer

import (
	"crypto/rand"
	"encoding/binary"
	"encoding/hex"
	"fmt"

	"golang.org/x/crypto/ed25519"

	"github.com/kryptid/cex/cexerr"
)

// maxFieldLen is the largest length a uint16 length prefix can encode, and
// the ceiling this package enforces on each field so the wire format never
// needs a wider prefix.
const maxFieldLen = 65535

// LegalKeySizes lists the byte lengths this container accepts for Key, so
// callers can validate against a specific cipher's requirement (e.g. AES
// wants one of 16/24/32; Salsa20 wants 16 or 32).
var LegalKeySizes = []int{16, 24, 32}

// KeyContainer bundles the symmetric key material an engine component
// needs: the secret key, an operation nonce, and an optional
// domain-separation info string.
type KeyContainer struct {
	Key   []byte
	Nonce []byte
	Info  []byte
}

// New validates and constructs a KeyContainer. nonce and info may be nil.
func New(key, nonce, info []byte) (*KeyContainer, error) {
	if !isLegalKeySize(len(key)) {
		return nil, fmt.Errorf("%w: key must be one of %v bytes, got %d", cexerr.ErrInvalidKeyMaterial, LegalKeySizes, len(key))
	}
	for _, f := range [][]byte{key, nonce, info} {
		if len(f) > maxFieldLen {
			return nil, fmt.Errorf("%w: field exceeds %d bytes", cexerr.ErrInvalidParameter, maxFieldLen)
		}
	}
	return &KeyContainer{
		Key:   append([]byte(nil), key...),
		Nonce: append([]byte(nil), nonce...),
		Info:  append([]byte(nil), info...),
	}, nil
}

func isLegalKeySize(n int) bool {
	for _, s := range LegalKeySizes {
		if n == s {
			return true
		}
	}
	return false
}

// MarshalBinary encodes the container as three uint16-length-prefixed
// fields (Key, Nonce, Info), little-endian, in that order.
func (kc *KeyContainer) MarshalBinary() ([]byte, error) {
	fields := [][]byte{kc.Key, kc.Nonce, kc.Info}
	total := 0
	for _, f := range fields {
		if len(f) > maxFieldLen {
			return nil, fmt.Errorf("%w: field exceeds %d bytes", cexerr.ErrInvalidParameter, maxFieldLen)
		}
		total += 2 + len(f)
	}
	out := make([]byte, 0, total)
	for _, f := range fields {
		var lenBuf [2]byte
		binary.LittleEndian.PutUint16(lenBuf[:], uint16(len(f)))
		out = append(out, lenBuf[:]...)
		out = append(out, f...)
	}
	return out, nil
}

// UnmarshalBinary decodes a buffer produced by MarshalBinary, replacing
// kc's fields.
func (kc *KeyContainer) UnmarshalBinary(data []byte) error {
	var fields [3][]byte
	for i := range fields {
		if len(data) < 2 {
			return fmt.Errorf("%w: truncated key container", cexerr.ErrInvalidKeyMaterial)
		}
		n := int(binary.LittleEndian.Uint16(data[:2]))
		data = data[2:]
		if len(data) < n {
			return fmt.Errorf("%w: truncated key container field", cexerr.ErrInvalidKeyMaterial)
		}
		fields[i] = append([]byte(nil), data[:n]...)
		data = data[n:]
	}
	if len(data) != 0 {
		return fmt.Errorf("%w: trailing bytes after key container", cexerr.ErrInvalidKeyMaterial)
	}
	kc.Key, kc.Nonce, kc.Info = fields[0], fields[1], fields[2]
	return nil
}

// HexKey returns the container's key hex-encoded, matching the format the
// reference tooling prints for a freshly generated pre-shared key.
func (kc *KeyContainer) HexKey() string { return hex.EncodeToString(kc.Key) }

// SigningIdentity is an ed25519 keypair used to sign a KeyContainer for
// out-of-band distribution, independent of the container's own symmetric
// key material.
type SigningIdentity struct {
	Public  ed25519.PublicKey
	private ed25519.PrivateKey
}

// GenerateSigningIdentity creates a fresh ed25519 keypair.
func GenerateSigningIdentity() (*SigningIdentity, error) {
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return nil, err
	}
	return &SigningIdentity{Public: pub, private: priv}, nil
}

// Sign signs the container's marshaled form.
func (id *SigningIdentity) Sign(kc *KeyContainer) ([]byte, error) {
	wire, err := kc.MarshalBinary()
	if err != nil {
		return nil, err
	}
	return ed25519.Sign(id.private, wire), nil
}

// Verify checks sig against the container's marshaled form under pub.
func Verify(pub ed25519.PublicKey, kc *KeyContainer, sig []byte) bool {
	wire, err := kc.MarshalBinary()
	if err != nil {
		return false
	}
	return ed25519.Verify(pub, wire, sig)
}
