// Package blockcipher wraps the Rijndael round function used throughout
// the engine's counter-mode and AEAD drivers. The permutation itself is
// specified by FIPS 197; this package only fixes how the engine obtains a
// constant-time, hardware-accelerated implementation of it and exposes the
// narrow interface the rest of the engine drives it through.
package blockcipher

import (
	"crypto/aes"
	"crypto/cipher"
	"fmt"

	"github.com/kryptid/cex/cexerr"
)

// BlockSize is the Rijndael block size in bytes, fixed at 128 bits for
// every legal AES key size.
const BlockSize = aes.BlockSize

// Block is the narrow interface the CTR driver and GCM engine drive a
// block cipher through. It intentionally mirrors crypto/cipher.Block: a
// pure function from one block to another, no state beyond the key
// schedule.
type Block interface {
	BlockSize() int
	Encrypt(dst, src []byte)
	Decrypt(dst, src []byte)
}

type aesBlock struct {
	block cipher.Block
}

func (b *aesBlock) BlockSize() int { return b.block.BlockSize() }

func (b *aesBlock) Encrypt(dst, src []byte) { b.block.Encrypt(dst, src) }

func (b *aesBlock) Decrypt(dst, src []byte) { b.block.Decrypt(dst, src) }

// NewAES returns a Rijndael block cipher keyed with a 16, 24 or 32-byte
// key (AES-128/192/256). crypto/aes selects a constant-time, hardware
// accelerated (AES-NI/ARMv8) implementation automatically at runtime; no
// fetchable third-party module in the reference corpus exposes an
// alternative Rijndael permutation, so the standard library is the correct
// choice here rather than a hand-rolled table-based cipher.
func NewAES(key []byte) (Block, error) {
	switch len(key) {
	case 16, 24, 32:
	default:
		return nil, fmt.Errorf("%w: aes key must be 16, 24 or 32 bytes, got %d", cexerr.ErrInvalidKeyMaterial, len(key))
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", cexerr.ErrInvalidKeyMaterial, err)
	}
	return &aesBlock{block: block}, nil
}
