// Package registry maps the engine's named algorithm identifiers (the
// external interface boundary spec.md describes for selecting a block
// cipher, digest, mode, or PRNG by name) onto concrete constructors. Not
// every named enum value is backed by an implementation in this module —
// the ones that are not are documented in DESIGN.md rather than silently
// accepted.
package registry

import (
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha512"
	"fmt"
	"hash"

	"github.com/minio/blake2b-simd"
	"gitlab.com/yawning/chacha20.git"

	"github.com/kryptid/cex/blockcipher"
	"github.com/kryptid/cex/cexerr"
	"github.com/kryptid/cex/ctrmode"
	"github.com/kryptid/cex/drbg"
	"github.com/kryptid/cex/gcm"
	"github.com/kryptid/cex/jitter"
	"github.com/kryptid/cex/keccakp"
	"github.com/kryptid/cex/salsa20"
)

// BlockCipher names a symmetric block cipher.
type BlockCipher int

const (
	AES BlockCipher = iota
	Serpent
	Twofish
)

func (b BlockCipher) String() string {
	switch b {
	case AES:
		return "AES"
	case Serpent:
		return "Serpent"
	case Twofish:
		return "Twofish"
	default:
		return "unknown"
	}
}

// NewBlockCipher constructs a Block for the named cipher and key. Only AES
// is implemented in this module; Serpent and Twofish are named for
// interface completeness but have no in-corpus implementation to ground.
func NewBlockCipher(b BlockCipher, key []byte) (blockcipher.Block, error) {
	switch b {
	case AES:
		return blockcipher.NewAES(key)
	case Serpent, Twofish:
		return nil, fmt.Errorf("%w: block cipher %s is named but not implemented", cexerr.ErrInvalidParameter, b)
	default:
		return nil, fmt.Errorf("%w: unknown block cipher %d", cexerr.ErrInvalidParameter, int(b))
	}
}

// Digest names a hash function usable as a MAC or DRBG backend.
type Digest int

const (
	BLAKE2b512 Digest = iota
	SHA512
	Keccak512
	Skein1024
)

func (d Digest) String() string {
	switch d {
	case BLAKE2b512:
		return "BLAKE2b-512"
	case SHA512:
		return "SHA-512"
	case Keccak512:
		return "Keccak-512"
	case Skein1024:
		return "Skein-1024"
	default:
		return "unknown"
	}
}

// NewDigest returns a fresh hash.Hash instance for digests that fit that
// interface (all but Keccak-512's tree-hash-friendly Digest, which is
// still hash.Hash-shaped and returned identically). Skein-1024 has no
// in-corpus implementation and is named for completeness only.
func NewDigest(d Digest) (hash.Hash, error) {
	switch d {
	case BLAKE2b512:
		return blake2b.New(&blake2b.Config{Size: 64})
	case SHA512:
		return sha512.New(), nil
	case Keccak512:
		return keccakp.New512(), nil
	case Skein1024:
		return nil, fmt.Errorf("%w: digest %s is named but not implemented", cexerr.ErrInvalidParameter, d)
	default:
		return nil, fmt.Errorf("%w: unknown digest %d", cexerr.ErrInvalidParameter, int(d))
	}
}

// CipherMode names an AEAD or classic block cipher mode of operation.
type CipherMode int

const (
	GCM CipherMode = iota
	CTR
	CBC
)

func (m CipherMode) String() string {
	switch m {
	case GCM:
		return "GCM"
	case CTR:
		return "CTR"
	case CBC:
		return "CBC"
	default:
		return "unknown"
	}
}

// NewCipherMode constructs the mode's session object, keyed by key. The
// concrete type returned depends on m: GCM returns a *gcm.Cipher
// (uninitialized; call Initialize before Transform), CTR returns a
// *ctrmode.Driver over an AES block cipher primed at a zero initial
// counter (call SetCounter to seed a real one). CBC is named but not
// implemented.
func NewCipherMode(m CipherMode, key []byte) (any, error) {
	switch m {
	case GCM:
		return gcm.New(gcm.Options{}), nil
	case CTR:
		block, err := blockcipher.NewAES(key)
		if err != nil {
			return nil, err
		}
		return ctrmode.New(block, ctrmode.Counter{}), nil
	case CBC:
		return nil, fmt.Errorf("%w: cipher mode %s is named but not implemented", cexerr.ErrInvalidParameter, m)
	default:
		return nil, fmt.Errorf("%w: unknown cipher mode %d", cexerr.ErrInvalidParameter, int(m))
	}
}

// Padding names a block padding scheme. No mode built in this module
// requires padding (GCM and CTR are both stream-like), so no Padding
// value has a constructor; the enum exists for external-interface
// completeness only.
type Padding int

const (
	PKCS7 Padding = iota
	ISO7816
	NoPadding
)

// Provider names an entropy source.
type Provider int

const (
	CSPRNG Provider = iota
	CJP
)

func (p Provider) String() string {
	switch p {
	case CSPRNG:
		return "CSPRNG"
	case CJP:
		return "CJP"
	default:
		return "unknown"
	}
}

// cryptoRandProvider adapts crypto/rand.Reader to drbg.EntropyProvider.
type cryptoRandProvider struct{}

func (cryptoRandProvider) GetBytes(out []byte) error {
	_, err := rand.Read(out)
	return err
}

// NewProvider constructs an entropy provider. jitterOversampleRate is only
// consulted for CJP; see jitter.New for its legal range.
func NewProvider(p Provider, jitterOversampleRate int) (drbg.EntropyProvider, error) {
	switch p {
	case CSPRNG:
		return cryptoRandProvider{}, nil
	case CJP:
		return jitter.New(jitterOversampleRate)
	default:
		return nil, fmt.Errorf("%w: unknown provider %d", cexerr.ErrInvalidParameter, int(p))
	}
}

// Prng names a deterministic random bit generator construction.
type Prng int

const (
	HashCounterDRBG Prng = iota
	BlockCipherCounterDRBG
)

func (p Prng) String() string {
	switch p {
	case HashCounterDRBG:
		return "HashCounterDRBG"
	case BlockCipherCounterDRBG:
		return "BlockCipherCounterDRBG"
	default:
		return "unknown"
	}
}

// DRBG is the interface both drbg backends share.
type DRBG interface {
	Initialize(seed []byte) error
	Generate(out []byte) error
	Reset(provider drbg.EntropyProvider) error
}

// NewPrng constructs a deterministic random bit generator. digest and
// bufSize back HashCounterDRBG's underlying hash and output buffer;
// BlockCipherCounterDRBG only consults bufSize.
func NewPrng(p Prng, digest Digest, bufSize int) (DRBG, error) {
	switch p {
	case HashCounterDRBG:
		if _, err := NewDigest(digest); err != nil {
			return nil, err
		}
		newHash := func() hash.Hash {
			h, _ := NewDigest(digest)
			return h
		}
		return drbg.NewHashDRBG(digest.String(), newHash, bufSize)
	case BlockCipherCounterDRBG:
		return drbg.NewCounterDRBG(bufSize)
	default:
		return nil, fmt.Errorf("%w: unknown prng %d", cexerr.ErrInvalidParameter, int(p))
	}
}

// StreamCipher names a dedicated stream cipher (as opposed to a block
// cipher run in a streaming mode).
type StreamCipher int

const (
	Salsa20Cipher StreamCipher = iota
	ChaCha20Cipher
)

func (s StreamCipher) String() string {
	switch s {
	case Salsa20Cipher:
		return "Salsa20"
	case ChaCha20Cipher:
		return "ChaCha20"
	default:
		return "unknown"
	}
}

// salsa20Rounds is Salsa20's standard round count (as opposed to the
// reduced-round Salsa20/8 or Salsa20/12 variants).
const salsa20Rounds = 20

// NewStreamCipher constructs a keyed stream cipher ready to XOR a keystream
// against caller data.
func NewStreamCipher(s StreamCipher, key, nonce []byte) (cipher.Stream, error) {
	switch s {
	case Salsa20Cipher:
		return salsa20.New(key, nonce, salsa20Rounds, nil)
	case ChaCha20Cipher:
		return chacha20.New(key, nonce)
	default:
		return nil, fmt.Errorf("%w: unknown stream cipher %d", cexerr.ErrInvalidParameter, int(s))
	}
}
