// Package ghash implements the GF(2^128) universal hash used by GCM
// (NIST SP 800-38D). It is a pure function of its hash subkey H and the
// data it absorbs — it enforces no ordering of its own; callers (the gcm
// package) are responsible for absorbing associated data before
// ciphertext and for calling Finalize exactly once per session.
package ghash

// BlockSize is the GHASH block size in bytes (128 bits).
const BlockSize = 16

// reductionByte is the top byte of the reduction constant R =
// 11100001 || 0^120 for the polynomial x^128 + x^7 + x^2 + x + 1, using
// GCM's bit-numbering convention where bit 0 of byte 0 is the coefficient
// of x^0 (the "leftmost bit is the lowest order coefficient" convention
// fixed by NIST SP 800-38D).
const reductionByte = 0xe1

// GHASH is a streaming GF(2^128) authenticator keyed by H. The zero value
// is not usable; construct with New.
type GHASH struct {
	h [16]byte
}

// New builds a GHASH instance from the 16-byte hash subkey H. H must never
// be reused as a cipher key.
func New(h [16]byte) *GHASH {
	return &GHASH{h: h}
}

// mul computes x*y in the GCM GF(2^128) field using the textbook
// right-shift-and-reduce algorithm: Z starts at zero, V starts at y; for
// each bit of x from most to least significant, Z is XORed with V
// whenever that bit is set, and V is replaced by V shifted right by one
// bit, XORing in the reduction constant whenever the shifted-out bit was
// set. This is the "standard GF(2^128) right-shift variant" spec.md
// specifies, and is deliberately branch-on-public-index only: the only
// conditionals are on the loop indices, while the bits of x and y
// (ciphertext/AAD-derived data XORed with the running checksum, or H
// itself) select work through 0x00/0xff masks rather than branches, and
// there is no data-dependent memory access pattern to leak.
func mul(x, y [16]byte) [16]byte {
	var z, v [16]byte
	v = y
	for i := 0; i < 128; i++ {
		byteIdx := i / 8
		bitIdx := uint(i % 8)
		mask := -((x[byteIdx] >> (7 - bitIdx)) & 1)
		for j := range z {
			z[j] ^= v[j] & mask
		}
		lsb := v[15] & 1
		for j := 15; j > 0; j-- {
			v[j] = (v[j] >> 1) | (v[j-1] << 7)
		}
		v[0] >>= 1
		v[0] ^= reductionByte & -lsb
	}
	return z
}

// Update absorbs one block-aligned tail of data into checksum: XOR the
// data into checksum, then multiply the checksum by H. len(data) must be
// exactly BlockSize.
func (g *GHASH) Update(data []byte, checksum *[16]byte) {
	var block [16]byte
	copy(block[:], data[:BlockSize])
	for i := range checksum {
		checksum[i] ^= block[i]
	}
	*checksum = mul(*checksum, g.h)
}

// ProcessSegment absorbs arbitrary-length data, zero-padding the final
// partial block before multiplying it in.
func (g *GHASH) ProcessSegment(data []byte, checksum *[16]byte) {
	for len(data) >= BlockSize {
		g.Update(data[:BlockSize], checksum)
		data = data[BlockSize:]
	}
	if len(data) > 0 {
		var last [BlockSize]byte
		copy(last[:], data)
		g.Update(last[:], checksum)
	}
}

// Finalize appends the 128-bit length-encoding block (big-endian
// aadLenBits || msgLenBits) and performs the last multiply, returning the
// updated checksum.
func (g *GHASH) Finalize(checksum [16]byte, aadLen, msgLen uint64) [16]byte {
	var lenBlock [BlockSize]byte
	putBeUint64(lenBlock[0:8], aadLen*8)
	putBeUint64(lenBlock[8:16], msgLen*8)
	g.Update(lenBlock[:], &checksum)
	return checksum
}

// Reset zeroizes checksum in place, retaining H.
func Reset(checksum *[16]byte) {
	for i := range checksum {
		checksum[i] = 0
	}
}

func putBeUint64(b []byte, v uint64) {
	b[0] = byte(v >> 56)
	b[1] = byte(v >> 48)
	b[2] = byte(v >> 40)
	b[3] = byte(v >> 32)
	b[4] = byte(v >> 24)
	b[5] = byte(v >> 16)
	b[6] = byte(v >> 8)
	b[7] = byte(v)
}
