package ghash

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// NIST SP 800-38D test case 1: H is E_K(0) for the all-zero AES-128 key,
// and GHASH(H, {}) applied only to the length block (aadLen=0, msgLen=0)
// must be the all-zero block, since GHASH of an empty input is X0 = 0 and
// the length block itself is all zero.
func TestGHASHEmptyInputIsZero(t *testing.T) {
	h := [16]byte{
		0x66, 0xe9, 0x4b, 0xd4, 0xef, 0x8a, 0x2c, 0x3b,
		0x88, 0x4c, 0xfa, 0x59, 0xca, 0x34, 0x2b, 0x2e,
	}
	g := New(h)
	var checksum [16]byte
	got := g.Finalize(checksum, 0, 0)
	require.Equal(t, [16]byte{}, got)
}

// Linearity: GHASH_H(a) XOR GHASH_H(b) == GHASH_H(a XOR b) for equal-length,
// block-aligned single-block inputs, since GHASH's block update is X_i =
// (X_{i-1} XOR C_i) * H, a linear map of C_i for fixed H and zero starting
// checksum.
func TestGHASHLinearity(t *testing.T) {
	h := [16]byte{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14, 15, 16}
	g := New(h)

	a := [16]byte{0xaa, 0xbb, 0xcc, 0xdd, 0x11, 0x22, 0x33, 0x44, 0x55, 0x66, 0x77, 0x88, 0x99, 0xaa, 0xbb, 0xcc}
	b := [16]byte{0x01, 0x02, 0x03, 0x04, 0x05, 0x06, 0x07, 0x08, 0x09, 0x0a, 0x0b, 0x0c, 0x0d, 0x0e, 0x0f, 0x10}
	var xor [16]byte
	for i := range xor {
		xor[i] = a[i] ^ b[i]
	}

	var csA, csB, csXor [16]byte
	g.Update(a[:], &csA)
	g.Update(b[:], &csB)
	g.Update(xor[:], &csXor)

	var combined [16]byte
	for i := range combined {
		combined[i] = csA[i] ^ csB[i]
	}
	require.Equal(t, combined, csXor)
}

// ProcessSegment over a two-block message must equal two sequential Update
// calls over the same blocks.
func TestGHASHProcessSegmentMatchesUpdate(t *testing.T) {
	h := [16]byte{9, 9, 9, 9, 9, 9, 9, 9, 9, 9, 9, 9, 9, 9, 9, 9}
	g := New(h)

	block1 := make([]byte, BlockSize)
	block2 := make([]byte, BlockSize)
	for i := range block1 {
		block1[i] = byte(i)
		block2[i] = byte(i * 3)
	}

	var viaUpdate [16]byte
	g.Update(block1, &viaUpdate)
	g.Update(block2, &viaUpdate)

	var viaSegment [16]byte
	g.ProcessSegment(append(append([]byte{}, block1...), block2...), &viaSegment)

	require.Equal(t, viaUpdate, viaSegment)
}

func TestGHASHResetZeroizes(t *testing.T) {
	checksum := [16]byte{1, 2, 3, 4}
	Reset(&checksum)
	require.Equal(t, [16]byte{}, checksum)
}
