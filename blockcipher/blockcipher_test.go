package blockcipher

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// FIPS 197 AES-128 test vector: encrypting the all-zero plaintext under a
// specific 128-bit key.
func TestNewAES_FIPS197Vector(t *testing.T) {
	key := []byte{
		0x00, 0x01, 0x02, 0x03, 0x04, 0x05, 0x06, 0x07,
		0x08, 0x09, 0x0a, 0x0b, 0x0c, 0x0d, 0x0e, 0x0f,
	}
	plaintext := []byte{
		0x00, 0x11, 0x22, 0x33, 0x44, 0x55, 0x66, 0x77,
		0x88, 0x99, 0xaa, 0xbb, 0xcc, 0xdd, 0xee, 0xff,
	}
	want := []byte{
		0x69, 0xc4, 0xe0, 0xd8, 0x6a, 0x7b, 0x04, 0x30,
		0xd8, 0xcd, 0xb7, 0x80, 0x70, 0xb4, 0xc5, 0x5a,
	}

	block, err := NewAES(key)
	require.NoError(t, err)
	require.Equal(t, BlockSize, block.BlockSize())

	got := make([]byte, BlockSize)
	block.Encrypt(got, plaintext)
	require.Equal(t, want, got)

	roundtrip := make([]byte, BlockSize)
	block.Decrypt(roundtrip, got)
	require.Equal(t, plaintext, roundtrip)
}

func TestNewAES_RejectsBadKeySize(t *testing.T) {
	for _, n := range []int{0, 1, 15, 17, 20, 33} {
		_, err := NewAES(make([]byte, n))
		require.Error(t, err)
	}
}
