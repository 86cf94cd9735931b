package blake2bp

import (
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/require"
)

// RFC 7693 test vector: BLAKE2b-512 of the empty string.
func TestSum512_EmptyString(t *testing.T) {
	want, err := hex.DecodeString(
		"786a02f742015903c6c6fd852552d272912f4740e15847618a86e217f71f5419" +
			"d25e1031afee585313896444934eb04b903a685b1448b755d56f701afe9be2ce")
	require.NoError(t, err)

	got, err := Sum512(nil)
	require.NoError(t, err)
	require.Equal(t, want, got)
}

func TestSum512P_DiffersFromSum512(t *testing.T) {
	data := []byte("the quick brown fox jumps over the lazy dog, several times over, to fill more than one block per leaf")

	plain, err := Sum512(data)
	require.NoError(t, err)

	tree, err := Sum512P(4, data)
	require.NoError(t, err)

	require.NotEqual(t, plain, tree)
	require.Len(t, tree, DigestSize)
}

func TestSum512P_DeterministicAndFanoutSensitive(t *testing.T) {
	data := make([]byte, BlockSize*10+7)
	for i := range data {
		data[i] = byte(i)
	}

	a1, err := Sum512P(2, data)
	require.NoError(t, err)
	a2, err := Sum512P(2, data)
	require.NoError(t, err)
	require.Equal(t, a1, a2)

	b, err := Sum512P(4, data)
	require.NoError(t, err)
	require.NotEqual(t, a1, b)
}

func TestNew_RejectsBadFanout(t *testing.T) {
	for _, f := range []int{0, 1, 3, 5} {
		_, err := New(f)
		require.Error(t, err)
	}
}

func TestHasher_ResetAllowsReuse(t *testing.T) {
	h, err := New(2)
	require.NoError(t, err)
	h.Write([]byte("first message"))
	first := h.Sum(nil)

	require.NoError(t, h.Reset())
	h.Write([]byte("second message"))
	second := h.Sum(nil)

	require.NotEqual(t, first, second)

	require.NoError(t, h.Reset())
	h.Write([]byte("first message"))
	third := h.Sum(nil)
	require.Equal(t, first, third)
}
