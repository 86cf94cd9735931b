package jitter

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNew_RejectsBadOversampleRate(t *testing.T) {
	_, err := New(0)
	require.Error(t, err)
}

func TestSource_GetBytesFillsBuffer(t *testing.T) {
	s, err := New(2)
	require.NoError(t, err)
	if !s.IsAvailable() {
		t.Skip("jitter timer resolution unavailable on this platform")
	}

	out := make([]byte, 37)
	require.NoError(t, s.GetBytes(out))

	allZero := true
	for _, b := range out {
		if b != 0 {
			allZero = false
			break
		}
	}
	require.False(t, allZero, "jitter output should not be all-zero")
}

func TestSource_SuccessiveCallsDiffer(t *testing.T) {
	s, err := New(2)
	require.NoError(t, err)
	if !s.IsAvailable() {
		t.Skip("jitter timer resolution unavailable on this platform")
	}

	a := make([]byte, 16)
	b := make([]byte, 16)
	require.NoError(t, s.GetBytes(a))
	require.NoError(t, s.GetBytes(b))
	require.NotEqual(t, a, b)
}

func TestVonNeumannDebias_DropsBalancedPairs(t *testing.T) {
	// 0x00 (0000_0000) is four "00" pairs: every pair dropped, n == 0.
	_, n := vonNeumannDebias(0x00)
	require.Equal(t, 0, n)

	// 0xff (1111_1111) is four "11" pairs: also all dropped.
	_, n = vonNeumannDebias(0xff)
	require.Equal(t, 0, n)

	// 0x55 (0101_0101) is four "01" pairs, each emitting a 0 bit.
	out, n := vonNeumannDebias(0x55)
	require.Equal(t, 4, n)
	require.Equal(t, byte(0), out)

	// 0xaa (1010_1010) is four "10" pairs, each emitting a 1 bit.
	out, n = vonNeumannDebias(0xaa)
	require.Equal(t, 4, n)
	require.Equal(t, byte(0x0f), out)
}
