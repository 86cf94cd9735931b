package ctrmode

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/kryptid/cex/blockcipher"
)

func TestCounter_IncWraps(t *testing.T) {
	var c Counter
	for i := range c {
		c[i] = 0xff
	}
	c.Inc()
	require.Equal(t, Counter{}, c)
}

func TestCounter_AddCarries(t *testing.T) {
	var c Counter
	for i := 8; i < 16; i++ {
		c[i] = 0xff
	}
	c.Add(1)
	want := Counter{}
	want[7] = 1
	require.Equal(t, want, c)
}

func TestDriver_ParallelMatchesSerial(t *testing.T) {
	key := make([]byte, 16)
	for i := range key {
		key[i] = byte(i)
	}
	block, err := blockcipher.NewAES(key)
	require.NoError(t, err)

	src := make([]byte, 4096)
	for i := range src {
		src[i] = byte(i * 3)
	}

	serialOut := make([]byte, len(src))
	serialDriver := New(block, Counter{})
	serialDriver.serialXORKeyStream(serialOut, src)

	for _, lanes := range []int{1, 2, 3, 8} {
		out := make([]byte, len(src))
		d := New(block, Counter{})
		d.ParallelXORKeyStream(out, src, lanes)
		require.Equal(t, serialOut, out, "lanes=%d", lanes)
	}
}

func TestDriver_XORKeyStreamRoundTrip(t *testing.T) {
	key := make([]byte, 32)
	block, err := blockcipher.NewAES(key)
	require.NoError(t, err)

	plaintext := []byte("not block aligned!!")
	ciphertext := make([]byte, len(plaintext))
	New(block, Counter{}).XORKeyStream(ciphertext, plaintext)

	recovered := make([]byte, len(plaintext))
	New(block, Counter{}).XORKeyStream(recovered, ciphertext)
	require.Equal(t, plaintext, recovered)
}
