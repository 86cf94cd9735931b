package mac

import (
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/require"
)

// RFC 4231 test case 1: HMAC-SHA-256 with a 20-byte key of 0x0b bytes.
func TestHMACSHA256_RFC4231Case1(t *testing.T) {
	key := make([]byte, 20)
	for i := range key {
		key[i] = 0x0b
	}
	data := []byte("Hi There")
	want, err := hex.DecodeString("b0344c61d8db38535ca8afceaf0bf12b881dc200c9833da726e9376c2e32cff7")
	require.NoError(t, err)

	h, err := NewHMACSHA256(key)
	require.NoError(t, err)
	h.Write(data)
	require.Equal(t, want, h.Sum(nil))

	h2, err := NewHMACSHA256(key)
	require.NoError(t, err)
	h2.Write(data)
	require.True(t, h2.Verify(want))
}

func TestHMACSHA256_VerifyRejectsWrongTag(t *testing.T) {
	h, err := NewHMACSHA256([]byte("some-key"))
	require.NoError(t, err)
	h.Write([]byte("message"))
	tag := h.Sum(nil)
	tag[0] ^= 1

	h2, err := NewHMACSHA256([]byte("some-key"))
	require.NoError(t, err)
	h2.Write([]byte("message"))
	require.False(t, h2.Verify(tag))
}

func TestHMACSHA256_RejectsEmptyKey(t *testing.T) {
	_, err := NewHMACSHA256(nil)
	require.Error(t, err)
}

func TestHMACSHA512_RoundTrips(t *testing.T) {
	h, err := NewHMACSHA512([]byte("another-key"))
	require.NoError(t, err)
	h.Write([]byte("payload"))
	tag := h.Sum(nil)
	require.Len(t, tag, h.Size())

	h2, err := NewHMACSHA512([]byte("another-key"))
	require.NoError(t, err)
	h2.Write([]byte("payload"))
	require.True(t, h2.Verify(tag))
}

func TestBLAKE2bMAC_KeyedDiffersFromUnkeyed(t *testing.T) {
	m1, err := NewBLAKE2bMAC([]byte("key-one"))
	require.NoError(t, err)
	m1.Write([]byte("message"))
	tag1 := m1.Sum(nil)

	m2, err := NewBLAKE2bMAC([]byte("key-two"))
	require.NoError(t, err)
	m2.Write([]byte("message"))
	tag2 := m2.Sum(nil)

	require.NotEqual(t, tag1, tag2)
}

func TestBLAKE2bMAC_VerifyRoundTrip(t *testing.T) {
	key := []byte("mac-key")
	m, err := NewBLAKE2bMAC(key)
	require.NoError(t, err)
	m.Write([]byte("authenticated data"))
	tag := m.Sum(nil)

	m2, err := NewBLAKE2bMAC(key)
	require.NoError(t, err)
	m2.Write([]byte("authenticated data"))
	require.True(t, m2.Verify(tag))
}

func TestNewBLAKE2bMAC_RejectsBadKeySize(t *testing.T) {
	_, err := NewBLAKE2bMAC(nil)
	require.Error(t, err)
	_, err = NewBLAKE2bMAC(make([]byte, MaxBLAKE2bKeyLen+1))
	require.Error(t, err)
}
