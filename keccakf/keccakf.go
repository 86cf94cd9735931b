// Package keccakf implements the bare Keccak-f[1600] permutation (FIPS
// 202 §3.2/§3.3), the pure function every Keccak-based digest in this
// module is built from. It is a from-scratch port: no fetchable module in
// the reference corpus exposes the raw, tree-parameterizable permutation
// (golang.org/x/crypto/sha3 keeps it unexported), so this package exists
// purely to give the rest of the module something to import.
package keccakf

const rounds = 24

// rc holds the 24 round constants used by the iota step, one per round.
var rc = [rounds]uint64{
	0x0000000000000001, 0x0000000000008082, 0x800000000000808A, 0x8000000080008000,
	0x000000000000808B, 0x0000000080000001, 0x8000000080008081, 0x8000000000008009,
	0x000000000000008A, 0x0000000000000088, 0x0000000080008009, 0x000000008000000A,
	0x000000008000808B, 0x800000000000008B, 0x8000000000008089, 0x8000000000008003,
	0x8000000000008002, 0x8000000000000080, 0x000000000000800A, 0x800000008000000A,
	0x8000000080008081, 0x8000000000008080, 0x0000000080000001, 0x8000000080008008,
}

// rotc holds the rho-step rotation counts, and piln the pi-step lane
// permutation, both walked together starting from lane 1 (the standard
// "keccak-tiny" combined rho/pi traversal order).
var rotc = [24]uint{
	1, 3, 6, 10, 15, 21, 28, 36, 45, 55, 2, 14,
	27, 41, 56, 8, 25, 43, 62, 18, 39, 61, 20, 44,
}

var piln = [24]int{
	10, 7, 11, 17, 18, 3, 5, 16, 8, 21, 24, 4,
	15, 23, 19, 13, 12, 2, 20, 14, 22, 9, 6, 1,
}

func rotl64(x uint64, n uint) uint64 {
	return (x << n) | (x >> (64 - n))
}

// Permute applies all 24 rounds of Keccak-f[1600] to the 25-lane state in
// place. Lane i of the state corresponds to A[x,y] with i = x + 5*y,
// matching the byte layout a sponge's absorb step produces when it XORs
// rate bytes into the front of a 200-byte state buffer 8 bytes at a time.
func Permute(a *[25]uint64) {
	var bc [5]uint64
	for round := 0; round < rounds; round++ {
		// Theta
		for i := 0; i < 5; i++ {
			bc[i] = a[i] ^ a[i+5] ^ a[i+10] ^ a[i+15] ^ a[i+20]
		}
		for i := 0; i < 5; i++ {
			t := bc[(i+4)%5] ^ rotl64(bc[(i+1)%5], 1)
			for j := 0; j < 25; j += 5 {
				a[j+i] ^= t
			}
		}

		// Rho + Pi
		t := a[1]
		for i := 0; i < 24; i++ {
			j := piln[i]
			bc[0] = a[j]
			a[j] = rotl64(t, rotc[i])
			t = bc[0]
		}

		// Chi
		for j := 0; j < 25; j += 5 {
			for i := 0; i < 5; i++ {
				bc[i] = a[j+i]
			}
			for i := 0; i < 5; i++ {
				a[j+i] ^= (^bc[(i+1)%5]) & bc[(i+2)%5]
			}
		}

		// Iota
		a[0] ^= rc[round]
	}
}
