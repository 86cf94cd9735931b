// Package salsa20 implements the Salsa20 stream cipher (Bernstein, 2005)
// in counter mode, with a parallel-range fast path for bulk transforms. The 20-round, 32-byte-key,
// no-domain-override case is delegated to
// golang.org/x/crypto/salsa20/salsa, which already provides an
// assembly-accelerated block transform for exactly that configuration;
// every other configuration (16-byte keys, non-default round counts, the
// info domain-separation override) is served by this package's own
// generic core, since x/crypto/salsa20/salsa only ever expands the
// 32-byte-key/sigma state.
package salsa20

import (
	"encoding/binary"
	"fmt"
	"sync"

	"golang.org/x/crypto/salsa20/salsa"

	"github.com/kryptid/cex/cexerr"
)

// BlockSize is the Salsa20 keystream block size in bytes.
const BlockSize = 64

var sigma = [4]uint32{0x61707865, 0x3320646e, 0x79622d32, 0x6b206574} // "expand 32-byte k"
var tau = [4]uint32{0x61707865, 0x3120646e, 0x79622d36, 0x6b206574}   // "expand 16-byte k"

// Cipher is one Salsa20 keystream generator, keyed and nonced, with its
// own 64-bit little-endian block counter.
type Cipher struct {
	key       [8]uint32
	constants [4]uint32
	nonce     [2]uint32
	counter   [2]uint32
	rounds    int

	fastPath   bool
	fastKey    [32]byte
	fastCtr    [16]byte

	buf [BlockSize]byte
	off int
}

// New returns a Salsa20 keystream generator. key must be 16 or 32 bytes,
// nonce exactly 8 bytes, rounds even and in [8,30]. If info is non-nil it
// must be exactly 16 bytes and overrides the sigma/tau constants for
// domain separation — an extension beyond the published Salsa20, refused
// unless it is exactly 16 bytes (spec.md §9's resolution of this open
// question).
func New(key, nonce []byte, rounds int, info []byte) (*Cipher, error) {
	if len(nonce) != 8 {
		return nil, fmt.Errorf("%w: salsa20 nonce must be 8 bytes, got %d", cexerr.ErrInvalidKeyMaterial, len(nonce))
	}
	if rounds < 8 || rounds > 30 || rounds%2 != 0 {
		return nil, fmt.Errorf("%w: salsa20 rounds must be even and in [8,30], got %d", cexerr.ErrInvalidParameter, rounds)
	}
	if info != nil && len(info) != 16 {
		return nil, fmt.Errorf("%w: salsa20 info override must be exactly 16 bytes, got %d", cexerr.ErrInvalidParameter, len(info))
	}

	c := &Cipher{rounds: rounds}
	switch len(key) {
	case 32:
		for i := 0; i < 8; i++ {
			c.key[i] = binary.LittleEndian.Uint32(key[4*i : 4*i+4])
		}
		c.constants = sigma
	case 16:
		for i := 0; i < 4; i++ {
			w := binary.LittleEndian.Uint32(key[4*i : 4*i+4])
			c.key[i] = w
			c.key[i+4] = w
		}
		c.constants = tau
	default:
		return nil, fmt.Errorf("%w: salsa20 key must be 16 or 32 bytes, got %d", cexerr.ErrInvalidKeyMaterial, len(key))
	}
	if info != nil {
		c.constants[0] = binary.LittleEndian.Uint32(info[0:4])
		c.constants[1] = binary.LittleEndian.Uint32(info[4:8])
		c.constants[2] = binary.LittleEndian.Uint32(info[8:12])
		c.constants[3] = binary.LittleEndian.Uint32(info[12:16])
	}
	c.nonce[0] = binary.LittleEndian.Uint32(nonce[0:4])
	c.nonce[1] = binary.LittleEndian.Uint32(nonce[4:8])

	// The x/crypto fast path only ever expands sigma over a 32-byte key
	// with the standard round count and no constant override; anything
	// else must go through the generic core below.
	if len(key) == 32 && rounds == 20 && info == nil {
		c.fastPath = true
		copy(c.fastKey[:], key)
		copy(c.fastCtr[:8], nonce)
	}

	c.off = BlockSize // force a keystream block to be generated on first use
	return c, nil
}

// Counter returns the current 64-bit little-endian block counter.
func (c *Cipher) Counter() uint64 {
	return uint64(c.counter[0]) | uint64(c.counter[1])<<32
}

// SetCounter overwrites the block counter (used by the parallel-range
// dispatcher to prime each worker's private counter offset).
func (c *Cipher) SetCounter(v uint64) {
	c.counter[0] = uint32(v)
	c.counter[1] = uint32(v >> 32)
	c.off = BlockSize
}

func (c *Cipher) incCounter() {
	c.counter[0]++
	if c.counter[0] == 0 {
		c.counter[1]++
	}
}

// state returns the 16-word Salsa20 working state for the current
// counter, per Bernstein's layout: constants at 0,5,10,15; key words at
// 1-4 and 11-14; nonce at 6-7; counter at 8-9.
func (c *Cipher) state() [16]uint32 {
	return [16]uint32{
		c.constants[0], c.key[0], c.key[1], c.key[2],
		c.key[3], c.constants[1], c.nonce[0], c.nonce[1],
		c.counter[0], c.counter[1], c.constants[2], c.key[4],
		c.key[5], c.key[6], c.key[7], c.constants[3],
	}
}

func quarterRound(a, b, c, d uint32) (uint32, uint32, uint32, uint32) {
	b ^= rotl32(a+d, 7)
	c ^= rotl32(b+a, 9)
	d ^= rotl32(c+b, 13)
	a ^= rotl32(d+c, 18)
	return a, b, c, d
}

func rotl32(x uint32, n uint) uint32 { return (x << n) | (x >> (32 - n)) }

func columnRound(x [16]uint32) [16]uint32 {
	x[0], x[4], x[8], x[12] = quarterRound(x[0], x[4], x[8], x[12])
	x[5], x[9], x[13], x[1] = quarterRound(x[5], x[9], x[13], x[1])
	x[10], x[14], x[2], x[6] = quarterRound(x[10], x[14], x[2], x[6])
	x[15], x[3], x[7], x[11] = quarterRound(x[15], x[3], x[7], x[11])
	return x
}

func rowRound(x [16]uint32) [16]uint32 {
	x[0], x[1], x[2], x[3] = quarterRound(x[0], x[1], x[2], x[3])
	x[5], x[6], x[7], x[4] = quarterRound(x[5], x[6], x[7], x[4])
	x[10], x[11], x[8], x[9] = quarterRound(x[10], x[11], x[8], x[9])
	x[15], x[12], x[13], x[14] = quarterRound(x[15], x[12], x[13], x[14])
	return x
}

// block runs the Salsa20 double-round rounds/2 times over state, then
// returns state + originalState (word-wise, mod 2^32), serialized as
// little-endian bytes.
func block(state [16]uint32, rounds int) [BlockSize]byte {
	x := state
	for i := 0; i < rounds/2; i++ {
		x = rowRound(columnRound(x))
	}
	var out [BlockSize]byte
	for i := 0; i < 16; i++ {
		binary.LittleEndian.PutUint32(out[4*i:4*i+4], x[i]+state[i])
	}
	return out
}

// generateBlock produces one keystream block at the current counter and
// advances the counter by one.
func (c *Cipher) generateBlock() [BlockSize]byte {
	ks := block(c.state(), c.rounds)
	c.incCounter()
	return ks
}

// XORKeyStream XORs src with the keystream into dst. dst and src may
// alias entirely or not at all.
func (c *Cipher) XORKeyStream(dst, src []byte) {
	if c.fastPath {
		binary.LittleEndian.PutUint64(c.fastCtr[8:16], c.Counter())
		salsa.XORKeyStream(dst[:len(src)], src, &c.fastCtr, &c.fastKey)
		blocks := uint64(len(src)) / BlockSize
		if uint64(len(src))%BlockSize != 0 {
			blocks++
		}
		c.SetCounter(c.Counter() + blocks)
		return
	}

	for len(src) > 0 {
		if c.off == BlockSize {
			c.buf = c.generateBlock()
			c.off = 0
		}
		n := BlockSize - c.off
		if n > len(src) {
			n = len(src)
		}
		for i := 0; i < n; i++ {
			dst[i] = src[i] ^ c.buf[c.off+i]
		}
		dst = dst[n:]
		src = src[n:]
		c.off += n
	}
}

// KeyStream fills dst with raw keystream bytes.
func (c *Cipher) KeyStream(dst []byte) {
	zero := make([]byte, len(dst))
	c.XORKeyStream(dst, zero)
}

// laneWidth names spec.md's SIMD batch sizes: four lanes under 128-bit
// SIMD, eight under 256-bit. No function in this package takes a
// laneWidth: Lanes4 and Lanes8 are declared values only, there is no
// 4- or 8-block batch generator, and XORKeyStream produces one keystream
// block at a time.
type laneWidth int

const (
	Lanes4 laneWidth = 4
	Lanes8 laneWidth = 8
)

// TransformParallelRange splits [0,len(src)) evenly across degree
// workers, worker i starting at counter base+i*chunkBlocks, and joins
// before returning. After the call the cipher's counter is set from the
// last worker's final counter, exactly as spec.md's "parallel range"
// policy requires. degree <= 1 falls back to XORKeyStream.
func (c *Cipher) TransformParallelRange(dst, src []byte, degree int) error {
	if degree <= 1 {
		c.XORKeyStream(dst, src)
		return nil
	}
	nBlocks := (len(src) + BlockSize - 1) / BlockSize
	if nBlocks == 0 {
		return nil
	}
	if degree > nBlocks {
		degree = nBlocks
	}
	chunkBlocks := (nBlocks + degree - 1) / degree
	base := c.Counter()

	var wg sync.WaitGroup
	finalCounters := make([]uint64, degree)
	for w := 0; w < degree; w++ {
		startBlock := w * chunkBlocks
		if startBlock >= nBlocks {
			degree = w
			break
		}
		endBlock := startBlock + chunkBlocks
		if endBlock > nBlocks {
			endBlock = nBlocks
		}
		startByte := startBlock * BlockSize
		endByte := endBlock * BlockSize
		if endByte > len(src) {
			endByte = len(src)
		}

		wg.Add(1)
		go func(w, startBlock int, dst, src []byte) {
			defer wg.Done()
			worker := &Cipher{
				key: c.key, constants: c.constants, nonce: c.nonce, rounds: c.rounds,
				off: BlockSize,
			}
			worker.SetCounter(base + uint64(startBlock))
			worker.XORKeyStream(dst, src)
			finalCounters[w] = worker.Counter()
		}(w, startBlock, dst[startByte:endByte], src[startByte:endByte])
	}
	wg.Wait()

	if degree > 0 {
		c.SetCounter(finalCounters[degree-1])
	}
	return nil
}
