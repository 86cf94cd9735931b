// Package ctrmode turns a 16-byte block cipher into a keystream generator
// driven by a big-endian 128-bit counter, with an optional parallel-lane
// fast path for bulk transforms. GCM's counter representation is
// big-endian; this is fixed by the GCM specification and is not shared
// with any little-endian counter driver elsewhere in this module (see
// salsa20, whose counter is little-endian by its own spec).
package ctrmode

import (
	"sync"

	"github.com/kryptid/cex/blockcipher"
)

// Counter is a 128-bit big-endian block counter.
type Counter [blockcipher.BlockSize]byte

// Inc increments the counter by one, wrapping at 2^128.
func (c *Counter) Inc() {
	for i := len(c) - 1; i >= 0; i-- {
		c[i]++
		if c[i] != 0 {
			return
		}
	}
}

// Add advances the counter by n, used to fast-forward past a batch
// processed by parallel lanes.
func (c *Counter) Add(n uint64) {
	// Split into the low 64 bits (fast path) and carry into the high 64
	// only when it overflows — CTR sessions never realistically approach
	// 2^64 blocks, but correctness shouldn't depend on that.
	lo := beUint64(c[8:16])
	newLo := lo + n
	carry := newLo < lo
	putBeUint64(c[8:16], newLo)
	if carry {
		hi := beUint64(c[0:8])
		putBeUint64(c[0:8], hi+1)
	}
}

// Driver drives a block cipher in counter mode.
type Driver struct {
	block   blockcipher.Block
	counter Counter
}

// New returns a Driver primed at the given initial counter value.
func New(block blockcipher.Block, initial Counter) *Driver {
	return &Driver{block: block, counter: initial}
}

// Counter returns the driver's current counter value.
func (d *Driver) Counter() Counter { return d.counter }

// SetCounter overwrites the driver's counter (used by GCM's parallel path
// to fast-forward the main counter past a batch of worker-processed
// blocks, and by re-init on nonce auto-increment).
func (d *Driver) SetCounter(c Counter) { d.counter = c }

// EncryptBlock computes out = in XOR E_K(counter); counter++. in and out
// must each be exactly one block; out may alias in.
func (d *Driver) EncryptBlock(dst, src []byte) {
	var ks [blockcipher.BlockSize]byte
	d.block.Encrypt(ks[:], d.counter[:])
	for i := range src {
		dst[i] = src[i] ^ ks[i]
	}
	d.counter.Inc()
}

// XORKeyStream encrypts an arbitrary-length (not necessarily
// block-aligned) src. Each full block consumes one counter increment; a
// trailing partial block is served by generating one extra keystream
// block and truncating it, which also consumes one counter increment.
// It is used for the final partial block of a transform.
func (d *Driver) XORKeyStream(dst, src []byte) {
	for len(src) > 0 {
		var ks [blockcipher.BlockSize]byte
		d.block.Encrypt(ks[:], d.counter[:])
		n := len(src)
		if n > blockcipher.BlockSize {
			n = blockcipher.BlockSize
		}
		for i := 0; i < n; i++ {
			dst[i] = src[i] ^ ks[i]
		}
		d.counter.Inc()
		dst = dst[n:]
		src = src[n:]
	}
}

// ParallelXORKeyStream processes the full blocks of src using up to
// `lanes` goroutines: the blocks are split into contiguous runs of
// ceil(blocks/lanes) blocks, and the lane handling the run that starts at
// block k begins at counter+k. After the batch the driver's counter is
// advanced by the number of full blocks processed, and any trailing
// partial block is handled serially by XORKeyStream, matching the serial
// semantics exactly (bit-identical output regardless of lane count, since
// each lane only ever touches disjoint block-aligned regions keyed by its
// own arithmetic-derived counter).
func (d *Driver) ParallelXORKeyStream(dst, src []byte, lanes int) {
	nBlocks := len(src) / blockcipher.BlockSize
	if nBlocks == 0 || lanes <= 1 {
		d.serialXORKeyStream(dst, src)
		return
	}
	if lanes > nBlocks {
		lanes = nBlocks
	}
	base := d.counter
	blocksPerLane := (nBlocks + lanes - 1) / lanes

	var wg sync.WaitGroup
	for lane := 0; lane < lanes; lane++ {
		start := lane * blocksPerLane
		if start >= nBlocks {
			break
		}
		end := start + blocksPerLane
		if end > nBlocks {
			end = nBlocks
		}
		wg.Add(1)
		go func(start, end int) {
			defer wg.Done()
			c := base
			c.Add(uint64(start))
			for b := start; b < end; b++ {
				off := b * blockcipher.BlockSize
				var ks [blockcipher.BlockSize]byte
				d.block.Encrypt(ks[:], c[:])
				for i := 0; i < blockcipher.BlockSize; i++ {
					dst[off+i] = src[off+i] ^ ks[i]
				}
				c.Inc()
			}
		}(start, end)
	}
	wg.Wait()

	d.counter.Add(uint64(nBlocks))
	if rem := len(src) - nBlocks*blockcipher.BlockSize; rem > 0 {
		d.XORKeyStream(dst[nBlocks*blockcipher.BlockSize:], src[nBlocks*blockcipher.BlockSize:])
	}
}

func (d *Driver) serialXORKeyStream(dst, src []byte) {
	for len(src) >= blockcipher.BlockSize {
		d.EncryptBlock(dst[:blockcipher.BlockSize], src[:blockcipher.BlockSize])
		dst = dst[blockcipher.BlockSize:]
		src = src[blockcipher.BlockSize:]
	}
	if len(src) > 0 {
		d.XORKeyStream(dst, src)
	}
}

func beUint64(b []byte) uint64 {
	return uint64(b[0])<<56 | uint64(b[1])<<48 | uint64(b[2])<<40 | uint64(b[3])<<32 |
		uint64(b[4])<<24 | uint64(b[5])<<16 | uint64(b[6])<<8 | uint64(b[7])
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
