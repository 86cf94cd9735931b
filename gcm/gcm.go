// Package gcm implements the GCM authenticated-encryption state machine:
// a streaming cipher that drives a block cipher in counter mode and
// maintains an online GHASH over ciphertext and associated data.
package gcm

import (
	"crypto/subtle"
	"fmt"
	"runtime"
	"sync"

	"github.com/kryptid/cex/blockcipher"
	"github.com/kryptid/cex/cexerr"
	"github.com/kryptid/cex/ctrmode"
	"github.com/kryptid/cex/ghash"
)

// MinTagLen and MaxTagLen bound the legal authentication tag length.
const (
	MinTagLen = 12
	MaxTagLen = 16

	blockSize = blockcipher.BlockSize
)

// lifecycle enumerates the states the spec's Uninitialized -> Initialized
// -> AADLoaded? -> Transforming -> Finalized machine can be in.
type lifecycle int

const (
	stateUninitialized lifecycle = iota
	stateInitialized
	stateTransforming
	stateFinalized
)

// Options tunes the engine's parallel dispatch policy. The zero value is
// valid and selects sequential processing.
type Options struct {
	// ParallelMaxDegree is the number of worker goroutines used when a
	// transform exceeds ParallelBlockSize. 0 or 1 disables parallelism.
	ParallelMaxDegree int
	// ParallelBlockSize is the minimum input length, in bytes, before the
	// parallel path is used. If zero, a default derived from
	// ParallelMaxDegree is used.
	ParallelBlockSize int
	// AutoIncrementNonce, when set, makes Finalize advance the nonce by
	// +1 (big-endian) and re-invoke Initialize with the same key so the
	// engine is immediately ready for another session.
	AutoIncrementNonce bool
	// PreserveAD, when set alongside AutoIncrementNonce, re-absorbs the
	// associated data retained from the prior session after
	// auto-increment re-init.
	PreserveAD bool
}

// Cipher is one GCM session. It is not safe for concurrent use by
// multiple goroutines; internal parallel dispatch is disjoint per-worker
// and requires no locking.
type Cipher struct {
	opts Options

	block blockcipher.Block
	gh    *ghash.GHASH

	key   []byte
	nonce []byte

	isEncrypt bool
	state     lifecycle
	aadLoaded bool

	j0      ctrmode.Counter
	ctr     *ctrmode.Driver
	x       [16]byte // running GHASH checksum
	aadSize uint64
	msgSize uint64

	retainedAAD []byte

	lastNonce []byte // for the same-key replay guard
}

// New constructs an uninitialized GCM engine over a 16-byte block cipher
// (AES). Call Initialize before any other operation.
func New(opts Options) *Cipher {
	return &Cipher{opts: opts}
}

// Initialize keys the block cipher, derives H, computes J0, primes CTR at
// J0+1, and zeroizes the running checksum. nonce must be 8-16 bytes. It is
// an error to reuse the same nonce with the same key across Initialize
// calls (the replay guard spec.md requires).
func (c *Cipher) Initialize(isEncrypt bool, key, nonce []byte) error {
	if len(nonce) < 8 || len(nonce) > 16 {
		return fmt.Errorf("%w: gcm nonce must be 8-16 bytes, got %d", cexerr.ErrInvalidKeyMaterial, len(nonce))
	}
	block, err := blockcipher.NewAES(key)
	if err != nil {
		return err
	}
	if c.key != nil && subtle.ConstantTimeCompare(c.key, key) == 1 && c.lastNonce != nil &&
		len(c.lastNonce) == len(nonce) && subtle.ConstantTimeCompare(c.lastNonce, nonce) == 1 {
		return fmt.Errorf("%w: nonce reused with the same key", cexerr.ErrInvalidKeyMaterial)
	}

	c.block = block
	c.isEncrypt = isEncrypt

	var zero [16]byte
	var hBytes [16]byte
	block.Encrypt(hBytes[:], zero[:])
	c.gh = ghash.New(hBytes)

	c.j0 = computeJ0(c.gh, nonce)
	c.ctr = ctrmode.New(block, incremented(c.j0))

	ghash.Reset(&c.x)
	c.aadSize = 0
	c.msgSize = 0
	c.aadLoaded = false

	c.key = append([]byte(nil), key...)
	c.nonce = append([]byte(nil), nonce...)
	c.lastNonce = append([]byte(nil), nonce...)

	c.state = stateInitialized
	return nil
}

// computeJ0 implements spec.md's initial-counter-block rule: N||0^31||1
// when |N|=12 bytes, or GHASH_H(N) otherwise.
func computeJ0(gh *ghash.GHASH, nonce []byte) ctrmode.Counter {
	var j0 ctrmode.Counter
	if len(nonce) == 12 {
		copy(j0[:12], nonce)
		j0[15] = 1
		return j0
	}
	var checksum [16]byte
	gh.ProcessSegment(nonce, &checksum)
	checksum = gh.Finalize(checksum, 0, uint64(len(nonce)))
	copy(j0[:], checksum[:])
	return j0
}

func incremented(c ctrmode.Counter) ctrmode.Counter {
	c.Inc()
	return c
}

// SetAssociatedData absorbs data into the running GHASH checksum. It may
// be called at most once per init cycle, after Initialize and before any
// Transform call.
func (c *Cipher) SetAssociatedData(data []byte) error {
	if c.state != stateInitialized {
		return fmt.Errorf("%w: SetAssociatedData must follow Initialize and precede Transform", cexerr.ErrInvalidState)
	}
	if c.aadLoaded {
		return fmt.Errorf("%w: associated data already set for this session", cexerr.ErrInvalidState)
	}
	c.gh.ProcessSegment(data, &c.x)
	c.aadSize = uint64(len(data))
	c.aadLoaded = true
	if c.opts.PreserveAD {
		c.retainedAAD = append([]byte(nil), data...)
	}
	return nil
}

// Transform processes length bytes: encrypt applies CTR then folds
// ciphertext into GHASH; decrypt folds ciphertext into GHASH then applies
// CTR. Only the final call in a session may pass a length that isn't
// block-aligned.
func (c *Cipher) Transform(dst, src []byte) error {
	if c.state != stateInitialized && c.state != stateTransforming {
		return fmt.Errorf("%w: Transform requires Initialize first", cexerr.ErrInvalidState)
	}
	c.state = stateTransforming

	if len(dst) < len(src) {
		return fmt.Errorf("%w: destination shorter than source", cexerr.ErrShortBuffer)
	}

	lanes := c.opts.ParallelMaxDegree
	threshold := c.opts.ParallelBlockSize
	if threshold == 0 {
		threshold = parallelMinSize(lanes)
	}

	parallel := lanes > 1 && len(src) >= threshold

	if c.isEncrypt {
		if parallel {
			c.ctr.ParallelXORKeyStream(dst, src, lanes)
		} else {
			serialXOR(c.ctr, dst, src)
		}
		c.foldGHASH(dst[:len(src)], lanes, parallel)
	} else {
		c.foldGHASH(src, lanes, parallel)
		if parallel {
			c.ctr.ParallelXORKeyStream(dst, src, lanes)
		} else {
			serialXOR(c.ctr, dst, src)
		}
	}
	c.msgSize += uint64(len(src))
	return nil
}

// foldGHASH absorbs data into the running checksum c.x. When parallel is
// set it mirrors ctrmode.ParallelXORKeyStream's own lane split: each lane
// computes its own from-zero GHASH accumulator over a disjoint,
// block-aligned range, and the lane results are joined with c.x via
// ParallelGHASHCombine — the "own counter offset, own GHASH accumulator,
// combined by Horner evaluation at join" policy spec.md describes for
// GCM's parallel path. Any trailing partial block is folded in serially
// afterward, matching serialXOR's own full-block/tail split.
func (c *Cipher) foldGHASH(data []byte, lanes int, parallel bool) {
	nBlocks := len(data) / blockSize
	if !parallel || nBlocks < lanes {
		c.gh.ProcessSegment(data, &c.x)
		return
	}

	blocksPerLane := (nBlocks + lanes - 1) / lanes
	chunkChecksums := make([][16]byte, 0, lanes+1)
	chunkBlockCounts := make([]int, 0, lanes+1)
	chunkChecksums = append(chunkChecksums, c.x)
	chunkBlockCounts = append(chunkBlockCounts, 0)

	type laneResult struct {
		checksum [16]byte
		blocks   int
	}
	results := make([]laneResult, lanes)
	var wg sync.WaitGroup
	activeLanes := 0
	for lane := 0; lane < lanes; lane++ {
		start := lane * blocksPerLane
		if start >= nBlocks {
			break
		}
		end := start + blocksPerLane
		if end > nBlocks {
			end = nBlocks
		}
		activeLanes++
		wg.Add(1)
		go func(lane, start, end int) {
			defer wg.Done()
			var checksum [16]byte
			c.gh.ProcessSegment(data[start*blockSize:end*blockSize], &checksum)
			results[lane] = laneResult{checksum: checksum, blocks: end - start}
		}(lane, start, end)
	}
	wg.Wait()

	for lane := 0; lane < activeLanes; lane++ {
		chunkChecksums = append(chunkChecksums, results[lane].checksum)
		chunkBlockCounts = append(chunkBlockCounts, results[lane].blocks)
	}
	c.x = ParallelGHASHCombine(c.gh, chunkChecksums, chunkBlockCounts)

	if rem := len(data) - nBlocks*blockSize; rem > 0 {
		c.gh.ProcessSegment(data[nBlocks*blockSize:], &c.x)
	}
}

func serialXOR(d *ctrmode.Driver, dst, src []byte) {
	for len(src) >= blockSize {
		d.EncryptBlock(dst[:blockSize], src[:blockSize])
		dst = dst[blockSize:]
		src = src[blockSize:]
	}
	if len(src) > 0 {
		d.XORKeyStream(dst, src)
	}
}

// parallelMinSize mirrors spec.md's parallel_min_size = lanes * block_size
// * processor_count threshold below which the serial path is used.
func parallelMinSize(lanes int) int {
	if lanes <= 1 {
		return 1 << 62 // effectively disables the parallel path
	}
	return lanes * blockSize * runtime.NumCPU()
}

// Finalize computes the authentication tag: X' = GHASH.Finalize(checksum,
// aadSize, msgSize), tag = E_K(J0) XOR X', and writes the first tagLen
// bytes into out. tagLen must be in [MinTagLen, MaxTagLen]. If
// AutoIncrementNonce is set, the nonce is advanced by one and the cipher
// is re-initialized transparently.
func (c *Cipher) Finalize(out []byte, tagLen int) error {
	if c.state == stateUninitialized {
		return fmt.Errorf("%w: Finalize requires Initialize first", cexerr.ErrInvalidState)
	}
	if tagLen < MinTagLen || tagLen > MaxTagLen {
		return fmt.Errorf("%w: tag length must be in [%d,%d], got %d", cexerr.ErrInvalidParameter, MinTagLen, MaxTagLen, tagLen)
	}
	if len(out) < tagLen {
		return fmt.Errorf("%w: tag output buffer too short", cexerr.ErrShortBuffer)
	}

	tag := c.computeTag(tagLen)
	copy(out[:tagLen], tag[:tagLen])
	c.state = stateFinalized

	if c.opts.AutoIncrementNonce {
		nextNonce := append([]byte(nil), c.nonce...)
		incrementBE(nextNonce)
		key := c.key
		isEnc := c.isEncrypt
		if err := c.Initialize(isEnc, key, nextNonce); err != nil {
			return err
		}
		if c.opts.PreserveAD && c.retainedAAD != nil {
			if err := c.SetAssociatedData(c.retainedAAD); err != nil {
				return err
			}
		}
	}
	return nil
}

func (c *Cipher) computeTag(tagLen int) [16]byte {
	xFinal := c.gh.Finalize(c.x, c.aadSize, c.msgSize)
	var ek [16]byte
	c.block.Encrypt(ek[:], c.j0[:])
	var tag [16]byte
	for i := 0; i < 16; i++ {
		tag[i] = ek[i] ^ xFinal[i]
	}
	return tag
}

// Verify is decrypt-only: it recomputes the tag as Finalize would and
// compares it to expected in constant time. A tag mismatch is reported as
// false rather than as an error, so a wrong tag never surfaces as an
// exception-shaped failure (preventing a padding-oracle-shaped side
// channel). A tagLen outside [MinTagLen, MaxTagLen], an expected buffer
// shorter than tagLen, or calling Verify on an encrypting or uninitialized
// cipher is reported as an error.
func (c *Cipher) Verify(expected []byte, tagLen int) (bool, error) {
	if c.isEncrypt {
		return false, fmt.Errorf("%w: Verify is decrypt-only", cexerr.ErrInvalidState)
	}
	if c.state == stateUninitialized {
		return false, fmt.Errorf("%w: Verify requires Initialize first", cexerr.ErrInvalidState)
	}
	if tagLen < MinTagLen || tagLen > MaxTagLen {
		return false, fmt.Errorf("%w: tag length must be in [%d,%d], got %d", cexerr.ErrInvalidParameter, MinTagLen, MaxTagLen, tagLen)
	}
	if len(expected) < tagLen {
		return false, fmt.Errorf("%w: expected tag buffer too short", cexerr.ErrShortBuffer)
	}

	tag := c.computeTag(tagLen)
	c.state = stateFinalized
	ok := subtle.ConstantTimeCompare(tag[:tagLen], expected[:tagLen]) == 1

	if c.opts.AutoIncrementNonce {
		nextNonce := append([]byte(nil), c.nonce...)
		incrementBE(nextNonce)
		key := c.key
		if err := c.Initialize(c.isEncrypt, key, nextNonce); err != nil {
			return ok, err
		}
		if c.opts.PreserveAD && c.retainedAAD != nil {
			if err := c.SetAssociatedData(c.retainedAAD); err != nil {
				return ok, err
			}
		}
	}
	return ok, nil
}

// Destroy zeroizes key material and returns the cipher to the
// Uninitialized state. It is an error to call Destroy while a transform
// is mid-session (after the first Transform call but before
// Finalize/Verify) — the caller must sequence destruction after all
// transforms return, matching spec.md's "destroy-while-active" failure.
// A session that has been initialized but not yet transformed can be
// destroyed.
func (c *Cipher) Destroy() error {
	if c.state == stateTransforming {
		return fmt.Errorf("%w: Destroy called while a transform is active", cexerr.ErrInvalidState)
	}
	for i := range c.key {
		c.key[i] = 0
	}
	for i := range c.x {
		c.x[i] = 0
	}
	c.key = nil
	c.nonce = nil
	c.retainedAAD = nil
	c.block = nil
	c.gh = nil
	c.state = stateUninitialized
	return nil
}

// Overhead returns the tag length this cipher will produce for the given
// request, clamped to the legal range — a convenience for callers sizing
// output buffers, matching the shape of crypto/cipher.AEAD.Overhead.
func Overhead(tagLen int) int {
	if tagLen < MinTagLen {
		return MinTagLen
	}
	if tagLen > MaxTagLen {
		return MaxTagLen
	}
	return tagLen
}

func incrementBE(b []byte) {
	for i := len(b) - 1; i >= 0; i-- {
		b[i]++
		if b[i] != 0 {
			return
		}
	}
}

// ParallelGHASHCombine performs the standard parallel-GHASH reduction used
// to combine per-worker GHASH accumulators computed over disjoint,
// block-aligned chunks into the one checksum a sequential pass would have
// produced. It is exposed so callers that hand-roll their own chunked
// parallel transform (bypassing Cipher.Transform's built-in dispatch) can
// still produce a checksum bit-identical to the sequential one.
//
// chunkChecksums[i] must be GHASH(H, chunk_i) computed independently
// (starting from a zero checksum), and chunkBlockCounts[i] the number of
// GHASH blocks chunk_i contributed, both ordered by increasing offset
// into the message. A sequential pass over chunk i starting from a
// nonzero running checksum s produces s*H^{n_i} XOR chunkChecksums[i], so
// chunk i's own checksum ends up multiplied by H raised to the total
// block count of every chunk AFTER it, not by its own block count. This
// walks the chunks from last to first, tracking that suffix block count
// and folding each chunk's checksum, exponentiated by it, into acc.
func ParallelGHASHCombine(gh *ghash.GHASH, chunkChecksums [][16]byte, chunkBlockCounts []int) [16]byte {
	var acc [16]byte
	suffixBlocks := 0
	for i := len(chunkChecksums) - 1; i >= 0; i-- {
		term := chunkChecksums[i]
		for b := 0; b < suffixBlocks; b++ {
			term = mulH(gh, term)
		}
		for j := range acc {
			acc[j] ^= term[j]
		}
		suffixBlocks += chunkBlockCounts[i]
	}
	return acc
}

func mulH(gh *ghash.GHASH, v [16]byte) [16]byte {
	var zero [16]byte
	checksum := v
	gh.Update(zero[:], &checksum)
	return checksum
}
