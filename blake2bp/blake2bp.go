// Package blake2bp implements BLAKE2bp, the parallel tree-hashing mode of
// BLAKE2b: `fanout` independent leaf digests, each fed a disjoint,
// block-interleaved slice of the message, whose outputs are concatenated
// and hashed once more by a root node. The result differs from plain
// BLAKE2b of the same input by design — a different tree shape is a
// different domain, not a bug.
package blake2bp

import (
	"fmt"
	"hash"

	blake2b "github.com/minio/blake2b-simd"

	"github.com/kryptid/cex/treehash"
)

// BlockSize and DigestSize match BLAKE2b's fixed block and default output
// sizes (128 and 64 bytes respectively).
const (
	BlockSize  = 128
	DigestSize = 64
)

// Hasher is a BLAKE2bp tree-hash instance. It buffers the whole message
// (rather than streaming leaf-wise) so leaf/round-robin block assignment
// can be computed exactly once at Sum time; see DESIGN.md for why this
// trades peak memory for a simpler, unambiguously-correct implementation.
type Hasher struct {
	params treehash.Params
	fanout int
	leaves []hash.Hash
	buf    []byte
}

// New returns a Hasher with the given fanout (parallel degree). fanout
// must be even and greater than one.
func New(fanout int) (*Hasher, error) {
	params := treehash.Params{
		DigestLen: DigestSize,
		Fanout:    fanout,
		Depth:     2,
		InnerLen:  DigestSize,
	}
	if err := params.Validate(fanout, BlockSize); err != nil {
		return nil, fmt.Errorf("blake2bp: %w", err)
	}
	leaves := make([]hash.Hash, fanout)
	for i := 0; i < fanout; i++ {
		lp := params.LeafParams(i)
		h, err := blake2b.New(&blake2b.Config{
			Size: DigestSize,
			Tree: &blake2b.Tree{
				Fanout:        uint8(fanout),
				MaxDepth:      2,
				LeafSize:      0,
				NodeOffset:    lp.NodeOffset,
				NodeDepth:     uint8(lp.NodeDepth),
				InnerHashSize: DigestSize,
				IsLastNode:    i == fanout-1,
			},
		})
		if err != nil {
			return nil, fmt.Errorf("blake2bp: leaf %d: %w", i, err)
		}
		leaves[i] = h
	}
	return &Hasher{params: params, fanout: fanout, leaves: leaves}, nil
}

// Write buffers p for later leaf assignment. It never returns an error.
func (h *Hasher) Write(p []byte) (int, error) {
	h.buf = append(h.buf, p...)
	return len(p), nil
}

// Reset discards buffered input and re-primes every leaf digest, so the
// same Hasher can compute another tree hash from scratch.
func (h *Hasher) Reset() error {
	fresh, err := New(h.fanout)
	if err != nil {
		return err
	}
	*h = *fresh
	return nil
}

// Sum assigns buffered bytes to leaves in block_size-sized, round-robin
// strides (leaf i consumes bytes [i*block_size, (i+1)*block_size), then
// [(i+fanout)*block_size, (i+fanout+1)*block_size), ...), finalizes each
// leaf, concatenates the fanout leaf digests, and feeds that as the
// message to a fresh root digest instance (node_depth=1, last_node=true).
// The root digest is the return value, appended to b.
func (h *Hasher) Sum(b []byte) []byte {
	total := len(h.buf)
	nBlocks := (total + BlockSize - 1) / BlockSize
	for blk := 0; blk < nBlocks; blk++ {
		leafIdx := blk % h.fanout
		start := blk * BlockSize
		end := start + BlockSize
		if end > total {
			end = total
		}
		h.leaves[leafIdx].Write(h.buf[start:end])
	}

	leafDigests := make([]byte, 0, h.fanout*DigestSize)
	for i := 0; i < h.fanout; i++ {
		leafDigests = h.leaves[i].Sum(leafDigests)
	}

	root, err := blake2b.New(&blake2b.Config{
		Size: DigestSize,
		Tree: &blake2b.Tree{
			Fanout:        uint8(h.fanout),
			MaxDepth:      2,
			LeafSize:      0,
			NodeOffset:    0,
			NodeDepth:     1,
			InnerHashSize: DigestSize,
			IsLastNode:    true,
		},
	})
	if err != nil {
		// Config is fixed and validated at New time; a failure here would
		// mean the library itself rejects a configuration this package
		// already accepted for every leaf, which cannot happen.
		panic(fmt.Sprintf("blake2bp: root digest construction failed: %v", err))
	}
	root.Write(leafDigests)
	return root.Sum(b)
}

// Sum512P is a convenience one-shot: BLAKE2bp(fanout, data).
func Sum512P(fanout int, data []byte) ([]byte, error) {
	h, err := New(fanout)
	if err != nil {
		return nil, err
	}
	h.Write(data)
	return h.Sum(nil), nil
}

// Sum512 computes plain sequential BLAKE2b-512, exposed here for the
// "parallel output differs from sequential" testable property — it is a
// thin pass-through to the underlying library with no tree parameters
// set.
func Sum512(data []byte) ([]byte, error) {
	h, err := blake2b.New(&blake2b.Config{Size: DigestSize})
	if err != nil {
		return nil, err
	}
	h.Write(data)
	return h.Sum(nil), nil
}
