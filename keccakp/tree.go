// Parallel Keccak tree hashing. Unlike BLAKE2b, Keccak has no standardized
// parameter block for tree-mode domain separation, so leaf and root nodes
// are separated the way cSHAKE/KMAC-style constructions do it: a
// fixed-layout parameter prefix is absorbed by the sponge before the
// node's real input. This is a deliberate, corpus-informed design
// decision (recorded in DESIGN.md) rather than a standardized mode.
package keccakp

import (
	"encoding/binary"
	"fmt"

	"github.com/kryptid/cex/treehash"
)

// paramPrefix encodes the subset of treehash.Params relevant to domain
// separation into a fixed 32-byte block, absorbed as the first sponge
// input for every leaf and the root node.
func paramPrefix(p treehash.Params) []byte {
	buf := make([]byte, 32)
	buf[0] = byte(p.DigestLen)
	buf[1] = byte(p.KeyLen)
	buf[2] = byte(p.Fanout)
	buf[3] = byte(p.Depth)
	binary.LittleEndian.PutUint32(buf[4:8], uint32(p.LeafLen))
	binary.LittleEndian.PutUint64(buf[8:16], p.NodeOffset)
	buf[16] = byte(p.NodeDepth)
	buf[17] = byte(p.InnerLen)
	return buf
}

// Tree is a parallel Keccak-512 tree hash instance (Keccak-p).
type Tree struct {
	params treehash.Params
	fanout int
	leaves []*Digest
	buf    []byte
}

// NewTree returns a Tree with the given fanout (parallel degree). fanout
// must be even and greater than one.
func NewTree(fanout int) (*Tree, error) {
	params := treehash.Params{
		DigestLen: DigestSize,
		Fanout:    fanout,
		Depth:     2,
		InnerLen:  DigestSize,
	}
	if err := params.Validate(fanout, Rate512); err != nil {
		return nil, fmt.Errorf("keccakp: %w", err)
	}
	leaves := make([]*Digest, fanout)
	for i := 0; i < fanout; i++ {
		lp := params.LeafParams(i)
		d := New512()
		d.Write(paramPrefix(lp))
		leaves[i] = d
	}
	return &Tree{params: params, fanout: fanout, leaves: leaves}, nil
}

// Write buffers p for later leaf assignment.
func (t *Tree) Write(p []byte) (int, error) {
	t.buf = append(t.buf, p...)
	return len(p), nil
}

// Reset discards buffered input and re-primes every leaf.
func (t *Tree) Reset() error {
	fresh, err := NewTree(t.fanout)
	if err != nil {
		return err
	}
	*t = *fresh
	return nil
}

// Sum assigns buffered bytes to leaves in Rate512-sized round-robin
// strides, finalizes each leaf, concatenates the leaf digests behind a
// root parameter prefix, and returns the root Keccak-512 digest appended
// to b.
func (t *Tree) Sum(b []byte) []byte {
	total := len(t.buf)
	nBlocks := (total + Rate512 - 1) / Rate512
	for blk := 0; blk < nBlocks; blk++ {
		leafIdx := blk % t.fanout
		start := blk * Rate512
		end := start + Rate512
		if end > total {
			end = total
		}
		t.leaves[leafIdx].Write(t.buf[start:end])
	}

	leafDigests := make([]byte, 0, t.fanout*DigestSize)
	for i := 0; i < t.fanout; i++ {
		leafDigests = t.leaves[i].Sum(leafDigests)
	}

	root := New512()
	root.Write(paramPrefix(t.params.RootParams()))
	root.Write(leafDigests)
	return root.Sum(b)
}

// Sum512P is a convenience one-shot: Keccak-p(fanout, data).
func Sum512P(fanout int, data []byte) ([]byte, error) {
	t, err := NewTree(fanout)
	if err != nil {
		return nil, err
	}
	t.Write(data)
	return t.Sum(nil), nil
}
