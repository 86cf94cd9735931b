// Package treehash holds the tree parameters and their validation shared
// by BLAKE2bp and parallel Keccak tree hashing (spec.md §4.E), plus the
// per-leaf and root parameter derivations. It contains no hashing driver:
// the buffering, leaf-assignment and root-node finalization are
// implemented separately in blake2bp and keccakp.
package treehash

import (
	"fmt"

	"github.com/kryptid/cex/cexerr"
)

// Params are the tree parameters BLAKE2bp and parallel Keccak share:
// digest length, key length, fanout, depth, leaf length, node
// offset/depth and inner length. Changing any of them yields a different
// output by design — this is domain separation, not a bug.
type Params struct {
	DigestLen  int
	KeyLen     int
	Fanout     int
	Depth      int
	LeafLen    int
	NodeOffset uint64
	NodeDepth  int
	InnerLen   int
}

// Validate checks the invariants spec.md §4.E requires: fanout must be
// even (parallel degree) and no larger than the caller's declared thread
// count, and a nonzero leaf length must be a multiple of blockSize.
func (p Params) Validate(threadCount, blockSize int) error {
	if p.Fanout <= 1 {
		return fmt.Errorf("%w: fanout must be > 1 for a parallel tree, got %d", cexerr.ErrInvalidParameter, p.Fanout)
	}
	if p.Fanout%2 != 0 {
		return fmt.Errorf("%w: fanout must be even, got %d", cexerr.ErrInvalidParameter, p.Fanout)
	}
	if threadCount > 0 && p.Fanout > threadCount {
		return fmt.Errorf("%w: fanout %d exceeds thread count %d", cexerr.ErrInvalidParameter, p.Fanout, threadCount)
	}
	if p.LeafLen != 0 && p.LeafLen%blockSize != 0 {
		return fmt.Errorf("%w: leaf length %d is not a multiple of block size %d", cexerr.ErrInvalidParameter, p.LeafLen, blockSize)
	}
	return nil
}

// LeafParams returns the tree parameters for leaf i of Fanout: node_offset
// = i, node_depth = 0.
func (p Params) LeafParams(i int) Params {
	lp := p
	lp.NodeOffset = uint64(i)
	lp.NodeDepth = 0
	return lp
}

// RootParams returns the tree parameters for the root reduction node:
// node_depth = 1, node_offset = 0.
func (p Params) RootParams() Params {
	rp := p
	rp.NodeOffset = 0
	rp.NodeDepth = 1
	return rp
}
