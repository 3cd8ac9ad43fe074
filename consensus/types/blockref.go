package types

import (
	"fmt"

	"github.com/tessellate-network/consensuscore/crypto/hash"
)

// BlockRef is a content-addressed reference to a block: the triple
// (round, author, digest). Equality and ordering derive from the
// lexicographic order of that triple.
type BlockRef struct {
	Round  Round
	Author AuthorityIndex
	Digest hash.Hash
}

func (r BlockRef) String() string {
	return fmt.Sprintf("blockref(%d, %d, %s)", r.Round, r.Author, r.Digest)
}

// Slot returns the (round, author) slot this reference occupies.
func (r BlockRef) Slot() Slot {
	return Slot{Round: r.Round, Authority: r.Author}
}

// Compare implements BlockRef's required total order: round, then author,
// then digest.
func (r BlockRef) Compare(o BlockRef) int {
	switch {
	case r.Round != o.Round:
		if r.Round < o.Round {
			return -1
		}
		return 1
	case r.Author != o.Author:
		if r.Author < o.Author {
			return -1
		}
		return 1
	default:
		return r.Digest.Compare(o.Digest)
	}
}

// Equal reports whether two references are identical.
func (r BlockRef) Equal(o BlockRef) bool {
	return r.Compare(o) == 0
}

// SortBlockRefs sorts refs in place by author, the order the ancestor
// selector gives a proposal's non-self ancestors (spec §4.2 step 7; the
// selector itself sorts with sort.Slice).
func SortBlockRefs(refs []BlockRef) {
	// Simple insertion sort: ancestor lists are small (bounded by committee
	// size), so this avoids pulling in sort.Slice's reflection overhead.
	for i := 1; i < len(refs); i++ {
		for j := i; j > 0 && refs[j].Author < refs[j-1].Author; j-- {
			refs[j], refs[j-1] = refs[j-1], refs[j]
		}
	}
}
