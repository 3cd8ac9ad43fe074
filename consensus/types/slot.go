package types

import "fmt"

// Round is a monotone non-negative DAG layer. Round 0 is genesis.
type Round uint64

// TimestampMs is a unix-epoch millisecond timestamp.
type TimestampMs uint64

// Slot identifies at most one valid block per honest authority per round.
type Slot struct {
	Round     Round
	Authority AuthorityIndex
}

// NewSlot constructs a Slot.
func NewSlot(round Round, authority AuthorityIndex) Slot {
	return Slot{Round: round, Authority: authority}
}

func (s Slot) String() string {
	return fmt.Sprintf("slot(%d, %d)", s.Round, s.Authority)
}

// Compare implements a total order over Slot: by round then authority.
func (s Slot) Compare(o Slot) int {
	switch {
	case s.Round != o.Round:
		if s.Round < o.Round {
			return -1
		}
		return 1
	case s.Authority != o.Authority:
		if s.Authority < o.Authority {
			return -1
		}
		return 1
	default:
		return 0
	}
}
