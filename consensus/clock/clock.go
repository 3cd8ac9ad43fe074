// Package clock implements the threshold clock (C1): the Core's notion of
// "current round", which jumps forward to the highest round referenced by
// any accepted block and then advances past it only once a quorum of
// distinct authorities' references at that round has been observed.
package clock

import (
	"github.com/tessellate-network/consensuscore/consensus/types"
)

// ThresholdClock is a DAG-derived logical clock: a validator is at round r
// once it has observed a quorum of round r-1 block references.
type ThresholdClock struct {
	committee *types.Committee

	round types.Round
	agg   *types.StakeAggregator
}

// New builds a ThresholdClock starting at round (0 fresh from genesis).
func New(committee *types.Committee, round types.Round) *ThresholdClock {
	return &ThresholdClock{
		committee: committee,
		round:     round,
		agg:       types.NewQuorumAggregator(committee),
	}
}

// CurrentRound returns the clock's current round.
func (c *ThresholdClock) CurrentRound() types.Round {
	return c.round
}

// AddBlock folds a single accepted block's reference into the clock. It
// returns true if the round advanced as a result.
func (c *ThresholdClock) AddBlock(ref types.BlockRef) bool {
	switch {
	case ref.Round > c.round:
		// Bulk-sync jump: move straight to the highest round referenced,
		// discarding whatever partial quorum had been accumulated for
		// the old round, and re-seed with this one reference.
		c.round = ref.Round
		c.agg = types.NewQuorumAggregator(c.committee)
		c.agg.Add(ref.Author)
	case ref.Round == c.round:
		c.agg.Add(ref.Author)
	default:
		return false
	}

	if !c.agg.ReachedThreshold() {
		return false
	}
	c.round++
	c.agg = types.NewQuorumAggregator(c.committee)
	return true
}

// AddBlocks folds a batch of accepted blocks into the clock. It returns
// true if at least one advance occurred during the fold.
func (c *ThresholdClock) AddBlocks(blocks []*types.VerifiedBlock) bool {
	advanced := false
	for _, b := range blocks {
		if c.AddBlock(b.Reference()) {
			advanced = true
		}
	}
	return advanced
}
