// Package committer implements the universal committer collaborator
// (§6): leader election and the commit rule. The Core treats its leader
// arithmetic as opaque (§1 Non-goals); this package supplies a concrete,
// deliberately simple round-robin rule — a configurable number of leaders
// per round (usually one), decided once the threshold clock has certified
// the following round — rather than the
// full Bullshark/DAG-Rider wave arithmetic, which is out of scope here.
package committer

import (
	"github.com/tessellate-network/consensuscore/consensus/clock"
	"github.com/tessellate-network/consensuscore/consensus/dagstate"
	"github.com/tessellate-network/consensuscore/consensus/types"
)

// Committer decides, round by round, whether each round's leader slot
// committed (its block is present in DagState) or was skipped.
type Committer struct {
	committee       *types.Committee
	state           *dagstate.State
	clock           *clock.ThresholdClock
	leadersPerRound int
}

// New builds a Committer. leadersPerRound must be >= 1; most deployments
// use exactly 1.
func New(committee *types.Committee, state *dagstate.State, thresholdClock *clock.ThresholdClock, leadersPerRound int) *Committer {
	if leadersPerRound < 1 {
		leadersPerRound = 1
	}
	return &Committer{committee: committee, state: state, clock: thresholdClock, leadersPerRound: leadersPerRound}
}

// GetLeaders returns the leader authorities for round, in a deterministic
// round-robin rotation over the committee.
func (c *Committer) GetLeaders(round types.Round) []types.AuthorityIndex {
	n := types.AuthorityIndex(c.committee.Size())
	leaders := make([]types.AuthorityIndex, c.leadersPerRound)
	base := types.AuthorityIndex((uint64(round) * uint64(c.leadersPerRound)) % uint64(n))
	for i := range leaders {
		leaders[i] = (base + types.AuthorityIndex(i)) % n
	}
	return leaders
}

// TryCommit returns the ordered leader verdicts for every leader slot
// strictly after lastDecided whose round has already been certified by the
// threshold clock (i.e. the clock has advanced at least one round past
// it), in increasing (round, authority) order.
func (c *Committer) TryCommit(lastDecided types.Slot) []types.LeaderVerdict {
	var verdicts []types.LeaderVerdict

	round := lastDecided.Round + 1
	for round+1 <= c.clock.CurrentRound() {
		for _, leader := range c.GetLeaders(round) {
			slot := types.NewSlot(round, leader)
			if block, ok := c.state.GetBlock(slot); ok {
				verdicts = append(verdicts, types.Committed(slot, block.Reference()))
			} else {
				verdicts = append(verdicts, types.Skipped(slot))
			}
		}
		round++
	}
	return verdicts
}
