package consensus

import (
	"github.com/tessellate-network/consensuscore/consensus/ancestry"
	"github.com/tessellate-network/consensuscore/consensus/clock"
	"github.com/tessellate-network/consensuscore/consensus/commitobserver"
	"github.com/tessellate-network/consensuscore/consensus/committer"
	"github.com/tessellate-network/consensuscore/consensus/types"
)

// recover implements C8: on construction, rebuild the clock and ancestor
// watermark from durable state. A fresh DagState (nothing but genesis)
// recovers trivially: genesis forms a quorum at round 0, so the clock
// immediately advances to round 1.
func (c *Core) recover() {
	if leader, ok := c.state.LastCommitLeader(); ok {
		c.lastDecidedLeader = leader.Slot()
	}

	lastProposed, ok := c.state.GetLastBlockForAuthority(c.self, ^types.Round(0))
	if !ok {
		fatal("recover: no block found for self authority %d, not even genesis", c.self)
	}
	c.lastProposedBlock = lastProposed

	c.selector = ancestry.NewSelector(c.committee, c.state, c.lastProposedBlock)

	lastQuorumRound := c.state.LastQuorumRound()
	c.clock = clock.New(c.committee, 0)
	c.clock.AddBlocks(c.state.BlocksAtRound(lastQuorumRound))

	c.committer = committer.New(c.committee, c.state, c.clock, c.numLeaders)
	c.commitObserver = commitobserver.New(c.state, c.commitSink)

	c.recordMetrics()
}

func (c *Core) recordMetrics() {
	c.metrics.SetThresholdClockRound(uint64(c.clock.CurrentRound()))
	c.metrics.SetLastDecidedLeaderRound(uint64(c.lastDecidedLeader.Round))
}
