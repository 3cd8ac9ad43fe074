package consensus

import "github.com/tessellate-network/consensuscore/consensus/types"

// tryCommit implements C5 (§4.4): ask the committer for every leader verdict
// newly certified by the threshold clock, advance lastDecidedLeader past
// them, and hand the committed (non-skipped) leader blocks to the commit
// observer for sub-DAG resolution and persistence.
func (c *Core) tryCommit() error {
	verdicts := c.committer.TryCommit(c.lastDecidedLeader)
	if len(verdicts) == 0 {
		return nil
	}
	c.lastDecidedLeader = verdicts[len(verdicts)-1].Slot

	committedBlocks := make([]*types.VerifiedBlock, 0, len(verdicts))
	for _, v := range verdicts {
		if v.Status != types.LeaderCommitted {
			continue
		}
		block, ok := c.state.GetBlock(v.Slot)
		if !ok {
			fatal("committed leader slot %v has no block in DagState", v.Slot)
		}
		committedBlocks = append(committedBlocks, block)
	}

	if len(committedBlocks) > 0 {
		if _, err := c.commitObserver.HandleCommit(committedBlocks); err != nil {
			return errCommit(err.Error())
		}
	}

	c.recordMetrics()
	return nil
}
