package consensus

import "github.com/tessellate-network/consensuscore/consensus/types"

// AddBlocks implements §4.8, the Core's single entry point for externally
// received blocks. It accepts whatever it can (buffering the rest behind
// missing ancestors), advances the threshold clock, drives a commit attempt,
// then either proposes a new block or, failing that, runs the leader
// reception notifier.
func (c *Core) AddBlocks(batch []*types.VerifiedBlock) (map[types.BlockRef]struct{}, error) {
	accepted, missing, err := c.blockManager.TryAcceptBlocks(batch)
	if err != nil {
		return missing, errAcceptance(err.Error())
	}

	advanced := c.clock.AddBlocks(accepted)
	if advanced {
		c.hub.NewRound(c.clock.CurrentRound())
	}
	c.recordMetrics()

	if err := c.tryCommit(); err != nil {
		return missing, err
	}

	proposed, err := c.tryNewBlock(false)
	if err != nil {
		return missing, err
	}
	if proposed == nil {
		if err := c.notifyLeaderReception(accepted); err != nil {
			return missing, err
		}
	}

	return missing, nil
}
