package consensus

import (
	"time"

	"github.com/tessellate-network/consensuscore/consensus/types"
)

func nowMillis() types.TimestampMs {
	return types.TimestampMs(time.Now().UnixNano() / int64(time.Millisecond))
}

// tryNewBlock implements C4 (§4.3). It returns nil, nil if no proposal is
// currently due (clock hasn't advanced past the last proposal, or the
// previous round's leaders aren't all in yet).
func (c *Core) tryNewBlock(ignoreLeaderCheck bool) (*types.VerifiedBlock, error) {
	round := c.clock.CurrentRound()
	if round <= c.lastProposedBlock.Round() {
		return nil, nil
	}

	if !ignoreLeaderCheck && round >= 1 {
		if !c.allLeadersPresent(round - 1) {
			return nil, nil
		}
	}

	now := nowMillis()

	ancestors, err := c.selector.AncestorsToPropose(round, now, c.lastProposedBlock)
	if err != nil {
		return nil, err
	}

	txs := c.txConsumer.Next()

	body := types.NewBlockV1(c.epoch, round, c.self, now, ancestors, txs)
	signed, err := types.NewSignedBlock(body, c.signer)
	if err != nil {
		fatal("sign own block at round %d: %v", round, err)
	}
	envelope, err := signed.Serialize()
	if err != nil {
		fatal("serialize own block at round %d: %v", round, err)
	}
	block := types.NewVerifiedBlock(signed, envelope)

	clockAdvanced := c.clock.AddBlock(block.Reference())

	accepted, missing, err := c.blockManager.TryAcceptBlocks([]*types.VerifiedBlock{block})
	if err != nil || len(accepted) != 1 || len(missing) != 0 {
		fatal("self-proposed block at round %d was not cleanly accepted: accepted=%d missing=%d err=%v",
			round, len(accepted), len(missing), err)
	}

	c.lastProposedBlock = block
	if clockAdvanced {
		c.hub.NewRound(c.clock.CurrentRound())
	}
	c.recordMetrics()

	c.hub.NewBlockReady(block.Reference())
	c.hub.BroadcastBlock(block)

	logger.Info("proposed block", "round", round, "ancestors", len(ancestors), "txs", len(txs))
	return block, nil
}

// forceNewBlock implements force_new_block(r): a liveness kick called by an
// external timer when round r-1's leader has not been received in time.
func (c *Core) forceNewBlock(round types.Round) (*types.VerifiedBlock, error) {
	if c.lastProposedBlock.Round() >= round {
		return nil, nil
	}
	c.metrics.IncLeaderTimeout()
	return c.tryNewBlock(true)
}

// ForceNewBlock is the external entry point for forceNewBlock.
func (c *Core) ForceNewBlock(round types.Round) (*types.VerifiedBlock, error) {
	return c.forceNewBlock(round)
}

func (c *Core) allLeadersPresent(round types.Round) bool {
	for _, leader := range c.committer.GetLeaders(round) {
		if !c.state.ContainsBlockAtSlot(types.NewSlot(round, leader)) {
			return false
		}
	}
	return true
}
