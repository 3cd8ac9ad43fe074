package consensus

import (
	"github.com/tessellate-network/consensuscore/consensus/signals"
	"github.com/tessellate-network/consensuscore/consensus/types"
)

// notifyLeaderReception implements C6 (§4.5). It only fires on an add_blocks
// call that did not itself produce a new proposal: if any block just
// accepted occupies a leader slot of the round the clock has just certified
// (round-1 relative to the current clock round), tell subscribers which of
// that round's leader slots are present so they can decide whether to force
// a new block.
func (c *Core) notifyLeaderReception(accepted []*types.VerifiedBlock) error {
	round := c.clock.CurrentRound()
	if round == 0 {
		return nil
	}
	certifiedRound := round - 1

	leaders := c.committer.GetLeaders(certifiedRound)

	matched := false
	for _, b := range accepted {
		if b.Round() != certifiedRound {
			continue
		}
		for _, leader := range leaders {
			if b.Author() == leader {
				matched = true
			}
		}
	}
	if !matched {
		return nil
	}

	present := make([]bool, len(leaders))
	for i, leader := range leaders {
		present[i] = c.state.ContainsBlockAtSlot(types.NewSlot(certifiedRound, leader))
	}

	if err := c.hub.LeaderAccepted(signals.LeaderAcceptedUpdate{Round: certifiedRound, Present: present}); err != nil {
		return errShutdown(err.Error())
	}
	return nil
}
