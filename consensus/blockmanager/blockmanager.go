// Package blockmanager implements block acceptance: the causal-history
// buffering collaborator the Core delegates to rather than re-implementing.
// It is deliberately out of the Core's scope (spec §1) but the Core drives
// every add_blocks/propose path through it.
package blockmanager

import (
	"fmt"

	multierror "github.com/hashicorp/go-multierror"

	"github.com/tessellate-network/consensuscore/consensus/dagstate"
	"github.com/tessellate-network/consensuscore/consensus/types"
)

// Manager buffers blocks whose ancestors are not yet all known, releasing
// them once every ancestor becomes available, and indexes newly-complete
// blocks into DagState.
type Manager struct {
	state *dagstate.State

	// pending holds not-yet-accepted blocks keyed by the BlockRef they're
	// still waiting on, so a late-arriving ancestor can release every
	// block it was blocking.
	pending map[types.BlockRef][]*types.VerifiedBlock
}

// New builds a Manager over state.
func New(state *dagstate.State) *Manager {
	return &Manager{
		state:   state,
		pending: make(map[types.BlockRef][]*types.VerifiedBlock),
	}
}

// TryAcceptBlocks attempts to accept every block in batch. A block is
// accepted once all of its ancestors are present in DagState (either
// already accepted, or accepted earlier in this same call). Blocks with a
// missing ancestor are buffered; their missing refs are reported back so
// the caller can fetch them. The call is idempotent: a block already
// present at its slot is silently absorbed.
func (m *Manager) TryAcceptBlocks(batch []*types.VerifiedBlock) (accepted []*types.VerifiedBlock, missing map[types.BlockRef]struct{}, err error) {
	missing = make(map[types.BlockRef]struct{})
	var errs error

	frontier := make([]*types.VerifiedBlock, 0, len(batch))
	for _, b := range batch {
		if b == nil {
			errs = multierror.Append(errs, fmt.Errorf("blockmanager: nil block in batch"))
			continue
		}
		if m.state.ContainsBlockAtSlot(b.Slot()) {
			continue // idempotent re-delivery
		}
		frontier = append(frontier, b)
	}

	for len(frontier) > 0 {
		var stillMissing []*types.VerifiedBlock
		readyNow := make([]*types.VerifiedBlock, 0, len(frontier))

		for _, b := range frontier {
			ready := true
			for _, ancestor := range b.Ancestors() {
				if !m.state.ContainsBlockAtSlot(ancestor.Slot()) && !containsRef(readyNow, ancestor) {
					ready = false
					missing[ancestor] = struct{}{}
				}
			}
			if ready {
				readyNow = append(readyNow, b)
			} else {
				stillMissing = append(stillMissing, b)
			}
		}

		if len(readyNow) == 0 {
			// Nothing more can be released this call: buffer the rest.
			for _, b := range stillMissing {
				for _, ancestor := range b.Ancestors() {
					if !m.state.ContainsBlockAtSlot(ancestor.Slot()) {
						m.pending[ancestor] = append(m.pending[ancestor], b)
					}
				}
			}
			break
		}

		if err := m.state.AddAccepted(readyNow); err != nil {
			errs = multierror.Append(errs, fmt.Errorf("blockmanager: persist accepted batch: %w", err))
		}
		accepted = append(accepted, readyNow...)
		for _, b := range readyNow {
			delete(missing, b.Reference())
		}

		// A just-accepted block may release blocks that were pending on it.
		frontier = stillMissing
		for _, b := range readyNow {
			if released, ok := m.pending[b.Reference()]; ok {
				frontier = append(frontier, released...)
				delete(m.pending, b.Reference())
			}
		}
	}

	return accepted, missing, errs
}

func containsRef(blocks []*types.VerifiedBlock, ref types.BlockRef) bool {
	for _, b := range blocks {
		if b.Reference().Equal(ref) {
			return true
		}
	}
	return false
}
