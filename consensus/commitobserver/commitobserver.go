// Package commitobserver implements the commit observer collaborator
// (§6): it resolves a committed leader into its full causal sub-DAG,
// persists the result, and forwards it downstream. The Core only ever
// hands it concrete leader blocks (never skipped slots, per §4.4).
package commitobserver

import (
	"fmt"
	"sort"

	"github.com/tessellate-network/consensuscore/common/logging"
	"github.com/tessellate-network/consensuscore/consensus/dagstate"
	"github.com/tessellate-network/consensuscore/consensus/types"
)

var logger = logging.GetLogger("consensus/commitobserver")

// Sink receives committed sub-DAGs once they have been persisted, for
// forwarding to an execution layer. Implementations must not block
// indefinitely; a slow sink stalls the whole commit path.
type Sink interface {
	Deliver(*types.CommittedSubDag)
}

// Observer turns committed leader blocks into CommittedSubDags: the
// leader plus every causally-preceding block not yet part of an earlier
// sub-DAG, in a deterministic (round, author) order.
type Observer struct {
	state     *dagstate.State
	sink      Sink
	committed map[types.BlockRef]struct{}
}

// New builds an Observer over state, delivering resolved sub-DAGs to sink.
func New(state *dagstate.State, sink Sink) *Observer {
	return &Observer{
		state:     state,
		sink:      sink,
		committed: make(map[types.BlockRef]struct{}),
	}
}

// HandleCommit resolves each leader block (in order) into a CommittedSubDag,
// persists it via DagState, and forwards it to the sink.
func (o *Observer) HandleCommit(leaders []*types.VerifiedBlock) ([]*types.CommittedSubDag, error) {
	subdags := make([]*types.CommittedSubDag, 0, len(leaders))
	for _, leader := range leaders {
		subdag := o.resolve(leader)
		envelope, err := leader.Signed().Serialize()
		if err != nil {
			return subdags, fmt.Errorf("commitobserver: serialize leader %s: %w", leader.Reference(), err)
		}
		if err := o.state.RecordCommit(subdag, envelope); err != nil {
			return subdags, fmt.Errorf("commitobserver: persist commit %d: %w", subdag.Index, err)
		}
		for _, b := range subdag.Blocks {
			o.committed[b.Reference()] = struct{}{}
		}
		o.sink.Deliver(subdag)
		subdags = append(subdags, subdag)
		logger.Info("committed sub-dag", "index", subdag.Index, "leader", subdag.Leader, "blocks", len(subdag.Blocks))
	}
	return subdags, nil
}

// resolve walks leader's causal history depth-first, collecting every
// ancestor not already part of a previous sub-DAG, then orders the result
// deterministically with the leader last.
func (o *Observer) resolve(leader *types.VerifiedBlock) *types.CommittedSubDag {
	visited := make(map[types.BlockRef]struct{})
	var blocks []*types.VerifiedBlock

	var walk func(b *types.VerifiedBlock)
	walk = func(b *types.VerifiedBlock) {
		ref := b.Reference()
		if _, ok := visited[ref]; ok {
			return
		}
		if _, ok := o.committed[ref]; ok {
			visited[ref] = struct{}{}
			return
		}
		visited[ref] = struct{}{}
		for _, ancestorRef := range b.Ancestors() {
			if ancestor, ok := o.state.GetBlock(ancestorRef.Slot()); ok && ancestor.Reference().Equal(ancestorRef) {
				walk(ancestor)
			}
		}
		blocks = append(blocks, b)
	}
	walk(leader)

	sort.SliceStable(blocks, func(i, j int) bool {
		return blocks[i].Reference().Compare(blocks[j].Reference()) < 0
	})

	return &types.CommittedSubDag{
		Index:       o.state.LastCommitIndex() + 1,
		Leader:      leader.Reference(),
		Blocks:      blocks,
		TimestampMs: leader.TimestampMs(),
	}
}
