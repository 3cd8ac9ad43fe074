// Package signals implements the Signal Hub (C7): the Core's only
// externally-visible side channel. It owns no policy, only transport — four
// independent channels built on common/pubsub.Broker, split into a sending
// half (owned by the Core) and a receiving half (exposed once at
// construction so collaborators can subscribe).
package signals

import (
	"fmt"

	"github.com/tessellate-network/consensuscore/common/logging"
	"github.com/tessellate-network/consensuscore/common/pubsub"
	"github.com/tessellate-network/consensuscore/consensus/types"
)

var logger = logging.GetLogger("consensus/signals")

const (
	// blockBroadcastCapacity bounds the lossy block-broadcast backlog.
	blockBroadcastCapacity = 1000
	// latestValueCapacity is 1 for every watch-style (overwrite-on-write)
	// signal: new-round, leader-accepted, new-block-ready.
	latestValueCapacity = 1
)

// LeaderAcceptedUpdate is the payload of the leader-accepted signal: the
// quorum round just completed, and for each of that round's leader slots
// (in commit-rule order) whether the block is already present.
type LeaderAcceptedUpdate struct {
	Round   types.Round
	Present []bool
}

// Hub owns the four signal channels' broadcaster side.
type Hub struct {
	blockBroadcast  *pubsub.Broker
	newRound        *pubsub.Broker
	leaderAccepted  *pubsub.Broker
	newBlockReady   *pubsub.Broker
}

// NewHub builds a Hub with empty subscriber sets.
func NewHub() *Hub {
	return &Hub{
		blockBroadcast: pubsub.NewBroker(blockBroadcastCapacity),
		newRound:       pubsub.NewBroker(latestValueCapacity),
		leaderAccepted: pubsub.NewBroker(latestValueCapacity),
		newBlockReady:  pubsub.NewBroker(latestValueCapacity),
	}
}

// Receivers is the subscriber-facing half, handed out once at construction.
type Receivers struct {
	hub *Hub
}

// Receivers returns the subscriber-facing half of the hub.
func (h *Hub) Receivers() *Receivers {
	return &Receivers{hub: h}
}

// SubscribeBlocks subscribes to the lossy block-broadcast channel.
func (r *Receivers) SubscribeBlocks() *pubsub.Subscription { return r.hub.blockBroadcast.Subscribe() }

// SubscribeNewRound subscribes to the latest-value new-round channel.
func (r *Receivers) SubscribeNewRound() *pubsub.Subscription { return r.hub.newRound.Subscribe() }

// SubscribeLeaderAccepted subscribes to the latest-value leader-accepted channel.
func (r *Receivers) SubscribeLeaderAccepted() *pubsub.Subscription {
	return r.hub.leaderAccepted.Subscribe()
}

// SubscribeNewBlockReady subscribes to the latest-value new-block-ready channel.
func (r *Receivers) SubscribeNewBlockReady() *pubsub.Subscription {
	return r.hub.newBlockReady.Subscribe()
}

// BroadcastBlock fans out a locally-produced block. A broadcast with no
// subscribers is logged at debug level. Overflow on a slow subscriber
// silently evicts that subscriber's oldest buffered block and is not logged.
// Neither case is an error.
func (h *Hub) BroadcastBlock(block *types.VerifiedBlock) {
	delivered := h.blockBroadcast.Broadcast(block)
	if delivered == 0 && h.blockBroadcast.NumSubscribers() == 0 {
		logger.Debug("block broadcast had no subscribers", "ref", block.Reference())
	}
}

// NewRound overwrites the latest-value new-round signal. Round values sent
// here must be strictly increasing within a Core's lifetime.
func (h *Hub) NewRound(round types.Round) {
	h.newRound.Broadcast(round)
}

// LeaderAccepted overwrites the latest-value leader-accepted signal. Per
// §4.6, this channel requires at least one live subscriber; a send with
// zero subscribers is translated into a shutdown-kind error by the Core.
func (h *Hub) LeaderAccepted(update LeaderAcceptedUpdate) error {
	if h.leaderAccepted.NumSubscribers() == 0 {
		return fmt.Errorf("signals: leader-accepted has no subscribers")
	}
	h.leaderAccepted.Broadcast(update)
	return nil
}

// NewBlockReady overwrites the latest-value new-block-ready signal.
func (h *Hub) NewBlockReady(ref types.BlockRef) {
	h.newBlockReady.Broadcast(ref)
}
