// Package consensus implements the per-validator consensus core: the
// state machine that ingests externally-received blocks, advances the
// local threshold clock, proposes new blocks, drives commits, and emits
// lifecycle signals. Every exported method assumes it is called by a
// single logical worker — concurrent calls on the same Core are not
// supported, by design (§5).
package consensus

import (
	"fmt"

	"github.com/tessellate-network/consensuscore/common/errors"
	"github.com/tessellate-network/consensuscore/common/logging"
	"github.com/tessellate-network/consensuscore/common/metrics"
	"github.com/tessellate-network/consensuscore/consensus/ancestry"
	"github.com/tessellate-network/consensuscore/consensus/blockmanager"
	"github.com/tessellate-network/consensuscore/consensus/clock"
	"github.com/tessellate-network/consensuscore/consensus/commitobserver"
	"github.com/tessellate-network/consensuscore/consensus/committer"
	"github.com/tessellate-network/consensuscore/consensus/dagstate"
	"github.com/tessellate-network/consensuscore/consensus/signals"
	"github.com/tessellate-network/consensuscore/consensus/txpool"
	"github.com/tessellate-network/consensuscore/consensus/types"
	"github.com/tessellate-network/consensuscore/crypto/signature"
)

const moduleCore = "consensus/core"

// Error codes for this module's namespaced errors (common/errors).
const (
	errCodeAcceptance uint = iota + 1
	errCodeCommit
	errCodeShutdown
)

var logger = logging.GetLogger("consensus/core")

// Core is the per-validator consensus state machine described in §2–§4.
// It owns the threshold clock, ancestor watermark/selector, and signal hub
// outright; DagState and the transaction consumer are injected through
// Config, and the block manager, committer, and commit observer are built
// by New over that DagState.
type Core struct {
	epoch         uint64
	self          types.AuthorityIndex
	committee     *types.Committee
	signer        signature.Signer
	numLeaders    int

	state          *dagstate.State
	blockManager   *blockmanager.Manager
	clock          *clock.ThresholdClock
	selector       *ancestry.Selector
	committer      *committer.Committer
	commitObserver *commitobserver.Observer
	txConsumer     *txpool.Consumer
	hub            *signals.Hub
	metrics        *metrics.Metrics
	commitSink     commitobserver.Sink

	lastProposedBlock *types.VerifiedBlock
	lastDecidedLeader types.Slot
}

// Config bundles the collaborators and parameters New needs. Metrics may
// be nil (all recording calls become no-ops).
type Config struct {
	Epoch               uint64
	Self                types.AuthorityIndex
	Committee           *types.Committee
	Signer              signature.Signer
	NumLeadersPerRound  int
	State               *dagstate.State
	TransactionConsumer *txpool.Consumer
	Metrics             *metrics.Metrics
	// CommitSink receives committed sub-DAGs once persisted. If nil, a
	// no-op sink is used (useful for tests that only assert on DagState).
	CommitSink commitobserver.Sink
}

type discardSink struct{}

func (discardSink) Deliver(*types.CommittedSubDag) {}

// New constructs a Core and immediately runs recovery (§4.7): it rebuilds
// the threshold clock and ancestor watermark from durable state so the
// returned Core is ready to process fresh add_blocks calls at the correct
// round. Returns the Core and its signal Receivers (handed out exactly
// once, per §4.6).
func New(cfg Config) (*Core, *signals.Receivers) {
	if cfg.NumLeadersPerRound < 1 {
		cfg.NumLeadersPerRound = 1
	}

	blockManager := blockmanager.New(cfg.State)
	hub := signals.NewHub()

	sink := cfg.CommitSink
	if sink == nil {
		sink = discardSink{}
	}

	c := &Core{
		epoch:        cfg.Epoch,
		self:         cfg.Self,
		committee:    cfg.Committee,
		signer:       cfg.Signer,
		numLeaders:   cfg.NumLeadersPerRound,
		state:        cfg.State,
		blockManager: blockManager,
		txConsumer:   cfg.TransactionConsumer,
		hub:          hub,
		metrics:      cfg.Metrics,
		commitSink:   sink,
	}

	c.recover()
	return c, hub.Receivers()
}

// fatal aborts the process. Per §7, wall-clock regressions, quorum-parent
// violations, self-block rejection, and signing/serialization failures are
// programming or environment bugs the Core never catches.
func fatal(format string, args ...interface{}) {
	logger.Error("fatal consensus error", "detail", fmt.Sprintf(format, args...))
	panic(fmt.Sprintf("consensus: fatal: "+format, args...))
}

var (
	errAcceptance = func(detail string) error { return errors.New(moduleCore, errCodeAcceptance, detail) }
	errCommit     = func(detail string) error { return errors.New(moduleCore, errCodeCommit, detail) }
	errShutdown   = func(detail string) error { return errors.New(moduleCore, errCodeShutdown, detail) }
)
