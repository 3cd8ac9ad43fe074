// Package dagstate maintains the Core's authoritative view of the DAG: an
// in-memory index of accepted blocks over a durable badger-backed store, and
// the bookkeeping the commit path needs (last decided leader, last commit
// index). It is the Core's sole collaborator for both questions "what do I
// already have" and "what have I already committed".
package dagstate

import (
	"fmt"
	"sync"

	"github.com/tessellate-network/consensuscore/consensus/types"
	"github.com/tessellate-network/consensuscore/storage/badger"
)

// State is the in-memory-cache-over-durable-store DAG index.
type State struct {
	mu sync.RWMutex

	committee *types.Committee
	store     *badger.Store

	// blocksBySlot indexes every accepted block by its (round, author)
	// slot, enforcing invariant 2 (at most one block per slot).
	blocksBySlot map[types.Slot]*types.VerifiedBlock

	// highestRoundByAuthor is the in-memory mirror of the store's
	// author/round secondary index, used by get_last_block_for_authority
	// without a store round-trip on the hot path.
	highestRoundByAuthor map[types.AuthorityIndex]types.Round

	lastCommitIndex  types.CommitIndex
	lastCommitLeader types.BlockRef
	hasCommit        bool
}

// New builds a State seeded with committee's genesis blocks, with store as
// the durable backing (store may be nil for a purely in-memory instance,
// used by tests).
func New(committee *types.Committee, store *badger.Store) *State {
	s := &State{
		committee:            committee,
		store:                store,
		blocksBySlot:         make(map[types.Slot]*types.VerifiedBlock),
		highestRoundByAuthor: make(map[types.AuthorityIndex]types.Round),
	}
	for _, genesis := range types.GenesisBlocks(committee) {
		s.indexBlock(genesis)
	}
	return s
}

// Load builds a State the same way New does, then hydrates it from store's
// durable contents: every previously accepted block and the last commit
// pointer. This is what a restarted authority must call instead of New, or
// recovery (consensus/recover.go) will only ever see genesis regardless of
// what's on disk.
func Load(committee *types.Committee, store *badger.Store) (*State, error) {
	s := New(committee, store)
	if store == nil {
		return s, nil
	}

	blocks, err := store.LoadAllBlocks()
	if err != nil {
		return nil, fmt.Errorf("dagstate: load blocks: %w", err)
	}
	s.mu.Lock()
	for _, b := range blocks {
		s.indexBlock(b)
	}
	s.mu.Unlock()

	if index, leader, ok := store.LastCommitInfo(); ok {
		s.mu.Lock()
		s.lastCommitIndex = index
		s.lastCommitLeader = leader
		s.hasCommit = true
		s.mu.Unlock()
	}
	return s, nil
}

func (s *State) indexBlock(block *types.VerifiedBlock) {
	s.blocksBySlot[block.Slot()] = block
	if cur, ok := s.highestRoundByAuthor[block.Author()]; !ok || block.Round() > cur {
		s.highestRoundByAuthor[block.Author()] = block.Round()
	}
}

// AddAccepted indexes newly accepted blocks in memory and, if a durable
// store is configured, persists them in one atomic batch. Blocks must
// already have passed ContainsBlockAtSlot checks upstream (the block
// manager's job); this merely records them.
func (s *State) AddAccepted(blocks []*types.VerifiedBlock) error {
	s.mu.Lock()
	for _, b := range blocks {
		s.indexBlock(b)
	}
	s.mu.Unlock()

	if s.store == nil || len(blocks) == 0 {
		return nil
	}
	return s.store.PutBlocks(blocks)
}

// ContainsBlockAtSlot reports whether a block already occupies slot.
func (s *State) ContainsBlockAtSlot(slot types.Slot) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.blocksBySlot[slot]
	return ok
}

// GetBlock returns the block at slot, if any.
func (s *State) GetBlock(slot types.Slot) (*types.VerifiedBlock, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	b, ok := s.blocksBySlot[slot]
	return b, ok
}

// GetLastBlockForAuthority returns the highest-round block authored by
// author at or below maxRound.
func (s *State) GetLastBlockForAuthority(author types.AuthorityIndex, maxRound types.Round) (*types.VerifiedBlock, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	highest, ok := s.highestRoundByAuthor[author]
	if !ok {
		return nil, false
	}
	round := highest
	if round > maxRound {
		round = maxRound
	}
	for {
		if b, found := s.blocksBySlot[types.NewSlot(round, author)]; found {
			return b, true
		}
		if round == 0 {
			return nil, false
		}
		round--
	}
}

// GetLastBlockPerAuthority returns, for every authority in the committee,
// its highest-round block at or below maxRound. Genesis guarantees every
// authority always has at least one entry.
func (s *State) GetLastBlockPerAuthority(maxRound types.Round) []*types.VerifiedBlock {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*types.VerifiedBlock, 0, s.committee.Size())
	for _, a := range s.committee.Authorities() {
		round, ok := s.highestRoundByAuthor[a.Index]
		if !ok {
			continue
		}
		for round > maxRound {
			round--
		}
		for {
			if b, found := s.blocksBySlot[types.NewSlot(round, a.Index)]; found {
				out = append(out, b)
				break
			}
			if round == 0 {
				break
			}
			round--
		}
	}
	return out
}

// RecordCommit advances the last-decided-leader/last-commit-index
// bookkeeping and, if configured, durably persists the sub-DAG envelope.
func (s *State) RecordCommit(subdag *types.CommittedSubDag, envelope []byte) error {
	s.mu.Lock()
	s.lastCommitIndex = subdag.Index
	s.lastCommitLeader = subdag.Leader
	s.hasCommit = true
	s.mu.Unlock()

	if s.store == nil {
		return nil
	}
	return s.store.PutCommit(subdag.Index, envelope, subdag.Leader)
}

// LastCommitIndex returns the most recently recorded commit index, or 0 if
// nothing has been committed (last_commit_index()).
func (s *State) LastCommitIndex() types.CommitIndex {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastCommitIndex
}

// LastCommitLeader returns the leader ref of the last commit and whether
// any commit has happened yet (last_commit_leader()).
func (s *State) LastCommitLeader() (types.BlockRef, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastCommitLeader, s.hasCommit
}

// BlocksAtRound returns every known block at exactly round, across all
// authorities.
func (s *State) BlocksAtRound(round types.Round) []*types.VerifiedBlock {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*types.VerifiedBlock
	for _, a := range s.committee.Authorities() {
		if b, ok := s.blocksBySlot[types.NewSlot(round, a.Index)]; ok {
			out = append(out, b)
		}
	}
	return out
}

// LastQuorumRound returns the highest round for which at least a quorum of
// distinct authorities have a block present (last_quorum(), used by
// recovery to decide where the proposer should resume).
func (s *State) LastQuorumRound() types.Round {
	s.mu.RLock()
	defer s.mu.RUnlock()

	maxRound := types.Round(0)
	for _, r := range s.highestRoundByAuthor {
		if r > maxRound {
			maxRound = r
		}
	}

	for round := maxRound; round > 0; round-- {
		agg := types.NewQuorumAggregator(s.committee)
		for _, a := range s.committee.Authorities() {
			if _, ok := s.blocksBySlot[types.NewSlot(round, a.Index)]; ok {
				agg.Add(a.Index)
			}
		}
		if agg.ReachedThreshold() {
			return round
		}
	}
	return 0
}
