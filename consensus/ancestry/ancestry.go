// Package ancestry implements the ancestor watermark (C2) and ancestor
// selector (C3): the subtlest part of the Core, responsible for building
// a proposal's ancestor set from the current DAG view while enforcing the
// quorum-of-parents and monotonic-watermark invariants.
package ancestry

import (
	"fmt"
	"sort"

	"github.com/tessellate-network/consensuscore/consensus/dagstate"
	"github.com/tessellate-network/consensuscore/consensus/types"
)

// Watermark is the per-authority high-water mark of ancestors this
// validator has already included in one of its own proposals (invariant 3:
// monotonically non-decreasing in round, per authority).
type Watermark struct {
	lastIncluded map[types.AuthorityIndex]types.BlockRef
}

// NewWatermark builds an empty watermark.
func NewWatermark() *Watermark {
	return &Watermark{lastIncluded: make(map[types.AuthorityIndex]types.BlockRef)}
}

// Seed initializes the watermark from a previously-proposed block's
// ancestor list (C8 recovery step 3), best-effort: only raises entries, it
// never lowers one already present.
func (w *Watermark) Seed(ancestors []types.BlockRef) {
	for _, ref := range ancestors {
		w.raise(ref)
	}
}

func (w *Watermark) raise(ref types.BlockRef) {
	cur, ok := w.lastIncluded[ref.Author]
	if !ok || cur.Round < ref.Round {
		w.lastIncluded[ref.Author] = ref
	}
}

// Selector builds proposal ancestor sets against a DAG state and a
// watermark, enforcing the quorum-of-parents and wall-clock invariants.
type Selector struct {
	committee *types.Committee
	state     *dagstate.State
	watermark *Watermark
}

// NewSelector builds a Selector over state, seeding its watermark from
// selfLastProposed's ancestor list if selfLastProposed is non-nil.
func NewSelector(committee *types.Committee, state *dagstate.State, selfLastProposed *types.VerifiedBlock) *Selector {
	watermark := NewWatermark()
	if selfLastProposed != nil {
		watermark.Seed(selfLastProposed.Ancestors())
	}
	return &Selector{committee: committee, state: state, watermark: watermark}
}

// AncestorsToPropose implements the §4.2 algorithm: given the clock's
// current round and the own last-proposed block, returns the ordered
// ancestor list (self-parent first) for a new proposal at clockRound.
func (s *Selector) AncestorsToPropose(clockRound types.Round, now types.TimestampMs, selfLastProposed *types.VerifiedBlock) ([]types.BlockRef, error) {
	if clockRound == 0 {
		return nil, fmt.Errorf("ancestry: cannot propose ancestors for round 0")
	}
	parentRound := clockRound - 1

	// Step 1: highest-round known block per authority at round <= parentRound.
	candidates := s.state.GetLastBlockPerAuthority(parentRound)

	// Step 2: keep only candidates that advance the watermark.
	kept := make([]*types.VerifiedBlock, 0, len(candidates))
	for _, c := range candidates {
		ref := c.Reference()
		last, ok := s.watermark.lastIncluded[ref.Author]
		if !ok || last.Round < ref.Round {
			kept = append(kept, c)
		}
	}

	// Step 3: the subset of kept candidates at exactly parentRound must
	// form a quorum. Divergence between DAG state and the clock is fatal.
	agg := types.NewQuorumAggregator(s.committee)
	for _, c := range kept {
		if c.Round() == parentRound {
			agg.Add(c.Author())
		}
	}
	if !agg.ReachedThreshold() {
		panic(fmt.Sprintf("ancestry: no quorum of parents at round %d for proposal at round %d: DAG state diverged from threshold clock", parentRound, clockRound))
	}

	// Step 4: no candidate may be stamped in the future.
	for _, c := range kept {
		if c.TimestampMs() > now {
			panic(fmt.Sprintf("ancestry: ancestor %s has timestamp %d after local clock %d: wall-clock regression", c.Reference(), c.TimestampMs(), now))
		}
	}

	// Step 5: compression. Union every kept candidate's own ancestors,
	// then drop any kept candidate transitively implied by another.
	implied := make(map[types.BlockRef]struct{})
	for _, c := range kept {
		for _, a := range c.Ancestors() {
			implied[a] = struct{}{}
		}
	}
	compressed := make([]*types.VerifiedBlock, 0, len(kept))
	for _, c := range kept {
		if _, isImplied := implied[c.Reference()]; !isImplied {
			compressed = append(compressed, c)
		}
	}

	// Step 6: advance the watermark for every candidate kept after step 2,
	// regardless of whether compression later dropped it.
	for _, c := range kept {
		s.watermark.raise(c.Reference())
	}

	// Step 7: assemble self-parent-first, remaining entries deduplicated
	// by author and sorted by author.
	var selfRef types.BlockRef
	haveSelf := false
	if selfLastProposed != nil {
		selfRef = selfLastProposed.Reference()
		haveSelf = true
	}

	others := make([]types.BlockRef, 0, len(compressed))
	seen := make(map[types.AuthorityIndex]struct{})
	for _, c := range compressed {
		ref := c.Reference()
		if haveSelf && ref.Author == selfRef.Author {
			continue
		}
		if _, dup := seen[ref.Author]; dup {
			continue
		}
		seen[ref.Author] = struct{}{}
		others = append(others, ref)
	}
	sort.Slice(others, func(i, j int) bool { return others[i].Author < others[j].Author })

	out := make([]types.BlockRef, 0, len(others)+1)
	if haveSelf {
		out = append(out, selfRef)
	}
	out = append(out, others...)

	// Step 8: final non-empty and quorum guard.
	if len(out) == 0 {
		panic("ancestry: assembled empty ancestor list")
	}
	finalAgg := types.NewQuorumAggregator(s.committee)
	for _, ref := range out {
		if ref.Round == parentRound {
			finalAgg.Add(ref.Author)
		}
	}
	if !finalAgg.ReachedThreshold() {
		panic(fmt.Sprintf("ancestry: final ancestor list lost quorum at round %d", parentRound))
	}

	return out, nil
}
