package types

// StakeAggregator accumulates the stake of distinct authorities observed so
// far and reports whether a quorum (or, via NewValidityAggregator, a
// validity threshold) has been reached. It underlies both the threshold
// clock (C1) and the ancestor selector's correctness guard (C3 step 3).
type StakeAggregator struct {
	committee *Committee
	threshold func(*Committee) Stake
	seen      map[AuthorityIndex]struct{}
	total     Stake
}

// NewQuorumAggregator builds an aggregator against the committee's quorum
// (2N/3 by stake) threshold.
func NewQuorumAggregator(committee *Committee) *StakeAggregator {
	return newAggregator(committee, (*Committee).QuorumThreshold)
}

// NewValidityAggregator builds an aggregator against the committee's
// validity (f+1) threshold.
func NewValidityAggregator(committee *Committee) *StakeAggregator {
	return newAggregator(committee, (*Committee).ValidityThreshold)
}

func newAggregator(committee *Committee, threshold func(*Committee) Stake) *StakeAggregator {
	return &StakeAggregator{
		committee: committee,
		threshold: threshold,
		seen:      make(map[AuthorityIndex]struct{}),
	}
}

// Add records a reference from the given authority. Adding the same
// authority twice is a no-op (stake is per-authority, not per-reference).
// It returns whether the threshold is reached after this addition.
func (a *StakeAggregator) Add(idx AuthorityIndex) bool {
	if _, ok := a.seen[idx]; !ok {
		a.seen[idx] = struct{}{}
		a.total += a.committee.StakeOf(idx)
	}
	return a.ReachedThreshold()
}

// ReachedThreshold reports whether the accumulated stake meets the
// aggregator's threshold.
func (a *StakeAggregator) ReachedThreshold() bool {
	return a.total >= a.threshold(a.committee)
}

// Reset clears the aggregator back to empty.
func (a *StakeAggregator) Reset() {
	a.seen = make(map[AuthorityIndex]struct{})
	a.total = 0
}

// Count returns the number of distinct authorities seen so far.
func (a *StakeAggregator) Count() int {
	return len(a.seen)
}
