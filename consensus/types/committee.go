// Package types implements the wire-level data model shared by the Core and
// its collaborators: authorities, committees, slots, block references, the
// versioned block envelope, and committed sub-DAGs.
package types

import (
	"fmt"

	"github.com/tessellate-network/consensuscore/crypto/signature"
)

// AuthorityIndex identifies a committee member within an epoch.
type AuthorityIndex uint32

// Stake is a positive voting weight assigned to an authority.
type Stake uint64

// Authority is one committee member.
type Authority struct {
	Index     AuthorityIndex
	PublicKey signature.PublicKey
	Stake     Stake
}

// Committee is the fixed set of authorities for an epoch.
type Committee struct {
	epoch      uint64
	authorities []Authority
	totalStake  Stake
	quorum      Stake
	validity    Stake
}

// NewCommittee builds a Committee and precomputes its quorum (2N/3 by stake,
// rounded up) and validity (f+1, i.e. total/3 + 1) thresholds. authorities
// must be ordered by AuthorityIndex 0..N-1 with no gaps.
func NewCommittee(epoch uint64, authorities []Authority) (*Committee, error) {
	if len(authorities) == 0 {
		return nil, fmt.Errorf("types: committee must have at least one authority")
	}
	var total Stake
	for i, a := range authorities {
		if int(a.Index) != i {
			return nil, fmt.Errorf("types: authority index %d out of order (expected %d)", a.Index, i)
		}
		if a.Stake == 0 {
			return nil, fmt.Errorf("types: authority %d has zero stake", a.Index)
		}
		total += a.Stake
	}

	// Quorum: smallest stake S such that 3*S >= 2*total, i.e. ceil(2*total/3).
	quorum := Stake((2*uint64(total) + 2) / 3)
	// Validity (f+1): smallest stake S such that 3*S > total, i.e. total/3 + 1.
	validity := Stake(uint64(total)/3) + 1

	return &Committee{
		epoch:       epoch,
		authorities: authorities,
		totalStake:  total,
		quorum:      quorum,
		validity:    validity,
	}, nil
}

// Epoch returns the committee's epoch.
func (c *Committee) Epoch() uint64 { return c.epoch }

// Size returns the number of authorities (N).
func (c *Committee) Size() int { return len(c.authorities) }

// TotalStake returns the sum of all authorities' stake.
func (c *Committee) TotalStake() Stake { return c.totalStake }

// QuorumThreshold returns the minimum stake (2N/3, rounded up) for a quorum.
func (c *Committee) QuorumThreshold() Stake { return c.quorum }

// ValidityThreshold returns the minimum stake (f+1) guaranteed to include at
// least one honest authority.
func (c *Committee) ValidityThreshold() Stake { return c.validity }

// Authorities returns the committee members in index order.
func (c *Committee) Authorities() []Authority { return c.authorities }

// Authority looks up a single authority by index.
func (c *Committee) Authority(idx AuthorityIndex) (Authority, bool) {
	if int(idx) >= len(c.authorities) {
		return Authority{}, false
	}
	return c.authorities[idx], true
}

// StakeOf returns the stake of the given authority, or 0 if idx is out of range.
func (c *Committee) StakeOf(idx AuthorityIndex) Stake {
	a, ok := c.Authority(idx)
	if !ok {
		return 0
	}
	return a.Stake
}
