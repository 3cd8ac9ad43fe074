package dagstate

import (
	"io/ioutil"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tessellate-network/consensuscore/consensus/types"
	"github.com/tessellate-network/consensuscore/crypto/signature"
	"github.com/tessellate-network/consensuscore/storage/badger"
)

func testCommittee(t *testing.T, n int) *types.Committee {
	t.Helper()
	authorities := make([]types.Authority, n)
	for i := range authorities {
		pub, _, err := signature.GenerateKeyPair()
		require.NoError(t, err)
		authorities[i] = types.Authority{Index: types.AuthorityIndex(i), PublicKey: pub, Stake: 1}
	}
	committee, err := types.NewCommittee(0, authorities)
	require.NoError(t, err)
	return committee
}

func block(t *testing.T, round types.Round, author types.AuthorityIndex, ancestors []types.BlockRef) *types.VerifiedBlock {
	t.Helper()
	_, priv, err := signature.GenerateKeyPair()
	require.NoError(t, err)
	signer := signature.NewSigner(priv)
	body := types.NewBlockV1(0, round, author, types.TimestampMs(round), ancestors, nil)
	signed, err := types.NewSignedBlock(body, signer)
	require.NoError(t, err)
	envelope, err := signed.Serialize()
	require.NoError(t, err)
	return types.NewVerifiedBlock(signed, envelope)
}

func TestStateSeededWithGenesis(t *testing.T) {
	committee := testCommittee(t, 4)
	state := New(committee, nil)

	for _, a := range committee.Authorities() {
		require.True(t, state.ContainsBlockAtSlot(types.NewSlot(0, a.Index)))
	}
	require.EqualValues(t, 0, state.LastCommitIndex())
	_, has := state.LastCommitLeader()
	require.False(t, has)
}

func TestAddAcceptedAndLookup(t *testing.T) {
	committee := testCommittee(t, 4)
	state := New(committee, nil)

	genesis := types.GenesisRefs(committee)
	b1 := block(t, 1, 0, genesis)
	require.NoError(t, state.AddAccepted([]*types.VerifiedBlock{b1}))

	require.True(t, state.ContainsBlockAtSlot(b1.Slot()))
	got, ok := state.GetLastBlockForAuthority(0, 10)
	require.True(t, ok)
	require.Equal(t, b1.Reference(), got.Reference())

	// At maxRound below b1's round, only genesis is visible.
	got, ok = state.GetLastBlockForAuthority(0, 0)
	require.True(t, ok)
	require.EqualValues(t, 0, got.Round())
}

func TestLastQuorumRound(t *testing.T) {
	committee := testCommittee(t, 4)
	state := New(committee, nil)
	genesis := types.GenesisRefs(committee)

	// Only 2 of 4 authorities propose round 1: no quorum at round 1.
	require.NoError(t, state.AddAccepted([]*types.VerifiedBlock{
		block(t, 1, 0, genesis),
		block(t, 1, 1, genesis),
	}))
	require.EqualValues(t, 0, state.LastQuorumRound())

	// A third authority joins: quorum (3/4 >= ceil(8/3)=3) reached at round 1.
	require.NoError(t, state.AddAccepted([]*types.VerifiedBlock{
		block(t, 1, 2, genesis),
	}))
	require.EqualValues(t, 1, state.LastQuorumRound())
}

// TestLoadRehydratesAcrossRestart proves recovery survives a real process
// restart: blocks and a commit are written through one State backed by a
// real badger store, the store is closed, reopened fresh, and a second
// State built via Load must see exactly what the first one wrote.
func TestLoadRehydratesAcrossRestart(t *testing.T) {
	dir, err := ioutil.TempDir("", "consensuscore-dagstate-test")
	require.NoError(t, err)
	defer os.RemoveAll(dir)
	dbPath := filepath.Join(dir, "db")

	committee := testCommittee(t, 4)
	genesis := types.GenesisRefs(committee)

	store, err := badger.Open(dbPath)
	require.NoError(t, err)

	first, err := Load(committee, store)
	require.NoError(t, err)

	round1 := []*types.VerifiedBlock{
		block(t, 1, 0, genesis),
		block(t, 1, 1, genesis),
		block(t, 1, 2, genesis),
	}
	require.NoError(t, first.AddAccepted(round1))

	round1Refs := make([]types.BlockRef, len(round1))
	for i, b := range round1 {
		round1Refs[i] = b.Reference()
	}
	round2 := []*types.VerifiedBlock{block(t, 2, 0, round1Refs)}
	require.NoError(t, first.AddAccepted(round2))

	subdag := &types.CommittedSubDag{Index: 1, Leader: round1[0].Reference()}
	require.NoError(t, first.RecordCommit(subdag, []byte("committed sub-dag envelope")))

	require.NoError(t, store.Close())

	reopened, err := badger.Open(dbPath)
	require.NoError(t, err)
	defer reopened.Close()

	second, err := Load(committee, reopened)
	require.NoError(t, err)

	for _, b := range append(round1, round2...) {
		require.True(t, second.ContainsBlockAtSlot(b.Slot()), "missing slot %v after reload", b.Slot())
		got, ok := second.GetBlock(b.Slot())
		require.True(t, ok)
		require.Equal(t, b.Reference(), got.Reference())
	}

	got, ok := second.GetLastBlockForAuthority(0, 10)
	require.True(t, ok)
	require.EqualValues(t, 2, got.Round())

	require.EqualValues(t, 1, second.LastCommitIndex())
	leader, has := second.LastCommitLeader()
	require.True(t, has)
	require.Equal(t, subdag.Leader, leader)

	// Genesis is still present alongside the rehydrated blocks.
	for _, a := range committee.Authorities() {
		require.True(t, second.ContainsBlockAtSlot(types.NewSlot(0, a.Index)))
	}
}

func TestRecordCommit(t *testing.T) {
	committee := testCommittee(t, 4)
	state := New(committee, nil)

	subdag := &types.CommittedSubDag{Index: 1, Leader: types.BlockRef{Round: 1, Author: 0}}
	require.NoError(t, state.RecordCommit(subdag, []byte("envelope")))

	require.EqualValues(t, 1, state.LastCommitIndex())
	leader, has := state.LastCommitLeader()
	require.True(t, has)
	require.Equal(t, subdag.Leader, leader)
}
