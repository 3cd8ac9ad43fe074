package blockmanager

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tessellate-network/consensuscore/consensus/dagstate"
	"github.com/tessellate-network/consensuscore/consensus/types"
	"github.com/tessellate-network/consensuscore/crypto/signature"
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

func makeBlock(t *testing.T, round types.Round, author types.AuthorityIndex, ancestors []types.BlockRef) *types.VerifiedBlock {
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

func TestAcceptBlockWithKnownAncestors(t *testing.T) {
	committee := testCommittee(t, 4)
	state := dagstate.New(committee, nil)
	mgr := New(state)

	b := makeBlock(t, 1, 0, types.GenesisRefs(committee))
	accepted, missing, err := mgr.TryAcceptBlocks([]*types.VerifiedBlock{b})
	require.NoError(t, err)
	require.Len(t, accepted, 1)
	require.Empty(t, missing)
	require.True(t, state.ContainsBlockAtSlot(b.Slot()))
}

func TestBufferBlockWithMissingAncestor(t *testing.T) {
	committee := testCommittee(t, 4)
	state := dagstate.New(committee, nil)
	mgr := New(state)

	unknownParent := types.BlockRef{Round: 1, Author: 0}
	child := makeBlock(t, 2, 0, []types.BlockRef{unknownParent})

	accepted, missing, err := mgr.TryAcceptBlocks([]*types.VerifiedBlock{child})
	require.NoError(t, err)
	require.Empty(t, accepted)
	require.Contains(t, missing, unknownParent)
	require.False(t, state.ContainsBlockAtSlot(child.Slot()))
}

func TestDeliveringMissingAncestorReleasesBufferedChild(t *testing.T) {
	committee := testCommittee(t, 4)
	state := dagstate.New(committee, nil)
	mgr := New(state)

	parent := makeBlock(t, 1, 0, types.GenesisRefs(committee))
	child := makeBlock(t, 2, 0, []types.BlockRef{parent.Reference()})

	_, missing, err := mgr.TryAcceptBlocks([]*types.VerifiedBlock{child})
	require.NoError(t, err)
	require.Contains(t, missing, parent.Reference())

	accepted, missing, err := mgr.TryAcceptBlocks([]*types.VerifiedBlock{parent})
	require.NoError(t, err)
	require.Empty(t, missing)
	require.Len(t, accepted, 2)
}

func TestIdempotentRedelivery(t *testing.T) {
	committee := testCommittee(t, 4)
	state := dagstate.New(committee, nil)
	mgr := New(state)

	b := makeBlock(t, 1, 0, types.GenesisRefs(committee))
	_, _, err := mgr.TryAcceptBlocks([]*types.VerifiedBlock{b})
	require.NoError(t, err)

	accepted, missing, err := mgr.TryAcceptBlocks([]*types.VerifiedBlock{b})
	require.NoError(t, err)
	require.Empty(t, accepted)
	require.Empty(t, missing)
}
