package badger

import (
	"io/ioutil"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tessellate-network/consensuscore/consensus/types"
	"github.com/tessellate-network/consensuscore/crypto/signature"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	dir, err := ioutil.TempDir("", "consensuscore-badger-test")
	require.NoError(t, err)
	t.Cleanup(func() { os.RemoveAll(dir) })

	store, err := Open(filepath.Join(dir, "db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func signedTestBlock(t *testing.T, round types.Round, author types.AuthorityIndex) *types.VerifiedBlock {
	t.Helper()
	_, priv, err := signature.GenerateKeyPair()
	require.NoError(t, err)
	signer := signature.NewSigner(priv)

	body := types.NewBlockV1(0, round, author, types.TimestampMs(round)*1000, nil, []types.Transaction{[]byte("tx")})
	signed, err := types.NewSignedBlock(body, signer)
	require.NoError(t, err)
	envelope, err := signed.Serialize()
	require.NoError(t, err)
	return types.NewVerifiedBlock(signed, envelope)
}

func TestPutAndGetBlock(t *testing.T) {
	store := openTestStore(t)
	block := signedTestBlock(t, 3, 1)

	require.NoError(t, store.PutBlocks([]*types.VerifiedBlock{block}))

	envelope, err := store.GetBlock(block.Reference())
	require.NoError(t, err)
	require.Equal(t, block.Serialized(), envelope)
}

func TestGetLastBlockForAuthority(t *testing.T) {
	store := openTestStore(t)
	for _, r := range []types.Round{1, 2, 3, 5} {
		require.NoError(t, store.PutBlocks([]*types.VerifiedBlock{signedTestBlock(t, r, 0)}))
	}

	round, _, found := store.GetLastBlockForAuthority(0, 4)
	require.True(t, found)
	require.EqualValues(t, 3, round)

	_, _, found = store.GetLastBlockForAuthority(0, 0)
	require.False(t, found)
}

func TestLastCommitInfoRoundTrip(t *testing.T) {
	store := openTestStore(t)

	_, _, found := store.LastCommitInfo()
	require.False(t, found)

	leader := types.BlockRef{Round: 7, Author: 2}
	require.NoError(t, store.PutCommit(1, []byte("envelope"), leader))

	index, gotLeader, found := store.LastCommitInfo()
	require.True(t, found)
	require.EqualValues(t, 1, index)
	require.Equal(t, leader, gotLeader)
}

func TestLoadAllBlocksRoundTrip(t *testing.T) {
	store := openTestStore(t)
	want := []*types.VerifiedBlock{
		signedTestBlock(t, 1, 0),
		signedTestBlock(t, 1, 1),
		signedTestBlock(t, 2, 0),
	}
	require.NoError(t, store.PutBlocks(want))

	got, err := store.LoadAllBlocks()
	require.NoError(t, err)
	require.Len(t, got, len(want))

	bySlot := make(map[types.Slot]*types.VerifiedBlock, len(got))
	for _, b := range got {
		bySlot[b.Slot()] = b
	}
	for _, w := range want {
		b, ok := bySlot[w.Slot()]
		require.True(t, ok, "missing slot %v", w.Slot())
		require.Equal(t, w.Reference(), b.Reference())
		require.Equal(t, w.Serialized(), b.Serialized())
	}
}

func TestGetCommitRoundTrips(t *testing.T) {
	store := openTestStore(t)
	leader := types.BlockRef{Round: 2, Author: 0}
	envelope := []byte("a committed sub-dag envelope, compressed on the way in")

	require.NoError(t, store.PutCommit(1, envelope, leader))

	got, err := store.GetCommit(1)
	require.NoError(t, err)
	require.Equal(t, envelope, got)
}
