package signals

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tessellate-network/consensuscore/consensus/types"
	"github.com/tessellate-network/consensuscore/crypto/signature"
)

func testBlock(t *testing.T) *types.VerifiedBlock {
	t.Helper()
	_, priv, err := signature.GenerateKeyPair()
	require.NoError(t, err)
	signer := signature.NewSigner(priv)
	body := types.NewBlockV1(0, 1, 0, 1000, nil, nil)
	signed, err := types.NewSignedBlock(body, signer)
	require.NoError(t, err)
	envelope, err := signed.Serialize()
	require.NoError(t, err)
	return types.NewVerifiedBlock(signed, envelope)
}

func TestNewRoundLatestValueOverwrites(t *testing.T) {
	hub := NewHub()
	recv := hub.Receivers()
	sub := recv.SubscribeNewRound()
	defer sub.Close()

	hub.NewRound(1)
	hub.NewRound(2)
	hub.NewRound(3)

	// RingChannel overwrite-on-write semantics: only the latest value
	// is guaranteed to be observable.
	var last types.Round
	for {
		select {
		case v := <-sub.Out():
			last = v.(types.Round)
			continue
		default:
		}
		break
	}
	require.EqualValues(t, 3, last)
}

func TestLeaderAcceptedErrorsWithoutSubscribers(t *testing.T) {
	hub := NewHub()
	err := hub.LeaderAccepted(LeaderAcceptedUpdate{Round: 1, Present: []bool{true}})
	require.Error(t, err)
}

func TestLeaderAcceptedSucceedsWithSubscriber(t *testing.T) {
	hub := NewHub()
	sub := hub.Receivers().SubscribeLeaderAccepted()
	defer sub.Close()

	err := hub.LeaderAccepted(LeaderAcceptedUpdate{Round: 1, Present: []bool{true}})
	require.NoError(t, err)

	v := <-sub.Out()
	update := v.(LeaderAcceptedUpdate)
	require.EqualValues(t, 1, update.Round)
}

func TestBroadcastBlockNoSubscribersIsBenign(t *testing.T) {
	hub := NewHub()
	block := testBlock(t)
	require.NotPanics(t, func() {
		hub.BroadcastBlock(block)
	})
}
