package txpool

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/tessellate-network/consensuscore/common/logging"
	"github.com/tessellate-network/consensuscore/consensus/types"
)

var feedLogger = logging.GetLogger("consensus/txpool")

// Source is an external transaction feed (e.g. a mempool RPC client) that
// may transiently fail; Feed retries it with backoff rather than letting a
// single hiccup starve the proposer.
type Source interface {
	Fetch(ctx context.Context) ([]types.Transaction, error)
}

// Feed repeatedly pulls from src and submits whatever it fetches into a
// Consumer, backing off on transient errors instead of busy-looping.
type Feed struct {
	src      Source
	consumer *Consumer
}

// NewFeed builds a Feed that drains src into consumer.
func NewFeed(src Source, consumer *Consumer) *Feed {
	return &Feed{src: src, consumer: consumer}
}

// Run blocks until ctx is cancelled, pulling from the source on every
// successful fetch and backing off exponentially (capped) after failures.
func (f *Feed) Run(ctx context.Context) {
	policy := backoff.NewExponentialBackOff()
	policy.MaxInterval = 5 * time.Second
	policy.MaxElapsedTime = 0 // retry indefinitely; ctx cancellation is the only exit

	for {
		if ctx.Err() != nil {
			return
		}
		txs, err := f.fetchWithBackoff(ctx, policy)
		if err != nil {
			// Context was cancelled during backoff.
			return
		}
		for _, tx := range txs {
			f.consumer.Submit(tx)
		}
		policy.Reset()
	}
}

func (f *Feed) fetchWithBackoff(ctx context.Context, policy backoff.BackOff) ([]types.Transaction, error) {
	var out []types.Transaction
	op := func() error {
		txs, err := f.src.Fetch(ctx)
		if err != nil {
			feedLogger.Warn("transaction feed fetch failed, retrying", "err", err)
			return err
		}
		out = txs
		return nil
	}
	err := backoff.Retry(op, backoff.WithContext(policy, ctx))
	return out, err
}
