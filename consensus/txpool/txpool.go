// Package txpool implements the transaction consumer (§6): a pull-only
// admission buffer the proposer drains, non-blocking and bounded by a
// per-block byte cap.
package txpool

import (
	"sync"

	"github.com/tessellate-network/consensuscore/consensus/types"
)

// DefaultMaxBytesPerBlock bounds how much payload a single proposal may
// carry; this mirrors the committee-wide gossip budget rather than any
// protocol invariant, so it is a tunable default, not a constant.
const DefaultMaxBytesPerBlock = 512 * 1024

// Consumer buffers already-admitted transactions in FIFO order and hands
// them out in byte-capped batches. Admission happens out of band (the
// network/mempool layer), but Consumer itself never blocks a caller.
type Consumer struct {
	mu           sync.Mutex
	queue        []types.Transaction
	maxBytes     int
	queuedBytes  int
}

// New builds an empty Consumer with the given per-block byte cap.
func New(maxBytesPerBlock int) *Consumer {
	if maxBytesPerBlock <= 0 {
		maxBytesPerBlock = DefaultMaxBytesPerBlock
	}
	return &Consumer{maxBytes: maxBytesPerBlock}
}

// Submit admits a transaction into the buffer. It never blocks or drops:
// callers upstream (network ingest, RPC) are expected to apply their own
// admission policy before calling Submit.
func (c *Consumer) Submit(tx types.Transaction) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.queue = append(c.queue, tx)
	c.queuedBytes += len(tx)
}

// Next drains as many queued transactions as fit under the byte cap,
// non-blocking, returning an empty (not nil) slice if nothing is queued.
func (c *Consumer) Next() []types.Transaction {
	c.mu.Lock()
	defer c.mu.Unlock()

	if len(c.queue) == 0 {
		return []types.Transaction{}
	}

	budget := c.maxBytes
	i := 0
	for i < len(c.queue) && len(c.queue[i]) <= budget {
		budget -= len(c.queue[i])
		c.queuedBytes -= len(c.queue[i])
		i++
	}

	out := c.queue[:i]
	c.queue = c.queue[i:]
	return out
}

// Len reports the number of transactions currently buffered.
func (c *Consumer) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.queue)
}
