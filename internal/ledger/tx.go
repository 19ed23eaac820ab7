// Package ledger provides the commit boundary every multi-record mutation
// goes through. A transaction either applies all of its effects or none;
// commits on the same ledger are totally ordered.
package ledger

import (
	"context"
	"sync"
	"time"

	dErrors "hilo/pkg/domain-errors"
)

// Tx runs a callback as one atomic ledger commit. Implementations may wrap a
// database transaction or, in-memory, the ledger's commit mutex.
type Tx interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// defaultTxTimeout is the maximum duration for a ledger transaction.
const defaultTxTimeout = 5 * time.Second

// MemoryTx serializes commits with a single mutex: the in-memory stand-in for
// the ledger's native commit ordering. No operation observes a
// partially-applied update because no two callbacks ever overlap.
type MemoryTx struct {
	mu      sync.Mutex
	timeout time.Duration
}

func NewMemoryTx() *MemoryTx {
	return &MemoryTx{}
}

func (t *MemoryTx) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if err := ctx.Err(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "transaction aborted: context cancelled")
	}

	timeout := t.timeout
	if timeout == 0 {
		timeout = defaultTxTimeout
	}
	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	// Check again after acquiring the lock.
	if err := ctx.Err(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "transaction aborted: context cancelled")
	}

	return fn(ctx)
}
