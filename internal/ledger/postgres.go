package ledger

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	dErrors "hilo/pkg/domain-errors"
)

type txKey struct{}

// WithPgxTx stores a pgx transaction in context for downstream store usage.
func WithPgxTx(ctx context.Context, tx pgx.Tx) context.Context {
	if tx == nil {
		return ctx
	}
	return context.WithValue(ctx, txKey{}, tx)
}

// PgxTxFrom extracts a pgx transaction from context if present.
func PgxTxFrom(ctx context.Context) (pgx.Tx, bool) {
	tx, ok := ctx.Value(txKey{}).(pgx.Tx)
	return tx, ok
}

// PostgresTx runs ledger commits as PostgreSQL transactions. Stores that find
// the transaction in context execute against it, so every row touched inside
// the callback commits or rolls back together.
type PostgresTx struct {
	pool    *pgxpool.Pool
	timeout time.Duration
}

func NewPostgresTx(pool *pgxpool.Pool) *PostgresTx {
	return &PostgresTx{pool: pool}
}

func (t *PostgresTx) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
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

	tx, err := t.pool.Begin(ctx)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "begin transaction")
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	if err := fn(WithPgxTx(ctx, tx)); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "commit transaction")
	}
	return nil
}
