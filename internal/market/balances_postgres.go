package market

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"hilo/internal/ledger"
	"hilo/pkg/domain"
)

// PostgresBalances persists account balances in PostgreSQL. Debit locks the
// row with FOR UPDATE so sufficiency is checked against the balance the
// debit applies to.
type PostgresBalances struct {
	pool *pgxpool.Pool
}

func NewPostgresBalances(pool *pgxpool.Pool) *PostgresBalances {
	return &PostgresBalances{pool: pool}
}

func (s *PostgresBalances) BalanceOf(ctx context.Context, account domain.AccountID) (decimal.Decimal, error) {
	var amount decimal.Decimal
	err := s.queryRow(ctx, `SELECT amount FROM balances WHERE account = $1`, account.String()).Scan(&amount)
	if err != nil {
		if err == pgx.ErrNoRows {
			return decimal.Zero, nil
		}
		return decimal.Zero, fmt.Errorf("read balance: %w", err)
	}
	return amount, nil
}

func (s *PostgresBalances) Credit(ctx context.Context, account domain.AccountID, amount decimal.Decimal) error {
	_, err := s.exec(ctx, `
		INSERT INTO balances (account, amount) VALUES ($1, $2)
		ON CONFLICT (account) DO UPDATE SET amount = balances.amount + EXCLUDED.amount`,
		account.String(), amount)
	if err != nil {
		return fmt.Errorf("credit balance: %w", err)
	}
	return nil
}

func (s *PostgresBalances) Debit(ctx context.Context, account domain.AccountID, amount decimal.Decimal) error {
	run := func(ctx context.Context, tx pgx.Tx) error {
		var current decimal.Decimal
		err := tx.QueryRow(ctx, `SELECT amount FROM balances WHERE account = $1 FOR UPDATE`, account.String()).Scan(&current)
		if err != nil {
			if err == pgx.ErrNoRows {
				return ErrInsufficientFunds
			}
			return fmt.Errorf("read balance: %w", err)
		}
		if current.LessThan(amount) {
			return ErrInsufficientFunds
		}
		_, err = tx.Exec(ctx, `UPDATE balances SET amount = amount - $2 WHERE account = $1`,
			account.String(), amount)
		if err != nil {
			return fmt.Errorf("debit balance: %w", err)
		}
		return nil
	}

	if tx, ok := ledger.PgxTxFrom(ctx); ok {
		return run(ctx, tx)
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin debit: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := run(ctx, tx); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit debit: %w", err)
	}
	return nil
}

func (s *PostgresBalances) exec(ctx context.Context, query string, args ...any) (pgconn.CommandTag, error) {
	if tx, ok := ledger.PgxTxFrom(ctx); ok {
		return tx.Exec(ctx, query, args...)
	}
	return s.pool.Exec(ctx, query, args...)
}

func (s *PostgresBalances) queryRow(ctx context.Context, query string, args ...any) pgx.Row {
	if tx, ok := ledger.PgxTxFrom(ctx); ok {
		return tx.QueryRow(ctx, query, args...)
	}
	return s.pool.QueryRow(ctx, query, args...)
}
