package garment

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"hilo/internal/ledger"
	"hilo/pkg/domain"
	"hilo/pkg/platform/sentinel"
)

// PostgresStore persists garment tokens in PostgreSQL with a
// garment_token_holders table as the historical account index.
type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

const tokenColumns = `id, name, quantity, price, origin, state, creator, owner, created_at`

func (s *PostgresStore) Create(ctx context.Context, token *Token) error {
	return s.inTx(ctx, func(ctx context.Context, tx pgx.Tx) error {
		query := `
			INSERT INTO garment_tokens (name, quantity, price, origin, state, creator, owner, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
			RETURNING id`
		var id uint64
		err := tx.QueryRow(ctx, query,
			token.Name, token.Quantity, token.Price, uint64(token.Origin), int(token.State),
			token.Creator.String(), token.Owner.String(), token.CreatedAt,
		).Scan(&id)
		if err != nil {
			return fmt.Errorf("insert garment token: %w", err)
		}
		token.ID = domain.TokenID(id)
		return recordHolder(ctx, tx, token.ID, token.Creator)
	})
}

func (s *PostgresStore) FindByID(ctx context.Context, id domain.TokenID) (*Token, error) {
	row := s.queryRow(ctx, `SELECT `+tokenColumns+` FROM garment_tokens WHERE id = $1`, uint64(id))
	return scanToken(row)
}

func (s *PostgresStore) ListByAccount(ctx context.Context, account domain.AccountID) ([]*Token, error) {
	return s.list(ctx, `
		SELECT `+tokenColumns+` FROM garment_tokens
		WHERE id IN (SELECT token_id FROM garment_token_holders WHERE account = $1)
		ORDER BY id`, account.String())
}

func (s *PostgresStore) ListForSale(ctx context.Context) ([]*Token, error) {
	return s.list(ctx, `
		SELECT `+tokenColumns+` FROM garment_tokens
		WHERE state = $1 ORDER BY id`, int(domain.StateForSale))
}

// Execute locks the row with FOR UPDATE for the duration of validate+mutate,
// joining the ledger transaction in context when one is open.
func (s *PostgresStore) Execute(ctx context.Context, id domain.TokenID, validate func(*Token) error, mutate func(*Token)) (*Token, error) {
	var result *Token
	err := s.inTx(ctx, func(ctx context.Context, tx pgx.Tx) error {
		row := tx.QueryRow(ctx, `SELECT `+tokenColumns+` FROM garment_tokens WHERE id = $1 FOR UPDATE`, uint64(id))
		token, err := scanToken(row)
		if err != nil {
			return err
		}
		if err := validate(token); err != nil {
			return err
		}
		previousOwner := token.Owner
		mutate(token)
		_, err = tx.Exec(ctx, `
			UPDATE garment_tokens SET state = $2, owner = $3
			WHERE id = $1`,
			uint64(id), int(token.State), token.Owner.String(),
		)
		if err != nil {
			return fmt.Errorf("update garment token: %w", err)
		}
		if token.Owner != previousOwner {
			if err := recordHolder(ctx, tx, id, token.Owner); err != nil {
				return err
			}
		}
		result = token
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (s *PostgresStore) Count(ctx context.Context) (int, error) {
	var count int
	if err := s.queryRow(ctx, `SELECT count(*) FROM garment_tokens`).Scan(&count); err != nil {
		return 0, fmt.Errorf("count garment tokens: %w", err)
	}
	return count, nil
}

func (s *PostgresStore) list(ctx context.Context, query string, args ...any) ([]*Token, error) {
	rows, err := s.query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list garment tokens: %w", err)
	}
	defer rows.Close()

	var tokens []*Token
	for rows.Next() {
		token, err := scanToken(rows)
		if err != nil {
			return nil, err
		}
		tokens = append(tokens, token)
	}
	return tokens, rows.Err()
}

func recordHolder(ctx context.Context, tx pgx.Tx, id domain.TokenID, account domain.AccountID) error {
	_, err := tx.Exec(ctx, `
		INSERT INTO garment_token_holders (token_id, account)
		VALUES ($1, $2) ON CONFLICT DO NOTHING`,
		uint64(id), account.String())
	if err != nil {
		return fmt.Errorf("record token holder: %w", err)
	}
	return nil
}

func scanToken(row pgx.Row) (*Token, error) {
	var token Token
	var id, origin uint64
	var state int
	var price decimal.Decimal
	var creatorStr, ownerStr string
	err := row.Scan(&id, &token.Name, &token.Quantity, &price, &origin, &state,
		&creatorStr, &ownerStr, &token.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("scan garment token: %w", err)
	}
	creator, err := domain.ParseAccountID(creatorStr)
	if err != nil {
		return nil, fmt.Errorf("stored creator id invalid: %w", err)
	}
	owner, err := domain.ParseAccountID(ownerStr)
	if err != nil {
		return nil, fmt.Errorf("stored owner id invalid: %w", err)
	}
	token.ID = domain.TokenID(id)
	token.Origin = domain.TokenID(origin)
	token.Price = price
	token.State = domain.State(state)
	token.Creator = creator
	token.Owner = owner
	return &token, nil
}

func (s *PostgresStore) inTx(ctx context.Context, fn func(ctx context.Context, tx pgx.Tx) error) error {
	if tx, ok := ledger.PgxTxFrom(ctx); ok {
		return fn(ctx, tx)
	}
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin garment tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := fn(ctx, tx); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit garment tx: %w", err)
	}
	return nil
}

func (s *PostgresStore) query(ctx context.Context, query string, args ...any) (pgx.Rows, error) {
	if tx, ok := ledger.PgxTxFrom(ctx); ok {
		return tx.Query(ctx, query, args...)
	}
	return s.pool.Query(ctx, query, args...)
}

func (s *PostgresStore) queryRow(ctx context.Context, query string, args ...any) pgx.Row {
	if tx, ok := ledger.PgxTxFrom(ctx); ok {
		return tx.QueryRow(ctx, query, args...)
	}
	return s.pool.QueryRow(ctx, query, args...)
}
