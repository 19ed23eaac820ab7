package material

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"hilo/internal/ledger"
	"hilo/pkg/domain"
)

// PostgresStore persists lots in PostgreSQL. The id comes from a bigserial
// column, so assignment happens at commit like everywhere else.
type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

func (s *PostgresStore) Create(ctx context.Context, lot *Lot) error {
	query := `
		INSERT INTO material_lots (kind, quantity, price, producer, created_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id`
	var id uint64
	var err error
	if tx, ok := ledger.PgxTxFrom(ctx); ok {
		err = tx.QueryRow(ctx, query, string(lot.Kind), lot.Quantity, lot.Price, lot.Producer.String(), lot.CreatedAt).Scan(&id)
	} else {
		err = s.pool.QueryRow(ctx, query, string(lot.Kind), lot.Quantity, lot.Price, lot.Producer.String(), lot.CreatedAt).Scan(&id)
	}
	if err != nil {
		return fmt.Errorf("insert lot: %w", err)
	}
	lot.ID = domain.TokenID(id)
	return nil
}

func (s *PostgresStore) ListByProducer(ctx context.Context, producer domain.AccountID) ([]*Lot, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, kind, quantity, price, producer, created_at
		FROM material_lots WHERE producer = $1 ORDER BY id`, producer.String())
	if err != nil {
		return nil, fmt.Errorf("list lots: %w", err)
	}
	defer rows.Close()

	var lots []*Lot
	for rows.Next() {
		var lot Lot
		var id uint64
		var kind, producerStr string
		var price decimal.Decimal
		if err := rows.Scan(&id, &kind, &lot.Quantity, &price, &producerStr, &lot.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan lot: %w", err)
		}
		account, err := domain.ParseAccountID(producerStr)
		if err != nil {
			return nil, fmt.Errorf("stored producer id invalid: %w", err)
		}
		lot.ID = domain.TokenID(id)
		lot.Kind = Kind(kind)
		lot.Price = price
		lot.Producer = account
		lots = append(lots, &lot)
	}
	return lots, rows.Err()
}
