package ledger

import (
	"context"
	_ "embed"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Schema is the persisted layout of the postgres rendition.
//
//go:embed schema.sql
var Schema string

// ApplySchema creates the tables and the shared token id sequence. Statements
// are idempotent, so applying on every startup is safe.
func ApplySchema(ctx context.Context, pool *pgxpool.Pool) error {
	if _, err := pool.Exec(ctx, Schema); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}
