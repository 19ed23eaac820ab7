package identity

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"hilo/internal/ledger"
	"hilo/pkg/domain"
	"hilo/pkg/platform/sentinel"
)

// PostgresStore persists user records in PostgreSQL. Uniqueness of account
// and name is enforced by the schema, so concurrent registrations resolve to
// exactly one winner.
type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

const userColumns = `account, name, role, credential_hash, session_active, device, registered_at, last_login_at`

func (s *PostgresStore) CreateIfAvailable(ctx context.Context, user *User) error {
	query := `
		INSERT INTO users (` + userColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	_, err := s.exec(ctx, query,
		user.Account.String(), user.Name, string(user.Role), user.CredentialHash,
		user.SessionActive, user.Device, user.RegisteredAt, nullableTime(user.LastLoginAt),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return sentinel.ErrAlreadyUsed
		}
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindByAccount(ctx context.Context, account domain.AccountID) (*User, error) {
	return s.findOne(ctx, `SELECT `+userColumns+` FROM users WHERE account = $1`, account.String())
}

func (s *PostgresStore) FindByName(ctx context.Context, name string) (*User, error) {
	return s.findOne(ctx, `SELECT `+userColumns+` FROM users WHERE lower(name) = lower($1)`, name)
}

func (s *PostgresStore) List(ctx context.Context) ([]*User, error) {
	rows, err := s.query(ctx, `SELECT `+userColumns+` FROM users ORDER BY registered_at`)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	var users []*User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, user)
	}
	return users, rows.Err()
}

// Execute locks the row with FOR UPDATE for the duration of validate+mutate.
// When a ledger transaction is already in context it joins it; otherwise it
// opens its own.
func (s *PostgresStore) Execute(ctx context.Context, account domain.AccountID, validate func(*User) error, mutate func(*User)) (*User, error) {
	run := func(ctx context.Context, tx pgx.Tx) (*User, error) {
		row := tx.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE account = $1 FOR UPDATE`, account.String())
		user, err := scanUser(row)
		if err != nil {
			return nil, err
		}
		if err := validate(user); err != nil {
			return nil, err
		}
		mutate(user)
		_, err = tx.Exec(ctx, `
			UPDATE users SET session_active = $2, device = $3, last_login_at = $4
			WHERE account = $1`,
			account.String(), user.SessionActive, user.Device, nullableTime(user.LastLoginAt),
		)
		if err != nil {
			return nil, fmt.Errorf("update user: %w", err)
		}
		return user, nil
	}

	if tx, ok := ledger.PgxTxFrom(ctx); ok {
		return run(ctx, tx)
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin user update: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	user, err := run(ctx, tx)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit user update: %w", err)
	}
	return user, nil
}

func (s *PostgresStore) findOne(ctx context.Context, query string, arg any) (*User, error) {
	row := s.queryRow(ctx, query, arg)
	return scanUser(row)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (*User, error) {
	var user User
	var accountStr, roleStr string
	var lastLogin *time.Time
	err := row.Scan(&accountStr, &user.Name, &roleStr, &user.CredentialHash,
		&user.SessionActive, &user.Device, &user.RegisteredAt, &lastLogin)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("scan user: %w", err)
	}
	account, err := domain.ParseAccountID(accountStr)
	if err != nil {
		return nil, fmt.Errorf("stored account id invalid: %w", err)
	}
	user.Account = account
	user.Role = domain.Role(roleStr)
	if lastLogin != nil {
		user.LastLoginAt = *lastLogin
	}
	return &user, nil
}

func nullableTime(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

func (s *PostgresStore) exec(ctx context.Context, query string, args ...any) (pgconn.CommandTag, error) {
	if tx, ok := ledger.PgxTxFrom(ctx); ok {
		return tx.Exec(ctx, query, args...)
	}
	return s.pool.Exec(ctx, query, args...)
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
