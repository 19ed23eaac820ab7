package identity

import (
	"strings"
	"time"

	"hilo/pkg/domain"
	dErrors "hilo/pkg/domain-errors"
)

// User is the identity record behind every account. Created by registration,
// mutated only by login/logout; never deleted here (deletion is an admin-only
// external extension).
type User struct {
	Account        domain.AccountID
	Name           string
	Role           domain.Role
	CredentialHash string
	SessionActive  bool
	// Device is a short description of the client seen at the last login,
	// parsed from the User-Agent header. Purely informational.
	Device       string
	RegisteredAt time.Time
	LastLoginAt  time.Time
}

// NewUser validates and constructs a user record with the session inactive.
func NewUser(account domain.AccountID, name string, role domain.Role, credentialHash string, now time.Time) (*User, error) {
	name = strings.TrimSpace(name)
	if account.IsZero() {
		return nil, dErrors.New(dErrors.CodeValidation, "account is required")
	}
	if name == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "name is required")
	}
	if len(name) > 64 {
		return nil, dErrors.New(dErrors.CodeValidation, "name must be 64 characters or less")
	}
	if credentialHash == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "credential is required")
	}
	return &User{
		Account:        account,
		Name:           name,
		Role:           role,
		CredentialHash: credentialHash,
		RegisteredAt:   now,
	}, nil
}
