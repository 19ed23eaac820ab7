// Package domain holds the primitive types shared by every registry: typed
// identifiers and the closed Role and State enums. Constructing them through
// the Parse* functions enforces validity at trust boundaries; direct casting
// bypasses validation.
package domain

import (
	"github.com/google/uuid"

	dErrors "hilo/pkg/domain-errors"
)

// AccountID identifies a registered account. Distinct from raw uuid.UUID so
// the compiler rejects mixing it with other identifiers.
type AccountID uuid.UUID

// TokenID identifies a token. Ids start at 1, are drawn from one ledger-wide
// sequence shared by the token registries, and are never reused; 0 marks the
// absence of an origin link.
type TokenID uint64

// ParseAccountID constructs an AccountID from external input.
func ParseAccountID(s string) (AccountID, error) {
	if s == "" {
		return AccountID{}, dErrors.New(dErrors.CodeValidation, "account id cannot be empty")
	}
	parsed, err := uuid.Parse(s)
	if err != nil {
		return AccountID{}, dErrors.New(dErrors.CodeValidation, "account id must be a valid UUID")
	}
	if parsed == uuid.Nil {
		return AccountID{}, dErrors.New(dErrors.CodeValidation, "account id cannot be the nil UUID")
	}
	return AccountID(parsed), nil
}

// NewAccountID mints a fresh account identifier.
func NewAccountID() AccountID {
	return AccountID(uuid.New())
}

func (a AccountID) String() string {
	return uuid.UUID(a).String()
}

// IsZero reports whether the id is unset.
func (a AccountID) IsZero() bool {
	return uuid.UUID(a) == uuid.Nil
}
