package identity

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"

	dErrors "hilo/pkg/domain-errors"
)

// HashCredential creates a bcrypt hash of the provided credential.
func HashCredential(credential string) (string, error) {
	if credential == "" {
		return "", dErrors.New(dErrors.CodeValidation, "credential cannot be empty")
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(credential), bcrypt.DefaultCost)
	if err != nil {
		if errors.Is(err, bcrypt.ErrPasswordTooLong) {
			return "", dErrors.New(dErrors.CodeValidation, "credential is too long")
		}
		return "", fmt.Errorf("could not hash credential: %w", err)
	}
	return string(hashed), nil
}

// VerifyCredential checks a plaintext credential against a stored hash.
func VerifyCredential(credential, hash string) error {
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(credential)); err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return dErrors.New(dErrors.CodeUnauthorized, "invalid credential")
		}
		return fmt.Errorf("could not verify credential: %w", err)
	}
	return nil
}
