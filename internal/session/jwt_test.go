package session

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hilo/pkg/domain"
	dErrors "hilo/pkg/domain-errors"
)

var tokenService = NewTokenService("test-signing-key", time.Hour)
var account = domain.NewAccountID()
var sessionID = uuid.New()

func Test_MintAndValidate(t *testing.T) {
	token, err := tokenService.Mint(account, sessionID)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := tokenService.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, account.String(), claims.AccountID)
	assert.Equal(t, sessionID.String(), claims.SessionID)
}

func Test_ValidateToken_InvalidToken(t *testing.T) {
	_, err := tokenService.ValidateToken("invalid-token-string")
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
}

func Test_ValidateToken_ExpiredToken(t *testing.T) {
	expired := NewTokenService("test-signing-key", -time.Hour)
	token, err := expired.Mint(account, sessionID)
	require.NoError(t, err)

	_, err = tokenService.ValidateToken(token)
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
}

func Test_ValidateToken_WrongKey(t *testing.T) {
	other := NewTokenService("other-signing-key", time.Hour)
	token, err := other.Mint(account, sessionID)
	require.NoError(t, err)

	_, err = tokenService.ValidateToken(token)
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
}
