//go:build integration

package integrationtests

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hilo/internal/identity"
	"hilo/pkg/domain"
	"hilo/pkg/testutil/containers"
)

func TestRedisSessionMirror(t *testing.T) {
	ctx := context.Background()
	rc := containers.NewRedisContainer(t)
	mirror := identity.NewRedisSessionMirror(rc.Client, time.Minute)

	account := domain.NewAccountID()

	active, err := mirror.IsActive(ctx, account)
	require.NoError(t, err)
	assert.False(t, active)

	require.NoError(t, mirror.SetActive(ctx, account, true))
	active, err = mirror.IsActive(ctx, account)
	require.NoError(t, err)
	assert.True(t, active)

	require.NoError(t, mirror.SetActive(ctx, account, false))
	active, err = mirror.IsActive(ctx, account)
	require.NoError(t, err)
	assert.False(t, active)
}
