package shared

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quix-it/entity-api/internal/service/auth"
)

func TestTraceID(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	assert.Empty(t, GetTraceID(ctx))

	ctx = SetTraceID(ctx)
	traceID := GetTraceID(ctx)
	assert.NotEmpty(t, traceID)

	// A new trace ID replaces the old one.
	other := GetTraceID(SetTraceID(ctx))
	assert.NotEqual(t, traceID, other)
}

func TestIdentityContext(t *testing.T) {
	t.Parallel()

	t.Run("round trip", func(t *testing.T) {
		t.Parallel()

		identity := auth.Identity{Username: "alice", Roles: []string{"user"}}
		ctx := WithIdentity(context.Background(), identity)

		got, ok := IdentityFromContext(ctx)
		require.True(t, ok)
		assert.Equal(t, identity, got)
	})

	t.Run("absent", func(t *testing.T) {
		t.Parallel()

		_, ok := IdentityFromContext(context.Background())
		assert.False(t, ok)
	})

	t.Run("zero identity is treated as absent", func(t *testing.T) {
		t.Parallel()

		ctx := WithIdentity(context.Background(), auth.Identity{})
		_, ok := IdentityFromContext(ctx)
		assert.False(t, ok)
	})
}
