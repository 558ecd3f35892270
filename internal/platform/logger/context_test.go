package logger

import (
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFromContext(t *testing.T) {
	t.Parallel()

	t.Run("returns stored logger", func(t *testing.T) {
		t.Parallel()

		stored := slog.Default().With(slog.String("trace_id", "abc"))
		ctx := WithLogger(context.Background(), stored)

		assert.Same(t, stored, FromContext(ctx))
	})

	t.Run("falls back to process default", func(t *testing.T) {
		t.Parallel()

		assert.Same(t, slog.Default(), FromContext(context.Background()))
	})
}

func TestFromContextOrDefault(t *testing.T) {
	t.Parallel()

	componentLogger := slog.Default().With(slog.String("component", "test"))

	t.Run("context logger wins", func(t *testing.T) {
		t.Parallel()

		stored := slog.Default().With(slog.String("trace_id", "abc"))
		ctx := WithLogger(context.Background(), stored)

		assert.Same(t, stored, FromContextOrDefault(ctx, componentLogger))
	})

	t.Run("falls back to the given default", func(t *testing.T) {
		t.Parallel()

		got := FromContextOrDefault(context.Background(), componentLogger)
		assert.Same(t, componentLogger, got)
	})

	t.Run("nil default falls back to process default", func(t *testing.T) {
		t.Parallel()

		got := FromContextOrDefault(context.Background(), nil)
		assert.Same(t, slog.Default(), got)
	})
}
