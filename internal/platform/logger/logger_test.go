package logger

import (
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetup(t *testing.T) {
	levels := []string{"debug", "info", "warn", "error", "WARN"}
	for _, level := range levels {
		log, err := Setup(level)
		require.NoError(t, err, "level %q", level)
		assert.NotNil(t, log)
	}

	// An unknown level falls back to info rather than failing startup.
	log, err := Setup("chatty")
	require.NoError(t, err)
	assert.NotNil(t, log)
}

func TestContextCarrying(t *testing.T) {
	base := context.Background()
	log := slog.Default().With(slog.String("component", "test"))

	ctx := WithLogger(base, log)
	assert.Same(t, log, FromContext(ctx))
	assert.Same(t, log, FromContextOrDefault(ctx, nil))

	// Without a stored logger the fallback wins, then the default.
	fallback := slog.Default().With(slog.String("component", "fallback"))
	assert.Same(t, fallback, FromContextOrDefault(base, fallback))
	assert.Same(t, slog.Default(), FromContext(base))
	assert.Same(t, slog.Default(), FromContextOrDefault(base, nil))
}
