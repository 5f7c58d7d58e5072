package logger

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phrazzld/viva-api/internal/config"
)

func TestSetup(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		logLevel  string
		wantErr   bool
		wantLevel slog.Level
	}{
		{name: "debug level", logLevel: "debug", wantLevel: slog.LevelDebug},
		{name: "info level", logLevel: "info", wantLevel: slog.LevelInfo},
		{name: "warn level", logLevel: "warn", wantLevel: slog.LevelWarn},
		{name: "error level", logLevel: "error", wantLevel: slog.LevelError},
		{name: "mixed case", logLevel: "DEBUG", wantLevel: slog.LevelDebug},
		{name: "empty defaults to info", logLevel: "", wantLevel: slog.LevelInfo},
		{name: "unknown level rejected", logLevel: "verbose", wantErr: true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			log, err := Setup(config.ServerConfig{Port: 8080, LogLevel: tc.logLevel})
			if tc.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			require.NotNil(t, log)
			assert.True(t, log.Enabled(context.Background(), tc.wantLevel))
			if tc.wantLevel > slog.LevelDebug {
				assert.False(t, log.Enabled(context.Background(), tc.wantLevel-4))
			}
		})
	}
}

func TestFromContext(t *testing.T) {
	t.Parallel()

	t.Run("returns stored logger", func(t *testing.T) {
		t.Parallel()
		var buf bytes.Buffer
		stored := slog.New(slog.NewTextHandler(&buf, nil))
		ctx := WithLogger(context.Background(), stored)
		assert.Same(t, stored, FromContext(ctx))
	})

	t.Run("falls back to default when absent", func(t *testing.T) {
		t.Parallel()
		assert.NotNil(t, FromContext(context.Background()))
	})
}

func TestFromContextOrDefault(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	fallback := slog.New(slog.NewTextHandler(&buf, nil))

	t.Run("prefers context logger", func(t *testing.T) {
		t.Parallel()
		stored := slog.New(slog.NewTextHandler(&buf, nil))
		ctx := WithLogger(context.Background(), stored)
		assert.Same(t, stored, FromContextOrDefault(ctx, fallback))
	})

	t.Run("uses fallback when context empty", func(t *testing.T) {
		t.Parallel()
		assert.Same(t, fallback, FromContextOrDefault(context.Background(), fallback))
	})

	t.Run("nil fallback yields default", func(t *testing.T) {
		t.Parallel()
		assert.NotNil(t, FromContextOrDefault(context.Background(), nil))
	})
}
