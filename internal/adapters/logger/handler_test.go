package logger_test

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/mjgerace/pnpm/internal/adapters/logger"
	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
)

func TestPrettyHandler_Handle_Levels(t *testing.T) {
	tests := []struct {
		name       string
		level      slog.Level
		msg        string
		goldenName string
	}{
		{"info level", slog.LevelInfo, "Packages: +3", "handler_info"},
		{"warn level", slog.LevelWarn, "lockfile ignored", "handler_warn"},
		{"error level", slog.LevelError, "install failed", "handler_error"},
		{"debug level filtered", slog.LevelDebug, "resolving", "handler_debug_filtered"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("NO_COLOR", "1")

			buf := &bytes.Buffer{}
			lg := slog.New(logger.NewPrettyHandler(buf, &slog.HandlerOptions{Level: slog.LevelInfo}))

			lg.Log(t.Context(), tt.level, tt.msg)

			g := goldie.New(t)
			g.Assert(t, tt.goldenName, buf.Bytes())
		})
	}
}

func TestPrettyHandler_WithAttrsAndGroup(t *testing.T) {
	t.Setenv("NO_COLOR", "1")

	buf := &bytes.Buffer{}
	var h slog.Handler = logger.NewPrettyHandler(buf, nil)
	h = h.WithAttrs([]slog.Attr{slog.String("dir", "/tmp/project")})
	h = h.WithGroup("store")

	slog.New(h).Info("linked", "count", 2)

	assert.Equal(t, "linked store.dir=/tmp/project store.count=2\n", buf.String())
}

func TestPrettyHandler_Enabled(t *testing.T) {
	h := logger.NewPrettyHandler(&bytes.Buffer{}, &slog.HandlerOptions{Level: slog.LevelWarn})

	assert.False(t, h.Enabled(t.Context(), slog.LevelInfo))
	assert.True(t, h.Enabled(t.Context(), slog.LevelError))
}
