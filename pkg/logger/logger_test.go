package logger_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/kbm/pkg/logger"
)

func TestNew_Environment(t *testing.T) {
	t.Run("development writes text at debug", func(t *testing.T) {
		buf := &bytes.Buffer{}
		log := logger.New(logger.WithEnvironment("development", "kbm"), logger.WithOutput(buf))
		log.Debug("msg")
		out := buf.String()
		assert.Contains(t, out, "level=DEBUG")
		assert.Contains(t, out, "service=kbm")
		assert.Contains(t, out, "env=development")
	})

	t.Run("production writes json at info", func(t *testing.T) {
		buf := &bytes.Buffer{}
		log := logger.New(logger.WithEnvironment("prod", "kbm"), logger.WithOutput(buf))
		log.Debug("hidden")
		assert.Empty(t, buf.String())

		log.Info("msg")
		var entry map[string]any
		require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
		assert.Equal(t, "kbm", entry["service"])
		assert.Equal(t, "production", entry["env"])
	})
}

func TestWithFormat_PanicsOnUnknown(t *testing.T) {
	assert.Panics(t, func() {
		logger.New(logger.WithFormat("xml"))
	})
}

func TestContextExtractors(t *testing.T) {
	type key string
	k := key("tenant")

	buf := &bytes.Buffer{}
	log := logger.New(
		logger.WithOutput(buf),
		logger.WithContextExtractors(nil, func(ctx context.Context) (slog.Attr, bool) {
			if v, ok := ctx.Value(k).(string); ok {
				return logger.TenantID(v), true
			}
			return slog.Attr{}, false
		}),
		logger.WithContextValue("request_id", key("rid")),
	)

	ctx := context.WithValue(context.Background(), k, "acme")
	ctx = context.WithValue(ctx, key("rid"), "r-1")
	log.With("static", 1).InfoContext(ctx, "msg")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "acme", entry["tenant_id"])
	assert.Equal(t, "r-1", entry["request_id"])
	assert.EqualValues(t, 1, entry["static"])
}

func TestAttrs(t *testing.T) {
	assert.True(t, logger.Error(nil).Equal(slog.Attr{}))
	assert.True(t, logger.TenantID("").Equal(slog.Attr{}))
	assert.True(t, logger.RequestID("").Equal(slog.Attr{}))

	err := errors.New("boom")
	attr := logger.Error(err)
	assert.Equal(t, "error", attr.Key)
	assert.Equal(t, err, attr.Value.Any())

	assert.Equal(t, "component", logger.Component("tenantdb").Key)
	assert.Equal(t, "path", logger.Path("/tmp/a.db").Key)
}

func TestDiscard(t *testing.T) {
	log := logger.Discard()
	require.NotNil(t, log)
	log.Error("dropped")
}
