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

	"github.com/dmitrymomot/uploadgate/core/logger"
)

func TestError(t *testing.T) {
	t.Parallel()

	err := errors.New("boom")
	attr := logger.Error(err)
	require.Equal(t, "error", attr.Key)
	assert.Equal(t, err, attr.Value.Any())

	assert.True(t, logger.Error(nil).Equal(slog.Attr{}))
}

func TestErrors(t *testing.T) {
	t.Parallel()

	attr := logger.Errors(errors.New("a"), nil, errors.New("b"))
	require.Equal(t, slog.KindGroup, attr.Value.Kind())
	group := attr.Value.Group()
	require.Len(t, group, 2)
	assert.Equal(t, "0", group[0].Key)
	assert.Equal(t, "2", group[1].Key)

	assert.True(t, logger.Errors(nil, nil).Equal(slog.Attr{}))
}

func TestChunk(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "2/5", logger.Chunk(2, 5).Value.String())
	assert.True(t, logger.Chunk(0, 1).Equal(slog.Attr{}))
	assert.True(t, logger.Chunk(0, 0).Equal(slog.Attr{}))
}

func TestEmptyStringAttrs(t *testing.T) {
	t.Parallel()

	assert.True(t, logger.RequestID("").Equal(slog.Attr{}))
	assert.True(t, logger.SessionID("").Equal(slog.Attr{}))
	assert.True(t, logger.Filename("").Equal(slog.Attr{}))
	assert.True(t, logger.Query("").Equal(slog.Attr{}))
	assert.Equal(t, "photo.png", logger.Filename("photo.png").Value.String())
}

func TestNew_JSONWithContextValue(t *testing.T) {
	t.Parallel()

	type ctxKey struct{}
	var buf bytes.Buffer
	log := logger.New(
		logger.WithJSONFormatter(),
		logger.WithOutput(&buf),
		logger.WithLevel(slog.LevelDebug),
		logger.WithAttr(slog.String("service", "test")),
		logger.WithContextValue("request_id", ctxKey{}),
	)

	ctx := context.WithValue(context.Background(), ctxKey{}, "req-1")
	log.DebugContext(ctx, "hello", logger.Component("upload"))

	var record map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &record))
	assert.Equal(t, "hello", record["msg"])
	assert.Equal(t, "test", record["service"])
	assert.Equal(t, "req-1", record["request_id"])
	assert.Equal(t, "upload", record["component"])
}

func TestNew_LevelFilter(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	log := logger.New(logger.WithOutput(&buf), logger.WithLevel(slog.LevelWarn))
	log.Info("hidden")
	assert.Empty(t, buf.String())
	log.Warn("shown")
	assert.Contains(t, buf.String(), "shown")
}

func TestParseLevel(t *testing.T) {
	t.Parallel()

	assert.Equal(t, slog.LevelDebug, logger.ParseLevel("DEBUG"))
	assert.Equal(t, slog.LevelWarn, logger.ParseLevel("warning"))
	assert.Equal(t, slog.LevelError, logger.ParseLevel("error"))
	assert.Equal(t, slog.LevelInfo, logger.ParseLevel("nonsense"))
}
