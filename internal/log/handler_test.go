package log

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDualHandlerMirrorsErrorsToSecondary(t *testing.T) {
	t.Cleanup(EnableErrorMirroring)
	EnableErrorMirroring()

	var primaryBuf, secondaryBuf bytes.Buffer
	primary := slog.NewTextHandler(&primaryBuf, &slog.HandlerOptions{Level: slog.LevelInfo})
	secondary := slog.NewTextHandler(&secondaryBuf, &slog.HandlerOptions{Level: slog.LevelError})
	logger := slog.New(NewDualHandler(primary, secondary))

	logger.Error("boom", slog.String("foo", "bar"))
	logger.Info("still going")

	assert.Contains(t, primaryBuf.String(), "boom")
	assert.Contains(t, primaryBuf.String(), "still going")
	assert.Contains(t, secondaryBuf.String(), "boom")
	assert.NotContains(t, secondaryBuf.String(), "still going")
}

func TestDualHandlerCanDisableMirroring(t *testing.T) {
	t.Cleanup(EnableErrorMirroring)
	DisableErrorMirroring()

	var primaryBuf, secondaryBuf bytes.Buffer
	primary := slog.NewTextHandler(&primaryBuf, &slog.HandlerOptions{Level: slog.LevelInfo})
	secondary := slog.NewTextHandler(&secondaryBuf, &slog.HandlerOptions{Level: slog.LevelError})
	logger := slog.New(NewDualHandler(primary, secondary))

	logger.Error("boom")

	assert.Contains(t, primaryBuf.String(), "boom")
	assert.Empty(t, secondaryBuf.String())
}

func TestDualHandlerWithAttrsReachesBothHandlers(t *testing.T) {
	t.Cleanup(EnableErrorMirroring)
	EnableErrorMirroring()

	var primaryBuf, secondaryBuf bytes.Buffer
	primary := slog.NewTextHandler(&primaryBuf, nil)
	logger := slog.New(NewDualHandler(primary, NewFriendlyErrorHandler(&secondaryBuf)))

	logger.With("conversation_id", "abc").Error("fetch failed")

	assert.Contains(t, primaryBuf.String(), "conversation_id=abc")
	assert.Contains(t, secondaryBuf.String(), "  conversation_id: abc\n")
}

func TestFriendlyErrorHandlerFormatsRecord(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(NewFriendlyErrorHandler(&buf))

	logger.Error("",
		slog.Any("error", errors.New("service unavailable")),
		slog.String("suggestion", "check loop.server-url"),
		slog.String("status", "503"),
		slog.String("body", "line one\n\nline two"),
	)

	want := "Error: service unavailable\n" +
		"  suggestion: check loop.server-url\n" +
		"  body: line one\n" +
		"    line two\n" +
		"  status: 503\n"
	assert.Equal(t, want, buf.String())
}

func TestFriendlyErrorHandlerIgnoresLowerLevels(t *testing.T) {
	h := NewFriendlyErrorHandler(&bytes.Buffer{})
	assert.False(t, h.Enabled(context.Background(), slog.LevelWarn))
	assert.True(t, h.Enabled(context.Background(), slog.LevelError))
}

func TestFriendlyErrorHandlerGroupsPrefixKeys(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(NewFriendlyErrorHandler(&buf)).WithGroup("loop")

	logger.Error("boom", slog.String("generation", "3"))

	assert.Contains(t, buf.String(), "  loop.generation: 3\n")
}

func TestRequestLogContextMergesNonEmptyFields(t *testing.T) {
	ctx := WithRequestLogContext(context.Background(), RequestLogContext{Command: "panel"})
	ctx = WithRequestLogContext(ctx, RequestLogContext{ConversationID: " conv-1 ", Generation: 2})

	got := RequestLogContextFromContext(ctx)
	require.Equal(t, RequestLogContext{Command: "panel", ConversationID: "conv-1", Generation: 2}, got)

	attrs := RequestLogAttrs(ctx)
	require.Len(t, attrs, 3)
	assert.Equal(t, "conversation_id", attrs[1].Key)
}

func TestFromContextFallsBackToDiscard(t *testing.T) {
	logger := FromContext(context.Background())
	require.NotNil(t, logger)
	assert.False(t, logger.Enabled(context.Background(), slog.LevelError))
}

func TestConfigLevelStringToSlogLevel(t *testing.T) {
	assert.Equal(t, LevelTrace, ConfigLevelStringToSlogLevel("TRACE"))
	assert.Equal(t, slog.LevelWarn, ConfigLevelStringToSlogLevel("warn"))
	assert.Equal(t, slog.LevelError, ConfigLevelStringToSlogLevel("nonsense"))
}
