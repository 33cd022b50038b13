package log

import (
	"context"
	"log/slog"
	"strings"
)

type requestLogContextKey struct{}

// RequestLogContext carries the metadata attached to call URL request logs.
type RequestLogContext struct {
	Command        string
	ConversationID string
	Generation     uint64
}

// WithRequestLogContext merges the non-zero fields of update into ctx.
func WithRequestLogContext(ctx context.Context, update RequestLogContext) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}

	current := RequestLogContextFromContext(ctx)
	if v := strings.TrimSpace(update.Command); v != "" {
		current.Command = v
	}
	if v := strings.TrimSpace(update.ConversationID); v != "" {
		current.ConversationID = v
	}
	if update.Generation != 0 {
		current.Generation = update.Generation
	}

	return context.WithValue(ctx, requestLogContextKey{}, current)
}

func RequestLogContextFromContext(ctx context.Context) RequestLogContext {
	if ctx == nil {
		return RequestLogContext{}
	}
	if value, ok := ctx.Value(requestLogContextKey{}).(RequestLogContext); ok {
		return value
	}
	return RequestLogContext{}
}

// RequestLogAttrs converts the request metadata in ctx to slog attributes.
func RequestLogAttrs(ctx context.Context) []slog.Attr {
	meta := RequestLogContextFromContext(ctx)
	attrs := make([]slog.Attr, 0, 3)
	if meta.Command != "" {
		attrs = append(attrs, slog.String("command", meta.Command))
	}
	if meta.ConversationID != "" {
		attrs = append(attrs, slog.String("conversation_id", meta.ConversationID))
	}
	if meta.Generation != 0 {
		attrs = append(attrs, slog.Uint64("generation", meta.Generation))
	}
	return attrs
}
