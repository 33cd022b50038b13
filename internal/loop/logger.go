package loop

import (
	"context"
	"log/slog"

	applog "github.com/kong/loopctl/internal/log"
)

func logDebug(ctx context.Context, msg string, attrs ...slog.Attr) {
	applog.FromContext(ctx).LogAttrs(ctx, slog.LevelDebug, msg, attrs...)
}

func logInfo(ctx context.Context, msg string, attrs ...slog.Attr) {
	applog.FromContext(ctx).LogAttrs(ctx, slog.LevelInfo, msg, attrs...)
}

func logWarn(ctx context.Context, msg string, attrs ...slog.Attr) {
	applog.FromContext(ctx).LogAttrs(ctx, slog.LevelWarn, msg, attrs...)
}

func logError(ctx context.Context, msg string, attrs ...slog.Attr) {
	applog.FromContext(ctx).LogAttrs(ctx, slog.LevelError, msg, attrs...)
}
