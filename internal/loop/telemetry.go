package loop

import "context"

// Telemetry receives link exfiltration events. Implementations must not
// block the caller for long and handle their own failures.
type Telemetry interface {
	NoteURLExpiry(ctx context.Context, expiresAt int64)
}

// TelemetryFunc adapts a function to Telemetry.
type TelemetryFunc func(ctx context.Context, expiresAt int64)

func (f TelemetryFunc) NoteURLExpiry(ctx context.Context, expiresAt int64) {
	f(ctx, expiresAt)
}

type nopTelemetry struct{}

func (nopTelemetry) NoteURLExpiry(context.Context, int64) {}

// NopTelemetry discards every event.
var NopTelemetry Telemetry = nopTelemetry{}
