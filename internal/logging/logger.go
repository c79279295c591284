// Package logging is the structured-logging seam shared by the stores, the
// hybrid repository, the scheduler and the HTTP API. New picks a backend
// from the log.format setting: slog text or JSON, or zap.
package logging

import "context"

// Logger takes key-value pairs after the message:
//
//	logger.Info(ctx, "mirror finished", "mirrored", res.Mirrored, "deleted", res.Deleted)
//
// Components derive a child with With("component", ...) once at
// construction; sync runs add "run_id".
type Logger interface {
	// Debug is for per-record and per-request detail, such as skipped
	// children or archive point operations that matched no row.
	Debug(ctx context.Context, msg string, args ...any)
	Info(ctx context.Context, msg string, args ...any)
	// Warn is for failures the caller survives, such as a periodic job run.
	Warn(ctx context.Context, msg string, args ...any)
	Error(ctx context.Context, msg string, args ...any)

	With(args ...any) Logger
}
