// Package logging defines the structured-logging contract used across the
// backend so services and the HTTP layer do not depend on a concrete
// logging library.
package logging

import "context"

// Logger accepts a message plus alternating key-value attributes:
//
//	log.Info(ctx, "user registered", "user_id", id, "role", role)
//
// Implementations must be safe for concurrent use.
type Logger interface {
	Debug(ctx context.Context, msg string, args ...any)

	Info(ctx context.Context, msg string, args ...any)

	Warn(ctx context.Context, msg string, args ...any)

	Error(ctx context.Context, msg string, args ...any)

	// With returns a derived logger carrying the given attributes on every
	// record it emits.
	With(args ...any) Logger
}
