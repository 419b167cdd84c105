//go:build notrace

package dtd

import (
	"context"
	"log/slog"

	"github.com/lestrrat-go/dtd/schema"
)

// No-op implementations when built with -tags notrace

var nullLogger = slog.New(slog.DiscardHandler)

// WithTraceLogger returns ctx unchanged in notrace builds
func WithTraceLogger(ctx context.Context, _ *slog.Logger) context.Context {
	return ctx
}

func getTraceLogFromContext(context.Context) *slog.Logger {
	return nullLogger
}

func locationAttr(schema.Location) slog.Attr {
	return slog.Attr{}
}
