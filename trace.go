//go:build !notrace

package dtd

import (
	"context"
	"log/slog"
	"runtime"

	"github.com/lestrrat-go/dtd/schema"
)

type traceLoggerKey struct{}

// the null logger is a logger that does nothing
var nullLogger = slog.New(slog.DiscardHandler)

// WithTraceLogger attaches a logger to ctx. Parsers invoked with the
// returned context log parameter entity expansions, entity resolution,
// cache activity and warnings to it.
func WithTraceLogger(ctx context.Context, tlog *slog.Logger) context.Context {
	// If the context already has a trace logger, return the context as is
	if _, ok := ctx.Value(traceLoggerKey{}).(*slog.Logger); ok {
		return ctx
	}
	return context.WithValue(ctx, traceLoggerKey{}, tlog)
}

func getTraceLogFromContext(ctx context.Context) *slog.Logger {
	tlog, ok := ctx.Value(traceLoggerKey{}).(*slog.Logger)
	if !ok {
		return nullLogger
	}

	// Record the public entry point the logger was requested from
	if pc, _, _, ok := runtime.Caller(2); ok {
		if fn := runtime.FuncForPC(pc); fn != nil {
			tlog = tlog.With(slog.String("fn", fn.Name()))
		}
	}
	return tlog
}

func locationAttr(loc schema.Location) slog.Attr {
	return slog.String("location", loc.String())
}
