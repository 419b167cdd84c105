//go:build !notrace

package dtd

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestWithTraceLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	ctx := WithTraceLogger(context.Background(), logger)
	tlog := getTraceLogFromContext(ctx)
	require.NotNil(t, tlog)

	tlog.Debug("test message")
	require.Contains(t, buf.String(), "test message")

	// a second logger does not replace the first one
	var other bytes.Buffer
	ctx = WithTraceLogger(ctx, slog.New(slog.NewJSONHandler(&other, nil)))
	getTraceLogFromContext(ctx).Warn("again")
	require.Contains(t, buf.String(), "again")
	require.Empty(t, other.String())
}

func TestNullLogger(t *testing.T) {
	tlog := getTraceLogFromContext(context.Background())
	require.NotNil(t, tlog)
	require.NotPanics(t, func() {
		tlog.Debug("this should not output anything")
	})
}

func TestTraceParse(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	ctx := WithTraceLogger(context.Background(), logger)

	const subset = `<!ENTITY % a "<!ELEMENT e EMPTY>"> <![INCLUDE[ %a; ]]> <!ATTLIST x y CDATA #IMPLIED>`
	_, err := ParseExternalSubsetString(ctx, subset, nil)
	require.NoError(t, err)

	out := buf.String()
	require.Contains(t, out, "parsing external subset")
	require.Contains(t, out, "expanding parameter entity")
	require.Contains(t, out, `"name":"a"`)
	require.Contains(t, out, "has attribute definitions but no element declaration")
}
