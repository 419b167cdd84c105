// Package dtd parses XML document type definitions: the internal subset
// embedded in a DOCTYPE declaration and external subsets loaded from
// separate resources. Parameter entity references are expanded while
// scanning, and the declarations are collected into an immutable
// schema.Subset.
package dtd

import (
	"context"
	"log/slog"
	"sync/atomic"

	"github.com/lestrrat-go/dtd/cache"
	"github.com/lestrrat-go/dtd/input"
	"github.com/lestrrat-go/dtd/internal/stack"
	"github.com/lestrrat-go/dtd/sax"
	"github.com/lestrrat-go/dtd/schema"
)

// Version of this library, reported by dtdlint
const Version = "v0.1.0"

// Parser parses DTD subsets. A Parser owns its name pool, so it may be
// reused for any number of sequential parses but never by two goroutines
// at once: a call made while another one is running fails with
// ErrParserBusy.
type Parser struct {
	busy           atomic.Bool
	names          *schema.NamePool
	namespaces     bool
	normalize      bool
	sax            sax.Handler
	userData       sax.Context
	resolver       input.Resolver
	flatten        *flattenConfig
	cache          *cache.Cache
	warnDuplicates bool
}

type padKind int

const (
	padNone padKind = iota
	padLead
	padTail
)

// inputFrame is an entry of the input stack: the document entity at the
// bottom, the replacement text of parameter entities above it
type inputFrame struct {
	src    *input.Source
	entity *schema.EntityDecl
	lead   bool // a leading space is still to be delivered
	tail   bool // a trailing space is owed once src runs dry
	eof    bool
}

// readInfo describes the last character returned by read, so that it
// can be pushed back
type readInfo struct {
	frame   *inputFrame
	pad     padKind
	written bool
}

type parserCtx struct {
	goctx          context.Context
	tlog           *slog.Logger
	names          *schema.NamePool
	namespaces     bool
	normalize      bool
	sax            sax.Handler
	userData       sax.Context
	resolver       input.Resolver
	warnDuplicates bool

	external     bool
	predefined   *schema.Subset
	builder      *schema.Builder
	inputs       stack.Stack[*inputFrame]
	last         readInfo
	includeDepth int
	nameBuf      []byte
	flattener    *flattener

	// start of the markup currently being parsed
	declStart int
	declLoc   schema.Location
}
