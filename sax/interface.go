// Package sax defines the event interface through which the DTD parser
// reports declarations, markup it skips over, and recoverable problems.
package sax

import "github.com/lestrrat-go/dtd/schema"

// Context is the opaque value registered with the parser and passed
// back as the first argument of every event
type Context interface{}

// DeclHandler receives each declaration as soon as it has been parsed.
// Declarations dropped as duplicates are not reported here; see
// ErrorHandler.Warning.
type DeclHandler interface {
	ElementDecl(ctx Context, decl *schema.ElementDecl) error
	AttributeDecl(ctx Context, elem schema.NameKey, decl *schema.AttributeDecl) error
	InternalEntityDecl(ctx Context, decl *schema.EntityDecl) error
	ExternalEntityDecl(ctx Context, decl *schema.EntityDecl) error
}

// DTDHandler receives notation and unparsed entity declarations
type DTDHandler interface {
	NotationDecl(ctx Context, decl *schema.NotationDecl) error
	UnparsedEntityDecl(ctx Context, decl *schema.EntityDecl) error
}

// LexicalHandler receives comments and processing instructions found
// between declarations
type LexicalHandler interface {
	Comment(ctx Context, content []byte) error
	ProcessingInstruction(ctx Context, target, data string) error
}

// ErrorHandler receives recoverable problems. Fatal errors are returned
// from the parse call instead.
type ErrorHandler interface {
	Warning(ctx Context, loc schema.Location, msg string) error
}

// Handler is the full set of events
type Handler interface {
	DeclHandler
	DTDHandler
	LexicalHandler
	ErrorHandler
}
