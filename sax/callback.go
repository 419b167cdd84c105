package sax

import (
	"errors"

	"github.com/lestrrat-go/dtd/schema"
)

// ErrHandlerUnspecified is returned by SAX2 methods whose handler
// function has not been set. The parser treats it as "not interested".
var ErrHandlerUnspecified = errors.New("handler unspecified")

// AttributeDeclFunc defines the function type for SAX2.AttributeDeclHandler
type AttributeDeclFunc func(ctx Context, elem schema.NameKey, decl *schema.AttributeDecl) error

// CommentFunc defines the function type for SAX2.CommentHandler
type CommentFunc func(ctx Context, content []byte) error

// ElementDeclFunc defines the function type for SAX2.ElementDeclHandler
type ElementDeclFunc func(ctx Context, decl *schema.ElementDecl) error

// ExternalEntityDeclFunc defines the function type for SAX2.ExternalEntityDeclHandler
type ExternalEntityDeclFunc func(ctx Context, decl *schema.EntityDecl) error

// InternalEntityDeclFunc defines the function type for SAX2.InternalEntityDeclHandler
type InternalEntityDeclFunc func(ctx Context, decl *schema.EntityDecl) error

// NotationDeclFunc defines the function type for SAX2.NotationDeclHandler
type NotationDeclFunc func(ctx Context, decl *schema.NotationDecl) error

// ProcessingInstructionFunc defines the function type for SAX2.ProcessingInstructionHandler
type ProcessingInstructionFunc func(ctx Context, target, data string) error

// UnparsedEntityDeclFunc defines the function type for SAX2.UnparsedEntityDeclHandler
type UnparsedEntityDeclFunc func(ctx Context, decl *schema.EntityDecl) error

// WarningFunc defines the function type for SAX2.WarningHandler
type WarningFunc func(ctx Context, loc schema.Location, msg string) error

// SAX2 implements Handler by dispatching to optional functions
type SAX2 struct {
	AttributeDeclHandler         AttributeDeclFunc
	CommentHandler               CommentFunc
	ElementDeclHandler           ElementDeclFunc
	ExternalEntityDeclHandler    ExternalEntityDeclFunc
	InternalEntityDeclHandler    InternalEntityDeclFunc
	NotationDeclHandler          NotationDeclFunc
	ProcessingInstructionHandler ProcessingInstructionFunc
	UnparsedEntityDeclHandler    UnparsedEntityDeclFunc
	WarningHandler               WarningFunc
}

func New() *SAX2 {
	return &SAX2{}
}

// AttributeDecl satisfies the DeclHandler interface
func (s *SAX2) AttributeDecl(ctx Context, elem schema.NameKey, decl *schema.AttributeDecl) error {
	if h := s.AttributeDeclHandler; h != nil {
		return h(ctx, elem, decl)
	}
	return ErrHandlerUnspecified
}

// Comment satisfies the LexicalHandler interface
func (s *SAX2) Comment(ctx Context, content []byte) error {
	if h := s.CommentHandler; h != nil {
		return h(ctx, content)
	}
	return ErrHandlerUnspecified
}

// ElementDecl satisfies the DeclHandler interface
func (s *SAX2) ElementDecl(ctx Context, decl *schema.ElementDecl) error {
	if h := s.ElementDeclHandler; h != nil {
		return h(ctx, decl)
	}
	return ErrHandlerUnspecified
}

// ExternalEntityDecl satisfies the DeclHandler interface
func (s *SAX2) ExternalEntityDecl(ctx Context, decl *schema.EntityDecl) error {
	if h := s.ExternalEntityDeclHandler; h != nil {
		return h(ctx, decl)
	}
	return ErrHandlerUnspecified
}

// InternalEntityDecl satisfies the DeclHandler interface
func (s *SAX2) InternalEntityDecl(ctx Context, decl *schema.EntityDecl) error {
	if h := s.InternalEntityDeclHandler; h != nil {
		return h(ctx, decl)
	}
	return ErrHandlerUnspecified
}

// NotationDecl satisfies the DTDHandler interface
func (s *SAX2) NotationDecl(ctx Context, decl *schema.NotationDecl) error {
	if h := s.NotationDeclHandler; h != nil {
		return h(ctx, decl)
	}
	return ErrHandlerUnspecified
}

// ProcessingInstruction satisfies the LexicalHandler interface
func (s *SAX2) ProcessingInstruction(ctx Context, target, data string) error {
	if h := s.ProcessingInstructionHandler; h != nil {
		return h(ctx, target, data)
	}
	return ErrHandlerUnspecified
}

// UnparsedEntityDecl satisfies the DTDHandler interface
func (s *SAX2) UnparsedEntityDecl(ctx Context, decl *schema.EntityDecl) error {
	if h := s.UnparsedEntityDeclHandler; h != nil {
		return h(ctx, decl)
	}
	return ErrHandlerUnspecified
}

// Warning satisfies the ErrorHandler interface
func (s *SAX2) Warning(ctx Context, loc schema.Location, msg string) error {
	if h := s.WarningHandler; h != nil {
		return h(ctx, loc, msg)
	}
	return ErrHandlerUnspecified
}
