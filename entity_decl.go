package dtd

import (
	"fmt"
	"log/slog"

	"github.com/lestrrat-go/dtd/internal/debug"
	"github.com/lestrrat-go/dtd/schema"
)

// parseEntityDecl parses an entity declaration. "<!ENTITY" has been
// consumed.
//
//	[70] EntityDecl ::= GEDecl | PEDecl
//	[71] GEDecl     ::= '<!ENTITY' S Name S EntityDef S? '>'
//	[72] PEDecl     ::= '<!ENTITY' S '%' S Name S PEDef S? '>'
//	[73] EntityDef  ::= EntityValue | (ExternalID NDataDecl?)
//	[74] PEDef      ::= EntityValue | ExternalID
//	[76] NDataDecl  ::= S 'NDATA' S Name
func (ctx *parserCtx) parseEntityDecl() error {
	if debug.Enabled {
		debug.Printf("START parseEntityDecl")
		defer debug.Printf("END   parseEntityDecl")
	}

	if err := ctx.skipRequiredWS(); err != nil {
		return err
	}

	var param bool
	r, err := ctx.mustNext()
	if err != nil {
		return err
	}
	if r == '%' {
		param = true
		if err := ctx.skipRequiredWS(); err != nil {
			return err
		}
	} else {
		ctx.unread(r)
	}

	name, err := ctx.readName()
	if err != nil {
		return err
	}
	if err := ctx.skipRequiredWS(); err != nil {
		return err
	}

	r, err = ctx.mustNext()
	if err != nil {
		return err
	}

	var decl *schema.EntityDecl
	if r == '"' || r == '\'' {
		value, err := ctx.readEntityValue(r, name, ctx.declLoc)
		if err != nil {
			return err
		}
		decl = schema.NewInternalEntity(name, param, value, ctx.declLoc)
	} else {
		ctx.unread(r)
		pub, sys, err := ctx.readExternalID(false)
		if err != nil {
			return err
		}

		notation, err := ctx.readNData(param)
		if err != nil {
			return err
		}
		decl = schema.NewExternalEntity(name, param, pub, sys, notation, ctx.declLoc)
	}

	if err := ctx.expectDeclEnd(); err != nil {
		return err
	}
	return ctx.addEntity(decl)
}

// readNData reads an optional NDATA clause and returns the notation
// name, if any
func (ctx *parserCtx) readNData(param bool) (string, error) {
	n, err := ctx.skipWS()
	if err != nil {
		return "", err
	}
	r, err := ctx.mustNext()
	if err != nil {
		return "", err
	}
	ctx.unread(r)
	if r != 'N' {
		return "", nil
	}
	if n == 0 {
		return "", ErrSpaceRequired
	}

	got, err := ctx.checkKeyword("NDATA")
	if err != nil {
		return "", err
	}
	if got != "" {
		return "", ErrKeywordMismatch{Expected: "NDATA", Got: got}
	}
	if param {
		return "", ErrNDataNotAllowed
	}
	if err := ctx.skipRequiredWS(); err != nil {
		return "", err
	}
	return ctx.readName()
}

func (ctx *parserCtx) addEntity(decl *schema.EntityDecl) error {
	if decl.IsParameter() && !ctx.flattener.includePEDecls() {
		ctx.flattener.truncate(ctx.declStart)
	}

	prev, ok := ctx.lookupDeclared(decl)
	if ok {
		ctx.tlog.Debug("dropping duplicate entity declaration",
			slog.String("name", decl.Name()),
			slog.Bool("parameter", decl.IsParameter()),
		)
		if !ctx.warnDuplicates {
			return nil
		}
		prefix := ""
		if decl.IsParameter() {
			prefix = "%"
		}
		msg := fmt.Sprintf("entity '%s%s' redefined, first declared at %s", prefix, decl.Name(), prev.Location())
		return ctx.warn(decl.Location(), msg)
	}

	h := ctx.sax
	if h == nil {
		return nil
	}
	switch {
	case decl.IsUnparsed():
		return handlerError(h.UnparsedEntityDecl(ctx.userData, decl))
	case decl.IsInternal():
		return handlerError(h.InternalEntityDecl(ctx.userData, decl))
	default:
		return handlerError(h.ExternalEntityDecl(ctx.userData, decl))
	}
}

// lookupDeclared registers decl, returning the declaration that
// shadows it if there is one. Parameter entities supplied by the
// internal subset take precedence over those of an external subset.
func (ctx *parserCtx) lookupDeclared(decl *schema.EntityDecl) (*schema.EntityDecl, bool) {
	if decl.IsParameter() && ctx.predefined != nil {
		if prev, ok := ctx.predefined.LookupParameterEntity(decl.Name()); ok {
			return prev, true
		}
	}
	if prev, ok := ctx.builder.AddEntity(decl); !ok {
		return prev, true
	}
	return nil, false
}
