package dtd

import (
	"github.com/lestrrat-go/dtd/internal/debug"
	"github.com/lestrrat-go/dtd/schema"
)

// parseNotationDecl parses a notation declaration. "<!NOTATION" has
// been consumed.
//
//	[82] NotationDecl ::= '<!NOTATION' S Name S (ExternalID | PublicID) S? '>'
//	[83] PublicID     ::= 'PUBLIC' S PubidLiteral
func (ctx *parserCtx) parseNotationDecl() error {
	if debug.Enabled {
		debug.Printf("START parseNotationDecl")
		defer debug.Printf("END   parseNotationDecl")
	}

	if err := ctx.skipRequiredWS(); err != nil {
		return err
	}
	name, err := ctx.readName()
	if err != nil {
		return err
	}
	if err := ctx.skipRequiredWS(); err != nil {
		return err
	}
	pub, sys, err := ctx.readExternalID(true)
	if err != nil {
		return err
	}
	if err := ctx.expectDeclEnd(); err != nil {
		return err
	}

	decl := schema.NewNotation(name, pub, sys, ctx.declLoc)
	if err := ctx.builder.AddNotation(decl); err != nil {
		return err
	}
	if h := ctx.sax; h != nil {
		return handlerError(h.NotationDecl(ctx.userData, decl))
	}
	return nil
}
