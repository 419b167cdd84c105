package dtd

import (
	"github.com/lestrrat-go/dtd/internal/debug"
	"github.com/lestrrat-go/dtd/schema"
)

// parseElementDecl parses an element type declaration. "<!ELEMENT" has
// been consumed.
//
//	[45] elementdecl  ::= '<!ELEMENT' S Name S contentspec S? '>'
//	[46] contentspec  ::= 'EMPTY' | 'ANY' | Mixed | children
func (ctx *parserCtx) parseElementDecl() error {
	if debug.Enabled {
		debug.Printf("START parseElementDecl")
		defer debug.Printf("END   parseElementDecl")
	}

	if err := ctx.skipRequiredWS(); err != nil {
		return err
	}
	name, err := ctx.readQualifiedName()
	if err != nil {
		return err
	}
	if err := ctx.skipRequiredWS(); err != nil {
		return err
	}

	content, err := ctx.parseContentSpec()
	if err != nil {
		return err
	}
	if err := ctx.expectDeclEnd(); err != nil {
		return err
	}

	decl, err := ctx.builder.DeclareElement(name, content, ctx.declLoc)
	if err != nil {
		return err
	}
	if h := ctx.sax; h != nil {
		return handlerError(h.ElementDecl(ctx.userData, decl))
	}
	return nil
}

func (ctx *parserCtx) parseContentSpec() (schema.ContentSpec, error) {
	r, err := ctx.mustNext()
	if err != nil {
		return schema.ContentSpec{}, err
	}
	if r != '(' {
		ctx.unread(r)
		kw, err := ctx.readToken()
		if err != nil {
			return schema.ContentSpec{}, err
		}
		switch kw {
		case "EMPTY":
			return schema.EmptyContent(), nil
		case "ANY":
			return schema.AnyContent(), nil
		}
		return schema.ContentSpec{}, ErrElementContentRequired
	}

	if _, err := ctx.skipWS(); err != nil {
		return schema.ContentSpec{}, err
	}
	r, err = ctx.mustNext()
	if err != nil {
		return schema.ContentSpec{}, err
	}
	if r == '#' {
		got, err := ctx.checkKeyword("PCDATA")
		if err != nil {
			return schema.ContentSpec{}, err
		}
		if got != "" {
			return schema.ContentSpec{}, ErrKeywordMismatch{Expected: "#PCDATA", Got: "#" + got}
		}
		return ctx.parseMixedContent()
	}
	ctx.unread(r)

	group, err := ctx.parseGroup()
	if err != nil {
		return schema.ContentSpec{}, err
	}
	if group.Kind == schema.ParticleChoice {
		return schema.ChoiceContent(group.Arity, group.Children...), nil
	}
	return schema.SequenceContent(group.Arity, group.Children...), nil
}

// parseMixedContent parses the rest of a mixed content model after
// "(#PCDATA".
//
//	[51] Mixed ::= '(' S? '#PCDATA' (S? '|' S? Name)* S? ')*'
//	             | '(' S? '#PCDATA' S? ')'
func (ctx *parserCtx) parseMixedContent() (schema.ContentSpec, error) {
	if debug.Enabled {
		debug.Printf("START parseMixedContent")
		defer debug.Printf("END   parseMixedContent")
	}

	var names []schema.NameKey
	seen := make(map[schema.NameKey]struct{})
	for {
		if _, err := ctx.skipWS(); err != nil {
			return schema.ContentSpec{}, err
		}
		r, err := ctx.mustNext()
		if err != nil {
			return schema.ContentSpec{}, err
		}

		switch r {
		case ')':
			r, err := ctx.next()
			starred := err == nil && r == '*'
			if err == nil && !starred {
				ctx.unread(r)
			}
			if len(names) > 0 && !starred {
				return schema.ContentSpec{}, ErrMixedContentNotStarred
			}
			return schema.MixedContent(starred, names...), nil
		case '|':
			if _, err := ctx.skipWS(); err != nil {
				return schema.ContentSpec{}, err
			}
			name, err := ctx.readQualifiedName()
			if err != nil {
				return schema.ContentSpec{}, err
			}
			if _, dup := seen[name]; dup {
				return schema.ContentSpec{}, ErrDTDDupToken{Name: name.String()}
			}
			seen[name] = struct{}{}
			names = append(names, name)
		default:
			return schema.ContentSpec{}, ErrElementContentNotFinished
		}
	}
}

// parseGroup parses a choice or sequence after its opening '('.
//
//	[47] children ::= (choice | seq) ('?' | '*' | '+')?
//	[48] cp       ::= (Name | choice | seq) ('?' | '*' | '+')?
//	[49] choice   ::= '(' S? cp ( S? '|' S? cp )+ S? ')'
//	[50] seq      ::= '(' S? cp ( S? ',' S? cp )* S? ')'
func (ctx *parserCtx) parseGroup() (schema.Particle, error) {
	if debug.Enabled {
		debug.Printf("START parseGroup")
		defer debug.Printf("END   parseGroup")
	}

	var children []schema.Particle
	var sep rune
	for {
		if _, err := ctx.skipWS(); err != nil {
			return schema.Particle{}, err
		}
		cp, err := ctx.parseContentParticle()
		if err != nil {
			return schema.Particle{}, err
		}
		children = append(children, cp)

		if _, err := ctx.skipWS(); err != nil {
			return schema.Particle{}, err
		}
		r, err := ctx.mustNext()
		if err != nil {
			return schema.Particle{}, err
		}

		switch r {
		case ')':
			arity, err := ctx.readArity()
			if err != nil {
				return schema.Particle{}, err
			}
			if sep == '|' {
				return schema.ChoiceParticle(arity, children...), nil
			}
			return schema.SequenceParticle(arity, children...), nil
		case '|', ',':
			if sep != 0 && sep != r {
				return schema.Particle{}, ErrMixedSeparators
			}
			sep = r
		default:
			return schema.Particle{}, ErrElementContentNotFinished
		}
	}
}

func (ctx *parserCtx) parseContentParticle() (schema.Particle, error) {
	r, err := ctx.mustNext()
	if err != nil {
		return schema.Particle{}, err
	}
	if r == '(' {
		return ctx.parseGroup()
	}
	ctx.unread(r)

	name, err := ctx.readQualifiedName()
	if err != nil {
		return schema.Particle{}, err
	}
	arity, err := ctx.readArity()
	if err != nil {
		return schema.Particle{}, err
	}
	return schema.NameParticle(name, arity), nil
}
