package dtd

import (
	"fmt"

	"github.com/lestrrat-go/dtd/internal/debug"
	"github.com/lestrrat-go/dtd/schema"
)

// parseAttributeListDecl parses an attribute list declaration.
// "<!ATTLIST" has been consumed.
//
//	[52] AttlistDecl ::= '<!ATTLIST' S Name AttDef* S? '>'
//	[53] AttDef      ::= S Name S AttType S DefaultDecl
func (ctx *parserCtx) parseAttributeListDecl() error {
	if debug.Enabled {
		debug.Printf("START parseAttributeListDecl")
		defer debug.Printf("END   parseAttributeListDecl")
	}

	if err := ctx.skipRequiredWS(); err != nil {
		return err
	}
	elem, err := ctx.readQualifiedName()
	if err != nil {
		return err
	}
	ctx.builder.EnsureElement(elem, ctx.declLoc)

	for {
		n, err := ctx.skipWS()
		if err != nil {
			return err
		}
		r, err := ctx.mustNext()
		if err != nil {
			return err
		}
		if r == '>' {
			return nil
		}
		if n == 0 {
			return ErrSpaceRequired
		}
		ctx.unread(r)

		decl, err := ctx.parseAttributeDef()
		if err != nil {
			return err
		}
		if err := ctx.addAttribute(elem, decl); err != nil {
			return err
		}
	}
}

func (ctx *parserCtx) parseAttributeDef() (*schema.AttributeDecl, error) {
	loc := ctx.location()
	name, err := ctx.readQualifiedName()
	if err != nil {
		return nil, err
	}
	if err := ctx.skipRequiredWS(); err != nil {
		return nil, err
	}

	typ, enum, err := ctx.parseAttributeType()
	if err != nil {
		return nil, err
	}
	if err := ctx.skipRequiredWS(); err != nil {
		return nil, err
	}

	def, value, err := ctx.parseDefaultDecl()
	if err != nil {
		return nil, err
	}
	return schema.NewAttributeDecl(name, typ, enum, def, value, loc), nil
}

// parseAttributeType parses the declared type of an attribute.
//
//	[54] AttType        ::= StringType | TokenizedType | EnumeratedType
//	[57] EnumeratedType ::= NotationType | Enumeration
//	[58] NotationType   ::= 'NOTATION' S '(' S? Name (S? '|' S? Name)* S? ')'
//	[59] Enumeration    ::= '(' S? Nmtoken (S? '|' S? Nmtoken)* S? ')'
func (ctx *parserCtx) parseAttributeType() (schema.AttributeType, []string, error) {
	r, err := ctx.mustNext()
	if err != nil {
		return schema.AttrInvalid, nil, err
	}
	if r == '(' {
		enum, err := ctx.parseEnumeration(true)
		if err != nil {
			return schema.AttrInvalid, nil, err
		}
		return schema.AttrEnumeration, enum, nil
	}
	ctx.unread(r)

	kw, err := ctx.readToken()
	if err != nil {
		return schema.AttrInvalid, nil, err
	}
	typ, ok := schema.AttributeTypeByName(kw)
	if !ok {
		return schema.AttrInvalid, nil, ErrAttributeTypeRequired
	}
	if typ != schema.AttrNotation {
		return typ, nil, nil
	}

	if err := ctx.skipRequiredWS(); err != nil {
		return schema.AttrInvalid, nil, err
	}
	r, err = ctx.mustNext()
	if err != nil {
		return schema.AttrInvalid, nil, err
	}
	if r != '(' {
		return schema.AttrInvalid, nil, ErrOpenParenRequired
	}
	enum, err := ctx.parseEnumeration(false)
	if err != nil {
		return schema.AttrInvalid, nil, err
	}
	return schema.AttrNotation, enum, nil
}

// parseEnumeration reads a '|' separated list of tokens after the
// opening '('. Enumerations list Nmtokens, notation types list Names.
func (ctx *parserCtx) parseEnumeration(nmtokens bool) ([]string, error) {
	var values []string
	seen := make(map[string]struct{})
	for {
		if _, err := ctx.skipWS(); err != nil {
			return nil, err
		}

		var v string
		var err error
		if nmtokens {
			v, err = ctx.readNmtoken()
		} else {
			v, err = ctx.readName()
		}
		if err != nil {
			return nil, err
		}
		if _, dup := seen[v]; dup {
			return nil, ErrDTDDupToken{Name: v}
		}
		seen[v] = struct{}{}
		values = append(values, v)

		if _, err := ctx.skipWS(); err != nil {
			return nil, err
		}
		r, err := ctx.mustNext()
		if err != nil {
			return nil, err
		}
		switch r {
		case ')':
			return values, nil
		case '|':
		default:
			return nil, ErrAttListNotFinished
		}
	}
}

// parseDefaultDecl parses the default declaration of an attribute.
//
//	[60] DefaultDecl ::= '#REQUIRED' | '#IMPLIED' | (('#FIXED' S)? AttValue)
func (ctx *parserCtx) parseDefaultDecl() (schema.AttributeDefault, *schema.DefaultValue, error) {
	r, err := ctx.mustNext()
	if err != nil {
		return schema.AttrDefaultNone, nil, err
	}

	def := schema.AttrDefaultNone
	if r == '#' {
		kw, err := ctx.readToken()
		if err != nil {
			return schema.AttrDefaultNone, nil, err
		}
		switch kw {
		case "REQUIRED":
			return schema.AttrDefaultRequired, nil, nil
		case "IMPLIED":
			return schema.AttrDefaultImplied, nil, nil
		case "FIXED":
		default:
			return schema.AttrDefaultNone, nil, ErrAttributeDefaultRequired
		}

		def = schema.AttrDefaultFixed
		if err := ctx.skipRequiredWS(); err != nil {
			return schema.AttrDefaultNone, nil, err
		}
		r, err = ctx.mustNext()
		if err != nil {
			return schema.AttrDefaultNone, nil, err
		}
	}

	if r != '"' && r != '\'' {
		return schema.AttrDefaultNone, nil, ErrAttributeDefaultRequired
	}
	value, err := ctx.readAttributeDefault(r)
	if err != nil {
		return schema.AttrDefaultNone, nil, err
	}
	return def, value, nil
}

func (ctx *parserCtx) addAttribute(elem schema.NameKey, decl *schema.AttributeDecl) error {
	added, ok := ctx.builder.AddAttribute(elem, ctx.declLoc, decl)
	if !ok {
		if !ctx.warnDuplicates {
			return nil
		}
		msg := fmt.Sprintf("attribute '%s' of element '%s' redefined, first declared at %s", decl.Name(), elem, added.Location())
		return ctx.warn(decl.Location(), msg)
	}
	if h := ctx.sax; h != nil {
		return handlerError(h.AttributeDecl(ctx.userData, elem, added))
	}
	return nil
}
