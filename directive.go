package dtd

import (
	"io"
	"unicode/utf8"

	"github.com/lestrrat-go/dtd/internal/debug"
	"github.com/lestrrat-go/dtd/internal/pool"
)

// parseSubset is the top level loop over the markup declarations of a
// subset.
//
//	[28b] intSubset ::= (markupdecl | DeclSep)*
//	[28a] DeclSep   ::= PEReference | S
//	[31]  extSubsetDecl ::= ( markupdecl | conditionalSect | DeclSep)*
func (ctx *parserCtx) parseSubset() error {
	if debug.Enabled {
		debug.Printf("START parseSubset")
		defer debug.Printf("END   parseSubset")
	}

	for {
		if err := ctx.flattener.commit(); err != nil {
			return ctx.error(err)
		}
		ctx.declStart = ctx.flattener.pos()
		ctx.declLoc = ctx.location()

		r, err := ctx.read(nil)
		if err != nil {
			if err != io.EOF {
				return ctx.error(err)
			}
			switch {
			case ctx.includeDepth > 0:
				return ctx.error(ErrConditionalNotFinished)
			case !ctx.external:
				return ctx.error(ErrInternalSubsetNotFinished)
			}
			return nil
		}

		switch {
		case isBlankCh(r):
			continue
		case r == '%':
			if err := ctx.parsePEReference(); err != nil {
				return ctx.error(err)
			}
		case r == '<':
			if err := ctx.parseMarkup(); err != nil {
				return ctx.error(err)
			}
		case r == ']':
			done, err := ctx.parseCloseBracket()
			if err != nil {
				return ctx.error(err)
			}
			if done {
				return nil
			}
		default:
			return ctx.error(ErrUnexpectedChar{Char: r, Context: "between markup declarations"})
		}
	}
}

// parsePEReference expands a parameter entity reference found between
// declarations. The leading '%' has been consumed.
func (ctx *parserCtx) parsePEReference() error {
	c, err := ctx.read(ctx.last.frame)
	if err != nil {
		if err == io.EOF {
			return ErrNameRequired
		}
		return err
	}
	if !isNameStartChar(c) {
		return ErrUnexpectedChar{Char: c, Context: "after '%'"}
	}

	name, err := ctx.readRefName(c)
	if err != nil {
		return err
	}
	if !ctx.flattener.includePEDecls() {
		ctx.flattener.truncate(ctx.declStart)
	}
	return ctx.expandPE(name, true)
}

// readMarkupChar reads a markup delimiter character. Delimiters are
// never produced by a parameter entity reference.
func (ctx *parserCtx) readMarkupChar() (rune, error) {
	r, err := ctx.read(nil)
	if err == io.EOF {
		return 0, ErrUnexpectedEOF
	}
	return r, err
}

// parseMarkup dispatches on what follows a '<'
func (ctx *parserCtx) parseMarkup() error {
	r, err := ctx.readMarkupChar()
	if err != nil {
		return err
	}
	switch r {
	case '?':
		return ctx.parsePI()
	case '!':
	default:
		return ErrUnexpectedChar{Char: r, Context: "after '<'"}
	}

	r, err = ctx.readMarkupChar()
	if err != nil {
		return err
	}
	switch {
	case r == '-':
		return ctx.parseComment()
	case r == '[':
		return ctx.parseConditionalSection()
	case isLetter(r):
		ctx.unread(r)
	default:
		return ErrUnknownDirective{Got: string(r)}
	}

	kw, err := ctx.readToken()
	if err != nil {
		return err
	}
	switch kw {
	case "ELEMENT":
		return ctx.parseElementDecl()
	case "ATTLIST":
		return ctx.parseAttributeListDecl()
	case "ENTITY":
		return ctx.parseEntityDecl()
	case "NOTATION":
		return ctx.parseNotationDecl()
	}
	return ErrUnknownDirective{Got: kw}
}

// parseComment skips a comment. "<!-" has been consumed.
//
//	[15] Comment ::= '<!--' ((Char - '-') | ('-' (Char - '-')))* '-->'
func (ctx *parserCtx) parseComment() error {
	if debug.Enabled {
		debug.Printf("START parseComment")
		defer debug.Printf("END   parseComment")
	}

	r, err := ctx.readMarkupChar()
	if err != nil {
		return err
	}
	if r != '-' {
		return ErrUnknownDirective{Got: "-" + string(r)}
	}

	buf := pool.ByteSlice().Get()
	defer func() { pool.ByteSlice().Put(buf) }()
	for {
		r, err := ctx.read(nil)
		if err != nil {
			if err == io.EOF {
				return ErrCommentNotFinished
			}
			return err
		}
		if r == '-' {
			r2, err := ctx.read(nil)
			if err != nil {
				if err == io.EOF {
					return ErrCommentNotFinished
				}
				return err
			}
			if r2 == '-' {
				r3, err := ctx.read(nil)
				if err != nil {
					if err == io.EOF {
						return ErrCommentNotFinished
					}
					return err
				}
				if r3 != '>' {
					return ErrHyphenInComment
				}
				break
			}
			ctx.unread(r2)
		}
		buf = utf8.AppendRune(buf, r)
	}

	if !ctx.flattener.includeComments() {
		ctx.flattener.truncate(ctx.declStart)
	}
	if h := ctx.sax; h != nil {
		return handlerError(h.Comment(ctx.userData, buf))
	}
	return nil
}

// parsePI skips a processing instruction. "<?" has been consumed.
func (ctx *parserCtx) parsePI() error {
	if debug.Enabled {
		debug.Printf("START parsePI")
		defer debug.Printf("END   parsePI")
	}

	target, err := ctx.readName()
	if err != nil {
		return err
	}

	buf := pool.ByteSlice().Get()
	defer func() { pool.ByteSlice().Put(buf) }()
	leading := true
	for {
		r, err := ctx.read(nil)
		if err != nil {
			if err == io.EOF {
				return ErrPINotFinished
			}
			return err
		}
		if r == '?' {
			r2, err := ctx.read(nil)
			if err != nil {
				if err == io.EOF {
					return ErrPINotFinished
				}
				return err
			}
			if r2 == '>' {
				break
			}
			ctx.unread(r2)
		}
		if leading && isBlankCh(r) {
			continue
		}
		leading = false
		buf = utf8.AppendRune(buf, r)
	}

	if h := ctx.sax; h != nil {
		return handlerError(h.ProcessingInstruction(ctx.userData, target, string(buf)))
	}
	return nil
}

// parseCloseBracket handles a ']' between declarations: either the end
// of an INCLUDE section or the end of the internal subset. It reports
// whether the subset is complete.
func (ctx *parserCtx) parseCloseBracket() (bool, error) {
	if ctx.includeDepth > 0 {
		r, err := ctx.readMarkupChar()
		if err != nil {
			return false, err
		}
		if r != ']' {
			return false, ErrUnexpectedEndOfSubset
		}
		r, err = ctx.readMarkupChar()
		if err != nil {
			return false, err
		}
		if r != '>' {
			return false, ErrGtRequired
		}
		ctx.includeDepth--
		if !ctx.flattener.includeConditionalMarkers() {
			ctx.flattener.truncate(ctx.declStart)
		}
		return false, nil
	}

	if !ctx.external && ctx.inputs.Len() == 1 {
		// the closing bracket belongs to the DOCTYPE declaration
		ctx.flattener.truncate(ctx.declStart)
		return true, nil
	}
	return false, ErrUnexpectedEndOfSubset
}
