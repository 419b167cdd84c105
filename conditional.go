package dtd

import (
	"io"

	"github.com/lestrrat-go/dtd/internal/debug"
)

// parseConditionalSection handles "<![" INCLUDE or IGNORE. Conditional
// sections may appear in the external subset and in parameter entities
// referenced from the internal subset.
//
//	[61] conditionalSect ::= includeSect | ignoreSect
//	[62] includeSect     ::= '<![' S? 'INCLUDE' S? '[' extSubsetDecl ']]>'
//	[63] ignoreSect      ::= '<![' S? 'IGNORE' S? '[' ignoreSectContents* ']]>'
func (ctx *parserCtx) parseConditionalSection() error {
	if debug.Enabled {
		debug.Printf("START parseConditionalSection")
		defer debug.Printf("END   parseConditionalSection")
	}

	if !ctx.external && ctx.inputs.Len() == 1 {
		return ErrConditionalNotAllowed
	}

	if _, err := ctx.skipWS(); err != nil {
		return err
	}
	kw, err := ctx.readToken()
	if err != nil {
		return err
	}

	switch kw {
	case "INCLUDE", "IGNORE":
	default:
		return ErrKeywordMismatch{Expected: "INCLUDE' or 'IGNORE", Got: kw}
	}

	if _, err := ctx.skipWS(); err != nil {
		return err
	}
	r, err := ctx.mustNext()
	if err != nil {
		return err
	}
	if r != '[' {
		return ErrOpenBracketRequired
	}

	if kw == "INCLUDE" {
		ctx.includeDepth++
		if !ctx.flattener.includeConditionalMarkers() {
			ctx.flattener.truncate(ctx.declStart)
		}
		return nil
	}

	if err := ctx.skipIgnoreSection(); err != nil {
		return err
	}
	if !ctx.flattener.includeConditionalMarkers() {
		ctx.flattener.truncate(ctx.declStart)
	}
	return nil
}

// skipIgnoreSection skips the contents of an IGNORE section, including
// nested sections, without interpreting them. The opening "[" has been
// consumed.
//
//	[64] ignoreSectContents ::= Ignore ('<![' ignoreSectContents ']]>' Ignore)*
func (ctx *parserCtx) skipIgnoreSection() error {
	depth := 1
	for depth > 0 {
		r, err := ctx.readIgnored()
		if err != nil {
			return err
		}

		switch r {
		case '<':
			r, err = ctx.readIgnored()
			if err != nil {
				return err
			}
			if r != '!' {
				ctx.unread(r)
				continue
			}
			r, err = ctx.readIgnored()
			if err != nil {
				return err
			}
			if r == '[' {
				depth++
				continue
			}
			ctx.unread(r)
		case ']':
			r, err = ctx.readIgnored()
			if err != nil {
				return err
			}
			if r != ']' {
				ctx.unread(r)
				continue
			}
			// any number of ']' may precede the final "]>"
			for {
				r, err = ctx.readIgnored()
				if err != nil {
					return err
				}
				if r != ']' {
					break
				}
			}
			if r == '>' {
				depth--
				continue
			}
			ctx.unread(r)
		}
	}
	return nil
}

func (ctx *parserCtx) readIgnored() (rune, error) {
	r, err := ctx.read(nil)
	if err == io.EOF {
		return 0, ErrUnterminatedIgnoreSection
	}
	return r, err
}
