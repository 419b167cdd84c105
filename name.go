package dtd

import (
	"bytes"
	"io"
	"unicode/utf8"

	"github.com/lestrrat-go/dtd/schema"
)

func isBlankCh(r rune) bool {
	return r == 0x20 || r == 0x9 || r == 0xa || r == 0xd
}

func isLetter(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
}

// isNameStartChar implements production [4] NameStartChar of XML 1.0
// (fifth edition)
func isNameStartChar(r rune) bool {
	switch {
	case isLetter(r), r == ':', r == '_':
		return true
	case r < 0xC0:
		return false
	}
	return (r >= 0xC0 && r <= 0xD6) ||
		(r >= 0xD8 && r <= 0xF6) ||
		(r >= 0xF8 && r <= 0x2FF) ||
		(r >= 0x370 && r <= 0x37D) ||
		(r >= 0x37F && r <= 0x1FFF) ||
		(r >= 0x200C && r <= 0x200D) ||
		(r >= 0x2070 && r <= 0x218F) ||
		(r >= 0x2C00 && r <= 0x2FEF) ||
		(r >= 0x3001 && r <= 0xD7FF) ||
		(r >= 0xF900 && r <= 0xFDCF) ||
		(r >= 0xFDF0 && r <= 0xFFFD) ||
		(r >= 0x10000 && r <= 0xEFFFF)
}

// [4a] NameChar ::= NameStartChar | "-" | "." | [0-9] | #xB7 | [#x0300-#x036F] | [#x203F-#x2040]
func isNameChar(r rune) bool {
	if isNameStartChar(r) {
		return true
	}
	return r == '-' || r == '.' || (r >= '0' && r <= '9') || r == 0xB7 ||
		(r >= 0x300 && r <= 0x36F) ||
		(r >= 0x203F && r <= 0x2040)
}

// [13] PubidChar ::= #x20 | #xD | #xA | [a-zA-Z0-9] | [-'()+,./:=?;!*#@$_%]
func isPubidChar(r rune) bool {
	if isLetter(r) || (r >= '0' && r <= '9') {
		return true
	}
	switch r {
	case 0x20, 0xD, 0xA, '-', '\'', '(', ')', '+', ',', '.', '/', ':', '=', '?', ';', '!', '*', '#', '@', '$', '_', '%':
		return true
	}
	return false
}

// [2] Char ::= #x9 | #xA | #xD | [#x20-#xD7FF] | [#xE000-#xFFFD] | [#x10000-#x10FFFF]
func isXMLChar(r rune) bool {
	return r == 0x9 || r == 0xA || r == 0xD ||
		(r >= 0x20 && r <= 0xD7FF) ||
		(r >= 0xE000 && r <= 0xFFFD) ||
		(r >= 0x10000 && r <= 0x10FFFF)
}

// scanName reads a Name (or an Nmtoken) into ctx.nameBuf. Characters are
// read with parameter entity expansion; since expansions are padded, a
// reference always ends the name.
func (ctx *parserCtx) scanName(nmtoken bool) error {
	r, err := ctx.mustNext()
	if err != nil {
		return err
	}
	if !isNameStartChar(r) && !(nmtoken && isNameChar(r)) {
		ctx.unread(r)
		if nmtoken {
			return ErrNmtokenRequired
		}
		return ErrNameRequired
	}

	buf := utf8.AppendRune(ctx.nameBuf[:0], r)
	for {
		r, err = ctx.next()
		if err != nil {
			if err == io.EOF {
				break
			}
			return err
		}
		if !isNameChar(r) {
			ctx.unread(r)
			break
		}
		buf = utf8.AppendRune(buf, r)
	}
	ctx.nameBuf = buf
	return nil
}

func (ctx *parserCtx) readName() (string, error) {
	if err := ctx.scanName(false); err != nil {
		return "", err
	}
	return ctx.names.String(ctx.nameBuf), nil
}

func (ctx *parserCtx) readNmtoken() (string, error) {
	if err := ctx.scanName(true); err != nil {
		return "", err
	}
	return ctx.names.String(ctx.nameBuf), nil
}

// readQualifiedName reads a name and resolves it through the name pool.
// With namespaces enabled the name is split at its colon.
func (ctx *parserCtx) readQualifiedName() (schema.NameKey, error) {
	if err := ctx.scanName(false); err != nil {
		return schema.NameKey{}, err
	}

	buf := ctx.nameBuf
	if !ctx.namespaces {
		return ctx.names.Lookup(buf, -1), nil
	}

	colon := bytes.IndexByte(buf, ':')
	if colon >= 0 {
		if colon == 0 || colon == len(buf)-1 || bytes.IndexByte(buf[colon+1:], ':') >= 0 {
			return schema.NameKey{}, ErrInvalidName
		}
	}
	return ctx.names.Lookup(buf, colon), nil
}

// readToken reads a keyword. An empty string means no name character
// followed.
func (ctx *parserCtx) readToken() (string, error) {
	if err := ctx.scanName(false); err != nil {
		if err == ErrNameRequired {
			return "", nil
		}
		return "", err
	}
	return string(ctx.nameBuf), nil
}

// checkKeyword matches the following characters against expected. A
// keyword immediately followed by another name character does not
// match. It returns the empty string on success, or the text actually
// found.
func (ctx *parserCtx) checkKeyword(expected string) (string, error) {
	buf := ctx.nameBuf[:0]
	for _, want := range expected {
		r, err := ctx.mustNext()
		if err != nil {
			return "", err
		}
		if r != want {
			if !isNameChar(r) {
				ctx.unread(r)
				if len(buf) == 0 {
					return string(r), nil
				}
				return string(buf), nil
			}
			buf = utf8.AppendRune(buf, r)
			return ctx.collectName(buf)
		}
		buf = utf8.AppendRune(buf, r)
	}

	r, err := ctx.next()
	if err != nil {
		if err == io.EOF {
			return "", nil
		}
		return "", err
	}
	if isNameChar(r) {
		buf = utf8.AppendRune(buf, r)
		return ctx.collectName(buf)
	}
	ctx.unread(r)
	return "", nil
}

// collectName completes a partially read token for diagnostics
func (ctx *parserCtx) collectName(buf []byte) (string, error) {
	for {
		r, err := ctx.next()
		if err != nil {
			if err == io.EOF {
				break
			}
			return "", err
		}
		if !isNameChar(r) {
			ctx.unread(r)
			break
		}
		buf = utf8.AppendRune(buf, r)
	}
	ctx.nameBuf = buf
	return string(buf), nil
}

// readArity reads an optional occurrence indicator
func (ctx *parserCtx) readArity() (schema.Arity, error) {
	r, err := ctx.next()
	if err != nil {
		if err == io.EOF {
			return schema.ArityOne, nil
		}
		return schema.ArityOne, err
	}
	if a, ok := schema.ArityFromSuffix(r); ok {
		return a, nil
	}
	ctx.unread(r)
	return schema.ArityOne, nil
}
