package dtd

import (
	"io"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/lestrrat-go/dtd/input"
	"github.com/lestrrat-go/dtd/internal/debug"
	"github.com/lestrrat-go/dtd/internal/pool"
	"github.com/lestrrat-go/dtd/schema"
	"github.com/pkg/errors"
)

func (ctx *parserCtx) current() *inputFrame {
	f, _ := ctx.inputs.Peek()
	return f
}

// location returns the location of the next character
func (ctx *parserCtx) location() schema.Location {
	return ctx.current().src.Location()
}

// read returns the next character without recognizing parameter entity
// references. Exhausted parameter entities are popped off the input
// stack as long as they sit above scope; a nil scope stands for the
// document entity. io.EOF is returned once scope has no more characters.
func (ctx *parserCtx) read(scope *inputFrame) (rune, error) {
	for {
		f := ctx.current()
		if f.lead {
			f.lead = false
			ctx.last = readInfo{frame: f, pad: padLead}
			return ' ', nil
		}

		if !f.eof {
			r, err := f.src.Next()
			if err == nil {
				ctx.last = readInfo{frame: f}
				if fl := ctx.flattener; fl != nil && (ctx.inputs.Len() == 1 || !fl.opts.IncludePEDecls) {
					fl.write(r)
					ctx.last.written = true
				}
				return r, nil
			}
			if err != io.EOF {
				return 0, err
			}
			f.eof = true
		}

		if f.tail {
			f.tail = false
			ctx.last = readInfo{frame: f, pad: padTail}
			return ' ', nil
		}
		if f == scope || ctx.inputs.Len() == 1 {
			return 0, io.EOF
		}
		ctx.popInput()
	}
}

// unread pushes back the character returned by the last call to read.
// Only one character can be pushed back at a time.
func (ctx *parserCtx) unread(r rune) {
	last := ctx.last
	ctx.last = readInfo{}
	if last.frame == nil {
		return
	}

	switch last.pad {
	case padLead:
		last.frame.lead = true
	case padTail:
		last.frame.tail = true
	default:
		last.frame.src.Unread(r)
	}
	if last.written {
		ctx.flattener.unwrite()
	}
}

func (ctx *parserCtx) popInput() {
	f, ok := ctx.inputs.Pop()
	if !ok {
		return
	}
	if f.entity != nil {
		if debug.Enabled {
			debug.Printf("END   %%%s;", f.entity.Name())
		}
	}
	if err := f.src.Close(); err != nil {
		ctx.tlog.Warn("failed to close entity source", slog.String("error", err.Error()))
	}
}

// next returns the next character, expanding parameter entity
// references. Expansions are padded with a space on each side.
func (ctx *parserCtx) next() (rune, error) {
	for {
		mark := ctx.flattener.pos()
		r, err := ctx.read(nil)
		if err != nil || r != '%' {
			return r, err
		}

		pct := ctx.last
		c, err := ctx.read(nil)
		if err != nil {
			if err == io.EOF {
				ctx.last = pct
				return '%', nil
			}
			return 0, err
		}
		if !isNameStartChar(c) {
			ctx.unread(c)
			ctx.last = pct
			return '%', nil
		}

		if !ctx.external && ctx.inputs.Len() == 1 {
			return 0, ErrPERefInInternalSubset
		}
		name, err := ctx.readRefName(c)
		if err != nil {
			return 0, err
		}
		if !ctx.flattener.includePEDecls() {
			ctx.flattener.truncate(mark)
		}
		if err := ctx.expandPE(name, true); err != nil {
			return 0, err
		}
	}
}

// mustNext is next for places where the input may not end
func (ctx *parserCtx) mustNext() (rune, error) {
	r, err := ctx.next()
	if err == io.EOF {
		return 0, ErrUnexpectedEOF
	}
	return r, err
}

// readRefName reads the name of an entity or character reference up to
// the terminating ';'. The name must come from a single input source.
// References are recognised while a name is being scanned into
// ctx.nameBuf, so the reference name uses a buffer of its own.
func (ctx *parserCtx) readRefName(first rune) (string, error) {
	scope := ctx.last.frame
	buf := pool.ByteSlice().Get()
	defer func() { pool.ByteSlice().Put(buf) }()
	buf = utf8.AppendRune(buf, first)
	for {
		r, err := ctx.read(scope)
		if err != nil {
			if err == io.EOF {
				return "", ErrSemicolonRequired
			}
			return "", err
		}
		if r == ';' {
			break
		}
		if !isNameChar(r) {
			return "", ErrSemicolonRequired
		}
		buf = utf8.AppendRune(buf, r)
	}
	return ctx.names.String(buf), nil
}

func (ctx *parserCtx) lookupPE(name string) (*schema.EntityDecl, bool, error) {
	if ctx.predefined != nil {
		if decl, ok := ctx.predefined.LookupParameterEntity(name); ok {
			return decl, true, nil
		}
	}
	if decl, ok := ctx.builder.LookupParameterEntity(name); ok {
		return decl, false, nil
	}
	return nil, false, ErrUndeclaredEntity{Name: name}
}

// expandPE pushes the replacement text of the named parameter entity
// onto the input stack
func (ctx *parserCtx) expandPE(name string, pad bool) error {
	if debug.Enabled {
		debug.Printf("START %%%s; (pad = %t)", name, pad)
	}

	decl, predefined, err := ctx.lookupPE(name)
	if err != nil {
		return err
	}
	if ctx.external {
		ctx.builder.ReferenceParameterEntity(name, predefined)
	}

	for i := range ctx.inputs.Len() {
		if e := ctx.inputs.At(i).entity; e != nil && e.Name() == name {
			return ErrRecursiveEntity{Name: name}
		}
	}

	var src *input.Source
	if decl.IsInternal() {
		loc := decl.Location()
		src = input.NewStringSource(decl.Value(),
			input.WithEntity(name),
			input.WithPublicID(loc.PublicID),
			input.WithSystemID(loc.SystemID),
			input.WithNormalizeNewlines(ctx.normalize),
		)
	} else {
		base := decl.Location().SystemID
		if base == "" {
			base = ctx.current().src.SystemID()
		}
		src, err = ctx.resolver.ResolveEntity(ctx.goctx, decl.PublicID(), decl.SystemID(), base)
		if err != nil {
			return errors.Wrapf(err, "failed to resolve parameter entity '%%%s;'", name)
		}
		if src == nil {
			return ErrExternalParameterEntityNil
		}
		ctx.tlog.Debug("resolved external parameter entity",
			slog.String("name", name),
			slog.String("system_id", src.SystemID()),
		)
	}

	ctx.tlog.Debug("expanding parameter entity",
		slog.String("name", name),
		slog.Bool("predefined", predefined),
		slog.Int("depth", ctx.inputs.Len()),
	)
	ctx.inputs.Push(&inputFrame{src: src, entity: decl, lead: pad, tail: pad})
	return nil
}

// skipWS skips white space, expanding parameter entity references on
// the way, and reports how many characters were skipped. Reaching the
// end of the input is not an error here.
func (ctx *parserCtx) skipWS() (int, error) {
	var n int
	for {
		r, err := ctx.next()
		if err != nil {
			if err == io.EOF {
				return n, nil
			}
			return n, err
		}
		if !isBlankCh(r) {
			ctx.unread(r)
			return n, nil
		}
		n++
	}
}

func (ctx *parserCtx) skipRequiredWS() error {
	n, err := ctx.skipWS()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrSpaceRequired
	}
	return nil
}

// expectDeclEnd consumes optional white space and the '>' closing a
// markup declaration
func (ctx *parserCtx) expectDeclEnd() error {
	if _, err := ctx.skipWS(); err != nil {
		return err
	}
	r, err := ctx.mustNext()
	if err != nil {
		return err
	}
	if r != '>' {
		return ErrGtRequired
	}
	return nil
}

// readCharRef reads a character reference after its leading "&#"
func (ctx *parserCtx) readCharRef() (rune, error) {
	scope := ctx.last.frame
	base := int32(10)
	r, err := ctx.read(scope)
	if err == nil && r == 'x' {
		base = 16
		r, err = ctx.read(scope)
	}

	var v int32
	var digits int
	for {
		if err != nil {
			return 0, ErrInvalidCharRef
		}
		if r == ';' {
			break
		}
		d := digitValue(r)
		if d < 0 || d >= base {
			return 0, ErrInvalidCharRef
		}
		v = v*base + d
		if v > utf8.MaxRune {
			return 0, ErrInvalidCharRef
		}
		digits++
		r, err = ctx.read(scope)
	}

	if digits == 0 || !isXMLChar(v) {
		return 0, ErrInvalidCharRef
	}
	return v, nil
}

func digitValue(r rune) int32 {
	switch {
	case r >= '0' && r <= '9':
		return r - '0'
	case r >= 'a' && r <= 'f':
		return r - 'a' + 10
	case r >= 'A' && r <= 'F':
		return r - 'A' + 10
	}
	return -1
}

// readEntityValue reads the literal of an internal entity declaration
// after its opening quote. Parameter entity references are expanded
// without padding, character references are resolved and general entity
// references are kept as written. Only a quote read from the input
// source that held the opening quote closes the literal.
func (ctx *parserCtx) readEntityValue(quote rune, entity string, declLoc schema.Location) (string, error) {
	if debug.Enabled {
		debug.Printf("START readEntityValue")
		defer debug.Printf("END   readEntityValue")
	}

	scope := ctx.last.frame
	buf := pool.ByteSlice().Get()
	defer func() { pool.ByteSlice().Put(buf) }()

	for {
		mark := ctx.flattener.pos()
		r, err := ctx.read(scope)
		if err != nil {
			if err == io.EOF {
				return "", ErrUnterminatedEntityValue{Entity: entity, Location: declLoc}
			}
			return "", err
		}

		switch r {
		case quote:
			if ctx.last.frame == scope {
				return string(buf), nil
			}
		case '%':
			c, err := ctx.read(ctx.last.frame)
			if err != nil || !isNameStartChar(c) {
				return "", ErrEntityValueBadPercent
			}
			if !ctx.external && ctx.inputs.Len() == 1 {
				return "", ErrPERefInInternalSubset
			}
			name, err := ctx.readRefName(c)
			if err != nil {
				return "", err
			}
			if !ctx.flattener.includePEDecls() {
				ctx.flattener.truncate(mark)
			}
			if err := ctx.expandPE(name, false); err != nil {
				return "", err
			}
			continue
		case '&':
			c, err := ctx.read(ctx.last.frame)
			if err != nil {
				return "", ErrNameRequired
			}
			if c == '#' {
				ch, err := ctx.readCharRef()
				if err != nil {
					return "", err
				}
				buf = utf8.AppendRune(buf, ch)
				continue
			}
			if !isNameStartChar(c) {
				return "", ErrNameRequired
			}
			name, err := ctx.readRefName(c)
			if err != nil {
				return "", err
			}
			buf = append(buf, '&')
			buf = append(buf, name...)
			buf = append(buf, ';')
			continue
		}
		buf = utf8.AppendRune(buf, r)
	}
}

// readAttributeDefault reads an attribute default literal after its
// opening quote. Character references and the predefined entities are
// resolved, white space characters become spaces and references to
// other general entities are kept as separate segments.
func (ctx *parserCtx) readAttributeDefault(quote rune) (*schema.DefaultValue, error) {
	scope := ctx.last.frame
	buf := pool.ByteSlice().Get()
	defer func() { pool.ByteSlice().Put(buf) }()

	var segments []schema.Segment
	flush := func() {
		if len(buf) > 0 {
			segments = append(segments, schema.Segment{Text: string(buf)})
			buf = buf[:0]
		}
	}

	for {
		r, err := ctx.read(scope)
		if err != nil {
			if err == io.EOF {
				return nil, ErrLiteralNotFinished
			}
			return nil, err
		}

		switch r {
		case quote:
			if ctx.last.frame == scope {
				flush()
				return schema.NewDefaultValue(segments...), nil
			}
		case '<':
			return nil, ErrLtInAttributeValue
		case '\t', '\n', '\r':
			r = ' '
		case '&':
			c, err := ctx.read(ctx.last.frame)
			if err != nil {
				return nil, ErrNameRequired
			}
			if c == '#' {
				ch, err := ctx.readCharRef()
				if err != nil {
					return nil, err
				}
				buf = utf8.AppendRune(buf, ch)
				continue
			}
			if !isNameStartChar(c) {
				return nil, ErrNameRequired
			}
			name, err := ctx.readRefName(c)
			if err != nil {
				return nil, err
			}
			if e, ok := schema.PredefinedEntity(name); ok {
				buf = append(buf, e.Value()...)
				continue
			}
			flush()
			segments = append(segments, schema.Segment{Entity: name})
			continue
		}
		buf = utf8.AppendRune(buf, r)
	}
}

// readQuoted reads a literal without references after its opening
// quote. valid, when given, restricts the allowed characters.
func (ctx *parserCtx) readQuoted(quote rune, valid func(rune) bool) (string, error) {
	scope := ctx.last.frame
	var sb strings.Builder
	for {
		r, err := ctx.read(scope)
		if err != nil {
			if err == io.EOF {
				return "", ErrLiteralNotFinished
			}
			return "", err
		}
		if r == quote && ctx.last.frame == scope {
			return sb.String(), nil
		}
		if valid != nil && !valid(r) {
			return "", ErrPubidCharInvalid
		}
		sb.WriteRune(r)
	}
}

func (ctx *parserCtx) readSystemLiteral() (string, error) {
	r, err := ctx.mustNext()
	if err != nil {
		return "", err
	}
	if r != '"' && r != '\'' {
		return "", ErrSystemLiteralRequired
	}
	return ctx.readQuoted(r, nil)
}

// readPubidLiteral reads a public identifier, collapsing white space
func (ctx *parserCtx) readPubidLiteral() (string, error) {
	r, err := ctx.mustNext()
	if err != nil {
		return "", err
	}
	if r != '"' && r != '\'' {
		return "", ErrLiteralRequired
	}
	s, err := ctx.readQuoted(r, isPubidChar)
	if err != nil {
		return "", err
	}
	return strings.Join(strings.Fields(s), " "), nil
}

// readExternalID reads "SYSTEM" SystemLiteral or "PUBLIC" PubidLiteral
// SystemLiteral. With publicOnly the system literal after a public
// identifier is optional, as in notation declarations.
func (ctx *parserCtx) readExternalID(publicOnly bool) (string, string, error) {
	kw, err := ctx.readToken()
	if err != nil {
		return "", "", err
	}

	switch kw {
	case "SYSTEM":
		if err := ctx.skipRequiredWS(); err != nil {
			return "", "", err
		}
		sys, err := ctx.readSystemLiteral()
		return "", sys, err
	case "PUBLIC":
		if err := ctx.skipRequiredWS(); err != nil {
			return "", "", err
		}
		pub, err := ctx.readPubidLiteral()
		if err != nil {
			return "", "", err
		}
		if !publicOnly {
			if err := ctx.skipRequiredWS(); err != nil {
				return "", "", err
			}
			sys, err := ctx.readSystemLiteral()
			return pub, sys, err
		}

		n, err := ctx.skipWS()
		if err != nil {
			return "", "", err
		}
		r, err := ctx.mustNext()
		if err != nil {
			return "", "", err
		}
		if n > 0 && (r == '"' || r == '\'') {
			sys, err := ctx.readQuoted(r, nil)
			return pub, sys, err
		}
		ctx.unread(r)
		return pub, "", nil
	}

	if kw == "" {
		return "", "", ErrExternalIDRequired
	}
	return "", "", ErrKeywordMismatch{Expected: "SYSTEM' or 'PUBLIC", Got: kw}
}
