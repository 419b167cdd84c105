package dtd

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/lestrrat-go/dtd/cache"
	"github.com/lestrrat-go/dtd/input"
	"github.com/lestrrat-go/dtd/internal/debug"
	"github.com/lestrrat-go/dtd/sax"
	"github.com/lestrrat-go/dtd/schema"
	"github.com/pkg/errors"
)

func NewParser(options ...ParseOption) *Parser {
	p := &Parser{
		names:          schema.NewNamePool(),
		normalize:      true,
		resolver:       input.FileResolver{},
		warnDuplicates: true,
	}

	for _, o := range options {
		switch o.Ident() {
		case identNamespaces{}:
			p.namespaces = o.Value().(bool)
		case identNormalizeNewlines{}:
			p.normalize = o.Value().(bool)
		case identSAXHandler{}:
			p.sax = o.Value().(sax.Handler)
		case identUserData{}:
			p.userData = o.Value()
		case identResolver{}:
			p.resolver = o.Value().(input.Resolver)
		case identFlattener{}:
			cfg := o.Value().(flattenConfig)
			p.flatten = &cfg
		case identCache{}:
			p.cache = o.Value().(*cache.Cache)
		case identWarnDuplicates{}:
			p.warnDuplicates = o.Value().(bool)
		}
	}
	return p
}

func (p *Parser) acquire() error {
	if !p.busy.CompareAndSwap(false, true) {
		return ErrParserBusy
	}
	return nil
}

func (p *Parser) release() {
	p.busy.Store(false)
}

// ParseInternalSubset parses the internal subset of a DOCTYPE
// declaration. src must be positioned right after the opening '['; the
// subset is read up to and including the closing ']'.
func (p *Parser) ParseInternalSubset(ctx context.Context, src *input.Source) (*schema.Subset, error) {
	if err := p.acquire(); err != nil {
		return nil, err
	}
	defer p.release()

	tlog := getTraceLogFromContext(ctx)
	tlog.Debug("parsing internal subset", slog.String("system_id", src.SystemID()))

	pctx := p.newContext(ctx, tlog, src, false, nil)
	defer pctx.release()

	s, err := pctx.parse()
	if err != nil {
		return nil, errors.Wrap(err, "failed to parse internal subset")
	}
	return s, nil
}

// ParseExternalSubset parses an external subset read from src. internal
// is the internal subset of the referencing document, or nil; its
// parameter entities take precedence over the ones declared in the
// external subset.
func (p *Parser) ParseExternalSubset(ctx context.Context, src *input.Source, internal *schema.Subset) (*schema.Subset, error) {
	if err := p.acquire(); err != nil {
		return nil, err
	}
	defer p.release()

	return p.parseExternalSubset(ctx, getTraceLogFromContext(ctx), src, internal)
}

func (p *Parser) parseExternalSubset(ctx context.Context, tlog *slog.Logger, src *input.Source, internal *schema.Subset) (*schema.Subset, error) {
	tlog.Debug("parsing external subset",
		slog.String("public_id", src.PublicID()),
		slog.String("system_id", src.SystemID()),
	)

	pctx := p.newContext(ctx, tlog, src, true, internal)
	defer pctx.release()

	s, err := pctx.parse()
	if err != nil {
		return nil, errors.Wrap(err, "failed to parse external subset")
	}
	return s, nil
}

// LoadExternalSubset resolves the external subset identified by
// publicID and systemID and parses it. When the parser was configured
// with a cache, a cached subset reusable with internal is returned
// without parsing, and freshly parsed cachable subsets are stored.
func (p *Parser) LoadExternalSubset(ctx context.Context, publicID, systemID, baseURI string, internal *schema.Subset) (*schema.Subset, error) {
	if err := p.acquire(); err != nil {
		return nil, err
	}
	defer p.release()

	tlog := getTraceLogFromContext(ctx)
	key := cache.KeyFor(publicID, input.ResolvePath(systemID, baseURI))
	if p.cache != nil {
		if s, ok := p.cache.Get(key, internal); ok {
			tlog.Debug("external subset cache hit", slog.String("public_id", publicID), slog.String("system_id", systemID))
			return s, nil
		}
		tlog.Debug("external subset cache miss", slog.String("public_id", publicID), slog.String("system_id", systemID))
	}

	src, err := p.resolver.ResolveEntity(ctx, publicID, systemID, baseURI)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to resolve external subset (public id %q, system id %q)", publicID, systemID)
	}
	defer src.Close()

	s, err := p.parseExternalSubset(ctx, tlog, src, internal)
	if err != nil {
		return nil, err
	}

	if p.cache != nil && p.cache.Put(key, s) {
		tlog.Debug("external subset cached", slog.String("public_id", publicID), slog.String("system_id", systemID))
	}
	return s, nil
}

// ParseInternalSubsetString parses s as an internal subset. s must
// include the closing ']'.
func ParseInternalSubsetString(ctx context.Context, s string, options ...ParseOption) (*schema.Subset, error) {
	p := NewParser(options...)
	return p.ParseInternalSubset(ctx, input.NewStringSource(s, input.WithNormalizeNewlines(p.normalize)))
}

// ParseExternalSubsetString parses s as an external subset. A leading
// text declaration is honored.
func ParseExternalSubsetString(ctx context.Context, s string, internal *schema.Subset, options ...ParseOption) (*schema.Subset, error) {
	p := NewParser(options...)
	src, err := input.NewExternalSource(strings.NewReader(s), input.WithNormalizeNewlines(p.normalize))
	if err != nil {
		return nil, errors.Wrap(err, "failed to read external subset")
	}
	return p.ParseExternalSubset(ctx, src, internal)
}

func (p *Parser) newContext(ctx context.Context, tlog *slog.Logger, src *input.Source, external bool, predefined *schema.Subset) *parserCtx {
	pctx := &parserCtx{
		goctx:          ctx,
		tlog:           tlog,
		names:          p.names,
		namespaces:     p.namespaces,
		normalize:      p.normalize,
		sax:            p.sax,
		userData:       p.userData,
		resolver:       p.resolver,
		warnDuplicates: p.warnDuplicates,
		external:       external,
		predefined:     predefined,
		builder:        schema.NewBuilder(external),
		flattener:      newFlattener(p.flatten),
	}
	if pctx.resolver == nil {
		pctx.resolver = input.FileResolver{}
	}
	pctx.inputs.Push(&inputFrame{src: src})
	return pctx
}

// release closes the sources of parameter entities still open after a
// failed parse. The document entity belongs to the caller.
func (ctx *parserCtx) release() {
	for ctx.inputs.Len() > 1 {
		ctx.popInput()
	}
	ctx.flattener.release()
}

func (ctx *parserCtx) parse() (*schema.Subset, error) {
	if debug.Enabled {
		debug.Printf("START parse (external = %t)", ctx.external)
		defer debug.Printf("END   parse")
	}

	if err := ctx.parseSubset(); err != nil {
		return nil, err
	}
	if err := ctx.flattener.flush(); err != nil {
		return nil, errors.Wrap(err, "failed to write flattened output")
	}

	if ctx.external {
		if err := ctx.warnPlaceholders(); err != nil {
			return nil, err
		}
	}
	s := ctx.builder.Freeze()
	if debug.Enabled {
		debug.Dump(s.ReferencedParameterEntities())
	}
	return s, nil
}

// warnPlaceholders reports elements that received attribute definitions
// but are declared neither in the external subset nor in the internal
// subset
func (ctx *parserCtx) warnPlaceholders() error {
	for _, e := range ctx.builder.Placeholders() {
		if ctx.predefined != nil {
			if ie, ok := ctx.predefined.LookupElement(e.Name()); ok && !ie.IsPlaceholder() {
				continue
			}
		}
		msg := fmt.Sprintf("element '%s' has attribute definitions but no element declaration", e.Name())
		if err := ctx.warn(e.Location(), msg); err != nil {
			return err
		}
	}
	return nil
}

func (ctx *parserCtx) warn(loc schema.Location, msg string) error {
	ctx.tlog.Warn(msg, locationAttr(loc))
	if h := ctx.sax; h != nil {
		return handlerError(h.Warning(ctx.userData, loc, msg))
	}
	return nil
}

// handlerError drops the error SAX2 reports for events nobody listens to
func handlerError(err error) error {
	if err == nil || errors.Is(err, sax.ErrHandlerUnspecified) {
		return nil
	}
	return err
}

// error wraps err with the current location, unless it already carries
// one
func (ctx *parserCtx) error(err error) error {
	if _, ok := err.(ErrParseError); ok {
		return err
	}

	loc := ctx.location()
	return ErrParseError{
		Err:        err,
		PublicID:   loc.PublicID,
		SystemID:   loc.SystemID,
		Entity:     loc.Entity,
		LineNumber: loc.Line,
		Column:     loc.Column,
		Offset:     loc.Offset,
	}
}
