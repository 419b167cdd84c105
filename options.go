package dtd

import (
	"io"

	"github.com/lestrrat-go/dtd/cache"
	"github.com/lestrrat-go/dtd/input"
	"github.com/lestrrat-go/dtd/sax"
	"github.com/lestrrat-go/option"
)

type Option = option.Interface

type ParseOption interface {
	Option
	parseOption()
}

type parseOption struct{ Option }

func (*parseOption) parseOption() {}

type identNamespaces struct{}
type identNormalizeNewlines struct{}
type identSAXHandler struct{}
type identUserData struct{}
type identResolver struct{}
type identFlattener struct{}
type identCache struct{}
type identWarnDuplicates struct{}

// WithNamespaces enables splitting element and attribute names into
// prefix and local part
func WithNamespaces(v bool) ParseOption {
	return &parseOption{option.New(identNamespaces{}, v)}
}

// WithNormalizeNewlines controls CR/LF normalization of the sources the
// parser creates itself: the replacement text of internal parameter
// entities and the input of the string helpers. The default is true.
func WithNormalizeNewlines(v bool) ParseOption {
	return &parseOption{option.New(identNormalizeNewlines{}, v)}
}

// WithSAXHandler registers the handler receiving declaration events and
// warnings
func WithSAXHandler(v sax.Handler) ParseOption {
	return &parseOption{option.New(identSAXHandler{}, v)}
}

// WithUserData sets the value passed as the context argument of every
// SAX event
func WithUserData(v sax.Context) ParseOption {
	return &parseOption{option.New(identUserData{}, v)}
}

// WithResolver sets the resolver for external subsets and external
// parameter entities. The default is input.FileResolver.
func WithResolver(v input.Resolver) ParseOption {
	return &parseOption{option.New(identResolver{}, v)}
}

type flattenConfig struct {
	w    io.Writer
	opts FlattenOptions
}

// WithFlattener mirrors the processed DTD text to w
func WithFlattener(w io.Writer, opts FlattenOptions) ParseOption {
	return &parseOption{option.New(identFlattener{}, flattenConfig{w: w, opts: opts})}
}

// WithCache makes LoadExternalSubset consult and populate c
func WithCache(c *cache.Cache) ParseOption {
	return &parseOption{option.New(identCache{}, c)}
}

// WithWarnDuplicates controls whether dropped duplicate entity and
// attribute declarations are reported as warnings. The default is true.
func WithWarnDuplicates(v bool) ParseOption {
	return &parseOption{option.New(identWarnDuplicates{}, v)}
}
