package input

import (
	"context"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
)

// Resolver turns the external identifier of an external subset or an
// external parameter entity into a Source
type Resolver interface {
	ResolveEntity(ctx context.Context, publicID, systemID, baseURI string) (*Source, error)
}

// ResolverFunc adapts a function into a Resolver
type ResolverFunc func(ctx context.Context, publicID, systemID, baseURI string) (*Source, error)

func (f ResolverFunc) ResolveEntity(ctx context.Context, publicID, systemID, baseURI string) (*Source, error) {
	return f(ctx, publicID, systemID, baseURI)
}

// FileResolver resolves system identifiers to files on the local file
// system. Relative identifiers are resolved against the directory of the
// referencing entity's system identifier.
type FileResolver struct{}

func (FileResolver) ResolveEntity(_ context.Context, publicID, systemID, baseURI string) (*Source, error) {
	if systemID == "" {
		return nil, errors.Errorf("cannot resolve entity without a system identifier (public id %q)", publicID)
	}

	path := ResolvePath(systemID, baseURI)
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open %q", path)
	}

	src, err := NewExternalSource(f,
		WithPublicID(publicID),
		WithSystemID(path),
		WithCloser(f),
	)
	if err != nil {
		_ = f.Close()
		return nil, errors.Wrapf(err, "failed to read %q", path)
	}
	return src, nil
}

// ResolvePath maps a system identifier to a file path, interpreting it
// relative to baseURI when it is not absolute
func ResolvePath(systemID, baseURI string) string {
	p := systemID
	if u, err := url.Parse(systemID); err == nil && u.Scheme == "file" {
		p = u.Path
	}
	if filepath.IsAbs(p) || baseURI == "" {
		return p
	}

	base := baseURI
	if u, err := url.Parse(baseURI); err == nil && u.Scheme == "file" {
		base = u.Path
	}
	if strings.HasSuffix(base, "/") {
		return filepath.Join(base, p)
	}
	return filepath.Join(filepath.Dir(base), p)
}
