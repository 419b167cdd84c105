// Package catalog maps public and system identifiers of external DTD
// resources to local files. A Catalog is an input.Resolver.
//
// Catalog files are YAML:
//
//	base: /usr/share/xml
//	public:
//	  "-//W3C//DTD XHTML 1.0 Strict//EN": xhtml1/xhtml1-strict.dtd
//	system:
//	  "http://www.w3.org/TR/xhtml1/DTD/xhtml1-strict.dtd": xhtml1/xhtml1-strict.dtd
//
// Relative paths are resolved against base, or against the directory of
// the catalog file when base is empty.
package catalog

import (
	"context"
	"io"
	"os"
	"path/filepath"

	"github.com/lestrrat-go/dtd/input"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

type file struct {
	Base   string            `yaml:"base"`
	Public map[string]string `yaml:"public"`
	System map[string]string `yaml:"system"`
}

// Catalog resolves identifiers listed in it to local files and defers
// everything else to a fallback resolver
type Catalog struct {
	base     string
	public   map[string]string
	system   map[string]string
	fallback input.Resolver
}

// Load reads a catalog from r. Relative paths in the catalog are
// resolved against base unless the catalog names its own base.
func Load(r io.Reader, base string) (*Catalog, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read catalog")
	}

	var f file
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, errors.Wrap(err, "failed to parse catalog")
	}

	c := &Catalog{
		base:     base,
		public:   f.Public,
		system:   f.System,
		fallback: input.FileResolver{},
	}
	if f.Base != "" {
		c.base = f.Base
	}
	return c, nil
}

// LoadFile reads the catalog stored at path
func LoadFile(path string) (*Catalog, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open catalog %q", path)
	}
	defer f.Close()

	return Load(f, filepath.Dir(path))
}

// SetFallback replaces the resolver used for identifiers the catalog
// does not list. The default is input.FileResolver.
func (c *Catalog) SetFallback(r input.Resolver) {
	c.fallback = r
}

// Lookup returns the local path for an external identifier. Public
// identifiers take precedence over system identifiers.
func (c *Catalog) Lookup(publicID, systemID string) (string, bool) {
	if publicID != "" {
		if p, ok := c.public[publicID]; ok {
			return c.path(p), true
		}
	}
	if systemID != "" {
		if p, ok := c.system[systemID]; ok {
			return c.path(p), true
		}
	}
	return "", false
}

func (c *Catalog) path(p string) string {
	if filepath.IsAbs(p) || c.base == "" {
		return p
	}
	return filepath.Join(c.base, p)
}

func (c *Catalog) ResolveEntity(ctx context.Context, publicID, systemID, baseURI string) (*input.Source, error) {
	path, ok := c.Lookup(publicID, systemID)
	if !ok {
		if c.fallback == nil {
			return nil, errors.Errorf("no catalog entry for public id %q, system id %q", publicID, systemID)
		}
		return c.fallback.ResolveEntity(ctx, publicID, systemID, baseURI)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open %q", path)
	}
	src, err := input.NewExternalSource(f,
		input.WithPublicID(publicID),
		input.WithSystemID(path),
		input.WithCloser(f),
	)
	if err != nil {
		_ = f.Close()
		return nil, errors.Wrapf(err, "failed to read %q", path)
	}
	return src, nil
}
