package catalog_test

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/lestrrat-go/dtd/catalog"
	"github.com/lestrrat-go/dtd/input"
	"github.com/stretchr/testify/require"
)

func readAll(t *testing.T, s *input.Source) string {
	t.Helper()
	var sb strings.Builder
	for {
		r, err := s.Next()
		if err == io.EOF {
			return sb.String()
		}
		require.NoError(t, err)
		sb.WriteRune(r)
	}
}

func TestCatalog(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "dtds"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "dtds", "doc.dtd"), []byte(`<!ELEMENT doc ANY>`), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "plain.dtd"), []byte(`<!ELEMENT plain EMPTY>`), 0o644))

	catalogPath := filepath.Join(dir, "catalog.yaml")
	require.NoError(t, os.WriteFile(catalogPath, []byte(`
public:
  "-//TEST//DTD Doc//EN": dtds/doc.dtd
system:
  "http://example.com/doc.dtd": dtds/doc.dtd
`), 0o644))

	c, err := catalog.LoadFile(catalogPath)
	require.NoError(t, err)

	expected := filepath.Join(dir, "dtds", "doc.dtd")
	p, ok := c.Lookup("-//TEST//DTD Doc//EN", "ignored.dtd")
	require.True(t, ok)
	require.Equal(t, expected, p)

	p, ok = c.Lookup("", "http://example.com/doc.dtd")
	require.True(t, ok)
	require.Equal(t, expected, p)

	_, ok = c.Lookup("-//OTHER//EN", "")
	require.False(t, ok)

	src, err := c.ResolveEntity(context.Background(), "", "http://example.com/doc.dtd", "")
	require.NoError(t, err)
	require.Equal(t, expected, src.SystemID())
	require.Equal(t, `<!ELEMENT doc ANY>`, readAll(t, src))
	require.NoError(t, src.Close())

	// unknown identifiers fall back to the file resolver
	src, err = c.ResolveEntity(context.Background(), "", "plain.dtd", filepath.Join(dir, "doc.xml"))
	require.NoError(t, err)
	require.Equal(t, `<!ELEMENT plain EMPTY>`, readAll(t, src))
	require.NoError(t, src.Close())

	c.SetFallback(nil)
	_, err = c.ResolveEntity(context.Background(), "", "plain.dtd", filepath.Join(dir, "doc.xml"))
	require.Error(t, err)
}

func TestCatalogBase(t *testing.T) {
	c, err := catalog.Load(strings.NewReader("base: /opt/dtd\nsystem:\n  a.dtd: x/a.dtd\n  abs.dtd: /abs/a.dtd\n"), "/ignored")
	require.NoError(t, err)

	p, ok := c.Lookup("", "a.dtd")
	require.True(t, ok)
	require.Equal(t, filepath.Join("/opt/dtd", "x", "a.dtd"), p)

	p, ok = c.Lookup("", "abs.dtd")
	require.True(t, ok)
	require.Equal(t, "/abs/a.dtd", p)

	_, err = catalog.Load(strings.NewReader("public: [unclosed"), "")
	require.Error(t, err)
}
