package dtd

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/lestrrat-go/dtd/cache"
	"github.com/lestrrat-go/dtd/input"
	"github.com/lestrrat-go/dtd/sax"
	"github.com/lestrrat-go/dtd/schema"
	"github.com/lestrrat-go/pdebug"
	"github.com/stretchr/testify/require"
)

func local(name string) schema.NameKey {
	return schema.NameKey{Local: name}
}

func contentOf(t *testing.T, s *schema.Subset, name string) string {
	t.Helper()
	e, ok := s.LookupElement(local(name))
	require.True(t, ok, "element %s should exist", name)
	c, ok := e.Content()
	require.True(t, ok, "element %s should have a content spec", name)
	return c.String()
}

// summarize renders a subset for structural comparison
func summarize(s *schema.Subset) string {
	var sb strings.Builder
	for _, e := range s.Entities() {
		fmt.Fprintf(&sb, "entity %s %q %q %q\n", e.Name(), e.Value(), e.SystemID(), e.Notation())
	}
	for _, n := range s.Notations() {
		fmt.Fprintf(&sb, "notation %s %q %q\n", n.Name(), n.PublicID(), n.SystemID())
	}
	for _, e := range s.Elements() {
		c, _ := e.Content()
		fmt.Fprintf(&sb, "element %s %s\n", e.Name(), c)
		for _, a := range e.Attributes() {
			lit := ""
			if v := a.DefaultValue(); v != nil {
				lit = v.Literal()
			}
			fmt.Fprintf(&sb, "  attr %d %s %s %v %s %q\n", a.Index(), a.Name(), a.Type(), a.Enumeration(), a.DefaultKind(), lit)
		}
	}
	return sb.String()
}

type recorder struct {
	events   []string
	warnings []string
}

func (r *recorder) handler() *sax.SAX2 {
	h := sax.New()
	h.ElementDeclHandler = func(_ sax.Context, decl *schema.ElementDecl) error {
		r.events = append(r.events, "element "+decl.Name().String())
		return nil
	}
	h.AttributeDeclHandler = func(_ sax.Context, elem schema.NameKey, decl *schema.AttributeDecl) error {
		r.events = append(r.events, "attribute "+elem.String()+" "+decl.Name().String())
		return nil
	}
	h.InternalEntityDeclHandler = func(_ sax.Context, decl *schema.EntityDecl) error {
		r.events = append(r.events, "internal "+decl.Name())
		return nil
	}
	h.ExternalEntityDeclHandler = func(_ sax.Context, decl *schema.EntityDecl) error {
		r.events = append(r.events, "external "+decl.Name())
		return nil
	}
	h.UnparsedEntityDeclHandler = func(_ sax.Context, decl *schema.EntityDecl) error {
		r.events = append(r.events, "unparsed "+decl.Name()+" "+decl.Notation())
		return nil
	}
	h.NotationDeclHandler = func(_ sax.Context, decl *schema.NotationDecl) error {
		r.events = append(r.events, "notation "+decl.Name())
		return nil
	}
	h.CommentHandler = func(_ sax.Context, content []byte) error {
		r.events = append(r.events, "comment "+string(content))
		return nil
	}
	h.ProcessingInstructionHandler = func(_ sax.Context, target, data string) error {
		r.events = append(r.events, "pi "+target+" "+data)
		return nil
	}
	h.WarningHandler = func(_ sax.Context, _ schema.Location, msg string) error {
		r.warnings = append(r.warnings, msg)
		return nil
	}
	return h
}

func TestParseInternalSubset(t *testing.T) {
	ctx := context.Background()

	t.Run("entity first declaration wins", func(t *testing.T) {
		var r recorder
		s, err := ParseInternalSubsetString(ctx, `<!ENTITY foo "bar"><!ENTITY foo "baz">]`, WithSAXHandler(r.handler()))
		require.NoError(t, err)

		e, ok := s.LookupEntity("foo")
		require.True(t, ok)
		require.Equal(t, "bar", e.Value())
		require.Len(t, s.Entities(), 1)
		require.Len(t, r.warnings, 1)
		require.Contains(t, r.warnings[0], "redefined")
		require.Equal(t, []string{"internal foo"}, r.events)
	})
	t.Run("duplicate warnings can be turned off", func(t *testing.T) {
		var r recorder
		_, err := ParseInternalSubsetString(ctx, `<!ENTITY foo "bar"><!ENTITY foo "baz">]`,
			WithSAXHandler(r.handler()),
			WithWarnDuplicates(false),
		)
		require.NoError(t, err)
		require.Empty(t, r.warnings)
	})
	t.Run("notation redefinition", func(t *testing.T) {
		_, err := ParseInternalSubsetString(ctx, `<!NOTATION n SYSTEM "a"><!NOTATION n SYSTEM "b">]`)
		var redefined schema.ErrNotationRedefined
		require.ErrorAs(t, err, &redefined)
		require.Equal(t, "n", redefined.Name)
	})
	t.Run("element and child", func(t *testing.T) {
		s, err := ParseInternalSubsetString(ctx, `<!ENTITY foo "bar"><!ELEMENT root (child)><!ELEMENT child EMPTY>]`)
		require.NoError(t, err)
		require.False(t, s.IsExternal())
		require.False(t, s.Cachable())

		e, ok := s.LookupEntity("foo")
		require.True(t, ok)
		require.Equal(t, "bar", e.Value())

		elems := s.Elements()
		require.Len(t, elems, 2)
		require.Equal(t, local("root"), elems[0].Name())
		require.Equal(t, local("child"), elems[1].Name())

		root, _ := elems[0].Content()
		require.Equal(t, schema.ContentSequence, root.Kind)
		require.Equal(t, schema.ArityOne, root.Arity)
		require.Equal(t, []schema.Particle{schema.NameParticle(local("child"), schema.ArityOne)}, root.Children)

		child, _ := elems[1].Content()
		require.Equal(t, schema.ContentEmpty, child.Kind)
	})
	t.Run("mixed content", func(t *testing.T) {
		s, err := ParseInternalSubsetString(ctx, `<!ELEMENT root (#PCDATA|em)*>]`)
		require.NoError(t, err)

		e, ok := s.LookupElement(local("root"))
		require.True(t, ok)
		require.True(t, e.IsMixed())
		c, _ := e.Content()
		require.Equal(t, schema.ContentMixed, c.Kind)
		require.Equal(t, []schema.NameKey{local("em")}, c.Names)
	})
	t.Run("attribute list before element", func(t *testing.T) {
		var r recorder
		s, err := ParseInternalSubsetString(ctx, `<!ATTLIST x id ID #REQUIRED><!ELEMENT x EMPTY>]`, WithSAXHandler(r.handler()))
		require.NoError(t, err)
		require.Empty(t, r.warnings)

		e, ok := s.LookupElement(local("x"))
		require.True(t, ok)
		require.False(t, e.IsPlaceholder())
		c, _ := e.Content()
		require.Equal(t, schema.ContentEmpty, c.Kind)

		attrs := e.Attributes()
		require.Len(t, attrs, 1)
		require.Equal(t, local("id"), attrs[0].Name())
		require.Equal(t, schema.AttrID, attrs[0].Type())
		require.Equal(t, schema.AttrDefaultRequired, attrs[0].DefaultKind())
		require.Equal(t, 0, attrs[0].Index())
		require.Nil(t, attrs[0].DefaultValue())
	})
	t.Run("element redefinition", func(t *testing.T) {
		_, err := ParseInternalSubsetString(ctx, `<!ELEMENT x EMPTY><!ELEMENT x ANY>]`)
		var redefined schema.ErrElementRedefined
		require.ErrorAs(t, err, &redefined)
		require.Equal(t, local("x"), redefined.Name)
	})
	t.Run("parameter entity between declarations", func(t *testing.T) {
		s, err := ParseInternalSubsetString(ctx, `<!ENTITY % decls "<!ELEMENT a EMPTY>"> %decls; ]`)
		require.NoError(t, err)
		require.Equal(t, "EMPTY", contentOf(t, s, "a"))

		pe, ok := s.LookupParameterEntity("decls")
		require.True(t, ok)
		require.True(t, pe.IsParameter())
		_, ok = s.LookupEntity("decls")
		require.False(t, ok)
	})
	t.Run("parameter entity inside markup", func(t *testing.T) {
		_, err := ParseInternalSubsetString(ctx, `<!ENTITY % p "EMPTY"><!ELEMENT e %p;>]`)
		require.ErrorIs(t, err, ErrPERefInInternalSubset)
	})
	t.Run("parameter entity inside entity value", func(t *testing.T) {
		_, err := ParseInternalSubsetString(ctx, `<!ENTITY % p "x"><!ENTITY e "%p;">]`)
		require.ErrorIs(t, err, ErrPERefInInternalSubset)
	})
	t.Run("markup inside an expansion may reference parameter entities", func(t *testing.T) {
		s, err := ParseInternalSubsetString(ctx, `<!ENTITY % model "(b|c)*"><!ENTITY % decl "<!ELEMENT a &#37;model;>"> %decl; ]`)
		require.NoError(t, err)
		require.Equal(t, "(b|c)*", contentOf(t, s, "a"))
	})
	t.Run("conditional section", func(t *testing.T) {
		_, err := ParseInternalSubsetString(ctx, `<![INCLUDE[ <!ENTITY a "1"> ]]>]`)
		require.ErrorIs(t, err, ErrConditionalNotAllowed)
	})
	t.Run("external parameter entity", func(t *testing.T) {
		var requested []string
		resolver := input.ResolverFunc(func(_ context.Context, publicID, systemID, _ string) (*input.Source, error) {
			requested = append(requested, publicID+"|"+systemID)
			return input.NewExternalSource(strings.NewReader(`<!ELEMENT z ANY>`), input.WithSystemID(systemID))
		})
		s, err := ParseInternalSubsetString(ctx, `<!ENTITY % ext PUBLIC "-//Z//EN" "ext.ent"> %ext; ]`, WithResolver(resolver))
		require.NoError(t, err)
		require.Equal(t, []string{"-//Z//EN|ext.ent"}, requested)
		require.Equal(t, "ANY", contentOf(t, s, "z"))
	})
	t.Run("failing resolver", func(t *testing.T) {
		boom := errors.New("boom")
		resolver := input.ResolverFunc(func(context.Context, string, string, string) (*input.Source, error) {
			return nil, boom
		})
		_, err := ParseInternalSubsetString(ctx, `<!ENTITY % ext SYSTEM "ext.ent"> %ext; ]`, WithResolver(resolver))
		require.ErrorIs(t, err, boom)
	})
}

func TestParseExternalSubset(t *testing.T) {
	ctx := context.Background()

	t.Run("include section", func(t *testing.T) {
		s, err := ParseExternalSubsetString(ctx, `<![INCLUDE[ <!ENTITY a "1"> ]]>`, nil)
		require.NoError(t, err)
		_, ok := s.LookupEntity("a")
		require.True(t, ok)
	})
	t.Run("ignore section", func(t *testing.T) {
		const subset = `<![IGNORE[ <!ENTITY a "1"> <![ nested [ ]]> <!ELEMENT bad ((> ]]]>
<!ENTITY b "2">`
		s, err := ParseExternalSubsetString(ctx, subset, nil)
		require.NoError(t, err)
		_, ok := s.LookupEntity("a")
		require.False(t, ok)
		_, ok = s.LookupEntity("b")
		require.True(t, ok)
	})
	t.Run("conditional keyword from parameter entity", func(t *testing.T) {
		const subset = `<!ENTITY % draft "IGNORE"><!ENTITY % final "INCLUDE">
<![%draft;[ <!ELEMENT note ANY> ]]>
<![ %final; [ <!ELEMENT note EMPTY> ]]>`
		s, err := ParseExternalSubsetString(ctx, subset, nil)
		require.NoError(t, err)
		require.Equal(t, "EMPTY", contentOf(t, s, "note"))
	})
	t.Run("nested include", func(t *testing.T) {
		s, err := ParseExternalSubsetString(ctx, `<![INCLUDE[<![INCLUDE[<!ELEMENT a ANY>]]><![IGNORE[<!ELEMENT b ANY>]]>]]>`, nil)
		require.NoError(t, err)
		require.Len(t, s.Elements(), 1)
		require.Equal(t, "ANY", contentOf(t, s, "a"))
	})
	t.Run("parameter entity inside markup", func(t *testing.T) {
		const subset = `<!ENTITY % model "(b, c?)"><!ENTITY % name "a">
<!ELEMENT %name; %model;>`
		s, err := ParseExternalSubsetString(ctx, subset, nil)
		require.NoError(t, err)
		require.Equal(t, "(b,c?)", contentOf(t, s, "a"))
		require.True(t, s.Cachable())
		require.Equal(t, []string{"model", "name"}, s.ReferencedParameterEntities())
	})
	t.Run("parameter entity inside entity value", func(t *testing.T) {
		s, err := ParseExternalSubsetString(ctx, `<!ENTITY % q 'x"'><!ENTITY e "a%q;b">`, nil)
		require.NoError(t, err)
		e, ok := s.LookupEntity("e")
		require.True(t, ok)
		require.Equal(t, `ax"b`, e.Value())
	})
	t.Run("parameter entity directly after a name", func(t *testing.T) {
		const subset = `<!ENTITY % pe " EMPTY"><!ENTITY % ws " ">
<!ELEMENT abcdef%pe;>
<!ELEMENT ghijkl ANY%ws;>`
		s, err := ParseExternalSubsetString(ctx, subset, nil)
		require.NoError(t, err)
		require.Len(t, s.Elements(), 2)
		require.Equal(t, "EMPTY", contentOf(t, s, "abcdef"))
		require.Equal(t, "ANY", contentOf(t, s, "ghijkl"))
	})
	t.Run("entity value closed inside parameter entity", func(t *testing.T) {
		s, err := ParseExternalSubsetString(ctx, `<!ENTITY % q '"abc"'><!ENTITY e %q;>`, nil)
		require.NoError(t, err)
		e, ok := s.LookupEntity("e")
		require.True(t, ok)
		require.Equal(t, "abc", e.Value())
	})
	t.Run("entity value not closed inside parameter entity", func(t *testing.T) {
		_, err := ParseExternalSubsetString(ctx, `<!ENTITY % q '"abc'><!ENTITY e %q;">`, nil)
		var unterminated ErrUnterminatedEntityValue
		require.ErrorAs(t, err, &unterminated)
		require.Equal(t, "e", unterminated.Entity)
		require.Equal(t, 1, unterminated.Location.Line)
	})
	t.Run("recursive parameter entity", func(t *testing.T) {
		_, err := ParseExternalSubsetString(ctx, `<!ENTITY % a "&#37;a;"> %a;`, nil)
		var recursive ErrRecursiveEntity
		require.ErrorAs(t, err, &recursive)
		require.Equal(t, "a", recursive.Name)
	})
	t.Run("undeclared parameter entity", func(t *testing.T) {
		_, err := ParseExternalSubsetString(ctx, ` %nope; `, nil)
		var undeclared ErrUndeclaredEntity
		require.ErrorAs(t, err, &undeclared)
		require.Equal(t, "nope", undeclared.Name)
	})
	t.Run("placeholder warning", func(t *testing.T) {
		var r recorder
		s, err := ParseExternalSubsetString(ctx, `<!ATTLIST y a CDATA "v">`, nil, WithSAXHandler(r.handler()))
		require.NoError(t, err)
		require.Len(t, r.warnings, 1)
		require.Contains(t, r.warnings[0], "'y'")

		e, ok := s.LookupElement(local("y"))
		require.True(t, ok)
		require.True(t, e.IsPlaceholder())
		_, ok = e.Content()
		require.False(t, ok)
	})
	t.Run("empty attribute list", func(t *testing.T) {
		var r recorder
		s, err := ParseExternalSubsetString(ctx, `<!ATTLIST x>`, nil, WithSAXHandler(r.handler()))
		require.NoError(t, err)
		require.Len(t, r.warnings, 1)
		require.Contains(t, r.warnings[0], "'x'")

		e, ok := s.LookupElement(local("x"))
		require.True(t, ok)
		require.True(t, e.IsPlaceholder())
		require.Empty(t, e.Attributes())

		s, err = ParseInternalSubsetString(ctx, `<!ATTLIST x>]`)
		require.NoError(t, err)
		e, ok = s.LookupElement(local("x"))
		require.True(t, ok)
		require.True(t, e.IsPlaceholder())
	})
	t.Run("placeholder declared by internal subset", func(t *testing.T) {
		internal, err := ParseInternalSubsetString(ctx, `<!ELEMENT y EMPTY>]`)
		require.NoError(t, err)

		var r recorder
		_, err = ParseExternalSubsetString(ctx, `<!ATTLIST y a CDATA "v">`, internal, WithSAXHandler(r.handler()))
		require.NoError(t, err)
		require.Empty(t, r.warnings)
	})
}

func TestCachability(t *testing.T) {
	ctx := context.Background()
	const external = `<!ENTITY % local "x"><!ENTITY e "%local;">`

	s, err := ParseExternalSubsetString(ctx, external, nil)
	require.NoError(t, err)
	require.True(t, s.IsExternal())
	require.True(t, s.Cachable())
	require.Equal(t, []string{"local"}, s.ReferencedParameterEntities())
	require.True(t, s.IsReusableWith(nil))

	redefines, err := ParseInternalSubsetString(ctx, `<!ENTITY % local "y">]`)
	require.NoError(t, err)
	require.False(t, s.IsReusableWith(redefines))

	unrelated, err := ParseInternalSubsetString(ctx, `<!ENTITY % other "z">]`)
	require.NoError(t, err)
	require.True(t, s.IsReusableWith(unrelated))

	// the internal definition takes precedence
	s, err = ParseExternalSubsetString(ctx, external, redefines)
	require.NoError(t, err)
	require.False(t, s.Cachable())
	require.False(t, s.IsReusableWith(nil))
	e, ok := s.LookupEntity("e")
	require.True(t, ok)
	require.Equal(t, "y", e.Value())
}

func TestParseContentSpec(t *testing.T) {
	ctx := context.Background()
	testcases := []struct {
		decl     string
		expected string
		err      error
	}{
		{decl: `<!ELEMENT a EMPTY>`, expected: `EMPTY`},
		{decl: `<!ELEMENT a ANY>`, expected: `ANY`},
		{decl: `<!ELEMENT a (#PCDATA)>`, expected: `(#PCDATA)`},
		{decl: `<!ELEMENT a ( #PCDATA )*>`, expected: `(#PCDATA)*`},
		{decl: `<!ELEMENT a (#PCDATA | b | c)*>`, expected: `(#PCDATA|b|c)*`},
		{decl: `<!ELEMENT a ((b|c)+, d?, (e, f)*)>`, expected: `((b|c)+,d?,(e,f)*)`},
		{decl: `<!ELEMENT a (b | c)+>`, expected: `(b|c)+`},
		{decl: `<!ELEMENT a (b|c,d)>`, err: ErrMixedSeparators},
		{decl: `<!ELEMENT a (#PCDATA|b)>`, err: ErrMixedContentNotStarred},
		{decl: `<!ELEMENT a (#PCDATA|b|b)*>`, err: ErrDTDDupToken{Name: "b"}},
		{decl: `<!ELEMENT a (b c)>`, err: ErrElementContentNotFinished},
		{decl: `<!ELEMENT a EMPTIER>`, err: ErrElementContentRequired},
		{decl: `<!ELEMENT a EMPTY`, err: ErrUnexpectedEOF},
		{decl: `<!ELEMENT a EMPTY extra>`, err: ErrGtRequired},
	}

	for _, tc := range testcases {
		t.Run(tc.decl, func(t *testing.T) {
			s, err := ParseExternalSubsetString(ctx, tc.decl, nil)
			if tc.err != nil {
				if pdebug.Enabled {
					pdebug.Printf("%s: %s", tc.decl, err)
				}
				require.ErrorIs(t, err, tc.err)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tc.expected, contentOf(t, s, "a"))
		})
	}
}

func TestParseAttributeList(t *testing.T) {
	ctx := context.Background()

	t.Run("types and defaults", func(t *testing.T) {
		const subset = `<!NOTATION gif SYSTEM "gif"><!NOTATION png SYSTEM "png">
<!ATTLIST a
  c CDATA #IMPLIED
  t (x|y|z) "x"
  n NOTATION (gif|png) #IMPLIED
  f NMTOKENS #FIXED "one two"
  r IDREFS #REQUIRED>
<!ELEMENT a EMPTY>`
		s, err := ParseExternalSubsetString(ctx, subset, nil)
		require.NoError(t, err)

		e, ok := s.LookupElement(local("a"))
		require.True(t, ok)
		attrs := e.Attributes()
		require.Len(t, attrs, 5)

		expected := []struct {
			name string
			typ  schema.AttributeType
			enum []string
			def  schema.AttributeDefault
			text string
		}{
			{"c", schema.AttrCDATA, nil, schema.AttrDefaultImplied, ""},
			{"t", schema.AttrEnumeration, []string{"x", "y", "z"}, schema.AttrDefaultNone, "x"},
			{"n", schema.AttrNotation, []string{"gif", "png"}, schema.AttrDefaultImplied, ""},
			{"f", schema.AttrNMTokens, nil, schema.AttrDefaultFixed, "one two"},
			{"r", schema.AttrIDRefs, nil, schema.AttrDefaultRequired, ""},
		}
		for i, x := range expected {
			a := attrs[i]
			require.Equal(t, local(x.name), a.Name())
			require.Equal(t, local("a"), a.Element())
			require.Equal(t, i, a.Index())
			require.Equal(t, x.typ, a.Type(), x.name)
			require.Equal(t, x.enum, a.Enumeration(), x.name)
			require.Equal(t, x.def, a.DefaultKind(), x.name)

			v, err := s.AttributeDefault(a)
			require.NoError(t, err)
			require.Equal(t, x.text, v, x.name)
		}
	})
	t.Run("deferred entity references", func(t *testing.T) {
		s, err := ParseInternalSubsetString(ctx, `<!ATTLIST a g CDATA "hi &who;&#x9;&amp; &#65;"><!ENTITY who "world">]`)
		require.NoError(t, err)

		e, _ := s.LookupElement(local("a"))
		a, ok := e.LookupAttribute(local("g"))
		require.True(t, ok)

		v := a.DefaultValue()
		require.True(t, v.HasReferences())
		require.Equal(t, "hi \t& A", v.Text())
		require.Equal(t, []schema.EntityRef{{Offset: 3, Name: "who"}}, v.Refs())

		expanded, err := s.AttributeDefault(a)
		require.NoError(t, err)
		require.Equal(t, "hi world\t& A", expanded)
	})
	t.Run("white space in default", func(t *testing.T) {
		s, err := ParseExternalSubsetString(ctx, "<!ATTLIST a g CDATA 'x\ty\nz'>", nil)
		require.NoError(t, err)
		e, _ := s.LookupElement(local("a"))
		a, _ := e.LookupAttribute(local("g"))
		require.Equal(t, "x y z", a.DefaultValue().Text())
	})
	t.Run("first definition wins", func(t *testing.T) {
		var r recorder
		s, err := ParseExternalSubsetString(ctx, `<!ELEMENT a EMPTY><!ATTLIST a b CDATA #IMPLIED b ID #REQUIRED><!ATTLIST a c CDATA #IMPLIED>`, nil, WithSAXHandler(r.handler()))
		require.NoError(t, err)
		require.Len(t, r.warnings, 1)

		e, _ := s.LookupElement(local("a"))
		attrs := e.Attributes()
		require.Len(t, attrs, 2)
		require.Equal(t, schema.AttrCDATA, attrs[0].Type())
		require.Equal(t, local("c"), attrs[1].Name())
		require.Equal(t, 1, attrs[1].Index())
	})

	errcases := []struct {
		name string
		decl string
		err  error
	}{
		{"duplicate enumeration", `<!ATTLIST a t (x|x) #IMPLIED>`, ErrDTDDupToken{Name: "x"}},
		{"unknown type", `<!ATTLIST a t STRING #IMPLIED>`, ErrAttributeTypeRequired},
		{"unknown default", `<!ATTLIST a t CDATA #OPTIONAL>`, ErrAttributeDefaultRequired},
		{"missing default", `<!ATTLIST a t CDATA >`, ErrAttributeDefaultRequired},
		{"unfinished enumeration", `<!ATTLIST a t (x y) #IMPLIED>`, ErrAttListNotFinished},
		{"notation without group", `<!ATTLIST a t NOTATION gif #IMPLIED>`, ErrOpenParenRequired},
		{"less than in default", `<!ATTLIST a t CDATA "<">`, ErrLtInAttributeValue},
		{"missing space", `<!ATTLIST a t CDATA #IMPLIED"x">`, ErrSpaceRequired},
		{"bad char ref", `<!ATTLIST a t CDATA "&#0;">`, ErrInvalidCharRef},
	}
	for _, tc := range errcases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ParseExternalSubsetString(ctx, tc.decl, nil)
			require.ErrorIs(t, err, tc.err)
		})
	}
}

func TestParseEntityDecl(t *testing.T) {
	ctx := context.Background()
	const subset = `<!NOTATION gif PUBLIC "-//X//GIF">
<!ENTITY logo SYSTEM "logo.gif" NDATA gif>
<!ENTITY ext PUBLIC "-//X//EXT   Doc" 'ext.xml'>
<!ENTITY % pe SYSTEM "pe.ent">
<!ENTITY int "a &amp; &#x41;&#66; &ref;">`
	s, err := ParseExternalSubsetString(ctx, subset, nil)
	require.NoError(t, err)

	logo, ok := s.LookupEntity("logo")
	require.True(t, ok)
	require.True(t, logo.IsUnparsed())
	require.Equal(t, "gif", logo.Notation())
	require.Equal(t, "logo.gif", logo.SystemID())

	ext, ok := s.LookupEntity("ext")
	require.True(t, ok)
	require.True(t, ext.IsExternal())
	require.False(t, ext.IsUnparsed())
	require.Equal(t, "-//X//EXT Doc", ext.PublicID())
	require.Equal(t, "ext.xml", ext.SystemID())

	in, ok := s.LookupEntity("int")
	require.True(t, ok)
	require.True(t, in.IsInternal())
	require.Equal(t, "a &amp; AB &ref;", in.Value())
	require.Equal(t, 5, in.Location().Line)

	n, ok := s.LookupNotation("gif")
	require.True(t, ok)
	require.Equal(t, "-//X//GIF", n.PublicID())
	require.Empty(t, n.SystemID())

	errcases := []struct {
		name string
		decl string
		err  error
	}{
		{"ndata on parameter entity", `<!ENTITY % p SYSTEM "x" NDATA gif>`, ErrNDataNotAllowed},
		{"missing external id", `<!ENTITY e >`, ErrExternalIDRequired},
		{"public without system", `<!ENTITY e PUBLIC "x">`, ErrSpaceRequired},
		{"bad pubid char", `<!ENTITY e PUBLIC "{x}" "y">`, ErrPubidCharInvalid},
		{"bad percent", `<!ENTITY e "100%">`, ErrEntityValueBadPercent},
		{"bad char ref", `<!ENTITY e "&#xD800;">`, ErrInvalidCharRef},
		{"missing semicolon", `<!ENTITY e "&amp">`, ErrSemicolonRequired},
		{"missing space", `<!ENTITY e"x">`, ErrSpaceRequired},
		{"unterminated value", `<!ENTITY e "abc`, ErrUnterminatedEntityValue{Entity: "e"}},
	}
	for _, tc := range errcases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ParseExternalSubsetString(ctx, tc.decl, nil)
			require.Error(t, err)
			if _, ok := tc.err.(ErrUnterminatedEntityValue); ok {
				var target ErrUnterminatedEntityValue
				require.ErrorAs(t, err, &target)
				return
			}
			require.ErrorIs(t, err, tc.err)
		})
	}
}

func TestNamespaces(t *testing.T) {
	ctx := context.Background()

	s, err := ParseInternalSubsetString(ctx, `<!ELEMENT x:root (x:child)*><!ATTLIST x:root xmlns:x CDATA #FIXED "urn:x">]`, WithNamespaces(true))
	require.NoError(t, err)

	e, ok := s.LookupElement(schema.NameKey{Prefix: "x", Local: "root"})
	require.True(t, ok)
	c, _ := e.Content()
	require.Equal(t, schema.NameKey{Prefix: "x", Local: "child"}, c.Children[0].Name)
	_, ok = e.LookupAttribute(schema.NameKey{Prefix: "xmlns", Local: "x"})
	require.True(t, ok)

	// without namespaces the colon is part of the local name
	s, err = ParseInternalSubsetString(ctx, `<!ELEMENT x:root EMPTY>]`)
	require.NoError(t, err)
	_, ok = s.LookupElement(local("x:root"))
	require.True(t, ok)

	for _, name := range []string{":bad", "bad:", "a:b:c"} {
		_, err := ParseInternalSubsetString(ctx, `<!ELEMENT `+name+` EMPTY>]`, WithNamespaces(true))
		require.ErrorIs(t, err, ErrInvalidName, name)
	}
}

func TestSAXEvents(t *testing.T) {
	ctx := context.Background()
	const subset = `<!NOTATION gif PUBLIC "-//X//GIF">
<!ENTITY logo SYSTEM "logo.gif" NDATA gif>
<!ENTITY ext PUBLIC "-//X//EXT" "ext.xml">
<!ENTITY int "v">
<!-- note -->
<?target  some data?>
<!ELEMENT a EMPTY>
<!ATTLIST a b CDATA #IMPLIED>
<!ENTITY int "dup">`

	var r recorder
	_, err := ParseExternalSubsetString(ctx, subset, nil, WithSAXHandler(r.handler()))
	require.NoError(t, err)
	require.Equal(t, []string{
		"notation gif",
		"unparsed logo gif",
		"external ext",
		"internal int",
		"comment  note ",
		"pi target some data",
		"element a",
		"attribute a b",
	}, r.events)
	require.Len(t, r.warnings, 1)
	require.Contains(t, r.warnings[0], "entity 'int' redefined")

	t.Run("handler errors abort the parse", func(t *testing.T) {
		stop := errors.New("stop")
		h := sax.New()
		h.ElementDeclHandler = func(sax.Context, *schema.ElementDecl) error {
			return stop
		}
		_, err := ParseExternalSubsetString(ctx, subset, nil, WithSAXHandler(h))
		require.ErrorIs(t, err, stop)
	})
	t.Run("user data", func(t *testing.T) {
		var got []sax.Context
		h := sax.New()
		h.NotationDeclHandler = func(ctx sax.Context, _ *schema.NotationDecl) error {
			got = append(got, ctx)
			return nil
		}
		_, err := ParseExternalSubsetString(ctx, subset, nil, WithSAXHandler(h), WithUserData("mine"))
		require.NoError(t, err)
		require.Equal(t, []sax.Context{"mine"}, got)
	})
}

func TestSyntaxErrors(t *testing.T) {
	ctx := context.Background()
	internal := []struct {
		name    string
		subset  string
		err     error
		errType any
	}{
		{name: "unfinished internal subset", subset: `<!ELEMENT a EMPTY>`, err: ErrInternalSubsetNotFinished},
		{name: "unknown declaration", subset: `<!FOO bar>]`, errType: &ErrUnknownDirective{}},
		{name: "stray character", subset: `x]`, errType: &ErrUnexpectedChar{}},
		{name: "bad external id keyword", subset: `<!NOTATION n PRIVATE "x">]`, errType: &ErrKeywordMismatch{}},
	}
	external := []struct {
		name    string
		subset  string
		err     error
		errType any
	}{
		{name: "unfinished comment", subset: `<!-- abc`, err: ErrCommentNotFinished},
		{name: "double hyphen", subset: `<!-- a -- b -->`, err: ErrHyphenInComment},
		{name: "unfinished pi", subset: `<?pi abc`, err: ErrPINotFinished},
		{name: "unfinished include", subset: `<![INCLUDE[ <!ELEMENT a EMPTY>`, err: ErrConditionalNotFinished},
		{name: "unfinished ignore", subset: `<![IGNORE[ abc <![ ]]>`, err: ErrUnterminatedIgnoreSection},
		{name: "bad conditional keyword", subset: `<![MAYBE[ ]]>`, errType: &ErrKeywordMismatch{}},
		{name: "close bracket", subset: `]`, err: ErrUnexpectedEndOfSubset},
		{name: "missing name", subset: `<!ELEMENT (a) EMPTY>`, err: ErrNameRequired},
		{name: "ndata typo", subset: `<!ENTITY e SYSTEM "x" NDATUM n>`, errType: &ErrKeywordMismatch{}},
	}

	check := func(t *testing.T, err, expected error, errType any) {
		t.Helper()
		require.Error(t, err)
		var perr ErrParseError
		require.ErrorAs(t, err, &perr)
		require.NotZero(t, perr.LineNumber)
		if expected != nil {
			require.ErrorIs(t, err, expected)
			return
		}
		require.ErrorAs(t, err, errType)
	}

	for _, tc := range internal {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ParseInternalSubsetString(ctx, tc.subset)
			check(t, err, tc.err, tc.errType)
		})
	}
	for _, tc := range external {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ParseExternalSubsetString(ctx, tc.subset, nil)
			check(t, err, tc.err, tc.errType)
		})
	}
}

func TestErrorLocation(t *testing.T) {
	ctx := context.Background()
	_, err := ParseExternalSubsetString(ctx, "<!ELEMENT a EMPTY>\n<!ELEMENT b EMPTY x>", nil)

	var perr ErrParseError
	require.ErrorAs(t, err, &perr)
	require.Equal(t, 2, perr.LineNumber)
	require.ErrorIs(t, err, ErrGtRequired)
	require.Contains(t, err.Error(), "line 2")
}

func TestFlatten(t *testing.T) {
	ctx := context.Background()
	const subset = `<!-- c -->
<!ENTITY % p "<!ELEMENT a EMPTY>">
%p;
<![INCLUDE[<!ELEMENT b ANY>]]>
<![IGNORE[ junk ]]>
<?pi data?>
`

	t.Run("everything", func(t *testing.T) {
		var buf bytes.Buffer
		opts := FlattenOptions{
			IncludeComments:           true,
			IncludeConditionalMarkers: true,
			IncludePEDecls:            true,
		}
		_, err := ParseExternalSubsetString(ctx, subset, nil, WithFlattener(&buf, opts))
		require.NoError(t, err)
		require.Equal(t, subset, buf.String())
	})
	t.Run("nothing", func(t *testing.T) {
		var buf bytes.Buffer
		_, err := ParseExternalSubsetString(ctx, subset, nil, WithFlattener(&buf, FlattenOptions{}))
		require.NoError(t, err)
		require.Equal(t, "\n\n<!ELEMENT a EMPTY>\n<!ELEMENT b ANY>\n\n<?pi data?>\n", buf.String())

		// the flattened text parses to the same declarations
		flat, err := ParseExternalSubsetString(ctx, buf.String(), nil)
		require.NoError(t, err)
		orig, err := ParseExternalSubsetString(ctx, subset, nil)
		require.NoError(t, err)
		require.Equal(t, summarize(orig), summarize(flat))
	})
	t.Run("internal subset", func(t *testing.T) {
		var buf bytes.Buffer
		_, err := ParseInternalSubsetString(ctx, `<!ENTITY % e "<!ELEMENT x EMPTY>"> %e; <!-- x --> ]`, WithFlattener(&buf, FlattenOptions{IncludeComments: true}))
		require.NoError(t, err)
		require.Equal(t, " <!ELEMENT x EMPTY> <!-- x --> ", buf.String())
	})
}

func TestIdempotence(t *testing.T) {
	ctx := context.Background()
	const subset = `<!ENTITY % model "(b|c)*">
<!ELEMENT a %model;>
<!ATTLIST a x (one|two) "one" y CDATA "&z;">
<!ENTITY z "zed">
<!NOTATION n SYSTEM "n">`

	first, err := ParseExternalSubsetString(ctx, subset, nil)
	require.NoError(t, err)
	second, err := ParseExternalSubsetString(ctx, subset, nil)
	require.NoError(t, err)
	require.NotSame(t, first, second)
	require.Equal(t, summarize(first), summarize(second))

	// a parser is reusable once a parse has finished
	p := NewParser()
	for range 2 {
		s, err := p.ParseExternalSubset(ctx, input.NewStringSource(subset), nil)
		require.NoError(t, err)
		require.Equal(t, summarize(first), summarize(s))
	}
}

func TestParserBusy(t *testing.T) {
	p := NewParser()
	p.busy.Store(true)
	_, err := p.ParseInternalSubset(context.Background(), input.NewStringSource(`]`))
	require.ErrorIs(t, err, ErrParserBusy)

	p.busy.Store(false)
	_, err = p.ParseInternalSubset(context.Background(), input.NewStringSource(`]`))
	require.NoError(t, err)
}

func TestLoadExternalSubset(t *testing.T) {
	ctx := context.Background()
	const external = `<!ENTITY % x "y"><!ENTITY e "%x;">`

	var calls int
	resolver := input.ResolverFunc(func(_ context.Context, publicID, systemID, _ string) (*input.Source, error) {
		calls++
		return input.NewExternalSource(strings.NewReader(external), input.WithPublicID(publicID), input.WithSystemID(systemID))
	})
	c := cache.New()
	p := NewParser(WithResolver(resolver), WithCache(c))

	s1, err := p.LoadExternalSubset(ctx, "-//T//DTD", "t.dtd", "", nil)
	require.NoError(t, err)
	s2, err := p.LoadExternalSubset(ctx, "-//T//DTD", "t.dtd", "", nil)
	require.NoError(t, err)
	require.Same(t, s1, s2)
	require.Equal(t, 1, calls)
	require.Equal(t, 1, c.Len())

	internal, err := ParseInternalSubsetString(ctx, `<!ENTITY % x "z">]`)
	require.NoError(t, err)
	s3, err := p.LoadExternalSubset(ctx, "-//T//DTD", "t.dtd", "", internal)
	require.NoError(t, err)
	require.Equal(t, 2, calls)
	require.False(t, s3.Cachable())
	e, _ := s3.LookupEntity("e")
	require.Equal(t, "z", e.Value())

	// the cached entry is untouched
	s4, err := p.LoadExternalSubset(ctx, "-//T//DTD", "t.dtd", "", nil)
	require.NoError(t, err)
	require.Same(t, s1, s4)
	require.Equal(t, 2, calls)

	merged, err := schema.Combine(internal, s3)
	require.NoError(t, err)
	e, _ = merged.LookupEntity("e")
	require.Equal(t, "z", e.Value())
}

func TestLoadExternalSubsetRelative(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	for _, sub := range []string{"a", "b"} {
		require.NoError(t, os.Mkdir(filepath.Join(dir, sub), 0o755))
		decl := fmt.Sprintf("<!ELEMENT only-%s EMPTY>", sub)
		require.NoError(t, os.WriteFile(filepath.Join(dir, sub, "common.dtd"), []byte(decl), 0o600))
	}

	c := cache.New()
	p := NewParser(WithCache(c))

	sa, err := p.LoadExternalSubset(ctx, "", "common.dtd", filepath.Join(dir, "a", "doc.xml"), nil)
	require.NoError(t, err)
	sb, err := p.LoadExternalSubset(ctx, "", "common.dtd", filepath.Join(dir, "b", "doc.xml"), nil)
	require.NoError(t, err)
	require.NotSame(t, sa, sb)
	require.Equal(t, 2, c.Len())

	_, ok := sa.LookupElement(local("only-a"))
	require.True(t, ok)
	_, ok = sb.LookupElement(local("only-b"))
	require.True(t, ok)
	_, ok = sb.LookupElement(local("only-a"))
	require.False(t, ok)

	again, err := p.LoadExternalSubset(ctx, "", "common.dtd", filepath.Join(dir, "a", "other.xml"), nil)
	require.NoError(t, err)
	require.Same(t, sa, again)
}
