// Package s11n writes parsed DTD subsets back out as declarations
package s11n

import (
	"bytes"
	"io"
	"strings"

	"github.com/lestrrat-go/dtd/schema"
)

type Dumper struct{}

// DumpSubset writes the declarations of s: parameter entities, general
// entities, notations, then each element followed by its attribute
// list. Re-parsing the output yields an equivalent subset.
func (d *Dumper) DumpSubset(out io.Writer, s *schema.Subset) error {
	for _, e := range s.ParameterEntities() {
		if err := d.DumpEntityDecl(out, e); err != nil {
			return err
		}
	}
	for _, e := range s.Entities() {
		if err := d.DumpEntityDecl(out, e); err != nil {
			return err
		}
	}
	for _, n := range s.Notations() {
		if err := d.DumpNotationDecl(out, n); err != nil {
			return err
		}
	}
	for _, e := range s.Elements() {
		if !e.IsPlaceholder() {
			if err := d.DumpElementDecl(out, e); err != nil {
				return err
			}
		}
		if err := d.DumpAttributeList(out, e); err != nil {
			return err
		}
	}
	return nil
}

func (d *Dumper) DumpEntityDecl(out io.Writer, e *schema.EntityDecl) error {
	if e == nil {
		return nil
	}

	_, _ = io.WriteString(out, "<!ENTITY ")
	if e.IsParameter() {
		_, _ = io.WriteString(out, "% ")
	}
	_, _ = io.WriteString(out, e.Name())
	_, _ = io.WriteString(out, " ")

	if e.IsInternal() {
		if err := dumpEntityContent(out, e.Value()); err != nil {
			return err
		}
	} else {
		if err := dumpExternalID(out, e.PublicID(), e.SystemID()); err != nil {
			return err
		}
		if n := e.Notation(); n != "" {
			_, _ = io.WriteString(out, " NDATA ")
			_, _ = io.WriteString(out, n)
		}
	}
	_, err := io.WriteString(out, ">\n")
	return err
}

func (d *Dumper) DumpNotationDecl(out io.Writer, n *schema.NotationDecl) error {
	_, _ = io.WriteString(out, "<!NOTATION ")
	_, _ = io.WriteString(out, n.Name())
	_, _ = io.WriteString(out, " ")
	if err := dumpExternalID(out, n.PublicID(), n.SystemID()); err != nil {
		return err
	}
	_, err := io.WriteString(out, ">\n")
	return err
}

func (d *Dumper) DumpElementDecl(out io.Writer, e *schema.ElementDecl) error {
	c, ok := e.Content()
	if !ok {
		return nil
	}
	_, _ = io.WriteString(out, "<!ELEMENT ")
	_, _ = io.WriteString(out, e.Name().String())
	_, _ = io.WriteString(out, " ")
	_, _ = io.WriteString(out, c.String())
	_, err := io.WriteString(out, ">\n")
	return err
}

// DumpAttributeList writes one ATTLIST declaration holding every
// attribute of e, or nothing when e has no attributes
func (d *Dumper) DumpAttributeList(out io.Writer, e *schema.ElementDecl) error {
	attrs := e.Attributes()
	if len(attrs) == 0 {
		return nil
	}

	_, _ = io.WriteString(out, "<!ATTLIST ")
	_, _ = io.WriteString(out, e.Name().String())
	for _, a := range attrs {
		_, _ = io.WriteString(out, "\n  ")
		if err := d.dumpAttributeDecl(out, a); err != nil {
			return err
		}
	}
	_, err := io.WriteString(out, ">\n")
	return err
}

func (d *Dumper) dumpAttributeDecl(out io.Writer, a *schema.AttributeDecl) error {
	_, _ = io.WriteString(out, a.Name().String())
	_, _ = io.WriteString(out, " ")

	switch a.Type() {
	case schema.AttrEnumeration:
		dumpEnumeration(out, a.Enumeration())
	case schema.AttrNotation:
		_, _ = io.WriteString(out, "NOTATION ")
		dumpEnumeration(out, a.Enumeration())
	default:
		_, _ = io.WriteString(out, a.Type().String())
	}

	switch a.DefaultKind() {
	case schema.AttrDefaultRequired, schema.AttrDefaultImplied:
		_, _ = io.WriteString(out, " ")
		_, _ = io.WriteString(out, a.DefaultKind().String())
		return nil
	case schema.AttrDefaultFixed:
		_, _ = io.WriteString(out, " #FIXED")
	}

	_, _ = io.WriteString(out, ` "`)
	if v := a.DefaultValue(); v != nil {
		_, _ = io.WriteString(out, v.Literal())
	}
	_, err := io.WriteString(out, `"`)
	return err
}

func dumpEnumeration(out io.Writer, values []string) {
	_, _ = io.WriteString(out, "(")
	_, _ = io.WriteString(out, strings.Join(values, "|"))
	_, _ = io.WriteString(out, ")")
}

// dumpEntityContent quotes an entity value. '%' would start a parameter
// entity reference when the value is read back, so it is written as a
// character reference.
func dumpEntityContent(out io.Writer, content string) error {
	if strings.IndexByte(content, '%') == -1 {
		return DumpQuotedString(out, content)
	}

	_, _ = io.WriteString(out, `"`)
	rdr := strings.NewReader(content)
	buf := bytes.Buffer{}
	for rdr.Len() > 0 {
		c, err := rdr.ReadByte()
		if err != nil {
			return err
		}
		switch c {
		case '"':
			if _, err := buf.WriteTo(out); err != nil {
				return err
			}
			_, _ = io.WriteString(out, "&#x22;")
		case '%':
			if _, err := buf.WriteTo(out); err != nil {
				return err
			}
			_, _ = io.WriteString(out, "&#x25;")
		default:
			_ = buf.WriteByte(c)
		}
	}
	if _, err := buf.WriteTo(out); err != nil {
		return err
	}
	_, err := io.WriteString(out, `"`)
	return err
}
