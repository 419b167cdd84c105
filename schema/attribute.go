package schema

import (
	"strconv"
	"strings"
	"unicode/utf8"
)

// AttributeType represents the declared type of an attribute
type AttributeType int

const (
	AttrInvalid AttributeType = iota
	AttrCDATA
	AttrID
	AttrIDRef
	AttrIDRefs
	AttrEntity
	AttrEntities
	AttrNMToken
	AttrNMTokens
	AttrEnumeration
	AttrNotation
)

var attributeTypeNames = map[AttributeType]string{
	AttrCDATA:       "CDATA",
	AttrID:          "ID",
	AttrIDRef:       "IDREF",
	AttrIDRefs:      "IDREFS",
	AttrEntity:      "ENTITY",
	AttrEntities:    "ENTITIES",
	AttrNMToken:     "NMTOKEN",
	AttrNMTokens:    "NMTOKENS",
	AttrEnumeration: "ENUMERATION",
	AttrNotation:    "NOTATION",
}

func (t AttributeType) String() string {
	if s, ok := attributeTypeNames[t]; ok {
		return s
	}
	return "INVALID"
}

// AttributeTypeByName maps the keywords usable in an ATTLIST declaration
// to their type. Enumerations have no keyword
func AttributeTypeByName(s string) (AttributeType, bool) {
	for t, name := range attributeTypeNames {
		if t != AttrEnumeration && name == s {
			return t, true
		}
	}
	return AttrInvalid, false
}

// AttributeDefault represents the default declaration of an attribute.
// AttrDefaultNone is a plain default literal
type AttributeDefault int

const (
	AttrDefaultNone AttributeDefault = iota
	AttrDefaultRequired
	AttrDefaultImplied
	AttrDefaultFixed
)

func (d AttributeDefault) String() string {
	switch d {
	case AttrDefaultRequired:
		return "#REQUIRED"
	case AttrDefaultImplied:
		return "#IMPLIED"
	case AttrDefaultFixed:
		return "#FIXED"
	}
	return ""
}

// Segment is a piece of a default value: either literal text, or a
// reference to a general entity whose expansion is deferred
type Segment struct {
	Text   string
	Entity string
}

// EntityRef is a deferred general entity reference positioned at a byte
// offset of DefaultValue.Text
type EntityRef struct {
	Offset int
	Name   string
}

// DefaultValue is an attribute default literal. Character references
// and the predefined entities are already resolved; references to other
// general entities are kept as separate segments until expanded.
type DefaultValue struct {
	segments []Segment
}

func NewDefaultValue(segments ...Segment) *DefaultValue {
	return &DefaultValue{segments: segments}
}

func (v *DefaultValue) Segments() []Segment {
	return v.segments
}

func (v *DefaultValue) HasReferences() bool {
	for _, s := range v.segments {
		if s.Entity != "" {
			return true
		}
	}
	return false
}

// Text returns the literal text with the deferred references left out
func (v *DefaultValue) Text() string {
	var sb strings.Builder
	for _, s := range v.segments {
		sb.WriteString(s.Text)
	}
	return sb.String()
}

// Refs returns the deferred references positioned within Text
func (v *DefaultValue) Refs() []EntityRef {
	var refs []EntityRef
	var off int
	for _, s := range v.segments {
		if s.Entity != "" {
			refs = append(refs, EntityRef{Offset: off, Name: s.Entity})
			continue
		}
		off += len(s.Text)
	}
	return refs
}

// Literal renders the value as it could appear in a declaration
func (v *DefaultValue) Literal() string {
	var sb strings.Builder
	for _, s := range v.segments {
		if s.Entity != "" {
			sb.WriteByte('&')
			sb.WriteString(s.Entity)
			sb.WriteByte(';')
			continue
		}
		for _, r := range s.Text {
			switch r {
			case '&':
				sb.WriteString("&amp;")
			case '<':
				sb.WriteString("&lt;")
			case '"':
				sb.WriteString("&quot;")
			case '\t':
				sb.WriteString("&#9;")
			case '\n':
				sb.WriteString("&#10;")
			case '\r':
				sb.WriteString("&#13;")
			default:
				sb.WriteRune(r)
			}
		}
	}
	return sb.String()
}

// EntityLookup finds general entities by name
type EntityLookup func(name string) (*EntityDecl, bool)

// Expand resolves the deferred references using lookup
func (v *DefaultValue) Expand(lookup EntityLookup) (string, error) {
	if !v.HasReferences() {
		return v.Text(), nil
	}

	var sb strings.Builder
	for _, s := range v.segments {
		if s.Entity == "" {
			sb.WriteString(s.Text)
			continue
		}
		if err := expandEntityRef(&sb, s.Entity, lookup, nil); err != nil {
			return "", err
		}
	}
	return sb.String(), nil
}

func expandEntityRef(sb *strings.Builder, name string, lookup EntityLookup, active []string) error {
	if e, ok := PredefinedEntity(name); ok {
		sb.WriteString(e.Value())
		return nil
	}
	for _, n := range active {
		if n == name {
			return ErrRecursiveEntityRef{Name: name}
		}
	}

	e, ok := lookup(name)
	if !ok {
		return ErrUndeclaredEntityRef{Name: name}
	}
	if e.IsExternal() {
		return ErrExternalEntityRef{Name: name}
	}
	return expandText(sb, e.Value(), lookup, append(active, name))
}

// expandText copies replacement text into sb, resolving character and
// entity references and normalizing white space as attribute values do
func expandText(sb *strings.Builder, s string, lookup EntityLookup, active []string) error {
	for i := 0; i < len(s); {
		c := s[i]
		switch c {
		case '\t', '\n', '\r':
			sb.WriteByte(' ')
			i++
			continue
		case '&':
		default:
			sb.WriteByte(c)
			i++
			continue
		}

		end := strings.IndexByte(s[i:], ';')
		if end < 0 {
			sb.WriteString(s[i:])
			return nil
		}
		ref := s[i+1 : i+end]
		i += end + 1
		if strings.HasPrefix(ref, "#") {
			r, ok := parseCharRef(ref[1:])
			if !ok {
				return ErrInvalidCharRef{Ref: ref}
			}
			sb.WriteRune(r)
			continue
		}
		if err := expandEntityRef(sb, ref, lookup, active); err != nil {
			return err
		}
	}
	return nil
}

func parseCharRef(s string) (rune, bool) {
	base := 10
	if strings.HasPrefix(s, "x") {
		base = 16
		s = s[1:]
	}
	v, err := strconv.ParseUint(s, base, 32)
	if err != nil || !utf8.ValidRune(rune(v)) {
		return 0, false
	}
	return rune(v), true
}

// AttributeDecl is a single attribute definition of an ATTLIST
// declaration
type AttributeDecl struct {
	name  NameKey
	elem  NameKey
	index int
	typ   AttributeType
	enum  []string
	def   AttributeDefault
	value *DefaultValue
	loc   Location
}

// NewAttributeDecl creates an attribute definition. The index within its
// element is assigned when the attribute is added to a Builder.
func NewAttributeDecl(name NameKey, typ AttributeType, enum []string, def AttributeDefault, value *DefaultValue, loc Location) *AttributeDecl {
	return &AttributeDecl{
		name:  name,
		typ:   typ,
		enum:  enum,
		def:   def,
		value: value,
		loc:   loc,
	}
}

func (a *AttributeDecl) Name() NameKey                 { return a.name }
func (a *AttributeDecl) Element() NameKey              { return a.elem }
func (a *AttributeDecl) Index() int                    { return a.index }
func (a *AttributeDecl) Type() AttributeType           { return a.typ }
func (a *AttributeDecl) Enumeration() []string         { return a.enum }
func (a *AttributeDecl) DefaultKind() AttributeDefault { return a.def }
func (a *AttributeDecl) Location() Location            { return a.loc }

// DefaultValue returns the default literal, or nil for #REQUIRED and
// #IMPLIED attributes
func (a *AttributeDecl) DefaultValue() *DefaultValue { return a.value }

func (a *AttributeDecl) withIndex(elem NameKey, index int) *AttributeDecl {
	c := *a
	c.elem = elem
	c.index = index
	return &c
}
