package schema

import "github.com/lestrrat-go/dtd/internal/orderedmap"

type elementState int

const (
	// the element has only been seen in ATTLIST declarations
	elementPlaceholder elementState = iota
	elementDeclared
)

// ElementDecl is an element type declaration together with the
// attributes declared for it. An element whose attributes were declared
// before (or without) its ELEMENT declaration is a placeholder: it has
// no content spec and carries the location of the first ATTLIST.
type ElementDecl struct {
	name    NameKey
	state   elementState
	loc     Location
	content ContentSpec
	attrs   *orderedmap.Map[NameKey, *AttributeDecl]
}

func newPlaceholderElement(name NameKey, loc Location) *ElementDecl {
	return &ElementDecl{
		name:  name,
		state: elementPlaceholder,
		loc:   loc,
		attrs: orderedmap.New[NameKey, *AttributeDecl](),
	}
}

func newDeclaredElement(name NameKey, content ContentSpec, loc Location) *ElementDecl {
	return &ElementDecl{
		name:    name,
		state:   elementDeclared,
		loc:     loc,
		content: content,
		attrs:   orderedmap.New[NameKey, *AttributeDecl](),
	}
}

func (e *ElementDecl) Name() NameKey      { return e.name }
func (e *ElementDecl) Location() Location { return e.loc }

func (e *ElementDecl) IsPlaceholder() bool {
	return e.state == elementPlaceholder
}

// Content returns the content spec. The second return value is false for
// placeholders
func (e *ElementDecl) Content() (ContentSpec, bool) {
	if e.state != elementDeclared {
		return ContentSpec{}, false
	}
	return e.content, true
}

func (e *ElementDecl) IsMixed() bool {
	return e.state == elementDeclared && (e.content.Kind == ContentMixed || e.content.Kind == ContentAny)
}

// Attributes returns the attribute definitions in declaration order
func (e *ElementDecl) Attributes() []*AttributeDecl {
	return e.attrs.Values()
}

func (e *ElementDecl) LookupAttribute(name NameKey) (*AttributeDecl, bool) {
	return e.attrs.Get(name)
}

func (e *ElementDecl) complete(content ContentSpec, loc Location) {
	e.state = elementDeclared
	e.content = content
	e.loc = loc
}

func (e *ElementDecl) addAttribute(a *AttributeDecl) (*AttributeDecl, bool) {
	if prev, ok := e.attrs.Get(a.name); ok {
		return prev, false
	}
	a = a.withIndex(e.name, e.attrs.Len())
	_ = e.attrs.Set(a.name, a)
	return a, true
}
