package schema

import "github.com/lestrrat-go/dtd/internal/orderedmap"

// Builder accumulates the declarations of one subset while it is being
// parsed. Freeze hands the result over to an immutable Subset; the
// builder must not be used afterwards.
type Builder struct {
	external       bool
	entities       *orderedmap.Map[string, *EntityDecl]
	pentities      *orderedmap.Map[string, *EntityDecl]
	notations      *orderedmap.Map[string, *NotationDecl]
	elements       *orderedmap.Map[NameKey, *ElementDecl]
	refPEs         map[string]struct{}
	usedPredefined bool
	frozen         bool
}

func NewBuilder(external bool) *Builder {
	return &Builder{
		external:  external,
		entities:  orderedmap.New[string, *EntityDecl](),
		pentities: orderedmap.New[string, *EntityDecl](),
		notations: orderedmap.New[string, *NotationDecl](),
		elements:  orderedmap.New[NameKey, *ElementDecl](),
		refPEs:    make(map[string]struct{}),
	}
}

func (b *Builder) IsExternal() bool {
	return b.external
}

func (b *Builder) mustNotBeFrozen() {
	if b.frozen {
		panic("schema: Builder used after Freeze")
	}
}

// AddEntity registers an entity declaration. The first declaration of a
// name wins: for a duplicate the previous declaration is returned along
// with false
func (b *Builder) AddEntity(e *EntityDecl) (*EntityDecl, bool) {
	b.mustNotBeFrozen()
	table := b.entities
	if e.param {
		table = b.pentities
	}
	if prev, ok := table.Get(e.name); ok {
		return prev, false
	}
	_ = table.Set(e.name, e)
	return e, true
}

func (b *Builder) LookupEntity(name string) (*EntityDecl, bool) {
	return b.entities.Get(name)
}

func (b *Builder) LookupParameterEntity(name string) (*EntityDecl, bool) {
	return b.pentities.Get(name)
}

// AddNotation registers a notation. Notations can never be redeclared
func (b *Builder) AddNotation(n *NotationDecl) error {
	b.mustNotBeFrozen()
	if prev, ok := b.notations.Get(n.name); ok {
		return ErrNotationRedefined{Name: n.name, Previous: prev.loc, Location: n.loc}
	}
	_ = b.notations.Set(n.name, n)
	return nil
}

func (b *Builder) LookupNotation(name string) (*NotationDecl, bool) {
	return b.notations.Get(name)
}

// DeclareElement records the content spec of an element, completing a
// placeholder created by an earlier ATTLIST
func (b *Builder) DeclareElement(name NameKey, content ContentSpec, loc Location) (*ElementDecl, error) {
	b.mustNotBeFrozen()
	if e, ok := b.elements.Get(name); ok {
		if !e.IsPlaceholder() {
			return nil, ErrElementRedefined{Name: name, Previous: e.loc, Location: loc}
		}
		e.complete(content, loc)
		return e, nil
	}

	e := newDeclaredElement(name, content, loc)
	_ = b.elements.Set(name, e)
	return e, nil
}

// EnsureElement returns the element named name, creating a placeholder
// located at loc if it is not known yet
func (b *Builder) EnsureElement(name NameKey, loc Location) *ElementDecl {
	b.mustNotBeFrozen()
	e, ok := b.elements.Get(name)
	if !ok {
		e = newPlaceholderElement(name, loc)
		_ = b.elements.Set(name, e)
	}
	return e
}

// AddAttribute adds an attribute definition to elem, creating a
// placeholder element located at loc if elem is not known yet. The
// first definition of an attribute wins: for a duplicate the previous
// definition is returned along with false
func (b *Builder) AddAttribute(elem NameKey, loc Location, a *AttributeDecl) (*AttributeDecl, bool) {
	return b.EnsureElement(elem, loc).addAttribute(a)
}

func (b *Builder) LookupElement(name NameKey) (*ElementDecl, bool) {
	return b.elements.Get(name)
}

// Placeholders returns the elements named by an attribute list
// declaration but not declared themselves
func (b *Builder) Placeholders() []*ElementDecl {
	var ret []*ElementDecl
	for _, e := range b.elements.Range() {
		if e.IsPlaceholder() {
			ret = append(ret, e)
		}
	}
	return ret
}

// ReferenceParameterEntity records that the external subset being built
// expanded the named parameter entity. Once a parameter entity supplied
// by the internal subset (predefined) has been used, the subset can no
// longer be cached and individual references are not tracked anymore.
func (b *Builder) ReferenceParameterEntity(name string, predefined bool) {
	if b.usedPredefined {
		return
	}
	if predefined {
		b.usedPredefined = true
		b.refPEs = nil
		return
	}
	b.refPEs[name] = struct{}{}
}

// UsedPredefined reports whether a predefined parameter entity was used
func (b *Builder) UsedPredefined() bool {
	return b.usedPredefined
}

// Freeze turns the accumulated declarations into an immutable Subset. An
// external subset is cachable unless it used a predefined parameter
// entity; an internal subset never is.
func (b *Builder) Freeze() *Subset {
	b.mustNotBeFrozen()
	b.frozen = true

	s := &Subset{
		external:  b.external,
		entities:  b.entities,
		notations: b.notations,
		elements:  b.elements,
	}
	if b.external {
		s.cachable = !b.usedPredefined
		if s.cachable {
			s.refPEs = b.refPEs
		}
	} else {
		s.pentities = b.pentities
	}
	return s
}
