package schema

import "github.com/lestrrat-go/dtd/internal/orderedmap"

// Combine merges an internal subset with an external subset. Internal
// declarations take precedence for entities and attributes; redefined
// notations and elements declared with a content spec on both sides are
// errors. Either side may be nil, in which case the result carries the
// declarations of the other. The combined subset is never cachable.
func Combine(internal, external *Subset) (*Subset, error) {
	switch {
	case internal == nil && external == nil:
		return nil, nil
	case internal == nil:
		return external.detached(), nil
	case external == nil:
		return internal.detached(), nil
	}

	entities := internal.entities.Clone()
	for name, e := range external.entities.Range() {
		if !entities.Has(name) {
			_ = entities.Set(name, e)
		}
	}

	notations := internal.notations.Clone()
	for name, n := range external.notations.Range() {
		if prev, ok := notations.Get(name); ok {
			return nil, ErrNotationRedefined{Name: name, Previous: prev.loc, Location: n.loc}
		}
		_ = notations.Set(name, n)
	}

	elements := orderedmap.New[NameKey, *ElementDecl]()
	for name, ie := range internal.elements.Range() {
		ee, ok := external.elements.Get(name)
		if !ok {
			_ = elements.Set(name, ie)
			continue
		}
		merged, err := mergeElements(ie, ee)
		if err != nil {
			return nil, err
		}
		_ = elements.Set(name, merged)
	}
	for name, ee := range external.elements.Range() {
		if !elements.Has(name) {
			_ = elements.Set(name, ee)
		}
	}

	return &Subset{
		entities:  entities,
		pentities: internal.pentities,
		notations: notations,
		elements:  elements,
	}, nil
}

// detached returns a non-cachable subset sharing the declarations of s
func (s *Subset) detached() *Subset {
	return &Subset{
		entities:  s.entities,
		pentities: s.pentities,
		notations: s.notations,
		elements:  s.elements,
	}
}

func mergeElements(ie, ee *ElementDecl) (*ElementDecl, error) {
	if !ie.IsPlaceholder() && !ee.IsPlaceholder() {
		return nil, ErrElementRedefined{Name: ie.name, Previous: ie.loc, Location: ee.loc}
	}

	var merged *ElementDecl
	switch {
	case !ie.IsPlaceholder():
		merged = newDeclaredElement(ie.name, ie.content, ie.loc)
	case !ee.IsPlaceholder():
		merged = newDeclaredElement(ee.name, ee.content, ee.loc)
	default:
		merged = newPlaceholderElement(ie.name, ie.loc)
	}

	for _, a := range ie.attrs.Values() {
		merged.addAttribute(a)
	}
	for _, a := range ee.attrs.Values() {
		merged.addAttribute(a)
	}
	return merged, nil
}
