package schema

import (
	"sort"
	"sync"

	"github.com/lestrrat-go/dtd/internal/orderedmap"
)

// Subset is the immutable result of parsing an internal or external DTD
// subset, or of combining the two. All list accessors return
// declarations in declaration order.
type Subset struct {
	external  bool
	cachable  bool
	entities  *orderedmap.Map[string, *EntityDecl]
	pentities *orderedmap.Map[string, *EntityDecl]
	notations *orderedmap.Map[string, *NotationDecl]
	elements  *orderedmap.Map[NameKey, *ElementDecl]
	refPEs    map[string]struct{}

	defaults sync.Map // *AttributeDecl -> string
}

// IsExternal reports whether the subset was parsed as an external
// subset on its own
func (s *Subset) IsExternal() bool {
	return s.external
}

// Cachable reports whether the subset may be reused across documents
func (s *Subset) Cachable() bool {
	return s.cachable
}

func (s *Subset) Entities() []*EntityDecl {
	return s.entities.Values()
}

func (s *Subset) LookupEntity(name string) (*EntityDecl, bool) {
	return s.entities.Get(name)
}

// ParameterEntities returns the parameter entities. Only subsets that
// carry an internal subset keep them.
func (s *Subset) ParameterEntities() []*EntityDecl {
	return s.pentities.Values()
}

func (s *Subset) LookupParameterEntity(name string) (*EntityDecl, bool) {
	return s.pentities.Get(name)
}

func (s *Subset) Notations() []*NotationDecl {
	return s.notations.Values()
}

func (s *Subset) LookupNotation(name string) (*NotationDecl, bool) {
	return s.notations.Get(name)
}

func (s *Subset) Elements() []*ElementDecl {
	return s.elements.Values()
}

func (s *Subset) LookupElement(name NameKey) (*ElementDecl, bool) {
	return s.elements.Get(name)
}

// ReferencedParameterEntities returns the sorted names of the locally
// defined parameter entities a cachable external subset expanded
func (s *Subset) ReferencedParameterEntities() []string {
	if len(s.refPEs) == 0 {
		return nil
	}
	names := make([]string, 0, len(s.refPEs))
	for name := range s.refPEs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// IsReusableWith reports whether a cachable subset may be reused for a
// document whose internal subset is other. Reuse is unsafe when other
// defines a parameter entity this subset expanded, since the internal
// definition would have taken precedence.
func (s *Subset) IsReusableWith(other *Subset) bool {
	if !s.cachable {
		return false
	}
	if other == nil {
		return true
	}
	for name := range s.refPEs {
		if _, ok := other.LookupParameterEntity(name); ok {
			return false
		}
	}
	return true
}

// AttributeDefault returns the default value of attr with its deferred
// general entity references expanded against this subset. Results are
// memoized per subset.
func (s *Subset) AttributeDefault(attr *AttributeDecl) (string, error) {
	v := attr.DefaultValue()
	if v == nil {
		return "", nil
	}
	if !v.HasReferences() {
		return v.Text(), nil
	}
	if cached, ok := s.defaults.Load(attr); ok {
		return cached.(string), nil
	}

	expanded, err := v.Expand(s.LookupEntity)
	if err != nil {
		return "", err
	}
	s.defaults.Store(attr, expanded)
	return expanded, nil
}
