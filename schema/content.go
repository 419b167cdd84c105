package schema

import "strings"

// ContentKind tags the variants of ContentSpec
type ContentKind int

const (
	ContentEmpty ContentKind = iota + 1
	ContentAny
	ContentMixed
	ContentChoice
	ContentSequence
)

func (k ContentKind) String() string {
	switch k {
	case ContentEmpty:
		return "empty"
	case ContentAny:
		return "any"
	case ContentMixed:
		return "mixed"
	case ContentChoice:
		return "choice"
	case ContentSequence:
		return "sequence"
	}
	return "invalid"
}

// Arity is the occurrence indicator of a content particle
type Arity int

const (
	ArityOne Arity = iota
	ArityZeroOrOne
	ArityZeroOrMore
	ArityOneOrMore
)

func (a Arity) Suffix() string {
	switch a {
	case ArityZeroOrOne:
		return "?"
	case ArityZeroOrMore:
		return "*"
	case ArityOneOrMore:
		return "+"
	}
	return ""
}

// ArityFromSuffix maps '?', '*' and '+' to their arity
func ArityFromSuffix(c rune) (Arity, bool) {
	switch c {
	case '?':
		return ArityZeroOrOne, true
	case '*':
		return ArityZeroOrMore, true
	case '+':
		return ArityOneOrMore, true
	}
	return ArityOne, false
}

type ParticleKind int

const (
	ParticleName ParticleKind = iota + 1
	ParticleChoice
	ParticleSequence
)

// Particle is a member of a choice or sequence group: either an element
// name or a nested group
type Particle struct {
	Kind     ParticleKind
	Name     NameKey
	Arity    Arity
	Children []Particle
}

func NameParticle(name NameKey, arity Arity) Particle {
	return Particle{Kind: ParticleName, Name: name, Arity: arity}
}

func ChoiceParticle(arity Arity, children ...Particle) Particle {
	return Particle{Kind: ParticleChoice, Arity: arity, Children: children}
}

func SequenceParticle(arity Arity, children ...Particle) Particle {
	return Particle{Kind: ParticleSequence, Arity: arity, Children: children}
}

func (p Particle) String() string {
	var sb strings.Builder
	p.write(&sb)
	return sb.String()
}

func (p Particle) write(sb *strings.Builder) {
	switch p.Kind {
	case ParticleName:
		sb.WriteString(p.Name.String())
	case ParticleChoice:
		writeGroup(sb, p.Children, '|')
	case ParticleSequence:
		writeGroup(sb, p.Children, ',')
	}
	sb.WriteString(p.Arity.Suffix())
}

func writeGroup(sb *strings.Builder, children []Particle, sep byte) {
	sb.WriteByte('(')
	for i, c := range children {
		if i > 0 {
			sb.WriteByte(sep)
		}
		c.write(sb)
	}
	sb.WriteByte(')')
}

// ContentSpec is the content model of an element declaration. Kind
// selects which of the remaining fields are meaningful:
//
//	ContentEmpty, ContentAny: none
//	ContentMixed:             Names (allowed child elements), Arity
//	ContentChoice,
//	ContentSequence:          Children, Arity
type ContentSpec struct {
	Kind     ContentKind
	Arity    Arity
	Names    []NameKey
	Children []Particle
}

func EmptyContent() ContentSpec {
	return ContentSpec{Kind: ContentEmpty}
}

func AnyContent() ContentSpec {
	return ContentSpec{Kind: ContentAny}
}

// MixedContent creates a (#PCDATA|a|b)* model. A mixed model that lists
// element names always repeats
func MixedContent(starred bool, names ...NameKey) ContentSpec {
	arity := ArityOne
	if starred || len(names) > 0 {
		arity = ArityZeroOrMore
	}
	return ContentSpec{Kind: ContentMixed, Arity: arity, Names: names}
}

func ChoiceContent(arity Arity, children ...Particle) ContentSpec {
	return ContentSpec{Kind: ContentChoice, Arity: arity, Children: children}
}

func SequenceContent(arity Arity, children ...Particle) ContentSpec {
	return ContentSpec{Kind: ContentSequence, Arity: arity, Children: children}
}

// String renders the content spec in DTD syntax
func (c ContentSpec) String() string {
	var sb strings.Builder
	switch c.Kind {
	case ContentEmpty:
		return "EMPTY"
	case ContentAny:
		return "ANY"
	case ContentMixed:
		sb.WriteString("(#PCDATA")
		for _, n := range c.Names {
			sb.WriteByte('|')
			sb.WriteString(n.String())
		}
		sb.WriteByte(')')
	case ContentChoice:
		writeGroup(&sb, c.Children, '|')
	case ContentSequence:
		writeGroup(&sb, c.Children, ',')
	default:
		return ""
	}
	sb.WriteString(c.Arity.Suffix())
	return sb.String()
}
