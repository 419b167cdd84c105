package schema

import "fmt"

// ErrNotationRedefined is returned when two declarations share a
// notation name
type ErrNotationRedefined struct {
	Name     string
	Previous Location
	Location Location
}

func (e ErrNotationRedefined) Error() string {
	return fmt.Sprintf("notation %q redefined at %s (previously declared at %s)", e.Name, e.Location, e.Previous)
}

// ErrElementRedefined is returned when a content specification is given
// twice for the same element
type ErrElementRedefined struct {
	Name     NameKey
	Previous Location
	Location Location
}

func (e ErrElementRedefined) Error() string {
	return fmt.Sprintf("element %q redefined at %s (previously declared at %s)", e.Name, e.Location, e.Previous)
}

type ErrUndeclaredEntityRef struct {
	Name string
}

func (e ErrUndeclaredEntityRef) Error() string {
	return "reference to undeclared entity '" + e.Name + "'"
}

type ErrExternalEntityRef struct {
	Name string
}

func (e ErrExternalEntityRef) Error() string {
	return "attribute values cannot reference external entity '" + e.Name + "'"
}

type ErrRecursiveEntityRef struct {
	Name string
}

func (e ErrRecursiveEntityRef) Error() string {
	return "entity '" + e.Name + "' references itself"
}

type ErrInvalidCharRef struct {
	Ref string
}

func (e ErrInvalidCharRef) Error() string {
	return "invalid character reference '&" + e.Ref + ";'"
}
