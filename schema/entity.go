package schema

import "github.com/lestrrat-go/dtd/input"

type Location = input.Location

// EntityType classifies entity declarations
type EntityType int

const (
	InternalGeneralEntity EntityType = iota + 1
	ExternalGeneralParsedEntity
	ExternalGeneralUnparsedEntity
	InternalParameterEntity
	ExternalParameterEntity
	InternalPredefinedEntity
)

func (t EntityType) String() string {
	switch t {
	case InternalGeneralEntity:
		return "internal general entity"
	case ExternalGeneralParsedEntity:
		return "external parsed general entity"
	case ExternalGeneralUnparsedEntity:
		return "external unparsed general entity"
	case InternalParameterEntity:
		return "internal parameter entity"
	case ExternalParameterEntity:
		return "external parameter entity"
	case InternalPredefinedEntity:
		return "predefined entity"
	}
	return "invalid entity"
}

// EntityDecl is an entity declaration. It is immutable once created
type EntityDecl struct {
	name     string
	param    bool
	internal bool
	value    string
	publicID string
	systemID string
	notation string
	loc      Location

	predefined bool
}

// NewInternalEntity creates an entity whose replacement text is value
func NewInternalEntity(name string, param bool, value string, loc Location) *EntityDecl {
	return &EntityDecl{
		name:     name,
		param:    param,
		internal: true,
		value:    value,
		loc:      loc,
	}
}

// NewExternalEntity creates an entity identified by publicID/systemID.
// A non-empty notation marks a general entity as unparsed.
func NewExternalEntity(name string, param bool, publicID, systemID, notation string, loc Location) *EntityDecl {
	return &EntityDecl{
		name:     name,
		param:    param,
		publicID: publicID,
		systemID: systemID,
		notation: notation,
		loc:      loc,
	}
}

var predefinedEntities = map[string]*EntityDecl{
	"lt":   {name: "lt", internal: true, value: "<", predefined: true},
	"gt":   {name: "gt", internal: true, value: ">", predefined: true},
	"amp":  {name: "amp", internal: true, value: "&", predefined: true},
	"apos": {name: "apos", internal: true, value: "'", predefined: true},
	"quot": {name: "quot", internal: true, value: `"`, predefined: true},
}

// PredefinedEntity returns one of the five entities predefined by XML
func PredefinedEntity(name string) (*EntityDecl, bool) {
	e, ok := predefinedEntities[name]
	return e, ok
}

func (e *EntityDecl) Name() string       { return e.name }
func (e *EntityDecl) IsParameter() bool  { return e.param }
func (e *EntityDecl) IsInternal() bool   { return e.internal }
func (e *EntityDecl) IsExternal() bool   { return !e.internal }
func (e *EntityDecl) IsUnparsed() bool   { return e.notation != "" }
func (e *EntityDecl) Value() string      { return e.value }
func (e *EntityDecl) PublicID() string   { return e.publicID }
func (e *EntityDecl) SystemID() string   { return e.systemID }
func (e *EntityDecl) Notation() string   { return e.notation }
func (e *EntityDecl) Location() Location { return e.loc }

func (e *EntityDecl) Type() EntityType {
	switch {
	case e.predefined:
		return InternalPredefinedEntity
	case e.param && e.internal:
		return InternalParameterEntity
	case e.param:
		return ExternalParameterEntity
	case e.internal:
		return InternalGeneralEntity
	case e.notation != "":
		return ExternalGeneralUnparsedEntity
	default:
		return ExternalGeneralParsedEntity
	}
}

// NotationDecl is a notation declaration. At least one of the public and
// system identifiers is present
type NotationDecl struct {
	name     string
	publicID string
	systemID string
	loc      Location
}

func NewNotation(name, publicID, systemID string, loc Location) *NotationDecl {
	return &NotationDecl{
		name:     name,
		publicID: publicID,
		systemID: systemID,
		loc:      loc,
	}
}

func (n *NotationDecl) Name() string       { return n.name }
func (n *NotationDecl) PublicID() string   { return n.publicID }
func (n *NotationDecl) SystemID() string   { return n.systemID }
func (n *NotationDecl) Location() Location { return n.loc }
