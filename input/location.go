package input

import (
	"strconv"
	"strings"
)

// Location describes a position within an input source. Line and Column
// are 1-based, Offset counts characters from the start of the source.
type Location struct {
	PublicID string
	SystemID string
	// Entity is the name of the parameter entity whose replacement text
	// is being read, if any.
	Entity string
	Line   int
	Column int
	Offset int
}

func (l Location) IsZero() bool {
	return l.Line == 0 && l.Column == 0 && l.Offset == 0 && l.SystemID == "" && l.Entity == ""
}

func (l Location) String() string {
	var sb strings.Builder
	switch {
	case l.Entity != "":
		sb.WriteString("entity %")
		sb.WriteString(l.Entity)
		sb.WriteByte(';')
		if l.SystemID != "" {
			sb.WriteString(" (")
			sb.WriteString(l.SystemID)
			sb.WriteByte(')')
		}
	case l.SystemID != "":
		sb.WriteString(l.SystemID)
	default:
		sb.WriteString("<input>")
	}
	sb.WriteString(" line ")
	sb.WriteString(strconv.Itoa(l.Line))
	sb.WriteString(", column ")
	sb.WriteString(strconv.Itoa(l.Column))
	return sb.String()
}
