package dtd

import (
	"errors"
	"fmt"

	"github.com/lestrrat-go/dtd/schema"
)

var (
	ErrAttListNotFinished         = errors.New("enumeration must finish with a ')'")
	ErrAttributeDefaultRequired   = errors.New("attribute default ('#REQUIRED', '#IMPLIED', '#FIXED' or a literal) required")
	ErrAttributeTypeRequired      = errors.New("attribute type required")
	ErrCommentNotFinished         = errors.New("comment not finished")
	ErrConditionalNotFinished     = errors.New("conditional section not finished")
	ErrConditionalNotAllowed      = errors.New("conditional sections are not allowed in the internal subset")
	ErrElementContentRequired     = errors.New("'EMPTY', 'ANY' or '(' required")
	ErrElementContentNotFinished  = errors.New("element content not finished")
	ErrEntityValueBadPercent      = errors.New("'%' in entity value must start a parameter entity reference")
	ErrEqualSignRequired          = errors.New("'=' was required here")
	ErrExternalIDRequired         = errors.New("'SYSTEM' or 'PUBLIC' required")
	ErrGtRequired                 = errors.New("'>' was required here")
	ErrHyphenInComment            = errors.New("'--' not allowed in comment")
	ErrInternalSubsetNotFinished  = errors.New("internal subset not finished")
	ErrInvalidCharRef             = errors.New("invalid character reference")
	ErrInvalidName                = errors.New("invalid xml name")
	ErrLtInAttributeValue         = errors.New("'<' not allowed in attribute value")
	ErrLiteralNotFinished         = errors.New("literal not finished")
	ErrLiteralRequired            = errors.New("quoted literal required")
	ErrMixedContentNotStarred     = errors.New("mixed content with element names must end with ')*'")
	ErrMixedSeparators            = errors.New("cannot mix '|' and ',' in the same group")
	ErrNDataNotAllowed            = errors.New("NDATA is not allowed for parameter entities")
	ErrNameRequired               = errors.New("name is required")
	ErrNmtokenRequired            = errors.New("nmtoken is required")
	ErrOpenBracketRequired        = errors.New("'[' is required")
	ErrOpenParenRequired          = errors.New("'(' is required")
	ErrPERefInInternalSubset      = errors.New("parameter entity references are not allowed within markup declarations in the internal subset")
	ErrPINotFinished              = errors.New("processing instruction not finished")
	ErrParserBusy                 = errors.New("parser is already in use")
	ErrPubidCharInvalid           = errors.New("invalid character in public identifier")
	ErrSemicolonRequired          = errors.New("';' is required")
	ErrSpaceRequired              = errors.New("space required")
	ErrSystemLiteralRequired      = errors.New("system literal required")
	ErrUnexpectedEOF              = errors.New("unexpected end of input")
	ErrUnterminatedIgnoreSection  = errors.New("IGNORE section not finished")
	ErrUnexpectedEndOfSubset      = errors.New("']' is only allowed at the end of the internal subset or of a conditional section")
	ErrExternalParameterEntityNil = errors.New("resolver returned no source for external parameter entity")
)

// ErrParseError wraps a fatal error with the location it was detected at
type ErrParseError struct {
	Err        error
	PublicID   string
	SystemID   string
	Entity     string
	LineNumber int
	Column     int
	Offset     int
}

func (e ErrParseError) Error() string {
	loc := schema.Location{
		PublicID: e.PublicID,
		SystemID: e.SystemID,
		Entity:   e.Entity,
		Line:     e.LineNumber,
		Column:   e.Column,
	}
	return fmt.Sprintf("%s at %s", e.Err, loc)
}

func (e ErrParseError) Unwrap() error {
	return e.Err
}

// ErrKeywordMismatch is returned when a keyword was expected but
// something else was found
type ErrKeywordMismatch struct {
	Expected string
	Got      string
}

func (e ErrKeywordMismatch) Error() string {
	return fmt.Sprintf("expected keyword '%s', got '%s'", e.Expected, e.Got)
}

// ErrUnexpectedChar is returned when a character cannot start or
// continue the construct being parsed
type ErrUnexpectedChar struct {
	Char    rune
	Context string
}

func (e ErrUnexpectedChar) Error() string {
	return fmt.Sprintf("unexpected character %q %s", e.Char, e.Context)
}

// ErrUnknownDirective is returned for '<!' followed by an unknown keyword
type ErrUnknownDirective struct {
	Got string
}

func (e ErrUnknownDirective) Error() string {
	return fmt.Sprintf("unknown declaration '<!%s'", e.Got)
}

// ErrUnterminatedEntityValue is returned when the input source a quoted
// literal was opened in ends before the closing quote
type ErrUnterminatedEntityValue struct {
	Entity   string
	Location schema.Location
}

func (e ErrUnterminatedEntityValue) Error() string {
	return fmt.Sprintf("unterminated value for entity '%s' declared at %s", e.Entity, e.Location)
}

type ErrUndeclaredEntity struct {
	Name string
}

func (e ErrUndeclaredEntity) Error() string {
	return fmt.Sprintf("undeclared parameter entity '%%%s;'", e.Name)
}

type ErrRecursiveEntity struct {
	Name string
}

func (e ErrRecursiveEntity) Error() string {
	return fmt.Sprintf("parameter entity '%%%s;' references itself", e.Name)
}

// ErrDTDDupToken is returned when a token is listed twice in an
// enumeration or a mixed content model
type ErrDTDDupToken struct {
	Name string
}

func (e ErrDTDDupToken) Error() string {
	return "token " + e.Name + " duplicated"
}
