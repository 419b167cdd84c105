package input

import (
	"io"

	"github.com/lestrrat-go/option"
)

type Option = option.Interface

type SourceOption interface {
	Option
	sourceOption()
}

type sourceOption struct{ Option }

func (*sourceOption) sourceOption() {}

type identPublicID struct{}
type identSystemID struct{}
type identEntity struct{}
type identNormalize struct{}
type identCloser struct{}

// WithPublicID sets the public identifier reported in locations
func WithPublicID(v string) SourceOption {
	return &sourceOption{option.New(identPublicID{}, v)}
}

// WithSystemID sets the system identifier of the source. It is reported in
// locations and used as the base for relative system identifiers
func WithSystemID(v string) SourceOption {
	return &sourceOption{option.New(identSystemID{}, v)}
}

// WithEntity marks the source as the replacement text of the named
// parameter entity
func WithEntity(v string) SourceOption {
	return &sourceOption{option.New(identEntity{}, v)}
}

// WithNormalizeNewlines toggles CR/LF to LF normalization (default: on)
func WithNormalizeNewlines(v bool) SourceOption {
	return &sourceOption{option.New(identNormalize{}, v)}
}

// WithCloser registers a resource to be closed when the source is closed
func WithCloser(v io.Closer) SourceOption {
	return &sourceOption{option.New(identCloser{}, v)}
}
