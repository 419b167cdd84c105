// Package input implements the character sources consumed by the DTD
// parser: buffered rune readers with newline normalization, location
// tracking and pushback, plus resolution of external identifiers.
package input

import (
	"bufio"
	"bytes"
	"errors"
	"io"
	"strings"

	"github.com/lestrrat-go/dtd/encoding"
)

var ErrInvalidTextDecl = errors.New("invalid text declaration")

const maxHistory = 8

type position struct {
	line   int
	col    int
	offset int
}

// Source is a single input source. A Source is not safe for concurrent use
type Source struct {
	r         *bufio.Reader
	publicID  string
	systemID  string
	entity    string
	encoding  string
	normalize bool
	closer    io.Closer

	pos  position
	hist []position
	back []rune
}

func newSource(r *bufio.Reader, options ...SourceOption) *Source {
	s := &Source{
		r:         r,
		normalize: true,
		pos:       position{line: 1, col: 1},
	}
	for _, o := range options {
		switch o.Ident() {
		case identPublicID{}:
			s.publicID = o.Value().(string)
		case identSystemID{}:
			s.systemID = o.Value().(string)
		case identEntity{}:
			s.entity = o.Value().(string)
		case identNormalize{}:
			s.normalize = o.Value().(bool)
		case identCloser{}:
			s.closer = o.Value().(io.Closer)
		}
	}
	return s
}

// NewSource creates a source reading UTF-8 text from r
func NewSource(r io.Reader, options ...SourceOption) *Source {
	return newSource(bufio.NewReader(r), options...)
}

// NewStringSource creates a source over s, typically the replacement
// text of an internal parameter entity
func NewStringSource(s string, options ...SourceOption) *Source {
	return newSource(bufio.NewReader(strings.NewReader(s)), options...)
}

// NewExternalSource creates a source for an external entity (an external
// DTD subset or an external parameter entity). A byte order mark and a
// leading text declaration (<?xml ... encoding="..."?>) are consumed, and
// the remaining bytes are decoded according to them.
func NewExternalSource(r io.Reader, options ...SourceOption) (*Source, error) {
	br := bufio.NewReader(r)
	head, _ := br.Peek(4)
	enc, skip := encoding.Detect(head)
	if skip > 0 {
		if _, err := br.Discard(skip); err != nil {
			return nil, err
		}
	}
	if enc == encoding.UTF16LE || enc == encoding.UTF16BE {
		dr, err := encoding.NewReader(br, enc)
		if err != nil {
			return nil, err
		}
		br = bufio.NewReader(dr)
	}

	s := newSource(br, options...)
	s.encoding = enc

	declared, err := s.readTextDecl()
	if err != nil {
		return nil, err
	}

	if declared != "" {
		// UTF-16 was already detected from the raw bytes; anything else
		// switches the decoder for the rest of the entity
		if s.encoding != encoding.UTF16LE && s.encoding != encoding.UTF16BE && !encoding.IsUTF8(declared) {
			dr, err := encoding.NewReader(s.r, declared)
			if err != nil {
				return nil, err
			}
			s.r = bufio.NewReader(dr)
		}
		s.encoding = declared
	}
	return s, nil
}

func isDeclBlank(b byte) bool {
	return b == 0x20 || b == 0x9 || b == 0xa || b == 0xd
}

// readTextDecl consumes "<?xml" S ... "?>" if present and returns the
// declared encoding name
func (s *Source) readTextDecl() (string, error) {
	p, _ := s.r.Peek(6)
	if len(p) < 6 || !bytes.HasPrefix(p, []byte("<?xml")) || !isDeclBlank(p[5]) {
		return "", nil
	}

	var decl []byte
	for {
		b, err := s.r.ReadByte()
		if err != nil {
			return "", ErrInvalidTextDecl
		}
		decl = append(decl, b)
		if b == '\n' {
			s.pos.line++
			s.pos.col = 1
		} else {
			s.pos.col++
		}
		s.pos.offset++
		if bytes.HasSuffix(decl, []byte("?>")) {
			break
		}
	}

	body := decl[len("<?xml") : len(decl)-2]
	idx := bytes.Index(body, []byte("encoding"))
	if idx < 0 {
		return "", nil
	}
	rest := bytes.TrimLeftFunc(body[idx+len("encoding"):], isBlankRune)
	if len(rest) == 0 || rest[0] != '=' {
		return "", ErrInvalidTextDecl
	}
	rest = bytes.TrimLeftFunc(rest[1:], isBlankRune)
	if len(rest) == 0 || (rest[0] != '"' && rest[0] != '\'') {
		return "", ErrInvalidTextDecl
	}
	end := bytes.IndexByte(rest[1:], rest[0])
	if end < 0 {
		return "", ErrInvalidTextDecl
	}
	return string(rest[1 : end+1]), nil
}

func isBlankRune(r rune) bool {
	return r == 0x20 || r == 0x9 || r == 0xa || r == 0xd
}

// Next returns the next character. CR and CR/LF are reported as LF when
// newline normalization is enabled
func (s *Source) Next() (rune, error) {
	if l := len(s.back); l > 0 {
		r := s.back[l-1]
		s.back = s.back[:l-1]
		s.advance(r)
		return r, nil
	}

	r, _, err := s.r.ReadRune()
	if err != nil {
		return 0, err
	}

	if r == '\r' && s.normalize {
		n, _, err := s.r.ReadRune()
		if err == nil && n != '\n' {
			_ = s.r.UnreadRune()
		}
		r = '\n'
	}
	s.advance(r)
	return r, nil
}

func (s *Source) advance(r rune) {
	if len(s.hist) == maxHistory {
		copy(s.hist, s.hist[1:])
		s.hist = s.hist[:maxHistory-1]
	}
	s.hist = append(s.hist, s.pos)

	s.pos.offset++
	if r == '\n' {
		s.pos.line++
		s.pos.col = 1
	} else {
		s.pos.col++
	}
}

// Unread pushes r back so that the next call to Next returns it again
func (s *Source) Unread(r rune) {
	s.back = append(s.back, r)
	if l := len(s.hist); l > 0 {
		s.pos = s.hist[l-1]
		s.hist = s.hist[:l-1]
		return
	}
	if s.pos.offset > 0 {
		s.pos.offset--
	}
	if s.pos.col > 1 {
		s.pos.col--
	}
}

// Location returns the location of the next character to be read
func (s *Source) Location() Location {
	return Location{
		PublicID: s.publicID,
		SystemID: s.systemID,
		Entity:   s.entity,
		Line:     s.pos.line,
		Column:   s.pos.col,
		Offset:   s.pos.offset,
	}
}

func (s *Source) PublicID() string { return s.publicID }
func (s *Source) SystemID() string { return s.systemID }
func (s *Source) Entity() string   { return s.entity }

// Encoding returns the encoding name detected or declared for an
// external source
func (s *Source) Encoding() string { return s.encoding }

// Close releases the underlying resource, if any
func (s *Source) Close() error {
	if s.closer == nil {
		return nil
	}
	c := s.closer
	s.closer = nil
	return c.Close()
}
