package dtd

import (
	"bufio"
	"unicode/utf8"

	"github.com/lestrrat-go/dtd/internal/pool"
)

// FlattenOptions selects which constructs are copied to the flattened
// output. With every field set the output reproduces the input, modulo
// newline normalization.
type FlattenOptions struct {
	// IncludeComments keeps comments
	IncludeComments bool
	// IncludeConditionalMarkers keeps the '<![INCLUDE[' and ']]>'
	// markers and whole IGNORE sections. Without it included content is
	// kept and ignored content dropped.
	IncludeConditionalMarkers bool
	// IncludePEDecls keeps parameter entity declarations and references.
	// Without it the declarations are dropped and references are
	// replaced by their replacement text.
	IncludePEDecls bool
}

// flattener mirrors the characters the parser consumes. Characters are
// collected in a pending buffer so that a construct can be dropped after
// it has been recognized; commit hands the buffer to the writer. All
// methods are no-ops on a nil flattener.
type flattener struct {
	w       *bufio.Writer
	opts    FlattenOptions
	pending []byte
}

func newFlattener(cfg *flattenConfig) *flattener {
	if cfg == nil || cfg.w == nil {
		return nil
	}
	return &flattener{
		w:       bufio.NewWriter(cfg.w),
		opts:    cfg.opts,
		pending: pool.ByteSlice().Get(),
	}
}

func (f *flattener) includeComments() bool {
	return f == nil || f.opts.IncludeComments
}

func (f *flattener) includeConditionalMarkers() bool {
	return f == nil || f.opts.IncludeConditionalMarkers
}

func (f *flattener) includePEDecls() bool {
	return f == nil || f.opts.IncludePEDecls
}

func (f *flattener) write(r rune) {
	f.pending = utf8.AppendRune(f.pending, r)
}

// unwrite drops the last character written
func (f *flattener) unwrite() {
	if f == nil || len(f.pending) == 0 {
		return
	}
	_, n := utf8.DecodeLastRune(f.pending)
	f.pending = f.pending[:len(f.pending)-n]
}

func (f *flattener) pos() int {
	if f == nil {
		return 0
	}
	return len(f.pending)
}

// truncate drops everything written since pos
func (f *flattener) truncate(pos int) {
	if f == nil || pos > len(f.pending) {
		return
	}
	f.pending = f.pending[:pos]
}

func (f *flattener) commit() error {
	if f == nil || len(f.pending) == 0 {
		return nil
	}
	_, err := f.w.Write(f.pending)
	f.pending = f.pending[:0]
	return err
}

func (f *flattener) flush() error {
	if f == nil {
		return nil
	}
	if err := f.commit(); err != nil {
		return err
	}
	return f.w.Flush()
}

func (f *flattener) release() {
	if f == nil {
		return
	}
	pool.ByteSlice().Put(f.pending)
	f.pending = nil
}
