package hfstol

import (
	"bufio"
	"errors"
	"fmt"
	"io"

	"github.com/npillmayer/hfstol/alphabet"
	"github.com/npillmayer/hfstol/att"
	"github.com/npillmayer/hfstol/hfst3"
	"github.com/npillmayer/hfstol/oltable"
)

// DefaultName is the name of a transducer without HFST3 header.
const DefaultName = "TOP"

// Transducer is a compiled optimized-lookup transducer: a header, an alphabet
// and the index and transition tables.
//
// The tables are immutable. Lookup on symbol slices may run concurrently.
// Tokenizing strings may add symbols to the alphabet if the transducer
// handles unknown input (identity, unknown or default symbols); goroutines
// doing so should each use their own Clone.
type Transducer struct {
	name   string
	header oltable.Header
	alpha  *alphabet.Alphabet
	tables *oltable.Tables
}

// New assembles a transducer from its parts, checking that they agree.
func New(h oltable.Header, alpha *alphabet.Alphabet, tables *oltable.Tables) (*Transducer, error) {
	if h.Weighted != tables.Weighted {
		return nil, fmt.Errorf("%w: header and tables disagree on weights", ErrWrongType)
	}
	if int(h.IndexTableSize) != len(tables.Index) || int(h.TransitionTableSize) != len(tables.Transitions) {
		return nil, fmt.Errorf("%w: table sizes %d/%d, header announces %d/%d", ErrWrongType,
			len(tables.Index), len(tables.Transitions), h.IndexTableSize, h.TransitionTableSize)
	}
	if int(h.Symbols) != alpha.OrigCount() {
		return nil, fmt.Errorf("%w: %d symbols, header announces %d", ErrWrongType, alpha.OrigCount(), h.Symbols)
	}
	alpha.SetInputCount(int(h.InputSymbols))
	return &Transducer{name: DefaultName, header: h, alpha: alpha, tables: tables}, nil
}

// Compile lays out the tables of a builder and wraps them into a transducer.
func Compile(b *oltable.Builder, alpha *alphabet.Alphabet) (*Transducer, error) {
	h, tables, err := b.Build(alpha)
	if err != nil {
		return nil, err
	}
	return New(h, alpha, tables)
}

// FromATT compiles a transducer from AT&T tabular text.
func FromATT(r io.Reader) (*Transducer, error) {
	b, alpha, err := att.Read(r)
	if err != nil {
		return nil, err
	}
	return Compile(b, alpha)
}

// Load reads a single transducer. An HFST3 header is optional.
func Load(r io.Reader) (*Transducer, error) {
	return Decode(bufio.NewReader(r), false)
}

// Decode reads the next transducer from a stream which may hold several of
// them. If requireHeader is set, a missing HFST3 header is an error wrapping
// ErrBadHeader; otherwise the transducer is taken to be in legacy headerless
// format and named DefaultName. At the end of the stream, Decode returns
// io.EOF.
func Decode(br *bufio.Reader, requireHeader bool) (*Transducer, error) {
	if _, err := br.Peek(1); err == io.EOF {
		return nil, io.EOF
	}
	name := DefaultName
	var offset int64
	props, err := hfst3.ReadHeader(br)
	switch {
	case err == nil:
		if props.Name != "" {
			name = props.Name
		}
		offset = int64(props.Size)
	case errors.Is(err, hfst3.ErrNoHeader):
		if requireHeader {
			return nil, formatError("hfst3 header", 0, "missing", fmt.Errorf("%w: %w", ErrBadHeader, err))
		}
		tracer().Debugf("no HFST3 header, reading legacy format")
	default:
		return nil, formatError("hfst3 header", 0, "cannot read", err)
	}
	h, err := oltable.ReadHeader(br)
	if err != nil {
		return nil, formatError("header", offset, "cannot read", err)
	}
	if props.Type != "" && (props.Type == hfst3.TypeOLW) != h.Weighted {
		return nil, formatError("header", offset, "weights disagree with "+props.Type, ErrWrongType)
	}
	offset += oltable.HeaderSize
	alpha, err := alphabet.Read(br, int(h.Symbols))
	if err != nil {
		return nil, formatError("alphabet", offset, "cannot read", err)
	}
	for _, s := range alpha.Strings() {
		offset += int64(len(s) + 1)
	}
	tables, err := oltable.ReadTables(br, h)
	if err != nil {
		return nil, formatError("tables", offset, "cannot read", err)
	}
	t, err := New(h, alpha, tables)
	if err != nil {
		return nil, formatError("tables", offset, "inconsistent", err)
	}
	t.name = name
	stats := tables.Stats()
	tracer().Infof("loaded transducer %q: %d symbols, %d states, %d arcs, index fill %.2f",
		name, h.Symbols, h.States, stats.Arcs, stats.FillRatio())
	return t, nil
}

// Write serializes t with an HFST3 header. Symbols added dynamically are not
// part of the transducer and are not written.
func (t *Transducer) Write(w io.Writer) error {
	typ := hfst3.TypeOL
	if t.header.Weighted {
		typ = hfst3.TypeOLW
	}
	if err := hfst3.WriteHeader(w, hfst3.Props{Type: typ, Name: t.name}); err != nil {
		return err
	}
	if err := t.header.Write(w); err != nil {
		return err
	}
	for _, s := range t.alpha.Strings()[:t.alpha.OrigCount()] {
		if _, err := io.WriteString(w, s+"\x00"); err != nil {
			return err
		}
	}
	_, err := t.tables.WriteTo(w)
	return err
}

// Clone returns a transducer sharing the tables of t, with its own copy of
// the alphabet.
func (t *Transducer) Clone() *Transducer {
	c := *t
	c.alpha = t.alpha.Clone()
	return &c
}

// Name is the name from the HFST3 header, DefaultName if there was none.
func (t *Transducer) Name() string {
	return t.name
}

// SetName renames the transducer.
func (t *Transducer) SetName(name string) {
	t.name = name
}

// Alphabet returns the symbol table.
func (t *Transducer) Alphabet() *alphabet.Alphabet {
	return t.alpha
}

// Header returns the transducer header.
func (t *Transducer) Header() oltable.Header {
	return t.header
}

// Tables returns the index and transition tables.
func (t *Transducer) Tables() *oltable.Tables {
	return t.tables
}

// Weighted reports whether the transducer carries weights.
func (t *Transducer) Weighted() bool {
	return t.header.Weighted
}

// handlesUnknown reports whether the transducer has arcs for input outside
// its alphabet.
func (t *Transducer) handlesUnknown() bool {
	for _, kind := range []alphabet.Special{alphabet.Identity, alphabet.Unknown, alphabet.Default} {
		if t.alpha.Special(kind) != alphabet.NoSymbol {
			return true
		}
	}
	return false
}
