/*
Package alphabet maps between symbol numbers and symbol strings of an
optimized-lookup transducer.

Symbol 0 is always epsilon. Symbols may be multi-character strings, e.g.
morphological tags like "+N", flag diacritics like "@P.NUM.SG@" or reserved
markers used by pattern matching transducers. An Alphabet may grow while
tokenizing input text, as previously unseen characters are added on demand.

An Alphabet is not safe for concurrent mutation. Workers which tokenize
arbitrary input should each operate on their own Clone.

# BSD License

Copyright (c) Norbert Pillmayer <norbert@pillmayer@com>

All rights reserved.

License information is available in the LICENSE file.
*/
package alphabet

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/npillmayer/hfstol/flags"
	"github.com/npillmayer/schuko/tracing"
)

// tracer writes to trace with key 'hfstol.alphabet'
func tracer() tracing.Trace {
	return tracing.Select("hfstol.alphabet")
}

// Symbol is a symbol number, a dense index into an alphabet.
type Symbol uint16

const (
	// Epsilon is the empty symbol.
	Epsilon Symbol = 0
	// NoSymbol terminates tapes and marks absent table entries.
	NoSymbol Symbol = 0xFFFF
)

// EpsilonString is the string stored for symbol 0 in binary transducers.
const EpsilonString = "@_EPSILON_SYMBOL_@"

// ErrUnknownSymbol is returned for symbol numbers outside the alphabet.
var ErrUnknownSymbol = errors.New("symbol number not in alphabet")

// ErrOutsideSigma is returned by strict tokenization for input which cannot be
// mapped to any symbol of the alphabet.
var ErrOutsideSigma = errors.New("input outside of alphabet")

// ErrAlphabetFull is returned when no more symbol numbers are available.
var ErrAlphabetFull = errors.New("alphabet exhausted")

// Alphabet is a bidirectional symbol table.
type Alphabet struct {
	symbols    []string
	index      map[string]Symbol
	fd         *flags.Table[Symbol]
	special    [specialCount]Symbol
	endTags    map[Symbol]string
	insertions map[string]Symbol
	origCount  int // number of symbols before any dynamic additions
	inputCount int // number of input symbols as declared by the transducer header
	tok        *tokenizer
}

// New creates an alphabet containing just epsilon.
func New() *Alphabet {
	a := &Alphabet{
		symbols:    []string{EpsilonString},
		index:      map[string]Symbol{EpsilonString: Epsilon},
		fd:         flags.NewTable[Symbol](),
		endTags:    make(map[Symbol]string),
		insertions: make(map[string]Symbol),
		origCount:  1,
	}
	for i := range a.special {
		a.special[i] = NoSymbol
	}
	return a
}

// FromStrings creates an alphabet from a symbol list. The first entry is
// taken to be epsilon, whatever its string.
func FromStrings(symbols []string) (*Alphabet, error) {
	a := New()
	for i, s := range symbols {
		if i == 0 {
			continue
		}
		if _, err := a.define(s); err != nil {
			return nil, err
		}
	}
	a.origCount = len(a.symbols)
	return a, nil
}

// Read reads count NUL-terminated symbol strings, starting with symbol 0.
// A stream ending early yields an error wrapping io.ErrUnexpectedEOF.
// Malformed flag diacritics yield an error wrapping flags.ErrMalformedDiacritic.
func Read(r *bufio.Reader, count int) (*Alphabet, error) {
	symbols := make([]string, 0, count)
	for i := 0; i < count; i++ {
		s, err := r.ReadString(0)
		if err != nil {
			if err == io.EOF {
				err = io.ErrUnexpectedEOF
			}
			return nil, fmt.Errorf("reading symbol %d of %d: %w", i, count, err)
		}
		symbols = append(symbols, s[:len(s)-1])
	}
	a, err := FromStrings(symbols)
	if err != nil {
		return nil, err
	}
	tracer().Debugf("read alphabet of %d symbols, %d flag features", a.Len(), a.fd.NumFeatures())
	return a, nil
}

// WriteTo writes all symbols as NUL-terminated strings, including dynamically
// added ones.
func (a *Alphabet) WriteTo(w io.Writer) (int64, error) {
	var n int64
	for _, s := range a.symbols {
		k, err := io.WriteString(w, s+"\x00")
		n += int64(k)
		if err != nil {
			return n, err
		}
	}
	return n, nil
}

// define appends a new symbol and classifies it.
func (a *Alphabet) define(s string) (Symbol, error) {
	if len(a.symbols) >= int(NoSymbol) {
		return NoSymbol, ErrAlphabetFull
	}
	sym := Symbol(len(a.symbols))
	a.symbols = append(a.symbols, s)
	if _, dup := a.index[s]; !dup { // first occurrence wins for string lookups
		a.index[s] = sym
	}
	if strings.HasPrefix(s, "@") && flags.IsDiacritic(s) {
		if err := a.fd.Define(sym, s); err != nil {
			return NoSymbol, err
		}
	} else {
		a.classify(s, sym)
	}
	if a.tok != nil {
		a.tok.add(a, sym)
	}
	return sym, nil
}

// AddSymbol returns the symbol number for s, adding s to the alphabet if it
// is not yet known. Symbols added this way count as dynamic: they are not part
// of the compiled transducer's alphabet (see OrigCount).
func (a *Alphabet) AddSymbol(s string) (Symbol, error) {
	if sym, ok := a.index[s]; ok {
		return sym, nil
	}
	sym, err := a.define(s)
	if err != nil {
		return NoSymbol, err
	}
	tracer().Debugf("added dynamic symbol %q = %d", s, sym)
	return sym, nil
}

// Len is the number of symbols including epsilon.
func (a *Alphabet) Len() int {
	return len(a.symbols)
}

// OrigCount is the number of symbols the alphabet was created with.
// Symbols with numbers at or above OrigCount have been added dynamically.
func (a *Alphabet) OrigCount() int {
	return a.origCount
}

// SetInputCount declares how many symbols (counted from 0) may appear on the
// input side of the transducer. Only those take part in tokenization.
// A count of 0 means all symbols are input symbols.
func (a *Alphabet) SetInputCount(n int) {
	a.inputCount = n
	a.tok = nil
}

// String returns the string for sym.
func (a *Alphabet) String(sym Symbol) (string, error) {
	if int(sym) >= len(a.symbols) {
		return "", fmt.Errorf("%w: %d", ErrUnknownSymbol, sym)
	}
	return a.symbols[sym], nil
}

// MustString returns the string for sym and panics if sym is unknown.
func (a *Alphabet) MustString(sym Symbol) string {
	s, err := a.String(sym)
	if err != nil {
		panic(err)
	}
	return s
}

// Symbol looks up the symbol number for s.
func (a *Alphabet) Symbol(s string) (Symbol, bool) {
	sym, ok := a.index[s]
	return sym, ok
}

// Strings returns a copy of the symbol table.
func (a *Alphabet) Strings() []string {
	s := make([]string, len(a.symbols))
	copy(s, a.symbols)
	return s
}

// FlagTable returns the flag diacritics of this alphabet.
func (a *Alphabet) FlagTable() *flags.Table[Symbol] {
	return a.fd
}

// IsFlagDiacritic reports whether sym is a flag diacritic.
func (a *Alphabet) IsFlagDiacritic(sym Symbol) bool {
	return a.fd.IsDiacritic(sym)
}

// HasFlagDiacritics reports whether any flag diacritic is defined.
func (a *Alphabet) HasFlagDiacritics() bool {
	return a.fd.NumFeatures() > 0
}

// Operation returns the flag operation for sym.
func (a *Alphabet) Operation(sym Symbol) (flags.Operation, bool) {
	return a.fd.Operation(sym)
}

// Clone returns a deep copy, suitable for a worker which adds symbols while
// tokenizing.
func (a *Alphabet) Clone() *Alphabet {
	b := &Alphabet{
		symbols:    make([]string, len(a.symbols)),
		index:      make(map[string]Symbol, len(a.index)),
		fd:         a.fd.Clone(),
		special:    a.special,
		endTags:    make(map[Symbol]string, len(a.endTags)),
		insertions: make(map[string]Symbol, len(a.insertions)),
		origCount:  a.origCount,
		inputCount: a.inputCount,
	}
	copy(b.symbols, a.symbols)
	for k, v := range a.index {
		b.index[k] = v
	}
	for k, v := range a.endTags {
		b.endTags[k] = v
	}
	for k, v := range a.insertions {
		b.insertions[k] = v
	}
	return b
}

// Stringify concatenates the strings of symbols, leaving out epsilons and flag
// diacritics.
func (a *Alphabet) Stringify(symbols []Symbol) string {
	var sb strings.Builder
	for _, sym := range symbols {
		if sym == Epsilon || a.IsFlagDiacritic(sym) || int(sym) >= len(a.symbols) {
			continue
		}
		sb.WriteString(a.symbols[sym])
	}
	return sb.String()
}
