package alphabet

import (
	"fmt"
	"unicode/utf8"

	"github.com/derekparker/trie"
)

// tokenizer splits text into input symbols by longest match.
//
// Single BMP characters, by far the most frequent kind of symbol, are resolved
// through a paged code point table. Multi-character symbols (tags, multichar
// graphemes) and characters outside the BMP live in a prefix trie.
type tokenizer struct {
	single     pagedMap
	multi      *trie.Trie
	multiCount int
}

func newTokenizer(a *Alphabet) *tokenizer {
	t := &tokenizer{multi: trie.New()}
	for i := 1; i < len(a.symbols); i++ {
		t.add(a, Symbol(i))
	}
	tracer().Debugf("tokenizer: %d pages for single characters, %d multi-character symbols",
		t.single.numPages(), t.multiCount)
	return t
}

// tokenizable reports whether sym may be produced by tokenizing text.
func (a *Alphabet) tokenizable(sym Symbol) bool {
	if sym == Epsilon || int(sym) >= len(a.symbols) || a.symbols[sym] == "" {
		return false
	}
	if a.IsFlagDiacritic(sym) || a.IsSpecial(sym) {
		return false
	}
	return a.inputCount == 0 || int(sym) < a.inputCount || int(sym) >= a.origCount
}

func (t *tokenizer) add(a *Alphabet, sym Symbol) {
	if !a.tokenizable(sym) {
		return
	}
	s := a.symbols[sym]
	if utf8.ValidString(s) && utf8.RuneCountInString(s) == 1 {
		r, _ := utf8.DecodeRuneInString(s)
		if t.single.set(r, sym) {
			return
		}
	}
	if _, ok := t.multi.Find(s); ok {
		return // first definition wins
	}
	t.multi.Add(s, sym)
	t.multiCount++
}

// longest returns the symbol matching the longest prefix of s, together with
// the prefix length in bytes. A length of 0 means no symbol matches.
func (t *tokenizer) longest(s string) (Symbol, int) {
	best, bestLen := Epsilon, 0
	r, size := utf8.DecodeRuneInString(s)
	if r != utf8.RuneError || size > 1 {
		if sym := t.single.get(r); sym != Epsilon {
			best, bestLen = sym, size
		}
	}
	if t.multiCount == 0 {
		return best, bestLen
	}
	for end := size; end <= len(s); {
		prefix := s[:end]
		if !t.multi.HasKeysWithPrefix(prefix) {
			break
		}
		if node, ok := t.multi.Find(prefix); ok && end > bestLen {
			if sym, ok := node.Meta().(Symbol); ok {
				best, bestLen = sym, end
			}
		}
		if end == len(s) {
			break
		}
		_, n := utf8.DecodeRuneInString(s[end:])
		end += n
	}
	return best, bestLen
}

// Tokenize splits s into input symbols, preferring the longest symbol at each
// position.
//
// Characters which do not start any symbol are added to the alphabet as new
// single-character symbols if dynamic is true (one byte at a time for invalid
// UTF-8). Otherwise tokenization stops with an error wrapping ErrOutsideSigma,
// returning the symbols recognized so far.
func (a *Alphabet) Tokenize(s string, dynamic bool) ([]Symbol, error) {
	if a.tok == nil {
		a.tok = newTokenizer(a)
	}
	symbols := make([]Symbol, 0, len(s))
	for pos := 0; pos < len(s); {
		sym, n := a.tok.longest(s[pos:])
		if n == 0 {
			_, size := utf8.DecodeRuneInString(s[pos:])
			if !dynamic {
				return symbols, fmt.Errorf("%w: %q at byte %d", ErrOutsideSigma, s[pos:pos+size], pos)
			}
			var err error
			if sym, err = a.addInputSymbol(s[pos : pos+size]); err != nil {
				return symbols, err
			}
			n = size
		}
		symbols = append(symbols, sym)
		pos += n
	}
	return symbols, nil
}

// addInputSymbol returns a symbol for a character which starts no input
// symbol. A compiled symbol with the same string is reused only if it may
// appear on the input side; otherwise a new dynamic symbol is created, so that
// identity and unknown arcs apply to it.
func (a *Alphabet) addInputSymbol(s string) (Symbol, error) {
	if sym, ok := a.index[s]; ok && a.tokenizable(sym) {
		return sym, nil
	}
	sym, err := a.define(s)
	if err != nil {
		return NoSymbol, err
	}
	tracer().Debugf("added dynamic input symbol %q = %d", s, sym)
	return sym, nil
}
