/*
Package att reads transducers in AT&T tabular text format.

Every line is either an arc

	source<TAB>target<TAB>input<TAB>output[<TAB>weight]

or a final state

	state[<TAB>weight]

State 0 is the start state. "@0@" and "@_EPSILON_SYMBOL_@" denote epsilon,
"@_SPACE_@" and "@_TAB_@" a blank and a tab. Only a single transducer per
stream is supported.

The result is an oltable.Builder together with the alphabet it refers to,
ready to be laid out into optimized-lookup tables.

# BSD License

Copyright (c) Norbert Pillmayer <norbert@pillmayer@com>

All rights reserved.

License information is available in the LICENSE file.
*/
package att

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/npillmayer/hfstol/alphabet"
	"github.com/npillmayer/hfstol/oltable"
	"github.com/npillmayer/schuko/tracing"
)

// tracer writes to trace with key 'hfstol.att'
func tracer() tracing.Trace {
	return tracing.Select("hfstol.att")
}

// ErrSyntax is wrapped by all errors about malformed lines.
var ErrSyntax = errors.New("AT&T syntax error")

type arc struct {
	src, dst int
	in, out  string
	weight   float32
}

type final struct {
	state  int
	weight float32
}

// Read parses an AT&T transducer. The builder is weighted if any line carries
// a weight.
func Read(r io.Reader) (*oltable.Builder, *alphabet.Alphabet, error) {
	var arcs []arc
	var finals []final
	weighted := false
	scanner := bufio.NewScanner(r)
	lineno := 0
	for scanner.Scan() {
		lineno++
		line := strings.TrimRight(scanner.Text(), "\r")
		if line == "" {
			continue
		}
		if line == "--" {
			return nil, nil, fmt.Errorf("%w: line %d: multiple transducers not supported", ErrSyntax, lineno)
		}
		fields := strings.Split(line, "\t")
		var err error
		switch len(fields) {
		case 1, 2:
			f := final{}
			if f.state, err = parseState(fields[0]); err != nil {
				break
			}
			if len(fields) == 2 {
				weighted = true
				f.weight, err = parseWeight(fields[1])
			}
			finals = append(finals, f)
		case 4, 5:
			a := arc{in: decode(fields[2]), out: decode(fields[3])}
			if a.src, err = parseState(fields[0]); err != nil {
				break
			}
			if a.dst, err = parseState(fields[1]); err != nil {
				break
			}
			if len(fields) == 5 {
				weighted = true
				a.weight, err = parseWeight(fields[4])
			}
			arcs = append(arcs, a)
		default:
			err = fmt.Errorf("%d fields", len(fields))
		}
		if err != nil {
			return nil, nil, fmt.Errorf("%w: line %d: %v", ErrSyntax, lineno, err)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, nil, err
	}
	return assemble(arcs, finals, weighted)
}

// assemble interns symbols in order of appearance and numbers states densely,
// keeping state 0 as the start state.
func assemble(arcs []arc, finals []final, weighted bool) (*oltable.Builder, *alphabet.Alphabet, error) {
	symbols := []string{alphabet.EpsilonString}
	symIndex := map[string]alphabet.Symbol{alphabet.EpsilonString: alphabet.Epsilon}
	intern := func(s string) alphabet.Symbol {
		if sym, ok := symIndex[s]; ok {
			return sym
		}
		sym := alphabet.Symbol(len(symbols))
		symbols = append(symbols, s)
		symIndex[s] = sym
		return sym
	}
	type labels struct{ in, out alphabet.Symbol }
	arcLabels := make([]labels, len(arcs))
	for i, a := range arcs {
		arcLabels[i].in = intern(a.in)
	}
	for i, a := range arcs {
		arcLabels[i].out = intern(a.out)
	}
	if len(symbols) >= int(alphabet.NoSymbol) {
		return nil, nil, fmt.Errorf("%w: %d symbols", alphabet.ErrAlphabetFull, len(symbols))
	}
	alpha, err := alphabet.FromStrings(symbols)
	if err != nil {
		return nil, nil, err
	}
	b := oltable.NewBuilder(weighted)
	states := map[int]oltable.StateID{0: 0}
	state := func(n int) oltable.StateID {
		if id, ok := states[n]; ok {
			return id
		}
		id := b.AddState()
		states[n] = id
		return id
	}
	for i, a := range arcs {
		b.AddArc(state(a.src), arcLabels[i].in, arcLabels[i].out, state(a.dst), a.weight)
	}
	for _, f := range finals {
		b.SetFinal(state(f.state), f.weight)
	}
	tracer().Debugf("read %d arcs, %d final states, %d symbols", len(arcs), len(finals), len(symbols))
	return b, alpha, nil
}

func parseState(s string) (int, error) {
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("invalid state %q", s)
	}
	return n, nil
}

func parseWeight(s string) (float32, error) {
	w, err := strconv.ParseFloat(s, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid weight %q", s)
	}
	return float32(w), nil
}

func decode(s string) string {
	switch s {
	case "@0@", alphabet.EpsilonString:
		return alphabet.EpsilonString
	case "@_SPACE_@":
		return " "
	case "@_TAB_@":
		return "\t"
	}
	return s
}
