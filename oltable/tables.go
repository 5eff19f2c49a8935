package oltable

import (
	"encoding/binary"
	"fmt"
	"io"
	"math"

	"github.com/npillmayer/hfstol/alphabet"
)

const (
	indexEntrySize      = 2 + 4
	transitionEntrySize = 2 + 2 + 4
	weightSize          = 4
	readChunk           = 4096 // entries per read
)

// Tables is the frozen pair of index and transition table of a transducer.
// Tables are read-only after construction and may be shared between
// goroutines.
//
// All accessors are total: addresses outside a table read as absent entries.
type Tables struct {
	Index       []IndexEntry
	Transitions []TransitionEntry
	Weighted    bool
}

// ReadTables reads the tables following the alphabet, with sizes as declared
// in h.
func ReadTables(r io.Reader, h Header) (*Tables, error) {
	t := &Tables{Weighted: h.Weighted}
	if err := t.readIndex(r, int(h.IndexTableSize)); err != nil {
		return nil, err
	}
	if err := t.readTransitions(r, int(h.TransitionTableSize)); err != nil {
		return nil, err
	}
	tracer().Debugf("read tables with %d index and %d transition entries",
		len(t.Index), len(t.Transitions))
	return t, nil
}

func truncated(what string, have, want int, err error) error {
	if err == io.EOF || err == io.ErrUnexpectedEOF {
		return fmt.Errorf("%w: %s entry %d of %d: %w", ErrTruncated, what, have, want, io.ErrUnexpectedEOF)
	}
	return err
}

func (t *Tables) readIndex(r io.Reader, n int) error {
	t.Index = make([]IndexEntry, 0, min(n, 1<<20))
	buf := make([]byte, readChunk*indexEntrySize)
	for len(t.Index) < n {
		k := min(n-len(t.Index), readChunk)
		b := buf[:k*indexEntrySize]
		if _, err := io.ReadFull(r, b); err != nil {
			return truncated("index", len(t.Index), n, err)
		}
		for ; len(b) > 0; b = b[indexEntrySize:] {
			t.Index = append(t.Index, IndexEntry{
				Input:  alphabet.Symbol(binary.LittleEndian.Uint16(b)),
				Target: TableIndex(binary.LittleEndian.Uint32(b[2:])),
			})
		}
	}
	return nil
}

func (t *Tables) entrySize() int {
	if t.Weighted {
		return transitionEntrySize + weightSize
	}
	return transitionEntrySize
}

func (t *Tables) readTransitions(r io.Reader, n int) error {
	size := t.entrySize()
	t.Transitions = make([]TransitionEntry, 0, min(n, 1<<20))
	buf := make([]byte, readChunk*size)
	for len(t.Transitions) < n {
		k := min(n-len(t.Transitions), readChunk)
		b := buf[:k*size]
		if _, err := io.ReadFull(r, b); err != nil {
			return truncated("transition", len(t.Transitions), n, err)
		}
		for ; len(b) > 0; b = b[size:] {
			e := TransitionEntry{
				Input:  alphabet.Symbol(binary.LittleEndian.Uint16(b)),
				Output: alphabet.Symbol(binary.LittleEndian.Uint16(b[2:])),
				Target: TableIndex(binary.LittleEndian.Uint32(b[4:])),
			}
			if t.Weighted {
				e.Weight = math.Float32frombits(binary.LittleEndian.Uint32(b[8:]))
			}
			t.Transitions = append(t.Transitions, e)
		}
	}
	return nil
}

// WriteTo serializes both tables.
func (t *Tables) WriteTo(w io.Writer) (int64, error) {
	var n int64
	buf := make([]byte, 0, readChunk*(transitionEntrySize+weightSize))
	flush := func() error {
		k, err := w.Write(buf)
		n += int64(k)
		buf = buf[:0]
		return err
	}
	for i, e := range t.Index {
		buf = binary.LittleEndian.AppendUint16(buf, uint16(e.Input))
		buf = binary.LittleEndian.AppendUint32(buf, uint32(e.Target))
		if (i+1)%readChunk == 0 {
			if err := flush(); err != nil {
				return n, err
			}
		}
	}
	for i, e := range t.Transitions {
		buf = binary.LittleEndian.AppendUint16(buf, uint16(e.Input))
		buf = binary.LittleEndian.AppendUint16(buf, uint16(e.Output))
		buf = binary.LittleEndian.AppendUint32(buf, uint32(e.Target))
		if t.Weighted {
			buf = binary.LittleEndian.AppendUint32(buf, math.Float32bits(e.Weight))
		}
		if (i+1)%readChunk == 0 {
			if err := flush(); err != nil {
				return n, err
			}
		}
	}
	err := flush()
	return n, err
}

// IndexAt returns index slot i.
func (t *Tables) IndexAt(i uint32) IndexEntry {
	if uint64(i) >= uint64(len(t.Index)) {
		return absentIndex
	}
	return t.Index[i]
}

// TransitionAt returns transition slot i.
func (t *Tables) TransitionAt(i uint32) TransitionEntry {
	if uint64(i) >= uint64(len(t.Transitions)) {
		return absentTransition
	}
	return t.Transitions[i]
}

// Final reports whether state is final.
func (t *Tables) Final(state Ref) bool {
	if state.Kind == IndexRef {
		return t.IndexAt(state.Offset).Final()
	}
	return t.TransitionAt(state.Offset).Final()
}

// FinalWeight returns the final weight of a final state, 0 for unweighted
// transducers.
func (t *Tables) FinalWeight(state Ref) float32 {
	if !t.Weighted {
		return 0
	}
	if state.Kind == IndexRef {
		return t.IndexAt(state.Offset).FinalWeight()
	}
	return t.TransitionAt(state.Offset).Weight
}

// EpsilonRun returns the transition table position where the epsilon and
// flag diacritic arcs of state start. Callers scan from there while the
// input symbol is epsilon or a flag diacritic.
func (t *Tables) EpsilonRun(state Ref) (uint32, bool) {
	if state.Kind == TransitionRef {
		return state.Offset + 1, true
	}
	return t.indexedRun(state.Offset, alphabet.Epsilon)
}

// SymbolRun returns the transition table position where arcs of state with
// input sym start. Callers scan from there while the input symbol equals sym.
func (t *Tables) SymbolRun(state Ref, sym alphabet.Symbol) (uint32, bool) {
	if state.Kind == TransitionRef {
		return state.Offset + 1, true
	}
	return t.indexedRun(state.Offset, sym)
}

func (t *Tables) indexedRun(base uint32, sym alphabet.Symbol) (uint32, bool) {
	e := t.IndexAt(base + 1 + uint32(sym))
	if e.Input != sym || e.Target < TransitionTargetTableStart || e.Target == NoTableIndex {
		return 0, false
	}
	return uint32(e.Target - TransitionTargetTableStart), true
}

// Arc returns the arc at transition table position pos.
func (t *Tables) Arc(pos uint32) Arc {
	e := t.TransitionAt(pos)
	return Arc{Input: e.Input, Output: e.Output, Target: e.Target.Ref(), Weight: e.Weight, Pos: pos}
}

// Step returns all arcs of state with input sym, in table order.
func (t *Tables) Step(state Ref, sym alphabet.Symbol) []Arc {
	pos, ok := t.SymbolRun(state, sym)
	if !ok || sym == alphabet.NoSymbol {
		return nil
	}
	var arcs []Arc
	for ; t.TransitionAt(pos).Input == sym; pos++ {
		arcs = append(arcs, t.Arc(pos))
	}
	return arcs
}

// Arcs enumerates all outgoing arcs of state, in table order.
func (t *Tables) Arcs(state Ref) []Arc {
	var arcs []Arc
	if state.Kind == TransitionRef {
		for pos := state.Offset + 1; t.TransitionAt(pos).Input != alphabet.NoSymbol; pos++ {
			arcs = append(arcs, t.Arc(pos))
		}
		return arcs
	}
	// Runs of an indexed state are announced by its index block. The epsilon
	// run may also hold flag diacritics, so it ends where another run starts.
	base := state.Offset
	starts := make(map[uint32]bool)
	var symbols []alphabet.Symbol
	for s := 1; s < int(alphabet.NoSymbol) && int(base)+1+s < len(t.Index); s++ {
		if pos, ok := t.indexedRun(base, alphabet.Symbol(s)); ok {
			starts[pos] = true
			symbols = append(symbols, alphabet.Symbol(s))
		}
	}
	if pos, ok := t.indexedRun(base, alphabet.Epsilon); ok {
		for ; t.TransitionAt(pos).Input != alphabet.NoSymbol && !starts[pos]; pos++ {
			arcs = append(arcs, t.Arc(pos))
		}
	}
	for _, s := range symbols {
		arcs = append(arcs, t.Step(state, s)...)
	}
	return arcs
}

// Stats describes the space usage of the tables.
type Stats struct {
	IndexSlots      int
	UsedIndexSlots  int
	TransitionSlots int
	Arcs            int
}

// FillRatio is the share of index slots in use.
func (s Stats) FillRatio() float64 {
	if s.IndexSlots == 0 {
		return 0
	}
	return float64(s.UsedIndexSlots) / float64(s.IndexSlots)
}

// Stats counts used slots.
func (t *Tables) Stats() Stats {
	stats := Stats{IndexSlots: len(t.Index), TransitionSlots: len(t.Transitions)}
	for _, e := range t.Index {
		if e.Input != alphabet.NoSymbol || e.Final() {
			stats.UsedIndexSlots++
		}
	}
	for _, e := range t.Transitions {
		if e.Input != alphabet.NoSymbol {
			stats.Arcs++
		}
	}
	return stats
}
