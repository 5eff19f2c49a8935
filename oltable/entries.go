/*
Package oltable implements the index and transition tables of an
optimized-lookup transducer.

A compiled transducer consists of two flat arrays. States with many outgoing
input symbols (and always the start state) own a block in the index table,
where the entry for input symbol s is found directly at block[1+s]. All other
states live in the transition table as a finality slot followed by a run of
arcs sorted by input symbol.

Both tables share one address space: a TableIndex at or above
TransitionTargetTableStart addresses the transition table, lower values
address the index table. Clients do not handle this arithmetic; addresses
decode into a Ref, which names the table explicitly.

# BSD License

Copyright (c) Norbert Pillmayer <norbert@pillmayer@com>

All rights reserved.

License information is available in the LICENSE file.
*/
package oltable

import (
	"fmt"
	"math"

	"github.com/npillmayer/hfstol/alphabet"
	"github.com/npillmayer/schuko/tracing"
)

// tracer writes to trace with key 'hfstol.oltable'
func tracer() tracing.Trace {
	return tracing.Select("hfstol.oltable")
}

// TableIndex is an address in the combined index/transition address space,
// as found in the serialized format.
type TableIndex uint32

const (
	// TransitionTargetTableStart is the boundary between index table addresses
	// (below) and transition table addresses (at or above).
	TransitionTargetTableStart TableIndex = 1 << 31
	// NoTableIndex marks an absent target.
	NoTableIndex TableIndex = math.MaxUint32
)

// Kind tells which table a Ref points into.
type Kind uint8

const (
	IndexRef Kind = iota
	TransitionRef
)

func (k Kind) String() string {
	if k == IndexRef {
		return "index"
	}
	return "transition"
}

// Ref is a decoded table address.
type Ref struct {
	Kind   Kind
	Offset uint32
}

// Root is the start state of every transducer.
var Root = Ref{Kind: IndexRef, Offset: 0}

// Ref decodes a raw address.
func (i TableIndex) Ref() Ref {
	if i >= TransitionTargetTableStart {
		return Ref{Kind: TransitionRef, Offset: uint32(i - TransitionTargetTableStart)}
	}
	return Ref{Kind: IndexRef, Offset: uint32(i)}
}

// Encode returns the raw address of r.
func (r Ref) Encode() TableIndex {
	if r.Kind == TransitionRef {
		return TransitionTargetTableStart + TableIndex(r.Offset)
	}
	return TableIndex(r.Offset)
}

func (r Ref) String() string {
	return fmt.Sprintf("%s:%d", r.Kind, r.Offset)
}

// IndexEntry is a slot of the index table.
type IndexEntry struct {
	Input  alphabet.Symbol
	Target TableIndex
}

var absentIndex = IndexEntry{Input: alphabet.NoSymbol, Target: NoTableIndex}

// Final reports whether e marks its block's state as final.
func (e IndexEntry) Final() bool {
	return e.Input == alphabet.NoSymbol && e.Target != NoTableIndex
}

// FinalWeight interprets the target bits of a final entry as a weight.
// Only meaningful for weighted transducers.
func (e IndexEntry) FinalWeight() float32 {
	return math.Float32frombits(uint32(e.Target))
}

// TransitionEntry is a slot of the transition table: either an arc or the
// finality slot heading a state.
type TransitionEntry struct {
	Input  alphabet.Symbol
	Output alphabet.Symbol
	Target TableIndex
	Weight float32
}

var absentTransition = TransitionEntry{Input: alphabet.NoSymbol, Output: alphabet.NoSymbol, Target: NoTableIndex}

// Final reports whether e is the finality slot of a final state.
func (e TransitionEntry) Final() bool {
	return e.Input == alphabet.NoSymbol && e.Output == alphabet.NoSymbol && e.Target == 1
}

// finalIndex creates the finality slot of an index block.
func finalIndex(final, weighted bool, w float32) IndexEntry {
	switch {
	case !final:
		return absentIndex
	case weighted:
		return IndexEntry{Input: alphabet.NoSymbol, Target: TableIndex(math.Float32bits(w))}
	}
	return IndexEntry{Input: alphabet.NoSymbol, Target: 1}
}

// finalTransition creates the finality slot of a transition table state.
func finalTransition(final bool, w float32) TransitionEntry {
	if !final {
		return TransitionEntry{Input: alphabet.NoSymbol, Output: alphabet.NoSymbol, Target: NoTableIndex}
	}
	return TransitionEntry{Input: alphabet.NoSymbol, Output: alphabet.NoSymbol, Target: 1, Weight: w}
}

// Arc is an outgoing transition of a state.
type Arc struct {
	Input  alphabet.Symbol
	Output alphabet.Symbol
	Target Ref
	Weight float32
	Pos    uint32 // position in the transition table
}
