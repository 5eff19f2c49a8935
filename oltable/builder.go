package oltable

import (
	"fmt"
	"sort"

	"github.com/npillmayer/hfstol/alphabet"
)

// StateID numbers the states of a Builder. The start state is 0.
type StateID int

type buildArc struct {
	in, out alphabet.Symbol
	target  StateID
	weight  float32
	key     alphabet.Symbol // index key: epsilon for flag diacritics
	pos     uint32          // position in the transition table, once laid out
}

type buildState struct {
	id     StateID
	arcs   []buildArc
	final  bool
	weight float32
	keys   []alphabet.Symbol // distinct index keys, ascending
	runs   map[alphabet.Symbol]uint32
	ttPos  uint32 // finality slot in the transition table
	base   int    // index block, -1 if none
}

// indexed reports whether the state gets an index block. The start state
// always does, as do states with more than one distinct input symbol.
func (s *buildState) indexed() bool {
	return s.id == 0 || len(s.keys) > 1
}

// Builder assembles index and transition tables from states and arcs.
// It serves fixtures and conversion from text formats; it does not
// determinize or minimize.
type Builder struct {
	weighted bool
	states   []*buildState
	epsLike  func(alphabet.Symbol) bool
	maxInput alphabet.Symbol
}

// NewBuilder creates a builder holding just the start state.
func NewBuilder(weighted bool) *Builder {
	b := &Builder{weighted: weighted}
	b.AddState()
	return b
}

// Weighted reports whether the builder produces weighted tables.
func (b *Builder) Weighted() bool {
	return b.weighted
}

// AddState adds a state and returns its id.
func (b *Builder) AddState() StateID {
	id := StateID(len(b.states))
	b.states = append(b.states, &buildState{id: id, base: -1})
	return id
}

// NumStates is the number of states added so far.
func (b *Builder) NumStates() int {
	return len(b.states)
}

// Ensure adds states until id is a valid state.
func (b *Builder) Ensure(id StateID) {
	for int(id) >= len(b.states) {
		b.AddState()
	}
}

// AddArc adds a transition in:out from state from to state to.
func (b *Builder) AddArc(from StateID, in, out alphabet.Symbol, to StateID, weight float32) {
	b.Ensure(from)
	b.Ensure(to)
	if !b.weighted {
		weight = 0
	}
	s := b.states[from]
	s.arcs = append(s.arcs, buildArc{in: in, out: out, target: to, weight: weight})
	if in > b.maxInput {
		b.maxInput = in
	}
}

// SetFinal marks a state as final.
func (b *Builder) SetFinal(id StateID, weight float32) {
	b.Ensure(id)
	if !b.weighted {
		weight = 0
	}
	b.states[id].final = true
	b.states[id].weight = weight
}

// Build lays out the tables. Flag diacritics and insertions of alpha are
// indexed together with epsilon, as matchers try them before consuming input.
// The returned header carries sizes, counts and properties; its symbol counts
// are taken from alpha.
func (b *Builder) Build(alpha *alphabet.Alphabet) (Header, *Tables, error) {
	if alpha.Len() > int(alphabet.NoSymbol) {
		return Header{}, nil, fmt.Errorf("alphabet of %d symbols too large", alpha.Len())
	}
	if int(b.maxInput) >= alpha.Len() {
		return Header{}, nil, fmt.Errorf("input symbol %d outside of alphabet", b.maxInput)
	}
	b.epsLike = alpha.EpsilonLike
	t := &Tables{Weighted: b.weighted}
	b.layoutTransitions(t)
	inputCount := int(b.maxInput) + 1
	b.placeIndexBlocks(t, inputCount)
	b.resolveTargets(t)
	h := Header{
		InputSymbols:        uint16(inputCount),
		Symbols:             uint16(alpha.Len()),
		IndexTableSize:      uint32(len(t.Index)),
		TransitionTableSize: uint32(len(t.Transitions)),
		States:              uint32(len(b.states)),
		Properties:          b.properties(),
	}
	for _, s := range b.states {
		h.Transitions += uint32(len(s.arcs))
	}
	stats := t.Stats()
	tracer().Infof("built tables for %d states: %d index slots (%.2f filled), %d transition slots",
		len(b.states), stats.IndexSlots, stats.FillRatio(), stats.TransitionSlots)
	return h, t, nil
}

// layoutTransitions sorts the arcs of every state and appends each state to
// the transition table, behind its finality slot.
func (b *Builder) layoutTransitions(t *Tables) {
	for _, s := range b.states {
		for i := range s.arcs {
			a := &s.arcs[i]
			a.key = a.in
			if b.epsLike(a.in) {
				a.key = alphabet.Epsilon
			}
		}
		sort.SliceStable(s.arcs, func(i, j int) bool {
			x, y := s.arcs[i], s.arcs[j]
			if x.key != y.key {
				return x.key < y.key
			}
			if x.in != y.in {
				return x.in < y.in
			}
			return x.out < y.out
		})
		s.ttPos = uint32(len(t.Transitions))
		t.Transitions = append(t.Transitions, finalTransition(s.final, s.weight))
		s.runs = make(map[alphabet.Symbol]uint32)
		s.keys = s.keys[:0]
		for i := range s.arcs {
			a := &s.arcs[i]
			a.pos = uint32(len(t.Transitions))
			if _, ok := s.runs[a.key]; !ok {
				s.runs[a.key] = a.pos
				s.keys = append(s.keys, a.key)
			}
			t.Transitions = append(t.Transitions, TransitionEntry{Input: a.in, Output: a.out, Weight: a.weight})
		}
	}
}

// placeIndexBlocks finds a base for every indexed state by first-fit search:
// a base fits if its finality slot and the slots of all its keys are free.
func (b *Builder) placeIndexBlocks(t *Tables, inputCount int) {
	var used []bool
	lowest := 0 // all slots below are taken
	maxBase := 0
	for _, s := range b.states {
		if !s.indexed() {
			continue
		}
		base := findBase(used, s.keys, lowest)
		s.base = base
		used = occupy(used, base)
		t.Index = ensureIndex(t.Index, base)
		t.Index[base] = finalIndex(s.final, b.weighted, s.weight)
		for _, key := range s.keys {
			slot := base + 1 + int(key)
			used = occupy(used, slot)
			t.Index = ensureIndex(t.Index, slot)
			t.Index[slot] = IndexEntry{Input: key, Target: TransitionTargetTableStart + TableIndex(s.runs[key])}
		}
		for lowest < len(used) && used[lowest] {
			lowest++
		}
		maxBase = max(maxBase, base)
	}
	// Pad for readers which index blocks without bounds checks.
	t.Index = ensureIndex(t.Index, maxBase+inputCount)
}

func findBase(used []bool, keys []alphabet.Symbol, from int) int {
	for base := from; ; base++ {
		if base < len(used) && used[base] {
			continue
		}
		ok := true
		for _, key := range keys {
			slot := base + 1 + int(key)
			if slot < len(used) && used[slot] {
				ok = false
				break
			}
		}
		if ok {
			return base
		}
	}
}

func occupy(used []bool, slot int) []bool {
	if slot >= len(used) {
		used = append(used, make([]bool, slot+1-len(used))...)
	}
	used[slot] = true
	return used
}

func ensureIndex(index []IndexEntry, slot int) []IndexEntry {
	for len(index) <= slot {
		index = append(index, absentIndex)
	}
	return index
}

// resolveTargets writes the address of every arc's target state.
func (b *Builder) resolveTargets(t *Tables) {
	for _, s := range b.states {
		for _, a := range s.arcs {
			target := b.states[a.target]
			var ref Ref
			if target.indexed() {
				ref = Ref{Kind: IndexRef, Offset: uint32(target.base)}
			} else {
				ref = Ref{Kind: TransitionRef, Offset: target.ttPos}
			}
			t.Transitions[a.pos].Target = ref.Encode()
		}
	}
}

// properties computes the header flags from the state graph.
func (b *Builder) properties() Properties {
	p := Properties{
		Weighted:           b.weighted,
		Deterministic:      true,
		InputDeterministic: true,
	}
	for _, s := range b.states {
		seen := make(map[[2]alphabet.Symbol]bool)
		seenIn := make(map[alphabet.Symbol]bool)
		for _, a := range s.arcs {
			label := [2]alphabet.Symbol{a.in, a.out}
			if seen[label] {
				p.Deterministic = false
			}
			if seenIn[a.in] {
				p.InputDeterministic = false
			}
			seen[label], seenIn[a.in] = true, true
			if a.in == alphabet.Epsilon {
				p.HasInputEpsilon = true
				p.InputDeterministic = false
				if a.out == alphabet.Epsilon {
					p.HasEpsilonEpsilon = true
				}
			}
		}
	}
	p.Cyclic = b.hasCycle(func(buildArc) bool { return true })
	p.HasInputEpsilonCycles = b.hasCycle(func(a buildArc) bool { return a.key == alphabet.Epsilon })
	p.HasUnweightedInputEpsilonCycles = b.hasCycle(func(a buildArc) bool {
		return a.key == alphabet.Epsilon && a.weight == 0
	})
	return p
}

// hasCycle searches the subgraph of arcs accepted by follow for a cycle.
func (b *Builder) hasCycle(follow func(buildArc) bool) bool {
	const (
		unvisited = iota
		onPath
		done
	)
	mark := make([]int, len(b.states))
	var visit func(StateID) bool
	visit = func(id StateID) bool {
		mark[id] = onPath
		for _, a := range b.states[id].arcs {
			if !follow(a) {
				continue
			}
			switch mark[a.target] {
			case onPath:
				return true
			case unvisited:
				if visit(a.target) {
					return true
				}
			}
		}
		mark[id] = done
		return false
	}
	for id := range b.states {
		if mark[id] == unvisited && visit(StateID(id)) {
			return true
		}
	}
	return false
}
