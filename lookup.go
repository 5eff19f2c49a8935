package hfstol

import (
	"slices"
	"time"

	"github.com/npillmayer/hfstol/alphabet"
	"github.com/npillmayer/hfstol/flags"
	"github.com/npillmayer/hfstol/oltable"
)

// Path is an accepted path through a transducer.
type Path struct {
	Output   []alphabet.Symbol // output symbols, without epsilons and flag diacritics
	Weight   float32           // sum of arc weights and final weight
	Consumed int               // number of input symbols consumed
}

// comparePaths orders paths by weight, then by output sequence.
func comparePaths(a, b Path) int {
	switch {
	case a.Weight < b.Weight:
		return -1
	case a.Weight > b.Weight:
		return 1
	}
	return slices.Compare(a.Output, b.Output)
}

// LookupOption configures a single lookup.
type LookupOption func(*lookupConfig)

type lookupConfig struct {
	maxResults int
	firstOnly  bool
	cutoff     time.Duration
}

// MaxResults limits the result to the n best paths (N-best).
// n ≤ 0 means no limit.
func MaxResults(n int) LookupOption {
	return func(c *lookupConfig) {
		c.maxResults = n
	}
}

// BestOnly limits the result to the single best path.
func BestOnly() LookupOption {
	return MaxResults(1)
}

// FirstOnly stops the search at the first accepted path, in table order.
func FirstOnly() LookupOption {
	return func(c *lookupConfig) {
		c.firstOnly = true
	}
}

// TimeCutoff bounds the wall-clock time of a lookup. When it expires, the
// search unwinds and the results found so far are returned. d ≤ 0 means no
// limit.
func TimeCutoff(d time.Duration) LookupOption {
	return func(c *lookupConfig) {
		c.cutoff = d
	}
}

func newLookupConfig(opts []LookupOption) lookupConfig {
	var c lookupConfig
	for _, opt := range opts {
		opt(&c)
	}
	return c
}

type matchMode int

const (
	modeLookup matchMode = iota // paths consuming the complete input
	modeMatch                   // longest accepted prefix
	modeLoops                   // search for cycles without input consumption
)

// cutoffCheckInterval is the number of steps between clock reads.
const cutoffCheckInterval = 256

// visit is a (state, flag values) pair seen at an input position. The values
// are kept on the matcher's saved stack, starting at offset flags.
type visit struct {
	state oltable.Ref
	flags int
}

// matcher holds the mutable state of one walk over a transducer.
type matcher struct {
	tables    *oltable.Tables
	alpha     *alphabet.Alphabet
	mode      matchMode
	config    lookupConfig
	origCount int
	identity  alphabet.Symbol
	unknown   alphabet.Symbol
	deflt     alphabet.Symbol
	input     []alphabet.Symbol // terminated by NoSymbol
	output    []alphabet.Symbol
	fd        *flags.State
	visits    [][]visit     // per input position, states on the current path
	saved     []flags.Value // flag values of visits and flag arcs, last in first out
	results   map[string]Path
	best      Path
	found     bool
	loop      bool
	stop      bool
	steps     int
	deadline  time.Time
	expired   bool
}

func newMatcher(t *Transducer, mode matchMode, input []alphabet.Symbol, config lookupConfig) *matcher {
	tape := make([]alphabet.Symbol, len(input)+1)
	copy(tape, input)
	tape[len(input)] = alphabet.NoSymbol
	m := &matcher{
		tables:    t.tables,
		alpha:     t.alpha,
		mode:      mode,
		config:    config,
		origCount: t.alpha.OrigCount(),
		identity:  t.alpha.Special(alphabet.Identity),
		unknown:   t.alpha.Special(alphabet.Unknown),
		deflt:     t.alpha.Special(alphabet.Default),
		input:     tape,
		output:    make([]alphabet.Symbol, 0, 2*len(tape)),
		fd:        t.alpha.FlagTable().NewState(),
		visits:    make([][]visit, len(tape)),
		results:   make(map[string]Path),
	}
	if config.cutoff > 0 {
		m.deadline = time.Now().Add(config.cutoff)
	}
	return m
}

func (m *matcher) run() {
	m.getAnalyses(0, 0, oltable.Root, 0)
}

// tick counts a step and reports whether the walk has to unwind.
func (m *matcher) tick() bool {
	if m.stop {
		return true
	}
	m.steps++
	if !m.deadline.IsZero() && m.steps%cutoffCheckInterval == 0 && time.Now().After(m.deadline) {
		tracer().Infof("lookup cut off after %d steps", m.steps)
		m.expired, m.stop = true, true
	}
	return m.stop
}

func (m *matcher) setOutput(pos int, sym alphabet.Symbol) {
	if pos < len(m.output) {
		m.output[pos] = sym
		return
	}
	invariant(pos == len(m.output), "output tape written out of order")
	m.output = append(m.output, sym)
}

// enter records state at input position pos on the current path. It reports
// false if the same state with the same flag values is already on the path
// at this position, i.e. the path has run through a cycle without consuming
// input.
func (m *matcher) enter(pos int, state oltable.Ref) bool {
	n := m.fd.Len()
	for _, v := range m.visits[pos] {
		if v.state == state && m.fd.EqualValues(m.saved[v.flags:v.flags+n]) {
			return false
		}
	}
	m.visits[pos] = append(m.visits[pos], visit{state: state, flags: len(m.saved)})
	m.saved = m.fd.AppendValues(m.saved)
	return true
}

func (m *matcher) leave(pos int) {
	last := len(m.visits[pos]) - 1
	m.saved = m.saved[:m.visits[pos][last].flags]
	m.visits[pos] = m.visits[pos][:last]
}

// getAnalyses explores state at input position inPos. Epsilon and flag arcs
// come first, then finality, then arcs consuming input.
func (m *matcher) getAnalyses(inPos, outPos int, state oltable.Ref, weight float32) {
	if m.tick() {
		return
	}
	if !m.enter(inPos, state) {
		m.loop = true
		if m.mode == modeLoops {
			m.stop = true
		}
		return
	}
	defer m.leave(inPos)
	if pos, ok := m.tables.EpsilonRun(state); ok {
		m.tryEpsilonTransitions(inPos, outPos, pos, weight)
	}
	if m.tables.Final(state) {
		m.noteAnalysis(inPos, outPos, weight+m.tables.FinalWeight(state))
	}
	sym := m.input[inPos]
	if sym == alphabet.NoSymbol {
		return
	}
	inPos++
	found := false
	if int(sym) < m.origCount {
		found = m.findTransitions(sym, inPos, outPos, state, weight)
	} else if m.identity != alphabet.NoSymbol {
		found = m.findTransitions(m.identity, inPos, outPos, state, weight)
	}
	if m.unknown != alphabet.NoSymbol {
		found = m.findTransitions(m.unknown, inPos, outPos, state, weight) || found
	}
	if !found && m.deflt != alphabet.NoSymbol {
		m.findTransitions(m.deflt, inPos, outPos, state, weight)
	}
}

// tryEpsilonTransitions follows the run of epsilon and flag diacritic arcs
// starting at transition table position pos.
func (m *matcher) tryEpsilonTransitions(inPos, outPos int, pos uint32, weight float32) {
	for ; !m.stop; pos++ {
		arc := m.tables.Arc(pos)
		switch {
		case arc.Input == alphabet.Epsilon:
			out := arc.Output
			if m.unknown != alphabet.NoSymbol && out == m.unknown && inPos > 0 {
				out = m.input[inPos-1]
			}
			m.setOutput(outPos, out)
			m.getAnalyses(inPos, outPos+1, arc.Target, weight+arc.Weight)
		case m.alpha.IsFlagDiacritic(arc.Input):
			op, _ := m.alpha.Operation(arc.Input)
			mark := len(m.saved)
			m.saved = m.fd.AppendValues(m.saved)
			if m.fd.Apply(op) {
				m.setOutput(outPos, arc.Output)
				m.getAnalyses(inPos, outPos+1, arc.Target, weight+arc.Weight)
			}
			m.fd.Assign(m.saved[mark:])
			m.saved = m.saved[:mark]
		case m.alpha.IsInsertionSymbol(arc.Input):
			// calls of sub-networks need a pmatch container
			continue
		default:
			return
		}
	}
}

// findTransitions follows the arcs of state with input sym, which has been
// read from position inPos-1. It reports whether any arc was found.
func (m *matcher) findTransitions(sym alphabet.Symbol, inPos, outPos int, state oltable.Ref, weight float32) bool {
	pos, ok := m.tables.SymbolRun(state, sym)
	if !ok {
		return false
	}
	found := false
	for ; !m.stop; pos++ {
		arc := m.tables.Arc(pos)
		if arc.Input != sym || arc.Input == alphabet.NoSymbol {
			break
		}
		found = true
		out := arc.Output
		switch {
		case sym == m.identity:
			out = m.input[inPos-1]
		case out == m.unknown || out == m.deflt:
			if out != alphabet.NoSymbol {
				out = m.input[inPos-1]
			}
		}
		m.setOutput(outPos, out)
		m.getAnalyses(inPos, outPos+1, arc.Target, weight+arc.Weight)
	}
	return found
}

// noteAnalysis records an accepted path ending at input position inPos.
func (m *matcher) noteAnalysis(inPos, outPos int, weight float32) {
	switch m.mode {
	case modeLoops:
		return
	case modeMatch:
		// strictly longer matches replace the best one, ties keep the first
		if m.found && inPos <= m.best.Consumed {
			return
		}
		m.best = m.path(inPos, outPos, weight)
		m.found = true
	case modeLookup:
		if m.input[inPos] != alphabet.NoSymbol {
			return
		}
		p := m.path(inPos, outPos, weight)
		key := symbolKey(p.Output)
		if old, ok := m.results[key]; !ok || weight < old.Weight {
			m.results[key] = p
		}
	}
	if m.config.firstOnly {
		m.stop = true
	}
}

func (m *matcher) path(inPos, outPos int, weight float32) Path {
	out := make([]alphabet.Symbol, 0, outPos)
	for _, sym := range m.output[:outPos] {
		if sym == alphabet.Epsilon || m.alpha.IsFlagDiacritic(sym) {
			continue
		}
		out = append(out, sym)
	}
	return Path{Output: out, Weight: weight, Consumed: inPos}
}

func symbolKey(symbols []alphabet.Symbol) string {
	b := make([]byte, 0, 2*len(symbols))
	for _, sym := range symbols {
		b = append(b, byte(sym>>8), byte(sym))
	}
	return string(b)
}

// sorted returns the collected paths, best first.
func (m *matcher) sorted() []Path {
	paths := make([]Path, 0, len(m.results))
	for _, p := range m.results {
		paths = append(paths, p)
	}
	slices.SortFunc(paths, comparePaths)
	if n := m.config.maxResults; n > 0 && len(paths) > n {
		paths = paths[:n]
	}
	return paths
}

// Lookup returns the paths consuming all of input, deduplicated by output
// (keeping the lowest weight) and ordered by weight, then output.
// No match is an empty result, not an error.
//
// Cycles without input consumption are not followed twice on the same
// path, so lookup terminates for every transducer; use LookupChecked to
// learn whether results have been lost that way.
func (t *Transducer) Lookup(input []alphabet.Symbol, opts ...LookupOption) []Path {
	config := newLookupConfig(opts)
	start := time.Now()
	m := newMatcher(t, modeLookup, input, config)
	m.run()
	paths := m.sorted()
	observeLookup("lookup", start, len(paths), m.expired)
	tracer().Debugf("lookup of %d symbols: %d paths in %d steps", len(input), len(paths), m.steps)
	return paths
}

// Match returns the longest accepted prefix of input. Among matches of equal
// length, the first one found in table order wins.
func (t *Transducer) Match(input []alphabet.Symbol, opts ...LookupOption) (Path, bool) {
	config := newLookupConfig(opts)
	start := time.Now()
	m := newMatcher(t, modeMatch, input, config)
	m.run()
	n := 0
	if m.found {
		n = 1
	}
	observeLookup("match", start, n, m.expired)
	return m.best, m.found
}

// Analysis is a lookup result rendered as a string.
type Analysis struct {
	Output string
	Weight float32
}

// LookupString tokenizes s and looks it up. Tokenization is strict unless
// the transducer handles unknown input, in which case unknown characters are
// added to the alphabet.
func (t *Transducer) LookupString(s string, opts ...LookupOption) ([]Analysis, error) {
	input, err := t.alpha.Tokenize(s, t.handlesUnknown())
	if err != nil {
		return nil, err
	}
	paths := t.Lookup(input, opts...)
	return t.analyses(paths), nil
}

func (t *Transducer) analyses(paths []Path) []Analysis {
	result := make([]Analysis, len(paths))
	for i, p := range paths {
		result[i] = Analysis{Output: t.alpha.Stringify(p.Output), Weight: p.Weight}
	}
	return result
}
