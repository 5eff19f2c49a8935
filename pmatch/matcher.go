package pmatch

import (
	"time"

	"github.com/npillmayer/hfstol/alphabet"
	"github.com/npillmayer/hfstol/flags"
	"github.com/npillmayer/hfstol/oltable"
)

// contextKind tells which kind of context a frame is checking.
type contextKind int

const (
	noContext contextKind = iota
	leftContext
	rightContext
	negLeftContext
	negRightContext
)

func (k contextKind) negative() bool {
	return k == negLeftContext || k == negRightContext
}

// frame holds the variables local to a network activation or a context
// check. Frames are stacked: entering a context, leaving it and calling a
// sub-network each push a frame.
type frame struct {
	fd          *flags.State
	step        int // +1, or -1 while checking a left context
	context     contextKind
	placeholder int  // input position to return to after a context check
	negSuccess  bool // a negative context has matched
}

// call holds the best result of an activation of a network.
type call struct {
	best      []alphabet.Symbol
	candidate int // input position reached by best
	outHead   int // output position where the activation started writing
}

// visit is a configuration seen at an input position. Its flag values are
// kept on the matcher's saved stack, starting at offset flags.
type visit struct {
	tables *oltable.Tables
	state  oltable.Ref
	depth  int
	flags  int
}

// cutoffCheckInterval is the number of steps between clock reads.
const cutoffCheckInterval = 256

// maxCallDepth bounds nested calls of sub-networks at the same input
// position, i.e. left recursion.
const maxCallDepth = 512

// matcher walks the networks of a container. It is reused between matches
// of one input.
type matcher struct {
	c        *Container
	input    []alphabet.Symbol
	output   []alphabet.Symbol
	locals   []frame
	calls    []call
	visits   [][]visit     // per input position, configurations on the current path
	saved    []flags.Value // flag values of visits and flag arcs, last in first out
	steps    int
	deadline time.Time
	expired  bool
	stop     bool
	// reserved symbols of the shared alphabet
	origCount   int
	identity    alphabet.Symbol
	unknown     alphabet.Symbol
	passthrough alphabet.Symbol
	entries     map[alphabet.Symbol]contextKind
	exits       [negRightContext + 1]alphabet.Symbol
}

func newMatcher(c *Container) *matcher {
	a := c.alpha
	m := &matcher{
		c:           c,
		origCount:   a.OrigCount(),
		identity:    a.Special(alphabet.Identity),
		unknown:     a.Special(alphabet.Unknown),
		passthrough: a.Special(alphabet.Passthrough),
		entries:     make(map[alphabet.Symbol]contextKind),
	}
	for kind, sp := range map[contextKind][2]alphabet.Special{
		leftContext:     {alphabet.LCEntry, alphabet.LCExit},
		rightContext:    {alphabet.RCEntry, alphabet.RCExit},
		negLeftContext:  {alphabet.NLCEntry, alphabet.NLCExit},
		negRightContext: {alphabet.NRCEntry, alphabet.NRCExit},
	} {
		if sym := a.Special(sp[0]); sym != alphabet.NoSymbol {
			m.entries[sym] = kind
		}
		m.exits[kind] = a.Special(sp[1])
	}
	return m
}

// reset prepares for a new input tape.
func (m *matcher) reset(tape []alphabet.Symbol, cutoff time.Duration) {
	m.input = tape
	m.output = m.output[:0]
	m.visits = make([][]visit, len(tape))
	m.saved = m.saved[:0]
	m.steps = 0
	m.expired, m.stop = false, false
	m.deadline = time.Time{}
	if cutoff > 0 {
		m.deadline = time.Now().Add(cutoff)
	}
}

// match runs the top-level network at input position pos. It returns the
// output of the longest match and the input position after it; the position
// is pos if nothing matched.
func (m *matcher) match(pos int) ([]alphabet.Symbol, int) {
	m.locals = append(m.locals[:0], frame{fd: m.c.alpha.FlagTable().NewState(), step: 1})
	m.calls = append(m.calls[:0], call{candidate: pos})
	m.getAnalyses(m.c.top.tables, pos, 0, oltable.Root)
	return m.calls[0].best, m.calls[0].candidate
}

func (m *matcher) top() *frame {
	return &m.locals[len(m.locals)-1]
}

func (m *matcher) push(f frame) {
	m.locals = append(m.locals, f)
}

func (m *matcher) pop() {
	m.locals = m.locals[:len(m.locals)-1]
}

func (m *matcher) checking() bool {
	return m.top().context != noContext
}

func (m *matcher) tick() bool {
	if m.stop {
		return true
	}
	m.steps++
	if !m.deadline.IsZero() && m.steps%cutoffCheckInterval == 0 && time.Now().After(m.deadline) {
		tracer().Infof("matching cut off after %d steps", m.steps)
		m.expired, m.stop = true, true
	}
	return m.stop
}

func (m *matcher) setOutput(pos int, sym alphabet.Symbol) {
	if pos < len(m.output) {
		m.output[pos] = sym
		return
	}
	m.output = append(m.output, make([]alphabet.Symbol, pos+1-len(m.output))...)
	m.output[pos] = sym
}

// enter records a configuration at input position pos on the current path.
// It reports false if the path has come back to it without consuming input.
func (m *matcher) enter(t *oltable.Tables, pos int, state oltable.Ref) bool {
	fd := m.top().fd
	depth := len(m.locals)
	n := fd.Len()
	for _, v := range m.visits[pos] {
		if v.tables == t && v.state == state && v.depth == depth && fd.EqualValues(m.saved[v.flags:v.flags+n]) {
			return false
		}
	}
	m.visits[pos] = append(m.visits[pos], visit{tables: t, state: state, depth: depth, flags: len(m.saved)})
	m.saved = fd.AppendValues(m.saved)
	return true
}

func (m *matcher) leave(pos int) {
	last := len(m.visits[pos]) - 1
	m.saved = m.saved[:m.visits[pos][last].flags]
	m.visits[pos] = m.visits[pos][:last]
}

// getAnalyses explores state of network t at input position inPos. Epsilon,
// flag diacritic and insertion arcs come first, then a passthrough scheduled
// by a failed negative context, then finality, then arcs consuming input.
func (m *matcher) getAnalyses(t *oltable.Tables, inPos, outPos int, state oltable.Ref) {
	if m.tick() {
		return
	}
	if !m.enter(t, inPos, state) {
		tracer().Debugf("cycle without input consumption at position %d", inPos)
		return
	}
	defer m.leave(inPos)
	pending := false
	if pos, ok := t.EpsilonRun(state); ok {
		pending = m.tryEpsilonTransitions(t, inPos, outPos, pos)
	}
	if pending && m.passthrough != alphabet.NoSymbol {
		m.findTransitions(t, m.passthrough, inPos, outPos, state)
	}
	if t.Final(state) {
		m.noteAnalysis(inPos, outPos)
	}
	sym := m.input[inPos]
	if sym == alphabet.NoSymbol {
		return
	}
	next := inPos + m.top().step
	if int(sym) < m.origCount {
		m.findTransitions(t, sym, next, outPos, state)
	} else if m.identity != alphabet.NoSymbol {
		m.findTransitions(t, m.identity, next, outPos, state)
	}
	if m.unknown != alphabet.NoSymbol {
		m.findTransitions(t, m.unknown, next, outPos, state)
	}
}

// tryEpsilonTransitions follows the run of arcs not consuming input,
// starting at transition table position pos. It reports whether a negative
// context checked on the way did not match, so that the passthrough arcs of
// the state have to be taken.
func (m *matcher) tryEpsilonTransitions(t *oltable.Tables, inPos, outPos int, pos uint32) (passthrough bool) {
	alpha := m.c.alpha
	for ; !m.stop; pos++ {
		arc := t.Arc(pos)
		switch {
		case arc.Input == alphabet.Epsilon:
			out := arc.Output
			if m.unknown != alphabet.NoSymbol && out == m.unknown && inPos > 0 {
				out = m.input[inPos-1]
			}
			if !m.checking() {
				if kind, ok := m.entries[out]; ok {
					if m.checkContext(t, kind, inPos, outPos, arc.Target) {
						passthrough = true
					}
					continue
				}
				m.setOutput(outPos, out)
				m.getAnalyses(t, inPos, outPos+1, arc.Target)
				continue
			}
			if m.exitsContext(out) {
				f := *m.top()
				m.push(frame{fd: f.fd, step: 1, placeholder: f.placeholder})
				m.getAnalyses(t, f.placeholder, outPos, arc.Target)
				m.pop()
			} else if !m.top().negSuccess {
				// output is left alone while checking context
				m.getAnalyses(t, inPos, outPos, arc.Target)
			}
		case alpha.IsFlagDiacritic(arc.Input):
			op, _ := alpha.Operation(arc.Input)
			fd := m.top().fd
			mark := len(m.saved)
			m.saved = fd.AppendValues(m.saved)
			if fd.Apply(op) {
				m.setOutput(outPos, arc.Output)
				m.getAnalyses(t, inPos, outPos+1, arc.Target)
			}
			fd.Assign(m.saved[mark:])
			m.saved = m.saved[:mark]
		case alpha.IsInsertionSymbol(arc.Input):
			rtn, ok := m.c.rtns[arc.Input]
			if !ok {
				name, _ := alpha.InsertionName(arc.Input)
				tracer().Debugf("no network %q loaded, arc skipped", name)
				continue
			}
			best, next := m.call(rtn, inPos, outPos)
			if next != inPos {
				for i, sym := range best {
					m.setOutput(outPos+i, sym)
				}
				m.getAnalyses(t, next, outPos+len(best), arc.Target)
			}
		default:
			return passthrough
		}
	}
	return passthrough
}

// checkContext checks the context opened by an entry marker, starting one
// symbol back for left contexts. The walk continues behind the exit marker
// of a positive context. checkContext reports whether kind is a negative
// context which did not match.
func (m *matcher) checkContext(t *oltable.Tables, kind contextKind, inPos, outPos int, target oltable.Ref) bool {
	f := frame{fd: m.top().fd, step: 1, context: kind, placeholder: inPos}
	start := inPos
	if kind == leftContext || kind == negLeftContext {
		f.step = -1
		start--
	}
	m.push(f)
	m.getAnalyses(t, start, outPos, target)
	matched := m.top().negSuccess
	m.pop()
	return kind.negative() && !matched
}

// exitsContext reports whether sym closes the positive context being
// checked. The exit marker of a negative context records its success instead.
func (m *matcher) exitsContext(sym alphabet.Symbol) bool {
	f := m.top()
	if sym != m.exits[f.context] || sym == alphabet.NoSymbol {
		return false
	}
	if f.context.negative() {
		f.negSuccess = true
		return false
	}
	return true
}

// call runs sub-network rtn at input position inPos, with fresh flag
// diacritic state. It returns the output of the longest match and the
// input position after it.
func (m *matcher) call(rtn *network, inPos, outPos int) ([]alphabet.Symbol, int) {
	if len(m.calls) >= maxCallDepth {
		tracer().Errorf("calls of %q nested too deeply at position %d", rtn.name, inPos)
		return nil, inPos
	}
	rtnCalls.Inc()
	m.calls = append(m.calls, call{candidate: inPos, outHead: outPos})
	m.push(frame{fd: m.c.alpha.FlagTable().NewState(), step: 1})
	m.getAnalyses(rtn.tables, inPos, outPos, oltable.Root)
	m.pop()
	c := m.calls[len(m.calls)-1]
	m.calls = m.calls[:len(m.calls)-1]
	return c.best, c.candidate
}

// noteAnalysis records an accepted path of the current network activation
// if it consumed more input than the best one so far.
func (m *matcher) noteAnalysis(inPos, outPos int) {
	c := &m.calls[len(m.calls)-1]
	if inPos > c.candidate {
		c.best = append(c.best[:0], m.output[c.outHead:outPos]...)
		c.candidate = inPos
	} else if m.c.opts.verbose && inPos == c.candidate {
		tracer().Infof("conflicting matches found, discarding %q",
			m.c.render(m.output[c.outHead:outPos]))
	}
}

// findTransitions follows the arcs of state with input sym. inPos is the
// input position behind sym.
func (m *matcher) findTransitions(t *oltable.Tables, sym alphabet.Symbol, inPos, outPos int, state oltable.Ref) {
	pos, ok := t.SymbolRun(state, sym)
	if !ok {
		return
	}
	for ; !m.stop; pos++ {
		arc := t.Arc(pos)
		if arc.Input != sym || arc.Input == alphabet.NoSymbol {
			return
		}
		if m.checking() {
			m.getAnalyses(t, inPos, outPos, arc.Target)
			continue
		}
		out := arc.Output
		if sym == m.identity || (m.unknown != alphabet.NoSymbol && out == m.unknown) {
			out = m.input[inPos-1]
		}
		m.setOutput(outPos, out)
		m.getAnalyses(t, inPos, outPos+1, arc.Target)
	}
}
