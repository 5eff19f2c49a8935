package hfstol

import (
	"fmt"
	"time"

	"github.com/npillmayer/hfstol/alphabet"
)

// InfiniteCutoff is the number of results LookupChecked returns for
// infinitely ambiguous input.
const InfiniteCutoff = 5

// IsInfinitelyAmbiguous reports whether looking up input can run through a
// cycle which consumes no input, i.e. revisit a state with identical flag
// diacritic values at the same input position.
func (t *Transducer) IsInfinitelyAmbiguous(input []alphabet.Symbol) bool {
	if !t.header.HasInputEpsilonCycles && !t.hasFlagCycles() {
		return false
	}
	m := newMatcher(t, modeLoops, input, lookupConfig{})
	m.run()
	if m.loop {
		infiniteAmbiguities.Inc()
	}
	return m.loop
}

// hasFlagCycles is conservative: header properties do not tell about cycles
// through flag diacritics, which the index layout treats like epsilon.
func (t *Transducer) hasFlagCycles() bool {
	return t.header.Cyclic && t.alpha.HasFlagDiacritics()
}

// LookupChecked looks up input, first checking for infinite ambiguity. For
// infinitely ambiguous input it returns the first InfiniteCutoff paths
// together with an error wrapping ErrInfinitelyAmbiguous.
func (t *Transducer) LookupChecked(input []alphabet.Symbol, opts ...LookupOption) ([]Path, error) {
	if !t.IsInfinitelyAmbiguous(input) {
		return t.Lookup(input, opts...), nil
	}
	config := newLookupConfig(opts)
	start := time.Now()
	m := newMatcher(t, modeLookup, input, config)
	m.run()
	paths := m.sorted()
	if len(paths) > InfiniteCutoff {
		paths = paths[:InfiniteCutoff]
	}
	observeLookup("lookup", start, len(paths), m.expired)
	return paths, fmt.Errorf("%w: %q", ErrInfinitelyAmbiguous, t.alpha.Stringify(input))
}
