package flags

// Table is a collection of the flag diacritics of an alphabet, keyed by
// symbols of type K. Feature and value names are interned into small integers;
// the empty value name is the neutral value 0.
type Table[K comparable] struct {
	features   map[string]Feature
	values     map[string]Value
	operations map[K]Operation
	byName     map[string]K
}

// NewTable creates an empty diacritic table.
func NewTable[K comparable]() *Table[K] {
	return &Table[K]{
		features:   make(map[string]Feature),
		values:     map[string]Value{"": 0},
		operations: make(map[K]Operation),
		byName:     make(map[string]K),
	}
}

// Define parses diacritic string s and registers it for symbol.
// A malformed string results in an error wrapping ErrMalformedDiacritic.
func (t *Table[K]) Define(symbol K, s string) error {
	op, feat, val, err := split(s)
	if err != nil {
		tracer().Errorf("cannot define flag diacritic: %v", err)
		return err
	}
	f, ok := t.features[feat]
	if !ok {
		f = Feature(len(t.features))
		t.features[feat] = f
	}
	v, ok := t.values[val]
	if !ok {
		v = Value(len(t.values)) // values start at 1, 0 is neutral
		t.values[val] = v
	}
	t.operations[symbol] = Operation{Op: op, Feature: f, Value: v, Name: s}
	t.byName[s] = symbol
	return nil
}

// NumFeatures is the number of distinct features, i.e. the length of a State.
func (t *Table[K]) NumFeatures() int {
	return len(t.features)
}

// IsDiacritic reports whether symbol has been defined as a diacritic.
func (t *Table[K]) IsDiacritic(symbol K) bool {
	_, ok := t.operations[symbol]
	return ok
}

// Operation returns the operation for symbol.
func (t *Table[K]) Operation(symbol K) (Operation, bool) {
	op, ok := t.operations[symbol]
	return op, ok
}

// OperationByName returns the operation for a diacritic symbol string.
func (t *Table[K]) OperationByName(s string) (Operation, bool) {
	sym, ok := t.byName[s]
	if !ok {
		return Operation{}, false
	}
	return t.Operation(sym)
}

// NewState creates a neutral feature state for this table.
func (t *Table[K]) NewState() *State {
	return NewState(t.NumFeatures())
}

// IsValidString folds the diacritics of symbols over a fresh state,
// stopping at the first failure. Symbols which are not diacritics are ignored.
func (t *Table[K]) IsValidString(symbols []K) bool {
	state := t.NewState()
	for _, sym := range symbols {
		op, ok := t.operations[sym]
		if !ok {
			continue
		}
		if !state.Apply(op) {
			return false
		}
	}
	return true
}

// IsValidText checks all diacritics embedded in a symbol string, e.g.
// "cat@P.NUM.SG@+N@R.NUM.SG@". Diacritics unknown to the table are ignored.
func (t *Table[K]) IsValidText(s string) bool {
	state := t.NewState()
	for {
		start, length := FindDiacritic(s)
		if start < 0 {
			return true
		}
		if op, ok := t.OperationByName(s[start : start+length]); ok {
			if !state.Apply(op) {
				return false
			}
		}
		s = s[start+length:]
	}
}

// Clone returns an independent copy of the table.
func (t *Table[K]) Clone() *Table[K] {
	c := &Table[K]{
		features:   make(map[string]Feature, len(t.features)),
		values:     make(map[string]Value, len(t.values)),
		operations: make(map[K]Operation, len(t.operations)),
		byName:     make(map[string]K, len(t.byName)),
	}
	for k, v := range t.features {
		c.features[k] = v
	}
	for k, v := range t.values {
		c.values[k] = v
	}
	for k, v := range t.operations {
		c.operations[k] = v
	}
	for k, v := range t.byName {
		c.byName[k] = v
	}
	return c
}
