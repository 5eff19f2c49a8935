package flags

// State holds the current value of every feature along one lookup path.
//
// A State is not safe for concurrent use. Lookup paths which fork have to
// save and restore values around each branch (see Values and Assign), so that
// sibling branches never observe each other's mutations.
type State struct {
	values []Value
}

// NewState creates a state with all n features neutral.
func NewState(n int) *State {
	return &State{values: make([]Value, n)}
}

// Apply evaluates op against the state. A successful operation commits its
// mutation; a failing one leaves the state untouched and returns false.
func (s *State) Apply(op Operation) bool {
	f := int(op.Feature)
	if f >= len(s.values) { // feature unknown to this state, grow lazily
		s.values = append(s.values, make([]Value, f+1-len(s.values))...)
	}
	cur := s.values[f]
	switch op.Op {
	case Positive:
		s.values[f] = op.Value
		return true
	case Negative:
		s.values[f] = -op.Value
		return true
	case Require:
		if op.Value == 0 {
			return cur != 0
		}
		return cur == op.Value
	case Disallow:
		if op.Value == 0 {
			return cur == 0
		}
		return cur != op.Value
	case Clear:
		s.values[f] = 0
		return true
	case Unify:
		if cur == 0 || cur == op.Value || (cur < 0 && -cur != op.Value) {
			s.values[f] = op.Value
			return true
		}
		return false
	}
	return false
}

// Get returns the value of feature f.
func (s *State) Get(f Feature) Value {
	if int(f) >= len(s.values) {
		return 0
	}
	return s.values[f]
}

// Values returns a copy of the value vector, suitable for a later Assign.
func (s *State) Values() []Value {
	v := make([]Value, len(s.values))
	copy(v, s.values)
	return v
}

// AppendValues appends the value vector to dst. Matchers use it to save
// values on a stack without allocating per save.
func (s *State) AppendValues(dst []Value) []Value {
	return append(dst, s.values...)
}

// Len is the number of features.
func (s *State) Len() int {
	return len(s.values)
}

// Assign restores a value vector previously saved with Values.
func (s *State) Assign(values []Value) {
	if cap(s.values) < len(values) {
		s.values = make([]Value, len(values))
	}
	s.values = s.values[:len(values)]
	copy(s.values, values)
}

// Clone returns an independent copy of s.
func (s *State) Clone() *State {
	return &State{values: s.Values()}
}

// Reset makes every feature neutral.
func (s *State) Reset() {
	clear(s.values)
}

// Equal reports whether two states hold identical values.
func (s *State) Equal(o *State) bool {
	if len(s.values) != len(o.values) {
		return false
	}
	for i, v := range s.values {
		if o.values[i] != v {
			return false
		}
	}
	return true
}

// EqualValues reports whether s holds exactly the values of a saved vector.
func (s *State) EqualValues(values []Value) bool {
	if len(s.values) != len(values) {
		return false
	}
	for i, v := range s.values {
		if values[i] != v {
			return false
		}
	}
	return true
}
