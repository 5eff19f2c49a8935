/*
Package flags implements flag diacritics for optimized-lookup transducers.

Flag diacritics are reserved symbols of the form

	@P.FEATURE.VALUE@   positive set
	@N.FEATURE.VALUE@   negative set
	@R.FEATURE(.VALUE)@ require
	@D.FEATURE(.VALUE)@ disallow
	@C.FEATURE@         clear
	@U.FEATURE.VALUE@   unify

They do not consume input. Instead, every lookup path carries a vector of
feature values (type State) and each diacritic on the path either updates the
vector or rejects the path.

# BSD License

Copyright (c) Norbert Pillmayer <norbert@pillmayer@com>

All rights reserved.

License information is available in the LICENSE file.
*/
package flags

import (
	"errors"
	"fmt"
	"strings"

	"github.com/npillmayer/schuko/tracing"
)

// tracer writes to trace with key 'hfstol.flags'
func tracer() tracing.Trace {
	return tracing.Select("hfstol.flags")
}

// ErrMalformedDiacritic is returned when a symbol string looks like, but is not,
// a valid flag diacritic. For a compiled transducer this means the alphabet is
// corrupt.
var ErrMalformedDiacritic = errors.New("malformed flag diacritic")

// Operator is the kind of a flag diacritic operation.
type Operator int8

const (
	Positive Operator = iota // P: set feature to value
	Negative                 // N: set feature to "anything but value"
	Require                  // R: feature must be (any / this) value
	Disallow                 // D: feature must not be (any / this) value
	Clear                    // C: reset feature to neutral
	Unify                    // U: unify feature with value
)

func (op Operator) String() string {
	switch op {
	case Positive:
		return "P"
	case Negative:
		return "N"
	case Require:
		return "R"
	case Disallow:
		return "D"
	case Clear:
		return "C"
	case Unify:
		return "U"
	}
	return "?"
}

func operatorFromChar(c byte) (Operator, bool) {
	switch c {
	case 'P':
		return Positive, true
	case 'N':
		return Negative, true
	case 'R':
		return Require, true
	case 'D':
		return Disallow, true
	case 'C':
		return Clear, true
	case 'U':
		return Unify, true
	}
	return 0, false
}

// Feature identifies a flag feature within one Table.
type Feature uint16

// Value is a feature value. 0 is neutral (unset); negative values encode
// the result of a negative set.
type Value int16

// Operation is a compiled flag diacritic.
type Operation struct {
	Op      Operator
	Feature Feature
	Value   Value
	Name    string // the full symbol string, e.g. "@P.NUM.SG@"
}

func (op Operation) String() string {
	return fmt.Sprintf("%s(%d=%d)", op.Op, op.Feature, op.Value)
}

// IsDiacritic checks whether s has the surface form of a flag diacritic.
//
// s must be at least 5 bytes long, start and end with '@', have one of
// P, N, D, R, C, U as its second character and a full stop as its third.
// Without a second full stop (i.e., no value part) only R, D and C are legal.
func IsDiacritic(s string) bool {
	if len(s) < 5 {
		return false
	}
	if s[0] != '@' || s[len(s)-1] != '@' || s[2] != '.' {
		return false
	}
	if _, ok := operatorFromChar(s[1]); !ok {
		return false
	}
	if strings.LastIndexByte(s, '.') == 2 {
		switch s[1] {
		case 'R', 'D', 'C':
		default:
			return false
		}
	}
	return true
}

// FindDiacritic locates the first diacritic embedded in s. It returns the
// start position and byte length, or -1 if there is none.
func FindDiacritic(s string) (start int, length int) {
	start = strings.IndexByte(s, '@')
	for start >= 0 {
		end := strings.IndexByte(s[start+1:], '@')
		if end < 0 {
			return -1, 0
		}
		end += start + 1
		if IsDiacritic(s[start : end+1]) {
			return start, end + 1 - start
		}
		start = end // the closing '@' may open the next candidate
	}
	return -1, 0
}

// split separates a diacritic string into operator, feature name and value
// name. The value name is empty if the diacritic has no value part. An empty
// feature name is a feature like any other.
func split(s string) (op Operator, feature string, value string, err error) {
	if !IsDiacritic(s) {
		return 0, "", "", fmt.Errorf("%w: %q", ErrMalformedDiacritic, s)
	}
	op, _ = operatorFromChar(s[1])
	body := s[3 : len(s)-1] // between first full stop and closing '@'
	if dot := strings.IndexByte(body, '.'); dot >= 0 {
		feature, value = body[:dot], body[dot+1:]
	} else {
		feature = body
	}
	return op, feature, value, nil
}
