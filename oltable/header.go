package oltable

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

// ErrWrongType flags a header which cannot belong to an optimized-lookup
// transducer.
var ErrWrongType = errors.New("transducer has wrong type")

// ErrTruncated flags a stream ending within a header or table.
var ErrTruncated = errors.New("transducer stream truncated")

// Header is the fixed-size header preceding the alphabet.
type Header struct {
	InputSymbols        uint16
	Symbols             uint16
	IndexTableSize      uint32
	TransitionTableSize uint32
	States              uint32
	Transitions         uint32
	Properties
}

// Properties are the boolean header flags, stored as 32-bit 0 or 1.
type Properties struct {
	Weighted                        bool
	Deterministic                   bool
	InputDeterministic              bool
	Minimized                       bool
	Cyclic                          bool
	HasEpsilonEpsilon               bool
	HasInputEpsilon                 bool
	HasInputEpsilonCycles           bool
	HasUnweightedInputEpsilonCycles bool
}

// HeaderSize is the serialized size of a Header in bytes.
const HeaderSize = 2 + 2 + 4*4 + 9*4

type rawHeader struct {
	InputSymbols        uint16
	Symbols             uint16
	IndexTableSize      uint32
	TransitionTableSize uint32
	States              uint32
	Transitions         uint32
	Props               [9]uint32
}

func (p *Properties) fields() [9]*bool {
	return [9]*bool{&p.Weighted, &p.Deterministic, &p.InputDeterministic, &p.Minimized,
		&p.Cyclic, &p.HasEpsilonEpsilon, &p.HasInputEpsilon, &p.HasInputEpsilonCycles,
		&p.HasUnweightedInputEpsilonCycles}
}

// ReadHeader reads a little-endian transducer header.
func ReadHeader(r io.Reader) (Header, error) {
	var raw rawHeader
	if err := binary.Read(r, binary.LittleEndian, &raw); err != nil {
		if err == io.EOF || err == io.ErrUnexpectedEOF {
			return Header{}, fmt.Errorf("%w: header: %w", ErrTruncated, io.ErrUnexpectedEOF)
		}
		return Header{}, err
	}
	h := Header{
		InputSymbols:        raw.InputSymbols,
		Symbols:             raw.Symbols,
		IndexTableSize:      raw.IndexTableSize,
		TransitionTableSize: raw.TransitionTableSize,
		States:              raw.States,
		Transitions:         raw.Transitions,
	}
	for i, f := range h.Properties.fields() {
		switch raw.Props[i] {
		case 0:
		case 1:
			*f = true
		default:
			return Header{}, fmt.Errorf("%w: property %d has value %d", ErrWrongType, i, raw.Props[i])
		}
	}
	if h.InputSymbols > h.Symbols {
		return Header{}, fmt.Errorf("%w: %d input symbols of %d", ErrWrongType, h.InputSymbols, h.Symbols)
	}
	return h, nil
}

// Write serializes h.
func (h Header) Write(w io.Writer) error {
	raw := rawHeader{
		InputSymbols:        h.InputSymbols,
		Symbols:             h.Symbols,
		IndexTableSize:      h.IndexTableSize,
		TransitionTableSize: h.TransitionTableSize,
		States:              h.States,
		Transitions:         h.Transitions,
	}
	for i, f := range h.Properties.fields() {
		if *f {
			raw.Props[i] = 1
		}
	}
	return binary.Write(w, binary.LittleEndian, &raw)
}
