/*
Package hfst3 reads and writes the HFST3 container header, which may precede
a binary transducer.

The header is the magic "HFST\x00", a 16-bit little-endian length, a NUL byte
and a block of that length holding NUL-terminated keys and values in turn,
e.g. "version\x003.3\x00type\x00HFST_OL\x00name\x00TOP\x00".

# BSD License

Copyright (c) Norbert Pillmayer <norbert@pillmayer@com>

All rights reserved.

License information is available in the LICENSE file.
*/
package hfst3

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/npillmayer/schuko/tracing"
)

// tracer writes to trace with key 'hfstol.hfst3'
func tracer() tracing.Trace {
	return tracing.Select("hfstol.hfst3")
}

// ErrNoHeader is returned if the stream does not start with the magic.
// Nothing has been consumed from the stream in this case.
var ErrNoHeader = errors.New("no HFST3 header")

// ErrBadHeader is returned for a header which is present but malformed or
// announces a transducer type other than optimized lookup.
var ErrBadHeader = errors.New("malformed HFST3 header")

const magic = "HFST\x00"

// Transducer types of optimized-lookup transducers.
const (
	TypeOL  = "HFST_OL"  // unweighted
	TypeOLW = "HFST_OLW" // weighted
)

// Props are the properties of a header.
type Props struct {
	Type  string
	Name  string
	Pairs [][2]string // all key/value pairs in stream order
	Size  int         // bytes occupied in the stream
}

// Get returns the value of key.
func (p Props) Get(key string) (string, bool) {
	for _, kv := range p.Pairs {
		if kv[0] == key {
			return kv[1], true
		}
	}
	return "", false
}

// Peek reports whether r starts with a header, without consuming input.
func Peek(r *bufio.Reader) bool {
	b, err := r.Peek(len(magic))
	return err == nil && string(b) == magic
}

// ReadHeader reads a header from r. If r does not start with the magic,
// ErrNoHeader is returned and r is left untouched.
func ReadHeader(r *bufio.Reader) (Props, error) {
	if !Peek(r) {
		return Props{}, ErrNoHeader
	}
	if _, err := r.Discard(len(magic)); err != nil {
		return Props{}, err
	}
	var length uint16
	if err := binary.Read(r, binary.LittleEndian, &length); err != nil {
		return Props{}, fmt.Errorf("%w: length: %w", ErrBadHeader, io.ErrUnexpectedEOF)
	}
	if c, err := r.ReadByte(); err != nil || c != 0 {
		return Props{}, fmt.Errorf("%w: missing NUL after length", ErrBadHeader)
	}
	block := make([]byte, length)
	if _, err := io.ReadFull(r, block); err != nil {
		return Props{}, fmt.Errorf("%w: block of %d bytes: %w", ErrBadHeader, length, io.ErrUnexpectedEOF)
	}
	if length == 0 || block[length-1] != 0 {
		return Props{}, fmt.Errorf("%w: block not NUL-terminated", ErrBadHeader)
	}
	fields := bytes.Split(block[:length-1], []byte{0})
	if len(fields)%2 != 0 {
		return Props{}, fmt.Errorf("%w: key %q without value", ErrBadHeader, fields[len(fields)-1])
	}
	p := Props{Size: len(magic) + 2 + 1 + int(length)}
	for i := 0; i < len(fields); i += 2 {
		key, value := string(fields[i]), string(fields[i+1])
		p.Pairs = append(p.Pairs, [2]string{key, value})
		switch key {
		case "type":
			if p.Type == "" {
				p.Type = value
			}
		case "name":
			if p.Name == "" {
				p.Name = value
			}
		}
	}
	if p.Type != TypeOL && p.Type != TypeOLW {
		return Props{}, fmt.Errorf("%w: type %q is not optimized lookup", ErrBadHeader, p.Type)
	}
	tracer().Debugf("HFST3 header: type=%s name=%q", p.Type, p.Name)
	return p, nil
}

// WriteHeader writes a header for p. Version, type and name come first,
// followed by all further pairs.
func WriteHeader(w io.Writer, p Props) error {
	var block bytes.Buffer
	put := func(key, value string) {
		block.WriteString(key)
		block.WriteByte(0)
		block.WriteString(value)
		block.WriteByte(0)
	}
	put("version", "3.3")
	put("type", p.Type)
	put("name", p.Name)
	for _, kv := range p.Pairs {
		switch kv[0] {
		case "version", "type", "name":
			continue
		}
		put(kv[0], kv[1])
	}
	if block.Len() > 0xFFFF {
		return fmt.Errorf("%w: block of %d bytes too long", ErrBadHeader, block.Len())
	}
	var buf bytes.Buffer
	buf.WriteString(magic)
	binary.Write(&buf, binary.LittleEndian, uint16(block.Len()))
	buf.WriteByte(0)
	buf.Write(block.Bytes())
	_, err := w.Write(buf.Bytes())
	return err
}
