package hfstol

import (
	"errors"
	"fmt"
	"io"

	"github.com/npillmayer/hfstol/alphabet"
	"github.com/npillmayer/hfstol/flags"
	"github.com/npillmayer/hfstol/hfst3"
	"github.com/npillmayer/hfstol/oltable"
)

// Errors wrapped by FormatError. Use errors.Is to test for them.
var (
	ErrWrongType          = oltable.ErrWrongType
	ErrTruncated          = oltable.ErrTruncated
	ErrMalformedDiacritic = flags.ErrMalformedDiacritic
	ErrBadHeader          = hfst3.ErrBadHeader
)

// ErrOutsideSigma is returned by strict tokenization of input which does not
// map to symbols of the transducer.
var ErrOutsideSigma = alphabet.ErrOutsideSigma

// ErrInfinitelyAmbiguous is returned for input with an unbounded number of
// analyses, caused by a cycle which consumes no input.
var ErrInfinitelyAmbiguous = errors.New("input is infinitely ambiguous")

// FormatError represents an error encountered while reading a binary
// transducer. Format errors are fatal: no transducer is constructed.
type FormatError struct {
	Section string // "hfst3 header", "header", "alphabet" or "tables"
	Issue   string // human-readable description of the issue
	Offset  int64  // byte offset of the section, relative to the start of the transducer
	Err     error  // underlying error
}

// Error implements the error interface.
func (e *FormatError) Error() string {
	if e.Offset > 0 {
		return fmt.Sprintf("%s at offset %d: %s: %v", e.Section, e.Offset, e.Issue, e.Err)
	}
	return fmt.Sprintf("%s: %s: %v", e.Section, e.Issue, e.Err)
}

// Unwrap returns the underlying error.
func (e *FormatError) Unwrap() error {
	return e.Err
}

func formatError(section string, offset int64, issue string, err error) error {
	if err == io.EOF || errors.Is(err, io.ErrUnexpectedEOF) {
		if !errors.Is(err, ErrTruncated) {
			err = fmt.Errorf("%w: %w", ErrTruncated, err)
		}
	}
	e := &FormatError{Section: section, Issue: issue, Offset: offset, Err: err}
	tracer().Errorf(e.Error())
	return e
}
