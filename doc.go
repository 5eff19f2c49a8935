/*
Package hfstol runs optimized-lookup transducers, the compact binary
finite-state transducer format used for morphological analysis and
generation.

A Transducer is loaded once from a binary stream and is read-only afterwards.
Lookup walks its index and transition tables recursively: epsilon and flag
diacritic arcs are explored before input is consumed, flag diacritic state is
saved and restored around every flag arc, and every path consuming the
complete input is collected. Match finds the longest accepted prefix instead.

Pattern matching transducers with context checks and calls of named
sub-networks are handled by sub-package pmatch.

Further Reading

	https://github.com/hfst/hfst/wiki/HfstOptimizedLookupFormat
	Silfverberg, Lindén: HFST runtime format, 2009

----------------------------------------------------------------------

# BSD License

Copyright (c) Norbert Pillmayer <norbert@pillmayer@com>

All rights reserved.

License information is available in the LICENSE file.
*/
package hfstol

import (
	"github.com/npillmayer/schuko/tracing"
)

// tracer writes to trace with key 'hfstol'
func tracer() tracing.Trace {
	return tracing.Select("hfstol")
}

func invariant(condition bool, msg string) {
	if !condition {
		panic(msg)
	}
}
