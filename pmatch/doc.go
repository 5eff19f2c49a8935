/*
Package pmatch runs pattern matching transducers over text.

A pattern matching container holds a top-level network and any number of
named sub-networks, which the top-level network calls through insertion
symbols of the form @I.<name>@. All networks share the symbol table of the
top-level network. Matching scans the input from left to right; at every
position the longest match wins and its output replaces the matched input.
Input that no pattern matches is copied through.

Besides calls of sub-networks, pattern matching networks may check left and
right contexts, positive or negative, without consuming them, and mark up
matches with tags:

	input:  "My cat sleeps"
	output: "My <Animal>cat</Animal> sleeps"

A Container is not safe for concurrent use: the symbol table grows with
previously unseen characters, and matching uses scratch tapes. Goroutines
should each use their own Clone.

----------------------------------------------------------------------

# BSD License

Copyright (c) Norbert Pillmayer <norbert@pillmayer@com>

All rights reserved.

License information is available in the LICENSE file.
*/
package pmatch

import (
	"github.com/npillmayer/schuko/tracing"
)

// tracer writes to trace with key 'hfstol.pmatch'
func tracer() tracing.Trace {
	return tracing.Select("hfstol.pmatch")
}
