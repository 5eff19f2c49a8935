package pmatch

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"slices"
	"strings"
	"time"

	"github.com/npillmayer/hfstol"
	"github.com/npillmayer/hfstol/alphabet"
	"github.com/npillmayer/hfstol/oltable"
	"golang.org/x/text/unicode/norm"
)

// ErrNoTransducer is returned for a stream without any transducer.
var ErrNoTransducer = errors.New("no transducer in stream")

// network is a compiled network of a container. All networks use the
// symbol numbers of the top-level alphabet.
type network struct {
	name   string
	tables *oltable.Tables
}

// Option configures a Container.
type Option func(*options)

type options struct {
	verbose     bool
	extractTags bool
	normalize   bool
	cutoff      time.Duration
}

// WithConfig applies pattern matching settings from a configuration.
func WithConfig(c hfstol.PmatchConfig) Option {
	return func(o *options) {
		o.verbose = c.Verbose
		o.extractTags = c.ExtractTags
		o.normalize = c.NormalizeInput
		o.cutoff = c.TimeCutoff
	}
}

// Verbose traces matches discarded in favor of an equally long match found
// earlier.
func Verbose(b bool) Option {
	return func(o *options) {
		o.verbose = b
	}
}

// ExtractTags makes Match return only tagged matches, one per line.
func ExtractTags(b bool) Option {
	return func(o *options) {
		o.extractTags = b
	}
}

// NormalizeInput puts input into Unicode normalization form C before
// tokenizing it.
func NormalizeInput(b bool) Option {
	return func(o *options) {
		o.normalize = b
	}
}

// TimeCutoff bounds the wall-clock time spent on one input. When it expires,
// matching ends and the remaining input is copied through. d ≤ 0 means no
// limit.
func TimeCutoff(d time.Duration) Option {
	return func(o *options) {
		o.cutoff = d
	}
}

// Container holds a top-level network and the sub-networks it calls.
type Container struct {
	alpha *alphabet.Alphabet
	top   *network
	rtns  map[alphabet.Symbol]*network
	opts  options
	m     *matcher
}

// NewContainer creates a container around a top-level transducer. Its
// alphabet becomes the alphabet of the container.
func NewContainer(top *hfstol.Transducer, opts ...Option) *Container {
	c := &Container{
		alpha: top.Alphabet(),
		top:   &network{name: top.Name(), tables: top.Tables()},
		rtns:  make(map[alphabet.Symbol]*network),
	}
	for _, opt := range opts {
		opt(&c.opts)
	}
	c.m = newMatcher(c)
	return c
}

// AddRTN registers t as the sub-network called by insertion symbol
// @I.<name>@. The tables of t have to use the symbol numbers of the
// top-level alphabet; the alphabet of t itself is not used. Only the first
// network registered under a name is kept.
func (c *Container) AddRTN(name string, t *hfstol.Transducer) {
	sym, ok := c.alpha.Insertion(name)
	if !ok {
		tracer().Errorf("network %q is never called, ignored", name)
		return
	}
	if _, dup := c.rtns[sym]; dup {
		tracer().Infof("network %q already registered, ignored", name)
		return
	}
	if t.Alphabet().OrigCount() > c.alpha.OrigCount() {
		tracer().Errorf("network %q has %d symbols, top-level network %d",
			name, t.Alphabet().OrigCount(), c.alpha.OrigCount())
	}
	c.rtns[sym] = &network{name: name, tables: t.Tables()}
	tracer().Debugf("registered network %q for symbol %d", name, sym)
}

// Load reads a container: the top-level transducer, with an optional HFST3
// header, followed by any number of named sub-networks up to the end of the
// stream. A sub-network without valid HFST3 header is an error.
func Load(r io.Reader, opts ...Option) (*Container, error) {
	br := bufio.NewReader(r)
	top, err := hfstol.Decode(br, false)
	if err == io.EOF {
		return nil, ErrNoTransducer
	} else if err != nil {
		return nil, err
	}
	c := NewContainer(top, opts...)
	for {
		t, err := hfstol.Decode(br, true)
		if err == io.EOF {
			break
		} else if err != nil {
			return nil, fmt.Errorf("network %d: %w", len(c.rtns)+1, err)
		}
		c.AddRTN(t.Name(), t)
	}
	tracer().Infof("loaded container %q with %d sub-networks", c.top.name, len(c.rtns))
	return c, nil
}

// Clone returns a container sharing the networks of c, with its own
// alphabet and scratch space.
func (c *Container) Clone() *Container {
	d := &Container{
		alpha: c.alpha.Clone(),
		top:   c.top,
		rtns:  c.rtns,
		opts:  c.opts,
	}
	d.m = newMatcher(d)
	return d
}

// Name is the name of the top-level network.
func (c *Container) Name() string {
	return c.top.name
}

// Alphabet returns the alphabet shared by all networks.
func (c *Container) Alphabet() *alphabet.Alphabet {
	return c.alpha
}

// span is a match on the input tape.
type span struct {
	start, end int // tape positions
	output     []alphabet.Symbol
}

func (c *Container) prepare(s string) string {
	if c.opts.normalize {
		return norm.NFC.String(s)
	}
	return s
}

// initializeInput tokenizes s into a tape padded with NoSymbol and boundary
// markers on both ends. It returns the tape and the position to start at.
func (c *Container) initializeInput(s string) ([]alphabet.Symbol, int, error) {
	symbols, err := c.alpha.Tokenize(s, true)
	if err != nil {
		return nil, 0, err
	}
	boundary := c.alpha.Special(alphabet.Boundary)
	tape := make([]alphabet.Symbol, 0, len(symbols)+4)
	tape = append(tape, alphabet.NoSymbol, boundary)
	tape = append(tape, symbols...)
	tape = append(tape, boundary, alphabet.NoSymbol)
	start := 1
	if boundary == alphabet.NoSymbol {
		start = 2
	}
	return tape, start, nil
}

// run matches repeatedly over the tape. Input which no match consumes is
// copied to the output.
func (c *Container) run(tape []alphabet.Symbol, pos int) ([]alphabet.Symbol, []span) {
	start := time.Now()
	c.m.reset(tape, c.opts.cutoff)
	var output []alphabet.Symbol
	var spans []span
	for tape[pos] != alphabet.NoSymbol {
		var best []alphabet.Symbol
		next := pos
		if !c.m.stop {
			best, next = c.m.match(pos)
		}
		if next == pos {
			output = append(output, tape[pos])
			pos++
			continue
		}
		output = append(output, best...)
		spans = append(spans, span{start: pos, end: next, output: slices.Clone(best)})
		pos = next
	}
	observeInput(start, len(spans), c.m.expired)
	return output, spans
}

// Match runs the container over input and returns the input with every
// match replaced by its marked-up output. With ExtractTags set, only the
// tagged matches are returned, one per line.
func (c *Container) Match(input string) (string, error) {
	tape, pos, err := c.initializeInput(c.prepare(input))
	if err != nil {
		return "", err
	}
	output, spans := c.run(tape, pos)
	if !c.opts.extractTags {
		return c.render(output), nil
	}
	var sb strings.Builder
	for _, sp := range spans {
		if _, tagged := c.tag(sp.output); tagged {
			sb.WriteString(c.render(sp.output))
			sb.WriteByte('\n')
		}
	}
	return sb.String(), nil
}

// Location is a match found by Locate.
type Location struct {
	Start  int    // byte offset of the match in the (normalized) input
	Length int    // byte length of the matched input
	Input  string // matched input
	Output string // output of the match, without markup
	Tag    string // outermost tag of the match, if any
}

// Locate runs the container over input and reports where matches occur.
func (c *Container) Locate(input string) ([]Location, error) {
	input = c.prepare(input)
	tape, pos, err := c.initializeInput(input)
	if err != nil {
		return nil, err
	}
	// byte offsets of tape positions
	offsets := make([]int, len(tape)+1)
	for i, sym := range tape {
		offsets[i+1] = offsets[i]
		if sym != alphabet.NoSymbol && sym != c.alpha.Special(alphabet.Boundary) {
			offsets[i+1] += len(c.alpha.MustString(sym))
		}
	}
	_, spans := c.run(tape, pos)
	locations := make([]Location, 0, len(spans))
	for _, sp := range spans {
		from, to := offsets[sp.start], offsets[sp.end]
		tag, _ := c.tag(sp.output)
		locations = append(locations, Location{
			Start:  from,
			Length: to - from,
			Input:  input[from:to],
			Output: c.plain(sp.output),
			Tag:    tag,
		})
	}
	return locations, nil
}
