package pmatch

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/npillmayer/hfstol"
	"github.com/npillmayer/hfstol/alphabet"
	"github.com/npillmayer/hfstol/oltable"
	"github.com/npillmayer/schuko/tracing/gotestingadapter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type arc struct {
	from, to int
	in, out  string
}

// compile builds a transducer from arcs over a shared alphabet. The empty string stands
// for epsilon.
func compile(t *testing.T, alpha *alphabet.Alphabet, arcs []arc, finals ...int) *hfstol.Transducer {
	t.Helper()
	sym := func(s string) alphabet.Symbol {
		if s == "" {
			return alphabet.Epsilon
		}
		x, ok := alpha.Symbol(s)
		require.True(t, ok, "symbol %q", s)
		return x
	}
	b := oltable.NewBuilder(false)
	for _, a := range arcs {
		b.AddArc(oltable.StateID(a.from), sym(a.in), sym(a.out), oltable.StateID(a.to), 0)
	}
	for _, f := range finals {
		b.SetFinal(oltable.StateID(f), 0)
	}
	tr, err := hfstol.Compile(b, alpha)
	require.NoError(t, err)
	return tr
}

func newAlphabet(t *testing.T, symbols ...string) *alphabet.Alphabet {
	t.Helper()
	alpha, err := alphabet.FromStrings(append([]string{alphabet.EpsilonString}, symbols...))
	require.NoError(t, err)
	return alpha
}

func match(t *testing.T, c *Container, input string) string {
	t.Helper()
	out, err := c.Match(input)
	require.NoError(t, err)
	return out
}

// rtnContainer matches "a b c" with b handled by sub-network Sub, which
// rewrites it to X.
func rtnContainer(t *testing.T) (*hfstol.Transducer, *hfstol.Transducer) {
	alpha := newAlphabet(t, "a", "b", "c", "@I.Sub@", "X")
	sub := compile(t, alpha.Clone(), []arc{{0, 1, "b", "X"}}, 1)
	sub.SetName("Sub")
	top := compile(t, alpha, []arc{
		{0, 1, "a", "a"},
		{1, 2, "@I.Sub@", ""},
		{2, 3, "c", "c"},
	}, 3)
	return top, sub
}

func TestRTNCall(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "hfstol.pmatch")
	defer teardown()
	//
	top, sub := rtnContainer(t)
	c := NewContainer(top)
	c.AddRTN("Sub", sub)
	assert.Equal(t, "aXc", match(t, c, "abc"))
	assert.Equal(t, "abd", match(t, c, "abd"))
	assert.Equal(t, "ac aXc", match(t, c, "ac abc"))
}

func TestRTNMissing(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "hfstol.pmatch")
	defer teardown()
	//
	top, sub := rtnContainer(t)
	c := NewContainer(top)
	c.AddRTN("Other", sub) // no insertion symbol calls it
	assert.Equal(t, "abc", match(t, c, "abc"))
}

func TestLoadContainer(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "hfstol.pmatch")
	defer teardown()
	//
	top, sub := rtnContainer(t)
	var buf bytes.Buffer
	require.NoError(t, top.Write(&buf))
	require.NoError(t, sub.Write(&buf))
	c, err := Load(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	assert.Equal(t, hfstol.DefaultName, c.Name())
	assert.Equal(t, "aXc", match(t, c, "abc"))

	// sub-networks need a header
	_, err = Load(bytes.NewReader(append(buf.Bytes(), "junk"...)))
	assert.ErrorIs(t, err, hfstol.ErrBadHeader)
	_, err = Load(bytes.NewReader(nil))
	assert.ErrorIs(t, err, ErrNoTransducer)
}

func TestRightContext(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "hfstol.pmatch")
	defer teardown()
	//
	// a is rewritten to A if followed by b
	alpha := newAlphabet(t, "a", "b", "A", "@PMATCH_RC_ENTRY@", "@PMATCH_RC_EXIT@")
	c := NewContainer(compile(t, alpha, []arc{
		{0, 1, "a", "A"},
		{1, 2, "", "@PMATCH_RC_ENTRY@"},
		{2, 3, "b", "b"},
		{3, 4, "", "@PMATCH_RC_EXIT@"},
	}, 4))
	assert.Equal(t, "Ab", match(t, c, "ab"))
	assert.Equal(t, "ac", match(t, c, "ac"))
	assert.Equal(t, "a", match(t, c, "a"))
}

func TestLeftContext(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "hfstol.pmatch")
	defer teardown()
	//
	// b is rewritten to B if preceded by a
	alpha := newAlphabet(t, "a", "b", "B", "@PMATCH_LC_ENTRY@", "@PMATCH_LC_EXIT@")
	c := NewContainer(compile(t, alpha, []arc{
		{0, 1, "", "@PMATCH_LC_ENTRY@"},
		{1, 2, "a", "a"},
		{2, 3, "", "@PMATCH_LC_EXIT@"},
		{3, 4, "b", "B"},
	}, 4))
	assert.Equal(t, "aB", match(t, c, "ab"))
	assert.Equal(t, "cb", match(t, c, "cb"))
	assert.Equal(t, "b", match(t, c, "b"))
}

func TestNegativeRightContext(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "hfstol.pmatch")
	defer teardown()
	//
	// a is rewritten to A unless followed by b
	alpha := newAlphabet(t, "a", "b", "@PMATCH_PASSTHROUGH@", "A", "@PMATCH_NRC_ENTRY@", "@PMATCH_NRC_EXIT@")
	c := NewContainer(compile(t, alpha, []arc{
		{0, 1, "a", "A"},
		{1, 2, "", "@PMATCH_NRC_ENTRY@"},
		{2, 3, "b", "b"},
		{3, 4, "", "@PMATCH_NRC_EXIT@"},
		{1, 5, "@PMATCH_PASSTHROUGH@", ""},
	}, 5))
	assert.Equal(t, "Ac", match(t, c, "ac"))
	assert.Equal(t, "ab", match(t, c, "ab"))
	assert.Equal(t, "A", match(t, c, "a"))
}

func TestNegativeLeftContext(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "hfstol.pmatch")
	defer teardown()
	//
	// b is rewritten to B unless preceded by a
	alpha := newAlphabet(t, "a", "b", "@PMATCH_PASSTHROUGH@", "B", "@PMATCH_NLC_ENTRY@", "@PMATCH_NLC_EXIT@")
	c := NewContainer(compile(t, alpha, []arc{
		{0, 1, "", "@PMATCH_NLC_ENTRY@"},
		{1, 2, "a", "a"},
		{2, 3, "", "@PMATCH_NLC_EXIT@"},
		{0, 4, "@PMATCH_PASSTHROUGH@", ""},
		{4, 5, "b", "B"},
	}, 5))
	assert.Equal(t, "cB", match(t, c, "cb"))
	assert.Equal(t, "ab", match(t, c, "ab"))
	assert.Equal(t, "B", match(t, c, "b"))
	assert.Equal(t, "BB", match(t, c, "bb"))
}

func TestIdentityOnOutputSymbol(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "hfstol.pmatch")
	defer teardown()
	//
	// "!" is an output symbol only; as input it is matched by identity
	alpha := newAlphabet(t, "@_IDENTITY_SYMBOL_@", "!")
	c := NewContainer(compile(t, alpha, []arc{
		{0, 1, "@_IDENTITY_SYMBOL_@", "@_IDENTITY_SYMBOL_@"},
		{1, 2, "", "!"},
	}, 2))
	assert.Equal(t, "q!", match(t, c, "q"))
	assert.Equal(t, "!!", match(t, c, "!"))
}

func animals(t *testing.T, opts ...Option) *Container {
	alpha := newAlphabet(t, "c", "a", "t", "@PMATCH_ENTRY@", "@PMATCH_EXIT@", "@PMATCH_ENDTAG_Animal@")
	return NewContainer(compile(t, alpha, []arc{
		{0, 1, "", "@PMATCH_ENTRY@"},
		{1, 2, "c", "c"},
		{2, 3, "a", "a"},
		{3, 4, "t", "t"},
		{4, 5, "", "@PMATCH_ENDTAG_Animal@"},
		{5, 6, "", "@PMATCH_EXIT@"},
	}, 6), opts...)
}

func TestMarkup(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "hfstol.pmatch")
	defer teardown()
	//
	c := animals(t)
	assert.Equal(t, "a <Animal>cat</Animal>", match(t, c, "a cat"))
	assert.Equal(t, "<Animal>cat</Animal><Animal>cat</Animal>!", match(t, c, "catcat!"))
	assert.Equal(t, "dog", match(t, c, "dog"))
}

func TestExtractTags(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "hfstol.pmatch")
	defer teardown()
	//
	c := animals(t, WithConfig(hfstol.PmatchConfig{ExtractTags: true}))
	assert.Equal(t, "<Animal>cat</Animal>\n<Animal>cat</Animal>\n", match(t, c, "a cat, a cat"))
	assert.Empty(t, match(t, c, "a dog"))
}

func TestLocate(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "hfstol.pmatch")
	defer teardown()
	//
	c := animals(t)
	locations, err := c.Locate("my cat")
	require.NoError(t, err)
	assert.Equal(t, []Location{{Start: 3, Length: 3, Input: "cat", Output: "cat", Tag: "Animal"}}, locations)
}

func TestNormalizeInput(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "hfstol.pmatch")
	defer teardown()
	//
	decomposed := "e\u0301"
	alpha := newAlphabet(t, "\u00e9", "E")
	top := compile(t, alpha, []arc{{0, 1, "\u00e9", "E"}}, 1)
	plain := NewContainer(top)
	assert.Equal(t, decomposed, match(t, plain, decomposed))
	normalizing := NewContainer(top, NormalizeInput(true))
	assert.Equal(t, "E", match(t, normalizing, decomposed))
}

func TestTimeCutoff(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "hfstol.pmatch")
	defer teardown()
	//
	alpha := newAlphabet(t, "a", "x", "y")
	var arcs []arc
	for i := 0; i < 12; i++ {
		arcs = append(arcs, arc{i, i + 1, "a", "x"}, arc{i, i + 1, "a", "y"})
	}
	top := compile(t, alpha, arcs, 12)
	input := strings.Repeat("a", 12)
	c := NewContainer(top, Verbose(true))
	assert.Equal(t, strings.Repeat("x", 12), match(t, c, input))
	assert.False(t, c.m.expired)
	c = NewContainer(top, TimeCutoff(time.Nanosecond))
	assert.Equal(t, strings.Repeat("x", 12), match(t, c, input))
	assert.True(t, c.m.expired)
}

func TestCloneKeepsAlphabetApart(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "hfstol.pmatch")
	defer teardown()
	//
	c := animals(t)
	d := c.Clone()
	assert.Equal(t, "<Animal>cat</Animal>s", match(t, d, "cats"))
	_, ok := c.Alphabet().Symbol("s")
	assert.False(t, ok)
	_, ok = d.Alphabet().Symbol("s")
	assert.True(t, ok)
}
