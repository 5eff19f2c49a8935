package hfstol

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/npillmayer/hfstol/alphabet"
	"github.com/npillmayer/hfstol/oltable"
	"github.com/npillmayer/schuko/tracing/gotestingadapter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

func tokens(t *testing.T, tr *Transducer, s string) []alphabet.Symbol {
	t.Helper()
	input, err := tr.Alphabet().Tokenize(s, false)
	require.NoError(t, err)
	return input
}

func outputs(analyses []Analysis) []string {
	out := make([]string, len(analyses))
	for i, a := range analyses {
		out[i] = a.Output
	}
	return out
}

type LookupSuite struct {
	suite.Suite
	teardown func()
}

func TestLookupSuite(t *testing.T) {
	suite.Run(t, new(LookupSuite))
}

func (s *LookupSuite) SetupSuite() {
	s.teardown = gotestingadapter.QuickConfig(s.T(), "hfstol")
}

func (s *LookupSuite) TearDownSuite() {
	s.teardown()
}

func (s *LookupSuite) lookup(src, input string, opts ...LookupOption) []Analysis {
	tr := fromATT(s.T(), src)
	analyses, err := tr.LookupString(input, opts...)
	s.Require().NoError(err)
	return analyses
}

func (s *LookupSuite) TestSimpleWord() {
	s.Equal([]Analysis{{Output: "cat"}}, s.lookup(catATT, "cat"))
	s.Empty(s.lookup(catATT, "ca"))
	s.Empty(s.lookup(catATT, "catt"))
	_, err := fromATT(s.T(), catATT).LookupString("dog")
	s.ErrorIs(err, ErrOutsideSigma)
}

func (s *LookupSuite) TestFlagDiacritics() {
	src := "0\t1\t@P.NUM.SG@\t@P.NUM.SG@\n" +
		"1\t2\tx\tx\n" +
		"2\t3\t@R.NUM.SG@\t@R.NUM.SG@\n" +
		"2\t4\t@R.NUM.PL@\t@R.NUM.PL@\n" +
		"3\t5\ty\tS\n" +
		"4\t5\ty\tP\n" +
		"5\n"
	s.Equal([]string{"xS"}, outputs(s.lookup(src, "xy")))
}

func (s *LookupSuite) TestFlagStateRestored() {
	// the first branch sets NUM, which must not leak into the second
	src := "0\t1\t@P.NUM.SG@\t@0@\n" +
		"1\t3\ta\tA\n" +
		"0\t2\t@C.CASE@\t@0@\n" +
		"2\t4\t@D.NUM@\t@0@\n" +
		"4\t3\ta\tB\n" +
		"3\n"
	s.Equal([]string{"A", "B"}, outputs(s.lookup(src, "a")))
}

func (s *LookupSuite) TestWeightOrder() {
	src := "0\t1\ta\tx\t1.0\n0\t1\ta\ty\t0.5\n0\t1\ta\tz\t2.0\n1\t0.25\n"
	s.Equal([]Analysis{{"y", 0.75}, {"x", 1.25}, {"z", 2.25}}, s.lookup(src, "a"))
	s.Equal([]string{"y", "x"}, outputs(s.lookup(src, "a", MaxResults(2))))
	s.Equal([]string{"y"}, outputs(s.lookup(src, "a", BestOnly())))
}

func (s *LookupSuite) TestDuplicatesKeepLowestWeight() {
	src := "0\t1\ta\tx\t1.0\n0\t2\ta\tx\t0.5\n1\t0\n2\t0\n"
	s.Equal([]Analysis{{"x", 0.5}}, s.lookup(src, "a"))
}

func (s *LookupSuite) TestEpsilonsBeforeInput() {
	src := "0\t1\t@0@\tx\n0\t1\t@0@\ty\n1\t2\ta\ta\n2\n"
	s.Equal([]string{"xa", "ya"}, outputs(s.lookup(src, "a")))
	// table order is deterministic
	for i := 0; i < 3; i++ {
		s.Equal([]string{"xa"}, outputs(s.lookup(src, "a", FirstOnly())))
	}
}

func (s *LookupSuite) TestIdentity() {
	src := "0\t1\t@_IDENTITY_SYMBOL_@\t@_IDENTITY_SYMBOL_@\n0\t1\ta\tA\n1\n"
	s.Equal([]string{"A"}, outputs(s.lookup(src, "a")))
	s.Equal([]string{"q"}, outputs(s.lookup(src, "q")))
	s.Empty(s.lookup(src, "qq"))
}

func (s *LookupSuite) TestIdentityOnOutputSymbol() {
	// X is an output symbol only; as input it is matched by identity
	src := "0\t1\ta\tX\n0\t1\t@_IDENTITY_SYMBOL_@\t@_IDENTITY_SYMBOL_@\n1\n"
	s.Equal([]string{"X"}, outputs(s.lookup(src, "a")))
	s.Equal([]string{"q"}, outputs(s.lookup(src, "q")))
	s.Equal([]string{"X"}, outputs(s.lookup(src, "X")))
}

func (s *LookupSuite) TestUnknownCopiesInput() {
	// unknown is tried for known input, too
	src := "0\t1\t@_UNKNOWN_SYMBOL_@\t@_UNKNOWN_SYMBOL_@\n0\t1\ta\tA\n1\n"
	s.Equal([]string{"a", "A"}, outputs(s.lookup(src, "a")))
	s.Equal([]string{"ö"}, outputs(s.lookup(src, "ö")))
}

func (s *LookupSuite) TestMultiCharSymbols() {
	src := "0\t1\tc\tc\n1\t2\ta\ta\n2\t3\tt\tt\n3\t4\t@0@\t+N\n3\t4\t@0@\t+Sg\n4\n"
	s.Equal([]string{"cat+N", "cat+Sg"}, outputs(s.lookup(src, "cat")))
}

func TestMatchLongest(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "hfstol")
	defer teardown()
	//
	tr := fromATT(t, "0\t1\ta\ta\n1\t2\tb\tb\n1\n2\n")
	p, ok := tr.Match(tokens(t, tr, "ab"))
	require.True(t, ok)
	assert.Equal(t, 2, p.Consumed)
	assert.Equal(t, "ab", tr.Alphabet().Stringify(p.Output))
	p, ok = tr.Match(tokens(t, tr, "aa"))
	require.True(t, ok)
	assert.Equal(t, 1, p.Consumed)
	assert.Equal(t, "a", tr.Alphabet().Stringify(p.Output))
	_, ok = tr.Match(tokens(t, tr, "b"))
	assert.False(t, ok)
}

func TestMatchTieKeepsFirst(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "hfstol")
	defer teardown()
	//
	tr := fromATT(t, "0\t1\ta\tx\n0\t1\ta\ty\n1\n")
	p, ok := tr.Match(tokens(t, tr, "a"))
	require.True(t, ok)
	assert.Equal(t, "x", tr.Alphabet().Stringify(p.Output))
}

func TestInfiniteAmbiguity(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "hfstol")
	defer teardown()
	//
	tr := fromATT(t, "0\t0\t@0@\tx\n0\t1\ta\ta\n1\n")
	require.True(t, tr.Header().HasInputEpsilonCycles)
	input := tokens(t, tr, "a")
	assert.True(t, tr.IsInfinitelyAmbiguous(input))
	paths := tr.Lookup(input)
	require.NotEmpty(t, paths)
	paths, err := tr.LookupChecked(input)
	assert.ErrorIs(t, err, ErrInfinitelyAmbiguous)
	assert.LessOrEqual(t, len(paths), InfiniteCutoff)
	assert.Equal(t, "a", tr.Alphabet().Stringify(paths[0].Output))

	plain := fromATT(t, catATT)
	assert.False(t, plain.IsInfinitelyAmbiguous(tokens(t, plain, "cat")))
	_, err = plain.LookupChecked(tokens(t, plain, "cat"))
	assert.NoError(t, err)
}

func TestFlagCycle(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "hfstol")
	defer teardown()
	//
	// setting the same value twice revisits the same configuration
	tr := fromATT(t, "0\t0\t@P.X.A@\t@0@\n0\t1\ta\ta\n1\n")
	input := tokens(t, tr, "a")
	assert.True(t, tr.IsInfinitelyAmbiguous(input))
	assert.Equal(t, 1, len(tr.Lookup(input)))
}

// chain builds a transducer with 2^n paths for input a^n.
func chain(n int) string {
	var sb strings.Builder
	for i := 0; i < n; i++ {
		fmt.Fprintf(&sb, "%d\t%d\ta\tx\n%d\t%d\ta\ty\n", i, i+1, i, i+1)
	}
	fmt.Fprintf(&sb, "%d\n", n)
	return sb.String()
}

func TestTimeCutoff(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "hfstol")
	defer teardown()
	//
	tr := fromATT(t, chain(12))
	input := tokens(t, tr, strings.Repeat("a", 12))
	assert.Len(t, tr.Lookup(input), 4096)
	cut := tr.Lookup(input, TimeCutoff(time.Nanosecond))
	assert.Less(t, len(cut), 4096)
}

func TestLookupAll(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "hfstol")
	defer teardown()
	//
	tr := fromATT(t, catDogS)
	inputs := []string{"cat", "dog", "cow", "ca", "cat"}
	results, err := LookupAll(context.Background(), tr, inputs, LookupConfig{Workers: 3})
	require.NoError(t, err)
	require.Len(t, results, len(inputs))
	assert.Equal(t, []string{"cat"}, outputs(results[0]))
	assert.Equal(t, []string{"Dog"}, outputs(results[1]))
	assert.Empty(t, results[2])
	assert.Empty(t, results[3])
	assert.Equal(t, []string{"cat"}, outputs(results[4]))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = LookupAll(ctx, tr, inputs, LookupConfig{Workers: 2})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestLoadConfig(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "hfstol")
	defer teardown()
	//
	c, err := LoadConfig(strings.NewReader("lookup:\n  max_results: 3\n  time_cutoff: 2s\npmatch:\n  extract_tags: true\n"))
	require.NoError(t, err)
	assert.Equal(t, 3, c.Lookup.MaxResults)
	assert.Equal(t, 2*time.Second, c.Lookup.TimeCutoff)
	assert.Equal(t, 4, c.Lookup.Workers)
	assert.True(t, c.Pmatch.ExtractTags)
	assert.Len(t, c.Lookup.Options(), 2)

	_, err = LoadConfig(strings.NewReader("lookup:\n  workers: 0\n"))
	assert.Error(t, err)
	_, err = LoadConfig(strings.NewReader("lookup: [\n"))
	assert.Error(t, err)
}

func TestCycleGuardKeepsFlagsOnStack(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "hfstol")
	defer teardown()
	//
	tr := fromATT(t, "0\t1\t@P.NUM.SG@\t@P.NUM.SG@\n1\t2\tx\tx\n2\n")
	m := newMatcher(tr, modeLookup, tokens(t, tr, "x"), lookupConfig{})
	m.run()
	require.Len(t, m.results, 1)
	assert.Empty(t, m.saved, "saved flag values are popped on the way back")
	require.Equal(t, 1, m.fd.Len())
	allocs := testing.AllocsPerRun(100, func() {
		if m.enter(0, oltable.Root) {
			m.leave(0)
		}
	})
	assert.Zero(t, allocs)
	require.True(t, m.enter(0, oltable.Root))
	assert.False(t, m.enter(0, oltable.Root), "same state and flags on the path")
	m.leave(0)
}
