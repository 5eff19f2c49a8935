package att

import (
	"errors"
	"strings"
	"testing"

	"github.com/npillmayer/hfstol/alphabet"
	"github.com/npillmayer/hfstol/oltable"
	"github.com/npillmayer/schuko/tracing/gotestingadapter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const catDog = "0\t1\tc\tc\n1\t2\ta\ta\n2\t3\tt\tt\n0\t4\td\tD\n4\t5\to\to\n5\t3\tg\tg\n3\n"

func TestReadUnweighted(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "hfstol.att")
	defer teardown()
	//
	b, alpha, err := Read(strings.NewReader(catDog))
	require.NoError(t, err)
	assert.False(t, b.Weighted())
	assert.Equal(t, 6, b.NumStates())
	// inputs first, then output-only symbols
	assert.Equal(t, []string{alphabet.EpsilonString, "c", "a", "t", "d", "o", "g", "D"}, alpha.Strings())
	h, tables, err := b.Build(alpha)
	require.NoError(t, err)
	assert.Equal(t, uint16(7), h.InputSymbols)
	d, _ := alpha.Symbol("d")
	arcs := tables.Step(oltable.Root, d)
	require.Len(t, arcs, 1)
	assert.Equal(t, "D", alpha.MustString(arcs[0].Output))
}

func TestReadWeightedAndEscapes(t *testing.T) {
	src := "0\t1\t@0@\t@_SPACE_@\t0.5\n1\t2\n"
	b, alpha, err := Read(strings.NewReader(src))
	require.NoError(t, err)
	assert.True(t, b.Weighted())
	sym, ok := alpha.Symbol(" ")
	require.True(t, ok)
	_, tables, err := b.Build(alpha)
	require.NoError(t, err)
	arcs := tables.Arcs(oltable.Root)
	require.Len(t, arcs, 1)
	assert.Equal(t, alphabet.Epsilon, arcs[0].Input)
	assert.Equal(t, sym, arcs[0].Output)
	assert.Equal(t, float32(0.5), arcs[0].Weight)
	assert.Equal(t, float32(2), tables.FinalWeight(arcs[0].Target))
}

func TestSyntaxErrors(t *testing.T) {
	for _, src := range []string{
		"0\t1\ta\n",
		"x\t1\ta\ta\n",
		"0\t1\ta\ta\tfoo\n",
		"0\n--\n0\n",
	} {
		_, _, err := Read(strings.NewReader(src))
		assert.True(t, errors.Is(err, ErrSyntax), "%q", src)
	}
}
