package hfst3

import (
	"bufio"
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/npillmayer/schuko/tracing/gotestingadapter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHeaderRoundTrip(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "hfstol.hfst3")
	defer teardown()
	//
	var buf bytes.Buffer
	err := WriteHeader(&buf, Props{Type: TypeOLW, Name: "Animal", Pairs: [][2]string{{"minimized", "true"}}})
	require.NoError(t, err)
	buf.WriteString("rest")
	r := bufio.NewReader(&buf)
	p, err := ReadHeader(r)
	require.NoError(t, err)
	assert.Equal(t, TypeOLW, p.Type)
	assert.Equal(t, "Animal", p.Name)
	v, ok := p.Get("minimized")
	require.True(t, ok)
	assert.Equal(t, "true", v)
	v, _ = p.Get("version")
	assert.Equal(t, "3.3", v)
	rest, _ := r.ReadString(0)
	assert.Equal(t, "rest", rest)
}

func TestNoHeaderLeavesStream(t *testing.T) {
	r := bufio.NewReader(strings.NewReader("HFSX legacy"))
	_, err := ReadHeader(r)
	assert.True(t, errors.Is(err, ErrNoHeader))
	rest, _ := r.ReadString(0)
	assert.Equal(t, "HFSX legacy", rest)
}

func TestBadHeaders(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"wrong type", "HFST\x00\x0f\x00\x00type\x00HFST_SFST\x00"},
		{"truncated block", "HFST\x00\x20\x00\x00type\x00"},
		{"missing NUL", "HFST\x00\x0d\x00Xtype\x00HFST_OL\x00"},
		{"unterminated", "HFST\x00\x04\x00\x00type"},
		{"odd fields", "HFST\x00\x0f\x00\x00type\x00HFST_OL\x00x\x00"},
	}
	for _, tt := range tests {
		_, err := ReadHeader(bufio.NewReader(strings.NewReader(tt.raw)))
		assert.True(t, errors.Is(err, ErrBadHeader), "%s: %v", tt.name, err)
	}
}
