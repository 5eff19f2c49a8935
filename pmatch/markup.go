package pmatch

import (
	"slices"
	"strings"

	"github.com/npillmayer/hfstol/alphabet"
)

// visible reports whether sym contributes text to the output.
func (c *Container) visible(sym alphabet.Symbol) bool {
	return sym != alphabet.Epsilon && sym != alphabet.NoSymbol &&
		!c.alpha.IsFlagDiacritic(sym) && !c.alpha.IsSpecial(sym)
}

// render turns output symbols into text with markup. Entry markers note
// where a tagged span starts; an end tag wraps everything from the innermost
// open entry marker up to here.
func (c *Container) render(output []alphabet.Symbol) string {
	entry := c.alpha.Special(alphabet.Entry)
	exit := c.alpha.Special(alphabet.Exit)
	var buf []byte
	var starts []int
	for _, sym := range output {
		switch {
		case sym == entry:
			starts = append(starts, len(buf))
		case sym == exit:
			if len(starts) > 0 {
				starts = starts[:len(starts)-1]
			}
		case c.alpha.IsEndTag(sym):
			pos := 0
			if len(starts) > 0 {
				pos = starts[len(starts)-1]
			} else {
				tracer().Infof("end tag %s without start", c.alpha.MustString(sym))
			}
			buf = slices.Insert(buf, pos, []byte(c.alpha.StartTag(sym))...)
			buf = append(buf, c.alpha.EndTag(sym)...)
		case c.visible(sym):
			buf = append(buf, c.alpha.MustString(sym)...)
		}
	}
	return string(buf)
}

// plain turns output symbols into text without markup.
func (c *Container) plain(output []alphabet.Symbol) string {
	var sb strings.Builder
	for _, sym := range output {
		if c.visible(sym) {
			sb.WriteString(c.alpha.MustString(sym))
		}
	}
	return sb.String()
}

// tag returns the name of the last end tag in output, which closes the
// outermost tagged span.
func (c *Container) tag(output []alphabet.Symbol) (string, bool) {
	for i := len(output) - 1; i >= 0; i-- {
		if name, ok := c.alpha.EndTagName(output[i]); ok {
			return name, true
		}
	}
	return "", false
}
