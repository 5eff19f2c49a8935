package alphabet

import "strings"

// Special enumerates reserved symbols with a fixed meaning to the matcher.
type Special int

const (
	Identity Special = iota // @_IDENTITY_SYMBOL_@, matches and copies any unknown input
	Unknown                 // @_UNKNOWN_SYMBOL_@
	Default                 // @_DEFAULT_SYMBOL_@
	Entry                   // @PMATCH_ENTRY@, opens a tagged span
	Exit                    // @PMATCH_EXIT@
	LCEntry                 // left context
	LCExit
	RCEntry // right context
	RCExit
	NLCEntry // negative left context
	NLCExit
	NRCEntry // negative right context
	NRCExit
	Passthrough // @PMATCH_PASSTHROUGH@, taken after a failed negative context
	Boundary    // @BOUNDARY@, pads the input tape
	specialCount
)

var specialNames = [specialCount]string{
	Identity:    "@_IDENTITY_SYMBOL_@",
	Unknown:     "@_UNKNOWN_SYMBOL_@",
	Default:     "@_DEFAULT_SYMBOL_@",
	Entry:       "@PMATCH_ENTRY@",
	Exit:        "@PMATCH_EXIT@",
	LCEntry:     "@PMATCH_LC_ENTRY@",
	LCExit:      "@PMATCH_LC_EXIT@",
	RCEntry:     "@PMATCH_RC_ENTRY@",
	RCExit:      "@PMATCH_RC_EXIT@",
	NLCEntry:    "@PMATCH_NLC_ENTRY@",
	NLCExit:     "@PMATCH_NLC_EXIT@",
	NRCEntry:    "@PMATCH_NRC_ENTRY@",
	NRCExit:     "@PMATCH_NRC_EXIT@",
	Passthrough: "@PMATCH_PASSTHROUGH@",
	Boundary:    "@BOUNDARY@",
}

// String returns the reserved symbol string for a special symbol.
func (s Special) String() string {
	if s < 0 || s >= specialCount {
		return "<invalid special>"
	}
	return specialNames[s]
}

const (
	endTagPrefix    = "@PMATCH_ENDTAG_"
	insertionPrefix = "@I."
)

// canonical maps the compiler spelling of pattern matching markers,
// @_PMATCH_<marker>_@, to the runtime spelling @PMATCH_<marker>@.
func canonical(s string) string {
	if len(s) > len("@_PMATCH_@") && strings.HasPrefix(s, "@_PMATCH_") && strings.HasSuffix(s, "_@") {
		return "@" + s[2:len(s)-2] + "@"
	}
	return s
}

// IsEndTag checks for the form @PMATCH_ENDTAG_<name>@, or
// @_PMATCH_ENDTAG_<name>_@.
func IsEndTag(s string) bool {
	s = canonical(s)
	return len(s) > len(endTagPrefix) && strings.HasPrefix(s, endTagPrefix) && strings.HasSuffix(s, "@")
}

// IsInsertion checks for the form @I.<name>@, a call of a named sub-network.
func IsInsertion(s string) bool {
	return len(s) > len(insertionPrefix) && strings.HasPrefix(s, insertionPrefix) && strings.HasSuffix(s, "@")
}

// classify records reserved symbols. It is called once per defined symbol.
func (a *Alphabet) classify(s string, sym Symbol) {
	if !strings.HasPrefix(s, "@") {
		return
	}
	s = canonical(s)
	for i, name := range specialNames {
		if s == name {
			if a.special[i] == NoSymbol {
				a.special[i] = sym
			}
			return
		}
	}
	if IsEndTag(s) {
		a.endTags[sym] = s[len(endTagPrefix) : len(s)-1]
	} else if IsInsertion(s) {
		a.insertions[s[len(insertionPrefix):len(s)-1]] = sym
	}
}

// Special returns the symbol number of a reserved symbol, or NoSymbol if the
// alphabet does not contain it.
func (a *Alphabet) Special(kind Special) Symbol {
	if kind < 0 || kind >= specialCount {
		return NoSymbol
	}
	return a.special[kind]
}

// IsSpecial reports whether sym is any of the reserved symbols, an end tag or
// an insertion.
func (a *Alphabet) IsSpecial(sym Symbol) bool {
	if sym == NoSymbol {
		return false
	}
	for _, s := range a.special {
		if s == sym {
			return true
		}
	}
	if _, ok := a.endTags[sym]; ok {
		return true
	}
	return a.IsInsertionSymbol(sym)
}

// IsEndTag reports whether sym is an end tag marker.
func (a *Alphabet) IsEndTag(sym Symbol) bool {
	_, ok := a.endTags[sym]
	return ok
}

// EndTagName returns the tag name of an end tag symbol, e.g. "EnamexPrsHum".
func (a *Alphabet) EndTagName(sym Symbol) (string, bool) {
	name, ok := a.endTags[sym]
	return name, ok
}

// StartTag renders the opening markup for an end tag symbol.
func (a *Alphabet) StartTag(sym Symbol) string {
	if name, ok := a.endTags[sym]; ok {
		return "<" + name + ">"
	}
	return ""
}

// EndTag renders the closing markup for an end tag symbol.
func (a *Alphabet) EndTag(sym Symbol) string {
	if name, ok := a.endTags[sym]; ok {
		return "</" + name + ">"
	}
	return ""
}

// Insertion returns the symbol which calls the sub-network name.
func (a *Alphabet) Insertion(name string) (Symbol, bool) {
	sym, ok := a.insertions[name]
	return sym, ok
}

// IsInsertionSymbol reports whether sym calls a named sub-network.
func (a *Alphabet) IsInsertionSymbol(sym Symbol) bool {
	return int(sym) < len(a.symbols) && IsInsertion(a.symbols[sym])
}

// InsertionName returns the name of the sub-network called by sym.
func (a *Alphabet) InsertionName(sym Symbol) (string, bool) {
	if !a.IsInsertionSymbol(sym) {
		return "", false
	}
	s := a.symbols[sym]
	return s[len(insertionPrefix) : len(s)-1], true
}

// EpsilonLike reports whether arcs with input sym are taken without
// consuming input: epsilon, flag diacritics and insertions.
func (a *Alphabet) EpsilonLike(sym Symbol) bool {
	return sym == Epsilon || a.IsFlagDiacritic(sym) || a.IsInsertionSymbol(sym)
}
