package alphabet

// pagedMap maps BMP code points (0..65535) to single-character symbols.
// It's a two-level page table:
//   - top[hi] = page index (1..number of pages), or 0 meaning "page absent".
//   - pages is a flat array of 256 entries per page.
//
// Lookup is O(1) with two array reads. An entry of 0 (epsilon) means the code
// point is not a symbol on its own, as epsilon never occurs in input.
type pagedMap struct {
	top   [256]uint16 // page index (1-based); 0 means none
	pages []Symbol    // flat: number of pages * 256
}

// get returns the symbol for a BMP code point, or Epsilon if absent.
func (m *pagedMap) get(r rune) Symbol {
	if r < 0 || r > 0xFFFF {
		return Epsilon
	}
	pi := m.top[r>>8]
	if pi == 0 {
		return Epsilon
	}
	base := int(pi-1) << 8
	return m.pages[base+int(r&0xFF)]
}

// numPages returns the number of allocated pages.
func (m *pagedMap) numPages() int { return len(m.pages) >> 8 }

// ensurePage ensures that the page for high byte hi exists and returns its
// 1-based index.
func (m *pagedMap) ensurePage(hi int) uint16 {
	pi := m.top[hi]
	if pi != 0 {
		return pi
	}
	m.pages = append(m.pages, make([]Symbol, 256)...)
	pi = uint16(m.numPages())
	m.top[hi] = pi
	return pi
}

// set maps code point r to sym. It returns false for code points outside
// the BMP, which have to be stored elsewhere.
func (m *pagedMap) set(r rune, sym Symbol) bool {
	if r < 0 || r > 0xFFFF {
		return false
	}
	hi := int(r >> 8)
	pi := m.top[hi]
	if pi == 0 {
		if sym == Epsilon {
			return true
		}
		pi = m.ensurePage(hi)
	}
	base := int(pi-1) << 8
	if m.pages[base+int(r&0xFF)] == Epsilon { // first definition wins
		m.pages[base+int(r&0xFF)] = sym
	}
	return true
}
