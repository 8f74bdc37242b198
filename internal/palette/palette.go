// Package palette collects the distinct colors of a raster and numbers
// them for an indexed bitmap.
package palette

import "slices"

// MaxSize is the largest palette an indexed icon bitmap can carry.
const MaxSize = 256

// Color is a 24-bit RGB color. Alpha is never part of a palette entry.
type Color struct {
	R, G, B uint8
}

func (c Color) key() uint32 {
	return uint32(c.R)<<16 | uint32(c.G)<<8 | uint32(c.B)
}

// Palette is a set of distinct colors. Indices are assigned in one pass by
// AssignIndices, after which Lookup and Colors agree on the numbering.
type Palette struct {
	index  map[Color]int // -1 until assigned
	colors []Color       // enumeration order, fixed by AssignIndices
}

// New returns an empty palette.
func New() *Palette {
	return &Palette{index: make(map[Color]int)}
}

// Add inserts c unless it is already present.
func (p *Palette) Add(c Color) {
	if _, ok := p.index[c]; !ok {
		p.index[c] = -1
	}
}

// Len returns the number of distinct colors added.
func (p *Palette) Len() int {
	return len(p.index)
}

// AssignIndices numbers every color in [0, Len()). The order depends only
// on the set of colors, not on insertion order: colors sort by their
// packed 0xRRGGBB value.
func (p *Palette) AssignIndices() {
	p.colors = p.colors[:0]
	for c := range p.index {
		p.colors = append(p.colors, c)
	}
	slices.SortFunc(p.colors, func(a, b Color) int {
		return int(a.key()) - int(b.key())
	})
	for i, c := range p.colors {
		p.index[c] = i
	}
}

// Lookup returns the index assigned to c. It reports false for colors that
// were never added or were added after the last AssignIndices.
func (p *Palette) Lookup(c Color) (int, bool) {
	i, ok := p.index[c]
	if !ok || i < 0 {
		return 0, false
	}
	return i, true
}

// Colors returns the indexed colors in index order.
func (p *Palette) Colors() []Color {
	return slices.Clone(p.colors)
}
