// Copyright 2025 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package chart

import (
	"fmt"
	"image/color"

	"github.com/cespare/xxhash/v2"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg/draw"
)

// A Palette assigns each series name a distinct colour. The same name
// always gets the same colour from a given Palette, and a name's
// preferred colour depends only on the name, so charts drawn in one
// session agree with each other.
//
// A Palette is not safe for concurrent use.
type Palette struct {
	colors []color.Color
	byName map[string]int
	owner  map[int]string
}

// DefaultColors is the palette used by NewPalette when no colours are
// given.
var DefaultColors = append(append([]color.Color(nil), plotutil.DarkColors...), plotutil.SoftColors...)

// NewPalette returns a Palette drawing from colors, or from
// DefaultColors if none are given.
func NewPalette(colors ...color.Color) *Palette {
	if len(colors) == 0 {
		colors = DefaultColors
	}
	return &Palette{
		colors: colors,
		byName: make(map[string]int),
		owner:  make(map[int]string),
	}
}

// Color returns the colour for name. A new name gets the colour at
// its hash, or the next free colour after it. It is an error if every
// colour is taken.
func (p *Palette) Color(name string) (color.Color, error) {
	if i, ok := p.byName[name]; ok {
		return p.colors[i], nil
	}
	n := len(p.colors)
	start := int(xxhash.Sum64String(name) % uint64(n))
	for k := 0; k < n; k++ {
		i := (start + k) % n
		if _, taken := p.owner[i]; !taken {
			p.byName[name] = i
			p.owner[i] = name
			return p.colors[i], nil
		}
	}
	return nil, fmt.Errorf("no free colour for %q: all %d colours are in use", name, n)
}

// Len returns the number of names assigned a colour.
func (p *Palette) Len() int {
	return len(p.byName)
}

// markers are the point glyphs, indexed by name hash. A nil entry
// draws a plain line.
var markers = []draw.GlyphDrawer{
	nil,
	draw.CircleGlyph{},
	TriDown{},
	TriUp{},
	draw.SquareGlyph{},
	draw.PyramidGlyph{},
	StarGlyph{},
	draw.PlusGlyph{},
	CrossGlyph{},
	DiamondGlyph{},
	BarGlyph{},
}

// Marker returns the point glyph for name, or nil if name's series is
// drawn without markers.
func Marker(name string) draw.GlyphDrawer {
	return markers[xxhash.Sum64String(name)%uint64(len(markers))]
}

// markEvery is the spacing of marker glyphs along a line.
const markEvery = 5
