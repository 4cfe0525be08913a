// Copyright 2025 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package chart

import (
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
)

const cosπover4 = vg.Length(.707106781202420)

// CrossGlyph draws a heavy X.
type CrossGlyph struct{}

// DrawGlyph implements the Glyph interface.
func (CrossGlyph) DrawGlyph(c *draw.Canvas, sty draw.GlyphStyle, pt vg.Point) {
	r := sty.Radius * cosπover4
	strokes(c, sty,
		vg.Point{X: pt.X - r, Y: pt.Y - r}, vg.Point{X: pt.X + r, Y: pt.Y + r},
		vg.Point{X: pt.X - r, Y: pt.Y + r}, vg.Point{X: pt.X + r, Y: pt.Y - r})
}

// TriDown draws a downward-pointing tripod.
type TriDown struct{}

// DrawGlyph implements the Glyph interface.
func (TriDown) DrawGlyph(c *draw.Canvas, sty draw.GlyphStyle, pt vg.Point) {
	r := sty.Radius * cosπover4
	strokes(c, sty,
		vg.Point{X: pt.X - r, Y: pt.Y + r}, vg.Point{X: pt.X, Y: pt.Y - r},
		vg.Point{X: pt.X + r, Y: pt.Y + r}, vg.Point{X: pt.X, Y: pt.Y - r},
		vg.Point{X: pt.X - r, Y: pt.Y}, vg.Point{X: pt.X + r, Y: pt.Y})
}

// TriUp draws an upward-pointing tripod.
type TriUp struct{}

// DrawGlyph implements the Glyph interface.
func (TriUp) DrawGlyph(c *draw.Canvas, sty draw.GlyphStyle, pt vg.Point) {
	r := sty.Radius * cosπover4
	strokes(c, sty,
		vg.Point{X: pt.X - r, Y: pt.Y - r}, vg.Point{X: pt.X, Y: pt.Y + r},
		vg.Point{X: pt.X + r, Y: pt.Y - r}, vg.Point{X: pt.X, Y: pt.Y + r},
		vg.Point{X: pt.X - r, Y: pt.Y}, vg.Point{X: pt.X + r, Y: pt.Y})
}

// StarGlyph draws an eight-pointed asterisk.
type StarGlyph struct{}

// DrawGlyph implements the Glyph interface.
func (StarGlyph) DrawGlyph(c *draw.Canvas, sty draw.GlyphStyle, pt vg.Point) {
	draw.PlusGlyph{}.DrawGlyph(c, sty, pt)
	CrossGlyph{}.DrawGlyph(c, sty, pt)
}

// DiamondGlyph draws a filled diamond.
type DiamondGlyph struct{}

// DrawGlyph implements the Glyph interface.
func (DiamondGlyph) DrawGlyph(c *draw.Canvas, sty draw.GlyphStyle, pt vg.Point) {
	r := sty.Radius
	var p vg.Path
	p.Move(vg.Point{X: pt.X, Y: pt.Y + r})
	p.Line(vg.Point{X: pt.X + r, Y: pt.Y})
	p.Line(vg.Point{X: pt.X, Y: pt.Y - r})
	p.Line(vg.Point{X: pt.X - r, Y: pt.Y})
	p.Close()
	c.SetColor(sty.Color)
	c.Fill(p)
}

// BarGlyph draws a vertical bar.
type BarGlyph struct{}

// DrawGlyph implements the Glyph interface.
func (BarGlyph) DrawGlyph(c *draw.Canvas, sty draw.GlyphStyle, pt vg.Point) {
	strokes(c, sty, vg.Point{X: pt.X, Y: pt.Y - sty.Radius}, vg.Point{X: pt.X, Y: pt.Y + sty.Radius})
}

// strokes draws a segment between each consecutive pair of points.
func strokes(c *draw.Canvas, sty draw.GlyphStyle, pts ...vg.Point) {
	c.SetLineStyle(draw.LineStyle{Color: sty.Color, Width: vg.Points(1)})
	p := make(vg.Path, 0, 2)
	for i := 0; i+1 < len(pts); i += 2 {
		p = p[:0]
		p.Move(pts[i])
		p.Line(pts[i+1])
		c.Stroke(p)
	}
}
