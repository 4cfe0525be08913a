// Copyright 2025 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package chart draws experiment charts with gonum/plot.
//
// Every chart function returns a Figure, which holds one plot or a
// grid of plots, and Save renders a Figure as PNG, SVG or PDF
// depending on the file extension.
package chart

import (
	"fmt"
	"image/color"
	"io"
	"math"
	"os"
	"path/filepath"
	"strings"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"
	"gonum.org/v1/plot/vg/vgpdf"
	"gonum.org/v1/plot/vg/vgsvg"
)

// A Figure is a grid of plots drawn on one canvas.
type Figure struct {
	// Plots is indexed by row, then column. Every row has the same
	// length.
	Plots [][]*plot.Plot
	// Width and Height are the preferred size. Zero means a size
	// derived from the grid shape.
	Width, Height vg.Length
}

// Single returns a Figure holding just p.
func Single(p *plot.Plot) *Figure {
	return &Figure{Plots: [][]*plot.Plot{{p}}}
}

// Plot returns the plot at row i, column j.
func (f *Figure) Plot(i, j int) *plot.Plot {
	return f.Plots[i][j]
}

// Dims returns the number of rows and columns in f.
func (f *Figure) Dims() (rows, cols int) {
	if len(f.Plots) == 0 {
		return 0, 0
	}
	return len(f.Plots), len(f.Plots[0])
}

// Default figure geometry.
const (
	DefaultDPI = 300
	cellSize   = 3 * vg.Inch
	singleW    = 16 * vg.Centimeter
	singleH    = 10 * vg.Centimeter
	// vgimg canvases wider than this many pixels are rendered at a
	// reduced DPI.
	maxPixels = 8190
)

func (f *Figure) size() (w, h vg.Length) {
	w, h = f.Width, f.Height
	rows, cols := f.Dims()
	if w == 0 {
		w = singleW
		if rows*cols > 1 {
			w = vg.Length(cols) * cellSize
		}
	}
	if h == 0 {
		h = singleH
		if rows*cols > 1 {
			h = vg.Length(rows) * cellSize
		}
	}
	return w, h
}

// gridShape returns the rows and columns of a grid holding n plots.
// Small counts use fixed layouts; larger ones are near-square.
func gridShape(n int) (rows, cols int) {
	shapes := [...][2]int{{0, 0}, {1, 1}, {1, 2}, {2, 2}, {2, 2}, {2, 3}, {2, 3}, {3, 3}, {3, 3}, {3, 3}}
	if n < len(shapes) {
		return shapes[n][0], shapes[n][1]
	}
	cols = int(math.Ceil(math.Sqrt(float64(n))))
	return (n + cols - 1) / cols, cols
}

// newGrid returns a Figure with room for n plots. Cells past n are
// blank plots with hidden axes.
func newGrid(n int) *Figure {
	rows, cols := gridShape(n)
	f := &Figure{Plots: make([][]*plot.Plot, rows)}
	for i := range f.Plots {
		f.Plots[i] = make([]*plot.Plot, cols)
		for j := range f.Plots[i] {
			p := plot.New()
			if i*cols+j >= n {
				p.HideAxes()
			}
			f.Plots[i][j] = p
		}
	}
	return f
}

// cell returns the k'th plot of f in row-major order.
func (f *Figure) cell(k int) *plot.Plot {
	_, cols := f.Dims()
	return f.Plots[k/cols][k%cols]
}

// SaveOptions control rendering.
type SaveOptions struct {
	// DPI is the resolution of PNG output. Zero means DefaultDPI.
	DPI int
	// Width and Height override the figure's size if non-zero.
	Width, Height vg.Length
}

// Save renders f to path. The format is taken from the extension:
// .png, .svg or .pdf. Parent directories are created as needed.
func Save(f *Figure, path string, opts SaveOptions) error {
	if err := os.MkdirAll(filepath.Dir(path), 0777); err != nil {
		return err
	}
	out, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := Render(f, out, strings.TrimPrefix(filepath.Ext(path), "."), opts); err != nil {
		out.Close()
		os.Remove(path)
		return fmt.Errorf("%s: %w", path, err)
	}
	return out.Close()
}

// Render draws f to out in the named format ("png", "svg" or "pdf").
func Render(f *Figure, out io.Writer, format string, opts SaveOptions) error {
	rows, cols := f.Dims()
	if rows == 0 || cols == 0 {
		return fmt.Errorf("empty figure")
	}
	w, h := f.size()
	if opts.Width != 0 {
		w = opts.Width
	}
	if opts.Height != 0 {
		h = opts.Height
	}

	var can vg.CanvasWriterTo
	switch strings.ToLower(format) {
	case "png":
		dpi := opts.DPI
		if dpi == 0 {
			dpi = DefaultDPI
		}
		if px := float64(dpi) * float64(w/vg.Inch); px > maxPixels {
			dpi = int(math.Trunc(float64(dpi) * maxPixels / px))
		}
		can = vgimg.PngCanvas{Canvas: vgimg.NewWith(vgimg.UseWH(w, h),
			vgimg.UseDPI(dpi), vgimg.UseBackgroundColor(color.White))}
	case "svg":
		can = vgsvg.New(w, h)
	case "pdf":
		can = vgpdf.New(w, h)
	default:
		return fmt.Errorf("unsupported image format %q (want png, svg or pdf)", format)
	}

	dc := draw.New(can)
	if rows == 1 && cols == 1 {
		f.Plots[0][0].Draw(dc)
	} else {
		tiles := draw.Tiles{
			Rows: rows, Cols: cols,
			PadTop: vg.Millimeter, PadBottom: vg.Millimeter,
			PadLeft: vg.Millimeter, PadRight: vg.Millimeter,
			PadX: 2 * vg.Millimeter, PadY: 2 * vg.Millimeter,
		}
		canvases := plot.Align(f.Plots, tiles, dc)
		for i := range f.Plots {
			for j, p := range f.Plots[i] {
				p.Draw(canvases[i][j])
			}
		}
	}
	_, err := can.WriteTo(out)
	return err
}
