// Copyright 2025 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package chart

import (
	"fmt"
	"image/color"
	"math"
	"strconv"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/rnaperf/rnaperf/complexity"
	"github.com/rnaperf/rnaperf/dataset"
)

// curveSamples is the number of points on a fitted curve.
const curveSamples = 200

// ComplexityFit plots the data used by sel together with the best
// model's curve. With two independent variables it draws one series
// and one curve for each distinct value of the second variable.
func ComplexityFit(ds *dataset.Dataset, sel *complexity.Selection, pal *Palette) (*Figure, error) {
	if sel.Best == nil {
		return nil, fmt.Errorf("selection has no best model")
	}
	cols := make([][]float64, len(sel.Indep))
	for i, v := range sel.Indep {
		col, err := ds.Floats(v.ID)
		if err != nil {
			return nil, err
		}
		cols[i] = col
	}
	y, err := ds.Floats(sel.Dep.ID)
	if err != nil {
		return nil, err
	}

	p := plot.New()
	p.Title.Text = fmt.Sprintf("%s ~ %s", sel.Dep.Name, sel.Best.Model.Formula())
	p.X.Label.Text = sel.Indep[0].Name
	p.Y.Label.Text = sel.Dep.Name
	p.X.Tick.Marker = formatTicks{sel.Indep[0]}
	p.Y.Tick.Marker = formatTicks{sel.Dep}
	p.Legend.Top = true
	p.Add(plotter.NewGrid())

	switch len(cols) {
	case 1:
		err = addFit(p, sel, cols[0], y, math.NaN(), "data", pal)
	case 2:
		seen := make(map[float64]bool)
		for _, m := range cols[1] {
			if seen[m] || math.IsNaN(m) {
				continue
			}
			seen[m] = true
			var xs, ys []float64
			for i := range y {
				if cols[1][i] == m {
					xs = append(xs, cols[0][i])
					ys = append(ys, y[i])
				}
			}
			label := sel.Indep[1].ID + "=" + strconv.FormatFloat(m, 'g', -1, 64)
			if err = addFit(p, sel, xs, ys, m, label, pal); err != nil {
				break
			}
		}
	default:
		err = fmt.Errorf("cannot plot a model of %d variables", len(cols))
	}
	if err != nil {
		return nil, err
	}
	return Single(p), nil
}

// addFit adds the points (xs, ys) and the fitted curve over their x
// range to p. m is the value of the second variable, if any.
func addFit(p *plot.Plot, sel *complexity.Selection, xs, ys []float64, m float64, label string, pal *Palette) error {
	var pts plotter.XYs
	lo, hi := math.Inf(1), math.Inf(-1)
	for i := range xs {
		if math.IsNaN(xs[i]) || math.IsNaN(ys[i]) || math.IsInf(xs[i], 0) || math.IsInf(ys[i], 0) {
			continue
		}
		pts = append(pts, plotter.XY{X: xs[i], Y: ys[i]})
		lo, hi = math.Min(lo, xs[i]), math.Max(hi, xs[i])
	}
	if len(pts) == 0 {
		return nil
	}
	clr, err := pal.Color(label)
	if err != nil {
		return err
	}
	sc, err := plotter.NewScatter(pts)
	if err != nil {
		return err
	}
	sc.GlyphStyle.Color = withAlpha(clr, 0x99)
	sc.GlyphStyle.Radius = vg.Points(1.5)

	grid := make([]float64, curveSamples)
	for i := range grid {
		grid[i] = lo + (hi-lo)*float64(i)/float64(curveSamples-1)
	}
	in := [][]float64{grid}
	if !math.IsNaN(m) {
		ms := make([]float64, curveSamples)
		for i := range ms {
			ms[i] = m
		}
		in = append(in, ms)
	}
	pred, err := sel.Best.Predict(in)
	if err != nil {
		return err
	}
	curve := make(plotter.XYs, curveSamples)
	for i := range grid {
		curve[i] = plotter.XY{X: grid[i], Y: pred[i]}
	}
	line, err := plotter.NewLine(curve)
	if err != nil {
		return err
	}
	line.LineStyle.Color = darken(clr)
	line.LineStyle.Width = vg.Points(1.5)
	p.Add(sc, line)
	p.Legend.Add(label, sc, line)
	return nil
}

func darken(c color.Color) color.Color {
	r, g, b, _ := c.RGBA()
	return color.NRGBA{uint8(r >> 9), uint8(g >> 9), uint8(b >> 9), 0xff}
}
