// Copyright 2025 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package chart

import (
	"fmt"
	"image/color"
	"math"

	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/rnaperf/rnaperf/dataset"
	"github.com/rnaperf/rnaperf/vars"
)

// bandAlpha is the opacity of min..max bands.
const bandAlpha = 0x33

// MeanQuantity plots, for each value of the split column, the mean of
// each y against x as a line, with a translucent band from the
// minimum to the maximum y at each x.
func MeanQuantity(ds *dataset.Dataset, split string, x vars.Var, ys []vars.Var, pal *Palette) (*Figure, error) {
	if len(ys) == 0 {
		return nil, fmt.Errorf("no y variables")
	}
	splits, err := ds.Unique(split)
	if err != nil {
		return nil, err
	}

	p := plot.New()
	p.Title.Text = fmt.Sprintf("%s vs %s", x.Name, ys[0].Name)
	p.X.Label.Text = x.Name
	p.Y.Label.Text = ys[0].Name
	p.X.Tick.Marker = formatTicks{x}
	p.Y.Tick.Marker = formatTicks{ys[0]}
	p.Legend.Top = true
	p.Add(plotter.NewGrid())

	for _, name := range splits {
		sub := ds.FilterEq(split, name)
		clr, err := pal.Color(name)
		if err != nil {
			return nil, err
		}
		for _, y := range ys {
			mean, band, err := meanBand(sub, x, y)
			if err != nil {
				return nil, err
			}
			poly, err := plotter.NewPolygon(band)
			if err != nil {
				return nil, err
			}
			poly.Color = withAlpha(clr, bandAlpha)
			poly.LineStyle.Width = 0

			line, err := plotter.NewLine(mean)
			if err != nil {
				return nil, err
			}
			line.LineStyle.Color = clr
			line.LineStyle.Width = vg.Points(1.5)
			p.Add(poly, line)

			label := name
			if len(ys) > 1 {
				label += " " + y.Name
			}
			thumbs := []plot.Thumbnailer{line}
			if sc := markerScatter(mean, name, clr); sc != nil {
				p.Add(sc)
				thumbs = append(thumbs, sc)
			}
			p.Legend.Add(label, thumbs...)
		}
	}
	return Single(p), nil
}

// meanBand aggregates y by x, returning the mean line and the closed
// min..max polygon.
func meanBand(ds *dataset.Dataset, x, y vars.Var) (mean, band plotter.XYs, err error) {
	agg, err := ds.Aggregate(x.ID, y.ID)
	if err != nil {
		return nil, nil, err
	}
	xs, err := agg.Floats(x.ID)
	if err != nil {
		return nil, nil, err
	}
	cols := make([][]float64, 3)
	for i, prefix := range []string{"mean ", "min ", "max "} {
		if cols[i], err = agg.Floats(prefix + y.ID); err != nil {
			return nil, nil, err
		}
	}
	if len(xs) == 0 {
		return nil, nil, fmt.Errorf("no data for %s", y.ID)
	}
	mean = make(plotter.XYs, len(xs))
	band = make(plotter.XYs, 2*len(xs))
	for i, xv := range xs {
		mean[i] = plotter.XY{X: xv, Y: cols[0][i]}
		band[i] = plotter.XY{X: xv, Y: cols[1][i]}
		band[2*len(xs)-1-i] = plotter.XY{X: xv, Y: cols[2][i]}
	}
	return mean, band, nil
}

// markerScatter returns a scatter of every markEvery'th point of xys drawn
// with name's glyph, or nil if name has no glyph.
func markerScatter(xys plotter.XYs, name string, clr color.Color) *plotter.Scatter {
	glyph := Marker(name)
	if glyph == nil {
		return nil
	}
	var pts plotter.XYs
	for i := 0; i < len(xys); i += markEvery {
		pts = append(pts, xys[i])
	}
	sc, err := plotter.NewScatter(pts)
	if err != nil {
		return nil
	}
	sc.GlyphStyle.Shape = glyph
	sc.GlyphStyle.Color = clr
	sc.GlyphStyle.Radius = vg.Points(2.5)
	return sc
}

// A LogFit is an ordinary least-squares line through log-scaled
// means, Y = Slope*X + Intercept.
type LogFit struct {
	Split     string
	N         int // Number of points fit
	Slope     float64
	Intercept float64
	RSquared  float64
}

func (f LogFit) String() string {
	sign := "+"
	if f.Intercept < 0 {
		sign = "-"
	}
	return fmt.Sprintf("%s: %.5fx %s %.2f, R² = %.3f", f.Split, f.Slope, sign, math.Abs(f.Intercept), f.RSquared)
}

// minLogMean is the smallest mean kept by MeanLogQuantity.
const minLogMean = 1e-2

// MeanLogQuantity draws a grid with one plot per value of the split
// column. Each plot shows the mean of y at each x, with means at or
// below 0.01 dropped, on log10 axes if requested, and the least-squares
// line through them. All plots share axis ranges. It also returns
// the fitted lines, with NaN coefficients for splits with fewer than
// two points.
func MeanLogQuantity(ds *dataset.Dataset, split string, x, y vars.Var, pal *Palette, logx, logy bool) (*Figure, []LogFit, error) {
	splits, err := ds.Unique(split)
	if err != nil {
		return nil, nil, err
	}
	if len(splits) == 0 {
		return nil, nil, fmt.Errorf("no data to plot")
	}
	xname, yname := x.Name, y.Name
	if logx {
		xname = "log(" + xname + ")"
	}
	if logy {
		yname = "log(" + yname + ")"
	}

	fig := newGrid(len(splits))
	var fits []LogFit
	xr, yr := newRange(), newRange()
	for k, name := range splits {
		agg, err := ds.FilterEq(split, name).Aggregate(x.ID, y.ID)
		if err != nil {
			return nil, nil, err
		}
		xs, err := agg.Floats(x.ID)
		if err != nil {
			return nil, nil, err
		}
		means, err := agg.Floats("mean " + y.ID)
		if err != nil {
			return nil, nil, err
		}
		var pts plotter.XYs
		for i := range xs {
			if !(means[i] > minLogMean) {
				continue
			}
			pt := plotter.XY{X: xs[i], Y: means[i]}
			if logx {
				pt.X = math.Log10(pt.X)
			}
			if logy {
				pt.Y = math.Log10(pt.Y)
			}
			if math.IsNaN(pt.X) || math.IsInf(pt.X, 0) {
				continue
			}
			pts = append(pts, pt)
			xr.add(pt.X)
			yr.add(pt.Y)
		}

		fit := LogFit{Split: name, N: len(pts), Slope: math.NaN(), Intercept: math.NaN(), RSquared: math.NaN()}
		clr, err := pal.Color(name)
		if err != nil {
			return nil, nil, err
		}
		p := fig.cell(k)
		p.Title.Text = name
		p.X.Label.Text = xname
		p.Y.Label.Text = yname
		p.Add(plotter.NewGrid())
		if len(pts) > 0 {
			sc, err := plotter.NewScatter(pts)
			if err != nil {
				return nil, nil, err
			}
			sc.GlyphStyle.Color = clr
			sc.GlyphStyle.Radius = vg.Points(2)
			p.Add(sc)
		}
		if len(pts) >= 2 {
			px, py := make([]float64, len(pts)), make([]float64, len(pts))
			for i, pt := range pts {
				px[i], py[i] = pt.X, pt.Y
			}
			fit.Intercept, fit.Slope = stat.LinearRegression(px, py, nil, false)
			fit.RSquared = stat.RSquared(px, py, nil, fit.Intercept, fit.Slope)

			lo, hi := minMax(px)
			line, err := plotter.NewLine(plotter.XYs{
				{X: lo, Y: fit.Intercept + fit.Slope*lo},
				{X: hi, Y: fit.Intercept + fit.Slope*hi},
			})
			if err != nil {
				return nil, nil, err
			}
			line.LineStyle.Color = color.NRGBA{A: 0xcc}
			p.Add(line)
			p.Legend.Add(fmt.Sprintf("%.5fx %+.2f, R² = %.3f", fit.Slope, fit.Intercept, fit.RSquared), line)
			p.Legend.Top = true
		}
		fits = append(fits, fit)
	}

	for k := range splits {
		p := fig.cell(k)
		if xr.ok() {
			p.X.Min, p.X.Max = xr.min, xr.max
		}
		if yr.ok() {
			p.Y.Min, p.Y.Max = yr.min, yr.max
		}
	}
	return fig, fits, nil
}

type valueRange struct{ min, max float64 }

func newRange() *valueRange {
	return &valueRange{math.Inf(1), math.Inf(-1)}
}

func (r *valueRange) add(v float64) {
	r.min = math.Min(r.min, v)
	r.max = math.Max(r.max, v)
}

func (r *valueRange) ok() bool {
	return r.min <= r.max
}

func minMax(xs []float64) (lo, hi float64) {
	lo, hi = math.Inf(1), math.Inf(-1)
	for _, x := range xs {
		lo, hi = math.Min(lo, x), math.Max(hi, x)
	}
	return lo, hi
}

func withAlpha(c color.Color, a uint8) color.Color {
	r, g, b, _ := c.RGBA()
	return color.NRGBA{uint8(r >> 8), uint8(g >> 8), uint8(b >> 8), a}
}

// formatTicks labels the default ticks with a variable's formatter.
type formatTicks struct {
	v vars.Var
}

func (f formatTicks) Ticks(min, max float64) []plot.Tick {
	ticks := plot.DefaultTicks{}.Ticks(min, max)
	if f.v.Format == nil {
		return ticks
	}
	for i := range ticks {
		if ticks[i].Label != "" {
			ticks[i].Label = f.v.FormatValue(ticks[i].Value)
		}
	}
	return ticks
}
