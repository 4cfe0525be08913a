// Copyright 2025 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package chart

import (
	"fmt"
	"image/color"
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
)

// Physical defaults for Boltzmann weighting.
const (
	// DefaultKCal is the Boltzmann constant in kcal/(mol·K).
	DefaultKCal = 1.987204259e-3
	// DefaultTemperature is 37 °C in kelvin.
	DefaultTemperature = 310.15
)

// binWidth is the width of energy histogram bins in kcal/mol.
const binWidth = 0.1

// An EnsembleSummary describes a free-energy ensemble.
type EnsembleSummary struct {
	N int
	// Partition is the partition function Q = Σ exp(-E/kT). It may
	// overflow to +Inf; LogPartition is always finite.
	Partition    float64
	LogPartition float64
	// Edges are the histogram bin edges. Counts and Probabilities
	// hold, per bin, the number of structures and the sum of their
	// Boltzmann probabilities.
	Edges         []float64
	Counts        []float64
	Probabilities []float64
}

// ProbabilitySum returns the total binned probability, which is 1 up
// to rounding.
func (s *EnsembleSummary) ProbabilitySum() float64 {
	return floats.Sum(s.Probabilities)
}

// Ensemble summarizes free energies (kcal/mol) at the given
// temperature (K) and Boltzmann constant. Bins are 0.1 kcal/mol wide
// and aligned to multiples of 0.1.
func Ensemble(energies []float64, temperature, kcal float64) (*EnsembleSummary, error) {
	if len(energies) == 0 {
		return nil, fmt.Errorf("no free energies")
	}
	if !(temperature > 0) || !(kcal > 0) {
		return nil, fmt.Errorf("temperature and Boltzmann constant must be positive")
	}
	for _, e := range energies {
		if math.IsNaN(e) || math.IsInf(e, 0) {
			return nil, fmt.Errorf("free energy %v is not finite", e)
		}
	}
	beta := 1 / (kcal * temperature)

	lo := math.Floor(floats.Min(energies)*10) / 10
	hi := math.Ceil(floats.Max(energies)*10) / 10
	nbins := max(int(math.Round((hi-lo)/binWidth)), 1)
	s := &EnsembleSummary{
		N:             len(energies),
		Edges:         make([]float64, nbins+1),
		Counts:        make([]float64, nbins),
		Probabilities: make([]float64, nbins),
	}
	for i := range s.Edges {
		s.Edges[i] = lo + float64(i)*binWidth
	}

	logw := make([]float64, len(energies))
	for i, e := range energies {
		logw[i] = -beta * e
	}
	s.LogPartition = floats.LogSumExp(logw)
	s.Partition = math.Exp(s.LogPartition)

	for i, e := range energies {
		// Bins are [lo, hi) except the last, which is closed.
		b := sort.SearchFloat64s(s.Edges, e)
		if b == len(s.Edges) || s.Edges[b] != e {
			b--
		}
		b = min(max(b, 0), nbins-1)
		s.Counts[b]++
		s.Probabilities[b] += math.Exp(logw[i] - s.LogPartition)
	}
	return s, nil
}

// Plots returns the free-energy histogram and the Boltzmann
// probability histogram of s.
func (s *EnsembleSummary) Plots(temperature float64) (dist, boltz *Figure) {
	mk := func(title, ylabel string, weights []float64, fill color.Color) *Figure {
		bins := make([]plotter.HistogramBin, len(weights))
		for i, w := range weights {
			bins[i] = plotter.HistogramBin{Min: s.Edges[i], Max: s.Edges[i+1], Weight: w}
		}
		h := &plotter.Histogram{
			Bins:      bins,
			Width:     binWidth,
			FillColor: fill,
			LineStyle: plotter.DefaultLineStyle,
		}
		p := plot.New()
		p.Title.Text = title
		p.X.Label.Text = "Free Energy (kcal/mol)"
		p.Y.Label.Text = ylabel
		p.Add(plotter.NewGrid(), h)
		return Single(p)
	}
	dist = mk(fmt.Sprintf("Free Energy Distribution (N=%d)", s.N), "Count", s.Counts,
		color.NRGBA{0x4c, 0x72, 0xb0, 0xff})
	boltz = mk(fmt.Sprintf("Boltzmann Distribution (T=%gK)", temperature), "Sum of Probabilities", s.Probabilities,
		color.NRGBA{0x87, 0xce, 0xeb, 0xff})
	return dist, boltz
}
