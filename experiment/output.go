// Copyright 2025 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package experiment drives the benchmark analyses: fold performance
// and accuracy summaries, suboptimal folding throughput plots and
// complexity fits, free-energy ensembles and partition function
// comparisons.
//
// Drivers take their input as datasets or readers, write charts
// through an Output and report progress to the logger carried by
// their context.
package experiment

import (
	"context"
	"strings"

	"github.com/rnaperf/rnaperf/chart"
	"github.com/rnaperf/rnaperf/internal/config"
	"github.com/rnaperf/rnaperf/internal/logging"
)

// An Output is a directory charts are written to.
type Output struct {
	Dir  string
	Plot config.PlotConfig
	// Palette is shared by every chart written through this Output,
	// so a series keeps its colour across charts. If nil, a default
	// palette is created on first use.
	Palette *chart.Palette
}

// NewOutput returns an Output writing to dir with the given plot
// settings.
func NewOutput(dir string, plot config.PlotConfig) *Output {
	return &Output{Dir: dir, Plot: plot}
}

func (o *Output) palette() *chart.Palette {
	if o.Palette == nil {
		o.Palette = chart.NewPalette()
	}
	return o.Palette
}

// save writes f as name plus the configured extension and returns the
// path written.
func (o *Output) save(ctx context.Context, f *chart.Figure, name string) (string, error) {
	path := o.Plot.Path(o.Dir, fileName(name))
	if err := chart.Save(f, path, o.Plot.SaveOptions()); err != nil {
		return "", err
	}
	logging.FromContext(ctx).V(logging.DEBUG).Info("Wrote chart", "path", path)
	return path, nil
}

// fileName makes a chart name built from data values safe to use as
// a file name.
func fileName(name string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':', ' ':
			return '-'
		}
		return r
	}, name)
}
