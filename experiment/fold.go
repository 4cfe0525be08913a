// Copyright 2025 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package experiment

import (
	"context"
	"fmt"
	"io"
	"sort"

	"github.com/aclements/go-moremath/stats"

	"github.com/rnaperf/rnaperf/chart"
	"github.com/rnaperf/rnaperf/dataset"
	"github.com/rnaperf/rnaperf/internal/logging"
	"github.com/rnaperf/rnaperf/internal/texttab"
	"github.com/rnaperf/rnaperf/vars"
)

// slowFolders are left out of the "random" subset plots; they are
// slow enough to flatten every other curve.
var slowFolders = []string{"RNAstructure", "ViennaRNA-d3", "ViennaRNA-d3-noLP"}

// lookupVars returns the descriptors of the named columns of ds.
func lookupVars(ds *dataset.Dataset, ids ...string) ([]vars.Var, error) {
	out := make([]vars.Var, len(ids))
	for i, id := range ids {
		v, ok := ds.Vars().Lookup(id)
		if !ok {
			return nil, &dataset.ColumnError{Column: id, Msg: "no such column"}
		}
		out[i] = v
	}
	return out, nil
}

// plotQuantities saves one mean-quantity chart of each y against x
// split by program, named prefix_y.
func plotQuantities(ctx context.Context, ds *dataset.Dataset, out *Output, prefix string, x vars.Var, ys []vars.Var) ([]string, error) {
	var paths []string
	for _, y := range ys {
		fig, err := chart.MeanQuantity(ds, "program", x, []vars.Var{y}, out.palette())
		if err != nil {
			return paths, fmt.Errorf("%s: %w", prefix, err)
		}
		path, err := out.save(ctx, fig, prefix+"_"+y.ID)
		if err != nil {
			return paths, err
		}
		paths = append(paths, path)
	}
	return paths, nil
}

// FoldPerf plots the wall time and peak memory of each program
// against RNA length, for each dataset in ds. For the "random"
// dataset it also plots the programs other than the slowest folders.
// Each dataset additionally gets log-log charts with a least-squares
// line per program; the lines are logged. FoldPerf returns the paths
// of the charts written.
func FoldPerf(ctx context.Context, ds *dataset.Dataset, out *Output) ([]string, error) {
	log := logging.FromContext(ctx)
	vs, err := lookupVars(ds, "length", "real_sec", "maxrss_bytes")
	if err != nil {
		return nil, err
	}
	length, ys := vs[0], vs[1:]

	groups, err := ds.GroupBy("dataset")
	if err != nil {
		return nil, err
	}
	var paths []string
	for _, g := range groups {
		name := g.KeyString()
		log.Info("Plotting fold performance", "dataset", name, "rows", g.Data.Len())

		ps, err := plotQuantities(ctx, g.Data, out, name, length, ys)
		paths = append(paths, ps...)
		if err != nil {
			return paths, err
		}
		if name == "random" {
			if sub := g.Data.Exclude("program", slowFolders...); sub.Len() > 0 {
				ps, err := plotQuantities(ctx, sub, out, name+"_subset", length, ys)
				paths = append(paths, ps...)
				if err != nil {
					return paths, err
				}
			}
		}

		for _, y := range ys {
			fig, fits, err := chart.MeanLogQuantity(g.Data, "program", length, y, out.palette(), true, true)
			if err != nil {
				return paths, fmt.Errorf("%s: %w", name, err)
			}
			for _, fit := range fits {
				log.Info("Log-log fit", "dataset", name, "y", y.ID, "fit", fit.String())
			}
			path, err := out.save(ctx, fig, name+"_"+y.ID+"_log")
			if err != nil {
				return paths, err
			}
			paths = append(paths, path)
		}
	}
	return paths, nil
}

// accuracyMetrics are the columns summarized by FoldAccuracy.
var accuracyMetrics = []string{"ppv", "sensitivity", "f1"}

// A FamilyAccuracy holds the mean accuracy of one program on one RNA
// family.
type FamilyAccuracy struct {
	Family string
	N      int
	// Means holds the mean of each of ppv, sensitivity and f1.
	Means [3]float64
}

// An AccuracySummary holds the accuracy of one program on one
// dataset.
type AccuracySummary struct {
	Dataset, Program string
	// Families is sorted by family name.
	Families []FamilyAccuracy
	// Means holds the mean over families of each family mean, so
	// every family weighs the same regardless of its size.
	Means [3]float64
}

// FoldAccuracy summarizes prediction accuracy per dataset and
// program. Parents of domain entries are dropped first so a
// structure is not counted both whole and by domain. If out is not
// nil, FoldAccuracy also plots wall time and peak memory against
// length for each dataset.
func FoldAccuracy(ctx context.Context, ds *dataset.Dataset, out *Output) ([]*AccuracySummary, error) {
	log := logging.FromContext(ctx)
	if _, err := lookupVars(ds, append([]string{"family", "program"}, accuracyMetrics...)...); err != nil {
		return nil, err
	}
	groups, err := ds.GroupBy("dataset")
	if err != nil {
		return nil, err
	}
	var sums []*AccuracySummary
	for _, g := range groups {
		name := g.KeyString()
		filtered, err := dataset.DropDomainParents(g.Data)
		if err != nil {
			return nil, err
		}
		log.V(logging.DEBUG).Info("Dropped domain parents", "dataset", name, "before", g.Data.Len(), "after", filtered.Len())

		programs, err := filtered.GroupBy("program")
		if err != nil {
			return nil, err
		}
		for _, pg := range programs {
			sum, err := programAccuracy(pg.Data)
			if err != nil {
				return nil, err
			}
			sum.Dataset, sum.Program = name, pg.KeyString()
			sums = append(sums, sum)
		}

		if out != nil {
			vs, err := lookupVars(g.Data, "length", "real_sec", "maxrss_bytes")
			if err != nil {
				return nil, err
			}
			if _, err := plotQuantities(ctx, g.Data, out, name, vs[0], vs[1:]); err != nil {
				return nil, err
			}
		}
	}
	return sums, nil
}

func programAccuracy(ds *dataset.Dataset) (*AccuracySummary, error) {
	families, err := ds.GroupBy("family")
	if err != nil {
		return nil, err
	}
	sum := new(AccuracySummary)
	perMetric := make([][]float64, len(accuracyMetrics))
	for _, fg := range families {
		fa := FamilyAccuracy{Family: fg.KeyString(), N: fg.Data.Len()}
		for i, m := range accuracyMetrics {
			xs, err := fg.Data.Floats(m)
			if err != nil {
				return nil, err
			}
			fa.Means[i] = stats.Mean(xs)
			perMetric[i] = append(perMetric[i], fa.Means[i])
		}
		sum.Families = append(sum.Families, fa)
	}
	sort.Slice(sum.Families, func(i, j int) bool {
		return sum.Families[i].Family < sum.Families[j].Family
	})
	for i := range accuracyMetrics {
		sum.Means[i] = stats.Mean(perMetric[i])
	}
	return sum, nil
}

// WriteAccuracy writes one table per dataset and program listing the
// per-family means and their overall mean.
func WriteAccuracy(w io.Writer, sums []*AccuracySummary) error {
	for i, s := range sums {
		if i > 0 {
			if _, err := fmt.Fprintln(w); err != nil {
				return err
			}
		}
		if _, err := fmt.Fprintf(w, "dataset %s program %s\n", s.Dataset, s.Program); err != nil {
			return err
		}
		var tab texttab.Table
		tab.Row().Cell("family").Cell("n")
		for _, m := range accuracyMetrics {
			tab.Cell(m)
		}
		tab.Rule()
		for _, f := range s.Families {
			tab.Row().Cell(f.Family).Cellf("%d", f.N)
			for _, v := range f.Means {
				tab.Cellf("%.4f", v)
			}
		}
		tab.Rule()
		tab.Row().Cell("mean").Cellf("%d", len(s.Families))
		for _, v := range s.Means {
			tab.Cellf("%.4f", v)
		}
		if err := tab.Format(w); err != nil {
			return err
		}
	}
	return nil
}
