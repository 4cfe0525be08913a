// Copyright 2025 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package experiment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/rnaperf/rnaperf/chart"
	"github.com/rnaperf/rnaperf/complexity"
	"github.com/rnaperf/rnaperf/dataset"
	"github.com/rnaperf/rnaperf/internal/config"
	"github.com/rnaperf/rnaperf/internal/logging"
	"github.com/rnaperf/rnaperf/storage/fitdb"
	"github.com/rnaperf/rnaperf/vars"
)

// suboptQuantities are the columns plotted by SuboptPerfPlot.
var suboptQuantities = []string{"strucs_per_sec", "bases_per_byte", "maxrss_bytes"}

// SuboptPerfPlot plots structure throughput, memory efficiency and
// peak memory against RNA length, split by program, for each
// suboptimal folding configuration in raw. raw holds undecorated
// records; failed runs are dropped and the derived columns added
// first. Charts are named quantity_<group>_<column>.
func SuboptPerfPlot(ctx context.Context, raw *dataset.Dataset, out *Output) ([]string, error) {
	log := logging.FromContext(ctx)
	ds, err := dataset.DeriveSuboptPerf(raw)
	if err != nil {
		return nil, err
	}
	vs, err := lookupVars(ds, append([]string{"rna_length"}, suboptQuantities...)...)
	if err != nil {
		return nil, err
	}
	groups, err := ds.GroupBy(vars.SuboptPerfGroupKeys()...)
	if err != nil {
		return nil, err
	}
	var paths []string
	for _, g := range groups {
		name := g.KeyString()
		log.Info("Plotting subopt performance", "group", name, "rows", g.Data.Len())
		ps, err := plotQuantities(ctx, g.Data, out, "quantity_"+name, vs[0], vs[1:])
		paths = append(paths, ps...)
		if err != nil {
			return paths, err
		}
	}
	return paths, nil
}

// AnalyzeOptions configure a complexity analysis.
type AnalyzeOptions struct {
	// X names one or two independent columns and Y the dependent
	// column.
	X []string
	Y string
	// GroupBy names the columns whose distinct values split the data
	// into separately fitted groups. If empty, all rows form one
	// group named "all".
	GroupBy []string
	Fit     config.FitConfig

	// Archive, if not nil, records every selection.
	Archive *fitdb.Run
	// Out, if not nil, receives a chart of each group's best fit,
	// named fit_<group>_<y>.
	Out *Output
}

// A GroupFit is the outcome of fitting one group.
type GroupFit struct {
	Group string
	Rows  int
	// Selection is nil if Err is set.
	Selection *complexity.Selection
	Err       error
}

// Analyze fits the complexity catalog to each group of ds. A group
// in which no candidate model can be fit is recorded with its error
// and does not stop the analysis; any other error does.
func Analyze(ctx context.Context, ds *dataset.Dataset, opts AnalyzeOptions) ([]*GroupFit, error) {
	log := logging.FromContext(ctx)
	xs, err := lookupVars(ds, opts.X...)
	if err != nil {
		return nil, err
	}
	ys, err := lookupVars(ds, opts.Y)
	if err != nil {
		return nil, err
	}
	fopts, err := opts.Fit.FitterOptions(len(xs))
	if err != nil {
		return nil, err
	}
	fitter, err := complexity.NewFitter(xs, ys[0], fopts...)
	if err != nil {
		return nil, err
	}
	groups, err := ds.GroupBy(opts.GroupBy...)
	if err != nil {
		return nil, err
	}

	var fits []*GroupFit
	for _, g := range groups {
		gf := &GroupFit{Group: g.KeyString(), Rows: g.Data.Len()}
		if len(opts.GroupBy) == 0 {
			gf.Group = "all"
		}
		fits = append(fits, gf)
		log.Info("Fitting", "group", gf.Group, "rows", gf.Rows)

		sel, err := fitter.Fit(ctx, g.Data)
		if errors.Is(err, complexity.ErrNoViableModel) {
			log.Info("No viable model", "group", gf.Group, "error", err)
			gf.Err = err
			continue
		} else if err != nil {
			return fits, fmt.Errorf("group %s: %w", gf.Group, err)
		}
		gf.Selection = sel
		log.V(logging.DEBUG).Info("Selected model", "group", gf.Group, "model", sel.Name)

		if opts.Archive != nil {
			if err := opts.Archive.InsertSelection(ctx, gf.Group, sel); err != nil {
				return fits, err
			}
		}
		if opts.Out != nil {
			fig, err := chart.ComplexityFit(g.Data, sel, opts.Out.palette())
			if err != nil {
				return fits, err
			}
			if _, err := opts.Out.save(ctx, fig, "fit_"+gf.Group+"_"+opts.Y); err != nil {
				return fits, err
			}
		}
	}
	return fits, nil
}

// SuboptPerfAnalyze fits the complexity catalog to the suboptimal
// folding records in raw, separately for each configuration and
// program. Unless opts says otherwise, it fits wall time against RNA
// length.
func SuboptPerfAnalyze(ctx context.Context, raw *dataset.Dataset, opts AnalyzeOptions) ([]*GroupFit, error) {
	ds, err := dataset.DeriveSuboptPerf(raw)
	if err != nil {
		return nil, err
	}
	if len(opts.X) == 0 {
		opts.X = []string{"rna_length"}
	}
	if opts.Y == "" {
		opts.Y = "real_sec"
	}
	if len(opts.GroupBy) == 0 {
		opts.GroupBy = append(vars.SuboptPerfGroupKeys(), "program")
	}
	return Analyze(ctx, ds, opts)
}

// A groupReport is a GroupFit in encodable form.
type groupReport struct {
	Group     string              `json:"group" yaml:"group"`
	Rows      int                 `json:"rows" yaml:"rows"`
	Selection *complexity.Summary `json:"selection,omitempty" yaml:"selection,omitempty"`
	Error     string              `json:"error,omitempty" yaml:"error,omitempty"`
}

// WriteFits writes fits to w as "text", "json" or "yaml".
func WriteFits(w io.Writer, fits []*GroupFit, format string) error {
	switch format {
	case "", "text":
		for i, gf := range fits {
			if i > 0 {
				fmt.Fprintln(w)
			}
			fmt.Fprintf(w, "== %s (%d rows)\n", gf.Group, gf.Rows)
			if gf.Err != nil {
				if _, err := fmt.Fprintf(w, "%v\n", gf.Err); err != nil {
					return err
				}
				continue
			}
			if err := gf.Selection.WriteText(w); err != nil {
				return err
			}
		}
		return nil
	case "json", "yaml":
	default:
		return fmt.Errorf("unknown output format %q (want text, json or yaml)", format)
	}

	reports := make([]groupReport, len(fits))
	for i, gf := range fits {
		reports[i] = groupReport{Group: gf.Group, Rows: gf.Rows}
		if gf.Err != nil {
			reports[i].Error = gf.Err.Error()
		} else {
			sum := gf.Selection.Summary()
			reports[i].Selection = &sum
		}
	}
	if format == "json" {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(reports)
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(reports); err != nil {
		return err
	}
	return enc.Close()
}
