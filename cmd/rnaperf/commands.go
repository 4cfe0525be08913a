// Copyright 2025 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"fmt"
	"io"
	"os"
	"strconv"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/mattn/go-sqlite3"
	"github.com/spf13/cobra"

	"github.com/rnaperf/rnaperf/complexity"
	"github.com/rnaperf/rnaperf/dataset"
	"github.com/rnaperf/rnaperf/dataset/query"
	"github.com/rnaperf/rnaperf/experiment"
	"github.com/rnaperf/rnaperf/internal/config"
	"github.com/rnaperf/rnaperf/internal/logging"
	"github.com/rnaperf/rnaperf/internal/texttab"
	"github.com/rnaperf/rnaperf/storage/fitdb"
	"github.com/rnaperf/rnaperf/vars"
)

// app holds the state shared by all subcommands.
type app struct {
	configPath string
	verbosity  int
	cfg        *config.Config
	stdout     io.Writer
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	a := &app{stdout: stdout}
	root := &cobra.Command{
		Use:           "rnaperf",
		Short:         "Analyze RNA folding benchmark results",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			logger, err := logging.New(stderr, a.verbosity)
			if err != nil {
				return err
			}
			cmd.SetContext(logging.NewContext(cmd.Context(), logger))
			a.cfg, err = config.Load(a.configPath, cmd.Flags())
			return err
		},
	}
	root.SetOut(stdout)
	root.SetErr(stderr)

	def := config.Default()
	pf := root.PersistentFlags()
	pf.StringVar(&a.configPath, "config", "", "read settings from YAML `file`")
	pf.IntVarP(&a.verbosity, "verbosity", "v", logging.INFO, "log `level`: 0 info, 1 debug, 2 trace")
	pf.String("criterion", def.Fit.Criterion, "model selection criterion: bic or aic")
	pf.Duration("timeout", def.Fit.Timeout, "time limit for each candidate fit")
	pf.Int("workers", def.Fit.Workers, "number of candidates fit concurrently")
	pf.Int("max-evaluations", def.Fit.MaxEvaluations, "model evaluations per fit (0 for 200*(k+1))")
	pf.String("format", def.Plot.Format, "chart format: png, svg or pdf")
	pf.Int("dpi", def.Plot.DPI, "PNG resolution")
	pf.Float64("width-cm", 0, "chart width in cm (0 for automatic)")
	pf.Float64("height-cm", 0, "chart height in cm (0 for automatic)")
	pf.String("db-driver", "", "fit archive driver: sqlite3 or mysql")
	pf.String("db", "", "fit archive data source name")

	root.AddCommand(
		a.plotFoldPerfCmd(),
		a.plotFoldAccuracyCmd(),
		a.plotSuboptPerfCmd(),
		a.analyzeSuboptPerfCmd(),
		a.fitCmd(),
		a.plotEnsembleCmd(),
		a.comparePartitionCmd(),
		a.listFitsCmd(),
	)
	return root
}

func (a *app) output(dir string) *experiment.Output {
	return experiment.NewOutput(dir, a.cfg.Plot)
}

// openArchive opens the configured fit archive and starts a run, or
// returns nils if no archive is configured.
func (a *app) openArchive(cmd *cobra.Command, label string) (*fitdb.DB, *fitdb.Run, error) {
	if a.cfg.DB.Driver == "" {
		return nil, nil, nil
	}
	db, err := fitdb.OpenSQL(a.cfg.DB.Driver, a.cfg.DB.DSN)
	if err != nil {
		return nil, nil, err
	}
	run, err := db.NewRun(cmd.Context(), label)
	if err != nil {
		db.Close()
		return nil, nil, err
	}
	logging.FromContext(cmd.Context()).Info("Archiving fits", "driver", a.cfg.DB.Driver, "run", run.ID)
	return db, run, nil
}

func (a *app) plotFoldPerfCmd() *cobra.Command {
	var dir string
	cmd := &cobra.Command{
		Use:   "plot-fold-perf input",
		Short: "Plot fold wall time and memory against RNA length",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ds, err := dataset.Open(args[0], vars.FoldPerf())
			if err != nil {
				return err
			}
			_, err = experiment.FoldPerf(cmd.Context(), ds, a.output(dir))
			return err
		},
	}
	cmd.Flags().StringVarP(&dir, "output-dir", "o", ".", "write charts to `dir`")
	return cmd
}

func (a *app) plotFoldAccuracyCmd() *cobra.Command {
	var dir string
	cmd := &cobra.Command{
		Use:   "plot-fold-accuracy input",
		Short: "Summarize fold accuracy per dataset, program and family",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ds, err := dataset.Open(args[0], vars.FoldAccuracy())
			if err != nil {
				return err
			}
			var out *experiment.Output
			if dir != "" {
				out = a.output(dir)
			}
			sums, err := experiment.FoldAccuracy(cmd.Context(), ds, out)
			if err != nil {
				return err
			}
			return experiment.WriteAccuracy(a.stdout, sums)
		},
	}
	cmd.Flags().StringVarP(&dir, "output-dir", "o", "", "also write time and memory charts to `dir`")
	return cmd
}

func (a *app) plotSuboptPerfCmd() *cobra.Command {
	var dir string
	cmd := &cobra.Command{
		Use:   "plot-subopt-perf input",
		Short: "Plot suboptimal folding throughput against RNA length",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ds, err := dataset.Open(args[0], vars.SuboptPerf())
			if err != nil {
				return err
			}
			_, err = experiment.SuboptPerfPlot(cmd.Context(), ds, a.output(dir))
			return err
		},
	}
	cmd.Flags().StringVarP(&dir, "output-dir", "o", ".", "write charts to `dir`")
	return cmd
}

// fitFlags are the flags shared by the fitting commands.
type fitFlags struct {
	format string
	dir    string
	label  string
}

func (f *fitFlags) register(cmd *cobra.Command, label string) {
	cmd.Flags().StringVar(&f.format, "output", "text", "report `format`: text, json or yaml")
	cmd.Flags().StringVarP(&f.dir, "output-dir", "o", "", "also write a chart of each best fit to `dir`")
	cmd.Flags().StringVar(&f.label, "label", label, "label of the archived run")
}

// analyze runs opts over ds, archiving and charting as configured,
// and writes the report.
func (a *app) analyze(cmd *cobra.Command, f *fitFlags, ds *dataset.Dataset, opts experiment.AnalyzeOptions,
	run func(*dataset.Dataset, experiment.AnalyzeOptions) ([]*experiment.GroupFit, error)) error {
	db, archive, err := a.openArchive(cmd, f.label)
	if err != nil {
		return err
	}
	if db != nil {
		defer db.Close()
	}
	opts.Fit = a.cfg.Fit
	opts.Archive = archive
	if f.dir != "" {
		opts.Out = a.output(f.dir)
	}
	fits, err := run(ds, opts)
	if err != nil {
		return err
	}
	return experiment.WriteFits(a.stdout, fits, f.format)
}

func (a *app) analyzeSuboptPerfCmd() *cobra.Command {
	var f fitFlags
	cmd := &cobra.Command{
		Use:   "analyze-subopt-perf input",
		Short: "Fit complexity models to suboptimal folding wall time",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ds, err := dataset.Open(args[0], vars.SuboptPerf())
			if err != nil {
				return err
			}
			return a.analyze(cmd, &f, ds, experiment.AnalyzeOptions{}, func(ds *dataset.Dataset, opts experiment.AnalyzeOptions) ([]*experiment.GroupFit, error) {
				return experiment.SuboptPerfAnalyze(cmd.Context(), ds, opts)
			})
		},
	}
	f.register(cmd, "analyze-subopt-perf")
	return cmd
}

// recordKinds maps --kind values to record columns.
var recordKinds = map[string]func() vars.Set{
	"fold-perf":     vars.FoldPerf,
	"fold-accuracy": vars.FoldAccuracy,
	"subopt-perf":   vars.SuboptPerf,
}

func (a *app) fitCmd() *cobra.Command {
	var (
		f                    fitFlags
		input, kind, y, filt string
		xs, groups           []string
	)
	cmd := &cobra.Command{
		Use:   "fit",
		Short: "Fit complexity models to any numeric columns",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			vs, ok := recordKinds[kind]
			if !ok {
				return fmt.Errorf("unknown record kind %q", kind)
			}
			if len(xs) < 1 || len(xs) > 2 {
				return &complexity.ConfigError{Msg: fmt.Sprintf("--x takes one or two columns, got %d", len(xs))}
			}
			ds, err := dataset.Open(input, vs())
			if err != nil {
				return err
			}
			if kind == "subopt-perf" {
				if ds, err = dataset.DeriveSuboptPerf(ds); err != nil {
					return err
				}
			}
			if filt != "" {
				q, err := query.Parse(filt)
				if err != nil {
					return err
				}
				ds = ds.Where(q)
				logging.FromContext(cmd.Context()).V(logging.DEBUG).Info("Filtered", "query", q.String(), "rows", ds.Len())
			}
			opts := experiment.AnalyzeOptions{X: xs, Y: y, GroupBy: groups}
			return a.analyze(cmd, &f, ds, opts, func(ds *dataset.Dataset, opts experiment.AnalyzeOptions) ([]*experiment.GroupFit, error) {
				return experiment.Analyze(cmd.Context(), ds, opts)
			})
		},
	}
	fl := cmd.Flags()
	fl.StringVar(&input, "input", "-", "read records from `file` (- for stdin)")
	fl.StringVar(&kind, "kind", "subopt-perf", "record `kind`: fold-perf, fold-accuracy or subopt-perf")
	fl.StringSliceVar(&xs, "x", []string{"rna_length"}, "independent `columns` (one or two)")
	fl.StringVar(&y, "y", "real_sec", "dependent `column`")
	fl.StringVar(&filt, "filter", "", "only fit records matching `query`")
	fl.StringSliceVar(&groups, "group", nil, "fit each distinct value of these `columns` separately")
	f.register(cmd, "fit")
	return cmd
}

func (a *app) plotEnsembleCmd() *cobra.Command {
	var (
		dir  string
		opts experiment.EnsembleOptions
	)
	cmd := &cobra.Command{
		Use:   "plot-ensemble input",
		Short: "Plot the free energy and Boltzmann distributions of an ensemble",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()
			_, err = experiment.Ensemble(cmd.Context(), f, a.stdout, a.output(dir), opts)
			return err
		},
	}
	cmd.Flags().StringVarP(&dir, "output-dir", "o", ".", "write charts to `dir`")
	cmd.Flags().Float64Var(&opts.Temperature, "temperature", 310.15, "temperature in `kelvin`")
	cmd.Flags().Float64Var(&opts.KCal, "k-cal", 1.987204259e-3, "Boltzmann constant in kcal/(mol K)")
	return cmd
}

func (a *app) comparePartitionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "compare-partition file0 file1",
		Short: "Compare two files of partition function values",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			var rs [2]io.Reader
			for i, path := range args {
				f, err := os.Open(path)
				if err != nil {
					return err
				}
				defer f.Close()
				rs[i] = f
			}
			d, err := experiment.ComparePartition(rs[0], args[0], rs[1], args[1])
			if err != nil {
				return err
			}
			_, err = io.WriteString(a.stdout, d.String())
			return err
		},
	}
}

func (a *app) listFitsCmd() *cobra.Command {
	var runID int64
	cmd := &cobra.Command{
		Use:   "list-fits",
		Short: "List archived runs, or the best fits of one run",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if a.cfg.DB.Driver == "" {
				return fmt.Errorf("no fit archive configured (set --db-driver and --db)")
			}
			db, err := fitdb.OpenSQL(a.cfg.DB.Driver, a.cfg.DB.DSN)
			if err != nil {
				return err
			}
			defer db.Close()

			var tab texttab.Table
			if runID == 0 {
				runs, err := db.Runs(cmd.Context())
				if err != nil {
					return err
				}
				tab.Row().Cell("run").Cell("label").Cell("created").Cell("groups")
				tab.Rule()
				for _, r := range runs {
					tab.Row().Cell(strconv.FormatInt(r.ID, 10)).Cell(r.Label).
						Cell(r.Created.Format("2006-01-02 15:04:05")).Cellf("%d", r.Groups)
				}
				return tab.Format(a.stdout)
			}

			fits, err := db.BestFits(cmd.Context(), runID)
			if err != nil {
				return err
			}
			tab.Row().Cell("group").Cell("model").Cell("formula").Cell("n").Cell("r-squared")
			tab.Rule()
			for _, f := range fits {
				tab.Row().Cell(f.Group).Cell(f.Expr).Cell(f.Formula).
					Cellf("%d", f.NData).Cellf("%.4f", f.RSquared)
			}
			return tab.Format(a.stdout)
		},
	}
	cmd.Flags().Int64Var(&runID, "run", 0, "show the best fits of run `id`")
	return cmd
}
