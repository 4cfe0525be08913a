// Copyright 2025 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package complexity

import (
	"context"
	"fmt"
	"math"
	"runtime"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/rnaperf/rnaperf/dataset"
	"github.com/rnaperf/rnaperf/internal/logging"
	"github.com/rnaperf/rnaperf/vars"
)

// DefaultTimeout bounds the wall-clock time of each candidate fit.
const DefaultTimeout = 10 * time.Second

// A Fitter fits a catalog of candidate models to datasets and selects
// the best one.
type Fitter struct {
	indep    []vars.Var
	dep      vars.Var
	models   []*Model
	bounds   []map[string]Bound
	crit     Criterion
	timeout  time.Duration
	workers  int
	maxEvals int
}

type options struct {
	catalog  []string
	crit     Criterion
	timeout  time.Duration
	workers  int
	maxEvals int
}

// An Option configures a Fitter.
type Option func(*options)

// WithCatalog replaces the default candidate models. Expressions use
// the variable names n (and m), whatever the dataset columns are
// called.
func WithCatalog(exprs ...string) Option {
	return func(o *options) { o.catalog = append([]string(nil), exprs...) }
}

// WithCriterion selects the model comparison criterion. The default
// is BIC.
func WithCriterion(c Criterion) Option {
	return func(o *options) { o.crit = c }
}

// WithTimeout bounds each candidate fit. Zero means DefaultTimeout.
func WithTimeout(d time.Duration) Option {
	return func(o *options) { o.timeout = d }
}

// WithWorkers limits the number of candidates fit concurrently. Zero
// means GOMAXPROCS.
func WithWorkers(n int) Option {
	return func(o *options) { o.workers = n }
}

// WithMaxEvaluations limits the model evaluations of each fit. Zero
// means 200*(k+1) for a model with k parameters.
func WithMaxEvaluations(n int) Option {
	return func(o *options) { o.maxEvals = n }
}

// NewFitter returns a Fitter modeling dep as a function of indep,
// which must name one or two numeric variables. It compiles the
// catalog, so malformed expressions are reported here.
func NewFitter(indep []vars.Var, dep vars.Var, opts ...Option) (*Fitter, error) {
	names, err := CatalogVars(len(indep))
	if err != nil {
		return nil, err
	}
	for _, v := range append(append([]vars.Var(nil), indep...), dep) {
		if !v.Kind.Numeric() {
			return nil, &ConfigError{fmt.Sprintf("variable %s is %s, not numeric", v.ID, v.Kind)}
		}
	}
	o := options{crit: BIC, timeout: DefaultTimeout, workers: runtime.GOMAXPROCS(0)}
	o.catalog, _ = CatalogFor(len(indep))
	for _, opt := range opts {
		opt(&o)
	}
	switch {
	case len(o.catalog) == 0:
		return nil, &ConfigError{"empty model catalog"}
	case o.crit != BIC && o.crit != AIC:
		return nil, &ConfigError{fmt.Sprintf("unknown criterion %v", o.crit)}
	case o.timeout < 0 || o.workers < 0 || o.maxEvals < 0:
		return nil, &ConfigError{"timeout, workers and evaluation limit must not be negative"}
	}
	if o.timeout == 0 {
		o.timeout = DefaultTimeout
	}
	if o.workers == 0 {
		o.workers = runtime.GOMAXPROCS(0)
	}

	f := &Fitter{
		indep:    append([]vars.Var(nil), indep...),
		dep:      dep,
		crit:     o.crit,
		timeout:  o.timeout,
		workers:  o.workers,
		maxEvals: o.maxEvals,
	}
	seen := make(map[string]bool)
	for _, expr := range o.catalog {
		if seen[expr] {
			return nil, &ConfigError{fmt.Sprintf("duplicate model %q", expr)}
		}
		seen[expr] = true
		m, err := Compile(expr, names...)
		if err != nil {
			return nil, err
		}
		var bounds map[string]Bound
		if len(indep) == 1 {
			// A bare coefficient "a" is a growth rate.
			for _, p := range m.Params {
				if p == "a" {
					bounds = map[string]Bound{"a": NonNegative}
				}
			}
		}
		f.models = append(f.models, m)
		f.bounds = append(f.bounds, bounds)
	}
	return f, nil
}

// Models returns the compiled candidate models in catalog order.
func (f *Fitter) Models() []*Model {
	return append([]*Model(nil), f.models...)
}

// Fit fits every candidate to the columns of ds and selects the best.
// Rows with a non-finite value in any used column are ignored.
func (f *Fitter) Fit(ctx context.Context, ds *dataset.Dataset) (*Selection, error) {
	xs := make([][]float64, len(f.indep))
	for i, v := range f.indep {
		col, err := ds.Floats(v.ID)
		if err != nil {
			return nil, err
		}
		xs[i] = col
	}
	y, err := ds.Floats(f.dep.ID)
	if err != nil {
		return nil, err
	}
	return f.FitData(ctx, xs, y)
}

// FitData is like Fit but takes the independent columns xs and the
// dependent column y directly.
func (f *Fitter) FitData(ctx context.Context, xs [][]float64, y []float64) (*Selection, error) {
	if len(xs) != len(f.indep) {
		return nil, &ConfigError{fmt.Sprintf("have %d independent columns, want %d", len(xs), len(f.indep))}
	}
	for _, x := range xs {
		if len(x) != len(y) {
			return nil, fmt.Errorf("independent and dependent columns have different lengths")
		}
	}
	xs, y, excluded := finiteRows(xs, y)
	log := logging.FromContext(ctx)
	if excluded > 0 {
		log.V(logging.DEBUG).Info("Ignoring non-finite rows", "rows", excluded)
	}

	sel := &Selection{
		Results:   make(map[string]*Result),
		Failed:    make(map[string]error),
		Criterion: f.crit,
		Indep:     f.indep,
		Dep:       f.dep,
		NData:     len(y),
		Excluded:  excluded,
	}
	var mu sync.Mutex
	var g errgroup.Group
	g.SetLimit(f.workers)
	for i, m := range f.models {
		opts := FitOptions{
			MaxEvaluations: f.maxEvals,
			Bounds:         f.bounds[i],
			Name:           m.Expr,
			Index:          i,
		}
		g.Go(func() error {
			fctx, cancel := context.WithTimeout(ctx, f.timeout)
			defer cancel()
			res, err := FitModel(fctx, m, xs, y, opts)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				log.Info("Model fit failed", "expr", m.Expr, "error", err)
				sel.Failed[m.Expr] = err
				return nil
			}
			log.V(logging.DEBUG).Info("Model fit", "expr", m.Expr, "bic", res.BIC, "aic", res.AIC, "status", res.Status.String())
			sel.Results[m.Expr] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	name, best, err := SelectBest(sel.Results, f.crit)
	if err != nil {
		return nil, fmt.Errorf("%w (%d candidates failed)", err, len(sel.Failed))
	}
	sel.Name, sel.Best = name, best
	log.V(logging.DEBUG).Info("Selected model", "expr", name, f.crit.String(), best.Score(f.crit))
	return sel, nil
}

// finiteRows drops every row in which any value is NaN or infinite.
func finiteRows(xs [][]float64, y []float64) ([][]float64, []float64, int) {
	keep := make([]int, 0, len(y))
	for r := range y {
		ok := !math.IsNaN(y[r]) && !math.IsInf(y[r], 0)
		for _, x := range xs {
			ok = ok && !math.IsNaN(x[r]) && !math.IsInf(x[r], 0)
		}
		if ok {
			keep = append(keep, r)
		}
	}
	if len(keep) == len(y) {
		return xs, y, 0
	}
	nxs := make([][]float64, len(xs))
	for i, x := range xs {
		nxs[i] = make([]float64, len(keep))
		for j, r := range keep {
			nxs[i][j] = x[r]
		}
	}
	ny := make([]float64, len(keep))
	for j, r := range keep {
		ny[j] = y[r]
	}
	return nxs, ny, len(y) - len(keep)
}
