// Copyright 2025 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package complexity

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"

	"gonum.org/v1/gonum/diff/fd"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// FitOptions control a single model fit.
type FitOptions struct {
	// MaxEvaluations limits the number of model evaluations. Zero
	// means 200*(k+1) for k parameters.
	MaxEvaluations int
	// Init overrides initial parameter values by name. By default
	// the additive constant b0 starts at 0 and every other
	// parameter at 1.
	Init map[string]float64
	// Bounds constrains parameters by name.
	Bounds map[string]Bound
	// Name and Index label the Result, typically with the model's
	// catalog entry and position.
	Name  string
	Index int
}

// A Param is one fitted coefficient.
type Param struct {
	Name  string
	Value float64
	// StdErr is the estimated standard error, or NaN if it could
	// not be estimated.
	StdErr float64
	Init   float64
	Bound  Bound
}

// A Result is the outcome of fitting one Model to one dataset.
// Results are not modified after FitModel returns them.
type Result struct {
	Name  string
	Index int
	Model *Model

	Params []Param
	// Correl holds the correlation between each pair of parameters,
	// or is nil if the covariance could not be estimated.
	Correl [][]float64

	NData  int // Number of data points
	NVarys int // Number of free parameters
	NFree  int // Degrees of freedom, NData-NVarys
	NFev   int // Number of model evaluations

	ChiSqr   float64 // Sum of squared residuals
	RedChi   float64 // ChiSqr / max(NFree, 1)
	AIC      float64
	BIC      float64
	RSquared float64

	Status    Status
	Residuals []float64 // Model minus data
}

// Values returns the fitted parameter values in the order of
// r.Model.Params.
func (r *Result) Values() []float64 {
	vs := make([]float64, len(r.Params))
	for i, p := range r.Params {
		vs[i] = p.Value
	}
	return vs
}

// Param returns the named parameter.
func (r *Result) Param(name string) (Param, bool) {
	for _, p := range r.Params {
		if p.Name == name {
			return p, true
		}
	}
	return Param{}, false
}

// Predict evaluates the fitted model at xs.
func (r *Result) Predict(xs [][]float64) ([]float64, error) {
	return r.Model.Eval(xs, r.Values())
}

// chiSqrFloor returns the smallest sum of squares distinguishable
// from an exact fit of y at double precision.
func chiSqrFloor(y []float64) float64 {
	scale := 1.0
	for _, v := range y {
		scale = math.Max(scale, math.Abs(v))
	}
	resolution := 1e-10 * scale
	return float64(len(y)) * resolution * resolution
}

// FitModel fits m to the points (xs, y) by nonlinear least squares.
// xs holds one column per independent variable of m. It returns a
// *FitError if the fit fails to converge or the model cannot be
// evaluated at the starting parameters.
func FitModel(ctx context.Context, m *Model, xs [][]float64, y []float64, opts FitOptions) (*Result, error) {
	name := opts.Name
	if name == "" {
		name = m.Expr
	}
	fail := func(err error) (*Result, error) {
		return nil, &FitError{name, err}
	}

	n, err := m.rows(xs)
	if err != nil {
		return fail(err)
	}
	if n != len(y) {
		return fail(fmt.Errorf("have %d independent values but %d dependent values", n, len(y)))
	}
	k := len(m.Params)
	if n < k {
		return fail(fmt.Errorf("need at least %d data points, have %d", k, n))
	}
	if !allFinite(y) {
		return fail(fmt.Errorf("dependent values are not finite"))
	}

	params := make([]Param, k)
	x0 := make([]float64, k)
	for i, pname := range m.Params {
		p := Param{Name: pname, Init: 1, Bound: Unbounded, StdErr: math.NaN()}
		if pname == "b0" {
			p.Init = 0
		}
		if v, ok := opts.Init[pname]; ok {
			p.Init = v
		}
		if b, ok := opts.Bounds[pname]; ok {
			if b.Min > b.Max {
				return fail(fmt.Errorf("parameter %s has empty bound [%g, %g]", pname, b.Min, b.Max))
			}
			p.Bound = b
		}
		p.Init = p.Bound.clamp(p.Init)
		params[i] = p
		x0[i] = p.Bound.internal(p.Init)
	}

	ext := make([]float64, k)
	toExternal := func(x []float64) []float64 {
		for i := range x {
			ext[i] = params[i].Bound.external(x[i])
		}
		return ext
	}
	resid := func(dst, x []float64) error {
		if err := m.evalInto(dst, xs, toExternal(x)); err != nil {
			return err
		}
		floats.Sub(dst, y)
		return nil
	}

	maxEvals := opts.MaxEvaluations
	if maxEvals <= 0 {
		maxEvals = 200 * (k + 1)
	}
	lm, err := levmar(ctx, resid, x0, n, maxEvals)
	if err != nil {
		return fail(err)
	}
	if !lm.status.Converged() {
		return fail(fmt.Errorf("%v after %d evaluations", lm.status, lm.nfev))
	}

	res := &Result{
		Name:      name,
		Index:     opts.Index,
		Model:     m,
		Params:    params,
		NData:     n,
		NVarys:    k,
		NFree:     n - k,
		NFev:      lm.nfev,
		ChiSqr:    lm.cost,
		Status:    lm.status,
		Residuals: lm.resid,
	}
	for i, v := range toExternal(lm.x) {
		res.Params[i].Value = v
	}
	res.RedChi = res.ChiSqr / float64(max(res.NFree, 1))

	chi := math.Max(res.ChiSqr, chiSqrFloor(y))
	nf := float64(n)
	base := nf * math.Log(chi/nf)
	res.AIC = base + 2*float64(k)
	res.BIC = base + math.Log(nf)*float64(k)

	mean := stat.Mean(y, nil)
	var ssTot float64
	for _, v := range y {
		ssTot += (v - mean) * (v - mean)
	}
	switch {
	case ssTot > 0:
		res.RSquared = 1 - res.ChiSqr/ssTot
	case res.ChiSqr <= chiSqrFloor(y):
		res.RSquared = 1
	}

	if res.NFree > 0 {
		res.estimateUncertainty(xs, y)
	}
	return res, nil
}

// estimateUncertainty fills in standard errors and correlations from
// the covariance matrix inv(JᵀJ)*RedChi, where J is the Jacobian of
// the residuals with respect to the fitted parameters.
func (r *Result) estimateUncertainty(xs [][]float64, y []float64) {
	k := len(r.Params)
	jac := mat.NewDense(r.NData, k, nil)
	f := func(dst, p []float64) error {
		if err := r.Model.evalInto(dst, xs, p); err != nil {
			return err
		}
		floats.Sub(dst, y)
		return nil
	}
	if err := jacobian(jac, f, r.Values(), nil, fd.Central); err != nil {
		return
	}
	var jtj mat.SymDense
	jtj.SymOuterK(1, jac.T())
	var chol mat.Cholesky
	if ok := chol.Factorize(&jtj); !ok {
		return
	}
	var cov mat.SymDense
	if err := chol.InverseTo(&cov); err != nil {
		return
	}
	cov.ScaleSym(r.RedChi, &cov)

	for i := 0; i < k; i++ {
		if v := cov.At(i, i); v >= 0 {
			r.Params[i].StdErr = math.Sqrt(v)
		}
	}
	r.Correl = make([][]float64, k)
	for i := range r.Correl {
		r.Correl[i] = make([]float64, k)
		for j := range r.Correl[i] {
			r.Correl[i][j] = cov.At(i, j) / (r.Params[i].StdErr * r.Params[j].StdErr)
		}
	}
}

// Report returns a human-readable summary of the fit.
func (r *Result) Report() string {
	var b strings.Builder
	fmt.Fprintf(&b, "[[Model]]\n    Model(%s)\n", r.Model.Formula())
	fmt.Fprintf(&b, "[[Fit Statistics]]\n")
	fmt.Fprintf(&b, "    # fitting method   = leastsq\n")
	fmt.Fprintf(&b, "    # function evals   = %d\n", r.NFev)
	fmt.Fprintf(&b, "    # data points      = %d\n", r.NData)
	fmt.Fprintf(&b, "    # variables        = %d\n", r.NVarys)
	fmt.Fprintf(&b, "    chi-square         = %.8g\n", r.ChiSqr)
	fmt.Fprintf(&b, "    reduced chi-square = %.8g\n", r.RedChi)
	fmt.Fprintf(&b, "    Akaike info crit   = %.8g\n", r.AIC)
	fmt.Fprintf(&b, "    Bayesian info crit = %.8g\n", r.BIC)
	fmt.Fprintf(&b, "    R-squared          = %.8g\n", r.RSquared)

	width := 0
	for _, p := range r.Params {
		width = max(width, len(p.Name))
	}
	fmt.Fprintf(&b, "[[Variables]]\n")
	for _, p := range r.Params {
		fmt.Fprintf(&b, "    %-*s %.8g", width+1, p.Name+":", p.Value)
		if !math.IsNaN(p.StdErr) {
			fmt.Fprintf(&b, " +/- %.8g", p.StdErr)
			if p.Value != 0 {
				fmt.Fprintf(&b, " (%.2f%%)", math.Abs(100*p.StdErr/p.Value))
			}
		} else {
			fmt.Fprintf(&b, " +/- unknown")
		}
		fmt.Fprintf(&b, " (init = %g)", p.Init)
		if p.Bound != Unbounded {
			fmt.Fprintf(&b, " [%g, %g]", p.Bound.Min, p.Bound.Max)
		}
		b.WriteByte('\n')
	}

	if pairs := r.correlations(0.1); len(pairs) > 0 {
		fmt.Fprintf(&b, "[[Correlations]] (unreported correlations are < 0.100)\n")
		for _, c := range pairs {
			fmt.Fprintf(&b, "    C(%s, %s) = %+.4f\n", c.a, c.b, c.v)
		}
	}
	return b.String()
}

type correlation struct {
	a, b string
	v    float64
}

// correlations returns the parameter pairs whose correlation exceeds
// threshold in absolute value, strongest first.
func (r *Result) correlations(threshold float64) []correlation {
	var out []correlation
	for i := range r.Correl {
		for j := i + 1; j < len(r.Correl); j++ {
			if v := r.Correl[i][j]; math.Abs(v) > threshold {
				out = append(out, correlation{r.Params[i].Name, r.Params[j].Name, v})
			}
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return math.Abs(out[i].v) > math.Abs(out[j].v)
	})
	return out
}
