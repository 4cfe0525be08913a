// Copyright 2025 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package complexity

import (
	"context"
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/diff/fd"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// Status is the termination state of a least-squares fit.
type Status int

const (
	// FTolReached means the relative reduction in the sum of
	// squares was at most the tolerance.
	FTolReached Status = 1 + iota
	// XTolReached means the relative change in the parameters was
	// at most the tolerance.
	XTolReached
	// ExactFit means the residuals are exactly zero.
	ExactFit
	// Stalled means no step could reduce the sum of squares, so
	// the parameters are at a local minimum to within machine
	// precision.
	Stalled
	// MaxEvaluations means the evaluation limit was reached before
	// convergence.
	MaxEvaluations
)

func (s Status) String() string {
	switch s {
	case FTolReached:
		return "relative reduction in the sum of squares is at most ftol"
	case XTolReached:
		return "relative change between iterates is at most xtol"
	case ExactFit:
		return "residuals are zero"
	case Stalled:
		return "no further reduction in the sum of squares is possible"
	case MaxEvaluations:
		return "number of function evaluations exceeded the limit"
	}
	return fmt.Sprintf("Status(%d)", int(s))
}

// Converged reports whether s is a successful termination.
func (s Status) Converged() bool {
	return s >= FTolReached && s <= Stalled
}

// Default tolerances, as in MINPACK's lmdif.
const (
	defaultFTol = 1.49012e-8
	defaultXTol = 1.49012e-8
)

const (
	lambdaInit = 1e-3
	lambdaMin  = 1e-12
	lambdaMax  = 1e16
)

// A residualFunc computes residuals at internal parameters x into
// dst. It returns an error if any residual is not finite.
type residualFunc func(dst, x []float64) error

type lmResult struct {
	x      []float64
	resid  []float64
	cost   float64 // sum of squared residuals
	nfev   int
	status Status
}

var errNonFiniteJacobian = errors.New("Jacobian is not finite")

// levmar minimizes the sum of squares of f, which returns m
// residuals, starting from x0, by the Levenberg-Marquardt method.
// It stops after maxEvals evaluations of f, counting those used to
// approximate the Jacobian.
func levmar(ctx context.Context, f residualFunc, x0 []float64, m, maxEvals int) (*lmResult, error) {
	n := len(x0)
	res := &lmResult{
		x:     append([]float64(nil), x0...),
		resid: make([]float64, m),
	}
	if err := f(res.resid, res.x); err != nil {
		return nil, err
	}
	res.nfev = 1
	res.cost = floats.Dot(res.resid, res.resid)
	if res.cost == 0 {
		res.status = ExactFit
		return res, nil
	}

	var (
		jac    = mat.NewDense(m, n, nil)
		jtj    mat.SymDense
		damped = mat.NewDense(n, n, nil)
		grad   = mat.NewVecDense(n, nil)
		step   = mat.NewVecDense(n, nil)
		xt     = make([]float64, n)
		rt     = make([]float64, m)
		lambda = lambdaInit
	)
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if res.nfev+n > maxEvals {
			res.status = MaxEvaluations
			return res, nil
		}

		if err := jacobian(jac, f, res.x, res.resid, fd.Forward); err != nil {
			return nil, err
		}
		res.nfev += n
		jtj.Reset()
		jtj.SymOuterK(1, jac.T())
		grad.MulVec(jac.T(), mat.NewVecDense(m, res.resid))

		// Try increasingly damped steps until one reduces the cost.
		for {
			damped.Copy(&jtj)
			for i := 0; i < n; i++ {
				d := jtj.At(i, i)
				damped.Set(i, i, d+lambda*math.Max(d, 1e-12))
			}
			err := step.SolveVec(damped, grad)
			if err != nil && !(isCondition(err) && allFinite(step.RawVector().Data)) {
				lambda *= 10
				if lambda > lambdaMax {
					res.status = Stalled
					return res, nil
				}
				continue
			}

			for i := range xt {
				xt[i] = res.x[i] - step.AtVec(i)
			}
			if res.nfev >= maxEvals {
				res.status = MaxEvaluations
				return res, nil
			}
			res.nfev++
			costT := math.Inf(1)
			if err := f(rt, xt); err == nil {
				costT = floats.Dot(rt, rt)
			}
			if costT < res.cost {
				reduction := res.cost - costT
				stepNorm := floats.Norm(step.RawVector().Data, 2)
				xNorm := floats.Norm(res.x, 2)
				prev := res.cost
				copy(res.x, xt)
				copy(res.resid, rt)
				res.cost = costT
				lambda = math.Max(lambda/10, lambdaMin)
				switch {
				case costT == 0:
					res.status = ExactFit
					return res, nil
				case reduction <= defaultFTol*prev:
					res.status = FTolReached
					return res, nil
				case stepNorm <= defaultXTol*(xNorm+defaultXTol):
					res.status = XTolReached
					return res, nil
				}
				break
			}

			lambda *= 10
			if lambda > lambdaMax {
				res.status = Stalled
				return res, nil
			}
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
	}
}

// jacobian approximates the Jacobian of f at x into dst. Steps are
// relative to each x[j] where |x[j]| > 1 and absolute elsewhere, so
// that parameters near zero keep a usable step. r is f(x), or nil if
// unknown.
func jacobian(dst *mat.Dense, f residualFunc, x, r []float64, formula fd.Formula) error {
	// fd.Jacobian differentiates at z, where z[j]*scale[j] == x[j].
	scale := make([]float64, len(x))
	z := make([]float64, len(x))
	for j, v := range x {
		scale[j], z[j] = 1, v
		if math.Abs(v) > 1 {
			scale[j], z[j] = v, 1
		}
	}
	var ferr error
	xs := make([]float64, len(x))
	fd.Jacobian(dst, func(y, zt []float64) {
		for j := range zt {
			xs[j] = zt[j] * scale[j]
		}
		if err := f(y, xs); err != nil && ferr == nil {
			ferr = err
		}
	}, z, &fd.JacobianSettings{Formula: formula, OriginValue: r})
	if ferr != nil {
		return ferr
	}
	m, n := dst.Dims()
	for j := 0; j < n; j++ {
		for i := 0; i < m; i++ {
			dst.Set(i, j, dst.At(i, j)/scale[j])
		}
	}
	if !allFinite(dst.RawMatrix().Data) {
		return errNonFiniteJacobian
	}
	return nil
}

// isCondition reports whether err only warns of an ill-conditioned
// system; the solution is still usable.
func isCondition(err error) bool {
	var c mat.Condition
	return errors.As(err, &c)
}

func allFinite(xs []float64) bool {
	for _, x := range xs {
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return false
		}
	}
	return true
}
