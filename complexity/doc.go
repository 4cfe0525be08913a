// Copyright 2025 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package complexity fits growth-rate models to performance data and
// selects the best one by an information criterion.
//
// A model is written as a small expression over one or two
// independent variables, conventionally n and m:
//
//	1           constant
//	n*log(n)    linearithmic
//	n^2+m       mixed
//	k^n*m       exponential, with free base k
//
// Compile turns an expression into a Model with automatically named
// coefficients: one multiplicative coefficient a0, a1, ... per
// "+"-separated term, an additive constant b0, and one free parameter
// for every other identifier in the expression (k above). The
// expression "1" is special: it is the constant model b0 regardless
// of the declared variables.
//
// FitModel fits one Model by nonlinear least squares
// (Levenberg-Marquardt), and a Fitter fits every model of a catalog
// concurrently and picks the one minimizing BIC (or AIC). Candidates
// that fail to fit are logged and skipped; only when every candidate
// fails does Fit return ErrNoViableModel.
//
// Expression grammar:
//
//	expr   = term { "+" term } .
//	term   = factor { "*" factor } .
//	factor = atom [ "^" factor ] .
//	atom   = number | ident | "log" "(" expr ")" | "(" expr ")" .
package complexity
