// Copyright 2025 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package complexity

import (
	"errors"
	"fmt"
	"unicode"
)

// ErrNoViableModel is returned when no candidate model could be fit.
var ErrNoViableModel = errors.New("no model could be fit")

// A ConfigError reports an invalid fitter configuration, such as an
// unsupported number of independent variables.
type ConfigError struct {
	Msg string
}

func (e *ConfigError) Error() string {
	return "complexity: " + e.Msg
}

// A CompileError reports a malformed model expression.
type CompileError struct {
	Expr string // The expression being compiled
	Off  int    // Byte offset of the error in Expr
	Msg  string
}

func (e *CompileError) Error() string {
	pos := 0
	for i, r := range e.Expr {
		if i >= e.Off {
			break
		}
		if unicode.IsGraphic(r) {
			pos++
		}
	}
	return fmt.Sprintf("bad model %q: %s\n\t%s\n\t%*s^", e.Expr, e.Msg, e.Expr, pos, "")
}

// An EvalError reports a non-finite model value.
type EvalError struct {
	Expr  string
	Row   int
	Value float64
}

func (e *EvalError) Error() string {
	return fmt.Sprintf("model %q evaluates to %v at row %d", e.Expr, e.Value, e.Row)
}

// A FitError reports that a single candidate model could not be fit.
type FitError struct {
	Expr string
	Err  error
}

func (e *FitError) Error() string {
	return fmt.Sprintf("fitting %q: %v", e.Expr, e.Err)
}

func (e *FitError) Unwrap() error {
	return e.Err
}
