// Copyright 2025 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package complexity

import "math"

// A Bound constrains a parameter to [Min, Max]. Infinite limits
// leave that side unconstrained.
type Bound struct {
	Min, Max float64
}

// Unbounded is the Bound of an unconstrained parameter.
var Unbounded = Bound{math.Inf(-1), math.Inf(1)}

// NonNegative constrains a parameter to [0, +Inf).
var NonNegative = Bound{0, math.Inf(1)}

func (b Bound) hasMin() bool { return !math.IsInf(b.Min, -1) }
func (b Bound) hasMax() bool { return !math.IsInf(b.Max, 1) }

// clamp returns v moved inside b.
func (b Bound) clamp(v float64) float64 {
	return math.Max(b.Min, math.Min(b.Max, v))
}

// The minimizer works on unbounded internal values. external maps an
// internal value into b and internal is its inverse on b.

func (b Bound) external(x float64) float64 {
	switch {
	case b.hasMin() && b.hasMax():
		return b.Min + (math.Sin(x)+1)*(b.Max-b.Min)/2
	case b.hasMin():
		return b.Min - 1 + math.Sqrt(x*x+1)
	case b.hasMax():
		return b.Max + 1 - math.Sqrt(x*x+1)
	}
	return x
}

func (b Bound) internal(v float64) float64 {
	v = b.clamp(v)
	switch {
	case b.hasMin() && b.hasMax():
		return math.Asin(2*(v-b.Min)/(b.Max-b.Min) - 1)
	case b.hasMin():
		d := v - b.Min + 1
		return math.Sqrt(d*d - 1)
	case b.hasMax():
		d := b.Max - v + 1
		return math.Sqrt(d*d - 1)
	}
	return v
}
