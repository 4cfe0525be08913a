// Copyright 2025 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package units formats measured quantities for display, scaling them
// with SI or IEC prefixes so that axis labels and reports stay short.
package units

import (
	"fmt"
	"math"
	"strconv"
)

// A Class selects the family of prefixes used to scale a value.
type Class int

const (
	// Decimal scales by powers of 1000 using SI prefixes ("k", "M").
	Decimal Class = iota
	// Binary scales by powers of 1024 using IEC prefixes ("Ki", "Mi").
	Binary
)

func (c Class) String() string {
	switch c {
	case Decimal:
		return "Decimal"
	case Binary:
		return "Binary"
	}
	return fmt.Sprintf("Class(%d)", int(c))
}

// A Formatter renders a single value for display.
type Formatter func(v float64) string

// A Scaler is a scaling factor together with its printed prefix and
// the number of digits to keep after the decimal point.
type Scaler struct {
	Prec   int
	Factor float64
	Prefix string
}

// Format scales val and appends the prefix, e.g. "1.50Mi".
func (s Scaler) Format(val float64) string {
	b := strconv.AppendFloat(nil, val/s.Factor, 'f', s.Prec, 64)
	return string(append(b, s.Prefix...))
}

type prefix struct {
	factor float64
	name   string
	// Smallest values printed as 100.0, 10.00 and 1.000 at this
	// factor, derived from the rounding fmt itself performs.
	t100, t10, t1 float64
}

var (
	siPrefixes  = makePrefixes(1000, []string{"T", "G", "M", "k", "", "m", "µ", "n"}, 4)
	iecPrefixes = makePrefixes(1024, []string{"Ti", "Gi", "Mi", "Ki", ""}, 4)
)

func makePrefixes(base float64, names []string, top int) []prefix {
	ps := make([]prefix, 0, len(names))
	for i, name := range names {
		f := math.Pow(base, float64(top-i))
		ps = append(ps, prefix{
			factor: f,
			name:   name,
			t100:   99.995 * f,
			t10:    9.9995 * f,
			t1:     0.99995 * f,
		})
	}
	return ps
}

// CommonScale returns a Scaler that shows at least three significant
// digits for every value in vals. The scale is chosen by the non-zero
// value closest to zero.
func CommonScale(vals []float64, cls Class) Scaler {
	var min float64
	for _, v := range vals {
		v = math.Abs(v)
		if v != 0 && !math.IsInf(v, 0) && !math.IsNaN(v) && (min == 0 || v < min) {
			min = v
		}
	}
	if min == 0 {
		return Scaler{3, 1, ""}
	}

	ps := siPrefixes
	if cls == Binary {
		ps = iecPrefixes
	}
	for _, p := range ps {
		switch {
		case min >= p.t100:
			return Scaler{1, p.factor, p.name}
		case min >= p.t10:
			return Scaler{2, p.factor, p.name}
		case min >= p.t1:
			return Scaler{3, p.factor, p.name}
		}
	}

	// Below the smallest prefix: add digits until three are
	// significant, up to ten after the decimal point.
	last := ps[len(ps)-1]
	v := min / last.factor
	prec := 3
	for t := 0.99995; v < t && prec < 10; t /= 10 {
		prec++
	}
	return Scaler{prec, last.factor, last.name}
}

// Scale formats val with at least three significant digits and the
// appropriate prefix for cls.
func Scale(val float64, cls Class) string {
	return CommonScale([]float64{val}, cls).Format(val)
}

// HumanSize formats a byte count, e.g. 1572864 as "1.50MiB".
func HumanSize(v float64) string {
	return Scale(v, Binary) + "B"
}

// Plain formats v with the shortest representation that round trips.
func Plain(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
