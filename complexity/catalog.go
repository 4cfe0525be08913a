// Copyright 2025 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package complexity

import "fmt"

// Catalog1 is the default list of candidate models of one variable, n.
var Catalog1 = []string{
	"1",
	"log(n)",
	"n*log(n)",
	"n",
	"n^2",
	"n^3",
	"n^2*log(n)",
	"n^c",
}

// Catalog2 is the default list of candidate models of two variables,
// n and m.
var Catalog2 = []string{
	"n+m",
	"n*m",
	"n*m+n+m",
	"n^2*m",
	"n*m^2",
	"n^2+m",
	"n^3+m",
	"n^2+n+m",
	"n^3+n^2+n+m",
	"n*log(n)+m",
	"n*m*log(n)",
	"k^n*m",
}

// CatalogVars returns the variable names used by the default catalog
// for the given arity.
func CatalogVars(arity int) ([]string, error) {
	switch arity {
	case 1:
		return []string{"n"}, nil
	case 2:
		return []string{"n", "m"}, nil
	}
	return nil, &ConfigError{fmt.Sprintf("unsupported number of independent variables %d (want 1 or 2)", arity)}
}

// CatalogFor returns a copy of the default catalog for the given
// number of independent variables.
func CatalogFor(arity int) ([]string, error) {
	switch arity {
	case 1:
		return append([]string(nil), Catalog1...), nil
	case 2:
		return append([]string(nil), Catalog2...), nil
	}
	_, err := CatalogVars(arity)
	return nil, err
}
