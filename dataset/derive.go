// Copyright 2025 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package dataset

import (
	"fmt"
	"math"

	"github.com/rnaperf/rnaperf/vars"
)

// DeriveSuboptPerf drops failed runs from a suboptimal folding
// performance dataset and adds the derived columns of vars.SuboptPerf:
// program, strucs_per_sec and bases_per_byte.
func DeriveSuboptPerf(d *Dataset) (*Dataset, error) {
	for _, id := range []string{"failed", "package_name", "ctd", "algorithm", "backend", "output_strucs", "real_sec", "rna_length", "maxrss_bytes"} {
		if !d.Has(id) {
			return nil, &ColumnError{id, "no such column"}
		}
	}
	all := vars.SuboptPerf()
	d = d.Filter(func(r Row) bool {
		failed, _ := r.Bool("failed")
		return !failed
	})
	d = d.WithString(all.Must("program"), func(r Row) string {
		pkg, _ := r.Value("package_name")
		ctd, _ := r.Value("ctd")
		alg, _ := r.Value("algorithm")
		backend, _ := r.Value("backend")
		return fmt.Sprintf("%s-%s-%s-%s", pkg, ctd, alg, backend)
	})
	d = d.WithFloat(all.Must("strucs_per_sec"), func(r Row) float64 {
		strucs, _ := r.Float("output_strucs")
		secs, _ := r.Float("real_sec")
		return ratio(strucs, secs)
	})
	d = d.WithFloat(all.Must("bases_per_byte"), func(r Row) float64 {
		strucs, _ := r.Float("output_strucs")
		n, _ := r.Float("rna_length")
		rss, _ := r.Float("maxrss_bytes")
		return ratio(strucs*n, rss)
	})
	return d, nil
}

// ratio returns num/den, or NaN if den is zero.
func ratio(num, den float64) float64 {
	if den == 0 {
		return math.NaN()
	}
	return num / den
}

// DropDomainParents removes, within each dataset, the parent RNAs of
// entries whose name contains "domain" (case-insensitively). The
// parent of "x_y_domain2" is "x_y". It is an error for a domain entry
// to have no parent in the same dataset.
func DropDomainParents(d *Dataset) (*Dataset, error) {
	groups, err := d.GroupBy("dataset")
	if err != nil {
		return nil, err
	}
	drop := make(map[[2]string]bool)
	for _, g := range groups {
		ds := fmt.Sprint(g.Key[0])
		names, err := g.Data.Strings("name")
		if err != nil {
			return nil, err
		}
		present := make(map[string]bool, len(names))
		for _, n := range names {
			present[n] = true
		}
		for _, n := range names {
			if !isDomain(n) {
				continue
			}
			parent := parentName(n)
			if !present[parent] {
				return nil, fmt.Errorf("dataset %s: domain %q has no parent %q", ds, n, parent)
			}
			drop[[2]string{ds, parent}] = true
		}
	}
	return d.Filter(func(r Row) bool {
		ds, _ := r.Value("dataset")
		n, _ := r.Value("name")
		return !drop[[2]string{ds, n}]
	}), nil
}
