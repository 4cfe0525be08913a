// Copyright 2025 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package complexity

import (
	"fmt"
	"sort"
	"strings"
)

// A Criterion scores a fit for model comparison. Lower is better.
type Criterion int

const (
	BIC Criterion = iota // Bayesian information criterion
	AIC                  // Akaike information criterion
)

func (c Criterion) String() string {
	switch c {
	case BIC:
		return "bic"
	case AIC:
		return "aic"
	}
	return fmt.Sprintf("Criterion(%d)", int(c))
}

// ParseCriterion parses "bic" or "aic", ignoring case.
func ParseCriterion(s string) (Criterion, error) {
	switch strings.ToLower(s) {
	case "bic", "":
		return BIC, nil
	case "aic":
		return AIC, nil
	}
	return 0, &ConfigError{fmt.Sprintf("unknown criterion %q (want bic or aic)", s)}
}

// Score returns r's value of c.
func (r *Result) Score(c Criterion) float64 {
	if c == AIC {
		return r.AIC
	}
	return r.BIC
}

// Rank returns the results ordered from best to worst by c. Ties are
// broken by Result.Index and then by name.
func Rank(results map[string]*Result, c Criterion) []*Result {
	out := make([]*Result, 0, len(results))
	for _, r := range results {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if sa, sb := a.Score(c), b.Score(c); sa != sb {
			return sa < sb
		}
		if a.Index != b.Index {
			return a.Index < b.Index
		}
		return a.Name < b.Name
	})
	return out
}

// SelectBest returns the result with the lowest score under c. It
// returns ErrNoViableModel if results is empty.
func SelectBest(results map[string]*Result, c Criterion) (string, *Result, error) {
	if len(results) == 0 {
		return "", nil, ErrNoViableModel
	}
	best := Rank(results, c)[0]
	for name, r := range results {
		if r == best {
			return name, r, nil
		}
	}
	panic("unreachable")
}
