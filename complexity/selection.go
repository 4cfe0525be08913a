// Copyright 2025 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package complexity

import (
	"fmt"
	"io"
	"math"
	"sort"

	"github.com/rnaperf/rnaperf/internal/texttab"
	"github.com/rnaperf/rnaperf/vars"
)

// A Selection is the outcome of fitting a catalog of models.
type Selection struct {
	// Name is the catalog expression of the best model.
	Name string
	Best *Result
	// Results holds every successful fit, by expression.
	Results map[string]*Result
	// Failed holds the error of every candidate that could not be
	// fit, by expression.
	Failed    map[string]error
	Criterion Criterion

	Indep []vars.Var
	Dep   vars.Var
	// NData is the number of rows used; Excluded rows had
	// non-finite values.
	NData, Excluded int
}

// Ranked returns the successful fits from best to worst.
func (s *Selection) Ranked() []*Result {
	return Rank(s.Results, s.Criterion)
}

// WriteText writes a ranking of the candidate models followed by the
// report of the best one.
func (s *Selection) WriteText(w io.Writer) error {
	var xs string
	for i, v := range s.Indep {
		if i > 0 {
			xs += ", "
		}
		xs += v.ID
	}
	if _, err := fmt.Fprintf(w, "%s ~ f(%s): best model %s by %s (%d rows", s.Dep.ID, xs, s.Name, s.Criterion, s.NData); err != nil {
		return err
	}
	if s.Excluded > 0 {
		fmt.Fprintf(w, ", %d excluded", s.Excluded)
	}
	fmt.Fprintf(w, ")\n\n")

	var tab texttab.Table
	tab.Row().Cell("model").Cell("k", texttab.Right).Cell("chi-square", texttab.Right).
		Cell("aic", texttab.Right).Cell("bic", texttab.Right).Cell("r-squared", texttab.Right)
	tab.Rule()
	for _, r := range s.Ranked() {
		tab.Row().Cell(r.Name).
			Cellf("%d", r.NVarys).
			Cell(fmt.Sprintf("%.4g", r.ChiSqr), texttab.Right).
			Cell(fmt.Sprintf("%.2f", r.AIC), texttab.Right).
			Cell(fmt.Sprintf("%.2f", r.BIC), texttab.Right).
			Cell(fmt.Sprintf("%.4f", r.RSquared), texttab.Right)
	}
	for _, name := range sortedKeys(s.Failed) {
		tab.Row().Cell(name).Cell("failed: " + s.Failed[name].Error())
	}
	if err := tab.Format(w); err != nil {
		return err
	}
	if s.Best != nil {
		if _, err := fmt.Fprintf(w, "\n%s", s.Best.Report()); err != nil {
			return err
		}
	}
	return nil
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// A Summary is a Selection in a form suitable for encoding as JSON or
// YAML.
type Summary struct {
	Best      string            `json:"best" yaml:"best"`
	Criterion string            `json:"criterion" yaml:"criterion"`
	X         []string          `json:"x" yaml:"x"`
	Y         string            `json:"y" yaml:"y"`
	NData     int               `json:"ndata" yaml:"ndata"`
	Models    []ModelSummary    `json:"models" yaml:"models"`
	Failed    map[string]string `json:"failed,omitempty" yaml:"failed,omitempty"`
}

// A ModelSummary describes one fitted model.
type ModelSummary struct {
	Expr     string         `json:"expr" yaml:"expr"`
	Formula  string         `json:"formula" yaml:"formula"`
	ChiSqr   float64        `json:"chisqr" yaml:"chisqr"`
	AIC      float64        `json:"aic" yaml:"aic"`
	BIC      float64        `json:"bic" yaml:"bic"`
	RSquared float64        `json:"rsquared" yaml:"rsquared"`
	Status   string         `json:"status" yaml:"status"`
	Params   []ParamSummary `json:"params" yaml:"params"`
}

// A ParamSummary is one fitted parameter. StdErr is omitted when it
// could not be estimated.
type ParamSummary struct {
	Name   string   `json:"name" yaml:"name"`
	Value  float64  `json:"value" yaml:"value"`
	StdErr *float64 `json:"stderr,omitempty" yaml:"stderr,omitempty"`
}

// Summary returns s in encodable form, with models ranked best first.
func (s *Selection) Summary() Summary {
	sum := Summary{
		Best:      s.Name,
		Criterion: s.Criterion.String(),
		Y:         s.Dep.ID,
		NData:     s.NData,
	}
	for _, v := range s.Indep {
		sum.X = append(sum.X, v.ID)
	}
	for _, r := range s.Ranked() {
		ms := ModelSummary{
			Expr:     r.Name,
			Formula:  r.Model.Formula(),
			ChiSqr:   r.ChiSqr,
			AIC:      r.AIC,
			BIC:      r.BIC,
			RSquared: r.RSquared,
			Status:   r.Status.String(),
		}
		for _, p := range r.Params {
			ps := ParamSummary{Name: p.Name, Value: p.Value}
			if !math.IsNaN(p.StdErr) && !math.IsInf(p.StdErr, 0) {
				se := p.StdErr
				ps.StdErr = &se
			}
			ms.Params = append(ms.Params, ps)
		}
		sum.Models = append(sum.Models, ms)
	}
	if len(s.Failed) > 0 {
		sum.Failed = make(map[string]string, len(s.Failed))
		for k, err := range s.Failed {
			sum.Failed[k] = err.Error()
		}
	}
	return sum
}
