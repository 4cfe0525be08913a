// Copyright 2025 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package fitdb

import (
	"context"
	"database/sql"
	"math"
	"sort"
	"time"
)

// A Fit is an archived model fit.
type Fit struct {
	RunID     int64
	Group     string
	Expr      string
	Formula   string
	Criterion string
	NData     int
	NVarys    int
	ChiSqr    float64
	AIC       float64
	BIC       float64
	RSquared  float64
	Status    string
	// Params maps parameter names to fitted values.
	Params map[string]float64
	// StdErrs maps parameter names to standard errors, where known.
	StdErrs map[string]float64
}

// BestFits returns the selected model of every group in the run,
// ordered by group.
func (db *DB) BestFits(ctx context.Context, runID int64) ([]*Fit, error) {
	rows, err := db.sql.QueryContext(ctx, `SELECT FitID, GroupKey, Expr, Formula, Criterion, NData, NVarys,
		ChiSqr, AIC, BIC, RSquared, Status FROM Fits WHERE RunID = ? AND Best ORDER BY GroupKey`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var fits []*Fit
	ids := make(map[int64]*Fit)
	for rows.Next() {
		var (
			id                int64
			chi, aic, bic, r2 sql.NullFloat64
			f                 = &Fit{RunID: runID, Params: make(map[string]float64), StdErrs: make(map[string]float64)}
		)
		if err := rows.Scan(&id, &f.Group, &f.Expr, &f.Formula, &f.Criterion, &f.NData, &f.NVarys,
			&chi, &aic, &bic, &r2, &f.Status); err != nil {
			return nil, err
		}
		f.ChiSqr, f.AIC, f.BIC, f.RSquared = orNaN(chi), orNaN(aic), orNaN(bic), orNaN(r2)
		fits = append(fits, f)
		ids[id] = f
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(fits) == 0 {
		return nil, nil
	}

	prows, err := db.sql.QueryContext(ctx, "SELECT FitID, Name, Value, StdErr FROM FitParams WHERE RunID = ?", runID)
	if err != nil {
		return nil, err
	}
	defer prows.Close()
	for prows.Next() {
		var (
			id          int64
			name        string
			value, serr sql.NullFloat64
		)
		if err := prows.Scan(&id, &name, &value, &serr); err != nil {
			return nil, err
		}
		f := ids[id]
		if f == nil {
			continue
		}
		f.Params[name] = orNaN(value)
		if serr.Valid {
			f.StdErrs[name] = serr.Float64
		}
	}
	return fits, prows.Err()
}

func orNaN(v sql.NullFloat64) float64 {
	if !v.Valid {
		return math.NaN()
	}
	return v.Float64
}

// A RunInfo describes an archived run.
type RunInfo struct {
	ID      int64
	Label   string
	Created time.Time
	// Groups is the number of distinct groups analyzed.
	Groups int
}

// Runs returns every archived run, newest first.
func (db *DB) Runs(ctx context.Context) ([]RunInfo, error) {
	rows, err := db.sql.QueryContext(ctx, `SELECT Runs.RunID, Label, Created, COUNT(DISTINCT GroupKey)
		FROM Runs LEFT JOIN Fits ON Runs.RunID = Fits.RunID GROUP BY Runs.RunID, Label, Created`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []RunInfo
	for rows.Next() {
		var ri RunInfo
		var created string
		if err := rows.Scan(&ri.ID, &ri.Label, &created, &ri.Groups); err != nil {
			return nil, err
		}
		if ri.Created, err = time.Parse(time.RFC3339, created); err != nil {
			return nil, err
		}
		out = append(out, ri)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, rows.Err()
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
