// Copyright 2025 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package fitdb

import (
	"context"
	"math"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rnaperf/rnaperf/complexity"
	"github.com/rnaperf/rnaperf/vars"
)

func newDB(t *testing.T) *DB {
	t.Helper()
	db, err := OpenSQL("sqlite3", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func linearSelection(t *testing.T, slope float64) *complexity.Selection {
	t.Helper()
	length := vars.Var{ID: "length", Kind: vars.Int}
	secs := vars.Var{ID: "real_sec", Kind: vars.Float}
	f, err := complexity.NewFitter([]vars.Var{length}, secs, complexity.WithCatalog("1", "n", "n^2"))
	require.NoError(t, err)
	var x, y []float64
	for i := 1; i <= 20; i++ {
		x = append(x, float64(i))
		y = append(y, slope*float64(i)+1+0.01*float64(i%3-1))
	}
	sel, err := f.FitData(context.Background(), [][]float64{x}, y)
	require.NoError(t, err)
	return sel
}

func TestRoundTrip(t *testing.T) {
	ctx := context.Background()
	db := newDB(t)

	defer func(old func() time.Time) { now = old }(now)
	now = func() time.Time { return time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC) }

	run, err := db.NewRun(ctx, "subopt-perf")
	require.NoError(t, err)
	assert.Equal(t, int64(1), run.ID)

	selA := linearSelection(t, 2)
	selB := linearSelection(t, 3)
	selB.Failed["n^c"] = &complexity.FitError{Expr: "n^c", Err: complexity.ErrNoViableModel}
	require.NoError(t, run.InsertSelection(ctx, "memerna_zuker", selA))
	require.NoError(t, run.InsertSelection(ctx, "memerna_lyngso", selB))

	fits, err := db.BestFits(ctx, run.ID)
	require.NoError(t, err)
	require.Len(t, fits, 2)

	// Ordered by group.
	assert.Equal(t, "memerna_lyngso", fits[0].Group)
	assert.Equal(t, "memerna_zuker", fits[1].Group)
	for i, sel := range []*complexity.Selection{selB, selA} {
		f := fits[i]
		assert.Equal(t, sel.Name, f.Expr)
		assert.Equal(t, sel.Best.Model.Formula(), f.Formula)
		assert.Equal(t, "bic", f.Criterion)
		assert.Equal(t, 20, f.NData)
		assert.InDelta(t, sel.Best.BIC, f.BIC, 1e-9)
		for _, p := range sel.Best.Params {
			assert.InDelta(t, p.Value, f.Params[p.Name], 1e-12, p.Name)
			if !math.IsNaN(p.StdErr) {
				assert.InDelta(t, p.StdErr, f.StdErrs[p.Name], 1e-12, p.Name)
			}
		}
	}

	runs, err := db.Runs(ctx)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, "subopt-perf", runs[0].Label)
	assert.Equal(t, 2, runs[0].Groups)
	assert.True(t, now().Equal(runs[0].Created), "created %v", runs[0].Created)
}

func TestFailedFitsStored(t *testing.T) {
	ctx := context.Background()
	db := newDB(t)
	run, err := db.NewRun(ctx, "x")
	require.NoError(t, err)
	sel := linearSelection(t, 1)
	sel.Failed["bad"] = &complexity.FitError{Expr: "bad", Err: complexity.ErrNoViableModel}
	require.NoError(t, run.InsertSelection(ctx, "g", sel))

	var n int
	var msg string
	require.NoError(t, db.sql.QueryRow("SELECT COUNT(*) FROM Fits WHERE RunID = ?", run.ID).Scan(&n))
	assert.Equal(t, len(sel.Results)+1, n)
	require.NoError(t, db.sql.QueryRow("SELECT Error FROM Fits WHERE Expr = 'bad'").Scan(&msg))
	assert.Contains(t, msg, "no model could be fit")

	// Fit IDs continue across selections in the same run.
	require.NoError(t, run.InsertSelection(ctx, "h", sel))
	require.NoError(t, db.sql.QueryRow("SELECT COUNT(*) FROM Fits WHERE RunID = ?", run.ID).Scan(&n))
	assert.Equal(t, 2*(len(sel.Results)+1), n)
}

func TestSeparateRuns(t *testing.T) {
	ctx := context.Background()
	db := newDB(t)
	r1, err := db.NewRun(ctx, "first")
	require.NoError(t, err)
	r2, err := db.NewRun(ctx, "second")
	require.NoError(t, err)
	assert.NotEqual(t, r1.ID, r2.ID)
	require.NoError(t, r2.InsertSelection(ctx, "g", linearSelection(t, 2)))

	fits, err := db.BestFits(ctx, r1.ID)
	require.NoError(t, err)
	assert.Empty(t, fits)
	fits, err = db.BestFits(ctx, r2.ID)
	require.NoError(t, err)
	assert.Len(t, fits, 1)

	runs, err := db.Runs(ctx)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, "second", runs[0].Label)
	assert.Equal(t, 0, runs[1].Groups)
}

func TestNullFloat(t *testing.T) {
	assert.False(t, nullFloat(math.NaN()).Valid)
	assert.False(t, nullFloat(math.Inf(1)).Valid)
	assert.True(t, nullFloat(0).Valid)
}
