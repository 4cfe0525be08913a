// Copyright 2025 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package experiment

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/rnaperf/rnaperf/complexity"
	"github.com/rnaperf/rnaperf/dataset"
	"github.com/rnaperf/rnaperf/internal/config"
	"github.com/rnaperf/rnaperf/storage/fitdb"
	"github.com/rnaperf/rnaperf/vars"
)

func newOutput(t *testing.T) *Output {
	t.Helper()
	return NewOutput(t.TempDir(), config.PlotConfig{Format: "svg", DPI: 72})
}

// baseNames returns the sorted base names of paths.
func baseNames(paths []string) []string {
	var out []string
	for _, p := range paths {
		out = append(out, filepath.Base(p))
	}
	sort.Strings(out)
	return out
}

func assertFiles(t *testing.T, paths []string) {
	t.Helper()
	for _, p := range paths {
		st, err := os.Stat(p)
		if assert.NoError(t, err) {
			assert.NotZero(t, st.Size(), p)
		}
	}
}

func foldPerf(t *testing.T) *dataset.Dataset {
	t.Helper()
	var buf strings.Builder
	for _, ds := range []string{"random", "archiveii"} {
		for _, p := range []string{"memerna", "RNAstructure", "ViennaRNA-d3"} {
			for n := 10; n <= 100; n += 10 {
				for rep := -1; rep <= 1; rep++ {
					sec := 0.001 * float64(n*n) * (1 + 0.01*float64(rep))
					if p != "memerna" {
						sec *= 3
					}
					fmt.Fprintf(&buf, `{"name": "r%d", "dataset": %q, "program": %q, "length": %d, "real_sec": %g, "user_sec": 0, "sys_sec": 0, "maxrss_bytes": %d}`+"\n",
						n, ds, p, n, sec, 1000*n)
				}
			}
		}
	}
	ds, err := dataset.Read(strings.NewReader(buf.String()), "perf.jsonl", vars.FoldPerf())
	require.NoError(t, err)
	return ds
}

func TestFoldPerf(t *testing.T) {
	out := newOutput(t)
	paths, err := FoldPerf(context.Background(), foldPerf(t), out)
	require.NoError(t, err)
	assert.Equal(t, []string{
		"archiveii_maxrss_bytes.svg",
		"archiveii_maxrss_bytes_log.svg",
		"archiveii_real_sec.svg",
		"archiveii_real_sec_log.svg",
		"random_maxrss_bytes.svg",
		"random_maxrss_bytes_log.svg",
		"random_real_sec.svg",
		"random_real_sec_log.svg",
		"random_subset_maxrss_bytes.svg",
		"random_subset_real_sec.svg",
	}, baseNames(paths))
	assertFiles(t, paths)

	// Programs keep their colours across charts.
	assert.Equal(t, 3, out.Palette.Len())
}

func TestFoldPerfMissingColumn(t *testing.T) {
	ds, err := dataset.Read(strings.NewReader(`{"name": "a", "dataset": "random"}`+"\n"), "x.jsonl",
		vars.MustSet(vars.Var{ID: "name", Kind: vars.String}, vars.Var{ID: "dataset", Kind: vars.String}))
	require.NoError(t, err)
	_, err = FoldPerf(context.Background(), ds, newOutput(t))
	var ce *dataset.ColumnError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, "length", ce.Column)
}

const foldAccuracyInput = `
{"name": "t1", "dataset": "archiveii", "family": "tRNA", "program": "memerna", "ppv": 0.8, "sensitivity": 0.4, "f1": 0.5, "length": 70, "real_sec": 0.1, "maxrss_bytes": 1000}
{"name": "t2", "dataset": "archiveii", "family": "tRNA", "program": "memerna", "ppv": 0.6, "sensitivity": 0.2, "f1": 0.3, "length": 80, "real_sec": 0.2, "maxrss_bytes": 1200}
{"name": "s1", "dataset": "archiveii", "family": "16S", "program": "memerna", "ppv": 0.1, "sensitivity": 0.1, "f1": 0.1, "length": 1500, "real_sec": 9, "maxrss_bytes": 90000}
{"name": "s1_domain1", "dataset": "archiveii", "family": "16S", "program": "memerna", "ppv": 0.9, "sensitivity": 0.5, "f1": 0.6, "length": 500, "real_sec": 1, "maxrss_bytes": 9000}
{"name": "s1_domain2", "dataset": "archiveii", "family": "16S", "program": "memerna", "ppv": 0.7, "sensitivity": 0.3, "f1": 0.4, "length": 600, "real_sec": 2, "maxrss_bytes": 9500}
{"name": "t1", "dataset": "archiveii", "family": "tRNA", "program": "RNAstructure", "ppv": 0.5, "sensitivity": 0.5, "f1": 0.5, "length": 70, "real_sec": 0.3, "maxrss_bytes": 2000}
`

func readAccuracy(t *testing.T, input string) *dataset.Dataset {
	t.Helper()
	ds, err := dataset.Read(strings.NewReader(input), "accuracy.jsonl", vars.FoldAccuracy())
	require.NoError(t, err)
	return ds
}

func TestFoldAccuracy(t *testing.T) {
	out := newOutput(t)
	sums, err := FoldAccuracy(context.Background(), readAccuracy(t, foldAccuracyInput), out)
	require.NoError(t, err)
	require.Len(t, sums, 2)

	mem := sums[0]
	assert.Equal(t, "archiveii", mem.Dataset)
	assert.Equal(t, "memerna", mem.Program)
	require.Len(t, mem.Families, 2)
	// The whole s1 entry is dropped in favour of its domains.
	assert.Equal(t, "16S", mem.Families[0].Family)
	assert.Equal(t, 2, mem.Families[0].N)
	assert.InDeltaSlice(t, []float64{0.8, 0.4, 0.5}, mem.Families[0].Means[:], 1e-12)
	assert.Equal(t, "tRNA", mem.Families[1].Family)
	assert.InDeltaSlice(t, []float64{0.7, 0.3, 0.4}, mem.Families[1].Means[:], 1e-12)
	assert.InDeltaSlice(t, []float64{0.75, 0.35, 0.45}, mem.Means[:], 1e-12)

	assert.Equal(t, "RNAstructure", sums[1].Program)
	assert.InDeltaSlice(t, []float64{0.5, 0.5, 0.5}, sums[1].Means[:], 1e-12)

	for _, name := range []string{"archiveii_real_sec.svg", "archiveii_maxrss_bytes.svg"} {
		assertFiles(t, []string{filepath.Join(out.Dir, name)})
	}

	var buf bytes.Buffer
	require.NoError(t, WriteAccuracy(&buf, sums))
	want := `dataset archiveii program memerna
family  n  ppv     sensitivity  f1
------  -  ------  -----------  ------
16S     2  0.8000  0.4000       0.5000
tRNA    2  0.7000  0.3000       0.4000
------  -  ------  -----------  ------
mean    2  0.7500  0.3500       0.4500
`
	assert.True(t, strings.HasPrefix(buf.String(), want), "got:\n%s", buf.String())
	assert.Contains(t, buf.String(), "\n\ndataset archiveii program RNAstructure\n")
}

func TestFoldAccuracyMissingParent(t *testing.T) {
	input := `{"name": "x_domain1", "dataset": "archiveii", "family": "f", "program": "memerna", "ppv": 1, "sensitivity": 1, "f1": 1, "length": 10, "real_sec": 1, "maxrss_bytes": 1}`
	_, err := FoldAccuracy(context.Background(), readAccuracy(t, input), nil)
	assert.ErrorContains(t, err, `no parent "x"`)
}

// suboptPerf returns subopt records for one configuration whose wall
// time is linear in RNA length, plus one failed run.
func suboptPerf(t *testing.T) *dataset.Dataset {
	t.Helper()
	var buf strings.Builder
	rec := func(n int, secs float64, failed bool) {
		fmt.Fprintf(&buf, `{"package_name": "memerna", "ctd": "none", "lonely_pairs": "heuristic", "energy_model": "t04", "backend": "base", "sorted_strucs": true, "delta": "3", "strucs": 5000, "time_secs": 10, "count_only": false, "algorithm": "iterative", "dataset": "random", "rna_name": "r%d", "rna_length": %d, "run_idx": 0, "output_strucs": 5000, "maxrss_bytes": %d, "user_sec": 0, "sys_sec": 0, "real_sec": %g, "failed": %t}`+"\n",
			n, n, 100*n, secs, failed)
	}
	for n := 20; n <= 400; n += 20 {
		rec(n, 0.002*float64(n)+0.1+0.0005*float64(n%3-1), false)
	}
	rec(1000, 0, true)
	ds, err := dataset.Read(strings.NewReader(buf.String()), "subopt.jsonl", vars.SuboptPerf())
	require.NoError(t, err)
	return ds
}

func TestSuboptPerfPlot(t *testing.T) {
	paths, err := SuboptPerfPlot(context.Background(), suboptPerf(t), newOutput(t))
	require.NoError(t, err)
	require.Len(t, paths, 3)
	for i, y := range suboptQuantities {
		base := filepath.Base(paths[i])
		assert.True(t, strings.HasPrefix(base, "quantity_false_none_random_3_"), base)
		assert.True(t, strings.HasSuffix(base, "_"+y+".svg"), base)
	}
	assertFiles(t, paths)
}

func fitConfig() config.FitConfig {
	return config.FitConfig{
		Criterion: "bic",
		Timeout:   10 * time.Second,
		Workers:   2,
		Catalog1:  []string{"1", "n", "n^2"},
	}
}

func TestSuboptPerfAnalyze(t *testing.T) {
	ctx := context.Background()
	db, err := fitdb.OpenSQL("sqlite3", ":memory:")
	require.NoError(t, err)
	defer db.Close()
	run, err := db.NewRun(ctx, "subopt")
	require.NoError(t, err)

	fits, err := SuboptPerfAnalyze(ctx, suboptPerf(t), AnalyzeOptions{Fit: fitConfig(), Archive: run})
	require.NoError(t, err)
	require.Len(t, fits, 1)
	gf := fits[0]
	require.NoError(t, gf.Err)
	assert.True(t, strings.HasSuffix(gf.Group, "_memerna-none-iterative-base"), gf.Group)
	// The failed run is dropped.
	assert.Equal(t, 20, gf.Rows)
	assert.Equal(t, "n", gf.Selection.Name)
	assert.Equal(t, "rna_length", gf.Selection.Indep[0].ID)
	assert.Equal(t, "real_sec", gf.Selection.Dep.ID)

	best, err := db.BestFits(ctx, run.ID)
	require.NoError(t, err)
	require.Len(t, best, 1)
	assert.Equal(t, gf.Group, best[0].Group)
	assert.Equal(t, "n", best[0].Expr)
}

func TestAnalyze(t *testing.T) {
	out := newOutput(t)
	fits, err := Analyze(context.Background(), foldPerf(t), AnalyzeOptions{
		X:       []string{"length"},
		Y:       "real_sec",
		GroupBy: []string{"program"},
		Fit:     fitConfig(),
		Out:     out,
	})
	require.NoError(t, err)
	require.Len(t, fits, 3)
	for _, gf := range fits {
		require.NoError(t, gf.Err, gf.Group)
		assert.Equal(t, "n^2", gf.Selection.Name, gf.Group)
		assertFiles(t, []string{filepath.Join(out.Dir, "fit_"+gf.Group+"_real_sec.svg")})
	}

	_, err = Analyze(context.Background(), foldPerf(t), AnalyzeOptions{X: []string{"length"}, Y: "nope", Fit: fitConfig()})
	assert.ErrorContains(t, err, `column "nope"`)

	fits, err = Analyze(context.Background(), foldPerf(t).FilterEq("program", "memerna"), AnalyzeOptions{X: []string{"length"}, Y: "real_sec", Fit: fitConfig()})
	require.NoError(t, err)
	require.Len(t, fits, 1)
	assert.Equal(t, "all", fits[0].Group)
}

func TestWriteFits(t *testing.T) {
	fits, err := Analyze(context.Background(), foldPerf(t).FilterEq("program", "memerna"), AnalyzeOptions{
		X:       []string{"length"},
		Y:       "real_sec",
		GroupBy: []string{"program"},
		Fit:     fitConfig(),
	})
	require.NoError(t, err)
	fits = append(fits, &GroupFit{Group: "empty", Err: complexity.ErrNoViableModel})

	check := func(format string) string {
		t.Helper()
		var buf bytes.Buffer
		require.NoError(t, WriteFits(&buf, fits, format))
		return buf.String()
	}

	text := check("text")
	assert.True(t, strings.HasPrefix(text, "== memerna (60 rows)\nreal_sec ~ f(length): best model n^2 by bic (60 rows)\n"), text)
	assert.True(t, strings.HasSuffix(text, "\n\n== empty (0 rows)\nno model could be fit\n"), text)

	var js []map[string]any
	require.NoError(t, json.Unmarshal([]byte(check("json")), &js))
	require.Len(t, js, 2)
	assert.Equal(t, "n^2", js[0]["selection"].(map[string]any)["best"])
	assert.Equal(t, "no model could be fit", js[1]["error"])
	assert.NotContains(t, js[1], "selection")

	var ys []groupReport
	require.NoError(t, yaml.Unmarshal([]byte(check("yaml")), &ys))
	require.Len(t, ys, 2)
	assert.Equal(t, "memerna", ys[0].Group)
	assert.Equal(t, "n^2", ys[0].Selection.Best)

	assert.ErrorContains(t, WriteFits(&bytes.Buffer{}, fits, "xml"), `unknown output format "xml"`)
}

func TestReadEnergies(t *testing.T) {
	in := "-1.25 (((...)))\n\n  -1.0\tfoo\nbad line\n-0.95\nNaN\n0\n"
	es, err := ReadEnergies(context.Background(), strings.NewReader(in))
	require.NoError(t, err)
	assert.Equal(t, []float64{-1.25, -1.0, -0.95, 0}, es)

	_, err = ReadEnergies(context.Background(), strings.NewReader("x\n\ny\n"))
	assert.ErrorContains(t, err, "no valid energy values")
}

func TestEnsemble(t *testing.T) {
	out := newOutput(t)
	var buf bytes.Buffer
	sum, err := Ensemble(context.Background(), strings.NewReader("-1.25\n-1.0\n-0.95\n0\n"), &buf, out, EnsembleOptions{})
	require.NoError(t, err)
	assert.Equal(t, 4, sum.N)
	assertFiles(t, []string{
		filepath.Join(out.Dir, "free_energy_distribution.svg"),
		filepath.Join(out.Dir, "boltzmann_distribution.svg"),
	})
	lines := strings.Split(buf.String(), "\n")
	require.Len(t, lines, 3)
	assert.True(t, strings.HasPrefix(lines[0], "Partition Function (Q): "), lines[0])
	assert.Equal(t, "Sum of Probabilities: 1.000000", lines[1])
}

func TestComparePartition(t *testing.T) {
	check := func(a, b string) (*PartitionDiff, error) {
		t.Helper()
		return ComparePartition(strings.NewReader(a), "a", strings.NewReader(b), "b")
	}

	d, err := check("1.0 2.0\n3.0", "1.0\t2.0 3.5\n")
	require.NoError(t, err)
	assert.Equal(t, 3, d.N)
	assert.Equal(t, "rms: 0.28867513459481288225\nlargest diff: 0.50000000000000000000\n", d.String())

	d, err = check("1e-30", "1e-30")
	require.NoError(t, err)
	assert.Equal(t, "rms: 0.00000000000000000000\nlargest diff: 0.00000000000000000000\n", d.String())

	_, err = check("", "1")
	assert.ErrorIs(t, err, ErrEmptyPartition)
	_, err = check("1 2", "1")
	assert.ErrorContains(t, err, "input lengths do not match: 2 vs 1")
	_, err = check("1 x", "1 2")
	assert.ErrorContains(t, err, `a: invalid numeric value "x"`)
	_, err = check("1 2", "1 Inf")
	assert.ErrorContains(t, err, `b: invalid numeric value "Inf"`)
}
