// Copyright 2025 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// run executes rnaperf with args and returns its standard output.
func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	cmd := newRootCmd(&stdout, &stderr)
	cmd.SetArgs(args)
	err := cmd.Execute()
	if err != nil {
		t.Logf("stderr:\n%s", stderr.String())
	}
	return stdout.String(), err
}

func writeFile(t *testing.T, name, data string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(data), 0666))
	return path
}

func TestComparePartition(t *testing.T) {
	a := writeFile(t, "a.txt", "1.0 2.0 3.0\n")
	b := writeFile(t, "b.txt", "1.0 2.0 3.5\n")
	out, err := run(t, "compare-partition", a, b)
	require.NoError(t, err)
	assert.Equal(t, "rms: 0.28867513459481288225\nlargest diff: 0.50000000000000000000\n", out)

	_, err = run(t, "compare-partition", a)
	assert.Error(t, err)

	empty := writeFile(t, "empty.txt", "\n")
	_, err = run(t, "compare-partition", a, empty)
	assert.ErrorContains(t, err, "at least one value")
}

func suboptInput(t *testing.T) string {
	t.Helper()
	var buf strings.Builder
	for n := 20; n <= 400; n += 20 {
		for _, pkg := range []string{"memerna", "RNAstructure"} {
			secs := 0.002*float64(n) + 0.1 + 0.0005*float64(n%3-1)
			if pkg == "RNAstructure" {
				secs = 0.00002*float64(n*n) + 0.1 + 0.0005*float64(n%3-1)
			}
			fmt.Fprintf(&buf, `{"package_name": %q, "ctd": "none", "lonely_pairs": "heuristic", "energy_model": "t04", "backend": "base", "sorted_strucs": true, "delta": "3", "strucs": 5000, "time_secs": 10, "count_only": false, "algorithm": "iterative", "dataset": "random", "rna_name": "r%d", "rna_length": %d, "run_idx": 0, "output_strucs": 5000, "maxrss_bytes": %d, "user_sec": 0, "sys_sec": 0, "real_sec": %g, "failed": false}`+"\n",
				pkg, n, n, 100*n, secs)
		}
	}
	return writeFile(t, "subopt.jsonl", buf.String())
}

func TestFit(t *testing.T) {
	in := suboptInput(t)
	cfg := writeFile(t, "rnaperf.yaml", "fit:\n  catalog1: [\"1\", \"n\", \"n^2\"]\n  workers: 2\n")

	out, err := run(t, "--config", cfg, "fit", "--input", in, "--group", "program", "--filter", "package_name:memerna")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "== memerna-none-iterative-base (20 rows)\nreal_sec ~ f(rna_length): best model n by bic (20 rows)\n"), out)

	out, err = run(t, "--config", cfg, "--criterion", "aic", "fit", "--input", in, "--group", "program", "--output", "yaml")
	require.NoError(t, err)
	assert.Contains(t, out, "group: RNAstructure-none-iterative-base")
	assert.Contains(t, out, "best: n^2")
	assert.Contains(t, out, "criterion: aic")

	_, err = run(t, "fit", "--input", in, "--x", "a,b,c")
	assert.ErrorContains(t, err, "one or two columns")
	_, err = run(t, "fit", "--input", in, "--kind", "nope")
	assert.ErrorContains(t, err, `unknown record kind "nope"`)
	_, err = run(t, "--criterion", "r2", "fit", "--input", in)
	assert.ErrorContains(t, err, "fit.criterion")
}

func TestArchive(t *testing.T) {
	in := suboptInput(t)
	dsn := filepath.Join(t.TempDir(), "fits.db")
	cfg := writeFile(t, "rnaperf.yaml", "fit:\n  catalog1: [\"1\", \"n\", \"n^2\"]\n")
	db := []string{"--config", cfg, "--db-driver", "sqlite3", "--db", dsn}

	_, err := run(t, append(db, "analyze-subopt-perf", "--label", "nightly", in)...)
	require.NoError(t, err)

	out, err := run(t, append(db, "list-fits")...)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 3, out)
	assert.True(t, strings.HasPrefix(lines[2], "1    nightly"), lines[2])
	assert.True(t, strings.HasSuffix(lines[2], " 2"), lines[2])

	out, err = run(t, append(db, "list-fits", "--run", "1")...)
	require.NoError(t, err)
	assert.Contains(t, out, "_RNAstructure-none-iterative-base  n^2")
	assert.Contains(t, out, "_memerna-none-iterative-base       n ")

	_, err = run(t, "list-fits")
	assert.ErrorContains(t, err, "no fit archive configured")
}

func TestPlotCommands(t *testing.T) {
	dir := t.TempDir()
	in := suboptInput(t)
	_, err := run(t, "--format", "svg", "plot-subopt-perf", "-o", dir, in)
	require.NoError(t, err)
	charts, err := filepath.Glob(filepath.Join(dir, "quantity_*.svg"))
	require.NoError(t, err)
	assert.Len(t, charts, 3)

	energies := writeFile(t, "energies.txt", "-1.25 ((...))\n-1.0 (....)\n0 ......\n")
	out, err := run(t, "--format", "svg", "plot-ensemble", "-o", dir, energies)
	require.NoError(t, err)
	assert.Contains(t, out, "Sum of Probabilities: 1.000000\n")
	for _, name := range []string{"free_energy_distribution.svg", "boltzmann_distribution.svg"} {
		_, err := os.Stat(filepath.Join(dir, name))
		assert.NoError(t, err)
	}

	_, err = run(t, "--format", "gif", "plot-ensemble", energies)
	assert.ErrorContains(t, err, "plot.format")
}
