// Copyright 2025 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/plot/vg"
	"gopkg.in/yaml.v3"

	"github.com/rnaperf/rnaperf/complexity"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "rnaperf.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0666))
	return path
}

func TestLoadDefaults(t *testing.T) {
	c, err := Load("", nil)
	require.NoError(t, err)
	def := Default()
	assert.Equal(t, def.Fit.Criterion, c.Fit.Criterion)
	assert.Equal(t, complexity.DefaultTimeout, c.Fit.Timeout)
	assert.Equal(t, def.Fit.Workers, c.Fit.Workers)
	assert.Equal(t, "png", c.Plot.Format)
	assert.Equal(t, 300, c.Plot.DPI)
	assert.Empty(t, c.DB.Driver)
}

func TestLoadFile(t *testing.T) {
	path := writeConfig(t, `
fit:
  criterion: aic
  timeout: 30s
  workers: 2
  max_evaluations: 1000
  catalog1: ["1", "n", "n^2"]
plot:
  format: svg
  width_cm: 20
db:
  driver: sqlite3
  dsn: fits.db
`)
	c, err := Load(path, nil)
	require.NoError(t, err)
	assert.Equal(t, "aic", c.Fit.Criterion)
	assert.Equal(t, 30*time.Second, c.Fit.Timeout)
	assert.Equal(t, 2, c.Fit.Workers)
	assert.Equal(t, 1000, c.Fit.MaxEvaluations)
	assert.Equal(t, []string{"1", "n", "n^2"}, c.Fit.Catalog1)
	assert.Equal(t, "svg", c.Plot.Format)
	assert.Equal(t, 300, c.Plot.DPI)
	assert.Equal(t, 20.0, c.Plot.WidthCM)
	assert.Equal(t, DBConfig{Driver: "sqlite3", DSN: "fits.db"}, c.DB)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"), nil)
	assert.Error(t, err)
}

func TestLoadPrecedence(t *testing.T) {
	path := writeConfig(t, "fit:\n  criterion: aic\n  workers: 2\nplot:\n  dpi: 100\n")
	t.Setenv("RNAPERF_FIT_WORKERS", "5")
	t.Setenv("RNAPERF_PLOT_FORMAT", "pdf")

	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	fs.String("criterion", "bic", "")
	fs.Int("dpi", 300, "")
	fs.Duration("timeout", time.Second, "")
	require.NoError(t, fs.Parse([]string{"--dpi=150", "--timeout=2s"}))

	c, err := Load(path, fs)
	require.NoError(t, err)
	assert.Equal(t, "aic", c.Fit.Criterion, "unset flag must not override the file")
	assert.Equal(t, 5, c.Fit.Workers, "environment overrides the file")
	assert.Equal(t, "pdf", c.Plot.Format)
	assert.Equal(t, 150, c.Plot.DPI, "flag overrides the file")
	assert.Equal(t, 2*time.Second, c.Fit.Timeout)
}

func TestValidate(t *testing.T) {
	check := func(mut func(*Config), wantErr string) {
		t.Helper()
		c := Default()
		mut(&c)
		err := c.Validate()
		if wantErr == "" {
			assert.NoError(t, err)
			return
		}
		assert.ErrorContains(t, err, wantErr)
	}
	check(func(c *Config) {}, "")
	check(func(c *Config) { c.Fit.Criterion = "AIC" }, "")
	check(func(c *Config) { c.Fit.Criterion = "r2" }, "fit.criterion")
	check(func(c *Config) { c.Fit.Timeout = -time.Second }, "fit.timeout")
	check(func(c *Config) { c.Fit.Workers = -1 }, "fit.workers")
	check(func(c *Config) { c.Fit.MaxEvaluations = -1 }, "fit.max_evaluations")
	check(func(c *Config) { c.Plot.Format = "gif" }, "plot.format")
	check(func(c *Config) { c.Plot.DPI = 0 }, "plot.dpi")
	check(func(c *Config) { c.Plot.HeightCM = -1 }, "plot.width_cm")
	check(func(c *Config) { c.DB.Driver = "postgres" }, "db.driver")
	check(func(c *Config) { c.DB.Driver = "mysql" }, "db.dsn")
	check(func(c *Config) { c.DB = DBConfig{"mysql", "root@/fits"} }, "")

	path := writeConfig(t, "plot:\n  format: gif\n")
	_, err := Load(path, nil)
	assert.ErrorContains(t, err, "plot.format")
}

func TestFitterOptions(t *testing.T) {
	c := Default()
	c.Fit.Catalog2 = []string{"n+m", "n*m"}
	opts, err := c.Fit.FitterOptions(2)
	require.NoError(t, err)
	assert.Len(t, opts, 5)
	opts, err = c.Fit.FitterOptions(1)
	require.NoError(t, err)
	assert.Len(t, opts, 4)

	c.Fit.Criterion = "nope"
	_, err = c.Fit.FitterOptions(1)
	assert.Error(t, err)
}

func TestPlotOptions(t *testing.T) {
	c := Default()
	c.Plot.WidthCM = 10
	so := c.Plot.SaveOptions()
	assert.Equal(t, 300, so.DPI)
	assert.Equal(t, 10*vg.Centimeter, so.Width)
	assert.Equal(t, vg.Length(0), so.Height)
	assert.Equal(t, filepath.Join("out", "fold.png"), c.Plot.Path("out", "fold"))
}

func TestYAMLEncoding(t *testing.T) {
	c := Default()
	c.Fit.Catalog1 = []string{"n"}
	data, err := yaml.Marshal(c)
	require.NoError(t, err)
	assert.Contains(t, string(data), "max_evaluations: 0")
	assert.Contains(t, string(data), "catalog1:")
	assert.NotContains(t, string(data), "catalog2")
}
