// Copyright 2025 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package config loads rnaperf settings from a YAML file, RNAPERF_*
// environment variables and command-line flags, in increasing order
// of precedence.
package config

import (
	"fmt"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"gonum.org/v1/plot/vg"

	"github.com/rnaperf/rnaperf/chart"
	"github.com/rnaperf/rnaperf/complexity"
)

// EnvPrefix prefixes environment variables. Nested keys join with
// underscores, as in RNAPERF_FIT_CRITERION.
const EnvPrefix = "RNAPERF"

// Config is the complete configuration.
type Config struct {
	Fit  FitConfig  `yaml:"fit" mapstructure:"fit"`
	Plot PlotConfig `yaml:"plot" mapstructure:"plot"`
	DB   DBConfig   `yaml:"db" mapstructure:"db"`
}

// FitConfig controls model selection.
type FitConfig struct {
	// Criterion is "bic" or "aic".
	Criterion string `yaml:"criterion" mapstructure:"criterion"`
	// Timeout bounds each candidate fit.
	Timeout time.Duration `yaml:"timeout" mapstructure:"timeout"`
	// Workers is the number of candidates fit concurrently.
	Workers int `yaml:"workers" mapstructure:"workers"`
	// MaxEvaluations limits model evaluations per fit; 0 means
	// 200*(k+1) for k parameters.
	MaxEvaluations int `yaml:"max_evaluations" mapstructure:"max_evaluations"`
	// Catalog1 and Catalog2 replace the default candidate models of
	// one and two variables when non-empty.
	Catalog1 []string `yaml:"catalog1,omitempty" mapstructure:"catalog1"`
	Catalog2 []string `yaml:"catalog2,omitempty" mapstructure:"catalog2"`
}

// PlotConfig controls chart output.
type PlotConfig struct {
	// Format is png, svg or pdf.
	Format string `yaml:"format" mapstructure:"format"`
	DPI    int    `yaml:"dpi" mapstructure:"dpi"`
	// WidthCM and HeightCM override chart sizes when non-zero.
	WidthCM  float64 `yaml:"width_cm" mapstructure:"width_cm"`
	HeightCM float64 `yaml:"height_cm" mapstructure:"height_cm"`
}

// DBConfig selects the fit archive. An empty Driver disables it.
type DBConfig struct {
	Driver string `yaml:"driver" mapstructure:"driver"`
	DSN    string `yaml:"dsn" mapstructure:"dsn"`
}

// Default returns the default configuration.
func Default() Config {
	return Config{
		Fit: FitConfig{
			Criterion: "bic",
			Timeout:   complexity.DefaultTimeout,
			Workers:   runtime.GOMAXPROCS(0),
		},
		Plot: PlotConfig{
			Format: "png",
			DPI:    chart.DefaultDPI,
		},
	}
}

// flagKeys maps command-line flag names to configuration keys.
var flagKeys = map[string]string{
	"criterion":       "fit.criterion",
	"timeout":         "fit.timeout",
	"workers":         "fit.workers",
	"max-evaluations": "fit.max_evaluations",
	"format":          "plot.format",
	"dpi":             "plot.dpi",
	"width-cm":        "plot.width_cm",
	"height-cm":       "plot.height_cm",
	"db-driver":       "db.driver",
	"db":              "db.dsn",
}

// Load reads the configuration file at path, if path is not empty,
// then applies environment variables and any flags in fs that were
// set. The result is validated.
func Load(path string, fs *pflag.FlagSet) (*Config, error) {
	v := viper.New()
	def := Default()
	v.SetDefault("fit.criterion", def.Fit.Criterion)
	v.SetDefault("fit.timeout", def.Fit.Timeout)
	v.SetDefault("fit.workers", def.Fit.Workers)
	v.SetDefault("fit.max_evaluations", def.Fit.MaxEvaluations)
	v.SetDefault("fit.catalog1", []string{})
	v.SetDefault("fit.catalog2", []string{})
	v.SetDefault("plot.format", def.Plot.Format)
	v.SetDefault("plot.dpi", def.Plot.DPI)
	v.SetDefault("plot.width_cm", def.Plot.WidthCM)
	v.SetDefault("plot.height_cm", def.Plot.HeightCM)
	v.SetDefault("db.driver", def.DB.Driver)
	v.SetDefault("db.dsn", def.DB.DSN)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}
	if fs != nil {
		for name, key := range flagKeys {
			if f := fs.Lookup(name); f != nil && f.Changed {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, err
				}
			}
		}
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// Validate checks for invalid configuration values.
func (c *Config) Validate() error {
	if _, err := complexity.ParseCriterion(c.Fit.Criterion); err != nil {
		return fmt.Errorf("fit.criterion: %w", err)
	}
	if c.Fit.Timeout < 0 {
		return fmt.Errorf("fit.timeout must be >= 0, got %v", c.Fit.Timeout)
	}
	if c.Fit.Workers < 0 {
		return fmt.Errorf("fit.workers must be >= 0, got %d", c.Fit.Workers)
	}
	if c.Fit.MaxEvaluations < 0 {
		return fmt.Errorf("fit.max_evaluations must be >= 0, got %d", c.Fit.MaxEvaluations)
	}
	switch c.Plot.Format {
	case "png", "svg", "pdf":
	default:
		return fmt.Errorf("plot.format must be png, svg or pdf, got %q", c.Plot.Format)
	}
	if c.Plot.DPI <= 0 || c.Plot.DPI > 2400 {
		return fmt.Errorf("plot.dpi must be between 1 and 2400, got %d", c.Plot.DPI)
	}
	if c.Plot.WidthCM < 0 || c.Plot.HeightCM < 0 {
		return fmt.Errorf("plot.width_cm and plot.height_cm must be >= 0")
	}
	switch c.DB.Driver {
	case "":
	case "sqlite3", "mysql":
		if c.DB.DSN == "" {
			return fmt.Errorf("db.dsn is required with db.driver %q", c.DB.Driver)
		}
	default:
		return fmt.Errorf("db.driver must be sqlite3 or mysql, got %q", c.DB.Driver)
	}
	return nil
}

// FitterOptions returns the complexity options for models of the
// given number of independent variables.
func (c *FitConfig) FitterOptions(arity int) ([]complexity.Option, error) {
	crit, err := complexity.ParseCriterion(c.Criterion)
	if err != nil {
		return nil, err
	}
	opts := []complexity.Option{
		complexity.WithCriterion(crit),
		complexity.WithTimeout(c.Timeout),
		complexity.WithWorkers(c.Workers),
		complexity.WithMaxEvaluations(c.MaxEvaluations),
	}
	switch {
	case arity == 1 && len(c.Catalog1) > 0:
		opts = append(opts, complexity.WithCatalog(c.Catalog1...))
	case arity == 2 && len(c.Catalog2) > 0:
		opts = append(opts, complexity.WithCatalog(c.Catalog2...))
	}
	return opts, nil
}

// SaveOptions returns the chart rendering options.
func (c *PlotConfig) SaveOptions() chart.SaveOptions {
	return chart.SaveOptions{
		DPI:    c.DPI,
		Width:  vg.Length(c.WidthCM) * vg.Centimeter,
		Height: vg.Length(c.HeightCM) * vg.Centimeter,
	}
}

// Path returns the output path for a chart named name in dir.
func (c *PlotConfig) Path(dir, name string) string {
	return filepath.Join(dir, name+"."+c.Format)
}
