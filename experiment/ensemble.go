// Copyright 2025 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package experiment

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/rnaperf/rnaperf/chart"
	"github.com/rnaperf/rnaperf/internal/logging"
)

// ReadEnergies reads free energies from the first column of each line
// of r. Blank lines are ignored. Lines whose first field is not a
// finite number are logged and skipped. It is an error if no line
// holds an energy.
func ReadEnergies(ctx context.Context, r io.Reader) ([]float64, error) {
	log := logging.FromContext(ctx)
	var energies []float64
	sc := bufio.NewScanner(r)
	for line := 1; sc.Scan(); line++ {
		fields := strings.Fields(sc.Text())
		if len(fields) == 0 {
			continue
		}
		e, err := strconv.ParseFloat(fields[0], 64)
		if err != nil || math.IsNaN(e) || math.IsInf(e, 0) {
			log.Info("Skipping unparsable line", "line", line, "text", fields[0])
			continue
		}
		energies = append(energies, e)
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	if len(energies) == 0 {
		return nil, fmt.Errorf("no valid energy values")
	}
	log.V(logging.DEBUG).Info("Read energies", "n", len(energies))
	return energies, nil
}

// EnsembleOptions configure Ensemble.
type EnsembleOptions struct {
	// Temperature is in kelvin and KCal is the Boltzmann constant in
	// kcal/(mol·K). Zero values mean chart.DefaultTemperature and
	// chart.DefaultKCal.
	Temperature float64
	KCal        float64
}

// Ensemble reads free energies from r, plots their distribution and
// their Boltzmann probability distribution to out as
// free_energy_distribution and boltzmann_distribution, and writes a
// summary of the partition function to w.
func Ensemble(ctx context.Context, r io.Reader, w io.Writer, out *Output, opts EnsembleOptions) (*chart.EnsembleSummary, error) {
	if opts.Temperature == 0 {
		opts.Temperature = chart.DefaultTemperature
	}
	if opts.KCal == 0 {
		opts.KCal = chart.DefaultKCal
	}
	energies, err := ReadEnergies(ctx, r)
	if err != nil {
		return nil, err
	}
	sum, err := chart.Ensemble(energies, opts.Temperature, opts.KCal)
	if err != nil {
		return nil, err
	}
	dist, boltz := sum.Plots(opts.Temperature)
	if _, err := out.save(ctx, dist, "free_energy_distribution"); err != nil {
		return nil, err
	}
	if _, err := out.save(ctx, boltz, "boltzmann_distribution"); err != nil {
		return nil, err
	}
	if err := WriteEnsemble(w, sum); err != nil {
		return nil, err
	}
	return sum, nil
}

// WriteEnsemble writes the partition function and the total
// probability of sum.
func WriteEnsemble(w io.Writer, sum *chart.EnsembleSummary) error {
	q := strconv.FormatFloat(sum.Partition, 'g', 4, 64)
	if math.IsInf(sum.Partition, 1) {
		q = fmt.Sprintf("exp(%.4g)", sum.LogPartition)
	}
	_, err := fmt.Fprintf(w, "Partition Function (Q): %s\nSum of Probabilities: %.6f\n", q, sum.ProbabilitySum())
	return err
}
