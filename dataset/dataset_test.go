// Copyright 2025 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package dataset

import (
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rnaperf/rnaperf/dataset/query"
	"github.com/rnaperf/rnaperf/vars"
)

const foldPerfInput = `
{"name": "a", "dataset": "random", "program": "memerna", "length": 10, "real_sec": 0.5, "user_sec": 0.4, "sys_sec": 0.1, "maxrss_bytes": 1000}
{"name": "b", "dataset": "random", "program": "memerna", "length": 20, "real_sec": 1.5, "user_sec": 1.4, "sys_sec": 0.1, "maxrss_bytes": 3000}
{"name": "c", "dataset": "random", "program": "RNAstructure", "length": 10, "real_sec": 2.0, "user_sec": 1.9, "sys_sec": 0.1, "maxrss_bytes": 2000}

{"name": "d", "dataset": "archiveii", "program": "memerna", "length": 10, "real_sec": 1.0, "user_sec": 0.9, "sys_sec": 0.1, "maxrss_bytes": 1000.0}
`

func readFoldPerf(t *testing.T) *Dataset {
	t.Helper()
	ds, err := Read(strings.NewReader(foldPerfInput), "input", vars.FoldPerf())
	require.NoError(t, err)
	return ds
}

func TestRead(t *testing.T) {
	ds := readFoldPerf(t)
	assert.Equal(t, 4, ds.Len())

	lengths, err := ds.Floats("length")
	require.NoError(t, err)
	assert.Equal(t, []float64{10, 20, 10, 10}, lengths)

	rss, ok := ds.Row(3).Get("maxrss_bytes").(int64)
	require.True(t, ok)
	assert.Equal(t, int64(1000), rss)

	_, err = ds.Floats("program")
	var ce *ColumnError
	assert.True(t, errors.As(err, &ce))
	_, err = ds.Floats("nope")
	assert.True(t, errors.As(err, &ce))
}

func TestReadErrors(t *testing.T) {
	check := func(input string, line int, msg string) {
		t.Helper()
		_, err := Read(strings.NewReader(input), "in", vars.MustSet(
			vars.Var{ID: "x", Kind: vars.Int},
			vars.Var{ID: "y", Kind: vars.Float},
		))
		var de *DecodeError
		if !errors.As(err, &de) {
			t.Fatalf("want DecodeError, got %v", err)
		}
		assert.Equal(t, line, de.Line)
		assert.Contains(t, de.Error(), msg)
	}
	check("{\"x\": 1, \"y\": 2}\n{\"x\": 1}\n", 2, `missing field "y"`)
	check("{\"x\": 1.5, \"y\": 2}\n", 1, "not an integer")
	check("\n\n{\"x\": \"a\", \"y\": 2}\n", 3, "cannot convert")
	check("{\"x\": 1, \"y\": 2\n", 1, "in:1:")
}

func TestDerivedNotRead(t *testing.T) {
	vs := vars.MustSet(
		vars.Var{ID: "x", Kind: vars.Int},
		vars.Var{ID: "d", Kind: vars.Float, Derived: true},
	)
	ds, err := Read(strings.NewReader(`{"x": 3}`+"\n"), "in", vs)
	require.NoError(t, err)
	assert.Equal(t, []string{"x"}, ds.Columns())
}

func TestFilterAndGroup(t *testing.T) {
	ds := readFoldPerf(t)

	random := ds.FilterEq("dataset", "random")
	assert.Equal(t, 3, random.Len())

	noRS := random.Exclude("program", "RNAstructure", "ViennaRNA-d3")
	names, err := noRS.Strings("name")
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, names)

	long := ds.Where(query.MustParse("length>=20 OR program:/^RNA/"))
	names, _ = long.Strings("name")
	assert.Equal(t, []string{"b", "c"}, names)

	empty := ds.FilterEq("dataset", "none")
	assert.Equal(t, 0, empty.Len())
	assert.Equal(t, ds.Columns(), empty.Columns())

	groups, err := ds.GroupBy("dataset", "program")
	require.NoError(t, err)
	var keys []string
	for _, g := range groups {
		keys = append(keys, g.KeyString())
	}
	if diff := cmp.Diff([]string{"random_memerna", "random_RNAstructure", "archiveii_memerna"}, keys); diff != "" {
		t.Errorf("group keys (-want +got):\n%s", diff)
	}
	names, _ = groups[0].Data.Strings("name")
	assert.Equal(t, []string{"a", "b"}, names)
	progs, _ := groups[0].Data.Strings("program")
	assert.Equal(t, []string{"memerna", "memerna"}, progs)

	_, err = ds.GroupBy("nope")
	assert.Error(t, err)

	uniq, err := ds.Unique("program")
	require.NoError(t, err)
	assert.Equal(t, []string{"RNAstructure", "memerna"}, uniq)
}

func TestSortAndDerive(t *testing.T) {
	ds := readFoldPerf(t)
	sorted := ds.SortBy("length", "name")
	names, _ := sorted.Strings("name")
	assert.Equal(t, []string{"a", "c", "d", "b"}, names)

	per := ds.WithFloat(vars.Var{ID: "sec_per_nuc", Name: "s/nuc"}, func(r Row) float64 {
		s, _ := r.Float("real_sec")
		n, _ := r.Float("length")
		return s / n
	})
	vals, err := per.Floats("sec_per_nuc")
	require.NoError(t, err)
	assert.InDelta(t, 0.075, vals[1], 1e-12)
	v, ok := per.Vars().Lookup("sec_per_nuc")
	require.True(t, ok)
	assert.True(t, v.Derived)
	assert.False(t, ds.Has("sec_per_nuc"))
}

func TestAggregate(t *testing.T) {
	ds := readFoldPerf(t).FilterEq("program", "memerna")
	agg, err := ds.Aggregate("length", "real_sec")
	require.NoError(t, err)

	xs, _ := agg.Floats("length")
	mean, _ := agg.Floats("mean real_sec")
	lo, _ := agg.Floats("min real_sec")
	hi, _ := agg.Floats("max real_sec")
	assert.Equal(t, []float64{10, 20}, xs)
	assert.InDeltaSlice(t, []float64{0.75, 1.5}, mean, 1e-12)
	assert.Equal(t, []float64{0.5, 1.5}, lo)
	assert.Equal(t, []float64{1.0, 1.5}, hi)

	empty, err := ds.FilterEq("program", "none").Aggregate("length", "real_sec")
	require.NoError(t, err)
	assert.Equal(t, 0, empty.Len())
}
