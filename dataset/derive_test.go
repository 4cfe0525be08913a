// Copyright 2025 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package dataset

import (
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rnaperf/rnaperf/vars"
)

func suboptRecord(name string, failed bool, strucs, length, rss int, secs float64) string {
	f := "false"
	if failed {
		f = "true"
	}
	return `{"package_name": "memerna", "ctd": "d2", "lonely_pairs": "heuristic", "energy_model": "t04", ` +
		`"backend": "base", "sorted_strucs": true, "delta": "", "strucs": 5000, "time_secs": -1, ` +
		`"count_only": false, "algorithm": "persistent", "dataset": "random", "rna_name": "` + name + `", ` +
		`"rna_length": ` + itoa(length) + `, "run_idx": 0, "output_strucs": ` + itoa(strucs) + `, ` +
		`"maxrss_bytes": ` + itoa(rss) + `, "user_sec": 0.1, "sys_sec": 0.0, "real_sec": ` + ftoa(secs) + `, ` +
		`"failed": ` + f + `}`
}

func TestDeriveSuboptPerf(t *testing.T) {
	input := strings.Join([]string{
		suboptRecord("r1", false, 100, 50, 1000, 2),
		suboptRecord("r2", true, 0, 60, 1000, 2),
		suboptRecord("r3", false, 10, 20, 400, 0),
	}, "\n")
	ds, err := Read(strings.NewReader(input), "in", vars.SuboptPerf())
	require.NoError(t, err)
	ds, err = DeriveSuboptPerf(ds)
	require.NoError(t, err)

	require.Equal(t, 2, ds.Len())
	progs, _ := ds.Strings("program")
	assert.Equal(t, "memerna-d2-persistent-base", progs[0])
	sps, _ := ds.Floats("strucs_per_sec")
	assert.Equal(t, 50.0, sps[0])
	assert.True(t, math.IsNaN(sps[1]), "zero time gives NaN")
	bpb, _ := ds.Floats("bases_per_byte")
	assert.Equal(t, 5.0, bpb[0])
	assert.Equal(t, 0.5, bpb[1])
}

func TestDropDomainParents(t *testing.T) {
	vs := vars.MustSet(
		vars.Var{ID: "name", Kind: vars.String},
		vars.Var{ID: "dataset", Kind: vars.String},
	)
	read := func(input string) *Dataset {
		ds, err := Read(strings.NewReader(input), "in", vs)
		require.NoError(t, err)
		return ds
	}
	ds := read(`{"name": "rrna_x", "dataset": "a"}
{"name": "rrna_x_Domain1", "dataset": "a"}
{"name": "rrna_x_domain2", "dataset": "a"}
{"name": "trna_y", "dataset": "a"}
{"name": "rrna_x", "dataset": "b"}
`)
	out, err := DropDomainParents(ds)
	require.NoError(t, err)
	names, _ := out.Strings("name")
	assert.Equal(t, []string{"rrna_x_Domain1", "rrna_x_domain2", "trna_y", "rrna_x"}, names)

	_, err = DropDomainParents(read(`{"name": "q_domain1", "dataset": "a"}` + "\n"))
	assert.ErrorContains(t, err, `has no parent "q"`)
}
