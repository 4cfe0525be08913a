// Copyright 2025 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package vars

import "github.com/rnaperf/rnaperf/units"

func bytesVar(id, name string) Var {
	return Var{ID: id, Name: name, Kind: Int, Format: units.HumanSize}
}

// FoldPerf returns the columns of fold performance records.
func FoldPerf() Set {
	return MustSet(
		Var{ID: "name", Name: "Name", Kind: String},
		Var{ID: "dataset", Name: "Dataset", Kind: String},
		Var{ID: "program", Name: "Program", Kind: String},
		Var{ID: "length", Name: "Length (nuc)", Kind: Int},
		Var{ID: "real_sec", Name: "Wall time (s)", Kind: Float},
		Var{ID: "user_sec", Name: "User time (s)", Kind: Float},
		Var{ID: "sys_sec", Name: "Sys time (s)", Kind: Float},
		bytesVar("maxrss_bytes", "Maximum RSS (B)"),
	)
}

// FoldAccuracy returns the columns of fold accuracy records.
func FoldAccuracy() Set {
	return MustSet(
		Var{ID: "name", Name: "Name", Kind: String},
		Var{ID: "dataset", Name: "Dataset", Kind: String},
		Var{ID: "family", Name: "Family", Kind: String},
		Var{ID: "program", Name: "Program", Kind: String},
		Var{ID: "sensitivity", Name: "Sensitivity", Kind: Float},
		Var{ID: "ppv", Name: "Positive predictive value", Kind: Float},
		Var{ID: "f1", Name: "F1 score", Kind: Float},
		Var{ID: "length", Name: "Length (nuc)", Kind: Int},
		Var{ID: "real_sec", Name: "Wall time (s)", Kind: Float},
		bytesVar("maxrss_bytes", "Maximum RSS (B)"),
	)
}

// SuboptPerf returns the columns of suboptimal folding performance
// records, including the derived throughput columns.
func SuboptPerf() Set {
	return MustSet(
		Var{ID: "package_name", Name: "Package Name", Kind: String},
		Var{ID: "ctd", Name: "CTD", Kind: String},
		Var{ID: "lonely_pairs", Name: "Lonely Pairs", Kind: String},
		Var{ID: "energy_model", Name: "Energy Model", Kind: String},
		Var{ID: "backend", Name: "Backend", Kind: String},
		Var{ID: "sorted_strucs", Name: "Sorted Structures", Kind: Bool},
		Var{ID: "delta", Name: "Delta", Kind: String},
		Var{ID: "strucs", Name: "Structures", Kind: Int},
		Var{ID: "time_secs", Name: "Time (s)", Kind: Float},
		Var{ID: "count_only", Name: "Count Only", Kind: Bool},
		Var{ID: "algorithm", Name: "Algorithm", Kind: String},
		Var{ID: "dataset", Name: "Dataset", Kind: String},
		Var{ID: "rna_name", Name: "RNA Name", Kind: String},
		Var{ID: "rna_length", Name: "Length (nuc)", Kind: Int},
		Var{ID: "run_idx", Name: "Run Index", Kind: Int},
		Var{ID: "output_strucs", Name: "Output Structures", Kind: Int},
		bytesVar("maxrss_bytes", "Maximum RSS (B)"),
		Var{ID: "user_sec", Name: "User time (s)", Kind: Float},
		Var{ID: "sys_sec", Name: "Sys time (s)", Kind: Float},
		Var{ID: "real_sec", Name: "Wall time (s)", Kind: Float},
		Var{ID: "failed", Name: "Failed", Kind: Bool},

		Var{ID: "program", Name: "Program", Kind: String, Derived: true},
		Var{ID: "strucs_per_sec", Name: "Structures per second", Kind: Float, Derived: true},
		Var{ID: "bases_per_byte", Name: "Bases per byte", Kind: Float, Derived: true},
	)
}

// SuboptPerfGroupKeys returns the columns that identify one subopt
// experimental configuration.
func SuboptPerfGroupKeys() []string {
	return []string{
		"count_only",
		"ctd",
		"dataset",
		"delta",
		"lonely_pairs",
		"sorted_strucs",
		"strucs",
		"time_secs",
	}
}
