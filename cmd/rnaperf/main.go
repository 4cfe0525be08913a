// Copyright 2025 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// rnaperf analyzes RNA folding benchmark results.
//
// Inputs are newline-delimited JSON records, optionally compressed
// with gzip (.gz), zstd (.zst) or lz4 (.lz4). Each subcommand reads
// one kind of record:
//
//	rnaperf plot-fold-perf [-o dir] fold-perf.jsonl
//	rnaperf plot-fold-accuracy [-o dir] fold-accuracy.jsonl
//	rnaperf plot-subopt-perf [-o dir] subopt-perf.jsonl
//	rnaperf analyze-subopt-perf [--output text|json|yaml] subopt-perf.jsonl
//	rnaperf fit --input data.jsonl --x rna_length --y real_sec
//	rnaperf plot-ensemble [--temperature K] [-o dir] energies.txt
//	rnaperf compare-partition a.txt b.txt
//	rnaperf list-fits [--run id]
//
// Settings are read from the file named by --config, then from
// RNAPERF_* environment variables (for example RNAPERF_FIT_CRITERION),
// then from flags.
package main

import (
	"log"
	"os"
)

func main() {
	log.SetPrefix("rnaperf: ")
	log.SetFlags(0)

	if err := newRootCmd(os.Stdout, os.Stderr).Execute(); err != nil {
		log.Fatal(err)
	}
}
