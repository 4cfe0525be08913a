// Copyright 2025 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package dataset

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"os"

	"github.com/aclements/go-gg/table"

	"github.com/rnaperf/rnaperf/vars"
)

// A DecodeError reports a malformed record in an input file.
type DecodeError struct {
	FileName string
	Line     int
	Err      error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("%s:%d: %v", e.FileName, e.Line, e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// A Record is one decoded input record, keyed by variable ID. Values
// have the Go type matching the variable's Kind.
type Record map[string]any

// A Reader reads newline-delimited JSON records.
//
// Its API is modeled on bufio.Scanner. Only raw variables are read
// from each record; derived variables are left to the caller. Blank
// lines are skipped.
type Reader struct {
	s        *bufio.Scanner
	fileName string
	raw      []vars.Var
	line     int
	rec      Record
	err      error
}

// maxLine bounds the length of one record.
const maxLine = 16 << 20

// NewReader returns a Reader that decodes records of vs from r.
// fileName is used in error messages only.
func NewReader(r io.Reader, fileName string, vs vars.Set) *Reader {
	s := bufio.NewScanner(r)
	s.Buffer(make([]byte, 64<<10), maxLine)
	return &Reader{s: s, fileName: fileName, raw: vs.Raw()}
}

// Scan advances to the next record and reports whether one was read.
// When Scan returns false, Err reports the error, if any.
func (r *Reader) Scan() bool {
	if r.err != nil {
		return false
	}
	for r.s.Scan() {
		r.line++
		line := bytes.TrimSpace(r.s.Bytes())
		if len(line) == 0 {
			continue
		}
		rec, err := r.decode(line)
		if err != nil {
			r.err = &DecodeError{r.fileName, r.line, err}
			return false
		}
		r.rec = rec
		return true
	}
	r.err = r.s.Err()
	return false
}

// Record returns the record read by the last call to Scan.
func (r *Reader) Record() Record {
	return r.rec
}

// Err returns the first error encountered by Scan.
func (r *Reader) Err() error {
	return r.err
}

func (r *Reader) decode(line []byte) (Record, error) {
	dec := json.NewDecoder(bytes.NewReader(line))
	dec.UseNumber()
	var obj map[string]any
	if err := dec.Decode(&obj); err != nil {
		return nil, err
	}
	rec := make(Record, len(r.raw))
	for _, v := range r.raw {
		raw, ok := obj[v.ID]
		if !ok {
			return nil, fmt.Errorf("missing field %q", v.ID)
		}
		val, err := cast(raw, v.Kind)
		if err != nil {
			return nil, fmt.Errorf("field %q: %w", v.ID, err)
		}
		rec[v.ID] = val
	}
	return rec, nil
}

func cast(raw any, k vars.Kind) (any, error) {
	switch k {
	case vars.Float:
		switch x := raw.(type) {
		case json.Number:
			return x.Float64()
		case nil:
			return math.NaN(), nil
		case bool:
			if x {
				return 1.0, nil
			}
			return 0.0, nil
		}
	case vars.Int:
		switch x := raw.(type) {
		case json.Number:
			if i, err := x.Int64(); err == nil {
				return i, nil
			}
			f, err := x.Float64()
			if err != nil {
				return nil, err
			}
			if f != math.Trunc(f) || math.Abs(f) > 1<<53 {
				return nil, fmt.Errorf("%s is not an integer", x)
			}
			return int64(f), nil
		case bool:
			if x {
				return int64(1), nil
			}
			return int64(0), nil
		}
	case vars.String:
		switch x := raw.(type) {
		case string:
			return x, nil
		case json.Number:
			return x.String(), nil
		case bool:
			return fmt.Sprint(x), nil
		case nil:
			return "", nil
		}
	case vars.Bool:
		switch x := raw.(type) {
		case bool:
			return x, nil
		case json.Number:
			f, err := x.Float64()
			if err != nil {
				return nil, err
			}
			return f != 0, nil
		case string:
			switch x {
			case "true", "True":
				return true, nil
			case "false", "False", "":
				return false, nil
			}
		}
	}
	return nil, fmt.Errorf("cannot convert %v (%T) to %s", raw, raw, k)
}

// Read reads all records from r into a Dataset with one column per
// raw variable of vs.
func Read(r io.Reader, fileName string, vs vars.Set) (*Dataset, error) {
	rd := NewReader(r, fileName, vs)
	raw := vs.Raw()
	cols := make([]columnBuilder, len(raw))
	for i, v := range raw {
		cols[i] = newColumnBuilder(v.Kind)
	}
	for rd.Scan() {
		rec := rd.Record()
		for i, v := range raw {
			cols[i].append(rec[v.ID])
		}
	}
	if err := rd.Err(); err != nil {
		return nil, err
	}
	var b table.Builder
	for i, v := range raw {
		b.Add(v.ID, cols[i].slice())
	}
	return &Dataset{t: b.Done(), vars: rawSet(vs)}, nil
}

// rawSet returns vs without derived variables, which have no columns
// until the caller computes them.
func rawSet(vs vars.Set) vars.Set {
	return vars.MustSet(vs.Raw()...)
}

// Open reads the records in the named file. Files ending in ".gz",
// ".zst" or ".lz4" are decompressed. The path "-" means stdin.
func Open(path string, vs vars.Set) (*Dataset, error) {
	var f *os.File
	if path == "-" {
		f = os.Stdin
	} else {
		var err error
		f, err = os.Open(path)
		if err != nil {
			return nil, err
		}
		defer f.Close()
	}
	r, err := decompress(f, path)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	defer r.Close()
	return Read(r, path, vs)
}

type columnBuilder struct {
	floats  []float64
	ints    []int64
	strings []string
	bools   []bool
	kind    vars.Kind
}

func newColumnBuilder(k vars.Kind) columnBuilder {
	b := columnBuilder{kind: k}
	switch k {
	case vars.Float:
		b.floats = []float64{}
	case vars.Int:
		b.ints = []int64{}
	case vars.String:
		b.strings = []string{}
	case vars.Bool:
		b.bools = []bool{}
	}
	return b
}

func (b *columnBuilder) append(v any) {
	switch b.kind {
	case vars.Float:
		b.floats = append(b.floats, v.(float64))
	case vars.Int:
		b.ints = append(b.ints, v.(int64))
	case vars.String:
		b.strings = append(b.strings, v.(string))
	case vars.Bool:
		b.bools = append(b.bools, v.(bool))
	}
}

func (b *columnBuilder) slice() table.Slice {
	switch b.kind {
	case vars.Float:
		return b.floats
	case vars.Int:
		return b.ints
	case vars.String:
		return b.strings
	}
	return b.bools
}
