// Copyright 2025 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package dataset implements an immutable table of experiment records.
//
// A Dataset is built once from newline-delimited JSON records (see
// Read and Open) and then transformed by pure operations that return
// new Datasets: filtering, grouping, sorting, adding derived columns
// and aggregating. Columns are typed according to their vars.Kind:
// Float columns hold float64, Int columns int64, String columns
// string and Bool columns bool.
package dataset

import (
	"fmt"
	"math"
	"sort"
	"strconv"

	"github.com/aclements/go-gg/generic/slice"
	"github.com/aclements/go-gg/ggstat"
	"github.com/aclements/go-gg/table"

	"github.com/rnaperf/rnaperf/dataset/query"
	"github.com/rnaperf/rnaperf/vars"
)

// A Dataset is an ordered collection of rows sharing one set of
// columns. Datasets are never modified after construction.
type Dataset struct {
	t    *table.Table
	vars vars.Set
}

// A ColumnError reports a missing column or a column whose type does
// not suit the requested operation.
type ColumnError struct {
	Column string
	Msg    string
}

func (e *ColumnError) Error() string {
	return fmt.Sprintf("column %q: %s", e.Column, e.Msg)
}

// New returns a Dataset over t. Every column of t must be described
// by vs.
func New(t *table.Table, vs vars.Set) (*Dataset, error) {
	for _, col := range t.Columns() {
		if _, ok := vs.Lookup(col); !ok {
			return nil, &ColumnError{col, "no variable describes this column"}
		}
	}
	return &Dataset{t: t, vars: vs}, nil
}

// Table returns the underlying table. Callers must not modify it.
func (d *Dataset) Table() *table.Table {
	return d.t
}

// Vars returns the variables describing d's columns.
func (d *Dataset) Vars() vars.Set {
	return d.vars
}

// Len returns the number of rows in d.
func (d *Dataset) Len() int {
	return d.t.Len()
}

// Columns returns the column IDs of d in order.
func (d *Dataset) Columns() []string {
	return append([]string(nil), d.t.Columns()...)
}

// Has reports whether d has a column with the given ID.
func (d *Dataset) Has(id string) bool {
	return d.t.Column(id) != nil
}

// Row returns the i'th row of d.
func (d *Dataset) Row(i int) Row {
	return Row{d.t, i}
}

// Floats returns column id converted to float64. It is an error if
// the column does not exist or is not numeric.
func (d *Dataset) Floats(id string) ([]float64, error) {
	switch col := d.t.Column(id).(type) {
	case nil:
		return nil, &ColumnError{id, "no such column"}
	case []float64:
		return append([]float64(nil), col...), nil
	case []int64:
		out := make([]float64, len(col))
		for i, v := range col {
			out[i] = float64(v)
		}
		return out, nil
	default:
		return nil, &ColumnError{id, fmt.Sprintf("cannot use %T as numbers", col)}
	}
}

// Strings returns column id with every value formatted as a string.
func (d *Dataset) Strings(id string) ([]string, error) {
	col := d.t.Column(id)
	if col == nil {
		return nil, &ColumnError{id, "no such column"}
	}
	out := make([]string, d.t.Len())
	for i := range out {
		out[i] = formatValue(col, i)
	}
	return out, nil
}

// Unique returns the distinct values of column id, formatted as
// strings, in sorted order.
func (d *Dataset) Unique(id string) ([]string, error) {
	ss, err := d.Strings(id)
	if err != nil {
		return nil, err
	}
	seen := make(map[string]bool)
	var out []string
	for _, s := range ss {
		if !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	sort.Strings(out)
	return out, nil
}

// UniqueFloats returns the distinct values of numeric column id in
// increasing order.
func (d *Dataset) UniqueFloats(id string) ([]float64, error) {
	xs, err := d.Floats(id)
	if err != nil {
		return nil, err
	}
	seen := make(map[float64]bool)
	var out []float64
	for _, x := range xs {
		if !seen[x] {
			seen[x] = true
			out = append(out, x)
		}
	}
	sort.Float64s(out)
	return out, nil
}

// Filter returns the rows of d for which pred returns true.
func (d *Dataset) Filter(pred func(Row) bool) *Dataset {
	match := []int{}
	for i := 0; i < d.t.Len(); i++ {
		if pred(Row{d.t, i}) {
			match = append(match, i)
		}
	}
	return d.selectRows(match)
}

// FilterEq returns the rows of d whose column id formats as val.
func (d *Dataset) FilterEq(id, val string) *Dataset {
	return d.Filter(func(r Row) bool {
		v, ok := r.Value(id)
		return ok && v == val
	})
}

// Exclude returns the rows of d whose column id is not any of vals.
func (d *Dataset) Exclude(id string, vals ...string) *Dataset {
	drop := make(map[string]bool, len(vals))
	for _, v := range vals {
		drop[v] = true
	}
	return d.Filter(func(r Row) bool {
		v, _ := r.Value(id)
		return !drop[v]
	})
}

// Where returns the rows of d matched by q.
func (d *Dataset) Where(q *query.Query) *Dataset {
	return d.Filter(func(r Row) bool { return q.Match(r) })
}

func (d *Dataset) selectRows(rows []int) *Dataset {
	if len(rows) == d.t.Len() {
		return d
	}
	var b table.Builder
	for _, col := range d.t.Columns() {
		b.Add(col, slice.Select(d.t.Column(col), rows))
	}
	return &Dataset{t: b.Done(), vars: d.vars}
}

// A Group is the subset of a Dataset sharing one value of each
// grouping column.
type Group struct {
	// Key holds the group's value of each grouping column, in the
	// order the columns were given to GroupBy.
	Key  []any
	Data *Dataset
}

// KeyString formats the group key as "v1_v2_...".
func (g Group) KeyString() string {
	s := ""
	for i, k := range g.Key {
		if i > 0 {
			s += "_"
		}
		s += fmt.Sprint(k)
	}
	return s
}

// GroupBy partitions d by the distinct values of the named columns.
// Groups appear in order of first appearance.
func (d *Dataset) GroupBy(ids ...string) ([]Group, error) {
	for _, id := range ids {
		if !d.Has(id) {
			return nil, &ColumnError{id, "no such column"}
		}
	}
	if len(ids) == 0 {
		return []Group{{Data: d}}, nil
	}
	g := table.GroupBy(d.t, ids...)
	var out []Group
	for _, gid := range g.Tables() {
		key := make([]any, len(ids))
		p := gid
		for i := len(ids) - 1; i >= 0; i-- {
			key[i] = p.Label()
			p = p.Parent()
		}
		out = append(out, Group{Key: key, Data: &Dataset{t: g.Table(gid), vars: d.vars}})
	}
	return out, nil
}

// SortBy returns d sorted by the named columns, which must hold
// numbers or strings.
func (d *Dataset) SortBy(ids ...string) *Dataset {
	return &Dataset{t: table.Flatten(table.SortBy(d.t, ids...)), vars: d.vars}
}

// WithFloat returns d with a Float column v computed by fn for each
// row. v replaces any existing column with the same ID.
func (d *Dataset) WithFloat(v vars.Var, fn func(Row) float64) *Dataset {
	v.Kind, v.Derived = vars.Float, true
	col := make([]float64, d.t.Len())
	for i := range col {
		col[i] = fn(Row{d.t, i})
	}
	return d.with(v, col)
}

// WithString returns d with a String column v computed by fn for
// each row.
func (d *Dataset) WithString(v vars.Var, fn func(Row) string) *Dataset {
	v.Kind, v.Derived = vars.String, true
	col := make([]string, d.t.Len())
	for i := range col {
		col[i] = fn(Row{d.t, i})
	}
	return d.with(v, col)
}

func (d *Dataset) with(v vars.Var, col table.Slice) *Dataset {
	t := table.NewBuilder(d.t).Add(v.ID, col).Done()
	return &Dataset{t: t, vars: d.vars.With(v)}
}

// Aggregate groups d by column by and summarizes each numeric column
// in ys. The result has column by plus "mean y", "min y" and "max y"
// for each y, sorted by by.
func (d *Dataset) Aggregate(by string, ys ...string) (*Dataset, error) {
	var b table.Builder
	xcol := d.t.Column(by)
	if xcol == nil {
		return nil, &ColumnError{by, "no such column"}
	}
	b.Add(by, xcol)
	xv := d.vars.Must(by)
	vs := []vars.Var{xv}
	for _, y := range ys {
		fs, err := d.Floats(y)
		if err != nil {
			return nil, err
		}
		b.Add(y, fs)
		yv := d.vars.Must(y)
		for _, prefix := range []string{"mean ", "min ", "max "} {
			vs = append(vs, vars.Var{ID: prefix + y, Name: yv.Name, Kind: vars.Float, Derived: true, Format: yv.Format})
		}
	}
	t := b.Done()
	if t.Len() == 0 {
		out := new(table.Builder).Add(by, slice.Select(xcol, []int{}))
		for _, v := range vs[1:] {
			out.Add(v.ID, []float64{})
		}
		return &Dataset{t: out.Done(), vars: vars.MustSet(vs...)}, nil
	}
	agg := ggstat.Agg(by)(ggstat.AggMean(ys...), ggstat.AggMin(ys...), ggstat.AggMax(ys...)).F(t)
	at := table.Flatten(table.SortBy(agg, by))

	var ob table.Builder
	ob.Add(by, at.MustColumn(by))
	for _, v := range vs[1:] {
		ob.Add(v.ID, at.MustColumn(v.ID))
	}
	return &Dataset{t: ob.Done(), vars: vars.MustSet(vs...)}, nil
}

// A Row is a view of one row of a Dataset.
type Row struct {
	t *table.Table
	i int
}

// Get returns the value of column id, or nil if there is no such
// column.
func (r Row) Get(id string) any {
	col := r.t.Column(id)
	if col == nil {
		return nil
	}
	switch c := col.(type) {
	case []float64:
		return c[r.i]
	case []int64:
		return c[r.i]
	case []string:
		return c[r.i]
	case []bool:
		return c[r.i]
	}
	return nil
}

// Value returns the value of column id formatted as a string.
func (r Row) Value(id string) (string, bool) {
	col := r.t.Column(id)
	if col == nil {
		return "", false
	}
	return formatValue(col, r.i), true
}

// Float returns the value of numeric column id.
func (r Row) Float(id string) (float64, bool) {
	switch c := r.t.Column(id).(type) {
	case []float64:
		return c[r.i], true
	case []int64:
		return float64(c[r.i]), true
	}
	return math.NaN(), false
}

// Bool returns the value of Bool column id.
func (r Row) Bool(id string) (bool, bool) {
	c, ok := r.t.Column(id).([]bool)
	if !ok {
		return false, false
	}
	return c[r.i], true
}

func formatValue(col table.Slice, i int) string {
	switch c := col.(type) {
	case []float64:
		return strconv.FormatFloat(c[i], 'g', -1, 64)
	case []int64:
		return strconv.FormatInt(c[i], 10)
	case []string:
		return c[i]
	case []bool:
		return strconv.FormatBool(c[i])
	}
	return ""
}
