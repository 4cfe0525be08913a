// Copyright 2025 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package vars describes the columns of experiment records.
//
// A Var names a column, gives it a display name and a declared kind,
// and optionally a formatter for axis labels. Each experiment exposes
// its columns as an ordered Set returned by an accessor function.
package vars

import (
	"fmt"
	"strings"

	"github.com/rnaperf/rnaperf/units"
)

// A Kind is the declared type of a column.
type Kind int

const (
	Float Kind = iota
	Int
	String
	Bool
)

func (k Kind) String() string {
	switch k {
	case Float:
		return "float"
	case Int:
		return "int"
	case String:
		return "string"
	case Bool:
		return "bool"
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Numeric reports whether values of kind k can be used as model data.
func (k Kind) Numeric() bool {
	return k == Float || k == Int
}

// A Var describes one column.
type Var struct {
	// ID is the column key in the source records.
	ID string
	// Name is the human-readable label, e.g. "Wall time (s)".
	Name string
	Kind Kind
	// Derived columns are computed from other columns after
	// ingestion and are never read from the source.
	Derived bool
	// Format renders values for axis ticks; nil means plain.
	Format units.Formatter
}

func (v Var) String() string {
	return v.ID
}

// FormatValue renders x using v's formatter.
func (v Var) FormatValue(x float64) string {
	if v.Format != nil {
		return v.Format(x)
	}
	return units.Plain(x)
}

// A Set is an ordered collection of Vars with unique IDs.
type Set struct {
	vars  []Var
	index map[string]int
}

// NewSet returns a Set of vs. It returns an error if an ID is empty
// or repeated.
func NewSet(vs ...Var) (Set, error) {
	s := Set{index: make(map[string]int, len(vs))}
	for _, v := range vs {
		if v.ID == "" {
			return Set{}, fmt.Errorf("variable %q has an empty ID", v.Name)
		}
		if _, ok := s.index[v.ID]; ok {
			return Set{}, fmt.Errorf("duplicate variable ID %q", v.ID)
		}
		s.index[v.ID] = len(s.vars)
		s.vars = append(s.vars, v)
	}
	return s, nil
}

// MustSet is like NewSet but panics on error. It is intended for
// static catalogs.
func MustSet(vs ...Var) Set {
	s, err := NewSet(vs...)
	if err != nil {
		panic(err)
	}
	return s
}

// All returns the Vars of s in order.
func (s Set) All() []Var {
	return append([]Var(nil), s.vars...)
}

// Len returns the number of Vars in s.
func (s Set) Len() int {
	return len(s.vars)
}

// Lookup returns the Var with the given ID.
func (s Set) Lookup(id string) (Var, bool) {
	i, ok := s.index[id]
	if !ok {
		return Var{}, false
	}
	return s.vars[i], true
}

// Must returns the Var with the given ID, panicking if there is none.
func (s Set) Must(id string) Var {
	v, ok := s.Lookup(id)
	if !ok {
		panic(fmt.Sprintf("unknown variable %q", id))
	}
	return v
}

// Raw returns the Vars that are read directly from source records.
func (s Set) Raw() []Var {
	var out []Var
	for _, v := range s.vars {
		if !v.Derived {
			out = append(out, v)
		}
	}
	return out
}

// With returns a new Set with vs appended. Vars whose ID is already
// present replace the existing entry in place.
func (s Set) With(vs ...Var) Set {
	all := s.All()
	for _, v := range vs {
		if i, ok := s.index[v.ID]; ok {
			all[i] = v
			continue
		}
		all = append(all, v)
	}
	return MustSet(all...)
}

// Resolve looks up a comma-separated list of IDs.
func (s Set) Resolve(ids string) ([]Var, error) {
	var out []Var
	for _, id := range strings.Split(ids, ",") {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		v, ok := s.Lookup(id)
		if !ok {
			return nil, fmt.Errorf("unknown variable %q", id)
		}
		out = append(out, v)
	}
	return out, nil
}
