// Copyright 2025 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package query implements a boolean row filter language.
//
// A query is a boolean combination of matches against record fields:
//
//	key:value        field equals value
//	key:"a value"    quoted value
//	key:/regexp/     field matches an unanchored regexp
//	key:(a OR b)     any of several values
//	key>n  key<n     numeric comparisons, also >= and <=
//	*                matches everything
//	-q               negation
//	q1 q2, q1 AND q2 conjunction
//	q1 OR q2         disjunction
//
// AND binds tighter than OR. Parentheses group subexpressions.
package query

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// A Record provides the field values a Query is matched against.
// Value returns the field formatted as a string and whether the field
// exists.
type Record interface {
	Value(key string) (string, bool)
}

// A Query is a parsed filter expression.
type Query struct {
	src  string
	root node
}

// Parse parses a query. An empty query matches everything.
func Parse(q string) (*Query, error) {
	if strings.TrimSpace(q) == "" {
		return &Query{q, &opNode{opAnd, nil}}, nil
	}
	toks := newTokenizer(q)
	var p parser
	root, toks := p.expr(toks)
	toks.end()
	if toks.errt.err != nil {
		return nil, toks.errt.err
	}
	return &Query{q, root}, nil
}

// MustParse is like Parse but panics on error.
func MustParse(q string) *Query {
	x, err := Parse(q)
	if err != nil {
		panic(err)
	}
	return x
}

// Match reports whether r satisfies q.
func (q *Query) Match(r Record) bool {
	return q.root.match(r)
}

// String returns q in canonical form.
func (q *Query) String() string {
	return q.root.String()
}

type node interface {
	match(r Record) bool
	String() string
}

type op int

const (
	opAnd op = 1 + iota
	opOr
	opNot
)

// opNode is a boolean operator. opNot has exactly one child.
type opNode struct {
	op    op
	exprs []node
}

func (n *opNode) match(r Record) bool {
	switch n.op {
	case opNot:
		return !n.exprs[0].match(r)
	case opAnd:
		for _, e := range n.exprs {
			if !e.match(r) {
				return false
			}
		}
		return true
	case opOr:
		for _, e := range n.exprs {
			if e.match(r) {
				return true
			}
		}
		return false
	}
	panic(fmt.Sprintf("bad op %d", n.op))
}

func (n *opNode) String() string {
	var sep string
	switch n.op {
	case opNot:
		return "-" + n.exprs[0].String()
	case opAnd:
		if len(n.exprs) == 0 {
			return "*"
		}
		sep = " AND "
	case opOr:
		if len(n.exprs) == 0 {
			return "-*"
		}
		sep = " OR "
	}
	var buf strings.Builder
	buf.WriteByte('(')
	for i, e := range n.exprs {
		if i > 0 {
			buf.WriteString(sep)
		}
		buf.WriteString(e.String())
	}
	buf.WriteByte(')')
	return buf.String()
}

// matchNode tests one field against a literal or regexp. A missing
// field has the empty value.
type matchNode struct {
	key    string
	re     *regexp.Regexp
	lit    string
	keyOff int
}

func (n *matchNode) match(r Record) bool {
	v, _ := r.Value(n.key)
	if n.re != nil {
		return n.re.MatchString(v)
	}
	return v == n.lit
}

func (n *matchNode) String() string {
	if n.re != nil {
		return quoteWord(n.key) + ":/" + n.re.String() + "/"
	}
	return quoteWord(n.key) + ":" + quoteWord(n.lit)
}

// cmpNode compares a numeric field with a constant. Missing and
// non-numeric fields never match.
type cmpNode struct {
	key string
	op  byte // '<', '>', 'l' (<=), 'g' (>=)
	val float64
}

func (n *cmpNode) match(r Record) bool {
	s, ok := r.Value(n.key)
	if !ok {
		return false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return false
	}
	switch n.op {
	case '<':
		return v < n.val
	case '>':
		return v > n.val
	case 'l':
		return v <= n.val
	case 'g':
		return v >= n.val
	}
	return false
}

func (n *cmpNode) String() string {
	op := map[byte]string{'<': "<", '>': ">", 'l': "<=", 'g': ">="}[n.op]
	return quoteWord(n.key) + op + strconv.FormatFloat(n.val, 'g', -1, 64)
}
