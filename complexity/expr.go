// Copyright 2025 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package complexity

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
	"unicode/utf8"
)

// A Model is a compiled growth-rate expression. Its value at a point
// x is
//
//	b0 + a0*term0(x) + a1*term1(x) + ...
//
// where the terms may also refer to extra free parameters.
type Model struct {
	// Expr is the source expression.
	Expr string
	// Vars are the independent variable names, in the order their
	// columns are passed to Eval.
	Vars []string
	// Params are the coefficient names: the extra free parameters in
	// sorted order, then a0..a{T-1}, then b0. Parameter vectors
	// passed to Eval use this order.
	Params []string

	terms   sum
	termSrc []string
	nextra  int
}

// Compile compiles a model expression over the given independent
// variables. The expression "1" always compiles to the constant
// model with the single parameter b0; any other expression requires
// one or two variables.
func Compile(expr string, vars ...string) (*Model, error) {
	if strings.TrimSpace(expr) == "1" {
		return &Model{Expr: expr, Vars: append([]string(nil), vars...), Params: []string{"b0"}}, nil
	}
	if len(vars) < 1 || len(vars) > 2 {
		return nil, &ConfigError{fmt.Sprintf("models take 1 or 2 independent variables, got %d", len(vars))}
	}
	for i, v := range vars {
		if !isIdent(v) || v == "log" || isReserved(v) {
			return nil, &ConfigError{fmt.Sprintf("invalid variable name %q", v)}
		}
		for _, w := range vars[:i] {
			if v == w {
				return nil, &ConfigError{fmt.Sprintf("duplicate variable name %q", v)}
			}
		}
	}

	toks, err := lex(expr)
	if err != nil {
		return nil, err
	}
	p := parser{src: expr, toks: toks, vars: vars, extras: make(map[string]bool)}
	terms, srcs, err := p.expr()
	if err != nil {
		return nil, err
	}
	if t := p.peek(); t.kind != 0 {
		return nil, p.errorf(t.off, "unexpected %q", t.text)
	}

	var extras []string
	for name := range p.extras {
		extras = append(extras, name)
	}
	sort.Strings(extras)
	index := make(map[string]int, len(extras))
	for i, name := range extras {
		index[name] = i
	}
	terms.resolve(index)

	params := extras
	for i := range terms {
		params = append(params, fmt.Sprintf("a%d", i))
	}
	params = append(params, "b0")
	return &Model{
		Expr:    expr,
		Vars:    append([]string(nil), vars...),
		Params:  params,
		terms:   terms,
		termSrc: srcs,
		nextra:  len(extras),
	}, nil
}

// MustCompile is like Compile but panics on error.
func MustCompile(expr string, vars ...string) *Model {
	m, err := Compile(expr, vars...)
	if err != nil {
		panic(err)
	}
	return m
}

// IsConstant reports whether m is the constant model "1".
func (m *Model) IsConstant() bool {
	return m.terms == nil
}

// Formula returns m with its coefficients spelled out, such as
// "a0*n^2 + a1*m + b0".
func (m *Model) Formula() string {
	var buf strings.Builder
	for i, src := range m.termSrc {
		fmt.Fprintf(&buf, "a%d*%s + ", i, src)
	}
	buf.WriteString("b0")
	return buf.String()
}

func (m *Model) String() string {
	return m.Expr
}

// Eval evaluates m at each row of xs, which holds one column per
// independent variable. params must be in the order of m.Params. It
// returns an *EvalError if any value is not finite.
func (m *Model) Eval(xs [][]float64, params []float64) ([]float64, error) {
	if len(params) != len(m.Params) {
		return nil, fmt.Errorf("model %q takes %d parameters, got %d", m.Expr, len(m.Params), len(params))
	}
	n, err := m.rows(xs)
	if err != nil {
		return nil, err
	}
	out := make([]float64, n)
	if err := m.evalInto(out, xs, params); err != nil {
		return nil, err
	}
	return out, nil
}

// Call is like Eval but takes parameters by name. Every parameter of
// m must be given, and no others.
func (m *Model) Call(xs [][]float64, named map[string]float64) ([]float64, error) {
	params := make([]float64, len(m.Params))
	for i, name := range m.Params {
		v, ok := named[name]
		if !ok {
			return nil, fmt.Errorf("model %q: missing parameter %q", m.Expr, name)
		}
		params[i] = v
	}
	if len(named) != len(m.Params) {
		for name := range named {
			if m.paramIndex(name) < 0 {
				return nil, fmt.Errorf("model %q: unknown parameter %q", m.Expr, name)
			}
		}
	}
	return m.Eval(xs, params)
}

func (m *Model) paramIndex(name string) int {
	for i, p := range m.Params {
		if p == name {
			return i
		}
	}
	return -1
}

// rows returns the number of rows in xs. The constant model takes
// its length from the first column, if any.
func (m *Model) rows(xs [][]float64) (int, error) {
	if m.IsConstant() {
		if len(xs) == 0 {
			return 0, nil
		}
		return len(xs[0]), nil
	}
	if len(xs) != len(m.Vars) {
		return 0, fmt.Errorf("model %q takes %d independent variables, got %d", m.Expr, len(m.Vars), len(xs))
	}
	n := len(xs[0])
	for _, x := range xs[1:] {
		if len(x) != n {
			return 0, fmt.Errorf("model %q: independent variables have different lengths", m.Expr)
		}
	}
	return n, nil
}

func (m *Model) evalInto(dst []float64, xs [][]float64, params []float64) error {
	b0 := params[len(params)-1]
	coef := params[m.nextra : len(params)-1]
	x := make([]float64, len(xs))
	for r := range dst {
		v := b0
		if len(m.terms) > 0 {
			for k := range xs {
				x[k] = xs[k][r]
			}
			for j, t := range m.terms {
				v += coef[j] * t.eval(x, params)
			}
		}
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return &EvalError{m.Expr, r, v}
		}
		dst[r] = v
	}
	return nil
}

// The compiled form of an expression is a sum of products of
// factors. Each factor is an operand optionally raised to a power.

type sum []product

type product []factor

type factor struct {
	base operand
	exp  *factor
}

type operandKind uint8

const (
	opConst operandKind = iota
	opVar               // independent variable x[index]
	opParam             // extra free parameter params[index]
	opLog               // natural log of sub
	opGroup             // parenthesized sub
)

type operand struct {
	kind  operandKind
	index int
	value float64
	name  string
	sub   sum
}

func (s sum) eval(x, params []float64) float64 {
	v := 0.0
	for _, t := range s {
		v += t.eval(x, params)
	}
	return v
}

func (t product) eval(x, params []float64) float64 {
	v := 1.0
	for i := range t {
		v *= t[i].eval(x, params)
	}
	return v
}

func (f *factor) eval(x, params []float64) float64 {
	v := f.base.eval(x, params)
	if f.exp != nil {
		v = math.Pow(v, f.exp.eval(x, params))
	}
	return v
}

func (o *operand) eval(x, params []float64) float64 {
	switch o.kind {
	case opConst:
		return o.value
	case opVar:
		return x[o.index]
	case opParam:
		return params[o.index]
	case opLog:
		return math.Log(o.sub.eval(x, params))
	case opGroup:
		return o.sub.eval(x, params)
	}
	panic("bad operand kind")
}

func (s sum) resolve(index map[string]int) {
	for _, t := range s {
		for i := range t {
			t[i].resolve(index)
		}
	}
}

func (f *factor) resolve(index map[string]int) {
	switch f.base.kind {
	case opParam:
		f.base.index = index[f.base.name]
	case opLog, opGroup:
		f.base.sub.resolve(index)
	}
	if f.exp != nil {
		f.exp.resolve(index)
	}
}

// Lexical tokens. kind is '0' for numbers, 'a' for identifiers, an
// operator character, or 0 at the end of input.
type token struct {
	kind byte
	off  int
	text string
	num  float64
}

func lex(src string) ([]token, error) {
	var toks []token
	for i := 0; i < len(src); {
		c := src[i]
		switch {
		case c == ' ' || c == '\t' || c == '\n' || c == '\r':
			i++
		case strings.IndexByte("+*^()", c) >= 0:
			toks = append(toks, token{kind: c, off: i, text: src[i : i+1]})
			i++
		case isDigit(c) || c == '.':
			j := i
			for j < len(src) && (isDigit(src[j]) || src[j] == '.') {
				j++
			}
			v, err := strconv.ParseFloat(src[i:j], 64)
			if err != nil {
				return nil, &CompileError{src, i, "malformed number " + strconv.Quote(src[i:j])}
			}
			toks = append(toks, token{kind: '0', off: i, text: src[i:j], num: v})
			i = j
		case isIdentStart(c):
			j := i + 1
			for j < len(src) && isIdentChar(src[j]) {
				j++
			}
			toks = append(toks, token{kind: 'a', off: i, text: src[i:j]})
			i = j
		default:
			r, _ := utf8.DecodeRuneInString(src[i:])
			return nil, &CompileError{src, i, fmt.Sprintf("unexpected %q", r)}
		}
	}
	return append(toks, token{off: len(src)}), nil
}

type parser struct {
	src    string
	toks   []token
	pos    int
	end    int // byte offset just past the last consumed token
	vars   []string
	extras map[string]bool
}

func (p *parser) peek() token {
	return p.toks[p.pos]
}

func (p *parser) next() token {
	t := p.toks[p.pos]
	if t.kind != 0 {
		p.pos++
		p.end = t.off + len(t.text)
	}
	return t
}

func (p *parser) errorf(off int, format string, args ...any) error {
	return &CompileError{p.src, off, fmt.Sprintf(format, args...)}
}

// expr parses a sum. It also returns the source text of each term
// with spaces removed.
func (p *parser) expr() (sum, []string, error) {
	var s sum
	var srcs []string
	for {
		start := p.peek().off
		t, err := p.term()
		if err != nil {
			return nil, nil, err
		}
		s = append(s, t)
		srcs = append(srcs, strings.Join(strings.Fields(p.src[start:p.end]), ""))
		if p.peek().kind != '+' {
			return s, srcs, nil
		}
		p.next()
	}
}

func (p *parser) term() (product, error) {
	var t product
	for {
		f, err := p.factor()
		if err != nil {
			return nil, err
		}
		t = append(t, f)
		if p.peek().kind != '*' {
			return t, nil
		}
		p.next()
	}
}

func (p *parser) factor() (factor, error) {
	base, err := p.atom()
	if err != nil {
		return factor{}, err
	}
	f := factor{base: base}
	if p.peek().kind == '^' {
		p.next()
		exp, err := p.factor()
		if err != nil {
			return factor{}, err
		}
		f.exp = &exp
	}
	return f, nil
}

func (p *parser) atom() (operand, error) {
	t := p.next()
	switch t.kind {
	case '0':
		return operand{kind: opConst, value: t.num}, nil
	case '(':
		s, err := p.group(t)
		return operand{kind: opGroup, sub: s}, err
	case 'a':
		if t.text == "log" {
			open := p.next()
			if open.kind != '(' {
				return operand{}, p.errorf(open.off, "expected \"(\" after log")
			}
			s, err := p.group(open)
			return operand{kind: opLog, sub: s}, err
		}
		for i, v := range p.vars {
			if t.text == v {
				return operand{kind: opVar, index: i}, nil
			}
		}
		if isReserved(t.text) {
			return operand{}, p.errorf(t.off, "parameter name %q is reserved", t.text)
		}
		p.extras[t.text] = true
		return operand{kind: opParam, name: t.text}, nil
	case 0:
		return operand{}, p.errorf(t.off, "unexpected end of expression")
	}
	return operand{}, p.errorf(t.off, "unexpected %q", t.text)
}

// group parses the rest of a parenthesized sum after open.
func (p *parser) group(open token) (sum, error) {
	s, _, err := p.expr()
	if err != nil {
		return nil, err
	}
	if p.peek().kind != ')' {
		return nil, p.errorf(open.off, "missing \")\"")
	}
	p.next()
	return s, nil
}

func isDigit(c byte) bool {
	return '0' <= c && c <= '9'
}

func isIdentStart(c byte) bool {
	return c == '_' || 'a' <= c && c <= 'z' || 'A' <= c && c <= 'Z'
}

func isIdentChar(c byte) bool {
	return isIdentStart(c) || isDigit(c)
}

func isIdent(s string) bool {
	if s == "" || !isIdentStart(s[0]) {
		return false
	}
	for i := 1; i < len(s); i++ {
		if !isIdentChar(s[i]) {
			return false
		}
	}
	return true
}

// isReserved reports whether name collides with an automatically
// named coefficient.
func isReserved(name string) bool {
	if name == "b0" {
		return true
	}
	if len(name) < 2 || name[0] != 'a' {
		return false
	}
	for i := 1; i < len(name); i++ {
		if !isDigit(name[i]) {
			return false
		}
	}
	return true
}
