// Copyright 2025 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package query

import "strconv"

type parser struct{}

func (p *parser) error(toks tokenizer, msg string) tokenizer {
	_, toks = toks.error(msg)
	return toks
}

func (p *parser) expr(toks tokenizer) (node, tokenizer) {
	var terms []node
	for {
		var q node
		q, toks = p.andExpr(toks)
		terms = append(terms, q)
		op, toks2 := toks.keyOrOp()
		if op.Kind != 'O' {
			break
		}
		toks = toks2
	}
	if len(terms) == 1 {
		return terms[0], toks
	}
	return &opNode{opOr, terms}, toks
}

func (p *parser) andExpr(toks tokenizer) (node, tokenizer) {
	var q node
	q, toks = p.match(toks)
	terms := []node{q}
loop:
	for {
		op, toks2 := toks.keyOrOp()
		switch op.Kind {
		case 'A':
			toks = toks2
		case '(', '-', '*', 'w', 'q':
			q, toks = p.match(toks)
			terms = append(terms, q)
		case ')', 'O', 0:
			break loop
		default:
			return nil, p.error(toks, "unexpected "+strconv.Quote(op.Tok))
		}
	}
	if len(terms) == 1 {
		return terms[0], toks
	}
	return &opNode{opAnd, terms}, toks
}

func (p *parser) match(start tokenizer) (node, tokenizer) {
	tok, rest := start.keyOrOp()
	switch tok.Kind {
	case '(':
		q, rest := p.expr(rest)
		op, toks2 := rest.keyOrOp()
		if op.Kind != ')' {
			return nil, p.error(rest, "missing \")\"")
		}
		return q, toks2
	case '-':
		q, rest := p.match(rest)
		return &opNode{opNot, []node{q}}, rest
	case '*':
		return &opNode{opAnd, nil}, rest
	case 'w', 'q':
		key, off := tok.Tok, tok.Off
		op, toks2 := rest.keyOrOp()
		switch op.Kind {
		case '<', '>', 'l', 'g':
			return p.compare(key, op.Kind, toks2)
		case ':':
		default:
			return nil, p.error(start, "expected key:value")
		}
		rest = toks2
		val, rest := rest.valueOrOp()
		switch val.Kind {
		default:
			return nil, p.error(start, "expected key:value")
		case 'w', 'q', 'r':
			return mkMatch(off, key, val), rest
		case '(':
			var terms []node
			for {
				val, toks2 := rest.valueOrOp()
				switch val.Kind {
				default:
					return nil, p.error(rest, "expected value")
				case 'w', 'q', 'r':
					terms = append(terms, mkMatch(off, key, val))
				}
				rest = toks2

				val, toks2 = rest.valueOrOp()
				switch val.Kind {
				default:
					return nil, p.error(rest, "value list must be separated by OR")
				case ')':
					return &opNode{opOr, terms}, toks2
				case 'O':
				}
				rest = toks2
			}
		}
	}
	return nil, p.error(start, "expected key:value or subexpression")
}

func (p *parser) compare(key string, op byte, rest tokenizer) (node, tokenizer) {
	val, toks2 := rest.number()
	if val.Kind != 'w' && val.Kind != 'q' {
		return nil, p.error(rest, "expected number")
	}
	f, err := strconv.ParseFloat(val.Tok, 64)
	if err != nil {
		return nil, p.error(rest, "expected number")
	}
	return &cmpNode{key, op, f}, toks2
}

func mkMatch(off int, key string, val tok) node {
	if val.Kind == 'r' {
		return &matchNode{key: key, re: val.Regexp, keyOff: off}
	}
	return &matchNode{key: key, lit: val.Tok, keyOff: off}
}
