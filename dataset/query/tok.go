// Copyright 2025 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package query

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"
)

// A SyntaxError is an error produced by parsing a malformed query.
type SyntaxError struct {
	Query string // The original query string
	Off   int    // Byte offset of the error in Query
	Msg   string // Error message
}

func (e *SyntaxError) Error() string {
	// Translate byte offset to a rune offset.
	pos := 0
	for i, r := range e.Query {
		if i >= e.Off {
			break
		}
		if unicode.IsGraphic(r) {
			pos++
		}
	}
	return fmt.Sprintf("syntax error: %s\n\t%s\n\t%*s^", e.Msg, e.Query, pos, "")
}

type errorTracker struct {
	qOrig string
	err   *SyntaxError
}

func (t *errorTracker) error(q string, msg string) {
	if t.err == nil {
		t.err = &SyntaxError{t.qOrig, len(t.qOrig) - len(q), msg}
	}
}

// Token kinds. Words are 'w' (bare) or 'q' (quoted); 'r' is a regexp;
// 'A' and 'O' are the AND and OR keywords; '<', '>', 'l' (<=) and
// 'g' (>=) are comparisons; other operators are their own character.
// 0 marks the end of the query.
type tok struct {
	Kind   byte
	Off    int
	Tok    string
	Regexp *regexp.Regexp
}

type tokenizer struct {
	q    string
	errt *errorTracker
}

func newTokenizer(q string) tokenizer {
	return tokenizer{q, &errorTracker{q, nil}}
}

func isOp(ch rune) bool {
	switch ch {
	case '(', ')', ':', '<', '>':
		return true
	}
	return false
}

// "-" and "*" are operators only at the start of a word.
func isStartOp(ch rune) bool {
	return isOp(ch) || ch == '-' || ch == '*'
}

func spaceLen(q string) int {
	r, size := utf8.DecodeRuneInString(q)
	if unicode.IsSpace(r) {
		return size
	}
	return 0
}

// keyOrOp returns the next key or operator token.
func (t *tokenizer) keyOrOp() (tok, tokenizer) {
	return t.next(true, false)
}

// valueOrOp returns the next value or operator token. Values may be
// regexps.
func (t *tokenizer) valueOrOp() (tok, tokenizer) {
	return t.next(true, true)
}

// number returns the next bare or quoted word, allowing a leading
// sign.
func (t *tokenizer) number() (tok, tokenizer) {
	return t.next(false, false)
}

// end reports an error if t has not reached the end of the query.
func (t *tokenizer) end() tokenizer {
	if tok, _ := t.keyOrOp(); tok.Kind != 0 {
		_, t2 := t.error("unexpected " + strconv.Quote(tok.Tok))
		return t2
	}
	return *t
}

func (t *tokenizer) next(startOps, allowRegexp bool) (tok, tokenizer) {
	for len(t.q) > 0 {
		c := t.q[0]
		switch {
		case c == '<' || c == '>':
			if len(t.q) > 1 && t.q[1] == '=' {
				kind := byte('l')
				if c == '>' {
					kind = 'g'
				}
				return t.tok(kind, t.q[:2], t.q[2:])
			}
			return t.tok(c, t.q[:1], t.q[1:])
		case isOp(rune(c)) || (startOps && isStartOp(rune(c))):
			return t.tok(c, t.q[:1], t.q[1:])
		case spaceLen(t.q) > 0:
			t.q = t.q[spaceLen(t.q):]
		case allowRegexp && c == '/':
			return t.regexp()
		case c == '"':
			return t.quotedWord()
		default:
			return t.bareWord()
		}
	}
	return t.tok(0, "", "")
}

func (t *tokenizer) tok(kind byte, token string, rest string) (tok, tokenizer) {
	off := len(t.errt.qOrig) - len(t.q)
	return tok{kind, off, token, nil}, tokenizer{rest, t.errt}
}

func (t *tokenizer) error(msg string) (tok, tokenizer) {
	t.errt.error(t.q, msg)
	return t.tok(0, "", "")
}

func (t *tokenizer) quotedWord() (tok, tokenizer) {
	pos := 1
	for pos < len(t.q) && (t.q[pos] != '"' || t.q[pos-1] == '\\') {
		pos++
	}
	if pos == len(t.q) {
		return t.error("missing end quote")
	}
	word, err := strconv.Unquote(t.q[:pos+1])
	if err != nil {
		return t.error("bad escape sequence")
	}
	return t.tok('q', word, t.q[pos+1:])
}

func (t *tokenizer) bareWord() (tok, tokenizer) {
	end := len(t.q)
	for i, r := range t.q {
		if unicode.IsSpace(r) || isOp(r) {
			end = i
			break
		}
	}
	word := t.q[:end]
	switch word {
	case "AND":
		return t.tok('A', word, t.q[end:])
	case "OR":
		return t.tok('O', word, t.q[end:])
	}
	return t.tok('w', word, t.q[end:])
}

// quoteWord returns a string that tokenizes as the word s.
func quoteWord(s string) string {
	if len(s) == 0 {
		return `""`
	}
	for i, r := range s {
		if r == '"' || isOp(r) || unicode.IsSpace(r) || (i == 0 && (r == '-' || r == '*' || r == '/')) {
			return strconv.Quote(s)
		}
	}
	if s == "AND" || s == "OR" {
		return strconv.Quote(s)
	}
	return s
}

func (t *tokenizer) regexp() (tok, tokenizer) {
	expr, rest, err := regexpParseUntil(t.q[1:], "/")
	if err == errNoDelim {
		return t.error("missing close \"/\"")
	} else if err != nil {
		return t.error(err.Error())
	}

	r, err := regexp.Compile(expr)
	if err != nil {
		return t.error(err.Error())
	}

	// A "/" inside the regexp is ambiguous unless the closing "/"
	// is followed by a space or operator.
	q2 := rest[1:]
	if !(q2 == "" || unicode.IsSpace(rune(q2[0])) || isStartOp(rune(q2[0]))) {
		t.q = q2
		return t.error("regexp must be followed by space or an operator (unescaped \"/\"?)")
	}

	tok, next := t.tok('r', expr, q2)
	tok.Regexp = r
	return tok, next
}

var errNoDelim = errors.New("unterminated regexp")

// regexpParseUntil splits str at the first delim that is outside any
// character class or group.
func regexpParseUntil(str, delim string) (expr, rest string, err error) {
	cs, cp := 0, 0
	for i := 0; i < len(str); i++ {
		if cs == 0 && cp == 0 && strings.HasPrefix(str[i:], delim) {
			return str[:i], str[i:], nil
		}
		switch str[i] {
		case '[':
			cs++
		case ']':
			if cs--; cs < 0 {
				cs = 0
			}
		case '(':
			if cs == 0 {
				cp++
			}
		case ')':
			if cs == 0 {
				cp--
			}
		case '\\':
			i++
		}
	}
	return str, "", errNoDelim
}
