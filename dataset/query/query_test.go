// Copyright 2025 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package query

import "testing"

func TestParse(t *testing.T) {
	check := func(query string, want string) {
		t.Helper()
		q, err := Parse(query)
		if err != nil {
			t.Errorf("%s: unexpected error %s", query, err)
		} else if got := q.String(); got != want {
			t.Errorf("%s: got %s, want %s", query, got, want)
		}
	}
	checkErr := func(query, error string, pos int) {
		t.Helper()
		_, err := Parse(query)
		if se, _ := err.(*SyntaxError); se == nil || se.Msg != error || se.Off != pos {
			t.Errorf("%s: want error %s at %d; got %s", query, error, pos, err)
		}
	}
	check(``, `*`)
	check(`*`, `*`)
	check(`a:b`, `a:b`)
	check(`a : b`, `a:b`)
	checkErr(`a`, "expected key:value", 0)
	checkErr(`a:`, "expected key:value", 0)
	checkErr(`()`, "expected key:value or subexpression", 1)
	check(`"a":"b c"`, `a:"b c"`)
	checkErr(`a "b`, "missing end quote", 2)
	check("ViennaRNA-d3:x", `ViennaRNA-d3:x`)

	check(`(a:b)`, `a:b`)
	checkErr(`(a:b`, "missing \")\"", 4)
	checkErr(`(a:b))`, "unexpected \")\"", 5)

	check(`a:b c:d e:f`, `(a:b AND c:d AND e:f)`)
	check(`-a:b`, `-a:b`)
	check(`a:b AND c:d OR e:f AND g:h`, `((a:b AND c:d) OR (e:f AND g:h))`)

	checkErr("a:/b", "missing close \"/\"", 2)
	checkErr("a:/b/c", "regexp must be followed by space or an operator (unescaped \"/\"?)", 5)
	check(`a:(b OR "c " OR /d/)`, `(a:b OR a:"c " OR a:/d/)`)
	checkErr(`a:(b c)`, "value list must be separated by OR", 5)

	check(`length>100`, `length>100`)
	check(`length >= 1e3`, `length>=1000`)
	check(`x<-2.5`, `x<-2.5`)
	check(`x<=0 y:z`, `(x<=0 AND y:z)`)
	checkErr(`x>abc`, "expected number", 2)
	checkErr(`x>`, "expected number", 2)
}

type record map[string]string

func (r record) Value(key string) (string, bool) {
	v, ok := r[key]
	return v, ok
}

func TestMatch(t *testing.T) {
	rec := record{
		"program": "ViennaRNA-d2",
		"dataset": "archiveii",
		"length":  "120",
		"family":  "tRNA",
	}
	check := func(query string, want bool) {
		t.Helper()
		q, err := Parse(query)
		if err != nil {
			t.Fatalf("%s: %s", query, err)
		}
		if got := q.Match(rec); got != want {
			t.Errorf("%s: got %v, want %v", query, got, want)
		}
	}
	check(`*`, true)
	check(`-*`, false)
	check(`program:ViennaRNA-d2`, true)
	check(`program:/^Vienna/`, true)
	check(`program:/^RNA/`, false)
	check(`dataset:(random OR archiveii)`, true)
	check(`-dataset:archiveii`, false)
	check(`length>100 length<=120`, true)
	check(`length>120`, false)
	check(`family<3`, false)
	check(`missing>0`, false)
	check(`missing:""`, true)
	check(`family:rRNA OR length>=120`, true)
}
