// Copyright 2025 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package texttab

import (
	"strings"
	"testing"
)

func TestTable(t *testing.T) {
	var tab Table
	check := func(want string) {
		t.Helper()
		var gotBuf strings.Builder
		if err := tab.Format(&gotBuf); err != nil {
			t.Fatal(err)
		}
		if got := gotBuf.String(); want != got {
			t.Errorf("want:\n%sgot:\n%s", want, got)
		}
		tab = Table{}
	}

	tab.Row().Cell("a").Cell("b").Cell("c")
	tab.Row().Cell("d").Cell("e").Cell("f")
	check("a  b  c\nd  e  f\n")

	// Padding, without trailing spaces.
	tab.Row().Cell("a").Cell("b").Cell("c")
	tab.Row().Cell("long").Cell("e").Cell("long")
	check("a     b  c\nlong  e  long\n")

	// Alignment.
	tab.Row().Cell("model").Cell("bic", Right)
	tab.Row().Cell("n").Cell("-12.5", Right)
	check("model    bic\nn      -12.5\n")

	// Rules and ragged rows.
	tab.Sep = " "
	tab.Row().Cell("x").Cell("yy")
	tab.Rule()
	tab.Row().Cellf("%d", 123)
	check("x   yy\n--- --\n123\n")

	// Empty.
	check("")
}
