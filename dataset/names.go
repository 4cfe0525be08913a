// Copyright 2025 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package dataset

import "strings"

func isDomain(name string) bool {
	return strings.Contains(strings.ToLower(name), "domain")
}

// parentName strips the last "_"-separated component of name. A name
// with no "_" has the empty parent.
func parentName(name string) string {
	if i := strings.LastIndex(name, "_"); i >= 0 {
		return name[:i]
	}
	return ""
}
