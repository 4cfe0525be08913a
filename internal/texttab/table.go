// Copyright 2025 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package texttab lays out aligned plain-text tables.
package texttab

import (
	"fmt"
	"io"
	"strings"
	"unicode/utf8"
)

// Table does layout of text-based tables. Cells are added row by row;
// each column is as wide as its widest cell.
//
// Most methods return the Table so calls can be chained.
type Table struct {
	rows [][]cell
	// Sep separates adjacent columns. The zero value means two
	// spaces.
	Sep string
}

type cell struct {
	value string
	right bool
}

// A CellOption modifies a cell.
type CellOption func(c *cell)

var (
	Left  CellOption = func(c *cell) { c.right = false }
	Right CellOption = func(c *cell) { c.right = true }
)

// Row starts a new row.
func (t *Table) Row() *Table {
	t.rows = append(t.rows, nil)
	return t
}

// Cell appends a cell to the current row.
func (t *Table) Cell(value string, opts ...CellOption) *Table {
	if len(t.rows) == 0 {
		t.Row()
	}
	c := cell{value: value}
	for _, o := range opts {
		o(&c)
	}
	last := len(t.rows) - 1
	t.rows[last] = append(t.rows[last], c)
	return t
}

// Cellf appends a cell formatted with fmt.Sprintf.
func (t *Table) Cellf(format string, args ...any) *Table {
	return t.Cell(fmt.Sprintf(format, args...))
}

// Rule appends a row of dashes as wide as each column.
func (t *Table) Rule() *Table {
	return t.Row().Cell(ruleMarker)
}

const ruleMarker = "\x00rule"

// Format lays out t and writes it to w. Trailing spaces are trimmed
// from every line.
func (t *Table) Format(w io.Writer) error {
	sep := t.Sep
	if sep == "" {
		sep = "  "
	}
	var widths []int
	for _, row := range t.rows {
		if isRule(row) {
			continue
		}
		for i, c := range row {
			if i == len(widths) {
				widths = append(widths, 0)
			}
			widths[i] = max(widths[i], utf8.RuneCountInString(c.value))
		}
	}

	var line strings.Builder
	for _, row := range t.rows {
		line.Reset()
		if isRule(row) {
			for i, wd := range widths {
				if i > 0 {
					line.WriteString(sep)
				}
				line.WriteString(strings.Repeat("-", wd))
			}
		} else {
			for i, c := range row {
				if i > 0 {
					line.WriteString(sep)
				}
				pad := widths[i] - utf8.RuneCountInString(c.value)
				if c.right {
					line.WriteString(strings.Repeat(" ", pad))
					line.WriteString(c.value)
				} else {
					line.WriteString(c.value)
					line.WriteString(strings.Repeat(" ", pad))
				}
			}
		}
		if _, err := fmt.Fprintln(w, strings.TrimRight(line.String(), " ")); err != nil {
			return err
		}
	}
	return nil
}

func isRule(row []cell) bool {
	return len(row) == 1 && row[0].value == ruleMarker
}
