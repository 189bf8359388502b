// Package models defines data structures for the scraper.
package models

import (
	"sort"
	"time"
)

// Record is one feedback submission, raw or normalized: a mapping from
// field name to arbitrary JSON-typed value. The remote API decides the
// exact field set at runtime, so records stay schema-less until they
// are assembled into a Table.
type Record map[string]any

// Table is a loosely typed tabular batch. Columns is the union of all
// row keys in first-seen order; a row missing a column holds a nil cell.
type Table struct {
	Columns []string
	Rows    []Record
}

// NewTable builds a table from rows, deriving the column union.
func NewTable(rows []Record) *Table {
	t := &Table{Rows: rows}
	seen := make(map[string]struct{})
	for _, row := range rows {
		for _, key := range sortedKeys(row) {
			if _, ok := seen[key]; ok {
				continue
			}
			seen[key] = struct{}{}
			t.Columns = append(t.Columns, key)
		}
	}
	return t
}

// Len returns the number of rows.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.Rows)
}

// HasColumn reports whether the table carries the named column.
func (t *Table) HasColumn(name string) bool {
	for _, c := range t.Columns {
		if c == name {
			return true
		}
	}
	return false
}

// Select projects the table down to the named columns. Rows keep only
// the selected keys; columns absent from the table are silently ignored.
func (t *Table) Select(cols ...string) *Table {
	out := &Table{}
	for _, c := range cols {
		if t.HasColumn(c) {
			out.Columns = append(out.Columns, c)
		}
	}
	for _, row := range t.Rows {
		projected := make(Record, len(out.Columns))
		for _, c := range out.Columns {
			if v, ok := row[c]; ok {
				projected[c] = v
			}
		}
		out.Rows = append(out.Rows, projected)
	}
	return out
}

// Drop returns the table without the named columns. Rows are shared,
// not copied; only the column list shrinks.
func (t *Table) Drop(cols ...string) *Table {
	dropped := make(map[string]struct{}, len(cols))
	for _, c := range cols {
		dropped[c] = struct{}{}
	}
	out := &Table{Rows: t.Rows}
	for _, c := range t.Columns {
		if _, ok := dropped[c]; !ok {
			out.Columns = append(out.Columns, c)
		}
	}
	return out
}

// sortedKeys returns the record's keys in lexical order. Map iteration
// order is random, so the column union would churn between runs without
// this.
func sortedKeys(r Record) []string {
	keys := make([]string, 0, len(r))
	for k := range r {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// ScrapeResult holds the overall outcome of one scrape run.
type ScrapeResult struct {
	Feedbacks  *Table
	Countries  *Table
	Categories *Table
	// Attachments maps feedback id to local filename; nil when
	// attachment downloading was disabled.
	Attachments        *Table
	SkippedAttachments int

	StartTime    time.Time
	EndTime      time.Time
	RequestCount int
	RetryCount   int
	PageCount    int
}
