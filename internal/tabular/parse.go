// Copyright 2016 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package tabular builds column-oriented go-gg tables from delimited
// text and JSON documents.
package tabular

import (
	"math"
	"strconv"
	"strings"

	"github.com/aclements/go-gg/table"
)

// ColumnParser converts a column of raw strings into a typed slice,
// or reports false if some value cannot be converted.
type ColumnParser func(raw []string) (table.Slice, bool)

// DefaultColumnParsers is the default sequence of column parsers used
// by ParseColumn if no parsers are specified.
var DefaultColumnParsers = []ColumnParser{parseFloats, parseBools}

// ParseColumn parses raw into a typed slice using best-effort
// pattern-based parsing.
//
// If all of the raw values can be parsed by one of parsers,
// ParseColumn returns the result of the earliest such parser.
// Otherwise it falls back to the raw strings. If parsers is nil, it
// uses DefaultColumnParsers.
func ParseColumn(raw []string, parsers []ColumnParser) table.Slice {
	if parsers == nil {
		parsers = DefaultColumnParsers
	}
	for _, p := range parsers {
		if s, ok := p(raw); ok {
			return s
		}
	}
	return append([]string(nil), raw...)
}

// parseFloats parses numbers. Empty cells and the usual spellings of
// a missing value become NaN, but a column of only missing values is
// not numeric.
func parseFloats(raw []string) (table.Slice, bool) {
	out := make([]float64, len(raw))
	seen := false
	for i, s := range raw {
		s = strings.TrimSpace(s)
		if isNA(s) {
			out[i] = math.NaN()
			continue
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return nil, false
		}
		out[i] = f
		seen = true
	}
	return out, seen || len(raw) == 0
}

func parseBools(raw []string) (table.Slice, bool) {
	out := make([]bool, len(raw))
	for i, s := range raw {
		switch strings.ToLower(strings.TrimSpace(s)) {
		case "true":
			out[i] = true
		case "false":
		default:
			return nil, false
		}
	}
	return out, true
}

func isNA(s string) bool {
	switch s {
	case "", "NA", "NaN", "nan", "null", "NULL", "None", "N/A":
		return true
	}
	return false
}

// Build returns a table with one column per name, parsing each column
// of cols with ParseColumn. All columns must have the same length.
func Build(names []string, cols [][]string) *table.Table {
	b := new(table.Builder)
	for i, name := range names {
		b.Add(name, ParseColumn(cols[i], nil))
	}
	return b.Done()
}
