// Copyright 2016 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package tabular

import (
	"encoding/csv"
	"fmt"
	"io"
	"sort"
	"strconv"
	"unicode/utf8"

	"github.com/aclements/go-gg/table"
	"github.com/pkg/errors"
)

// CSVOptions control how ReadCSV splits and names columns.
type CSVOptions struct {
	// Comma is the field delimiter. Zero means ','.
	Comma rune
	// Comment, if non-zero, starts a comment line.
	Comment rune
	// Header is the row index holding column names, counted after
	// SkipRows. Rows before it are dropped. -1 means there is no
	// header row.
	Header int
	// Names overrides the column names. If Names is set and the
	// header was not configured, there is no header row.
	Names []string
	// SkipRows drops this many rows from the start of the input.
	SkipRows int
	// TrimLeadingSpace ignores spaces after the delimiter.
	TrimLeadingSpace bool
}

// csvOptionKeys lists the options accepted by ParseCSVOptions.
var csvOptionKeys = map[string]bool{
	"sep": true, "delimiter": true, "header": true, "names": true,
	"comment": true, "skiprows": true, "skipinitialspace": true,
}

// ParseCSVOptions converts a configuration mapping to CSVOptions.
func ParseCSVOptions(m map[string]interface{}) (CSVOptions, error) {
	opts := CSVOptions{}
	var unknown []string
	for k := range m {
		if !csvOptionKeys[k] {
			unknown = append(unknown, k)
		}
	}
	if len(unknown) > 0 {
		sort.Strings(unknown)
		return opts, fmt.Errorf("unsupported csv option %q", unknown[0])
	}

	for _, key := range []string{"sep", "delimiter"} {
		if v, ok := m[key]; ok && v != nil {
			r, err := oneRune(key, v)
			if err != nil {
				return opts, err
			}
			opts.Comma = r
		}
	}
	if v, ok := m["comment"]; ok && v != nil {
		r, err := oneRune("comment", v)
		if err != nil {
			return opts, err
		}
		opts.Comment = r
	}

	if names, ok := m["names"]; ok && names != nil {
		list, ok := names.([]interface{})
		if !ok {
			return opts, fmt.Errorf("csv option names must be a list")
		}
		for _, n := range list {
			opts.Names = append(opts.Names, fmt.Sprint(n))
		}
	}

	if v, ok := m["header"]; !ok {
		if opts.Names != nil {
			opts.Header = -1
		}
	} else if v == nil {
		opts.Header = -1
	} else {
		n, err := intOption("header", v)
		if err != nil {
			return opts, err
		}
		opts.Header = n
	}

	if v, ok := m["skiprows"]; ok && v != nil {
		n, err := intOption("skiprows", v)
		if err != nil {
			return opts, err
		}
		opts.SkipRows = n
	}
	if v, ok := m["skipinitialspace"]; ok && v != nil {
		b, ok := v.(bool)
		if !ok {
			return opts, fmt.Errorf("csv option skipinitialspace must be a boolean")
		}
		opts.TrimLeadingSpace = b
	}
	return opts, nil
}

func oneRune(key string, v interface{}) (rune, error) {
	s, ok := v.(string)
	if !ok || utf8.RuneCountInString(s) != 1 {
		return 0, fmt.Errorf("csv option %s must be a single character", key)
	}
	r, _ := utf8.DecodeRuneInString(s)
	return r, nil
}

func intOption(key string, v interface{}) (int, error) {
	switch v := v.(type) {
	case int:
		if v >= 0 {
			return v, nil
		}
	case string:
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			return n, nil
		}
	}
	return 0, fmt.Errorf("csv option %s must be a non-negative integer", key)
}

// ReadCSV reads all of r as delimited text and returns a table with
// one column per input column. Column values are typed with
// ParseColumn. Short rows are padded with empty cells.
func ReadCSV(r io.Reader, opts CSVOptions) (*table.Table, error) {
	cr := csv.NewReader(r)
	if opts.Comma != 0 {
		cr.Comma = opts.Comma
	}
	cr.Comment = opts.Comment
	cr.TrimLeadingSpace = opts.TrimLeadingSpace
	cr.FieldsPerRecord = -1

	rows, err := cr.ReadAll()
	if err != nil {
		return nil, errors.Wrap(err, "parsing csv")
	}
	if opts.SkipRows > len(rows) {
		opts.SkipRows = len(rows)
	}
	rows = rows[opts.SkipRows:]

	var header []string
	if opts.Header >= 0 {
		if opts.Header >= len(rows) {
			if len(rows) == 0 && opts.Names != nil {
				return emptyTable(opts.Names), nil
			}
			if len(rows) == 0 {
				return new(table.Builder).Done(), nil
			}
			return nil, fmt.Errorf("header row %d beyond end of input (%d rows)", opts.Header, len(rows))
		}
		header = rows[opts.Header]
		rows = rows[opts.Header+1:]
	}

	width := len(header)
	for _, row := range rows {
		if len(row) > width {
			width = len(row)
		}
	}
	names := make([]string, width)
	for i := range names {
		switch {
		case i < len(opts.Names):
			names[i] = opts.Names[i]
		case i < len(header):
			names[i] = header[i]
		default:
			names[i] = strconv.Itoa(i)
		}
	}

	cols := make([][]string, width)
	for i := range cols {
		cols[i] = make([]string, len(rows))
	}
	for j, row := range rows {
		for i, cell := range row {
			cols[i][j] = cell
		}
	}
	return Build(names, cols), nil
}

func emptyTable(names []string) *table.Table {
	b := new(table.Builder)
	for _, n := range names {
		b.Add(n, []float64{})
	}
	return b.Done()
}
