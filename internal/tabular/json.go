// Copyright 2016 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package tabular

import (
	"fmt"
	"math"

	"github.com/aclements/go-gg/table"
	"github.com/tidwall/gjson"
)

// DecodeJSON decodes a JSON document into a table.
//
// The document may be an array of objects (one row per object), an
// object with such an array under "results", or an object mapping
// column names to arrays of equal length. Columns appear in the order
// their keys are first seen. A key missing from some objects is null
// in those rows.
func DecodeJSON(body []byte) (*table.Table, error) {
	if !gjson.ValidBytes(body) {
		return nil, fmt.Errorf("malformed JSON document")
	}
	doc := gjson.ParseBytes(body)
	if doc.IsObject() {
		if res := doc.Get("results"); res.IsArray() {
			doc = res
		} else {
			return columnsFromObject(doc)
		}
	}
	if !doc.IsArray() {
		return nil, fmt.Errorf("expected a JSON array of objects, got %s", doc.Type)
	}
	return rowsFromArray(doc)
}

func rowsFromArray(doc gjson.Result) (*table.Table, error) {
	rows := doc.Array()
	var names []string
	cols := map[string][]gjson.Result{}
	for i, row := range rows {
		if !row.IsObject() {
			return nil, fmt.Errorf("row %d: expected a JSON object, got %s", i, row.Type)
		}
		row.ForEach(func(key, value gjson.Result) bool {
			name := key.String()
			col, ok := cols[name]
			if !ok {
				names = append(names, name)
				col = make([]gjson.Result, len(rows))
			}
			col[i] = value
			cols[name] = col
			return true
		})
	}
	b := new(table.Builder)
	for _, name := range names {
		b.Add(name, jsonColumn(cols[name]))
	}
	return b.Done(), nil
}

func columnsFromObject(doc gjson.Result) (*table.Table, error) {
	b := new(table.Builder)
	n := -1
	var err error
	doc.ForEach(func(key, value gjson.Result) bool {
		if !value.IsArray() {
			err = fmt.Errorf("column %q: expected a JSON array, got %s", key.String(), value.Type)
			return false
		}
		vals := value.Array()
		if n >= 0 && len(vals) != n {
			err = fmt.Errorf("column %q has %d values, want %d", key.String(), len(vals), n)
			return false
		}
		n = len(vals)
		b.Add(key.String(), jsonColumn(vals))
		return true
	})
	if err != nil {
		return nil, err
	}
	return b.Done(), nil
}

// jsonColumn converts JSON values into a homogeneous slice. Numbers
// (with nulls as NaN) become []float64, booleans []bool, and anything
// else []string.
func jsonColumn(vals []gjson.Result) table.Slice {
	numeric, boolean := true, true
	for _, v := range vals {
		switch v.Type {
		case gjson.Number:
			boolean = false
		case gjson.Null:
			boolean = false
		case gjson.True, gjson.False:
			numeric = false
		default:
			numeric, boolean = false, false
		}
	}
	switch {
	case numeric:
		out := make([]float64, len(vals))
		for i, v := range vals {
			if v.Type == gjson.Null {
				out[i] = math.NaN()
			} else {
				out[i] = v.Float()
			}
		}
		return out
	case boolean:
		out := make([]bool, len(vals))
		for i, v := range vals {
			out[i] = v.Bool()
		}
		return out
	}
	out := make([]string, len(vals))
	for i, v := range vals {
		if v.Type == gjson.String {
			out[i] = v.Str
		} else if v.Type != gjson.Null {
			out[i] = v.Raw
		}
	}
	return out
}
