// Copyright 2016 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package source

import (
	"fmt"
	"math"
	"reflect"
	"strings"
	"time"

	"github.com/aclements/go-gg/table"
	"github.com/araddon/dateparse"

	"github.com/declplot/declplot/errdefs"
	"github.com/declplot/declplot/series"
)

// Extract returns the fields of spec, looked up in tab.
//
// A field that tab does not have is an empty []float64 rather than an
// error, so one missing column does not keep the rest of a chart from
// rendering. Literal fields are used as given. If spec.XAxisDate is
// set, field 0 is coerced with CoerceTimeIn in spec.Location;
// likewise field 1 for spec.YAxisDate.
//
// The returned slices do not alias tab.
func Extract(tab *table.Table, spec *series.Spec) (series.PlotData, error) {
	if len(spec.Fields) == 0 {
		return nil, &errdefs.InvalidFieldError{Series: spec.ID()}
	}
	data := make(series.PlotData, len(spec.Fields))
	for i, f := range spec.Fields {
		var col table.Slice
		switch {
		case f.IsLiteral():
			col = f.Values
		case tab != nil:
			col = tab.Column(f.Name)
		}
		if col == nil {
			col = []float64{}
		}
		data[i] = col
	}
	data = data.Clone()

	for _, pos := range datePositions(spec) {
		if pos >= len(data) {
			continue
		}
		ts, err := CoerceTimeIn(data[pos], spec.Location)
		if err != nil {
			src := spec.Source()
			return nil, &errdefs.DataSourceError{Kind: src.Kind.String(), Locator: src.Locator, Err: fmt.Errorf("field %d: %v", pos, err)}
		}
		data[pos] = ts
	}
	return data, nil
}

func datePositions(spec *series.Spec) []int {
	var pos []int
	if spec.XAxisDate {
		pos = append(pos, 0)
	}
	if spec.YAxisDate {
		pos = append(pos, 1)
	}
	return pos
}

// CoerceTime is CoerceTimeIn(s, time.UTC).
func CoerceTime(s table.Slice) (table.Slice, error) {
	return CoerceTimeIn(s, time.UTC)
}

// CoerceTimeIn converts s to timezone-naive timestamps with second
// precision: wall-clock times in loc, represented as []time.Time in
// UTC. A nil loc is UTC.
//
// Strings are parsed in any common date format; a string without a
// zone is taken as wall-clock time in loc and one with a zone is
// converted to loc. Numbers are Unix seconds. Times in UTC are taken
// as already naive; other times are converted to loc. Missing values
// become the zero time. An empty slice is returned unchanged, and
// coercing an already coerced slice returns an equal slice.
func CoerceTimeIn(s table.Slice, loc *time.Location) (table.Slice, error) {
	if series.Len(s) == 0 {
		return s, nil
	}
	if loc == nil {
		loc = time.UTC
	}
	switch s := s.(type) {
	case []time.Time:
		out := make([]time.Time, len(s))
		for i, t := range s {
			if t.Location() == time.UTC {
				out[i] = WallClock(t, time.UTC)
			} else {
				out[i] = WallClock(t, loc)
			}
		}
		return out, nil
	case []string:
		out := make([]time.Time, len(s))
		for i, v := range s {
			v = strings.TrimSpace(v)
			if v == "" || v == "NaT" || v == "null" {
				continue
			}
			t, err := dateparse.ParseIn(v, loc)
			if err != nil {
				return nil, fmt.Errorf("bad timestamp %q: %v", v, err)
			}
			out[i] = WallClock(t, loc)
		}
		return out, nil
	}

	secs, err := series.Floats(s)
	if err != nil {
		return nil, fmt.Errorf("cannot use %s as timestamps", reflect.TypeOf(s))
	}
	out := make([]time.Time, len(secs))
	for i, x := range secs {
		if math.IsNaN(x) || math.IsInf(x, 0) {
			continue
		}
		out[i] = WallClock(time.Unix(int64(x), 0), loc)
	}
	return out, nil
}

// WallClock returns the wall-clock time of t in loc, truncated to the
// second and stored without a zone (as UTC). The zero time is
// returned unchanged.
func WallClock(t time.Time, loc *time.Location) time.Time {
	if t.IsZero() {
		return t
	}
	w := t.In(loc)
	return time.Date(w.Year(), w.Month(), w.Day(), w.Hour(), w.Minute(), w.Second(), 0, time.UTC)
}
