// Copyright 2016 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package series

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"reflect"
	"strconv"
	"time"

	"github.com/aclements/go-gg/generic/slice"
	"github.com/aclements/go-gg/table"
)

// PlotData is the resolved data of a series: one slice per field.
// Slices may have different lengths. A field missing from its source
// is an empty []float64.
type PlotData []table.Slice

// Clone returns a copy of d that shares no backing arrays with d.
func (d PlotData) Clone() PlotData {
	if d == nil {
		return nil
	}
	out := make(PlotData, len(d))
	for i, s := range d {
		if s == nil {
			continue
		}
		v := reflect.ValueOf(s)
		c := reflect.MakeSlice(v.Type(), v.Len(), v.Len())
		reflect.Copy(c, v)
		out[i] = c.Interface()
	}
	return out
}

// Rows returns the length of the shortest field in d, or 0 if d has
// no fields.
func (d PlotData) Rows() int {
	if len(d) == 0 {
		return 0
	}
	n := -1
	for _, s := range d {
		if l := Len(s); n < 0 || l < n {
			n = l
		}
	}
	return n
}

// Len returns the length of s. A nil slice has length 0.
func Len(s table.Slice) int {
	if s == nil {
		return 0
	}
	return reflect.ValueOf(s).Len()
}

// Floats converts s to float64s. Times convert to Unix seconds and
// strings are parsed as numbers.
func Floats(s table.Slice) ([]float64, error) {
	switch s := s.(type) {
	case nil:
		return []float64{}, nil
	case []float64:
		return append([]float64(nil), s...), nil
	case []time.Time:
		out := make([]float64, len(s))
		for i, t := range s {
			out[i] = float64(t.Unix())
		}
		return out, nil
	case []string:
		out := make([]float64, len(s))
		for i, v := range s {
			if v == "" {
				out[i] = math.NaN()
				continue
			}
			f, err := strconv.ParseFloat(v, 64)
			if err != nil {
				return nil, fmt.Errorf("value %q is not a number", v)
			}
			out[i] = f
		}
		return out, nil
	case []bool:
		out := make([]float64, len(s))
		for i, b := range s {
			if b {
				out[i] = 1
			}
		}
		return out, nil
	}
	switch reflect.TypeOf(s).Elem().Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		var out []float64
		slice.Convert(&out, s)
		if out == nil {
			out = []float64{}
		}
		return out, nil
	}
	return nil, fmt.Errorf("cannot use %T as numbers", s)
}

// APIClient fetches named monitoring API series.
type APIClient interface {
	Fetch(ctx context.Context, name string, params map[string]interface{}) (*table.Table, error)
}

// Env carries the collaborators available to transforms and add-ons.
type Env struct {
	Context context.Context
	API     APIClient
	Logger  *slog.Logger

	// Start and End bound the chart's time window. They are zero
	// if the chart does not define one.
	Start, End time.Time

	// Location is the chart's time zone. Timestamps are wall-clock
	// times in it.
	Location *time.Location
}

// Loc returns env's time zone, or UTC.
func (env *Env) Loc() *time.Location {
	if env == nil || env.Location == nil {
		return time.UTC
	}
	return env.Location
}

// Ctx returns env's context, or context.Background.
func (env *Env) Ctx() context.Context {
	if env == nil || env.Context == nil {
		return context.Background()
	}
	return env.Context
}

// Log returns env's logger, or slog.Default.
func (env *Env) Log() *slog.Logger {
	if env == nil || env.Logger == nil {
		return slog.Default()
	}
	return env.Logger
}
