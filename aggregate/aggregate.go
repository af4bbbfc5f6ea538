// Copyright 2016 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package aggregate applies named numeric operations to single fields
// of resolved series data.
//
// Each aggregation step of a series names a registered Func, the
// field it applies to, and the Func's parameters. Steps run in the
// order they are declared and each replaces its field with the
// result.
package aggregate

import (
	"fmt"
	"math"

	"github.com/aclements/go-moremath/vec"

	"github.com/declplot/declplot/errdefs"
	"github.com/declplot/declplot/registry"
	"github.com/declplot/declplot/series"
)

// Func computes a new field from xs. It must not modify xs.
type Func = series.AggregateFunc

var funcs = registry.New[Func]("aggregation")

func init() {
	funcs.MustRegister("cumsum", cumsum)
	for _, op := range []struct {
		names []string
		def   float64
		f     func(x, by float64) float64
	}{
		{[]string{"add"}, 0, func(x, by float64) float64 { return x + by }},
		{[]string{"subtract", "sub"}, 0, func(x, by float64) float64 { return x - by }},
		{[]string{"multiply", "mul"}, 1, func(x, by float64) float64 { return x * by }},
		{[]string{"divide", "div"}, 1, func(x, by float64) float64 { return x / by }},
		{[]string{"power", "pow"}, 1, math.Pow},
	} {
		fn := constOp(op.def, op.f)
		for _, name := range op.names {
			funcs.MustRegister(name, fn)
		}
	}
}

// Register adds fn as the aggregation name. It returns a
// *errdefs.DuplicateRegistrationError if name is taken.
func Register(name string, fn Func) error {
	return funcs.Register(name, fn)
}

// MustRegister is like Register but panics if name is taken. It
// returns fn, so it can wrap a package-level function definition.
func MustRegister(name string, fn Func) Func {
	return funcs.MustRegister(name, fn)
}

// Unregister removes the aggregation name.
func Unregister(name string) bool {
	return funcs.Unregister(name)
}

// Lookup returns the aggregation registered as name.
func Lookup(name string) (Func, bool) {
	return funcs.Lookup(name)
}

// Names returns the registered aggregation names.
func Names() []string {
	return funcs.Names()
}

// Apply runs spec's aggregation steps over data in order and returns
// the result. Each step replaces the field it targets with a
// []float64. data is not modified.
//
// A step naming an unregistered aggregation fails with a
// *errdefs.UnsupportedAggregationError.
func Apply(data series.PlotData, spec *series.Spec) (series.PlotData, error) {
	if len(spec.Aggregations) == 0 {
		return data, nil
	}
	out := make(series.PlotData, len(data))
	copy(out, data)
	for i, step := range spec.Aggregations {
		path := fmt.Sprintf("aggregations[%d]", i)
		fn := step.Fn
		if fn == nil {
			var ok bool
			if fn, ok = funcs.Lookup(step.Func); !ok {
				return nil, &errdefs.UnsupportedAggregationError{Name: step.Func}
			}
		}
		idx, err := step.Field.Resolve(spec.Fields, len(out))
		if err != nil {
			return nil, errdefs.AtPath(path+".field", err)
		}
		xs, err := series.Floats(out[idx])
		if err != nil {
			return nil, errdefs.AtPath(path+".field", err)
		}
		ys, err := fn(xs, step.Params)
		if err != nil {
			return nil, errdefs.AtPath(path, err)
		}
		out[idx] = ys
	}
	return out, nil
}

// cumsum returns the running sum of xs. NaN values are skipped: they
// stay NaN in the result and do not reset the sum.
func cumsum(xs []float64, params series.Params) ([]float64, error) {
	out := make([]float64, len(xs))
	sum := 0.0
	for i, x := range xs {
		if math.IsNaN(x) {
			out[i] = x
			continue
		}
		sum += x
		out[i] = sum
	}
	return out, nil
}

// constOp returns an aggregation applying f to each value and the
// "by" parameter, which defaults to def.
func constOp(def float64, f func(x, by float64) float64) Func {
	return func(xs []float64, params series.Params) ([]float64, error) {
		by, err := params.Float("by", def)
		if err != nil {
			return nil, err
		}
		if len(xs) == 0 {
			return []float64{}, nil
		}
		return vec.Map(func(x float64) float64 { return f(x, by) }, xs), nil
	}
}
