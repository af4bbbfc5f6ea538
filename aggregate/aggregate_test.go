// Copyright 2016 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package aggregate

import (
	"math"
	"reflect"
	"testing"

	"github.com/pkg/errors"

	"github.com/declplot/declplot/errdefs"
	"github.com/declplot/declplot/series"
)

func ref(i int) series.FieldRef { return series.FieldRef{Index: i} }

func TestApply(t *testing.T) {
	fields := []series.Field{series.Named("timestamp"), series.Named("count")}
	tests := []struct {
		name  string
		steps []series.AggregationStep
		in    []float64
		want  []float64
	}{
		{"none", nil, []float64{1, 2}, []float64{1, 2}},
		{"cumsum", []series.AggregationStep{{Func: "cumsum", Field: ref(1)}},
			[]float64{1, 2, 3}, []float64{1, 3, 6}},
		{"cumsum nan", []series.AggregationStep{{Func: "cumsum", Field: ref(1)}},
			[]float64{1, math.NaN(), 3}, []float64{1, math.NaN(), 4}},
		{"chain", []series.AggregationStep{
			{Func: "cumsum", Field: ref(1)},
			{Func: "multiply", Field: ref(1), Params: series.Params{"by": 10}},
		}, []float64{1, 1, 1}, []float64{10, 20, 30}},
		{"by name", []series.AggregationStep{{Func: "sub", Field: series.FieldRef{Name: "count"}, Params: series.Params{"by": 0.5}}},
			[]float64{1, 2}, []float64{0.5, 1.5}},
		{"defaults", []series.AggregationStep{
			{Func: "add", Field: ref(1)},
			{Func: "div", Field: ref(1)},
			{Func: "pow", Field: ref(1)},
		}, []float64{2, 3}, []float64{2, 3}},
		{"power", []series.AggregationStep{{Func: "power", Field: ref(1), Params: series.Params{"by": 2}}},
			[]float64{2, 3}, []float64{4, 9}},
		{"empty", []series.AggregationStep{{Func: "add", Field: ref(1), Params: series.Params{"by": 5}}},
			[]float64{}, []float64{}},
		{"direct", []series.AggregationStep{{Field: ref(1), Fn: func(xs []float64, _ series.Params) ([]float64, error) {
			return []float64{float64(len(xs))}, nil
		}}}, []float64{7, 8, 9}, []float64{3}},
	}
	for _, test := range tests {
		spec := &series.Spec{Name: "seismicity", Fields: fields, Aggregations: test.steps}
		ts := []float64{100, 200}
		data := series.PlotData{ts, test.in}
		got, err := Apply(data, spec)
		if err != nil {
			t.Errorf("%s: %v", test.name, err)
			continue
		}
		if !sameFloats(got[1].([]float64), test.want) {
			t.Errorf("%s: got %v, want %v", test.name, got[1], test.want)
		}
		if !reflect.DeepEqual(got[0], ts) {
			t.Errorf("%s: field 0 changed to %v", test.name, got[0])
		}
	}
}

func TestApplyDoesNotModifyInput(t *testing.T) {
	in := []float64{1, 2, 3}
	spec := &series.Spec{
		Name:         "x",
		Fields:       []series.Field{series.Named("v")},
		Aggregations: []series.AggregationStep{{Func: "cumsum"}},
	}
	if _, err := Apply(series.PlotData{in}, spec); err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(in, []float64{1, 2, 3}) {
		t.Errorf("input modified: %v", in)
	}
}

func TestApplyErrors(t *testing.T) {
	fields := []series.Field{series.Named("timestamp"), series.Named("count")}
	data := series.PlotData{[]float64{1}, []string{"a"}}

	spec := &series.Spec{Fields: fields, Aggregations: []series.AggregationStep{{Func: "median", Field: ref(1)}}}
	_, err := Apply(data, spec)
	var ua *errdefs.UnsupportedAggregationError
	if !errors.As(err, &ua) || ua.Name != "median" {
		t.Errorf("unknown aggregation: got %v", err)
	}

	var ce *errdefs.ConfigurationError
	for _, field := range []series.FieldRef{ref(5), {Name: "missing"}, ref(1)} {
		spec := &series.Spec{Fields: fields, Aggregations: []series.AggregationStep{{Func: "add", Field: field}}}
		if _, err := Apply(data, spec); !errors.As(err, &ce) {
			t.Errorf("field %v: got %v, want configuration error", field, err)
		}
	}

	spec = &series.Spec{Fields: fields, Aggregations: []series.AggregationStep{
		{Func: "add", Field: ref(0), Params: series.Params{"by": "lots"}}}}
	if _, err := Apply(data, spec); !errors.As(err, &ce) {
		t.Errorf("bad param: got %v, want configuration error", err)
	}
}

func TestRegister(t *testing.T) {
	var dup *errdefs.DuplicateRegistrationError
	if err := Register("cumsum", cumsum); !errors.As(err, &dup) {
		t.Errorf("re-registering cumsum: got %v", err)
	}

	neg := func(xs []float64, _ series.Params) ([]float64, error) {
		out := make([]float64, len(xs))
		for i, x := range xs {
			out[i] = -x
		}
		return out, nil
	}
	if err := Register("negate", neg); err != nil {
		t.Fatal(err)
	}
	defer Unregister("negate")

	spec := &series.Spec{Fields: []series.Field{series.Named("v")}, Aggregations: []series.AggregationStep{{Func: "negate"}}}
	got, err := Apply(series.PlotData{[]float64{1, -2}}, spec)
	if err != nil {
		t.Fatal(err)
	}
	if want := []float64{-1, 2}; !reflect.DeepEqual(got[0], want) {
		t.Errorf("got %v, want %v", got[0], want)
	}
	if !Unregister("negate") {
		t.Error("Unregister(negate) = false")
	}
	if _, ok := Lookup("negate"); ok {
		t.Error("negate still registered")
	}
}

func TestNames(t *testing.T) {
	want := []string{"add", "cumsum", "div", "divide", "mul", "multiply", "pow", "power", "sub", "subtract"}
	if got := Names(); !reflect.DeepEqual(got, want) {
		t.Errorf("Names() = %v, want %v", got, want)
	}
}

func sameFloats(a, b []float64) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] && !(math.IsNaN(a[i]) && math.IsNaN(b[i])) {
			return false
		}
	}
	return true
}

func TestMustRegister(t *testing.T) {
	half := MustRegister("half", func(xs []float64, _ series.Params) ([]float64, error) {
		out := make([]float64, len(xs))
		for i, x := range xs {
			out[i] = x / 2
		}
		return out, nil
	})
	defer Unregister("half")
	if got, err := half([]float64{4}, nil); err != nil || got[0] != 2 {
		t.Errorf("returned func: %v, %v", got, err)
	}
	spec := &series.Spec{Fields: []series.Field{series.Named("v")}, Aggregations: []series.AggregationStep{{Func: "half"}}}
	got, err := Apply(series.PlotData{[]float64{2, 6}}, spec)
	if err != nil {
		t.Fatal(err)
	}
	if want := []float64{1, 3}; !reflect.DeepEqual(got[0], want) {
		t.Errorf("got %v, want %v", got[0], want)
	}

	defer func() {
		if recover() == nil {
			t.Error("registering half twice did not panic")
		}
	}()
	MustRegister("half", half)
}
