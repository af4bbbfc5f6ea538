// Copyright 2016 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package series

import (
	"context"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/pkg/errors"

	"github.com/declplot/declplot/errdefs"
)

func TestSourcePriority(t *testing.T) {
	for _, test := range []struct {
		spec Spec
		kind Kind
		loc  string
	}{
		{Spec{CSV: "a.csv", URL: "http://x", Name: "edm"}, CSV, "a.csv"},
		{Spec{URL: "http://x", Name: "edm"}, URL, "http://x"},
		{Spec{Name: "edm"}, API, "edm"},
		{Spec{}, Inline, ""},
	} {
		src := test.spec.Source()
		if src.Kind != test.kind || src.Locator != test.loc {
			t.Errorf("%+v: got %v %q, want %v %q", test.spec, src.Kind, src.Locator, test.kind, test.loc)
		}
	}
}

func TestSourceOptions(t *testing.T) {
	s := Spec{CSV: "a.csv", CSVParams: map[string]interface{}{"delimiter": ";"}, QueryParams: map[string]interface{}{"q": 1}}
	if got := s.Source().Options; !reflect.DeepEqual(got, s.CSVParams) {
		t.Errorf("csv options = %v", got)
	}
	s.CSV = ""
	s.Name = "edm"
	if got := s.Source().Options; !reflect.DeepEqual(got, s.QueryParams) {
		t.Errorf("api options = %v", got)
	}
}

const specYAML = `
name: tiltmeter
query_params:
  station: selokopo
  timestamp__gte: 2019-01-01
fields: [timestamp, x]
xaxis_date: true
aggregations:
  - func: cumsum
    field: x
  - func: multiply
    field: 1
    params: {by: 10}
transforms: [slope_correction]
addons:
  - name: marker
    color: red
labels:
  y: {text: Tilt}
formatter:
  y: {major: {format: "%.1f"}}
`

func TestDecodeSpec(t *testing.T) {
	var s Spec
	if err := Decode(strings.NewReader(specYAML), &s); err != nil {
		t.Fatal(err)
	}
	if err := s.Validate(); err != nil {
		t.Fatal(err)
	}
	if got, want := s.FieldNames(), []string{"timestamp", "x"}; !reflect.DeepEqual(got, want) {
		t.Errorf("fields = %v, want %v", got, want)
	}
	if s.Aggregations[0].Field != (FieldRef{Name: "x"}) {
		t.Errorf("agg 0 field = %v", s.Aggregations[0].Field)
	}
	if s.Aggregations[1].Field != (FieldRef{Index: 1}) {
		t.Errorf("agg 1 field = %v", s.Aggregations[1].Field)
	}
	if by, _ := s.Aggregations[1].Params.Float("by", 1); by != 10 {
		t.Errorf("by = %v", by)
	}
	if len(s.Transforms) != 1 || s.Transforms[0].Name != "slope_correction" {
		t.Errorf("transforms = %+v", s.Transforms)
	}
	if len(s.Addons) != 1 || s.Addons[0].Name != "marker" || s.Addons[0].Options["color"] != "red" {
		t.Errorf("addons = %+v", s.Addons)
	}
	if s.AxisLabel("y") != "Tilt" || s.AxisFormat("y") != "%.1f" {
		t.Errorf("label %q format %q", s.AxisLabel("y"), s.AxisFormat("y"))
	}
	if s.PlotType() != "line" {
		t.Errorf("default type = %q", s.PlotType())
	}
	// Dates in query parameters stay strings for the query.
	if v, ok := s.QueryParams["timestamp__gte"]; !ok {
		t.Errorf("missing query param")
	} else if _, isTime := v.(time.Time); !isTime {
		if _, isStr := v.(string); !isStr {
			t.Errorf("timestamp__gte decoded as %T", v)
		}
	}
}

func TestDecodeUnknownKey(t *testing.T) {
	var s Spec
	err := Decode(strings.NewReader("fields: [a]\ncolour: red\n"), &s)
	if err == nil || !strings.Contains(err.Error(), "colour") {
		t.Errorf("want unknown key error, got %v", err)
	}
}

func TestDecodeInline(t *testing.T) {
	var s Spec
	if err := Decode(strings.NewReader("fields: [[1, 2, 3], [4.5, ~, 6]]\n"), &s); err != nil {
		t.Fatal(err)
	}
	if s.Source().Kind != Inline {
		t.Fatalf("kind = %v", s.Source().Kind)
	}
	if err := s.Validate(); err != nil {
		t.Fatal(err)
	}
	if got := s.Fields[0].Values; !reflect.DeepEqual(got, []float64{1, 2, 3}) {
		t.Errorf("field 0 = %v", got)
	}
	if got := s.Fields[1].Values.([]float64); len(got) != 3 || got[1] == got[1] {
		t.Errorf("field 1 = %v, want NaN in the middle", got)
	}
}

func TestValidate(t *testing.T) {
	for _, test := range []struct {
		name string
		spec Spec
		ok   bool
	}{
		{"empty fields", Spec{Name: "edm"}, false},
		{"field func", Spec{FieldFunc: func(_ context.Context, _ map[string]interface{}) (PlotData, error) { return nil, nil }}, true},
		{"bad type", Spec{Name: "edm", Fields: []Field{Named("a")}, Type: "pie"}, false},
		{"literal with source", Spec{CSV: "a.csv", Fields: []Field{Literal([]float64{1})}}, false},
		{"name without source", Spec{Fields: []Field{Named("a")}}, false},
		{"bad agg index", Spec{Name: "edm", Fields: []Field{Named("a")}, Aggregations: []AggregationStep{{Func: "cumsum", Field: FieldRef{Index: 1}}}}, false},
		{"bad agg name", Spec{Name: "edm", Fields: []Field{Named("a")}, Aggregations: []AggregationStep{{Func: "cumsum", Field: FieldRef{Name: "b"}}}}, false},
		{"agg by name", Spec{Name: "edm", Fields: []Field{Named("a"), Named("b")}, Aggregations: []AggregationStep{{Func: "cumsum", Field: FieldRef{Name: "b"}}}}, true},
		{"bad secondary", Spec{Name: "edm", Fields: []Field{Named("a")}, Secondary: "z"}, false},
	} {
		err := test.spec.Validate()
		if (err == nil) != test.ok {
			t.Errorf("%s: Validate() = %v", test.name, err)
		}
	}

	err := (&Spec{Index: "s1"}).Validate()
	var fe *errdefs.InvalidFieldError
	if !errors.As(err, &fe) || fe.Series != "s1" {
		t.Errorf("want InvalidFieldError for s1, got %v", err)
	}
}

func TestFromMap(t *testing.T) {
	s, err := FromMap(map[string]interface{}{
		"csv":    "data.csv",
		"fields": []interface{}{"timestamp", "x"},
	})
	if err != nil {
		t.Fatal(err)
	}
	if s.CSV != "data.csv" || len(s.Fields) != 2 {
		t.Errorf("got %+v", s)
	}
	if _, err := FromMap(map[string]interface{}{"fields": []string{"a"}, "theme": "dark"}); err == nil {
		t.Errorf("unknown key accepted")
	}
}
