// Copyright 2016 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package series

import (
	"reflect"
	"testing"
	"time"
)

func TestClone(t *testing.T) {
	d := PlotData{[]float64{1, 2}, []string{"a"}, nil}
	c := d.Clone()
	if !reflect.DeepEqual(c, d) {
		t.Fatalf("Clone() = %v, want %v", c, d)
	}
	c[0].([]float64)[0] = 99
	if d[0].([]float64)[0] != 1 {
		t.Errorf("Clone shares storage with original")
	}
	if PlotData(nil).Clone() != nil {
		t.Errorf("Clone(nil) != nil")
	}
}

func TestRows(t *testing.T) {
	for _, test := range []struct {
		d    PlotData
		want int
	}{
		{nil, 0},
		{PlotData{[]float64{1, 2, 3}, []int{1, 2}}, 2},
		{PlotData{[]float64{1, 2, 3}, []float64{}}, 0},
	} {
		if got := test.d.Rows(); got != test.want {
			t.Errorf("%v.Rows() = %d, want %d", test.d, got, test.want)
		}
	}
}

func TestFloats(t *testing.T) {
	t0 := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	for _, test := range []struct {
		in   interface{}
		want []float64
		ok   bool
	}{
		{[]float64{1.5}, []float64{1.5}, true},
		{[]int{1, 2}, []float64{1, 2}, true},
		{[]time.Time{t0}, []float64{float64(t0.Unix())}, true},
		{[]string{"1", "2.5"}, []float64{1, 2.5}, true},
		{[]bool{true, false}, []float64{1, 0}, true},
		{nil, []float64{}, true},
		{[]string{"x"}, nil, false},
	} {
		got, err := Floats(test.in)
		if (err == nil) != test.ok {
			t.Errorf("Floats(%v) error = %v", test.in, err)
			continue
		}
		if test.ok && !reflect.DeepEqual(got, test.want) {
			t.Errorf("Floats(%v) = %v, want %v", test.in, got, test.want)
		}
	}
}
