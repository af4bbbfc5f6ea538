// Copyright 2016 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package series

import (
	"context"
	"fmt"
	"math"
	"strconv"

	"github.com/aclements/go-gg/table"
	"gopkg.in/yaml.v3"

	"github.com/declplot/declplot/errdefs"
)

// Field is one requested field of a series. For sourced series it is
// a column name. For inline series it holds literal values.
type Field struct {
	Name   string
	Values table.Slice
}

// Named returns a Field referring to a column.
func Named(name string) Field { return Field{Name: name} }

// Literal returns a Field holding values.
func Literal(values table.Slice) Field { return Field{Values: values} }

// IsLiteral reports whether f holds literal values.
func (f Field) IsLiteral() bool { return f.Values != nil }

// UnmarshalYAML decodes a field from a scalar column name or a
// sequence of literal values.
func (f *Field) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		f.Name, f.Values = node.Value, nil
		return nil
	case yaml.SequenceNode:
		var raw []interface{}
		if err := node.Decode(&raw); err != nil {
			return err
		}
		vals, err := literalSlice(raw)
		if err != nil {
			return fmt.Errorf("line %d: %v", node.Line, err)
		}
		f.Name, f.Values = "", vals
		return nil
	}
	return fmt.Errorf("line %d: field must be a name or a list of values", node.Line)
}

// MarshalYAML encodes f in the form UnmarshalYAML accepts.
func (f Field) MarshalYAML() (interface{}, error) {
	if f.IsLiteral() {
		return f.Values, nil
	}
	return f.Name, nil
}

// literalSlice converts decoded YAML values into a homogeneous slice.
// Numbers become []float64, strings []string, and booleans []bool.
// A null is accepted as a missing number.
func literalSlice(raw []interface{}) (table.Slice, error) {
	var (
		nums  []float64
		strs  []string
		bools []bool
	)
	isNum, isStr, isBool := true, true, true
	for _, v := range raw {
		switch v := v.(type) {
		case int:
			nums = append(nums, float64(v))
			isStr, isBool = false, false
		case float64:
			nums = append(nums, v)
			isStr, isBool = false, false
		case nil:
			nums = append(nums, math.NaN())
			isStr, isBool = false, false
		case string:
			strs = append(strs, v)
			isNum, isBool = false, false
		case bool:
			bools = append(bools, v)
			isNum, isStr = false, false
		default:
			return nil, fmt.Errorf("unsupported literal value %v (%T)", v, v)
		}
	}
	switch {
	case len(raw) == 0:
		return []float64{}, nil
	case isNum:
		return nums, nil
	case isStr:
		return strs, nil
	case isBool:
		return bools, nil
	}
	return nil, fmt.Errorf("literal values have mixed types")
}

// FieldRef addresses one field of a series, either by position or by
// name. The zero FieldRef is position 0.
type FieldRef struct {
	Index int
	Name  string
}

// UnmarshalYAML accepts an integer index or a field name.
func (r *FieldRef) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.ScalarNode {
		return fmt.Errorf("line %d: field reference must be an index or a name", node.Line)
	}
	if node.Tag == "!!int" {
		i, err := strconv.Atoi(node.Value)
		if err != nil {
			return err
		}
		*r = FieldRef{Index: i}
		return nil
	}
	*r = FieldRef{Name: node.Value}
	return nil
}

func (r FieldRef) MarshalYAML() (interface{}, error) {
	if r.Name != "" {
		return r.Name, nil
	}
	return r.Index, nil
}

func (r FieldRef) String() string {
	if r.Name != "" {
		return strconv.Quote(r.Name)
	}
	return strconv.Itoa(r.Index)
}

// Resolve returns the position r refers to among fields, given that
// the resolved data has n fields.
func (r FieldRef) Resolve(fields []Field, n int) (int, error) {
	if r.Name == "" {
		if r.Index < 0 || r.Index >= n {
			return 0, errdefs.Configf("", "field index %d out of range [0, %d)", r.Index, n)
		}
		return r.Index, nil
	}
	for i, f := range fields {
		if !f.IsLiteral() && f.Name == r.Name && i < n {
			return i, nil
		}
	}
	return 0, errdefs.Configf("", "no field named %q", r.Name)
}

// Params holds the parameters of an aggregation step.
type Params map[string]interface{}

// Float returns the numeric parameter key, or def if it is absent.
func (p Params) Float(key string, def float64) (float64, error) {
	v, ok := p[key]
	if !ok || v == nil {
		return def, nil
	}
	switch v := v.(type) {
	case float64:
		return v, nil
	case int:
		return float64(v), nil
	case int64:
		return float64(v), nil
	case string:
		f, err := strconv.ParseFloat(v, 64)
		if err == nil {
			return f, nil
		}
	}
	return 0, errdefs.Configf("params."+key, "want a number, got %v", v)
}

// AggregateFunc computes a new field from xs.
type AggregateFunc func(xs []float64, params Params) ([]float64, error)

// AggregationStep applies a numeric operation to one field.
type AggregationStep struct {
	Func   string   `yaml:"func"`
	Field  FieldRef `yaml:"field"`
	Params Params   `yaml:"params"`

	// Fn, if non-nil, is used instead of looking up Func.
	Fn AggregateFunc `yaml:"-"`
}

// TransformFunc computes new plot data from data. It may return a
// different number of fields than it was given.
type TransformFunc func(env *Env, data PlotData, spec *Spec) (PlotData, error)

// TransformStep names a registered transform or supplies one directly.
type TransformStep struct {
	Name string
	Fn   TransformFunc
}

func (t *TransformStep) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.ScalarNode {
		return fmt.Errorf("line %d: transform must be a name", node.Line)
	}
	t.Name = node.Value
	return nil
}

func (t TransformStep) MarshalYAML() (interface{}, error) {
	return t.Name, nil
}

// Addon is a named add-on applied to the panel a series is drawn on.
// Options other than name are passed to the add-on.
type Addon struct {
	Name    string
	Options map[string]interface{}
}

func (a *Addon) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.ScalarNode {
		a.Name = node.Value
		return nil
	}
	var m map[string]interface{}
	if err := node.Decode(&m); err != nil {
		return err
	}
	name, _ := m["name"].(string)
	delete(m, "name")
	a.Name, a.Options = name, m
	return nil
}

func (a Addon) MarshalYAML() (interface{}, error) {
	m := map[string]interface{}{"name": a.Name}
	for k, v := range a.Options {
		m[k] = v
	}
	return m, nil
}

// FieldFunc produces series data directly instead of reading fields.
type FieldFunc func(ctx context.Context, opts map[string]interface{}) (PlotData, error)
