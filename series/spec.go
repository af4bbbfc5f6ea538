// Copyright 2016 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package series describes a single chart series: where its data
// comes from, which fields to extract, and the aggregation and
// transform steps applied to the extracted data.
//
// A Spec is built from configuration for each render and is not
// modified once data resolution begins. Steps operate on the
// resolved PlotData, never on the Spec.
package series

import (
	"fmt"
	"strings"
	"time"

	"github.com/declplot/declplot/errdefs"
)

// Kind identifies the data source of a series.
type Kind int

const (
	// Inline series carry literal field values.
	Inline Kind = iota
	// CSV series read a delimited file from a path or URL.
	CSV
	// URL series fetch a JSON array of objects.
	URL
	// API series fetch a named monitoring API series.
	API
)

func (k Kind) String() string {
	switch k {
	case Inline:
		return "inline"
	case CSV:
		return "csv"
	case URL:
		return "url"
	case API:
		return "name"
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Source is the active data source of a series.
type Source struct {
	Kind    Kind
	Locator string
	Options map[string]interface{}
}

// Types lists the supported plot types. The first is the default.
var Types = []string{"line", "scatter", "step", "area", "bar"}

// Spec is the configuration of one series.
type Spec struct {
	// Index optionally identifies the series for lookup after
	// rendering.
	Index string `yaml:"index"`

	// Source selectors. The first non-empty of CSV, URL, and Name
	// is the active source; if none is set the fields are inline
	// literal values.
	CSV         string                 `yaml:"csv"`
	URL         string                 `yaml:"url"`
	Name        string                 `yaml:"name"`
	QueryParams map[string]interface{} `yaml:"query_params"`
	CSVParams   map[string]interface{} `yaml:"csv_params"`

	Fields []Field `yaml:"fields"`

	// FieldFunc, if non-nil, produces the series data directly
	// and Fields may be empty. It is called with FieldOptions.
	FieldFunc    FieldFunc              `yaml:"-"`
	FieldOptions map[string]interface{} `yaml:"field_options"`

	XAxisDate bool `yaml:"xaxis_date"`
	YAxisDate bool `yaml:"yaxis_date"`

	// Location is the time zone date fields are read in: zoneless
	// timestamps are wall-clock times there, and others are
	// converted to its wall clock. Nil means UTC.
	Location *time.Location `yaml:"-"`

	Aggregations []AggregationStep `yaml:"aggregations"`
	Transforms   []TransformStep   `yaml:"transforms"`
	Addons       []Addon           `yaml:"addons"`

	// Rendering attributes.
	Type       string                 `yaml:"type"`
	Title      string                 `yaml:"title"`
	Labels     map[string]interface{} `yaml:"labels"`
	PlotParams map[string]interface{} `yaml:"plot_params"`
	Formatter  map[string]interface{} `yaml:"formatter"`

	// Accepted for compatibility but not drawn. Secondary is
	// validated.
	Legend    map[string]interface{} `yaml:"legend"`
	Locator   map[string]interface{} `yaml:"locator"`
	Grid      map[string]interface{} `yaml:"grid"`
	Secondary string                 `yaml:"secondary"`
}

// Source returns the active data source of s. Sources are checked in
// the order CSV, URL, Name.
func (s *Spec) Source() Source {
	switch {
	case s.CSV != "":
		return Source{Kind: CSV, Locator: s.CSV, Options: s.CSVParams}
	case s.URL != "":
		return Source{Kind: URL, Locator: s.URL, Options: s.QueryParams}
	case s.Name != "":
		return Source{Kind: API, Locator: s.Name, Options: s.QueryParams}
	}
	return Source{Kind: Inline}
}

// PlotType returns s.Type or the default plot type.
func (s *Spec) PlotType() string {
	if s.Type == "" {
		return Types[0]
	}
	return s.Type
}

// ID returns the identifier used to look s up: Index, Title, or the
// source locator.
func (s *Spec) ID() string {
	if s.Index != "" {
		return s.Index
	}
	if s.Title != "" {
		return s.Title
	}
	return s.Source().Locator
}

// Label returns the legend label of s.
func (s *Spec) Label() string {
	if l, ok := s.PlotParams["label"].(string); ok && l != "" {
		return l
	}
	if s.Title != "" {
		return s.Title
	}
	if names := s.FieldNames(); len(names) > 1 {
		return names[1]
	}
	return s.Source().Locator
}

// AxisLabel returns the label text for axis ("x" or "y"). The label
// may be configured as a string or as a mapping with a "text" key.
func (s *Spec) AxisLabel(axis string) string {
	switch v := s.Labels[axis].(type) {
	case string:
		return v
	case map[string]interface{}:
		if text, ok := v["text"].(string); ok {
			return text
		}
	}
	return ""
}

// AxisFormat returns the printf-style tick format for axis, configured
// as formatter.<axis>.major.format or formatter.<axis>.format.
func (s *Spec) AxisFormat(axis string) string {
	m, ok := s.Formatter[axis].(map[string]interface{})
	if !ok {
		return ""
	}
	if major, ok := m["major"].(map[string]interface{}); ok {
		m = major
	}
	f, _ := m["format"].(string)
	return f
}

// FieldNames returns the names of s's named fields. Literal fields
// have an empty name.
func (s *Spec) FieldNames() []string {
	names := make([]string, len(s.Fields))
	for i, f := range s.Fields {
		names[i] = f.Name
	}
	return names
}

// Validate checks s for errors that can be detected without I/O.
func (s *Spec) Validate() error {
	if len(s.Fields) == 0 && s.FieldFunc == nil {
		return &errdefs.InvalidFieldError{Series: s.ID()}
	}
	src := s.Source()
	for i, f := range s.Fields {
		if src.Kind != Inline && f.IsLiteral() {
			return errdefs.Configf(fmt.Sprintf("fields[%d]", i), "literal values given for %s series", src.Kind)
		}
		if src.Kind == Inline && !f.IsLiteral() && s.FieldFunc == nil {
			return errdefs.Configf(fmt.Sprintf("fields[%d]", i), "field %q needs a csv, url, or name source", f.Name)
		}
	}
	if !validType(s.PlotType()) {
		return errdefs.Configf("type", "unsupported plot type %q (want one of %s)", s.Type, strings.Join(Types, ", "))
	}
	for i, step := range s.Aggregations {
		path := fmt.Sprintf("aggregations[%d]", i)
		if step.Func == "" && step.Fn == nil {
			return errdefs.Configf(path, "func must be set")
		}
		if s.FieldFunc != nil {
			continue
		}
		if _, err := step.Field.Resolve(s.Fields, len(s.Fields)); err != nil {
			return errdefs.AtPath(path+".field", err)
		}
	}
	for i, step := range s.Transforms {
		if step.Name == "" && step.Fn == nil {
			return errdefs.Configf(fmt.Sprintf("transforms[%d]", i), "name must be set")
		}
	}
	for i, a := range s.Addons {
		if a.Name == "" {
			return errdefs.Configf(fmt.Sprintf("addons[%d]", i), "name must be set")
		}
	}
	switch s.Secondary {
	case "", "x", "y":
	default:
		return errdefs.Configf("secondary", "want x or y, got %q", s.Secondary)
	}
	return nil
}

func validType(t string) bool {
	for _, v := range Types {
		if v == t {
			return true
		}
	}
	return false
}
