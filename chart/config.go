// Copyright 2016 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package chart

import (
	"bytes"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/declplot/declplot/series"
)

// Config is a chart configuration. Unknown keys are rejected when a
// Config is decoded.
type Config struct {
	Title    string `yaml:"title"`
	Timezone string `yaml:"timezone"`
	Theme    string `yaml:"theme"` // ignored

	// UseCache makes series that read the same source with the
	// same options share one fetch.
	UseCache bool `yaml:"use_cache"`

	// Parallel is the number of series resolved concurrently.
	// 0 or 1 resolves them one at a time.
	Parallel int `yaml:"parallel"`

	FigureOptions FigureOptions `yaml:"figure_options"`
	Layout        Layout        `yaml:"layout"`
	Extensions    *Extensions   `yaml:"extensions"`

	// Accepted for compatibility but ignored.
	Legend      map[string]interface{} `yaml:"legend"`
	SaveOptions map[string]interface{} `yaml:"save_options"`
	TightLayout map[string]interface{} `yaml:"tight_layout"`
}

// FigureOptions size the rendered figure. Width and Height are in
// pixels; alternatively Figsize gives width and height in inches at
// DPI dots per inch (default 100).
type FigureOptions struct {
	Width   int       `yaml:"width"`
	Height  int       `yaml:"height"`
	Figsize []float64 `yaml:"figsize"`
	DPI     float64   `yaml:"dpi"`
}

// Size returns the figure size in pixels. Zero means the default.
func (o FigureOptions) Size() (width, height int) {
	width, height = o.Width, o.Height
	if len(o.Figsize) == 2 {
		dpi := o.DPI
		if dpi <= 0 {
			dpi = 100
		}
		if width == 0 {
			width = int(o.Figsize[0] * dpi)
		}
		if height == 0 {
			height = int(o.Figsize[1] * dpi)
		}
	}
	return
}

// Layout lists the chart's panels, top to bottom.
type Layout struct {
	Data []Panel `yaml:"data"`

	// Panels are always stacked vertically; these are ignored.
	Type    string                 `yaml:"type"`
	Size    []int                  `yaml:"size"`
	Options map[string]interface{} `yaml:"options"`
}

// Panel is one subplot.
type Panel struct {
	Title  string     `yaml:"title"`
	Series SeriesList `yaml:"series"`

	// Accepted for compatibility but not drawn.
	Legend  map[string]interface{} `yaml:"legend"`
	Options map[string]interface{} `yaml:"options"`
	Grid    map[string]interface{} `yaml:"grid"`
}

// SeriesList is the series of a panel. In configuration it is either
// one series mapping or a list of them.
type SeriesList []*series.Spec

func (l *SeriesList) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.MappingNode:
		spec := new(series.Spec)
		if err := series.DecodeNode(node, spec); err != nil {
			return err
		}
		*l = SeriesList{spec}
		return nil
	case yaml.SequenceNode:
		out := make(SeriesList, 0, len(node.Content))
		for _, n := range node.Content {
			spec := new(series.Spec)
			if err := series.DecodeNode(n, spec); err != nil {
				return err
			}
			out = append(out, spec)
		}
		*l = out
		return nil
	case yaml.ScalarNode:
		if node.Tag == "!!null" {
			*l = nil
			return nil
		}
	}
	return fmt.Errorf("line %d: series must be a mapping or a list of mappings", node.Line)
}

// Extensions decorate every panel with add-ons over a time window.
type Extensions struct {
	StartTime string                 `yaml:"starttime"`
	EndTime   string                 `yaml:"endtime"`
	Plot      []series.Addon         `yaml:"plot"`
	Legend    map[string]interface{} `yaml:"legend"` // ignored
}

// Load decodes a chart configuration from YAML or JSON.
func Load(r io.Reader) (*Config, error) {
	cfg := new(Config)
	if err := series.Decode(r, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadFile decodes the chart configuration in the named file.
func LoadFile(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	cfg, err := Load(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %v", path, err)
	}
	return cfg, nil
}

// ParseMap builds a chart configuration from a mapping, as if it had
// been decoded from YAML.
func ParseMap(m map[string]interface{}) (*Config, error) {
	b, err := yaml.Marshal(m)
	if err != nil {
		return nil, err
	}
	return Load(bytes.NewReader(b))
}
