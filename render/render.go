// Copyright 2016 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package render draws chart figures as SVG.
//
// A Figure is a vertical stack of Panels. Each Panel holds the series
// layers and vertical markers drawn on it. Rendering flattens the
// whole figure into one table with a row per point and hands it to
// gg, faceted by panel.
package render

import (
	"fmt"
	"io"
	"math"
	"time"

	"github.com/aclements/go-gg/gg"
	"github.com/aclements/go-gg/table"
	"github.com/aclements/go-moremath/stats"
	svg "github.com/ajstarks/svgo"

	"github.com/declplot/declplot/series"
)

// Default figure dimensions in pixels. Height is per panel.
const (
	DefaultWidth       = 800
	DefaultPanelHeight = 300
)

// Kinds lists the layer kinds a Panel can draw.
var Kinds = series.Types

// Figure is a stack of panels sharing a title.
type Figure struct {
	Title string

	// Width and Height are the image size in pixels. If Height
	// is 0, each panel is DefaultPanelHeight tall.
	Width, Height int

	Panels []*Panel
}

// NewFigure returns an empty figure.
func NewFigure(title string) *Figure {
	return &Figure{Title: title, Width: DefaultWidth}
}

// AddPanel appends a new panel to f and returns it.
func (f *Figure) AddPanel(title string) *Panel {
	p := &Panel{Title: title}
	f.Panels = append(f.Panels, p)
	return p
}

// Clear removes all panels from f.
func (f *Figure) Clear() {
	f.Panels = nil
}

// Panel is one subplot of a Figure.
type Panel struct {
	Title string

	// XLabel and YLabel override the automatic axis labels.
	XLabel, YLabel string

	// XFormat and YFormat are printf formats for tick labels.
	// For date axes XFormat is a time layout.
	XFormat, YFormat string

	// XDate is set when any layer's x values are times.
	XDate bool

	Layers  []*Layer
	Markers []Marker
}

// Layer is one series drawn on a panel.
type Layer struct {
	Kind  string
	Label string
	X, Y  []float64
}

// Marker is a vertical line at X.
type Marker struct {
	X     float64
	Label string
}

// Plot adds a layer of kind drawing y against x. Times are plotted as
// Unix seconds and mark the panel's x axis as a date axis. If x and y
// have different lengths, the extra values are ignored.
func (p *Panel) Plot(kind, label string, x, y table.Slice) (*Layer, error) {
	if !validKind(kind) {
		return nil, fmt.Errorf("unknown plot kind %q", kind)
	}
	if _, ok := x.([]time.Time); ok {
		p.XDate = true
	}
	xs, err := series.Floats(x)
	if err != nil {
		return nil, fmt.Errorf("x values: %v", err)
	}
	ys, err := series.Floats(y)
	if err != nil {
		return nil, fmt.Errorf("y values: %v", err)
	}
	n := len(xs)
	if len(ys) < n {
		n = len(ys)
	}
	l := &Layer{Kind: kind, Label: label, X: xs[:n], Y: ys[:n]}
	p.Layers = append(p.Layers, l)
	return l, nil
}

// AddMarker adds a vertical marker at time t.
func (p *Panel) AddMarker(t time.Time, label string) {
	p.Markers = append(p.Markers, Marker{X: float64(t.Unix()), Label: label})
}

// Empty reports whether p has nothing to draw.
func (p *Panel) Empty() bool {
	for _, l := range p.Layers {
		if len(l.X) > 0 {
			return false
		}
	}
	return len(p.Markers) == 0
}

// YBounds returns the range of p's finite y values, or [0, 1] if it
// has none.
func (p *Panel) YBounds() (lo, hi float64) {
	var ys []float64
	for _, l := range p.Layers {
		for _, y := range l.Y {
			if !math.IsNaN(y) && !math.IsInf(y, 0) {
				ys = append(ys, y)
			}
		}
		if l.Kind == "bar" || l.Kind == "area" {
			ys = append(ys, 0)
		}
	}
	if len(ys) == 0 {
		return 0, 1
	}
	lo, hi = stats.Bounds(ys)
	if lo == hi {
		lo, hi = lo-0.5, hi+0.5
	}
	return lo, hi
}

func validKind(kind string) bool {
	for _, k := range Kinds {
		if k == kind {
			return true
		}
	}
	return false
}

// WriteSVG renders f to w as SVG. A figure with nothing to draw is
// written as a blank canvas.
func (f *Figure) WriteSVG(w io.Writer) error {
	width, height := f.size()
	tab := f.table()
	if tab.Len() == 0 {
		return f.writeEmpty(w, width, height)
	}
	return f.plot(tab).WriteSVG(w, width, height)
}

func (f *Figure) size() (width, height int) {
	width, height = f.Width, f.Height
	if width <= 0 {
		width = DefaultWidth
	}
	if height <= 0 {
		n := len(f.Panels)
		if n == 0 {
			n = 1
		}
		height = n * DefaultPanelHeight
	}
	return
}

// writeEmpty writes a blank canvas with only the figure title.
func (f *Figure) writeEmpty(w io.Writer, width, height int) error {
	ew := &errWriter{w: w}
	canvas := svg.New(ew)
	canvas.Start(width, height)
	canvas.Rect(0, 0, width, height, "fill:white")
	if f.Title != "" {
		canvas.Text(width/2, 20, f.Title, "text-anchor:middle;font-family:sans-serif;font-size:14px")
	}
	canvas.End()
	return ew.err
}

type errWriter struct {
	w   io.Writer
	err error
}

func (e *errWriter) Write(b []byte) (int, error) {
	if e.err != nil {
		return 0, e.err
	}
	n, err := e.w.Write(b)
	e.err = err
	return n, err
}

// plot builds the gg plot of f.
func (f *Figure) plot(tab *table.Table) *gg.Plot {
	plot := gg.NewPlot(tab)

	xs := gg.NewLinearScaler()
	if tf := f.xFormatter(); tf != nil {
		xs.SetFormatter(tf)
	}
	plot.SetScale("x", xs)
	ys := gg.NewLinearScaler()
	if tf := f.yFormatter(); tf != nil {
		ys.SetFormatter(tf)
	}
	plot.SetScale("y", ys)

	if len(f.Panels) > 1 {
		plot.Add(gg.FacetY{
			Col:          "panel",
			SplitXScales: true,
			SplitYScales: true,
			Labeler: func(v interface{}) string {
				i, ok := v.(int)
				if !ok || i < 0 || i >= len(f.Panels) {
					return fmt.Sprint(v)
				}
				return f.Panels[i].Title
			},
		})
	}

	kinds := append(append([]string(nil), Kinds...), "marker")
	for _, kind := range kinds {
		sub := table.FilterEq(plot.Data(), "kind", kind)
		if emptyGrouping(sub) {
			continue
		}
		plot.Save()
		plot.SetData(sub)
		addLayer(plot, kind)
		plot.Restore()
	}

	if f.Title != "" {
		plot.Add(gg.Title(f.Title))
	} else if len(f.Panels) == 1 && f.Panels[0].Title != "" {
		plot.Add(gg.Title(f.Panels[0].Title))
	}
	// Without explicit labels gg would label the axes "x" and "y".
	plot.Add(gg.AxisLabel("x", f.axisLabel(func(p *Panel) string { return p.XLabel })))
	plot.Add(gg.AxisLabel("y", f.axisLabel(func(p *Panel) string { return p.YLabel })))
	return plot
}

func addLayer(plot *gg.Plot, kind string) {
	// Layers sharing a label still draw separately.
	plot.GroupBy("group")
	paths := gg.LayerPaths{X: "x", Y: "y", Color: "series"}
	switch kind {
	case "line":
		plot.Add(gg.LayerLines(paths))
	case "scatter":
		plot.Add(gg.LayerPoints{X: "x", Y: "y", Color: "series"})
	case "step":
		plot.Add(gg.LayerSteps{LayerPaths: paths, Step: gg.StepHV})
	case "area":
		plot.Add(gg.LayerArea{X: "x", Upper: "y", Fill: "series"})
	case "bar":
		// Each bar is its own two-point path from 0 to its value.
		plot.Add(paths)
	case "marker":
		// Markers are colored by their "marker" series value.
		plot.Add(paths)
	}
}

func emptyGrouping(g table.Grouping) bool {
	for _, gid := range g.Tables() {
		if g.Table(gid).Len() > 0 {
			return false
		}
	}
	return true
}

// table flattens f into one row per drawn point.
func (f *Figure) table() *table.Table {
	var (
		panel  []int
		kind   []string
		label  []string
		group  []int
		xs, ys []float64
	)
	add := func(p int, k, l string, g int, x, y float64) {
		panel = append(panel, p)
		kind = append(kind, k)
		label = append(label, l)
		group = append(group, g)
		xs = append(xs, x)
		ys = append(ys, y)
	}
	g := 0
	for pi, p := range f.Panels {
		for li, l := range p.Layers {
			name := l.Label
			if name == "" {
				name = fmt.Sprintf("series %d", li)
			}
			for i := range l.X {
				if math.IsNaN(l.X[i]) || math.IsNaN(l.Y[i]) {
					continue
				}
				if l.Kind == "bar" {
					add(pi, l.Kind, name, g, l.X[i], 0)
					add(pi, l.Kind, name, g, l.X[i], l.Y[i])
					g++
					continue
				}
				add(pi, l.Kind, name, g, l.X[i], l.Y[i])
			}
			g++
		}
		if len(p.Markers) > 0 {
			lo, hi := p.YBounds()
			for _, m := range p.Markers {
				add(pi, "marker", "marker", g, m.X, lo)
				add(pi, "marker", "marker", g, m.X, hi)
				g++
			}
		}
	}
	return new(table.Builder).
		Add("panel", panel).
		Add("kind", kind).
		Add("series", label).
		Add("group", group).
		Add("x", xs).
		Add("y", ys).
		Done()
}

// xFormatter returns the tick formatter for x. Date axes format Unix
// seconds as dates when every non-empty panel has dates.
func (f *Figure) xFormatter() func(float64) string {
	format := f.axisFormat(func(p *Panel) string { return p.XFormat })
	dates := true
	for _, p := range f.Panels {
		if !p.Empty() && len(p.Layers) > 0 && !p.XDate {
			dates = false
		}
	}
	if dates {
		if format == "" {
			format = "2006-01-02"
		}
		return func(x float64) string {
			return time.Unix(int64(x), 0).UTC().Format(format)
		}
	}
	return numberFormatter(format)
}

func (f *Figure) yFormatter() func(float64) string {
	return numberFormatter(f.axisFormat(func(p *Panel) string { return p.YFormat }))
}

func numberFormatter(format string) func(float64) string {
	if format == "" {
		return nil
	}
	return func(x float64) string { return fmt.Sprintf(format, x) }
}

// axisFormat returns the first format any panel sets.
func (f *Figure) axisFormat(get func(*Panel) string) string {
	for _, p := range f.Panels {
		if v := get(p); v != "" {
			return v
		}
	}
	return ""
}

// axisLabel returns the first label any panel sets.
func (f *Figure) axisLabel(get func(*Panel) string) string {
	return f.axisFormat(get)
}
