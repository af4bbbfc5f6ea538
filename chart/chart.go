// Copyright 2016 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package chart renders declarative chart configurations.
//
// A chart is a vertical stack of panels, each drawing one or more
// series. Rendering builds every series in turn: its data is resolved
// from its source, run through its aggregations and transforms,
// plotted on its panel, and then decorated by its add-ons. Chart
// extensions decorate every panel last.
//
// Configuration errors are reported by New, before any data is
// fetched.
package chart

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/aclements/go-gg/table"
	"github.com/araddon/dateparse"
	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"github.com/declplot/declplot/addon"
	"github.com/declplot/declplot/aggregate"
	"github.com/declplot/declplot/config"
	"github.com/declplot/declplot/errdefs"
	"github.com/declplot/declplot/internal/tabular"
	"github.com/declplot/declplot/monitor"
	"github.com/declplot/declplot/render"
	"github.com/declplot/declplot/rescache"
	"github.com/declplot/declplot/series"
	"github.com/declplot/declplot/source"
	"github.com/declplot/declplot/transform"
)

// Chart is a validated chart configuration and, once rendered, its
// figure and series data. A Chart is not safe for concurrent use.
type Chart struct {
	cfg      *Config
	settings config.Settings
	loc      *time.Location
	logger   *slog.Logger

	httpClient *http.Client
	dir        string
	api        series.APIClient
	fetcher    source.Fetcher
	cache      *rescache.Cache

	start, end time.Time

	figure  *render.Figure
	results [][]*Result
}

// Result is one built series.
type Result struct {
	Panel, Index int
	Spec         *series.Spec

	// Data is the series data after aggregations and transforms.
	Data series.PlotData

	// Layer is the series' layer on its panel. It is nil until the
	// chart is rendered, or if the series had nothing to draw.
	Layer *render.Layer
}

// An Option configures a Chart.
type Option func(*Chart)

// WithSettings sets the monitoring API settings. The default is
// config.Default().
func WithSettings(s config.Settings) Option {
	return func(c *Chart) { c.settings = s }
}

// WithAPI sets the client used for named series, transforms, and
// add-ons, instead of a monitor.Client built from the settings.
func WithAPI(api series.APIClient) Option {
	return func(c *Chart) { c.api = api }
}

// WithFetcher replaces the source fetcher. Named series are fetched
// through it too.
func WithFetcher(f source.Fetcher) Option {
	return func(c *Chart) { c.fetcher = f }
}

// WithHTTPClient sets the HTTP client used for remote sources and the
// monitoring API.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Chart) { c.httpClient = hc }
}

// WithDir sets the directory relative CSV paths are resolved in.
func WithDir(dir string) Option {
	return func(c *Chart) { c.dir = dir }
}

// WithLogger sets the logger. The default is slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(c *Chart) { c.logger = l }
}

// New validates cfg and returns a chart ready to render. All
// configuration errors are reported here as
// *errdefs.ConfigurationError, *errdefs.InvalidFieldError, or an error
// wrapping them.
func New(cfg *Config, opts ...Option) (*Chart, error) {
	c := &Chart{cfg: cfg, settings: config.Default()}
	for _, opt := range opts {
		opt(c)
	}
	if c.logger == nil {
		c.logger = slog.Default()
	}

	tz := cfg.Timezone
	if tz == "" {
		tz = c.settings.TimeZone
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return nil, errdefs.Configf("timezone", "%v", err)
	}
	c.loc = loc

	if err := c.validate(); err != nil {
		return nil, err
	}

	if c.api == nil {
		mc, err := monitor.NewClient(c.settings)
		if err != nil {
			return nil, err
		}
		mc.HTTPClient, mc.Logger = c.httpClient, c.logger
		c.api = mc
	}
	if c.fetcher == nil {
		c.fetcher = &source.Resolver{Client: c.httpClient, API: c.api, Dir: c.dir, Logger: c.logger}
	}
	c.cache = rescache.New(c.fetcher, c.logger)
	return c, nil
}

// validate checks the configuration without doing any I/O.
func (c *Chart) validate() error {
	for i, panel := range c.cfg.Layout.Data {
		for j, spec := range panel.Series {
			path := fmt.Sprintf("layout.data[%d].series[%d]", i, j)
			if spec == nil {
				return errdefs.Configf(path, "empty series")
			}
			if spec.Location == nil {
				spec.Location = c.loc
			}
			if err := validateSeries(spec); err != nil {
				var ife *errdefs.InvalidFieldError
				if errors.As(err, &ife) {
					return errors.Wrap(err, path)
				}
				return errdefs.AtPath(path, err)
			}
		}
	}
	if c.cfg.Parallel < 0 {
		return errdefs.Configf("parallel", "must not be negative")
	}

	ext := c.cfg.Extensions
	if ext == nil {
		return nil
	}
	var err error
	if ext.StartTime != "" {
		if c.start, err = parseWindowTime(ext.StartTime, c.loc); err != nil {
			return errdefs.AtPath("extensions.starttime", err)
		}
	}
	if ext.EndTime != "" {
		if c.end, err = parseWindowTime(ext.EndTime, c.loc); err != nil {
			return errdefs.AtPath("extensions.endtime", err)
		}
	}
	if len(ext.Plot) > 0 {
		if ext.StartTime == "" {
			return errdefs.Configf("extensions.starttime", "required to plot extensions")
		}
		if ext.EndTime == "" {
			return errdefs.Configf("extensions.endtime", "required to plot extensions")
		}
	}
	for i, a := range ext.Plot {
		if a.Name == "" {
			return errdefs.Configf(fmt.Sprintf("extensions.plot[%d].name", i), "required")
		}
	}
	return nil
}

func validateSeries(spec *series.Spec) error {
	if err := spec.Validate(); err != nil {
		return err
	}
	src := spec.Source()
	switch src.Kind {
	case series.API:
		if !monitor.Supported(src.Locator) {
			return errdefs.AtPath("name", &errdefs.UnknownSeriesNameError{Name: src.Locator})
		}
	case series.CSV:
		if _, err := tabular.ParseCSVOptions(spec.CSVParams); err != nil {
			return errdefs.AtPath("csv_params", err)
		}
	}
	for k, step := range spec.Aggregations {
		if step.Fn == nil {
			if _, ok := aggregate.Lookup(step.Func); !ok {
				return errdefs.AtPath(fmt.Sprintf("aggregations[%d].func", k), &errdefs.UnsupportedAggregationError{Name: step.Func})
			}
		}
	}
	return nil
}

// parseWindowTime parses an extension time bound as wall-clock time
// in loc, returned without a zone like series timestamps.
func parseWindowTime(v string, loc *time.Location) (time.Time, error) {
	t, err := dateparse.ParseIn(v, loc)
	if err != nil {
		return time.Time{}, err
	}
	return source.WallClock(t, loc), nil
}

// NumPanels returns the number of panels in the chart.
func (c *Chart) NumPanels() int {
	return len(c.cfg.Layout.Data)
}

// Config returns the chart's configuration.
func (c *Chart) Config() *Config {
	return c.cfg
}

// Location returns the chart's time zone.
func (c *Chart) Location() *time.Location {
	return c.loc
}

// Window returns the extension time window. Both are zero if the
// chart has no extensions.
func (c *Chart) Window() (start, end time.Time) {
	return c.start, c.end
}

// Files returns the local CSV files the chart reads.
func (c *Chart) Files() []string {
	seen := make(map[string]bool)
	var files []string
	for _, panel := range c.cfg.Layout.Data {
		for _, spec := range panel.Series {
			src := spec.Source()
			if src.Kind != series.CSV || strings.HasPrefix(src.Locator, "http://") || strings.HasPrefix(src.Locator, "https://") {
				continue
			}
			path := src.Locator
			if c.dir != "" && !filepath.IsAbs(path) {
				path = filepath.Join(c.dir, path)
			}
			if !seen[path] {
				seen[path] = true
				files = append(files, path)
			}
		}
	}
	return files
}

func (c *Chart) env(ctx context.Context) *series.Env {
	api := c.api
	if c.cfg.UseCache {
		api = cachedAPI{c.cache}
	}
	return &series.Env{Context: ctx, API: api, Logger: c.logger, Start: c.start, End: c.end, Location: c.loc}
}

// cachedAPI fetches named series through the chart's cache so
// transforms and add-ons share fetches with series.
type cachedAPI struct {
	cache *rescache.Cache
}

func (a cachedAPI) Fetch(ctx context.Context, name string, params map[string]interface{}) (*table.Table, error) {
	return a.cache.Fetch(ctx, series.Source{Kind: series.API, Locator: name, Options: params})
}

// Resolve builds the data of every series without plotting it. The
// result is indexed by panel and then by series.
func (c *Chart) Resolve(ctx context.Context) ([][]*Result, error) {
	env := c.env(ctx)
	results := make([][]*Result, len(c.cfg.Layout.Data))
	var jobs []*Result
	for i, panel := range c.cfg.Layout.Data {
		results[i] = make([]*Result, len(panel.Series))
		for j, spec := range panel.Series {
			r := &Result{Panel: i, Index: j, Spec: spec}
			results[i][j] = r
			jobs = append(jobs, r)
		}
	}

	g, gctx := errgroup.WithContext(ctx)
	if c.cfg.Parallel > 1 {
		g.SetLimit(c.cfg.Parallel)
	} else {
		g.SetLimit(1)
	}
	env.Context = gctx
	for _, r := range jobs {
		r := r
		g.Go(func() error {
			data, err := c.build(env, r.Spec)
			if err != nil {
				return wrapSeries(r, err)
			}
			r.Data = data
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

func wrapSeries(r *Result, err error) error {
	path := fmt.Sprintf("layout.data[%d].series[%d]", r.Panel, r.Index)
	var ce *errdefs.ConfigurationError
	if errors.As(err, &ce) && ce == err {
		return errdefs.AtPath(path, err)
	}
	return errors.Wrap(err, path)
}

// build resolves, aggregates, and transforms one series.
func (c *Chart) build(env *series.Env, spec *series.Spec) (series.PlotData, error) {
	var data series.PlotData
	var err error
	if c.cfg.UseCache {
		data, err = c.cache.Resolve(env.Ctx(), spec)
	} else {
		data, err = source.Resolve(env.Ctx(), c.fetcher, spec)
	}
	if err != nil {
		return nil, err
	}
	if data, err = aggregate.Apply(data, spec); err != nil {
		return nil, err
	}
	return transform.Apply(env, data, spec)
}

// Render builds every series and draws the chart's figure. Rendering
// again re-resolves all data; with use_cache set, sources fetched by
// an earlier render are reused until CacheClear is called.
func (c *Chart) Render(ctx context.Context) error {
	results, err := c.Resolve(ctx)
	if err != nil {
		return err
	}
	env := c.env(ctx)

	fig := render.NewFigure(c.cfg.Title)
	fig.Width, fig.Height = c.cfg.FigureOptions.Size()
	if fig.Width == 0 {
		fig.Width = render.DefaultWidth
	}
	for i, pc := range c.cfg.Layout.Data {
		panel := fig.AddPanel(pc.Title)
		for _, r := range results[i] {
			if err := c.plot(panel, r); err != nil {
				return wrapSeries(r, err)
			}
			for _, a := range r.Spec.Addons {
				if _, err := addon.Apply(env, panel, a.Name, a.Options); err != nil {
					return wrapSeries(r, errors.Wrapf(err, "add-on %s", a.Name))
				}
			}
		}
		if ext := c.cfg.Extensions; ext != nil {
			for _, a := range ext.Plot {
				if _, err := addon.Apply(env, panel, a.Name, a.Options); err != nil {
					return errors.Wrapf(err, "extension %s", a.Name)
				}
			}
		}
	}
	c.figure, c.results = fig, results
	return nil
}

// plot draws r on panel. A series with one field is drawn against its
// row numbers.
func (c *Chart) plot(panel *render.Panel, r *Result) error {
	spec, data := r.Spec, r.Data
	if panel.Title == "" {
		panel.Title = spec.Title
	}
	if l := spec.AxisLabel("x"); l != "" {
		panel.XLabel = l
	}
	if l := spec.AxisLabel("y"); l != "" {
		panel.YLabel = l
	}
	if f := spec.AxisFormat("x"); f != "" {
		panel.XFormat = f
	}
	if f := spec.AxisFormat("y"); f != "" {
		panel.YFormat = f
	}

	var x, y table.Slice
	switch len(data) {
	case 0:
		c.logger.Warn("series has no data", "series", spec.ID())
		return nil
	case 1:
		n := series.Len(data[0])
		idx := make([]float64, n)
		for i := range idx {
			idx[i] = float64(i)
		}
		x, y = idx, data[0]
	default:
		x, y = data[0], data[1]
	}
	layer, err := panel.Plot(spec.PlotType(), spec.Label(), x, y)
	if err != nil {
		return err
	}
	if len(layer.X) == 0 {
		c.logger.Warn("series has no plottable rows", "series", spec.ID())
	}
	r.Layer = layer
	return nil
}

// Figure returns the rendered figure, or nil before Render.
func (c *Chart) Figure() *render.Figure {
	return c.figure
}

// WriteSVG writes the rendered chart to w as SVG.
func (c *Chart) WriteSVG(w io.Writer) error {
	if c.figure == nil {
		return errors.New("chart has not been rendered")
	}
	return c.figure.WriteSVG(w)
}

// Save writes the rendered chart to the named file. Only SVG output
// is supported.
func (c *Chart) Save(path string) error {
	if ext := strings.ToLower(filepath.Ext(path)); ext != ".svg" {
		return fmt.Errorf("cannot save %s: only .svg output is supported", path)
	}
	if c.figure == nil {
		return errors.New("chart has not been rendered")
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := c.figure.WriteSVG(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// Clear discards the rendered figure and series data. The cache is
// kept.
func (c *Chart) Clear() {
	c.figure, c.results = nil, nil
}

// CacheClear empties the chart's source cache.
func (c *Chart) CacheClear() {
	c.cache.Clear()
}

// CacheStats returns the chart's cache counters.
func (c *Chart) CacheStats() rescache.Stats {
	return c.cache.Stats()
}

// Series returns the rendered series whose ID is id.
func (c *Chart) Series(id string) (*Result, bool) {
	for _, panel := range c.results {
		for _, r := range panel {
			if r.Spec.ID() == id {
				return r, true
			}
		}
	}
	return nil, false
}

// SeriesAt returns series j of panel i.
func (c *Chart) SeriesAt(i, j int) (*Result, error) {
	if c.results == nil {
		return nil, errors.New("chart has not been rendered")
	}
	if i < 0 || i >= len(c.results) || j < 0 || j >= len(c.results[i]) {
		return nil, fmt.Errorf("no series %d in panel %d", j, i)
	}
	return c.results[i][j], nil
}

// Data returns the data of each series of panel i.
func (c *Chart) Data(i int) []series.PlotData {
	if i < 0 || i >= len(c.results) {
		return nil
	}
	out := make([]series.PlotData, len(c.results[i]))
	for j, r := range c.results[i] {
		out[j] = r.Data
	}
	return out
}

// AllData returns the data of every series, by panel.
func (c *Chart) AllData() [][]series.PlotData {
	out := make([][]series.PlotData, len(c.results))
	for i := range c.results {
		out[i] = c.Data(i)
	}
	return out
}
