// Copyright 2016 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package source resolves series data sources into tables and
// extracts the requested fields from them.
//
// A series has exactly one active source, chosen by priority: a CSV
// file or URL, then a JSON URL, then a named monitoring API series.
// A series with none of these carries its data inline.
package source

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/aclements/go-gg/table"
	"github.com/pkg/errors"

	"github.com/declplot/declplot/errdefs"
	"github.com/declplot/declplot/internal/tabular"
	"github.com/declplot/declplot/series"
)

// A Fetcher fetches the table behind a non-inline source.
type Fetcher interface {
	Fetch(ctx context.Context, src series.Source) (*table.Table, error)
}

// FetcherFunc adapts a function to a Fetcher.
type FetcherFunc func(ctx context.Context, src series.Source) (*table.Table, error)

func (f FetcherFunc) Fetch(ctx context.Context, src series.Source) (*table.Table, error) {
	return f(ctx, src)
}

// Resolver is the default Fetcher. It reads CSV files and URLs,
// fetches JSON URLs, and delegates named series to API.
type Resolver struct {
	// Client is used for HTTP requests. nil means
	// http.DefaultClient.
	Client *http.Client

	// API fetches named monitoring API series. If nil, named
	// series fail to resolve.
	API series.APIClient

	// Dir is the directory relative CSV paths are resolved
	// against. Empty means the working directory.
	Dir string

	Logger *slog.Logger
}

func (r *Resolver) client() *http.Client {
	if r.Client == nil {
		return http.DefaultClient
	}
	return r.Client
}

func (r *Resolver) logger() *slog.Logger {
	if r.Logger == nil {
		return slog.Default()
	}
	return r.Logger
}

// Fetch fetches the table for src. Failures to read or decode the
// source are reported as *errdefs.DataSourceError.
func (r *Resolver) Fetch(ctx context.Context, src series.Source) (*table.Table, error) {
	r.logger().Debug("fetching source", "kind", src.Kind, "locator", src.Locator)
	var tab *table.Table
	var err error
	switch src.Kind {
	case series.CSV:
		tab, err = r.fetchCSV(ctx, src)
	case series.URL:
		tab, err = r.fetchJSON(ctx, src)
	case series.API:
		tab, err = r.fetchAPI(ctx, src)
	default:
		return nil, fmt.Errorf("%s series have no source to fetch", src.Kind)
	}
	if err != nil {
		return nil, err
	}
	r.logger().Debug("fetched source", "kind", src.Kind, "locator", src.Locator, "rows", tab.Len())
	return tab, nil
}

func (r *Resolver) fetchCSV(ctx context.Context, src series.Source) (*table.Table, error) {
	opts, err := tabular.ParseCSVOptions(src.Options)
	if err != nil {
		return nil, errdefs.AtPath("csv_params", err)
	}
	var rc io.ReadCloser
	if isRemote(src.Locator) {
		rc, err = r.get(ctx, src.Locator)
	} else {
		path := src.Locator
		if r.Dir != "" && !filepath.IsAbs(path) {
			path = filepath.Join(r.Dir, path)
		}
		rc, err = os.Open(path)
	}
	if err != nil {
		return nil, &errdefs.DataSourceError{Kind: src.Kind.String(), Locator: src.Locator, Err: err}
	}
	defer rc.Close()
	tab, err := tabular.ReadCSV(rc, opts)
	if err != nil {
		return nil, &errdefs.DataSourceError{Kind: src.Kind.String(), Locator: src.Locator, Err: err}
	}
	return tab, nil
}

func (r *Resolver) fetchJSON(ctx context.Context, src series.Source) (*table.Table, error) {
	u := src.Locator
	if q := EncodeQuery(src.Options); q != "" {
		if strings.Contains(u, "?") {
			u += "&" + q
		} else {
			u += "?" + q
		}
	}
	fail := func(err error) error {
		return &errdefs.DataSourceError{Kind: src.Kind.String(), Locator: u, Err: err}
	}
	rc, err := r.get(ctx, u)
	if err != nil {
		return nil, fail(err)
	}
	defer rc.Close()
	body, err := io.ReadAll(rc)
	if err != nil {
		return nil, fail(err)
	}
	tab, err := tabular.DecodeJSON(body)
	if err != nil {
		return nil, fail(err)
	}
	return tab, nil
}

func (r *Resolver) fetchAPI(ctx context.Context, src series.Source) (*table.Table, error) {
	if r.API == nil {
		return nil, &errdefs.DataSourceError{Kind: src.Kind.String(), Locator: src.Locator, Err: errors.New("no monitoring API client configured")}
	}
	tab, err := r.API.Fetch(ctx, src.Locator, src.Options)
	if err != nil {
		var unknown *errdefs.UnknownSeriesNameError
		var dse *errdefs.DataSourceError
		if errors.As(err, &unknown) || errors.As(err, &dse) {
			return nil, err
		}
		return nil, &errdefs.DataSourceError{Kind: src.Kind.String(), Locator: src.Locator, Err: err}
	}
	return tab, nil
}

// get issues a GET request for u and returns the body of a 200
// response.
func (r *Resolver) get(ctx context.Context, u string) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	resp, err := r.client().Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("GET %s: %s", u, resp.Status)
	}
	return resp.Body, nil
}

func isRemote(loc string) bool {
	return strings.HasPrefix(loc, "http://") || strings.HasPrefix(loc, "https://")
}

// Resolve returns the plot data of spec: it fetches spec's source
// with f and extracts the requested fields. Inline series are
// extracted without fetching, and series with a field function call
// it instead.
func Resolve(ctx context.Context, f Fetcher, spec *series.Spec) (series.PlotData, error) {
	if spec.FieldFunc != nil {
		return spec.FieldFunc(ctx, spec.FieldOptions)
	}
	src := spec.Source()
	if src.Kind == series.Inline {
		return Extract(nil, spec)
	}
	tab, err := f.Fetch(ctx, src)
	if err != nil {
		return nil, err
	}
	return Extract(tab, spec)
}
