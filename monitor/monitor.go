// Copyright 2016 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package monitor is a client for the volcano monitoring API.
//
// Only the series listed in Names can be fetched. Each is served as a
// JSON list of records at
//
//	{protocol}://{host}/api/v1/{path}/?{query}
//
// which the client returns as a table with one column per record key.
package monitor

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sort"

	"github.com/aclements/go-gg/table"

	"github.com/declplot/declplot/config"
	"github.com/declplot/declplot/errdefs"
	"github.com/declplot/declplot/internal/tabular"
	"github.com/declplot/declplot/source"
)

// Names maps each supported series name to its API path.
var Names = map[string]string{
	"bulletin":        "bulletin",
	"doas":            "doas",
	"edm":             "edm",
	"emission":        "doas/emission",
	"gas_temperature": "gas/temperature",
	"gps_baseline":    "gps/baseline",
	"gps_position":    "gps/position",
	"lava_domes":      "lava-domes",
	"magnetic":        "magnetic",
	"meteorology":     "meteorology",
	"rainfall":        "rainfall",
	"rsam_infrasound": "rsam/infrasound",
	"rsam_seismic":    "rsam/seismic",
	"seismicity":      "seismicity",
	"slope":           "slope",
	"thermal":         "thermal",
	"thermal_axis":    "thermal/axis",
	"tiltborehole":    "tiltborehole",
	"tiltmeter":       "tiltmeter",
	"tiltmeter_raw":   "tiltmeter/raw",
}

// Supported reports whether name is a supported series name.
func Supported(name string) bool {
	_, ok := Names[name]
	return ok
}

// SortedNames returns the supported series names in order.
func SortedNames() []string {
	names := make([]string, 0, len(Names))
	for n := range Names {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Client fetches series from the monitoring API.
type Client struct {
	Settings config.Settings

	// HTTPClient is used for requests. nil means
	// http.DefaultClient.
	HTTPClient *http.Client

	Logger *slog.Logger
}

// NewClient returns a client using settings.
func NewClient(settings config.Settings) (*Client, error) {
	if err := settings.Validate(); err != nil {
		return nil, err
	}
	return &Client{Settings: settings}, nil
}

// URL returns the request URL for series name with params.
func (c *Client) URL(name string, params map[string]interface{}) (string, error) {
	path, ok := Names[name]
	if !ok {
		return "", &errdefs.UnknownSeriesNameError{Name: name}
	}
	u := fmt.Sprintf("%s://%s/api/v1/%s/", c.Settings.Protocol, c.Settings.Host, path)
	if q := source.EncodeQuery(params); q != "" {
		u += "?" + q
	}
	return u, nil
}

// Fetch fetches series name filtered by params. It returns an
// *errdefs.UnknownSeriesNameError if name is not supported and an
// *errdefs.DataSourceError if the request fails.
func (c *Client) Fetch(ctx context.Context, name string, params map[string]interface{}) (*table.Table, error) {
	u, err := c.URL(name, params)
	if err != nil {
		return nil, err
	}
	fail := func(err error) error {
		return &errdefs.DataSourceError{Kind: "name", Locator: name, Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fail(err)
	}
	req.Header.Set("Accept", "application/json")
	switch {
	case c.Settings.APIKey != "":
		req.Header.Set("Authorization", "Api-Key "+c.Settings.APIKey)
	case c.Settings.AccessToken != "":
		req.Header.Set("Authorization", "Bearer "+c.Settings.AccessToken)
	}

	hc := c.HTTPClient
	if hc == nil {
		hc = http.DefaultClient
	}
	c.logger().Debug("monitor request", "series", name, "url", u)
	resp, err := hc.Do(req)
	if err != nil {
		return nil, fail(err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fail(err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fail(fmt.Errorf("GET %s: %s", u, resp.Status))
	}
	tab, err := tabular.DecodeJSON(body)
	if err != nil {
		return nil, fail(err)
	}
	return tab, nil
}

func (c *Client) logger() *slog.Logger {
	if c.Logger == nil {
		return slog.Default()
	}
	return c.Logger
}
