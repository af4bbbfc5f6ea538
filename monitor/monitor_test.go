// Copyright 2016 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package monitor

import (
	"context"
	"net/http"
	"testing"

	"github.com/jarcoal/httpmock"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/declplot/declplot/config"
	"github.com/declplot/declplot/errdefs"
)

func newTestClient(t *testing.T, s config.Settings) (*Client, *httpmock.MockTransport) {
	t.Helper()
	c, err := NewClient(s)
	require.NoError(t, err)
	mt := httpmock.NewMockTransport()
	c.HTTPClient = &http.Client{Transport: mt}
	return c, mt
}

func TestFetch(t *testing.T) {
	s := config.Default()
	s.Host = "api.test"
	s.APIKey = "secret"
	c, mt := newTestClient(t, s)

	mt.RegisterResponderWithQuery(http.MethodGet, "https://api.test/api/v1/tiltmeter/", "station=selokopo",
		func(req *http.Request) (*http.Response, error) {
			if got := req.Header.Get("Authorization"); got != "Api-Key secret" {
				return httpmock.NewStringResponse(401, "bad auth "+got), nil
			}
			return httpmock.NewStringResponse(200, `[{"timestamp": "2020-01-01 00:00:00", "x": 1.5, "y": -2}]`), nil
		})

	tab, err := c.Fetch(context.Background(), "tiltmeter", map[string]interface{}{"station": "selokopo"})
	require.NoError(t, err)
	assert.Equal(t, []string{"timestamp", "x", "y"}, tab.Columns())
	assert.Equal(t, []float64{1.5}, tab.Column("x"))
	assert.Equal(t, 1, mt.GetTotalCallCount())
}

func TestFetchToken(t *testing.T) {
	s := config.Default()
	s.AccessToken = "tok"
	require.NoError(t, s.SetProtocol("HTTP"))
	c, mt := newTestClient(t, s)

	mt.RegisterResponder(http.MethodGet, "http://"+config.DefaultHost+"/api/v1/slope/",
		func(req *http.Request) (*http.Response, error) {
			assert.Equal(t, "Bearer tok", req.Header.Get("Authorization"))
			return httpmock.NewStringResponse(200, `{"count": 0, "results": []}`), nil
		})
	tab, err := c.Fetch(context.Background(), "slope", nil)
	require.NoError(t, err)
	assert.Equal(t, 0, tab.Len())
}

func TestFetchErrors(t *testing.T) {
	c, mt := newTestClient(t, config.Default())
	mt.RegisterResponder(http.MethodGet, "https://"+config.DefaultHost+"/api/v1/doas/",
		httpmock.NewStringResponder(503, "down"))

	_, err := c.Fetch(context.Background(), "volcano", nil)
	var une *errdefs.UnknownSeriesNameError
	assert.True(t, errors.As(err, &une), "got %v", err)
	assert.Equal(t, 0, mt.GetTotalCallCount())

	_, err = c.Fetch(context.Background(), "doas", nil)
	var dse *errdefs.DataSourceError
	assert.True(t, errors.As(err, &dse), "got %v", err)
}

func TestURL(t *testing.T) {
	c := &Client{Settings: config.Default()}
	u, err := c.URL("gps_baseline", map[string]interface{}{"nolimit": true, "b": "x"})
	require.NoError(t, err)
	assert.Equal(t, "https://cendana15.com/api/v1/gps/baseline/?b=x&nolimit=true", u)
	assert.True(t, Supported("edm"))
	assert.False(t, Supported("EDM"))
	names := SortedNames()
	assert.Equal(t, len(Names), len(names))
	assert.Equal(t, "bulletin", names[0])
}

func TestNewClientValidates(t *testing.T) {
	s := config.Default()
	s.Protocol = "gopher"
	_, err := NewClient(s)
	assert.Error(t, err)
}
