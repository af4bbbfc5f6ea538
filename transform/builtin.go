// Copyright 2016 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package transform

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/aclements/go-gg/generic/slice"
	"github.com/aclements/go-moremath/stats"
	"github.com/aclements/go-moremath/vec"

	"github.com/declplot/declplot/errdefs"
	"github.com/declplot/declplot/series"
	"github.com/declplot/declplot/source"
)

// seismicEnergy converts the magnitudes in field 1 to seismic energy
// in MJ, keeping field 0.
func seismicEnergy(env *series.Env, data series.PlotData, spec *series.Spec) (series.PlotData, error) {
	if len(data) < 2 {
		return nil, fmt.Errorf("need 2 fields, have %d", len(data))
	}
	mags, err := series.Floats(data[1])
	if err != nil {
		return nil, err
	}
	energy := vec.Map(func(m float64) float64 {
		return math.Pow(10, 11.8+1.5*m) / 1e12 / 10
	}, mags)
	return series.PlotData{data[0], energy}, nil
}

// dailyMax reduces field 1 to its maximum per calendar day of the
// times in field 0. The result has two fields: the days in order and
// their maxima. NaN values are ignored and days with no other values
// are dropped.
func dailyMax(env *series.Env, data series.PlotData, spec *series.Spec) (series.PlotData, error) {
	if len(data) < 2 {
		return nil, fmt.Errorf("need 2 fields, have %d", len(data))
	}
	times, err := timesOf(env, data[0])
	if err != nil {
		return nil, err
	}
	ys, err := series.Floats(data[1])
	if err != nil {
		return nil, err
	}

	byDay := make(map[time.Time][]float64)
	for i, t := range times {
		if i >= len(ys) || t.IsZero() || math.IsNaN(ys[i]) {
			continue
		}
		day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
		byDay[day] = append(byDay[day], ys[i])
	}
	days := make([]time.Time, 0, len(byDay))
	for day := range byDay {
		days = append(days, day)
	}
	sort.Slice(days, func(i, j int) bool { return days[i].Before(days[j]) })
	maxes := make([]float64, len(days))
	for i, day := range days {
		_, maxes[i] = stats.Bounds(byDay[day])
	}
	return series.PlotData{days, maxes}, nil
}

// dropNaN removes every row in which a numeric field is NaN or a time
// field is zero. All fields are truncated to the shortest field.
func dropNaN(env *series.Env, data series.PlotData, spec *series.Spec) (series.PlotData, error) {
	n := data.Rows()
	keep := make([]int, 0, n)
rows:
	for i := 0; i < n; i++ {
		for _, field := range data {
			switch field := field.(type) {
			case []float64:
				if math.IsNaN(field[i]) {
					continue rows
				}
			case []time.Time:
				if field[i].IsZero() {
					continue rows
				}
			}
		}
		keep = append(keep, i)
	}
	out := make(series.PlotData, len(data))
	for i, field := range data {
		out[i] = slice.Select(field, keep)
	}
	return out, nil
}

// slopeCorrection corrects EDM slope distances for reflector
// deviations. Each slope distance in field 1 has added to it the sum
// of every deviation recorded after its timestamp in field 0.
// Deviations come from the "slope" API series for the same benchmark
// and reflector. Series other than "edm" are returned unchanged.
func slopeCorrection(env *series.Env, data series.PlotData, spec *series.Spec) (series.PlotData, error) {
	if spec.Name != "edm" {
		return data, nil
	}
	if len(data) < 2 {
		return nil, fmt.Errorf("need 2 fields, have %d", len(data))
	}
	if env == nil || env.API == nil {
		return nil, &errdefs.DataSourceError{Kind: series.API.String(), Locator: "slope", Err: fmt.Errorf("no API client")}
	}
	q := spec.QueryParams
	params := make(map[string]interface{})
	if v := first(q, "timestamp__gte", "start_at"); v != nil {
		params["timestamp__gte"] = v
	}
	if v := first(q, "timestamp__lt", "end_at"); v != nil {
		params["timestamp__lt"] = v
	}
	for _, key := range []string{"benchmark", "reflector"} {
		v, ok := q[key]
		if !ok {
			return nil, errdefs.Configf("query_params."+key, "required by slope_correction")
		}
		params[key] = v
	}

	tab, err := env.API.Fetch(env.Ctx(), "slope", params)
	if err != nil {
		return nil, err
	}
	if tab == nil || tab.Len() == 0 {
		return data, nil
	}
	devTimes, err := timesOf(env, tab.Column("timestamp"))
	if err != nil {
		return nil, err
	}
	devs, err := series.Floats(tab.Column("deviation"))
	if err != nil {
		return nil, err
	}

	times, err := timesOf(env, data[0])
	if err != nil {
		return nil, err
	}
	dists, err := series.Floats(data[1])
	if err != nil {
		return nil, err
	}
	corrected := make([]float64, len(dists))
	for i, d := range dists {
		sum := 0.0
		if i < len(times) {
			for j, dt := range devTimes {
				if j < len(devs) && dt.After(times[i]) && !math.IsNaN(devs[j]) {
					sum += devs[j]
				}
			}
		}
		corrected[i] = d + sum
	}
	return series.PlotData{data[0], corrected}, nil
}

// first returns the value of the first of keys present in m.
func first(m map[string]interface{}, keys ...string) interface{} {
	for _, k := range keys {
		if v, ok := m[k]; ok && v != nil {
			return v
		}
	}
	return nil
}

func timesOf(env *series.Env, s interface{}) ([]time.Time, error) {
	ts, err := source.CoerceTimeIn(s, env.Loc())
	if err != nil {
		return nil, err
	}
	if times, ok := ts.([]time.Time); ok {
		return times, nil
	}
	return []time.Time{}, nil
}
