// Copyright 2016 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package transform applies whole-series transforms to resolved
// series data.
//
// Unlike an aggregation, a transform sees every field of a series
// and the series configuration, and may return a different number of
// fields than it was given. Transforms run after aggregations, in the
// order the series lists them.
package transform

import (
	"fmt"

	"github.com/pkg/errors"

	"github.com/declplot/declplot/errdefs"
	"github.com/declplot/declplot/registry"
	"github.com/declplot/declplot/series"
)

// Func computes new series data from data. It must not modify data.
type Func = series.TransformFunc

var funcs = registry.New[Func]("transform")

func init() {
	funcs.MustRegister("seismic_energy", seismicEnergy)
	funcs.MustRegister("daily_max", dailyMax)
	funcs.MustRegister("drop_nan", dropNaN)
	funcs.MustRegister("slope_correction", slopeCorrection)
}

// Register adds fn as the transform name. It returns a
// *errdefs.DuplicateRegistrationError if name is taken.
func Register(name string, fn Func) error {
	return funcs.Register(name, fn)
}

// MustRegister is like Register but panics if name is taken. It
// returns fn, so it can wrap a package-level function definition.
func MustRegister(name string, fn Func) Func {
	return funcs.MustRegister(name, fn)
}

// Unregister removes the transform name.
func Unregister(name string) bool {
	return funcs.Unregister(name)
}

// Lookup returns the transform registered as name.
func Lookup(name string) (Func, bool) {
	return funcs.Lookup(name)
}

// Names returns the registered transform names.
func Names() []string {
	return funcs.Names()
}

// Apply runs spec's transforms over data in order. Each transform
// receives the previous one's output.
//
// A transform name that is not registered is logged and skipped.
func Apply(env *series.Env, data series.PlotData, spec *series.Spec) (series.PlotData, error) {
	for i, step := range spec.Transforms {
		fn := step.Fn
		if fn == nil {
			var ok bool
			if fn, ok = funcs.Lookup(step.Name); !ok {
				env.Log().Warn("skipping unknown transform", "transform", step.Name, "series", spec.ID())
				continue
			}
		}
		out, err := fn(env, data, spec)
		if err != nil {
			var ce *errdefs.ConfigurationError
			if errors.As(err, &ce) {
				return nil, errdefs.AtPath(fmt.Sprintf("transforms[%d]", i), err)
			}
			return nil, errors.Wrapf(err, "transform %s", stepName(step, i))
		}
		data = out
	}
	return data, nil
}

func stepName(step series.TransformStep, i int) string {
	if step.Name != "" {
		return step.Name
	}
	return fmt.Sprintf("transforms[%d]", i)
}
