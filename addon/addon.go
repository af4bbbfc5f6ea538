// Copyright 2016 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package addon draws optional decorations on chart panels.
//
// Add-ons are named functions that add markers or layers to a panel
// after its series are drawn. A chart applies the add-ons listed in
// its extensions to every panel, and each series' own add-ons to the
// panel that series is drawn on. Add-ons are best effort: a name
// that is not registered is skipped.
package addon

import (
	"time"

	"github.com/aclements/go-gg/table"

	"github.com/declplot/declplot/registry"
	"github.com/declplot/declplot/render"
	"github.com/declplot/declplot/series"
	"github.com/declplot/declplot/source"
)

// Func decorates panel. env.Start and env.End bound the chart's time
// window; opts holds the add-on's configured options.
type Func func(env *series.Env, panel *render.Panel, opts map[string]interface{}) error

var funcs = registry.New[Func]("add-on")

// DomeDate is when the lava dome appeared.
var DomeDate = time.Date(2018, 8, 1, 0, 0, 0, 0, time.UTC)

func init() {
	funcs.MustRegister("explosion", explosion)
	funcs.MustRegister("dome", dome)
}

// Register adds fn as the add-on name. It returns a
// *errdefs.DuplicateRegistrationError if name is taken.
func Register(name string, fn Func) error {
	return funcs.Register(name, fn)
}

// MustRegister is like Register but panics if name is taken. It
// returns fn, so it can wrap a package-level function definition.
func MustRegister(name string, fn Func) Func {
	return funcs.MustRegister(name, fn)
}

// Unregister removes the add-on name.
func Unregister(name string) bool {
	return funcs.Unregister(name)
}

// Lookup returns the add-on registered as name.
func Lookup(name string) (Func, bool) {
	return funcs.Lookup(name)
}

// Names returns the registered add-on names.
func Names() []string {
	return funcs.Names()
}

// Apply applies the add-on name to panel. It reports whether the
// add-on is registered.
func Apply(env *series.Env, panel *render.Panel, name string, opts map[string]interface{}) (bool, error) {
	fn, ok := funcs.Lookup(name)
	if !ok {
		env.Log().Warn("skipping unknown add-on", "addon", name)
		return false, nil
	}
	return true, fn(env, panel, opts)
}

// inWindow reports whether t is within env's time window. A zero
// bound is unbounded.
func inWindow(env *series.Env, t time.Time) bool {
	if env == nil {
		return true
	}
	if !env.Start.IsZero() && t.Before(env.Start) {
		return false
	}
	if !env.End.IsZero() && t.After(env.End) {
		return false
	}
	return true
}

// explosion marks every explosion event in the seismic bulletin.
func explosion(env *series.Env, panel *render.Panel, opts map[string]interface{}) error {
	if env == nil || env.API == nil {
		return nil
	}
	tab, err := env.API.Fetch(env.Ctx(), "bulletin", map[string]interface{}{
		"eventtype": "EXPLOSION",
		"nolimit":   true,
	})
	if err != nil {
		return err
	}
	times, err := eventDates(env, tab)
	if err != nil {
		return err
	}
	label, _ := opts["label"].(string)
	for _, t := range times {
		if !t.IsZero() && inWindow(env, t) {
			panel.AddMarker(t, label)
		}
	}
	return nil
}

func eventDates(env *series.Env, tab *table.Table) ([]time.Time, error) {
	if tab == nil {
		return nil, nil
	}
	ts, err := source.CoerceTimeIn(tab.Column("eventdate"), env.Loc())
	if err != nil {
		return nil, err
	}
	times, _ := ts.([]time.Time)
	return times, nil
}

// dome marks the appearance of the lava dome.
func dome(env *series.Env, panel *render.Panel, opts map[string]interface{}) error {
	if inWindow(env, DomeDate) {
		label, _ := opts["label"].(string)
		panel.AddMarker(DomeDate, label)
	}
	return nil
}
