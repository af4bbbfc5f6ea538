// Copyright 2016 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package registry implements a named function registry.
//
// A Registry maps names to functions. It is populated with built-ins
// at package initialization and extended with Register. Registering
// a name twice is an error; Unregister removes a name so tests can
// install and remove their own entries.
package registry

import (
	"sort"
	"sync"

	"github.com/declplot/declplot/errdefs"
)

// Registry is a concurrency-safe map from name to F.
type Registry[F any] struct {
	kind string

	mu sync.RWMutex
	m  map[string]F
}

// New returns an empty registry. kind names the registry in errors,
// for example "aggregation".
func New[F any](kind string) *Registry[F] {
	return &Registry[F]{kind: kind, m: make(map[string]F)}
}

// Register adds fn under name. It returns a
// *errdefs.DuplicateRegistrationError if name is already registered.
func (r *Registry[F]) Register(name string, fn F) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.m[name]; ok {
		return &errdefs.DuplicateRegistrationError{Registry: r.kind, Name: name}
	}
	r.m[name] = fn
	return nil
}

// MustRegister is like Register, but panics on error and returns fn.
// It is meant for package-level registration:
//
//	var smooth = transform.MustRegister("smooth", func(env *series.Env, data series.PlotData, spec *series.Spec) (series.PlotData, error) {...})
func (r *Registry[F]) MustRegister(name string, fn F) F {
	if err := r.Register(name, fn); err != nil {
		panic(err)
	}
	return fn
}

// Unregister removes name. It reports whether name was registered.
func (r *Registry[F]) Unregister(name string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.m[name]
	delete(r.m, name)
	return ok
}

// Lookup returns the function registered under name.
func (r *Registry[F]) Lookup(name string) (F, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	fn, ok := r.m[name]
	return fn, ok
}

// Has reports whether name is registered.
func (r *Registry[F]) Has(name string) bool {
	_, ok := r.Lookup(name)
	return ok
}

// Names returns the registered names in sorted order.
func (r *Registry[F]) Names() []string {
	r.mu.RLock()
	names := make([]string, 0, len(r.m))
	for name := range r.m {
		names = append(names, name)
	}
	r.mu.RUnlock()
	sort.Strings(names)
	return names
}
