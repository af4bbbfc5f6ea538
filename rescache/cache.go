// Copyright 2016 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package rescache deduplicates data source fetches across the series
// of a chart.
//
// A Cache fetches each distinct source (kind, locator, and options)
// at most once, even when many series request it concurrently, and
// remembers the extracted plot data of each distinct series shape.
// Entries live until Clear is called.
package rescache

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/aclements/go-gg/table"
	"github.com/gohugoio/hashstructure"
	gocache "github.com/patrickmn/go-cache"

	"github.com/declplot/declplot/series"
	"github.com/declplot/declplot/source"
)

const (
	resourcePrefix = "src/"
	dataPrefix     = "data/"
)

// Cache wraps a source.Fetcher with at-most-once fetching.
type Cache struct {
	fetcher source.Fetcher
	logger  *slog.Logger
	store   *gocache.Cache

	fetchesLock sync.Mutex
	fetches     map[string]*pendingFetch

	hits, misses, fetched atomic.Int64
}

type pendingFetch struct {
	key   Key
	tab   *table.Table
	err   error
	wchan chan struct{}
}

type resource struct {
	key Key
	tab *table.Table
}

// data is a memoised extraction. The key, fields, and date flags are
// kept to reject hash collisions.
type data struct {
	key          Key
	fields       []string
	xDate, yDate bool
	zone         string
	pd           series.PlotData
}

func (d *data) matches(key Key, spec *series.Spec) bool {
	fields := spec.FieldNames()
	if !sameKey(d.key, key) || d.xDate != spec.XAxisDate || d.yDate != spec.YAxisDate || d.zone != spec.Location.String() || len(d.fields) != len(fields) {
		return false
	}
	for i := range fields {
		if d.fields[i] != fields[i] {
			return false
		}
	}
	return true
}

type dataKey struct {
	Resource  uint64
	Fields    []string
	XAxisDate bool
	YAxisDate bool
	Zone      string
}

// New returns an empty cache that fetches with f. If logger is nil,
// slog.Default is used.
func New(f source.Fetcher, logger *slog.Logger) *Cache {
	if logger == nil {
		logger = slog.Default()
	}
	return &Cache{
		fetcher: f,
		logger:  logger,
		store:   gocache.New(gocache.NoExpiration, 0),
		fetches: make(map[string]*pendingFetch),
	}
}

// Resolve returns the plot data of spec, like source.Resolve, but
// fetches each distinct source only once and extracts each distinct
// combination of source, fields, and date coercion only once. The
// returned data is a copy the caller may modify.
func (c *Cache) Resolve(ctx context.Context, spec *series.Spec) (series.PlotData, error) {
	src := spec.Source()
	if spec.FieldFunc != nil || src.Kind == series.Inline {
		return source.Resolve(ctx, c.fetcher, spec)
	}

	key := KeyOf(src)
	rh, err := key.Hash()
	if err != nil {
		return nil, fmt.Errorf("hashing %v: %v", key, err)
	}
	fields := spec.FieldNames()
	dh, err := hashOf(dataKey{rh, fields, spec.XAxisDate, spec.YAxisDate, spec.Location.String()})
	if err != nil {
		return nil, err
	}
	if v, ok := c.store.Get(dataPrefix + dh); ok {
		if d := v.(*data); d.matches(key, spec) {
			c.hits.Add(1)
			c.logger.Debug("cache hit", "source", key, "fields", fields)
			return d.pd.Clone(), nil
		}
	}

	tab, err := c.resource(ctx, key, fmt.Sprintf("%016x", rh), src)
	if err != nil {
		return nil, err
	}
	pd, err := source.Extract(tab, spec)
	if err != nil {
		return nil, err
	}
	c.store.Set(dataPrefix+dh, &data{key, fields, spec.XAxisDate, spec.YAxisDate, spec.Location.String(), pd.Clone()}, gocache.NoExpiration)
	return pd, nil
}

// Fetch fetches src through the cache. It implements source.Fetcher.
func (c *Cache) Fetch(ctx context.Context, src series.Source) (*table.Table, error) {
	key := KeyOf(src)
	rh, err := key.Hash()
	if err != nil {
		return nil, fmt.Errorf("hashing %v: %v", key, err)
	}
	return c.resource(ctx, key, fmt.Sprintf("%016x", rh), src)
}

// resource returns the table for key, fetching it if no other caller
// has. This is safe to call concurrently. If several callers ask for
// the same key, one fetches and the rest block until it is done.
func (c *Cache) resource(ctx context.Context, key Key, h string, src series.Source) (*table.Table, error) {
	// Do we already have it?
	if tab, ok := c.lookup(key, h); ok {
		c.hits.Add(1)
		c.logger.Debug("cache hit", "source", key)
		return tab, nil
	}

	// Check if another fetcher is working on it.
	c.fetchesLock.Lock()
	if tab, ok := c.lookup(key, h); ok {
		c.fetchesLock.Unlock()
		c.hits.Add(1)
		return tab, nil
	}
	if p, ok := c.fetches[h]; ok && sameKey(p.key, key) {
		c.fetchesLock.Unlock()
		select {
		case <-p.wchan:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
		// A failed fetch is not reuse.
		if p.err == nil {
			c.hits.Add(1)
		}
		return p.tab, p.err
	}
	p := &pendingFetch{key: key, wchan: make(chan struct{})}
	c.fetches[h] = p
	c.fetchesLock.Unlock()

	c.misses.Add(1)
	c.logger.Debug("cache miss", "source", key)
	p.tab, p.err = c.fetcher.Fetch(ctx, src)
	c.fetched.Add(1)

	c.fetchesLock.Lock()
	if p.err == nil {
		c.store.Set(resourcePrefix+h, &resource{key, p.tab}, gocache.NoExpiration)
	}
	delete(c.fetches, h)
	c.fetchesLock.Unlock()
	close(p.wchan)
	return p.tab, p.err
}

func (c *Cache) lookup(key Key, h string) (*table.Table, bool) {
	v, ok := c.store.Get(resourcePrefix + h)
	if !ok {
		return nil, false
	}
	r := v.(*resource)
	if !sameKey(r.key, key) {
		return nil, false
	}
	return r.tab, true
}

func sameKey(a, b Key) bool {
	return a.String() == b.String()
}

// Clear empties the cache. Fetches in progress are not affected.
func (c *Cache) Clear() {
	c.store.Flush()
}

// Len returns the number of cached sources.
func (c *Cache) Len() int {
	n := 0
	for k := range c.store.Items() {
		if strings.HasPrefix(k, resourcePrefix) {
			n++
		}
	}
	return n
}

// Stats counts cache activity since the cache was created.
type Stats struct {
	Hits    int64
	Misses  int64
	Fetches int64
}

// Stats returns the cache's counters.
func (c *Cache) Stats() Stats {
	return Stats{Hits: c.hits.Load(), Misses: c.misses.Load(), Fetches: c.fetched.Load()}
}

func hashOf(v interface{}) (string, error) {
	h, err := hashstructure.Hash(v, nil)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%016x", h), nil
}
