// Copyright 2016 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package rescache

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/aclements/go-gg/table"
	gocache "github.com/patrickmn/go-cache"
	"github.com/pkg/errors"

	"github.com/declplot/declplot/series"
	"github.com/declplot/declplot/source"
)

func TestKeyOrderIndependence(t *testing.T) {
	// Build the same options in different insertion orders,
	// including nested containers.
	a := map[string]interface{}{}
	a["benchmark"] = "BAB0"
	a["reflector"] = "RB2"
	a["filter"] = map[string]interface{}{"min": 1, "max": 2.5}
	a["stations"] = []interface{}{"a", "b"}

	b := map[string]interface{}{}
	b["stations"] = []string{"a", "b"}
	b["filter"] = map[interface{}]interface{}{"max": 2.5, "min": 1.0}
	b["reflector"] = "RB2"
	b["benchmark"] = "BAB0"

	ka := KeyOf(series.Source{Kind: series.API, Locator: "edm", Options: a})
	kb := KeyOf(series.Source{Kind: series.API, Locator: "edm", Options: b})
	ha, err := ka.Hash()
	if err != nil {
		t.Fatal(err)
	}
	hb, err := kb.Hash()
	if err != nil {
		t.Fatal(err)
	}
	if ha != hb {
		t.Errorf("hashes differ:\n%v %x\n%v %x", ka, ha, kb, hb)
	}
	if ka.String() != kb.String() {
		t.Errorf("keys differ:\n%v\n%v", ka, kb)
	}

	for _, other := range []series.Source{
		{Kind: series.API, Locator: "edm", Options: map[string]interface{}{"benchmark": "BAB0"}},
		{Kind: series.URL, Locator: "edm", Options: a},
		{Kind: series.API, Locator: "slope", Options: a},
	} {
		h, err := KeyOf(other).Hash()
		if err != nil {
			t.Fatal(err)
		}
		if h == ha {
			t.Errorf("%v hashes the same as %v", KeyOf(other), ka)
		}
	}
}

func TestKeyHash(t *testing.T) {
	k := KeyOf(series.Source{Kind: series.API, Locator: "edm", Options: map[string]interface{}{"a": 1, "b": "x"}})
	h1, err := k.Hash()
	if err != nil {
		t.Fatal(err)
	}
	h2, err := KeyOf(series.Source{Kind: series.API, Locator: "edm", Options: map[string]interface{}{"b": "x", "a": 1.0}}).Hash()
	if err != nil {
		t.Fatal(err)
	}
	if h1 != h2 {
		t.Errorf("hash %x != %x", h1, h2)
	}
}

type countingFetcher struct {
	calls atomic.Int64
	delay time.Duration
	err   error
}

func (f *countingFetcher) Fetch(ctx context.Context, src series.Source) (*table.Table, error) {
	f.calls.Add(1)
	if f.delay > 0 {
		time.Sleep(f.delay)
	}
	if f.err != nil {
		return nil, f.err
	}
	return new(table.Builder).
		Add("timestamp", []string{"2020-01-01", "2020-01-02"}).
		Add("x", []float64{1, 2}).
		Add("y", []float64{3, 4}).
		Add("temperature", []float64{25, 26}).
		Done(), nil
}

func tiltSpecs() []*series.Spec {
	var specs []*series.Spec
	for _, f := range []string{"x", "y", "temperature"} {
		specs = append(specs, &series.Spec{
			Name:        "tiltmeter",
			QueryParams: map[string]interface{}{"station": "selokopo", "timestamp__gte": "2020-01-01"},
			Fields:      []series.Field{series.Named("timestamp"), series.Named(f)},
			XAxisDate:   true,
		})
	}
	return specs
}

func TestAtMostOnce(t *testing.T) {
	f := &countingFetcher{}
	c := New(f, nil)
	for _, spec := range tiltSpecs() {
		data, err := c.Resolve(context.Background(), spec)
		if err != nil {
			t.Fatal(err)
		}
		if series.Len(data[1]) != 2 {
			t.Errorf("field %s: %v", spec.Fields[1].Name, data[1])
		}
	}
	if n := f.calls.Load(); n != 1 {
		t.Errorf("fetched %d times, want 1", n)
	}
	if c.Len() != 1 {
		t.Errorf("Len() = %d, want 1", c.Len())
	}

	// Without the cache every series fetches.
	f2 := &countingFetcher{}
	for _, spec := range tiltSpecs() {
		if _, err := source.Resolve(context.Background(), f2, spec); err != nil {
			t.Fatal(err)
		}
	}
	if n := f2.calls.Load(); n != 3 {
		t.Errorf("uncached fetched %d times, want 3", n)
	}
}

func TestMemoizedData(t *testing.T) {
	f := &countingFetcher{}
	c := New(f, nil)
	spec := tiltSpecs()[0]
	first, err := c.Resolve(context.Background(), spec)
	if err != nil {
		t.Fatal(err)
	}
	// Mutating a result must not affect later hits.
	first[1].([]float64)[0] = 1000
	second, err := c.Resolve(context.Background(), spec)
	if err != nil {
		t.Fatal(err)
	}
	if got := second[1].([]float64)[0]; got != 1 {
		t.Errorf("cached data was modified: %v", got)
	}
	if _, ok := second[0].([]time.Time); !ok {
		t.Errorf("x field is %T, want []time.Time", second[0])
	}
	if st := c.Stats(); st.Fetches != 1 || st.Hits != 1 {
		t.Errorf("stats = %+v", st)
	}
}

func TestConcurrentSingleFetch(t *testing.T) {
	f := &countingFetcher{delay: 20 * time.Millisecond}
	c := New(f, nil)
	var wg sync.WaitGroup
	errs := make(chan error, 30)
	for i := 0; i < 10; i++ {
		for _, spec := range tiltSpecs() {
			wg.Add(1)
			go func(spec *series.Spec) {
				defer wg.Done()
				_, err := c.Resolve(context.Background(), spec)
				errs <- err
			}(spec)
		}
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		if err != nil {
			t.Fatal(err)
		}
	}
	if n := f.calls.Load(); n != 1 {
		t.Errorf("fetched %d times, want 1", n)
	}
}

func TestClear(t *testing.T) {
	f := &countingFetcher{}
	c := New(f, nil)
	spec := tiltSpecs()[0]
	for i := 0; i < 2; i++ {
		if _, err := c.Resolve(context.Background(), spec); err != nil {
			t.Fatal(err)
		}
		c.Clear()
		if c.Len() != 0 {
			t.Errorf("Len() after Clear = %d", c.Len())
		}
	}
	if n := f.calls.Load(); n != 2 {
		t.Errorf("fetched %d times, want 2", n)
	}
}

func TestErrorsNotCached(t *testing.T) {
	boom := errors.New("boom")
	f := &countingFetcher{err: boom}
	c := New(f, nil)
	spec := tiltSpecs()[0]
	for i := 0; i < 2; i++ {
		if _, err := c.Resolve(context.Background(), spec); err != boom {
			t.Fatalf("got %v, want %v", err, boom)
		}
	}
	if n := f.calls.Load(); n != 2 {
		t.Errorf("fetched %d times, want 2", n)
	}
}

func TestInlineBypassesCache(t *testing.T) {
	f := &countingFetcher{}
	c := New(f, nil)
	spec := &series.Spec{Fields: []series.Field{series.Literal([]float64{1, 2, 3})}}
	data, err := c.Resolve(context.Background(), spec)
	if err != nil {
		t.Fatal(err)
	}
	if series.Len(data[0]) != 3 || f.calls.Load() != 0 || c.Len() != 0 {
		t.Errorf("inline series: data %v, fetches %d, len %d", data, f.calls.Load(), c.Len())
	}
}

func TestMemoizedDataChecksKey(t *testing.T) {
	f := &countingFetcher{}
	c := New(f, nil)
	spec := tiltSpecs()[0]

	// Plant data for a different source under spec's memo hash.
	key := KeyOf(spec.Source())
	rh, err := key.Hash()
	if err != nil {
		t.Fatal(err)
	}
	dh, err := hashOf(dataKey{rh, spec.FieldNames(), spec.XAxisDate, spec.YAxisDate, spec.Location.String()})
	if err != nil {
		t.Fatal(err)
	}
	other := KeyOf(series.Source{Kind: series.API, Locator: "edm"})
	c.store.Set(dataPrefix+dh, &data{other, spec.FieldNames(), spec.XAxisDate, spec.YAxisDate, spec.Location.String(), series.PlotData{nil, []float64{99}}}, gocache.NoExpiration)

	got, err := c.Resolve(context.Background(), spec)
	if err != nil {
		t.Fatal(err)
	}
	if xs := got[1].([]float64); len(xs) != 2 || xs[0] != 1 {
		t.Errorf("got planted data %v", got[1])
	}
	if n := f.calls.Load(); n != 1 {
		t.Errorf("fetched %d times, want 1", n)
	}
}

func TestFailedFetchNotCountedAsHit(t *testing.T) {
	boom := errors.New("boom")
	f := &countingFetcher{delay: 20 * time.Millisecond, err: boom}
	c := New(f, nil)
	src := tiltSpecs()[0].Source()
	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := c.Fetch(context.Background(), src); err != boom {
				t.Errorf("got %v, want %v", err, boom)
			}
		}()
	}
	wg.Wait()
	if st := c.Stats(); st.Hits != 0 || st.Fetches != f.calls.Load() {
		t.Errorf("stats = %+v with %d fetches", st, f.calls.Load())
	}
}
