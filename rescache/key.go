// Copyright 2016 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package rescache

import (
	"fmt"
	"reflect"
	"sort"
	"time"

	"github.com/gohugoio/hashstructure"

	"github.com/declplot/declplot/series"
)

// Key identifies a fetch: the source kind and locator plus its
// options as name-sorted pairs. Two sources whose options hold the
// same pairs have equal keys regardless of map order.
type Key struct {
	Kind    series.Kind
	Locator string
	Options []Pair
}

// Pair is one option of a Key. Value is in canonical form: nested
// mappings are sorted []Pair, lists are []interface{}, numbers are
// float64, and times are RFC 3339 strings in UTC.
type Pair struct {
	Name  string
	Value interface{}
}

// KeyOf returns the key of src.
func KeyOf(src series.Source) Key {
	return Key{
		Kind:    src.Kind,
		Locator: src.Locator,
		Options: pairs(src.Options),
	}
}

// keyFields has Key's fields but none of its methods, so hashstructure
// walks it instead of calling Key.Hash.
type keyFields Key

// Hash returns a hash of k. Equal keys have equal hashes.
func (k Key) Hash() (uint64, error) {
	return hashstructure.Hash(keyFields(k), nil)
}

func (k Key) String() string {
	return fmt.Sprintf("%s:%s%v", k.Kind, k.Locator, k.Options)
}

func pairs(m map[string]interface{}) []Pair {
	if len(m) == 0 {
		return nil
	}
	ps := make([]Pair, 0, len(m))
	for k, v := range m {
		ps = append(ps, Pair{k, canonical(v)})
	}
	sort.Slice(ps, func(i, j int) bool { return ps[i].Name < ps[j].Name })
	return ps
}

// canonical converts v to a form whose hash does not depend on map
// iteration order or on which numeric type a decoder chose.
func canonical(v interface{}) interface{} {
	switch v := v.(type) {
	case nil, string, bool, float64:
		return v
	case map[string]interface{}:
		return pairs(v)
	case map[interface{}]interface{}:
		m := make(map[string]interface{}, len(v))
		for k, e := range v {
			m[fmt.Sprint(k)] = e
		}
		return pairs(m)
	case time.Time:
		return v.UTC().Format(time.RFC3339Nano)
	case fmt.Stringer:
		return v.String()
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return float64(rv.Int())
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return float64(rv.Uint())
	case reflect.Float32:
		return rv.Float()
	case reflect.Slice, reflect.Array:
		out := make([]interface{}, rv.Len())
		for i := range out {
			out[i] = canonical(rv.Index(i).Interface())
		}
		return out
	case reflect.Map:
		m := make(map[string]interface{}, rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			m[fmt.Sprint(iter.Key().Interface())] = iter.Value().Interface()
		}
		return pairs(m)
	}
	return fmt.Sprintf("%#v", v)
}
