// Copyright 2016 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package errdefs

import (
	"testing"

	"github.com/pkg/errors"
)

func TestAtPath(t *testing.T) {
	inner := &UnknownSeriesNameError{Name: "nope"}
	err := AtPath("layout.data[0]", AtPath("series[1].name", inner))

	var ce *ConfigurationError
	if !errors.As(err, &ce) {
		t.Fatalf("want ConfigurationError, got %T", err)
	}
	if ce.Path != "layout.data[0].series[1].name" {
		t.Errorf("path = %q", ce.Path)
	}
	var ue *UnknownSeriesNameError
	if !errors.As(err, &ue) || ue.Name != "nope" {
		t.Errorf("cause not reachable from %v", err)
	}
	if got, want := err.Error(), `configuration: layout.data[0].series[1].name: unknown series name "nope"`; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
}

func TestWrappedDataSource(t *testing.T) {
	err := errors.Wrap(&DataSourceError{Kind: "csv", Locator: "x.csv", Err: errors.New("boom")}, "panel 0")
	var de *DataSourceError
	if !errors.As(err, &de) {
		t.Fatalf("want DataSourceError in %v", err)
	}
	if de.Locator != "x.csv" {
		t.Errorf("locator = %q", de.Locator)
	}
	if AtPath("p", nil) != nil {
		t.Errorf("AtPath(nil) != nil")
	}
}
