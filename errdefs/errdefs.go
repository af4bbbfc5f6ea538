// Copyright 2016 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package errdefs defines the error types returned while building
// and rendering charts.
//
// All of these are concrete types so callers can match them with
// errors.As even after they have been wrapped with context.
package errdefs

import (
	"fmt"

	"github.com/pkg/errors"
)

// ConfigurationError reports a chart or series configuration that is
// missing a required attribute or names something that does not
// exist. It is detected before any I/O.
type ConfigurationError struct {
	// Path locates the offending attribute, for example
	// "layout.data[1].series[0].fields". It may be empty.
	Path string
	Msg  string
	Err  error
}

func (e *ConfigurationError) Error() string {
	msg := e.Msg
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	} else if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	if e.Path == "" {
		return "configuration: " + msg
	}
	return fmt.Sprintf("configuration: %s: %s", e.Path, msg)
}

func (e *ConfigurationError) Unwrap() error { return e.Err }

// Configf returns a ConfigurationError for path.
func Configf(path, format string, args ...interface{}) error {
	return &ConfigurationError{Path: path, Msg: fmt.Sprintf(format, args...)}
}

// AtPath wraps err in a ConfigurationError at path. If err is already
// a ConfigurationError, its path is prefixed with path instead.
func AtPath(path string, err error) error {
	if err == nil {
		return nil
	}
	var ce *ConfigurationError
	if errors.As(err, &ce) && ce == err {
		p := path
		if ce.Path != "" {
			p += "." + ce.Path
		}
		return &ConfigurationError{Path: p, Msg: ce.Msg, Err: ce.Err}
	}
	return &ConfigurationError{Path: path, Err: err}
}

// InvalidFieldError reports a series whose fields list is empty and
// that has no field function to produce data.
type InvalidFieldError struct {
	Series string
}

func (e *InvalidFieldError) Error() string {
	if e.Series == "" {
		return "series fields must be set"
	}
	return fmt.Sprintf("series %q: fields must be set", e.Series)
}

// DataSourceError reports a failure to read or decode a data source.
type DataSourceError struct {
	Kind    string
	Locator string
	Err     error
}

func (e *DataSourceError) Error() string {
	return fmt.Sprintf("%s source %q: %v", e.Kind, e.Locator, e.Err)
}

func (e *DataSourceError) Unwrap() error { return e.Err }

// UnknownSeriesNameError reports a monitoring API series name that is
// not in the supported set.
type UnknownSeriesNameError struct {
	Name string
}

func (e *UnknownSeriesNameError) Error() string {
	return fmt.Sprintf("unknown series name %q", e.Name)
}

// UnsupportedAggregationError reports an aggregation name that is not
// registered.
type UnsupportedAggregationError struct {
	Name string
}

func (e *UnsupportedAggregationError) Error() string {
	return fmt.Sprintf("unsupported aggregation %q", e.Name)
}

// DuplicateRegistrationError reports an attempt to register a name
// that is already registered.
type DuplicateRegistrationError struct {
	Registry string
	Name     string
}

func (e *DuplicateRegistrationError) Error() string {
	return fmt.Sprintf("%s %q already registered", e.Registry, e.Name)
}
