// Copyright 2016 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package config holds the settings used to reach the monitoring API.
//
// Settings are plain values. They are loaded once, by the caller,
// and passed to the API client when it is constructed.
package config

import (
	"bytes"
	"os"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/kelseyhightower/envconfig"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Defaults.
const (
	DefaultHost     = "cendana15.com"
	DefaultProtocol = "https"
	DefaultTimeZone = "Asia/Jakarta"
)

// EnvPrefix is the prefix of the environment variables read by
// FromEnv: DECLPLOT_API_KEY, DECLPLOT_ACCESS_TOKEN, DECLPLOT_HOST,
// DECLPLOT_PROTOCOL, and DECLPLOT_TIME_ZONE.
const EnvPrefix = "DECLPLOT"

// Settings configure access to the monitoring API.
type Settings struct {
	APIKey      string `yaml:"api_key" split_words:"true"`
	AccessToken string `yaml:"access_token" split_words:"true"`
	Host        string `yaml:"host"`
	Protocol    string `yaml:"protocol"`
	TimeZone    string `yaml:"timezone" split_words:"true"`
}

// Default returns the default settings.
func Default() Settings {
	return Settings{
		Host:     DefaultHost,
		Protocol: DefaultProtocol,
		TimeZone: DefaultTimeZone,
	}
}

// Load returns the default settings overridden by the YAML or JSON
// file at path. Unknown keys are an error.
func Load(path string) (Settings, error) {
	s := Default()
	b, err := os.ReadFile(path)
	if err != nil {
		return s, err
	}
	if err := s.Merge(b); err != nil {
		return s, errors.Wrapf(err, "loading settings from %s", path)
	}
	return s, nil
}

// Merge overrides s with the settings in the YAML or JSON document b.
// Settings absent from b are left unchanged.
func (s *Settings) Merge(b []byte) error {
	dec := yaml.NewDecoder(bytes.NewReader(b))
	dec.KnownFields(true)
	var o Settings
	if err := dec.Decode(&o); err != nil {
		if len(bytes.TrimSpace(b)) == 0 {
			return nil
		}
		return err
	}
	s.override(o)
	if o.Protocol != "" {
		return s.SetProtocol(o.Protocol)
	}
	return nil
}

// FromEnv overrides s with DECLPLOT_* environment variables.
func (s *Settings) FromEnv() error {
	var o Settings
	if err := envconfig.Process(EnvPrefix, &o); err != nil {
		return err
	}
	s.override(o)
	if o.Protocol != "" {
		return s.SetProtocol(o.Protocol)
	}
	return nil
}

func (s *Settings) override(o Settings) {
	if o.APIKey != "" {
		s.APIKey = o.APIKey
	}
	if o.AccessToken != "" {
		s.AccessToken = o.AccessToken
	}
	if o.Host != "" {
		s.Host = o.Host
	}
	if o.TimeZone != "" {
		s.TimeZone = o.TimeZone
	}
}

// SetProtocol sets the API protocol, http or https. The name is
// case-insensitive.
func (s *Settings) SetProtocol(p string) error {
	p = strings.ToLower(strings.TrimSpace(p))
	switch p {
	case "":
		return errors.New("protocol cannot be empty")
	case "http", "https":
		s.Protocol = p
		return nil
	}
	return errors.Errorf("unsupported protocol %q", p)
}

// SetAPIKey sets the API key.
func (s *Settings) SetAPIKey(key string) error {
	if key == "" {
		return errors.New("API key cannot be empty")
	}
	s.APIKey = key
	return nil
}

// SetAccessToken sets the API access token.
func (s *Settings) SetAccessToken(token string) error {
	if token == "" {
		return errors.New("access token cannot be empty")
	}
	s.AccessToken = token
	return nil
}

// SetHost overrides the API host.
func (s *Settings) SetHost(host string) error {
	if host == "" {
		return errors.New("API host cannot be empty")
	}
	s.Host = host
	return nil
}

// SetTimeZone sets the time zone used for chart time windows.
func (s *Settings) SetTimeZone(name string) error {
	if name == "" {
		return errors.New("time zone cannot be empty")
	}
	if _, err := time.LoadLocation(name); err != nil {
		return err
	}
	s.TimeZone = name
	return nil
}

// Location returns the time zone named by s.TimeZone, or UTC if it is
// empty.
func (s Settings) Location() (*time.Location, error) {
	if s.TimeZone == "" {
		return time.UTC, nil
	}
	return time.LoadLocation(s.TimeZone)
}

// Validate checks that s can be used to build API requests.
func (s Settings) Validate() error {
	if s.Host == "" {
		return errors.New("API host is not set")
	}
	switch s.Protocol {
	case "http", "https":
	default:
		return errors.Errorf("unsupported protocol %q", s.Protocol)
	}
	if _, err := s.Location(); err != nil {
		return err
	}
	return nil
}
