// Copyright 2016 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package series

import (
	"bytes"
	"io"

	"gopkg.in/yaml.v3"
)

// Decode decodes YAML (or JSON) from r into v, rejecting keys that do
// not correspond to a field of v.
func Decode(r io.Reader, v interface{}) error {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(v); err != nil && err != io.EOF {
		return err
	}
	return nil
}

// DecodeNode decodes node into v with the same strictness as Decode.
// yaml.Node.Decode does not reject unknown keys, so custom
// unmarshalers that hold whole specs go through this instead.
func DecodeNode(node *yaml.Node, v interface{}) error {
	b, err := yaml.Marshal(node)
	if err != nil {
		return err
	}
	return Decode(bytes.NewReader(b), v)
}

// FromMap builds a Spec from a configuration mapping.
func FromMap(m map[string]interface{}) (*Spec, error) {
	b, err := yaml.Marshal(m)
	if err != nil {
		return nil, err
	}
	s := new(Spec)
	if err := Decode(bytes.NewReader(b), s); err != nil {
		return nil, err
	}
	return s, nil
}
