// Copyright (C) ClusterCockpit
// All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.
package schema

import (
	"embed"
	"encoding/json"
	"fmt"
	"io"
	"net/url"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/ClusterCockpit/cc-dbc/pkg/log"
)

// Kind selects which embedded schema Validate checks a document against.
type Kind int

const (
	// Config is cc-dbc's own program configuration file.
	Config Kind = iota + 1
)

//go:embed schemas/*
var schemaFiles embed.FS

// Load implements jsonschema's ref-resolution Loader interface over the
// files embedded into this binary.
func Load(s string) (io.ReadCloser, error) {
	u, err := url.Parse(s)
	if err != nil {
		return nil, err
	}
	return schemaFiles.Open(u.Path)
}

func init() {
	jsonschema.Loaders["embedFS"] = Load
}

// Validate decodes r as JSON and checks it against the schema selected by
// k, returning a descriptive error on the first violation.
func Validate(k Kind, r io.Reader) error {
	var s *jsonschema.Schema
	var err error

	switch k {
	case Config:
		s, err = jsonschema.Compile("embedFS://schemas/config.schema.json")
	default:
		return fmt.Errorf("schema: unknown schema kind %d", k)
	}
	if err != nil {
		return err
	}

	var v interface{}
	if err := json.NewDecoder(r).Decode(&v); err != nil {
		log.Errorf("schema.Validate(): failed to decode document: %v", err)
		return err
	}

	if err := s.Validate(v); err != nil {
		return fmt.Errorf("%#v", err)
	}
	return nil
}
