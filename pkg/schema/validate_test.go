// Copyright (C) ClusterCockpit
// All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.
package schema

import (
	"bytes"
	"testing"
)

func TestValidateConfig(t *testing.T) {
	json := []byte(`{
		"cache-db": "./var/dbc-cache.db",
		"archive": {"bucket": "can-buses", "region": "eu-west-1"},
		"log-level": "info"
	}`)

	if err := Validate(Config, bytes.NewReader(json)); err != nil {
		t.Errorf("Validate(Config) returned an error for a valid document: %v", err)
	}
}

func TestValidateConfigRejectsUnknownField(t *testing.T) {
	json := []byte(`{"cache-db": "./var/dbc-cache.db", "bogus-field": true}`)

	if err := Validate(Config, bytes.NewReader(json)); err == nil {
		t.Errorf("Validate(Config) accepted a document with an unknown field")
	}
}

func TestValidateConfigRequiresCacheDB(t *testing.T) {
	json := []byte(`{"log-level": "info"}`)

	if err := Validate(Config, bytes.NewReader(json)); err == nil {
		t.Errorf("Validate(Config) accepted a document missing the required cache-db field")
	}
}
