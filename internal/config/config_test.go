// Copyright (C) ClusterCockpit
// All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.
package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
)

func TestInitMissingFileKeepsDefaults(t *testing.T) {
	Keys = ProgramConfig{CacheDB: "./var/dbc-cache.db", LogLevel: "info"}
	if err := Init(filepath.Join(t.TempDir(), "does-not-exist.json")); err != nil {
		t.Fatalf("Init returned an error for a missing config file: %v", err)
	}
	if Keys.CacheDB != "./var/dbc-cache.db" {
		t.Errorf("CacheDB = %q, want default to survive a missing config file", Keys.CacheDB)
	}
}

func TestInitDecodesValidFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "cc-dbc.json")
	doc := ProgramConfig{CacheDB: "./var/custom.db", LogLevel: "debug"}
	raw, err := json.Marshal(doc)
	if err != nil {
		t.Fatalf("marshal fixture: %v", err)
	}
	if err := os.WriteFile(path, raw, 0o600); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	if err := Init(path); err != nil {
		t.Fatalf("Init returned an error for a valid config file: %v", err)
	}
	if Keys.CacheDB != "./var/custom.db" || Keys.LogLevel != "debug" {
		t.Errorf("Keys = %+v, want decoded fixture values", Keys)
	}
}

func TestInitRejectsUnknownField(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "cc-dbc.json")
	if err := os.WriteFile(path, []byte(`{"cache-db": "x", "bogus": true}`), 0o600); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	if err := Init(path); err == nil {
		t.Errorf("Init accepted a config file with an unknown field")
	}
}
