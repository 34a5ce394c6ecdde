// Copyright (C) ClusterCockpit
// All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.
package config

import (
	"bytes"
	"encoding/json"
	"os"

	"github.com/joho/godotenv"

	"github.com/ClusterCockpit/cc-dbc/pkg/log"
	"github.com/ClusterCockpit/cc-dbc/pkg/schema"
)

// ProgramConfig is the toolkit's on-disk configuration, the JSON
// counterpart of pkg/schema's embedded config.schema.json.
type ProgramConfig struct {
	CacheDB           string          `json:"cache-db"`
	Archive           *ArchiveConfig  `json:"archive,omitempty"`
	NatsURL           string          `json:"nats-url,omitempty"`
	MetricsAddr       string          `json:"metrics-addr,omitempty"`
	DiffPolicy        string          `json:"diff-policy,omitempty"`
	SchedulerInterval string          `json:"scheduler-interval,omitempty"`
	LogLevel          string          `json:"log-level,omitempty"`
	LogDateTime       bool            `json:"log-date-time,omitempty"`
	SigningKeyPath    string          `json:"signing-key-path,omitempty"`
}

type ArchiveConfig struct {
	Bucket string `json:"bucket"`
	Region string `json:"region"`
	Prefix string `json:"prefix,omitempty"`
}

// Keys holds the process-wide configuration, defaulted here and
// overwritten by Init when a config file is present.
var Keys = ProgramConfig{
	CacheDB:           "./var/dbc-cache.db",
	SchedulerInterval: "1h",
	LogLevel:          "info",
}

// Init loads secrets from a .env file (if present, AWS/NATS credentials
// the process picks up from the environment afterward) and then, if
// flagConfigFile exists, validates and decodes it into Keys. A missing
// config file is not an error — the defaults above apply.
func Init(flagConfigFile string) error {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Warnf("config: failed to load .env: %v", err)
	}

	raw, err := os.ReadFile(flagConfigFile)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}

	if err := schema.Validate(schema.Config, bytes.NewReader(raw)); err != nil {
		return err
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&Keys); err != nil {
		return err
	}
	return nil
}
