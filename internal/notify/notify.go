// Copyright (C) ClusterCockpit
// All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package notify publishes a DiffResult event to a NATS subject after a
// "dbc-tool diff -notify" run (when a NATS URL is configured), so
// downstream tooling (CI bots, dashboards) can react without polling the
// cache.
package notify

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
)

const Subject = "dbc.diff.result"

// DiffResult is the payload published after a comparison.
type DiffResult struct {
	LeftPath   string    `json:"left_path"`
	RightPath  string    `json:"right_path"`
	Difference string    `json:"difference"`
	Equal      bool      `json:"equal"`
	DiffedAt   time.Time `json:"diffed_at"`
}

// Publisher holds a connection to a NATS server.
type Publisher struct {
	conn *nats.Conn
}

// Connect dials url (e.g. "nats://localhost:4222").
func Connect(url string) (*Publisher, error) {
	conn, err := nats.Connect(url, nats.Name("cc-dbc"))
	if err != nil {
		return nil, fmt.Errorf("notify: connect to %s: %w", url, err)
	}
	return &Publisher{conn: conn}, nil
}

// Close drains and closes the underlying connection.
func (p *Publisher) Close() {
	p.conn.Drain()
}

// PublishDiffResult marshals and publishes r on Subject.
func (p *Publisher) PublishDiffResult(r DiffResult) error {
	data, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("notify: marshal diff result: %w", err)
	}
	if err := p.conn.Publish(Subject, data); err != nil {
		return fmt.Errorf("notify: publish: %w", err)
	}
	return nil
}
