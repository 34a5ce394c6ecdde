// Copyright (C) ClusterCockpit
// All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package cache keeps a small local history of parsed-bus digests and
// diff results in a sqlite database. "dbc-tool diff" records each diff
// result here. No caller reads recorded digests back to skip re-parsing
// a source, and the scheduled re-diff (internal/scheduler) records
// nothing here.
package cache

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"
	"github.com/mattn/go-sqlite3"
	"github.com/qustavo/sqlhooks/v2"

	"github.com/ClusterCockpit/cc-dbc/pkg/log"
)

var registerOnce sync.Once

// Cache wraps a sqlite-backed handle to the history database.
type Cache struct {
	db *sqlx.DB
}

// Open connects to (and, if necessary, creates and migrates) the sqlite
// database at path.
func Open(path string) (*Cache, error) {
	registerOnce.Do(func() {
		sql.Register("sqlite3_dbc_cache", sqlhooks.Wrap(&sqlite3.SQLiteDriver{}, queryLogHooks{}))
	})

	db, err := sqlx.Open("sqlite3_dbc_cache", fmt.Sprintf("%s?_foreign_keys=on", path))
	if err != nil {
		return nil, err
	}
	// sqlite does not benefit from concurrent writers; serialize access
	// through a single connection rather than wait on file locks.
	db.SetMaxOpenConns(1)

	if err := migrateDB(db.DB); err != nil {
		db.Close()
		return nil, err
	}
	return &Cache{db: db}, nil
}

func (c *Cache) Close() error { return c.db.Close() }

// BusDigest is one recorded parse of a DBC source file.
type BusDigest struct {
	ID           int64     `db:"id"`
	SourcePath   string    `db:"source_path"`
	Version      string    `db:"version"`
	MessageCount int       `db:"message_count"`
	NodeCount    int       `db:"node_count"`
	Digest       string    `db:"digest"`
	ParsedAt     time.Time `db:"parsed_at"`
}

// RecordBusDigest inserts a new digest row for a parsed bus.
func (c *Cache) RecordBusDigest(ctx context.Context, d BusDigest) error {
	query, args, err := sq.Insert("bus_digest").
		Columns("source_path", "version", "message_count", "node_count", "digest", "parsed_at").
		Values(d.SourcePath, d.Version, d.MessageCount, d.NodeCount, d.Digest, d.ParsedAt).
		PlaceholderFormat(sq.Question).
		ToSql()
	if err != nil {
		return err
	}
	_, err = c.db.ExecContext(ctx, query, args...)
	return err
}

// LatestBusDigest returns the most recently recorded digest for
// sourcePath, if any.
func (c *Cache) LatestBusDigest(ctx context.Context, sourcePath string) (*BusDigest, error) {
	query, args, err := sq.Select("id", "source_path", "version", "message_count", "node_count", "digest", "parsed_at").
		From("bus_digest").
		Where(sq.Eq{"source_path": sourcePath}).
		OrderBy("id DESC").
		Limit(1).
		PlaceholderFormat(sq.Question).
		ToSql()
	if err != nil {
		return nil, err
	}
	var d BusDigest
	if err := c.db.GetContext(ctx, &d, query, args...); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &d, nil
}

// DiffResult is one recorded comparison of two DBC sources.
type DiffResult struct {
	ID         int64     `db:"id"`
	LeftPath   string    `db:"left_path"`
	RightPath  string    `db:"right_path"`
	Difference string    `db:"difference"`
	DiffedAt   time.Time `db:"diffed_at"`
}

// RecordDiffResult inserts a new diff-result row.
func (c *Cache) RecordDiffResult(ctx context.Context, d DiffResult) error {
	query, args, err := sq.Insert("diff_result").
		Columns("left_path", "right_path", "difference", "diffed_at").
		Values(d.LeftPath, d.RightPath, d.Difference, d.DiffedAt).
		PlaceholderFormat(sq.Question).
		ToSql()
	if err != nil {
		return err
	}
	_, err = c.db.ExecContext(ctx, query, args...)
	if err != nil {
		log.Errorf("cache: failed to record diff result for %s vs %s: %v", d.LeftPath, d.RightPath, err)
	}
	return err
}
