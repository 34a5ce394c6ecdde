// Copyright (C) ClusterCockpit
// All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.
package cache

import (
	"database/sql"
	"embed"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/iofs"

	"github.com/ClusterCockpit/cc-dbc/pkg/log"
)

//go:embed migrations/sqlite3
var migrationFiles embed.FS

const schemaVersion uint = 1

// migrateDB brings the sqlite database behind db up to schemaVersion,
// creating its tables if they do not yet exist.
func migrateDB(db *sql.DB) error {
	driver, err := sqlite3.WithInstance(db, &sqlite3.Config{})
	if err != nil {
		return err
	}
	src, err := iofs.New(migrationFiles, "migrations/sqlite3")
	if err != nil {
		return err
	}
	m, err := migrate.NewWithInstance("iofs", src, "sqlite3", driver)
	if err != nil {
		return err
	}
	if err := m.Migrate(schemaVersion); err != nil && err != migrate.ErrNoChange {
		return err
	}
	v, dirty, err := m.Version()
	if err != nil && err != migrate.ErrNilVersion {
		return err
	}
	log.Debugf("cache: schema at version %d (dirty=%v)", v, dirty)
	return nil
}
