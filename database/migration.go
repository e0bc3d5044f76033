package database

import (
	"database/sql"
	"embed"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/mbolis/surveyforge/log"
	"github.com/pkg/errors"
)

//go:embed migrations
var dbMigrations embed.FS

// migrateDB brings the schema up to the latest embedded migration.
func migrateDB(db *sql.DB) error {
	src, err := iofs.New(dbMigrations, "migrations")
	if err != nil {
		return errors.Wrap(err, "db.migrate.source")
	}

	dst, err := sqlite3.WithInstance(db, &sqlite3.Config{})
	if err != nil {
		return errors.Wrap(err, "db.migrate.target")
	}

	migrator, err := migrate.NewWithInstance("iofs", src, "sqlite3", dst)
	if err != nil {
		return errors.Wrap(err, "db.migrate.init")
	}

	err = migrator.Up()
	if errors.Is(err, migrate.ErrNoChange) {
		return nil
	}
	if err != nil {
		return errors.Wrap(err, "db.migrate.up")
	}

	if version, dirty, err := migrator.Version(); err == nil {
		log.WithFields(log.Fields{"version": version, "dirty": dirty}).Info("db.migrate: schema updated")
	}
	return nil
}
