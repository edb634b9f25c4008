package db

import (
	"crypto/tls"
	"database/sql"
	"embed"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
)

//go:embed migrations/*.sql
var migrations embed.FS

const migrationsDir = "migrations"

// migrationConnConfig parses databaseURL with the same TLS handling as
// NewPool.
func migrationConnConfig(databaseURL string, tlsConfig *tls.Config) (*pgx.ConnConfig, error) {
	cc, err := pgx.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse db config: %w", err)
	}
	applyTLS(&cc.Config, tlsConfig)
	return cc, nil
}

func openMigrationDB(databaseURL string, tlsConfig *tls.Config) (*sql.DB, error) {
	goose.SetBaseFS(migrations)
	if err := goose.SetDialect("postgres"); err != nil {
		return nil, fmt.Errorf("set dialect: %w", err)
	}

	cc, err := migrationConnConfig(databaseURL, tlsConfig)
	if err != nil {
		return nil, err
	}
	return stdlib.OpenDB(*cc), nil
}

// RunMigrations applies all pending embedded migrations. Migrations write,
// so databaseURL must point at the primary.
func RunMigrations(databaseURL string, tlsConfig *tls.Config) error {
	db, err := openMigrationDB(databaseURL, tlsConfig)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := goose.Up(db, migrationsDir); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}

	return nil
}

// MigrationVersion returns the current schema version. It only reads, so it
// works against a replica too.
func MigrationVersion(databaseURL string, tlsConfig *tls.Config) (int64, error) {
	db, err := openMigrationDB(databaseURL, tlsConfig)
	if err != nil {
		return 0, err
	}
	defer db.Close()

	version, err := goose.GetDBVersion(db)
	if err != nil {
		return 0, fmt.Errorf("get migration version: %w", err)
	}
	return version, nil
}
