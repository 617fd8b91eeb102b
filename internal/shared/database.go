package shared

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

// NewDatabase opens a connection to a SQLite database at the specified path.
// The path can be ":memory:" for an in-memory database.
func NewDatabase(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return db, nil
}

// ConfigureDatabase sets connection pool settings for the database.
func ConfigureDatabase(db *sql.DB, maxOpenConns, maxIdleConns int) {
	if maxOpenConns > 0 {
		db.SetMaxOpenConns(maxOpenConns)
	}
	if maxIdleConns > 0 {
		db.SetMaxIdleConns(maxIdleConns)
	}
}

// OpenArchiveStore opens the database described by cfg and brings its schema up to date.
//
// Returns [ErrStoreDisabled] when the store is switched off.
func OpenArchiveStore(cfg DatabaseConfig) (*sql.DB, error) {
	if !cfg.Enabled {
		return nil, ErrStoreDisabled
	}

	db, err := NewDatabase(cfg.Path)
	if err != nil {
		return nil, err
	}
	ConfigureDatabase(db, cfg.MaxOpenConns, cfg.MaxIdleConns)

	if err := RunMigrations(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate %s: %w", cfg.Path, err)
	}
	return db, nil
}
