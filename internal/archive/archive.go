// Package archive persists generated levels in SQLite or PostgreSQL so a
// seed's descent can be listed, inspected and redrawn later.
package archive

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)

// Archive wraps the database connection and the level queries.
type Archive struct {
	db      *sql.DB
	dialect Dialect
	qb      *QueryBuilder
}

// Open opens or creates the SQLite archive at the given path.
func Open(path string) (*Archive, error) {
	return OpenWithConfig(DefaultConfig(path))
}

// OpenWithConfig opens the archive described by cfg and runs migrations.
func OpenWithConfig(cfg Config) (*Archive, error) {
	dialect := NewDialect(DialectType(cfg.Driver))

	var db *sql.DB
	var err error
	switch cfg.Driver {
	case "", "sqlite":
		db, err = openSQLite(cfg.SQLitePath)
	case "postgres":
		db, err = openPostgres(cfg.Postgres)
	default:
		return nil, fmt.Errorf("unsupported archive driver %q", cfg.Driver)
	}
	if err != nil {
		return nil, err
	}

	for _, stmt := range dialect.InitStatements() {
		if _, err := db.Exec(stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to initialize database (%s): %w", stmt, err)
		}
	}

	a := &Archive{
		db:      db,
		dialect: dialect,
		qb:      NewQueryBuilder(dialect),
	}

	if err := a.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return a, nil
}

func openSQLite(path string) (*sql.DB, error) {
	if path == "" {
		return nil, fmt.Errorf("sqlite archive path is empty")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create archive directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	return db, nil
}

func openPostgres(cfg PostgresConfig) (*sql.DB, error) {
	db, err := sql.Open("postgres", cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		db.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to postgres: %w", err)
	}
	return db, nil
}

// Close closes the database connection.
func (a *Archive) Close() error {
	return a.db.Close()
}

// Dialect returns the archive's SQL dialect.
func (a *Archive) Dialect() Dialect {
	return a.dialect
}

// migrate creates the schema if it doesn't exist.
func (a *Archive) migrate() error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS levels (
			id ` + a.dialect.PrimaryKey() + `,
			seed BIGINT NOT NULL,
			depth INTEGER NOT NULL,
			level_seed BIGINT NOT NULL,
			width INTEGER NOT NULL,
			height INTEGER NOT NULL,
			room_count INTEGER NOT NULL,
			stairs_up_x INTEGER NOT NULL,
			stairs_up_y INTEGER NOT NULL,
			stairs_down_x INTEGER NOT NULL,
			stairs_down_y INTEGER NOT NULL,
			tiles TEXT NOT NULL,
			created_at TIMESTAMP NOT NULL,
			UNIQUE(seed, depth, width, height)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_levels_seed ON levels(seed)`,
	}

	for _, m := range migrations {
		if _, err := a.db.Exec(m); err != nil {
			return fmt.Errorf("migration failed: %w\nSQL: %s", err, m)
		}
	}
	return nil
}
