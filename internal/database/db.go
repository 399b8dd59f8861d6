package database

import (
	"context"
	"database/sql"
	"fmt"

	"stuntcheck/internal/config"
)

// DBTX is the subset of *DB the repositories use
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

// DB is a connection pool bound to one dialect. Queries are written with
// ? placeholders and rebound per dialect.
type DB struct {
	*sql.DB
	Dialect Dialect
}

// Initialize opens a SQLite database file
func Initialize(dbPath string) (*DB, error) {
	return Open(SQLite, DialectConfig{Path: dbPath})
}

// InitializeWithConfig opens the database selected by DB_TYPE
func InitializeWithConfig(cfg *config.Config) (*DB, error) {
	dialect, err := DialectFor(cfg.DatabaseType)
	if err != nil {
		return nil, err
	}
	return Open(dialect, DialectConfig{Path: cfg.DatabasePath, URL: cfg.DatabaseURL})
}

// Open connects, pings and configures a pool for dialect
func Open(dialect Dialect, target DialectConfig) (*DB, error) {
	sqlDB, err := sql.Open(dialect.Driver, dialect.DSN(target))
	if err != nil {
		return nil, fmt.Errorf("failed to open %s database: %w", dialect.Name, err)
	}

	if err := sqlDB.Ping(); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("failed to ping %s database: %w", dialect.Name, err)
	}

	if err := dialect.configure(sqlDB); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("failed to configure %s connection: %w", dialect.Name, err)
	}

	return &DB{DB: sqlDB, Dialect: dialect}, nil
}

func (db *DB) QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error) {
	return db.DB.QueryContext(ctx, db.Dialect.Rebind(query), args...)
}

func (db *DB) QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row {
	return db.DB.QueryRowContext(ctx, db.Dialect.Rebind(query), args...)
}

func (db *DB) ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error) {
	return db.DB.ExecContext(ctx, db.Dialect.Rebind(query), args...)
}
