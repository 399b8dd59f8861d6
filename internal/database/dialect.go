package database

import (
	"database/sql"
	"fmt"
	"strconv"
	"strings"
	"time"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
)

// DialectConfig holds the connection target
type DialectConfig struct {
	// Path is the database file for SQLite
	Path string

	// URL is the connection string for PostgreSQL and MySQL
	URL string
}

// Dialect describes one supported SQL engine. Name doubles as the
// migrations subdirectory.
type Dialect struct {
	Name   string
	Driver string

	numberedParams  bool
	dsn             func(DialectConfig) string
	setup           []string
	migrationsTable string
}

var (
	SQLite = Dialect{
		Name:   "sqlite",
		Driver: "sqlite3",
		// foreign keys and busy timeout apply to every pooled connection
		dsn: func(c DialectConfig) string {
			if strings.Contains(c.Path, "?") {
				return c.Path
			}
			return c.Path + "?_foreign_keys=on&_busy_timeout=5000"
		},
		setup: []string{"PRAGMA journal_mode=WAL"},
		migrationsTable: `CREATE TABLE IF NOT EXISTS migrations (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			filename TEXT UNIQUE NOT NULL,
			executed_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,
	}

	Postgres = Dialect{
		Name:           "postgres",
		Driver:         "postgres",
		numberedParams: true,
		dsn:            func(c DialectConfig) string { return c.URL },
		migrationsTable: `CREATE TABLE IF NOT EXISTS migrations (
			id BIGSERIAL PRIMARY KEY,
			filename TEXT UNIQUE NOT NULL,
			executed_at TIMESTAMPTZ DEFAULT CURRENT_TIMESTAMP
		)`,
	}

	MySQL = Dialect{
		Name:   "mysql",
		Driver: "mysql",
		// parseTime makes DATETIME columns scan into time.Time
		dsn: func(c DialectConfig) string {
			switch {
			case strings.Contains(c.URL, "parseTime="):
				return c.URL
			case strings.Contains(c.URL, "?"):
				return c.URL + "&parseTime=true"
			default:
				return c.URL + "?parseTime=true"
			}
		},
		setup: []string{"SET FOREIGN_KEY_CHECKS = 1"},
		migrationsTable: `CREATE TABLE IF NOT EXISTS migrations (
			id BIGINT AUTO_INCREMENT PRIMARY KEY,
			filename VARCHAR(255) UNIQUE NOT NULL,
			executed_at DATETIME(6) DEFAULT CURRENT_TIMESTAMP(6)
		)`,
	}
)

// DialectFor maps a DB_TYPE value to its dialect
func DialectFor(dbType string) (Dialect, error) {
	switch strings.ToLower(dbType) {
	case "sqlite", "sqlite3", "":
		return SQLite, nil
	case "postgres", "postgresql":
		return Postgres, nil
	case "mysql":
		return MySQL, nil
	default:
		return Dialect{}, fmt.Errorf("unsupported database type: %s", dbType)
	}
}

// DSN returns the data source name passed to sql.Open
func (d Dialect) DSN(c DialectConfig) string {
	return d.dsn(c)
}

// Rebind rewrites ? placeholders to $1, $2, ... for engines that need it.
// Question marks inside quoted literals are left alone.
func (d Dialect) Rebind(query string) string {
	if !d.numberedParams || !strings.Contains(query, "?") {
		return query
	}

	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	inQuote := false
	for i := 0; i < len(query); i++ {
		c := query[i]
		switch {
		case c == '\'':
			inQuote = !inQuote
			b.WriteByte(c)
		case c == '?' && !inQuote:
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
		default:
			b.WriteByte(c)
		}
	}
	return b.String()
}

// configure sizes the pool and runs the dialect's session setup
func (d Dialect) configure(db *sql.DB) error {
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)
	db.SetConnMaxIdleTime(time.Minute)

	for _, stmt := range d.setup {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("%s: %w", stmt, err)
		}
	}
	return nil
}
