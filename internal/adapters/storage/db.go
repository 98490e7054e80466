package storage

import (
	"database/sql"
	"fmt"
	"strconv"
	"strings"

	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)

// Driver names registered with database/sql.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// TimeFormat is the textual timestamp layout stored in TEXT columns.
// Values are written in UTC with a fixed-width fraction, so lexical order matches time order.
const TimeFormat = "2006-01-02T15:04:05.000000000Z07:00"

// DriverFor picks the database/sql driver for a DSN.
// postgres:// and postgresql:// URLs use lib/pq; anything else is a SQLite path.
func DriverFor(dsn string) string {
	if strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") {
		return DriverPostgres
	}
	return DriverSQLite
}

// Open opens the database named by dsn and initialises the schema.
// PRE: dsn is a SQLite path (or ":memory:") or a postgres URL
// POST: Returns an open, initialised *sql.DB and the driver name
func Open(dsn string) (*sql.DB, string, error) {
	driver := DriverFor(dsn)
	source := dsn
	if driver == DriverSQLite && dsn != ":memory:" && !strings.Contains(dsn, "?") {
		source = dsn + "?_pragma=busy_timeout(5000)"
	}

	db, err := sql.Open(driver, source)
	if err != nil {
		return nil, "", fmt.Errorf("open %s database: %w", driver, err)
	}
	if dsn == ":memory:" {
		// Every pooled connection would otherwise get its own empty database.
		db.SetMaxOpenConns(1)
	} else {
		db.SetMaxOpenConns(25)
		db.SetMaxIdleConns(25)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, "", fmt.Errorf("connect %s database: %w", driver, err)
	}
	if err := InitDB(db, driver); err != nil {
		db.Close()
		return nil, "", err
	}
	return db, driver, nil
}

// InitDB initializes the database schema.
// PRE: db is a valid database connection for driver
// POST: All tables exist; SQLite runs in WAL mode
func InitDB(db *sql.DB, driver string) error {
	if driver == DriverSQLite {
		if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
			return fmt.Errorf("failed to enable WAL mode: %w", err)
		}
	}

	schema := `
	CREATE TABLE IF NOT EXISTS dashboard_session (
		session_key TEXT PRIMARY KEY,
		subject_id TEXT NOT NULL,
		identity TEXT NOT NULL,
		claimed_role TEXT NOT NULL,
		resolved_role TEXT NOT NULL,
		access_token TEXT NOT NULL,
		refresh_token TEXT NOT NULL,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_dashboard_session_created_at ON dashboard_session(created_at);
	`
	if _, err := db.Exec(schema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

// Rebind rewrites ? placeholders as $1, $2, ... for Postgres.
// Queries must not contain literal question marks.
func Rebind(driver, query string) string {
	if driver != DriverPostgres {
		return query
	}
	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
