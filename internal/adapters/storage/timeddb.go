package storage

import (
	"context"
	"database/sql"
	"log/slog"
	"strings"
	"time"

	"exhibition/internal/adapters/http/perf"
)

// SQLDB is what the session store needs from a database.
// *sql.DB and *TimedDB both satisfy it.
type SQLDB interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

var (
	_ SQLDB = (*sql.DB)(nil)
	_ SQLDB = (*TimedDB)(nil)
)

// DefaultSlowQueryMs is used when no slow-query threshold is configured.
const DefaultSlowQueryMs = 50

// TimedDB records every statement against a perf collector, labelled by
// verb and table (e.g. "DELETE dashboard_session").
type TimedDB struct {
	db        *sql.DB
	collector *perf.Collector
	slowMs    float64
}

// NewTimedDB wraps db.
// PRE: slowMs <= 0 uses DefaultSlowQueryMs; collector may be nil
func NewTimedDB(db *sql.DB, collector *perf.Collector, slowMs int) *TimedDB {
	if slowMs <= 0 {
		slowMs = DefaultSlowQueryMs
	}
	return &TimedDB{db: db, collector: collector, slowMs: float64(slowMs)}
}

func (t *TimedDB) ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error) {
	defer t.observe(query, time.Now())
	return t.db.ExecContext(ctx, query, args...)
}

func (t *TimedDB) QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row {
	defer t.observe(query, time.Now())
	return t.db.QueryRowContext(ctx, query, args...)
}

// Close closes the underlying database.
func (t *TimedDB) Close() error {
	return t.db.Close()
}

func (t *TimedDB) observe(query string, start time.Time) {
	label := statementLabel(query)
	ms := float64(time.Since(start).Microseconds()) / 1000.0
	if ms >= t.slowMs {
		slog.Warn("slow_query", "statement", label, "duration_ms", ms)
	}
	t.collector.Record(perf.Entry{Kind: perf.KindQuery, Path: label, DurationMs: ms, Timestamp: start})
}

// statementLabel reduces a query to its verb and the table it targets.
func statementLabel(query string) string {
	words := strings.Fields(query)
	if len(words) == 0 {
		return "EMPTY"
	}
	verb := strings.ToUpper(words[0])
	for i, w := range words[:len(words)-1] {
		switch strings.ToUpper(w) {
		case "FROM", "INTO", "UPDATE":
			return verb + " " + strings.Trim(words[i+1], "(;")
		}
	}
	return verb
}
