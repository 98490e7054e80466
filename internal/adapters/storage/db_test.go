package storage

import (
	"database/sql"
	"path/filepath"
	"sort"
	"testing"
	"time"
)

// getTableNames returns sorted table names from sqlite_master, excluding internal tables.
func getTableNames(t *testing.T, db *sql.DB) []string {
	t.Helper()
	rows, err := db.Query("SELECT name FROM sqlite_master WHERE type='table' AND name NOT LIKE 'sqlite_%' ORDER BY name")
	if err != nil {
		t.Fatalf("failed to query sqlite_master: %v", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			t.Fatalf("failed to scan table name: %v", err)
		}
		names = append(names, name)
	}
	return names
}

// TestOpen_Memory verifies an in-memory database is initialised with the session table.
func TestOpen_Memory(t *testing.T) {
	db, driver, err := Open(":memory:")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer db.Close()

	if driver != DriverSQLite {
		t.Errorf("driver = %q, want sqlite", driver)
	}
	tables := getTableNames(t, db)
	if len(tables) != 1 || tables[0] != "dashboard_session" {
		t.Errorf("tables = %v, want [dashboard_session]", tables)
	}
}

// TestInitDB_Idempotent verifies that initialising twice is harmless.
func TestInitDB_Idempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dashboard.db")
	db, _, err := Open(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer db.Close()

	if err := InitDB(db, DriverSQLite); err != nil {
		t.Fatalf("second InitDB failed: %v", err)
	}
	if tables := getTableNames(t, db); len(tables) != 1 {
		t.Errorf("tables = %v, want one table", tables)
	}
}

// TestDriverFor tests DSN driver selection.
func TestDriverFor(t *testing.T) {
	tests := map[string]string{
		"dashboard.db":                          DriverSQLite,
		":memory:":                              DriverSQLite,
		"/var/lib/dashboard/dashboard.db":       DriverSQLite,
		"postgres://u:p@localhost/db":           DriverPostgres,
		"postgresql://u@db.internal/dashboards": DriverPostgres,
	}
	for dsn, want := range tests {
		if got := DriverFor(dsn); got != want {
			t.Errorf("DriverFor(%q) = %q, want %q", dsn, got, want)
		}
	}
}

// TestRebind tests placeholder rewriting.
func TestRebind(t *testing.T) {
	q := "UPDATE t SET a = ?, b = ? WHERE c = ?"
	if got := Rebind(DriverSQLite, q); got != q {
		t.Errorf("sqlite rebind changed query: %q", got)
	}
	want := "UPDATE t SET a = $1, b = $2 WHERE c = $3"
	if got := Rebind(DriverPostgres, q); got != want {
		t.Errorf("postgres rebind = %q, want %q", got, want)
	}
}

// TestTimeFormat_SortsLikeTime verifies stored timestamps compare as text in time order.
func TestTimeFormat_SortsLikeTime(t *testing.T) {
	base := time.Date(2026, 3, 1, 10, 0, 5, 0, time.UTC)
	times := []time.Time{
		base.Add(500 * time.Millisecond),
		base,
		base.Add(time.Second),
		base.Add(time.Nanosecond),
		base.Add(-time.Millisecond),
	}
	formatted := make([]string, len(times))
	for i, ts := range times {
		formatted[i] = ts.Format(TimeFormat)
	}
	sort.Strings(formatted)
	sort.Slice(times, func(i, j int) bool { return times[i].Before(times[j]) })
	for i, ts := range times {
		if got := ts.Format(TimeFormat); formatted[i] != got {
			t.Errorf("position %d = %s, want %s", i, formatted[i], got)
		}
	}
	if got := base.Format(TimeFormat); got != "2026-03-01T10:00:05.000000000Z" {
		t.Errorf("whole second = %s", got)
	}
}
