package migrate

import (
	"database/sql"
	"testing"

	_ "github.com/marcboeker/go-duckdb"
)

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("duckdb", "")
	if err != nil {
		t.Fatalf("open duckdb: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestRunAppliesAllMigrations(t *testing.T) {
	db := openTestDB(t)
	r := NewRunner(db)

	if err := r.Run(); err != nil {
		t.Fatalf("Run: %v", err)
	}

	for _, table := range []string{"clients", "log_entries", "alerts", "schema_migrations"} {
		var name string
		err := db.QueryRow("SELECT table_name FROM information_schema.tables WHERE table_name = ?", table).Scan(&name)
		if err != nil {
			t.Errorf("table %s not found: %v", table, err)
		}
	}
}

func TestRunIsIdempotent(t *testing.T) {
	db := openTestDB(t)
	r := NewRunner(db)

	if err := r.Run(); err != nil {
		t.Fatalf("first Run: %v", err)
	}
	if err := r.Run(); err != nil {
		t.Fatalf("second Run: %v", err)
	}

	var applied int
	if err := db.QueryRow("SELECT COUNT(*) FROM schema_migrations").Scan(&applied); err != nil {
		t.Fatalf("count migrations: %v", err)
	}
	if applied < 1 {
		t.Errorf("applied migrations = %d, want at least 1", applied)
	}
}
