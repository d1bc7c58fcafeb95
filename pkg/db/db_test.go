package db_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"ringroad/pkg/db"
)

func TestDB(t *testing.T) {
	path := filepath.Join(t.TempDir(), "db_test.db")

	d, err := db.Init(path)
	if err != nil {
		t.Fatalf("Init() failed: %v", err)
	}
	if d == nil {
		t.Fatal("Init() returned nil DB")
	}
	defer d.Close()

	for _, table := range []string{"persistent_state", "cache"} {
		var name string
		err := d.QueryRow("SELECT name FROM sqlite_master WHERE type='table' AND name=?", table).Scan(&name)
		if err != nil {
			t.Errorf("table %s missing: %v", table, err)
		}
	}
}

func TestDB_SchemaVersion(t *testing.T) {
	path := filepath.Join(t.TempDir(), "version.db")

	for i := 0; i < 2; i++ {
		d, err := db.Init(path)
		if err != nil {
			t.Fatalf("Init() #%d failed: %v", i+1, err)
		}
		v, err := d.Version()
		d.Close()
		if err != nil {
			t.Fatal(err)
		}
		if v != db.SchemaVersion {
			t.Errorf("Init() #%d: user_version = %d, want %d", i+1, v, db.SchemaVersion)
		}
	}
}

func TestDB_ReopenKeepsData(t *testing.T) {
	path := filepath.Join(t.TempDir(), "reopen.db")

	d, err := db.Init(path)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := d.Exec("INSERT INTO persistent_state (key, value) VALUES ('k', 'v')"); err != nil {
		t.Fatal(err)
	}
	d.Close()

	d, err = db.Init(path)
	if err != nil {
		t.Fatalf("second Init() failed: %v", err)
	}
	defer d.Close()

	var v string
	if err := d.QueryRow("SELECT value FROM persistent_state WHERE key='k'").Scan(&v); err != nil || v != "v" {
		t.Errorf("expected persisted value 'v', got %q (%v)", v, err)
	}
}

func TestDB_PruneCache(t *testing.T) {
	d, err := db.Init(filepath.Join(t.TempDir(), "prune.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer d.Close()

	if _, err := d.Exec("INSERT INTO cache (key, value, created_at) VALUES ('old', x'00', '2000-01-01 00:00:00')"); err != nil {
		t.Fatal(err)
	}
	if _, err := d.Exec("INSERT INTO cache (key, value) VALUES ('fresh', x'00')"); err != nil {
		t.Fatal(err)
	}

	n, err := d.PruneCache(context.Background(), 24*time.Hour)
	if err != nil {
		t.Fatalf("PruneCache failed: %v", err)
	}
	if n != 1 {
		t.Errorf("PruneCache removed %d rows, want 1", n)
	}

	var count int
	if err := d.QueryRow("SELECT count(*) FROM cache").Scan(&count); err != nil {
		t.Fatal(err)
	}
	if count != 1 {
		t.Errorf("expected 1 remaining cache row, got %d", count)
	}
}
