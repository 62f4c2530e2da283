package database

import (
	"context"
	"path/filepath"
	"testing"
	"time"
)

func TestMigrateNewDB(t *testing.T) {
	db := openTestDB(t)

	version, err := getSchemaVersion(db.conn)
	if err != nil {
		t.Fatalf("getSchemaVersion: %v", err)
	}
	if version != latestVersion() {
		t.Errorf("expected version %d, got %d", latestVersion(), version)
	}
}

func TestMigrateIdempotent(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "idem.db")

	db1, err := Open(dbPath)
	if err != nil {
		t.Fatalf("first open: %v", err)
	}
	if err := db1.Save(context.Background(), testRecord("survives-abcd1234", time.Now().UTC())); err != nil {
		t.Fatalf("save: %v", err)
	}
	db1.Close()

	db2, err := Open(dbPath)
	if err != nil {
		t.Fatalf("second open: %v", err)
	}
	defer db2.Close()

	if _, err := db2.Get(context.Background(), "survives-abcd1234"); err != nil {
		t.Errorf("record lost across reopen: %v", err)
	}
}
