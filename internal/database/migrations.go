package database

import "database/sql"

// migrations is the ordered list of all schema migrations.
// Append new migrations to the end with incrementing Version numbers.
var migrations = []Migration{
	{
		Version:     1,
		Description: "initial schema",
		Up: func(tx *sql.Tx) error {
			_, err := tx.Exec(`
CREATE TABLE IF NOT EXISTS records (
    slug TEXT PRIMARY KEY,
    title TEXT NOT NULL,
    summary TEXT NOT NULL,
    tags TEXT NOT NULL,
    relevance_score REAL NOT NULL,
    published_at TEXT,
    featured_image_url TEXT,
    ingested_at TEXT NOT NULL,
    doc TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_records_ingested_at ON records(ingested_at);
`)
			return err
		},
	},
}
