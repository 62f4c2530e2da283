package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/swenlabs/newswire/internal/news"
)

const (
	defaultListLimit = 100
	maxListLimit     = 500
)

// Save inserts a record. The full record is stored as a JSON document plus a
// handful of indexed columns used by listing. A slug collision reports
// news.ErrDuplicateSlug so the pipeline can reassign and retry.
func (db *DB) Save(ctx context.Context, r *news.Record) error {
	doc, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("encoding record: %w", err)
	}
	tags, err := json.Marshal(r.Tags)
	if err != nil {
		return fmt.Errorf("encoding tags: %w", err)
	}

	_, err = db.conn.ExecContext(ctx,
		`INSERT INTO records (slug, title, summary, tags, relevance_score, published_at, featured_image_url, ingested_at, doc)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ID, r.Title, r.Summary, string(tags), r.RelevanceScore,
		r.PublishedAt, r.FeaturedImageURL,
		r.IngestedAt.UTC().Format(time.RFC3339Nano), string(doc),
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed: records.slug") {
			return news.ErrDuplicateSlug
		}
		return fmt.Errorf("inserting record: %w", err)
	}
	return nil
}

// Get returns the full record for an id, or news.ErrNotFound.
func (db *DB) Get(ctx context.Context, id string) (*news.Record, error) {
	var doc string
	err := db.conn.QueryRowContext(ctx,
		"SELECT doc FROM records WHERE slug = ?", id,
	).Scan(&doc)
	if err == sql.ErrNoRows {
		return nil, news.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying record: %w", err)
	}

	var r news.Record
	if err := json.Unmarshal([]byte(doc), &r); err != nil {
		return nil, fmt.Errorf("decoding record %s: %w", id, err)
	}
	return &r, nil
}

// List returns record summaries ordered by ingestion time, newest first.
func (db *DB) List(ctx context.Context, limit, offset int) ([]news.RecordSummary, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}
	if offset < 0 {
		offset = 0
	}

	rows, err := db.conn.QueryContext(ctx,
		`SELECT slug, title, summary, tags, relevance_score, published_at, featured_image_url, ingested_at
		FROM records ORDER BY ingested_at DESC, slug LIMIT ? OFFSET ?`,
		limit, offset,
	)
	if err != nil {
		return nil, fmt.Errorf("listing records: %w", err)
	}
	defer rows.Close()

	var out []news.RecordSummary
	for rows.Next() {
		var s news.RecordSummary
		var tags, ingestedAt string
		if err := rows.Scan(&s.ID, &s.Title, &s.Summary, &tags, &s.RelevanceScore,
			&s.PublishedAt, &s.FeaturedImageURL, &ingestedAt); err != nil {
			return nil, fmt.Errorf("scanning record row: %w", err)
		}
		if err := json.Unmarshal([]byte(tags), &s.Tags); err != nil {
			return nil, fmt.Errorf("decoding tags for %s: %w", s.ID, err)
		}
		if t, err := time.Parse(time.RFC3339Nano, ingestedAt); err == nil {
			s.IngestedAt = t
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// Count returns the total number of stored records.
func (db *DB) Count(ctx context.Context) (int, error) {
	var n int
	if err := db.conn.QueryRowContext(ctx, "SELECT COUNT(*) FROM records").Scan(&n); err != nil {
		return 0, fmt.Errorf("counting records: %w", err)
	}
	return n, nil
}
