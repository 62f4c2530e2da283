package news

import (
	"context"
	"errors"
)

// ErrDuplicateSlug is returned by Save when a record with the same slug
// already exists. The pipeline reacts by assigning a fresh slug and retrying.
var ErrDuplicateSlug = errors.New("duplicate slug")

// ErrNotFound is returned by Get when no record matches the given id.
var ErrNotFound = errors.New("record not found")

// Store persists enriched records. The pipeline receives an implementation by
// reference at construction time; it never reaches for a global.
type Store interface {
	Save(ctx context.Context, r *Record) error
	Get(ctx context.Context, id string) (*Record, error)
	List(ctx context.Context, limit, offset int) ([]RecordSummary, error)
	Count(ctx context.Context) (int, error)
}
