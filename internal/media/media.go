// Package media resolves AI-generated search queries into concrete image and
// video URLs. Discovery is best-effort: every failure degrades to "not
// present" and the pipeline carries on without media.
package media

import "context"

// Hit is one discovered media candidate. The URL is always a validated
// absolute http(s) URL; this package never fabricates placeholders.
type Hit struct {
	URL          string
	Title        string
	ThumbnailURL string
}

// Finder is the capability interface over a media-search provider. A nil
// return means "not present"; implementations never return errors because
// media discovery cannot fail the pipeline.
type Finder interface {
	DiscoverImage(ctx context.Context, query string) *Hit
	DiscoverVideo(ctx context.Context, query string) *Hit
}
