// Package enrich calls the generative-text provider that produces the
// AI-derived fields of a record: summary, tags, relevance score, context and
// media search queries.
package enrich

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"

	"github.com/swenlabs/newswire/internal/news"
)

const (
	maxTags       = 5
	maxQueryWords = 7
	minSnippetLen = 20
)

// Enricher is the capability interface over a generative-text provider.
// Implementations must be safe for concurrent use.
type Enricher interface {
	Enrich(ctx context.Context, title, body string) (news.Enrichment, error)
}

// TransientError marks a provider failure as retryable (rate limiting, server
// errors, network timeouts). Anything else is permanent.
type TransientError struct {
	Err error
}

func (e *TransientError) Error() string {
	if e == nil || e.Err == nil {
		return "transient error"
	}
	return e.Err.Error()
}

func (e *TransientError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// EnrichmentError means the provider was unusable after the retry budget. It
// is fatal to the pipeline: no record can be produced without a summary and
// score.
type EnrichmentError struct {
	Err error
}

func (e *EnrichmentError) Error() string {
	return fmt.Sprintf("enrichment failed: %v", e.Err)
}

func (e *EnrichmentError) Unwrap() error {
	return e.Err
}

// IsTransient reports whether an error should be retried.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	var te *TransientError
	if errors.As(err, &te) {
		return true
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var ne net.Error
	if errors.As(err, &ne) {
		return ne.Timeout()
	}
	return false
}

// conform enforces the enrichment invariants on provider output before it
// leaves this package: score clamped to [0,1], enums mapped to known tokens,
// tags carrying the topic marker, coordinates within valid ranges.
func conform(e news.Enrichment) news.Enrichment {
	e.Summary = strings.TrimSpace(e.Summary)

	if e.RelevanceScore < 0 {
		e.RelevanceScore = 0
	} else if e.RelevanceScore > 1 {
		e.RelevanceScore = 1
	}

	e.Tags = conformTags(e.Tags)
	e.SocialSentiment = news.ParseSentiment(string(e.SocialSentiment))
	e.SearchTrend = news.ParseTrend(string(e.SearchTrend))

	e.WikipediaSnippet = strings.TrimSpace(e.WikipediaSnippet)
	if len(e.WikipediaSnippet) < minSnippetLen {
		e.WikipediaSnippet = ""
	}

	if e.Geo != nil {
		if e.Geo.Lat < -90 || e.Geo.Lat > 90 || e.Geo.Lng < -180 || e.Geo.Lng > 180 {
			e.Geo = nil
		} else if e.Geo.MapURL == "" {
			e.Geo.MapURL = fmt.Sprintf("https://www.google.com/maps?q=%g,%g", e.Geo.Lat, e.Geo.Lng)
		}
	}

	e.GeographicLocations = trimStrings(e.GeographicLocations)
	e.KeyEntities = trimStrings(e.KeyEntities)
	e.ImageQuery = conformQuery(e.ImageQuery)
	e.VideoQuery = conformQuery(e.VideoQuery)
	return e
}

func conformTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		t = strings.TrimSpace(strings.TrimLeft(strings.TrimSpace(t), "#"))
		if t == "" {
			continue
		}
		out = append(out, "#"+t)
		if len(out) == maxTags {
			break
		}
	}
	if len(out) == 0 {
		out = []string{"#News"}
	}
	return out
}

func conformQuery(q string) string {
	q = strings.Trim(strings.TrimSpace(q), `"'`)
	words := strings.Fields(q)
	if len(words) > maxQueryWords {
		words = words[:maxQueryWords]
	}
	return strings.Join(words, " ")
}

func trimStrings(in []string) []string {
	var out []string
	for _, s := range in {
		s = strings.TrimSpace(s)
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}
