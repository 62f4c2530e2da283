// Package news defines the data model for the enrichment pipeline: the raw
// input accepted for ingestion, the AI-derived enrichment fields, discovered
// media, and the final canonical record.
package news

import (
	"strings"
	"time"
)

// Sentiment is the AI-assessed social sentiment of an article.
type Sentiment string

const (
	SentimentPositive Sentiment = "positive"
	SentimentNegative Sentiment = "negative"
	SentimentNeutral  Sentiment = "neutral"
)

// ParseSentiment maps a provider token to a Sentiment. Unknown tokens map to
// neutral so arbitrary strings never leak into records.
func ParseSentiment(s string) Sentiment {
	switch Sentiment(strings.ToLower(strings.TrimSpace(s))) {
	case SentimentPositive:
		return SentimentPositive
	case SentimentNegative:
		return SentimentNegative
	default:
		return SentimentNeutral
	}
}

// Trend is the AI-assessed search interest trend of an article's topic.
type Trend string

const (
	TrendRising    Trend = "rising"
	TrendStable    Trend = "stable"
	TrendDeclining Trend = "declining"
	TrendViral     Trend = "viral"
)

// ParseTrend maps a provider token to a Trend, defaulting to stable.
func ParseTrend(s string) Trend {
	switch Trend(strings.ToLower(strings.TrimSpace(s))) {
	case TrendRising:
		return TrendRising
	case TrendDeclining:
		return TrendDeclining
	case TrendViral:
		return TrendViral
	default:
		return TrendStable
	}
}

// RawInput is a news article as submitted for ingestion. Authorship and date
// may arrive under either the legacy {author, published_date} names or the
// canonical {publisher, published_at} names.
type RawInput struct {
	Title         string `json:"title"`
	Body          string `json:"body"`
	SourceURL     string `json:"source_url"`
	Author        string `json:"author,omitempty"`
	PublishedDate string `json:"published_date,omitempty"`
	Publisher     string `json:"publisher,omitempty"`
	PublishedAt   string `json:"published_at,omitempty"`
}

// Normalized is a validated RawInput with exactly the canonical alias pair
// populated.
type Normalized struct {
	Title       string
	Body        string
	SourceURL   string
	Publisher   string
	PublishedAt string
}

// Geo holds coordinates for the primary location mentioned in an article.
type Geo struct {
	Lat    float64 `json:"lat"`
	Lng    float64 `json:"lng"`
	MapURL string  `json:"map_url,omitempty"`
}

// Enrichment is the output of the generative-text provider for one article.
// Created once per request and never mutated afterwards.
type Enrichment struct {
	Summary             string
	Tags                []string
	RelevanceScore      float64
	WikipediaSnippet    string
	SocialSentiment     Sentiment
	SearchTrend         Trend
	GeographicLocations []string
	Geo                 *Geo
	KeyEntities         []string
	ImageQuery          string
	VideoQuery          string
}

// Media is the output of media discovery for one article. Absent fields stay
// empty; the pipeline never substitutes placeholder URLs.
type Media struct {
	FeaturedImageURL   string
	RelatedVideoURL    string
	ThumbnailURL       string
	MediaJustification string
}

// Record is the final enriched article. Its JSON form is the canonical output
// schema: field names are fixed, input aliases are gone, and absent optional
// values are omitted rather than emitted as null.
type Record struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Body        string `json:"body"`
	SourceURL   string `json:"source_url"`
	Publisher   string `json:"publisher"`
	PublishedAt string `json:"published_at"`

	Summary             string    `json:"summary"`
	Tags                []string  `json:"tags"`
	RelevanceScore      float64   `json:"relevance_score"`
	WikipediaSnippet    string    `json:"wikipedia_snippet,omitempty"`
	SocialSentiment     Sentiment `json:"social_sentiment"`
	SearchTrend         Trend     `json:"search_trend"`
	GeographicLocations []string  `json:"geographic_locations,omitempty"`
	Geo                 *Geo      `json:"geo,omitempty"`
	KeyEntities         []string  `json:"key_entities,omitempty"`
	ImageQuery          string    `json:"image_query,omitempty"`
	VideoQuery          string    `json:"video_query,omitempty"`

	FeaturedImageURL   string `json:"featured_image_url,omitempty"`
	RelatedVideoURL    string `json:"related_video_url,omitempty"`
	ThumbnailURL       string `json:"thumbnail_url,omitempty"`
	MediaJustification string `json:"media_justification,omitempty"`

	IngestedAt  time.Time `json:"ingested_at"`
	ProcessedAt time.Time `json:"processed_at"`
}

// RecordSummary is the trimmed listing form of a Record.
type RecordSummary struct {
	ID               string    `json:"id"`
	Title            string    `json:"title"`
	Summary          string    `json:"summary"`
	Tags             []string  `json:"tags"`
	RelevanceScore   float64   `json:"relevance_score"`
	PublishedAt      string    `json:"published_at,omitempty"`
	IngestedAt       time.Time `json:"ingested_at"`
	FeaturedImageURL string    `json:"featured_image_url,omitempty"`
}
