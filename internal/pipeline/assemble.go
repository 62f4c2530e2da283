package pipeline

import (
	"fmt"
	"time"

	"github.com/swenlabs/newswire/internal/news"
)

// Assemble merges the three partial results into the final record. It is a
// pure function; the orchestrator owns timestamps and the identifier.
//
// A missing required field here is a programming error upstream, not a data
// condition, so Assemble panics rather than emitting a partial record.
func Assemble(norm news.Normalized, enr news.Enrichment, med news.Media, id string, ingestedAt, processedAt time.Time) *news.Record {
	mustNonEmpty("id", id)
	mustNonEmpty("title", norm.Title)
	mustNonEmpty("body", norm.Body)
	mustNonEmpty("source_url", norm.SourceURL)
	mustNonEmpty("publisher", norm.Publisher)
	mustNonEmpty("published_at", norm.PublishedAt)
	mustNonEmpty("summary", enr.Summary)
	if len(enr.Tags) == 0 {
		panic("assemble: record requires at least one tag")
	}
	if ingestedAt.IsZero() || processedAt.IsZero() {
		panic("assemble: record requires ingest and process timestamps")
	}

	return &news.Record{
		ID:          id,
		Title:       norm.Title,
		Body:        norm.Body,
		SourceURL:   norm.SourceURL,
		Publisher:   norm.Publisher,
		PublishedAt: norm.PublishedAt,

		Summary:             enr.Summary,
		Tags:                enr.Tags,
		RelevanceScore:      enr.RelevanceScore,
		WikipediaSnippet:    enr.WikipediaSnippet,
		SocialSentiment:     enr.SocialSentiment,
		SearchTrend:         enr.SearchTrend,
		GeographicLocations: enr.GeographicLocations,
		Geo:                 enr.Geo,
		KeyEntities:         enr.KeyEntities,
		ImageQuery:          enr.ImageQuery,
		VideoQuery:          enr.VideoQuery,

		FeaturedImageURL:   med.FeaturedImageURL,
		RelatedVideoURL:    med.RelatedVideoURL,
		ThumbnailURL:       med.ThumbnailURL,
		MediaJustification: med.MediaJustification,

		IngestedAt:  ingestedAt,
		ProcessedAt: processedAt,
	}
}

func mustNonEmpty(field, value string) {
	if value == "" {
		panic(fmt.Sprintf("assemble: record requires %s", field))
	}
}
