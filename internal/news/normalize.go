package news

import (
	"fmt"
	"net/url"
	"strings"
)

// ValidationError reports malformed or incomplete raw input. It is the
// caller's fault and never retried.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid input: %s: %s", e.Field, e.Reason)
}

// Normalize validates raw input and resolves the authorship/date aliases onto
// the canonical {publisher, published_at} pair.
//
// Precedence: a fully-present canonical pair wins over a fully-present legacy
// {author, published_date} pair. Mixed partial pairs (say author plus
// published_at) are rejected outright; merging fields across pairs could
// silently associate unrelated values.
func Normalize(in RawInput) (Normalized, error) {
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return Normalized{}, &ValidationError{Field: "title", Reason: "must not be empty"}
	}

	body := strings.TrimSpace(in.Body)
	if body == "" {
		return Normalized{}, &ValidationError{Field: "body", Reason: "must not be empty"}
	}

	sourceURL := strings.TrimSpace(in.SourceURL)
	if err := checkURL(sourceURL); err != nil {
		return Normalized{}, &ValidationError{Field: "source_url", Reason: err.Error()}
	}

	publisher := strings.TrimSpace(in.Publisher)
	publishedAt := strings.TrimSpace(in.PublishedAt)
	author := strings.TrimSpace(in.Author)
	publishedDate := strings.TrimSpace(in.PublishedDate)

	out := Normalized{Title: title, Body: body, SourceURL: sourceURL}
	switch {
	case publisher != "" && publishedAt != "":
		out.Publisher = publisher
		out.PublishedAt = publishedAt
	case author != "" && publishedDate != "":
		out.Publisher = author
		out.PublishedAt = publishedDate
	default:
		return Normalized{}, &ValidationError{
			Field:  "publisher",
			Reason: "requires a complete {publisher, published_at} or {author, published_date} pair",
		}
	}

	return out, nil
}

func checkURL(raw string) error {
	if raw == "" {
		return fmt.Errorf("must not be empty")
	}
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("not a valid URL")
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("must be an absolute http(s) URL")
	}
	return nil
}
