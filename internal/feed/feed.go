// Package feed turns RSS/Atom feed entries into raw pipeline input.
package feed

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	readability "github.com/go-shiori/go-readability"
	"github.com/mmcdole/gofeed"

	"github.com/swenlabs/newswire/internal/news"
)

const (
	defaultLimit = 20
	// Entries with less body text than this get a full-text fetch.
	minBodyLen = 200
)

// Options configures a Puller.
type Options struct {
	// Limit caps how many entries are taken from one feed.
	Limit int

	// FetchFullText enables readability extraction for entries whose feed
	// body is thin.
	FetchFullText bool

	HTTPTimeout time.Duration
}

// Puller fetches a feed and maps its entries to news.RawInput.
type Puller struct {
	parser        *gofeed.Parser
	client        *http.Client
	limit         int
	fetchFullText bool
}

func NewPuller(opts Options) *Puller {
	if opts.Limit <= 0 {
		opts.Limit = defaultLimit
	}
	if opts.HTTPTimeout <= 0 {
		opts.HTTPTimeout = 15 * time.Second
	}
	return &Puller{
		parser:        gofeed.NewParser(),
		client:        &http.Client{Timeout: opts.HTTPTimeout},
		limit:         opts.Limit,
		fetchFullText: opts.FetchFullText,
	}
}

// Pull parses a feed URL and returns raw inputs ready for ingestion. Entries
// without a usable link, title or body are skipped.
func (p *Puller) Pull(ctx context.Context, feedURL string) ([]news.RawInput, error) {
	feed, err := p.parser.ParseURLWithContext(feedURL, ctx)
	if err != nil {
		return nil, err
	}

	publisher := strings.TrimSpace(feed.Title)
	if publisher == "" {
		publisher = sourceNameFromURL(feedURL)
	}

	var out []news.RawInput
	for _, item := range feed.Items {
		if len(out) >= p.limit {
			break
		}
		raw := p.itemToInput(ctx, item, publisher)
		if raw == nil {
			continue
		}
		out = append(out, *raw)
	}
	return out, nil
}

func (p *Puller) itemToInput(ctx context.Context, item *gofeed.Item, publisher string) *news.RawInput {
	link := strings.TrimSpace(item.Link)
	title := strings.TrimSpace(item.Title)
	if link == "" || title == "" {
		return nil
	}

	body := ""
	if item.Content != "" {
		body = stripHTML(item.Content)
	} else if item.Description != "" {
		body = stripHTML(item.Description)
	}

	if len(body) < minBodyLen && p.fetchFullText {
		if full := p.fetchArticleText(ctx, link); full != "" {
			body = full
		}
	}
	if body == "" {
		slog.Debug("skipping feed entry without body", "link", link)
		return nil
	}

	publishedAt := ""
	if item.PublishedParsed != nil {
		publishedAt = item.PublishedParsed.UTC().Format(time.RFC3339)
	} else if item.UpdatedParsed != nil {
		publishedAt = item.UpdatedParsed.UTC().Format(time.RFC3339)
	} else {
		// The pipeline requires a complete publisher/date pair.
		publishedAt = time.Now().UTC().Format(time.RFC3339)
	}

	return &news.RawInput{
		Title:       title,
		Body:        body,
		SourceURL:   link,
		Publisher:   publisher,
		PublishedAt: publishedAt,
	}
}

// fetchArticleText downloads a page and extracts the readable article text.
// Failures degrade to an empty string; the feed body is used instead.
func (p *Puller) fetchArticleText(ctx context.Context, articleURL string) string {
	req, err := http.NewRequestWithContext(ctx, "GET", articleURL, nil)
	if err != nil {
		return ""
	}
	req.Header.Set("User-Agent", "newswire/1.0 (news enrichment)")

	resp, err := p.client.Do(req)
	if err != nil {
		slog.Debug("full-text fetch failed", "url", articleURL, "error", err)
		return ""
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return ""
	}

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return ""
	}

	parsedURL, _ := url.Parse(articleURL)
	article, err := readability.FromReader(strings.NewReader(string(bodyBytes)), parsedURL)
	if err != nil {
		return ""
	}

	text := strings.TrimSpace(article.TextContent)
	if len(text) < minBodyLen {
		return ""
	}
	return text
}

func stripHTML(text string) string {
	var result strings.Builder
	inTag := false
	for _, r := range text {
		if r == '<' {
			inTag = true
			result.WriteRune(' ')
			continue
		}
		if r == '>' {
			inTag = false
			continue
		}
		if !inTag {
			result.WriteRune(r)
		}
	}

	s := result.String()
	s = strings.ReplaceAll(s, "&nbsp;", " ")
	s = strings.ReplaceAll(s, "&amp;", "&")
	s = strings.ReplaceAll(s, "&lt;", "<")
	s = strings.ReplaceAll(s, "&gt;", ">")
	s = strings.ReplaceAll(s, "&quot;", `"`)
	s = strings.ReplaceAll(s, "&#39;", "'")

	fields := strings.Fields(s)
	return strings.Join(fields, " ")
}

func sourceNameFromURL(feedURL string) string {
	u, err := url.Parse(feedURL)
	if err != nil {
		return feedURL
	}
	host := strings.ToLower(u.Hostname())
	for _, prefix := range []string{"www.", "blog.", "blogs.", "rss.", "feeds."} {
		host = strings.TrimPrefix(host, prefix)
	}
	if host == "" {
		return feedURL
	}
	return strings.ToUpper(host[:1]) + host[1:]
}
