package media

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	defaultImageEndpoint = "https://api.search.brave.com/res/v1/images/search"
	defaultVideoEndpoint = "https://api.search.brave.com/res/v1/videos/search"
)

// BraveConfig configures the Brave Search media finder.
type BraveConfig struct {
	APIKey        string
	ImageEndpoint string
	VideoEndpoint string

	// ResultCount is how many candidates to request per query.
	ResultCount int

	// MaxConcurrent bounds in-flight calls to the provider across all
	// requests. Acquiring a slot blocks but honors the call's deadline.
	MaxConcurrent int
}

// Brave searches the Brave image and video verticals.
type Brave struct {
	apiKey        string
	imageEndpoint string
	videoEndpoint string
	count         int
	client        *http.Client
	slots         chan struct{}
}

func NewBrave(cfg BraveConfig) *Brave {
	if cfg.ImageEndpoint == "" {
		cfg.ImageEndpoint = defaultImageEndpoint
	}
	if cfg.VideoEndpoint == "" {
		cfg.VideoEndpoint = defaultVideoEndpoint
	}
	if cfg.ResultCount <= 0 {
		cfg.ResultCount = 3
	}
	if cfg.MaxConcurrent <= 0 {
		cfg.MaxConcurrent = 8
	}
	return &Brave{
		apiKey:        cfg.APIKey,
		imageEndpoint: cfg.ImageEndpoint,
		videoEndpoint: cfg.VideoEndpoint,
		count:         cfg.ResultCount,
		client:        &http.Client{Timeout: 30 * time.Second},
		slots:         make(chan struct{}, cfg.MaxConcurrent),
	}
}

type imageResponse struct {
	Results []struct {
		Title     string `json:"title"`
		Thumbnail struct {
			Src string `json:"src"`
		} `json:"thumbnail"`
		Properties struct {
			URL string `json:"url"`
		} `json:"properties"`
	} `json:"results"`
}

type videoResponse struct {
	Results []struct {
		URL       string `json:"url"`
		Title     string `json:"title"`
		Thumbnail struct {
			Src string `json:"src"`
		} `json:"thumbnail"`
	} `json:"results"`
}

// DiscoverImage returns the first image candidate with a valid absolute URL,
// or nil when the query is empty or the provider yields nothing usable.
func (b *Brave) DiscoverImage(ctx context.Context, query string) *Hit {
	body := b.search(ctx, b.imageEndpoint, query)
	if body == nil {
		return nil
	}
	var parsed imageResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		slog.Warn("brave image search: bad response body", "error", err)
		return nil
	}
	for _, r := range parsed.Results {
		if !validMediaURL(r.Properties.URL) {
			continue
		}
		hit := &Hit{URL: r.Properties.URL, Title: strings.TrimSpace(r.Title)}
		if validMediaURL(r.Thumbnail.Src) {
			hit.ThumbnailURL = r.Thumbnail.Src
		}
		return hit
	}
	return nil
}

// DiscoverVideo returns the first video candidate with a valid absolute URL,
// or nil.
func (b *Brave) DiscoverVideo(ctx context.Context, query string) *Hit {
	body := b.search(ctx, b.videoEndpoint, query)
	if body == nil {
		return nil
	}
	var parsed videoResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		slog.Warn("brave video search: bad response body", "error", err)
		return nil
	}
	for _, r := range parsed.Results {
		if !validMediaURL(r.URL) {
			continue
		}
		hit := &Hit{URL: r.URL, Title: strings.TrimSpace(r.Title)}
		if validMediaURL(r.Thumbnail.Src) {
			hit.ThumbnailURL = r.Thumbnail.Src
		}
		return hit
	}
	return nil
}

// search performs one provider call. Any failure is logged and reported as
// nil; callers treat that as "no result".
func (b *Brave) search(ctx context.Context, endpoint, query string) []byte {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil
	}
	if b.apiKey == "" {
		slog.Debug("brave search not configured, skipping", "endpoint", endpoint)
		return nil
	}

	select {
	case b.slots <- struct{}{}:
		defer func() { <-b.slots }()
	case <-ctx.Done():
		slog.Warn("brave search: deadline elapsed waiting for slot", "query", query)
		return nil
	}

	params := url.Values{
		"q":     {query},
		"count": {fmt.Sprintf("%d", b.count)},
	}
	req, err := http.NewRequestWithContext(ctx, "GET", endpoint+"?"+params.Encode(), nil)
	if err != nil {
		slog.Warn("brave search: building request", "error", err)
		return nil
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Subscription-Token", b.apiKey)

	resp, err := b.client.Do(req)
	if err != nil {
		slog.Warn("brave search failed", "query", query, "error", err)
		return nil
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		slog.Warn("brave search: unexpected status", "query", query, "status", resp.StatusCode)
		return nil
	}

	buf, err := io.ReadAll(resp.Body)
	if err != nil {
		slog.Warn("brave search: reading response", "error", err)
		return nil
	}
	return buf
}

func validMediaURL(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}
