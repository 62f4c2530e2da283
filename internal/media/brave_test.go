package media

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
)

func newTestBrave(t *testing.T, imageBody, videoBody string, hits *atomic.Int32) *Brave {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits != nil {
			hits.Add(1)
		}
		if r.Header.Get("X-Subscription-Token") == "" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/images":
			w.Write([]byte(imageBody))
		case "/videos":
			w.Write([]byte(videoBody))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	t.Cleanup(srv.Close)

	return NewBrave(BraveConfig{
		APIKey:        "test-key",
		ImageEndpoint: srv.URL + "/images",
		VideoEndpoint: srv.URL + "/videos",
	})
}

func TestDiscoverImage(t *testing.T) {
	b := newTestBrave(t, `{
		"results": [
			{"title": "First", "properties": {"url": "https://img.example.com/a.jpg"}, "thumbnail": {"src": "https://img.example.com/a-thumb.jpg"}},
			{"title": "Second", "properties": {"url": "https://img.example.com/b.jpg"}}
		]
	}`, `{}`, nil)

	hit := b.DiscoverImage(context.Background(), "test query")
	if hit == nil {
		t.Fatal("expected a hit")
	}
	if hit.URL != "https://img.example.com/a.jpg" {
		t.Errorf("unexpected url: %q", hit.URL)
	}
	if hit.ThumbnailURL != "https://img.example.com/a-thumb.jpg" {
		t.Errorf("unexpected thumbnail: %q", hit.ThumbnailURL)
	}
	if hit.Title != "First" {
		t.Errorf("unexpected title: %q", hit.Title)
	}
}

func TestDiscoverImageSkipsInvalidURLs(t *testing.T) {
	b := newTestBrave(t, `{
		"results": [
			{"title": "Relative", "properties": {"url": "/not/absolute.jpg"}},
			{"title": "NoScheme", "properties": {"url": "img.example.com/x.jpg"}},
			{"title": "Good", "properties": {"url": "https://img.example.com/ok.jpg"}}
		]
	}`, `{}`, nil)

	hit := b.DiscoverImage(context.Background(), "query")
	if hit == nil {
		t.Fatal("expected a hit")
	}
	if hit.URL != "https://img.example.com/ok.jpg" {
		t.Errorf("expected first valid candidate, got %q", hit.URL)
	}
}

func TestDiscoverVideo(t *testing.T) {
	b := newTestBrave(t, `{}`, `{
		"results": [
			{"url": "https://video.example.com/watch?v=1", "title": "Clip", "thumbnail": {"src": "https://video.example.com/t.jpg"}}
		]
	}`, nil)

	hit := b.DiscoverVideo(context.Background(), "query")
	if hit == nil {
		t.Fatal("expected a hit")
	}
	if hit.URL != "https://video.example.com/watch?v=1" {
		t.Errorf("unexpected url: %q", hit.URL)
	}
}

func TestDiscoverNoResults(t *testing.T) {
	b := newTestBrave(t, `{"results": []}`, `{"results": []}`, nil)

	if hit := b.DiscoverImage(context.Background(), "query"); hit != nil {
		t.Errorf("expected nil on empty results, got %+v", hit)
	}
	if hit := b.DiscoverVideo(context.Background(), "query"); hit != nil {
		t.Errorf("expected nil on empty results, got %+v", hit)
	}
}

func TestEmptyQuerySkipsRequest(t *testing.T) {
	var hits atomic.Int32
	b := newTestBrave(t, `{}`, `{}`, &hits)

	if hit := b.DiscoverImage(context.Background(), "   "); hit != nil {
		t.Errorf("expected nil for empty query, got %+v", hit)
	}
	if hits.Load() != 0 {
		t.Errorf("expected no provider call for empty query, got %d", hits.Load())
	}
}

func TestMissingAPIKeySkipsRequest(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
	}))
	t.Cleanup(srv.Close)

	b := NewBrave(BraveConfig{ImageEndpoint: srv.URL, VideoEndpoint: srv.URL})
	if hit := b.DiscoverImage(context.Background(), "query"); hit != nil {
		t.Errorf("expected nil without api key, got %+v", hit)
	}
	if hits.Load() != 0 {
		t.Errorf("expected no provider call without api key, got %d", hits.Load())
	}
}

func TestNon200IsDegraded(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	t.Cleanup(srv.Close)

	b := NewBrave(BraveConfig{APIKey: "k", ImageEndpoint: srv.URL, VideoEndpoint: srv.URL})
	if hit := b.DiscoverImage(context.Background(), "query"); hit != nil {
		t.Errorf("expected nil on provider error, got %+v", hit)
	}
}

func TestDiscoverHonorsDeadline(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	b := NewBrave(BraveConfig{APIKey: "k", MaxConcurrent: 1})
	b.slots <- struct{}{} // occupy the only slot

	if hit := b.DiscoverImage(ctx, "query"); hit != nil {
		t.Errorf("expected nil when deadline elapses waiting for a slot, got %+v", hit)
	}
}
