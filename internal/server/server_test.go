package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/swenlabs/newswire/internal/enrich"
	"github.com/swenlabs/newswire/internal/media"
	"github.com/swenlabs/newswire/internal/news"
	"github.com/swenlabs/newswire/internal/pipeline"
)

type fakeStore struct {
	mu      sync.Mutex
	records map[string]*news.Record
	order   []string
}

func newFakeStore() *fakeStore {
	return &fakeStore{records: make(map[string]*news.Record)}
}

func (s *fakeStore) Save(_ context.Context, r *news.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.records[r.ID]; ok {
		return news.ErrDuplicateSlug
	}
	s.records[r.ID] = r
	s.order = append(s.order, r.ID)
	return nil
}

func (s *fakeStore) Get(_ context.Context, id string) (*news.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.records[id]
	if !ok {
		return nil, news.ErrNotFound
	}
	return r, nil
}

func (s *fakeStore) List(_ context.Context, limit, offset int) ([]news.RecordSummary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []news.RecordSummary
	for i := len(s.order) - 1; i >= 0; i-- {
		if offset > 0 {
			offset--
			continue
		}
		if len(out) == limit {
			break
		}
		r := s.records[s.order[i]]
		out = append(out, news.RecordSummary{
			ID: r.ID, Title: r.Title, Summary: r.Summary, Tags: r.Tags,
			RelevanceScore: r.RelevanceScore, PublishedAt: r.PublishedAt,
			IngestedAt: r.IngestedAt, FeaturedImageURL: r.FeaturedImageURL,
		})
	}
	return out, nil
}

func (s *fakeStore) Count(_ context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.records), nil
}

type noFinder struct{}

func (noFinder) DiscoverImage(context.Context, string) *media.Hit { return nil }
func (noFinder) DiscoverVideo(context.Context, string) *media.Hit { return nil }

type failingEnricher struct{}

func (failingEnricher) Enrich(context.Context, string, string) (news.Enrichment, error) {
	return news.Enrichment{}, &enrich.EnrichmentError{Err: errors.New("provider unavailable")}
}

func newTestServer(t *testing.T, enricher enrich.Enricher) (*Server, *fakeStore) {
	t.Helper()
	store := newFakeStore()
	pipe := pipeline.New(enricher, noFinder{}, store, pipeline.Options{})
	srv, err := New(store, pipe, "test")
	if err != nil {
		t.Fatalf("creating server: %v", err)
	}
	return srv, store
}

func ingestBody() string {
	return `{
		"title": "Test Article",
		"body": "Some body text for the article.",
		"source_url": "https://example.com/a",
		"publisher": "Example News",
		"published_at": "2026-08-20T06:00:00Z"
	}`
}

func TestIngestEndpoint(t *testing.T) {
	srv, store := newTestServer(t, enrich.NewMock())

	req := httptest.NewRequest("POST", "/api/v1/ingest", strings.NewReader(ingestBody()))
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)

	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
	}

	var resp ingestResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if resp.Status != "success" || resp.ID == "" || resp.Data == nil {
		t.Errorf("unexpected response: %+v", resp)
	}
	if resp.Data.Summary == "" {
		t.Error("expected enriched summary in response data")
	}
	if _, err := store.Get(context.Background(), resp.ID); err != nil {
		t.Errorf("record not persisted: %v", err)
	}
}

func TestIngestEndpointBadJSON(t *testing.T) {
	srv, _ := newTestServer(t, enrich.NewMock())

	req := httptest.NewRequest("POST", "/api/v1/ingest", strings.NewReader("{not json"))
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", w.Code)
	}
}

func TestIngestEndpointValidationError(t *testing.T) {
	srv, _ := newTestServer(t, enrich.NewMock())

	body := `{"title": "", "body": "x", "source_url": "https://example.com/a", "publisher": "P", "published_at": "2026-08-20"}`
	req := httptest.NewRequest("POST", "/api/v1/ingest", strings.NewReader(body))
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)

	if w.Code != http.StatusUnprocessableEntity {
		t.Errorf("expected 422, got %d: %s", w.Code, w.Body.String())
	}
}

func TestIngestEndpointEnrichmentFailure(t *testing.T) {
	srv, store := newTestServer(t, failingEnricher{})

	req := httptest.NewRequest("POST", "/api/v1/ingest", strings.NewReader(ingestBody()))
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)

	if w.Code != http.StatusBadGateway {
		t.Errorf("expected 502, got %d: %s", w.Code, w.Body.String())
	}
	if n, _ := store.Count(context.Background()); n != 0 {
		t.Errorf("expected nothing persisted, got %d records", n)
	}
}

func TestGetNewsEndpoint(t *testing.T) {
	srv, store := newTestServer(t, enrich.NewMock())

	pipe := pipeline.New(enrich.NewMock(), noFinder{}, store, pipeline.Options{})
	rec, err := pipe.Ingest(context.Background(), news.RawInput{
		Title: "Stored", Body: "Body.", SourceURL: "https://example.com/s",
		Publisher: "P", PublishedAt: "2026-08-20",
	})
	if err != nil {
		t.Fatalf("seeding record: %v", err)
	}

	req := httptest.NewRequest("GET", "/api/v1/news/"+rec.ID, nil)
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var got news.Record
	if err := json.Unmarshal(w.Body.Bytes(), &got); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if got.ID != rec.ID || got.Title != "Stored" {
		t.Errorf("unexpected record: %+v", got)
	}
}

func TestGetNewsEndpointNotFound(t *testing.T) {
	srv, _ := newTestServer(t, enrich.NewMock())

	req := httptest.NewRequest("GET", "/api/v1/news/no-such-id", nil)
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", w.Code)
	}
}

func TestListNewsEndpointEmpty(t *testing.T) {
	srv, _ := newTestServer(t, enrich.NewMock())

	req := httptest.NewRequest("GET", "/api/v1/news", nil)
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var resp listResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if resp.Total != 0 {
		t.Errorf("expected total 0, got %d", resp.Total)
	}
	if resp.Items == nil {
		t.Error("expected empty items array, not null")
	}
	if !strings.Contains(w.Body.String(), `"items":[]`) {
		t.Errorf("expected items:[] in body: %s", w.Body.String())
	}
}

func TestHealthEndpoint(t *testing.T) {
	srv, _ := newTestServer(t, enrich.NewMock())

	req := httptest.NewRequest("GET", "/api/v1/health", nil)
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var resp map[string]string
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if resp["status"] != "ok" || resp["version"] != "test" {
		t.Errorf("unexpected health response: %v", resp)
	}
}

func TestIndexPage(t *testing.T) {
	srv, store := newTestServer(t, enrich.NewMock())

	pipe := pipeline.New(enrich.NewMock(), noFinder{}, store, pipeline.Options{})
	if _, err := pipe.Ingest(context.Background(), news.RawInput{
		Title: "Visible Headline", Body: "Body text here.", SourceURL: "https://example.com/v",
		Publisher: "P", PublishedAt: "2026-08-20",
	}); err != nil {
		t.Fatalf("seeding record: %v", err)
	}

	req := httptest.NewRequest("GET", "/", nil)
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); !strings.Contains(ct, "text/html") {
		t.Errorf("unexpected content type: %q", ct)
	}
	if !strings.Contains(w.Body.String(), "Visible Headline") {
		t.Error("expected record title on index page")
	}
}

func TestArticlePage(t *testing.T) {
	srv, store := newTestServer(t, enrich.NewMock())

	pipe := pipeline.New(enrich.NewMock(), noFinder{}, store, pipeline.Options{})
	rec, err := pipe.Ingest(context.Background(), news.RawInput{
		Title: "Readable Article", Body: "Body text with **markdown**.", SourceURL: "https://example.com/r",
		Publisher: "P", PublishedAt: "2026-08-20",
	})
	if err != nil {
		t.Fatalf("seeding record: %v", err)
	}

	req := httptest.NewRequest("GET", "/article/"+rec.ID, nil)
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	body := w.Body.String()
	if !strings.Contains(body, "Readable Article") {
		t.Error("expected article title on page")
	}
	if !strings.Contains(body, "<strong>markdown</strong>") {
		t.Error("expected markdown rendered to HTML")
	}
}

func TestArticlePageNotFound(t *testing.T) {
	srv, _ := newTestServer(t, enrich.NewMock())

	req := httptest.NewRequest("GET", "/article/no-such-id", nil)
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", w.Code)
	}
}
