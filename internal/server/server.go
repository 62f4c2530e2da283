// Package server exposes the pipeline over HTTP: a JSON API under /api/v1
// plus a small HTML reading view.
package server

import (
	"bytes"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/yuin/goldmark"

	"github.com/swenlabs/newswire/internal/enrich"
	"github.com/swenlabs/newswire/internal/news"
	"github.com/swenlabs/newswire/internal/pipeline"
)

//go:embed templates/*.html
var templateFS embed.FS

var md = goldmark.New()

// Server handles ingestion and retrieval requests.
type Server struct {
	store   news.Store
	pipe    *pipeline.Pipeline
	version string
	pages   map[string]*template.Template
	mux     *http.ServeMux
}

// New creates a new Server over the given store and pipeline.
func New(store news.Store, pipe *pipeline.Pipeline, version string) (*Server, error) {
	funcMap := template.FuncMap{
		"markdown": renderMarkdown,
	}

	base, err := template.New("base.html").Funcs(funcMap).ParseFS(templateFS, "templates/base.html")
	if err != nil {
		return nil, fmt.Errorf("parsing base template: %w", err)
	}

	pageNames := []string{"index.html", "article.html"}
	pages := make(map[string]*template.Template, len(pageNames))
	for _, name := range pageNames {
		clone, err := base.Clone()
		if err != nil {
			return nil, fmt.Errorf("cloning base for %s: %w", name, err)
		}
		if _, err := clone.ParseFS(templateFS, "templates/"+name); err != nil {
			return nil, fmt.Errorf("parsing template %s: %w", name, err)
		}
		pages[name] = clone
	}

	s := &Server{store: store, pipe: pipe, version: version, pages: pages, mux: http.NewServeMux()}
	s.routes()
	return s, nil
}

// Handler returns the HTTP handler for the server.
func (s *Server) Handler() http.Handler {
	return s.mux
}

func (s *Server) routes() {
	s.mux.HandleFunc("POST /api/v1/ingest", s.handleIngest)
	s.mux.HandleFunc("GET /api/v1/news", s.handleListNews)
	s.mux.HandleFunc("GET /api/v1/news/{id}", s.handleGetNews)
	s.mux.HandleFunc("GET /api/v1/health", s.handleHealth)

	s.mux.HandleFunc("GET /{$}", s.handleIndex)
	s.mux.HandleFunc("GET /article/{id}", s.handleArticle)
}

type ingestResponse struct {
	Status  string       `json:"status"`
	Message string       `json:"message"`
	ID      string       `json:"id"`
	Data    *news.Record `json:"data"`
}

type listResponse struct {
	Total int                  `json:"total"`
	Items []news.RecordSummary `json:"items"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) handleIngest(w http.ResponseWriter, r *http.Request) {
	var raw news.RawInput
	if err := json.NewDecoder(r.Body).Decode(&raw); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid JSON body"})
		return
	}

	rec, err := s.pipe.Ingest(r.Context(), raw)
	if err != nil {
		status := http.StatusInternalServerError
		var ve *news.ValidationError
		var ee *enrich.EnrichmentError
		var pe *pipeline.PersistenceError
		switch {
		case errors.As(err, &ve):
			status = http.StatusUnprocessableEntity
		case errors.As(err, &ee):
			status = http.StatusBadGateway
		case errors.As(err, &pe):
			status = http.StatusInternalServerError
		}
		slog.Error("ingest failed", "status", status, "error", err)
		writeJSON(w, status, errorResponse{Error: err.Error()})
		return
	}

	writeJSON(w, http.StatusCreated, ingestResponse{
		Status:  "success",
		Message: "news article successfully ingested and enriched",
		ID:      rec.ID,
		Data:    rec,
	})
}

func (s *Server) handleGetNews(w http.ResponseWriter, r *http.Request) {
	rec, err := s.store.Get(r.Context(), r.PathValue("id"))
	if errors.Is(err, news.ErrNotFound) {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "record not found"})
		return
	}
	if err != nil {
		slog.Error("get record failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal error"})
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (s *Server) handleListNews(w http.ResponseWriter, r *http.Request) {
	limit := queryInt(r, "limit", 100)
	offset := queryInt(r, "offset", 0)

	items, err := s.store.List(r.Context(), limit, offset)
	if err != nil {
		slog.Error("list records failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal error"})
		return
	}
	total, err := s.store.Count(r.Context())
	if err != nil {
		slog.Error("count records failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal error"})
		return
	}
	if items == nil {
		items = []news.RecordSummary{}
	}
	writeJSON(w, http.StatusOK, listResponse{Total: total, Items: items})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"version": s.version,
	})
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	items, err := s.store.List(r.Context(), 50, 0)
	if err != nil {
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	s.render(w, "index.html", map[string]any{
		"Items": items,
	})
}

func (s *Server) handleArticle(w http.ResponseWriter, r *http.Request) {
	rec, err := s.store.Get(r.Context(), r.PathValue("id"))
	if errors.Is(err, news.ErrNotFound) {
		http.NotFound(w, r)
		return
	}
	if err != nil {
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	s.render(w, "article.html", map[string]any{
		"Record": rec,
	})
}

func (s *Server) render(w http.ResponseWriter, name string, data any) {
	tmpl, ok := s.pages[name]
	if !ok {
		slog.Error("template not found", "name", name)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := tmpl.ExecuteTemplate(w, "base.html", data); err != nil {
		slog.Error("rendering template", "name", name, "error", err)
	}
}

func renderMarkdown(text string) template.HTML {
	var buf bytes.Buffer
	if err := md.Convert([]byte(text), &buf); err != nil {
		return template.HTML(template.HTMLEscapeString(text))
	}
	return template.HTML(buf.String()) //nolint: gosec
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("encoding response", "error", err)
	}
}

func queryInt(r *http.Request, key string, fallback int) int {
	raw := strings.TrimSpace(r.URL.Query().Get(key))
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return n
}

// Serve starts the HTTP server on the given port.
func Serve(store news.Store, pipe *pipeline.Pipeline, port int, version string) error {
	srv, err := New(store, pipe, version)
	if err != nil {
		return err
	}

	addr := fmt.Sprintf("127.0.0.1:%d", port)
	slog.Info("server listening", "addr", "http://"+addr)
	return http.ListenAndServe(addr, srv.Handler())
}
