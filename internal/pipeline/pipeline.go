// Package pipeline orchestrates the enrichment of one raw news item into a
// persisted canonical record.
//
// Stage graph: Received -> Validated -> Enriched -> MediaResolved ->
// Assembled -> Completed, with Failed terminal from the first two stages.
// Validation and enrichment failures abort before any side effect; media
// discovery never aborts; persistence failures abort after the record was
// fully computed.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/swenlabs/newswire/internal/enrich"
	"github.com/swenlabs/newswire/internal/media"
	"github.com/swenlabs/newswire/internal/news"
	"github.com/swenlabs/newswire/internal/slug"
)

// Stage identifies a point in the ingest state machine.
type Stage string

const (
	StageReceived      Stage = "received"
	StageValidated     Stage = "validated"
	StageEnriched      Stage = "enriched"
	StageMediaResolved Stage = "media_resolved"
	StageAssembled     Stage = "assembled"
	StageCompleted     Stage = "completed"
	StageFailed        Stage = "failed"
)

// PersistenceError means the store rejected the fully-computed record, either
// outright or by exhausting the slug collision retry budget. The caller may
// retry the whole ingest; a fresh slug will be generated.
type PersistenceError struct {
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persisting record: %v", e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}

// Options tunes per-request pipeline behavior.
type Options struct {
	// MediaTimeout is the shared deadline for the concurrent image and video
	// discovery calls. Elapsing it degrades media to absent, never fails the
	// request.
	MediaTimeout time.Duration

	// SlugAttempts bounds how many fresh slugs are tried when the store
	// reports duplicates.
	SlugAttempts int
}

func (o Options) withDefaults() Options {
	if o.MediaTimeout <= 0 {
		o.MediaTimeout = 20 * time.Second
	}
	if o.SlugAttempts <= 0 {
		o.SlugAttempts = 3
	}
	return o
}

// Pipeline wires the enrichment collaborators together. One instance serves
// many concurrent requests; it holds no per-request state.
type Pipeline struct {
	enricher enrich.Enricher
	finder   media.Finder
	store    news.Store
	opts     Options
}

// New creates a pipeline over the given collaborators.
func New(enricher enrich.Enricher, finder media.Finder, store news.Store, opts Options) *Pipeline {
	return &Pipeline{
		enricher: enricher,
		finder:   finder,
		store:    store,
		opts:     opts.withDefaults(),
	}
}

// Ingest runs one raw item through the full pipeline and returns the
// persisted record. Failures are typed: *news.ValidationError,
// *enrich.EnrichmentError or *PersistenceError.
func (p *Pipeline) Ingest(ctx context.Context, raw news.RawInput) (*news.Record, error) {
	ingestedAt := time.Now().UTC()
	p.transition(StageReceived, "")

	norm, err := news.Normalize(raw)
	if err != nil {
		p.failed(StageReceived, err)
		return nil, err
	}
	p.transition(StageValidated, norm.Title)

	enr, err := p.enricher.Enrich(ctx, norm.Title, norm.Body)
	if err != nil {
		var ee *enrich.EnrichmentError
		if !errors.As(err, &ee) {
			err = &enrich.EnrichmentError{Err: err}
		}
		p.failed(StageValidated, err)
		return nil, err
	}
	p.transition(StageEnriched, norm.Title)

	med := p.resolveMedia(ctx, enr)
	p.transition(StageMediaResolved, norm.Title)

	for attempt := 1; ; attempt++ {
		rec := Assemble(norm, enr, med, slug.Assign(norm.Title), ingestedAt, time.Now().UTC())
		p.transition(StageAssembled, rec.ID)

		err = p.store.Save(ctx, rec)
		if err == nil {
			p.transition(StageCompleted, rec.ID)
			return rec, nil
		}
		if !errors.Is(err, news.ErrDuplicateSlug) {
			return nil, &PersistenceError{Err: err}
		}
		if attempt >= p.opts.SlugAttempts {
			return nil, &PersistenceError{
				Err: fmt.Errorf("slug collisions exhausted after %d attempts: %w", attempt, err),
			}
		}
		slog.Warn("slug collision, reassigning", "slug", rec.ID, "attempt", attempt)
	}
}

// resolveMedia runs image and video discovery concurrently under one shared
// deadline. This is the pipeline's only fan-out point; whatever has not
// resolved when the deadline elapses is simply absent.
func (p *Pipeline) resolveMedia(ctx context.Context, enr news.Enrichment) news.Media {
	mctx, cancel := context.WithTimeout(ctx, p.opts.MediaTimeout)
	defer cancel()

	var img, vid *media.Hit
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		img = p.finder.DiscoverImage(mctx, enr.ImageQuery)
	}()
	go func() {
		defer wg.Done()
		vid = p.finder.DiscoverVideo(mctx, enr.VideoQuery)
	}()
	wg.Wait()

	if img == nil && vid == nil {
		slog.Info("media discovery returned nothing, continuing degraded",
			"image_query", enr.ImageQuery, "video_query", enr.VideoQuery)
		return news.Media{}
	}

	var med news.Media
	if img != nil {
		med.FeaturedImageURL = img.URL
		med.ThumbnailURL = img.ThumbnailURL
	}
	if vid != nil {
		med.RelatedVideoURL = vid.URL
		if med.ThumbnailURL == "" {
			med.ThumbnailURL = vid.ThumbnailURL
		}
	}
	med.MediaJustification = justification(enr, img, vid)
	return med
}

func justification(enr news.Enrichment, img, vid *media.Hit) string {
	var parts []string
	if img != nil {
		parts = append(parts, fmt.Sprintf("image matched query %q", enr.ImageQuery))
	}
	if vid != nil {
		parts = append(parts, fmt.Sprintf("video matched query %q", enr.VideoQuery))
	}
	return "Discovered via media search: " + strings.Join(parts, "; ") + "."
}

func (p *Pipeline) transition(s Stage, ref string) {
	slog.Debug("pipeline stage", "stage", s, "ref", ref)
}

func (p *Pipeline) failed(from Stage, err error) {
	slog.Debug("pipeline stage", "stage", StageFailed, "from", from, "error", err)
}
