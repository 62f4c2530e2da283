package enrich

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/swenlabs/newswire/internal/news"
)

// scriptedEnricher fails with the queued errors before succeeding.
type scriptedEnricher struct {
	errs  []error
	calls int
}

func (s *scriptedEnricher) Enrich(_ context.Context, _, _ string) (news.Enrichment, error) {
	s.calls++
	if len(s.errs) > 0 {
		err := s.errs[0]
		s.errs = s.errs[1:]
		return news.Enrichment{}, err
	}
	return news.Enrichment{Summary: "ok", Tags: []string{"#Test"}}, nil
}

func fastOpts() RetryOptions {
	return RetryOptions{
		MaxAttempts:    3,
		BackoffInitial: time.Millisecond,
		BackoffMax:     2 * time.Millisecond,
	}
}

func TestRetrierSucceedsFirstTry(t *testing.T) {
	inner := &scriptedEnricher{}
	r := NewRetrier(inner, fastOpts())

	out, err := r.Enrich(context.Background(), "t", "b")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.Summary != "ok" {
		t.Errorf("unexpected result: %+v", out)
	}
	if inner.calls != 1 {
		t.Errorf("expected 1 call, got %d", inner.calls)
	}
}

func TestRetrierRetriesTransient(t *testing.T) {
	inner := &scriptedEnricher{errs: []error{
		&TransientError{Err: errors.New("rate limited")},
		&TransientError{Err: errors.New("server error")},
	}}
	r := NewRetrier(inner, fastOpts())

	_, err := r.Enrich(context.Background(), "t", "b")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if inner.calls != 3 {
		t.Errorf("expected 3 calls, got %d", inner.calls)
	}
}

func TestRetrierStopsOnPermanent(t *testing.T) {
	inner := &scriptedEnricher{errs: []error{
		errors.New("invalid request"),
		&TransientError{Err: errors.New("never reached")},
	}}
	r := NewRetrier(inner, fastOpts())

	_, err := r.Enrich(context.Background(), "t", "b")
	var ee *EnrichmentError
	if !errors.As(err, &ee) {
		t.Fatalf("expected EnrichmentError, got %v", err)
	}
	if inner.calls != 1 {
		t.Errorf("permanent error should not be retried, got %d calls", inner.calls)
	}
}

func TestRetrierExhaustsBudget(t *testing.T) {
	inner := &scriptedEnricher{errs: []error{
		&TransientError{Err: errors.New("a")},
		&TransientError{Err: errors.New("b")},
		&TransientError{Err: errors.New("c")},
		&TransientError{Err: errors.New("d")},
	}}
	r := NewRetrier(inner, fastOpts())

	_, err := r.Enrich(context.Background(), "t", "b")
	var ee *EnrichmentError
	if !errors.As(err, &ee) {
		t.Fatalf("expected EnrichmentError, got %v", err)
	}
	if inner.calls != 3 {
		t.Errorf("expected exactly 3 attempts, got %d", inner.calls)
	}
}

func TestRetrierHonorsCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	inner := &scriptedEnricher{}
	r := NewRetrier(inner, fastOpts())

	_, err := r.Enrich(ctx, "t", "b")
	var ee *EnrichmentError
	if !errors.As(err, &ee) {
		t.Fatalf("expected EnrichmentError, got %v", err)
	}
	if inner.calls != 0 {
		t.Errorf("expected no calls with cancelled context, got %d", inner.calls)
	}
}

func TestBackoffSleepGrows(t *testing.T) {
	opts := RetryOptions{
		BackoffInitial:    100 * time.Millisecond,
		BackoffMax:        time.Second,
		BackoffJitterFrac: 0.0001,
	}.withDefaults()

	first := backoffSleep(opts, 1)
	third := backoffSleep(opts, 3)
	if third <= first {
		t.Errorf("expected backoff to grow: attempt1=%v attempt3=%v", first, third)
	}
	if got := backoffSleep(opts, 10); got > 2*opts.BackoffMax {
		t.Errorf("backoff exceeded cap: %v", got)
	}
}
