package enrich

import (
	"context"
	"errors"
	"log/slog"
	"math/rand/v2"
	"time"

	"golang.org/x/time/rate"

	"github.com/swenlabs/newswire/internal/news"
)

// RetryOptions bounds the live provider: attempt budget, per-attempt timeout,
// backoff shape and an outbound rate limit shared across requests.
type RetryOptions struct {
	MaxAttempts    int
	RequestTimeout time.Duration

	BackoffInitial time.Duration
	BackoffMax     time.Duration
	// BackoffJitterFrac applies +/- jitter to backoff sleeps (0.2 = +/-20%).
	BackoffJitterFrac float64

	// RateLimitRPS limits calls to the provider across concurrent requests.
	// Set to <=0 to disable.
	RateLimitRPS float64
}

func (o RetryOptions) withDefaults() RetryOptions {
	if o.MaxAttempts <= 0 {
		o.MaxAttempts = 3
	}
	if o.RequestTimeout <= 0 {
		o.RequestTimeout = 30 * time.Second
	}
	if o.BackoffInitial <= 0 {
		o.BackoffInitial = 500 * time.Millisecond
	}
	if o.BackoffMax <= 0 {
		o.BackoffMax = 8 * time.Second
	}
	if o.BackoffJitterFrac <= 0 {
		o.BackoffJitterFrac = 0.2
	}
	return o
}

// Retrier wraps an Enricher with the pipeline's failure policy: transient
// errors are retried with exponential backoff until the attempt budget runs
// out, permanent errors fail immediately, and either way the caller only ever
// sees an EnrichmentError.
type Retrier struct {
	next    Enricher
	opts    RetryOptions
	limiter *rate.Limiter
}

func NewRetrier(next Enricher, opts RetryOptions) *Retrier {
	opts = opts.withDefaults()
	var limiter *rate.Limiter
	if opts.RateLimitRPS > 0 {
		limiter = rate.NewLimiter(rate.Limit(opts.RateLimitRPS), 1)
	}
	return &Retrier{next: next, opts: opts, limiter: limiter}
}

func (r *Retrier) Enrich(ctx context.Context, title, body string) (news.Enrichment, error) {
	var lastErr error
	for attempt := 1; attempt <= r.opts.MaxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return news.Enrichment{}, &EnrichmentError{Err: err}
		}

		if r.limiter != nil {
			if err := r.limiter.Wait(ctx); err != nil {
				return news.Enrichment{}, &EnrichmentError{Err: err}
			}
		}

		reqCtx, cancel := context.WithTimeout(ctx, r.opts.RequestTimeout)
		out, err := r.next.Enrich(reqCtx, title, body)
		cancel()
		if err == nil {
			return out, nil
		}
		if errors.Is(err, context.Canceled) && ctx.Err() != nil {
			return news.Enrichment{}, &EnrichmentError{Err: ctx.Err()}
		}

		lastErr = err
		if !IsTransient(err) || attempt == r.opts.MaxAttempts {
			break
		}

		sleep := backoffSleep(r.opts, attempt)
		slog.Warn("enrichment attempt failed, retrying",
			"attempt", attempt, "backoff", sleep, "error", err)

		t := time.NewTimer(sleep)
		select {
		case <-t.C:
		case <-ctx.Done():
			t.Stop()
			return news.Enrichment{}, &EnrichmentError{Err: ctx.Err()}
		}
	}
	return news.Enrichment{}, &EnrichmentError{Err: lastErr}
}

func backoffSleep(opts RetryOptions, attempt int) time.Duration {
	sleep := opts.BackoffInitial
	for i := 1; i < attempt && sleep < opts.BackoffMax; i++ {
		sleep *= 2
		if sleep > opts.BackoffMax {
			sleep = opts.BackoffMax
			break
		}
	}
	j := 1 + (rand.Float64()*2-1)*opts.BackoffJitterFrac
	return time.Duration(float64(sleep) * j)
}
