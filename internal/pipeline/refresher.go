// Package pipeline runs the fetch → validate → enrich → encode → compose loop
// that keeps the served map snapshot current.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/couchcryptid/quake-map-service/internal/domain"
	"github.com/couchcryptid/quake-map-service/internal/mapview"
	"github.com/couchcryptid/quake-map-service/internal/observability"
	"github.com/jonboulle/clockwork"
)

const (
	initialBackoff = 200 * time.Millisecond
	maxBackoff     = 5 * time.Second
)

// FeedFetcher downloads the raw feed document.
type FeedFetcher interface {
	Fetch(ctx context.Context) ([]byte, error)
	URL() string
}

// FeedStore persists the last good feed document.
type FeedStore interface {
	Save(ctx context.Context, doc domain.FeedDocument) error
	Latest(ctx context.Context, feedURL string) (domain.FeedDocument, error)
}

// Publisher forwards a fresh snapshot downstream and reports how many
// messages it wrote.
type Publisher interface {
	Publish(ctx context.Context, snap *mapview.Snapshot) (int, error)
}

// Options carries the refresher's optional collaborators and tuning. Nil
// collaborators disable their stage.
type Options struct {
	Interval   time.Duration
	MaxRetries int
	Geocoder   domain.Geocoder
	Store      FeedStore
	Publisher  Publisher
	Clock      clockwork.Clock
}

// Refresher owns the current snapshot and replaces it on every successful
// reload. Readers never block on a refresh.
type Refresher struct {
	fetcher    FeedFetcher
	composer   *mapview.Composer
	geocoder   domain.Geocoder
	store      FeedStore
	publisher  Publisher
	clock      clockwork.Clock
	logger     *slog.Logger
	metrics    *observability.Metrics
	interval   time.Duration
	maxRetries int

	current atomic.Pointer[mapview.Snapshot]

	mu      sync.RWMutex
	lastErr error
}

// New creates a Refresher.
func New(fetcher FeedFetcher, composer *mapview.Composer, logger *slog.Logger, metrics *observability.Metrics, opts Options) *Refresher {
	if opts.Clock == nil {
		opts.Clock = clockwork.NewRealClock()
	}
	if opts.Interval <= 0 {
		opts.Interval = 5 * time.Minute
	}
	if opts.MaxRetries < 0 {
		opts.MaxRetries = 0
	}
	return &Refresher{
		fetcher:    fetcher,
		composer:   composer,
		geocoder:   opts.Geocoder,
		store:      opts.Store,
		publisher:  opts.Publisher,
		clock:      opts.Clock,
		logger:     logger,
		metrics:    metrics,
		interval:   opts.Interval,
		maxRetries: opts.MaxRetries,
	}
}

// Current returns the snapshot being served, or nil before the first load.
func (r *Refresher) Current() *mapview.Snapshot {
	return r.current.Load()
}

// LastError returns the error from the most recent refresh, or nil if it
// succeeded.
func (r *Refresher) LastError() error {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.lastErr
}

// CheckReadiness returns nil once a snapshot is available.
func (r *Refresher) CheckReadiness(_ context.Context) error {
	if r.current.Load() != nil {
		return nil
	}
	if err := r.LastError(); err != nil {
		return fmt.Errorf("no earthquake data loaded: %w", err)
	}
	return errors.New("no earthquake data loaded yet")
}

// Run restores any stored snapshot, then refreshes every interval until the
// context is cancelled. Refresh failures are logged and do not stop the loop.
func (r *Refresher) Run(ctx context.Context) error {
	r.logger.Info("refresher started", "feed_url", r.fetcher.URL(), "interval", r.interval, "max_retries", r.maxRetries)
	r.metrics.RefresherRunning.Set(1)
	defer r.metrics.RefresherRunning.Set(0)

	if err := r.Restore(ctx); err != nil && !errors.Is(err, domain.ErrNoStoredFeed) {
		r.logger.Warn("restore stored feed failed", "error", err)
	}

	for {
		if err := r.Refresh(ctx); err != nil {
			if ctx.Err() != nil {
				break
			}
			r.logger.Error("feed refresh failed", "error", err)
		}

		if !sleepWithContext(ctx, r.clock, r.interval) {
			break
		}
	}

	r.logger.Info("refresher stopping", "reason", ctx.Err())
	return nil
}

// Restore loads the stored feed document, if a store is configured, and
// serves it until the first live refresh succeeds.
func (r *Refresher) Restore(ctx context.Context) error {
	if r.store == nil {
		return domain.ErrNoStoredFeed
	}
	doc, err := r.store.Latest(ctx, r.fetcher.URL())
	if err != nil {
		return err
	}
	parsed, err := domain.ParseFeed(doc.Body)
	if err != nil {
		return fmt.Errorf("rebuild stored feed: %w", err)
	}
	snap := r.build(ctx, parsed, doc.FetchedAt)
	r.swap(snap)
	r.logger.Info("restored stored feed", "fetched_at", doc.FetchedAt, "earthquakes", len(snap.Earthquakes))
	return nil
}

// Refresh performs one full reload with bounded retries. On failure the
// previous snapshot keeps serving and the error is recorded.
func (r *Refresher) Refresh(ctx context.Context) error {
	body, parsed, err := r.fetchWithRetry(ctx)
	if err != nil {
		r.setLastErr(err)
		return err
	}

	fetchedAt := r.clock.Now().UTC()
	snap := r.build(ctx, parsed, fetchedAt)

	r.swap(snap)
	r.setLastErr(nil)
	r.logger.Info("feed refreshed",
		"earthquakes", len(snap.Earthquakes),
		"skipped", snap.Skipped,
		"title", snap.Title,
	)

	r.save(ctx, body, fetchedAt)
	r.publish(ctx, snap)
	return nil
}

// fetchWithRetry fetches and parses the feed, retrying with exponential
// backoff up to maxRetries times. It returns the raw body for the store
// alongside the parsed document.
func (r *Refresher) fetchWithRetry(ctx context.Context) ([]byte, domain.ParsedFeed, error) {
	backoff := initialBackoff
	var lastErr error

	for attempt := 0; attempt <= r.maxRetries; attempt++ {
		if attempt > 0 {
			r.logger.Warn("retrying feed fetch", "attempt", attempt+1, "backoff", backoff, "error", lastErr)
			if !sleepWithContext(ctx, r.clock, backoff) {
				return nil, domain.ParsedFeed{}, ctx.Err()
			}
			backoff = nextBackoff(backoff, maxBackoff)
		}

		start := r.clock.Now()
		body, err := r.fetcher.Fetch(ctx)
		r.metrics.FeedFetchDuration.Observe(r.clock.Since(start).Seconds())
		if err == nil {
			var parsed domain.ParsedFeed
			if parsed, err = domain.ParseFeed(body); err == nil {
				r.metrics.FeedFetches.WithLabelValues("success").Inc()
				return body, parsed, nil
			}
		}

		r.metrics.FeedFetches.WithLabelValues("error").Inc()
		lastErr = err
		if ctx.Err() != nil {
			return nil, domain.ParsedFeed{}, ctx.Err()
		}
	}
	return nil, domain.ParsedFeed{}, fmt.Errorf("fetch feed after %d attempts: %w", r.maxRetries+1, lastErr)
}

// build turns a parsed feed into a snapshot.
func (r *Refresher) build(ctx context.Context, parsed domain.ParsedFeed, fetchedAt time.Time) *mapview.Snapshot {
	for _, s := range parsed.Skipped {
		r.logger.Warn("skipping malformed feature", "index", s.Index, "id", s.ID, "reason", s.Reason)
	}
	r.metrics.FeaturesLoaded.Add(float64(len(parsed.Earthquakes)))
	r.metrics.FeaturesSkipped.Add(float64(len(parsed.Skipped)))

	quakes := domain.EnrichAllWithGeocoding(ctx, parsed.Earthquakes, r.geocoder, r.logger)

	return &mapview.Snapshot{
		Title:       parsed.Title,
		FetchedAt:   fetchedAt,
		GeneratedAt: parsed.GeneratedAt,
		Earthquakes: quakes,
		Skipped:     len(parsed.Skipped),
		View:        r.composer.Compose(quakes),
	}
}

func (r *Refresher) swap(snap *mapview.Snapshot) {
	r.current.Store(snap)
	r.metrics.SnapshotTimestamp.Set(float64(snap.FetchedAt.Unix()))
	r.metrics.SnapshotQuakes.Set(float64(len(snap.Earthquakes)))
}

func (r *Refresher) save(ctx context.Context, body []byte, fetchedAt time.Time) {
	if r.store == nil {
		return
	}
	doc := domain.FeedDocument{URL: r.fetcher.URL(), FetchedAt: fetchedAt, Body: body}
	if err := r.store.Save(ctx, doc); err != nil {
		r.logger.Warn("store feed document failed", "error", err)
	}
}

func (r *Refresher) publish(ctx context.Context, snap *mapview.Snapshot) {
	if r.publisher == nil {
		return
	}
	n, err := r.publisher.Publish(ctx, snap)
	if err != nil {
		r.metrics.PublishErrors.Inc()
		r.logger.Error("publish markers failed", "error", err, "markers", len(snap.View.Markers))
		return
	}
	r.metrics.MarkersPublished.Add(float64(n))
}

func (r *Refresher) setLastErr(err error) {
	r.mu.Lock()
	r.lastErr = err
	r.mu.Unlock()
}

func nextBackoff(current, maxBackoff time.Duration) time.Duration {
	next := current * 2
	if next > maxBackoff {
		return maxBackoff
	}
	return next
}

func sleepWithContext(ctx context.Context, clock clockwork.Clock, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}

	timer := clock.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-timer.Chan():
		return true
	}
}
