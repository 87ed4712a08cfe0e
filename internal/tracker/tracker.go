package tracker

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/nao1215/pricewatch/internal/config"
	"github.com/nao1215/pricewatch/internal/extract"
	"github.com/nao1215/pricewatch/internal/fetcher"
	"github.com/nao1215/pricewatch/internal/model"
	"github.com/nao1215/pricewatch/internal/price"
	"github.com/nao1215/pricewatch/internal/report"
)

// FetcherFactory builds the single fetcher shared by every site in a
// run. All sites reuse its connection pool; per-site headers travel
// with each request instead.
type FetcherFactory func() (*fetcher.Fetcher, error)

// Tracker runs the fetch and extract pipeline over all configured
// sites.
type Tracker struct {
	cfg        *config.Config
	logger     *slog.Logger
	newFetcher FetcherFactory
}

// Option configures a Tracker.
type Option func(*Tracker)

// WithLogger sets a custom logger for the tracker.
func WithLogger(logger *slog.Logger) Option {
	return func(t *Tracker) {
		t.logger = logger
	}
}

// WithFetcherFactory replaces how the run's fetcher is built.
// Tests use this to point the tracker at local servers.
func WithFetcherFactory(factory FetcherFactory) Option {
	return func(t *Tracker) {
		t.newFetcher = factory
	}
}

// New creates a Tracker for the given configuration.
func New(cfg *config.Config, opts ...Option) *Tracker {
	t := &Tracker{
		cfg: cfg,
	}

	for _, opt := range opts {
		opt(t)
	}

	if t.logger == nil {
		t.logger = slog.Default()
	}
	if t.newFetcher == nil {
		t.newFetcher = t.defaultFetcher
	}

	return t
}

// defaultFetcher builds the run's fetcher from the configuration.
func (t *Tracker) defaultFetcher() (*fetcher.Fetcher, error) {
	return fetcher.New(t.cfg.Timeout, t.cfg.Proxy,
		fetcher.WithUserAgent(t.cfg.UserAgent),
		fetcher.WithMaxAttempts(t.cfg.MaxAttempts),
		fetcher.WithLogger(t.logger),
	)
}

// Run tracks all configured sites concurrently and returns the run
// summary. Concurrency is capped by the configured limit, and each
// worker waits a random delay inside the pacing window before its
// request so the shops never see a synchronized burst.
//
// A site whose fetch fails contributes no record: the failure lands
// in the summary's error map and the result set holds only the sites
// that actually produced a page. Per-site failures are never returned
// as errors; the error return indicates cancellation or an unusable
// configuration.
func (t *Tracker) Run(ctx context.Context) (*report.Summary, error) {
	sites := t.cfg.Sites.Names()

	t.logger.Info("starting tracking run",
		"total_sites", len(sites),
		"concurrency", t.cfg.Concurrency,
	)

	startTime := time.Now()

	f, err := t.newFetcher()
	if err != nil {
		return nil, fmt.Errorf("build fetcher: %w", err)
	}
	defer f.Close()

	// Indexed by site position so the final set keeps stable site
	// order regardless of completion order.
	records := make([]model.ProductRecord, len(sites))
	fetched := make([]bool, len(sites))
	errs := make(map[string]string)
	var mu sync.Mutex

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(t.cfg.Concurrency)

	for i, site := range sites {
		g.Go(func() error {
			if i > 0 {
				if err := t.pace(ctx); err != nil {
					return err
				}
			}

			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}

			t.logger.Info("tracking site",
				"site", site,
				"index", i+1,
				"total", len(sites),
			)

			record, err := t.trackSite(ctx, f, site)

			mu.Lock()
			if err != nil {
				errs[site] = err.Error()
			} else {
				records[i] = record
				fetched[i] = true
			}
			mu.Unlock()

			if err != nil {
				t.logger.Warn("site failed",
					"site", site,
					"error", err,
				)
				// Other sites keep going; the failure lives in the
				// summary.
				return nil
			}

			t.logger.Info("site completed",
				"site", site,
				"price", record.Price,
			)
			return nil
		})
	}

	runErr := g.Wait()

	results := make([]model.ProductRecord, 0, len(sites))
	for i := range records {
		if fetched[i] {
			results = append(results, records[i])
		}
	}

	t.logger.Info("tracking run complete",
		"total_sites", len(sites),
		"failed", len(errs),
		"elapsed", time.Since(startTime),
	)

	summary := &report.Summary{
		GeneratedAt: time.Now(),
		Records:     results,
		Errors:      errs,
	}
	return summary, runErr
}

// trackSite fetches and extracts one site using the run's shared
// fetcher. A fetch failure yields no record; extraction misses on a
// fetched page degrade into the sentinel values.
func (t *Tracker) trackSite(ctx context.Context, f *fetcher.Fetcher, site string) (model.ProductRecord, error) {
	sc := t.cfg.Sites.GetSiteConfig(site)

	var normOpts []price.Option
	if sc.RetailThreshold > 0 {
		normOpts = append(normOpts, price.WithRetailThreshold(sc.RetailThreshold))
	}
	normalizer := price.New(normOpts...)

	markup, err := f.FetchWithHeaders(ctx, sc.URL, sc.Headers)
	if err != nil {
		return model.ProductRecord{}, err
	}

	return extract.For(site, normalizer).Extract(markup, sc.URL), nil
}

// pace sleeps a random duration inside the configured pacing window,
// or returns early on cancellation.
func (t *Tracker) pace(ctx context.Context) error {
	window := t.cfg.PaceMax - t.cfg.PaceMin
	if t.cfg.PaceMax <= 0 {
		return nil
	}

	delay := t.cfg.PaceMin
	if window > 0 {
		delay += rand.N(window)
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(delay):
		return nil
	}
}
