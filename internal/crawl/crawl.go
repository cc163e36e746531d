// Package crawl runs the fetch, extract and evaluate pipeline for one
// instrument at a time.
package crawl

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"kabuka-watcher/internal/alert"
	apperrors "kabuka-watcher/internal/errors"
	"kabuka-watcher/internal/logging"
	"kabuka-watcher/internal/models"
)

//go:generate mockgen -source=crawl.go -destination=mock_crawl_test.go -package=crawl

// Repository is the persistence the crawler reads from.
type Repository interface {
	GetInstrumentByID(ctx context.Context, id int64) (*models.Instrument, error)
	GetAlertsByInstrumentCode(ctx context.Context, code int64) ([]models.AlertRule, error)
}

// PageFetcher retrieves a quote page body.
type PageFetcher interface {
	Fetch(ctx context.Context, url string) (string, error)
}

// QuoteExtractor reads the quote out of a page body.
type QuoteExtractor interface {
	Extract(document string) (int64, error)
}

// Crawler composes lookup, fetch, extraction and evaluation. It holds no
// mutable state, so concurrent crawls are safe.
type Crawler struct {
	repo      Repository
	fetcher   PageFetcher
	extractor QuoteExtractor
	logger    zerolog.Logger
}

// New creates a new Crawler.
func New(repo Repository, fetcher PageFetcher, extractor QuoteExtractor, logger zerolog.Logger) *Crawler {
	return &Crawler{
		repo:      repo,
		fetcher:   fetcher,
		extractor: extractor,
		logger:    logger,
	}
}

// Crawl fetches the quote page of the instrument and returns the alerts that
// currently hold. Any failure aborts the crawl with no partial result.
func (c *Crawler) Crawl(ctx context.Context, instrumentID int64) (*models.Crawl, error) {
	start := time.Now()
	logger := logging.WithOperation(logging.WithCrawlID(c.logger, uuid.NewString()), "crawl")

	inst, err := c.repo.GetInstrumentByID(ctx, instrumentID)
	if err != nil {
		if apperrors.Is(err, apperrors.ErrInstrumentNotFound) {
			logger.Debug().Int64("instrument_id", instrumentID).Msg("Instrument not found")
			return nil, apperrors.NewCrawlError(apperrors.CrawlNotFound, instrumentID, err)
		}
		logger.Error().Err(err).Int64("instrument_id", instrumentID).Msg("Instrument lookup failed")
		return nil, apperrors.NewCrawlError(apperrors.CrawlStore, instrumentID, err)
	}
	if inst == nil {
		return nil, apperrors.NewCrawlError(apperrors.CrawlNotFound, instrumentID, apperrors.ErrInstrumentNotFound)
	}

	logger = logging.WithInstrument(logger, inst.ID, inst.Code)

	rules, err := c.repo.GetAlertsByInstrumentCode(ctx, inst.Code)
	if err != nil {
		logger.Error().Err(err).Msg("Alert lookup failed")
		return nil, apperrors.NewCrawlError(apperrors.CrawlStore, instrumentID, err)
	}

	body, err := c.fetcher.Fetch(logging.WithLogger(ctx, logger), inst.URL)
	if err != nil {
		logger.Warn().Err(err).Str("url", inst.URL).Msg("Quote page fetch failed")
		return nil, apperrors.NewCrawlError(apperrors.CrawlUpstream, instrumentID, err)
	}

	quote, err := c.extractor.Extract(body)
	if err != nil {
		logger.Warn().Err(err).Str("url", inst.URL).Msg("Quote extraction failed")
		return nil, apperrors.NewCrawlError(apperrors.CrawlUpstream, instrumentID, err)
	}

	triggered := alert.Evaluate(quote, inst.Name, rules)
	for _, t := range triggered {
		logging.LogAlert(logger, t.AlertID, t.Name, string(t.Direction), t.AlertAmount, t.CurrentAmount)
	}

	result := &models.Crawl{
		Instrument: *inst,
		Quote:      quote,
		Triggered:  triggered,
		Duration:   time.Since(start),
	}

	logger.Info().
		Int64("quote", quote).
		Int("rules", len(rules)).
		Int("triggered", len(triggered)).
		Dur("duration", result.Duration).
		Msg("Crawl completed")

	return result, nil
}

// Outcome is the result of one crawl within CrawlMany.
type Outcome struct {
	InstrumentID int64
	Crawl        *models.Crawl
	Err          error
}

// CrawlMany crawls every id with at most concurrency crawls in flight. Each
// crawl is independent: a failure is recorded in its Outcome and does not
// stop the others. Outcomes are returned in the order of ids.
func (c *Crawler) CrawlMany(ctx context.Context, ids []int64, concurrency int, timeout time.Duration) []Outcome {
	if concurrency <= 0 {
		concurrency = 1
	}

	outcomes := make([]Outcome, len(ids))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)

	for i, id := range ids {
		i, id := i, id
		g.Go(func() error {
			crawlCtx := gctx
			if timeout > 0 {
				var cancel context.CancelFunc
				crawlCtx, cancel = context.WithTimeout(gctx, timeout)
				defer cancel()
			}
			res, err := c.Crawl(crawlCtx, id)
			outcomes[i] = Outcome{InstrumentID: id, Crawl: res, Err: err}
			return nil
		})
	}
	_ = g.Wait()

	return outcomes
}
