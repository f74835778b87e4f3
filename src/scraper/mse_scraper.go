// Package scraper runs the live tier: listing fetch, row parsing,
// normalization, deduplication and volume enrichment.
package scraper

import (
	"context"
	"errors"
	"strings"
	"time"

	"mse-observer/src/enrichment"
	"mse-observer/src/helpers"
	"mse-observer/src/interfaces"
	"mse-observer/src/logger"
	"mse-observer/src/models"
	"mse-observer/src/parser"
	"mse-observer/src/pipeline"
)

const SourceName = "mse-live"

// MSEScraper implements interfaces.ILiveSource against www.mse.mk.
type MSEScraper struct {
	Navigator      interfaces.IPageNavigator
	Parser         *parser.RowParser
	Normalizer     *pipeline.Normalizer
	Enricher       *enrichment.VolumeEnricher
	ListingURL     string
	Selector       string
	MaxAttempts    int
	RetryBaseDelay time.Duration
	Timeout        time.Duration
	Logger         *logger.Logger
}

// -----------------------------------------------------------------------------

func NewMSEScraper(cfg *models.MConfig, nav interfaces.IPageNavigator, log *logger.Logger) *MSEScraper {
	s := &MSEScraper{
		Navigator:      nav,
		Parser:         parser.NewRowParser(parser.LocaleFromString(cfg.Scraper.Locale)),
		Normalizer:     pipeline.NewNormalizer(),
		ListingURL:     cfg.Scraper.ListingURL,
		Selector:       cfg.Scraper.TableSelector,
		MaxAttempts:    cfg.Scraper.MaxAttempts,
		RetryBaseDelay: time.Duration(cfg.Scraper.RetryBaseDelayMillis) * time.Millisecond,
		Timeout:        time.Duration(cfg.Scraper.ScrapeTimeoutSeconds) * time.Second,
		Logger:         log,
	}
	if cfg.Enrichment.Enabled {
		s.Enricher = enrichment.NewVolumeEnricher(nav, cfg.Enrichment, cfg.Scraper.DetailURLTemplate, log.Named("enrichment"))
	}
	return s
}

// -----------------------------------------------------------------------------

func (s *MSEScraper) Name() string {
	return SourceName
}

// -----------------------------------------------------------------------------

// Scrape runs one full pass under the configured wall-clock ceiling.
func (s *MSEScraper) Scrape(ctx context.Context) (models.MScrapeResult, error) {
	start := time.Now()
	result := models.MScrapeResult{}

	if s.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.Timeout)
		defer cancel()
	}

	rows, err := helpers.RetryWithBackoff(ctx, s.Logger, "listing fetch", s.MaxAttempts, s.RetryBaseDelay,
		func(ctx context.Context) ([][]string, error) {
			rows, err := s.Navigator.FetchRawRows(ctx, s.ListingURL, s.Selector)
			if err == nil && len(rows) == 0 {
				return nil, helpers.ErrEmptyResult
			}
			return rows, err
		})
	if err != nil {
		result.Duration = time.Since(start)
		if !helpers.IsNavigationError(err) && !errors.Is(err, helpers.ErrEmptyResult) {
			err = helpers.NewNavigationError(s.ListingURL, err)
		}
		return result, err
	}

	raws := make([]models.MRawQuote, 0, len(rows))
	for _, cells := range rows {
		quote, err := s.parseRow(cells)
		if err != nil {
			s.Logger.Debug("Dropping row %q: %v", strings.Join(cells, " | "), err)
			result.Rejected = append(result.Rejected, err.Error())
			continue
		}
		raws = append(raws, quote)
	}

	records, rejected := s.Normalizer.NormalizeAll(raws)
	for _, rej := range rejected {
		s.Logger.Warning("Rejected record: %v", rej)
		result.Rejected = append(result.Rejected, rej.Error())
	}

	records = pipeline.Deduplicate(records)
	if len(records) == 0 {
		result.Duration = time.Since(start)
		return result, helpers.ErrEmptyResult
	}

	if s.Enricher != nil {
		var stats enrichment.Stats
		records, stats = s.Enricher.Enrich(ctx, records)
		result.Enriched = stats.Enriched
		pipeline.SortBySymbol(records)
	}

	result.Records = records
	result.Duration = time.Since(start)
	s.Logger.Info("Scraped %d records (%d rejected) in %v", len(records), len(result.Rejected), result.Duration)
	return result, nil
}

// -----------------------------------------------------------------------------

// parseRow accepts both a split row and a row whose cells collapsed into one
// text node.
func (s *MSEScraper) parseRow(cells []string) (models.MRawQuote, error) {
	if len(cells) >= 3 {
		return s.Parser.ParseCells(cells)
	}
	return s.Parser.ParseRowText(strings.Join(cells, " "))
}
