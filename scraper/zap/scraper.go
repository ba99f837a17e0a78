package zap

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"zap-scraper/config"
	"zap-scraper/models"
	"zap-scraper/services"
	"zap-scraper/utils"
)

// Scraper drives pagination over every (town, unit type) pair of the
// configured search.
type Scraper struct {
	cfg      *config.Config
	logger   *utils.Logger
	fetcher  *Fetcher
	locator  *Locator
	mapper   *services.Mapper
	throttle *utils.Throttle
	seen     *utils.KeySet
}

type searchPair struct {
	town string
	unit models.UnitType
}

// pairResult is owned by exactly one goroutine until the pool drains.
type pairResult struct {
	records  []models.ListingRecord
	failures []models.PageFailure
	pages    int
}

// New creates a ready-to-use Scraper. A single Throttle is shared by all
// requests of the run, including concurrent ones.
func New(cfg *config.Config, logger *utils.Logger) *Scraper {
	s := &Scraper{
		cfg:      cfg,
		logger:   logger,
		fetcher:  NewFetcher(cfg, logger),
		locator:  NewLocator(),
		mapper:   services.NewMapper(cfg.LinkBase),
		throttle: utils.NewThrottle(cfg.MinDelay, cfg.MaxDelay, cfg.MinInterval, logger),
	}
	if cfg.DedupeListings {
		s.seen = utils.NewKeySet()
	}
	return s
}

// Scrape visits pages 1..Pages of every pair. A page that cannot be fetched
// or decoded is recorded as a failure and the run moves on. When ctx is
// cancelled the records gathered so far are returned together with ctx.Err().
func (s *Scraper) Scrape(ctx context.Context) (*models.RunResult, error) {
	runID := uuid.NewString()
	log := s.logger.With("run_id", runID)

	pairs := s.pairs()
	log.Info("[zap] Starting scrape: %d towns x %d unit types x %d pages (%s)",
		len(s.cfg.Towns), len(s.cfg.UnitTypes), s.cfg.Pages, s.cfg.Transaction)

	results := make([]pairResult, len(pairs))

	if s.cfg.Concurrency > 1 && len(pairs) > 1 {
		pool := utils.NewWorkerPool(s.cfg.Concurrency)
		for i, p := range pairs {
			i, p := i, p
			pool.Submit(func() {
				results[i] = s.scrapePair(ctx, log, p)
			})
		}
		pool.Wait()
	} else {
		for i, p := range pairs {
			if ctx.Err() != nil {
				break
			}
			results[i] = s.scrapePair(ctx, log, p)
		}
	}

	result := &models.RunResult{RunID: runID}
	for _, r := range results {
		result.Records = append(result.Records, r.records...)
		result.Failures = append(result.Failures, r.failures...)
		result.Pages += r.pages
	}

	if err := ctx.Err(); err != nil {
		log.Warn("[zap] Scrape interrupted: %d records from %d pages kept", len(result.Records), result.Pages)
		return result, err
	}

	log.Info("[zap] Scrape complete: %d records, %d/%d pages ok",
		len(result.Records), result.SucceededPages(), result.Pages)
	if s.seen != nil {
		log.Info("[zap] Deduplication kept %d unique listing IDs", s.seen.Size())
	}
	return result, nil
}

func (s *Scraper) pairs() []searchPair {
	pairs := make([]searchPair, 0, len(s.cfg.Towns)*len(s.cfg.UnitTypes))
	for _, town := range s.cfg.Towns {
		for _, unit := range s.cfg.UnitTypes {
			pairs = append(pairs, searchPair{town: town, unit: unit})
		}
	}
	return pairs
}

func (s *Scraper) scrapePair(ctx context.Context, log *utils.Logger, p searchPair) pairResult {
	var out pairResult

	for page := 1; page <= s.cfg.Pages; page++ {
		if ctx.Err() != nil {
			return out
		}
		if err := s.throttle.Wait(ctx); err != nil {
			return out
		}

		criteria := models.SearchCriteria{
			Transaction: s.cfg.Transaction,
			UnitType:    p.unit,
			Town:        p.town,
			State:       s.cfg.State,
			Page:        page,
		}

		raws, err := s.scrapePage(ctx, criteria)
		if err != nil && ctx.Err() != nil {
			return out
		}
		out.pages++
		if err != nil {
			log.Error("[zap] %s failed: %v", criteria, err)
			out.failures = append(out.failures, models.PageFailure{Criteria: criteria, Err: err})
			continue
		}

		records := s.keep(s.mapper.MapAll(raws))
		out.records = append(out.records, records...)
		log.Info("[zap] %s: %d listings (%d kept)", criteria, len(raws), len(records))

		if len(raws) == 0 && s.cfg.StopOnEmptyPage {
			log.Info("[zap] %s returned no listings, stopping %s/%s", criteria, p.town, p.unit)
			break
		}
	}
	return out
}

func (s *Scraper) scrapePage(ctx context.Context, c models.SearchCriteria) ([]models.RawListing, error) {
	body, _, err := s.fetcher.Fetch(ctx, c)
	if err != nil {
		return nil, err
	}
	raws, err := s.locator.Locate(body)
	if err != nil {
		return nil, fmt.Errorf("locate %s: %w", c.Path(), err)
	}
	return raws, nil
}

// keep drops listings already seen in this run when deduplication is on.
// Listings without an ID are always kept.
func (s *Scraper) keep(records []models.ListingRecord) []models.ListingRecord {
	if s.seen == nil {
		return records
	}
	kept := records[:0]
	for _, r := range records {
		if r.ListingID == "" || s.seen.Add(r.ListingID) {
			kept = append(kept, r)
		}
	}
	return kept
}
