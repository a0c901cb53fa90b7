package dashboard

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/brightline-bi/brightline/internal/salesagg"
)

// Filter scopes a dashboard request. Empty bounds are resolved to a full
// calendar year by the reporting-window rules; nil entity filters mean the
// whole organisation.
type Filter struct {
	Start      string
	End        string
	DealerID   *int64
	AgentID    *int64
	WindowDays int
}

// Service coordinates row fetches, normalisation and the aggregation engine
// with the cache layer.
type Service struct {
	repo       Repository
	cache      *Cache
	logger     *slog.Logger
	windowDays int
	now        func() time.Time
}

// NewService wires a Repository with a Cache helper.
func NewService(repo Repository, cache *Cache, logger *slog.Logger, windowDays int) *Service {
	if windowDays <= 0 {
		windowDays = salesagg.DefaultActiveWindowDays
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, cache: cache, logger: logger, windowDays: windowDays, now: time.Now}
}

// WithNow overrides the service clock for testing.
func (s *Service) WithNow(fn func() time.Time) {
	if fn != nil {
		s.now = fn
	}
}

// GetOverview resolves the reporting window and returns the organisation
// overview, cache-aware.
func (s *Service) GetOverview(ctx context.Context, filter Filter) (salesagg.Overview, error) {
	filter = s.withResolvedWindow(ctx, filter)
	loader := func(ctx context.Context) (interface{}, error) {
		return s.buildOverview(ctx, filter)
	}
	if s.cache == nil {
		value, err := loader(ctx)
		if err != nil {
			return salesagg.Overview{}, err
		}
		return value.(salesagg.Overview), nil
	}
	key, err := s.cache.BuildKey(ctx, keyOverview(filter)...)
	if err != nil {
		return salesagg.Overview{}, err
	}
	var overview salesagg.Overview
	if err := s.cache.FetchJSON(ctx, key, &overview, loader); err != nil {
		return salesagg.Overview{}, err
	}
	return overview, nil
}

// GetDealerOverview returns the narrower single-dealer view.
func (s *Service) GetDealerOverview(ctx context.Context, dealerID int64, filter Filter) (salesagg.EntityOverview, error) {
	filter = s.withResolvedWindow(ctx, filter)
	loader := func(ctx context.Context) (interface{}, error) {
		rows, names, _, err := s.fetchRows(ctx, RowQuery{Start: filter.Start, End: filter.End, DealerID: &dealerID})
		if err != nil {
			return nil, err
		}
		return salesagg.BuildDealerOverview(rows, dealerID, names), nil
	}
	return s.entityOverview(ctx, keyDealer(dealerID, filter), loader)
}

// GetRepOverview returns the narrower single-rep view, including the rep's
// dealer breakdown.
func (s *Service) GetRepOverview(ctx context.Context, repID int64, filter Filter) (salesagg.EntityOverview, error) {
	filter = s.withResolvedWindow(ctx, filter)
	loader := func(ctx context.Context) (interface{}, error) {
		rows, names, _, err := s.fetchRows(ctx, RowQuery{Start: filter.Start, End: filter.End, AgentID: &repID})
		if err != nil {
			return nil, err
		}
		return salesagg.BuildRepOverview(rows, repID, names), nil
	}
	return s.entityOverview(ctx, keyRep(repID, filter), loader)
}

func (s *Service) entityOverview(ctx context.Context, keyParts []string, loader func(context.Context) (interface{}, error)) (salesagg.EntityOverview, error) {
	if s.cache == nil {
		value, err := loader(ctx)
		if err != nil {
			return salesagg.EntityOverview{}, err
		}
		return value.(salesagg.EntityOverview), nil
	}
	key, err := s.cache.BuildKey(ctx, keyParts...)
	if err != nil {
		return salesagg.EntityOverview{}, err
	}
	var view salesagg.EntityOverview
	if err := s.cache.FetchJSON(ctx, key, &view, loader); err != nil {
		return salesagg.EntityOverview{}, err
	}
	return view, nil
}

// withResolvedWindow fills missing bounds. This is the engine's single
// external lookup: a failing or empty row source is treated as "no prior
// data" and the window falls back to the current year.
func (s *Service) withResolvedWindow(ctx context.Context, filter Filter) Filter {
	if filter.WindowDays <= 0 {
		filter.WindowDays = s.windowDays
	}
	if filter.Start != "" && filter.End != "" {
		return filter
	}
	latest, err := s.repo.LatestTransactionDate(ctx)
	if err != nil {
		s.logger.Warn("latest transaction lookup failed, using current year", slog.Any("error", err))
		latest = ""
	}
	filter.Start, filter.End = salesagg.ReportingWindow(filter.Start, filter.End, latest, s.now())
	return filter
}

func (s *Service) buildOverview(ctx context.Context, filter Filter) (salesagg.Overview, error) {
	rows, names, coerced, err := s.fetchRows(ctx, RowQuery{
		Start:    filter.Start,
		End:      filter.End,
		DealerID: filter.DealerID,
		AgentID:  filter.AgentID,
	})
	if err != nil {
		return salesagg.Overview{}, err
	}
	overview := salesagg.BuildOverview(rows, names, filter.WindowDays)
	overview.Start = filter.Start
	overview.End = filter.End
	overview.CoercedAmounts = coerced
	return overview, nil
}

// fetchRows pulls raw rows for the query, normalises them and resolves the
// display-name maps for both dimensions concurrently.
func (s *Service) fetchRows(ctx context.Context, q RowQuery) ([]salesagg.FactRow, salesagg.NameDirectory, int, error) {
	raws, err := s.repo.FactRows(ctx, q)
	if err != nil {
		return nil, salesagg.NameDirectory{}, 0, fmt.Errorf("dashboard: fact rows: %w", err)
	}
	rows, coerced, err := salesagg.Normalize(raws)
	if err != nil {
		return nil, salesagg.NameDirectory{}, 0, err
	}
	if coerced > 0 {
		// Data-quality signal: a real invoice amount may have been zeroed.
		s.logger.Warn("coerced unparsable amounts to zero",
			slog.Int("rows", coerced),
			slog.String("start", q.Start),
			slog.String("end", q.End))
	}

	dealerIDs, repIDs := distinctIDs(rows)
	var names salesagg.NameDirectory
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		dealers, err := s.repo.DealerNames(gctx, dealerIDs)
		if err != nil {
			return fmt.Errorf("dashboard: dealer names: %w", err)
		}
		names.Dealers = dealers
		return nil
	})
	g.Go(func() error {
		reps, err := s.repo.RepNames(gctx, repIDs)
		if err != nil {
			return fmt.Errorf("dashboard: rep names: %w", err)
		}
		names.Reps = reps
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, salesagg.NameDirectory{}, 0, err
	}
	return rows, names, coerced, nil
}

func distinctIDs(rows []salesagg.FactRow) (dealers, reps []int64) {
	dealerSeen := make(map[int64]struct{})
	repSeen := make(map[int64]struct{})
	for _, row := range rows {
		if _, ok := dealerSeen[row.DealerID]; !ok {
			dealerSeen[row.DealerID] = struct{}{}
			dealers = append(dealers, row.DealerID)
		}
		if row.AgentID != nil {
			if _, ok := repSeen[*row.AgentID]; !ok {
				repSeen[*row.AgentID] = struct{}{}
				reps = append(reps, *row.AgentID)
			}
		}
	}
	return dealers, reps
}
