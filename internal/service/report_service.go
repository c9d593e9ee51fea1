package service

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/andresuchdata/demand-planner/internal/cache"
	"github.com/andresuchdata/demand-planner/internal/domain"
	"github.com/andresuchdata/demand-planner/internal/geo"
	"github.com/andresuchdata/demand-planner/internal/planning/coverage"
	"github.com/andresuchdata/demand-planner/internal/planning/routing"
)

// ReportService produces the location-routed stock-health report and the
// replenishment plan derived from it.
type ReportService struct {
	demand      DemandSource
	stock       StockSource
	demandCache cache.DemandCache
	stockCache  cache.StockCache
	router      *routing.Router
	planner     *coverage.Planner
}

func NewReportService(
	demand DemandSource,
	stock StockSource,
	demandCache cache.DemandCache,
	stockCache cache.StockCache,
	geoCfg *geo.Config,
	windowDays int,
	defaultTargetDays float64,
) *ReportService {
	if demandCache == nil {
		demandCache = cache.NewNoopDemandCache()
	}
	if stockCache == nil {
		stockCache = cache.NewNoopStockCache()
	}
	return &ReportService{
		demand:      demand,
		stock:       stock,
		demandCache: demandCache,
		stockCache:  stockCache,
		router:      routing.NewRouter(geoCfg, windowDays),
		planner:     coverage.NewPlanner(geoCfg, defaultTargetDays),
	}
}

// GetStockReport routes trailing-window demand onto locations and classifies
// every (SKU, location) by days of cover. A positive targetOverride replaces
// each location's configured target.
func (s *ReportService) GetStockReport(ctx context.Context, targetOverride float64) (*domain.StockReport, error) {
	now := time.Now().UTC()
	start := now.AddDate(0, 0, -s.router.WindowDays()+1)

	var (
		observations []domain.DemandObservation
		snapshot     *domain.StockSnapshot
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		observations, err = s.fetchObservations(gctx, start, now)
		return err
	})
	g.Go(func() error {
		var err error
		snapshot, err = s.fetchSnapshot(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	routed := s.router.Route(observations, snapshot, now)
	return s.planner.BuildReport(routed, snapshot, s.router.WindowDays(), targetOverride), nil
}

// Refresh drops both caches so the next report reads fresh upstream data.
func (s *ReportService) Refresh(ctx context.Context) error {
	if err := s.demandCache.InvalidateAll(ctx); err != nil {
		return err
	}
	return s.stockCache.InvalidateAll(ctx)
}

func (s *ReportService) fetchObservations(ctx context.Context, start, end time.Time) ([]domain.DemandObservation, error) {
	if rows, ok, err := s.demandCache.GetRange(ctx, start, end); err == nil && ok {
		return rows, nil
	} else if err != nil {
		log.Warn().Err(err).Msg("demand: cache get range failed")
	}

	rows, err := s.demand.FetchRange(ctx, start, end)
	if err != nil {
		return nil, err
	}

	if err := s.demandCache.SetRange(ctx, start, end, rows); err != nil {
		log.Warn().Err(err).Msg("demand: cache set range failed")
	}

	return rows, nil
}

func (s *ReportService) fetchSnapshot(ctx context.Context) (*domain.StockSnapshot, error) {
	if snapshot, ok, err := s.stockCache.GetSnapshot(ctx); err == nil && ok {
		return snapshot, nil
	} else if err != nil {
		log.Warn().Err(err).Msg("stock: cache get snapshot failed")
	}

	snapshot, err := s.stock.FetchSnapshot(ctx)
	if err != nil {
		return nil, err
	}

	if err := s.stockCache.SetSnapshot(ctx, snapshot); err != nil {
		log.Warn().Err(err).Msg("stock: cache set snapshot failed")
	}

	return snapshot, nil
}
