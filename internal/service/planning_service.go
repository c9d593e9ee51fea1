package service

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/andresuchdata/demand-planner/internal/cache"
	"github.com/andresuchdata/demand-planner/internal/config"
	"github.com/andresuchdata/demand-planner/internal/domain"
	"github.com/andresuchdata/demand-planner/internal/geo"
	"github.com/andresuchdata/demand-planner/internal/planning/baseline"
	"github.com/andresuchdata/demand-planner/internal/planning/forecast"
	"github.com/andresuchdata/demand-planner/internal/planning/weights"
	"github.com/andresuchdata/demand-planner/internal/repository"
	"github.com/andresuchdata/demand-planner/internal/storage"
)

// ErrValidation marks caller errors so handlers can answer 400 instead of 500.
var ErrValidation = errors.New("validation failed")

// DemandSource provides raw demand observations for a date range.
type DemandSource interface {
	FetchRange(ctx context.Context, start, end time.Time) ([]domain.DemandObservation, error)
}

// StockSource provides the stock snapshot and the country share table.
type StockSource interface {
	FetchSnapshot(ctx context.Context) (*domain.StockSnapshot, error)
	FetchCountryShares(ctx context.Context) ([]domain.CountryShare, error)
}

type PlanningService struct {
	demand      DemandSource
	stock       StockSource
	demandCache cache.DemandCache
	stockCache  cache.StockCache
	forecasts   repository.ForecastRepository
	weightsRepo repository.WeightRepository
	calculator  *baseline.Calculator
	geo         *geo.Config
	archive     storage.ObjectStorage
	cfg         config.PlanningConfig
}

func NewPlanningService(
	demand DemandSource,
	stock StockSource,
	demandCache cache.DemandCache,
	stockCache cache.StockCache,
	forecasts repository.ForecastRepository,
	weightsRepo repository.WeightRepository,
	geoCfg *geo.Config,
	archive storage.ObjectStorage,
	cfg config.PlanningConfig,
) *PlanningService {
	if demandCache == nil {
		demandCache = cache.NewNoopDemandCache()
	}
	if stockCache == nil {
		stockCache = cache.NewNoopStockCache()
	}
	if archive == nil {
		archive = storage.NewNoopStorage()
	}
	return &PlanningService{
		demand:      demand,
		stock:       stock,
		demandCache: demandCache,
		stockCache:  stockCache,
		forecasts:   forecasts,
		weightsRepo: weightsRepo,
		calculator:  baseline.NewCalculator(geoCfg),
		geo:         geoCfg,
		archive:     archive,
		cfg:         cfg,
	}
}

// GetBaseline computes the daily run rate for one scope over a historical
// window. Observations and country shares are fetched concurrently.
func (s *PlanningService) GetBaseline(ctx context.Context, q baseline.Query) (*domain.Baseline, error) {
	if q.Channel == "" {
		return nil, fmt.Errorf("%w: channel is required", ErrValidation)
	}
	if !q.End.After(q.Start) && !q.End.Equal(q.Start) {
		return nil, fmt.Errorf("%w: end date must not precede start date", ErrValidation)
	}

	var (
		observations []domain.DemandObservation
		shares       []domain.CountryShare
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		observations, err = s.fetchObservations(gctx, q.Start, q.End)
		return err
	})
	g.Go(func() error {
		var err error
		shares, err = s.fetchCountryShares(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return s.calculator.Compute(q, observations, shares), nil
}

// GetForecast returns the 12-month projection plus SKU allocation table for
// one scope. When no configs are persisted yet, a fresh set is seeded from
// the current baseline over the configured trailing window.
func (s *PlanningService) GetForecast(ctx context.Context, channel, country string) (*domain.ForecastView, error) {
	configs, err := s.forecasts.GetForecastConfigs(ctx, channel, country)
	if err != nil {
		return nil, err
	}

	if len(configs) == 0 {
		configs, err = s.seedConfigs(ctx, channel, country)
		if err != nil {
			return nil, err
		}
	}

	months := forecast.Project(configs)

	stored, err := s.weightsRepo.GetSKUWeights(ctx, channel, country)
	if err != nil {
		return nil, err
	}
	dist := weights.Distribute(stored)

	view := &domain.ForecastView{
		Channel:       channel,
		Country:       country,
		Months:        months,
		OverrideTotal: dist.OverrideTotal,
		Overallocated: dist.Overallocated,
	}

	for _, m := range months {
		for _, w := range dist.Weights {
			view.SKUTable = append(view.SKUTable, domain.SKUMonthUnits{
				SKU:        w.SKU,
				Month:      m.Month,
				Units:      weights.Allocate(m.FinalUnits, w.Pct),
				WeightPct:  w.Pct,
				IsOverride: w.IsOverride,
			})
		}
	}

	return view, nil
}

// SaveForecastConfigs validates and persists a full 12-month config set for
// one scope. Partial sets and gapped months are rejected.
func (s *PlanningService) SaveForecastConfigs(ctx context.Context, configs []domain.ForecastMonthConfig) error {
	if len(configs) != 12 {
		return fmt.Errorf("%w: expected 12 forecast months, got %d", ErrValidation, len(configs))
	}

	channel, country := configs[0].Channel, configs[0].Country
	if channel == "" {
		return fmt.Errorf("%w: channel is required", ErrValidation)
	}

	for i, cfg := range configs {
		if cfg.Channel != channel || cfg.Country != country {
			return fmt.Errorf("%w: all months must target the same scope", ErrValidation)
		}
		m := cfg.ForecastMonth.UTC()
		if m.Day() != 1 {
			return fmt.Errorf("%w: forecast months must be first-of-month dates", ErrValidation)
		}
		if i > 0 {
			prev := configs[i-1].ForecastMonth.UTC()
			if !m.Equal(prev.AddDate(0, 1, 0)) {
				return fmt.Errorf("%w: forecast months must be consecutive", ErrValidation)
			}
		}
		if cfg.BaselineDRR < 0 {
			return fmt.Errorf("%w: baseline DRR must not be negative", ErrValidation)
		}
		switch cfg.DistributionMethod {
		case domain.DistributionHistorical, domain.DistributionDesired:
		default:
			return fmt.Errorf("%w: unknown distribution method %q", ErrValidation, cfg.DistributionMethod)
		}
	}

	return s.forecasts.SaveForecastConfigs(ctx, configs)
}

// GenerateForecasts materializes the current forecast view into per-SKU
// per-month rows, replacing the scope's previous rows, and archives a CSV
// snapshot. Archive failures are logged but never fail the save.
func (s *PlanningService) GenerateForecasts(ctx context.Context, channel, country string) (*domain.ForecastView, error) {
	view, err := s.GetForecast(ctx, channel, country)
	if err != nil {
		return nil, err
	}

	rows := make([]domain.MaterializedForecast, 0, len(view.SKUTable))
	for _, row := range view.SKUTable {
		rows = append(rows, domain.MaterializedForecast{
			SKU:           row.SKU,
			Channel:       channel,
			Country:       country,
			ForecastMonth: row.Month,
			ForecastUnits: row.Units,
		})
	}

	if err := s.forecasts.ReplaceMaterializedForecasts(ctx, channel, country, rows); err != nil {
		return nil, err
	}

	if err := s.archiveSnapshot(ctx, channel, country, rows); err != nil {
		log.Warn().Err(err).
			Str("channel", channel).
			Str("country", country).
			Msg("forecast: archive snapshot failed")
	}

	return view, nil
}

func (s *PlanningService) GetMaterializedForecasts(ctx context.Context, channel, country string) ([]domain.MaterializedForecast, error) {
	return s.forecasts.GetMaterializedForecasts(ctx, channel, country)
}

// GetSKUWeights returns the effective weight table for one scope, refreshing
// auto weights from the given baseline when provided.
func (s *PlanningService) GetSKUWeights(ctx context.Context, channel, country string) (weights.Result, error) {
	stored, err := s.weightsRepo.GetSKUWeights(ctx, channel, country)
	if err != nil {
		return weights.Result{}, err
	}
	return weights.Distribute(stored), nil
}

// SaveSKUWeights persists the weight table for one scope. Overrides above a
// combined 100% are accepted and surfaced downstream, never clamped.
func (s *PlanningService) SaveSKUWeights(ctx context.Context, channel, country string, rows []domain.SKUWeight) error {
	if channel == "" {
		return fmt.Errorf("%w: channel is required", ErrValidation)
	}
	seen := make(map[string]bool, len(rows))
	for _, w := range rows {
		if w.SKU == "" {
			return fmt.Errorf("%w: sku is required", ErrValidation)
		}
		if seen[w.SKU] {
			return fmt.Errorf("%w: duplicate sku %s", ErrValidation, w.SKU)
		}
		seen[w.SKU] = true
		if w.IsOverride && w.ManualWeightPct == nil {
			return fmt.Errorf("%w: override for %s has no manual weight", ErrValidation, w.SKU)
		}
		if w.ManualWeightPct != nil && *w.ManualWeightPct < 0 {
			return fmt.Errorf("%w: manual weight for %s must not be negative", ErrValidation, w.SKU)
		}
	}
	return s.weightsRepo.SaveSKUWeights(ctx, channel, country, rows)
}

// Scopes lists every (channel, country) pair served by the route config.
func (s *PlanningService) Scopes() []geo.ChannelCountry {
	return s.geo.Scopes()
}

func (s *PlanningService) seedConfigs(ctx context.Context, channel, country string) ([]domain.ForecastMonthConfig, error) {
	now := time.Now().UTC()
	window := s.cfg.TrailingWindowDays
	if window <= 0 {
		window = 30
	}

	base, err := s.GetBaseline(ctx, baseline.Query{
		Channel: channel,
		Country: country,
		Start:   now.AddDate(0, 0, -window+1),
		End:     now,
	})
	if err != nil {
		return nil, err
	}

	months := forecast.MonthsFrom(now, 12)
	configs := make([]domain.ForecastMonthConfig, 0, len(months))
	for _, m := range months {
		configs = append(configs, domain.ForecastMonthConfig{
			Channel:            channel,
			Country:            country,
			ForecastMonth:      m,
			BaselineDRR:        base.DailyRunRate,
			DistributionMethod: domain.DistributionHistorical,
			BaselineWindowDays: base.Days,
		})
	}
	return configs, nil
}

func (s *PlanningService) archiveSnapshot(ctx context.Context, channel, country string, rows []domain.MaterializedForecast) error {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write([]string{"sku", "channel", "country", "forecast_month", "forecast_units"}); err != nil {
		return err
	}
	for _, row := range rows {
		record := []string{
			row.SKU,
			row.Channel,
			row.Country,
			row.ForecastMonth.Format("2006-01"),
			strconv.Itoa(row.ForecastUnits),
		}
		if err := w.Write(record); err != nil {
			return err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return err
	}

	scope := country
	if scope == "" {
		scope = "all"
	}
	key := fmt.Sprintf("forecasts/%s/%s/%s.csv", channel, scope, time.Now().UTC().Format("20060102T150405Z"))
	return s.archive.UploadObject(ctx, key, buf.Bytes())
}

func (s *PlanningService) fetchObservations(ctx context.Context, start, end time.Time) ([]domain.DemandObservation, error) {
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

func (s *PlanningService) fetchCountryShares(ctx context.Context) ([]domain.CountryShare, error) {
	if shares, ok, err := s.stockCache.GetCountryShares(ctx); err == nil && ok {
		return shares, nil
	} else if err != nil {
		log.Warn().Err(err).Msg("stock: cache get country shares failed")
	}

	shares, err := s.stock.FetchCountryShares(ctx)
	if err != nil {
		return nil, err
	}

	if err := s.stockCache.SetCountryShares(ctx, shares); err != nil {
		log.Warn().Err(err).Msg("stock: cache set country shares failed")
	}

	return shares, nil
}
