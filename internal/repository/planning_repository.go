// internal/repository/planning_repository.go
package repository

import (
	"context"

	"github.com/andresuchdata/demand-planner/internal/domain"
)

// ForecastRepository persists forecast month configs and materialized
// per-SKU forecasts.
type ForecastRepository interface {
	GetForecastConfigs(ctx context.Context, channel, country string) ([]domain.ForecastMonthConfig, error)
	SaveForecastConfigs(ctx context.Context, configs []domain.ForecastMonthConfig) error
	ReplaceMaterializedForecasts(ctx context.Context, channel, country string, rows []domain.MaterializedForecast) error
	GetMaterializedForecasts(ctx context.Context, channel, country string) ([]domain.MaterializedForecast, error)
}

// WeightRepository persists per-scope SKU weight overrides.
type WeightRepository interface {
	GetSKUWeights(ctx context.Context, channel, country string) ([]domain.SKUWeight, error)
	SaveSKUWeights(ctx context.Context, channel, country string, weights []domain.SKUWeight) error
}
