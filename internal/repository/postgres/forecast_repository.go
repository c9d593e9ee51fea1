// internal/repository/postgres/forecast_repository.go
package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/andresuchdata/demand-planner/internal/domain"
	"github.com/jmoiron/sqlx"
)

type forecastRepository struct {
	db *DB
}

func NewForecastRepository(db *DB) *forecastRepository {
	return &forecastRepository{db: db}
}

func (r *forecastRepository) GetForecastConfigs(ctx context.Context, channel, country string) ([]domain.ForecastMonthConfig, error) {
	query := `
		SELECT id, channel, country, forecast_month, baseline_drr, lift_pct,
		       mom_growth_pct, distribution_method, baseline_window_days,
		       created_at, updated_at
		FROM forecast_month_configs
		WHERE channel = $1 AND country = $2
		ORDER BY forecast_month ASC
	`

	var configs []domain.ForecastMonthConfig
	if err := sqlx.SelectContext(ctx, r.db, &configs, query, channel, country); err != nil {
		return nil, fmt.Errorf("failed to get forecast configs: %w", err)
	}

	return configs, nil
}

func (r *forecastRepository) SaveForecastConfigs(ctx context.Context, configs []domain.ForecastMonthConfig) error {
	return r.db.WithTx(ctx, func(tx *sql.Tx) error {
		query := `
			INSERT INTO forecast_month_configs (
				channel, country, forecast_month, baseline_drr, lift_pct,
				mom_growth_pct, distribution_method, baseline_window_days, created_at
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
			ON CONFLICT (channel, country, forecast_month)
			DO UPDATE SET
				baseline_drr = EXCLUDED.baseline_drr,
				lift_pct = EXCLUDED.lift_pct,
				mom_growth_pct = EXCLUDED.mom_growth_pct,
				distribution_method = EXCLUDED.distribution_method,
				baseline_window_days = EXCLUDED.baseline_window_days,
				updated_at = NOW()
		`

		stmt, err := tx.PrepareContext(ctx, query)
		if err != nil {
			return fmt.Errorf("failed to prepare statement: %w", err)
		}
		defer stmt.Close()

		for _, cfg := range configs {
			_, err := stmt.ExecContext(
				ctx,
				cfg.Channel,
				cfg.Country,
				cfg.ForecastMonth,
				cfg.BaselineDRR,
				cfg.LiftPct,
				cfg.MoMGrowthPct,
				cfg.DistributionMethod,
				cfg.BaselineWindowDays,
				time.Now(),
			)
			if err != nil {
				return fmt.Errorf("failed to upsert forecast config: %w", err)
			}
		}

		return nil
	})
}

// ReplaceMaterializedForecasts swaps the full materialized forecast for one
// (channel, country) scope in a single transaction. Saves are whole-scope
// replacements, never partial updates.
func (r *forecastRepository) ReplaceMaterializedForecasts(ctx context.Context, channel, country string, rows []domain.MaterializedForecast) error {
	return r.db.WithTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx,
			`DELETE FROM materialized_forecasts WHERE channel = $1 AND country = $2`,
			channel, country,
		); err != nil {
			return fmt.Errorf("failed to clear materialized forecasts: %w", err)
		}

		query := `
			INSERT INTO materialized_forecasts (
				sku, channel, country, forecast_month, forecast_units, created_at
			) VALUES ($1, $2, $3, $4, $5, NOW())
		`

		stmt, err := tx.PrepareContext(ctx, query)
		if err != nil {
			return fmt.Errorf("failed to prepare statement: %w", err)
		}
		defer stmt.Close()

		for _, row := range rows {
			_, err := stmt.ExecContext(ctx, row.SKU, channel, country, row.ForecastMonth, row.ForecastUnits)
			if err != nil {
				return fmt.Errorf("failed to insert materialized forecast: %w", err)
			}
		}

		return nil
	})
}

func (r *forecastRepository) GetMaterializedForecasts(ctx context.Context, channel, country string) ([]domain.MaterializedForecast, error) {
	query := `
		SELECT sku, channel, country, forecast_month, forecast_units
		FROM materialized_forecasts
		WHERE channel = $1 AND country = $2
		ORDER BY forecast_month ASC, sku ASC
	`

	var rows []domain.MaterializedForecast
	if err := sqlx.SelectContext(ctx, r.db, &rows, query, channel, country); err != nil {
		return nil, fmt.Errorf("failed to get materialized forecasts: %w", err)
	}

	return rows, nil
}
