// internal/repository/postgres/weight_repository.go
package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/andresuchdata/demand-planner/internal/domain"
	"github.com/jmoiron/sqlx"
)

type weightRepository struct {
	db *DB
}

func NewWeightRepository(db *DB) *weightRepository {
	return &weightRepository{db: db}
}

func (r *weightRepository) GetSKUWeights(ctx context.Context, channel, country string) ([]domain.SKUWeight, error) {
	query := `
		SELECT channel, country, sku, auto_weight_pct, manual_weight_pct, is_override
		FROM sku_weights
		WHERE channel = $1 AND country = $2
		ORDER BY sku ASC
	`

	var weights []domain.SKUWeight
	if err := sqlx.SelectContext(ctx, r.db, &weights, query, channel, country); err != nil {
		return nil, fmt.Errorf("failed to get sku weights: %w", err)
	}

	return weights, nil
}

// SaveSKUWeights replaces the weight table for one scope. The SKU set can
// change between baselines, so stale rows are removed rather than merged.
func (r *weightRepository) SaveSKUWeights(ctx context.Context, channel, country string, weights []domain.SKUWeight) error {
	return r.db.WithTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx,
			`DELETE FROM sku_weights WHERE channel = $1 AND country = $2`,
			channel, country,
		); err != nil {
			return fmt.Errorf("failed to clear sku weights: %w", err)
		}

		query := `
			INSERT INTO sku_weights (
				channel, country, sku, auto_weight_pct, manual_weight_pct, is_override, created_at
			) VALUES ($1, $2, $3, $4, $5, $6, NOW())
		`

		stmt, err := tx.PrepareContext(ctx, query)
		if err != nil {
			return fmt.Errorf("failed to prepare statement: %w", err)
		}
		defer stmt.Close()

		for _, w := range weights {
			_, err := stmt.ExecContext(ctx, channel, country, w.SKU, w.AutoWeightPct, w.ManualWeightPct, w.IsOverride)
			if err != nil {
				return fmt.Errorf("failed to insert sku weight: %w", err)
			}
		}

		return nil
	})
}
