// internal/cache/demand_cache.go
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/andresuchdata/demand-planner/internal/config"
	"github.com/andresuchdata/demand-planner/internal/domain"
)

const (
	demandRangeKeyPrefix = "demand:range"
	demandScanBatchSize  = 100
)

// DemandCache bounds load on the analytics source by holding fetched
// observation ranges for a short TTL.
type DemandCache interface {
	GetRange(ctx context.Context, start, end time.Time) ([]domain.DemandObservation, bool, error)
	SetRange(ctx context.Context, start, end time.Time, rows []domain.DemandObservation) error
	InvalidateAll(ctx context.Context) error
}

type redisDemandCache struct {
	client *redis.Client
	ttl    time.Duration
}

type noopDemandCache struct{}

func NewDemandCache(cfg config.CacheConfig) (DemandCache, error) {
	if !cfg.Enabled {
		return &noopDemandCache{}, nil
	}

	client, ttl, err := newRedisClient(cfg, cfg.DemandTTLSeconds)
	if err != nil {
		return nil, err
	}

	return &redisDemandCache{client: client, ttl: ttl}, nil
}

func NewNoopDemandCache() DemandCache {
	return &noopDemandCache{}
}

func (c *redisDemandCache) GetRange(ctx context.Context, start, end time.Time) ([]domain.DemandObservation, bool, error) {
	payload, err := c.client.Get(ctx, buildDemandRangeKey(start, end)).Bytes()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get failed: %w", err)
	}

	var rows []domain.DemandObservation
	if err := json.Unmarshal(payload, &rows); err != nil {
		return nil, false, fmt.Errorf("decode demand range cache: %w", err)
	}

	return rows, true, nil
}

func (c *redisDemandCache) SetRange(ctx context.Context, start, end time.Time, rows []domain.DemandObservation) error {
	payload, err := json.Marshal(rows)
	if err != nil {
		return fmt.Errorf("encode demand range cache: %w", err)
	}

	if err := c.client.Set(ctx, buildDemandRangeKey(start, end), payload, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

func (c *redisDemandCache) InvalidateAll(ctx context.Context) error {
	return deleteKeysWithPrefix(ctx, c.client, demandRangeKeyPrefix, demandScanBatchSize)
}

func (n *noopDemandCache) GetRange(ctx context.Context, start, end time.Time) ([]domain.DemandObservation, bool, error) {
	return nil, false, nil
}

func (n *noopDemandCache) SetRange(ctx context.Context, start, end time.Time, rows []domain.DemandObservation) error {
	return nil
}

func (n *noopDemandCache) InvalidateAll(ctx context.Context) error {
	return nil
}

func buildDemandRangeKey(start, end time.Time) string {
	return fmt.Sprintf("%s:%s:%s", demandRangeKeyPrefix, start.Format("20060102"), end.Format("20060102"))
}
