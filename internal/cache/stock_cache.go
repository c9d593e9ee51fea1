// internal/cache/stock_cache.go
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
	stockSnapshotKey   = "stock:snapshot"
	countrySharesKey   = "stock:country_shares"
	stockKeyPrefix     = "stock:"
	stockScanBatchSize = 100
)

// StockCache holds the wholesale stock snapshot and the country share table
// between spreadsheet refreshes.
type StockCache interface {
	GetSnapshot(ctx context.Context) (*domain.StockSnapshot, bool, error)
	SetSnapshot(ctx context.Context, snapshot *domain.StockSnapshot) error
	GetCountryShares(ctx context.Context) ([]domain.CountryShare, bool, error)
	SetCountryShares(ctx context.Context, shares []domain.CountryShare) error
	InvalidateAll(ctx context.Context) error
}

type redisStockCache struct {
	client *redis.Client
	ttl    time.Duration
}

type noopStockCache struct{}

func NewStockCache(cfg config.CacheConfig) (StockCache, error) {
	if !cfg.Enabled {
		return &noopStockCache{}, nil
	}

	client, ttl, err := newRedisClient(cfg, cfg.StockTTLSeconds)
	if err != nil {
		return nil, err
	}

	return &redisStockCache{client: client, ttl: ttl}, nil
}

func NewNoopStockCache() StockCache {
	return &noopStockCache{}
}

func (c *redisStockCache) GetSnapshot(ctx context.Context) (*domain.StockSnapshot, bool, error) {
	payload, err := c.client.Get(ctx, stockSnapshotKey).Bytes()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get failed: %w", err)
	}

	var snapshot domain.StockSnapshot
	if err := json.Unmarshal(payload, &snapshot); err != nil {
		return nil, false, fmt.Errorf("decode stock snapshot cache: %w", err)
	}

	return &snapshot, true, nil
}

func (c *redisStockCache) SetSnapshot(ctx context.Context, snapshot *domain.StockSnapshot) error {
	payload, err := json.Marshal(snapshot)
	if err != nil {
		return fmt.Errorf("encode stock snapshot cache: %w", err)
	}

	if err := c.client.Set(ctx, stockSnapshotKey, payload, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

func (c *redisStockCache) GetCountryShares(ctx context.Context) ([]domain.CountryShare, bool, error) {
	payload, err := c.client.Get(ctx, countrySharesKey).Bytes()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get failed: %w", err)
	}

	var shares []domain.CountryShare
	if err := json.Unmarshal(payload, &shares); err != nil {
		return nil, false, fmt.Errorf("decode country shares cache: %w", err)
	}

	return shares, true, nil
}

func (c *redisStockCache) SetCountryShares(ctx context.Context, shares []domain.CountryShare) error {
	payload, err := json.Marshal(shares)
	if err != nil {
		return fmt.Errorf("encode country shares cache: %w", err)
	}

	if err := c.client.Set(ctx, countrySharesKey, payload, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

func (c *redisStockCache) InvalidateAll(ctx context.Context) error {
	return deleteKeysWithPrefix(ctx, c.client, stockKeyPrefix, stockScanBatchSize)
}

func (n *noopStockCache) GetSnapshot(ctx context.Context) (*domain.StockSnapshot, bool, error) {
	return nil, false, nil
}

func (n *noopStockCache) SetSnapshot(ctx context.Context, snapshot *domain.StockSnapshot) error {
	return nil
}

func (n *noopStockCache) GetCountryShares(ctx context.Context) ([]domain.CountryShare, bool, error) {
	return nil, false, nil
}

func (n *noopStockCache) SetCountryShares(ctx context.Context, shares []domain.CountryShare) error {
	return nil
}

func (n *noopStockCache) InvalidateAll(ctx context.Context) error {
	return nil
}
