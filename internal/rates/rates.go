// Package rates supplies the current exchange-rate table to the rest of the
// service, with a redis-backed cache in front of the upstream provider.
package rates

import (
	"context"
	"encoding/json"
	"time"

	"github.com/Dan9191/ledger-service/internal/models"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// Provider returns the current rate table. An empty table means "base
// currency only" and is a valid bootstrap state, never an error.
type Provider interface {
	Rates(ctx context.Context) (models.RateTable, error)
}

const cacheKey = "ledger:rates"

// CachedProvider caches the upstream table in redis and keeps serving the
// last good table when the upstream is down. When both the upstream and the
// cache are unavailable it degrades to an empty table so the converter falls
// back to base-only mode.
type CachedProvider struct {
	upstream Provider
	client   *redis.Client
	ttl      time.Duration
	log      *logrus.Logger
}

// NewCachedProvider wraps an upstream provider with a redis cache.
func NewCachedProvider(upstream Provider, client *redis.Client, ttl time.Duration, log *logrus.Logger) *CachedProvider {
	return &CachedProvider{upstream: upstream, client: client, ttl: ttl, log: log}
}

// Rates returns the cached table when present, otherwise refreshes from the
// upstream provider.
func (p *CachedProvider) Rates(ctx context.Context) (models.RateTable, error) {
	if table, ok := p.cached(ctx); ok {
		return table, nil
	}
	return p.Refresh(ctx)
}

// Refresh fetches a fresh table from the upstream and stores it in the
// cache. On upstream failure the stale cached table is served if redis still
// has one.
func (p *CachedProvider) Refresh(ctx context.Context) (models.RateTable, error) {
	table, err := p.upstream.Rates(ctx)
	if err != nil {
		p.log.Warnf("Rate refresh failed: %v", err)
		if stale, ok := p.cached(ctx); ok {
			return stale, nil
		}
		return models.RateTable{}, nil
	}

	if raw, err := json.Marshal(encode(table)); err == nil {
		if err := p.client.Set(ctx, cacheKey, raw, p.ttl).Err(); err != nil {
			p.log.Warnf("Failed to cache rates: %v", err)
		}
	}
	return table, nil
}

func (p *CachedProvider) cached(ctx context.Context) (models.RateTable, bool) {
	raw, err := p.client.Get(ctx, cacheKey).Result()
	if err != nil {
		return nil, false
	}
	var encoded map[string]string
	if err := json.Unmarshal([]byte(raw), &encoded); err != nil {
		p.log.Warnf("Dropping corrupt rate cache entry: %v", err)
		return nil, false
	}
	table := models.RateTable{}
	for code, value := range encoded {
		currency, err := models.ParseCurrency(code)
		if err != nil {
			continue
		}
		rate, err := decimal.NewFromString(value)
		if err != nil {
			continue
		}
		table[currency] = rate
	}
	return table, true
}

func encode(table models.RateTable) map[string]string {
	encoded := make(map[string]string, len(table))
	for currency, rate := range table {
		encoded[string(currency)] = rate.String()
	}
	return encoded
}
