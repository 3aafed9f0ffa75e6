package storage

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	apperrors "github.com/wallet-insights/internal/errors"
	"github.com/wallet-insights/internal/types"
)

// CacheService stores derived wallet reports in Redis as JSON
type CacheService struct {
	redis *RedisCache
	ttl   time.Duration
}

// NewCacheService creates a new cache service
func NewCacheService(redis *RedisCache, ttl time.Duration) *CacheService {
	return &CacheService{
		redis: redis,
		ttl:   ttl,
	}
}

// CacheKeyType represents different types of cache keys
type CacheKeyType string

const (
	// CacheKeyInsights is for protocol insights reports
	CacheKeyInsights CacheKeyType = "insights"
	// CacheKeyProfile is for smart money profiles
	CacheKeyProfile CacheKeyType = "profile"
)

// GenerateCacheKey generates a cache key for a given type and parameters
// Format: <type>:<param1>:<param2>:...
func (c *CacheService) GenerateCacheKey(keyType CacheKeyType, params ...string) string {
	parts := make([]string, 0, len(params)+1)
	parts = append(parts, string(keyType))
	for _, param := range params {
		parts = append(parts, strings.ToLower(param))
	}
	return strings.Join(parts, ":")
}

// Set stores a value in cache with the configured TTL
func (c *CacheService) Set(ctx context.Context, key string, value interface{}) error {
	data, err := json.Marshal(value)
	if err != nil {
		return apperrors.NewCacheError("marshal", err)
	}
	if err := c.redis.Set(ctx, key, data, c.ttl); err != nil {
		return apperrors.NewCacheError("set", err)
	}
	return nil
}

// Get retrieves a value from cache and deserializes it.
// A missing key is a miss, not an error.
func (c *CacheService) Get(ctx context.Context, key string, dest interface{}) (bool, error) {
	data, err := c.redis.Get(ctx, key)
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return false, nil
		}
		return false, apperrors.NewCacheError("get", err)
	}

	if err := json.Unmarshal([]byte(data), dest); err != nil {
		return false, apperrors.NewCacheError("unmarshal", err)
	}
	return true, nil
}

// Invalidate removes one or more keys from cache
func (c *CacheService) Invalidate(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	if err := c.redis.Del(ctx, keys...); err != nil {
		return apperrors.NewCacheError("invalidate", err)
	}
	return nil
}

// GetInsights returns cached insights for an address
func (c *CacheService) GetInsights(ctx context.Context, address string) (*types.ProtocolInsights, bool, error) {
	var insights types.ProtocolInsights
	found, err := c.Get(ctx, c.GenerateCacheKey(CacheKeyInsights, address), &insights)
	if err != nil || !found {
		return nil, false, err
	}
	return &insights, true, nil
}

// SetInsights caches insights for an address
func (c *CacheService) SetInsights(ctx context.Context, address string, insights *types.ProtocolInsights) error {
	return c.Set(ctx, c.GenerateCacheKey(CacheKeyInsights, address), insights)
}

// GetProfile returns a cached profile for an address
func (c *CacheService) GetProfile(ctx context.Context, address string) (*types.SmartMoneyProfile, bool, error) {
	var profile types.SmartMoneyProfile
	found, err := c.Get(ctx, c.GenerateCacheKey(CacheKeyProfile, address), &profile)
	if err != nil || !found {
		return nil, false, err
	}
	return &profile, true, nil
}

// SetProfile caches a profile for an address
func (c *CacheService) SetProfile(ctx context.Context, address string, profile *types.SmartMoneyProfile) error {
	return c.Set(ctx, c.GenerateCacheKey(CacheKeyProfile, address), profile)
}

// InvalidateAddress drops every cached report for an address
func (c *CacheService) InvalidateAddress(ctx context.Context, address string) error {
	return c.Invalidate(ctx,
		c.GenerateCacheKey(CacheKeyInsights, address),
		c.GenerateCacheKey(CacheKeyProfile, address),
	)
}

// GetTTL returns the configured TTL for this cache service
func (c *CacheService) GetTTL() time.Duration {
	return c.ttl
}
