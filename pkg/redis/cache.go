package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
)

// Cache provides typed caching utilities
// ⭐ SSOT: 缓存助手只在这里
type Cache struct {
	client *Client
	prefix string
}

// NewCache creates a new cache helper
func NewCache(client *Client, prefix string) *Cache {
	return &Cache{
		client: client,
		prefix: prefix,
	}
}

// Get retrieves a cached value
func (c *Cache) Get(ctx context.Context, key string, dest interface{}) (bool, error) {
	if !c.client.Enabled() {
		return false, nil
	}

	fullKey := fmt.Sprintf("%s:cache:%s", c.prefix, key)
	data, err := c.client.Redis().Get(ctx, fullKey).Bytes()
	if err != nil {
		// Key not found is not an error
		return false, nil
	}

	if err := json.Unmarshal(data, dest); err != nil {
		return false, fmt.Errorf("cache unmarshal failed: %w", err)
	}

	return true, nil
}

// Set stores a value in cache with TTL
func (c *Cache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	if !c.client.Enabled() {
		return nil
	}

	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("cache marshal failed: %w", err)
	}

	fullKey := fmt.Sprintf("%s:cache:%s", c.prefix, key)
	return c.client.Redis().Set(ctx, fullKey, data, ttl).Err()
}

// Delete removes a cached value
func (c *Cache) Delete(ctx context.Context, key string) error {
	if !c.client.Enabled() {
		return nil
	}

	fullKey := fmt.Sprintf("%s:cache:%s", c.prefix, key)
	return c.client.Redis().Del(ctx, fullKey).Err()
}

// Predefined TTLs
const (
	TTLShort  = 1 * time.Minute  // 盘中行情
	TTLMedium = 10 * time.Minute // 快照、板块总览
	TTLDaily  = 24 * time.Hour   // 日度数据
)

// Common cache key generators

// SnapshotKey keys a macro snapshot by its as-of date ("latest" when unpinned).
func SnapshotKey(asof string) string {
	return fmt.Sprintf("snapshot:%s", asof)
}

// SectorOverviewKey keys a sector overview by date and top-N count.
func SectorOverviewKey(asof string, topN int) string {
	return fmt.Sprintf("sector:overview:%s:%d", asof, topN)
}

// SectorMatrixKey keys a sector heatmap matrix request.
func SectorMatrixKey(asof string, days, topN int, direction string) string {
	return fmt.Sprintf("sector:matrix:%s:%d:%d:%s", asof, days, topN, direction)
}

// SectorBreadthKey keys a board's live breadth reading.
func SectorBreadthKey(code string) string {
	return fmt.Sprintf("sector:breadth:%s", code)
}
