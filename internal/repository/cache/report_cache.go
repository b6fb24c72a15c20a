package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/dafibh/fortuna/fortuna-analytics/internal/domain"
	"github.com/redis/go-redis/v9"
)

const keyPrefix = "fortuna:report"

// ReportCache stores assembled reports in Redis as JSON. Keys carry the
// transaction snapshot version, so entries for superseded data are never
// read again and age out with the TTL.
type ReportCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewReportCache creates a ReportCache with the given entry TTL
func NewReportCache(client *redis.Client, ttl time.Duration) *ReportCache {
	return &ReportCache{
		client: client,
		ttl:    ttl,
	}
}

// NewClient parses a redis:// URL and returns a connected client
func NewClient(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return client, nil
}

// Get returns the cached report, or domain.ErrCacheMiss when absent
func (c *ReportCache) Get(ctx context.Context, ownerID string, txType domain.TransactionType, version string) (*domain.Report, error) {
	data, err := c.client.Get(ctx, reportKey(ownerID, txType, version)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, domain.ErrCacheMiss
	}
	if err != nil {
		return nil, fmt.Errorf("get report: %w", err)
	}

	var report domain.Report
	if err := json.Unmarshal(data, &report); err != nil {
		return nil, fmt.Errorf("decode report: %w", err)
	}
	return &report, nil
}

// Set stores a report for the configured TTL
func (c *ReportCache) Set(ctx context.Context, ownerID, version string, report *domain.Report) error {
	data, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("encode report: %w", err)
	}
	if err := c.client.Set(ctx, reportKey(ownerID, report.Type, version), data, c.ttl).Err(); err != nil {
		return fmt.Errorf("set report: %w", err)
	}
	return nil
}

func reportKey(ownerID string, txType domain.TransactionType, version string) string {
	return fmt.Sprintf("%s:%s:%s:%s", keyPrefix, ownerID, txType, version)
}
