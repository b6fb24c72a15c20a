package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dafibh/fortuna/fortuna-analytics/internal/domain"
	"github.com/dafibh/fortuna/fortuna-analytics/internal/util"
	"github.com/redis/go-redis/v9"
)

const alertKeyPrefix = "fortuna:alert"

// minAlertTTL keeps an entry alive when a month key is already in the past
const minAlertTTL = time.Hour

// AlertLedger is a domain.AlertLedger shared through Redis, so replicas
// running the budget sweep do not announce the same alert twice. Entries
// expire a day after the month they belong to ends.
type AlertLedger struct {
	client *redis.Client
	now    func() time.Time
}

var _ domain.AlertLedger = (*AlertLedger)(nil)

// NewAlertLedger creates an AlertLedger on client
func NewAlertLedger(client *redis.Client) *AlertLedger {
	return &AlertLedger{client: client, now: time.Now}
}

// Record swaps in fingerprint atomically and compares it with the old value
func (l *AlertLedger) Record(ctx context.Context, ownerID, month, fingerprint string) (bool, error) {
	ttl, err := l.ttl(month)
	if err != nil {
		return false, err
	}

	prev, err := l.client.SetArgs(ctx, alertKey(ownerID, month), fingerprint, redis.SetArgs{
		TTL: ttl,
		Get: true,
	}).Result()
	if errors.Is(err, redis.Nil) {
		return true, nil
	}
	if err != nil {
		return false, fmt.Errorf("record alert: %w", err)
	}
	return prev != fingerprint, nil
}

// Clear deletes the owner's entry for month
func (l *AlertLedger) Clear(ctx context.Context, ownerID, month string) (bool, error) {
	n, err := l.client.Del(ctx, alertKey(ownerID, month)).Result()
	if err != nil {
		return false, fmt.Errorf("clear alert: %w", err)
	}
	return n > 0, nil
}

func (l *AlertLedger) ttl(month string) (time.Duration, error) {
	start, err := util.ParseMonthKey(month)
	if err != nil {
		return 0, err
	}
	ttl := start.AddDate(0, 1, 1).Sub(l.now())
	if ttl < minAlertTTL {
		ttl = minAlertTTL
	}
	return ttl, nil
}

func alertKey(ownerID, month string) string {
	return fmt.Sprintf("%s:%s:%s", alertKeyPrefix, ownerID, month)
}
