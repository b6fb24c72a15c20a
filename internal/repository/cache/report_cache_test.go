package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/dafibh/fortuna/fortuna-analytics/internal/domain"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCache(t *testing.T, ttl time.Duration) (*ReportCache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewReportCache(client, ttl), mr
}

func sampleReport() *domain.Report {
	return &domain.Report{
		Type: domain.TransactionTypeExpense,
		CategoryTotals: []domain.CategoryTotal{
			{Category: "Food", Amount: decimal.NewFromFloat(12.5), ColorIndex: 0, Color: "#FF6384"},
		},
		MonthlySeries: []domain.MonthlyTotal{
			{MonthKey: "2024-01", Label: "Jan", Amount: decimal.NewFromFloat(12.5)},
		},
		CategoryMatrix: domain.CategoryMatrix{
			Labels: []string{"2024-01"},
			Series: []domain.CategorySeries{
				{Category: "Food", Values: []decimal.Decimal{decimal.NewFromFloat(12.5)}, Color: "#FF6384"},
			},
		},
		GeneratedAt: time.Date(2024, 1, 20, 8, 0, 0, 0, time.UTC),
	}
}

func TestReportCache_Miss(t *testing.T) {
	c, _ := newTestCache(t, time.Minute)

	report, err := c.Get(context.Background(), "auth0|user", domain.TransactionTypeExpense, "v1")

	assert.Nil(t, report)
	assert.ErrorIs(t, err, domain.ErrCacheMiss)
}

func TestReportCache_SetThenGet(t *testing.T) {
	c, _ := newTestCache(t, time.Minute)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "auth0|user", "v1", sampleReport()))

	got, err := c.Get(ctx, "auth0|user", domain.TransactionTypeExpense, "v1")
	require.NoError(t, err)
	require.Len(t, got.CategoryTotals, 1)
	assert.Equal(t, "Food", got.CategoryTotals[0].Category)
	assert.Equal(t, "12.50", got.CategoryTotals[0].Amount.StringFixed(2))
	assert.Equal(t, []string{"2024-01"}, got.CategoryMatrix.Labels)
	assert.True(t, got.GeneratedAt.Equal(sampleReport().GeneratedAt))
}

func TestReportCache_KeyedByOwnerAndType(t *testing.T) {
	c, _ := newTestCache(t, time.Minute)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "auth0|user", "v1", sampleReport()))

	_, err := c.Get(ctx, "auth0|other", domain.TransactionTypeExpense, "v1")
	assert.ErrorIs(t, err, domain.ErrCacheMiss)

	_, err = c.Get(ctx, "auth0|user", domain.TransactionTypeIncome, "v1")
	assert.ErrorIs(t, err, domain.ErrCacheMiss)
}

func TestReportCache_KeyedBySnapshotVersion(t *testing.T) {
	c, mr := newTestCache(t, time.Minute)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "auth0|user", "3:9f2c", sampleReport()))
	assert.True(t, mr.Exists("fortuna:report:auth0|user:expense:3:9f2c"))

	_, err := c.Get(ctx, "auth0|user", domain.TransactionTypeExpense, "4:a1b0")
	assert.ErrorIs(t, err, domain.ErrCacheMiss)

	got, err := c.Get(ctx, "auth0|user", domain.TransactionTypeExpense, "3:9f2c")
	require.NoError(t, err)
	assert.Equal(t, "Food", got.CategoryTotals[0].Category)
}

func TestReportCache_Expires(t *testing.T) {
	c, mr := newTestCache(t, 30*time.Second)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "auth0|user", "v1", sampleReport()))
	mr.FastForward(31 * time.Second)

	_, err := c.Get(ctx, "auth0|user", domain.TransactionTypeExpense, "v1")
	assert.ErrorIs(t, err, domain.ErrCacheMiss)
}

func TestReportCache_CorruptEntry(t *testing.T) {
	c, mr := newTestCache(t, time.Minute)
	require.NoError(t, mr.Set(reportKey("auth0|user", domain.TransactionTypeExpense, "v1"), "not json"))

	_, err := c.Get(context.Background(), "auth0|user", domain.TransactionTypeExpense, "v1")
	require.Error(t, err)
	assert.NotErrorIs(t, err, domain.ErrCacheMiss)
}
