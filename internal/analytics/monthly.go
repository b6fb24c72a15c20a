package analytics

import (
	"maps"
	"slices"
	"sort"

	"github.com/dafibh/fortuna/fortuna-analytics/internal/domain"
	"github.com/dafibh/fortuna/fortuna-analytics/internal/util"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

// MonthlySeries sums amounts per calendar month and returns the most recent
// MonthWindow months present in the data, oldest first. Months without
// transactions are not padded in.
func (a *Aggregator) MonthlySeries(txs []domain.Transaction) []domain.MonthlyTotal {
	sums := make(map[string]decimal.Decimal)
	for _, tx := range txs {
		if tx.Date.IsZero() {
			log.Warn().Str("transaction_id", tx.ID.String()).Msg("Skipping transaction without date")
			continue
		}
		key := util.MonthKey(tx.Date)
		sums[key] = sums[key].Add(tx.Amount)
	}

	months := util.TrailingMonths(slices.Collect(maps.Keys(sums)), a.monthWindow)

	series := make([]domain.MonthlyTotal, 0, len(months))
	for _, month := range months {
		series = append(series, domain.MonthlyTotal{
			MonthKey: month,
			Label:    util.MonthLabel(month),
			Amount:   sums[month],
		})
	}
	return series
}

// SummarizeCategoryMonths pre-aggregates transactions into (category, month)
// cells, ordered by month then category. This is the shape CategoryByMonth
// consumes when no reporting query is available.
func (a *Aggregator) SummarizeCategoryMonths(txs []domain.Transaction) []domain.CategoryMonthTotal {
	type cellKey struct {
		month    string
		category string
	}

	sums := make(map[cellKey]decimal.Decimal)
	for _, tx := range txs {
		if tx.Date.IsZero() {
			log.Warn().Str("transaction_id", tx.ID.String()).Msg("Skipping transaction without date")
			continue
		}
		key := cellKey{month: util.MonthKey(tx.Date), category: tx.Category}
		sums[key] = sums[key].Add(tx.Amount)
	}

	keys := make([]cellKey, 0, len(sums))
	for k := range sums {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].month != keys[j].month {
			return keys[i].month < keys[j].month
		}
		return keys[i].category < keys[j].category
	})

	cells := make([]domain.CategoryMonthTotal, 0, len(keys))
	for _, k := range keys {
		cells = append(cells, domain.CategoryMonthTotal{
			Category: k.category,
			Month:    k.month,
			Total:    sums[k],
		})
	}
	return cells
}
