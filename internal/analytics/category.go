package analytics

import (
	"sort"

	"github.com/dafibh/fortuna/fortuna-analytics/internal/domain"
	"github.com/shopspring/decimal"
)

// CategoryTotals sums amounts per category. The result is sorted by category
// name (byte-wise, so "food" and "Food" are distinct) and each entry's color
// is taken from its rank in that order.
func (a *Aggregator) CategoryTotals(txs []domain.Transaction) []domain.CategoryTotal {
	sums := make(map[string]decimal.Decimal)
	for _, tx := range txs {
		sums[tx.Category] = sums[tx.Category].Add(tx.Amount)
	}

	categories := sortedKeys(sums)

	totals := make([]domain.CategoryTotal, 0, len(categories))
	for rank, category := range categories {
		totals = append(totals, domain.CategoryTotal{
			Category:   category,
			Amount:     sums[category],
			ColorIndex: a.palette.Index(rank),
			Color:      a.palette.Color(rank),
		})
	}
	return totals
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
