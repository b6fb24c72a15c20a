package analytics

import (
	"maps"
	"slices"

	"github.com/dafibh/fortuna/fortuna-analytics/internal/domain"
	"github.com/dafibh/fortuna/fortuna-analytics/internal/util"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

// CategoryByMonth builds a month x category matrix from pre-aggregated cells.
//
// Labels are the last MonthWindow distinct months, oldest first. Categories
// are walked alphabetically; each gets one value per label, zero where no
// cell exists. All-zero categories are dropped and at most MaxSeries
// survivors are kept, in alphabetical order. Cells repeating a
// (category, month) pair are summed.
func (a *Aggregator) CategoryByMonth(cells []domain.CategoryMonthTotal) domain.CategoryMatrix {
	byCategory := make(map[string]map[string]decimal.Decimal)
	months := make(map[string]struct{})

	for _, cell := range cells {
		if _, err := util.ParseMonthKey(cell.Month); err != nil {
			log.Warn().
				Err(domain.ErrInvalidMonthKey).
				Str("category", cell.Category).
				Str("month", cell.Month).
				Msg("Skipping category cell with malformed month")
			continue
		}
		totals, ok := byCategory[cell.Category]
		if !ok {
			totals = make(map[string]decimal.Decimal)
			byCategory[cell.Category] = totals
		}
		totals[cell.Month] = totals[cell.Month].Add(cell.Total)
		months[cell.Month] = struct{}{}
	}

	labels := util.TrailingMonths(slices.Collect(maps.Keys(months)), a.monthWindow)

	series := make([]domain.CategorySeries, 0, a.maxSeries)
	for rank, category := range sortedKeys(byCategory) {
		if len(series) == a.maxSeries {
			break
		}

		values := make([]decimal.Decimal, len(labels))
		hasData := false
		for i, month := range labels {
			total, ok := byCategory[category][month]
			if !ok {
				total = decimal.Zero
			}
			if !total.IsZero() {
				hasData = true
			}
			values[i] = total
		}
		if !hasData {
			continue
		}

		series = append(series, domain.CategorySeries{
			Category:   category,
			Values:     values,
			ColorIndex: a.palette.Index(rank),
			Color:      a.palette.Color(rank),
		})
	}

	return domain.CategoryMatrix{
		Labels: labels,
		Series: series,
	}
}
