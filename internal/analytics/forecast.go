package analytics

import (
	"maps"
	"slices"

	"github.com/dafibh/fortuna/fortuna-analytics/internal/domain"
	"github.com/dafibh/fortuna/fortuna-analytics/internal/util"
	"github.com/shopspring/decimal"
)

// ForecastWindow is the number of trailing months averaged into a forecast
const ForecastWindow = 3

// ForecastNextMonth predicts next month's net earnings as the mean monthly
// net over the last ForecastWindow months that have income or expenses.
// Savings do not count towards net earnings. With no such months the
// prediction is zero and Month is empty.
func ForecastNextMonth(txs []domain.Transaction) domain.Forecast {
	net := make(map[string]decimal.Decimal)
	totals := make(map[domain.TransactionType]map[string]decimal.Decimal)
	latest := make(map[domain.TransactionType]string)

	for _, tx := range txs {
		if tx.Date.IsZero() {
			continue
		}
		month := util.MonthKey(tx.Date)

		if totals[tx.Type] == nil {
			totals[tx.Type] = make(map[string]decimal.Decimal)
		}
		totals[tx.Type][month] = totals[tx.Type][month].Add(tx.Amount)
		if month > latest[tx.Type] {
			latest[tx.Type] = month
		}

		switch tx.Type {
		case domain.TransactionTypeIncome:
			net[month] = net[month].Add(tx.Amount)
		case domain.TransactionTypeExpense:
			net[month] = net[month].Sub(tx.Amount)
		}
	}

	latestTotal := func(t domain.TransactionType) decimal.Decimal {
		return totals[t][latest[t]].Round(2)
	}

	f := domain.Forecast{
		Prediction:  decimal.Zero,
		BasisMonths: util.TrailingMonths(slices.Collect(maps.Keys(net)), ForecastWindow),
		Details: domain.ForecastDetails{
			Income:  latestTotal(domain.TransactionTypeIncome),
			Expense: latestTotal(domain.TransactionTypeExpense),
			Savings: latestTotal(domain.TransactionTypeSaving),
		},
	}

	if n := len(f.BasisMonths); n > 0 {
		sum := decimal.Zero
		for _, month := range f.BasisMonths {
			sum = sum.Add(net[month])
		}
		f.Prediction = sum.Div(decimal.NewFromInt(int64(n))).Round(2)

		last, err := util.ParseMonthKey(f.BasisMonths[n-1])
		if err == nil {
			f.Month = util.MonthKey(last.AddDate(0, 1, 0))
		}
	}

	f.Message = forecastMessage(f.Prediction)
	return f
}

func forecastMessage(prediction decimal.Decimal) string {
	switch prediction.Sign() {
	case 1:
		return "Next month: You will likely gain £" + prediction.StringFixed(2)
	case -1:
		return "Next month: You may lose £" + prediction.Abs().StringFixed(2)
	default:
		return "Next month: Your net earnings will be neutral"
	}
}
