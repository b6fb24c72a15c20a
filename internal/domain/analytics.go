package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// CategoryTotal is the summed amount for one category
type CategoryTotal struct {
	Category   string          `json:"category"`
	Amount     decimal.Decimal `json:"amount"`
	ColorIndex int             `json:"colorIndex"`
	Color      string          `json:"color"`
}

// MonthlyTotal is the summed amount for one calendar month (YYYY-MM)
type MonthlyTotal struct {
	MonthKey string          `json:"monthKey"`
	Label    string          `json:"label"`
	Amount   decimal.Decimal `json:"amount"`
}

// CategorySeries holds one category's values aligned to CategoryMatrix.Labels
type CategorySeries struct {
	Category   string            `json:"category"`
	Values     []decimal.Decimal `json:"values"`
	ColorIndex int               `json:"colorIndex"`
	Color      string            `json:"color"`
}

// CategoryMatrix is a month x category grid for multi-series charts
type CategoryMatrix struct {
	Labels []string         `json:"labels"`
	Series []CategorySeries `json:"series"`
}

// Report bundles every chart structure for one transaction type
type Report struct {
	Type           TransactionType `json:"type"`
	CategoryTotals []CategoryTotal `json:"categoryTotals"`
	MonthlySeries  []MonthlyTotal  `json:"monthlySeries"`
	CategoryMatrix CategoryMatrix  `json:"categoryMatrix"`
	Skipped        int             `json:"skipped"`
	GeneratedAt    time.Time       `json:"generatedAt"`
}

// BalanceSummary is income minus expenses minus savings
type BalanceSummary struct {
	TotalIncome    decimal.Decimal `json:"totalIncome"`
	TotalExpenses  decimal.Decimal `json:"totalExpenses"`
	TotalSavings   decimal.Decimal `json:"totalSavings"`
	AccountBalance decimal.Decimal `json:"accountBalance"`
}

// ReportExport describes a report snapshot written to object storage
type ReportExport struct {
	ObjectPath string    `json:"objectPath"`
	URL        string    `json:"url"`
	ExpiresAt  time.Time `json:"expiresAt"`
}

// Forecast predicts net earnings (income minus expenses) for Month, the
// month after the latest one with income or expense data
type Forecast struct {
	Month       string          `json:"month"`
	Prediction  decimal.Decimal `json:"prediction"`
	Message     string          `json:"message"`
	BasisMonths []string        `json:"basisMonths"`
	Details     ForecastDetails `json:"details"`
}

// ForecastDetails holds each stream's total for its own most recent month
type ForecastDetails struct {
	Income  decimal.Decimal `json:"income"`
	Expense decimal.Decimal `json:"expense"`
	Savings decimal.Decimal `json:"savings"`
}
