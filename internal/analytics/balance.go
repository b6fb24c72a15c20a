package analytics

import (
	"github.com/dafibh/fortuna/fortuna-analytics/internal/domain"
	"github.com/shopspring/decimal"
)

// SummarizeBalance totals transactions by type. The account balance is
// income minus expenses minus savings; every figure is rounded to cents.
func SummarizeBalance(txs []domain.Transaction) domain.BalanceSummary {
	income, expenses, savings := decimal.Zero, decimal.Zero, decimal.Zero
	for _, tx := range txs {
		switch tx.Type {
		case domain.TransactionTypeIncome:
			income = income.Add(tx.Amount)
		case domain.TransactionTypeExpense:
			expenses = expenses.Add(tx.Amount)
		case domain.TransactionTypeSaving:
			savings = savings.Add(tx.Amount)
		}
	}

	return domain.BalanceSummary{
		TotalIncome:    income.Round(2),
		TotalExpenses:  expenses.Round(2),
		TotalSavings:   savings.Round(2),
		AccountBalance: income.Sub(expenses).Sub(savings).Round(2),
	}
}
