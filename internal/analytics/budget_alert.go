package analytics

import (
	"strings"

	"github.com/dafibh/fortuna/fortuna-analytics/internal/domain"
)

const budgetAlertPrefix = "You have exceeded your budget for: "

// EvaluateBudgets returns an alert naming every budget flagged as exceeded,
// in input order, or nil when none is. The Exceeded flag set by the store
// is trusted as-is.
func EvaluateBudgets(budgets []domain.Budget) *domain.BudgetAlert {
	var categories []string
	for _, b := range budgets {
		if b.Exceeded {
			categories = append(categories, b.Category)
		}
	}
	if len(categories) == 0 {
		return nil
	}

	return &domain.BudgetAlert{
		Categories: categories,
		Message:    budgetAlertPrefix + strings.Join(categories, ", ") + ".",
	}
}
