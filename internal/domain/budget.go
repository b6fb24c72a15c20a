package domain

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Budget is a monthly spending limit for one category. UsedAmount and
// Exceeded are computed by the store for the current period.
type Budget struct {
	ID           uuid.UUID       `json:"id"`
	Category     string          `json:"category"`
	MonthlyLimit decimal.Decimal `json:"monthlyLimit"`
	UsedAmount   decimal.Decimal `json:"usedAmount"`
	Exceeded     bool            `json:"exceeded"`
}

// BudgetAlert lists the categories whose budget has been exceeded
type BudgetAlert struct {
	Categories []string `json:"categories"`
	Message    string   `json:"message"`
}

type BudgetRepository interface {
	GetCurrentByOwner(ctx context.Context, ownerID string) ([]Budget, error)
	ListOwners(ctx context.Context) ([]string, error)
}
