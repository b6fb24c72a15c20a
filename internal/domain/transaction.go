package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type TransactionType string

const (
	TransactionTypeExpense TransactionType = "expense"
	TransactionTypeIncome  TransactionType = "income"
	TransactionTypeSaving  TransactionType = "saving"
)

// IsValid reports whether t is one of the known transaction types
func (t TransactionType) IsValid() bool {
	switch t {
	case TransactionTypeExpense, TransactionTypeIncome, TransactionTypeSaving:
		return true
	}
	return false
}

// ParseTransactionType converts a query value into a TransactionType.
// An empty value defaults to expense.
func ParseTransactionType(s string) (TransactionType, error) {
	if s == "" {
		return TransactionTypeExpense, nil
	}
	t := TransactionType(s)
	if !t.IsValid() {
		return "", ErrInvalidTransactionType
	}
	return t, nil
}

// Transaction is a single expense, income or saving record.
// Amount is always finite and non-negative; only the year and month of Date
// are used for bucketing.
type Transaction struct {
	ID       uuid.UUID       `json:"id"`
	Name     string          `json:"name"`
	Amount   decimal.Decimal `json:"amount"`
	Category string          `json:"category"`
	Type     TransactionType `json:"type"`
	Date     time.Time       `json:"date"`
}

// RawTransaction is a transaction as received from a client, before the
// amount and date have been validated.
type RawTransaction struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Amount   string `json:"amount"`
	Category string `json:"category"`
	Date     string `json:"date"`
}

// CategoryMonthTotal is a pre-aggregated (category, month) cell as produced
// by the reporting query.
type CategoryMonthTotal struct {
	Category string          `json:"category"`
	Month    string          `json:"month"`
	Total    decimal.Decimal `json:"total"`
}

type TransactionRepository interface {
	GetByOwner(ctx context.Context, ownerID string, txType TransactionType) ([]Transaction, error)
	GetAllByOwner(ctx context.Context, ownerID string) ([]Transaction, error)
	SumByCategoryMonth(ctx context.Context, ownerID string, txType TransactionType) ([]CategoryMonthTotal, error)
	// SnapshotVersion identifies the current state of the owner's live
	// transactions of one type. It changes whenever one is added, edited
	// or deleted.
	SnapshotVersion(ctx context.Context, ownerID string, txType TransactionType) (string, error)
}
