package analytics

import (
	"testing"
	"time"

	"github.com/dafibh/fortuna/fortuna-analytics/internal/domain"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func newTx(category string, amount int64, date string) domain.Transaction {
	d, err := time.Parse("2006-01-02", date)
	if err != nil {
		panic(err)
	}
	return domain.Transaction{
		ID:       uuid.New(),
		Name:     category + " purchase",
		Amount:   decimal.NewFromInt(amount),
		Category: category,
		Type:     domain.TransactionTypeExpense,
		Date:     d,
	}
}

func assertAmount(t *testing.T, want string, got decimal.Decimal, msgAndArgs ...interface{}) {
	t.Helper()
	assert.Equal(t, want, got.StringFixed(2), msgAndArgs...)
}
