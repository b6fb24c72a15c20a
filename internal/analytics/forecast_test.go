package analytics

import (
	"testing"

	"github.com/dafibh/fortuna/fortuna-analytics/internal/domain"
	"github.com/stretchr/testify/assert"
)

func income(amount int64, date string) domain.Transaction {
	tx := newTx("Salary", amount, date)
	tx.Type = domain.TransactionTypeIncome
	return tx
}

func saving(amount int64, date string) domain.Transaction {
	tx := newTx("Holiday", amount, date)
	tx.Type = domain.TransactionTypeSaving
	return tx
}

func TestForecastNextMonth_AveragesTrailingMonths(t *testing.T) {
	txs := []domain.Transaction{
		// outside the window
		income(9000, "2024-01-31"),
		income(2000, "2024-02-28"),
		newTx("Rent", 1900, "2024-02-01"),
		income(2000, "2024-03-29"),
		newTx("Rent", 1800, "2024-03-01"),
		income(2100, "2024-04-30"),
		newTx("Rent", 1850, "2024-04-01"),
		newTx("Dining", 50, "2024-04-12"),
		saving(300, "2024-04-15"),
	}

	f := ForecastNextMonth(txs)

	assert.Equal(t, []string{"2024-02", "2024-03", "2024-04"}, f.BasisMonths)
	assert.Equal(t, "2024-05", f.Month)
	// (100 + 200 + 200) / 3
	assertAmount(t, "166.67", f.Prediction)
	assert.Equal(t, "Next month: You will likely gain £166.67", f.Message)
	assertAmount(t, "2100.00", f.Details.Income)
	assertAmount(t, "1900.00", f.Details.Expense)
	assertAmount(t, "300.00", f.Details.Savings)
}

func TestForecastNextMonth_Loss(t *testing.T) {
	txs := []domain.Transaction{
		income(1000, "2024-11-30"),
		newTx("Rent", 1250, "2024-11-01"),
		newTx("Gifts", 400, "2024-12-20"),
	}

	f := ForecastNextMonth(txs)

	assert.Equal(t, "2025-01", f.Month)
	assertAmount(t, "-325.00", f.Prediction)
	assert.Equal(t, "Next month: You may lose £325.00", f.Message)
}

func TestForecastNextMonth_Neutral(t *testing.T) {
	f := ForecastNextMonth([]domain.Transaction{
		income(500, "2024-06-30"),
		newTx("Rent", 500, "2024-06-01"),
	})

	assert.True(t, f.Prediction.IsZero())
	assert.Equal(t, "Next month: Your net earnings will be neutral", f.Message)
}

func TestForecastNextMonth_DetailsUseEachStreamsLatestMonth(t *testing.T) {
	f := ForecastNextMonth([]domain.Transaction{
		income(2000, "2024-03-31"),
		newTx("Rent", 1000, "2024-05-01"),
		saving(100, "2024-01-10"),
		saving(150, "2024-01-20"),
	})

	assertAmount(t, "2000.00", f.Details.Income)
	assertAmount(t, "1000.00", f.Details.Expense)
	assertAmount(t, "250.00", f.Details.Savings)
}

func TestForecastNextMonth_SavingsOnlyIsNeutral(t *testing.T) {
	f := ForecastNextMonth([]domain.Transaction{saving(100, "2024-01-10")})

	assert.Empty(t, f.BasisMonths)
	assert.Empty(t, f.Month)
	assert.True(t, f.Prediction.IsZero())
	assert.Equal(t, "Next month: Your net earnings will be neutral", f.Message)
	assertAmount(t, "100.00", f.Details.Savings)
}

func TestForecastNextMonth_Empty(t *testing.T) {
	f := ForecastNextMonth(nil)

	assert.Empty(t, f.BasisMonths)
	assert.True(t, f.Prediction.IsZero())
	assert.True(t, f.Details.Income.IsZero())
	assert.Equal(t, "Next month: Your net earnings will be neutral", f.Message)
}

func TestForecastNextMonth_Deterministic(t *testing.T) {
	txs := []domain.Transaction{
		income(1000, "2024-01-31"),
		newTx("Rent", 333, "2024-01-01"),
		income(1000, "2024-02-28"),
		newTx("Rent", 334, "2024-02-01"),
	}
	first := ForecastNextMonth(txs)
	for i := 0; i < 20; i++ {
		assert.Equal(t, first, ForecastNextMonth(txs))
	}
}
