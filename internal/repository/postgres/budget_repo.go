package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/dafibh/fortuna/fortuna-analytics/internal/domain"
	"github.com/dafibh/fortuna/fortuna-analytics/internal/util"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
)

// used_amount only counts expenses dated inside the current month
const getBudgetsWithUsage = `
SELECT b.id, b.category, b.monthly_limit, COALESCE(SUM(t.amount), 0) AS used_amount
FROM budgets b
LEFT JOIN transactions t
  ON t.owner_id = b.owner_id
 AND t.category = b.category
 AND t.type = 'expense'
 AND t.deleted_at IS NULL
 AND t.transaction_date >= $2
 AND t.transaction_date < $3
WHERE b.owner_id = $1
GROUP BY b.id, b.category, b.monthly_limit, b.created_at
ORDER BY b.created_at, b.id`

const listBudgetOwners = `
SELECT DISTINCT owner_id FROM budgets ORDER BY owner_id`

// BudgetRepository implements domain.BudgetRepository using PostgreSQL
type BudgetRepository struct {
	pool *pgxpool.Pool
	now  func() time.Time
}

// NewBudgetRepository creates a new BudgetRepository
func NewBudgetRepository(pool *pgxpool.Pool) *BudgetRepository {
	return &BudgetRepository{
		pool: pool,
		now:  time.Now,
	}
}

// GetCurrentByOwner retrieves an owner's budgets with usage for the current month
func (r *BudgetRepository) GetCurrentByOwner(ctx context.Context, ownerID string) ([]domain.Budget, error) {
	now := r.now().UTC()
	start, end := util.MonthRange(now.Year(), now.Month())

	rows, err := r.pool.Query(ctx, getBudgetsWithUsage, ownerID, timeToPgDate(start), timeToPgDate(end))
	if err != nil {
		return nil, fmt.Errorf("query budgets: %w", err)
	}

	budgets, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.Budget, error) {
		var (
			id       pgtype.UUID
			category string
			limit    pgtype.Numeric
			used     pgtype.Numeric
		)
		if err := row.Scan(&id, &category, &limit, &used); err != nil {
			return domain.Budget{}, err
		}
		monthlyLimit := pgNumericToDecimal(limit)
		usedAmount := pgNumericToDecimal(used)
		return domain.Budget{
			ID:           pgUUIDToUUID(id),
			Category:     category,
			MonthlyLimit: monthlyLimit,
			UsedAmount:   usedAmount,
			Exceeded:     usedAmount.GreaterThan(monthlyLimit),
		}, nil
	})
	if err != nil {
		return nil, fmt.Errorf("scan budgets: %w", err)
	}
	return budgets, nil
}

// ListOwners returns every owner with at least one budget
func (r *BudgetRepository) ListOwners(ctx context.Context) ([]string, error) {
	rows, err := r.pool.Query(ctx, listBudgetOwners)
	if err != nil {
		return nil, fmt.Errorf("query budget owners: %w", err)
	}

	owners, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("scan budget owners: %w", err)
	}
	return owners, nil
}
