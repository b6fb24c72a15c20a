package postgres

import (
	"context"
	"fmt"

	"github.com/dafibh/fortuna/fortuna-analytics/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	getTransactionsByOwnerAndType = `
SELECT id, name, amount, category, type, transaction_date
FROM transactions
WHERE owner_id = $1 AND type = $2 AND deleted_at IS NULL
ORDER BY transaction_date, id`

	getAllTransactionsByOwner = `
SELECT id, name, amount, category, type, transaction_date
FROM transactions
WHERE owner_id = $1 AND deleted_at IS NULL
ORDER BY transaction_date, id`

	sumTransactionsByCategoryMonth = `
SELECT category, to_char(transaction_date, 'YYYY-MM') AS month, SUM(amount) AS total
FROM transactions
WHERE owner_id = $1 AND type = $2 AND deleted_at IS NULL AND category <> ''
GROUP BY category, month
ORDER BY month, category`

	transactionSnapshotVersion = `
SELECT count(*)::text || ':' || COALESCE(md5(string_agg(
	id::text || '/' || amount::text || '/' || category || '/' || transaction_date::text,
	',' ORDER BY id)), '')
FROM transactions
WHERE owner_id = $1 AND type = $2 AND deleted_at IS NULL`
)

// TransactionRepository implements domain.TransactionRepository using PostgreSQL
type TransactionRepository struct {
	pool *pgxpool.Pool
}

// NewTransactionRepository creates a new TransactionRepository
func NewTransactionRepository(pool *pgxpool.Pool) *TransactionRepository {
	return &TransactionRepository{
		pool: pool,
	}
}

// GetByOwner retrieves every transaction of one type for an owner
func (r *TransactionRepository) GetByOwner(ctx context.Context, ownerID string, txType domain.TransactionType) ([]domain.Transaction, error) {
	rows, err := r.pool.Query(ctx, getTransactionsByOwnerAndType, ownerID, string(txType))
	if err != nil {
		return nil, fmt.Errorf("query transactions: %w", err)
	}
	return collectTransactions(rows)
}

// GetAllByOwner retrieves every transaction for an owner regardless of type
func (r *TransactionRepository) GetAllByOwner(ctx context.Context, ownerID string) ([]domain.Transaction, error) {
	rows, err := r.pool.Query(ctx, getAllTransactionsByOwner, ownerID)
	if err != nil {
		return nil, fmt.Errorf("query transactions: %w", err)
	}
	return collectTransactions(rows)
}

// SumByCategoryMonth returns per (category, month) totals for one transaction type
func (r *TransactionRepository) SumByCategoryMonth(ctx context.Context, ownerID string, txType domain.TransactionType) ([]domain.CategoryMonthTotal, error) {
	rows, err := r.pool.Query(ctx, sumTransactionsByCategoryMonth, ownerID, string(txType))
	if err != nil {
		return nil, fmt.Errorf("query category month totals: %w", err)
	}

	cells, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.CategoryMonthTotal, error) {
		var (
			category string
			month    string
			total    pgtype.Numeric
		)
		if err := row.Scan(&category, &month, &total); err != nil {
			return domain.CategoryMonthTotal{}, err
		}
		return domain.CategoryMonthTotal{
			Category: category,
			Month:    month,
			Total:    pgNumericToDecimal(total),
		}, nil
	})
	if err != nil {
		return nil, fmt.Errorf("scan category month totals: %w", err)
	}
	return cells, nil
}

// SnapshotVersion digests the fields that feed a report, so any insert,
// edit or soft delete yields a new version
func (r *TransactionRepository) SnapshotVersion(ctx context.Context, ownerID string, txType domain.TransactionType) (string, error) {
	var version string
	if err := r.pool.QueryRow(ctx, transactionSnapshotVersion, ownerID, string(txType)).Scan(&version); err != nil {
		return "", fmt.Errorf("query snapshot version: %w", err)
	}
	return version, nil
}

func collectTransactions(rows pgx.Rows) ([]domain.Transaction, error) {
	txs, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.Transaction, error) {
		var (
			id       pgtype.UUID
			name     string
			amount   pgtype.Numeric
			category string
			txType   string
			date     pgtype.Date
		)
		if err := row.Scan(&id, &name, &amount, &category, &txType, &date); err != nil {
			return domain.Transaction{}, err
		}
		return domain.Transaction{
			ID:       pgUUIDToUUID(id),
			Name:     name,
			Amount:   pgNumericToDecimal(amount),
			Category: category,
			Type:     domain.TransactionType(txType),
			Date:     pgDateToTime(date),
		}, nil
	})
	if err != nil {
		return nil, fmt.Errorf("scan transactions: %w", err)
	}
	return txs, nil
}
