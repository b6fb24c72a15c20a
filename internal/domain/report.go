package domain

import (
	"context"
	"time"
)

// ReportCache stores assembled reports per owner, type and transaction
// snapshot version
type ReportCache interface {
	// Get returns ErrCacheMiss when no entry exists for version
	Get(ctx context.Context, ownerID string, txType TransactionType, version string) (*Report, error)
	Set(ctx context.Context, ownerID, version string, report *Report) error
}

// ReportStorage persists report snapshots to object storage
type ReportStorage interface {
	Save(ctx context.Context, ownerID string, report *Report) (string, error)
	PresignURL(ctx context.Context, objectPath string, expiry time.Duration) (string, error)
}

// AlertDispatcher delivers a budget alert to one notification channel
type AlertDispatcher interface {
	DispatchBudgetAlert(ctx context.Context, ownerID string, alert *BudgetAlert) error
}

// AlertResolver is implemented by dispatchers that hold alert state and must
// hear when an owner's budgets are back within their limits
type AlertResolver interface {
	ResolveBudgetAlert(ctx context.Context, ownerID string) error
}

// AlertLedger remembers the last alert dispatched to each owner per month,
// identified by a fingerprint of its categories
type AlertLedger interface {
	// Record stores fingerprint and reports whether it differs from what was
	// stored for the owner and month
	Record(ctx context.Context, ownerID, month, fingerprint string) (bool, error)
	// Clear forgets the owner's entry for month and reports whether one existed
	Clear(ctx context.Context, ownerID, month string) (bool, error)
}
