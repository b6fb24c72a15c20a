package service

import (
	"context"
	"fmt"
	"time"

	"github.com/dafibh/fortuna/fortuna-analytics/internal/analytics"
	"github.com/dafibh/fortuna/fortuna-analytics/internal/domain"
	"github.com/dafibh/fortuna/fortuna-analytics/internal/util"
	"github.com/rs/zerolog/log"
)

// BudgetAlertService evaluates budgets and notifies the owner. An alert is
// dispatched once per owner and month for a given set of exceeded
// categories; it is dispatched again when the set changes or after the
// budgets recover and are exceeded anew.
type BudgetAlertService struct {
	budgetRepo  domain.BudgetRepository
	dispatchers []domain.AlertDispatcher
	ledger      domain.AlertLedger
	now         func() time.Time
}

// NewBudgetAlertService creates a new BudgetAlertService
func NewBudgetAlertService(budgetRepo domain.BudgetRepository, dispatchers ...domain.AlertDispatcher) *BudgetAlertService {
	return &BudgetAlertService{
		budgetRepo:  budgetRepo,
		dispatchers: dispatchers,
		ledger:      NewMemoryAlertLedger(),
		now:         time.Now,
	}
}

// SetLedger replaces the process-local dispatch ledger, e.g. with one shared
// between replicas
func (s *BudgetAlertService) SetLedger(ledger domain.AlertLedger) {
	s.ledger = ledger
}

// AddDispatcher registers another notification channel
func (s *BudgetAlertService) AddDispatcher(dispatcher domain.AlertDispatcher) {
	s.dispatchers = append(s.dispatchers, dispatcher)
}

// CheckBudgets returns the alert for the owner's exceeded budgets, or nil.
// Dispatch failures are logged and do not fail the check.
func (s *BudgetAlertService) CheckBudgets(ctx context.Context, ownerID string) (*domain.BudgetAlert, error) {
	budgets, err := s.budgetRepo.GetCurrentByOwner(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("load budgets: %w", err)
	}

	alert := analytics.EvaluateBudgets(budgets)
	month := util.MonthKey(s.now().UTC())

	if alert == nil {
		s.resolve(ctx, ownerID, month)
		return nil, nil
	}

	changed, err := s.ledger.Record(ctx, ownerID, month, alertFingerprint(alert))
	if err != nil {
		log.Warn().Err(err).Str("owner_id", ownerID).Msg("Alert ledger unavailable, dispatching anyway")
		changed = true
	}
	if !changed {
		return alert, nil
	}

	for _, d := range s.dispatchers {
		if err := d.DispatchBudgetAlert(ctx, ownerID, alert); err != nil {
			log.Warn().
				Err(err).
				Str("owner_id", ownerID).
				Strs("categories", alert.Categories).
				Msg("Failed to dispatch budget alert")
		}
	}

	return alert, nil
}

// resolve forgets a dispatched alert once the owner is back under budget and
// tells the dispatchers that track alert state
func (s *BudgetAlertService) resolve(ctx context.Context, ownerID, month string) {
	cleared, err := s.ledger.Clear(ctx, ownerID, month)
	if err != nil {
		log.Warn().Err(err).Str("owner_id", ownerID).Msg("Failed to clear alert ledger")
		return
	}
	if !cleared {
		return
	}

	for _, d := range s.dispatchers {
		r, ok := d.(domain.AlertResolver)
		if !ok {
			continue
		}
		if err := r.ResolveBudgetAlert(ctx, ownerID); err != nil {
			log.Warn().Err(err).Str("owner_id", ownerID).Msg("Failed to resolve budget alert")
		}
	}
}
