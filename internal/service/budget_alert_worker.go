package service

import (
	"context"
	"sync"
	"time"

	"github.com/dafibh/fortuna/fortuna-analytics/internal/domain"
	"github.com/rs/zerolog"
)

// BudgetAlertWorker periodically checks every owner's budgets so alerts are
// pushed without waiting for a client request
type BudgetAlertWorker struct {
	alertService *BudgetAlertService
	budgetRepo   domain.BudgetRepository
	logger       zerolog.Logger
	interval     time.Duration
	stopCh       chan struct{}
	doneCh       chan struct{}
	mu           sync.Mutex
	running      bool
	stopped      bool
}

// BudgetAlertWorkerConfig holds configuration for the budget alert worker
type BudgetAlertWorkerConfig struct {
	Interval time.Duration // How often to sweep all owners
}

// DefaultBudgetAlertWorkerConfig returns the production defaults
func DefaultBudgetAlertWorkerConfig() BudgetAlertWorkerConfig {
	return BudgetAlertWorkerConfig{
		Interval: 1 * time.Hour,
	}
}

// SweepResult summarizes one pass over all owners
type SweepResult struct {
	Owners  int
	Alerted int
	Errors  int
}

// NewBudgetAlertWorker creates a new budget alert worker
func NewBudgetAlertWorker(
	alertService *BudgetAlertService,
	budgetRepo domain.BudgetRepository,
	logger zerolog.Logger,
	config BudgetAlertWorkerConfig,
) *BudgetAlertWorker {
	if config.Interval <= 0 {
		config.Interval = DefaultBudgetAlertWorkerConfig().Interval
	}

	return &BudgetAlertWorker{
		alertService: alertService,
		budgetRepo:   budgetRepo,
		logger:       logger.With().Str("component", "budget_alert_worker").Logger(),
		interval:     config.Interval,
		stopCh:       make(chan struct{}),
		doneCh:       make(chan struct{}),
	}
}

// Start begins the background sweep. Calling it again while running is a no-op.
func (w *BudgetAlertWorker) Start(ctx context.Context) {
	w.mu.Lock()
	if w.running || w.stopped {
		w.mu.Unlock()
		return
	}
	w.running = true
	w.mu.Unlock()

	w.logger.Info().Dur("interval", w.interval).Msg("Starting budget alert worker")

	go w.run(ctx)
}

// Stop signals the worker and waits for the loop to exit
func (w *BudgetAlertWorker) Stop() {
	w.mu.Lock()
	if !w.running || w.stopped {
		w.mu.Unlock()
		return
	}
	w.stopped = true
	w.mu.Unlock()

	w.logger.Info().Msg("Stopping budget alert worker")
	close(w.stopCh)
	<-w.doneCh
	w.logger.Info().Msg("Budget alert worker stopped")
}

func (w *BudgetAlertWorker) run(ctx context.Context) {
	defer close(w.doneCh)
	defer func() {
		w.mu.Lock()
		w.running = false
		w.mu.Unlock()
	}()

	w.Sweep(ctx)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.stopCh:
			return
		case <-ticker.C:
			w.Sweep(ctx)
		}
	}
}

// Sweep checks the budgets of every owner once. A failing owner is logged
// and skipped.
func (w *BudgetAlertWorker) Sweep(ctx context.Context) SweepResult {
	startTime := time.Now()
	var result SweepResult

	owners, err := w.budgetRepo.ListOwners(ctx)
	if err != nil {
		w.logger.Error().Err(err).Msg("Failed to list budget owners")
		result.Errors++
		return result
	}

	for _, ownerID := range owners {
		select {
		case <-ctx.Done():
			w.logger.Info().Msg("Context cancelled, stopping sweep")
			return result
		case <-w.stopCh:
			w.logger.Info().Msg("Stop signal received, stopping sweep")
			return result
		default:
		}

		result.Owners++
		alert, err := w.alertService.CheckBudgets(ctx, ownerID)
		if err != nil {
			w.logger.Error().Err(err).Str("owner_id", ownerID).Msg("Failed to check budgets for owner")
			result.Errors++
			continue
		}
		if alert != nil {
			result.Alerted++
		}
	}

	w.logger.Info().
		Int("owners", result.Owners).
		Int("alerted", result.Alerted).
		Int("errors", result.Errors).
		Dur("elapsed", time.Since(startTime)).
		Msg("Completed budget sweep")

	return result
}

// IsRunning returns whether the worker loop is active
func (w *BudgetAlertWorker) IsRunning() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.running
}
