package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dafibh/fortuna/fortuna-analytics/internal/analytics"
	"github.com/dafibh/fortuna/fortuna-analytics/internal/domain"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

// DefaultExportExpiry is how long a presigned export URL stays valid
const DefaultExportExpiry = 15 * time.Minute

// ReportService assembles chart data from transaction snapshots
type ReportService struct {
	transactionRepo domain.TransactionRepository
	aggregator      *analytics.Aggregator
	cache           domain.ReportCache
	storage         domain.ReportStorage
	exportExpiry    time.Duration
	now             func() time.Time
}

// NewReportService creates a new ReportService
func NewReportService(transactionRepo domain.TransactionRepository, aggregator *analytics.Aggregator) *ReportService {
	return &ReportService{
		transactionRepo: transactionRepo,
		aggregator:      aggregator,
		exportExpiry:    DefaultExportExpiry,
		now:             time.Now,
	}
}

// SetCache enables report caching
func (s *ReportService) SetCache(cache domain.ReportCache) {
	s.cache = cache
}

// SetStorage enables report export
func (s *ReportService) SetStorage(storage domain.ReportStorage, expiry time.Duration) {
	s.storage = storage
	if expiry > 0 {
		s.exportExpiry = expiry
	}
}

// GetCategoryTotals returns per-category totals for one transaction type
func (s *ReportService) GetCategoryTotals(ctx context.Context, ownerID string, txType domain.TransactionType) ([]domain.CategoryTotal, error) {
	if !txType.IsValid() {
		return nil, domain.ErrInvalidTransactionType
	}

	txs, err := s.transactionRepo.GetByOwner(ctx, ownerID, txType)
	if err != nil {
		return nil, fmt.Errorf("load transactions: %w", err)
	}
	return s.aggregator.CategoryTotals(txs), nil
}

// GetMonthlySeries returns the trailing monthly totals for one transaction type
func (s *ReportService) GetMonthlySeries(ctx context.Context, ownerID string, txType domain.TransactionType) ([]domain.MonthlyTotal, error) {
	if !txType.IsValid() {
		return nil, domain.ErrInvalidTransactionType
	}

	txs, err := s.transactionRepo.GetByOwner(ctx, ownerID, txType)
	if err != nil {
		return nil, fmt.Errorf("load transactions: %w", err)
	}
	return s.aggregator.MonthlySeries(txs), nil
}

// GetCategoryMatrix returns the month by category grid built from the
// store's pre-aggregated totals
func (s *ReportService) GetCategoryMatrix(ctx context.Context, ownerID string, txType domain.TransactionType) (domain.CategoryMatrix, error) {
	if !txType.IsValid() {
		return domain.CategoryMatrix{}, domain.ErrInvalidTransactionType
	}

	cells, err := s.transactionRepo.SumByCategoryMonth(ctx, ownerID, txType)
	if err != nil {
		return domain.CategoryMatrix{}, fmt.Errorf("load category month totals: %w", err)
	}
	return s.aggregator.CategoryByMonth(cells), nil
}

// GetReport returns every chart structure for one transaction type. Cached
// reports are keyed by the transaction snapshot version, so a write to the
// owner's transactions makes the next call recompute.
func (s *ReportService) GetReport(ctx context.Context, ownerID string, txType domain.TransactionType) (*domain.Report, error) {
	if !txType.IsValid() {
		return nil, domain.ErrInvalidTransactionType
	}

	cache, version := s.cache, ""
	if cache != nil {
		v, err := s.transactionRepo.SnapshotVersion(ctx, ownerID, txType)
		if err != nil {
			log.Warn().Err(err).Str("owner_id", ownerID).Msg("Snapshot version unavailable, bypassing report cache")
			cache = nil
		}
		version = v
	}

	if cache != nil {
		cached, err := cache.Get(ctx, ownerID, txType, version)
		if err == nil {
			return cached, nil
		}
		if !errors.Is(err, domain.ErrCacheMiss) {
			log.Warn().Err(err).Str("owner_id", ownerID).Msg("Report cache read failed")
		}
	}

	report, err := s.assemble(ctx, ownerID, txType)
	if err != nil {
		return nil, err
	}

	if cache != nil {
		if err := cache.Set(ctx, ownerID, version, report); err != nil {
			log.Warn().Err(err).Str("owner_id", ownerID).Msg("Report cache write failed")
		}
	}

	return report, nil
}

// assemble loads both snapshots, then runs the three transforms concurrently
func (s *ReportService) assemble(ctx context.Context, ownerID string, txType domain.TransactionType) (*domain.Report, error) {
	var (
		txs   []domain.Transaction
		cells []domain.CategoryMonthTotal
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		txs, err = s.transactionRepo.GetByOwner(gctx, ownerID, txType)
		if err != nil {
			return fmt.Errorf("load transactions: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		cells, err = s.transactionRepo.SumByCategoryMonth(gctx, ownerID, txType)
		if err != nil {
			return fmt.Errorf("load category month totals: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return s.build(txType, txs, cells), nil
}

// BuildReport sanitizes raw records and aggregates them. Rejected records
// are skipped and counted; the result is never cached.
func (s *ReportService) BuildReport(ctx context.Context, txType domain.TransactionType, raw []domain.RawTransaction) (*domain.Report, error) {
	if !txType.IsValid() {
		return nil, domain.ErrInvalidTransactionType
	}
	if len(raw) > domain.MaxRawTransactions {
		return nil, fmt.Errorf("%w: at most %d transactions per request", domain.ErrInvalidInput, domain.MaxRawTransactions)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	txs, rejected := analytics.Sanitize(raw, txType)
	report := s.build(txType, txs, s.aggregator.SummarizeCategoryMonths(txs))
	report.Skipped = len(rejected)
	return report, nil
}

func (s *ReportService) build(txType domain.TransactionType, txs []domain.Transaction, cells []domain.CategoryMonthTotal) *domain.Report {
	report := &domain.Report{
		Type:        txType,
		GeneratedAt: s.now().UTC(),
	}

	// The builders are pure and share only read-only input
	var g errgroup.Group
	g.Go(func() error {
		report.CategoryTotals = s.aggregator.CategoryTotals(txs)
		return nil
	})
	g.Go(func() error {
		report.MonthlySeries = s.aggregator.MonthlySeries(txs)
		return nil
	})
	g.Go(func() error {
		report.CategoryMatrix = s.aggregator.CategoryByMonth(cells)
		return nil
	})
	_ = g.Wait()

	return report
}

// GetBalance returns income minus expenses minus savings for an owner
func (s *ReportService) GetBalance(ctx context.Context, ownerID string) (domain.BalanceSummary, error) {
	txs, err := s.transactionRepo.GetAllByOwner(ctx, ownerID)
	if err != nil {
		return domain.BalanceSummary{}, fmt.Errorf("load transactions: %w", err)
	}
	return analytics.SummarizeBalance(txs), nil
}

// GetForecast predicts the owner's net earnings for the coming month
func (s *ReportService) GetForecast(ctx context.Context, ownerID string) (domain.Forecast, error) {
	txs, err := s.transactionRepo.GetAllByOwner(ctx, ownerID)
	if err != nil {
		return domain.Forecast{}, fmt.Errorf("load transactions: %w", err)
	}
	return analytics.ForecastNextMonth(txs), nil
}

// ExportReport writes the current report to object storage and returns a
// presigned download URL
func (s *ReportService) ExportReport(ctx context.Context, ownerID string, txType domain.TransactionType) (*domain.ReportExport, error) {
	if s.storage == nil {
		return nil, domain.ErrExportDisabled
	}

	report, err := s.GetReport(ctx, ownerID, txType)
	if err != nil {
		return nil, err
	}

	objectPath, err := s.storage.Save(ctx, ownerID, report)
	if err != nil {
		return nil, fmt.Errorf("save report: %w", err)
	}

	url, err := s.storage.PresignURL(ctx, objectPath, s.exportExpiry)
	if err != nil {
		return nil, fmt.Errorf("presign report: %w", err)
	}

	log.Info().
		Str("owner_id", ownerID).
		Str("type", string(txType)).
		Str("object_path", objectPath).
		Msg("Report exported")

	return &domain.ReportExport{
		ObjectPath: objectPath,
		URL:        url,
		ExpiresAt:  s.now().UTC().Add(s.exportExpiry),
	}, nil
}
