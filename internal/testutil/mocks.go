package testutil

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/dafibh/fortuna/fortuna-analytics/internal/domain"
)

// MockTransactionRepository is a mock implementation of domain.TransactionRepository
type MockTransactionRepository struct {
	mu           sync.Mutex
	Transactions map[string][]domain.Transaction
	Cells        map[string][]domain.CategoryMonthTotal
	Versions     map[string]int
	Err          error
	VersionErr   error
	// Calls counts data reads; SnapshotVersion is not included
	Calls int
}

// NewMockTransactionRepository creates a new MockTransactionRepository
func NewMockTransactionRepository() *MockTransactionRepository {
	return &MockTransactionRepository{
		Transactions: make(map[string][]domain.Transaction),
		Cells:        make(map[string][]domain.CategoryMonthTotal),
		Versions:     make(map[string]int),
	}
}

// AddTransaction adds a transaction for an owner
func (m *MockTransactionRepository) AddTransaction(ownerID string, tx domain.Transaction) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Transactions[ownerID] = append(m.Transactions[ownerID], tx)
	m.Versions[ownerID]++
}

// AddCell adds a pre-aggregated total for an owner and type
func (m *MockTransactionRepository) AddCell(ownerID string, txType domain.TransactionType, cell domain.CategoryMonthTotal) {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := cellKey(ownerID, txType)
	m.Cells[key] = append(m.Cells[key], cell)
	m.Versions[ownerID]++
}

// GetByOwner returns the owner's transactions of one type
func (m *MockTransactionRepository) GetByOwner(ctx context.Context, ownerID string, txType domain.TransactionType) ([]domain.Transaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls++
	if m.Err != nil {
		return nil, m.Err
	}
	var result []domain.Transaction
	for _, tx := range m.Transactions[ownerID] {
		if tx.Type == txType {
			result = append(result, tx)
		}
	}
	return result, nil
}

// GetAllByOwner returns every transaction of the owner
func (m *MockTransactionRepository) GetAllByOwner(ctx context.Context, ownerID string) ([]domain.Transaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls++
	if m.Err != nil {
		return nil, m.Err
	}
	return append([]domain.Transaction(nil), m.Transactions[ownerID]...), nil
}

// SumByCategoryMonth returns the cells registered with AddCell
func (m *MockTransactionRepository) SumByCategoryMonth(ctx context.Context, ownerID string, txType domain.TransactionType) ([]domain.CategoryMonthTotal, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls++
	if m.Err != nil {
		return nil, m.Err
	}
	return append([]domain.CategoryMonthTotal(nil), m.Cells[cellKey(ownerID, txType)]...), nil
}

// SnapshotVersion returns a counter bumped by every AddTransaction and AddCell
func (m *MockTransactionRepository) SnapshotVersion(ctx context.Context, ownerID string, txType domain.TransactionType) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.VersionErr != nil {
		return "", m.VersionErr
	}
	return fmt.Sprintf("v%d", m.Versions[ownerID]), nil
}

func cellKey(ownerID string, txType domain.TransactionType) string {
	return fmt.Sprintf("%s:%s", ownerID, txType)
}

// MockBudgetRepository is a mock implementation of domain.BudgetRepository
type MockBudgetRepository struct {
	mu        sync.Mutex
	Budgets   map[string][]domain.Budget
	OwnerErrs map[string]error
	Err       error
}

// NewMockBudgetRepository creates a new MockBudgetRepository
func NewMockBudgetRepository() *MockBudgetRepository {
	return &MockBudgetRepository{
		Budgets:   make(map[string][]domain.Budget),
		OwnerErrs: make(map[string]error),
	}
}

// AddBudget adds a budget for an owner
func (m *MockBudgetRepository) AddBudget(ownerID string, b domain.Budget) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Budgets[ownerID] = append(m.Budgets[ownerID], b)
}

// SetBudgets replaces an owner's budgets
func (m *MockBudgetRepository) SetBudgets(ownerID string, budgets ...domain.Budget) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Budgets[ownerID] = budgets
}

// GetCurrentByOwner returns the owner's budgets
func (m *MockBudgetRepository) GetCurrentByOwner(ctx context.Context, ownerID string) ([]domain.Budget, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	if err := m.OwnerErrs[ownerID]; err != nil {
		return nil, err
	}
	return m.Budgets[ownerID], nil
}

// ListOwners returns every owner with budgets, sorted
func (m *MockBudgetRepository) ListOwners(ctx context.Context) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	owners := make([]string, 0, len(m.Budgets))
	for ownerID := range m.Budgets {
		owners = append(owners, ownerID)
	}
	sort.Strings(owners)
	return owners, nil
}

// MockReportCache is an in-memory domain.ReportCache
type MockReportCache struct {
	mu      sync.Mutex
	Reports map[string]*domain.Report
	GetErr  error
	SetErr  error
	Sets    int
}

// NewMockReportCache creates a new MockReportCache
func NewMockReportCache() *MockReportCache {
	return &MockReportCache{
		Reports: make(map[string]*domain.Report),
	}
}

// Get returns a stored report or domain.ErrCacheMiss
func (m *MockReportCache) Get(ctx context.Context, ownerID string, txType domain.TransactionType, version string) (*domain.Report, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.GetErr != nil {
		return nil, m.GetErr
	}
	if r, ok := m.Reports[cellKey(ownerID, txType)+":"+version]; ok {
		return r, nil
	}
	return nil, domain.ErrCacheMiss
}

// Set stores a report
func (m *MockReportCache) Set(ctx context.Context, ownerID, version string, report *domain.Report) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Sets++
	if m.SetErr != nil {
		return m.SetErr
	}
	m.Reports[cellKey(ownerID, report.Type)+":"+version] = report
	return nil
}

// MockReportStorage is an in-memory domain.ReportStorage
type MockReportStorage struct {
	Saved      map[string]*domain.Report
	SaveErr    error
	PresignErr error
	LastExpiry time.Duration
}

// NewMockReportStorage creates a new MockReportStorage
func NewMockReportStorage() *MockReportStorage {
	return &MockReportStorage{
		Saved: make(map[string]*domain.Report),
	}
}

// Save records the report under a deterministic path
func (m *MockReportStorage) Save(ctx context.Context, ownerID string, report *domain.Report) (string, error) {
	if m.SaveErr != nil {
		return "", m.SaveErr
	}
	objectPath := fmt.Sprintf("reports/%s/%s/%d.json", ownerID, report.Type, len(m.Saved))
	m.Saved[objectPath] = report
	return objectPath, nil
}

// PresignURL returns a fake URL for the object path
func (m *MockReportStorage) PresignURL(ctx context.Context, objectPath string, expiry time.Duration) (string, error) {
	if m.PresignErr != nil {
		return "", m.PresignErr
	}
	m.LastExpiry = expiry
	return "https://storage.test/" + objectPath + "?signed=1", nil
}

// MockAlertDispatcher records dispatched alerts
type MockAlertDispatcher struct {
	mu       sync.Mutex
	Alerts   []*domain.BudgetAlert
	OwnerIDs []string
	Resolved []string
	Err      error
}

// DispatchBudgetAlert records the alert and returns Err
func (m *MockAlertDispatcher) DispatchBudgetAlert(ctx context.Context, ownerID string, alert *domain.BudgetAlert) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.OwnerIDs = append(m.OwnerIDs, ownerID)
	m.Alerts = append(m.Alerts, alert)
	return m.Err
}

// ResolveBudgetAlert records the owner and returns Err
func (m *MockAlertDispatcher) ResolveBudgetAlert(ctx context.Context, ownerID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Resolved = append(m.Resolved, ownerID)
	return m.Err
}

// Dispatched returns how many alerts have been recorded
func (m *MockAlertDispatcher) Dispatched() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Alerts)
}
