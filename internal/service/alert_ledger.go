package service

import (
	"context"
	"slices"
	"strings"
	"sync"

	"github.com/dafibh/fortuna/fortuna-analytics/internal/domain"
)

// alertFingerprint identifies an alert by its category set, ignoring order
func alertFingerprint(alert *domain.BudgetAlert) string {
	categories := slices.Clone(alert.Categories)
	slices.Sort(categories)
	return strings.Join(categories, "\x1f")
}

type ledgerEntry struct {
	month       string
	fingerprint string
}

// MemoryAlertLedger is a process-local AlertLedger holding one entry per
// owner. Recording a new month replaces the previous month's entry.
type MemoryAlertLedger struct {
	mu      sync.Mutex
	entries map[string]ledgerEntry
}

var _ domain.AlertLedger = (*MemoryAlertLedger)(nil)

// NewMemoryAlertLedger creates an empty MemoryAlertLedger
func NewMemoryAlertLedger() *MemoryAlertLedger {
	return &MemoryAlertLedger{entries: make(map[string]ledgerEntry)}
}

// Record implements domain.AlertLedger
func (l *MemoryAlertLedger) Record(ctx context.Context, ownerID, month, fingerprint string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	next := ledgerEntry{month: month, fingerprint: fingerprint}
	if prev, ok := l.entries[ownerID]; ok && prev == next {
		return false, nil
	}
	l.entries[ownerID] = next
	return true, nil
}

// Clear implements domain.AlertLedger
func (l *MemoryAlertLedger) Clear(ctx context.Context, ownerID, month string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	prev, ok := l.entries[ownerID]
	if !ok {
		return false, nil
	}
	delete(l.entries, ownerID)
	return prev.month == month, nil
}
