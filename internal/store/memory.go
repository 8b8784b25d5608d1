package store

import (
	"context"
	"sync"

	"github.com/fieldelevate/risk-analyzer/pkg/models"
	"github.com/fieldelevate/risk-analyzer/pkg/utils/errors"
)

// MemoryStore is an in-memory Store, used when Redis is unavailable and
// in tests. Snapshots do not survive a restart.
type MemoryStore struct {
	mu       sync.RWMutex
	snapshot *models.PortfolioSnapshot
	reports  []*models.RiskReport
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// SaveSnapshot keeps the latest snapshot.
func (s *MemoryStore) SaveSnapshot(_ context.Context, snap *models.PortfolioSnapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snapshot = snap
	return nil
}

// LoadSnapshot returns the last saved snapshot.
func (s *MemoryStore) LoadSnapshot(_ context.Context) (*models.PortfolioSnapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.snapshot == nil {
		return nil, errors.NotFound("no portfolio snapshot")
	}
	return s.snapshot, nil
}

// SaveReport appends the report to the in-memory history.
func (s *MemoryStore) SaveReport(_ context.Context, report *models.RiskReport) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reports = append(s.reports, report)
	return nil
}

// Reports returns the stored reports, for tests.
func (s *MemoryStore) Reports() []*models.RiskReport {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.RiskReport, len(s.reports))
	copy(out, s.reports)
	return out
}
