package store

import (
	"context"
	stderrors "errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fieldelevate/risk-analyzer/pkg/models"
	"github.com/fieldelevate/risk-analyzer/pkg/utils/errors"
)

func TestMemoryStoreSnapshot(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	_, err := s.LoadSnapshot(ctx)
	require.Error(t, err)
	assert.True(t, stderrors.Is(err, errors.ErrNotFound))

	snap := &models.PortfolioSnapshot{Cash: 100000, TotalValue: 100000}
	require.NoError(t, s.SaveSnapshot(ctx, snap))

	loaded, err := s.LoadSnapshot(ctx)
	require.NoError(t, err)
	assert.Equal(t, snap, loaded)

	// A second save replaces the first.
	require.NoError(t, s.SaveSnapshot(ctx, &models.PortfolioSnapshot{Cash: 50000}))
	loaded, err = s.LoadSnapshot(ctx)
	require.NoError(t, err)
	assert.Equal(t, 50000.0, loaded.Cash)
}

func TestMemoryStoreReports(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	require.NoError(t, s.SaveReport(ctx, &models.RiskReport{RiskScore: 90}))
	require.NoError(t, s.SaveReport(ctx, &models.RiskReport{RiskScore: 75}))

	reports := s.Reports()
	require.Len(t, reports, 2)
	assert.Equal(t, 90.0, reports[0].RiskScore)
	assert.Equal(t, 75.0, reports[1].RiskScore)
}
