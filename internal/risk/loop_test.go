package risk

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fieldelevate/risk-analyzer/pkg/models"
)

// blockingProvider parks every fetch until released, holding the tick
// it serves open across ticker fires.
type blockingProvider struct {
	mu      sync.Mutex
	calls   int
	release chan struct{}
}

func (b *blockingProvider) GetMarketData(_ context.Context, symbol string) (*models.MarketData, error) {
	b.mu.Lock()
	b.calls++
	b.mu.Unlock()
	<-b.release
	return &models.MarketData{Symbol: symbol, Bars: barsFromCloses(110)}, nil
}

func (b *blockingProvider) callCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.calls
}

// stalledProvider never answers; it only returns once the fetch
// context is canceled.
type stalledProvider struct{}

func (stalledProvider) GetMarketData(ctx context.Context, _ string) (*models.MarketData, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

func TestTickRefreshesPricesAndPublishes(t *testing.T) {
	provider := &stubProvider{data: map[string]*models.MarketData{
		"AAPL": {Symbol: "AAPL", Bars: barsFromCloses(110, 108, 112)},
	}}
	m, store, publisher := newTestMonitor(testLimits(), provider)

	p := models.NewPortfolio(100000)
	require.NoError(t, p.AddPosition("AAPL", 1000, 150, "tech"))

	m.Tick(context.Background(), p)

	pos, _ := p.GetPosition("AAPL")
	assert.Equal(t, 110.0, pos.CurrentPrice, "tick marks positions to the latest close")

	assert.Equal(t, 1, publisher.count(), "oversized position publishes an alert")
	require.Len(t, m.ActiveAlerts(), 1)

	snapshots := store.saved()
	require.Len(t, snapshots, 1)
	assert.Equal(t, p.TotalValue(), snapshots[0].TotalValue)
}

func TestTickContinuesOnFailedFetch(t *testing.T) {
	provider := &stubProvider{data: map[string]*models.MarketData{
		"AAPL": {Symbol: "AAPL", Bars: barsFromCloses(110)},
	}}
	m, store, _ := newTestMonitor(testLimits(), provider)

	p := models.NewPortfolio(1000000)
	require.NoError(t, p.AddPosition("AAPL", 100, 100, "tech"))
	require.NoError(t, p.AddPosition("XYZ", 100, 50, "tech"))

	m.Tick(context.Background(), p)

	aapl, _ := p.GetPosition("AAPL")
	assert.Equal(t, 110.0, aapl.CurrentPrice)

	// The failed symbol keeps its previous mark; the tick still
	// completes and persists.
	xyz, _ := p.GetPosition("XYZ")
	assert.Equal(t, 50.0, xyz.CurrentPrice)
	assert.Len(t, store.saved(), 1)
}

func TestTickDeactivatesResolvedAlerts(t *testing.T) {
	m, store, publisher := newTestMonitor(testLimits(), nil)

	p := models.NewPortfolio(100000)
	require.NoError(t, p.AddPosition("AAPL", 1000, 150, "tech"))

	m.Tick(context.Background(), p)
	require.Len(t, m.ActiveAlerts(), 1)
	require.Equal(t, 1, publisher.count())

	// The violation clears; the next tick retires the alert without
	// publishing again.
	p.Clear(100000)
	m.Tick(context.Background(), p)

	assert.Empty(t, m.ActiveAlerts())
	assert.Equal(t, 1, publisher.count())
	assert.Len(t, store.saved(), 2)
}

func TestStartSkipsOverlappingTicks(t *testing.T) {
	provider := &blockingProvider{release: make(chan struct{})}
	store := &stubStore{}
	publisher := &stubPublisher{}
	m := NewMonitor(MonitorConfig{
		Limits:   testLimits(),
		Interval: 20 * time.Millisecond,
	}, newTestCalculator(), provider, store, publisher, nil)

	p := models.NewPortfolio(90000)
	require.NoError(t, p.AddPosition("AAPL", 100, 100, "tech"))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	m.Start(ctx, p)

	require.Eventually(t, func() bool { return provider.callCount() == 1 },
		time.Second, 5*time.Millisecond, "first tick fires and blocks in its fetch")

	// Several more intervals elapse while the first tick holds the
	// gate. Those fires are skipped, not queued: the provider never
	// sees a second call.
	time.Sleep(100 * time.Millisecond)
	assert.Equal(t, 1, provider.callCount())
	assert.Empty(t, store.saved(), "the blocked tick has not completed")

	close(provider.release)
	require.Eventually(t, func() bool { return len(store.saved()) >= 1 },
		time.Second, 5*time.Millisecond, "the released tick runs to completion")

	pos, _ := p.GetPosition("AAPL")
	assert.Equal(t, 110.0, pos.CurrentPrice)
}

func TestTickDeadlineAbandonsSlowFetch(t *testing.T) {
	store := &stubStore{}
	publisher := &stubPublisher{}
	m := NewMonitor(MonitorConfig{
		Limits:      testLimits(),
		Interval:    time.Minute,
		TickTimeout: 20 * time.Millisecond,
	}, newTestCalculator(), stalledProvider{}, store, publisher, nil)

	p := models.NewPortfolio(90000)
	require.NoError(t, p.AddPosition("AAPL", 100, 100, "tech"))

	// The provider only returns once its context is canceled, so the
	// tick finishing at all proves the tick deadline fired.
	start := time.Now()
	m.Tick(context.Background(), p)
	assert.Less(t, time.Since(start), 5*time.Second)

	// The abandoned fetch degrades the tick, it does not abort it:
	// the price keeps its previous mark and the snapshot still lands
	// on its own deadline.
	pos, _ := p.GetPosition("AAPL")
	assert.Equal(t, 100.0, pos.CurrentPrice)
	require.Len(t, store.saved(), 1)
	assert.Equal(t, p.TotalValue(), store.saved()[0].TotalValue)
}

func TestTickEmptyPortfolio(t *testing.T) {
	m, store, publisher := newTestMonitor(testLimits(), nil)

	m.Tick(context.Background(), models.NewPortfolio(100000))

	assert.Equal(t, 0, publisher.count())
	assert.Len(t, store.saved(), 1)
}
