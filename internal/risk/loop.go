package risk

import (
	"context"
	"time"

	"github.com/fieldelevate/risk-analyzer/pkg/models"
)

// persistTimeout bounds the publish-and-persist phase of a tick. It is
// deliberately separate from the tick timeout: a fetch phase that eats
// the whole tick budget must not starve snapshot persistence.
const persistTimeout = 10 * time.Second

// Start runs the periodic monitoring loop over the live portfolio until
// the context is canceled. The monitor is the sole writer of the
// portfolio while the loop runs; ticks that would overlap a still
// running tick are skipped. The portfolio argument is retained for the
// lifetime of the loop.
func (m *Monitor) Start(ctx context.Context, p *models.Portfolio) {
	go func() {
		ticker := time.NewTicker(m.interval)
		defer ticker.Stop()

		m.log.Infof("Risk monitoring started, interval %v", m.interval)
		for {
			select {
			case <-ctx.Done():
				m.log.Info("Risk monitoring stopped")
				return
			case <-ticker.C:
				if !m.tickGate.TryLock() {
					m.log.Warn("Previous tick still running, skipping this fire")
					continue
				}
				go func() {
					defer m.tickGate.Unlock()
					m.Tick(ctx, p)
				}()
			}
		}
	}()
}

// Tick refreshes every held position's price from the market data
// provider, recomputes portfolio metrics, checks risk limits, publishes
// an alert when violations are found, and persists the refreshed
// snapshot regardless of the violation outcome. The whole tick is
// bounded by the configured timeout; fetches that miss it are abandoned
// and the tick proceeds with partial data.
func (m *Monitor) Tick(ctx context.Context, p *models.Portfolio) {
	start := time.Now()
	tctx, cancel := context.WithTimeout(ctx, m.tickTimeout)
	defer cancel()

	symbols := p.Symbols()
	data := m.fetchMarketData(tctx, symbols)

	// Apply the fetched prices sequentially so no reader observes the
	// portfolio mid-update. Symbols that failed to fetch keep their
	// previous price.
	refreshed := 0
	for _, symbol := range symbols {
		md, ok := data[symbol]
		if !ok {
			continue
		}
		if price, ok := md.LatestClose(); ok {
			p.UpdatePosition(symbol, price)
			refreshed++
		}
	}
	if refreshed < len(symbols) {
		m.log.Warnf("Tick refreshed %d/%d positions, continuing with partial data", refreshed, len(symbols))
	}

	// tctx may already be spent when the fetches were slow; the
	// publish-and-persist phase runs on its own deadline.
	pctx, pcancel := context.WithTimeout(ctx, persistTimeout)
	defer pcancel()

	violations := m.CheckRiskLimits(p)
	if len(violations) > 0 {
		m.log.Warnf("Risk violations detected: %d", len(violations))
		m.recordAlert(violations)
		if err := m.publisher.PublishViolations(pctx, violations); err != nil {
			m.log.Errorf("Failed to publish violations: %v", err)
		}
	} else {
		m.deactivateAlerts()
	}

	if err := m.store.SaveSnapshot(pctx, p.Snapshot()); err != nil {
		m.log.Errorf("Failed to persist portfolio snapshot: %v", err)
	}

	if m.recorder != nil {
		m.recorder.RecordTick(time.Since(start), len(violations), p.TotalValue())
	}
}
