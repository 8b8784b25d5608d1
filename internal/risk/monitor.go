package risk

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/fieldelevate/risk-analyzer/config"
	"github.com/fieldelevate/risk-analyzer/pkg/metrics"
	"github.com/fieldelevate/risk-analyzer/pkg/models"
	"github.com/fieldelevate/risk-analyzer/pkg/utils/logger"
)

// MarketDataProvider supplies price history for a symbol. A nil result
// or an error means the symbol is skipped by the caller, never failed.
type MarketDataProvider interface {
	GetMarketData(ctx context.Context, symbol string) (*models.MarketData, error)
}

// SnapshotStore persists portfolio snapshots after ticks and explicit
// updates.
type SnapshotStore interface {
	SaveSnapshot(ctx context.Context, snap *models.PortfolioSnapshot) error
}

// AlertPublisher broadcasts newly detected violations to external
// subscribers.
type AlertPublisher interface {
	PublishViolations(ctx context.Context, violations []models.Violation) error
}

// MonitorConfig configures a Monitor.
type MonitorConfig struct {
	Limits       config.RiskLimits
	Scenarios    []models.StressScenario
	Interval     time.Duration
	TickTimeout  time.Duration
	FetchWorkers int
}

// Monitor orchestrates the risk calculator over live and simulated
// portfolios: it enforces configured limits, evaluates hypothetical
// trades against an isolated clone, produces risk reports, and runs the
// periodic monitoring loop. Limit violations are computed results, not
// errors; integration failures are logged and degrade ticks to partial
// results instead of aborting them.
type Monitor struct {
	calc      *Calculator
	limits    config.RiskLimits
	scenarios []models.StressScenario
	provider  MarketDataProvider
	store     SnapshotStore
	publisher AlertPublisher
	recorder  *metrics.Recorder

	interval     time.Duration
	tickTimeout  time.Duration
	fetchWorkers int

	// tickGate enforces non-overlapping ticks: a fire while the
	// previous tick is running is skipped, not queued.
	tickGate sync.Mutex

	alertMu     sync.Mutex
	alerts      []models.Alert
	nextAlertID int64

	log *logger.Logger
}

// NewMonitor creates a risk monitor. The recorder may be nil when
// metrics are disabled.
func NewMonitor(cfg MonitorConfig, calc *Calculator, provider MarketDataProvider, store SnapshotStore, publisher AlertPublisher, recorder *metrics.Recorder) *Monitor {
	if cfg.Interval <= 0 {
		cfg.Interval = 60 * time.Second
	}
	if cfg.TickTimeout <= 0 || cfg.TickTimeout > cfg.Interval {
		cfg.TickTimeout = cfg.Interval
	}
	if cfg.FetchWorkers <= 0 {
		cfg.FetchWorkers = 4
	}
	return &Monitor{
		calc:         calc,
		limits:       cfg.Limits,
		scenarios:    cfg.Scenarios,
		provider:     provider,
		store:        store,
		publisher:    publisher,
		recorder:     recorder,
		interval:     cfg.Interval,
		tickTimeout:  cfg.TickTimeout,
		fetchWorkers: cfg.FetchWorkers,
		log:          logger.GetLogger("risk.monitor"),
	}
}

// Limits returns the configured risk limits.
func (m *Monitor) Limits() config.RiskLimits {
	return m.limits
}

// Scenarios returns the configured stress scenarios.
func (m *Monitor) Scenarios() []models.StressScenario {
	return m.scenarios
}

// CheckRiskLimits evaluates every limit independently and returns the
// full violation set: position size per position, aggregate sector
// exposure per sector, and the cash reserve floor. A limit triggers
// only when the observed value is strictly beyond it.
func (m *Monitor) CheckRiskLimits(p *models.Portfolio) []models.Violation {
	violations := make([]models.Violation, 0)

	for _, pos := range p.Positions() {
		if pos.Weight > m.limits.MaxPositionSize {
			violations = append(violations, models.Violation{
				Type:     models.ViolationPositionSize,
				Severity: models.SeverityHigh,
				Symbol:   pos.Symbol,
				Message: fmt.Sprintf("Position %s exceeds max size: %.2f%% > %.0f%%",
					pos.Symbol, pos.Weight*100, m.limits.MaxPositionSize*100),
				CurrentValue: pos.Weight,
				Limit:        m.limits.MaxPositionSize,
			})
		}
	}

	exposure := p.SectorExposure()
	sectors := make([]string, 0, len(exposure))
	for sector := range exposure {
		sectors = append(sectors, sector)
	}
	sort.Strings(sectors)
	for _, sector := range sectors {
		if exposure[sector] > m.limits.MaxSectorExposure {
			violations = append(violations, models.Violation{
				Type:     models.ViolationSectorExposure,
				Severity: models.SeverityMedium,
				Sector:   sector,
				Message: fmt.Sprintf("Sector %s exceeds max exposure: %.2f%% > %.0f%%",
					sector, exposure[sector]*100, m.limits.MaxSectorExposure*100),
				CurrentValue: exposure[sector],
				Limit:        m.limits.MaxSectorExposure,
			})
		}
	}

	if totalValue := p.TotalValue(); totalValue > 0 {
		cashPct := p.Cash() / totalValue
		if cashPct < m.limits.MinCashReserve {
			violations = append(violations, models.Violation{
				Type:     models.ViolationLowCash,
				Severity: models.SeverityMedium,
				Message: fmt.Sprintf("Cash reserves below minimum: %.2f%% < %.0f%%",
					cashPct*100, m.limits.MinCashReserve*100),
				CurrentValue: cashPct,
				Limit:        m.limits.MinCashReserve,
			})
		}
	}

	return violations
}

// EvaluateNewTrade simulates a proposed trade on an independent clone
// of the portfolio and checks the result against the configured limits.
// The portfolio passed in is never mutated, so evaluations can run
// concurrently with the monitoring loop.
func (m *Monitor) EvaluateNewTrade(ctx context.Context, trade models.Trade, p *models.Portfolio) (*models.TradeEvaluation, error) {
	if err := trade.Validate(); err != nil {
		return nil, err
	}

	sim := p.Clone()
	if err := m.applyTrade(sim, trade); err != nil {
		return nil, err
	}

	violations := m.CheckRiskLimits(sim)

	data := m.fetchMarketData(ctx, sim.Symbols())
	portfolioRisk := m.calc.PortfolioRisk(sim, data, m.limits.VaRConfidence)
	acceptable := m.isRiskAcceptable(portfolioRisk)

	riskMetrics := models.TradeRiskMetrics{
		PortfolioVolatility: portfolioRisk.Volatility,
		VaR95:               portfolioRisk.VaR95,
		MaxDrawdown:         portfolioRisk.MaxDrawdown,
		Acceptable:          acceptable,
	}
	if md, ok := data[trade.Symbol]; ok {
		if vol, ok := m.calc.Volatility(md.Bars); ok {
			riskMetrics.PositionVolatility = models.Float64Ptr(vol)
		}
	}

	return &models.TradeEvaluation{
		Approved:             len(violations) == 0 && acceptable,
		Violations:           violations,
		RiskMetrics:          riskMetrics,
		SuggestedAdjustments: m.suggestAdjustments(trade, p, violations, portfolioRisk),
	}, nil
}

// applyTrade mutates the simulated portfolio. BUY opens or augments a
// position; SELL reduces one, capping at the held quantity.
func (m *Monitor) applyTrade(sim *models.Portfolio, trade models.Trade) error {
	switch trade.Action {
	case models.TradeActionBuy:
		if _, held := sim.GetPosition(trade.Symbol); held {
			return sim.IncreasePosition(trade.Symbol, trade.Quantity, trade.Price)
		}
		return sim.AddPosition(trade.Symbol, trade.Quantity, trade.Price, trade.Sector)
	case models.TradeActionSell:
		if closed := sim.ReducePosition(trade.Symbol, trade.Quantity); closed < trade.Quantity {
			m.log.Debugf("Sell of %s capped at held quantity %v (requested %v)",
				trade.Symbol, closed, trade.Quantity)
		}
		return nil
	}
	return nil
}

func (m *Monitor) isRiskAcceptable(r *models.PortfolioRisk) bool {
	return r.Volatility <= m.limits.MaxVolatility &&
		r.MaxDrawdown <= m.limits.MaxDrawdown &&
		r.VaR95 <= m.limits.MaxDrawdown*r.PortfolioValue
}

// suggestAdjustments proposes reduced trade quantities when the request
// breaches a limit. The position-size suggestion solves for the largest
// quantity whose post-trade weight stays at the limit, then shaves 5%
// as buffer.
func (m *Monitor) suggestAdjustments(trade models.Trade, p *models.Portfolio, violations []models.Violation, portfolioRisk *models.PortfolioRisk) []models.Adjustment {
	suggestions := make([]models.Adjustment, 0)
	if trade.Action != models.TradeActionBuy || trade.Price <= 0 {
		return suggestions
	}

	for _, v := range violations {
		if v.Type == models.ViolationPositionSize && v.Symbol == trade.Symbol {
			if qty := m.maxBuyQuantity(trade, p); qty < trade.Quantity {
				suggestions = append(suggestions, models.Adjustment{
					Type:              models.AdjustmentReduceQuantity,
					SuggestedQuantity: math.Floor(qty * 0.95),
					Reason:            "Position size limit",
				})
			}
			break
		}
	}

	if portfolioRisk.Volatility > m.limits.MaxVolatility {
		factor := m.limits.MaxVolatility / portfolioRisk.Volatility
		suggestions = append(suggestions, models.Adjustment{
			Type:              models.AdjustmentReduceQuantity,
			SuggestedQuantity: math.Floor(trade.Quantity * factor),
			Reason:            "Portfolio volatility limit",
		})
	}

	return suggestions
}

// maxBuyQuantity solves (held + q)*price <= limit * (total + q*price)
// for q, where held and total are re-marked at the trade price.
func (m *Monitor) maxBuyQuantity(trade models.Trade, p *models.Portfolio) float64 {
	limit := m.limits.MaxPositionSize
	if limit >= 1 {
		return trade.Quantity
	}

	heldValue := 0.0
	total := p.TotalValue()
	if pos, held := p.GetPosition(trade.Symbol); held {
		remarked := pos.Quantity * trade.Price
		total += remarked - pos.Value
		heldValue = remarked
	}

	qty := (limit*total - heldValue) / ((1 - limit) * trade.Price)
	if qty < 0 {
		return 0
	}
	return qty
}

// PortfolioRisk fetches market data for every held symbol and computes
// the portfolio-level risk figures.
func (m *Monitor) PortfolioRisk(ctx context.Context, p *models.Portfolio) *models.PortfolioRisk {
	data := m.fetchMarketData(ctx, p.Symbols())
	return m.calc.PortfolioRisk(p, data, m.limits.VaRConfidence)
}

// GenerateRiskReport assembles the full risk assessment: portfolio
// metrics, limit violations, every configured stress scenario,
// prioritized recommendations, and a 0-100 risk score.
func (m *Monitor) GenerateRiskReport(ctx context.Context, p *models.Portfolio) *models.RiskReport {
	data := m.fetchMarketData(ctx, p.Symbols())
	portfolioRisk := m.calc.PortfolioRisk(p, data, m.limits.VaRConfidence)
	violations := m.CheckRiskLimits(p)

	stressTests := make([]models.StressResult, 0, len(m.scenarios))
	for _, scenario := range m.scenarios {
		stressTests = append(stressTests, m.calc.StressTest(p, scenario, m.limits.MaxDrawdown))
	}

	report := &models.RiskReport{
		Timestamp:       time.Now(),
		Portfolio:       p.Snapshot(),
		RiskMetrics:     portfolioRisk,
		Violations:      violations,
		StressTests:     stressTests,
		Recommendations: m.recommendations(portfolioRisk, violations),
		RiskScore:       m.riskScore(portfolioRisk, violations),
	}

	if m.recorder != nil {
		m.recorder.RecordRiskReport(report.RiskScore, portfolioRisk.VaR95, portfolioRisk.Volatility, len(violations))
	}
	return report
}

func (m *Monitor) recommendations(r *models.PortfolioRisk, violations []models.Violation) []models.Recommendation {
	recommendations := make([]models.Recommendation, 0)

	if len(violations) > 0 {
		recommendations = append(recommendations, models.Recommendation{
			Priority: models.SeverityHigh,
			Action:   "REBALANCE",
			Message:  "Portfolio has risk limit violations that need immediate attention",
		})
	}

	if r.Volatility > m.limits.MaxVolatility*0.8 {
		recommendations = append(recommendations, models.Recommendation{
			Priority: models.SeverityMedium,
			Action:   "REDUCE_RISK",
			Message:  "Portfolio volatility approaching limit, consider reducing exposure",
		})
	}

	if r.DiversificationRatio != nil && *r.DiversificationRatio < 1.2 {
		recommendations = append(recommendations, models.Recommendation{
			Priority: models.SeverityLow,
			Action:   "DIVERSIFY",
			Message:  "Low diversification ratio, consider adding uncorrelated assets",
		})
	}

	return recommendations
}

// riskScore starts at 100 and deducts for violations (an extra 10 for
// HIGH severity), for volatility beyond half its limit (up to 50), and
// for a Sharpe ratio short of 1.0. Clamped to [0, 100].
func (m *Monitor) riskScore(r *models.PortfolioRisk, violations []models.Violation) float64 {
	score := 100.0

	score -= float64(len(violations)) * 10
	for _, v := range violations {
		if v.Severity == models.SeverityHigh {
			score -= 10
		}
	}

	if m.limits.MaxVolatility > 0 {
		volRatio := r.Volatility / m.limits.MaxVolatility
		if volRatio > 0.5 {
			score -= math.Min(50, (volRatio-0.5)*50)
		}
	}

	if r.SharpeRatio != nil && *r.SharpeRatio < 1 {
		score -= (1 - *r.SharpeRatio) * 20
	}

	return math.Max(0, math.Min(100, score))
}

// fetchMarketData fetches price history for the given symbols with
// bounded concurrency. Failed symbols are logged and omitted from the
// result; callers continue with whatever data is available.
func (m *Monitor) fetchMarketData(ctx context.Context, symbols []string) map[string]*models.MarketData {
	data := make(map[string]*models.MarketData, len(symbols))
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(m.fetchWorkers)
	for _, symbol := range symbols {
		g.Go(func() error {
			md, err := m.provider.GetMarketData(gctx, symbol)
			if m.recorder != nil {
				m.recorder.RecordMarketDataFetch(symbol, err == nil)
			}
			if err != nil {
				m.log.Warnf("Failed to fetch market data for %s: %v", symbol, err)
				return nil
			}
			if md == nil || len(md.Bars) == 0 {
				m.log.Warnf("No market data available for %s", symbol)
				return nil
			}
			mu.Lock()
			data[symbol] = md
			mu.Unlock()
			return nil
		})
	}
	g.Wait()

	return data
}

// recordAlert appends a new entry to the alert log and deactivates all
// previous entries. The log is append-only; entries are never removed.
func (m *Monitor) recordAlert(violations []models.Violation) models.Alert {
	m.alertMu.Lock()
	defer m.alertMu.Unlock()

	for i := range m.alerts {
		m.alerts[i].Active = false
	}
	m.nextAlertID++
	alert := models.Alert{
		ID:         m.nextAlertID,
		Timestamp:  time.Now(),
		Violations: violations,
		Active:     true,
	}
	m.alerts = append(m.alerts, alert)
	return alert
}

// deactivateAlerts marks every log entry inactive, used when a tick
// finds no violations.
func (m *Monitor) deactivateAlerts() {
	m.alertMu.Lock()
	defer m.alertMu.Unlock()
	for i := range m.alerts {
		m.alerts[i].Active = false
	}
}

// ActiveAlerts returns the currently active entries of the alert log.
func (m *Monitor) ActiveAlerts() []models.Alert {
	m.alertMu.Lock()
	defer m.alertMu.Unlock()

	active := make([]models.Alert, 0)
	for _, a := range m.alerts {
		if a.Active {
			active = append(active, a)
		}
	}
	return active
}
