package models

import "time"

// ViolationType identifies which configured limit was breached.
type ViolationType string

const (
	ViolationPositionSize   ViolationType = "POSITION_SIZE"
	ViolationSectorExposure ViolationType = "SECTOR_EXPOSURE"
	ViolationLowCash        ViolationType = "LOW_CASH"
)

// Severity ranks violations and recommendations.
type Severity string

const (
	SeverityHigh   Severity = "HIGH"
	SeverityMedium Severity = "MEDIUM"
	SeverityLow    Severity = "LOW"
)

// Violation is a single breached risk limit. Violations are computed
// results, not errors: every check returns the full set fresh.
type Violation struct {
	Type         ViolationType `json:"type"`
	Severity     Severity      `json:"severity"`
	Symbol       string        `json:"symbol,omitempty"`
	Sector       string        `json:"sector,omitempty"`
	Message      string        `json:"message"`
	CurrentValue float64       `json:"currentValue"`
	Limit        float64       `json:"limit"`
}

// StressScenario is a named hypothetical shock applied to current
// prices. MarketDrop and SectorDrops are signed fractions (-0.20 for a
// 20% drop); VolatilitySpike scales a bounded random price
// perturbation; LiquidityDiscount is a haircut on stressed value.
type StressScenario struct {
	Name              string             `json:"name" mapstructure:"name"`
	MarketDrop        float64            `json:"marketDrop,omitempty" mapstructure:"market_drop"`
	SectorDrops       map[string]float64 `json:"sectorDrops,omitempty" mapstructure:"sector_drops"`
	VolatilitySpike   float64            `json:"volatilitySpike,omitempty" mapstructure:"volatility_spike"`
	LiquidityDiscount float64            `json:"liquidityDiscount,omitempty" mapstructure:"liquidity_discount"`
	SpreadWidening    float64            `json:"spreadWidening,omitempty" mapstructure:"spread_widening"`
}

// PositionStress is the impact of a stress scenario on one position.
type PositionStress struct {
	Symbol        string  `json:"symbol"`
	OriginalValue float64 `json:"originalValue"`
	StressedValue float64 `json:"stressedValue"`
	Loss          float64 `json:"loss"`
	LossPercent   float64 `json:"lossPercent"`
}

// StressResult is the outcome of applying one scenario to a portfolio.
// Survivable means the total loss stays inside the drawdown limit.
type StressResult struct {
	Scenario    string           `json:"scenario"`
	Results     []PositionStress `json:"results"`
	TotalLoss   float64          `json:"totalLoss"`
	LossPercent float64          `json:"lossPercent"`
	Survivable  bool             `json:"survivable"`
}

// PositionRisk holds per-position risk statistics. Beta and SharpeRatio
// are nil when the underlying data is insufficient to compute them.
type PositionRisk struct {
	Symbol       string   `json:"symbol"`
	Weight       float64  `json:"weight"`
	Volatility   float64  `json:"volatility"`
	Beta         *float64 `json:"beta,omitempty"`
	SharpeRatio  *float64 `json:"sharpeRatio,omitempty"`
	DollarRisk   float64  `json:"dollarRisk"`
	PercentRisk  float64  `json:"percentRisk"`
	DownsideRisk float64  `json:"downsideRisk"`
	MaxDrawdown  float64  `json:"maxDrawdown"`
}

// PortfolioRisk aggregates position-level statistics into
// portfolio-level figures. Cross-correlation is deliberately ignored:
// portfolio volatility is sqrt(sum of weight^2 * vol^2). Positions
// without market data are excluded from every aggregate.
type PortfolioRisk struct {
	PortfolioValue       float64        `json:"portfolioValue"`
	Volatility           float64        `json:"portfolioVolatility"`
	VaR95                float64        `json:"var95"`
	MaxDrawdown          float64        `json:"maxDrawdown"`
	SharpeRatio          *float64       `json:"sharpeRatio,omitempty"`
	Beta                 *float64       `json:"beta,omitempty"`
	DiversificationRatio *float64       `json:"diversificationRatio,omitempty"`
	PositionRisks        []PositionRisk `json:"positionRisks"`
}

// AdjustmentType identifies a suggested trade adjustment.
type AdjustmentType string

const (
	AdjustmentReduceQuantity AdjustmentType = "REDUCE_QUANTITY"
)

// Adjustment is a suggested modification to a rejected trade.
type Adjustment struct {
	Type              AdjustmentType `json:"type"`
	SuggestedQuantity float64        `json:"suggestedQuantity"`
	Reason            string         `json:"reason"`
}

// TradeRiskMetrics summarizes the risk of a simulated post-trade
// portfolio. PositionVolatility is nil when the traded symbol has no
// usable price history.
type TradeRiskMetrics struct {
	PositionVolatility  *float64 `json:"positionVolatility,omitempty"`
	PortfolioVolatility float64  `json:"portfolioVolatility"`
	VaR95               float64  `json:"var95"`
	MaxDrawdown         float64  `json:"maxDrawdown"`
	Acceptable          bool     `json:"acceptable"`
}

// TradeEvaluation is the result of simulating a proposed trade.
type TradeEvaluation struct {
	Approved             bool             `json:"approved"`
	Violations           []Violation      `json:"violations"`
	RiskMetrics          TradeRiskMetrics `json:"riskMetrics"`
	SuggestedAdjustments []Adjustment     `json:"suggestedAdjustments"`
}

// Recommendation is a prioritized action derived from a risk report.
type Recommendation struct {
	Priority Severity `json:"priority"`
	Action   string   `json:"action"`
	Message  string   `json:"message"`
}

// RiskReport is the full portfolio risk assessment.
type RiskReport struct {
	Timestamp       time.Time          `json:"timestamp"`
	Portfolio       *PortfolioSnapshot `json:"portfolio"`
	RiskMetrics     *PortfolioRisk     `json:"riskMetrics"`
	Violations      []Violation        `json:"violations"`
	StressTests     []StressResult     `json:"stressTests"`
	Recommendations []Recommendation   `json:"recommendations"`
	RiskScore       float64            `json:"riskScore"`
}

// Alert is an entry in the monitor's append-only alert log.
type Alert struct {
	ID         int64       `json:"id"`
	Timestamp  time.Time   `json:"timestamp"`
	Violations []Violation `json:"violations"`
	Active     bool        `json:"active"`
}

// Float64Ptr returns a pointer to v, for optional metric fields.
func Float64Ptr(v float64) *float64 {
	return &v
}
