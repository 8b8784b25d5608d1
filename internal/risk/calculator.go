package risk

import (
	"math"
	"math/rand"
	"sync"
	"time"

	"gonum.org/v1/gonum/stat"

	"github.com/fieldelevate/risk-analyzer/pkg/models"
	"github.com/fieldelevate/risk-analyzer/pkg/utils/logger"
)

// TradingDays is the annualization convention for daily returns.
const TradingDays = 252

// zScores maps supported VaR confidence levels to normal-distribution
// quantiles.
var zScores = map[float64]float64{
	0.90: 1.282,
	0.95: 1.645,
	0.99: 2.326,
}

// fallbackZScore is used for unrecognized confidence levels (the 95%
// quantile). The substitution is logged so misconfiguration is visible.
const fallbackZScore = 1.645

// CalculatorConfig configures a Calculator.
type CalculatorConfig struct {
	// RiskFreeRate is the annualized risk-free rate used in Sharpe
	// ratios. Defaults to 2%.
	RiskFreeRate float64
	// Rand is the randomness source for stress-test perturbations.
	// Tests supply a seeded source; production can leave it nil for a
	// time-seeded one.
	Rand *rand.Rand
}

// Calculator computes risk statistics over price-bar series and
// portfolios. All methods are pure except StressTest, which draws from
// the injected randomness source. Statistical methods report
// insufficient data through their boolean result, never through errors
// or NaN.
//
// Bar series are chronological-descending (most recent first); return
// calculations consume adjacent bars in that order throughout.
type Calculator struct {
	riskFreeRate float64

	rngMu sync.Mutex
	rng   *rand.Rand

	log *logger.Logger
}

// NewCalculator creates a risk calculator.
func NewCalculator(cfg CalculatorConfig) *Calculator {
	if cfg.RiskFreeRate == 0 {
		cfg.RiskFreeRate = 0.02
	}
	if cfg.Rand == nil {
		cfg.Rand = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Calculator{
		riskFreeRate: cfg.RiskFreeRate,
		rng:          cfg.Rand,
		log:          logger.GetLogger("risk.calculator"),
	}
}

// Returns produces n-1 simple returns from adjacent closes. Fewer than
// two bars yield an empty slice, not an error.
func (c *Calculator) Returns(bars []models.Bar) []float64 {
	if len(bars) < 2 {
		return []float64{}
	}
	returns := make([]float64, 0, len(bars)-1)
	for i := 1; i < len(bars); i++ {
		prev := bars[i-1].Close
		if prev == 0 {
			returns = append(returns, 0)
			continue
		}
		returns = append(returns, (bars[i].Close-prev)/prev)
	}
	return returns
}

// Volatility is the annualized sample standard deviation of returns.
// Not computable with fewer than two returns.
func (c *Calculator) Volatility(bars []models.Bar) (float64, bool) {
	return volatilityFromReturns(c.Returns(bars))
}

func volatilityFromReturns(returns []float64) (float64, bool) {
	if len(returns) < 2 {
		return 0, false
	}
	return stat.StdDev(returns, nil) * math.Sqrt(TradingDays), true
}

// Beta is covariance(asset, market) / variance(market), computed over
// the overlapping prefix of the two return series.
func (c *Calculator) Beta(assetBars, marketBars []models.Bar) (float64, bool) {
	assetReturns := c.Returns(assetBars)
	marketReturns := c.Returns(marketBars)

	n := len(assetReturns)
	if len(marketReturns) < n {
		n = len(marketReturns)
	}
	if n < 2 {
		return 0, false
	}

	cov := stat.Covariance(assetReturns[:n], marketReturns[:n], nil)
	marketVariance := stat.Variance(marketReturns[:n], nil)
	if marketVariance == 0 {
		return 0, false
	}
	return cov / marketVariance, true
}

// Sharpe is the annualized excess return over the risk-free rate
// divided by annualized volatility. Undefined when volatility is zero.
func (c *Calculator) Sharpe(bars []models.Bar) (float64, bool) {
	return c.sharpeFromReturns(c.Returns(bars))
}

func (c *Calculator) sharpeFromReturns(returns []float64) (float64, bool) {
	vol, ok := volatilityFromReturns(returns)
	if !ok || vol == 0 {
		return 0, false
	}
	annualizedReturn := stat.Mean(returns, nil) * TradingDays
	return (annualizedReturn - c.riskFreeRate) / vol, true
}

// ValueAtRisk is parametric VaR: portfolio value times daily volatility
// times the z-score for the confidence level. Unrecognized confidence
// levels fall back to the 95% z-score.
func (c *Calculator) ValueAtRisk(portfolioValue, volatility, confidence float64) float64 {
	z, ok := zScores[confidence]
	if !ok {
		c.log.Warnf("Unknown VaR confidence level %v, falling back to 95%% z-score", confidence)
		z = fallbackZScore
	}
	dailyVolatility := volatility / math.Sqrt(TradingDays)
	return portfolioValue * dailyVolatility * z
}

// MaxDrawdown simulates a unit-starting equity curve over the return
// sequence and reports the worst peak-to-trough decline in [0, 1].
func (c *Calculator) MaxDrawdown(returns []float64) float64 {
	peak := 1.0
	value := 1.0
	maxDrawdown := 0.0
	for _, r := range returns {
		value *= 1 + r
		if value > peak {
			peak = value
		}
		if drawdown := (peak - value) / peak; drawdown > maxDrawdown {
			maxDrawdown = drawdown
		}
	}
	return maxDrawdown
}

// DownsideRisk is the annualized standard deviation of returns below
// zero. Zero when no negative returns exist.
func (c *Calculator) DownsideRisk(returns []float64) float64 {
	var downside []float64
	for _, r := range returns {
		if r < 0 {
			downside = append(downside, r)
		}
	}
	if len(downside) < 2 {
		return 0
	}
	return stat.StdDev(downside, nil) * math.Sqrt(TradingDays)
}

// PositionRisk computes per-position statistics. Reports false when the
// price history is too short to compute volatility; such positions are
// skipped by portfolio-level aggregation.
func (c *Calculator) PositionRisk(pos models.Position, data *models.MarketData) (models.PositionRisk, bool) {
	if data == nil {
		return models.PositionRisk{}, false
	}
	returns := c.Returns(data.Bars)
	vol, ok := volatilityFromReturns(returns)
	if !ok {
		return models.PositionRisk{}, false
	}

	risk := models.PositionRisk{
		Symbol:       pos.Symbol,
		Weight:       pos.Weight,
		Volatility:   vol,
		DollarRisk:   pos.Value * vol,
		PercentRisk:  vol,
		DownsideRisk: c.DownsideRisk(returns),
		MaxDrawdown:  c.MaxDrawdown(returns),
	}
	if beta, ok := c.Beta(data.Bars, data.MarketBars); ok {
		risk.Beta = models.Float64Ptr(beta)
	}
	if sharpe, ok := c.sharpeFromReturns(returns); ok {
		risk.SharpeRatio = models.Float64Ptr(sharpe)
	}
	return risk, true
}

// PortfolioRisk aggregates position statistics into portfolio-level
// figures using the simplified no-correlation model: portfolio variance
// is the sum of squared weight times squared volatility. Positions
// lacking market data are skipped, not failed. The confidence level is
// used for the VaR figure.
func (c *Calculator) PortfolioRisk(p *models.Portfolio, data map[string]*models.MarketData, confidence float64) *models.PortfolioRisk {
	totalValue := p.TotalValue()
	result := &models.PortfolioRisk{
		PortfolioValue: totalValue,
		PositionRisks:  make([]models.PositionRisk, 0, p.PositionCount()),
	}

	var (
		variance       float64
		weightedVol    float64
		weightedSharpe float64
		weightedBeta   float64
		haveSharpe     bool
		haveBeta       bool
	)

	for _, pos := range p.Positions() {
		risk, ok := c.PositionRisk(pos, data[pos.Symbol])
		if !ok {
			c.log.Debugf("Skipping %s: insufficient market data", pos.Symbol)
			continue
		}
		result.PositionRisks = append(result.PositionRisks, risk)

		variance += pos.Weight * pos.Weight * risk.Volatility * risk.Volatility
		weightedVol += pos.Weight * risk.Volatility
		if risk.SharpeRatio != nil {
			weightedSharpe += pos.Weight * *risk.SharpeRatio
			haveSharpe = true
		}
		if risk.Beta != nil {
			weightedBeta += pos.Weight * *risk.Beta
			haveBeta = true
		}
		if risk.MaxDrawdown > result.MaxDrawdown {
			result.MaxDrawdown = risk.MaxDrawdown
		}
	}

	result.Volatility = math.Sqrt(variance)
	result.VaR95 = c.ValueAtRisk(totalValue, result.Volatility, confidence)
	if haveSharpe {
		result.SharpeRatio = models.Float64Ptr(weightedSharpe)
	}
	if haveBeta {
		result.Beta = models.Float64Ptr(weightedBeta)
	}
	if result.Volatility > 0 {
		result.DiversificationRatio = models.Float64Ptr(weightedVol / result.Volatility)
	}
	return result
}
