package risk

import (
	"github.com/fieldelevate/risk-analyzer/pkg/models"
)

// StressTest applies a shock scenario to every position: the
// market-wide drop, then the sector-specific drop, then a bounded
// random price perturbation scaled by the volatility spike, then the
// liquidity haircut. Losses are summed across positions and classified
// survivable when the total stays inside the drawdown limit.
//
// The random perturbation makes this non-deterministic under a real
// randomness source; tests pin the sequence via CalculatorConfig.Rand.
func (c *Calculator) StressTest(p *models.Portfolio, scenario models.StressScenario, maxDrawdown float64) models.StressResult {
	positions := p.Positions()
	totalValue := p.TotalValue()

	result := models.StressResult{
		Scenario: scenario.Name,
		Results:  make([]models.PositionStress, 0, len(positions)),
	}

	for _, pos := range positions {
		stressedPrice := pos.CurrentPrice

		if scenario.MarketDrop != 0 {
			stressedPrice *= 1 + scenario.MarketDrop
		}
		if drop, ok := scenario.SectorDrops[pos.Sector]; ok {
			stressedPrice *= 1 + drop
		}
		if scenario.VolatilitySpike != 0 {
			stressedPrice *= 1 + c.randomShock(scenario.VolatilitySpike)
		}

		stressedValue := pos.Quantity * stressedPrice
		if scenario.LiquidityDiscount > 0 {
			stressedValue *= 1 - scenario.LiquidityDiscount
		}

		loss := pos.Value - stressedValue
		stress := models.PositionStress{
			Symbol:        pos.Symbol,
			OriginalValue: pos.Value,
			StressedValue: stressedValue,
			Loss:          loss,
		}
		if pos.Value != 0 {
			stress.LossPercent = loss / pos.Value
		}
		result.Results = append(result.Results, stress)
		result.TotalLoss += loss
	}

	if totalValue > 0 {
		result.LossPercent = result.TotalLoss / totalValue
	}
	result.Survivable = result.TotalLoss < totalValue*maxDrawdown
	return result
}

// randomShock draws a perturbation in [-spike*0.05, spike*0.05).
func (c *Calculator) randomShock(spike float64) float64 {
	c.rngMu.Lock()
	defer c.rngMu.Unlock()
	return (c.rng.Float64() - 0.5) * spike * 0.1
}
