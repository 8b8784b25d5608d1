package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "risk-analyzer", cfg.App.Name)
	assert.Equal(t, 8004, cfg.API.Port)

	assert.Equal(t, 0.10, cfg.Risk.Limits.MaxPositionSize)
	assert.Equal(t, 0.30, cfg.Risk.Limits.MaxSectorExposure)
	assert.Equal(t, 0.15, cfg.Risk.Limits.MaxDrawdown)
	assert.Equal(t, 0.05, cfg.Risk.Limits.MinCashReserve)
	assert.Equal(t, 0.25, cfg.Risk.Limits.MaxVolatility)
	assert.Equal(t, 0.95, cfg.Risk.Limits.VaRConfidence)
	assert.Equal(t, 0.02, cfg.Risk.RiskFreeRate)

	assert.Equal(t, 60*time.Second, cfg.Monitor.Interval)
	assert.Equal(t, 100000.0, cfg.Monitor.DefaultCash)
	assert.Equal(t, 24*time.Hour, cfg.Monitor.ReportCacheTTL)

	assert.Equal(t, "risk.alerts", cfg.Kafka.AlertsTopic)
	require.Len(t, cfg.Risk.StressTestScenarios, 4)
}

func TestDefaultScenarios(t *testing.T) {
	scenarios := DefaultScenarios()
	require.Len(t, scenarios, 4)

	byName := make(map[string]int, len(scenarios))
	for i, s := range scenarios {
		byName[s.Name] = i
	}

	crash := scenarios[byName["Market Crash"]]
	assert.Equal(t, -0.20, crash.MarketDrop)
	assert.Equal(t, 2.0, crash.VolatilitySpike)

	rotation := scenarios[byName["Sector Rotation"]]
	assert.Equal(t, -0.15, rotation.SectorDrops["tech"])
	assert.Equal(t, 0.10, rotation.SectorDrops["finance"])

	liquidity := scenarios[byName["Liquidity Crisis"]]
	assert.Equal(t, 0.20, liquidity.LiquidityDiscount)
}

func TestValidate(t *testing.T) {
	valid := Config{
		Risk: RiskConfig{Limits: RiskLimits{
			MaxPositionSize:   0.10,
			MaxSectorExposure: 0.30,
			MaxDrawdown:       0.15,
			MinCashReserve:    0.05,
			MaxVolatility:     0.25,
			VaRConfidence:     0.95,
		}},
		Monitor: MonitorConfig{Interval: time.Minute},
	}
	require.NoError(t, valid.Validate())

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero position size", func(c *Config) { c.Risk.Limits.MaxPositionSize = 0 }},
		{"position size above one", func(c *Config) { c.Risk.Limits.MaxPositionSize = 1.5 }},
		{"negative cash reserve", func(c *Config) { c.Risk.Limits.MinCashReserve = -0.1 }},
		{"full cash reserve", func(c *Config) { c.Risk.Limits.MinCashReserve = 1.0 }},
		{"confidence at one", func(c *Config) { c.Risk.Limits.VaRConfidence = 1.0 }},
		{"zero interval", func(c *Config) { c.Monitor.Interval = 0 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid
			tt.mutate(&cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}
