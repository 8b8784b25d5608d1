package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/fieldelevate/risk-analyzer/pkg/models"
)

// Config for the whole application
type Config struct {
	App     AppConfig
	API     APIConfig
	Redis   RedisConfig
	DataHub DataHubConfig
	Kafka   KafkaConfig
	Risk    RiskConfig
	Monitor MonitorConfig
	Metrics MetricsConfig
}

// General application configuration
type AppConfig struct {
	Name        string
	Environment string
	LogLevel    string `mapstructure:"log_level"`
}

// Configuration for the API server
type APIConfig struct {
	Host            string
	Port            int
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// Configuration for the Redis snapshot store
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// Configuration for the upstream market data service
type DataHubConfig struct {
	URL     string
	Timeout time.Duration
}

// Configuration for the alert broker
type KafkaConfig struct {
	Brokers      []string
	AlertsTopic  string        `mapstructure:"alerts_topic"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

// RiskConfig holds the risk limits and stress scenarios. Limits are
// read once at startup and never mutated afterwards.
type RiskConfig struct {
	Limits              RiskLimits              `mapstructure:"limits"`
	StressTestScenarios []models.StressScenario `mapstructure:"stress_test_scenarios"`
	RiskFreeRate        float64                 `mapstructure:"risk_free_rate"`
}

// RiskLimits are the static thresholds enforced by the risk monitor.
// All size and exposure limits are fractions of total portfolio value.
type RiskLimits struct {
	MaxPositionSize   float64 `mapstructure:"max_position_size" json:"maxPositionSize"`
	MaxSectorExposure float64 `mapstructure:"max_sector_exposure" json:"maxSectorExposure"`
	MaxDrawdown       float64 `mapstructure:"max_drawdown" json:"maxDrawdown"`
	MaxLeverage       float64 `mapstructure:"max_leverage" json:"maxLeverage"`
	MinCashReserve    float64 `mapstructure:"min_cash_reserve" json:"minCashReserve"`
	MaxCorrelation    float64 `mapstructure:"max_correlation" json:"maxCorrelation"`
	MaxVolatility     float64 `mapstructure:"max_volatility" json:"maxVolatility"`
	VaRConfidence     float64 `mapstructure:"var_confidence" json:"varConfidence"`
}

// Configuration for the periodic monitoring loop
type MonitorConfig struct {
	Interval       time.Duration `mapstructure:"interval"`
	TickTimeout    time.Duration `mapstructure:"tick_timeout"`
	FetchWorkers   int           `mapstructure:"fetch_workers"`
	DefaultCash    float64       `mapstructure:"default_cash"`
	ReportCacheTTL time.Duration `mapstructure:"report_cache_ttl"`
}

// Configuration for metrics
type MetricsConfig struct {
	Enabled bool
}

// Validate checks for configuration that cannot be recovered from at
// runtime. Called once at startup; a failure here is fatal.
func (c *Config) Validate() error {
	l := c.Risk.Limits
	for name, v := range map[string]float64{
		"risk.limits.max_position_size":   l.MaxPositionSize,
		"risk.limits.max_sector_exposure": l.MaxSectorExposure,
		"risk.limits.max_drawdown":        l.MaxDrawdown,
		"risk.limits.max_volatility":      l.MaxVolatility,
	} {
		if v <= 0 || v > 1 {
			return fmt.Errorf("%s must be in (0, 1], got %v", name, v)
		}
	}
	if l.MinCashReserve < 0 || l.MinCashReserve >= 1 {
		return fmt.Errorf("risk.limits.min_cash_reserve must be in [0, 1), got %v", l.MinCashReserve)
	}
	if l.VaRConfidence <= 0 || l.VaRConfidence >= 1 {
		return fmt.Errorf("risk.limits.var_confidence must be in (0, 1), got %v", l.VaRConfidence)
	}
	if c.Monitor.Interval <= 0 {
		return fmt.Errorf("monitor.interval must be positive, got %v", c.Monitor.Interval)
	}
	return nil
}

// Loads the configuration from a file and environment variables. A
// missing config file is not an error; the defaults mirror the
// documented limits.
func Load() (*Config, error) {
	setDefaults()

	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("./config")
	viper.AddConfigPath(".")

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	viper.SetEnvPrefix("RISK")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if len(config.Risk.StressTestScenarios) == 0 {
		config.Risk.StressTestScenarios = DefaultScenarios()
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

// DefaultScenarios returns the built-in stress scenario set used when
// no scenarios are configured.
func DefaultScenarios() []models.StressScenario {
	return []models.StressScenario{
		{Name: "Market Crash", MarketDrop: -0.20, VolatilitySpike: 2.0},
		{Name: "Flash Crash", MarketDrop: -0.10, VolatilitySpike: 3.0},
		{Name: "Sector Rotation", SectorDrops: map[string]float64{"tech": -0.15, "finance": 0.10}},
		{Name: "Liquidity Crisis", LiquidityDiscount: 0.20, SpreadWidening: 2.0},
	}
}

func setDefaults() {
	// App defaults
	viper.SetDefault("app.name", "risk-analyzer")
	viper.SetDefault("app.environment", "development")
	viper.SetDefault("app.log_level", "info")

	// API defaults
	viper.SetDefault("api.host", "0.0.0.0")
	viper.SetDefault("api.port", 8004)
	viper.SetDefault("api.read_timeout", "10s")
	viper.SetDefault("api.write_timeout", "10s")
	viper.SetDefault("api.shutdown_timeout", "30s")

	// Redis defaults
	viper.SetDefault("redis.addr", "localhost:6380")
	viper.SetDefault("redis.password", "")
	viper.SetDefault("redis.db", 0)

	// Data hub defaults
	viper.SetDefault("datahub.url", "http://localhost:8001")
	viper.SetDefault("datahub.timeout", "5s")

	// Kafka defaults
	viper.SetDefault("kafka.brokers", []string{"localhost:9092"})
	viper.SetDefault("kafka.alerts_topic", "risk.alerts")
	viper.SetDefault("kafka.write_timeout", "10s")

	// Risk limit defaults
	viper.SetDefault("risk.limits.max_position_size", 0.10)
	viper.SetDefault("risk.limits.max_sector_exposure", 0.30)
	viper.SetDefault("risk.limits.max_drawdown", 0.15)
	viper.SetDefault("risk.limits.max_leverage", 2.0)
	viper.SetDefault("risk.limits.min_cash_reserve", 0.05)
	viper.SetDefault("risk.limits.max_correlation", 0.70)
	viper.SetDefault("risk.limits.max_volatility", 0.25)
	viper.SetDefault("risk.limits.var_confidence", 0.95)
	viper.SetDefault("risk.risk_free_rate", 0.02)

	// Monitor defaults
	viper.SetDefault("monitor.interval", "60s")
	viper.SetDefault("monitor.tick_timeout", "45s")
	viper.SetDefault("monitor.fetch_workers", 4)
	viper.SetDefault("monitor.default_cash", 100000.0)
	viper.SetDefault("monitor.report_cache_ttl", "24h")

	// Metrics defaults
	viper.SetDefault("metrics.enabled", true)
}
