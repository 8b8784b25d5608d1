package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/fieldelevate/risk-analyzer/config"
	"github.com/fieldelevate/risk-analyzer/internal/alert"
	"github.com/fieldelevate/risk-analyzer/internal/marketdata"
	"github.com/fieldelevate/risk-analyzer/internal/risk"
	"github.com/fieldelevate/risk-analyzer/internal/store"
	ws "github.com/fieldelevate/risk-analyzer/internal/websocket"
	"github.com/fieldelevate/risk-analyzer/pkg/api"
	"github.com/fieldelevate/risk-analyzer/pkg/metrics"
	"github.com/fieldelevate/risk-analyzer/pkg/models"
	"github.com/fieldelevate/risk-analyzer/pkg/utils/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.GetLogger("main").Fatalf("Failed to load configuration: %v", err)
	}

	logger.Init(cfg.App.LogLevel, cfg.App.Environment)
	log := logger.GetLogger("main")
	log.Infof("Starting %s", cfg.App.Name)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var recorder *metrics.Recorder
	if cfg.Metrics.Enabled {
		recorder = metrics.NewRecorder()
	}

	// Snapshot persistence. Redis being down is an integration failure,
	// not a configuration one: degrade to in-memory persistence and
	// keep monitoring.
	var snapshotStore store.Store
	redisStore, err := store.NewRedisStore(ctx, store.RedisConfig{
		Addr:      cfg.Redis.Addr,
		Password:  cfg.Redis.Password,
		DB:        cfg.Redis.DB,
		ReportTTL: cfg.Monitor.ReportCacheTTL,
	})
	if err != nil {
		log.Errorf("Redis unavailable, snapshots will not survive restarts: %v", err)
		snapshotStore = store.NewMemoryStore()
	} else {
		snapshotStore = redisStore
		defer redisStore.Close()
	}

	portfolio := loadPortfolio(ctx, snapshotStore, cfg.Monitor.DefaultCash, log)

	dataHub := marketdata.NewClient(marketdata.ClientConfig{
		BaseURL: cfg.DataHub.URL,
		Timeout: cfg.DataHub.Timeout,
	})

	hub := ws.NewHub()
	go hub.Run(ctx)

	kafkaPublisher := alert.NewKafkaPublisher(alert.KafkaConfig{
		Brokers:      cfg.Kafka.Brokers,
		Topic:        cfg.Kafka.AlertsTopic,
		WriteTimeout: cfg.Kafka.WriteTimeout,
	})
	defer kafkaPublisher.Close()
	publisher := alert.NewFanout(kafkaPublisher, hub)

	calc := risk.NewCalculator(risk.CalculatorConfig{RiskFreeRate: cfg.Risk.RiskFreeRate})
	monitor := risk.NewMonitor(risk.MonitorConfig{
		Limits:       cfg.Risk.Limits,
		Scenarios:    cfg.Risk.StressTestScenarios,
		Interval:     cfg.Monitor.Interval,
		TickTimeout:  cfg.Monitor.TickTimeout,
		FetchWorkers: cfg.Monitor.FetchWorkers,
	}, calc, dataHub, snapshotStore, publisher, recorder)

	monitor.Start(ctx, portfolio)

	server := api.NewServer(api.Config{
		Host:         cfg.API.Host,
		Port:         cfg.API.Port,
		ReadTimeout:  cfg.API.ReadTimeout,
		WriteTimeout: cfg.API.WriteTimeout,
		Environment:  cfg.App.Environment,
	}, portfolio, monitor, calc, snapshotStore, hub, recorder)

	go func() {
		if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("API server failed: %v", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigChan
	log.Infof("Received signal %v, initiating shutdown", sig)

	cancel()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.API.ShutdownTimeout)
	defer shutdownCancel()
	if err := server.Stop(shutdownCtx); err != nil {
		log.Errorf("API server shutdown error: %v", err)
	}

	log.Info("Shutdown complete")
}

// loadPortfolio rebuilds the live portfolio from the last persisted
// snapshot, or creates one with the default cash balance.
func loadPortfolio(ctx context.Context, st store.Store, defaultCash float64, log *logger.Logger) *models.Portfolio {
	snap, err := st.LoadSnapshot(ctx)
	if err != nil {
		log.Infof("No portfolio snapshot found, starting with default cash %v", defaultCash)
		return models.NewPortfolio(defaultCash)
	}
	log.Infof("Restored portfolio snapshot: %d positions, total value %v",
		len(snap.Positions), snap.TotalValue)
	return models.FromSnapshot(snap)
}
