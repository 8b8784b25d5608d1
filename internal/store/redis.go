// Package store persists portfolio snapshots and risk reports in an
// opaque key/value store.
package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/fieldelevate/risk-analyzer/pkg/models"
	"github.com/fieldelevate/risk-analyzer/pkg/utils/errors"
	"github.com/fieldelevate/risk-analyzer/pkg/utils/logger"
)

const snapshotKey = "portfolio:current"

// Store persists portfolio snapshots after every tick and explicit
// update, and caches risk reports.
type Store interface {
	SaveSnapshot(ctx context.Context, snap *models.PortfolioSnapshot) error
	LoadSnapshot(ctx context.Context) (*models.PortfolioSnapshot, error)
	SaveReport(ctx context.Context, report *models.RiskReport) error
}

// RedisStore implements Store on Redis. Values are the plain JSON
// projections of the models; no additional schema is imposed.
type RedisStore struct {
	client    *redis.Client
	reportTTL time.Duration
	log       *logger.Logger
}

// RedisConfig configures a RedisStore.
type RedisConfig struct {
	Addr      string
	Password  string
	DB        int
	ReportTTL time.Duration
}

// NewRedisStore connects to Redis and verifies the connection.
func NewRedisStore(ctx context.Context, cfg RedisConfig) (*RedisStore, error) {
	if cfg.ReportTTL <= 0 {
		cfg.ReportTTL = 24 * time.Hour
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, errors.Wrap(err, "failed to connect to redis")
	}

	return &RedisStore{
		client:    client,
		reportTTL: cfg.ReportTTL,
		log:       logger.GetLogger("store.redis"),
	}, nil
}

// SaveSnapshot writes the current portfolio projection.
func (s *RedisStore) SaveSnapshot(ctx context.Context, snap *models.PortfolioSnapshot) error {
	payload, err := json.Marshal(snap)
	if err != nil {
		return errors.Wrap(err, "failed to marshal portfolio snapshot")
	}
	if err := s.client.Set(ctx, snapshotKey, payload, 0).Err(); err != nil {
		return errors.Wrap(err, "failed to save portfolio snapshot")
	}
	return nil
}

// LoadSnapshot reads the persisted portfolio projection. Returns a
// NotFound error when no snapshot has been saved yet.
func (s *RedisStore) LoadSnapshot(ctx context.Context) (*models.PortfolioSnapshot, error) {
	payload, err := s.client.Get(ctx, snapshotKey).Bytes()
	if err == redis.Nil {
		return nil, errors.NotFound("no portfolio snapshot")
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to load portfolio snapshot")
	}

	var snap models.PortfolioSnapshot
	if err := json.Unmarshal(payload, &snap); err != nil {
		return nil, errors.Wrap(err, "failed to unmarshal portfolio snapshot")
	}
	return &snap, nil
}

// SaveReport caches a risk report under a timestamped key with the
// configured TTL.
func (s *RedisStore) SaveReport(ctx context.Context, report *models.RiskReport) error {
	payload, err := json.Marshal(report)
	if err != nil {
		return errors.Wrap(err, "failed to marshal risk report")
	}
	key := fmt.Sprintf("risk:report:%d", report.Timestamp.UnixMilli())
	if err := s.client.Set(ctx, key, payload, s.reportTTL).Err(); err != nil {
		return errors.Wrap(err, "failed to cache risk report")
	}
	return nil
}

// Close releases the Redis connection.
func (s *RedisStore) Close() error {
	return s.client.Close()
}
