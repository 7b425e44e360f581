package ledger

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/syedismail7230/Authai/internal/models"
)

const certKeyPrefix = "cert:"

// RedisStore is the shared cache tier. On the write path it also serves as
// the designated secondary when the primary store is down, so an issued
// certificate is never silently dropped.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

// RedisConfig for the cache tier.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	TTL      time.Duration
}

// NewRedisStore connects to Redis and verifies the connection.
func NewRedisStore(cfg RedisConfig, logger *zap.Logger) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	if cfg.TTL == 0 {
		cfg.TTL = 24 * time.Hour
	}

	logger.Info("Certificate cache initialized",
		zap.String("addr", cfg.Addr),
		zap.Duration("ttl", cfg.TTL))

	return &RedisStore{client: client, ttl: cfg.TTL, logger: logger}, nil
}

func (s *RedisStore) Name() string { return "redis" }

func (s *RedisStore) Put(ctx context.Context, cert models.Certificate) error {
	payload, err := json.Marshal(cert)
	if err != nil {
		return fmt.Errorf("failed to marshal certificate: %w", err)
	}
	if err := s.client.Set(ctx, certKeyPrefix+cert.ID, payload, s.ttl).Err(); err != nil {
		return fmt.Errorf("failed to cache certificate: %w", err)
	}
	return nil
}

func (s *RedisStore) Get(ctx context.Context, id string) (models.Certificate, error) {
	payload, err := s.client.Get(ctx, certKeyPrefix+id).Bytes()
	if errors.Is(err, redis.Nil) {
		return models.Certificate{}, fmt.Errorf("certificate %s: %w", id, models.ErrNotFound)
	}
	if err != nil {
		return models.Certificate{}, fmt.Errorf("failed to read certificate cache: %w", err)
	}

	var cert models.Certificate
	if err := json.Unmarshal(payload, &cert); err != nil {
		return models.Certificate{}, fmt.Errorf("failed to unmarshal cached certificate: %w", err)
	}
	return cert, nil
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}
