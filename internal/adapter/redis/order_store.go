package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/YelzhanWeb/stall-orders/internal/config"
	"github.com/YelzhanWeb/stall-orders/internal/domain"
	"github.com/YelzhanWeb/stall-orders/internal/interfaces"
)

// Client is what the store needs from go-redis
type Client interface {
	Get(ctx context.Context, key string) *goredis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *goredis.StatusCmd
	Close() error
}

type orderStore struct {
	client Client
	key    string
}

func Connect(ctx context.Context, cfg config.RedisConfig) (Client, error) {
	client := goredis.NewClient(&goredis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}
	return client, nil
}

// NewOrderStore keeps the JSON array of all orders under a single key.
func NewOrderStore(client Client, key string) interfaces.OrderStore {
	return &orderStore{client: client, key: key}
}

func (s *orderStore) Load(ctx context.Context) ([]domain.Order, error) {
	data, err := s.client.Get(ctx, s.key).Bytes()
	if errors.Is(err, goredis.Nil) {
		return []domain.Order{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read orders key: %w", err)
	}

	orders := []domain.Order{}
	if err := json.Unmarshal(data, &orders); err != nil {
		return nil, fmt.Errorf("failed to parse orders: %w", err)
	}
	return orders, nil
}

func (s *orderStore) Save(ctx context.Context, orders []domain.Order) error {
	if orders == nil {
		orders = []domain.Order{}
	}
	data, err := json.Marshal(orders)
	if err != nil {
		return fmt.Errorf("failed to marshal orders: %w", err)
	}
	if err := s.client.Set(ctx, s.key, data, 0).Err(); err != nil {
		return fmt.Errorf("failed to write orders key: %w", err)
	}
	return nil
}

func (s *orderStore) Close() error {
	return s.client.Close()
}
