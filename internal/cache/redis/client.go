package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/learner-analytics/backend/internal/metrics"
	"github.com/learner-analytics/backend/pkg/logger"
)

// Client is the optional response cache in front of the read API.
// Entries are keyed by a hash of the request path and query string and
// flushed wholesale whenever the analytical store reloads.
type Client struct {
	client *redis.Client
}

func NewClient(host string, port int, password string, db int) (*Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", host, port),
		Password: password,
		DB:       db,
	})

	ctx := context.Background()
	_, err := client.Ping(ctx).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	logger.Info("Redis client initialized", zap.String("addr", fmt.Sprintf("%s:%d", host, port)))

	return &Client{client: client}, nil
}

func (c *Client) Close() error {
	return c.client.Close()
}

func (c *Client) SetResponse(ctx context.Context, requestHash string, response interface{}, ttl time.Duration) error {
	data, err := json.Marshal(response)
	if err != nil {
		return fmt.Errorf("failed to marshal response: %w", err)
	}

	err = c.client.Set(ctx, fmt.Sprintf("response:%s", requestHash), data, ttl).Err()
	if err != nil {
		return fmt.Errorf("failed to set response cache: %w", err)
	}

	logger.Debug("Response cached", zap.String("request_hash", requestHash), zap.Duration("ttl", ttl))
	return nil
}

func (c *Client) GetResponse(ctx context.Context, requestHash string, response interface{}) (bool, error) {
	data, err := c.client.Get(ctx, fmt.Sprintf("response:%s", requestHash)).Bytes()
	if err == redis.Nil {
		metrics.ResponseCacheMisses.Inc()
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to get response cache: %w", err)
	}

	err = json.Unmarshal(data, response)
	if err != nil {
		return false, fmt.Errorf("failed to unmarshal response: %w", err)
	}

	metrics.ResponseCacheHits.Inc()
	logger.Debug("Response cache hit", zap.String("request_hash", requestHash))
	return true, nil
}

// InvalidateAll drops every cached response. Wired to the analytical
// store's reload notification so stale pages never outlive a refresh.
func (c *Client) InvalidateAll(ctx context.Context) error {
	iter := c.client.Scan(ctx, 0, "response:*", 0).Iterator()
	for iter.Next(ctx) {
		err := c.client.Del(ctx, iter.Val()).Err()
		if err != nil {
			logger.Warn("Failed to delete cache key", zap.Error(err))
		}
	}

	if err := iter.Err(); err != nil {
		return fmt.Errorf("failed to iterate cache keys: %w", err)
	}

	logger.Info("Response cache invalidated")
	return nil
}

func (c *Client) SetLastSyncMarker(ctx context.Context, runID string, at time.Time) error {
	return c.client.Set(ctx, "sync:last_run", fmt.Sprintf("%s@%s", runID, at.Format(time.RFC3339)), 0).Err()
}

func (c *Client) GetLastSyncMarker(ctx context.Context) (string, error) {
	val, err := c.client.Get(ctx, "sync:last_run").Result()
	if err == redis.Nil {
		return "", nil
	}
	return val, err
}
