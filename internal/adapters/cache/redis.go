package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/microloans/loan-service/internal/domain"
	"github.com/redis/go-redis/v9"
)

// Connect initializes a Redis client from URL or host:port input.
// Supporting both formats keeps local/dev and container config paths simple.
func Connect(_ context.Context, redisURL string) (*redis.Client, error) {
	if strings.HasPrefix(redisURL, "redis://") {
		opt, parseErr := redis.ParseURL(redisURL)
		if parseErr != nil {
			return nil, fmt.Errorf("parse redis url: %w", parseErr)
		}
		return redis.NewClient(opt), nil
	}
	return redis.NewClient(&redis.Options{Addr: redisURL}), nil
}

const statsKey = "loans:stats"

type statsPayload struct {
	TotalLoans  int64            `json:"total_loans"`
	TotalAmount float64          `json:"total_amount"`
	AvgAmount   float64          `json:"avg_amount"`
	ByStatus    map[string]int64 `json:"by_status"`
	ByCurrency  map[string]int64 `json:"by_currency"`
}

// RedisStatsCache caches the /api/stats aggregation for a short TTL.
type RedisStatsCache struct {
	client *redis.Client
}

func NewRedisStatsCache(client *redis.Client) *RedisStatsCache {
	return &RedisStatsCache{client: client}
}

func (c *RedisStatsCache) Get(ctx context.Context) (domain.LoanStats, bool, error) {
	raw, err := c.client.Get(ctx, statsKey).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return domain.LoanStats{}, false, nil
		}
		return domain.LoanStats{}, false, err
	}
	var payload statsPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		// A corrupt entry behaves like a miss; the next Set overwrites it.
		return domain.LoanStats{}, false, nil
	}
	return domain.LoanStats{
		TotalLoans:  payload.TotalLoans,
		TotalAmount: payload.TotalAmount,
		AvgAmount:   payload.AvgAmount,
		ByStatus:    payload.ByStatus,
		ByCurrency:  payload.ByCurrency,
	}, true, nil
}

func (c *RedisStatsCache) Set(ctx context.Context, stats domain.LoanStats, ttl time.Duration) error {
	raw, err := json.Marshal(statsPayload{
		TotalLoans:  stats.TotalLoans,
		TotalAmount: stats.TotalAmount,
		AvgAmount:   stats.AvgAmount,
		ByStatus:    stats.ByStatus,
		ByCurrency:  stats.ByCurrency,
	})
	if err != nil {
		return err
	}
	return c.client.Set(ctx, statsKey, raw, ttl).Err()
}

func (c *RedisStatsCache) Invalidate(ctx context.Context) error {
	return c.client.Del(ctx, statsKey).Err()
}
