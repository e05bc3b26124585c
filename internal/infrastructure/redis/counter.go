package redis

import (
	"context"
	"errors"
	"strconv"
	"time"

	goredis "github.com/redis/go-redis/v9"
	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/sharinghood-api/internal/logging"
	"github.com/sharinghood-api/internal/metrics"
)

const counterKeyPrefix = "notifications:"

// CounterKey is the hash holding the unread counts of userID, one field per community.
func CounterKey(userID string) string {
	return counterKeyPrefix + userID
}

// CounterConfig tunes the breaker in front of the counter cache.
type CounterConfig struct {
	// FailureThreshold is the number of consecutive failures that opens the breaker.
	FailureThreshold uint32
	// OpenTimeout is how long the breaker stays open before probing again.
	OpenTimeout time.Duration
	// OpTimeout bounds every single Redis call.
	OpTimeout time.Duration
}

// NotificationCounter is an approximate unread count per user and community.
// It is a convenience cache: every failure is logged and swallowed, and reads
// degrade to zero.
type NotificationCounter struct {
	client    *goredis.Client
	cb        *gobreaker.CircuitBreaker[interface{}]
	opTimeout time.Duration
}

func NewNotificationCounter(client *goredis.Client, cfg CounterConfig) *NotificationCounter {
	if cfg.FailureThreshold == 0 {
		cfg.FailureThreshold = 5
	}
	if cfg.OpenTimeout <= 0 {
		cfg.OpenTimeout = 30 * time.Second
	}
	if cfg.OpTimeout <= 0 {
		cfg.OpTimeout = 500 * time.Millisecond
	}
	const name = "notification-counter"
	metrics.CircuitBreakerState.WithLabelValues(name).Set(0)
	cb := gobreaker.NewCircuitBreaker[interface{}](gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Timeout:     cfg.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.FailureThreshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			metrics.CircuitBreakerState.WithLabelValues(name).Set(breakerStateValue(to))
			logging.Warn().Str("breaker", name).Str("from", from.String()).Str("to", to.String()).Msg("circuit breaker state changed")
		},
	})
	return &NotificationCounter{client: client, cb: cb, opTimeout: cfg.OpTimeout}
}

func breakerStateValue(s gobreaker.State) float64 {
	switch s {
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return 0
	}
}

// Increment adds one to the count of communityID for userID. A missing field counts as zero.
func (c *NotificationCounter) Increment(ctx context.Context, userID, communityID string) {
	_, err := c.do(ctx, "increment", func(ctx context.Context) (interface{}, error) {
		return nil, c.client.HIncrBy(ctx, CounterKey(userID), communityID, 1).Err()
	})
	if err != nil {
		logging.Ctx(ctx).Warn().Err(err).Str("user_id", userID).Str("community_id", communityID).Msg("counter increment failed")
	}
}

// Clear removes the count of communityID for userID.
func (c *NotificationCounter) Clear(ctx context.Context, userID, communityID string) {
	_, err := c.do(ctx, "clear", func(ctx context.Context) (interface{}, error) {
		return nil, c.client.HDel(ctx, CounterKey(userID), communityID).Err()
	})
	if err != nil {
		logging.Ctx(ctx).Warn().Err(err).Str("user_id", userID).Str("community_id", communityID).Msg("counter clear failed")
	}
}

// ReadAll returns the count of every community in communityIDs. Missing or
// unparsable fields read as 0, and so does everything when Redis is unavailable.
func (c *NotificationCounter) ReadAll(ctx context.Context, userID string, communityIDs []string) map[string]int {
	counts := make(map[string]int, len(communityIDs))
	for _, id := range communityIDs {
		counts[id] = 0
	}
	if len(communityIDs) == 0 {
		return counts
	}
	res, err := c.do(ctx, "read", func(ctx context.Context) (interface{}, error) {
		return c.client.HMGet(ctx, CounterKey(userID), communityIDs...).Result()
	})
	if err != nil {
		logging.Ctx(ctx).Warn().Err(err).Str("user_id", userID).Msg("counter read failed, reporting zero")
		return counts
	}
	vals, _ := res.([]interface{})
	for i, v := range vals {
		if i >= len(communityIDs) {
			break
		}
		s, ok := v.(string)
		if !ok {
			continue
		}
		if n, err := strconv.Atoi(s); err == nil {
			counts[communityIDs[i]] = n
		}
	}
	return counts
}

func (c *NotificationCounter) do(ctx context.Context, op string, fn func(context.Context) (interface{}, error)) (interface{}, error) {
	res, err := c.cb.Execute(func() (interface{}, error) {
		ctx, cancel := context.WithTimeout(ctx, c.opTimeout)
		defer cancel()
		return fn(ctx)
	})
	switch {
	case err == nil:
		metrics.RecordCounterOp(op, "ok")
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		metrics.RecordCounterOp(op, "rejected")
	default:
		metrics.RecordCounterOp(op, "error")
	}
	return res, err
}
