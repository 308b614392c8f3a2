package events

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/relaydesk/relaydesk-backend/internal/logger"
)

type redisDispatcher struct {
	log     *logger.Logger
	rdb     *goredis.Client
	channel string
}

func NewRedisDispatcher(log *logger.Logger) (Dispatcher, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}

	addr := strings.TrimSpace(os.Getenv("REDIS_ADDR"))
	if addr == "" {
		return nil, fmt.Errorf("missing REDIS_ADDR")
	}
	ch := strings.TrimSpace(os.Getenv("REDIS_EVENTS_CHANNEL"))
	if ch == "" {
		ch = "events"
	}

	rdb := goredis.NewClient(&goredis.Options{
		Addr:        addr,
		DialTimeout: 5 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	return &redisDispatcher{
		log:     log.With("service", "RedisEventDispatcher"),
		rdb:     rdb,
		channel: ch,
	}, nil
}

func (d *redisDispatcher) Dispatch(ctx context.Context, name string, timestamp time.Time, payload map[string]any) {
	if d == nil || d.rdb == nil {
		return
	}
	raw, err := json.Marshal(Event{Name: name, Timestamp: timestamp, Payload: payload})
	if err != nil {
		d.log.Warn("event marshal failed", "event", name, "error", err)
		return
	}
	if err := d.rdb.Publish(ctx, d.channel, raw).Err(); err != nil {
		d.log.Warn("event publish failed", "event", name, "error", err)
	}
}

func (d *redisDispatcher) Close() error {
	if d == nil || d.rdb == nil {
		return nil
	}
	return d.rdb.Close()
}

// NopDispatcher drops events. Used when redis is not configured; event
// delivery is best-effort by contract.
type NopDispatcher struct{}

func (NopDispatcher) Dispatch(ctx context.Context, name string, timestamp time.Time, payload map[string]any) {
}
func (NopDispatcher) Close() error { return nil }
