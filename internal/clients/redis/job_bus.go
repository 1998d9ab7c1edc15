package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"

	"github.com/vidgist/vidgist-backend/internal/platform/logger"
)

// JobEvent is the cross-instance notification published on every job
// state change, consumed by websocket/SSE frontends on any node.
type JobEvent struct {
	JobID    uuid.UUID `json:"job_id"`
	UserID   uuid.UUID `json:"user_id"`
	Status   string    `json:"status"`
	Progress int       `json:"progress"`
	ResultID string    `json:"result_id,omitempty"`
	Error    string    `json:"error,omitempty"`
}

type JobEventBus interface {
	Publish(ctx context.Context, event JobEvent) error
	StartForwarder(ctx context.Context, onEvent func(e JobEvent)) error
	Close() error
}

type jobEventBus struct {
	log     *logger.Logger
	rdb     *goredis.Client
	channel string
}

func NewJobEventBus(log *logger.Logger) (JobEventBus, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}

	addr := strings.TrimSpace(os.Getenv("REDIS_ADDR"))
	if addr == "" {
		return nil, fmt.Errorf("missing REDIS_ADDR")
	}
	ch := strings.TrimSpace(os.Getenv("REDIS_JOB_CHANNEL"))
	if ch == "" {
		ch = "analysis_jobs"
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

	return &jobEventBus{
		log:     log.With("service", "RedisJobEventBus"),
		rdb:     rdb,
		channel: ch,
	}, nil
}

func (b *jobEventBus) Publish(ctx context.Context, event JobEvent) error {
	if b == nil || b.rdb == nil {
		return fmt.Errorf("redis job event bus not initialized")
	}
	raw, err := json.Marshal(event)
	if err != nil {
		return err
	}
	return b.rdb.Publish(ctx, b.channel, raw).Err()
}

func (b *jobEventBus) StartForwarder(ctx context.Context, onEvent func(e JobEvent)) error {
	if b == nil || b.rdb == nil {
		return fmt.Errorf("redis job event bus not initialized")
	}
	if onEvent == nil {
		return fmt.Errorf("onEvent callback required")
	}

	sub := b.rdb.Subscribe(ctx, b.channel)

	// ensures subscription actually started
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return fmt.Errorf("redis subscribe: %w", err)
	}

	go func() {
		ch := sub.Channel()
		for {
			select {
			case <-ctx.Done():
				_ = sub.Close()
				return
			case m, ok := <-ch:
				if !ok || m == nil {
					_ = sub.Close()
					return
				}
				var event JobEvent
				if err := json.Unmarshal([]byte(m.Payload), &event); err != nil {
					b.log.Warn("bad redis job event payload", "error", err)
					continue
				}
				onEvent(event)
			}
		}
	}()

	return nil
}

func (b *jobEventBus) Close() error {
	if b == nil || b.rdb == nil {
		return nil
	}
	return b.rdb.Close()
}
