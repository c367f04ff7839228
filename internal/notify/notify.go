package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/go-redis/redis/v8"
)

// Change describes a booking request being created or changing status.
// From is empty for creation.
type Change struct {
	RequestID  string    `json:"requestId"`
	PropertyID string    `json:"propertyId"`
	UserID     string    `json:"userId"`
	HostID     string    `json:"hostId"`
	From       string    `json:"from,omitempty"`
	To         string    `json:"to"`
	Actor      string    `json:"actor"`
	OccurredAt time.Time `json:"occurredAt"`
}

type Publisher interface {
	Publish(ctx context.Context, c Change) error
}

type redisPublisher interface {
	Publish(ctx context.Context, channel string, message interface{}) *redis.IntCmd
}

// RedisPublisher fans changes out on a Redis pub/sub channel. Subscribers
// (push, email) live in other services.
type RedisPublisher struct {
	client  redisPublisher
	closer  func() error
	channel string
}

// NewRedisPublisher accepts either a redis:// URL or a bare host:port.
func NewRedisPublisher(url, channel string) (*RedisPublisher, error) {
	var opts *redis.Options
	if strings.Contains(url, "://") {
		o, err := redis.ParseURL(url)
		if err != nil {
			return nil, fmt.Errorf("parse REDIS_URL: %w", err)
		}
		opts = o
	} else {
		opts = &redis.Options{Addr: url}
	}
	c := redis.NewClient(opts)
	return &RedisPublisher{client: c, closer: c.Close, channel: channel}, nil
}

func (p *RedisPublisher) Publish(ctx context.Context, c Change) error {
	b, err := json.Marshal(c)
	if err != nil {
		return err
	}
	if err := p.client.Publish(ctx, p.channel, b).Err(); err != nil {
		return fmt.Errorf("redis publish %s: %w", p.channel, err)
	}
	return nil
}

func (p *RedisPublisher) Close() error {
	if p.closer == nil {
		return nil
	}
	return p.closer()
}

// LogPublisher only logs. Used when Redis is not configured.
type LogPublisher struct {
	Log *slog.Logger
}

func (p LogPublisher) Publish(ctx context.Context, c Change) error {
	p.Log.InfoContext(ctx, "request change",
		slog.String("request_id", c.RequestID),
		slog.String("property_id", c.PropertyID),
		slog.String("from", c.From),
		slog.String("to", c.To),
		slog.String("actor", c.Actor),
	)
	return nil
}
