package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/Dosada05/federation-registry/models"
)

const (
	DefaultRecentLimit = 50
	DefaultRecentTTL   = 7 * 24 * time.Hour
)

// RedisPublisher publishes events on a pub/sub channel and keeps a short
// per-category history so late subscribers can catch up.
type RedisPublisher struct {
	client      *redis.Client
	channel     string
	recentLimit int64
	recentTTL   time.Duration
}

var _ Notifier = (*RedisPublisher)(nil)

// NewRedisPublisher parses url and verifies the connection.
func NewRedisPublisher(ctx context.Context, url, channel string) (*RedisPublisher, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}
	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}
	return NewRedisPublisherWithClient(client, channel), nil
}

// NewRedisPublisherWithClient wraps an existing client (for testing).
func NewRedisPublisherWithClient(client *redis.Client, channel string) *RedisPublisher {
	return &RedisPublisher{
		client:      client,
		channel:     channel,
		recentLimit: DefaultRecentLimit,
		recentTTL:   DefaultRecentTTL,
	}
}

func (p *RedisPublisher) Close() error {
	return p.client.Close()
}

func (p *RedisPublisher) Publish(ctx context.Context, event models.Event) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event %s: %w", event.Type, err)
	}

	key := recentKey(event.TournamentCategoryID)
	pipe := p.client.TxPipeline()
	pipe.Publish(ctx, p.channel, data)
	pipe.LPush(ctx, key, data)
	pipe.LTrim(ctx, key, 0, p.recentLimit-1)
	pipe.Expire(ctx, key, p.recentTTL)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to publish event %s to redis: %w", event.Type, err)
	}
	return nil
}

// Recent returns up to limit latest events of a category, newest first.
func (p *RedisPublisher) Recent(ctx context.Context, categoryID int, limit int) ([]models.Event, error) {
	if limit <= 0 || int64(limit) > p.recentLimit {
		limit = int(p.recentLimit)
	}
	raw, err := p.client.LRange(ctx, recentKey(categoryID), 0, int64(limit-1)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read recent events for category %d: %w", categoryID, err)
	}
	events := make([]models.Event, 0, len(raw))
	for _, item := range raw {
		var e models.Event
		if err := json.Unmarshal([]byte(item), &e); err != nil {
			return nil, fmt.Errorf("failed to decode stored event: %w", err)
		}
		events = append(events, e)
	}
	return events, nil
}

func recentKey(categoryID int) string {
	return "events:" + CategoryRoom(categoryID)
}
