package persist

import (
	"context"
	"fmt"
	"time"

	"bidtrack/api/internal/store"

	"github.com/redis/go-redis/v9"
)

// Redis keeps the two collection records in Redis. Records never expire;
// each save replaces the whole value.
type Redis struct {
	client *redis.Client
}

func NewRedis(redisURL string) (*Redis, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("connect to redis: %w", err)
	}

	return &Redis{client: client}, nil
}

// NewRedisWithClient wraps an existing client, for tests.
func NewRedisWithClient(client *redis.Client) *Redis {
	return &Redis{client: client}
}

func (r *Redis) SaveProposals(ctx context.Context, proposals []store.Proposal) error {
	payload, err := encodeProposals(proposals)
	if err != nil {
		return err
	}
	if err := r.client.Set(ctx, keyProposals, payload, 0).Err(); err != nil {
		return fmt.Errorf("save proposals record: %w", err)
	}
	return nil
}

func (r *Redis) LoadProposals(ctx context.Context) ([]store.Proposal, error) {
	payload, err := r.client.Get(ctx, keyProposals).Bytes()
	if err == redis.Nil {
		return nil, ErrNoRecord
	}
	if err != nil {
		return nil, fmt.Errorf("load proposals record: %w", err)
	}
	return decodeProposals(payload)
}

func (r *Redis) SaveEvents(ctx context.Context, events []store.CalendarEvent) error {
	payload, err := encodeEvents(events)
	if err != nil {
		return err
	}
	if err := r.client.Set(ctx, keyEvents, payload, 0).Err(); err != nil {
		return fmt.Errorf("save events record: %w", err)
	}
	return nil
}

func (r *Redis) LoadEvents(ctx context.Context) ([]store.CalendarEvent, error) {
	payload, err := r.client.Get(ctx, keyEvents).Bytes()
	if err == redis.Nil {
		return nil, ErrNoRecord
	}
	if err != nil {
		return nil, fmt.Errorf("load events record: %w", err)
	}
	return decodeEvents(payload)
}

func (r *Redis) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

func (r *Redis) Close() error {
	return r.client.Close()
}
