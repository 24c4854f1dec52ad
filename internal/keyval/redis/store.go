// Package redis backs the record store with a redis server, giving
// contexts on different machines a shared namespace plus real change
// notifications over pub/sub. Each write publishes the writer's origin
// ID on a per-key channel; subscribers drop messages carrying their own.
package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/batuhanyalcin/storefront/internal/keyval"
	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
)

const keyPrefix = "storefront:"

type Store struct {
	client *redis.Client
	origin string
}

func New(addr string) *Store {
	opts, err := redis.ParseURL(addr)
	if err != nil {
		opts = &redis.Options{
			Addr:         addr,
			MinIdleConns: 1,
			DialTimeout:  10 * time.Second,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 10 * time.Second,
		}
	}

	return &Store{
		client: redis.NewClient(opts),
		origin: uuid.NewString(),
	}
}

func (s *Store) Ping(ctx context.Context) error {
	if err := s.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping: %w", err)
	}
	return nil
}

func (s *Store) Close() error { return s.client.Close() }

func (s *Store) Origin() string { return s.origin }

func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	b, err := s.client.Get(ctx, keyPrefix+key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, keyval.ErrNotFound
		}
		return nil, fmt.Errorf("redis get %q: %w", key, err)
	}
	return b, nil
}

func (s *Store) Set(ctx context.Context, key string, value []byte) error {
	if err := s.client.Set(ctx, keyPrefix+key, value, 0).Err(); err != nil {
		return fmt.Errorf("redis set %q: %w", key, err)
	}
	s.publish(ctx, key)
	return nil
}

func (s *Store) Delete(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, keyPrefix+key).Err(); err != nil {
		return fmt.Errorf("redis del %q: %w", key, err)
	}
	s.publish(ctx, key)
	return nil
}

func (s *Store) publish(ctx context.Context, key string) {
	// Best effort: a lost notification is covered by the polling fallback.
	s.client.Publish(ctx, channel(key), s.origin)
}

func (s *Store) Watch(ctx context.Context, key string) (<-chan keyval.Event, error) {
	sub := s.client.Subscribe(ctx, channel(key))
	if _, err := sub.Receive(ctx); err != nil {
		sub.Close()
		return nil, fmt.Errorf("redis subscribe %q: %w", key, err)
	}

	out := make(chan keyval.Event, 8)
	go func() {
		defer close(out)
		defer sub.Close()

		msgs := sub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-msgs:
				if !ok {
					return
				}
				if msg.Payload == s.origin {
					continue
				}
				select {
				case out <- keyval.Event{Key: key, Origin: msg.Payload}:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return out, nil
}

func channel(key string) string {
	return keyPrefix + "changed:" + key
}
