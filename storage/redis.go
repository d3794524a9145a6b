package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/redis/go-redis/v9"
)

// DefaultRedisPrefix namespaces guard keys in a shared Redis keyspace.
const DefaultRedisPrefix = "ag"

// Redis is a Backend over a Redis keyspace. Every mutation is published on a
// change channel so other guards sharing the namespace can react.
//
// Keys are stored as "<prefix>:<namespace>:<key>"; namespace plays the role of
// the browser origin.
type Redis struct {
	client    redis.UniversalClient
	prefix    string
	namespace string
}

// NewRedis creates a Redis backend. An empty prefix selects
// [DefaultRedisPrefix]; an empty namespace selects "default".
func NewRedis(client redis.UniversalClient, prefix, namespace string) *Redis {
	if prefix == "" {
		prefix = DefaultRedisPrefix
	}
	if namespace == "" {
		namespace = "default"
	}
	return &Redis{client: client, prefix: prefix, namespace: namespace}
}

func (r *Redis) key(k string) string {
	return r.prefix + ":" + r.namespace + ":" + k
}

func (r *Redis) changesChannel() string {
	return r.prefix + ":" + r.namespace + ":changes"
}

// Get implements Backend.
//
//	Performance: 1 Redis GET.
func (r *Redis) Get(ctx context.Context, key string) (string, bool, error) {
	v, err := r.client.Get(ctx, r.key(key)).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("%w: get %s: %w", ErrUnavailable, key, err)
	}
	return v, true, nil
}

// Set implements Backend.
//
//	Performance: 1 MULTI/EXEC (SET + PUBLISH).
func (r *Redis) Set(ctx context.Context, key, value string) error {
	payload, err := json.Marshal(Change{Key: key, Value: value})
	if err != nil {
		return err
	}
	_, err = r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, r.key(key), value, 0)
		pipe.Publish(ctx, r.changesChannel(), payload)
		return nil
	})
	if err != nil {
		return fmt.Errorf("%w: set %s: %w", ErrUnavailable, key, err)
	}
	return nil
}

// Remove implements Backend. A change is published only when the key existed.
//
//	Performance: 1 DEL, plus 1 PUBLISH when a key was removed.
func (r *Redis) Remove(ctx context.Context, key string) error {
	n, err := r.client.Del(ctx, r.key(key)).Result()
	if err != nil {
		return fmt.Errorf("%w: remove %s: %w", ErrUnavailable, key, err)
	}
	if n == 0 {
		return nil
	}
	payload, err := json.Marshal(Change{Key: key, Removed: true})
	if err != nil {
		return err
	}
	if err := r.client.Publish(ctx, r.changesChannel(), payload).Err(); err != nil {
		return fmt.Errorf("%w: publish removal of %s: %w", ErrUnavailable, key, err)
	}
	return nil
}

// Keys lists the unprefixed keys currently stored in the namespace.
// This is an O(n) SCAN intended for tooling, not guard checks.
func (r *Redis) Keys(ctx context.Context) ([]string, error) {
	base := r.prefix + ":" + r.namespace + ":"
	var (
		cursor uint64
		out    []string
	)
	for {
		keys, next, err := r.client.Scan(ctx, cursor, base+"*", 100).Result()
		if err != nil {
			return nil, fmt.Errorf("%w: scan: %w", ErrUnavailable, err)
		}
		for _, k := range keys {
			out = append(out, strings.TrimPrefix(k, base))
		}
		cursor = next
		if cursor == 0 {
			return out, nil
		}
	}
}

// Ping returns a point-in-time Redis availability check.
func (r *Redis) Ping(ctx context.Context) error {
	if err := r.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	return nil
}

// Watch implements Watcher over Redis pub/sub. It returns once the
// subscription is confirmed so no change published afterwards is missed.
func (r *Redis) Watch(ctx context.Context) (<-chan Change, error) {
	sub := r.client.Subscribe(ctx, r.changesChannel())
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return nil, fmt.Errorf("%w: subscribe: %w", ErrUnavailable, err)
	}

	out := make(chan Change, watchBuffer)
	msgs := sub.Channel()

	go func() {
		defer close(out)
		defer sub.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-msgs:
				if !ok {
					return
				}
				var c Change
				if err := json.Unmarshal([]byte(msg.Payload), &c); err != nil {
					continue
				}
				select {
				case out <- c:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return out, nil
}
