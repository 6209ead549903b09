package blob

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStore keeps each photo in a hash with "ct" and "data" fields under
// "<prefix>:<name>".  A positive ttl makes photos expire.
type RedisStore struct {
	rdb    redis.Cmdable
	prefix string
	ttl    time.Duration
}

// NewRedisStore returns a store on rdb.
func NewRedisStore(rdb redis.Cmdable, prefix string, ttl time.Duration) *RedisStore {
	if prefix == "" {
		prefix = "photo"
	}
	return &RedisStore{rdb: rdb, prefix: prefix, ttl: ttl}
}

func (s *RedisStore) key(name string) string { return s.prefix + ":" + name }

func (s *RedisStore) Put(ctx context.Context, data []byte, contentType string) (string, error) {
	name, err := newName(contentType)
	if err != nil {
		return "", err
	}
	key := s.key(name)
	_, err = s.rdb.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.HSet(ctx, key, "ct", contentType, "data", data)
		if s.ttl > 0 {
			p.Expire(ctx, key, s.ttl)
		}
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("redis store photo: %w", err)
	}
	return Ref(name), nil
}

func (s *RedisStore) Open(ctx context.Context, name string) ([]byte, string, error) {
	if _, ok := ValidName(name); !ok {
		return nil, "", ErrNotFound
	}
	vals, err := s.rdb.HMGet(ctx, s.key(name), "ct", "data").Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, "", ErrNotFound
		}
		return nil, "", err
	}
	ct, _ := vals[0].(string)
	data, _ := vals[1].(string)
	if data == "" {
		return nil, "", ErrNotFound
	}
	if ct == "" {
		ct = ContentTypeOf(name)
	}
	return []byte(data), ct, nil
}

func (s *RedisStore) Delete(ctx context.Context, name string) error {
	if _, ok := ValidName(name); !ok {
		return nil
	}
	return s.rdb.Del(ctx, s.key(name)).Err()
}
