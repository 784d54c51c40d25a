package history

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

type redisStore struct {
	client *redis.Client
	prefix string
}

// NewRedisStore creates a Store backed by Redis. Each record lives under
// prefix+key and is indexed in the sorted set prefix+"index" by save time.
func NewRedisStore(client *redis.Client, prefix string) Store {
	return &redisStore{client: client, prefix: prefix}
}

func (s *redisStore) indexKey() string {
	return s.prefix + "index"
}

func (s *redisStore) List(ctx context.Context) ([]string, error) {
	keys, err := s.client.ZRange(ctx, s.indexKey(), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrLoadFailed, err)
	}
	return keys, nil
}

func (s *redisStore) Load(ctx context.Context, keys ...string) ([]Record, error) {
	records := make([]Record, 0, len(keys))

	for _, key := range keys {
		data, err := s.client.Get(ctx, s.prefix+key).Bytes()
		if err != nil {
			if errors.Is(err, redis.Nil) {
				return nil, fmt.Errorf("%w: %s", ErrKeyNotFound, key)
			}
			return nil, fmt.Errorf("%w: %s: %v", ErrLoadFailed, key, err)
		}
		records = append(records, Record{Key: key, Value: data})
	}

	return records, nil
}

func (s *redisStore) Save(ctx context.Context, records ...Record) error {
	if len(records) == 0 {
		return nil
	}

	score := float64(time.Now().UnixNano())
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		for _, r := range records {
			pipe.Set(ctx, s.prefix+r.Key, r.Value, 0)
			pipe.ZAddNX(ctx, s.indexKey(), &redis.Z{Score: score, Member: r.Key})
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("%w: %v", ErrSaveFailed, err)
	}
	return nil
}

func (s *redisStore) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}

	members := make([]any, len(keys))
	full := make([]string, len(keys))
	for i, key := range keys {
		members[i] = key
		full[i] = s.prefix + key
	}

	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, full...)
		pipe.ZRem(ctx, s.indexKey(), members...)
		return nil
	})
	if err != nil {
		return fmt.Errorf("%w: %v", ErrDeleteFailed, err)
	}
	return nil
}
