package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

type redisKV struct {
	client *redis.Client
}

func NewRedisKV(ctx context.Context, redisURL string) (KV, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parsing redis URL: %w", err)
	}

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("pinging redis: %w", err)
	}

	return &redisKV{client}, nil
}

func (kv *redisKV) Get(ctx context.Context, key string) ([]byte, bool, error) {
	value, err := kv.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	} else if err != nil {
		return nil, false, err
	}
	return value, true, nil
}

func (kv *redisKV) Set(ctx context.Context, key string, value []byte) error {
	return kv.client.Set(ctx, key, value, 0).Err()
}

func (kv *redisKV) Keys(ctx context.Context, prefix string) ([]string, error) {
	var keys []string
	iter := kv.client.Scan(ctx, 0, prefix+"*", 0).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	return keys, iter.Err()
}
