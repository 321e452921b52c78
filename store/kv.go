package store

import "context"

// KV is the persistence contract backing the subscription store: opaque
// values keyed by tenant key, plus key enumeration for the poll scheduler.
type KV interface {
	Get(ctx context.Context, key string) (value []byte, ok bool, err error)
	Set(ctx context.Context, key string, value []byte) error
	Keys(ctx context.Context, prefix string) ([]string, error)
}
