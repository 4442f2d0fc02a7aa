package store

import "context"

// HistoryKey is the single key under which the serialized scan history lives.
const HistoryKey = "scan_history"

// KV is the minimal durable key-value interface the record store runs on.
// Get reports found=false when the key has no value; that is not an error.
// Implementations must be safe for concurrent use.
type KV interface {
	Get(ctx context.Context, key string) (value []byte, found bool, err error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	Close() error
}
