package storage

import (
	"context"

	"github.com/redis/go-redis/v9"
)

const defaultSnapshotKey = "board:snapshot"

// Store persists the serialized board snapshot under a single key in the
// backing key-value store. Writes overwrite the whole document; there is no
// partial update and last write wins.
type Store struct {
	redis *redis.Client
	key   string
}

// New creates a Store on the provided Redis client. An empty key selects
// the default.
func New(client *redis.Client, key string) *Store {
	if client == nil {
		panic("storage.New: redis client is nil")
	}
	if key == "" {
		key = defaultSnapshotKey
	}
	return &Store{redis: client, key: key}
}

// Load fetches the stored snapshot. A missing key is not an error: the
// board starts fresh from whatever is statically present.
func (s *Store) Load(ctx context.Context) ([]byte, bool, error) {
	data, err := s.redis.Get(ctx, s.key).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, false, nil
		}
		return nil, false, err
	}
	return data, true, nil
}

// Save overwrites the entire stored snapshot synchronously, with no TTL.
func (s *Store) Save(ctx context.Context, data []byte) error {
	return s.redis.Set(ctx, s.key, data, 0).Err()
}

// Ping reports whether the backing store is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.redis.Ping(ctx).Err()
}
