package redis

import (
	"context"
	"time"

	"github.com/redis/rueidis"

	"github.com/kailas-cloud/evidex/internal/db"
)

// Get reads a value. With a local TTL configured the reply is served from
// the client-side cache until Redis invalidates the key or the TTL runs out.
func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	var res rueidis.RedisResult
	if s.localTTL > 0 {
		res = s.client.DoCache(ctx, s.client.B().Get().Key(key).Cache(), s.localTTL)
	} else {
		res = s.client.Do(ctx, s.client.B().Get().Key(key).Build())
	}

	data, err := res.AsBytes()
	switch {
	case rueidis.IsRedisNil(err):
		return nil, db.ErrKeyNotFound
	case err != nil:
		return nil, &db.Error{Op: db.OpGet, Err: err}
	}
	return data, nil
}

// Set stores a value without expiration.
func (s *Store) Set(ctx context.Context, key string, value []byte) error {
	return s.SetWithTTL(ctx, key, value, 0)
}

// SetWithTTL stores a value that expires after ttl. ttl <= 0 never expires.
func (s *Store) SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	set := s.client.B().Set().Key(key).Value(rueidis.BinaryString(value))
	var cmd rueidis.Completed
	if ttl > 0 {
		cmd = set.Ex(ttl).Build()
	} else {
		cmd = set.Build()
	}
	if err := s.client.Do(ctx, cmd).Error(); err != nil {
		return &db.Error{Op: db.OpSet, Err: err}
	}
	return nil
}
