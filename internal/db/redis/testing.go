package redis

import (
	"time"

	"github.com/redis/rueidis"
)

// NewStoreForTest wraps an existing client (usually a rueidis mock).
// An optional localTTL routes reads through DoCache.
func NewStoreForTest(c rueidis.Client, localTTL ...time.Duration) *Store {
	s := &Store{client: c}
	if len(localTTL) > 0 {
		s.localTTL = localTTL[0]
	}
	return s
}
