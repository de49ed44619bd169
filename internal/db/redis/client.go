package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/rueidis"

	"github.com/kailas-cloud/evidex/internal/db"
)

var _ db.Store = (*Store)(nil)

const readinessPoll = 100 * time.Millisecond

// Config holds connection parameters for the embedding cache.
type Config struct {
	Addrs    []string
	Username string
	Password string
	DB       int
	// LocalTTL enables rueidis client-side caching of GET replies for this long.
	// Zero keeps every read on the server.
	LocalTTL time.Duration
}

// Store is the rueidis-backed embedding cache.
type Store struct {
	client   rueidis.Client
	localTTL time.Duration
}

// NewStore connects to Redis. The connection is lazy; use WaitForReady to block until it answers.
func NewStore(cfg Config) (*Store, error) {
	if len(cfg.Addrs) == 0 {
		return nil, errors.New("redis: at least one address is required")
	}

	client, err := rueidis.NewClient(rueidis.ClientOption{
		InitAddress:  cfg.Addrs,
		Username:     cfg.Username,
		Password:     cfg.Password,
		SelectDB:     cfg.DB,
		DisableCache: cfg.LocalTTL <= 0,
	})
	if err != nil {
		return nil, fmt.Errorf("redis: create client: %w", err)
	}
	return &Store{client: client, localTTL: cfg.LocalTTL}, nil
}

// Ping checks connectivity.
func (s *Store) Ping(ctx context.Context) error {
	if err := s.client.Do(ctx, s.client.B().Ping().Build()).Error(); err != nil {
		return &db.Error{Op: db.OpPing, Err: err}
	}
	return nil
}

// Close shuts down the client.
func (s *Store) Close() {
	s.client.Close()
}

// WaitForReady pings until Redis answers or timeout expires.
func (s *Store) WaitForReady(ctx context.Context, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	ticker := time.NewTicker(readinessPoll)
	defer ticker.Stop()

	var last error
	for {
		select {
		case <-ctx.Done():
			if last != nil {
				return fmt.Errorf("redis not ready: %w (last ping: %w)", ctx.Err(), last)
			}
			return fmt.Errorf("redis not ready: %w", ctx.Err())
		case <-ticker.C:
			if last = s.Ping(ctx); last == nil {
				return nil
			}
		}
	}
}
