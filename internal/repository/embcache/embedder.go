package embcache

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/kailas-cloud/evidex/internal/db"
	"github.com/kailas-cloud/evidex/internal/domain"
	"github.com/kailas-cloud/evidex/internal/logger"
)

// KeyPrefix namespaces cached embeddings in the shared Redis keyspace.
const KeyPrefix = "evidex:emb_cache:"

// DefaultFlightTimeout bounds a provider call shared by concurrent misses.
const DefaultFlightTimeout = 30 * time.Second

// Values of the "result" label on the cache counter.
const (
	resultHit     = "hit"
	resultMiss    = "miss"
	resultError   = "error"
	resultCorrupt = "corrupt"
)

type store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// CachedEmbedder keeps segment and query vectors in a key-value store.
// Keys are scoped by model so switching models never serves stale vectors.
// Concurrent misses for the same text share one provider call.
type CachedEmbedder struct {
	inner         domain.Embedder
	store         store
	model         string
	ttl           time.Duration
	cacheTotal    *prometheus.CounterVec
	logger        *zap.Logger
	flight        singleflight.Group
	flightTimeout time.Duration
}

// New creates a caching decorator. ttl <= 0 stores entries without expiration.
// cacheTotal may be nil.
func New(
	inner domain.Embedder,
	s store,
	model string,
	ttl time.Duration,
	cacheTotal *prometheus.CounterVec,
	log *zap.Logger,
) *CachedEmbedder {
	if log == nil {
		log = zap.NewNop()
	}
	return &CachedEmbedder{
		inner:         inner,
		store:         s,
		model:         model,
		ttl:           ttl,
		cacheTotal:    cacheTotal,
		logger:        log,
		flightTimeout: DefaultFlightTimeout,
	}
}

// Embed serves text from the cache or the provider. A hit reports zero tokens.
// Store failures only cost a provider call.
//
// Concurrent misses for the same text share one provider call. That call is
// detached from the caller that started it, so one query giving up never fails
// another; each caller stops waiting when its own ctx is done.
func (c *CachedEmbedder) Embed(ctx context.Context, text string) (domain.EmbeddingResult, error) {
	key := c.key(text)
	if vec, ok := c.lookup(ctx, key); ok {
		return domain.EmbeddingResult{Embedding: vec}, nil
	}

	ch := c.flight.DoChan(key, func() (any, error) {
		fctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.flightTimeout)
		defer cancel()

		res, err := c.inner.Embed(fctx, text)
		if err != nil {
			return domain.EmbeddingResult{}, err
		}
		c.save(fctx, key, res.Embedding)
		return res, nil
	})

	select {
	case <-ctx.Done():
		return domain.EmbeddingResult{}, fmt.Errorf("embed text: %w", ctx.Err())
	case r := <-ch:
		if r.Err != nil {
			return domain.EmbeddingResult{}, fmt.Errorf("embed text: %w", r.Err)
		}
		return r.Val.(domain.EmbeddingResult), nil //nolint:forcetypeassert // only EmbeddingResult is stored
	}
}

// HealthCheck delegates to the inner embedder when it supports health checks.
func (c *CachedEmbedder) HealthCheck(ctx context.Context) error {
	if hc, ok := c.inner.(domain.HealthChecker); ok {
		return hc.HealthCheck(ctx) //nolint:wrapcheck // transparent decorator
	}
	return nil
}

func (c *CachedEmbedder) key(text string) string {
	sum := sha256.Sum256([]byte(text))
	return KeyPrefix + c.model + ":" + hex.EncodeToString(sum[:])
}

func (c *CachedEmbedder) lookup(ctx context.Context, key string) ([]float32, bool) {
	data, err := c.store.Get(ctx, key)
	switch {
	case errors.Is(err, db.ErrKeyNotFound) || (err == nil && len(data) == 0):
		c.count(resultMiss)
		return nil, false
	case err != nil:
		c.count(resultError)
		logger.FromContext(ctx, c.logger).Warn("Embedding cache read failed", zap.String("key", key), zap.Error(err))
		return nil, false
	}

	vec, err := decodeVector(data)
	if err != nil {
		c.count(resultCorrupt)
		logger.FromContext(ctx, c.logger).Warn("Dropping corrupt cached embedding", zap.String("key", key), zap.Error(err))
		return nil, false
	}
	c.count(resultHit)
	return vec, true
}

func (c *CachedEmbedder) save(ctx context.Context, key string, vec []float32) {
	if len(vec) == 0 {
		return
	}
	if err := c.store.SetWithTTL(ctx, key, encodeVector(vec), c.ttl); err != nil {
		c.count(resultError)
		logger.FromContext(ctx, c.logger).Warn("Embedding cache write failed", zap.String("key", key), zap.Error(err))
	}
}

func (c *CachedEmbedder) count(result string) {
	if c.cacheTotal != nil {
		c.cacheTotal.WithLabelValues(result).Inc()
	}
}

// encodeVector packs float32 values little-endian, 4 bytes each.
func encodeVector(v []float32) []byte {
	buf := make([]byte, 4*len(v))
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[4*i:], math.Float32bits(f))
	}
	return buf
}

func decodeVector(data []byte) ([]float32, error) {
	if len(data)%4 != 0 {
		return nil, fmt.Errorf("cached vector has %d bytes, not a multiple of 4", len(data))
	}
	v := make([]float32, len(data)/4)
	for i := range v {
		v[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[4*i:]))
	}
	return v, nil
}
