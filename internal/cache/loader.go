package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"github.com/helixir/openalex-explorer/internal/observability"
)

const keyPrefix = "oa:"

// Default TTLs. Detail records change rarely; list pages shift as new works
// are indexed.
const (
	DefaultDetailTTL = 24 * time.Hour
	DefaultListTTL   = time.Hour
)

// FetchFunc produces the value for a missing key.
type FetchFunc func(ctx context.Context) ([]byte, error)

// Loader puts a Cache in front of a fetch function. Concurrent misses for
// the same key share one fetch.
type Loader struct {
	cache   Cache
	group   singleflight.Group
	metrics *observability.Metrics
	logger  zerolog.Logger
	hits    atomic.Int64
	misses  atomic.Int64
}

// NewLoader creates a Loader over c. metrics may be nil.
func NewLoader(c Cache, metrics *observability.Metrics, logger zerolog.Logger) *Loader {
	if c == nil {
		c = NopCache{}
	}
	return &Loader{
		cache:   c,
		metrics: metrics,
		logger:  logger.With().Str("component", "response-cache").Logger(),
	}
}

// Load returns the cached value for rawKey or calls fetch and stores its
// result for ttl. The boolean reports whether the value came from the cache.
// A ttl of zero or less skips the cache entirely. Fetch errors are returned
// and never cached.
//
// A shared fetch runs detached from the caller's cancellation, so one
// client going away does not fail the others waiting on the same key. Each
// caller still stops waiting when its own ctx is done.
func (l *Loader) Load(ctx context.Context, rawKey string, ttl time.Duration, fetch FetchFunc) ([]byte, bool, error) {
	if ttl <= 0 {
		data, err := fetch(ctx)
		return data, false, err
	}

	key := Key(rawKey)
	if data, ok := l.get(ctx, key); ok {
		return data, true, nil
	}

	ch := l.group.DoChan(key, func() (interface{}, error) {
		fetchCtx := context.WithoutCancel(ctx)
		if data, ok := l.cache.Get(fetchCtx, key); ok {
			return data, nil
		}
		data, err := fetch(fetchCtx)
		if err != nil {
			return nil, err
		}
		l.cache.Set(fetchCtx, key, data, ttl)
		return data, nil
	})

	select {
	case <-ctx.Done():
		return nil, false, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, false, res.Err
		}
		return res.Val.([]byte), false, nil
	}
}

// Ping checks the underlying cache.
func (l *Loader) Ping(ctx context.Context) error {
	return l.cache.Ping(ctx)
}

// Stats returns the hit and miss counts since creation.
func (l *Loader) Stats() (hits, misses int64) {
	return l.hits.Load(), l.misses.Load()
}

func (l *Loader) get(ctx context.Context, key string) ([]byte, bool) {
	data, ok := l.cache.Get(ctx, key)
	if ok {
		l.hits.Add(1)
		if l.metrics != nil {
			l.metrics.RecordCacheHit()
		}
		l.logger.Debug().Str("key", key).Msg("cache hit")
		return data, true
	}
	l.misses.Add(1)
	if l.metrics != nil {
		l.metrics.RecordCacheMiss()
	}
	return nil, false
}

// Key derives the storage key for a request URL: the "oa:" prefix followed
// by the first 16 bytes of its SHA-256, hex encoded.
func Key(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return keyPrefix + hex.EncodeToString(sum[:16])
}
