// Package cache memoizes embedding vectors in a key-value store.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/spigell/jd-matcher/internal/oracle"
)

const defaultTTL = 24 * time.Hour

// Store is a byte-valued key-value store with expiry.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// RedisStore implements Store with Redis strings.
type RedisStore struct {
	client redis.UniversalClient
}

func NewRedisStore(client redis.UniversalClient) *RedisStore {
	return &RedisStore{client: client}
}

func (s *RedisStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	val, err := s.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return val, true, nil
}

func (s *RedisStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return s.client.Set(ctx, key, value, ttl).Err()
}

// Embedder wraps another embedder and serves repeated texts from the store.
// Store failures degrade to cache misses.
type Embedder struct {
	next   oracle.Embedder
	store  Store
	model  string
	ttl    time.Duration
	logger *zap.Logger
	group  singleflight.Group
}

// NewEmbedder caches next's vectors under keys derived from model and text.
func NewEmbedder(next oracle.Embedder, store Store, model string, ttl time.Duration, logger *zap.Logger) *Embedder {
	if ttl <= 0 {
		ttl = defaultTTL
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Embedder{next: next, store: store, model: model, ttl: ttl, logger: logger}
}

func (e *Embedder) Embed(ctx context.Context, texts []string) ([][]float64, error) {
	keys := make([]string, len(texts))
	resolved := make(map[string][]float64, len(texts))
	var missKeys, missTexts []string

	for i, t := range texts {
		key := e.key(t)
		keys[i] = key
		if _, ok := resolved[key]; ok {
			continue
		}
		vec, ok := e.lookup(ctx, key)
		resolved[key] = vec
		if !ok {
			missKeys = append(missKeys, key)
			missTexts = append(missTexts, t)
		}
	}

	if len(missTexts) > 0 {
		v, err, shared := e.group.Do(strings.Join(missKeys, ","), func() (any, error) {
			return e.next.Embed(ctx, missTexts)
		})
		if err != nil {
			return nil, err
		}
		vectors := v.([][]float64)
		if len(vectors) != len(missTexts) {
			return nil, fmt.Errorf("embedder returned %d vectors for %d texts", len(vectors), len(missTexts))
		}

		for i, key := range missKeys {
			resolved[key] = vectors[i]
			if !shared {
				e.save(ctx, key, vectors[i])
			}
		}
	}

	e.logger.Debug("embedding cache",
		zap.Int("requested", len(texts)),
		zap.Int("missed", len(missTexts)),
	)

	out := make([][]float64, len(texts))
	for i, key := range keys {
		out[i] = resolved[key]
	}
	return out, nil
}

func (e *Embedder) key(text string) string {
	sum := sha256.Sum256([]byte(e.model + "\x00" + text))
	return "jdm:emb:" + hex.EncodeToString(sum[:])
}

func (e *Embedder) lookup(ctx context.Context, key string) ([]float64, bool) {
	data, ok, err := e.store.Get(ctx, key)
	if err != nil {
		e.logger.Warn("embedding cache read failed", zap.Error(err))
		return nil, false
	}
	if !ok {
		return nil, false
	}
	var vec []float64
	if err := json.Unmarshal(data, &vec); err != nil {
		e.logger.Warn("embedding cache entry is corrupt", zap.String("key", key), zap.Error(err))
		return nil, false
	}
	return vec, true
}

func (e *Embedder) save(ctx context.Context, key string, vec []float64) {
	data, err := json.Marshal(vec)
	if err != nil {
		return
	}
	if err := e.store.Set(ctx, key, data, e.ttl); err != nil {
		e.logger.Warn("embedding cache write failed", zap.Error(err))
	}
}
