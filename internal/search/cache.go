package search

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"chat-llm/internal/domain"
)

// ResultCache guarda resultados procesados por consulta durante una ventana fija.
type ResultCache interface {
	Get(ctx context.Context, key string) ([]domain.SearchResult, bool)
	Set(ctx context.Context, key string, results []domain.SearchResult)
}

type memoryResultCache struct {
	mu    sync.Mutex
	items map[string]cacheEntry
	ttl   time.Duration
	now   func() time.Time
}

type cacheEntry struct {
	results  []domain.SearchResult
	storedAt time.Time
}

func NewMemoryResultCache(ttl time.Duration) ResultCache {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &memoryResultCache{
		items: make(map[string]cacheEntry),
		ttl:   ttl,
		now:   time.Now,
	}
}

func (c *memoryResultCache) Get(_ context.Context, key string) ([]domain.SearchResult, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	entry, ok := c.items[key]
	if !ok {
		return nil, false
	}
	// Purga perezosa: la entrada vencida se descarta en el acceso.
	if c.now().Sub(entry.storedAt) >= c.ttl {
		delete(c.items, key)
		return nil, false
	}
	return entry.results, true
}

func (c *memoryResultCache) Set(_ context.Context, key string, results []domain.SearchResult) {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.now()
	c.items[key] = cacheEntry{results: results, storedAt: now}
	for k, e := range c.items {
		if now.Sub(e.storedAt) >= c.ttl {
			delete(c.items, k)
		}
	}
}

type redisResultCache struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

func NewRedisResultCache(client *redis.Client, ttl time.Duration) ResultCache {
	if client == nil {
		return nil
	}
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &redisResultCache{
		client: client,
		prefix: "search:q:",
		ttl:    ttl,
	}
}

func (c *redisResultCache) Get(ctx context.Context, key string) ([]domain.SearchResult, bool) {
	ctx, cancel := context.WithTimeout(ctx, 500*time.Millisecond)
	defer cancel()
	raw, err := c.client.Get(ctx, c.prefix+key).Bytes()
	if err != nil {
		return nil, false
	}
	var results []domain.SearchResult
	if err := json.Unmarshal(raw, &results); err != nil {
		return nil, false
	}
	return results, true
}

func (c *redisResultCache) Set(ctx context.Context, key string, results []domain.SearchResult) {
	raw, err := json.Marshal(results)
	if err != nil {
		return
	}
	ctx, cancel := context.WithTimeout(ctx, 500*time.Millisecond)
	defer cancel()
	_ = c.client.Set(ctx, c.prefix+key, raw, c.ttl).Err()
}
