package ocr

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"log/slog"
	"sync"
)

// MemoryCache is a simple in-memory cache of model answers keyed by image
// digest. When it reaches maxEntries it starts over empty.
type MemoryCache struct {
	mu         sync.RWMutex
	store      map[string]string
	maxEntries int
}

// NewMemoryCache creates a cache holding at most maxEntries answers
func NewMemoryCache(maxEntries int) *MemoryCache {
	return &MemoryCache{
		store:      make(map[string]string),
		maxEntries: maxEntries,
	}
}

// Get retrieves a value from cache
func (c *MemoryCache) Get(key string) (string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	value, found := c.store[key]
	return value, found
}

// Set stores a value in cache
func (c *MemoryCache) Set(key string, value string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.store[key]; !exists && c.maxEntries > 0 && len(c.store) >= c.maxEntries {
		c.store = make(map[string]string)
	}
	c.store[key] = value
}

// Clear removes all entries from cache
func (c *MemoryCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.store = make(map[string]string)
}

// Size returns the number of cached entries
func (c *MemoryCache) Size() int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return len(c.store)
}

// CachingExtractor answers repeated uploads of the same image from cache.
// Failed and empty extractions are never cached.
type CachingExtractor struct {
	next   Extractor
	cache  *MemoryCache
	logger *slog.Logger
}

// NewCachingExtractor wraps next with a cache of maxEntries answers.
func NewCachingExtractor(next Extractor, maxEntries int, logger *slog.Logger) *CachingExtractor {
	if logger == nil {
		logger = slog.Default()
	}
	return &CachingExtractor{
		next:   next,
		cache:  NewMemoryCache(maxEntries),
		logger: logger,
	}
}

// Extract implements Extractor.
func (e *CachingExtractor) Extract(ctx context.Context, image []byte, mediaType string) (string, error) {
	key := imageKey(image, mediaType)
	if text, ok := e.cache.Get(key); ok {
		e.logger.Debug("Extraction served from cache", "key", key[:12])
		return text, nil
	}

	text, err := e.next.Extract(ctx, image, mediaType)
	if err != nil || text == "" {
		return text, err
	}
	e.cache.Set(key, text)
	return text, nil
}

func imageKey(image []byte, mediaType string) string {
	h := sha256.New()
	h.Write([]byte(mediaType))
	h.Write([]byte{0})
	h.Write(image)
	return hex.EncodeToString(h.Sum(nil))
}
