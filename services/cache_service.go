package services

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/fenilmodi00/vnmarket/models"
	"github.com/sirupsen/logrus"
)

// CacheEntry represents a cached item with expiration
type CacheEntry struct {
	Data      interface{}
	ExpiresAt time.Time
}

// IsExpiredAt checks if the cache entry has expired at the given instant
func (ce *CacheEntry) IsExpiredAt(now time.Time) bool {
	return now.After(ce.ExpiresAt)
}

// CacheService is an in-memory TTL cache with a size cap.
// It supports:
// - TTL per entry with periodic cleanup (see jobs.CacheCleanupJob)
// - Thread-safe operations with read/write locks
// - Oldest-expiry eviction when the cache is full
type CacheService struct {
	cache      map[string]*CacheEntry
	mutex      sync.RWMutex
	defaultTTL time.Duration
	maxSize    int
	now        func() time.Time
}

// NewCacheServiceWithConfig creates a cache service with custom configuration
func NewCacheServiceWithConfig(defaultTTL time.Duration, maxSize int) *CacheService {
	if maxSize <= 0 {
		maxSize = 1000
	}
	return &CacheService{
		cache:      make(map[string]*CacheEntry),
		defaultTTL: defaultTTL,
		maxSize:    maxSize,
		now:        time.Now,
	}
}

// Get retrieves a value from cache
func (cs *CacheService) Get(key string) (interface{}, bool) {
	cs.mutex.RLock()
	defer cs.mutex.RUnlock()

	entry, exists := cs.cache[key]
	if !exists || entry.IsExpiredAt(cs.now()) {
		return nil, false
	}

	return entry.Data, true
}

// Set stores a value in cache with default TTL
func (cs *CacheService) Set(key string, value interface{}) {
	cs.SetWithTTL(key, value, cs.defaultTTL)
}

// SetWithTTL stores a value in cache with custom TTL
func (cs *CacheService) SetWithTTL(key string, value interface{}, ttl time.Duration) {
	cs.mutex.Lock()
	defer cs.mutex.Unlock()

	if _, exists := cs.cache[key]; !exists && len(cs.cache) >= cs.maxSize {
		cs.evictOldest()
	}

	cs.cache[key] = &CacheEntry{
		Data:      value,
		ExpiresAt: cs.now().Add(ttl),
	}
}

// evictOldest removes the entry closest to expiry
func (cs *CacheService) evictOldest() {
	var oldestKey string
	var oldestTime time.Time

	for key, entry := range cs.cache {
		if oldestKey == "" || entry.ExpiresAt.Before(oldestTime) {
			oldestKey = key
			oldestTime = entry.ExpiresAt
		}
	}

	if oldestKey != "" {
		delete(cs.cache, oldestKey)
	}
}

// Clear removes all values from cache
func (cs *CacheService) Clear() {
	cs.mutex.Lock()
	defer cs.mutex.Unlock()

	cs.cache = make(map[string]*CacheEntry)
}

// Size returns the number of items in cache
func (cs *CacheService) Size() int {
	cs.mutex.RLock()
	defer cs.mutex.RUnlock()

	return len(cs.cache)
}

// CleanupExpired removes expired entries and returns how many were removed
func (cs *CacheService) CleanupExpired() int {
	cs.mutex.Lock()
	defer cs.mutex.Unlock()

	now := cs.now()
	removed := 0
	for key, entry := range cs.cache {
		if entry.IsExpiredAt(now) {
			delete(cs.cache, key)
			removed++
		}
	}
	return removed
}

// CachedSnapshotService wraps SnapshotService so repeated requests for the same
// variant and symbols within the TTL return one stable snapshot
type CachedSnapshotService struct {
	snapshotService *SnapshotService
	cache           *CacheService
}

// NewCachedSnapshotService creates a new cached snapshot service
func NewCachedSnapshotService(snapshotService *SnapshotService, cache *CacheService) *CachedSnapshotService {
	return &CachedSnapshotService{
		snapshotService: snapshotService,
		cache:           cache,
	}
}

// GetSnapshot returns a cached snapshot or generates and caches a new one
func (css *CachedSnapshotService) GetSnapshot(policy *Policy, symbols []string) *models.MarketSnapshot {
	cacheKey := snapshotCacheKey(policy, symbols)

	if cached, found := css.cache.Get(cacheKey); found {
		if snapshot, ok := cached.(*models.MarketSnapshot); ok {
			css.snapshotService.GetServiceMetrics().IncrementCustomCounter("cache_hits")
			return snapshot
		}
	}

	snapshot := css.snapshotService.Generate(policy, symbols)
	css.cache.Set(cacheKey, snapshot)
	css.snapshotService.GetServiceMetrics().IncrementCustomCounter("cache_misses")

	logrus.WithFields(logrus.Fields{
		"component": "CachedSnapshotService",
		"cache_key": cacheKey,
	}).Debug("Cached new snapshot")

	return snapshot
}

// Cache exposes the underlying cache for maintenance jobs and handlers
func (css *CachedSnapshotService) Cache() *CacheService {
	return css.cache
}

// SnapshotService exposes the wrapped generator
func (css *CachedSnapshotService) SnapshotService() *SnapshotService {
	return css.snapshotService
}

func snapshotCacheKey(policy *Policy, symbols []string) string {
	normalized := make([]string, 0, len(symbols))
	for _, symbol := range symbols {
		symbol = strings.TrimSpace(symbol)
		if policy.UppercaseInput {
			symbol = toUpper(symbol)
		}
		normalized = append(normalized, symbol)
	}
	return fmt.Sprintf("snapshot:%s:%d:%d:%s", policy.Name, policy.NewsLimit, policy.MaxAlerts, strings.Join(normalized, ","))
}
