package store

import (
	"LandLedger/internal/entity"
	"container/list"
	"context"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// CachedStore is a read-through, write-through document cache in front of
// a Store. Entries are only updated after the underlying commit succeeds.
type CachedStore struct {
	base Store

	mu  sync.Mutex
	lru *DocLRU

	hits   prometheus.Counter
	misses prometheus.Counter
}

func NewCachedStore(base Store, capacity int) *CachedStore {
	return &CachedStore{base: base, lru: NewDocLRU(capacity)}
}

// Instrument exports hit and miss counts to the given counters.
func (c *CachedStore) Instrument(hits, misses prometheus.Counter) {
	c.hits = hits
	c.misses = misses
}

func (c *CachedStore) Load(ctx context.Context, kind entity.Kind, id string) ([]byte, bool, error) {
	key := recordKey{kind, id}

	c.mu.Lock()
	doc, ok := c.lru.Get(key)
	c.mu.Unlock()
	if ok {
		if c.hits != nil {
			c.hits.Inc()
		}
		return doc, true, nil
	}
	if c.misses != nil {
		c.misses.Inc()
	}

	doc, found, err := c.base.Load(ctx, kind, id)
	if err != nil || !found {
		return doc, found, err
	}

	c.mu.Lock()
	c.lru.Add(key, doc)
	c.mu.Unlock()
	return doc, true, nil
}

func (c *CachedStore) Commit(ctx context.Context, cs *Changeset) error {
	if err := c.base.Commit(ctx, cs); err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	for _, ch := range cs.Changes {
		key := recordKey{ch.Kind, ch.ID}
		if ch.Op == OpRemove {
			c.lru.Remove(key)
			continue
		}
		c.lru.Add(key, ch.Doc)
	}
	return nil
}

func (c *CachedStore) LastCheckpoint(ctx context.Context) (*Checkpoint, error) {
	return c.base.LastCheckpoint(ctx)
}

// Stats returns cache size, hits, misses and evictions.
func (c *CachedStore) Stats() CacheStats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lru.Stats()
}

// --- LRU Implementation ---

// CacheStats are cumulative DocLRU counters.
type CacheStats struct {
	Size      int
	Hits      int64
	Misses    int64
	Evictions int64
}

// DocLRU is an LRU of record documents.
// Not thread-safe; CachedStore guards it.
type DocLRU struct {
	capacity int
	cache    map[recordKey]*list.Element
	lruList  *list.List

	hits      int64
	misses    int64
	evictions int64
}

type lruEntry struct {
	key recordKey
	doc []byte
}

func NewDocLRU(capacity int) *DocLRU {
	if capacity <= 0 {
		capacity = 1
	}
	return &DocLRU{
		capacity: capacity,
		cache:    make(map[recordKey]*list.Element, capacity),
		lruList:  list.New(),
	}
}

// Get returns the cached document (promotes to front)
func (lru *DocLRU) Get(key recordKey) ([]byte, bool) {
	elem, exists := lru.cache[key]
	if !exists {
		lru.misses++
		return nil, false
	}
	lru.hits++
	lru.lruList.MoveToFront(elem)
	return elem.Value.(*lruEntry).doc, true
}

// Add inserts or replaces a document.
func (lru *DocLRU) Add(key recordKey, doc []byte) {
	if elem, exists := lru.cache[key]; exists {
		elem.Value.(*lruEntry).doc = doc
		lru.lruList.MoveToFront(elem)
		return
	}

	elem := lru.lruList.PushFront(&lruEntry{key: key, doc: doc})
	lru.cache[key] = elem

	if lru.lruList.Len() > lru.capacity {
		lru.evictOldest()
	}
}

func (lru *DocLRU) Remove(key recordKey) {
	if elem, exists := lru.cache[key]; exists {
		lru.lruList.Remove(elem)
		delete(lru.cache, key)
	}
}

func (lru *DocLRU) evictOldest() {
	elem := lru.lruList.Back()
	if elem != nil {
		lru.lruList.Remove(elem)
		delete(lru.cache, elem.Value.(*lruEntry).key)
		lru.evictions++
	}
}

func (lru *DocLRU) Stats() CacheStats {
	return CacheStats{
		Size:      lru.lruList.Len(),
		Hits:      lru.hits,
		Misses:    lru.misses,
		Evictions: lru.evictions,
	}
}
