// Package cache keeps recently used cipher blocks so that repeated
// operations under the same crypto key skip the key schedule.
package cache

import (
	"container/list"
	"sync"

	"btreestore/crypto"
)

const DefaultSize = 16

// cacheItem is the value of every lru list element.
type cacheItem struct {
	key   crypto.Key
	block *crypto.Block
}

// Cache is an LRU cache of keyed blocks.
type Cache struct {
	sync.Mutex
	items   map[crypto.Key]*list.Element
	lruList *list.List
	maxSize int
}

// NewCache creates a new LRU cache with the given max size. A size below one
// is raised to one.
func NewCache(maxSize int) *Cache {
	return &Cache{
		items:   make(map[crypto.Key]*list.Element),
		lruList: list.New(),
		maxSize: max(maxSize, 1),
	}
}

// Block returns the block for key, building and caching it on a miss.
// Blocks carry scratch state; callers must not use the same block from two
// goroutines at once.
func (cache *Cache) Block(key crypto.Key) (*crypto.Block, error) {
	cache.Lock()
	defer cache.Unlock()

	if element, found := cache.items[key]; found {
		cache.lruList.MoveToFront(element)
		return element.Value.(*cacheItem).block, nil
	}

	block, err := crypto.NewBlock(key)
	if err != nil {
		return nil, err
	}

	cache.items[key] = cache.lruList.PushFront(&cacheItem{key: key, block: block})
	for cache.lruList.Len() > cache.maxSize {
		cache.evictLRU()
	}
	return block, nil
}

// Contains reports whether key is cached without touching its recency.
func (cache *Cache) Contains(key crypto.Key) bool {
	cache.Lock()
	defer cache.Unlock()

	_, found := cache.items[key]
	return found
}

// Remove drops key and reports whether it was cached.
func (cache *Cache) Remove(key crypto.Key) bool {
	cache.Lock()
	defer cache.Unlock()

	element, found := cache.items[key]
	if !found {
		return false
	}
	cache.lruList.Remove(element)
	delete(cache.items, key)
	return true
}

// evictLRU removes the least recently used item. The caller holds the lock.
func (cache *Cache) evictLRU() {
	element := cache.lruList.Back()
	if element == nil {
		return
	}

	item := element.Value.(*cacheItem)
	cache.lruList.Remove(element)
	delete(cache.items, item.key)
}
