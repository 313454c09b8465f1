package cache

import (
	"container/list"

	"btreestore/crypto"
)

func (cache *Cache) GetSize() int {
	cache.Lock()
	defer cache.Unlock()

	return cache.lruList.Len()
}

func (cache *Cache) GetMaxSize() int {
	cache.Lock()
	defer cache.Unlock()

	return cache.maxSize
}

// SetMaxSize changes the capacity, evicting from the cold end as needed.
func (cache *Cache) SetMaxSize(maxSize int) {
	cache.Lock()
	defer cache.Unlock()

	cache.maxSize = max(maxSize, 1)
	for cache.lruList.Len() > cache.maxSize {
		cache.evictLRU()
	}
}

func (cache *Cache) Clear() {
	cache.Lock()
	defer cache.Unlock()

	cache.items = make(map[crypto.Key]*list.Element)
	cache.lruList = list.New()
}
