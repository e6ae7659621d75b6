// pkg/cache/cache.go
package cache

import (
	"sync"
	"time"
)

type Item struct {
	Value      interface{}
	Expiration int64
}

// Cache is an in-process TTL map. A background sweeper removes expired
// entries until Close is called.
type Cache struct {
	items map[string]Item
	mu    sync.RWMutex
	stop  chan struct{}
	once  sync.Once
}

func NewCache() *Cache {
	return NewCacheWithInterval(time.Minute)
}

func NewCacheWithInterval(sweep time.Duration) *Cache {
	cache := &Cache{
		items: make(map[string]Item),
		stop:  make(chan struct{}),
	}
	go cache.startGC(sweep)
	return cache
}

func (c *Cache) Set(key string, value interface{}, duration time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	expiration := time.Now().Add(duration).UnixNano()
	c.items[key] = Item{
		Value:      value,
		Expiration: expiration,
	}
}

func (c *Cache) Get(key string) (interface{}, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	item, found := c.items[key]
	if !found {
		return nil, false
	}

	if time.Now().UnixNano() > item.Expiration {
		return nil, false
	}

	return item.Value, true
}

func (c *Cache) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.items, key)
}

// Len counts stored entries, expired ones included until the next sweep.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}

// Close stops the sweeper. It is safe to call more than once.
func (c *Cache) Close() {
	c.once.Do(func() { close(c.stop) })
}

func (c *Cache) sweep() {
	now := time.Now().UnixNano()
	c.mu.Lock()
	for k, v := range c.items {
		if now > v.Expiration {
			delete(c.items, k)
		}
	}
	c.mu.Unlock()
}

func (c *Cache) startGC(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-c.stop:
			return
		case <-ticker.C:
			c.sweep()
		}
	}
}
