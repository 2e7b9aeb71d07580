package swiftbind

import (
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/appsworld/swiftbind/index"
)

// LibraryCache maps library paths to their symbol index. Concurrent loads
// of the same path share one load.
type LibraryCache struct {
	mu    sync.Mutex
	items *lru.Cache[string, *cacheEntry]
}

type cacheEntry struct {
	done chan struct{}
	idx  *index.Index
	err  error
}

// NewLibraryCache returns a cache holding at most size libraries.
func NewLibraryCache(size int) (*LibraryCache, error) {
	items, err := lru.New[string, *cacheEntry](size)
	if err != nil {
		return nil, err
	}
	return &LibraryCache{items: items}, nil
}

// Get returns the index cached for path, calling load to fill it on a miss.
// Failed loads are not cached.
func (c *LibraryCache) Get(path string, load func() (*index.Index, error)) (*index.Index, error) {
	c.mu.Lock()
	e, ok := c.items.Get(path)
	if !ok {
		e = &cacheEntry{done: make(chan struct{})}
		c.items.Add(path, e)
	}
	c.mu.Unlock()

	if ok {
		<-e.done
		return e.idx, e.err
	}

	e.idx, e.err = load()
	if e.err != nil {
		c.mu.Lock()
		if cur, ok := c.items.Peek(path); ok && cur == e {
			c.items.Remove(path)
		}
		c.mu.Unlock()
	}
	close(e.done)
	return e.idx, e.err
}

// Contains reports whether path has a cached or in-flight entry.
func (c *LibraryCache) Contains(path string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.items.Contains(path)
}

// Len is the number of cached libraries.
func (c *LibraryCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.items.Len()
}

// Purge drops every cached library.
func (c *LibraryCache) Purge() {
	c.mu.Lock()
	c.items.Purge()
	c.mu.Unlock()
}
