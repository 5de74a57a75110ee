package cache

import (
	"container/list"
	"context"
	"sync"
	"time"
)

// Memory is a bounded in-process cache, least recently used entries are
// evicted first when the bound is reached.
type Memory struct {
	mu      sync.Mutex
	limit   int
	order   *list.List
	entries map[string]*list.Element
	now     func() time.Time
}

type memoryEntry struct {
	key     string
	data    []byte
	expires time.Time
}

// NewMemory creates memory cache holding at most limit entries, limit <= 0 means
// no bound.
func NewMemory(limit int) *Memory {
	return &Memory{
		limit:   limit,
		order:   list.New(),
		entries: make(map[string]*list.Element),
		now:     time.Now,
	}
}

func (c *Memory) Get(_ context.Context, key string) ([]byte, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	el, ok := c.entries[key]
	if !ok {
		return nil, false, nil
	}
	e := el.Value.(*memoryEntry)
	if !e.expires.IsZero() && c.now().After(e.expires) {
		c.remove(el)
		return nil, false, nil
	}
	c.order.MoveToFront(el)
	return e.data, true, nil
}

func (c *Memory) Set(_ context.Context, key string, data []byte, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	e := &memoryEntry{key: key, data: data}
	if ttl > 0 {
		e.expires = c.now().Add(ttl)
	}
	if el, ok := c.entries[key]; ok {
		el.Value = e
		c.order.MoveToFront(el)
		return nil
	}
	c.entries[key] = c.order.PushFront(e)
	for c.limit > 0 && c.order.Len() > c.limit {
		c.remove(c.order.Back())
	}
	return nil
}

func (c *Memory) Delete(_ context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if el, ok := c.entries[key]; ok {
		c.remove(el)
	}
	return nil
}

// Len returns number of entries, expired ones included until touched.
func (c *Memory) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.order.Len()
}

func (c *Memory) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.order.Init()
	clear(c.entries)
	return nil
}

func (c *Memory) remove(el *list.Element) {
	c.order.Remove(el)
	delete(c.entries, el.Value.(*memoryEntry).key)
}

var _ Cache = (*Memory)(nil)
