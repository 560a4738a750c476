package pipeline

import (
	"fmt"
	"sync"

	"github.com/Carmen-Shannon/automation/tools/worker"
	"github.com/Carmen-Shannon/oxy-pbr/common"
)

// Cache deduplicates pipeline builds by key. The first request for a key schedules the
// build on the worker pool; later requests for the same key share its handle.
// A failed build stays cached so every requester observes the same error.
type Cache struct {
	mu      sync.Mutex
	pool    worker.DynamicWorkerPool
	entries map[string]*common.Pending[Pipeline]
	order   []string
	nextID  int
}

// NewCache creates a pipeline cache that builds on the given pool.
// A nil pool builds synchronously on the goroutine of the first requester, and
// concurrent requesters of the same key wait for that build.
//
// Parameters:
//   - pool: the worker pool builds are submitted to
//
// Returns:
//   - *Cache: the cache
func NewCache(pool worker.DynamicWorkerPool) *Cache {
	return &Cache{
		pool:    pool,
		entries: make(map[string]*common.Pending[Pipeline]),
	}
}

// Submit returns the handle of the pipeline cached under key, scheduling build when the
// key is new. With a pool Submit never blocks on the build; without one the first
// requester builds before returning.
//
// Parameters:
//   - key: the pipeline key, typically the program key joined with the pass name
//   - build: creates and builds the pipeline
//
// Returns:
//   - *common.Pending[Pipeline]: the shared completion handle
func (c *Cache) Submit(key string, build func() (Pipeline, error)) *common.Pending[Pipeline] {
	c.mu.Lock()
	if p, ok := c.entries[key]; ok {
		c.mu.Unlock()
		return p
	}
	if c.pool == nil {
		p := common.NewPending[Pipeline]()
		c.store(key, p)
		c.mu.Unlock()
		buildInline(p, build)
		return p
	}
	id := c.nextID
	c.nextID++
	p := common.Submit(c.pool, id, build)
	c.store(key, p)
	c.mu.Unlock()
	return p
}

// buildInline runs build and resolves p, turning a panic into the handle's error.
func buildInline(p *common.Pending[Pipeline], build func() (Pipeline, error)) {
	var (
		pl  Pipeline
		err error
	)
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("pipeline build panicked: %v", r)
		}
		p.Resolve(pl, err)
	}()
	pl, err = build()
}

func (c *Cache) store(key string, p *common.Pending[Pipeline]) {
	c.entries[key] = p
	c.order = append(c.order, key)
}

// Get returns the handle cached under key.
func (c *Cache) Get(key string) (*common.Pending[Pipeline], bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	p, ok := c.entries[key]
	return p, ok
}

// Len returns the number of cached keys.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Release awaits every cached build and releases the pipelines that succeeded.
func (c *Cache) Release() {
	c.mu.Lock()
	order := c.order
	entries := c.entries
	c.order = nil
	c.entries = make(map[string]*common.Pending[Pipeline])
	c.mu.Unlock()

	for _, key := range order {
		if p, err := entries[key].Await(); err == nil && p != nil {
			p.Release()
		}
	}
}
