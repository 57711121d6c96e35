package scaling

import (
	"sync"

	"github.com/fngate/fngate/pkg/types"
)

// StatusCache memoizes the last fetched replica status per function. It is a
// fast-path short-circuit for warm functions only: a cached zero must never be
// trusted without a live re-check. Entries are overwritten, never deleted; the
// key space is bounded by the number of deployed functions.
type StatusCache struct {
	mu      sync.RWMutex
	entries map[types.FunctionKey]types.FunctionStatus
}

// NewStatusCache creates an empty status cache
func NewStatusCache() *StatusCache {
	return &StatusCache{
		entries: make(map[types.FunctionKey]types.FunctionStatus),
	}
}

// Get returns the last known status for a function, if any
func (c *StatusCache) Get(key types.FunctionKey) (types.FunctionStatus, bool) {
	c.mu.RLock()
	status, ok := c.entries[key]
	c.mu.RUnlock()

	return status, ok
}

// Set records the latest fetched status. Last-writer-wins; writers always hold
// the most recent fetch result for the key.
func (c *StatusCache) Set(key types.FunctionKey, status types.FunctionStatus) {
	c.mu.Lock()
	c.entries[key] = status
	c.mu.Unlock()
}

// Len returns the number of cached functions
func (c *StatusCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return len(c.entries)
}
