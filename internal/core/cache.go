package core

import (
	"sync/atomic"

	"warehousemon/internal/store"
)

// configCache holds the active warehouse configurations as an immutable
// snapshot. Every mutation builds a fresh map from the current one and swaps
// the pointer, so readers on the reading hot path never take a lock and never
// observe a partially updated map.
type configCache struct {
	snapshot atomic.Pointer[map[string]*store.WarehouseConfig]
}

func newConfigCache() *configCache {
	c := &configCache{}
	empty := make(map[string]*store.WarehouseConfig)
	c.snapshot.Store(&empty)
	return c
}

// Get returns the active configuration for a warehouse, or nil when the
// warehouse is unknown.
func (c *configCache) Get(warehouseID string) *store.WarehouseConfig {
	return (*c.snapshot.Load())[warehouseID]
}

// All returns the current snapshot. Callers must treat it as read-only.
func (c *configCache) All() map[string]*store.WarehouseConfig {
	return *c.snapshot.Load()
}

// Len returns the number of active configurations.
func (c *configCache) Len() int {
	return len(*c.snapshot.Load())
}

// Put installs or replaces a warehouse configuration.
func (c *configCache) Put(cfg *store.WarehouseConfig) {
	cur := *c.snapshot.Load()
	next := make(map[string]*store.WarehouseConfig, len(cur)+1)
	for id, v := range cur {
		next[id] = v
	}
	next[cfg.ID] = cfg
	c.snapshot.Store(&next)
}

// Remove drops a warehouse configuration. Removing an unknown warehouse is a
// no-op.
func (c *configCache) Remove(warehouseID string) {
	cur := *c.snapshot.Load()
	if _, ok := cur[warehouseID]; !ok {
		return
	}
	next := make(map[string]*store.WarehouseConfig, len(cur))
	for id, v := range cur {
		if id != warehouseID {
			next[id] = v
		}
	}
	c.snapshot.Store(&next)
}

// userCache holds the known users as an immutable snapshot, replaced
// wholesale on every user change event.
type userCache struct {
	snapshot atomic.Pointer[map[string]*store.User]
}

func newUserCache() *userCache {
	c := &userCache{}
	empty := make(map[string]*store.User)
	c.snapshot.Store(&empty)
	return c
}

// Get returns a user by UID, or nil when unknown.
func (c *userCache) Get(uid string) *store.User {
	return (*c.snapshot.Load())[uid]
}

// All returns the current snapshot. Callers must treat it as read-only.
func (c *userCache) All() map[string]*store.User {
	return *c.snapshot.Load()
}

// Len returns the number of cached users.
func (c *userCache) Len() int {
	return len(*c.snapshot.Load())
}

// Replace swaps in a freshly decoded user set.
func (c *userCache) Replace(users map[string]*store.User) {
	c.snapshot.Store(&users)
}
