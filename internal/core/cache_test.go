package core

import (
	"testing"

	"warehousemon/internal/store"
)

func TestConfigCacheSnapshotIsolation(t *testing.T) {
	c := newConfigCache()

	c.Put(&store.WarehouseConfig{ID: "A", Name: "one"})
	snap := c.All()

	c.Put(&store.WarehouseConfig{ID: "B", Name: "two"})
	c.Remove("A")

	// The snapshot taken before the mutations must be unchanged.
	if len(snap) != 1 || snap["A"] == nil {
		t.Errorf("earlier snapshot mutated: %+v", snap)
	}
	if c.Get("A") != nil {
		t.Error("removed entry still visible")
	}
	if c.Get("B") == nil || c.Len() != 1 {
		t.Errorf("cache state = %+v, want only B", c.All())
	}
}

func TestConfigCacheRemoveUnknown(t *testing.T) {
	c := newConfigCache()
	before := c.All()
	c.Remove("ghost")
	if len(c.All()) != 0 || len(before) != 0 {
		t.Error("removing unknown entry changed the cache")
	}
}

func TestUserCacheReplace(t *testing.T) {
	c := newUserCache()
	if c.Len() != 0 {
		t.Fatalf("fresh cache size = %d, want 0", c.Len())
	}

	c.Replace(map[string]*store.User{"u1": {UID: "u1"}})
	snap := c.All()

	c.Replace(map[string]*store.User{"u2": {UID: "u2"}})

	if snap["u1"] == nil {
		t.Error("earlier snapshot mutated by Replace")
	}
	if c.Get("u1") != nil || c.Get("u2") == nil {
		t.Errorf("cache after replace = %+v, want only u2", c.All())
	}
}
