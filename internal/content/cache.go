package content

import (
	"os"
	"sync"
	"time"
)

// PackCache shares loaded packs across pipeline workers so a batch
// does not re-read and re-validate the same JSON once per worker.
// Entries are keyed by content type and invalidated when the pack
// file's modification time changes, so an edited pack is picked up
// without restarting the process.
type PackCache struct {
	mu    sync.RWMutex
	packs map[string]*cachedPack

	// Metrics
	hits   int64
	misses int64
}

type cachedPack struct {
	pack    *Pack
	path    string
	modTime time.Time
}

// NewPackCache creates an empty pack cache
func NewPackCache() *PackCache {
	return &PackCache{
		packs: make(map[string]*cachedPack),
	}
}

// Load returns the cached pack for typeName when the file on disk is
// unchanged, loading and caching it otherwise. Concurrent loads of the
// same missing entry may read the file twice; the last one wins.
func (c *PackCache) Load(typeName, path string, fields Fields) (*Pack, error) {
	info, err := os.Stat(path)
	if err != nil {
		// Let LoadPack produce the canonical error for a missing file.
		return LoadPack(typeName, path, fields)
	}

	c.mu.RLock()
	entry, ok := c.packs[typeName]
	c.mu.RUnlock()

	if ok && entry.path == path && entry.modTime.Equal(info.ModTime()) {
		c.mu.Lock()
		c.hits++
		c.mu.Unlock()
		return entry.pack, nil
	}

	pack, err := LoadPack(typeName, path, fields)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.misses++
	c.packs[typeName] = &cachedPack{pack: pack, path: path, modTime: info.ModTime()}
	c.mu.Unlock()

	return pack, nil
}

// Invalidate drops the cached pack for one content type
func (c *PackCache) Invalidate(typeName string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.packs, typeName)
}

// Clear drops all cached packs
func (c *PackCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.packs = make(map[string]*cachedPack)
}

// Size returns the number of cached packs
func (c *PackCache) Size() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.packs)
}

// Stats returns the hit and miss counters
func (c *PackCache) Stats() (hits, misses int64) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.hits, c.misses
}
