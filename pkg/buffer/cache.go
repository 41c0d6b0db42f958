package buffer

import "sync"

// Entry holds the buffered state for a single file path.
type Entry struct {
	// Contents is the canonical serialized document as most recently stored
	// into the buffer. Updated by every store.
	Contents []byte

	// Hash is the digest of Contents captured at first load. It is the
	// baseline for change detection and is never recomputed afterward.
	Hash Digest

	// Meta is the file's metadata captured at first load, or nil if the
	// file did not exist yet.
	Meta *Metadata
}

// Cache is the pluggable store mapping file paths to buffered entries.
// [MemCache] is the default; any conforming key/value store works (a Redis
// adapter, for example).
//
// Implementations must be safe for concurrent use by multiple goroutines.
type Cache interface {
	// Get returns the entry for path, if present.
	Get(path string) (Entry, bool)

	// Set stores or replaces the entry for path.
	Set(path string, e Entry)

	// Delete removes the entry for path. Deleting a missing path is a no-op.
	Delete(path string)

	// Contains reports whether an entry exists for path.
	Contains(path string) bool

	// Len returns the number of buffered paths.
	Len() int
}

// MemCache is an in-process [Cache] backed by a map.
type MemCache struct {
	mu      sync.RWMutex
	entries map[string]Entry
}

// NewMemCache returns an empty in-memory cache.
func NewMemCache() *MemCache {
	return &MemCache{entries: make(map[string]Entry)}
}

// Get returns the entry for path, if present.
func (c *MemCache) Get(path string) (Entry, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	e, ok := c.entries[path]

	return e, ok
}

// Set stores or replaces the entry for path.
func (c *MemCache) Set(path string, e Entry) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[path] = e
}

// Delete removes the entry for path.
func (c *MemCache) Delete(path string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.entries, path)
}

// Contains reports whether an entry exists for path.
func (c *MemCache) Contains(path string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()

	_, ok := c.entries[path]

	return ok
}

// Len returns the number of buffered paths.
func (c *MemCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return len(c.entries)
}
