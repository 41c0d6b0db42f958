package buffer

import (
	"encoding/json"
	"fmt"
	"os"
)

// Collection is the contract a buffered document must satisfy. It is
// implemented by file-backed synced documents; the backend never touches the
// file itself beyond metadata probes, it delegates durable writes to Commit.
type Collection interface {
	// Path returns the backing file path. Used as the cache key.
	Path() string

	// ToBase returns the document's canonical JSON-compatible snapshot.
	ToBase() (any, error)

	// Commit durably writes a decoded value through to the backing file.
	Commit(v any) error

	// Buffered reports whether the document is still inside a buffered
	// scope. A flush is deferred while this is true.
	Buffered() bool
}

// Backend implements the load/store/flush primitives of write-back
// buffering on top of a [Cache] and a metadata probe. Construct one Backend
// per concrete collection type; its registry is owned by the backend, not
// shared global state.
type Backend struct {
	cache    Cache
	registry *Registry
	stat     StatFunc
	force    bool
}

// Option configures a [Backend].
type Option func(*Backend)

// WithCache replaces the default in-memory cache.
func WithCache(c Cache) Option {
	return func(b *Backend) { b.cache = c }
}

// WithStatFunc replaces the metadata probe. Intended for tests.
func WithStatFunc(stat StatFunc) Option {
	return func(b *Backend) { b.stat = stat }
}

// WithForceWrite disables the metadata conflict check at flush time:
// buffered state always wins over concurrent external modification.
func WithForceWrite() Option {
	return func(b *Backend) { b.force = true }
}

// NewBackend returns a backend with its own registry, an in-memory cache,
// and [os.Stat] as the metadata probe unless overridden.
func NewBackend(opts ...Option) *Backend {
	b := &Backend{
		cache:    NewMemCache(),
		registry: NewRegistry(),
		stat:     os.Stat,
	}

	for _, opt := range opts {
		opt(b)
	}

	return b
}

// Cached reports whether path currently has a buffered entry.
func (b *Backend) Cached(path string) bool {
	return b.cache.Contains(path)
}

// Pending returns the number of collections awaiting flush.
func (b *Backend) Pending() int {
	return b.registry.Len()
}

// Load returns the buffered document for c's path, reading from the cache
// when an entry exists so repeated in-scope reads never touch disk.
//
// On the first load of a path it takes the baseline conflict-detection
// snapshot: it serializes c's current canonical state, records its digest
// and the file's current metadata (or absent, if the file does not exist
// yet) in a new entry, and registers c for batch flush. The snapshot must
// reflect exactly what is on disk at that instant, so callers refresh the
// document from disk before the first buffered access.
func (b *Backend) Load(c Collection) (any, error) {
	path := c.Path()

	if e, ok := b.cache.Get(path); ok {
		return decode(path, e.Contents)
	}

	blob, err := b.encode(c)
	if err != nil {
		return nil, err
	}

	meta, exists, err := Probe(b.stat, path)
	if err != nil {
		return nil, err
	}

	e := Entry{Contents: blob, Hash: Sum(blob)}
	if exists {
		e.Meta = &meta
	}

	b.cache.Set(path, e)
	b.registry.Add(c)

	return decode(path, blob)
}

// Store overwrites the buffered contents for c's path with c's current
// canonical state. The entry's baseline hash and metadata are left
// untouched for later conflict detection.
//
// A load must always precede a store in the buffering control flow; Store
// panics if no entry exists, since silently fabricating a baseline would
// mask a framework defect.
func (b *Backend) Store(c Collection) error {
	path := c.Path()

	e, ok := b.cache.Get(path)
	if !ok {
		panic("buffer: store before load for " + path)
	}

	blob, err := b.encode(c)
	if err != nil {
		return err
	}

	e.Contents = blob
	b.cache.Set(path, e)

	return nil
}

// Flush reconciles c's buffered state with its backing file and evicts the
// cache entry.
//
// It is a deliberate no-op while c (or another registered collection
// sharing the path) is still inside an outer buffered scope, and when the
// path has no entry (the collection never loaded data, or a sibling sharing
// the path already flushed it).
//
// If c's current digest equals the baseline nothing changed relative to
// disk at load time and no write happens. If it differs, the file's current
// metadata must still match the baseline; a mismatch fails with
// [ErrConflict] and the entry is retained. On a metadata match the buffered
// contents are decoded and committed through c. The entry is evicted on
// every path except conflict and commit failure.
func (b *Backend) Flush(c Collection) error {
	path := c.Path()

	if c.Buffered() || b.registry.pathDeferred(path) {
		return nil
	}

	e, ok := b.cache.Get(path)
	if !ok {
		return nil
	}

	blob, err := b.encode(c)
	if err != nil {
		return err
	}

	if Sum(blob) != e.Hash {
		if !b.force {
			conflictErr := b.checkBaseline(path, e)
			if conflictErr != nil {
				return conflictErr
			}
		}

		v, decodeErr := decode(path, e.Contents)
		if decodeErr != nil {
			return decodeErr
		}

		commitErr := c.Commit(v)
		if commitErr != nil {
			return fmt.Errorf("committing %s: %w", path, commitErr)
		}
	}

	b.cache.Delete(path)

	return nil
}

// FlushAll drains the registry, flushing each registered collection exactly
// once. Conflicts and filesystem errors are collected per path rather than
// aborting the drain, so every simultaneous failure is visible to the
// caller. The returned map is empty if all flushes succeeded.
func (b *Backend) FlushAll() map[string]error {
	issues := make(map[string]error)

	for {
		c, ok := b.registry.Pop()
		if !ok {
			break
		}

		err := b.Flush(c)
		if err != nil {
			issues[c.Path()] = err
		}
	}

	return issues
}

// checkBaseline re-probes path and compares against the entry's baseline
// metadata. A probe error propagates as-is: an environment fault is not a
// detected divergence and must not be reported as one.
func (b *Backend) checkBaseline(path string, e Entry) error {
	meta, exists, err := Probe(b.stat, path)
	if err != nil {
		return err
	}

	if e.Meta == nil {
		if exists {
			return fmt.Errorf("%s: %w", path, ErrConflict)
		}

		return nil
	}

	if !exists || !e.Meta.Equal(meta) {
		return fmt.Errorf("%s: %w", path, ErrConflict)
	}

	return nil
}

// encode serializes c's current canonical state. The strict encoding/json
// form is used uniformly for hashing and cached contents, so digests are
// reproducible by re-serializing the same decoded value.
func (b *Backend) encode(c Collection) ([]byte, error) {
	v, err := c.ToBase()
	if err != nil {
		return nil, fmt.Errorf("snapshotting %s: %w", c.Path(), err)
	}

	blob, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encoding %s: %w", c.Path(), err)
	}

	return blob, nil
}

func decode(path string, blob []byte) (any, error) {
	var v any

	err := json.Unmarshal(blob, &v)
	if err != nil {
		return nil, fmt.Errorf("decoding buffered contents of %s: %w", path, err)
	}

	return v, nil
}
