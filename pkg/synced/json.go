package synced

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sort"

	"github.com/natefinch/atomic"
	"github.com/tailscale/hujson"

	"github.com/srinathkp/signac/pkg/buffer"
)

// Document errors.
var (
	// ErrNotObject indicates the file (or a committed value) holds a JSON
	// value that is not an object.
	ErrNotObject = errors.New("synced: document is not a JSON object")
)

// JSONDoc is a JSON-object document backed by a file.
//
// A JSONDoc is not safe for concurrent use; at most one goroutine may
// mutate a given document at a time.
type JSONDoc struct {
	path    string
	backend *buffer.Backend
	data    map[string]any
	depth   int // buffered-scope depth; >0 defers writes to the backend
}

// NewJSONDoc returns a document backed by the file at path, buffering
// through backend. The file is not touched until the first access.
// Panics if backend is nil.
func NewJSONDoc(path string, backend *buffer.Backend) *JSONDoc {
	if backend == nil {
		panic("synced: backend is nil")
	}

	return &JSONDoc{path: path, backend: backend}
}

// Path returns the backing file path.
func (d *JSONDoc) Path() string { return d.path }

// Buffered reports whether the document is inside a buffered scope.
func (d *JSONDoc) Buffered() bool { return d.depth > 0 }

// ToBase returns the document's canonical JSON-compatible snapshot.
func (d *JSONDoc) ToBase() (any, error) {
	if d.data == nil {
		d.data = make(map[string]any)
	}

	return d.data, nil
}

// Commit durably writes a decoded value through to the backing file using
// an atomic rename.
func (d *JSONDoc) Commit(v any) error {
	m, ok := v.(map[string]any)
	if !ok {
		return fmt.Errorf("%s: %w", d.path, ErrNotObject)
	}

	d.data = m

	return d.write()
}

// EnterBuffered begins a buffered scope. Scopes nest: only the transition
// out of the outermost scope flushes. Entering the first scope refreshes
// the document from disk so the baseline snapshot taken by the backend
// reflects exactly what is on disk at that instant.
func (d *JSONDoc) EnterBuffered() error {
	if d.depth == 0 {
		err := d.refresh()
		if err != nil {
			return err
		}
	}

	d.depth++

	return nil
}

// ExitBuffered ends the innermost buffered scope. Exiting the outermost
// scope flushes the document through the backend; a conflict error from the
// flush leaves the buffered entry in place for inspection or retry.
// Panics if the document is not inside a buffered scope.
func (d *JSONDoc) ExitBuffered() error {
	if d.depth == 0 {
		panic("synced: ExitBuffered without matching EnterBuffered for " + d.path)
	}

	d.depth--

	if d.depth == 0 {
		return d.backend.Flush(d)
	}

	return nil
}

// Get returns the value stored under key.
func (d *JSONDoc) Get(key string) (any, bool, error) {
	err := d.load()
	if err != nil {
		return nil, false, err
	}

	v, ok := d.data[key]

	return v, ok, nil
}

// Set stores v under key and syncs the document.
func (d *JSONDoc) Set(key string, v any) error {
	err := d.load()
	if err != nil {
		return err
	}

	d.data[key] = v

	return d.sync()
}

// Delete removes key and syncs the document. Deleting a missing key still
// syncs, matching Set's write-through semantics.
func (d *JSONDoc) Delete(key string) error {
	err := d.load()
	if err != nil {
		return err
	}

	delete(d.data, key)

	return d.sync()
}

// Keys returns the document's keys in sorted order.
func (d *JSONDoc) Keys() ([]string, error) {
	err := d.load()
	if err != nil {
		return nil, err
	}

	keys := make([]string, 0, len(d.data))
	for k := range d.data {
		keys = append(keys, k)
	}

	sort.Strings(keys)

	return keys, nil
}

// Data returns the document's current contents. The map is the document's
// live state; callers must not mutate it directly.
func (d *JSONDoc) Data() (map[string]any, error) {
	err := d.load()
	if err != nil {
		return nil, err
	}

	return d.data, nil
}

// load refreshes in-memory state: from the buffer while buffered, from
// disk otherwise.
func (d *JSONDoc) load() error {
	if d.data == nil {
		d.data = make(map[string]any)
	}

	if d.Buffered() {
		v, err := d.backend.Load(d)
		if err != nil {
			return err
		}

		m, ok := v.(map[string]any)
		if !ok {
			return fmt.Errorf("%s: %w", d.path, ErrNotObject)
		}

		d.data = m

		return nil
	}

	return d.refresh()
}

// sync persists in-memory state: into the buffer while buffered, straight
// to the file otherwise.
func (d *JSONDoc) sync() error {
	if d.Buffered() {
		return d.backend.Store(d)
	}

	return d.write()
}

// refresh replaces in-memory state with the file's contents. A missing file
// leaves the current state alone (a new document starts empty). Files may
// be hand-edited, so the read path accepts HuJSON.
func (d *JSONDoc) refresh() error {
	raw, err := os.ReadFile(d.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			if d.data == nil {
				d.data = make(map[string]any)
			}

			return nil
		}

		return fmt.Errorf("reading %s: %w", d.path, err)
	}

	std, err := hujson.Standardize(raw)
	if err != nil {
		return fmt.Errorf("parsing %s: %w", d.path, err)
	}

	var m map[string]any

	err = json.Unmarshal(std, &m)
	if err != nil {
		return fmt.Errorf("parsing %s: %w", d.path, ErrNotObject)
	}

	d.data = m

	return nil
}

// write atomically replaces the backing file with the canonical encoding.
func (d *JSONDoc) write() error {
	blob, err := json.Marshal(d.data)
	if err != nil {
		return fmt.Errorf("encoding %s: %w", d.path, err)
	}

	err = atomic.WriteFile(d.path, bytes.NewReader(blob))
	if err != nil {
		return fmt.Errorf("writing %s: %w", d.path, err)
	}

	return nil
}
