// Package buffer implements write-back buffering for file-backed synced
// documents.
//
// While a document is inside a buffered scope, its mutations land in an
// in-memory cache instead of the file. On the first buffered load of a path
// the backend records a baseline snapshot (content digest plus file size and
// mtime). When the scope ends, the backend compares the document's current
// digest against that baseline: an unchanged digest means the flush is a
// no-op, a changed digest triggers a metadata check against the baseline
// before writing through. A metadata mismatch means another actor modified
// the file during the buffering window; the flush fails with [ErrConflict]
// and the cache entry is retained for inspection or retry.
//
// The main types are:
//   - [Backend]: load/store/flush primitives over a [Cache]
//   - [Cache]: pluggable path -> [Entry] store ([MemCache] by default)
//   - [Registry]: the collections with live buffered state, drained by
//     [Backend.FlushAll]
//   - [Collection]: the contract a buffered document must satisfy
//
// The package detects conflicting external modification at flush time; it
// does not coordinate concurrent writers or merge their changes.
package buffer
