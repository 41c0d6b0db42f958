package buffer

import "errors"

// Errors returned by buffer operations.
//
// Callers should use [errors.Is] to check error types:
//
//	if errors.Is(err, buffer.ErrConflict) {
//	    // the on-disk file changed while buffered; resolve and retry
//	}
var (
	// ErrConflict indicates the on-disk file was modified by another actor
	// during the buffering window while the buffer also holds a differing
	// value. The cache entry is retained so the unresolved state stays
	// inspectable; it is never auto-retried.
	ErrConflict = errors.New("buffer: file appears to have been externally modified")
)
