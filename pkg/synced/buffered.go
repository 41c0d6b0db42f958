package synced

import "github.com/srinathkp/signac/pkg/buffer"

// Buffered runs fn with every doc inside a buffered scope, then flushes the
// backend's whole registry. Mutations made by fn land in the buffer and hit
// the filesystem once, when this call flushes.
//
// The returned map carries per-path flush failures (conflicts, filesystem
// errors); it is empty if every flush succeeded. The error is fn's own
// error, if any. Flushing happens even when fn fails, so buffered state is
// always reconciled or reported.
func Buffered(b *buffer.Backend, docs []*JSONDoc, fn func() error) (map[string]error, error) {
	for i, d := range docs {
		err := d.EnterBuffered()
		if err != nil {
			for j := 0; j < i; j++ {
				docs[j].depth--
			}

			return b.FlushAll(), err
		}
	}

	fnErr := fn()

	// Close the scopes without the per-instance flush; FlushAll drains the
	// registry and collects every failure instead of stopping at the first.
	for _, d := range docs {
		d.depth--
	}

	return b.FlushAll(), fnErr
}
