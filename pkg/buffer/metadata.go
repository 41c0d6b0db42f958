package buffer

import (
	"errors"
	"fmt"
	"os"
	"time"
)

// Metadata is the (size, mtime) pair recorded for a file at baseline time
// and compared at flush time to detect external modification.
type Metadata struct {
	Size  int64
	MTime time.Time
}

// Equal reports whether two metadata values describe the same file state.
// MTime is compared with [time.Time.Equal] so monotonic-clock readings and
// location differences don't cause spurious mismatches.
func (m Metadata) Equal(other Metadata) bool {
	return m.Size == other.Size && m.MTime.Equal(other.MTime)
}

// StatFunc probes a path for file info. Production code uses [os.Stat];
// tests inject failures through this seam.
type StatFunc func(path string) (os.FileInfo, error)

// Probe returns path's metadata. A missing file is not an error: it returns
// ok=false with a nil error. Any other stat failure (permission denied,
// unreachable mount) propagates unmodified wrapped with the path, since it
// indicates an environment fault the caller cannot paper over.
func Probe(stat StatFunc, path string) (Metadata, bool, error) {
	info, err := stat(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Metadata{}, false, nil
		}

		return Metadata{}, false, fmt.Errorf("probing %s: %w", path, err)
	}

	return Metadata{Size: info.Size(), MTime: info.ModTime()}, true, nil
}
