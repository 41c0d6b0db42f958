package buffer

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestProbeExistingFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "a.json")

	err := os.WriteFile(path, []byte(`{"x":1}`), 0o644)
	if err != nil {
		t.Fatal(err)
	}

	meta, ok, probeErr := Probe(os.Stat, path)
	if probeErr != nil {
		t.Fatalf("Probe failed: %v", probeErr)
	}

	if !ok {
		t.Fatal("expected ok for an existing file")
	}

	if meta.Size != int64(len(`{"x":1}`)) {
		t.Errorf("unexpected size %d", meta.Size)
	}

	info, statErr := os.Stat(path)
	if statErr != nil {
		t.Fatal(statErr)
	}

	if !meta.MTime.Equal(info.ModTime()) {
		t.Errorf("mtime mismatch: %v vs %v", meta.MTime, info.ModTime())
	}
}

func TestProbeMissingFileIsNotAnError(t *testing.T) {
	t.Parallel()

	meta, ok, err := Probe(os.Stat, filepath.Join(t.TempDir(), "missing.json"))
	if err != nil {
		t.Fatalf("missing file must not be an error, got %v", err)
	}

	if ok {
		t.Error("expected ok=false for a missing file")
	}

	if meta != (Metadata{}) {
		t.Errorf("expected zero metadata, got %+v", meta)
	}
}

func TestProbeIOFailurePropagates(t *testing.T) {
	t.Parallel()

	_, _, err := Probe(func(string) (os.FileInfo, error) {
		return nil, os.ErrPermission
	}, "/etc/locked.json")

	if !errors.Is(err, os.ErrPermission) {
		t.Fatalf("expected the stat failure unmodified, got %v", err)
	}
}

func TestMetadataEqualIgnoresMonotonicClock(t *testing.T) {
	t.Parallel()

	now := time.Now()
	a := Metadata{Size: 7, MTime: now}
	b := Metadata{Size: 7, MTime: now.Round(0)}

	if !a.Equal(b) {
		t.Error("stripping the monotonic reading must not break equality")
	}

	c := Metadata{Size: 8, MTime: now}
	if a.Equal(c) {
		t.Error("size change must break equality")
	}
}
