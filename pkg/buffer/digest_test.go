package buffer

import "testing"

func TestSumEqualBlobsEqualDigests(t *testing.T) {
	t.Parallel()

	a := Sum([]byte(`{"x":1}`))
	b := Sum([]byte(`{"x":1}`))

	if a != b {
		t.Errorf("equal blobs must yield equal digests: %s vs %s", a, b)
	}

	if a.IsZero() {
		t.Error("digest of real content must not be the absent sentinel")
	}
}

func TestSumDifferentBlobsDiffer(t *testing.T) {
	t.Parallel()

	a := Sum([]byte(`{"x":1}`))
	b := Sum([]byte(`{"x":2}`))

	if a == b {
		t.Error("different blobs should yield different digests")
	}
}

func TestSumNilBlobIsAbsent(t *testing.T) {
	t.Parallel()

	if !Sum(nil).IsZero() {
		t.Error("nil blob must yield the absent digest")
	}
}

func TestSumEmptyBlobIsNotAbsent(t *testing.T) {
	t.Parallel()

	d := Sum([]byte{})
	if d.IsZero() {
		t.Error("empty blob is real content, not the absent sentinel")
	}
}

func TestSumStableValue(t *testing.T) {
	t.Parallel()

	// The digest is persisted across loads; its value must never drift.
	got := Sum([]byte(`{"x":1}`))

	const want = Digest("ac3ef48caa08fa3ed5e025da69edc645")
	if got != want {
		t.Errorf("digest value changed: got %s, want %s", got, want)
	}
}
