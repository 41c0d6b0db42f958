package buffer

import "testing"

func TestRegistryPopIsDestructiveLIFO(t *testing.T) {
	t.Parallel()

	r := NewRegistry()

	first := &fakeDoc{path: "first.json"}
	second := &fakeDoc{path: "second.json"}

	r.Add(first)
	r.Add(second)

	if r.Len() != 2 {
		t.Fatalf("expected 2 registered, got %d", r.Len())
	}

	c, ok := r.Pop()
	if !ok || c.Path() != "second.json" {
		t.Errorf("expected second.json first, got %v", c)
	}

	c, ok = r.Pop()
	if !ok || c.Path() != "first.json" {
		t.Errorf("expected first.json next, got %v", c)
	}

	_, ok = r.Pop()
	if ok {
		t.Error("drained registry should report empty")
	}

	if r.Len() != 0 {
		t.Errorf("expected empty registry, got %d", r.Len())
	}
}

func TestRegistryPathDeferred(t *testing.T) {
	t.Parallel()

	r := NewRegistry()

	open := &fakeDoc{path: "shared.json", buffered: true}
	closed := &fakeDoc{path: "other.json"}

	r.Add(open)
	r.Add(closed)

	if !r.pathDeferred("shared.json") {
		t.Error("a still-buffered collection must defer its path")
	}

	if r.pathDeferred("other.json") {
		t.Error("an unbuffered collection must not defer its path")
	}

	if r.pathDeferred("unknown.json") {
		t.Error("unregistered paths are never deferred")
	}
}
