package progress

import (
	"context"
	"testing"
)

func TestMemoryTrackerSetGet(t *testing.T) {
	tr := NewMemoryTracker()
	ctx := context.Background()

	if _, _, ok := tr.Get(ctx, "doc-1"); ok {
		t.Fatal("unknown document should report no progress")
	}

	tr.Set(ctx, "doc-1", 40, "chunked")
	p, msg, ok := tr.Get(ctx, "doc-1")
	if !ok || p != 40 || msg != "chunked" {
		t.Errorf("got (%d, %q, %v), want (40, chunked, true)", p, msg, ok)
	}
}

func TestMemoryTrackerMonotonic(t *testing.T) {
	tr := NewMemoryTracker()
	ctx := context.Background()

	tr.Set(ctx, "doc-1", 80, "embedding done")
	tr.Set(ctx, "doc-1", 40, "stale retry update")

	p, msg, _ := tr.Get(ctx, "doc-1")
	if p != 80 || msg != "embedding done" {
		t.Errorf("progress moved backwards: got (%d, %q)", p, msg)
	}

	tr.Set(ctx, "doc-1", 100, "done")
	if p, _, _ := tr.Get(ctx, "doc-1"); p != 100 {
		t.Errorf("forward update rejected: got %d", p)
	}
}

func TestMemoryTrackerClear(t *testing.T) {
	tr := NewMemoryTracker()
	ctx := context.Background()

	tr.Set(ctx, "doc-1", 50, "half way")
	tr.Clear(ctx, "doc-1")

	if _, _, ok := tr.Get(ctx, "doc-1"); ok {
		t.Error("cleared document should report no progress")
	}
}

func TestMemoryTrackerIsolatesDocuments(t *testing.T) {
	tr := NewMemoryTracker()
	ctx := context.Background()

	tr.Set(ctx, "doc-1", 10, "a")
	tr.Set(ctx, "doc-2", 90, "b")

	if p, _, _ := tr.Get(ctx, "doc-1"); p != 10 {
		t.Errorf("doc-1 progress = %d, want 10", p)
	}
	if p, _, _ := tr.Get(ctx, "doc-2"); p != 90 {
		t.Errorf("doc-2 progress = %d, want 90", p)
	}
}
