package recovery

import (
	"context"
	"testing"
	"time"
)

func TestMemoryQueueOrdering(t *testing.T) {
	q := NewMemoryQueue()
	ctx := context.Background()
	now := time.Now()

	q.Push(ctx, PendingAudio{Path: "/tmp/new.wav", ModTime: now})
	q.Push(ctx, PendingAudio{Path: "/tmp/old.wav", ModTime: now.Add(-time.Hour)})
	q.Push(ctx, PendingAudio{Path: "/tmp/mid.wav", ModTime: now.Add(-time.Minute)})

	want := []string{"/tmp/old.wav", "/tmp/mid.wav", "/tmp/new.wav"}
	for _, expected := range want {
		item, ok, err := q.Pop(ctx)
		if err != nil || !ok {
			t.Fatalf("Pop failed: ok=%v err=%v", ok, err)
		}
		if item.Path != expected {
			t.Errorf("Expected %s, got %s", expected, item.Path)
		}
	}

	if _, ok, _ := q.Pop(ctx); ok {
		t.Error("Queue should be empty")
	}
}

func TestMemoryQueueDeduplicates(t *testing.T) {
	q := NewMemoryQueue()
	ctx := context.Background()

	q.Push(ctx, PendingAudio{Path: "/tmp/a.wav", ModTime: time.Now()})
	q.Push(ctx, PendingAudio{Path: "/tmp/a.wav", ModTime: time.Now()})

	n, err := q.Len(ctx)
	if err != nil {
		t.Fatalf("Len failed: %v", err)
	}
	if n != 1 {
		t.Errorf("Expected 1 item after duplicate push, got %d", n)
	}
}
