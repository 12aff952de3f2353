package memory

import (
	"context"
	"testing"
	"time"
)

func TestLocker_AcquireRelease(t *testing.T) {
	ctx := context.Background()
	l := NewLocker()

	ok, err := l.TryAcquire(ctx, 10*time.Millisecond)
	if err != nil || !ok {
		t.Fatalf("TryAcquire = (%v, %v), want held", ok, err)
	}

	// Held lock times out for a second caller.
	ok, err = l.TryAcquire(ctx, 10*time.Millisecond)
	if err != nil {
		t.Fatalf("TryAcquire failed: %v", err)
	}
	if ok {
		t.Fatal("acquired a held lock")
	}

	if err := l.Release(ctx); err != nil {
		t.Fatalf("Release failed: %v", err)
	}
	ok, err = l.TryAcquire(ctx, 10*time.Millisecond)
	if err != nil || !ok {
		t.Fatalf("TryAcquire after Release = (%v, %v), want held", ok, err)
	}
}

func TestLocker_ReleaseUnheld(t *testing.T) {
	l := NewLocker()
	if err := l.Release(context.Background()); err != nil {
		t.Fatalf("Release of unheld lock failed: %v", err)
	}
}

func TestLocker_ContextCancellation(t *testing.T) {
	l := NewLocker()
	ctx := context.Background()
	if ok, _ := l.TryAcquire(ctx, time.Millisecond); !ok {
		t.Fatal("initial acquire failed")
	}

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	ok, err := l.TryAcquire(cancelled, time.Second)
	if ok {
		t.Error("acquired with cancelled context")
	}
	if err == nil {
		t.Error("expected context error")
	}
}

func TestLocker_ReleaseAll(t *testing.T) {
	ctx := context.Background()
	l := NewLocker()
	if ok, _ := l.TryAcquire(ctx, time.Millisecond); !ok {
		t.Fatal("initial acquire failed")
	}
	if err := l.ReleaseAll(ctx); err != nil {
		t.Fatalf("ReleaseAll failed: %v", err)
	}
	if ok, _ := l.TryAcquire(ctx, time.Millisecond); !ok {
		t.Error("lock still held after ReleaseAll")
	}
}
