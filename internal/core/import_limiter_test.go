package core

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestImportLimiterAcquireRelease(t *testing.T) {
	l := NewImportLimiter(2, 50*time.Millisecond)

	if err := l.Acquire(context.Background()); err != nil {
		t.Fatalf("first acquire: %v", err)
	}
	if err := l.Acquire(context.Background()); err != nil {
		t.Fatalf("second acquire: %v", err)
	}
	if got := l.ActiveCount(); got != 2 {
		t.Errorf("ActiveCount = %d, want 2", got)
	}
	if got := l.Available(); got != 0 {
		t.Errorf("Available = %d, want 0", got)
	}

	// Third acquire times out.
	err := l.Acquire(context.Background())
	if !errors.Is(err, ErrTooManyImports) {
		t.Errorf("third acquire = %v, want ErrTooManyImports", err)
	}

	l.Release()
	if err := l.Acquire(context.Background()); err != nil {
		t.Errorf("acquire after release: %v", err)
	}

	l.Release()
	l.Release()
}

func TestImportLimiterTryAcquire(t *testing.T) {
	l := NewImportLimiter(1, time.Second)

	if !l.TryAcquire() {
		t.Fatal("first TryAcquire failed")
	}
	if l.TryAcquire() {
		t.Error("second TryAcquire succeeded with no free slot")
	}
	l.Release()
	if !l.TryAcquire() {
		t.Error("TryAcquire after release failed")
	}
	l.Release()
}

func TestImportLimiterContextCancellation(t *testing.T) {
	l := NewImportLimiter(1, time.Minute)
	if err := l.Acquire(context.Background()); err != nil {
		t.Fatal(err)
	}
	defer l.Release()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := l.Acquire(ctx)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Acquire with cancelled context = %v, want context.Canceled", err)
	}
}

func TestImportLimiterDefaults(t *testing.T) {
	l := NewImportLimiter(0, 0)
	status := l.Status()
	if status.MaxConcurrent != DefaultMaxConcurrentImports {
		t.Errorf("MaxConcurrent = %d, want %d", status.MaxConcurrent, DefaultMaxConcurrentImports)
	}
}

func TestImportLimiterWaitForDrain(t *testing.T) {
	l := NewImportLimiter(1, time.Second)
	if err := l.Acquire(context.Background()); err != nil {
		t.Fatal(err)
	}

	go func() {
		time.Sleep(150 * time.Millisecond)
		l.Release()
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := l.WaitForDrain(ctx); err != nil {
		t.Errorf("WaitForDrain: %v", err)
	}
}

func TestImportLimiterStatus(t *testing.T) {
	l := NewImportLimiter(3, time.Second)
	l.TryAcquire()
	defer l.Release()

	status := l.Status()
	if status.Active != 1 || status.Available != 2 || status.MaxConcurrent != 3 {
		t.Errorf("Status = %+v", status)
	}
}
