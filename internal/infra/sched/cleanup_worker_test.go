//go:build !integration

package sched

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

type fakeCleaner struct {
	calls int32
	err   error
}

func (f *fakeCleaner) CleanupExpired(ctx context.Context) (int64, error) {
	atomic.AddInt32(&f.calls, 1)
	if f.err != nil {
		return 0, f.err
	}
	return 2, nil
}

func TestCleanupWorker_SweepsOnTick(t *testing.T) {
	cleaner := &fakeCleaner{}
	log := zerolog.Nop()
	w := NewCleanupWorker(10*time.Millisecond, cleaner, &log)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	deadline := time.After(2 * time.Second)
	for atomic.LoadInt32(&cleaner.calls) < 2 {
		select {
		case <-deadline:
			t.Fatal("worker never swept")
		case <-time.After(5 * time.Millisecond):
		}
	}
	cancel()

	if err := <-done; !errors.Is(err, context.Canceled) {
		t.Fatalf("want context.Canceled on shutdown, got %v", err)
	}
}

func TestCleanupWorker_ErrorDoesNotStopLoop(t *testing.T) {
	cleaner := &fakeCleaner{err: errors.New("db down")}
	log := zerolog.Nop()
	w := NewCleanupWorker(10*time.Millisecond, cleaner, &log)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go w.Run(ctx) //nolint:errcheck

	deadline := time.After(2 * time.Second)
	for atomic.LoadInt32(&cleaner.calls) < 3 {
		select {
		case <-deadline:
			t.Fatal("worker stopped after an error")
		case <-time.After(5 * time.Millisecond):
		}
	}
}

func TestCleanupWorker_SweepsImmediatelyOnStart(t *testing.T) {
	cleaner := &fakeCleaner{}
	log := zerolog.Nop()
	// Interval far beyond the test: the only sweep that can happen is the
	// startup one.
	w := NewCleanupWorker(time.Hour, cleaner, &log)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go w.Run(ctx) //nolint:errcheck

	deadline := time.After(2 * time.Second)
	for atomic.LoadInt32(&cleaner.calls) < 1 {
		select {
		case <-deadline:
			t.Fatal("no sweep at startup")
		case <-time.After(5 * time.Millisecond):
		}
	}
}

func TestNewCleanupWorker_DefaultInterval(t *testing.T) {
	log := zerolog.Nop()
	w := NewCleanupWorker(0, &fakeCleaner{}, &log)
	if w.interval != DefaultCleanupInterval {
		t.Fatalf("want default interval, got %v", w.interval)
	}
}
