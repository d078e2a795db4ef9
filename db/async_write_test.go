package db

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestAsyncWriterProcessesInOrder(t *testing.T) {
	var mu sync.Mutex
	var got []int

	w := NewAsyncWriter(func(_ context.Context, n int) error {
		mu.Lock()
		got = append(got, n)
		mu.Unlock()
		return nil
	}, DefaultAsyncWriterConfig())
	w.Start()

	for i := 0; i < 5; i++ {
		if !w.Write(i) {
			t.Fatalf("Write(%d) = false", i)
		}
	}
	if !w.Stop() {
		t.Fatal("Stop() timed out")
	}

	mu.Lock()
	defer mu.Unlock()
	if len(got) != 5 {
		t.Fatalf("processed %d items, want 5", len(got))
	}
	for i, n := range got {
		if n != i {
			t.Errorf("got[%d] = %d, want %d", i, n, i)
		}
	}
}

func TestAsyncWriterRejectsWhenNotRunning(t *testing.T) {
	w := NewAsyncWriter(func(context.Context, string) error { return nil }, DefaultAsyncWriterConfig())
	if w.Write("early") {
		t.Error("Write before Start should return false")
	}
	w.Start()
	if !w.IsStarted() {
		t.Error("IsStarted() = false after Start")
	}
	w.Stop()
	if w.Write("late") {
		t.Error("Write after Stop should return false")
	}
	if w.IsStarted() {
		t.Error("IsStarted() = true after Stop")
	}
	if !w.Stop() {
		t.Error("second Stop() should return true")
	}
}

func TestAsyncWriterChannelFull(t *testing.T) {
	block := make(chan struct{})
	w := NewAsyncWriter(func(context.Context, int) error {
		<-block
		return nil
	}, AsyncWriterConfig{ChannelCapacity: 2, DrainTimeout: time.Second})
	w.Start()

	accepted := 0
	for i := 0; i < 10; i++ {
		if w.Write(i) {
			accepted++
		}
	}
	// One item may be held by the handler plus two in the buffer.
	if accepted > 3 {
		t.Errorf("accepted %d writes, want at most 3", accepted)
	}
	close(block)
	w.Stop()
}

func TestAsyncWriterReportsErrors(t *testing.T) {
	var failures int64
	w := NewAsyncWriter(func(context.Context, int) error {
		return errors.New("disk full")
	}, AsyncWriterConfig{OnError: func(error) { atomic.AddInt64(&failures, 1) }})
	w.Start()
	w.Write(1)
	w.Write(2)
	w.Stop()

	if n := atomic.LoadInt64(&failures); n != 2 {
		t.Errorf("OnError called %d times, want 2", n)
	}
}

func TestAsyncWriterStopTimeout(t *testing.T) {
	release := make(chan struct{})
	defer close(release)

	w := NewAsyncWriter(func(context.Context, int) error {
		<-release
		return nil
	}, AsyncWriterConfig{DrainTimeout: 20 * time.Millisecond})
	w.Start()
	w.Write(1)
	time.Sleep(10 * time.Millisecond)

	if w.Stop() {
		t.Error("Stop() should report timeout while the handler is blocked")
	}
}
