package db

import (
	"context"
	"sync"
	"time"
)

// DefaultChannelCapacity is the default buffer size for async write channels.
const DefaultChannelCapacity = 100

// DefaultDrainTimeout is the maximum time to wait for pending writes during shutdown.
const DefaultDrainTimeout = 30 * time.Second

// WriteHandler persists one queued item.
type WriteHandler[T any] func(ctx context.Context, item T) error

// AsyncWriterConfig holds configuration for the async writer.
type AsyncWriterConfig struct {
	ChannelCapacity int
	DrainTimeout    time.Duration
	// OnError receives handler failures; nil discards them.
	OnError func(error)
}

// DefaultAsyncWriterConfig returns the default configuration.
func DefaultAsyncWriterConfig() AsyncWriterConfig {
	return AsyncWriterConfig{
		ChannelCapacity: DefaultChannelCapacity,
		DrainTimeout:    DefaultDrainTimeout,
	}
}

// AsyncWriter moves writes off the request path: Write queues into a buffered
// channel and a single goroutine applies the handler in order.
type AsyncWriter[T any] struct {
	writeChan chan T
	handler   WriteHandler[T]
	config    AsyncWriterConfig

	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	mu      sync.Mutex
	started bool
	stopped bool
}

// NewAsyncWriter creates a writer; call Start before queuing.
func NewAsyncWriter[T any](handler WriteHandler[T], config AsyncWriterConfig) *AsyncWriter[T] {
	if config.ChannelCapacity <= 0 {
		config.ChannelCapacity = DefaultChannelCapacity
	}
	if config.DrainTimeout <= 0 {
		config.DrainTimeout = DefaultDrainTimeout
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &AsyncWriter[T]{
		writeChan: make(chan T, config.ChannelCapacity),
		handler:   handler,
		config:    config,
		ctx:       ctx,
		cancel:    cancel,
	}
}

// Start launches the background goroutine. Repeated calls are no-ops.
func (w *AsyncWriter[T]) Start() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.started || w.stopped {
		return
	}
	w.started = true
	w.wg.Add(1)
	go w.processWrites()
}

func (w *AsyncWriter[T]) processWrites() {
	defer w.wg.Done()

	for {
		select {
		case <-w.ctx.Done():
			w.drain()
			return
		case item := <-w.writeChan:
			w.apply(item)
		}
	}
}

func (w *AsyncWriter[T]) drain() {
	for {
		select {
		case item := <-w.writeChan:
			w.apply(item)
		default:
			return
		}
	}
}

func (w *AsyncWriter[T]) apply(item T) {
	// Items queued before shutdown still get written, so they use a fresh context.
	ctx, cancel := context.WithTimeout(context.Background(), w.config.DrainTimeout)
	defer cancel()
	if err := w.handler(ctx, item); err != nil && w.config.OnError != nil {
		w.config.OnError(err)
	}
}

// Write queues an item without blocking. It returns false when the writer is
// not running or the buffer is full.
func (w *AsyncWriter[T]) Write(item T) bool {
	w.mu.Lock()
	defer w.mu.Unlock()

	if !w.started || w.stopped {
		return false
	}
	select {
	case w.writeChan <- item:
		return true
	default:
		return false
	}
}

// Pending returns the number of items waiting in the buffer.
func (w *AsyncWriter[T]) Pending() int {
	return len(w.writeChan)
}

// IsStarted reports whether the background goroutine is accepting writes.
func (w *AsyncWriter[T]) IsStarted() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.started && !w.stopped
}

// Stop refuses further writes and drains what is queued, waiting at most the
// configured drain timeout. It reports whether the drain finished in time.
func (w *AsyncWriter[T]) Stop() bool {
	w.mu.Lock()
	if w.stopped {
		w.mu.Unlock()
		return true
	}
	w.stopped = true
	w.mu.Unlock()

	w.cancel()

	done := make(chan struct{})
	go func() {
		w.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return true
	case <-time.After(w.config.DrainTimeout):
		return false
	}
}
