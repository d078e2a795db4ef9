package shutdown

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	"smartsummarizer/core"
	"smartsummarizer/logging"

	"go.uber.org/zap"
)

// DefaultTimeout bounds the whole shutdown sequence.
const DefaultTimeout = 60 * time.Second

// Manager ties together the operation tracker, the cleanup registry and
// signal handling.
//
//	m := shutdown.NewManager(logger)
//	m.Register("history", shutdown.PriorityHistory, shutdown.Func(repo.Close))
//	m.Start()
//	<-m.Context().Done()
//	m.Shutdown()
type Manager struct {
	logger   *logging.Logger
	timeout  time.Duration
	exit     func(code int)
	mu       sync.Mutex
	started  bool
	shutdown bool
	signal   os.Signal

	ctx    context.Context
	cancel context.CancelFunc

	inflight *Inflight
	hooks    Hooks
	signals  atomic.Int32
	sigChan  chan os.Signal
}

// ManagerOption configures a Manager.
type ManagerOption func(*Manager)

// WithTimeout sets the shutdown timeout duration.
func WithTimeout(timeout time.Duration) ManagerOption {
	return func(m *Manager) {
		m.timeout = timeout
	}
}

// WithExitFunc replaces os.Exit for the forced second-signal exit.
func WithExitFunc(exit func(code int)) ManagerOption {
	return func(m *Manager) {
		m.exit = exit
	}
}

// NewManager creates a Manager. A nil logger discards output.
func NewManager(logger *logging.Logger, opts ...ManagerOption) *Manager {
	if logger == nil {
		logger = logging.NewNop()
	}
	ctx, cancel := context.WithCancel(context.Background())

	m := &Manager{
		logger:   logger.Named("shutdown"),
		timeout:  DefaultTimeout,
		exit:     os.Exit,
		ctx:      ctx,
		cancel:   cancel,
		inflight: NewInflight(),
		sigChan:  make(chan os.Signal, 2),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Context is cancelled as soon as shutdown begins.
func (m *Manager) Context() context.Context {
	return m.ctx
}

// Register adds a cleanup function; lower priority runs first.
func (m *Manager) Register(name string, priority int, fn Hook) {
	m.hooks.Add(name, priority, fn)
	m.logger.Debug("Registered shutdown handler",
		zap.String("name", name),
		zap.Int("priority", priority),
	)
}

// Start listens for SIGINT and SIGTERM. Calling it again is a no-op.
func (m *Manager) Start() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.started {
		return
	}
	m.started = true

	signal.Notify(m.sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		for sig := range m.sigChan {
			m.handleSignal(sig)
		}
	}()
}

// handleSignal starts a graceful shutdown on the first signal and exits
// immediately on the second.
func (m *Manager) handleSignal(sig os.Signal) {
	if m.signals.Add(1) > 1 {
		m.logger.Warn("Received second signal, forcing immediate shutdown",
			zap.String("signal", sig.String()),
		)
		_ = m.logger.Sync()
		m.exit(core.ExitCodeError)
		return
	}

	m.mu.Lock()
	m.signal = sig
	m.mu.Unlock()
	m.logger.Info("Received shutdown signal, initiating graceful shutdown",
		zap.String("signal", sig.String()),
	)
	m.cancel()
}

// Trigger starts shutdown without a signal, e.g. when the HTTP server fails.
func (m *Manager) Trigger() {
	m.cancel()
}

// Signal returns the first signal received, or nil.
func (m *Manager) Signal() os.Signal {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.signal
}

// ExitCode is the code the process should exit with after Shutdown.
func (m *Manager) ExitCode() int {
	if sig := m.Signal(); sig != nil {
		return ExitCodeForSignal(sig)
	}
	return core.ExitCodeSuccess
}

// Shutdown rejects new operations, waits for in-flight ones and then runs
// the registered cleanups. It is idempotent.
func (m *Manager) Shutdown() error {
	m.mu.Lock()
	if m.shutdown {
		m.mu.Unlock()
		return nil
	}
	m.shutdown = true
	started := m.started
	m.mu.Unlock()

	m.cancel()
	startTime := time.Now()
	m.logger.Info("Initiating graceful shutdown",
		zap.Duration("timeout", m.timeout),
		zap.Int("registered_handlers", m.hooks.Len()),
	)

	m.inflight.Close()
	if active := m.inflight.Active(); active > 0 {
		m.logger.Info("Waiting for in-flight summarizations", zap.Int64("active_count", active))
	}
	if err := m.inflight.Drain(m.timeout); err != nil {
		m.logger.Warn("Timeout waiting for in-flight summarizations",
			zap.Duration("waited", time.Since(startTime)),
			zap.Int64("remaining", m.inflight.Active()),
		)
	}

	remaining := m.timeout - time.Since(startTime)
	if remaining < time.Second {
		remaining = time.Second
	}
	ctx, cancel := context.WithTimeout(context.Background(), remaining)
	defer cancel()

	errs := m.hooks.Run(ctx)
	for _, err := range errs {
		m.logger.Error("Cleanup function failed", zap.Error(err))
	}

	if started {
		signal.Stop(m.sigChan)
		close(m.sigChan)
	}

	if len(errs) > 0 {
		return fmt.Errorf("shutdown had %d errors: %w", len(errs), errs[0])
	}
	m.logger.Info("Graceful shutdown completed", zap.Duration("duration", time.Since(startTime)))
	return nil
}

// Track registers an in-flight operation. ok is false once shutdown has
// begun; otherwise done must be called when the operation ends.
func (m *Manager) Track() (done func(), ok bool) {
	if !m.inflight.Begin() {
		return nil, false
	}
	var once sync.Once
	return func() { once.Do(m.inflight.End) }, true
}

// WrapOperation runs fn as a tracked operation.
func (m *Manager) WrapOperation(ctx context.Context, name string, fn func(context.Context) error) error {
	done, ok := m.Track()
	if !ok {
		m.logger.Debug("Operation rejected, shutting down", zap.String("operation", name))
		return ErrTrackerClosed
	}
	defer done()

	if err := ctx.Err(); err != nil {
		return err
	}
	return fn(ctx)
}

// ActiveOperations returns the count of currently in-flight operations.
func (m *Manager) ActiveOperations() int64 {
	return m.inflight.Active()
}

// IsShuttingDown reports whether shutdown has been initiated.
func (m *Manager) IsShuttingDown() bool {
	return m.ctx.Err() != nil || m.inflight.Closed()
}

// RegisteredHandlers returns handler names in execution order.
func (m *Manager) RegisteredHandlers() []string {
	return m.hooks.Names()
}
