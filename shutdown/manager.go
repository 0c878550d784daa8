package shutdown

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"go.uber.org/zap"

	"sdprompt/core"
	"sdprompt/logging"
)

// DefaultTimeout bounds how long Shutdown waits for a generation to finish.
const DefaultTimeout = 60 * time.Second

// Cleanup priorities used by sdprompt. Lower runs first.
const (
	PriorityEngine  = 10
	PriorityHistory = 20
	PriorityTemp    = 40
)

// Manager owns the process context. It is cancelled by the first signal or
// by the parent context.
//
// This organism composes:
//   - tracker: in-flight generations
//   - registry: ordered cleanup steps
//   - signal counting: second signal forces exit
type Manager struct {
	logger  *logging.Logger
	timeout time.Duration
	onForce func()

	ctx    context.Context
	cancel context.CancelFunc

	tracker  tracker
	registry registry

	mu       sync.Mutex
	started  bool
	finished bool
	signals  int
	sigChan  chan os.Signal
}

// Option configures a Manager.
type Option func(*Manager)

// WithTimeout sets how long Shutdown waits for in-flight operations.
func WithTimeout(timeout time.Duration) Option {
	return func(m *Manager) {
		m.timeout = timeout
	}
}

// WithForceExit replaces the second-signal action, os.Exit(130) by default.
func WithForceExit(fn func()) Option {
	return func(m *Manager) {
		m.onForce = fn
	}
}

// NewManager creates a Manager whose context is derived from parent.
func NewManager(parent context.Context, logger *logging.Logger, opts ...Option) *Manager {
	if logger == nil {
		logger = logging.NewNop()
	}
	ctx, cancel := context.WithCancel(parent)

	m := &Manager{
		logger:  logger.Named("shutdown"),
		timeout: DefaultTimeout,
		onForce: func() { os.Exit(core.ExitCodeSIGINT) },
		ctx:     ctx,
		cancel:  cancel,
		sigChan: make(chan os.Signal, 2),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Context is cancelled when shutdown has been requested.
func (m *Manager) Context() context.Context {
	return m.ctx
}

// Register adds a cleanup step. Steps registered after Shutdown are ignored.
func (m *Manager) Register(name string, priority int, fn Func) {
	m.registry.register(name, priority, fn)
	m.logger.Debug("registered cleanup", zap.String("name", name), zap.Int("priority", priority))
}

// Start listens for SIGINT and SIGTERM. Calling it twice is a no-op.
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

func (m *Manager) handleSignal(sig os.Signal) {
	m.mu.Lock()
	m.signals++
	count := m.signals
	m.mu.Unlock()

	if count == 1 {
		m.logger.Info("received signal, shutting down (repeat to force)", zap.String("signal", sig.String()))
		m.cancel()
		return
	}
	m.logger.Warn("received second signal, forcing exit")
	_ = m.logger.Sync()
	m.onForce()
}

// Track runs fn as an in-flight operation that Shutdown will wait for.
// After Shutdown has begun it returns ErrShuttingDown without calling fn.
func (m *Manager) Track(fn func() error) error {
	if !m.tracker.start() {
		return ErrShuttingDown
	}
	defer m.tracker.done()
	return fn()
}

// Shutdown cancels the context, waits for tracked operations and runs the
// cleanup steps. It is idempotent.
func (m *Manager) Shutdown() error {
	m.mu.Lock()
	if m.finished {
		m.mu.Unlock()
		return nil
	}
	m.finished = true
	started := m.started
	m.mu.Unlock()

	start := time.Now()
	m.cancel()
	m.tracker.close()

	var errs []error
	if n := m.tracker.activeCount(); n > 0 {
		m.logger.Info("waiting for in-flight generation", zap.Int("active", n))
	}
	if err := m.tracker.wait(m.timeout); err != nil {
		m.logger.Warn("in-flight generation did not finish", zap.Duration("waited", m.timeout))
		errs = append(errs, err)
	}

	remaining := m.timeout - time.Since(start)
	if remaining < time.Second {
		remaining = time.Second
	}
	ctx, cancel := context.WithTimeout(context.Background(), remaining)
	defer cancel()

	m.logger.Debug("running cleanup", zap.Strings("steps", m.registry.names()))
	for _, err := range m.registry.run(ctx) {
		m.logger.Error("cleanup step failed", zap.Error(err))
		errs = append(errs, err)
	}

	if started {
		signal.Stop(m.sigChan)
		close(m.sigChan)
	}

	m.logger.Debug("shutdown complete", zap.Duration("duration", time.Since(start)))
	return errors.Join(errs...)
}
