package lifecycle

import (
	"context"
	"sync"

	"go.uber.org/zap"

	playground "github.com/querypath/playground"
	"github.com/querypath/playground/errors"
)

// State is the lifecycle of the evaluation module. Transitions are
// monotonic: Uninitialized -> Loading -> Ready | Failed. Failed is
// terminal for the session; there is no automatic retry.
type State int32

const (
	StateUninitialized State = iota
	StateLoading
	StateReady
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateLoading:
		return "loading"
	case StateReady:
		return "ready"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Loader performs the actual module load: fetch bytes, instantiate in a
// fresh guest context, wait for the call surface to settle.
type Loader func(ctx context.Context) (playground.Surface, error)

// Manager owns the one-time asynchronous load of the evaluation module.
//
// However many callers race on Initialize or EnsureReady, exactly one
// load attempt ever runs, and every caller observes the same outcome.
// An in-flight load is never cancelled; a waiter whose context expires
// gives up waiting, the load itself continues for everyone else.
type Manager struct {
	loader  Loader
	log     *zap.Logger
	surface playground.Surface
	lastErr error
	pending chan struct{}
	mu      sync.Mutex
	state   State
}

// NewManager creates a manager in StateUninitialized. Nothing is loaded
// until the first Initialize or EnsureReady call.
func NewManager(loader Loader, log *zap.Logger) *Manager {
	if log == nil {
		log = zap.NewNop()
	}
	return &Manager{
		loader: loader,
		log:    log,
		state:  StateUninitialized,
	}
}

// State returns the current lifecycle state.
func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Initialize starts the load on first call and returns its outcome.
// Every caller, first or concurrent or late, resolves against the same
// single load attempt.
func (m *Manager) Initialize(ctx context.Context) error {
	m.mu.Lock()
	switch m.state {
	case StateReady:
		m.mu.Unlock()
		return nil
	case StateFailed:
		err := m.lastErr
		m.mu.Unlock()
		return err
	case StateLoading:
		done := m.pending
		m.mu.Unlock()
		return m.await(ctx, done)
	}

	// First caller: transition to loading and run the load detached from
	// this caller's context, so cancelling one waiter cannot abort the
	// load for the others.
	m.state = StateLoading
	m.pending = make(chan struct{})
	done := m.pending
	m.mu.Unlock()

	m.log.Info("module load started")
	go m.load(context.WithoutCancel(ctx))

	return m.await(ctx, done)
}

func (m *Manager) load(ctx context.Context) {
	surface, err := m.loader(ctx)

	m.mu.Lock()
	if err != nil {
		m.state = StateFailed
		m.lastErr = err
	} else {
		m.state = StateReady
		m.surface = surface
	}
	close(m.pending)
	m.mu.Unlock()

	if err != nil {
		m.log.Error("module load failed", zap.Error(err))
	} else {
		m.log.Info("module ready")
	}
}

func (m *Manager) await(ctx context.Context, done <-chan struct{}) error {
	select {
	case <-done:
	case <-ctx.Done():
		select {
		case <-done: // resolved at the same instant; report the outcome
		default:
			return ctx.Err()
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state == StateFailed {
		return m.lastErr
	}
	return nil
}

// EnsureReady resolves to the loaded call surface. Ready returns
// immediately; Loading awaits the in-flight outcome; Uninitialized
// triggers the load; Failed returns InitializationFailed wrapping the
// recorded error. Every call path into the call bridge passes through
// here first.
func (m *Manager) EnsureReady(ctx context.Context) (playground.Surface, error) {
	if err := m.Initialize(ctx); err != nil {
		m.mu.Lock()
		failed := m.state == StateFailed
		m.mu.Unlock()
		if failed {
			return nil, errors.InitializationFailed(err)
		}
		return nil, err // waiter context expired; load still in flight
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.surface == nil {
		// Ready with no surface means Teardown already ran.
		return nil, errors.NotInitialized("evaluation module")
	}
	return m.surface, nil
}

// Teardown releases the loaded surface. The manager stays in its
// terminal state; a torn-down session is not restartable.
func (m *Manager) Teardown(ctx context.Context) error {
	m.mu.Lock()
	surface := m.surface
	m.surface = nil
	m.mu.Unlock()

	if surface == nil {
		return nil
	}
	return surface.Close(ctx)
}
