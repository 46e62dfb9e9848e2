package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/aretw0/commitquest/internal/logging"
	"github.com/aretw0/commitquest/pkg/domain"
	"github.com/aretw0/commitquest/pkg/ports"
)

// DefaultLockTTL bounds how long a distributed lock survives a crashed holder.
const DefaultLockTTL = 30 * time.Second

// lockMargin covers the load and save around a backend call.
const lockMargin = 10 * time.Second

// LockTTLFor returns a distributed lock expiry that outlives a backend call
// bounded by timeout. A zero timeout leaves calls unbounded and gets DefaultLockTTL.
func LockTTLFor(timeout time.Duration) time.Duration {
	if ttl := timeout + lockMargin; timeout > 0 && ttl > DefaultLockTTL {
		return ttl
	}
	return DefaultLockTTL
}

// Engine is the subset of the quest engine the manager drives.
type Engine interface {
	Start(sessionID string) *domain.State
	Submit(ctx context.Context, state *domain.State, raw string) (*domain.State, error)
}

// Observer is told about every persisted change.
type Observer func(sessionID string, diff *domain.StateDiff)

// lockEntry holds the mutex and the reference count.
type lockEntry struct {
	mu   sync.Mutex
	refs int
}

// Manager orchestrates session access, ensuring safe concurrent operations.
// It uses reference counting to garbage collect unused locks.
type Manager struct {
	store  ports.StateStore
	engine Engine

	mu    sync.Mutex            // guards locks
	locks map[string]*lockEntry // active locks

	locker      ports.DistributedLocker
	lockTTL     time.Duration
	nonBlocking bool
	observers   []Observer
	logger      *slog.Logger
}

// Option configures the Manager.
type Option func(*Manager)

// WithLocker enables distributed locking across replicas.
func WithLocker(locker ports.DistributedLocker) Option {
	return func(m *Manager) {
		m.locker = locker
	}
}

// WithLockTTL sets the distributed lock expiry.
func WithLockTTL(ttl time.Duration) Option {
	return func(m *Manager) {
		m.lockTTL = ttl
	}
}

// WithNonBlocking makes Submit fail with domain.ErrBusy instead of queueing
// behind a submission already in flight on this instance.
func WithNonBlocking(enabled bool) Option {
	return func(m *Manager) {
		m.nonBlocking = enabled
	}
}

// WithObserver registers a callback for persisted changes.
func WithObserver(o Observer) Option {
	return func(m *Manager) {
		m.observers = append(m.observers, o)
	}
}

// WithLogger configures a logger for the Manager.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) {
		m.logger = logger
	}
}

// NewManager creates a Manager over store, starting new sessions with engine.
func NewManager(store ports.StateStore, engine Engine, opts ...Option) *Manager {
	m := &Manager{
		store:   store,
		engine:  engine,
		locks:   make(map[string]*lockEntry),
		lockTTL: DefaultLockTTL,
		logger:  logging.NewNop(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// acquire gets or creates a lock entry and increments its reference count.
// The caller must lock entry.mu and call release after unlocking.
func (m *Manager) acquire(sessionID string) *lockEntry {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, exists := m.locks[sessionID]
	if !exists {
		entry = &lockEntry{}
		m.locks[sessionID] = entry
	}
	entry.refs++
	return entry
}

// release decrements the reference count and deletes the entry at zero.
func (m *Manager) release(sessionID string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, exists := m.locks[sessionID]
	if !exists {
		return
	}
	entry.refs--
	if entry.refs <= 0 {
		delete(m.locks, sessionID)
	}
}

// Load retrieves an existing session from the store.
func (m *Manager) Load(ctx context.Context, sessionID string) (*domain.State, error) {
	var state *domain.State
	err := m.WithLock(ctx, sessionID, func(ctx context.Context) error {
		var err error
		state, err = m.store.Load(ctx, sessionID)
		return err
	})
	return state, err
}

// LoadOrStart loads a session, creating and persisting a fresh one if missing.
func (m *Manager) LoadOrStart(ctx context.Context, sessionID string) (*domain.State, error) {
	var state *domain.State
	err := m.WithLock(ctx, sessionID, func(ctx context.Context) error {
		var err error
		state, err = m.loadOrStart(ctx, sessionID)
		return err
	})
	return state, err
}

func (m *Manager) loadOrStart(ctx context.Context, sessionID string) (*domain.State, error) {
	state, err := m.store.Load(ctx, sessionID)
	if err == nil {
		return state, nil
	}
	if !errors.Is(err, domain.ErrSessionNotFound) {
		return nil, fmt.Errorf("failed to check session existence: %w", err)
	}

	state = m.engine.Start(sessionID)
	if err := m.store.Save(ctx, sessionID, state); err != nil {
		return nil, fmt.Errorf("failed to initialize session: %w", err)
	}
	m.notify(sessionID, domain.Diff(nil, state))
	m.logger.Info("session created", "session_id", sessionID)
	return state, nil
}

// Submit runs one line of input against the stored session and persists the
// result. Submissions for the same session are applied one at a time.
func (m *Manager) Submit(ctx context.Context, sessionID, raw string) (*domain.State, *domain.StateDiff, error) {
	var (
		next *domain.State
		diff *domain.StateDiff
	)
	err := m.withLock(ctx, sessionID, m.nonBlocking, func(ctx context.Context) error {
		current, err := m.loadOrStart(ctx, sessionID)
		if err != nil {
			return err
		}

		next, err = m.engine.Submit(ctx, current, raw)
		if err != nil {
			return err
		}

		diff = domain.Diff(current, next)
		if diff == nil {
			return nil
		}
		if err := m.store.Save(ctx, sessionID, next); err != nil {
			return fmt.Errorf("failed to save session: %w", err)
		}
		m.notify(sessionID, diff)
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	return next, diff, nil
}

// Save persists the session state.
func (m *Manager) Save(ctx context.Context, sessionID string, state *domain.State) error {
	return m.WithLock(ctx, sessionID, func(ctx context.Context) error {
		return m.store.Save(ctx, sessionID, state)
	})
}

// Delete removes the session from the store.
func (m *Manager) Delete(ctx context.Context, sessionID string) error {
	return m.WithLock(ctx, sessionID, func(ctx context.Context) error {
		return m.store.Delete(ctx, sessionID)
	})
}

// List delegates to the store.
func (m *Manager) List(ctx context.Context) ([]string, error) {
	return m.store.List(ctx)
}

// Store returns the underlying state store.
func (m *Manager) Store() ports.StateStore {
	return m.store
}

// WithLock executes fn while holding the lock for the session.
func (m *Manager) WithLock(ctx context.Context, sessionID string, fn func(context.Context) error) error {
	return m.withLock(ctx, sessionID, false, fn)
}

func (m *Manager) withLock(ctx context.Context, sessionID string, try bool, fn func(context.Context) error) error {
	entry := m.acquire(sessionID)
	defer m.release(sessionID)

	if try {
		if !entry.mu.TryLock() {
			return domain.ErrBusy
		}
	} else {
		entry.mu.Lock()
	}
	defer entry.mu.Unlock()

	if m.locker != nil {
		unlock, err := m.locker.Lock(ctx, sessionID, m.lockTTL)
		if err != nil {
			return fmt.Errorf("failed to acquire distributed lock: %w", err)
		}
		defer func() {
			// ctx may already be done; the release must still go out.
			if err := unlock(context.WithoutCancel(ctx)); err != nil {
				m.logger.Warn("failed to release distributed lock (will expire via TTL)",
					"session_id", sessionID,
					"err", err,
				)
			}
		}()
	}

	return fn(ctx)
}

func (m *Manager) notify(sessionID string, diff *domain.StateDiff) {
	if diff == nil {
		return
	}
	for _, o := range m.observers {
		o(sessionID, diff)
	}
}
