package session_test

import (
	"context"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/commitquest"
	"github.com/aretw0/commitquest/internal/testutils"
	"github.com/aretw0/commitquest/pkg/adapters/memory"
	"github.com/aretw0/commitquest/pkg/domain"
	"github.com/aretw0/commitquest/pkg/ports"
	"github.com/aretw0/commitquest/pkg/session"
)

// slowStore adds latency to provoke races if locking is missing.
type slowStore struct {
	*memory.Store
}

func (s slowStore) Load(ctx context.Context, id string) (*domain.State, error) {
	time.Sleep(2 * time.Millisecond)
	return s.Store.Load(ctx, id)
}

func (s slowStore) Save(ctx context.Context, id string, state *domain.State) error {
	time.Sleep(2 * time.Millisecond)
	return s.Store.Save(ctx, id, state)
}

func TestManager_LoadOrStart(t *testing.T) {
	engine := commitquest.New()
	store := memory.NewStore()
	mgr := session.NewManager(store, engine)
	ctx := context.Background()

	first, err := mgr.LoadOrStart(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, engine.Start("s1"), first)

	stored, err := store.Load(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, first, stored)

	again, err := mgr.LoadOrStart(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, first, again)
}

func TestManager_SubmitPersistsAndReportsDiff(t *testing.T) {
	var diffs []*domain.StateDiff
	mgr := session.NewManager(memory.NewStore(), commitquest.New(),
		session.WithObserver(func(_ string, d *domain.StateDiff) { diffs = append(diffs, d) }),
	)
	ctx := context.Background()

	state, diff, err := mgr.Submit(ctx, "s1", "generate")
	require.NoError(t, err)
	assert.Equal(t, domain.StepAwaitingClass, state.Step())
	require.NotNil(t, diff)
	require.Len(t, diff.Appended, 2)
	assert.Equal(t, domain.UserEntry("generate"), diff.Appended[0])

	loaded, err := mgr.Load(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, domain.StepAwaitingClass, loaded.Step())

	// one diff for the creation, one for the submit
	assert.Len(t, diffs, 2)
}

func TestManager_WhitespaceProducesNoDiff(t *testing.T) {
	var calls int
	mgr := session.NewManager(memory.NewStore(), commitquest.New(),
		session.WithObserver(func(string, *domain.StateDiff) { calls++ }),
	)
	ctx := context.Background()
	_, err := mgr.LoadOrStart(ctx, "s1")
	require.NoError(t, err)

	_, diff, err := mgr.Submit(ctx, "s1", "   ")
	require.NoError(t, err)
	assert.Nil(t, diff)
	assert.Equal(t, 1, calls)
}

func TestManager_SerialisesSubmissions(t *testing.T) {
	mgr := session.NewManager(slowStore{memory.NewStore()}, commitquest.New())
	ctx := context.Background()

	const n = 20
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _, err := mgr.Submit(ctx, "race", "help")
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	state, err := mgr.Load(ctx, "race")
	require.NoError(t, err)
	// welcome + n * (user, help)
	assert.Len(t, state.Transcript, 1+2*n)
}

func TestManager_NonBlockingReturnsBusy(t *testing.T) {
	backend := testutils.NewBlockingBackend()
	backend.Result = domain.GenerationResult{CommitMessage: "feat: x", Experience: 10, EnemiesSlain: 1}
	engine := commitquest.New(commitquest.WithBackend(backend), commitquest.WithTimeout(0))
	mgr := session.NewManager(memory.NewStore(), engine, session.WithNonBlocking(true))
	ctx := context.Background()

	for _, in := range []string{"generate", "feat"} {
		_, _, err := mgr.Submit(ctx, "s1", in)
		require.NoError(t, err)
	}

	done := make(chan error, 1)
	go func() {
		_, _, err := mgr.Submit(ctx, "s1", "x")
		done <- err
	}()
	<-backend.Started

	_, _, err := mgr.Submit(ctx, "s1", "help")
	assert.ErrorIs(t, err, domain.ErrBusy)

	close(backend.Release)
	require.NoError(t, <-done)
}

func TestManager_CancelledSubmitKeepsStoredState(t *testing.T) {
	backend := testutils.NewBlockingBackend()
	defer close(backend.Release)
	mgr := session.NewManager(memory.NewStore(), commitquest.New(commitquest.WithBackend(backend)))
	ctx := context.Background()

	for _, in := range []string{"generate", "feat"} {
		_, _, err := mgr.Submit(ctx, "s1", in)
		require.NoError(t, err)
	}

	cctx, cancel := context.WithCancel(ctx)
	go func() {
		<-backend.Started
		cancel()
	}()
	_, _, err := mgr.Submit(cctx, "s1", "add login")
	assert.ErrorIs(t, err, context.Canceled)

	state, err := mgr.Load(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, domain.StepAwaitingMessage, state.Step())
}

// distributedLocker records distributed lock usage.
type distributedLocker struct {
	keys   []string
	ttl    time.Duration
	unlock ports.UnlockFunc
}

func (l *distributedLocker) Lock(_ context.Context, key string, ttl time.Duration) (ports.UnlockFunc, error) {
	l.keys = append(l.keys, key)
	l.ttl = ttl
	return l.unlock, nil
}

func TestManager_DistributedLock(t *testing.T) {
	var released int
	locker := &distributedLocker{unlock: func(context.Context) error { released++; return nil }}
	mgr := session.NewManager(memory.NewStore(), commitquest.New(),
		session.WithLocker(locker),
		session.WithLockTTL(5*time.Second),
	)

	_, _, err := mgr.Submit(context.Background(), "s1", "help")
	require.NoError(t, err)
	assert.Equal(t, []string{"s1"}, locker.keys)
	assert.Equal(t, 5*time.Second, locker.ttl)
	assert.Equal(t, 1, released)
}

func TestLockTTLFor(t *testing.T) {
	assert.Equal(t, session.DefaultLockTTL, session.LockTTLFor(0))
	assert.Equal(t, session.DefaultLockTTL, session.LockTTLFor(5*time.Second))
	assert.Equal(t, 130*time.Second, session.LockTTLFor(2*time.Minute))
	assert.Greater(t, session.LockTTLFor(10*time.Minute), 10*time.Minute)
}

func TestManager_LockLifecycle(t *testing.T) {
	mgr := session.NewManager(memory.NewStore(), commitquest.New())
	ctx := context.Background()

	for i := 0; i < 1000; i++ {
		sid := "session-" + strconv.Itoa(i)
		require.NoError(t, mgr.Save(ctx, sid, domain.NewState(sid)))
		require.NoError(t, mgr.Delete(ctx, sid))
	}

	assert.Zero(t, session.ActiveLocks(mgr), "locks leaked after Delete")
}
