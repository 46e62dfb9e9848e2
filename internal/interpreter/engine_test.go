package interpreter_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/commitquest/internal/interpreter"
	"github.com/aretw0/commitquest/internal/testutils"
	"github.com/aretw0/commitquest/pkg/domain"
)

func submitAll(t *testing.T, e *interpreter.Engine, state *domain.State, inputs ...string) *domain.State {
	t.Helper()
	for _, in := range inputs {
		var err error
		state, err = e.Submit(context.Background(), state, in)
		require.NoError(t, err)
	}
	return state
}

func TestEngine_WhitespaceIsNoop(t *testing.T) {
	e := interpreter.NewEngine(nil)
	state := e.Start("s1")

	for _, in := range []string{"", "   ", "\t\n"} {
		next, err := e.Submit(context.Background(), state, in)
		require.NoError(t, err)
		assert.Same(t, state, next)
	}
}

func TestEngine_Clear(t *testing.T) {
	e := interpreter.NewEngine(nil)
	start := e.Start("s1")

	t.Run("resets to canonical state from any step", func(t *testing.T) {
		state := submitAll(t, e, start, "generate", "feat", "help")
		require.Equal(t, domain.StepAwaitingMessage, state.Step())

		cleared, err := e.Submit(context.Background(), state, "CLEAR")
		require.NoError(t, err)
		assert.Equal(t, domain.StepIdle, cleared.Step())
		assert.Equal(t, start.Transcript, cleared.Transcript)
		_, pending := cleared.PendingCommitType()
		assert.False(t, pending)
	})

	t.Run("is idempotent", func(t *testing.T) {
		once := submitAll(t, e, start, "generate", "clear")
		twice := submitAll(t, e, once, "clear")
		assert.Equal(t, once.Transcript, twice.Transcript)
		assert.Equal(t, once.Step(), twice.Step())
	})

	t.Run("empty when welcome disabled", func(t *testing.T) {
		quiet := interpreter.NewEngine(nil, interpreter.WithWelcomeOnClear(false))
		state := submitAll(t, quiet, quiet.Start("s2"), "help", "clear")
		assert.Empty(t, state.Transcript)
	})
}

func TestEngine_GenerateStartsWizard(t *testing.T) {
	e := interpreter.NewEngine(nil)
	start := e.Start("s1")

	next := submitAll(t, e, start, "Generate")

	assert.Equal(t, domain.StepAwaitingClass, next.Step())
	added := next.Transcript[len(start.Transcript):]
	require.Len(t, added, 2)
	assert.Equal(t, domain.UserEntry("Generate"), added[0])
	assert.Equal(t, domain.EntrySystem, added[1].Kind)
	assert.Contains(t, added[1].Text, "[feat] Magician")
	assert.Contains(t, added[1].Text, "[chore] Archer")
}

func TestEngine_ClassSelection(t *testing.T) {
	e := interpreter.NewEngine(nil)
	awaiting := submitAll(t, e, e.Start("s1"), "generate")

	t.Run("valid class", func(t *testing.T) {
		next := submitAll(t, e, awaiting, "  Chore ")
		assert.Equal(t, domain.StepAwaitingMessage, next.Step())
		ct, ok := next.PendingCommitType()
		require.True(t, ok)
		assert.Equal(t, domain.CommitChore, ct)
		assert.Equal(t, domain.UserEntry("Chore"), next.Transcript[len(next.Transcript)-2])
		assert.Equal(t, domain.EntrySystem, testutils.LastEntry(t, next).Kind)
	})

	t.Run("invalid class", func(t *testing.T) {
		next := submitAll(t, e, awaiting, "xyz")
		assert.Equal(t, domain.StepAwaitingClass, next.Step())
		_, ok := next.PendingCommitType()
		assert.False(t, ok)
		last := testutils.LastEntry(t, next)
		assert.Equal(t, domain.EntryError, last.Kind)
		assert.Contains(t, last.Text, "xyz")
	})
}

func TestEngine_UnknownCommandAtIdle(t *testing.T) {
	e := interpreter.NewEngine(nil)
	start := e.Start("s1")

	for _, in := range []string{"/generate", "feat", "dance"} {
		next := submitAll(t, e, start, in)
		assert.Equal(t, domain.StepIdle, next.Step())
		assert.Equal(t, []domain.EntryKind{domain.EntryUser, domain.EntryError}, testutils.Kinds(next)[len(start.Transcript):])
		assert.Contains(t, testutils.LastEntry(t, next).Text, "Unknown command: "+in)
	}
}

func TestEngine_GenerateSuccess(t *testing.T) {
	backend := new(testutils.MockBackend)
	backend.On("GenerateCommitMessage", mock.Anything, domain.GenerationRequest{
		CommitType:    domain.CommitFeat,
		CustomMessage: "add login",
		ProjectDir:    "/repo",
		AutoCommit:    true,
	}).Return(domain.GenerationResult{
		CommitMessage: "feat: add login",
		Experience:    10,
		EnemiesSlain:  2,
	}, nil).Once()

	e := interpreter.NewEngine(backend, interpreter.WithProjectDir("/repo"), interpreter.WithAutoCommit(true))
	state := submitAll(t, e, e.Start("s1"), "generate", "feat", "add login")

	assert.Equal(t, domain.StepIdle, state.Step())
	_, pending := state.PendingCommitType()
	assert.False(t, pending)
	last := testutils.LastEntry(t, state)
	assert.Equal(t, domain.EntrySystem, last.Kind)
	assert.Contains(t, last.Text, "feat: add login")
	assert.Contains(t, last.Text, "10")
	assert.Contains(t, last.Text, "2")
	backend.AssertExpectations(t)
}

func TestEngine_GenerateShowsAutoCommitResponse(t *testing.T) {
	backend := new(testutils.MockBackend)
	backend.On("GenerateCommitMessage", mock.Anything, mock.Anything).Return(domain.GenerationResult{
		CommitMessage:      "fix: typo",
		Experience:         15,
		EnemiesSlain:       1,
		AutoCommitResponse: "Committed as abc123",
	}, nil)

	e := interpreter.NewEngine(backend)
	state := submitAll(t, e, e.Start("s1"), "generate", "fix", "typo")
	assert.Contains(t, testutils.LastEntry(t, state).Text, "Committed as abc123")
}

func TestEngine_GenerateFailure(t *testing.T) {
	backend := new(testutils.MockBackend)
	backend.On("GenerateCommitMessage", mock.Anything, mock.Anything).
		Return(domain.GenerationResult{}, &domain.TransportError{Op: "generate", Status: 500, Detail: "boom"})

	e := interpreter.NewEngine(backend)
	state := submitAll(t, e, e.Start("s1"), "generate", "fix", "oops")

	assert.Equal(t, domain.StepIdle, state.Step())
	last := testutils.LastEntry(t, state)
	assert.Equal(t, domain.EntryError, last.Kind)
	assert.Contains(t, last.Text, "boom")
}

func TestEngine_UntypedBackendErrorIsTransport(t *testing.T) {
	var seen error
	backend := new(testutils.MockBackend)
	backend.On("GenerateCommitMessage", mock.Anything, mock.Anything).
		Return(domain.GenerationResult{}, errors.New("connection refused"))

	e := interpreter.NewEngine(backend, interpreter.WithLifecycleHooks(domain.LifecycleHooks{
		OnCallReturn: func(_ context.Context, ev *domain.CallEvent) { seen = ev.Err },
	}))
	state := submitAll(t, e, e.Start("s1"), "generate", "fix", "oops")

	var te *domain.TransportError
	require.ErrorAs(t, seen, &te)
	assert.Equal(t, "generate", te.Op)
	assert.Equal(t, domain.StepIdle, state.Step())
	assert.Contains(t, testutils.LastEntry(t, state).Text, "connection refused")
}

func TestEngine_MissingBackendIsConfigurationError(t *testing.T) {
	e := interpreter.NewEngine(nil)
	state := submitAll(t, e, e.Start("s1"), "generate", "chore", "bump deps")

	assert.Equal(t, domain.StepIdle, state.Step())
	last := testutils.LastEntry(t, state)
	assert.Equal(t, domain.EntryError, last.Kind)
	assert.Contains(t, last.Text, "no backend configured")
}

func TestEngine_HelpKeepsStep(t *testing.T) {
	e := interpreter.NewEngine(nil)
	start := e.Start("s1")
	states := map[string]*domain.State{
		"idle":             start,
		"awaiting class":   submitAll(t, e, start, "generate"),
		"awaiting message": submitAll(t, e, start, "generate", "fix"),
	}

	for name, state := range states {
		t.Run(name, func(t *testing.T) {
			next := submitAll(t, e, state, "HELP")
			assert.Equal(t, state.Step(), next.Step())
			assert.Equal(t, state.Stage, next.Stage)
			assert.Equal(t, domain.SystemEntry(interpreter.HelpText), testutils.LastEntry(t, next))
		})
	}
}

func TestEngine_SubmitDoesNotMutateInput(t *testing.T) {
	e := interpreter.NewEngine(nil)
	start := e.Start("s1")
	before := start.Snapshot()

	_ = submitAll(t, e, start, "generate", "feat")
	assert.Equal(t, before, start)
}

func TestEngine_Setup(t *testing.T) {
	t.Run("success moves to class selection", func(t *testing.T) {
		backend := new(testutils.MockBackend)
		backend.On("Setup", mock.Anything, domain.SetupRequest{ProjectDir: "/work", CreateConfig: "true"}).
			Return(domain.SetupResult{Message: "Configuration created", Config: map[string]any{"language": "go"}}, nil)

		e := interpreter.NewEngine(backend, interpreter.WithProjectDir("/work"))
		state := submitAll(t, e, e.Start("s1"), "setup")

		assert.Equal(t, domain.StepAwaitingClass, state.Step())
		last := testutils.LastEntry(t, state)
		assert.Equal(t, domain.EntrySystem, last.Kind)
		assert.Contains(t, last.Text, "Configuration created")
		assert.Contains(t, last.Text, `"language": "go"`)
		assert.Contains(t, last.Text, "Choose your class")
		assert.Equal(t, "/work", state.ProjectDir)
	})

	t.Run("failure stays idle", func(t *testing.T) {
		backend := new(testutils.MockBackend)
		backend.On("Setup", mock.Anything, mock.Anything).
			Return(domain.SetupResult{}, &domain.TransportError{Op: "setup", Detail: "no such directory"})

		e := interpreter.NewEngine(backend)
		state := submitAll(t, e, e.Start("s1"), "setup")

		assert.Equal(t, domain.StepIdle, state.Step())
		assert.Equal(t, domain.EntryError, testutils.LastEntry(t, state).Kind)
	})
}

func TestEngine_Timeout(t *testing.T) {
	backend := testutils.NewBlockingBackend()
	defer close(backend.Release)

	e := interpreter.NewEngine(backend, interpreter.WithTimeout(20*time.Millisecond))
	state := submitAll(t, e, e.Start("s1"), "generate", "feat")

	next, err := e.Submit(context.Background(), state, "slow")
	require.NoError(t, err)
	assert.Equal(t, domain.StepIdle, next.Step())
	last := testutils.LastEntry(t, next)
	assert.Equal(t, domain.EntryError, last.Kind)
	assert.Contains(t, last.Text, "no response within")
}

func TestEngine_CancellationDiscardsResult(t *testing.T) {
	backend := testutils.NewBlockingBackend()
	defer close(backend.Release)

	e := interpreter.NewEngine(backend)
	state := submitAll(t, e, e.Start("s1"), "generate", "feat")

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		<-backend.Started
		cancel()
	}()

	next, err := e.Submit(ctx, state, "add login")
	require.ErrorIs(t, err, context.Canceled)
	assert.Same(t, state, next)
	assert.Equal(t, domain.StepAwaitingMessage, next.Step())
}

func TestEngine_Hooks(t *testing.T) {
	backend := new(testutils.MockBackend)
	backend.On("GenerateCommitMessage", mock.Anything, mock.Anything).
		Return(domain.GenerationResult{CommitMessage: "feat: x", Experience: 10, EnemiesSlain: 1}, nil)

	var (
		commands    []string
		transitions [][2]domain.Step
		calls       []string
	)
	hooks := domain.LifecycleHooks{
		OnSubmit: func(_ context.Context, ev *domain.SubmitEvent) {
			commands = append(commands, ev.Command)
		},
		OnTransition: func(_ context.Context, ev *domain.TransitionEvent) {
			transitions = append(transitions, [2]domain.Step{ev.From, ev.To})
		},
		OnCallStart: func(_ context.Context, ev *domain.CallEvent) {
			calls = append(calls, "start:"+ev.Op)
		},
		OnCallReturn: func(_ context.Context, ev *domain.CallEvent) {
			calls = append(calls, "return:"+ev.Op)
		},
	}

	e := interpreter.NewEngine(backend, interpreter.WithLifecycleHooks(hooks))
	_ = submitAll(t, e, e.Start("s1"), "generate", "help", "feat", "x")

	assert.Equal(t, []string{"generate", "help", "answer", "answer"}, commands)
	assert.Equal(t, [][2]domain.Step{{0, 1}, {1, 2}, {2, 0}}, transitions)
	assert.Equal(t, []string{"start:generate", "return:generate"}, calls)
}
