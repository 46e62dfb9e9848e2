package testutils

import (
	"context"
	"testing"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/commitquest/pkg/domain"
)

// MockBackend is a testify mock implementing ports.Backend.
type MockBackend struct {
	mock.Mock
}

func (m *MockBackend) GenerateCommitMessage(ctx context.Context, req domain.GenerationRequest) (domain.GenerationResult, error) {
	args := m.Called(ctx, req)
	return args.Get(0).(domain.GenerationResult), args.Error(1)
}

func (m *MockBackend) Setup(ctx context.Context, req domain.SetupRequest) (domain.SetupResult, error) {
	args := m.Called(ctx, req)
	return args.Get(0).(domain.SetupResult), args.Error(1)
}

// BlockingBackend never answers until ctx ends or Release is closed.
type BlockingBackend struct {
	Started chan struct{}
	Release chan struct{}
	Result  domain.GenerationResult
}

// NewBlockingBackend returns a backend whose calls park until released.
func NewBlockingBackend() *BlockingBackend {
	return &BlockingBackend{
		Started: make(chan struct{}, 1),
		Release: make(chan struct{}),
	}
}

func (b *BlockingBackend) GenerateCommitMessage(ctx context.Context, _ domain.GenerationRequest) (domain.GenerationResult, error) {
	select {
	case b.Started <- struct{}{}:
	default:
	}
	select {
	case <-ctx.Done():
		return domain.GenerationResult{}, ctx.Err()
	case <-b.Release:
		return b.Result, nil
	}
}

func (b *BlockingBackend) Setup(ctx context.Context, _ domain.SetupRequest) (domain.SetupResult, error) {
	<-ctx.Done()
	return domain.SetupResult{}, ctx.Err()
}

// LastEntry returns the final transcript entry, failing the test when empty.
func LastEntry(t *testing.T, state *domain.State) domain.Entry {
	t.Helper()
	require.NotEmpty(t, state.Transcript, "transcript is empty")
	return state.Transcript[len(state.Transcript)-1]
}

// Kinds lists the entry kinds of a transcript in order.
func Kinds(state *domain.State) []domain.EntryKind {
	kinds := make([]domain.EntryKind, len(state.Transcript))
	for i, e := range state.Transcript {
		kinds[i] = e.Kind
	}
	return kinds
}
