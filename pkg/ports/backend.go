package ports

import (
	"context"

	"github.com/aretw0/commitquest/pkg/domain"
)

// Backend is the out-of-process capability that actually writes commit messages.
// Implementations return *domain.TransportError or *domain.ConfigurationError on failure,
// and must honour ctx cancellation and deadlines.
type Backend interface {
	// GenerateCommitMessage asks the backend for a message of the given type.
	GenerateCommitMessage(ctx context.Context, req domain.GenerationRequest) (domain.GenerationResult, error)

	// Setup prepares the project directory and returns the resulting configuration.
	Setup(ctx context.Context, req domain.SetupRequest) (domain.SetupResult, error)
}
