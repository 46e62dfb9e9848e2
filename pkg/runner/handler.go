package runner

import (
	"context"

	"github.com/aretw0/commitquest/pkg/domain"
)

// IOHandler defines the strategy for interacting with the user.
// This allows switching between Text (terminal) and JSON (structured) modes.
type IOHandler interface {
	// Output presents transcript entries to the user.
	// reset is true when the entries replace everything shown so far.
	Output(ctx context.Context, entries []domain.Entry, reset bool) error

	// Input reads one line from the user.
	// It returns io.EOF when the source is exhausted.
	Input(ctx context.Context) (string, error)

	// SystemOutput shows a host message that is not part of the transcript.
	SystemOutput(ctx context.Context, msg string) error
}

// ContentRenderer transforms an entry before it is printed.
// This allows terminal styling without coupling the runner to a UI library.
type ContentRenderer func(domain.Entry) (string, error)
