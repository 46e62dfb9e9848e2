package commitquest_test

import (
	"context"
	"fmt"
	"log"

	"github.com/aretw0/commitquest"
	"github.com/aretw0/commitquest/pkg/domain"
)

// staticBackend answers every generation with a fixed message.
type staticBackend struct{}

func (staticBackend) GenerateCommitMessage(_ context.Context, req domain.GenerationRequest) (domain.GenerationResult, error) {
	return domain.GenerationResult{
		CommitMessage: fmt.Sprintf("%s: %s", req.CommitType, req.CustomMessage),
		Experience:    10,
		EnemiesSlain:  2,
	}, nil
}

func (staticBackend) Setup(_ context.Context, req domain.SetupRequest) (domain.SetupResult, error) {
	return domain.SetupResult{Message: "ready in " + req.ProjectDir}, nil
}

// ExampleNew walks the wizard from generate to a generated message.
func ExampleNew() {
	engine := commitquest.New(
		commitquest.WithBackend(staticBackend{}),
		commitquest.WithWelcomeOnClear(false),
	)

	ctx := context.Background()
	state := engine.Start("example")
	for _, line := range []string{"generate", "feat", "add login"} {
		var err error
		state, err = engine.Submit(ctx, state, line)
		if err != nil {
			log.Fatal(err)
		}
	}

	last := state.Transcript[len(state.Transcript)-1]
	fmt.Println(state.Step())
	fmt.Println(last.Kind)
	fmt.Println(last.Text)
	// Output:
	// idle
	// system
	// Generated Commit Message: feat: add login
	// You gained 10 experience and slayed 2 enemies.
}
