package chat

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/aretw0/commitquest/pkg/domain"
	"github.com/aretw0/commitquest/pkg/session"
)

// Run opens the chat for sessionID until the user leaves or ctx ends.
func Run(ctx context.Context, manager *session.Manager, sessionID string) error {
	state, err := manager.LoadOrStart(ctx, sessionID)
	if err != nil {
		return fmt.Errorf("failed to start session %s: %w", sessionID, err)
	}

	submit := func(ctx context.Context, line string) (*domain.State, error) {
		next, _, err := manager.Submit(ctx, sessionID, line)
		return next, err
	}

	model := NewModel(ctx, state, submit)
	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil && ctx.Err() == nil {
		return err
	}
	return nil
}
