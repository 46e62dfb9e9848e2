package middleware

import (
	"context"
	"regexp"

	"github.com/aretw0/commitquest/pkg/domain"
	"github.com/aretw0/commitquest/pkg/ports"
)

// Mask replaces every redacted match.
const Mask = "***"

// SecretPatterns match credentials users tend to paste into a prompt.
var SecretPatterns = []string{
	`sk-[A-Za-z0-9_\-]{16,}`,
	`gh[pousr]_[A-Za-z0-9]{20,}`,
	`AKIA[0-9A-Z]{16}`,
}

type redactMiddleware struct {
	next     ports.StateStore
	patterns []*regexp.Regexp
}

// NewRedactMiddleware creates a middleware that masks transcript text matching the patterns
// before it is persisted. The in-memory state is never modified.
func NewRedactMiddleware(patternStrings []string) Middleware {
	patterns := make([]*regexp.Regexp, len(patternStrings))
	for i, p := range patternStrings {
		patterns[i] = regexp.MustCompile(p)
	}
	return func(next ports.StateStore) ports.StateStore {
		return &redactMiddleware{next: next, patterns: patterns}
	}
}

func (m *redactMiddleware) Save(ctx context.Context, sessionID string, state *domain.State) error {
	cloned := state.Snapshot()
	for i, e := range cloned.Transcript {
		cloned.Transcript[i].Text = m.mask(e.Text)
	}
	return m.next.Save(ctx, sessionID, cloned)
}

func (m *redactMiddleware) mask(text string) string {
	for _, p := range m.patterns {
		text = p.ReplaceAllString(text, Mask)
	}
	return text
}

func (m *redactMiddleware) Load(ctx context.Context, sessionID string) (*domain.State, error) {
	return m.next.Load(ctx, sessionID)
}

func (m *redactMiddleware) Delete(ctx context.Context, sessionID string) error {
	return m.next.Delete(ctx, sessionID)
}

func (m *redactMiddleware) List(ctx context.Context) ([]string, error) {
	return m.next.List(ctx)
}
