package middleware_test

import (
	"context"
	"testing"

	"github.com/aretw0/commitquest/pkg/adapters/memory"
	"github.com/aretw0/commitquest/pkg/domain"
	"github.com/aretw0/commitquest/pkg/persistence/middleware"
)

func TestRedactMiddleware_Masking(t *testing.T) {
	underlyingStore := memory.NewStore()
	mw := middleware.NewRedactMiddleware(append([]string{`hunter\d`}, middleware.SecretPatterns...))
	secureStore := mw(underlyingStore)

	ctx := context.Background()
	sessionID := "redact-session"
	state := domain.NewState(sessionID,
		domain.UserEntry("use key sk-abcdefghijklmnopqrstuvwx please"),
		domain.UserEntry("password hunter2"),
		domain.SystemEntry("Choose your class"),
	)

	if err := secureStore.Save(ctx, sessionID, state); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	// The in-memory state is untouched
	if state.Transcript[1].Text != "password hunter2" {
		t.Error("Middleware modified original state in memory!")
	}

	storedState, err := underlyingStore.Load(ctx, sessionID)
	if err != nil {
		t.Fatalf("Underlying load failed: %v", err)
	}

	want := []string{"use key *** please", "password ***", "Choose your class"}
	for i, w := range want {
		if got := storedState.Transcript[i].Text; got != w {
			t.Errorf("entry %d: expected %q, got %q", i, w, got)
		}
	}
}

func TestChain_Order(t *testing.T) {
	underlyingStore := memory.NewStore()
	key := make([]byte, 32)
	store := middleware.Chain(underlyingStore,
		middleware.NewRedactMiddleware([]string{`secret`}),
		middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: key}),
	)

	ctx := context.Background()
	if err := store.Save(ctx, "s1", domain.NewState("s1", domain.UserEntry("a secret"))); err != nil {
		t.Fatal(err)
	}

	loaded, err := store.Load(ctx, "s1")
	if err != nil {
		t.Fatal(err)
	}
	// Redaction runs before encryption, so the decrypted copy is masked too.
	if loaded.Transcript[0].Text != "a ***" {
		t.Errorf("expected masked text, got %q", loaded.Transcript[0].Text)
	}
}
