package sqlite_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/commitquest/pkg/adapters/sqlite"
	"github.com/aretw0/commitquest/pkg/domain"
	"github.com/aretw0/commitquest/pkg/ports"
)

func open(t *testing.T, path string) *sqlite.Store {
	t.Helper()
	store, err := sqlite.Open(path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestSQLiteStore_Contract(t *testing.T) {
	store := open(t, filepath.Join(t.TempDir(), "sessions.db"))
	ports.RunStateStoreContract(t, store)
}

func TestSQLiteStore_Reopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "sessions.db")
	ctx := context.Background()

	first, err := sqlite.Open(path)
	require.NoError(t, err)
	state := domain.NewState("s1", domain.SystemEntry("welcome"))
	state.Stage = domain.AwaitingClass{}
	require.NoError(t, first.Save(ctx, "s1", state))
	require.NoError(t, first.Close())

	second := open(t, path)
	loaded, err := second.Load(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, domain.StepAwaitingClass, loaded.Step())
	assert.Equal(t, state.Transcript, loaded.Transcript)
}

func TestSQLiteStore_SaveOverwrites(t *testing.T) {
	store := open(t, ":memory:")
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, "s1", domain.NewState("s1")))
	require.NoError(t, store.Save(ctx, "s1", domain.NewState("s1", domain.UserEntry("generate"))))

	loaded, err := store.Load(ctx, "s1")
	require.NoError(t, err)
	assert.Len(t, loaded.Transcript, 1)

	ids, err := store.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"s1"}, ids)
}
