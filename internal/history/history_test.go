package history

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wizzomafizzo/qflow-migrate/internal/rewrite"
	testutil "github.com/wizzomafizzo/qflow-migrate/internal/testing"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()

	store, err := Open(context.Background(), filepath.Join(t.TempDir(), "history.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestOpen_SetsSchemaVersion(t *testing.T) {
	t.Parallel()

	store := openTestStore(t)

	var version int
	require.NoError(t, store.db.QueryRowContext(context.Background(), "PRAGMA user_version").Scan(&version))
	assert.Equal(t, migrations[len(migrations)-1].version, version)
}

func TestOpen_Reopen(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "history.db")

	store, err := Open(ctx, path)
	require.NoError(t, err)
	_, err = store.Record(ctx, Record{ProjectPath: "/p", Rewritten: 1})
	require.NoError(t, err)
	require.NoError(t, store.Close())

	store, err = Open(ctx, path)
	require.NoError(t, err)
	defer func() { _ = store.Close() }()

	records, err := store.List(ctx, "", 0)
	require.NoError(t, err)
	assert.Len(t, records, 1)
}

func TestRecordAndList(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := openTestStore(t)

	first := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	rules := rewrite.Rules{
		{Old: "/old/proj", New: "/new/proj"},
		{Old: "/old/tool", New: "/new/tool"},
		{Old: "1.0", New: "1.2"},
	}

	id1, err := store.Record(ctx, Record{
		ProjectPath: "/new/proj", Replacements: rules, Rewritten: 3, CreatedAt: first,
	})
	require.NoError(t, err)
	id2, err := store.Record(ctx, Record{
		ProjectPath: "/other", Rewritten: 1, Failed: 1, CreatedAt: first.Add(time.Hour),
	})
	require.NoError(t, err)
	assert.NotEqual(t, id1, id2)

	all, err := store.List(ctx, "", 0)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "/other", all[0].ProjectPath, "newest first")
	assert.Equal(t, 1, all[0].Failed)
	assert.Empty(t, all[0].Replacements)

	mine, err := store.List(ctx, "/new/proj", 0)
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, id1, mine[0].ID)
	assert.Equal(t, rules, mine[0].Replacements)
	assert.Equal(t, 3, mine[0].Rewritten)
	assert.True(t, first.Equal(mine[0].CreatedAt))

	limited, err := store.List(ctx, "", 1)
	require.NoError(t, err)
	assert.Len(t, limited, 1)
}

func TestRecord_DefaultsCreatedAt(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := openTestStore(t)
	fixed := time.Date(2026, 10, 17, 9, 30, 0, 0, time.UTC)
	store.now = func() time.Time { return fixed }

	_, err := store.Record(ctx, Record{ProjectPath: "/p"})
	require.NoError(t, err)

	records, err := store.List(ctx, "/p", 0)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.True(t, fixed.Equal(records[0].CreatedAt))
}

func TestStore_NoLeaks(t *testing.T) {
	defer testutil.VerifyNoLeaks(t)

	ctx := context.Background()
	store, err := Open(ctx, filepath.Join(t.TempDir(), "history.db"))
	require.NoError(t, err)

	_, err = store.Record(ctx, Record{ProjectPath: "/p"})
	require.NoError(t, err)
	require.NoError(t, store.Close())
}

func TestOpen_InvalidPath(t *testing.T) {
	t.Parallel()

	_, err := Open(context.Background(), filepath.Join(t.TempDir(), "missing", "dir", "history.db"))
	require.Error(t, err)
}
