package session

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testState(game string) State {
	return State{
		Version:       StateVersion,
		Game:          game,
		RuleSetDigest: "digest-" + game,
		PlayerSlot:    1,
		SavedAt:       time.Now().UTC(),
		Inventory:     map[string]int{"Key": 2, "Sword": 1},
		Checked:       []string{"A Chest"},
		Settings:      map[string]any{"glitches": false},
	}
}

func openTestStore(t *testing.T) *Store {
	t.Helper()
	st, err := Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	return st
}

func TestSaveAndLoad(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()

	rec, err := st.Save(ctx, "run-1", testState("Testgame"))
	require.NoError(t, err)
	assert.NotEmpty(t, rec.ID)
	assert.Equal(t, "run-1", rec.Name)
	assert.Equal(t, "Testgame", rec.Game)
	assert.NotEmpty(t, rec.StateDigest)

	loaded, err := st.Load(ctx, "run-1")
	require.NoError(t, err)
	assert.Equal(t, rec.ID, loaded.ID)
	assert.Equal(t, map[string]int{"Key": 2, "Sword": 1}, loaded.State.Inventory)
	assert.Equal(t, []string{"A Chest"}, loaded.State.Checked)
}

func TestSaveUpsertsByName(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()

	first, err := st.Save(ctx, "run-1", testState("Testgame"))
	require.NoError(t, err)

	updated := testState("Testgame")
	updated.Inventory["Key"] = 5
	second, err := st.Save(ctx, "run-1", updated)
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID, "resaving a name keeps its ID")
	assert.Equal(t, 5, second.State.Inventory["Key"])

	all, err := st.List(ctx, ListFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestSaveIdempotent(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()

	a, err := st.Save(ctx, "run-1", testState("Testgame"))
	require.NoError(t, err)
	b, err := st.Save(ctx, "run-1", testState("Testgame"))
	require.NoError(t, err)

	assert.Equal(t, a.StateDigest, b.StateDigest)
}

func TestLoadMissing(t *testing.T) {
	st := openTestStore(t)
	_, err := st.Load(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDelete(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()

	_, err := st.Save(ctx, "run-1", testState("Testgame"))
	require.NoError(t, err)
	require.NoError(t, st.Delete(ctx, "run-1"))

	_, err = st.Load(ctx, "run-1")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, st.Delete(ctx, "run-1"), ErrNotFound)
}

func TestListFilters(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()

	_, err := st.Save(ctx, "alpha-1", testState("GameA"))
	require.NoError(t, err)
	_, err = st.Save(ctx, "alpha-2", testState("GameA"))
	require.NoError(t, err)
	_, err = st.Save(ctx, "beta-1", testState("GameB"))
	require.NoError(t, err)

	byGame, err := st.List(ctx, ListFilter{Game: "GameA"})
	require.NoError(t, err)
	assert.Len(t, byGame, 2)

	byDigest, err := st.List(ctx, ListFilter{RuleSetDigest: "digest-GameB"})
	require.NoError(t, err)
	require.Len(t, byDigest, 1)
	assert.Equal(t, "beta-1", byDigest[0].Name)

	byPrefix, err := st.List(ctx, ListFilter{NamePrefix: "alpha-"})
	require.NoError(t, err)
	assert.Len(t, byPrefix, 2)

	limited, err := st.List(ctx, ListFilter{Limit: 1})
	require.NoError(t, err)
	require.Len(t, limited, 1)
	assert.Equal(t, "beta-1", limited[0].Name, "newest first")

	_, err = st.List(ctx, ListFilter{Limit: -1})
	assert.Error(t, err)
}

func TestListPrefixEscapesLikeMetacharacters(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()

	_, err := st.Save(ctx, "a%b", testState("GameA"))
	require.NoError(t, err)
	_, err = st.Save(ctx, "axb", testState("GameA"))
	require.NoError(t, err)

	got, err := st.List(ctx, ListFilter{NamePrefix: "a%"})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "a%b", got[0].Name)
}

func TestSaveRejectsBadInput(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()

	_, err := st.Save(ctx, "", testState("Testgame"))
	assert.Error(t, err)

	bad := testState("Testgame")
	bad.Version = 99
	_, err = st.Save(ctx, "run-1", bad)
	assert.Error(t, err)
}
