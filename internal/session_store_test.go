package internal

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/huythanhnguyen/mm-search-bot/testutil"
)

func newSeededStore(t *testing.T) *SessionStore {
	t.Helper()
	ls, err := NewLocalStorage(testutil.CreateTestDB(t), ":memory:")
	require.NoError(t, err)
	return NewSessionStore(ls)
}

func TestSessionStore_Load(t *testing.T) {
	store := newSeededStore(t)

	sessions, err := store.Load()
	require.NoError(t, err)
	require.Len(t, sessions, 2)
	assert.Equal(t, "s-new", sessions[0].ID)
	assert.Equal(t, CategoryEcommerce, sessions[0].Category)
	assert.Len(t, sessions[0].Messages, 2)
	assert.Equal(t, RoleAI, sessions[0].Messages[1].Role)
	assert.True(t, sessions[1].IsArchived)
}

func TestSessionStore_LoadEmpty(t *testing.T) {
	store := NewSessionStore(newTestLocalStorage(t))

	sessions, err := store.Load()
	require.NoError(t, err)
	assert.NotNil(t, sessions)
	assert.Empty(t, sessions)
}

func TestSessionStore_LoadCorrupt(t *testing.T) {
	ls := newTestLocalStorage(t)
	require.NoError(t, ls.SetItem(SessionsStorageKey, "{not json"))

	_, err := NewSessionStore(ls).Load()
	var parseErr *ParseError
	require.ErrorAs(t, err, &parseErr)
	assert.Equal(t, SessionsStorageKey, parseErr.Key)
}

func TestSessionStore_Upsert(t *testing.T) {
	store := newSeededStore(t)

	updated := *CreateTestSession("s-new")
	updated.Name = "Đã đổi"
	require.NoError(t, store.Upsert(updated))
	require.NoError(t, store.Upsert(*CreateTestSession("s-third")))

	sessions, err := store.Load()
	require.NoError(t, err)
	require.Len(t, sessions, 3)
	assert.Equal(t, "s-third", sessions[0].ID, "new sessions go first")
	assert.Equal(t, "s-new", sessions[1].ID, "existing sessions keep their place")
	assert.Equal(t, "Đã đổi", sessions[1].Name)
	require.NotNil(t, sessions[1].Messages[1].ProductData)
	assert.Len(t, sessions[1].Messages[1].ProductData.Products, 2)
}

func TestSessionStore_UpsertOverCorruptList(t *testing.T) {
	ls := newTestLocalStorage(t)
	require.NoError(t, ls.SetItem(SessionsStorageKey, "[oops"))
	store := NewSessionStore(ls)

	require.NoError(t, store.Upsert(*CreateTestSession("s1")))

	sessions, err := store.Load()
	require.NoError(t, err)
	assert.Len(t, sessions, 1)
}

func TestSessionStore_Get(t *testing.T) {
	store := newSeededStore(t)

	s, err := store.Get("s-old")
	require.NoError(t, err)
	assert.Equal(t, "Chính sách đổi trả", s.Name)

	_, err = store.Get("missing")
	assert.ErrorIs(t, err, ErrSessionNotStored)
}

func TestSessionStore_RenameArchiveDelete(t *testing.T) {
	store := newSeededStore(t)
	now := time.UnixMilli(1800000000000)

	require.NoError(t, store.Rename("s-new", "Thịt bò", now))
	s, err := store.Get("s-new")
	require.NoError(t, err)
	assert.Equal(t, "Thịt bò", s.Name)
	assert.Equal(t, now.UnixMilli(), s.UpdatedAt)

	archived, err := store.ToggleArchive("s-old", now)
	require.NoError(t, err)
	assert.False(t, archived)

	archived, err = store.ToggleArchive("s-old", now)
	require.NoError(t, err)
	assert.True(t, archived)

	require.NoError(t, store.Delete("s-old"))
	assert.ErrorIs(t, store.Delete("s-old"), ErrSessionNotStored)
	assert.ErrorIs(t, store.Rename("s-old", "x", now), ErrSessionNotStored)

	sessions, err := store.Load()
	require.NoError(t, err)
	assert.Len(t, sessions, 1)
}

func TestSessionStore_Clear(t *testing.T) {
	store := newSeededStore(t)

	require.NoError(t, store.Clear())

	sessions, err := store.Load()
	require.NoError(t, err)
	assert.Empty(t, sessions)
}
