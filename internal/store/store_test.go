package store

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DoyleJ11/lobby-client/pkg/types"
)

func openTemp(t *testing.T) (*Store, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "nested", "session.db")
	st, err := Open(path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	return st, path
}

func TestLoadEmpty(t *testing.T) {
	st, _ := openTemp(t)
	_, err := st.Load()
	assert.ErrorIs(t, err, ErrNoSession)
}

func TestSaveLoadReplace(t *testing.T) {
	st, _ := openTemp(t)

	first := types.Session{ClientID: "u1", RoomCode: "AB12", PlayerName: "Alice"}
	require.NoError(t, st.Save(first))
	got, err := st.Load()
	require.NoError(t, err)
	assert.Equal(t, first, got)

	second := types.Session{ClientID: "u9", RoomCode: "ZZ99", PlayerName: "Bob"}
	require.NoError(t, st.Save(second))
	got, err = st.Load()
	require.NoError(t, err)
	assert.Equal(t, second, got)
}

func TestPersistsAcrossOpen(t *testing.T) {
	st, path := openTemp(t)
	s := types.Session{ClientID: "u1", RoomCode: "AB12", PlayerName: "Alice"}
	require.NoError(t, st.Save(s))
	require.NoError(t, st.Close())

	reopened, err := Open(path)
	require.NoError(t, err)
	defer reopened.Close()

	got, err := reopened.Load()
	require.NoError(t, err)
	assert.Equal(t, s, got)
}

func TestClear(t *testing.T) {
	st, _ := openTemp(t)
	require.NoError(t, st.Save(types.Session{ClientID: "u1", RoomCode: "AB12"}))
	require.NoError(t, st.Clear())

	_, err := st.Load()
	assert.ErrorIs(t, err, ErrNoSession)
	assert.NoError(t, st.Clear(), "clearing twice is fine")
}

func TestOpenRequiresDSN(t *testing.T) {
	_, err := Open("")
	assert.Error(t, err)
}

func TestGetDialector(t *testing.T) {
	d, err := getDialector("postgres://u:p@localhost:5432/lobby")
	require.NoError(t, err)
	assert.Equal(t, "postgres", d.Name())

	d, err = getDialector("postgresql://localhost/lobby")
	require.NoError(t, err)
	assert.Equal(t, "postgres", d.Name())

	d, err = getDialector(":memory:")
	require.NoError(t, err)
	assert.Equal(t, "sqlite", d.Name())
}
