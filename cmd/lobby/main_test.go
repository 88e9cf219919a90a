package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DoyleJ11/lobby-client/internal/httpapi"
	"github.com/DoyleJ11/lobby-client/internal/store"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	chdir(t, t.TempDir())
	root := newRootCmd()
	root.SilenceErrors = true
	root.SilenceUsage = true
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func TestGamesCommand(t *testing.T) {
	out, err := execute(t, "games")
	require.NoError(t, err)
	assert.Contains(t, out, "drawguess")
	assert.Contains(t, out, "Party Pack")
}

func TestJoinRejectsBadCode(t *testing.T) {
	_, err := execute(t, "join", "ABCDE", "--name", "Bob", "--port", "1")
	assert.ErrorIs(t, err, httpapi.ErrInvalidRoomCode)
}

func TestJoinRequiresName(t *testing.T) {
	_, err := execute(t, "join", "AB12")
	assert.ErrorContains(t, err, `"name" not set`)
}

func TestHostRejectsUnknownGame(t *testing.T) {
	_, err := execute(t, "host", "chess", "--name", "Alice", "--port", "1")
	assert.ErrorIs(t, err, httpapi.ErrUnknownGameType)
}

func TestResumeWithoutSession(t *testing.T) {
	dsn := filepath.Join(t.TempDir(), "session.db")
	_, err := execute(t, "resume", "--session-dsn", dsn)
	assert.ErrorIs(t, err, store.ErrNoSession)
}

// chdir is a pre-Go 1.24 stand-in for t.Chdir.
func chdir(t *testing.T, dir string) {
	t.Helper()
	wd, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = os.Chdir(wd) })
}
