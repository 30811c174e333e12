package git

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// isolateGit points git's global and system config at throwaway locations
func isolateGit(t *testing.T) string {
	t.Helper()
	if !IsGitInstalled() {
		t.Skip("git is not installed")
	}
	home := t.TempDir()
	global := filepath.Join(home, ".gitconfig")
	t.Setenv("HOME", home)
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(home, ".config"))
	t.Setenv("GIT_CONFIG_GLOBAL", global)
	t.Setenv("GIT_CONFIG_NOSYSTEM", "1")
	return global
}

func TestGetUserUnset(t *testing.T) {
	isolateGit(t)

	name, email, err := NewEditor("", nil).GetUser()
	require.NoError(t, err)
	require.Empty(t, name)
	require.Empty(t, email)
}

func TestSetUserGlobal(t *testing.T) {
	global := isolateGit(t)
	e := NewEditor("", nil)

	require.NoError(t, e.SetUser("Alice", "alice@example.com"))

	name, email, err := e.GetUser()
	require.NoError(t, err)
	require.Equal(t, "Alice", name)
	require.Equal(t, "alice@example.com", email)

	_, err = os.Stat(global)
	require.NoError(t, err)
	require.Equal(t, "global", e.Scope())
}

func TestSetUserIsIdempotent(t *testing.T) {
	global := isolateGit(t)
	e := NewEditor("", nil)

	require.NoError(t, e.SetUser("Alice", "alice@example.com"))
	once, err := os.ReadFile(global)
	require.NoError(t, err)

	require.NoError(t, e.SetUser("Alice", "alice@example.com"))
	twice, err := os.ReadFile(global)
	require.NoError(t, err)
	require.Equal(t, once, twice)
}

func TestSetUserSwitchKeepsOtherSettings(t *testing.T) {
	global := isolateGit(t)
	require.NoError(t, os.WriteFile(global, []byte("[core]\n\teditor = vim\n"), 0644))
	e := NewEditor("", nil)

	require.NoError(t, e.SetUser("Alice", "alice@example.com"))
	require.NoError(t, e.SetUser("Bob", "bob@example.com"))

	name, email, err := e.GetUser()
	require.NoError(t, err)
	require.Equal(t, "Bob", name)
	require.Equal(t, "bob@example.com", email)

	data, err := os.ReadFile(global)
	require.NoError(t, err)
	require.Contains(t, string(data), "editor = vim")
}

func TestSetUserExplicitFile(t *testing.T) {
	global := isolateGit(t)
	file := filepath.Join(t.TempDir(), "identity.gitconfig")
	e := NewEditor(file, nil)

	require.NoError(t, e.SetUser("Alice", "alice@example.com"))

	name, email, err := e.GetUser()
	require.NoError(t, err)
	require.Equal(t, "Alice", name)
	require.Equal(t, "alice@example.com", email)
	require.Equal(t, file, e.Scope())

	_, err = os.Stat(global)
	require.True(t, os.IsNotExist(err), "global config must not be touched")
}
