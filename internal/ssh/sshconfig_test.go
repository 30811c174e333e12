package ssh

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

const userConfig = `# personal settings
Host gitlab.com
  HostName gitlab.com
  IdentityFile ~/.ssh/id_gitlab

Host *.internal
  User deploy
  ProxyJump bastion
`

func TestRenderEmptyConfig(t *testing.T) {
	out, err := Render("", "github.com", "~/.ssh/id_alice")
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(out, ghpManagedStart+"\n"))
	require.True(t, strings.HasSuffix(out, ghpManagedEnd+"\n"))
	require.Contains(t, out, "Host github.com\n")
	require.Contains(t, out, "  IdentityFile ~/.ssh/id_alice\n")
	require.Contains(t, out, "  IdentitiesOnly yes\n")
}

func TestRenderAppendsAndPreservesUserContent(t *testing.T) {
	out, err := Render(userConfig, "github.com", "~/.ssh/id_alice")
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(out, userConfig), "unmanaged content must be kept verbatim and in order")
	require.Equal(t, userConfig+"\n"+generateGhpSection("github.com", "~/.ssh/id_alice", nil), out)
}

func TestRenderWithoutTrailingNewline(t *testing.T) {
	in := "Host example\n  User me"
	out, err := Render(in, "github.com", "/k/a")
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(out, in+"\n"+ghpManagedStart))
}

func TestRenderIsIdempotent(t *testing.T) {
	once, err := Render(userConfig, "github.com", "~/.ssh/id_alice")
	require.NoError(t, err)
	twice, err := Render(once, "github.com", "~/.ssh/id_alice")
	require.NoError(t, err)
	require.Equal(t, once, twice)
}

func TestRenderReplacesBlockInPlace(t *testing.T) {
	head := "Host first\n  User a\n\n"
	tail := "\nHost last\n  User z\n"
	in := head + generateGhpSection("github.com", "~/.ssh/id_alice", nil) + tail

	out, err := Render(in, "github.com", "~/.ssh/id_bob")
	require.NoError(t, err)
	require.Equal(t, head+generateGhpSection("github.com", "~/.ssh/id_bob", nil)+tail, out)
	require.NotContains(t, out, "id_alice")
}

func TestSwitchAThenBOnlyChangesManagedBlock(t *testing.T) {
	a, err := Render(userConfig, "github.com", "~/.ssh/id_alice")
	require.NoError(t, err)
	b, err := Render(a, "github.com", "~/.ssh/id_bob")
	require.NoError(t, err)

	aUnmanaged, err := removeManagedSection(a)
	require.NoError(t, err)
	bUnmanaged, err := removeManagedSection(b)
	require.NoError(t, err)
	require.Equal(t, aUnmanaged, bUnmanaged)
	require.Equal(t, userConfig+"\n", bUnmanaged)
}

func TestRenderUnterminatedMarker(t *testing.T) {
	in := userConfig + ghpManagedStart + "\nHost github.com\n"
	_, err := Render(in, "github.com", "/k/a")
	require.ErrorIs(t, err, ErrMalformedMarker)
}

func TestRenderRejectsBadHost(t *testing.T) {
	_, err := Render("", "github.com evil", "/k/a")
	require.Error(t, err)
}

func TestRenderQuotesPathsWithSpaces(t *testing.T) {
	out, err := Render("", "github.com", "/Users/me/My Keys/id_alice")
	require.NoError(t, err)
	require.Contains(t, out, `  IdentityFile "/Users/me/My Keys/id_alice"`+"\n")
}

func TestApplyCreatesFileAndIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".ssh", "config")
	e := NewEditor(path, "github.com", nil)

	changed, err := e.Apply("~/.ssh/id_alice")
	require.NoError(t, err)
	require.True(t, changed)

	first, err := os.ReadFile(path)
	require.NoError(t, err)

	info, err := os.Stat(path)
	require.NoError(t, err)
	require.Equal(t, os.FileMode(0600), info.Mode().Perm())

	changed, err = e.Apply("~/.ssh/id_alice")
	require.NoError(t, err)
	require.False(t, changed)

	second, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, first, second)
}

func TestApplyKeepsUnrelatedHosts(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config")
	require.NoError(t, os.WriteFile(path, []byte(userConfig), 0600))
	e := NewEditor(path, "github.com", nil)

	_, err := e.Apply("~/.ssh/id_alice")
	require.NoError(t, err)
	_, err = e.Apply("~/.ssh/id_bob")
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	out := string(data)
	require.True(t, strings.HasPrefix(out, userConfig))
	require.Less(t, strings.Index(out, "Host gitlab.com"), strings.Index(out, "Host *.internal"))
	require.Equal(t, 1, strings.Count(out, ghpManagedStart))
}

func TestActiveKey(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config")
	e := NewEditor(path, "github.com", nil)

	key, err := e.ActiveKey()
	require.NoError(t, err)
	require.Empty(t, key)

	require.NoError(t, os.WriteFile(path, []byte(userConfig), 0600))
	key, err = e.ActiveKey()
	require.NoError(t, err)
	require.Empty(t, key)

	_, err = e.Apply("~/.ssh/id_alice")
	require.NoError(t, err)
	key, err = e.ActiveKey()
	require.NoError(t, err)
	require.Equal(t, "~/.ssh/id_alice", key)
}

func TestConflicts(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config")
	legacy := "Host github.com\n  HostName github.com\n  User alice\n  IdentityFile ~/.ssh/old\n\n" + userConfig
	require.NoError(t, os.WriteFile(path, []byte(legacy), 0600))
	e := NewEditor(path, "github.com", nil)

	_, err := e.Apply("~/.ssh/id_alice")
	require.NoError(t, err)

	conflicts, err := e.Conflicts()
	require.NoError(t, err)
	require.Equal(t, []string{"Host github.com"}, conflicts)
}

func TestNoConflictsForUnrelatedHosts(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config")
	require.NoError(t, os.WriteFile(path, []byte(userConfig), 0600))
	e := NewEditor(path, "github.com", nil)

	conflicts, err := e.Conflicts()
	require.NoError(t, err)
	require.Empty(t, conflicts)
}

func TestPlanDoesNotWrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config")
	require.NoError(t, os.WriteFile(path, []byte(userConfig), 0600))
	e := NewEditor(path, "github.com", nil)

	before, after, err := e.Plan("~/.ssh/id_alice")
	require.NoError(t, err)
	require.Equal(t, userConfig, before)
	require.NotEqual(t, before, after)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, userConfig, string(data))
}

func TestRemoveRestoresUserContent(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"trailing newline", userConfig},
		{"no trailing newline", "Host gitlab.com\n  User git"},
		{"trailing blank line", userConfig + "\n"},
		{"empty", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config")
			require.NoError(t, os.WriteFile(path, []byte(tt.content), 0600))
			e := NewEditor(path, "github.com", nil)
			e.Aliases = []Alias{{Name: "work", KeyPath: "~/.ssh/id_work"}}

			_, err := e.Apply("~/.ssh/id_alice")
			require.NoError(t, err)

			changed, err := e.Remove()
			require.NoError(t, err)
			require.True(t, changed)

			data, err := os.ReadFile(path)
			require.NoError(t, err)
			require.Equal(t, tt.content, string(data))

			changed, err = e.Remove()
			require.NoError(t, err)
			require.False(t, changed)
		})
	}
}

func TestRemoveMissingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config")
	changed, err := NewEditor(path, "github.com", nil).Remove()
	require.NoError(t, err)
	require.False(t, changed)
	require.NoFileExists(t, path)
}

func TestRenderWritesOneAliasPerProfile(t *testing.T) {
	aliases := []Alias{
		{Name: "work", KeyPath: "~/.ssh/id_work"},
		{Name: "home", KeyPath: "~/.ssh/id_home"},
	}
	out, err := Render(userConfig, "github.com", "~/.ssh/id_work", aliases...)
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(out, userConfig))
	require.Contains(t, out, "Host github.com-work\n  HostName github.com\n  User git\n  IdentityFile ~/.ssh/id_work\n")
	require.Contains(t, out, "Host github.com-home\n  HostName github.com\n  User git\n  IdentityFile ~/.ssh/id_home\n")
	require.Less(t, strings.Index(out, "Host github.com\n"), strings.Index(out, "Host github.com-work"))

	unmanaged, err := removeManagedSection(out)
	require.NoError(t, err)
	require.NotContains(t, unmanaged, "github.com-")

	again, err := Render(out, "github.com", "~/.ssh/id_work", aliases...)
	require.NoError(t, err)
	require.Equal(t, out, again)
}

func TestActiveKeyIgnoresAliases(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config")
	e := NewEditor(path, "github.com", nil)
	e.Aliases = []Alias{{Name: "work", KeyPath: "~/.ssh/id_work"}}

	_, err := e.Apply("~/.ssh/id_home")
	require.NoError(t, err)

	key, err := e.ActiveKey()
	require.NoError(t, err)
	require.Equal(t, "~/.ssh/id_home", key)
}

func TestRefreshKeepsIdentityAndUpdatesAliases(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config")
	e := NewEditor(path, "github.com", nil)

	changed, err := e.Refresh()
	require.NoError(t, err)
	require.False(t, changed)
	require.NoFileExists(t, path)

	_, err = e.Apply("~/.ssh/id_home")
	require.NoError(t, err)

	e.Aliases = []Alias{{Name: "work", KeyPath: "~/.ssh/id_work"}}
	changed, err = e.Refresh()
	require.NoError(t, err)
	require.True(t, changed)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Contains(t, string(data), "Host github.com-work\n")

	key, err := e.ActiveKey()
	require.NoError(t, err)
	require.Equal(t, "~/.ssh/id_home", key)

	e.Aliases = nil
	_, err = e.Refresh()
	require.NoError(t, err)
	data, err = os.ReadFile(path)
	require.NoError(t, err)
	require.NotContains(t, string(data), "github.com-work")
}

func TestRestoreUndoesApply(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config")
	require.NoError(t, os.WriteFile(path, []byte(userConfig), 0600))
	e := NewEditor(path, "github.com", nil)

	before, _, err := e.Plan("~/.ssh/id_alice")
	require.NoError(t, err)
	_, err = e.Apply("~/.ssh/id_alice")
	require.NoError(t, err)

	require.NoError(t, e.Restore(before))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, userConfig, string(data))
}
