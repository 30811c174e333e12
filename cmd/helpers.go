package cmd

import (
	"fmt"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/byterings/ghp/internal/config"
	"github.com/byterings/ghp/internal/git"
	"github.com/byterings/ghp/internal/platform"
	"github.com/byterings/ghp/internal/profile"
	"github.com/byterings/ghp/internal/ssh"
	"github.com/byterings/ghp/internal/ui"
)

// resolveSettingsPath picks --settings, then GHP_SETTINGS, then the default
func resolveSettingsPath() (string, error) {
	if settingsFile != "" {
		return platform.ExpandTilde(settingsFile)
	}
	return platform.GetSettingsPath()
}

// loadSettings loads the locations recorded by setup
func loadSettings() (*config.Settings, error) {
	path, err := resolveSettingsPath()
	if err != nil {
		return nil, err
	}
	return config.Load(path)
}

// loadEnv loads settings and the profile registry
func loadEnv() (*config.Settings, *profile.Store, error) {
	settings, err := loadSettings()
	if err != nil {
		return nil, nil, err
	}
	store, err := profile.Load(settings.GhpDir)
	if err != nil {
		return nil, nil, err
	}
	return settings, store, nil
}

func sshEditor(settings *config.Settings) *ssh.Editor {
	return ssh.NewEditor(settings.SSHConfig, settings.Host, logger)
}

// managedEditor is sshEditor with one Host alias per registered profile
func managedEditor(settings *config.Settings, store *profile.Store) *ssh.Editor {
	e := sshEditor(settings)
	for _, p := range store.List() {
		e.Aliases = append(e.Aliases, ssh.Alias{Name: p.Name, KeyPath: p.KeyPath})
	}
	return e
}

// refreshAliases rewrites the alias entries after the registry changed.
// Until the first switch there is no managed block and nothing is written.
func refreshAliases(settings *config.Settings, store *profile.Store) {
	changed, err := managedEditor(settings, store).Refresh()
	if err != nil {
		ui.Warning(fmt.Sprintf("Could not update SSH host aliases: %v", err))
		return
	}
	if changed {
		logger.Debug("ssh host aliases updated", zap.Int("profiles", len(store.Profiles)))
	}
}

// absKeyPath makes a relative key path absolute. Paths starting with ~ are
// kept as typed; ssh expands them itself.
func absKeyPath(path string) (string, error) {
	if path == "" || path == "~" || strings.HasPrefix(path, "~/") || filepath.IsAbs(path) {
		return path, nil
	}
	return filepath.Abs(path)
}

func gitEditor(settings *config.Settings) *git.Editor {
	return git.NewEditor(settings.GitConfig, logger)
}

// activeState is what the SSH and Git files currently say
type activeState struct {
	KeyPath string
	Name    string
	Email   string
	Profile *profile.Profile // nil when no registered profile matches
}

// resolveActive derives the active profile from the external config files.
// A profile is active when the managed IdentityFile is its key and, if git
// is available, user.email is its email.
func resolveActive(settings *config.Settings, store *profile.Store) (*activeState, error) {
	state := &activeState{}

	key, err := sshEditor(settings).ActiveKey()
	if err != nil {
		return nil, err
	}
	state.KeyPath = key

	gitChecked := git.IsGitInstalled()
	if gitChecked {
		state.Name, state.Email, err = gitEditor(settings).GetUser()
		if err != nil {
			return nil, err
		}
	}

	if key == "" {
		return state, nil
	}

	for _, p := range store.List() {
		if !platform.SamePath(p.KeyPath, key) {
			continue
		}
		if gitChecked && p.Email != state.Email {
			continue
		}
		match := p
		state.Profile = &match
		break
	}
	return state, nil
}

// activeName returns the active profile name, or "" if it cannot be determined
func activeName(settings *config.Settings, store *profile.Store) string {
	state, err := resolveActive(settings, store)
	if err != nil || state.Profile == nil {
		return ""
	}
	return state.Profile.Name
}
