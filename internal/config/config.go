package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/spf13/viper"

	"github.com/byterings/ghp/internal/platform"
)

const (
	// DefaultHost is the SSH host alias ghp manages
	DefaultHost = "github.com"

	keySSHConfig = "ssh_config"
	keyGhpDir    = "ghp_dir"
	keyGitConfig = "git_config"
	keyHost      = "host"
)

// ErrNotConfigured is returned when setup has not been run yet
var ErrNotConfigured = errors.New("ghp is not set up yet\nRun: ghp setup")

// envBindings maps settings keys to their environment overrides
var envBindings = map[string]string{
	keySSHConfig: "GHP_SSH_CONFIG",
	keyGhpDir:    "GHP_DIR",
	keyGitConfig: "GHP_GIT_CONFIG",
	keyHost:      "GHP_HOST",
}

// DefaultSettings returns the locations used when setup is run without flags
func DefaultSettings() (*Settings, error) {
	sshConfig, err := platform.GetSSHConfigPath()
	if err != nil {
		return nil, err
	}
	ghpDir, err := platform.GetDataDir()
	if err != nil {
		return nil, err
	}
	return &Settings{
		SSHConfig: sshConfig,
		GhpDir:    ghpDir,
		Host:      DefaultHost,
	}, nil
}

// Exists checks whether a settings file is present at path
func Exists(path string) (bool, error) {
	_, err := os.Stat(path)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	return false, err
}

// Load reads the settings file at path. Environment variables
// (GHP_SSH_CONFIG, GHP_DIR, GHP_GIT_CONFIG, GHP_HOST) override file values.
func Load(path string) (*Settings, error) {
	exists, err := Exists(path)
	if err != nil {
		return nil, fmt.Errorf("failed to check settings: %w", err)
	}
	if !exists {
		return nil, ErrNotConfigured
	}

	defaults, err := DefaultSettings()
	if err != nil {
		return nil, err
	}

	v := viper.New()
	v.SetDefault(keySSHConfig, defaults.SSHConfig)
	v.SetDefault(keyGhpDir, defaults.GhpDir)
	v.SetDefault(keyGitConfig, "")
	v.SetDefault(keyHost, defaults.Host)

	v.SetConfigFile(path)
	v.SetConfigType("toml")
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read settings %s: %w", path, err)
	}

	for key, env := range envBindings {
		if err := v.BindEnv(key, env); err != nil {
			return nil, err
		}
	}

	var s Settings
	if err := v.Unmarshal(&s); err != nil {
		return nil, fmt.Errorf("failed to decode settings: %w", err)
	}

	if err := s.expand(); err != nil {
		return nil, err
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

// Save writes the settings file in one piece
func Save(path string, s *Settings) error {
	if err := s.Validate(); err != nil {
		return err
	}

	if err := platform.MkdirSecure(filepath.Dir(path)); err != nil {
		return fmt.Errorf("failed to create settings directory: %w", err)
	}

	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(s); err != nil {
		return fmt.Errorf("failed to encode settings: %w", err)
	}

	if err := platform.WriteFileAtomic(path, buf.Bytes(), 0600); err != nil {
		return fmt.Errorf("failed to write settings: %w", err)
	}
	return nil
}

// Validate checks that the required locations are set
func (s *Settings) Validate() error {
	if s.SSHConfig == "" {
		return fmt.Errorf("ssh config path is empty")
	}
	if s.GhpDir == "" {
		return fmt.Errorf("ghp directory is empty")
	}
	if s.Host == "" {
		return fmt.Errorf("ssh host alias is empty")
	}
	if strings.ContainsAny(s.Host, " \t\r\n") {
		return fmt.Errorf("ssh host alias %q must not contain whitespace", s.Host)
	}
	return nil
}

func (s *Settings) expand() error {
	var err error
	if s.SSHConfig, err = platform.ExpandTilde(s.SSHConfig); err != nil {
		return err
	}
	if s.GhpDir, err = platform.ExpandTilde(s.GhpDir); err != nil {
		return err
	}
	if s.GitConfig, err = platform.ExpandTilde(s.GitConfig); err != nil {
		return err
	}
	return nil
}
