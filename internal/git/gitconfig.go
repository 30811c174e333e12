package git

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"go.uber.org/zap"
)

// ErrConfigIO is returned when git config cannot be read or written
var ErrConfigIO = errors.New("git config I/O error")

// Editor sets the Git identity in the global config, or in File when set
type Editor struct {
	File   string
	Logger *zap.Logger
}

// NewEditor returns an editor for file; an empty file means --global
func NewEditor(file string, logger *zap.Logger) *Editor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Editor{File: file, Logger: logger}
}

// Scope describes where the identity is written
func (e *Editor) Scope() string {
	if e.File != "" {
		return e.File
	}
	return "global"
}

// SetUser sets user.name and user.email. Values that are already
// set are not rewritten.
func (e *Editor) SetUser(name, email string) error {
	currentName, currentEmail, err := e.GetUser()
	if err != nil {
		return err
	}

	if currentName != name {
		if err := e.runGitConfig("user.name", name); err != nil {
			return fmt.Errorf("%w: failed to set git user.name: %w", ErrConfigIO, err)
		}
		e.Logger.Debug("git user.name updated", zap.String("scope", e.Scope()), zap.String("value", name))
	}

	if currentEmail != email {
		if err := e.runGitConfig("user.email", email); err != nil {
			return fmt.Errorf("%w: failed to set git user.email: %w", ErrConfigIO, err)
		}
		e.Logger.Debug("git user.email updated", zap.String("scope", e.Scope()), zap.String("value", email))
	}

	return nil
}

// GetUser returns the current user.name and user.email; unset keys are ""
func (e *Editor) GetUser() (name, email string, err error) {
	name, err = e.getGitConfig("user.name")
	if err != nil {
		return "", "", fmt.Errorf("%w: failed to get git user.name: %w", ErrConfigIO, err)
	}

	email, err = e.getGitConfig("user.email")
	if err != nil {
		return "", "", fmt.Errorf("%w: failed to get git user.email: %w", ErrConfigIO, err)
	}

	return name, email, nil
}

func (e *Editor) scopeArgs() []string {
	if e.File != "" {
		return []string{"--file", e.File}
	}
	return []string{"--global"}
}

// runGitConfig runs git config to set a value
func (e *Editor) runGitConfig(key, value string) error {
	args := append([]string{"config"}, e.scopeArgs()...)
	args = append(args, key, value)

	cmd := exec.Command("git", args...)
	output, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("git config failed: %s: %w", strings.TrimSpace(string(output)), err)
	}
	return nil
}

// getGitConfig gets a git config value
func (e *Editor) getGitConfig(key string) (string, error) {
	if e.File != "" {
		if _, err := os.Stat(e.File); errors.Is(err, os.ErrNotExist) {
			return "", nil
		}
	}

	args := append([]string{"config"}, e.scopeArgs()...)
	args = append(args, "--get", key)

	cmd := exec.Command("git", args...)
	output, err := cmd.Output()
	if err != nil {
		// exit code 1: key not set (or --file does not exist yet)
		var exitError *exec.ExitError
		if errors.As(err, &exitError) && exitError.ExitCode() == 1 {
			return "", nil
		}
		return "", err
	}
	return strings.TrimSpace(string(output)), nil
}

// IsGitInstalled checks if git is installed
func IsGitInstalled() bool {
	cmd := exec.Command("git", "--version")
	return cmd.Run() == nil
}
