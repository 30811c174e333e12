package platform

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

const (
	// SettingsEnvVar overrides the location of the settings file
	SettingsEnvVar = "GHP_SETTINGS"

	configDirName = "ghp"
	dataDirName   = ".ghp"
)

// GetHomeDir returns the current user's home directory
func GetHomeDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return home, nil
}

// GetSSHDir returns the SSH directory path
func GetSSHDir() (string, error) {
	home, err := GetHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".ssh"), nil
}

// GetSSHConfigPath returns the default SSH client config path
func GetSSHConfigPath() (string, error) {
	sshDir, err := GetSSHDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(sshDir, "config"), nil
}

// GetDataDir returns the default directory holding the profile registry
func GetDataDir() (string, error) {
	home, err := GetHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, dataDirName), nil
}

// GetSettingsPath returns the settings file location.
// GHP_SETTINGS wins over the per-user config directory.
func GetSettingsPath() (string, error) {
	if p := os.Getenv(SettingsEnvVar); p != "" {
		return ExpandTilde(p)
	}
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("could not get user config directory: %w", err)
	}
	return filepath.Join(dir, configDirName, "settings.toml"), nil
}

// MkdirSecure creates a directory readable only by the owner
func MkdirSecure(path string) error {
	return os.MkdirAll(path, 0700)
}

// WriteFileAtomic writes data to a temp file next to path and renames it
// into place, so readers see either the old or the new content.
// Symlinks are followed and the link target is replaced.
func WriteFileAtomic(path string, data []byte, perm os.FileMode) error {
	target, err := resolveTarget(path)
	if err != nil {
		return err
	}

	// keep the mode of an existing file
	if info, err := os.Stat(target); err == nil {
		perm = info.Mode().Perm()
	}

	tmp, err := os.CreateTemp(filepath.Dir(target), "."+filepath.Base(target)+".tmp-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	cleanup := func() {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
	}

	if _, err := tmp.Write(data); err != nil {
		cleanup()
		return err
	}
	if err := tmp.Sync(); err != nil {
		cleanup()
		return err
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return err
	}
	if err := os.Chmod(tmpName, perm); err != nil {
		_ = os.Remove(tmpName)
		return err
	}
	if err := os.Rename(tmpName, target); err != nil {
		_ = os.Remove(tmpName)
		return err
	}
	return nil
}

func resolveTarget(path string) (string, error) {
	resolved, err := filepath.EvalSymlinks(path)
	if err == nil {
		return resolved, nil
	}
	if errors.Is(err, os.ErrNotExist) {
		return path, nil
	}
	return "", err
}

// CheckWritable reports whether path can be written. A missing file is
// writable when its directory is.
func CheckWritable(path string) error {
	f, err := os.OpenFile(path, os.O_WRONLY, 0)
	if err == nil {
		return f.Close()
	}
	if !errors.Is(err, os.ErrNotExist) {
		return err
	}

	probe, err := os.CreateTemp(filepath.Dir(path), ".ghp-probe-*")
	if err != nil {
		return err
	}
	name := probe.Name()
	_ = probe.Close()
	return os.Remove(name)
}

// CheckFilePermissions checks if a file is private to its owner.
// Returns true if permissions are OK, false if they need fixing
func CheckFilePermissions(path string) (bool, error) {
	info, err := os.Stat(path)
	if err != nil {
		return false, err
	}

	// group/other bits must be clear
	if info.Mode().Perm()&0077 != 0 {
		return false, nil
	}
	return true, nil
}

// GetPermissionFixCommand returns the command that fixes file permissions
func GetPermissionFixCommand(path string) string {
	return fmt.Sprintf("chmod 600 %s", path)
}

// HasCommand checks if a command is available in PATH
func HasCommand(cmd string) bool {
	_, err := exec.LookPath(cmd)
	return err == nil
}

// ExpandTilde expands ~ to home directory in path
func ExpandTilde(path string) (string, error) {
	if len(path) == 0 || path[0] != '~' {
		return path, nil
	}

	home, err := GetHomeDir()
	if err != nil {
		return "", err
	}

	if len(path) == 1 {
		return home, nil
	}

	// ~/rest/of/path
	if path[1] == os.PathSeparator || path[1] == '/' {
		return filepath.Join(home, path[2:]), nil
	}

	// ~user is left alone
	return path, nil
}

// ShortenPath replaces the home directory prefix with ~
func ShortenPath(path string) string {
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return path
	}
	if path == home {
		return "~"
	}
	if strings.HasPrefix(path, home+string(os.PathSeparator)) {
		return "~" + path[len(home):]
	}
	return path
}

// SamePath reports whether two paths name the same file after ~ expansion
// and cleaning. Paths that cannot be expanded are compared as given.
func SamePath(a, b string) bool {
	ea, err := ExpandTilde(a)
	if err != nil {
		ea = a
	}
	eb, err := ExpandTilde(b)
	if err != nil {
		eb = b
	}
	return filepath.Clean(ea) == filepath.Clean(eb)
}
