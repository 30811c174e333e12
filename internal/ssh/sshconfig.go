package ssh

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/kevinburke/ssh_config"
	"go.uber.org/zap"

	"github.com/byterings/ghp/internal/platform"
)

const (
	ghpManagedStart = "# ---- BEGIN GHP MANAGED ----"
	ghpManagedEnd   = "# ---- END GHP MANAGED ----"
)

var (
	ErrConfigIO        = errors.New("ssh config I/O error")
	ErrMalformedMarker = errors.New("ssh config has an unterminated ghp managed section")
)

// Alias is a per-profile Host entry written inside the managed block,
// reachable as <host>-<name> without switching.
type Alias struct {
	Name    string
	KeyPath string
}

// Editor owns the ghp-managed block of one SSH client config file
type Editor struct {
	Path    string
	Host    string
	Aliases []Alias
	Logger  *zap.Logger
}

// NewEditor returns an editor for the config file at path
func NewEditor(path, host string, logger *zap.Logger) *Editor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Editor{Path: path, Host: host, Logger: logger}
}

// Plan returns the current file content and the content after switching to keyPath
func (e *Editor) Plan(keyPath string) (before, after string, err error) {
	before, err = readSSHConfig(e.Path)
	if err != nil {
		return "", "", fmt.Errorf("%w: failed to read %s: %w", ErrConfigIO, e.Path, err)
	}
	after, err = Render(before, e.Host, keyPath, e.Aliases...)
	if err != nil {
		return "", "", err
	}
	return before, after, nil
}

// Apply points the managed block at keyPath. The file is written once,
// and only when its content changes.
func (e *Editor) Apply(keyPath string) (changed bool, err error) {
	before, after, err := e.Plan(keyPath)
	if err != nil {
		return false, err
	}

	if before == after {
		e.Logger.Debug("ssh config already up to date", zap.String("path", e.Path))
		return false, nil
	}

	if err := platform.MkdirSecure(filepath.Dir(e.Path)); err != nil {
		return false, fmt.Errorf("%w: failed to create %s: %w", ErrConfigIO, filepath.Dir(e.Path), err)
	}

	if err := platform.WriteFileAtomic(e.Path, []byte(after), 0600); err != nil {
		return false, fmt.Errorf("%w: failed to write %s: %w", ErrConfigIO, e.Path, err)
	}

	e.Logger.Debug("ssh config updated",
		zap.String("path", e.Path),
		zap.String("host", e.Host),
		zap.String("identity_file", keyPath))
	return true, nil
}

// Refresh re-renders the managed block with the current Aliases and the
// IdentityFile it already has. A file without a managed block is left alone.
func (e *Editor) Refresh() (changed bool, err error) {
	key, err := e.ActiveKey()
	if err != nil {
		return false, err
	}
	if key == "" {
		return false, nil
	}
	return e.Apply(key)
}

// Restore writes content back verbatim, undoing an Apply
func (e *Editor) Restore(content string) error {
	if err := platform.WriteFileAtomic(e.Path, []byte(content), 0600); err != nil {
		return fmt.Errorf("%w: failed to restore %s: %w", ErrConfigIO, e.Path, err)
	}
	return nil
}

// Remove deletes the managed block and the newline Render put before it.
// A file without a block is left untouched.
func (e *Editor) Remove() (changed bool, err error) {
	content, err := readSSHConfig(e.Path)
	if err != nil {
		return false, fmt.Errorf("%w: failed to read %s: %w", ErrConfigIO, e.Path, err)
	}

	start, end, found, err := findManagedSection(content)
	if err != nil {
		return false, err
	}
	if !found {
		return false, nil
	}

	head, tail := content[:start], content[end:]
	if tail == "" && strings.HasSuffix(head, "\n") {
		head = head[:len(head)-1]
	}

	if err := platform.WriteFileAtomic(e.Path, []byte(head+tail), 0600); err != nil {
		return false, fmt.Errorf("%w: failed to write %s: %w", ErrConfigIO, e.Path, err)
	}
	e.Logger.Debug("ghp section removed", zap.String("path", e.Path))
	return true, nil
}

// ActiveKey returns the IdentityFile of the managed block, or "" when
// the file has no managed block.
func (e *Editor) ActiveKey() (string, error) {
	content, err := readSSHConfig(e.Path)
	if err != nil {
		return "", fmt.Errorf("%w: failed to read %s: %w", ErrConfigIO, e.Path, err)
	}

	start, end, found, err := findManagedSection(content)
	if err != nil {
		return "", err
	}
	if !found {
		return "", nil
	}

	cfg, err := ssh_config.Decode(strings.NewReader(content[start:end]))
	if err != nil {
		return "", fmt.Errorf("failed to parse ghp managed section: %w", err)
	}
	key, err := cfg.Get(e.Host, "IdentityFile")
	if err != nil {
		return "", err
	}
	return strings.Trim(key, `"`), nil
}

// Conflicts lists unmanaged Host patterns that also match the managed host.
// ssh uses the first value it finds, so such entries can shadow the managed block.
func (e *Editor) Conflicts() ([]string, error) {
	content, err := readSSHConfig(e.Path)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read %s: %w", ErrConfigIO, e.Path, err)
	}

	unmanaged, err := removeManagedSection(content)
	if err != nil {
		return nil, err
	}

	cfg, err := ssh_config.Decode(strings.NewReader(unmanaged))
	if err != nil {
		// the user's own syntax is not ours to judge
		e.Logger.Debug("could not parse unmanaged ssh config", zap.Error(err))
		return nil, nil
	}

	var conflicts []string
	for _, h := range cfg.Hosts {
		if !h.Matches(e.Host) || !hasIdentityFile(h) {
			continue
		}
		patterns := make([]string, 0, len(h.Patterns))
		for _, p := range h.Patterns {
			patterns = append(patterns, p.String())
		}
		conflicts = append(conflicts, "Host "+strings.Join(patterns, " "))
	}
	return conflicts, nil
}

// Render returns content with the managed block pointing at keyPath, followed
// by one entry per alias. An existing block is replaced where it stands;
// otherwise one is appended after a blank line, or directly after content
// that lacks a final newline. Everything outside the markers is kept byte
// for byte.
func Render(content, host, keyPath string, aliases ...Alias) (string, error) {
	if host == "" || strings.ContainsAny(host, " \t\r\n") {
		return "", fmt.Errorf("invalid ssh host alias: %q", host)
	}

	block := generateGhpSection(host, keyPath, aliases)

	start, end, found, err := findManagedSection(content)
	if err != nil {
		return "", err
	}
	if found {
		return content[:start] + block + content[end:], nil
	}

	if content == "" {
		return block, nil
	}

	var newContent strings.Builder
	newContent.WriteString(content)
	newContent.WriteString("\n")
	newContent.WriteString(block)
	return newContent.String(), nil
}

// readSSHConfig reads the SSH config file; a missing file reads as empty
func readSSHConfig(path string) (string, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", nil
		}
		return "", err
	}
	return string(content), nil
}

// findManagedSection returns the byte range from the start marker line up to
// and including the end marker line.
func findManagedSection(content string) (start, end int, found bool, err error) {
	offset := 0
	start = -1
	for _, line := range strings.SplitAfter(content, "\n") {
		trimmed := strings.TrimSpace(line)
		switch {
		case start < 0 && trimmed == ghpManagedStart:
			start = offset
		case start >= 0 && trimmed == ghpManagedEnd:
			return start, offset + len(line), true, nil
		}
		offset += len(line)
	}
	if start >= 0 {
		return 0, 0, false, ErrMalformedMarker
	}
	return 0, 0, false, nil
}

func removeManagedSection(content string) (string, error) {
	start, end, found, err := findManagedSection(content)
	if err != nil {
		return "", err
	}
	if !found {
		return content, nil
	}
	return content[:start] + content[end:], nil
}

// generateGhpSection generates the ghp-managed SSH config section
func generateGhpSection(host, keyPath string, aliases []Alias) string {
	var section strings.Builder

	section.WriteString(ghpManagedStart + "\n")
	section.WriteString("# DO NOT EDIT THIS SECTION MANUALLY\n")
	section.WriteString("# This section is managed by ghp\n")
	writeHostEntry(&section, host, keyPath)
	for _, a := range aliases {
		section.WriteString("\n")
		writeHostEntry(&section, AliasHost(host, a.Name), a.KeyPath)
	}
	section.WriteString(ghpManagedEnd + "\n")

	return section.String()
}

func writeHostEntry(section *strings.Builder, host, keyPath string) {
	section.WriteString(fmt.Sprintf("Host %s\n", host))
	section.WriteString("  HostName github.com\n")
	section.WriteString("  User git\n")
	section.WriteString(fmt.Sprintf("  IdentityFile %s\n", quoteIfNeeded(keyPath)))
	section.WriteString("  IdentitiesOnly yes\n")
}

// AliasHost is the Host pattern of a profile's alias entry
func AliasHost(host, profileName string) string {
	return host + "-" + profileName
}

func quoteIfNeeded(value string) string {
	if strings.ContainsAny(value, " \t") {
		return `"` + value + `"`
	}
	return value
}

func hasIdentityFile(h *ssh_config.Host) bool {
	for _, node := range h.Nodes {
		kv, ok := node.(*ssh_config.KV)
		if ok && strings.EqualFold(kv.Key, "IdentityFile") {
			return true
		}
	}
	return false
}
