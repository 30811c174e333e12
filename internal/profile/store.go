package profile

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/byterings/ghp/internal/platform"
)

const (
	// FileName is the registry file inside the ghp directory
	FileName       = "profiles.toml"
	currentVersion = "1"
)

var (
	ErrProfileNotFound = errors.New("profile not found")
	ErrProfileExists   = errors.New("profile already exists")
	ErrStoreIO         = errors.New("profile store I/O error")
	ErrNotInitialized  = errors.New("profile registry does not exist\nRun: ghp setup")
)

var emailPattern = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

// Path returns the registry file path for a ghp directory
func Path(dir string) string {
	return filepath.Join(dir, FileName)
}

// New creates an empty store
func New() *Store {
	return &Store{
		Version:  currentVersion,
		Profiles: []Profile{},
	}
}

// Init creates the ghp directory and an empty registry if none exists.
// An existing registry is left untouched.
func Init(dir string) (created bool, err error) {
	if err := platform.MkdirSecure(dir); err != nil {
		return false, fmt.Errorf("%w: failed to create %s: %w", ErrStoreIO, dir, err)
	}

	if _, err := os.Stat(Path(dir)); err == nil {
		return false, nil
	} else if !errors.Is(err, os.ErrNotExist) {
		return false, fmt.Errorf("%w: %w", ErrStoreIO, err)
	}

	if err := Save(dir, New()); err != nil {
		return false, err
	}
	return true, nil
}

// Load reads the registry from the ghp directory
func Load(dir string) (*Store, error) {
	path := Path(dir)

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrNotInitialized
		}
		return nil, fmt.Errorf("%w: failed to read %s: %w", ErrStoreIO, path, err)
	}

	s := New()
	if _, err := toml.Decode(string(data), s); err != nil {
		return nil, fmt.Errorf("%w: failed to decode %s: %w", ErrStoreIO, path, err)
	}

	seen := make(map[string]bool, len(s.Profiles))
	for _, p := range s.Profiles {
		if seen[p.Name] {
			return nil, fmt.Errorf("%w: duplicate profile '%s' in %s", ErrStoreIO, p.Name, path)
		}
		seen[p.Name] = true
	}

	return s, nil
}

// Save rewrites the whole registry
func Save(dir string, s *Store) error {
	if s.Version == "" {
		s.Version = currentVersion
	}

	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(s); err != nil {
		return fmt.Errorf("%w: failed to encode registry: %w", ErrStoreIO, err)
	}

	if err := platform.WriteFileAtomic(Path(dir), buf.Bytes(), 0600); err != nil {
		return fmt.Errorf("%w: failed to write registry: %w", ErrStoreIO, err)
	}
	return nil
}

// Get finds a profile by name
func (s *Store) Get(name string) (*Profile, bool) {
	for i := range s.Profiles {
		if s.Profiles[i].Name == name {
			return &s.Profiles[i], true
		}
	}
	return nil, false
}

// Add appends a profile; names must be unique
func (s *Store) Add(p Profile) error {
	if err := p.Validate(); err != nil {
		return err
	}
	if _, ok := s.Get(p.Name); ok {
		return fmt.Errorf("%w: '%s'", ErrProfileExists, p.Name)
	}
	s.Profiles = append(s.Profiles, p)
	return nil
}

// Remove deletes a profile by name and returns it
func (s *Store) Remove(name string) (Profile, error) {
	for i, p := range s.Profiles {
		if p.Name == name {
			s.Profiles = append(s.Profiles[:i:i], s.Profiles[i+1:]...)
			return p, nil
		}
	}
	return Profile{}, fmt.Errorf("%w: '%s'", ErrProfileNotFound, name)
}

// List returns the profiles in insertion order
func (s *Store) List() []Profile {
	out := make([]Profile, len(s.Profiles))
	copy(out, s.Profiles)
	return out
}

// Validate checks the fields that end up in SSH and Git config files
func (p Profile) Validate() error {
	if err := ValidateName(p.Name); err != nil {
		return err
	}
	if strings.TrimSpace(p.Username) == "" {
		return fmt.Errorf("git user name is required")
	}
	if strings.ContainsAny(p.Username, "\n\r") {
		return fmt.Errorf("git user name must be a single line")
	}
	if !ValidEmail(p.Email) {
		return fmt.Errorf("invalid email format: %s", p.Email)
	}
	if p.KeyPath == "" {
		return fmt.Errorf("ssh key path is required")
	}
	if strings.ContainsAny(p.KeyPath, "\n\r\"") {
		return fmt.Errorf("ssh key path contains invalid characters")
	}
	return nil
}

// ValidateName checks that a profile name is usable as a CLI argument
// and as the suffix of an SSH Host alias
func ValidateName(name string) error {
	if name == "" {
		return fmt.Errorf("profile name is required")
	}
	if strings.ContainsAny(name, " \t\n\r[]\"") {
		return fmt.Errorf("profile name '%s' must not contain spaces, brackets or quotes", name)
	}
	if strings.ContainsAny(name, "*?!,#") {
		return fmt.Errorf("profile name '%s' must not contain ssh pattern characters (*?!,#)", name)
	}
	return nil
}

// ValidEmail checks if email format is valid
func ValidEmail(email string) bool {
	return emailPattern.MatchString(email)
}
