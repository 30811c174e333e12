package profile

// Profile represents one GitHub identity
type Profile struct {
	Name     string `toml:"name"`     // Registry key, used on the command line (e.g., work, personal)
	Username string `toml:"username"` // Git user.name
	Email    string `toml:"email"`    // Git user.email
	KeyPath  string `toml:"key_path"` // SSH private key, stored as entered
}

// Store is the persisted profile registry.
// Profiles keep insertion order so listings are stable.
type Store struct {
	Version  string    `toml:"version"`
	Profiles []Profile `toml:"profiles"`
}
