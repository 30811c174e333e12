package config

// Settings holds the locations recorded by `ghp setup`
type Settings struct {
	SSHConfig string `toml:"ssh_config" mapstructure:"ssh_config"`
	GhpDir    string `toml:"ghp_dir" mapstructure:"ghp_dir"`
	GitConfig string `toml:"git_config,omitempty" mapstructure:"git_config"` // Empty means git's global config
	Host      string `toml:"host" mapstructure:"host"`                       // SSH host alias of the managed block
}
