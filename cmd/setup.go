package cmd

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/byterings/ghp/internal/config"
	"github.com/byterings/ghp/internal/platform"
	"github.com/byterings/ghp/internal/profile"
	"github.com/byterings/ghp/internal/ui"
)

var (
	setupSSHConfig string
	setupGhpDir    string
	setupGitConfig string
	setupHost      string
)

var setupCmd = &cobra.Command{
	Use:   "setup",
	Short: "Record config file locations and create the profile registry",
	Long: `Record where your SSH config and the ghp profile registry live.

Flags that are not given keep their previous value, or the default on first run
(~/.ssh/config and ~/.ghp). Running setup again never discards existing profiles.`,
	Example: `  ghp setup
  ghp setup -s ~/.ssh/config -g ~/.ghp
  ghp setup --git-config ~/.config/git/identity --host github.com`,
	Args: cobra.NoArgs,
	RunE: runSetup,
}

func init() {
	rootCmd.AddCommand(setupCmd)

	setupCmd.Flags().StringVarP(&setupSSHConfig, "ssh-config", "s", "", "Path to the SSH config file")
	setupCmd.Flags().StringVarP(&setupGhpDir, "ghp-dir", "g", "", "Directory for the ghp profile registry")
	setupCmd.Flags().StringVar(&setupGitConfig, "git-config", "", "Git config file to write the identity to (default: git's global config)")
	setupCmd.Flags().StringVar(&setupHost, "host", "", "SSH host alias to manage (default: github.com)")
}

func runSetup(cmd *cobra.Command, args []string) error {
	path, err := resolveSettingsPath()
	if err != nil {
		return err
	}

	settings, err := currentOrDefaultSettings(path)
	if err != nil {
		return err
	}

	flags := cmd.Flags()
	if flags.Changed("ssh-config") {
		settings.SSHConfig = setupSSHConfig
	}
	if flags.Changed("ghp-dir") {
		settings.GhpDir = setupGhpDir
	}
	if flags.Changed("git-config") {
		settings.GitConfig = setupGitConfig
	}
	if flags.Changed("host") {
		settings.Host = setupHost
	}

	if err := absolutize(settings); err != nil {
		return err
	}

	// SSH config directory must exist and the file must be writable
	if err := platform.MkdirSecure(filepath.Dir(settings.SSHConfig)); err != nil {
		return fmt.Errorf("failed to create SSH config directory: %w", err)
	}
	if err := platform.CheckWritable(settings.SSHConfig); err != nil {
		return fmt.Errorf("SSH config is not writable: %w", err)
	}

	if settings.GitConfig != "" {
		if err := platform.MkdirSecure(filepath.Dir(settings.GitConfig)); err != nil {
			return fmt.Errorf("failed to create git config directory: %w", err)
		}
		if err := platform.CheckWritable(settings.GitConfig); err != nil {
			return fmt.Errorf("git config is not writable: %w", err)
		}
	}

	created, err := profile.Init(settings.GhpDir)
	if err != nil {
		return err
	}

	if err := config.Save(path, settings); err != nil {
		return err
	}

	logger.Debug("settings saved")

	ui.Success("Configuration saved")
	ui.Printf("  Settings:   %s\n", platform.ShortenPath(path))
	ui.Printf("  SSH config: %s\n", platform.ShortenPath(settings.SSHConfig))
	ui.Printf("  Registry:   %s\n", platform.ShortenPath(profile.Path(settings.GhpDir)))
	if settings.GitConfig != "" {
		ui.Printf("  Git config: %s\n", platform.ShortenPath(settings.GitConfig))
	} else {
		ui.Println("  Git config: global")
	}
	ui.Printf("  SSH host:   %s\n", settings.Host)

	if created {
		ui.Println("\nNext: ghp add <name>")
	}
	return nil
}

// currentOrDefaultSettings loads existing settings so a partial re-run keeps them
func currentOrDefaultSettings(path string) (*config.Settings, error) {
	exists, err := config.Exists(path)
	if err != nil {
		return nil, err
	}
	if exists {
		return config.Load(path)
	}
	return config.DefaultSettings()
}

func absolutize(settings *config.Settings) error {
	for _, p := range []*string{&settings.SSHConfig, &settings.GhpDir, &settings.GitConfig} {
		if *p == "" {
			continue
		}
		expanded, err := platform.ExpandTilde(*p)
		if err != nil {
			return err
		}
		abs, err := filepath.Abs(expanded)
		if err != nil {
			return err
		}
		*p = abs
	}
	return settings.Validate()
}
