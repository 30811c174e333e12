package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/byterings/ghp/internal/platform"
	"github.com/byterings/ghp/internal/profile"
	"github.com/byterings/ghp/internal/ui"
)

var (
	uninstallKeepProfiles bool
	uninstallForce        bool
)

var uninstallCmd = &cobra.Command{
	Use:   "uninstall",
	Short: "Remove ghp's changes from this machine",
	Long: `Undo what ghp has set up:
1. Remove the ghp section from the SSH config
2. Remove the profile registry and the settings file

SSH keys and the Git identity are left as they are.`,
	Example: `  # Remove everything ghp wrote
  ghp uninstall

  # Keep the registry so a later setup can reuse it
  ghp uninstall --keep-profiles --force`,
	Args: cobra.NoArgs,
	RunE: runUninstall,
}

func init() {
	rootCmd.AddCommand(uninstallCmd)
	uninstallCmd.Flags().BoolVar(&uninstallKeepProfiles, "keep-profiles", false, "Keep the profile registry")
	uninstallCmd.Flags().BoolVarP(&uninstallForce, "force", "f", false, "Skip confirmation prompt")
}

func runUninstall(cmd *cobra.Command, args []string) error {
	settingsPath, err := resolveSettingsPath()
	if err != nil {
		return err
	}
	settings, err := loadSettings()
	if err != nil {
		return err
	}

	if !uninstallForce {
		if !ui.CanPrompt() {
			return errors.New("refusing to uninstall without confirmation\nRun: ghp uninstall --force")
		}

		ui.Println("This will:")
		ui.Printf("  1. Remove the ghp section from %s\n", platform.ShortenPath(settings.SSHConfig))
		if !uninstallKeepProfiles {
			ui.Printf("  2. Remove %s\n", platform.ShortenPath(profile.Path(settings.GhpDir)))
		}
		ui.Printf("  3. Remove %s\n", platform.ShortenPath(settingsPath))
		ui.Println()

		confirmed, err := ui.PromptConfirmation("Continue?")
		if err != nil {
			return err
		}
		if !confirmed {
			ui.Println("Cancelled")
			return nil
		}
	}

	changed, err := sshEditor(settings).Remove()
	if err != nil {
		return fmt.Errorf("failed to clean SSH config: %w", err)
	}
	if changed {
		ui.Success(fmt.Sprintf("Removed ghp section from %s", platform.ShortenPath(settings.SSHConfig)))
	} else {
		ui.Info("SSH config has no ghp section")
	}

	if !uninstallKeepProfiles {
		registry := profile.Path(settings.GhpDir)
		if err := removeIfExists(registry); err != nil {
			return fmt.Errorf("failed to remove %s: %w", registry, err)
		}
		// the directory goes only if ghp was its sole user
		_ = os.Remove(settings.GhpDir)
		ui.Success(fmt.Sprintf("Removed %s", platform.ShortenPath(registry)))
	}

	if err := removeIfExists(settingsPath); err != nil {
		return fmt.Errorf("failed to remove %s: %w", settingsPath, err)
	}
	ui.Success(fmt.Sprintf("Removed %s", platform.ShortenPath(settingsPath)))

	ui.Println()
	ui.Println("SSH keys were not touched. Git user.name and user.email still hold the last profile.")
	return nil
}

func removeIfExists(path string) error {
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}
