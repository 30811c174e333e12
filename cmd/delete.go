package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/byterings/ghp/internal/profile"
	"github.com/byterings/ghp/internal/ui"
)

var deleteYes bool

var deleteCmd = &cobra.Command{
	Use:     "delete <name>",
	Aliases: []string{"remove", "rm"},
	Short:   "Delete a profile",
	Long: `Remove a profile from the registry.

The SSH key file is never deleted, and the SSH/Git config is left as it is;
switch to another profile to replace the identity.`,
	Args: cobra.ExactArgs(1),
	Example: `  ghp delete work
  ghp rm personal --yes`,
	RunE: runDelete,
}

func init() {
	rootCmd.AddCommand(deleteCmd)
	deleteCmd.Flags().BoolVarP(&deleteYes, "yes", "y", false, "Do not ask for confirmation")
}

func runDelete(cmd *cobra.Command, args []string) error {
	name := args[0]

	settings, store, err := loadEnv()
	if err != nil {
		return err
	}

	p, ok := store.Get(name)
	if !ok {
		return fmt.Errorf("%w: '%s'\nRun: ghp list", profile.ErrProfileNotFound, name)
	}

	if !deleteYes && ui.CanPrompt() {
		confirmed, err := ui.PromptConfirmation(fmt.Sprintf("Delete profile '%s' (%s)?", p.Name, p.Email))
		if err != nil {
			return err
		}
		if !confirmed {
			ui.Println("Cancelled")
			return nil
		}
	}

	wasActive := activeName(settings, store) == name

	removed, err := store.Remove(name)
	if err != nil {
		return err
	}

	if err := profile.Save(settings.GhpDir, store); err != nil {
		return fmt.Errorf("failed to save profiles: %w", err)
	}

	refreshAliases(settings, store)

	ui.Success(fmt.Sprintf("Profile '%s' deleted", removed.Name))
	ui.Info(fmt.Sprintf("SSH key kept at %s", removed.KeyPath))

	if wasActive {
		ui.Warning("This profile is still active in your SSH and Git config")
		ui.Println("  Switch to another profile with: ghp switch <name>")
	}

	if len(store.List()) == 0 {
		ui.Println("\nNo profiles remaining. Add one with: ghp add <name>")
	}

	return nil
}
