package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/byterings/ghp/internal/ui"
)

var activeCmd = &cobra.Command{
	Use:   "active",
	Short: "Show the currently active profile",
	Long: `Display which profile the SSH and Git config currently reflect.

ghp does not store the active profile; it is read back from the managed
block of the SSH config and the Git identity.`,
	Args: cobra.NoArgs,
	RunE: runActive,
}

func init() {
	rootCmd.AddCommand(activeCmd)
}

func runActive(cmd *cobra.Command, args []string) error {
	settings, store, err := loadEnv()
	if err != nil {
		return err
	}

	state, err := resolveActive(settings, store)
	if err != nil {
		return fmt.Errorf("failed to read current identity: %w", err)
	}

	if state.Profile == nil {
		ui.Println("No active profile")
		if state.KeyPath != "" {
			ui.Printf("  SSH key in config: %s\n", state.KeyPath)
		}
		if state.Email != "" {
			ui.Printf("  Git identity:      %s <%s>\n", state.Name, state.Email)
		}
		ui.Println("\nSet one with: ghp switch <name>")
		return nil
	}

	p := state.Profile
	ui.Printf("Active profile: %s\n", p.Name)
	ui.Printf("  Name:    %s\n", p.Username)
	ui.Printf("  Email:   %s\n", p.Email)
	ui.Printf("  SSH Key: %s\n", p.KeyPath)

	if state.Name != "" && state.Name != p.Username {
		ui.Warning(fmt.Sprintf("Git user.name is '%s'; run 'ghp switch %s' to reset it", state.Name, p.Name))
	}

	return nil
}
