package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/byterings/ghp/internal/profile"
	"github.com/byterings/ghp/internal/ui"
	"github.com/byterings/ghp/internal/user"
)

var (
	addFlagUsername string
	addFlagEmail    string
	addFlagSSHKey   string
)

var addCmd = &cobra.Command{
	Use:   "add <name> [email] [ssh-key]",
	Short: "Add a new GitHub profile",
	Long: `Add a new profile binding a Git identity to an SSH key.

Missing values are prompted for when running in a terminal.
The Git user name defaults to the profile name.`,
	Example: `  # Interactive mode
  ghp add work

  # Positional arguments
  ghp add alice alice@example.com ~/.ssh/id_alice

  # Using flags
  ghp add work --username "John Doe" --email john@work.com --ssh-key ~/.ssh/id_work`,
	Args: cobra.RangeArgs(1, 3),
	RunE: runAdd,
}

func init() {
	rootCmd.AddCommand(addCmd)

	addCmd.Flags().StringVarP(&addFlagUsername, "username", "u", "", "Git user.name for this profile")
	addCmd.Flags().StringVarP(&addFlagEmail, "email", "e", "", "Git user.email for this profile")
	addCmd.Flags().StringVarP(&addFlagSSHKey, "ssh-key", "k", "", "Path to the SSH private key")
}

func runAdd(cmd *cobra.Command, args []string) error {
	name := args[0]
	if err := profile.ValidateName(name); err != nil {
		return err
	}

	settings, store, err := loadEnv()
	if err != nil {
		return err
	}

	// Fail before prompting
	if _, ok := store.Get(name); ok {
		return fmt.Errorf("%w: '%s'\nRun: ghp list", profile.ErrProfileExists, name)
	}

	email, err := pickValue("email", addFlagEmail, args, 1)
	if err != nil {
		return err
	}
	keyPath, err := pickValue("ssh-key", addFlagSSHKey, args, 2)
	if err != nil {
		return err
	}
	username := addFlagUsername

	interactive := ui.CanPrompt()
	if email == "" || keyPath == "" {
		if !interactive {
			missing := "--email"
			if email != "" {
				missing = "--ssh-key"
			}
			return fmt.Errorf("missing %s (not running in a terminal, cannot prompt)", missing)
		}

		ui.Printf("Adding profile '%s'\n\n", name)

		if username == "" {
			if username, err = ui.PromptUsername(name); err != nil {
				return fmt.Errorf("failed to get user name: %w", err)
			}
		}
		if email == "" {
			if email, err = ui.PromptEmail(); err != nil {
				return fmt.Errorf("failed to get email: %w", err)
			}
		}
		if keyPath == "" {
			if keyPath, err = ui.PromptExistingKeyPath(); err != nil {
				return fmt.Errorf("failed to get key path: %w", err)
			}
		}
	}
	if username == "" {
		username = name
	}

	if keyPath, err = absKeyPath(keyPath); err != nil {
		return fmt.Errorf("failed to resolve key path: %w", err)
	}

	key, err := user.ValidateSSHKeyPath(keyPath)
	if err != nil {
		return err
	}
	reportKey(key)

	newProfile := profile.Profile{
		Name:     name,
		Username: username,
		Email:    email,
		KeyPath:  keyPath,
	}

	if err := store.Add(newProfile); err != nil {
		return fmt.Errorf("failed to add profile: %w", err)
	}

	if err := profile.Save(settings.GhpDir, store); err != nil {
		return fmt.Errorf("failed to save profiles: %w", err)
	}

	logger.Debug("profile added", zap.String("profile", name), zap.String("key_path", keyPath))

	refreshAliases(settings, store)

	ui.Println()
	ui.Success(fmt.Sprintf("Profile '%s' added successfully", name))
	ui.Println()
	ui.Printf("Next: ghp switch %s\n", name)


	return nil
}

// pickValue takes a value from its flag or its positional slot, not both
func pickValue(flag, flagValue string, args []string, index int) (string, error) {
	if index >= len(args) {
		return flagValue, nil
	}
	if flagValue != "" && flagValue != args[index] {
		return "", fmt.Errorf("--%s conflicts with positional argument '%s'", flag, args[index])
	}
	return args[index], nil
}

func reportKey(key *user.KeyInfo) {
	if key.Fingerprint != "" {
		ui.Info(fmt.Sprintf("Key fingerprint: %s", key.Fingerprint))
	}
	if !key.Parsed {
		ui.Warning("Could not recognise the key format; ssh may still accept it")
	}
	if key.Encrypted {
		ui.Info("Key is passphrase protected; load it with ssh-add after switching")
	}
	if key.InsecurePerms {
		ui.Warning("Key file has insecure permissions")
		ui.Printf("  Run: %s\n", key.GetPermissionFixHint())
	}
}
