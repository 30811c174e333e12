package cmd

import (
	"fmt"

	"github.com/pmezard/go-difflib/difflib"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/byterings/ghp/internal/config"
	"github.com/byterings/ghp/internal/git"
	"github.com/byterings/ghp/internal/platform"
	"github.com/byterings/ghp/internal/profile"
	"github.com/byterings/ghp/internal/ssh"
	"github.com/byterings/ghp/internal/ui"
)

var switchDryRun bool

var switchCmd = &cobra.Command{
	Use:     "switch <name>",
	Aliases: []string{"use"},
	Short:   "Switch to a different GitHub profile",
	Long: `Point the managed block of your SSH config at the profile's key and
set the Git user.name and user.email to the profile's identity.

Switching to the profile that is already active changes nothing.`,
	Args: cobra.ExactArgs(1),
	Example: `  ghp switch work
  ghp switch personal --dry-run`,
	RunE: runSwitch,
}

func init() {
	rootCmd.AddCommand(switchCmd)
	switchCmd.Flags().BoolVarP(&switchDryRun, "dry-run", "n", false, "Show the changes without writing anything")
}

func runSwitch(cmd *cobra.Command, args []string) error {
	name := args[0]

	settings, store, err := loadEnv()
	if err != nil {
		return err
	}

	p, ok := store.Get(name)
	if !ok {
		return fmt.Errorf("%w: '%s'\nRun: ghp list", profile.ErrProfileNotFound, name)
	}

	sshConfig := managedEditor(settings, store)

	if switchDryRun {
		return previewSwitch(settings, sshConfig, p)
	}

	// Check if git is installed before touching anything
	if !git.IsGitInstalled() {
		return fmt.Errorf("git is not installed")
	}

	// Git must be readable before the SSH config is touched
	gitConfig := gitEditor(settings)
	if _, _, err := gitConfig.GetUser(); err != nil {
		return fmt.Errorf("failed to read git config: %w", err)
	}

	ui.Printf("Switching to: %s (%s)\n", p.Name, p.Email)

	before, _, err := sshConfig.Plan(p.KeyPath)
	if err != nil {
		return fmt.Errorf("failed to update SSH config: %w", err)
	}

	changed, err := sshConfig.Apply(p.KeyPath)
	if err != nil {
		return fmt.Errorf("failed to update SSH config: %w", err)
	}

	if err := gitConfig.SetUser(p.Username, p.Email); err != nil {
		if !changed {
			return fmt.Errorf("failed to update git config: %w", err)
		}
		if restoreErr := sshConfig.Restore(before); restoreErr != nil {
			return fmt.Errorf("failed to update git config: %w\nthe SSH config already points at '%s' and could not be restored: %v", err, p.Name, restoreErr)
		}
		return fmt.Errorf("failed to update git config (SSH config left unchanged): %w", err)
	}

	logger.Debug("switched profile",
		zap.String("profile", p.Name),
		zap.Bool("ssh_config_changed", changed))

	warnConflicts(sshConfig)

	if !changed {
		ui.Info("SSH config already pointed at this profile")
	}
	ui.Success("Profile switched successfully")

	return nil
}

func previewSwitch(settings *config.Settings, sshConfig *ssh.Editor, p *profile.Profile) error {
	before, after, err := sshConfig.Plan(p.KeyPath)
	if err != nil {
		return err
	}

	if before == after {
		ui.Info(fmt.Sprintf("%s: no changes", platform.ShortenPath(settings.SSHConfig)))
	} else {
		ui.Print(unifiedDiff(before, after, platform.ShortenPath(settings.SSHConfig)))
	}

	ui.Printf("\ngit config (%s):\n", gitEditor(settings).Scope())
	ui.Printf("  user.name  = %s\n", p.Username)
	ui.Printf("  user.email = %s\n", p.Email)

	warnConflicts(sshConfig)
	return nil
}

func unifiedDiff(a, b, filename string) string {
	diff := difflib.UnifiedDiff{
		A:        difflib.SplitLines(a),
		B:        difflib.SplitLines(b),
		FromFile: filename + " (current)",
		ToFile:   filename + " (after switch)",
		Context:  3,
	}
	text, _ := difflib.GetUnifiedDiffString(diff)
	return text
}

func warnConflicts(sshConfig *ssh.Editor) {
	conflicts, err := sshConfig.Conflicts()
	if err != nil {
		logger.Warn("could not check ssh config for conflicting hosts", zap.Error(err))
		return
	}
	for _, c := range conflicts {
		ui.Warning(fmt.Sprintf("'%s' outside the ghp section also sets IdentityFile for %s", c, sshConfig.Host))
	}
	if len(conflicts) > 0 {
		ui.Println("  ssh uses the first matching entry; remove or reorder it if the wrong key is offered")
	}
}
