package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/byterings/ghp/internal/config"
	"github.com/byterings/ghp/internal/git"
	"github.com/byterings/ghp/internal/platform"
	"github.com/byterings/ghp/internal/profile"
	"github.com/byterings/ghp/internal/ssh"
	"github.com/byterings/ghp/internal/ui"
	"github.com/byterings/ghp/internal/user"
)

var doctorFix bool

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Diagnose configuration issues",
	Long: `Check ghp configuration health and diagnose common issues.

Runs checks on:
- Settings and profile registry validity
- SSH key existence and permissions
- The ghp section of the SSH config
- Git identity alignment with the active profile

Examples:
  ghp doctor              # Run diagnostics
  ghp doctor --fix        # Auto-fix key permission issues`,
	Args: cobra.NoArgs,
	RunE: runDoctor,
}

func init() {
	rootCmd.AddCommand(doctorCmd)
	doctorCmd.Flags().BoolVarP(&doctorFix, "fix", "f", false, "Auto-fix permission issues")
}

type checkResult struct {
	passed  bool
	message string
	fix     string // Suggested fix command
}

func runDoctor(cmd *cobra.Command, args []string) error {
	ui.Println()
	ui.Println("Checking ghp configuration...")
	ui.Println()

	errs := 0
	warnings := 0
	fixed := 0

	tally := func(results []checkResult) {
		for _, r := range results {
			printCheckResult(r)
			if !r.passed && r.fix == "" {
				errs++
			} else if !r.passed {
				warnings++
			}
		}
	}

	ui.Println("Config")
	ui.Println("──────")

	settings, store, configResults := checkConfig()
	tally(configResults)
	if settings == nil || store == nil {
		ui.Println()
		ui.Error("Cannot continue without settings and registry")
		return nil
	}

	ui.Println()
	ui.Println("SSH Keys")
	ui.Println("────────")

	keyResults, keysFixed := checkKeys(store, doctorFix)
	tally(keyResults)
	fixed += keysFixed

	ui.Println()
	ui.Println("SSH Config")
	ui.Println("──────────")

	tally(checkSSHConfig(settings))

	ui.Println()
	ui.Println("Git Config")
	ui.Println("──────────")

	tally(checkGitConfig(settings, store))

	// Summary
	ui.Println()
	ui.Println("─────────")

	if fixed > 0 {
		ui.Success(fmt.Sprintf("Auto-fixed %d issue(s)", fixed))
	}

	if errs == 0 && warnings == 0 {
		ui.Success("All checks passed!")
	} else if errs == 0 {
		ui.Warning(fmt.Sprintf("%d warning(s)", warnings))
	} else {
		ui.Error(fmt.Sprintf("%d error(s), %d warning(s)", errs, warnings))
	}

	return nil
}

func printCheckResult(r checkResult) {
	if r.passed {
		ui.Printf("  ✓ %s\n", r.message)
	} else if r.fix != "" {
		ui.Printf("  ⚠ %s\n", r.message)
		ui.Printf("    → %s\n", r.fix)
	} else {
		ui.Printf("  ✗ %s\n", r.message)
	}
}

func checkConfig() (*config.Settings, *profile.Store, []checkResult) {
	var results []checkResult

	settings, err := loadSettings()
	if errors.Is(err, config.ErrNotConfigured) {
		results = append(results, checkResult{
			passed:  false,
			message: "Settings file not found",
			fix:     "Run: ghp setup",
		})
		return nil, nil, results
	}
	if err != nil {
		results = append(results, checkResult{
			passed:  false,
			message: fmt.Sprintf("Settings invalid: %v", err),
		})
		return nil, nil, results
	}

	results = append(results, checkResult{
		passed:  true,
		message: "Settings file valid",
	})

	store, err := profile.Load(settings.GhpDir)
	if errors.Is(err, profile.ErrNotInitialized) {
		results = append(results, checkResult{
			passed:  false,
			message: fmt.Sprintf("Registry not found: %s", profile.Path(settings.GhpDir)),
			fix:     "Run: ghp setup",
		})
		return settings, nil, results
	}
	if err != nil {
		results = append(results, checkResult{
			passed:  false,
			message: fmt.Sprintf("Registry invalid: %v", err),
		})
		return settings, nil, results
	}

	results = append(results, checkResult{
		passed:  true,
		message: "Registry valid",
	})

	if len(store.Profiles) == 0 {
		results = append(results, checkResult{
			passed:  false,
			message: "No profiles configured",
			fix:     "Run: ghp add <name>",
		})
	} else {
		results = append(results, checkResult{
			passed:  true,
			message: fmt.Sprintf("%d profile(s) configured", len(store.Profiles)),
		})
	}

	return settings, store, results
}

func checkKeys(store *profile.Store, autoFix bool) ([]checkResult, int) {
	var results []checkResult
	fixed := 0

	for _, p := range store.List() {
		key, err := user.ValidateSSHKeyPath(p.KeyPath)
		if err != nil {
			results = append(results, checkResult{
				passed:  false,
				message: fmt.Sprintf("'%s': %v", p.Name, err),
			})
			continue
		}

		if !key.InsecurePerms {
			results = append(results, checkResult{
				passed:  true,
				message: fmt.Sprintf("SSH key '%s' exists with correct permissions", p.Name),
			})
			continue
		}

		if autoFix {
			if err := os.Chmod(key.Path, 0600); err == nil {
				results = append(results, checkResult{
					passed:  true,
					message: fmt.Sprintf("SSH key '%s' permissions fixed (600)", p.Name),
				})
				fixed++
				continue
			}
		}
		results = append(results, checkResult{
			passed:  false,
			message: fmt.Sprintf("SSH key '%s' is readable by other users", p.Name),
			fix:     key.GetPermissionFixHint(),
		})
	}

	return results, fixed
}

func checkSSHConfig(settings *config.Settings) []checkResult {
	var results []checkResult
	editor := sshEditor(settings)

	if _, err := os.Stat(settings.SSHConfig); os.IsNotExist(err) {
		results = append(results, checkResult{
			passed:  false,
			message: fmt.Sprintf("SSH config not found: %s", platform.ShortenPath(settings.SSHConfig)),
			fix:     "Run: ghp switch <name>",
		})
		return results
	}

	key, err := editor.ActiveKey()
	switch {
	case errors.Is(err, ssh.ErrMalformedMarker):
		results = append(results, checkResult{
			passed:  false,
			message: "ghp section is missing its end marker; fix the SSH config by hand",
		})
		return results
	case err != nil:
		results = append(results, checkResult{
			passed:  false,
			message: fmt.Sprintf("Could not read SSH config: %v", err),
		})
		return results
	case key == "":
		results = append(results, checkResult{
			passed:  false,
			message: "SSH config has no ghp section",
			fix:     "Run: ghp switch <name>",
		})
	default:
		results = append(results, checkResult{
			passed:  true,
			message: fmt.Sprintf("ghp section uses %s", key),
		})
	}

	conflicts, err := editor.Conflicts()
	if err == nil {
		for _, c := range conflicts {
			results = append(results, checkResult{
				passed:  false,
				message: fmt.Sprintf("'%s' outside the ghp section also matches %s", c, settings.Host),
				fix:     "Remove the entry or move it below the ghp section",
			})
		}
	}

	return results
}

func checkGitConfig(settings *config.Settings, store *profile.Store) []checkResult {
	var results []checkResult

	if !git.IsGitInstalled() {
		results = append(results, checkResult{
			passed:  false,
			message: "git is not installed",
		})
		return results
	}

	state, err := resolveActive(settings, store)
	if err != nil {
		results = append(results, checkResult{
			passed:  false,
			message: fmt.Sprintf("Could not read identity: %v", err),
		})
		return results
	}

	if state.Profile == nil {
		results = append(results, checkResult{
			passed:  false,
			message: fmt.Sprintf("No profile matches the current identity (user.email = '%s')", state.Email),
			fix:     "Run: ghp switch <name>",
		})
		return results
	}

	results = append(results, checkResult{
		passed:  true,
		message: fmt.Sprintf("Active profile: %s", state.Profile.Name),
	})

	if state.Name == state.Profile.Username {
		results = append(results, checkResult{
			passed:  true,
			message: fmt.Sprintf("user.name = %s", state.Name),
		})
	} else {
		results = append(results, checkResult{
			passed:  false,
			message: fmt.Sprintf("user.name mismatch: '%s' (expected: '%s')", state.Name, state.Profile.Username),
			fix:     fmt.Sprintf("Run: ghp switch %s", state.Profile.Name),
		})
	}

	return results
}
