package cmd

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/byterings/ghp/internal/logging"
	"github.com/byterings/ghp/internal/ui"
)

var (
	settingsFile string
	verbose      bool
	noInput      bool

	logger = zap.NewNop()
)

var rootCmd = &cobra.Command{
	Use:   "ghp",
	Short: "GitHub profile manager",
	Long: `ghp keeps several GitHub identities on one machine and switches between them.

Each profile binds a Git user name and email to an SSH key. Switching rewrites
a managed block in your SSH config and sets the Git identity.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		l, err := logging.New(verbose)
		if err != nil {
			return err
		}
		logger = l
		ui.Interactive = !noInput
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = logger.Sync()
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&settingsFile, "settings", "", "Path to the ghp settings file (default: $GHP_SETTINGS or ~/.config/ghp/settings.toml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Print debug logs to stderr")
	rootCmd.PersistentFlags().BoolVar(&noInput, "no-input", false, "Never prompt; fail when a value is missing")
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}
