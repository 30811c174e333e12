package cmd

import (
	"github.com/spf13/cobra"

	"github.com/byterings/ghp/internal/ui"
)

var listCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List all profiles",
	Long:    `Display all profiles in the order they were added and highlight the active one.`,
	Args:    cobra.NoArgs,
	RunE:    runList,
}

func init() {
	rootCmd.AddCommand(listCmd)
}

func runList(cmd *cobra.Command, args []string) error {
	settings, store, err := loadEnv()
	if err != nil {
		return err
	}

	ui.PrintProfilesList(store.List(), activeName(settings, store))

	return nil
}
