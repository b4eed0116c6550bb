package main

import (
	"github.com/spf13/cobra"

	"github.com/aretw0/lightpivot/internal/cli"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Navigate a pivot table from the terminal",
	Long: `Fetches the root query, draws the table and reads navigation commands
from stdin. Type "help" for the list of commands.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		quiet, _ := cmd.Flags().GetBool("quiet")
		width, _ := cmd.Flags().GetInt("width")

		return cli.Execute(cli.RunOptions{
			Options: optionsFromFlags(cmd),
			Quiet:   quiet,
			Width:   width,
		})
	},
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().BoolP("quiet", "q", false, "Do not print the banner and system messages")
	runCmd.Flags().Int("width", 0, "Table width (default: terminal width)")

	rootCmd.RunE = runCmd.RunE
	rootCmd.Flags().AddFlagSet(runCmd.Flags())
}
