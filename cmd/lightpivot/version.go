package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/aretw0/lightpivot"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of lightpivot",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("lightpivot version %s\n", strings.TrimSpace(lightpivot.Version))
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
