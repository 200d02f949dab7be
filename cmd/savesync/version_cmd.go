package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/openlauncher/savesync/internal/version"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println(version.AppName, version.Detailed())
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
