package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/openlauncher/savesync/internal/gogsdk"
	"github.com/openlauncher/savesync/internal/savesync"
)

var resolveCmd = &cobra.Command{
	Use:   "resolve <template>",
	Short: "Resolve a save path template to a local directory",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		install, _ := cmd.Flags().GetString("install")
		native, _ := cmd.Flags().GetBool("native")
		prefix, _ := cmd.Flags().GetString("prefix")
		prefixUser, _ := cmd.Flags().GetString("prefix-user")
		cmd.SilenceUsage = true

		path, unresolved, err := savesync.ResolveSavePath(
			gogsdk.CloudSaveLocation{Name: "__default", Location: args[0]},
			savesync.ResolveOptions{
				InstallPath:  install,
				Native:       native,
				CompatPrefix: prefix,
				CompatUser:   prefixUser,
			},
		)
		if err != nil {
			return err
		}
		if len(unresolved) > 0 {
			fmt.Printf("warning: unknown variables: %v\n", unresolved)
		}
		fmt.Println(path)
		return nil
	},
}

func init() {
	resolveCmd.Flags().SortFlags = false
	resolveCmd.Flags().String("install", "", "game install directory")
	resolveCmd.Flags().Bool("native", false, "resolve for native execution")
	resolveCmd.Flags().String("prefix", "", "compatibility prefix path")
	resolveCmd.Flags().String("prefix-user", "", "user directory inside the compatibility prefix")
	rootCmd.AddCommand(resolveCmd)
}
