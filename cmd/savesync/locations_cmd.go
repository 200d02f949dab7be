package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/openlauncher/savesync/internal/savesync"
)

var locationsCmd = &cobra.Command{
	Use:   "locations",
	Short: "List a game's cloud save locations and their resolved paths",
	RunE: func(cmd *cobra.Command, args []string) error {
		gameID, _ := cmd.Flags().GetString("game")
		if gameID == "" {
			return errors.New("--game is required")
		}

		token, err := refreshTokenFromConfig()
		if err != nil {
			return err
		}
		cmd.SilenceUsage = true

		sdk := newSDK()
		defer sdk.Close()

		runner := savesync.NewRunner(sdk, nil, nil)
		locations, err := runner.ResolveLocations(cmd.Context(), token, gameInfoFromFlags(cmd, gameID))
		if err != nil {
			return err
		}
		if len(locations) == 0 {
			fmt.Println("no cloud save locations for this game")
			return nil
		}

		for _, loc := range locations {
			fmt.Printf("%s\t%s\n", loc.Name, loc.SavePath)
		}
		return nil
	},
}

func init() {
	locationsCmd.Flags().SortFlags = false
	locationsCmd.Flags().StringP("game", "g", "", "game id")
	locationsCmd.Flags().String("install", "", "game install directory")
	locationsCmd.Flags().Bool("native", false, "game runs natively")
	locationsCmd.Flags().String("prefix", "", "compatibility prefix path")
	locationsCmd.Flags().String("prefix-user", "", "user directory inside the compatibility prefix")
	rootCmd.AddCommand(locationsCmd)
}
