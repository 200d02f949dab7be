package main

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/openlauncher/savesync/internal/gogsdk"
	"github.com/openlauncher/savesync/internal/savesync"
	"github.com/openlauncher/savesync/internal/utils"
)

var (
	green  = color.New(color.FgHiGreen).SprintFunc()
	yellow = color.New(color.FgHiYellow).SprintFunc()
	red    = color.New(color.FgHiRed, color.Bold).SprintFunc()
)

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Synchronize cloud saves for a game",
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

		store, err := newWatermarkStore()
		if err != nil {
			return err
		}

		commitPartial := viper.GetBool("commit_on_partial_failure")
		if !viper.IsSet("commit_on_partial_failure") {
			commitPartial = true
		}
		syncer := savesync.NewSyncer(sdk, store,
			savesync.WithCommitOnPartialFailure(commitPartial))

		preferred, _ := cmd.Flags().GetString("prefer")
		savePath, _ := cmd.Flags().GetString("save-path")
		locationName, _ := cmd.Flags().GetString("location")

		// Explicit path and location: sync that one location directly.
		if savePath != "" && locationName != "" {
			savePath, err = utils.ResolvePath(savePath)
			if err != nil {
				return err
			}
			result := syncer.SyncSaves(cmd.Context(), savesync.SyncParams{
				GameID:       gameID,
				SavePath:     savePath,
				LocationName: locationName,
				Platform:     platformFromConfig(),
				RefreshToken: token,
				Preferred:    savesync.PreferredAction(preferred),
			})
			printResult(locationName, result)
			return result.Err
		}

		// Otherwise discover and sync every location for the game.
		runner := savesync.NewRunner(sdk, syncer, promptResolver{})
		results := runner.SyncAll(cmd.Context(), token, gameInfoFromFlags(cmd, gameID), savesync.PreferredAction(preferred))

		var failed bool
		for i, result := range results {
			printResult(fmt.Sprintf("location %d", i+1), result)
			if result.Err != nil {
				failed = true
			}
		}
		if failed {
			return errors.New("one or more save locations failed to sync")
		}
		return nil
	},
}

func init() {
	syncCmd.Flags().SortFlags = false
	syncCmd.Flags().StringP("game", "g", "", "game id")
	syncCmd.Flags().String("save-path", "", "local save directory (skips location discovery)")
	syncCmd.Flags().String("location", "", "cloud save location name (with --save-path)")
	syncCmd.Flags().String("prefer", "", "preferred action: upload, download, forceupload, forcedownload")
	syncCmd.Flags().String("install", "", "game install directory")
	syncCmd.Flags().Bool("native", false, "game runs natively (not under a compatibility prefix)")
	syncCmd.Flags().String("prefix", "", "compatibility prefix path")
	syncCmd.Flags().String("prefix-user", "", "user directory inside the compatibility prefix")
	rootCmd.AddCommand(syncCmd)
}

func newSDK() *gogsdk.SDK {
	var opts []gogsdk.Option
	if ttl := credCacheTTL(); ttl > 0 {
		opts = append(opts, gogsdk.WithCredentialCache(ttl))
	}
	return gogsdk.New(opts...)
}

func newWatermarkStore() (savesync.WatermarkStore, error) {
	if dbPath := viper.GetString("watermark_db"); dbPath != "" {
		return savesync.NewSQLiteWatermarkStore(dbPath)
	}
	path := viper.GetString("watermark_path")
	if path == "" {
		path = savesync.DefaultWatermarkPath()
	}
	return savesync.NewFileWatermarkStore(path), nil
}

func platformFromConfig() gogsdk.Platform {
	return gogsdk.Platform(viper.GetString("platform"))
}

func gameInfoFromFlags(cmd *cobra.Command, gameID string) savesync.GameInfo {
	install, _ := cmd.Flags().GetString("install")
	native, _ := cmd.Flags().GetBool("native")
	prefix, _ := cmd.Flags().GetString("prefix")
	prefixUser, _ := cmd.Flags().GetString("prefix-user")

	return savesync.GameInfo{
		AppID:        gameID,
		Platform:     platformFromConfig(),
		InstallPath:  install,
		Native:       native,
		CompatPrefix: prefix,
		CompatUser:   prefixUser,
	}
}

func printResult(label string, result *savesync.SyncResult) {
	switch {
	case result.Err != nil:
		fmt.Printf("%s: %s %v\n", label, red("error"), result.Err)
	case result.Action == savesync.ActionConflict:
		fmt.Printf("%s: %s\n", label, yellow("conflict, not synced"))
	default:
		fmt.Printf("%s: %s (up %d, down %d, deleted %d local / %d cloud)\n",
			label, green(result.Action.String()),
			len(result.Uploaded), len(result.Downloaded),
			len(result.DeletedLocal), len(result.DeletedCloud))
	}
	if result.Err == nil {
		slog.Debug("sync finished", "label", label, "action", result.Action.String(), "timestamp", result.Timestamp)
	}
}
