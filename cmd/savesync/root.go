package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/openlauncher/savesync/internal/version"
)

var (
	home, _           = os.UserHomeDir()
	defaultConfigPath = filepath.Join(home, ".savesync", "config.json")
	configFileName    = "config"
)

var rootCmd = &cobra.Command{
	Use:           "savesync",
	Short:         "Cloud save synchronization for GOG games",
	Version:       version.Detailed(),
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return loadConfig(cmd)
	},
}

func init() {
	rootCmd.PersistentFlags().SortFlags = false
	rootCmd.PersistentFlags().StringP("config", "c", defaultConfigPath, "config file")
	rootCmd.PersistentFlags().StringP("token", "t", "", "account refresh token")
	rootCmd.PersistentFlags().StringP("platform", "p", "windows", "game platform (windows, linux, osx)")
	rootCmd.PersistentFlags().Duration("cred-cache-ttl", 0, "cache game credentials for this long (0 disables)")
}

func loadConfig(cmd *cobra.Command) error {
	if cmd.Flags().Changed("config") {
		configFilePath, _ := cmd.Flags().GetString("config")
		viper.SetConfigFile(configFilePath)
	} else {
		viper.AddConfigPath(filepath.Join(home, ".savesync"))
		viper.AddConfigPath(filepath.Join(home, ".config", "savesync"))
		viper.SetConfigName(configFileName)
		viper.SetConfigType("json")
	}

	if err := viper.ReadInConfig(); err != nil {
		enoent := errors.Is(err, os.ErrNotExist)
		_, notFound := err.(viper.ConfigFileNotFoundError)
		if !enoent && !notFound {
			return fmt.Errorf("config read '%s': %w", viper.ConfigFileUsed(), err)
		}
	}

	viper.BindPFlag("refresh_token", cmd.Flags().Lookup("token"))
	viper.BindPFlag("platform", cmd.Flags().Lookup("platform"))
	viper.BindPFlag("cred_cache_ttl", cmd.Flags().Lookup("cred-cache-ttl"))

	viper.SetEnvPrefix("SAVESYNC")
	viper.AutomaticEnv()

	return nil
}

func refreshTokenFromConfig() (string, error) {
	token := viper.GetString("refresh_token")
	if token == "" {
		return "", errors.New("no refresh token configured (set refresh_token in config, --token, or SAVESYNC_REFRESH_TOKEN)")
	}
	return token, nil
}

func credCacheTTL() time.Duration {
	return viper.GetDuration("cred_cache_ttl")
}
