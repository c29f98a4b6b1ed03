package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/khanhnv2901/techradar-cli/internal/fetcher"
	"github.com/khanhnv2901/techradar-cli/internal/shared/constants"
	"github.com/khanhnv2901/techradar-cli/internal/store"
)

var cfgFile string
var logger *zap.Logger

var rootCmd = &cobra.Command{
	Use:   "techradar",
	Short: "Best-effort detection of the technologies behind a website",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// init config
		if cfgFile != "" {
			viper.SetConfigFile(cfgFile)
		} else {
			viper.AddConfigPath("$HOME")
			viper.SetConfigName(".techradar-cli")
			viper.SetConfigType("yaml")
		}
		_ = viper.ReadInConfig()

		// init logger
		l, err := zap.NewProduction()
		if err != nil {
			return fmt.Errorf("failed to create logger: %w", err)
		}
		logger = l

		return nil
	},
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.techradar-cli.yaml)")

	rootCmd.PersistentFlags().Duration("timeout", constants.DefaultFetchTimeout, "per-request timeout")
	rootCmd.PersistentFlags().Int64("max-body-bytes", constants.DefaultMaxBodyBytes, "response body size cap")
	rootCmd.PersistentFlags().Int("max-script-fetches", constants.DefaultMaxScriptFetches, "linked scripts fetched per page")
	rootCmd.PersistentFlags().Int("script-concurrency", constants.DefaultScriptConcurrency, "in-flight script fetches")
	rootCmd.PersistentFlags().String("user-agent", constants.DefaultUserAgent, "User-Agent sent on outbound requests")
	rootCmd.PersistentFlags().String("data-dir", "", "directory for saved scans (default is $HOME/.techradar-cli)")

	for _, flag := range []string{"timeout", "max-body-bytes", "max-script-fetches", "script-concurrency", "user-agent", "data-dir"} {
		_ = viper.BindPFlag(flag, rootCmd.PersistentFlags().Lookup(flag))
	}

	rootCmd.AddCommand(analyzeCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(versionCmd)
}

// fetcherConfig resolves the fetcher configuration from flags and config file.
func fetcherConfig() fetcher.Config {
	cfg := fetcher.DefaultConfig()
	if d := viper.GetDuration("timeout"); d > 0 {
		cfg.Timeout = d
	}
	if n := viper.GetInt64("max-body-bytes"); n > 0 {
		cfg.MaxBodyBytes = n
	}
	if n := viper.GetInt("max-script-fetches"); n > 0 {
		cfg.MaxScriptFetches = n
	}
	if n := viper.GetInt("script-concurrency"); n > 0 {
		cfg.Concurrency = n
	}
	if ua := viper.GetString("user-agent"); ua != "" {
		cfg.UserAgent = ua
	}
	return cfg
}

// openHistory resolves the scan archive location from flags and config file.
func openHistory() (*store.History, error) {
	dataDir := viper.GetString("data-dir")
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("resolve home directory: %w", err)
		}
		dataDir = filepath.Join(home, ".techradar-cli")
	}
	return store.NewHistory(dataDir)
}

func syncLogger() {
	if logger == nil {
		return
	}
	// Sync fails harmlessly when stderr is a terminal.
	_ = logger.Sync()
}
