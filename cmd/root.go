package cmd

import (
	"fmt"
	"os"

	"github.com/hbomb79/Sectrans/internal"
	"github.com/hbomb79/Sectrans/pkg/logger"
	"github.com/spf13/cobra"
)

var log = logger.Get("CLI")

var (
	Version    = "dev"
	configPath string
	logLevel   string
)

var rootCmd = &cobra.Command{
	Use:     "sectrans",
	Short:   "Index vehicle camera recordings and register them with the fleet API",
	Version: Version,
	Long: `sectrans walks a directory of car recordings laid out as
<source>/<car>/<camera>/<date>/<recording>, extracts the metadata of
each recording (channel, date, time, size and duration via ffprobe) and
registers the recordings of each car with the fleet registry API.`,
	SilenceUsage: true,
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	defaultConfig := "config.json"
	if envConfig := os.Getenv("SECTRANS_CONFIG"); envConfig != "" {
		defaultConfig = envConfig
	}

	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", defaultConfig, "Path to the JSON config file (or set SECTRANS_CONFIG env var)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Minimum log level (verbose, debug, info, warning, error); overrides the config")
}

// loadConfig reads and validates the config file, then applies the log level.
func loadConfig() (internal.SectransConfig, error) {
	var config internal.SectransConfig
	if err := config.LoadFromFile(configPath); err != nil {
		return config, err
	}

	level := config.LogLevel
	if logLevel != "" {
		level = logLevel
	}
	if level != "" {
		status, err := logger.ParseLevel(level)
		if err != nil {
			return config, err
		}
		logger.SetMinLoggingLevel(status.Level())
	}

	return config, nil
}
