// -- cmd/root.go --
package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/xkilldash9x/pagelens/internal/config"
	"github.com/xkilldash9x/pagelens/internal/observability"
)

var cfgFile string

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:     "pagelens",
	Short:   "Pagelens turns rendered-page snapshots into compact, indexed text for LLM agents.",
	Version: Version,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Runs before any command, setting up config and logging.
		if err := initializeConfig(); err != nil {
			return err
		}

		cfg, err := config.Load(viper.GetViper())
		if err != nil {
			// Initialize a fallback logger if config loading fails.
			observability.InitializeLogger(config.LoggerConfig{Level: "info", Format: "console", ServiceName: "pagelens"})
			return err
		}
		appConfig = cfg

		observability.InitializeLogger(cfg.Logger)
		observability.GetLogger().Debug("Starting pagelens", zap.String("version", Version))
		return nil
	},
}

// appConfig is the loaded configuration shared by subcommands; populated in
// PersistentPreRunE.
var appConfig *config.Config

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	defer observability.Sync()
	if err := rootCmd.Execute(); err != nil {
		if logger := observability.GetLogger(); logger != nil {
			logger.Error("Command execution failed", zap.Error(err))
		} else {
			fmt.Fprintln(os.Stderr, err)
		}
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file (default is ./config.yaml)")
	rootCmd.SetVersionTemplate(`{{printf "%s\n" .Version}}`)
	rootCmd.AddCommand(newSerializeCmd())
	rootCmd.AddCommand(newCaptureCmd())
}

// initializeConfig reads in the config file and environment variables if set.
func initializeConfig() error {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
	}

	viper.SetEnvPrefix("PAGELENS")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found; proceed with defaults/env vars.
	}
	return nil
}
