package main

import (
	"fmt"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/seekiingforhappiness-glitch/Nano-dispatcher/internal/config"
	"github.com/seekiingforhappiness-glitch/Nano-dispatcher/internal/platform/obs"
)

var cfgPath string

var rootCmd = &cobra.Command{
	Use:           "dispatchctl",
	Short:         "Dispatch solver and address cache tooling",
	SilenceUsage:  true,
	SilenceErrors: false,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		_ = godotenv.Load()
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", config.Env("DISPATCH_CONFIG", ""), "configuration file (yaml or json)")
}

// Execute runs the CLI.
func Execute() error { return rootCmd.Execute() }

func loadConfig(cmd *cobra.Command) (*config.Config, zerolog.Logger, error) {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return nil, zerolog.Nop(), fmt.Errorf("load config: %w", err)
	}
	// Logs go to stderr so stdout stays machine-readable.
	log, err := obs.NewLogger(cfg.Logging.Level, "console", cmd.ErrOrStderr())
	if err != nil {
		return nil, zerolog.Nop(), err
	}
	return cfg, log, nil
}
