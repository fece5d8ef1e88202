package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/dd0wney/hivegraph/pkg/config"
	"github.com/dd0wney/hivegraph/pkg/logging"
)

type rootOptions struct {
	configPath string
	dataDir    string
	cfg        *config.Config
	logger     logging.Logger
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	rootCmd := &cobra.Command{
		Use:           "hivegraph",
		Short:         "Users, networks and devices in a property graph",
		Long:          "hivegraph stores users, networks and devices as a property graph and answers\nwhether a user may reach a network or a device.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(opts.configPath)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("data-dir") {
				cfg.Storage.DataDir = opts.dataDir
			}
			opts.cfg = cfg
			opts.logger = logging.NewJSONLogger(os.Stderr, cfg.LogLevel())
			return nil
		},
	}

	rootCmd.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "", "Path to a YAML configuration file")
	rootCmd.PersistentFlags().StringVar(&opts.dataDir, "data-dir", "", "Override storage.data_dir (empty for a memory-only store)")

	rootCmd.AddCommand(
		newSeedCmd(opts),
		newAccessCmd(opts),
		newReconcileCmd(opts),
		newStatsCmd(opts),
	)
	return rootCmd
}

// withApp opens the app for the duration of fn
func withApp(opts *rootOptions, fn func(a *app) error) error {
	a, err := openApp(opts.cfg, opts.logger)
	if err != nil {
		return err
	}
	runErr := fn(a)
	if err := a.Close(); err != nil && runErr == nil {
		return err
	}
	return runErr
}
