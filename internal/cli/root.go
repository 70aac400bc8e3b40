package cli

import (
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/dukerupert/choremane/internal/config"
	"github.com/dukerupert/choremane/internal/logging"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	ConfigPath string
	LogLevel   string
}

// NewRootCommand creates the root command for the choremane CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "choremane",
		Short: "Choremane - shared household chores",
		Long:  "A household chore tracker: recurring chores, an undoable action log and a household health score.",
	}

	cmd.PersistentFlags().StringVarP(&opts.ConfigPath, "config", "c", "choremane.yaml", "path to YAML config file")
	cmd.PersistentFlags().StringVar(&opts.LogLevel, "log-level", "", "override log level (debug|info|warn|error)")

	cmd.AddCommand(NewServeCommand(opts))
	cmd.AddCommand(NewMigrateCommand(opts))
	cmd.AddCommand(NewExportCommand(opts))
	cmd.AddCommand(NewImportCommand(opts))
	cmd.AddCommand(NewDecryptCommand(opts))

	return cmd
}

// setup loads configuration and installs the default logger.
func setup(opts *RootOptions) (*config.Config, *slog.Logger, error) {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return nil, nil, err
	}
	if opts.LogLevel != "" {
		cfg.Log.Level = opts.LogLevel
	}
	return cfg, logging.Setup(cfg.Log.Level, cfg.Log.Format), nil
}
