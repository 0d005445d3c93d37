// Package commands wires the taskdeck CLI command tree: global flags,
// configuration loading and logging setup shared by every subcommand.
package commands

import (
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/taskdeck/taskdeck/pkg/appctx"
	"github.com/taskdeck/taskdeck/pkg/config"
	"github.com/taskdeck/taskdeck/pkg/logging"
)

const cliExecutable = "taskdeck"

// NewCommand constructs the top-level taskdeck CLI command, wiring global
// flags, config loading and logging for all subcommands.
func NewCommand() *cobra.Command {
	var configFile string

	cmd := &cobra.Command{
		Use:   cliExecutable,
		Short: "Taskdeck is an in-process asynchronous job scheduler",
		Long: `Taskdeck runs named queues of prioritized background jobs with
bounded concurrency, retries, timeouts and an HTTP status surface.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			manager := config.NewManager()
			if err := manager.LoadStandard(configFile, cmd.Flags()); err != nil {
				return fmt.Errorf("load configuration: %w", err)
			}

			cfg := manager.Get()
			if err := logging.Configure(cfg.Log.Level, cfg.Log.Format, cfg.Log.File); err != nil {
				return fmt.Errorf("configure logging: %w", err)
			}

			ctx := appctx.WithConfig(cmd.Context(), manager)
			cmd.SetContext(ctx)
			if root := cmd.Root(); root != nil && root != cmd {
				root.SetContext(ctx)
			}

			log.Debug().Str("config", configFile).Msg("configuration loaded")
			return nil
		},
	}

	cmd.SilenceUsage = true

	cmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "Configuration file path")
	cmd.PersistentFlags().StringP("output", "o", "table", "Output format: table | json")
	cmd.PersistentFlags().BoolP("quiet", "q", false, "Suppress summary output")
	cmd.PersistentFlags().Bool("no-color", false, "Disable colored output")

	config.BindFlags(cmd.PersistentFlags())

	cmd.AddCommand(NewServeCommand())
	cmd.AddCommand(NewStatsCommand())
	cmd.AddCommand(NewVersionCommand())

	return cmd
}
