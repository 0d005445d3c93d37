package commands

import (
	"github.com/spf13/cobra"

	"github.com/taskdeck/taskdeck/cmd/taskdeck/internal/format"
	"github.com/taskdeck/taskdeck/pkg/version"
)

// NewVersionCommand creates the version subcommand.
func NewVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print Taskdeck version information",
		RunE: func(cmd *cobra.Command, args []string) error {
			f := format.FromCommand(cmd)

			info := version.Get()
			if mode, _ := cmd.Flags().GetString("output"); format.ParseMode(mode) == format.ModeJSON {
				return f.PrintJSON(info)
			}
			return f.PrintSummary(version.Info())
		},
	}
}
