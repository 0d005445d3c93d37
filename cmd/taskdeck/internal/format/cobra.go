package format

import (
	"os"

	"github.com/spf13/cobra"
)

// FromCommand builds a Formatter from a command's persistent flags.
// Missing flags fall back to table output with color enabled.
func FromCommand(cmd *cobra.Command) Formatter {
	mode := ModeTable
	if v, err := cmd.Flags().GetString("output"); err == nil {
		mode = ParseMode(v)
	}

	quiet := false
	if v, err := cmd.Flags().GetBool("quiet"); err == nil {
		quiet = v
	}

	useColor := true
	if v, err := cmd.Flags().GetBool("no-color"); err == nil {
		useColor = !v
	}

	return New(os.Stdout, os.Stderr, mode, quiet, useColor)
}
