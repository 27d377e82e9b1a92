package tui

import (
	"github.com/spf13/cobra"

	"github.com/blackwell-systems/vertexctl/internal/util"
)

// ShouldUseTUI returns true if the command should use interactive TUI mode.
// TUI mode is enabled when:
// - stdout is a TTY (not piped or redirected)
// - --no-interactive flag is not set
// - no machine-readable output was requested (--json or --format)
func ShouldUseTUI(cmd *cobra.Command) bool {
	if !util.IsTTY() {
		return false
	}

	if noInteractive, _ := cmd.Flags().GetBool("no-interactive"); noInteractive {
		return false
	}

	if jsonOut, _ := cmd.Flags().GetBool("json"); jsonOut {
		return false
	}
	if format, _ := cmd.Flags().GetString("format"); format != "" {
		return false
	}

	return true
}
