package tui

import (
	"github.com/spf13/cobra"

	"github.com/blackwell-systems/libreq/internal/util"
)

// ShouldUseTUI returns true if the command should use interactive TUI mode.
// TUI mode is enabled when:
// - stdin and stdout are both terminals
// - --no-interactive flag is not set
func ShouldUseTUI(cmd *cobra.Command) bool {
	if !util.IsTTY() || !util.IsInputTTY() {
		return false
	}

	noInteractive, _ := cmd.Flags().GetBool("no-interactive")
	return !noInteractive
}
