package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/neustart-io/neustart/internal/tui"
)

var topCmd = &cobra.Command{
	Use:   "top",
	Short: "Live dashboard of every app",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if terminalWidth() == 0 {
			return fmt.Errorf("top needs an interactive terminal; use %s instead", styleCommand.Render("neustart list"))
		}
		c, err := connect()
		if err != nil {
			return err
		}
		return tui.Run(c)
	},
}
