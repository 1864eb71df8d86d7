// Package cli implements the neustart CLI commands.
package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "neustart",
	Short: "Keep your apps running",
	Long: `Neustart supervises a list of programs: it starts them, watches their
CPU and memory, and relaunches them with backoff when they crash.

The neustartd daemon does the supervising; this CLI talks to it and
starts it when needed.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the CLI.
func Execute() error {
	err := rootCmd.ExecuteContext(context.Background())
	if err != nil {
		fmt.Fprintln(os.Stderr, styleError.Render("Error:"), err)
	}
	return err
}

func init() {
	// Add subcommands (alphabetical)
	rootCmd.AddCommand(addCmd)
	rootCmd.AddCommand(daemonCmd)
	rootCmd.AddCommand(editCmd)
	rootCmd.AddCommand(hideCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(machineCmd)
	rootCmd.AddCommand(removeCmd)
	rootCmd.AddCommand(renameCmd)
	rootCmd.AddCommand(showCmd)
	rootCmd.AddCommand(startCmd)
	rootCmd.AddCommand(stopCmd)
	rootCmd.AddCommand(toggleCmd)
	rootCmd.AddCommand(topCmd)
	rootCmd.AddCommand(versionCmd)
}
