package cli

import (
	"context"
	"fmt"
	"runtime"
	"time"

	"github.com/spf13/cobra"

	"github.com/neustart-io/neustart/internal/buildinfo"
	"github.com/neustart-io/neustart/internal/updater"
)

var versionCheck bool

var versionCmd = &cobra.Command{
	Use:     "version",
	Aliases: []string{"v"},
	Short:   "Show version information",
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Printf("%s %s\n", styleBrand.Render("Neustart"), styleVersion.Render(buildinfo.String()))
		fmt.Printf("  OS/Arch: %s/%s\n", runtime.GOOS, runtime.GOARCH)
		fmt.Printf("  Go: %s\n", runtime.Version())

		if !versionCheck {
			return nil
		}
		ctx, cancel := context.WithTimeout(cmd.Context(), 15*time.Second)
		defer cancel()
		res, err := updater.NewChecker(updater.ReleasesURL).Check(ctx, buildinfo.Version)
		if err != nil {
			return fmt.Errorf("update check failed: %w", err)
		}
		fmt.Println()
		switch {
		case res.Available:
			fmt.Printf("%s %s is available: %s\n",
				styleWarning.Render("Update:"), res.LatestVersion, styleCommand.Render(res.ReleaseURL))
		case res.LatestVersion == "":
			fmt.Println(styleHint.Render("No releases published yet."))
		default:
			fmt.Println(styleSuccess.Render("You are running the latest release."))
		}
		return nil
	},
}

func init() {
	versionCmd.Flags().BoolVar(&versionCheck, "check", false, "Check GitHub for a newer release")
}
