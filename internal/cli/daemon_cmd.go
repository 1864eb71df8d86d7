package cli

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/neustart-io/neustart/internal/client"
	"github.com/neustart-io/neustart/internal/config"
	"github.com/neustart-io/neustart/internal/format"
	"github.com/neustart-io/neustart/internal/models"
)

var daemonCmd = &cobra.Command{
	Use:   "daemon",
	Short: "Manage the Neustart daemon",
	Long:  `Manage the neustartd daemon process that supervises your apps.`,
}

var daemonStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show daemon status",
	RunE:  runDaemonStatus,
}

var daemonStartCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the daemon",
	RunE:  runDaemonStart,
}

var daemonStopCmd = &cobra.Command{
	Use:   "stop",
	Short: "Stop the daemon and close every app",
	RunE:  runDaemonStop,
}

func init() {
	daemonCmd.AddCommand(daemonStartCmd)
	daemonCmd.AddCommand(daemonStatusCmd)
	daemonCmd.AddCommand(daemonStopCmd)
}

func runDaemonStart(cmd *cobra.Command, args []string) error {
	running, info, err := config.IsDaemonRunning()
	if err != nil {
		return fmt.Errorf("failed to check daemon status: %w", err)
	}

	if running && info != nil {
		fmt.Printf("Daemon is already running (PID %d, port %d).\n", info.PID, info.Port)
		return nil
	}

	if info != nil {
		_ = config.RemoveDaemonInfo()
	}

	fmt.Print("Starting daemon...")
	if startErr := startDaemon(); startErr != nil {
		fmt.Println()
		return startErr
	}

	_, freshInfo, err := GetDaemonStatus()
	if err != nil || freshInfo == nil {
		fmt.Println(" started.")
		return nil
	}

	fmt.Printf(" started (PID %d, port %d).\n", freshInfo.PID, freshInfo.Port)
	return nil
}

func runDaemonStatus(cmd *cobra.Command, args []string) error {
	running, info, err := GetDaemonStatus()
	if err != nil {
		return err
	}

	if !running || info == nil {
		fmt.Println("Daemon is not running.")
		return nil
	}

	uptime := time.Since(info.StartedAt).Truncate(time.Second)

	fmt.Println(styleSuccess.Render("Daemon is running."))
	fmt.Printf("  Host:       %s\n", info.Host)
	fmt.Printf("  Port:       %d\n", info.Port)
	fmt.Printf("  PID:        %d\n", info.PID)
	fmt.Printf("  Uptime:     %s\n", uptime)

	c := client.ForDaemon(&models.DaemonInfo{Host: info.Host, Port: info.Port})
	apps, err := c.ListApps(cmd.Context())
	if err != nil {
		return nil // Non-fatal: just skip app summary
	}
	fmt.Printf("  Apps:       %s\n", summarizeApps(apps))
	return nil
}

func summarizeApps(apps []models.Snapshot) string {
	counts := map[models.Phase]int{}
	var ram uint64
	for _, a := range apps {
		counts[a.Phase]++
		ram += a.RAMBytes
	}
	s := fmt.Sprintf("%d total, %d running", len(apps), counts[models.PhaseRunning])
	if n := counts[models.PhaseCrashed] + counts[models.PhaseRestarting]; n > 0 {
		s += ", " + styleWarning.Render(fmt.Sprintf("%d failing", n))
	}
	if ram > 0 {
		s += fmt.Sprintf(" (%s RAM)", format.Bytes(ram))
	}
	return s
}

func runDaemonStop(cmd *cobra.Command, args []string) error {
	running, info, err := config.IsDaemonRunning()
	if err != nil {
		return fmt.Errorf("failed to check daemon status: %w", err)
	}

	if !running || info == nil {
		fmt.Println("Daemon is not running.")
		return nil
	}

	// Prefer the API so apps are closed on every platform; fall back to a signal.
	if err := client.ForDaemon(info).Shutdown(cmd.Context()); err != nil {
		process, err := os.FindProcess(info.PID)
		if err != nil {
			return fmt.Errorf("failed to find daemon process: %w", err)
		}
		if err := signalStop(process); err != nil {
			return fmt.Errorf("failed to send stop signal: %w", err)
		}
	}

	// Apps get their stop timeout each, so allow longer than startup.
	for i := 0; i < 300; i++ {
		time.Sleep(100 * time.Millisecond)
		stillRunning, _, err := config.IsDaemonRunning()
		if err == nil && !stillRunning {
			fmt.Println("Daemon stopped.")
			return nil
		}
	}

	return fmt.Errorf("daemon did not stop within timeout")
}
