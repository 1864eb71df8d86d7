package cli

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	"github.com/spf13/cobra"

	"github.com/neustart-io/neustart/internal/client"
	"github.com/neustart-io/neustart/internal/format"
	"github.com/neustart-io/neustart/internal/models"
)

var (
	jsonOutput bool
	assumeYes  bool
	addFlags   appFlags
	editFlags  appFlags
)

var listCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List managed apps",
	Args:    cobra.NoArgs,
	RunE:    runList,
}

var showCmd = &cobra.Command{
	Use:     "show <id>",
	Aliases: []string{"status"},
	Short:   "Show one app in detail",
	Args:    cobra.ExactArgs(1),
	RunE:    runShow,
}

var addCmd = &cobra.Command{
	Use:   "add <executable> [-- args...]",
	Short: "Add an app",
	Long: `Add an app to the registry. Enabled apps are started immediately.

Arguments after the executable are passed to it:

  neustart add --id web /usr/bin/python3 -- -m http.server 8000`,
	Args: cobra.MinimumNArgs(1),
	RunE: runAdd,
}

var editCmd = &cobra.Command{
	Use:   "edit <id> [-- args...]",
	Short: "Change an app's definition",
	Long: `Change an app's definition. Only the given flags are applied.
Arguments after -- replace the app's arguments. A running app keeps
its current process until it is restarted.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runEdit,
}

var renameCmd = &cobra.Command{
	Use:   "rename <id> <new-id>",
	Short: "Rename an app",
	Args:  cobra.ExactArgs(2),
	RunE:  runRename,
}

var removeCmd = &cobra.Command{
	Use:     "remove <id>",
	Aliases: []string{"rm"},
	Short:   "Close and remove an app",
	Args:    cobra.ExactArgs(1),
	RunE:    runRemove,
}

var startCmd = &cobra.Command{
	Use:   "start <id>",
	Short: "Enable and start an app",
	Args:  cobra.ExactArgs(1),
	RunE:  appAction("started", (*client.Client).StartApp),
}

var stopCmd = &cobra.Command{
	Use:   "stop <id>",
	Short: "Disable and stop an app",
	Args:  cobra.ExactArgs(1),
	RunE:  appAction("stopped", (*client.Client).StopApp),
}

var toggleCmd = &cobra.Command{
	Use:     "toggle <id>",
	Aliases: []string{"toggle-enabled"},
	Short:   "Enable or disable an app",
	Args:    cobra.ExactArgs(1),
	RunE:    appAction("toggled", (*client.Client).ToggleEnabled),
}

var hideCmd = &cobra.Command{
	Use:     "hide <id>",
	Aliases: []string{"toggle-hidden"},
	Short:   "Toggle whether an app's window is hidden on next launch",
	Args:    cobra.ExactArgs(1),
	RunE:    appAction("updated", (*client.Client).ToggleHidden),
}

var machineCmd = &cobra.Command{
	Use:   "machine",
	Short: "Show machine-wide statistics",
	Args:  cobra.NoArgs,
	RunE:  runMachine,
}

func init() {
	listCmd.Flags().BoolVar(&jsonOutput, "json", false, "Print JSON")
	showCmd.Flags().BoolVar(&jsonOutput, "json", false, "Print JSON")
	removeCmd.Flags().BoolVarP(&assumeYes, "yes", "y", false, "Do not ask for confirmation")

	addFlags.register(addCmd, false)
	editFlags.register(editCmd, true)
}

// appFlags are the definition flags shared by add and edit.
type appFlags struct {
	id          string
	exe         string
	dir         string
	disabled    bool
	hidden      bool
	noRestart   bool
	autoRestart bool
	delay       int
	maxRestarts int
}

func (f *appFlags) register(cmd *cobra.Command, edit bool) {
	fs := cmd.Flags()
	if edit {
		fs.StringVar(&f.exe, "exe", "", "Executable path")
		fs.BoolVar(&f.autoRestart, "auto-restart", true, "Relaunch the app after a crash")
	} else {
		fs.StringVar(&f.id, "id", "", "App ID (generated when empty)")
		fs.BoolVar(&f.disabled, "disabled", false, "Add without starting")
		fs.BoolVar(&f.noRestart, "no-restart", false, "Do not relaunch the app after a crash")
	}
	fs.StringVar(&f.dir, "dir", "", "Working directory")
	fs.BoolVar(&f.hidden, "hidden", false, "Launch without a visible window")
	fs.IntVar(&f.delay, "delay", 1, "Initial restart delay in seconds")
	fs.IntVar(&f.maxRestarts, "max-restarts", 5, "Consecutive failed restarts before giving up (0 = unlimited)")
}

// addRequest builds the request for `add`. Unset policy flags are left
// to the daemon's defaults.
func (f *appFlags) addRequest(cmd *cobra.Command, args []string) models.AppRequest {
	exe, arguments := args[0], args[1:]
	req := models.AppRequest{
		ID:             f.id,
		ExecutablePath: &exe,
		Arguments:      &arguments,
	}
	fs := cmd.Flags()
	if fs.Changed("dir") {
		req.WorkingDirectory = &f.dir
	}
	if fs.Changed("hidden") {
		req.Hidden = &f.hidden
	}
	if fs.Changed("disabled") {
		enabled := !f.disabled
		req.Enabled = &enabled
	}
	if fs.Changed("no-restart") {
		auto := !f.noRestart
		req.AutoRestart = &auto
	}
	if fs.Changed("delay") {
		req.RestartDelaySeconds = &f.delay
	}
	if fs.Changed("max-restarts") {
		req.MaxRestarts = &f.maxRestarts
	}
	return req
}

// editRequest carries only the flags the user set. The daemon keeps
// everything else.
func (f *appFlags) editRequest(cmd *cobra.Command, args []string) models.AppRequest {
	var req models.AppRequest
	fs := cmd.Flags()
	if fs.Changed("exe") {
		req.ExecutablePath = &f.exe
	}
	if cmd.ArgsLenAtDash() >= 0 || len(args) > 1 {
		arguments := args[1:]
		req.Arguments = &arguments
	}
	if fs.Changed("dir") {
		req.WorkingDirectory = &f.dir
	}
	if fs.Changed("hidden") {
		req.Hidden = &f.hidden
	}
	if fs.Changed("auto-restart") {
		req.AutoRestart = &f.autoRestart
	}
	if fs.Changed("delay") {
		req.RestartDelaySeconds = &f.delay
	}
	if fs.Changed("max-restarts") {
		req.MaxRestarts = &f.maxRestarts
	}
	return req
}

func runList(cmd *cobra.Command, args []string) error {
	c, err := connect()
	if err != nil {
		return err
	}
	apps, err := c.ListApps(cmd.Context())
	if err != nil {
		return err
	}

	if jsonOutput {
		return printJSON(apps)
	}
	if len(apps) == 0 {
		fmt.Println("No apps. Run " + styleCommand.Render("neustart add <executable>") + " to add one.")
		return nil
	}
	fmt.Print(renderAppTable(apps, time.Now(), terminalWidth()))
	return nil
}

func renderAppTable(apps []models.Snapshot, now time.Time, width int) string {
	headers := []string{"ID", "PHASE", "PID", "UPTIME", "CPU", "RAM", "RESTARTS", "FLAGS", "TITLE"}
	rows := make([][]string, 0, len(apps))
	for _, a := range apps {
		pid := "-"
		if a.PID > 0 {
			pid = strconv.Itoa(a.PID)
		}
		cpu, ram := "-", "-"
		if a.Phase == models.PhaseRunning {
			cpu = format.Percent(a.CPUPercent)
			ram = format.Bytes(a.RAMBytes)
		}
		phase := phaseBadge(a.Phase)
		if a.Phase == models.PhaseRestarting && a.NextRestartAt != nil {
			phase += styleHint.Render(" in " + format.Until(*a.NextRestartAt, now))
		}
		rows = append(rows, []string{
			a.ID,
			phase,
			pid,
			format.Uptime(a.Uptime),
			cpu,
			ram,
			strconv.Itoa(a.Restarts),
			appFlagsLabel(a),
			a.Title,
		})
	}
	return renderTable(headers, rows, width)
}

func appFlagsLabel(a models.Snapshot) string {
	var flags []string
	if !a.Enabled {
		flags = append(flags, "disabled")
	}
	if a.Hidden {
		flags = append(flags, "hidden")
	}
	if len(flags) == 0 {
		return "-"
	}
	return strings.Join(flags, ",")
}

func runShow(cmd *cobra.Command, args []string) error {
	c, err := connect()
	if err != nil {
		return err
	}
	snap, err := c.GetApp(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	def, err := c.GetDefinition(cmd.Context(), args[0])
	if err != nil {
		return err
	}

	if jsonOutput {
		return printJSON(struct {
			models.Snapshot
			Definition *models.AppDefinition `json:"definition"`
		}{*snap, def})
	}
	fmt.Print(renderAppDetail(*snap, *def, time.Now()))
	return nil
}

func renderAppDetail(snap models.Snapshot, def models.AppDefinition, now time.Time) string {
	var b strings.Builder
	line := func(label, value string) {
		fmt.Fprintf(&b, "  %s %s\n", styleLabel.Render(fmt.Sprintf("%-14s", label+":")), styleValue.Render(value))
	}

	fmt.Fprintf(&b, "%s  %s\n", styleBrand.Render(snap.ID), phaseBadge(snap.Phase))
	line("Executable", def.ExecutablePath)
	if len(def.Arguments) > 0 {
		line("Arguments", strings.Join(def.Arguments, " "))
	}
	if def.WorkingDirectory != "" {
		line("Directory", def.WorkingDirectory)
	}
	line("Enabled", strconv.FormatBool(def.Enabled))
	line("Hidden", strconv.FormatBool(def.Hidden))

	restart := "off"
	if def.AutoRestart {
		limit := "unlimited"
		if def.MaxRestarts > 0 {
			limit = strconv.Itoa(def.MaxRestarts)
		}
		restart = fmt.Sprintf("after %ds, max %s", def.DelaySeconds, limit)
	}
	line("Auto-restart", restart)

	if snap.Phase == models.PhaseRunning {
		line("PID", strconv.Itoa(snap.PID))
		if snap.Title != "" {
			line("Title", snap.Title)
		}
		line("Uptime", format.Uptime(snap.Uptime))
		line("CPU", format.Percent(snap.CPUPercent))
		line("RAM", format.Bytes(snap.RAMBytes))
	}
	line("Restarts", strconv.Itoa(snap.Restarts))
	if snap.NextRestartAt != nil {
		line("Next restart", format.Until(*snap.NextRestartAt, now))
	}
	if snap.LastError != "" {
		fmt.Fprintf(&b, "  %s %s\n", styleLabel.Render(fmt.Sprintf("%-14s", "Last error:")), styleError.Render(snap.LastError))
	}
	return b.String()
}

func runAdd(cmd *cobra.Command, args []string) error {
	c, err := connect()
	if err != nil {
		return err
	}
	snap, err := c.AddApp(cmd.Context(), addFlags.addRequest(cmd, args))
	if err != nil {
		return err
	}

	fmt.Printf("%s %s (%s)\n", styleSuccess.Render("Added"), styleBrand.Render(snap.ID), phaseBadge(snap.Phase))
	if snap.LastError != "" {
		fmt.Println(styleWarning.Render("Start failed: ") + snap.LastError)
	}
	return nil
}

func runEdit(cmd *cobra.Command, args []string) error {
	c, err := connect()
	if err != nil {
		return err
	}
	snap, err := c.UpdateApp(cmd.Context(), args[0], editFlags.editRequest(cmd, args))
	if err != nil {
		return err
	}

	fmt.Printf("%s %s\n", styleSuccess.Render("Updated"), styleBrand.Render(snap.ID))
	if snap.Phase == models.PhaseRunning {
		fmt.Println(styleHint.Render("Restart the app to apply the new definition."))
	}
	return nil
}

func runRename(cmd *cobra.Command, args []string) error {
	c, err := connect()
	if err != nil {
		return err
	}
	snap, err := c.RenameApp(cmd.Context(), args[0], args[1])
	if err != nil {
		if client.IsConflict(err) {
			return fmt.Errorf("an app named %q already exists", args[1])
		}
		return err
	}
	fmt.Printf("%s %s → %s\n", styleSuccess.Render("Renamed"), args[0], styleBrand.Render(snap.ID))
	return nil
}

func runRemove(cmd *cobra.Command, args []string) error {
	id := args[0]
	if !assumeYes {
		if !stdinIsTerminal() {
			return fmt.Errorf("refusing to remove %q without confirmation; pass --yes", id)
		}
		ok, err := confirm(fmt.Sprintf("Remove %s? Its process will be closed.", id))
		if err != nil {
			return err
		}
		if !ok {
			fmt.Println("Cancelled.")
			return nil
		}
	}

	c, err := connect()
	if err != nil {
		return err
	}
	if err := c.RemoveApp(cmd.Context(), id); err != nil {
		return err
	}
	fmt.Printf("%s %s\n", styleSuccess.Render("Removed"), id)
	return nil
}

func confirm(prompt string) (bool, error) {
	fmt.Printf("%s %s ", prompt, styleHint.Render("[y/N]"))
	answer, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil {
		return false, err
	}
	answer = strings.ToLower(strings.TrimSpace(answer))
	return answer == "y" || answer == "yes", nil
}

type appCommand func(*client.Client, context.Context, string) (*models.Snapshot, error)

func appAction(verb string, fn appCommand) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		c, err := connect()
		if err != nil {
			return err
		}
		snap, err := fn(c, cmd.Context(), args[0])
		if err != nil {
			return err
		}
		fmt.Printf("%s %s (%s%s)\n", styleSuccess.Render(strings.ToUpper(verb[:1])+verb[1:]),
			styleBrand.Render(snap.ID), phaseBadge(snap.Phase), snapshotSuffix(*snap))
		return nil
	}
}

func snapshotSuffix(s models.Snapshot) string {
	var parts []string
	if !s.Enabled {
		parts = append(parts, "disabled")
	}
	if s.Hidden {
		parts = append(parts, "hidden")
	}
	if len(parts) == 0 {
		return ""
	}
	return ", " + strings.Join(parts, ", ")
}

func runMachine(cmd *cobra.Command, args []string) error {
	c, err := connect()
	if err != nil {
		return err
	}
	stats, err := c.Machine(cmd.Context())
	if err != nil {
		return err
	}
	fmt.Printf("  %s %s\n", styleLabel.Render("Processes:     "), styleValue.Render(strconv.Itoa(stats.Processes)))
	fmt.Printf("  %s %s\n", styleLabel.Render("Privileged CPU:"), styleValue.Render(fmt.Sprintf("%.0f ms", stats.PrivilegedCPUMillis)))
	return nil
}

func printJSON(v any) error {
	data, err := sonic.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(data))
	return nil
}
