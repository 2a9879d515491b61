package main

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"docket/internal/ipc"
	"docket/internal/preflight"
	"docket/internal/queue"
)

const daemonStartTimeout = 10 * time.Second

func newDaemonCommands(ctx *commandContext) []*cobra.Command {
	startCmd := &cobra.Command{
		Use:   "start",
		Short: "Start the docket daemon",
		RunE: func(cmd *cobra.Command, args []string) error {
			stdout := cmd.OutOrStdout()
			if client, err := ctx.dialClient(); err == nil {
				defer client.Close()
				resp, err := client.Start()
				if err != nil {
					return err
				}
				if resp.Started {
					fmt.Fprintln(stdout, "Daemon workflow started")
				} else {
					fmt.Fprintln(stdout, "Daemon already running")
				}
				return nil
			}

			fmt.Fprintln(stdout, "Daemon not running, launching...")
			if err := launchDaemon(ctx); err != nil {
				return err
			}
			if err := waitForSocket(ctx.socketPath(), daemonStartTimeout); err != nil {
				return err
			}
			fmt.Fprintln(stdout, "Daemon started")
			return nil
		},
	}

	stopCmd := &cobra.Command{
		Use:   "stop",
		Short: "Stop the docket daemon",
		RunE: func(cmd *cobra.Command, args []string) error {
			stdout := cmd.OutOrStdout()
			client, err := ctx.dialClient()
			if err != nil {
				fmt.Fprintln(stdout, "Daemon is not running")
				return nil
			}
			defer client.Close()

			status, err := client.Status()
			if err != nil {
				return err
			}
			if _, err := client.Stop(); err != nil {
				return err
			}
			fmt.Fprintln(stdout, "Stopping daemon workflow...")

			if status.PID > 0 {
				if err := syscall.Kill(status.PID, syscall.SIGTERM); err != nil && !errors.Is(err, syscall.ESRCH) {
					return fmt.Errorf("terminate daemon process %d: %w", status.PID, err)
				}
			}
			fmt.Fprintln(stdout, "Daemon stopped")
			return nil
		},
	}

	statusCmd := &cobra.Command{
		Use:   "status",
		Short: "Show system and queue status",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStatusCommand(cmd, ctx)
		},
	}

	return []*cobra.Command{startCmd, stopCmd, statusCmd}
}

func runStatusCommand(cmd *cobra.Command, ctx *commandContext) error {
	stdout := cmd.OutOrStdout()
	colorize := shouldColorize(stdout)

	cfg, err := ctx.ensureConfig()
	if err != nil {
		return err
	}

	var daemonStatus *ipc.StatusResponse
	if client, dialErr := ctx.dialClient(); dialErr == nil {
		resp, statusErr := client.Status()
		client.Close()
		if statusErr != nil {
			return statusErr
		}
		daemonStatus = resp
	}

	for _, line := range renderSectionHeader("System Status", colorize) {
		fmt.Fprintln(stdout, line)
	}
	if daemonStatus == nil {
		fmt.Fprintln(stdout, renderStatusLine("Daemon", statusWarn, "not running", colorize))
	} else {
		detail := fmt.Sprintf("pid %d", daemonStatus.PID)
		kind := statusOK
		if !daemonStatus.Running {
			detail += ", workflow stopped"
			kind = statusWarn
		}
		fmt.Fprintln(stdout, renderStatusLine("Daemon", kind, detail, colorize))
		if strings.TrimSpace(daemonStatus.LastError) != "" {
			fmt.Fprintln(stdout, renderStatusLine("Last error", statusError, daemonStatus.LastError, colorize))
		}
		for _, health := range daemonStatus.StageHealth {
			kind := statusOK
			detail := "ready"
			if !health.Ready {
				kind = statusWarn
				detail = health.Detail
			}
			fmt.Fprintln(stdout, renderStatusLine("Stage "+health.Name, kind, detail, colorize))
		}
	}
	fmt.Fprintln(stdout)

	for _, line := range renderSectionHeader("Preflight", colorize) {
		fmt.Fprintln(stdout, line)
	}
	for _, result := range preflight.RunAll(cmd.Context(), cfg) {
		kind := statusOK
		if !result.Passed {
			kind = statusError
		}
		fmt.Fprintln(stdout, renderStatusLine(result.Name, kind, result.Detail, colorize))
	}
	fmt.Fprintln(stdout)

	for _, line := range renderSectionHeader("Queue Status", colorize) {
		fmt.Fprintln(stdout, line)
	}
	stats, err := collectQueueStats(cmd, ctx, daemonStatus)
	if err != nil {
		return err
	}
	rows := buildQueueStatusRows(stats)
	if len(rows) == 0 {
		fmt.Fprintln(stdout, "Queue is empty")
		return nil
	}
	table := renderTable([]string{"Status", "Count"}, rows, []columnAlignment{alignLeft, alignRight})
	fmt.Fprintln(stdout, table)
	return nil
}

func collectQueueStats(cmd *cobra.Command, ctx *commandContext, daemonStatus *ipc.StatusResponse) (map[string]int, error) {
	if daemonStatus != nil {
		return daemonStatus.QueueStats, nil
	}
	cfg, err := ctx.ensureConfig()
	if err != nil {
		return nil, err
	}
	store, err := queue.Open(cfg)
	if err != nil {
		return nil, err
	}
	defer store.Close()

	raw, err := store.Stats(cmd.Context())
	if err != nil {
		return nil, err
	}
	stats := make(map[string]int, len(raw))
	for status, count := range raw {
		stats[string(status)] = count
	}
	return stats, nil
}

func launchDaemon(ctx *commandContext) error {
	exe, err := os.Executable()
	if err != nil {
		return fmt.Errorf("resolve executable: %w", err)
	}

	args := []string{"daemon"}
	if ctx.configFlag != nil {
		if config := strings.TrimSpace(*ctx.configFlag); config != "" {
			args = append(args, "--config", config)
		}
	}

	daemonCmd := exec.Command(exe, args...)
	daemonCmd.Stdout = nil
	daemonCmd.Stderr = nil
	daemonCmd.SysProcAttr = &syscall.SysProcAttr{Setsid: true}
	if err := daemonCmd.Start(); err != nil {
		return fmt.Errorf("launch daemon: %w", err)
	}
	return daemonCmd.Process.Release()
}

func waitForSocket(socket string, timeout time.Duration) error {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		client, err := ipc.Dial(socket)
		if err == nil {
			client.Close()
			return nil
		}
		time.Sleep(200 * time.Millisecond)
	}
	return fmt.Errorf("daemon did not become ready within %s", timeout)
}
