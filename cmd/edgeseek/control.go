package main

import (
	"errors"
	"fmt"
	"os"
	"syscall"

	"github.com/1broseidon/edgeseek/internal/config"
	"github.com/1broseidon/edgeseek/internal/daemon"
	"github.com/spf13/cobra"
)

var enableCmd = &cobra.Command{
	Use:   "enable",
	Short: "Show all activated edge strips",
	Args:  cobra.NoArgs,
	RunE:  signalCommand(syscall.SIGUSR1, "enabled"),
}

var disableCmd = &cobra.Command{
	Use:   "disable",
	Short: "Hide every edge strip until enabled again",
	Args:  cobra.NoArgs,
	RunE:  signalCommand(syscall.SIGUSR2, "disabled"),
}

var reloadCmd = &cobra.Command{
	Use:   "reload",
	Short: "Ask the daemon to re-read its config file",
	Args:  cobra.NoArgs,
	RunE:  signalCommand(syscall.SIGHUP, "reload requested"),
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show daemon state and configured edges",
	Args:  cobra.NoArgs,
	RunE:  runStatus,
}

func signalCommand(sig syscall.Signal, done string) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		pid, err := daemon.Signal(sig)
		if errors.Is(err, daemon.ErrNotRunning) {
			return fmt.Errorf("edgeseek daemon is not running")
		}
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s (pid %d)\n", done, pid)
		return nil
	}
}

func runStatus(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	fmt.Fprintln(out, heading("=== edgeseek status ==="))
	fmt.Fprintln(out)

	pid, err := daemon.RunningPid()
	switch {
	case err == nil:
		fmt.Fprintf(out, "Daemon: running (pid %d)\n", pid)
	case errors.Is(err, daemon.ErrNotRunning):
		fmt.Fprintln(out, "Daemon: not running")
	default:
		fmt.Fprintf(out, "Daemon: unknown (%v)\n", err)
	}

	path, err := resolveConfigPath()
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "Config file: %s\n", path)
	if _, err := os.Stat(path); err != nil {
		fmt.Fprintln(out, "  Status: not found, using defaults")
	}

	res, err := config.LoadFromPath(path)
	if err != nil {
		fmt.Fprintf(out, "  Load error: %v\n", err)
		return nil
	}
	cfg := res.Config
	fmt.Fprintf(out, "Enabled: %t  Rotation aware: %t  Readout: %s\n", cfg.Enabled, cfg.RotationAware, cfg.Readout)
	fmt.Fprintln(out)

	fmt.Fprintln(out, "Edges:")
	if len(cfg.Edges) == 0 {
		fmt.Fprintln(out, "  (none)")
	}
	for _, e := range cfg.Edges {
		state := "off"
		if e.Activated {
			state = "on"
		}
		fmt.Fprintf(out, "  %-6s %-3s %-12s width=%d sensitivity=%d color=%s alpha=%.2f\n",
			e.Edge, state, e.Setting, e.Width, e.Sensitivity, e.Color, e.Alpha)
	}
	return nil
}

func resolveConfigPath() (string, error) {
	if configPath != "" {
		return configPath, nil
	}
	return config.DefaultConfigPath()
}
