package main

import (
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/leadforge/leadforge/internal/daemon"
)

var daemonCmd = &cobra.Command{
	Use:   "daemon",
	Short: "Run or control the background step processor",
}

func pidPath() string {
	return filepath.Join(homeDir(), "daemon.pid")
}

var daemonStartCmd = &cobra.Command{
	Use:   "start",
	Short: "Run the processing daemon in the foreground",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()

		d := daemon.New(a.processor, appConfig.Processor.Interval, pidPath(), a.logger)
		return d.Run(cmd.Context())
	},
}

var daemonStopCmd = &cobra.Command{
	Use:   "stop",
	Short: "Stop the running daemon",
	RunE: func(cmd *cobra.Command, args []string) error {
		pid, err := daemon.Stop(pidPath())
		if err != nil {
			return err
		}
		if pid == 0 {
			cmd.Println("Daemon is not running")
			return nil
		}
		cmd.Printf("Sent stop signal to daemon (PID %d)\n", pid)
		return nil
	},
}

var daemonStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show daemon status",
	RunE: func(cmd *cobra.Command, args []string) error {
		running, pid, err := daemon.CheckPIDFile(pidPath())
		if err != nil {
			return err
		}
		switch {
		case running:
			cmd.Printf("Daemon running (PID %d)\n", pid)
		case pid > 0:
			cmd.Printf("Daemon not running (stale pidfile for PID %d)\n", pid)
		default:
			cmd.Println("Daemon not running")
		}
		return nil
	},
}

func init() {
	daemonCmd.AddCommand(daemonStartCmd)
	daemonCmd.AddCommand(daemonStopCmd)
	daemonCmd.AddCommand(daemonStatusCmd)
}
