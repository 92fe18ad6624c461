package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"github.com/MacklinHill1/neighborhood-help-app/internal/client"
	"github.com/MacklinHill1/neighborhood-help-app/internal/logging"
	"github.com/MacklinHill1/neighborhood-help-app/internal/tui"
	"github.com/MacklinHill1/neighborhood-help-app/internal/workspace"
	"go.uber.org/zap"
)

func main() {
	workspaceFlag := flag.String("workspace", "", "workspace name (overrides config default)")
	flag.Parse()

	name := workspace.Resolve(*workspaceFlag)
	if err := workspace.ValidateName(name); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	// The screen belongs to tview, so logs only go to the file.
	logger, err := logging.NewFileOnly(workspace.ClientLogPath(name), name, "locaid")
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	socketPath := workspace.SocketPath(name)

	// Probe daemon health; auto-start if needed.
	if !probeDaemon(socketPath) {
		fmt.Fprintf(os.Stderr, "daemon not running for workspace %q, starting...\n", name)
		if err := startDaemon(name); err != nil {
			fmt.Fprintf(os.Stderr, "failed to start daemon: %v\n", err)
			os.Exit(1)
		}
		if !waitForDaemon(socketPath, 10*time.Second) {
			fmt.Fprintf(os.Stderr, "daemon did not become ready, see %s\n", workspace.DaemonLogPath(name))
			os.Exit(1)
		}
	}

	c, err := client.New(socketPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "connect to daemon: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = c.Close() }()

	logger.Info("tui starting", zap.String("socket", socketPath))
	app := tui.NewApp(c, name, logger)
	if err := app.Run(); err != nil {
		logger.Error("tui exited", zap.Error(err))
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// probeDaemon checks if a daemon is running and reports SERVING.
func probeDaemon(socketPath string) bool {
	c, err := client.New(socketPath)
	if err != nil {
		return false
	}
	defer func() { _ = c.Close() }()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	return c.Ping(ctx) == nil
}

func startDaemon(name string) error {
	executable, err := os.Executable()
	if err != nil {
		return err
	}
	locaidd := filepath.Join(filepath.Dir(executable), "locaidd")

	if _, err := os.Stat(locaidd); err != nil {
		locaidd = "locaidd"
	}

	// The daemon outlives the TUI and would write over the screen, so its
	// output is left to its log file.
	cmd := exec.Command(locaidd, "--workspace", name)
	return cmd.Start()
}

// waitForDaemon polls the daemon health check until it serves or timeout.
func waitForDaemon(socketPath string, timeout time.Duration) bool {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if probeDaemon(socketPath) {
			return true
		}
		time.Sleep(300 * time.Millisecond)
	}
	return false
}
