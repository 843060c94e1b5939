package watcher

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
)

// StartDaemon starts the watcher as a background daemon process.
// It re-executes the current binary as "watch --daemon-child" followed by
// args and writes the child's PID to pidFile. The child rotates logFile
// itself, so its stdout and stderr go to OutputPath(logFile) instead.
func (w *Watcher) StartDaemon(pidFile, logFile string, args ...string) error {
	running, err := IsDaemonRunning(pidFile)
	if err != nil {
		return fmt.Errorf("failed to check daemon status: %w", err)
	}
	if running {
		return fmt.Errorf("daemon already running (PID file: %s)", pidFile)
	}

	outFile := OutputPath(logFile)
	outF, err := os.OpenFile(outFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("failed to open daemon output file: %w", err)
	}
	defer outF.Close()

	executable, err := os.Executable()
	if err != nil {
		return fmt.Errorf("failed to get executable path: %w", err)
	}

	cmd := exec.Command(executable, append([]string{"watch", "--daemon-child"}, args...)...)
	cmd.Stdout = outF
	cmd.Stderr = outF
	cmd.Stdin = nil
	cmd.SysProcAttr = &syscall.SysProcAttr{
		Setsid: true, // Create new session
	}

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("failed to start daemon process: %w", err)
	}

	pid := cmd.Process.Pid
	if err := os.WriteFile(pidFile, []byte(fmt.Sprintf("%d\n", pid)), 0644); err != nil {
		_ = cmd.Process.Kill()
		return fmt.Errorf("failed to write PID file: %w", err)
	}

	// Detach from parent
	if err := cmd.Process.Release(); err != nil {
		return fmt.Errorf("failed to release process: %w", err)
	}

	w.logger.Info().Int("pid", pid).Str("log", logFile).Str("output", outFile).Msg("daemon started")
	return nil
}

// OutputPath is where a daemon started with logFile writes its stdout and
// stderr: logFile with its extension replaced by ".out".
func OutputPath(logFile string) string {
	return strings.TrimSuffix(logFile, filepath.Ext(logFile)) + ".out"
}

// RunDaemon runs the watcher in daemon mode (called by daemon child process).
// It blocks until SIGTERM or SIGINT, then stops the watcher and removes
// pidFile.
func (w *Watcher) RunDaemon(pidFile string) error {
	// The child rewrites the PID file so a manual --daemon-child run is
	// stoppable as well.
	if err := os.WriteFile(pidFile, []byte(fmt.Sprintf("%d\n", os.Getpid())), 0644); err != nil {
		return fmt.Errorf("failed to write PID file: %w", err)
	}
	defer func() {
		if err := os.Remove(pidFile); err != nil && !os.IsNotExist(err) {
			w.logger.Warn().Err(err).Msg("failed to remove PID file")
		}
	}()

	return w.RunUntilSignal(syscall.SIGTERM, syscall.SIGINT)
}

// RunUntilSignal starts the watcher and blocks until one of sigs arrives.
func (w *Watcher) RunUntilSignal(sigs ...os.Signal) error {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, sigs...)
	defer signal.Stop(sigCh)

	if err := w.Start(); err != nil {
		return fmt.Errorf("failed to start watcher: %w", err)
	}

	sig := <-sigCh
	w.logger.Info().Str("signal", sig.String()).Msg("shutting down")

	if err := w.Stop(); err != nil {
		return fmt.Errorf("failed to stop watcher: %w", err)
	}
	return nil
}

// StopDaemon stops a running daemon by sending SIGTERM to the process.
func StopDaemon(pidFile string) error {
	pid, err := readPID(pidFile)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("daemon not running (PID file not found)")
		}
		var numErr *strconv.NumError
		if errors.As(err, &numErr) {
			return fmt.Errorf("invalid PID in file: %w", err)
		}
		return err
	}

	process, err := os.FindProcess(pid)
	if err != nil {
		return fmt.Errorf("failed to find process %d: %w", pid, err)
	}

	if err := process.Signal(syscall.SIGTERM); err != nil {
		return fmt.Errorf("failed to send SIGTERM to process %d: %w", pid, err)
	}

	return nil
}

// IsDaemonRunning checks if a daemon is running by checking the PID file.
// A PID file pointing at a dead process is removed.
func IsDaemonRunning(pidFile string) (bool, error) {
	pid, err := readPID(pidFile)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		var numErr *strconv.NumError
		if errors.As(err, &numErr) {
			// Invalid PID file, consider daemon not running
			return false, nil
		}
		return false, err
	}

	process, err := os.FindProcess(pid)
	if err != nil {
		return false, nil
	}

	// Signal 0 checks existence without delivering anything.
	if err := process.Signal(syscall.Signal(0)); err != nil {
		os.Remove(pidFile)
		return false, nil
	}

	return true, nil
}

// DaemonPID returns the PID recorded in pidFile, or 0 if the daemon is not
// running.
func DaemonPID(pidFile string) int {
	running, err := IsDaemonRunning(pidFile)
	if err != nil || !running {
		return 0
	}
	pid, err := readPID(pidFile)
	if err != nil {
		return 0
	}
	return pid
}

func readPID(pidFile string) (int, error) {
	pidData, err := os.ReadFile(pidFile)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, err
		}
		return 0, fmt.Errorf("failed to read PID file: %w", err)
	}
	return strconv.Atoi(strings.TrimSpace(string(pidData)))
}
