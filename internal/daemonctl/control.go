// Package daemonctl orchestrates the printwatchd process from the CLI side:
// launching it detached, waiting for its socket, and stopping it by PID.
package daemonctl

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"syscall"
	"time"

	"printwatch/internal/ipc"
)

// ErrDaemonNotRunning reports that no daemon answers on the control socket.
var ErrDaemonNotRunning = errors.New("daemon not running")

const pollInterval = 200 * time.Millisecond

// LaunchOptions controls daemon process launch behavior.
type LaunchOptions struct {
	ConfigPath string
}

// StartState describes the outcome of EnsureStarted.
type StartState string

const (
	StartStateStarted        StartState = "started"
	StartStateAlreadyRunning StartState = "already_running"
)

// StartResult captures daemon start orchestration state.
type StartResult struct {
	State    StartState
	Launched bool
	PID      int
}

// StopResult captures daemon stop orchestration state.
type StopResult struct {
	PID        int
	ForcedKill bool
}

// Launch starts a detached printwatchd process.
func Launch(executablePath string, opts LaunchOptions) error {
	if strings.TrimSpace(executablePath) == "" {
		return errors.New("resolve executable: executable path is empty")
	}

	var args []string
	if cfg := strings.TrimSpace(opts.ConfigPath); cfg != "" {
		args = append(args, "--config", cfg)
	}

	proc := exec.Command(executablePath, args...)
	if err := proc.Start(); err != nil {
		return fmt.Errorf("launch daemon: %w", err)
	}
	return proc.Process.Release()
}

// WaitForClient waits for IPC socket availability and returns a connected client.
func WaitForClient(socketPath string, timeout time.Duration) (*ipc.Client, error) {
	deadline := time.Now().Add(timeout)
	var lastErr error
	for time.Now().Before(deadline) {
		client, err := ipc.Dial(socketPath)
		if err == nil {
			return client, nil
		}
		lastErr = err
		time.Sleep(pollInterval)
	}
	if lastErr == nil {
		lastErr = errors.New("timeout waiting for daemon")
	}
	return nil, fmt.Errorf("daemon failed to start: %w", lastErr)
}

// EnsureStarted launches the daemon when no process answers on the socket
// and reports the resulting state. The daemon begins its work on launch;
// there is no separate start request.
func EnsureStarted(socketPath, executablePath string, opts LaunchOptions, waitTimeout time.Duration) (StartResult, error) {
	client, err := ipc.Dial(socketPath)
	launched := false
	if err != nil {
		if launchErr := Launch(executablePath, opts); launchErr != nil {
			return StartResult{}, launchErr
		}
		client, err = WaitForClient(socketPath, waitTimeout)
		if err != nil {
			return StartResult{}, err
		}
		launched = true
	}
	defer client.Close()

	pid := 0
	if resp, pingErr := client.Ping(); pingErr == nil {
		pid = resp.PID
	}

	if launched {
		return StartResult{State: StartStateStarted, Launched: true, PID: pid}, nil
	}
	return StartResult{State: StartStateAlreadyRunning, PID: pid}, nil
}

// StopAndTerminate asks the daemon for its PID, sends SIGTERM, and waits for
// the socket to disappear. A daemon that survives the wait is killed.
func StopAndTerminate(socketPath string, waitTimeout time.Duration) (StopResult, error) {
	client, err := ipc.Dial(socketPath)
	if err != nil {
		if socketGone(err) {
			return StopResult{}, ErrDaemonNotRunning
		}
		return StopResult{}, fmt.Errorf("connect to daemon: %w", err)
	}

	pid := 0
	if resp, pingErr := client.Ping(); pingErr == nil {
		pid = resp.PID
	}
	_ = client.Close()

	if pid <= 0 {
		return StopResult{}, errors.New("daemon did not report a PID")
	}

	proc, err := os.FindProcess(pid)
	if err != nil {
		return StopResult{PID: pid}, fmt.Errorf("find daemon process: %w", err)
	}
	if err := proc.Signal(syscall.SIGTERM); err != nil {
		return StopResult{PID: pid}, fmt.Errorf("signal daemon: %w", err)
	}

	if err := WaitForShutdown(socketPath, waitTimeout); err != nil {
		if killErr := proc.Kill(); killErr != nil {
			return StopResult{PID: pid}, fmt.Errorf("kill daemon after timeout: %w", killErr)
		}
		return StopResult{PID: pid, ForcedKill: true}, nil
	}
	return StopResult{PID: pid}, nil
}

// WaitForShutdown waits for the daemon socket to stop answering. A stale
// socket file left behind by a killed process counts as stopped.
func WaitForShutdown(socketPath string, timeout time.Duration) error {
	deadline := time.Now().Add(timeout)
	var lastErr error
	for time.Now().Before(deadline) {
		client, err := ipc.Dial(socketPath)
		if err != nil {
			if socketGone(err) {
				return nil
			}
			lastErr = err
			time.Sleep(pollInterval)
			continue
		}
		_ = client.Close()
		lastErr = errors.New("daemon still running")
		time.Sleep(pollInterval)
	}
	if lastErr == nil {
		lastErr = errors.New("timeout waiting for shutdown")
	}
	return fmt.Errorf("daemon did not stop: %w", lastErr)
}

// ProcessInfo reports whether a daemon answers on the socket and its PID.
func ProcessInfo(socketPath string) (bool, int, error) {
	client, err := ipc.Dial(socketPath)
	if err != nil {
		if socketGone(err) {
			return false, 0, nil
		}
		return false, 0, err
	}
	defer client.Close()

	resp, err := client.Ping()
	if err != nil {
		return true, 0, err
	}
	return true, resp.PID, nil
}

func socketGone(err error) bool {
	return errors.Is(err, os.ErrNotExist) ||
		errors.Is(err, syscall.ENOENT) ||
		errors.Is(err, syscall.ECONNREFUSED)
}
