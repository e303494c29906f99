//go:build !windows

package jupyterkit

import (
	"errors"
	"os"
	"os/exec"
	"os/signal"
	"syscall"

	"golang.org/x/sys/unix"
)

// setSignalsForChannel configures the channel to receive SIGINT and SIGTERM.
func setSignalsForChannel(c chan os.Signal) {
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)
}

// waitForExit waits for a command to exit and returns an appropriate error.
func waitForExit(cmd *exec.Cmd) error {
	err := cmd.Wait()
	if err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok {
			if exitErr.ExitCode() == -1 {
				// The child process was killed
				return errors.New("child process was killed")
			}
		}
		return err
	}
	return nil
}

// configureProcessGroup puts the child in its own process group so signals can
// reach the Jupyter server and every kernel it spawned.
func configureProcessGroup(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
}

// signalProcessTree sends sig to the child's process group, falling back to
// the child alone when the group is gone or was never created.
func signalProcessTree(p *os.Process, sig syscall.Signal) error {
	pgid, err := unix.Getpgid(p.Pid)
	if err == nil && pgid == p.Pid {
		if err := unix.Kill(-pgid, sig); err == nil {
			return nil
		}
	}
	return p.Signal(sig)
}

// terminateSignal is the graceful shutdown signal for the platform.
const terminateSignal = syscall.SIGTERM

// killSignal is the forced shutdown signal for the platform.
const killSignal = syscall.SIGKILL
