//go:build windows

package jupyterkit

import (
	"errors"
	"os"
	"os/exec"
	"os/signal"
	"syscall"
)

// setSignalsForChannel configures the channel to receive interrupt signals.
func setSignalsForChannel(c chan os.Signal) {
	signal.Notify(c, os.Interrupt)
}

// waitForExit waits for a command to exit and returns an appropriate error.
func waitForExit(cmd *exec.Cmd) error {
	err := cmd.Wait()
	if err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok {
			if exitErr.ExitCode() == -1 {
				return errors.New("child process was killed")
			}
		}
		return err
	}
	return nil
}

// configureProcessGroup creates the child in a new process group so it does
// not receive the console's Ctrl+C events directly.
func configureProcessGroup(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{CreationFlags: syscall.CREATE_NEW_PROCESS_GROUP}
}

// signalProcessTree has no graceful group signal on Windows; sig is ignored
// and the child is killed. Jupyter's own child reaping cleans up kernels.
func signalProcessTree(p *os.Process, sig syscall.Signal) error {
	_ = sig
	return p.Kill()
}

// terminateSignal is the graceful shutdown signal for the platform.
const terminateSignal = syscall.SIGTERM

// killSignal is the forced shutdown signal for the platform.
const killSignal = syscall.SIGKILL
