package jupyterkit

import (
	"io"
	"os"
	"os/exec"
	"syscall"
)

// managedCmd wraps an exec.Cmd with stdio pipes, process-group handling, and
// signal binding so a child never outlives the host process.
type managedCmd struct {
	// Cmd is the underlying command.
	Cmd *exec.Cmd

	// Stdin is the write end of the child's standard input.
	Stdin io.WriteCloser

	// Stdout is the read end of the child's standard output.
	Stdout io.ReadCloser

	// Stderr is the read end of the child's standard error.
	Stderr io.ReadCloser
}

// startManagedCmd starts path with args in dir, with env merged over the
// parent environment. The child is placed in its own process group and bound
// to the parent's termination signals.
func startManagedCmd(path string, args []string, dir string, env map[string]string) (*managedCmd, error) {
	cmd := exec.Command(path, args...)
	cmd.Dir = dir
	cmd.Env = os.Environ()
	for key, value := range env {
		cmd.Env = append(cmd.Env, key+"="+value)
	}
	configureProcessGroup(cmd)

	stdinPipe, err := cmd.StdinPipe()
	if err != nil {
		return nil, err
	}
	stdoutPipe, err := cmd.StdoutPipe()
	if err != nil {
		return nil, err
	}
	stderrPipe, err := cmd.StderrPipe()
	if err != nil {
		return nil, err
	}

	if err := cmd.Start(); err != nil {
		return nil, err
	}

	mc := &managedCmd{
		Cmd:    cmd,
		Stdin:  stdinPipe,
		Stdout: stdoutPipe,
		Stderr: stderrPipe,
	}
	setupSignalHandler(mc)
	return mc, nil
}

// Wait blocks until the child exits.
func (mc *managedCmd) Wait() error {
	return waitForExit(mc.Cmd)
}

// Signal delivers sig to the child's process tree.
func (mc *managedCmd) Signal(sig syscall.Signal) error {
	if mc.Cmd.Process == nil {
		return nil
	}
	return signalProcessTree(mc.Cmd.Process, sig)
}

// setupSignalHandler terminates the child when the parent receives a
// termination signal.
func setupSignalHandler(mc *managedCmd) {
	signalChan := make(chan os.Signal, 1)
	setSignalsForChannel(signalChan)

	go func() {
		<-signalChan
		mc.Signal(terminateSignal)
	}()
}
