package jupyterkit

import (
	"bufio"
	"fmt"
	"os/exec"
	"strings"
)

// RunPythonReadCombined executes a Python script and returns combined stdout/stderr.
// This is a blocking call that waits for the script to complete.
func (env *PythonEnvironment) RunPythonReadCombined(scriptPath string, args ...string) (string, error) {
	args = append([]string{scriptPath}, args...)
	cmd := exec.Command(env.PythonPath, args...)
	output, err := cmd.CombinedOutput()
	if err != nil {
		return string(output), err
	}
	return string(output), nil
}

// RunPythonReadStdout executes a Python script and returns only stdout.
// This is a blocking call that waits for the script to complete.
func (env *PythonEnvironment) RunPythonReadStdout(scriptPath string, args ...string) (string, error) {
	retv := ""
	args = append([]string{scriptPath}, args...)
	cmd := exec.Command(env.PythonPath, args...)
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return "", err
	}
	defer stdout.Close()

	if err := cmd.Start(); err != nil {
		return "", err
	}
	scanner := bufio.NewScanner(stdout)
	for scanner.Scan() {
		retv += scanner.Text() + "\n"
	}
	if err := cmd.Wait(); err != nil {
		return retv, err
	}
	return retv, nil
}

// RunPythonCode executes a short Python snippet with "-c" and returns its
// trimmed stdout. This is a blocking call.
func (env *PythonEnvironment) RunPythonCode(code string) (string, error) {
	output, err := exec.Command(env.PythonPath, "-c", code).Output()
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(output)), nil
}

// CanImport reports whether the environment can import the given Python module.
// Unlike HasPipPackage this answers by import name, which is what the launcher
// actually needs ("jupyterlab" the distribution vs "jupyterlab" the module).
func (env *PythonEnvironment) CanImport(module string) bool {
	_, err := env.RunPythonCode(fmt.Sprintf("import importlib.util, sys; sys.exit(0 if importlib.util.find_spec(%q) else 1)", module))
	return err == nil
}

// JupyterVersion returns the installed jupyter_server version by running
// "python -m jupyter --version" in the environment.
func (env *PythonEnvironment) JupyterVersion() (Version, error) {
	output, err := exec.Command(env.PythonPath, "-m", "jupyter", "--version").Output()
	if err != nil {
		return Version{}, fmt.Errorf("error running jupyter --version: %v", err)
	}
	return ParseJupyterVersion(string(output))
}
