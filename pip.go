package jupyterkit

import (
	"bufio"
	"bytes"
	"fmt"
	"os/exec"
	"strings"
)

// PipInstallPackages installs one or more Python packages using pip.
//
// Parameters:
//   - packages: Package names/specifiers (e.g., "jupyterlab", "msgpack>=1.0")
//   - index_url: Custom PyPI index URL; empty string uses default
//   - extra_index_url: Additional package index; empty string means none
//   - no_cache: If true, disables pip's cache
//   - progressCallback: Optional progress callback; may be nil
//
// Returns an error if pip fails, including stderr output for debugging.
func (env *PythonEnvironment) PipInstallPackages(packages []string, index_url string, extra_index_url string, no_cache bool, progressCallback ProgressCallback) error {
	if env.PipPath == "" {
		return fmt.Errorf("environment %s has no pip", env.EnvironmentName)
	}

	args := []string{
		"install",
		"--no-warn-script-location",
	}
	if no_cache {
		args = append(args, "--no-cache-dir")
	}
	args = append(args, packages...)
	if index_url != "" {
		args = append(args, "--index-url", index_url)
	}
	if extra_index_url != "" {
		args = append(args, "--extra-index-url", extra_index_url)
	}

	installCmd := exec.Command(env.PipPath, args...)

	// Keep stderr for the error message; stdout is scanned live for progress.
	var stderrBuf bytes.Buffer
	installCmd.Stderr = &stderrBuf

	stdout, err := installCmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("error creating stdout pipe: %v", err)
	}
	defer stdout.Close()

	if err := installCmd.Start(); err != nil {
		return fmt.Errorf("error starting pip install: %v", err)
	}

	scanner := bufio.NewScanner(stdout)
	lineCount := int64(0)
	for scanner.Scan() {
		lineCount++
		if progressCallback != nil {
			bardesc := "Installing pip packages..."
			if len(packages) == 1 {
				bardesc = fmt.Sprintf("Installing pip package %s...", packages[0])
			}
			progressCallback(bardesc, lineCount, -1)
		}
	}

	if err := installCmd.Wait(); err != nil {
		return fmt.Errorf("error installing package: %v, stderr: %s", err, stderrBuf.String())
	}

	if progressCallback != nil {
		progressCallback("Pip packages installed successfully", 100, 100)
	}
	return nil
}

// PipInstallRequirements installs packages from a requirements.txt file.
// The file should contain one package specifier per line in pip format.
func (env *PythonEnvironment) PipInstallRequirements(requirementsPath string, progressCallback ProgressCallback) error {
	if env.PipPath == "" {
		return fmt.Errorf("environment %s has no pip", env.EnvironmentName)
	}

	installCmd := exec.Command(env.PipPath, "install", "--no-warn-script-location", "-r", requirementsPath)

	stdout, err := installCmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("error creating stdout pipe: %v", err)
	}
	defer stdout.Close()

	if err := installCmd.Start(); err != nil {
		return fmt.Errorf("error starting pip install: %v", err)
	}

	scanner := bufio.NewScanner(stdout)
	lineCount := int64(0)
	for scanner.Scan() {
		lineCount++
		if progressCallback != nil {
			progressCallback("Installing pip requirements...", lineCount, -1)
		}
	}

	if err := installCmd.Wait(); err != nil {
		return fmt.Errorf("error installing requirements: %v", err)
	}

	if progressCallback != nil {
		progressCallback("Pip requirements installed successfully", 100, 100)
	}
	return nil
}

// PipInstallPackage installs a single Python package using pip.
// This is a convenience wrapper around PipInstallPackages for single packages.
func (env *PythonEnvironment) PipInstallPackage(packageToInstall string, index_url string, extra_index_url string, no_cache bool, progressCallback ProgressCallback) error {
	packages := []string{
		packageToInstall,
	}
	return env.PipInstallPackages(packages, index_url, extra_index_url, no_cache, progressCallback)
}

// HasPipPackage reports whether a package is installed in the environment,
// using "pip show". The check is by distribution name, not import name.
func (env *PythonEnvironment) HasPipPackage(name string) bool {
	if env.PipPath == "" {
		return false
	}
	showCmd := exec.Command(env.PipPath, "show", name)
	output, err := showCmd.Output()
	if err != nil {
		return false
	}
	return strings.Contains(string(output), "Name:")
}

// EnsurePipPackages installs any of the given packages that are missing.
// Package specifiers may carry version constraints; the presence probe uses
// only the distribution name before any comparison operator.
func (env *PythonEnvironment) EnsurePipPackages(packages []string, progressCallback ProgressCallback) error {
	var missing []string
	for _, pkg := range packages {
		name := pkg
		for _, sep := range []string{"==", ">=", "<=", "~=", ">", "<", "["} {
			if i := strings.Index(name, sep); i >= 0 {
				name = name[:i]
			}
		}
		if !env.HasPipPackage(strings.TrimSpace(name)) {
			missing = append(missing, pkg)
		}
	}
	if len(missing) == 0 {
		return nil
	}
	return env.PipInstallPackages(missing, "", "", false, progressCallback)
}
