package jupyterkit

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"
)

// Runtime defines common operations for any language runtime environment.
// This interface allows code to work with different runtime types in a
// uniform way.
type Runtime interface {
	// Name returns the environment identifier.
	Name() string

	// Path returns the base environment path.
	Path() string

	// BinPath returns the path to executables.
	BinPath() string

	// Freeze serializes the environment to a file for reproducibility.
	Freeze(filePath string) error
}

// BaseEnvironment contains fields common to any Python runtime container,
// whether it is an application bundle, a venv, or the system installation.
type BaseEnvironment struct {
	// EnvironmentName is the identifier for this environment (e.g., "bundle", "system").
	EnvironmentName string

	// RootDir is the root directory containing the environment.
	RootDir string

	// EnvPath is the full path to the environment directory.
	EnvPath string

	// EnvBinPath is the path to the bin (or Scripts on Windows) directory.
	EnvBinPath string

	// EnvLibPath is the path to the lib directory within the environment.
	EnvLibPath string

	// IsNew indicates whether this environment was newly created (true)
	// or already existed (false).
	IsNew bool
}

// PythonEnvironment represents a Python runtime with all necessary paths and
// version information. It can be created from an explicit executable, the
// system Python, a bundled runtime directory, a virtual environment, or
// restored from a JSON specification file.
type PythonEnvironment struct {
	BaseEnvironment

	// PythonVersion is the detected Python version (e.g., 3.11.4).
	PythonVersion Version

	// PipVersion is the detected pip version.
	PipVersion Version

	// PythonPath is the full path to the Python executable.
	PythonPath string

	// PipPath is the full path to the pip executable. Empty when pip is
	// unavailable (e.g., a venv created with WithoutPip).
	PipPath string

	// SitePackagesPath is the path to the site-packages directory.
	SitePackagesPath string
}

// Name returns the environment identifier.
// Implements the Runtime interface.
func (env *PythonEnvironment) Name() string {
	return env.EnvironmentName
}

// Path returns the base environment path.
// Implements the Runtime interface.
func (env *PythonEnvironment) Path() string {
	return env.EnvPath
}

// BinPath returns the path to executables.
// Implements the Runtime interface.
func (env *PythonEnvironment) BinPath() string {
	return env.EnvBinPath
}

// Freeze serializes the environment to a file for reproducibility.
// Implements the Runtime interface. This is an alias for FreezeToFile.
func (env *PythonEnvironment) Freeze(filePath string) error {
	return env.FreezeToFile(filePath)
}

// VenvOptions configures the creation of a Python virtual environment.
// These options correspond to the flags available in Python's venv module.
type VenvOptions struct {
	// SystemSitePackages gives access to the system site-packages directory.
	SystemSitePackages bool

	// Symlinks creates symlinks to Python files instead of copies (Unix default).
	Symlinks bool

	// Copies creates copies of Python files instead of symlinks (Windows default).
	Copies bool

	// Clear deletes the contents of the environment directory if it exists.
	Clear bool

	// Upgrade upgrades an existing environment to use the current Python version.
	Upgrade bool

	// WithoutPip skips pip installation in the virtual environment.
	WithoutPip bool

	// Prompt sets a custom prompt prefix for the virtual environment.
	Prompt string

	// UpgradeDeps upgrades pip and setuptools to the latest versions.
	UpgradeDeps bool
}

// EnvironmentSpec is a serializable environment description that can be used
// to recreate an equivalent runtime. This is the format used by FreezeToFile
// and RestoreEnvironment.
type EnvironmentSpec struct {
	// Name is the environment name.
	Name string `json:"name"`

	// PipPackages lists pip packages in "name==version" format.
	PipPackages []string `json:"pip_packages,omitempty"`

	// PythonVersion specifies the Python version (e.g., "3.11").
	PythonVersion string `json:"python_version,omitempty"`
}

// ProgressCallback is called during long-running operations to report progress.
// The message describes the current operation, current is the progress value,
// and total is the expected total (-1 if unknown).
type ProgressCallback func(message string, current, total int64)

// EnvironmentFromExecutable creates a PythonEnvironment from an existing Python
// executable. This is useful when the host application knows exactly which
// interpreter it wants to embed.
//
// The function queries the executable to determine version information,
// site-packages path, pip location, and other environment details.
func EnvironmentFromExecutable(pythonPath string) (*PythonEnvironment, error) {
	if _, err := os.Stat(pythonPath); err != nil {
		return nil, fmt.Errorf("python executable not found: %w", err)
	}

	env := &PythonEnvironment{
		BaseEnvironment: BaseEnvironment{
			EnvironmentName: "executable",
			RootDir:         filepath.Dir(filepath.Dir(pythonPath)),
			IsNew:           false,
		},
	}
	env.PythonPath = pythonPath
	env.EnvPath = env.RootDir
	env.EnvBinPath = filepath.Dir(pythonPath)

	versionOutput, err := exec.Command(pythonPath, "--version").Output()
	if err != nil {
		return nil, fmt.Errorf("error getting Python version: %v", err)
	}
	env.PythonVersion, err = ParsePythonVersion(string(versionOutput))
	if err != nil {
		return nil, fmt.Errorf("error parsing Python version: %v", err)
	}

	sitePackagesOutput, err := exec.Command(pythonPath, "-c", "import site; print(site.getsitepackages()[0])").Output()
	if err != nil {
		return nil, fmt.Errorf("error getting site-packages path: %v", err)
	}
	env.SitePackagesPath = strings.TrimSpace(string(sitePackagesOutput))
	env.EnvLibPath = filepath.Dir(env.SitePackagesPath)

	// Prefer the pip that lives next to the interpreter so venv and bundle
	// environments never pick up a global pip.
	pipName := "pip"
	pip3Name := "pip3"
	if runtime.GOOS == "windows" {
		pipName = "pip.exe"
		pip3Name = "pip3.exe"
	}
	for _, candidate := range []string{
		filepath.Join(env.EnvBinPath, pip3Name),
		filepath.Join(env.EnvBinPath, pipName),
	} {
		if _, err := os.Stat(candidate); err == nil {
			env.PipPath = candidate
			break
		}
	}
	if env.PipPath == "" {
		env.PipPath, _ = exec.LookPath(pip3Name)
		if env.PipPath == "" {
			env.PipPath, _ = exec.LookPath(pipName)
		}
	}

	if env.PipPath != "" {
		pipVersionOutput, err := exec.Command(env.PipPath, "--version").Output()
		if err != nil {
			return nil, fmt.Errorf("error getting pip version: %v", err)
		}
		env.PipVersion, err = ParsePipVersion(string(pipVersionOutput))
		if err != nil {
			return nil, fmt.Errorf("error parsing pip version: %v", err)
		}
	}

	return env, nil
}

// EnvironmentFromSystem creates a PythonEnvironment using the system Python
// installation.
//
// On Unix systems, it searches for "python3" then "python" using exec.LookPath.
// On Windows, it first tries the "py" launcher, then searches for "python"
// while filtering out the Microsoft Store placeholder executables.
//
// Returns an error if no Python installation is found.
func EnvironmentFromSystem() (*PythonEnvironment, error) {
	pythonPath := ""
	if runtime.GOOS == "windows" {
		// Microsoft ships placeholder python.exe files under WindowsApps that
		// only open the store; those must be filtered out.
		wout, err := exec.Command("where", "py").Output()
		if err == nil {
			pythonPath = firstLine(string(wout))
		}
		if pythonPath == "" {
			wout, err = exec.Command("where", "python").Output()
			if err != nil {
				return nil, fmt.Errorf("error running 'where python': %v", err)
			}
			for _, p := range strings.Split(string(wout), "\n") {
				p = strings.TrimSpace(p)
				if p != "" && !strings.Contains(p, "Microsoft\\WindowsApps") {
					pythonPath = p
					break
				}
			}
		}
		if pythonPath == "" {
			return nil, fmt.Errorf("python not found")
		}
	} else {
		var err error
		pythonPath, err = exec.LookPath("python3")
		if err != nil {
			pythonPath, err = exec.LookPath("python")
			if err != nil {
				return nil, fmt.Errorf("python not found: %v", err)
			}
		}
	}

	env, err := EnvironmentFromExecutable(pythonPath)
	if err != nil {
		return nil, err
	}
	env.EnvironmentName = "system"
	return env, nil
}

// EnvironmentFromBundle creates a PythonEnvironment from a runtime directory
// shipped inside the application bundle. The expected layout is the standard
// prefix layout: <runtimeDir>/bin/python3 on Unix, <runtimeDir>/python.exe on
// Windows.
//
// This is the embedded-application path: the host ships a fixed interpreter
// and jupyterkit only needs to locate and interrogate it.
func EnvironmentFromBundle(runtimeDir string) (*PythonEnvironment, error) {
	var candidates []string
	if runtime.GOOS == "windows" {
		candidates = []string{
			filepath.Join(runtimeDir, "python.exe"),
			filepath.Join(runtimeDir, "Scripts", "python.exe"),
		}
	} else {
		candidates = []string{
			filepath.Join(runtimeDir, "bin", "python3"),
			filepath.Join(runtimeDir, "bin", "python"),
		}
	}

	for _, candidate := range candidates {
		if _, err := os.Stat(candidate); err == nil {
			env, err := EnvironmentFromExecutable(candidate)
			if err != nil {
				return nil, err
			}
			env.EnvironmentName = "bundle"
			env.RootDir = runtimeDir
			env.EnvPath = runtimeDir
			return env, nil
		}
	}
	return nil, fmt.Errorf("no python executable under bundle runtime %s", runtimeDir)
}

// CreateVenvEnvironment creates a Python virtual environment using the venv module.
//
// Parameters:
//   - baseEnv: The base Python environment to create the venv from
//   - venvPath: Path where the virtual environment will be created
//   - options: Configuration options for the venv (see VenvOptions)
//   - progressCallback: Optional callback for progress updates; may be nil
//
// The virtual environment inherits from baseEnv but has its own site-packages.
// If the venv already exists and options.Clear is false, it may be upgraded
// or reused depending on options.Upgrade.
//
// Returns an error if baseEnv is nil or venv creation fails.
func CreateVenvEnvironment(baseEnv *PythonEnvironment, venvPath string, options VenvOptions, progressCallback ProgressCallback) (*PythonEnvironment, error) {
	if baseEnv == nil {
		return nil, fmt.Errorf("base environment is nil")
	}

	envExists := false
	if _, err := os.Stat(venvPath); err == nil {
		envExists = true
	}

	args := []string{"-m", "venv"}
	if options.SystemSitePackages {
		args = append(args, "--system-site-packages")
	}
	if options.Symlinks {
		args = append(args, "--symlinks")
	}
	if options.Copies {
		args = append(args, "--copies")
	}
	if options.Clear {
		args = append(args, "--clear")
	} else if options.Upgrade {
		args = append(args, "--upgrade")
	}
	if options.WithoutPip {
		args = append(args, "--without-pip")
	}
	if options.Prompt != "" {
		args = append(args, "--prompt", options.Prompt)
	}
	if options.UpgradeDeps {
		args = append(args, "--upgrade-deps")
	}
	args = append(args, venvPath)

	var stderr bytes.Buffer
	venvCmd := exec.Command(baseEnv.PythonPath, args...)
	venvCmd.Stderr = &stderr
	if err := venvCmd.Run(); err != nil {
		return nil, fmt.Errorf("failed to create/update virtual environment: %v, stderr: %s", err, stderr.String())
	}

	if progressCallback != nil {
		if !envExists || options.Clear {
			progressCallback("Created virtual environment", 50, 100)
		} else {
			progressCallback("Updated virtual environment", 50, 100)
		}
	}

	var pythonPath string
	if runtime.GOOS == "windows" {
		pythonPath = filepath.Join(venvPath, "Scripts", "python.exe")
	} else {
		pythonPath = filepath.Join(venvPath, "bin", "python")
	}

	newEnv, err := EnvironmentFromExecutable(pythonPath)
	if err != nil {
		return nil, err
	}
	newEnv.EnvironmentName = filepath.Base(venvPath)
	newEnv.RootDir = venvPath
	newEnv.EnvPath = venvPath
	newEnv.IsNew = !envExists || options.Clear
	if options.WithoutPip {
		newEnv.PipPath = ""
		newEnv.PipVersion = Version{}
	}

	if progressCallback != nil {
		progressCallback("Virtual environment setup complete", 100, 100)
	}

	return newEnv, nil
}

// FreezeToFile saves the environment specification to a JSON file.
//
// The output includes the environment name, Python version, and the pip
// packages with versions. File URLs in pip freeze output are cleaned to show
// only package names. The resulting JSON file can be used with
// RestoreEnvironment to build an equivalent environment.
func (env *PythonEnvironment) FreezeToFile(filePath string) error {
	spec := EnvironmentSpec{
		Name:          env.EnvironmentName,
		PipPackages:   []string{},
		PythonVersion: env.PythonVersion.MinorString(),
	}

	if env.PipPath == "" {
		return fmt.Errorf("no pip path found")
	}

	pipOutput, err := exec.Command(env.PipPath, "freeze").Output()
	if err != nil {
		return fmt.Errorf("error running pip freeze: %v", err)
	}

	// Editable/local installs show up as "name @ file:///..."; strip the URL
	// so the spec stays portable.
	fileURLRegex := regexp.MustCompile(`^(.+) @ file:///.+$`)
	scanner := bufio.NewScanner(bytes.NewReader(pipOutput))
	for scanner.Scan() {
		line := scanner.Text()
		if match := fileURLRegex.FindStringSubmatch(line); len(match) > 1 {
			line = match[1]
		}
		// Drop trailing comments.
		parts := strings.SplitN(line, "#", 2)
		packageSpec := strings.TrimSpace(parts[0])
		if packageSpec != "" {
			spec.PipPackages = append(spec.PipPackages, packageSpec)
		}
	}

	jsonData, err := json.MarshalIndent(spec, "", "  ")
	if err != nil {
		return fmt.Errorf("error marshaling environment spec to JSON: %v", err)
	}
	if err := os.WriteFile(filePath, jsonData, 0644); err != nil {
		return fmt.Errorf("error writing JSON to file: %v", err)
	}
	return nil
}

// RestoreEnvironment creates a venv from a JSON specification file and installs
// the pip packages it lists.
//
// The JSON file should match the EnvironmentSpec format, typically created by
// FreezeToFile. The venv is created from baseEnv at venvPath.
func RestoreEnvironment(baseEnv *PythonEnvironment, venvPath string, specPath string, progressCallback ProgressCallback) (*PythonEnvironment, error) {
	jsonData, err := os.ReadFile(specPath)
	if err != nil {
		return nil, fmt.Errorf("error reading JSON file: %v", err)
	}

	var spec EnvironmentSpec
	if err := json.Unmarshal(jsonData, &spec); err != nil {
		return nil, fmt.Errorf("error unmarshaling JSON: %v", err)
	}

	env, err := CreateVenvEnvironment(baseEnv, venvPath, VenvOptions{}, progressCallback)
	if err != nil {
		return nil, fmt.Errorf("error creating venv: %v", err)
	}

	if len(spec.PipPackages) > 0 {
		if err := env.PipInstallPackages(spec.PipPackages, "", "", true, progressCallback); err != nil {
			return nil, fmt.Errorf("error installing pip packages: %v", err)
		}
	}

	if progressCallback != nil {
		progressCallback("Finished restoring environment", 100, 100)
	}
	return env, nil
}

// isDirWritable reports whether a directory accepts new files.
func isDirWritable(dir string) bool {
	f, err := os.CreateTemp(dir, ".jupyterkit-probe-*")
	if err != nil {
		return false
	}
	name := f.Name()
	f.Close()
	os.Remove(name)
	return true
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[:i]
	}
	return strings.TrimSpace(s)
}
