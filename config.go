package jupyterkit

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config is the file/environment configuration for running jupyterkit as a
// service. Precedence: defaults, then the YAML file, then JUPYTERKIT_*
// environment variables.
type Config struct {
	// Port is the Jupyter server port on 127.0.0.1.
	Port int `yaml:"port"`

	// UI is "lab" or "notebook".
	UI string `yaml:"ui"`

	// Root is the notebook root / home directory.
	Root string `yaml:"root"`

	// PythonPath pins a specific interpreter. Optional.
	PythonPath string `yaml:"python_path"`

	// RuntimeDir locates a bundled runtime directory. Optional.
	RuntimeDir string `yaml:"runtime_dir"`

	// Token is the Jupyter auth token; empty generates one.
	Token string `yaml:"token"`

	// DisableAuth runs the server without a token.
	DisableAuth bool `yaml:"disable_auth"`

	// SkipInstall forbids pip-installing missing packages.
	SkipInstall bool `yaml:"skip_install"`

	// APIAddr is the sidecar API listen address; empty disables the API.
	APIAddr string `yaml:"api_addr"`

	// LogLevel is debug, info, warn, or error.
	LogLevel string `yaml:"log_level"`
}

// DefaultConfig returns the defaults used before file and env overrides.
func DefaultConfig() Config {
	return Config{
		Port:     8888,
		UI:       string(UILab),
		Root:     "notebooks",
		APIAddr:  "127.0.0.1:8000",
		LogLevel: "info",
	}
}

// LoadConfig builds a Config from defaults, an optional YAML file, and the
// environment. An empty path skips the file; a missing file at an explicit
// path is an error.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("reading config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parsing config file: %w", err)
		}
	}

	cfg.applyEnv()
	if err := cfg.validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv("JUPYTERKIT_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			c.Port = port
		}
	}
	if v := os.Getenv("JUPYTERKIT_UI"); v != "" {
		c.UI = v
	}
	if v := os.Getenv("JUPYTERKIT_ROOT"); v != "" {
		c.Root = v
	}
	if v := os.Getenv("JUPYTERKIT_PYTHON"); v != "" {
		c.PythonPath = v
	}
	if v := os.Getenv("JUPYTERKIT_RUNTIME_DIR"); v != "" {
		c.RuntimeDir = v
	}
	if v := os.Getenv("JUPYTERKIT_TOKEN"); v != "" {
		c.Token = v
	}
	if v := os.Getenv("JUPYTERKIT_DISABLE_AUTH"); v != "" {
		c.DisableAuth = truthy(v)
	}
	if v := os.Getenv("JUPYTERKIT_SKIP_INSTALL"); v != "" {
		c.SkipInstall = truthy(v)
	}
	if v := os.Getenv("JUPYTERKIT_API_ADDR"); v != "" {
		c.APIAddr = v
	}
	if v := os.Getenv("JUPYTERKIT_LOG_LEVEL"); v != "" {
		c.LogLevel = v
	}
}

func (c *Config) validate() error {
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("invalid port: %d", c.Port)
	}
	switch ServerUI(c.UI) {
	case UILab, UINotebook:
	default:
		return fmt.Errorf("invalid ui %q (want lab or notebook)", c.UI)
	}
	switch strings.ToLower(c.LogLevel) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid log level %q", c.LogLevel)
	}
	return nil
}

// InitOptions derives runtime initialization options from the config.
func (c *Config) InitOptions(logger Logger) InitOptions {
	return InitOptions{
		PythonPath:  c.PythonPath,
		RuntimeDir:  c.RuntimeDir,
		UI:          ServerUI(c.UI),
		SkipInstall: c.SkipInstall,
		Logger:      logger,
	}
}

// ServerOptions derives Jupyter server options from the config.
func (c *Config) ServerOptions(logger Logger) ServerOptions {
	return ServerOptions{
		UI:          ServerUI(c.UI),
		Port:        c.Port,
		Root:        c.Root,
		Token:       c.Token,
		DisableAuth: c.DisableAuth,
		Logger:      logger,
	}
}

// SlogLevel maps the configured log level onto slog.
func (c *Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func truthy(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "true", "yes", "on":
		return true
	}
	return false
}
