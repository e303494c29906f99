package jupyterkit

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

var (
	// ErrNotInitialized is returned when StartServer is called before a
	// successful Initialize.
	ErrNotInitialized = errors.New("jupyterkit: runtime not initialized")

	// ErrServerRunning is returned when StartServer is called while a server
	// is already up.
	ErrServerRunning = errors.New("jupyterkit: server already running")
)

// minimumPython is the oldest interpreter current Jupyter releases support.
var minimumPython = Version{Major: 3, Minor: 8, Patch: -1}

// InitOptions configures runtime initialization.
type InitOptions struct {
	// PythonPath, when set, pins initialization to a specific interpreter.
	PythonPath string

	// RuntimeDir, when set, locates a bundled runtime directory (the
	// embedded-application layout). Ignored if PythonPath is set.
	RuntimeDir string

	// UI selects the frontend whose packages Initialize ensures; defaults to
	// UILab.
	UI ServerUI

	// SkipInstall makes Initialize fail instead of pip-installing missing
	// Python packages. Use when the bundled runtime is immutable.
	SkipInstall bool

	// Logger receives lifecycle events. Defaults to the no-op logger.
	Logger Logger

	// Progress receives pip install progress; may be nil.
	Progress ProgressCallback
}

// Bootstrap owns the embedded runtime lifecycle: one-time initialization and
// start/stop of a single supervised Jupyter server. All methods are safe for
// concurrent use.
//
// Initialization outcome is sticky: the first Initialize decides success or
// failure for the lifetime of the Bootstrap, matching the once-per-process
// contract of the host application.
type Bootstrap struct {
	opts InitOptions
	log  Logger

	initOnce sync.Once

	// mu guards everything below.
	mu       sync.Mutex
	initDone bool
	initErr  error
	env      *PythonEnvironment
	server   *NotebookServer
}

// NewBootstrap creates a Bootstrap with the given options. Nothing runs until
// Initialize is called.
func NewBootstrap(opts InitOptions) *Bootstrap {
	if opts.UI == "" {
		opts.UI = UILab
	}
	if opts.Logger == nil {
		opts.Logger = NoOpLogger{}
	}
	return &Bootstrap{opts: opts, log: opts.Logger}
}

// Initialize performs one-time setup of the embedded Python runtime: resolve
// the interpreter, check its version, and make sure the Jupyter UI and the
// cell-runner dependency are importable (installing them via pip unless
// SkipInstall is set).
//
// The first call does the work; every later call returns the same result.
func (b *Bootstrap) Initialize() error {
	b.initOnce.Do(func() {
		env, err := b.initialize()
		b.mu.Lock()
		b.env = env
		b.initErr = err
		b.initDone = true
		b.mu.Unlock()
		if err != nil {
			b.log.Error("runtime initialization failed", "err", err)
		}
	})
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.initErr
}

func (b *Bootstrap) initialize() (*PythonEnvironment, error) {
	var env *PythonEnvironment
	var err error

	switch {
	case b.opts.PythonPath != "":
		env, err = EnvironmentFromExecutable(b.opts.PythonPath)
	case b.opts.RuntimeDir != "":
		env, err = EnvironmentFromBundle(b.opts.RuntimeDir)
	default:
		env, err = EnvironmentFromSystem()
	}
	if err != nil {
		return nil, fmt.Errorf("resolving python runtime: %w", err)
	}

	if env.PythonVersion.Compare(minimumPython) < 0 {
		return nil, fmt.Errorf("python %s is too old, need at least %s", env.PythonVersion.String(), minimumPython.String())
	}
	b.log.Info("python runtime resolved",
		"name", env.EnvironmentName, "python", env.PythonVersion.String(), "path", env.PythonPath)

	// The UI distribution name and its import name happen to coincide for
	// both frontends. msgpack backs the cell-runner transport.
	required := []string{b.opts.UI.module(), "msgpack"}
	var missing []string
	for _, mod := range required {
		if !env.CanImport(mod) {
			missing = append(missing, mod)
		}
	}
	if len(missing) > 0 {
		if b.opts.SkipInstall {
			return nil, fmt.Errorf("missing python packages %v and SkipInstall is set", missing)
		}
		b.log.Info("installing missing python packages", "packages", missing)
		if err := env.EnsurePipPackages(missing, b.opts.Progress); err != nil {
			return nil, fmt.Errorf("installing python packages: %w", err)
		}
	}

	if jv, err := env.JupyterVersion(); err == nil {
		b.log.Info("jupyter server available", "version", jv.String())
	}

	return env, nil
}

// Environment returns the resolved Python environment, or ErrNotInitialized.
func (b *Bootstrap) Environment() (*PythonEnvironment, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.stateLocked(); err != nil {
		return nil, err
	}
	return b.env, nil
}

// stateLocked reports whether Initialize has completed successfully, without
// triggering initialization. Callers hold b.mu.
func (b *Bootstrap) stateLocked() error {
	if !b.initDone {
		return ErrNotInitialized
	}
	return b.initErr
}

// StartServer starts a Jupyter server bound to 127.0.0.1:port with root as its
// home and notebook directory. It returns promptly; the server runs as a
// supervised background process. Use WaitReady to block on the HTTP surface.
//
// Fails with ErrNotInitialized before a successful Initialize and with
// ErrServerRunning while a previous server is still alive.
func (b *Bootstrap) StartServer(root string, port int) error {
	return b.StartServerWithOptions(ServerOptions{Root: root, Port: port})
}

// StartServerWithOptions is StartServer with full control over the server
// configuration. Unset fields get the same defaults StartServer uses.
func (b *Bootstrap) StartServerWithOptions(opts ServerOptions) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if err := b.stateLocked(); err != nil {
		return err
	}
	if b.server != nil && b.server.Running() {
		return ErrServerRunning
	}

	if opts.UI == "" {
		opts.UI = b.opts.UI
	}
	if opts.Logger == nil {
		opts.Logger = b.log
	}

	srv, err := StartNotebookServer(b.env, opts)
	if err != nil {
		return err
	}
	b.server = srv
	return nil
}

// WaitReady blocks until the running server answers HTTP requests, the server
// exits, or ctx is done. Returns an error if no server is running.
func (b *Bootstrap) WaitReady(ctx context.Context) error {
	b.mu.Lock()
	srv := b.server
	b.mu.Unlock()
	if srv == nil {
		return errors.New("jupyterkit: no server running")
	}
	return srv.WaitReady(ctx)
}

// Server returns the current NotebookServer, or nil when none has been
// started. The server may have exited; check Running.
func (b *Bootstrap) Server() *NotebookServer {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.server
}

// StopServer requests a best-effort graceful shutdown of the running server.
// Safe to call when no server is running and safe to call repeatedly; all
// failures are logged, never returned.
func (b *Bootstrap) StopServer() {
	b.mu.Lock()
	srv := b.server
	b.server = nil
	b.mu.Unlock()

	if srv == nil {
		return
	}
	if err := srv.Terminate(); err != nil {
		b.log.Warn("error stopping jupyter server", "err", err)
	}
}

// The package-level functions mirror the flat C-style surface host bridges
// call into; they delegate to a process-wide default Bootstrap the same way
// the class wrapper delegates to the free functions.
var (
	defaultMu   sync.Mutex
	defaultBoot *Bootstrap
)

// Initialize performs one-time initialization of the process-wide runtime.
// Options are taken from the first call; later calls return the sticky result
// of the first.
func Initialize(opts InitOptions) error {
	defaultMu.Lock()
	if defaultBoot == nil {
		defaultBoot = NewBootstrap(opts)
	}
	b := defaultBoot
	defaultMu.Unlock()
	return b.Initialize()
}

// StartServer starts the process-wide Jupyter server on 127.0.0.1:port with
// root as its home directory. Returns ErrNotInitialized before Initialize.
func StartServer(root string, port int) error {
	defaultMu.Lock()
	b := defaultBoot
	defaultMu.Unlock()
	if b == nil {
		return ErrNotInitialized
	}
	return b.StartServer(root, port)
}

// StopServer requests a graceful shutdown of the process-wide server.
// Safe to call at any time, including when nothing is running.
func StopServer() {
	defaultMu.Lock()
	b := defaultBoot
	defaultMu.Unlock()
	if b == nil {
		return
	}
	b.StopServer()
}
