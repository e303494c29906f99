package jupyterkit

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// ServerUI selects which Jupyter frontend module the server runs.
type ServerUI string

const (
	// UILab runs JupyterLab ("python -m jupyterlab").
	UILab ServerUI = "lab"

	// UINotebook runs the classic notebook ("python -m notebook").
	UINotebook ServerUI = "notebook"
)

// module returns the Python module name for the UI.
func (ui ServerUI) module() string {
	if ui == UINotebook {
		return "notebook"
	}
	return "jupyterlab"
}

// ServerOptions configures a NotebookServer.
type ServerOptions struct {
	// UI selects the frontend; defaults to UILab.
	UI ServerUI

	// Port is the loopback port to bind. Required, 1-65535.
	Port int

	// Root is the directory used as the server's home and notebook root.
	// Created if it does not exist.
	Root string

	// Token authenticates HTTP clients. When empty a random token is
	// generated unless DisableAuth is set.
	Token string

	// DisableAuth runs the server with an empty token. Only sensible because
	// the bind is loopback-only; remote access stays off regardless.
	DisableAuth bool

	// ExtraArgs are appended to the Jupyter command line verbatim.
	ExtraArgs []string

	// Env adds environment variables to the server process.
	Env map[string]string

	// StopTimeout is how long Terminate waits after the graceful signal
	// before killing the process tree. Defaults to 5 seconds.
	StopTimeout time.Duration

	// Logger receives server lifecycle and startup log events. Defaults to
	// the no-op logger.
	Logger Logger
}

// serverArgs builds the Jupyter command line. The flag set is the embedded
// deployment contract: loopback bind, no browser, no remote access, explicit
// root dir and token.
func serverArgs(opts ServerOptions) []string {
	args := []string{
		"-m", opts.UI.module(),
		fmt.Sprintf("--ServerApp.port=%d", opts.Port),
		"--ServerApp.ip=127.0.0.1",
		"--ServerApp.open_browser=False",
		fmt.Sprintf("--ServerApp.root_dir=%s", opts.Root),
		"--ServerApp.allow_remote_access=False",
		"--ServerApp.allow_origin=",
		"--ServerApp.disable_check_xsrf=False",
		fmt.Sprintf("--ServerApp.token=%s", opts.Token),
		"--ServerApp.password=",
		"--ServerApp.quit_button=True",
		"--ServerApp.base_url=/",
	}
	return append(args, opts.ExtraArgs...)
}

// NotebookServer supervises a running Jupyter server subprocess.
type NotebookServer struct {
	opts ServerOptions
	env  *PythonEnvironment
	log  Logger

	cmd *managedCmd

	readyOnce sync.Once
	readyCh   chan struct{}

	doneCh  chan struct{}
	waitErr error
}

// StartNotebookServer launches a Jupyter server for the given environment and
// options. It returns once the process is running; it does not wait for the
// HTTP surface (use WaitReady).
func StartNotebookServer(env *PythonEnvironment, opts ServerOptions) (*NotebookServer, error) {
	if env == nil {
		return nil, errors.New("nil environment")
	}
	if opts.Port < 1 || opts.Port > 65535 {
		return nil, fmt.Errorf("invalid port: %d", opts.Port)
	}
	if opts.Root == "" {
		return nil, errors.New("empty root directory")
	}
	if opts.UI == "" {
		opts.UI = UILab
	}
	if opts.Logger == nil {
		opts.Logger = NoOpLogger{}
	}
	if opts.StopTimeout <= 0 {
		opts.StopTimeout = 5 * time.Second
	}
	if opts.Token == "" && !opts.DisableAuth {
		opts.Token = uuid.NewString()
	}
	if opts.DisableAuth {
		opts.Token = ""
	}

	root, err := filepath.Abs(opts.Root)
	if err != nil {
		return nil, fmt.Errorf("resolving root: %w", err)
	}
	opts.Root = root
	if err := os.MkdirAll(root, 0755); err != nil {
		return nil, fmt.Errorf("creating root directory: %w", err)
	}
	if !isDirWritable(root) {
		return nil, fmt.Errorf("root directory is not writable: %s", root)
	}

	// The root path doubles as HOME so Jupyter keeps its config and runtime
	// state inside the sandboxed directory the host handed us.
	procEnv := map[string]string{
		"HOME":                root,
		"JUPYTER_DATA_DIR":    filepath.Join(root, ".jupyter", "data"),
		"JUPYTER_RUNTIME_DIR": filepath.Join(root, ".jupyter", "runtime"),
		"PYTHONUNBUFFERED":    "1",
	}
	for k, v := range opts.Env {
		procEnv[k] = v
	}

	cmd, err := startManagedCmd(env.PythonPath, serverArgs(opts), root, procEnv)
	if err != nil {
		return nil, fmt.Errorf("starting jupyter server: %w", err)
	}

	srv := &NotebookServer{
		opts:    opts,
		env:     env,
		log:     opts.Logger,
		cmd:     cmd,
		readyCh: make(chan struct{}),
		doneCh:  make(chan struct{}),
	}

	go srv.scanStartupLog()
	go func() {
		srv.waitErr = cmd.Wait()
		srv.log.Info("jupyter server exited", "port", opts.Port, "err", srv.waitErr)
		close(srv.doneCh)
	}()

	srv.log.Info("jupyter server started", "port", opts.Port, "root", root, "ui", string(opts.UI))
	return srv, nil
}

// scanStartupLog forwards the server's stderr to the logger and marks the
// server ready when the banner with the local URL appears. Jupyter logs to
// stderr by default.
func (srv *NotebookServer) scanStartupLog() {
	marker := fmt.Sprintf("http://127.0.0.1:%d/", srv.opts.Port)
	scanner := bufio.NewScanner(srv.cmd.Stderr)
	for scanner.Scan() {
		line := scanner.Text()
		srv.log.Debug("jupyter", "line", line)
		if strings.Contains(line, marker) {
			srv.markReady()
		}
	}
}

func (srv *NotebookServer) markReady() {
	srv.readyOnce.Do(func() { close(srv.readyCh) })
}

// URL returns the server's base URL (loopback).
func (srv *NotebookServer) URL() string {
	return fmt.Sprintf("http://127.0.0.1:%d/", srv.opts.Port)
}

// Port returns the bound port.
func (srv *NotebookServer) Port() int {
	return srv.opts.Port
}

// Token returns the auth token, empty when auth is disabled.
func (srv *NotebookServer) Token() string {
	return srv.opts.Token
}

// Running reports whether the server process is still alive.
func (srv *NotebookServer) Running() bool {
	select {
	case <-srv.doneCh:
		return false
	default:
		return true
	}
}

// Wait blocks until the server process exits and returns its exit error.
func (srv *NotebookServer) Wait() error {
	<-srv.doneCh
	return srv.waitErr
}

// WaitReady blocks until the server answers on its HTTP status endpoint, the
// process exits, or the context is done. The log banner alone is not trusted:
// the probe confirms the listener actually accepts connections.
func (srv *NotebookServer) WaitReady(ctx context.Context) error {
	statusURL := srv.URL() + "api/status"
	client := &http.Client{Timeout: 2 * time.Second}

	ticker := time.NewTicker(250 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-srv.doneCh:
			if srv.waitErr != nil {
				return fmt.Errorf("server exited before becoming ready: %w", srv.waitErr)
			}
			return errors.New("server exited before becoming ready")
		case <-ticker.C:
			req, err := http.NewRequestWithContext(ctx, http.MethodGet, statusURL, nil)
			if err != nil {
				return err
			}
			if srv.opts.Token != "" {
				req.Header.Set("Authorization", "token "+srv.opts.Token)
			}
			resp, err := client.Do(req)
			if err != nil {
				continue
			}
			resp.Body.Close()
			if resp.StatusCode < 500 {
				srv.markReady()
				return nil
			}
		}
	}
}

// Terminate gracefully stops the server: the termination signal goes to the
// whole process group so spawned kernels shut down too, and the tree is killed
// outright if it outlives the stop timeout. Safe to call more than once.
func (srv *NotebookServer) Terminate() error {
	if !srv.Running() {
		return nil
	}
	if err := srv.cmd.Signal(terminateSignal); err != nil {
		return err
	}
	select {
	case <-srv.doneCh:
		return nil
	case <-time.After(srv.opts.StopTimeout):
		srv.log.Warn("jupyter server did not stop in time, killing", "port", srv.opts.Port)
		if err := srv.cmd.Signal(killSignal); err != nil {
			return err
		}
		<-srv.doneCh
		return nil
	}
}
