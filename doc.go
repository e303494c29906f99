// Package jupyterkit embeds and supervises a Jupyter notebook server from within
// a Go host application, backed by a Python runtime the package discovers or
// creates itself. No CGO is required; the server and all helper code run as
// supervised subprocesses.
//
// # Bootstrap Surface
//
// The package exposes a three-operation lifecycle mirroring the needs of a host
// application that wants "a notebook server on localhost, now":
//
//	// One-time runtime initialization (per process).
//	err := jupyterkit.Initialize(jupyterkit.InitOptions{})
//
//	// Start a Jupyter server on 127.0.0.1:8888 with root as its home directory.
//	err = jupyterkit.StartServer("/path/to/notebooks", 8888)
//
//	// Request a best-effort graceful shutdown. Safe to call at any time.
//	jupyterkit.StopServer()
//
// StartServer returns as soon as the server process is running; it never blocks
// on the HTTP surface coming up. Callers that need to gate on readiness use a
// Bootstrap instance directly:
//
//	b := jupyterkit.NewBootstrap(jupyterkit.InitOptions{})
//	if err := b.Initialize(); err != nil { ... }
//	if err := b.StartServer("/notebooks", 8888); err != nil { ... }
//	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
//	defer cancel()
//	err := b.WaitReady(ctx)
//
// Initialize failure is sticky: once setup has failed, every later call reports
// the original error until the process restarts.
//
// # Environment Management
//
// A PythonEnvironment can come from several places:
//
//	// The python executable bundled with the application.
//	env, err := jupyterkit.EnvironmentFromBundle("/app/runtime")
//
//	// The system Python installation.
//	env, err := jupyterkit.EnvironmentFromSystem()
//
//	// A virtual environment created from an existing Python.
//	env, err := jupyterkit.CreateVenvEnvironment(baseEnv, "/path/to/venv", jupyterkit.VenvOptions{}, nil)
//
// Environments install packages via pip and can be frozen to a JSON spec for
// reproducible restores:
//
//	err := env.PipInstallPackages([]string{"jupyterlab"}, "", "", false, nil)
//	err = env.Freeze("runtime.json")
//
// # Server Supervision
//
// NotebookServer wraps the Jupyter subprocess: loopback-only binding, token
// auth, startup log scanning, an HTTP readiness probe against /api/status, and
// graceful termination (SIGTERM, then SIGKILL after a timeout, covering the
// whole process group on Unix so kernels die with the server).
//
// # Notebook Services
//
// Beyond the server lifecycle, the package ships the notebook plumbing a host
// application needs around it: an nbformat v4 document model (including spatial
// window metadata for volumetric clients), static analysis (cell census, import
// extraction, plot detection), chart extraction by executing code cells in a
// helper Python process, and an in-memory store for notebooks and spatial cell
// positions. A sidecar HTTP API (NewAPIServer) exposes these services to local
// clients.
//
// The helper process speaks length-prefixed MessagePack over pipes; its script
// is embedded in the Go binary with go:embed and needs only the msgpack package
// on the Python side, which Initialize installs alongside the Jupyter UI.
package jupyterkit
