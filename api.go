package jupyterkit

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"
)

// APIOptions configures the sidecar HTTP API.
type APIOptions struct {
	// Store holds notebooks and spatial positions. A fresh one is created
	// when nil.
	Store *Store

	// Runner executes code cells for chart extraction. Without one, convert
	// requests for regular notebooks fail with 503.
	Runner *CellRunner

	// Bootstrap, when set, lets /health report the Jupyter server state.
	Bootstrap *Bootstrap

	// MaxBodyBytes caps request bodies. Defaults to 32 MiB.
	MaxBodyBytes int64

	// Logger receives request-level errors. Defaults to the no-op logger.
	Logger Logger
}

// APIServer is the sidecar HTTP service the host application talks to for
// notebook conversion, analysis, and spatial position updates. It is intended
// to listen on loopback next to the Jupyter server.
type APIServer struct {
	store  *Store
	runner *CellRunner
	boot   *Bootstrap
	log    Logger

	maxBody int64
	mux     *http.ServeMux
}

// NewAPIServer builds the API with its routes registered.
func NewAPIServer(opts APIOptions) *APIServer {
	if opts.Store == nil {
		opts.Store = NewStore()
	}
	if opts.Logger == nil {
		opts.Logger = NoOpLogger{}
	}
	if opts.MaxBodyBytes <= 0 {
		opts.MaxBodyBytes = 32 << 20
	}

	a := &APIServer{
		store:   opts.Store,
		runner:  opts.Runner,
		boot:    opts.Bootstrap,
		log:     opts.Logger,
		maxBody: opts.MaxBodyBytes,
		mux:     http.NewServeMux(),
	}

	a.mux.HandleFunc("POST /convert/{name}", a.handleConvert)
	a.mux.HandleFunc("GET /notebooks/{name}", a.handleNotebookInfo)
	a.mux.HandleFunc("PUT /notebooks/{name}/cells/{index}/spatial", a.handleSpatialUpdate)
	a.mux.HandleFunc("POST /notebooks/{name}/analyze", a.handleAnalyze)
	a.mux.HandleFunc("GET /health", a.handleHealth)
	return a
}

// Handler returns the http.Handler for mounting or testing.
func (a *APIServer) Handler() http.Handler {
	return a.mux
}

// Serve runs the API on addr until ctx is done, then shuts down gracefully.
func (a *APIServer) Serve(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           a.mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
		return ctx.Err()
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

// readNotebookBody decodes the request body as a notebook.
func (a *APIServer) readNotebookBody(w http.ResponseWriter, r *http.Request) (*Notebook, bool) {
	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, a.maxBody))
	if err != nil {
		a.writeError(w, http.StatusBadRequest, fmt.Errorf("reading body: %w", err))
		return nil, false
	}
	nb, err := ParseNotebook(data)
	if err != nil {
		a.writeError(w, http.StatusBadRequest, err)
		return nil, false
	}
	return nb, true
}

// handleConvert stores the uploaded notebook and either passes a spatial
// export through or extracts its charts.
func (a *APIServer) handleConvert(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	nb, ok := a.readNotebookBody(w, r)
	if !ok {
		return
	}

	a.store.SaveNotebook(name, nb)

	if !nb.IsSpatialExport() && a.runner == nil {
		a.writeError(w, http.StatusServiceUnavailable, errors.New("no cell runner available for chart extraction"))
		return
	}

	result, err := ConvertNotebook(r.Context(), nb, a.runner)
	if err != nil {
		a.writeError(w, http.StatusInternalServerError, err)
		return
	}
	if result.Charts != nil {
		a.store.SaveCharts(name, result.Charts)
	}
	a.writeJSON(w, http.StatusOK, result)
}

// handleNotebookInfo reports the stored notebook summary.
func (a *APIServer) handleNotebookInfo(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	info, ok := a.store.Info(name)
	if !ok {
		a.writeError(w, http.StatusNotFound, fmt.Errorf("notebook %s not found", name))
		return
	}
	a.writeJSON(w, http.StatusOK, info)
}

// handleSpatialUpdate records a cell's spatial position.
func (a *APIServer) handleSpatialUpdate(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	index, err := strconv.Atoi(r.PathValue("index"))
	if err != nil {
		a.writeError(w, http.StatusBadRequest, fmt.Errorf("invalid cell index: %w", err))
		return
	}

	var pos SpatialPosition
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, a.maxBody)).Decode(&pos); err != nil {
		a.writeError(w, http.StatusBadRequest, fmt.Errorf("decoding spatial position: %w", err))
		return
	}

	if err := a.store.UpdateSpatialPosition(name, index, pos); err != nil {
		a.writeError(w, http.StatusBadRequest, err)
		return
	}
	a.writeJSON(w, http.StatusOK, map[string]any{
		"status":     "updated",
		"cell_index": index,
		"spatial":    pos,
	})
}

// handleAnalyze inspects an uploaded notebook without executing or storing it.
func (a *APIServer) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	nb, ok := a.readNotebookBody(w, r)
	if !ok {
		return
	}
	a.writeJSON(w, http.StatusOK, Analyze(nb))
}

// handleHealth reports liveness plus the Jupyter server state when known.
func (a *APIServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	health := map[string]any{
		"status": "ok",
		"features": map[string]bool{
			"chart_extraction": a.runner != nil,
		},
	}
	if a.boot != nil {
		srv := a.boot.Server()
		health["jupyter_running"] = srv != nil && srv.Running()
	}
	a.writeJSON(w, http.StatusOK, health)
}

func (a *APIServer) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		a.log.Error("writing response", "err", err)
	}
}

// writeError renders the shared error shape: error summary, detail, and the
// Go type of the failure.
func (a *APIServer) writeError(w http.ResponseWriter, status int, err error) {
	a.log.Warn("request failed", "status", status, "err", err)
	a.writeJSON(w, status, map[string]string{
		"error":  http.StatusText(status),
		"detail": err.Error(),
		"type":   fmt.Sprintf("%T", err),
	})
}
