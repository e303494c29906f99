package jupyterkit

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestAPI(t *testing.T) (*APIServer, *Store) {
	t.Helper()
	store := NewStore()
	return NewAPIServer(APIOptions{Store: store}), store
}

func doJSON(t *testing.T, handler http.Handler, method, path, body string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	var decoded map[string]any
	if rec.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &decoded))
	}
	return rec, decoded
}

func TestAPIHealth(t *testing.T) {
	api, _ := newTestAPI(t)
	rec, body := doJSON(t, api.Handler(), http.MethodGet, "/health", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", body["status"])
	features := body["features"].(map[string]any)
	assert.Equal(t, false, features["chart_extraction"])
	// Without a bootstrap the Jupyter state is not reported.
	_, ok := body["jupyter_running"]
	assert.False(t, ok)
}

func TestAPIHealthWithBootstrap(t *testing.T) {
	api := NewAPIServer(APIOptions{Bootstrap: NewBootstrap(InitOptions{})})
	rec, body := doJSON(t, api.Handler(), http.MethodGet, "/health", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, false, body["jupyter_running"])
}

func TestAPIAnalyze(t *testing.T) {
	api, store := newTestAPI(t)
	rec, body := doJSON(t, api.Handler(), http.MethodPost, "/notebooks/demo/analyze", sampleNotebook)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 2.0, body["total_cells"])
	assert.Equal(t, 1.0, body["code_cells"])
	assert.Equal(t, true, body["has_plots"])
	assert.Equal(t, true, body["has_visionos_data"])

	// Analyze must not store the notebook.
	_, ok := store.Notebook("demo")
	assert.False(t, ok)
}

func TestAPIAnalyzeBadBody(t *testing.T) {
	api, _ := newTestAPI(t)
	rec, body := doJSON(t, api.Handler(), http.MethodPost, "/notebooks/demo/analyze", "not json")

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Bad Request", body["error"])
	assert.NotEmpty(t, body["detail"])
	assert.NotEmpty(t, body["type"])
}

func TestAPIConvertSpatial(t *testing.T) {
	api, store := newTestAPI(t)
	rec, body := doJSON(t, api.Handler(), http.MethodPost, "/convert/demo", sampleNotebook)

	assert.Equal(t, http.StatusOK, rec.Code)
	spatial, ok := body["spatial"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, 1.0, spatial["window_count"])

	// Convert stores the uploaded notebook.
	_, ok = store.Notebook("demo")
	assert.True(t, ok)
}

func TestAPIConvertRegularWithoutRunner(t *testing.T) {
	api, _ := newTestAPI(t)
	plain := `{"nbformat": 4, "metadata": {}, "cells": [{"cell_type": "code", "source": "pass", "metadata": {}}]}`
	rec, body := doJSON(t, api.Handler(), http.MethodPost, "/convert/plain", plain)

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, body["detail"], "no cell runner")
}

func TestAPINotebookInfo(t *testing.T) {
	api, store := newTestAPI(t)

	rec, _ := doJSON(t, api.Handler(), http.MethodGet, "/notebooks/demo", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	store.SaveNotebook("demo", &Notebook{Cells: []Cell{{CellType: "code"}}})
	rec, body := doJSON(t, api.Handler(), http.MethodGet, "/notebooks/demo", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "demo", body["name"])
	assert.Equal(t, 1.0, body["cells"])
}

func TestAPISpatialUpdate(t *testing.T) {
	api, store := newTestAPI(t)
	store.SaveNotebook("demo", &Notebook{Cells: []Cell{{CellType: "code"}}})

	rec, body := doJSON(t, api.Handler(), http.MethodPut,
		"/notebooks/demo/cells/0/spatial", `{"x": 1.5, "yaw": 90}`)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "updated", body["status"])
	assert.Equal(t, 0.0, body["cell_index"])

	pos, ok := store.SpatialPosition("demo", 0)
	require.True(t, ok)
	assert.Equal(t, 1.5, pos.X)
	assert.Equal(t, 90.0, pos.Yaw)
}

func TestAPISpatialUpdateBadRequests(t *testing.T) {
	api, store := newTestAPI(t)
	store.SaveNotebook("demo", &Notebook{Cells: []Cell{{CellType: "code"}}})

	rec, _ := doJSON(t, api.Handler(), http.MethodPut,
		"/notebooks/demo/cells/abc/spatial", `{"x": 1}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, _ = doJSON(t, api.Handler(), http.MethodPut,
		"/notebooks/demo/cells/9/spatial", `{"x": 1}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, _ = doJSON(t, api.Handler(), http.MethodPut,
		"/notebooks/demo/cells/0/spatial", "not json")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAPIBodyLimit(t *testing.T) {
	api := NewAPIServer(APIOptions{MaxBodyBytes: 16})
	rec, _ := doJSON(t, api.Handler(), http.MethodPost,
		"/notebooks/demo/analyze", strings.Repeat("x", 64))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
