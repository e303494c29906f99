package jupyterkit

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
)

// Notebook is an nbformat v4 document. Metadata is kept loosely typed so
// unknown keys survive a read/modify/write round trip untouched.
type Notebook struct {
	NBFormat      int            `json:"nbformat"`
	NBFormatMinor int            `json:"nbformat_minor"`
	Metadata      map[string]any `json:"metadata"`
	Cells         []Cell         `json:"cells"`
}

// Cell is a single notebook cell.
type Cell struct {
	CellType       string         `json:"cell_type"`
	Source         CellSource     `json:"source"`
	Metadata       map[string]any `json:"metadata,omitempty"`
	Outputs        []any          `json:"outputs,omitempty"`
	ExecutionCount *int           `json:"execution_count,omitempty"`
}

// CellSource is cell source text. nbformat serializes source either as a
// plain string or as a list of line strings; both decode to the joined text
// and encode back as a single string.
type CellSource string

// UnmarshalJSON accepts a string or a []string.
func (s *CellSource) UnmarshalJSON(data []byte) error {
	var single string
	if err := json.Unmarshal(data, &single); err == nil {
		*s = CellSource(single)
		return nil
	}
	var lines []string
	if err := json.Unmarshal(data, &lines); err != nil {
		return fmt.Errorf("cell source is neither string nor string list: %w", err)
	}
	*s = CellSource(strings.Join(lines, ""))
	return nil
}

// MarshalJSON always emits the single-string form.
func (s CellSource) MarshalJSON() ([]byte, error) {
	return json.Marshal(string(s))
}

// SpatialPosition places a cell window in 3D space.
type SpatialPosition struct {
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
	Z     float64 `json:"z"`
	Pitch float64 `json:"pitch"`
	Yaw   float64 `json:"yaw"`
	Roll  float64 `json:"roll"`
}

// WindowInfo is the spatial window annotation a volumetric client attaches to
// a cell under the "visionos_window" metadata key.
type WindowInfo struct {
	ID       string         `json:"id"`
	Type     string         `json:"type"`
	Position map[string]any `json:"position"`
}

// spatialWindowKey is the cell metadata key carrying WindowInfo.
const spatialWindowKey = "visionos_window"

// spatialExportKey is the notebook metadata key marking a spatial export.
const spatialExportKey = "visionos_export"

// chartPositionsKey is the notebook metadata key carrying saved chart layout.
const chartPositionsKey = "chartPositions"

// ParseNotebook decodes a notebook from JSON bytes.
func ParseNotebook(data []byte) (*Notebook, error) {
	var nb Notebook
	if err := json.Unmarshal(data, &nb); err != nil {
		return nil, fmt.Errorf("parsing notebook: %w", err)
	}
	if nb.NBFormat == 0 {
		nb.NBFormat = 4
	}
	return &nb, nil
}

// ReadNotebook decodes a notebook from r.
func ReadNotebook(r io.Reader) (*Notebook, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	return ParseNotebook(data)
}

// ReadNotebookFile decodes a notebook from a .ipynb file.
func ReadNotebookFile(path string) (*Notebook, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseNotebook(data)
}

// WriteNotebookFile writes the notebook as indented JSON.
func WriteNotebookFile(path string, nb *Notebook) error {
	data, err := json.MarshalIndent(nb, "", " ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// IsSpatialExport reports whether the notebook carries spatial export
// metadata from a volumetric client.
func (nb *Notebook) IsSpatialExport() bool {
	if nb.Metadata == nil {
		return false
	}
	_, ok := nb.Metadata[spatialExportKey]
	return ok
}

// ChartPositions returns the saved chart layout from notebook metadata, or
// nil when none is present.
func (nb *Notebook) ChartPositions() any {
	if nb.Metadata == nil {
		return nil
	}
	return nb.Metadata[chartPositionsKey]
}

// WindowInfo returns the spatial window annotation of the cell, if present.
func (c *Cell) WindowInfo() (*WindowInfo, bool) {
	raw, ok := c.Metadata[spatialWindowKey]
	if !ok {
		return nil, false
	}
	// The metadata came through map[string]any; round-trip the subtree into
	// the typed struct.
	blob, err := json.Marshal(raw)
	if err != nil {
		return nil, false
	}
	var info WindowInfo
	if err := json.Unmarshal(blob, &info); err != nil {
		return nil, false
	}
	return &info, true
}

// SetSpatialPosition attaches or replaces the cell's spatial position inside
// its window annotation, creating the annotation if needed.
func (c *Cell) SetSpatialPosition(pos SpatialPosition) {
	if c.Metadata == nil {
		c.Metadata = map[string]any{}
	}
	window, _ := c.Metadata[spatialWindowKey].(map[string]any)
	if window == nil {
		window = map[string]any{}
	}
	window["position"] = map[string]any{
		"x": pos.X, "y": pos.Y, "z": pos.Z,
		"pitch": pos.Pitch, "yaw": pos.Yaw, "roll": pos.Roll,
	}
	c.Metadata[spatialWindowKey] = window
}

// SourcePreview returns up to n characters of the cell source, with an
// ellipsis when truncated.
func (c *Cell) SourcePreview(n int) string {
	src := string(c.Source)
	if len(src) <= n {
		return src
	}
	return src[:n] + "..."
}
