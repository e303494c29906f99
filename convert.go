package jupyterkit

import (
	"context"
	"fmt"
	"time"
)

// ChartExtraction is the result of executing a notebook's code cells and
// collecting their rendered figures.
type ChartExtraction struct {
	// Charts maps "chartKey_<cellIndex>" to the base64 PNGs that cell drew.
	// Cells that drew nothing have no entry.
	Charts map[string][]string `json:"charts"`

	// Positions carries the saved chart layout from notebook metadata, when
	// present.
	Positions any `json:"positions,omitempty"`
}

// ProcessedWindow summarizes one spatial window cell.
type ProcessedWindow struct {
	WindowID       string `json:"window_id"`
	WindowType     string `json:"window_type"`
	Position       any    `json:"position"`
	ContentPreview string `json:"content_preview"`
}

// SpatialResult is a spatial-export notebook passed through with a summary of
// its window cells. The notebook itself is preserved unmodified.
type SpatialResult struct {
	Notebook    *Notebook         `json:"notebook"`
	WindowCount int               `json:"window_count"`
	Windows     []ProcessedWindow `json:"processed_cells"`
	Timestamp   time.Time         `json:"timestamp"`
}

// ConversionResult is the outcome of ConvertNotebook: exactly one of Charts
// or Spatial is set, depending on the notebook kind.
type ConversionResult struct {
	Charts  *ChartExtraction `json:"charts,omitempty"`
	Spatial *SpatialResult   `json:"spatial,omitempty"`
}

// ConvertNotebook dispatches on the notebook kind: spatial exports are passed
// through with their window summary, regular notebooks get their charts
// extracted by executing code cells in the runner.
func ConvertNotebook(ctx context.Context, nb *Notebook, runner *CellRunner) (*ConversionResult, error) {
	if nb.IsSpatialExport() {
		return &ConversionResult{Spatial: ProcessSpatial(nb)}, nil
	}
	charts, err := ExtractCharts(ctx, nb, runner)
	if err != nil {
		return nil, err
	}
	return &ConversionResult{Charts: charts}, nil
}

// ExtractCharts executes every code cell in order and collects the figures
// each one produced. Cells share the runner's interpreter state, so later
// cells see earlier definitions, like a top-to-bottom notebook run.
//
// A cell that raises keeps the run going: charts from the other cells are
// still worth returning, and the failed cell simply contributes none. Only
// transport-level failures abort the extraction.
func ExtractCharts(ctx context.Context, nb *Notebook, runner *CellRunner) (*ChartExtraction, error) {
	if runner == nil {
		return nil, fmt.Errorf("nil cell runner")
	}

	extraction := &ChartExtraction{
		Charts:    map[string][]string{},
		Positions: nb.ChartPositions(),
	}

	for i := range nb.Cells {
		cell := &nb.Cells[i]
		if cell.CellType != "code" {
			continue
		}
		result, err := runner.ExecuteCell(ctx, string(cell.Source))
		if err != nil {
			if _, ok := err.(*PythonException); ok {
				continue
			}
			return nil, fmt.Errorf("executing cell %d: %w", i, err)
		}
		if len(result.Images) > 0 {
			extraction.Charts[fmt.Sprintf("chartKey_%d", i)] = result.Images
		}
	}

	return extraction, nil
}

// ProcessSpatial preserves a spatial-export notebook and summarizes its
// window cells (id, type, position, source preview).
func ProcessSpatial(nb *Notebook) *SpatialResult {
	result := &SpatialResult{
		Notebook:  nb,
		Windows:   []ProcessedWindow{},
		Timestamp: time.Now().UTC(),
	}

	for i := range nb.Cells {
		cell := &nb.Cells[i]
		info, ok := cell.WindowInfo()
		if !ok {
			continue
		}
		result.WindowCount++
		result.Windows = append(result.Windows, ProcessedWindow{
			WindowID:       info.ID,
			WindowType:     info.Type,
			Position:       info.Position,
			ContentPreview: cell.SourcePreview(100),
		})
	}

	return result
}
