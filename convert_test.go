package jupyterkit

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func spatialNotebook() *Notebook {
	return &Notebook{
		NBFormat: 4,
		Metadata: map[string]any{
			spatialExportKey: map[string]any{"app": "pulto"},
		},
		Cells: []Cell{
			{
				CellType: "code",
				Source:   "plt.plot([1, 2, 3])",
				Metadata: map[string]any{
					spatialWindowKey: map[string]any{
						"id":       "w1",
						"type":     "chart",
						"position": map[string]any{"x": 1.0},
					},
				},
			},
			{CellType: "markdown", Source: "notes"},
			{
				CellType: "code",
				Source:   "print('longer cell that should be truncated in the preview because it exceeds the hundred character preview limit by some margin')",
				Metadata: map[string]any{
					spatialWindowKey: map[string]any{"id": "w2", "type": "text"},
				},
			},
		},
	}
}

func TestProcessSpatial(t *testing.T) {
	result := ProcessSpatial(spatialNotebook())

	assert.Equal(t, 2, result.WindowCount)
	require.Len(t, result.Windows, 2)
	assert.Equal(t, "w1", result.Windows[0].WindowID)
	assert.Equal(t, "chart", result.Windows[0].WindowType)
	assert.Equal(t, "w2", result.Windows[1].WindowID)
	assert.NotNil(t, result.Notebook)
	assert.False(t, result.Timestamp.IsZero())

	// Preview is capped at 100 characters plus ellipsis.
	assert.LessOrEqual(t, len(result.Windows[1].ContentPreview), 103)
	assert.Contains(t, result.Windows[1].ContentPreview, "...")
}

func TestProcessSpatialNoWindows(t *testing.T) {
	nb := &Notebook{Cells: []Cell{{CellType: "code", Source: "pass"}}}
	result := ProcessSpatial(nb)
	assert.Equal(t, 0, result.WindowCount)
	assert.Empty(t, result.Windows)
}

func TestConvertNotebookSpatialNeedsNoRunner(t *testing.T) {
	result, err := ConvertNotebook(context.Background(), spatialNotebook(), nil)
	require.NoError(t, err)
	require.NotNil(t, result.Spatial)
	assert.Nil(t, result.Charts)
	assert.Equal(t, 2, result.Spatial.WindowCount)
}

func TestExtractChartsNilRunner(t *testing.T) {
	nb := &Notebook{Cells: []Cell{{CellType: "code", Source: "pass"}}}
	_, err := ExtractCharts(context.Background(), nb, nil)
	assert.Error(t, err)
}
