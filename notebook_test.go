package jupyterkit

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleNotebook = `{
 "nbformat": 4,
 "nbformat_minor": 5,
 "metadata": {
  "kernelspec": {"name": "python3"},
  "visionos_export": true,
  "chartPositions": {"chartKey_0": {"x": 1.5}}
 },
 "cells": [
  {
   "cell_type": "code",
   "source": ["import matplotlib.pyplot as plt\n", "plt.plot([1, 2, 3])\n"],
   "metadata": {
    "visionos_window": {
     "id": "win-1",
     "type": "chart",
     "position": {"x": 0.5, "y": 1.0, "z": -2.0}
    }
   },
   "outputs": [],
   "execution_count": 1
  },
  {
   "cell_type": "markdown",
   "source": "# Title",
   "metadata": {}
  }
 ]
}`

func TestParseNotebook(t *testing.T) {
	nb, err := ParseNotebook([]byte(sampleNotebook))
	require.NoError(t, err)

	assert.Equal(t, 4, nb.NBFormat)
	assert.Equal(t, 5, nb.NBFormatMinor)
	require.Len(t, nb.Cells, 2)
	assert.Equal(t, "code", nb.Cells[0].CellType)
	assert.Equal(t, "markdown", nb.Cells[1].CellType)
}

func TestParseNotebookInvalid(t *testing.T) {
	_, err := ParseNotebook([]byte("not json"))
	assert.Error(t, err)
}

func TestParseNotebookDefaultsFormat(t *testing.T) {
	nb, err := ParseNotebook([]byte(`{"cells": []}`))
	require.NoError(t, err)
	assert.Equal(t, 4, nb.NBFormat)
}

func TestCellSourceForms(t *testing.T) {
	nb, err := ParseNotebook([]byte(sampleNotebook))
	require.NoError(t, err)

	// List form joins without separators, string form passes through.
	assert.Equal(t, "import matplotlib.pyplot as plt\nplt.plot([1, 2, 3])\n", string(nb.Cells[0].Source))
	assert.Equal(t, "# Title", string(nb.Cells[1].Source))
}

func TestCellSourceMarshalSingleString(t *testing.T) {
	src := CellSource("a\nb\n")
	data, err := src.MarshalJSON()
	require.NoError(t, err)
	assert.Equal(t, `"a\nb\n"`, string(data))
}

func TestIsSpatialExport(t *testing.T) {
	nb, err := ParseNotebook([]byte(sampleNotebook))
	require.NoError(t, err)
	assert.True(t, nb.IsSpatialExport())

	plain := &Notebook{Metadata: map[string]any{}}
	assert.False(t, plain.IsSpatialExport())

	var noMeta Notebook
	assert.False(t, noMeta.IsSpatialExport())
}

func TestChartPositions(t *testing.T) {
	nb, err := ParseNotebook([]byte(sampleNotebook))
	require.NoError(t, err)

	positions := nb.ChartPositions()
	require.NotNil(t, positions)
	m, ok := positions.(map[string]any)
	require.True(t, ok)
	assert.Contains(t, m, "chartKey_0")

	var noMeta Notebook
	assert.Nil(t, noMeta.ChartPositions())
}

func TestCellWindowInfo(t *testing.T) {
	nb, err := ParseNotebook([]byte(sampleNotebook))
	require.NoError(t, err)

	info, ok := nb.Cells[0].WindowInfo()
	require.True(t, ok)
	assert.Equal(t, "win-1", info.ID)
	assert.Equal(t, "chart", info.Type)
	assert.Equal(t, 0.5, info.Position["x"])

	_, ok = nb.Cells[1].WindowInfo()
	assert.False(t, ok)
}

func TestSetSpatialPosition(t *testing.T) {
	cell := Cell{CellType: "code"}
	cell.SetSpatialPosition(SpatialPosition{X: 1, Y: 2, Z: 3, Yaw: 90})

	window, ok := cell.Metadata[spatialWindowKey].(map[string]any)
	require.True(t, ok)
	pos, ok := window["position"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, 1.0, pos["x"])
	assert.Equal(t, 90.0, pos["yaw"])

	// Updating must preserve the rest of the annotation.
	window["id"] = "win-9"
	cell.SetSpatialPosition(SpatialPosition{X: 5})
	window = cell.Metadata[spatialWindowKey].(map[string]any)
	assert.Equal(t, "win-9", window["id"])
	pos = window["position"].(map[string]any)
	assert.Equal(t, 5.0, pos["x"])
}

func TestSourcePreview(t *testing.T) {
	cell := Cell{Source: "0123456789"}
	assert.Equal(t, "0123456789", cell.SourcePreview(10))
	assert.Equal(t, "01234...", cell.SourcePreview(5))
}

func TestNotebookFileRoundTrip(t *testing.T) {
	nb, err := ParseNotebook([]byte(sampleNotebook))
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "out.ipynb")
	require.NoError(t, WriteNotebookFile(path, nb))

	back, err := ReadNotebookFile(path)
	require.NoError(t, err)
	assert.Equal(t, nb.NBFormat, back.NBFormat)
	require.Len(t, back.Cells, 2)
	assert.Equal(t, nb.Cells[0].Source, back.Cells[0].Source)
	assert.True(t, back.IsSpatialExport())
}
