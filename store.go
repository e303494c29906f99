package jupyterkit

import (
	"fmt"
	"sync"
	"time"
)

// StoredNotebook is a notebook held by the Store together with bookkeeping.
type StoredNotebook struct {
	Notebook     *Notebook
	LastModified time.Time
}

// NotebookInfo is the summary the store exposes about a notebook.
type NotebookInfo struct {
	Name           string    `json:"name"`
	Cells          int       `json:"cells"`
	Charts         int       `json:"charts"`
	HasSpatialData bool      `json:"has_spatial_data"`
	LastModified   time.Time `json:"last_modified"`
}

// Store keeps notebooks, their extracted charts, and spatial cell positions
// in memory. It is safe for concurrent use.
type Store struct {
	mu        sync.RWMutex
	notebooks map[string]*StoredNotebook
	charts    map[string]*ChartExtraction
	positions map[string]SpatialPosition
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{
		notebooks: map[string]*StoredNotebook{},
		charts:    map[string]*ChartExtraction{},
		positions: map[string]SpatialPosition{},
	}
}

// SaveNotebook stores or replaces a notebook under name.
func (s *Store) SaveNotebook(name string, nb *Notebook) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.notebooks[name] = &StoredNotebook{Notebook: nb, LastModified: time.Now().UTC()}
}

// Notebook returns the stored notebook, or false when unknown.
func (s *Store) Notebook(name string) (*Notebook, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	stored, ok := s.notebooks[name]
	if !ok {
		return nil, false
	}
	return stored.Notebook, true
}

// SaveCharts stores the chart extraction for a notebook.
func (s *Store) SaveCharts(name string, charts *ChartExtraction) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.charts[name] = charts
}

// Charts returns the stored chart extraction, or false when none exists.
func (s *Store) Charts(name string) (*ChartExtraction, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	charts, ok := s.charts[name]
	return charts, ok
}

// Info summarizes a stored notebook, or returns false when unknown.
func (s *Store) Info(name string) (NotebookInfo, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	stored, ok := s.notebooks[name]
	if !ok {
		return NotebookInfo{}, false
	}
	info := NotebookInfo{
		Name:           name,
		Cells:          len(stored.Notebook.Cells),
		HasSpatialData: stored.Notebook.IsSpatialExport(),
		LastModified:   stored.LastModified,
	}
	if charts, ok := s.charts[name]; ok {
		info.Charts = len(charts.Charts)
	}
	return info, true
}

// UpdateSpatialPosition records the spatial position of one cell and, when
// the notebook is stored, writes it into the cell's metadata.
// Returns an error when the notebook is stored but the index is out of range.
func (s *Store) UpdateSpatialPosition(notebook string, cellIndex int, pos SpatialPosition) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if stored, ok := s.notebooks[notebook]; ok {
		if cellIndex < 0 || cellIndex >= len(stored.Notebook.Cells) {
			return fmt.Errorf("cell index %d out of range for %s", cellIndex, notebook)
		}
		stored.Notebook.Cells[cellIndex].SetSpatialPosition(pos)
		stored.LastModified = time.Now().UTC()
	}

	s.positions[positionKey(notebook, cellIndex)] = pos
	return nil
}

// SpatialPosition returns the recorded position of a cell, or false.
func (s *Store) SpatialPosition(notebook string, cellIndex int) (SpatialPosition, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	pos, ok := s.positions[positionKey(notebook, cellIndex)]
	return pos, ok
}

func positionKey(notebook string, cellIndex int) string {
	return fmt.Sprintf("%s:%d", notebook, cellIndex)
}
