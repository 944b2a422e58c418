// Package workspace holds the server side session: the uploaded dataset, the
// filtered view every feature reads and the active rendering configuration.
package workspace

import (
	"errors"
	"sync"

	"mobkml.dev/cellmap/internal/dataset"
	"mobkml.dev/cellmap/internal/geo"
	"mobkml.dev/cellmap/internal/models"
	"mobkml.dev/cellmap/internal/render"
	"mobkml.dev/cellmap/internal/search"
)

var (
	// ErrNoData is returned by every dataset operation before an upload.
	ErrNoData = errors.New("no data loaded")
	// ErrMappingIncomplete is returned by exports when nothing is mapped.
	ErrMappingIncomplete = errors.New("mapping not set")
)

// Snapshot is a consistent copy of the workspace. Tables are shared, never
// mutated, and may be read without locking.
type Snapshot struct {
	Full    *dataset.Table
	Active  *dataset.Table
	Meta    dataset.Meta
	Source  string
	Facets  map[string]string
	Filters dataset.Filters
	Config  models.ActiveConfig
}

// Renderer renders the active view with the active configuration.
func (s Snapshot) Renderer() *render.Renderer {
	return render.New(s.Active, s.Config)
}

// RequireMapping fails unless the configuration maps something.
func (s Snapshot) RequireMapping() error {
	if s.Config.Mapping.IsEmpty() {
		return ErrMappingIncomplete
	}
	return nil
}

// SearchFields resolves the columns a search over the active view reads.
func (s Snapshot) SearchFields() search.Fields {
	return search.ResolveFields(s.Active, s.Config.Mapping, s.Config.LabelConfig, s.Facets)
}

// Workspace is safe for concurrent use.
type Workspace struct {
	mu      sync.RWMutex
	full    *dataset.Table
	active  *dataset.Table
	meta    dataset.Meta
	source  string
	facets  map[string]string
	filters dataset.Filters
	config  models.ActiveConfig

	indexMu     sync.Mutex
	index       *search.Index
	indexTable  *dataset.Table
	indexFields search.Fields
}

// New returns an empty workspace with the start-up configuration.
func New() *Workspace {
	return &Workspace{
		facets:  map[string]string{},
		filters: dataset.Filters{},
		config:  models.NewActiveConfig(),
	}
}

// Replace installs a freshly loaded table as both the full dataset and the
// active view, clearing filters. The configuration is kept. It returns the
// detected facet columns.
func (w *Workspace) Replace(t *dataset.Table, meta dataset.Meta, source string) map[string]string {
	facets := dataset.DetectFilterColumns(t.Columns)

	w.mu.Lock()
	defer w.mu.Unlock()
	w.full = t
	w.active = t
	w.meta = meta
	w.source = source
	w.facets = facets
	w.filters = dataset.Filters{}
	return facets
}

// Loaded reports whether a dataset has been uploaded.
func (w *Workspace) Loaded() bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.full != nil
}

// Snapshot returns the current state or ErrNoData.
func (w *Workspace) Snapshot() (Snapshot, error) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	if w.full == nil {
		return Snapshot{}, ErrNoData
	}
	return w.snapshotLocked(), nil
}

func (w *Workspace) snapshotLocked() Snapshot {
	return Snapshot{
		Full:    w.full,
		Active:  w.active,
		Meta:    w.meta,
		Source:  w.source,
		Facets:  w.facets,
		Filters: w.filters,
		Config:  w.config,
	}
}

// Config returns the active configuration, available with or without data.
func (w *Workspace) Config() models.ActiveConfig {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.config
}

// SetConfig replaces the whole active configuration.
func (w *Workspace) SetConfig(cfg models.ActiveConfig) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.config = cfg
}

// SetMapping replaces only the column mapping.
func (w *Workspace) SetMapping(m models.Mapping) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.config.Mapping = m
}

// FacetValues lists the options of column over the full dataset narrowed by
// every other filter.
func (w *Workspace) FacetValues(column string, filters dataset.Filters) ([]string, error) {
	s, err := w.Snapshot()
	if err != nil {
		return nil, err
	}
	return s.Full.FacetValues(column, filters)
}

// ApplyFilters makes the full dataset narrowed by filters the active view.
func (w *Workspace) ApplyFilters(filters dataset.Filters) (*dataset.Table, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.full == nil {
		return nil, ErrNoData
	}
	if filters == nil {
		filters = dataset.Filters{}
	}
	w.active = w.full.Filter(filters, "")
	w.filters = filters
	return w.active, nil
}

// Nearby finds sites of the active view around center. The spatial index is
// rebuilt only when the active view or its columns change.
func (w *Workspace) Nearby(center geo.Point, radius float64, limit int) ([]models.NearbySite, error) {
	s, err := w.Snapshot()
	if err != nil {
		return nil, err
	}
	fields := s.SearchFields()

	w.indexMu.Lock()
	if w.index == nil || w.indexTable != s.Active || w.indexFields != fields {
		w.index = search.NewIndex(s.Active, fields)
		w.indexTable = s.Active
		w.indexFields = fields
	}
	idx := w.index
	w.indexMu.Unlock()

	return idx.Nearby(center, radius, limit)
}
