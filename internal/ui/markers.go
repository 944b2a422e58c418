package ui

import (
	"context"
	"fmt"
	"math"
	"slices"

	"github.com/google/uuid"

	"mobkml.dev/cellmap/internal/bands"
	"mobkml.dev/cellmap/internal/geo"
	"mobkml.dev/cellmap/internal/models"
)

// MarkerType is a pin or a simulated site with sectors.
type MarkerType string

const (
	MarkerPin  MarkerType = "pin"
	MarkerSite MarkerType = "site"
)

const (
	MinSectors     = 1
	MaxSectors     = 6
	DefaultSectors = 3
)

// SectorInput is one sector as entered. A nil azimuth takes the evenly
// spread default.
type SectorInput struct {
	Azimuth *float64
	BandKey string
}

// Sector is a resolved custom sector.
type Sector struct {
	Azimuth   float64
	Beamwidth float64
	Radius    int
	BandKey   string
	BandLabel string
	Color     string
}

// Marker is a user placed pin or simulated site. Wedges holds one preview
// ring per sector of a site.
type Marker struct {
	ID       string
	Name     string
	Type     MarkerType
	Position geo.Point
	Sectors  []Sector
	Wedges   [][]geo.Point
}

func (m Marker) clone() Marker {
	out := m
	out.Sectors = slices.Clone(m.Sectors)
	out.Wedges = make([][]geo.Point, len(m.Wedges))
	for i, w := range m.Wedges {
		out.Wedges[i] = slices.Clone(w)
	}
	return out
}

// ClampSectors bounds a sector count to MinSectors..MaxSectors. Zero means
// DefaultSectors.
func ClampSectors(n int) int {
	switch {
	case n == 0:
		return DefaultSectors
	case n < MinSectors:
		return MinSectors
	case n > MaxSectors:
		return MaxSectors
	}
	return n
}

// DefaultAzimuths spreads n sectors evenly from north.
func DefaultAzimuths(n int) []float64 {
	n = ClampSectors(n)
	out := make([]float64, n)
	for i := range out {
		out[i] = math.Round(float64(i) * 360 / float64(n))
	}
	return out
}

// resolveSector sizes one sector from the band catalogue and the overrides
// in cfg, scaled by the global radius scale.
func resolveSector(catalog []bands.Info, cfg models.ActiveConfig, azimuth float64, key string) Sector {
	var band *bands.Info
	for i := range catalog {
		if catalog[i].Key == key {
			band = &catalog[i]
			break
		}
	}

	scale := cfg.Scale
	if scale <= 0 {
		scale = models.InitialScale
	}
	radius := float64(bands.DefaultRadius)
	beamwidth := bands.DefaultBeamwidth
	s := Sector{Azimuth: azimuth, BandKey: key, BandLabel: key, Color: bands.FallbackHexColor}
	if band != nil {
		radius = float64(band.DefaultRadius)
		beamwidth = band.DefaultBeamwidth
		s.BandLabel, s.Color = band.Label, band.Color
	}
	if v, ok := cfg.BandScaleOverrides[key]; ok {
		radius = v
	}
	if v, ok := cfg.BeamwidthOverrides[key]; ok {
		beamwidth = v
	}
	s.Radius = int(math.Round(radius * scale))
	s.Beamwidth = beamwidth
	return s
}

func wedges(m Marker) [][]geo.Point {
	if m.Type != MarkerSite {
		return nil
	}
	out := make([][]geo.Point, len(m.Sectors))
	for i, s := range m.Sectors {
		out[i] = geo.SectorPolygon(m.Position, s.Azimuth, s.Beamwidth, float64(s.Radius), geo.DefaultSectorPoints)
	}
	return out
}

// saveMarker creates a marker. Editing removes the old marker and creates a
// new one. Saving leaves add-marker mode.
func (c *Controller) saveMarker(_ context.Context, cmd SaveMarker) error {
	typ := cmd.Type
	if typ == "" {
		typ = MarkerPin
	}
	if typ != MarkerPin && typ != MarkerSite {
		return fmt.Errorf("%w: type %q", ErrInvalidMarker, typ)
	}
	if !cmd.Position.Valid() {
		return fmt.Errorf("%w: position out of range", ErrInvalidMarker)
	}
	for i, s := range cmd.Sectors {
		if s.Azimuth != nil && (math.IsNaN(*s.Azimuth) || math.IsInf(*s.Azimuth, 0)) {
			return fmt.Errorf("%w: sector %d azimuth", ErrInvalidMarker, i+1)
		}
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if cmd.EditID != "" {
		if err := c.removeMarker(cmd.EditID); err != nil {
			return err
		}
	}

	// default names never repeat, even after deletes
	c.markerSeq++
	name := trimmed(cmd.Name)
	if name == "" {
		name = fmt.Sprintf("Marker %d", c.markerSeq)
	}
	m := Marker{
		ID:       uuid.NewString(),
		Name:     name,
		Type:     typ,
		Position: cmd.Position,
	}
	if typ == MarkerSite {
		azimuths := DefaultAzimuths(cmd.Count)
		m.Sectors = make([]Sector, len(azimuths))
		for i, az := range azimuths {
			key := ""
			if i < len(cmd.Sectors) {
				key = cmd.Sectors[i].BandKey
				if cmd.Sectors[i].Azimuth != nil {
					az = *cmd.Sectors[i].Azimuth
				}
			}
			m.Sectors[i] = resolveSector(c.state.Bands, c.state.Config, az, key)
		}
		m.Wedges = wedges(m)
	}

	c.state.Markers = append(c.state.Markers, m)
	c.view.DrawMarker(m)
	if c.state.Mode == ModeAddMarker {
		c.leaveMode()
	}
	c.state.Status = "Marker saved: " + name
	return nil
}

func (c *Controller) deleteMarker(_ context.Context, cmd DeleteMarker) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.removeMarker(cmd.ID)
}

func (c *Controller) clearMarkers(_ context.Context, _ ClearMarkers) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for len(c.state.Markers) > 0 {
		if err := c.removeMarker(c.state.Markers[0].ID); err != nil {
			return err
		}
	}
	return nil
}

// removeMarker drops a marker and ends a drag that holds it. Callers hold
// the lock.
func (c *Controller) removeMarker(id string) error {
	i, ok := c.state.marker(id)
	if !ok {
		return fmt.Errorf("%w: %s", ErrNoSuchMarker, id)
	}
	c.state.Markers = slices.Delete(c.state.Markers, i, i+1)
	c.view.RemoveMarker(id)
	if c.state.Drag.State == DragDragging && c.state.Drag.Target.MarkerID == id {
		c.state.Drag = DragSession{}
		c.view.SetPanning(true)
	}
	return nil
}
