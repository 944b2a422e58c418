package ui

import (
	"context"

	"mobkml.dev/cellmap/internal/geo"
)

func (c *Controller) toggleMeasure(_ context.Context, _ ToggleMeasure) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state.Mode == ModeMeasure {
		c.leaveMode()
		return nil
	}
	c.leaveMode()
	c.state.Mode = ModeMeasure
	c.state.Status = "Measure: click the first point"
	return nil
}

func (c *Controller) toggleAddMarker(_ context.Context, _ ToggleAddMarker) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state.Mode == ModeAddMarker {
		c.leaveMode()
		return nil
	}
	c.leaveMode()
	c.state.Mode = ModeAddMarker
	c.state.Status = "Click the map to place a marker"
	return nil
}

// leaveMode cancels whatever the current mode left on the map. Callers hold
// the lock.
func (c *Controller) leaveMode() {
	switch c.state.Mode {
	case ModeMeasure:
		c.state.Measure = Measurement{}
		c.view.ClearMeasure()
	case ModeAddMarker:
		c.state.Pending = nil
		c.state.PendingName = ""
	}
	c.state.Mode = ModeBrowse
}

// addMeasurePoint places the next measure point: the first, the second
// (which draws the line), or a fresh first once a line is drawn.
func (c *Controller) addMeasurePoint(p geo.Point, name string) {
	m := &c.state.Measure
	if m.Start == nil || m.End != nil {
		*m = Measurement{Start: &p, StartName: name}
		c.view.ClearMeasure()
		c.view.DrawMeasureStart(p)
		c.state.Status = "Measure: click the second point"
		return
	}

	m.End = &p
	m.EndName = name
	m.Meters = geo.Distance(*m.Start, p)
	m.Label = geo.FormatDistance(m.Meters)
	c.view.DrawMeasureLine(*m.Start, p, m.Label)

	status := "Distance: " + m.Label
	if m.StartName != "" && m.EndName != "" {
		status = m.StartName + " to " + m.EndName + ": " + m.Label
	}
	c.state.Status = status
}

func (c *Controller) mapClick(_ context.Context, cmd MapClick) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pick(cmd.At, "")
	return nil
}

// cellClick is a click on a drawn cell. Tools use the cell's site position
// and name; browsing leaves it to the view's popup.
func (c *Controller) cellClick(_ context.Context, cmd CellClick) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state.Layers == nil || cmd.Index < 0 || cmd.Index >= len(c.state.Layers.Cells) {
		return ErrNoSuchCell
	}
	cell := c.state.Layers.Cells[cmd.Index]
	name := cell.SiteName
	if name == "" {
		name = cell.CellName
	}
	c.pick(geo.Point{Lat: cell.Lat, Lon: cell.Lon}, name)
	return nil
}

func (c *Controller) pick(p geo.Point, name string) {
	switch c.state.Mode {
	case ModeMeasure:
		c.addMeasurePoint(p, name)
	case ModeAddMarker:
		c.state.Pending = &p
		c.state.PendingName = name
		c.state.Status = "Marker position set"
	}
}
