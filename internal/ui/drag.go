package ui

import (
	"context"
	"fmt"
)

// MinPanelSize is the smallest size the configuration panel resizes to.
const MinPanelSize = 220

// DragState is the state of the pointer drag machine.
type DragState int

const (
	DragIdle DragState = iota
	DragDragging
)

// DragSession is one press-move-release of a marker or the panel handle.
// Moved tells a drag from a click.
type DragSession struct {
	State     DragState
	Moved     bool
	Target    DragTarget
	StartX    int
	StartSize int
}

// pointerDown grabs a marker or the resize handle and stops map panning
// until the pointer is released.
func (c *Controller) pointerDown(_ context.Context, cmd PointerDown) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state.Drag.State == DragDragging {
		return nil
	}
	if id := cmd.Target.MarkerID; id != "" {
		if _, ok := c.state.marker(id); !ok {
			return fmt.Errorf("%w: %s", ErrNoSuchMarker, id)
		}
	}
	c.state.Drag = DragSession{
		State:     DragDragging,
		Target:    cmd.Target,
		StartX:    cmd.Pointer.X,
		StartSize: c.state.PanelSize,
	}
	c.view.SetPanning(false)
	return nil
}

// pointerMove follows the pointer. A marker moves with every sector wedge
// recomputed; the panel grows by the horizontal delta.
func (c *Controller) pointerMove(_ context.Context, cmd PointerMove) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	d := &c.state.Drag
	if d.State != DragDragging {
		return nil
	}
	d.Moved = true

	if d.Target.MarkerID == "" {
		size := max(MinPanelSize, d.StartSize+cmd.Pointer.X-d.StartX)
		c.state.PanelSize = size
		c.view.SetPanelSize(size)
		return nil
	}

	i, ok := c.state.marker(d.Target.MarkerID)
	if !ok {
		return nil
	}
	m := &c.state.Markers[i]
	m.Position = cmd.Pointer.At
	m.Wedges = wedges(*m)
	c.view.DrawMarker(*m)
	return nil
}

// endDrag releases the pointer. Panning always comes back; a marker that
// never moved was clicked and gets its popup when released normally.
func (c *Controller) endDrag(released bool) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	d := c.state.Drag
	if d.State != DragDragging {
		return nil
	}
	c.state.Drag = DragSession{}
	c.view.SetPanning(true)
	if released && !d.Moved && d.Target.MarkerID != "" {
		c.view.OpenPopup(d.Target.MarkerID)
	}
	return nil
}
