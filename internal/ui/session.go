package ui

import (
	"context"
	"fmt"

	"mobkml.dev/cellmap/internal/models"
)

func (c *Controller) loadBands(ctx context.Context, _ LoadBands) error {
	list, err := c.backend.Bands(ctx)
	if err != nil {
		return c.fail("Could not load bands", err)
	}
	c.mu.Lock()
	c.state.Bands = list
	c.mu.Unlock()
	return nil
}

// upload replaces the dataset. On failure nothing about the previous
// dataset changes and no mapping is offered.
func (c *Controller) upload(ctx context.Context, cmd Upload) error {
	c.setStatus("Uploading...")
	res, err := c.backend.Upload(ctx, cmd.Filename, cmd.Body)
	if err != nil {
		return c.fail("Upload error", err)
	}

	c.mu.Lock()
	c.state.SourceName = res.SourceName
	c.state.Columns = res.Columns
	c.state.TotalRows = res.TotalRows
	c.state.Preview = res.Preview
	c.state.FilterColumns = res.FilterColumns
	if c.state.FilterColumns == nil {
		c.state.FilterColumns = map[string]string{}
	}
	c.state.FilterOptions = map[string][]string{}
	c.state.Selections = map[string][]string{}
	c.state.Issues = nil
	c.state.Config.Mapping = models.Mapping{}
	c.mu.Unlock()

	if err := c.refreshFacets(ctx, ""); err != nil {
		return err
	}
	c.setStatus("Data loaded")
	return nil
}

// autoMap takes the server's guess. A guess with coordinates switches
// auto-refresh on and draws the map.
func (c *Controller) autoMap(ctx context.Context, _ AutoMap) error {
	res, err := c.backend.AutoMap(ctx)
	if err != nil {
		return c.fail("Auto-map failed", err)
	}

	c.mu.Lock()
	cfg := c.state.Config
	cfg.Mapping = res.Mapping
	c.state.Config = cfg
	c.state.Issues = res.Issues
	located := res.Mapping.HasCoordinates()
	if located {
		c.state.AutoRefresh = true
	}
	c.state.Status = "Mapping detected"
	c.mu.Unlock()

	if !located {
		return nil
	}
	return c.refreshMap(ctx)
}

func (c *Controller) setConfig(ctx context.Context, cmd SetConfig) error {
	c.mu.Lock()
	c.state.Config = cmd.Config.Clone()
	auto := c.state.AutoRefresh
	c.mu.Unlock()

	if !auto {
		return nil
	}
	return c.refreshMap(ctx)
}

func (c *Controller) setAutoRefresh(ctx context.Context, cmd SetAutoRefresh) error {
	c.mu.Lock()
	c.state.AutoRefresh = cmd.On
	c.mu.Unlock()

	if !cmd.On {
		return nil
	}
	return c.refreshMap(ctx)
}

// refreshMap pushes the configuration and redraws. Without coordinates it
// does nothing. Layers are only replaced by a complete response to the
// latest refresh; a failure keeps what is drawn.
func (c *Controller) refreshMap(ctx context.Context) error {
	c.mu.Lock()
	// Config is replaced as a whole with a private copy, never mutated in
	// place, so this copy can be read after unlocking.
	cfg := c.state.Config
	if !cfg.Mapping.HasCoordinates() {
		c.mu.Unlock()
		return nil
	}
	c.mapGen++
	gen := c.mapGen
	c.state.Status = "Rendering map..."
	c.mu.Unlock()

	if err := c.backend.SetConfig(ctx, cfg); err != nil {
		return c.fail("Error applying configuration", err)
	}
	data, err := c.backend.MapData(ctx, false)
	if err != nil {
		return c.fail("Error: map data not available", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if gen != c.mapGen {
		return nil
	}
	c.state.Layers = &data
	c.view.SetLayers(data)
	c.state.Status = fmt.Sprintf("Map updated: %d cells", len(data.Cells))
	return nil
}

func (c *Controller) saveProfile(ctx context.Context, cmd SaveProfile) error {
	name := trimmed(cmd.Name)
	if name == "" {
		return ErrEmptyProfileName
	}
	c.mu.Lock()
	cfg := c.state.Config
	c.mu.Unlock()

	if err := c.backend.SaveProfile(ctx, name, cfg); err != nil {
		return c.fail("Could not save profile", err)
	}
	c.setStatus("Profile saved: " + name)
	return nil
}

// loadProfile applies a saved configuration locally. The server copy is
// updated by the next refresh.
func (c *Controller) loadProfile(ctx context.Context, cmd LoadProfile) error {
	name := trimmed(cmd.Name)
	if name == "" {
		return ErrEmptyProfileName
	}
	cfg, err := c.backend.LoadProfile(ctx, name)
	if err != nil {
		return c.fail("Could not load profile", err)
	}

	c.mu.Lock()
	c.state.Config = cfg.Clone()
	c.state.Status = "Profile loaded: " + name
	auto := c.state.AutoRefresh
	c.mu.Unlock()

	if !auto {
		return nil
	}
	return c.refreshMap(ctx)
}
