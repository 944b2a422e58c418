package ui

import (
	"context"
	"fmt"
	"slices"

	"golang.org/x/sync/errgroup"

	"mobkml.dev/cellmap/internal/dataset"
)

func (c *Controller) changeFacet(ctx context.Context, cmd ChangeFacet) error {
	c.mu.Lock()
	if _, ok := c.state.FilterColumns[cmd.Key]; !ok {
		c.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrUnknownFacet, cmd.Key)
	}
	if len(cmd.Values) == 0 {
		delete(c.state.Selections, cmd.Key)
	} else {
		c.state.Selections[cmd.Key] = slices.Clone(cmd.Values)
	}
	c.mu.Unlock()

	return c.refreshFacets(ctx, cmd.Key)
}

func (c *Controller) clearFacets(ctx context.Context, _ ClearFacets) error {
	c.mu.Lock()
	c.state.Selections = map[string][]string{}
	c.mu.Unlock()
	return c.refreshFacets(ctx, "")
}

// refreshFacets reloads the options of every facet except changed, all under
// the current selections. Selections that are still offered survive.
func (c *Controller) refreshFacets(ctx context.Context, changed string) error {
	type job struct {
		key    string
		column string
	}

	c.mu.Lock()
	filters := c.state.filters()
	var jobs []job
	for _, key := range dataset.FacetKeys {
		col, ok := c.state.FilterColumns[key]
		if !ok || key == changed {
			continue
		}
		jobs = append(jobs, job{key: key, column: col})
	}
	c.mu.Unlock()

	options := make([][]string, len(jobs))
	g, gctx := errgroup.WithContext(ctx)
	for i, j := range jobs {
		i, j := i, j
		g.Go(func() error {
			values, err := c.backend.FilterValues(gctx, j.column, filters)
			if err != nil {
				return fmt.Errorf("options of %s: %w", j.key, err)
			}
			options[i] = values
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return c.fail("Could not refresh filters", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	for i, j := range jobs {
		c.state.FilterOptions[j.key] = options[i]
		previous, ok := c.state.Selections[j.key]
		if !ok {
			continue
		}
		kept := slices.DeleteFunc(slices.Clone(previous), func(v string) bool {
			return !slices.Contains(options[i], v)
		})
		if len(kept) == 0 {
			delete(c.state.Selections, j.key)
		} else {
			c.state.Selections[j.key] = kept
		}
	}
	return nil
}

// applyFilters narrows the server view to the selections and redraws.
func (c *Controller) applyFilters(ctx context.Context, _ ApplyFilters) error {
	c.mu.Lock()
	filters := c.state.filters()
	c.mu.Unlock()

	res, err := c.backend.ApplyFilters(ctx, filters)
	if err != nil {
		return c.fail("Could not apply filters", err)
	}

	c.mu.Lock()
	c.state.TotalRows = res.TotalRows
	c.state.Preview = res.Preview
	c.state.Status = fmt.Sprintf("Filters applied: %d rows", res.TotalRows)
	c.mu.Unlock()

	return c.refreshMap(ctx)
}
