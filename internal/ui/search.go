package ui

import (
	"context"
	"strings"
	"unicode/utf8"

	"mobkml.dev/cellmap/internal/geo"
	"mobkml.dev/cellmap/internal/logging"
)

// MinSearchChars is the shortest query that is sent.
const MinSearchChars = 2

func trimmed(s string) string {
	return strings.TrimSpace(s)
}

// searchInput starts a new search generation. Shorter queries clear the
// results right away; longer ones are sent after the quiet period, and only
// the latest generation may publish results.
func (c *Controller) searchInput(ctx context.Context, cmd SearchInput) error {
	q := trimmed(cmd.Query)

	c.mu.Lock()
	c.searchGen++
	gen := c.searchGen
	if utf8.RuneCountInString(q) < MinSearchChars {
		c.state.SearchResults = nil
		c.mu.Unlock()
		return nil
	}
	c.mu.Unlock()

	bg := context.WithoutCancel(ctx)
	c.debounced(func() {
		c.runSearch(bg, gen, q, cmd.Mode)
	})
	return nil
}

func (c *Controller) runSearch(ctx context.Context, gen uint64, q, mode string) {
	results, err := c.backend.Search(ctx, q, mode)

	c.mu.Lock()
	defer c.mu.Unlock()
	if gen != c.searchGen {
		return
	}
	if err != nil {
		logging.LogError(c.logger, "Search failed", err)
		c.state.Status = statusText("Search failed", err)
		return
	}
	c.state.SearchResults = results
}

func (c *Controller) selectResult(_ context.Context, cmd SelectResult) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if cmd.Index < 0 || cmd.Index >= len(c.state.SearchResults) {
		return ErrNoSuchResult
	}
	r := c.state.SearchResults[cmd.Index]
	c.view.FocusOn(geo.Point{Lat: r.Lat, Lon: r.Lon})
	return nil
}
