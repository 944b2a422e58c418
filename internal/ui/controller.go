package ui

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/bep/debounce"

	"mobkml.dev/cellmap/internal/client"
	"mobkml.dev/cellmap/internal/logging"
)

const (
	// DefaultSearchDelay is the quiet period before a search is sent.
	DefaultSearchDelay = 250 * time.Millisecond
	// DefaultPanelSize is the configuration panel size before any resize.
	DefaultPanelSize = 360
)

var (
	ErrUnknownCommand   = errors.New("unknown command")
	ErrUnknownFacet     = errors.New("unknown facet")
	ErrNoSuchCell       = errors.New("no such cell")
	ErrNoSuchMarker     = errors.New("no such marker")
	ErrInvalidMarker    = errors.New("invalid marker")
	ErrNoSuchResult     = errors.New("no such search result")
	ErrEmptyProfileName = errors.New("profile name is required")
)

// Config wires a Controller.
type Config struct {
	Backend     Backend
	View        MapView
	Logger      *slog.Logger
	SearchDelay time.Duration
	PanelSize   int
}

type handler func(ctx context.Context, cmd Command) error

// typed adapts a handler for one concrete command type to the table.
func typed[T Command](fn func(context.Context, T) error) handler {
	return func(ctx context.Context, cmd Command) error {
		return fn(ctx, cmd.(T))
	}
}

// Controller owns the session state. All mutation happens under mu; backend
// calls are made without it and their results re-enter through it.
type Controller struct {
	mu       sync.Mutex
	state    AppState
	backend  Backend
	view     MapView
	logger   *slog.Logger
	handlers map[CommandKind]handler

	debounced func(f func())
	searchGen uint64
	mapGen    uint64
	markerSeq int
}

// New builds a controller. View defaults to a RecordingView.
func New(cfg Config) *Controller {
	view := cfg.View
	if view == nil {
		view = NewRecordingView()
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	delay := cfg.SearchDelay
	if delay <= 0 {
		delay = DefaultSearchDelay
	}
	panel := cfg.PanelSize
	if panel <= 0 {
		panel = DefaultPanelSize
	}

	c := &Controller{
		state:     newAppState(panel),
		backend:   cfg.Backend,
		view:      view,
		logger:    logger.With(slog.String("component", "ui_controller")),
		debounced: debounce.New(delay),
	}
	c.handlers = map[CommandKind]handler{
		KindLoadBands:     typed(c.loadBands),
		KindUpload:        typed(c.upload),
		KindAutoMap:       typed(c.autoMap),
		KindSetConfig:     typed(c.setConfig),
		KindAutoRefresh:   typed(c.setAutoRefresh),
		KindRefreshMap:    typed(func(ctx context.Context, _ RefreshMap) error { return c.refreshMap(ctx) }),
		KindChangeFacet:   typed(c.changeFacet),
		KindClearFacets:   typed(c.clearFacets),
		KindApplyFilters:  typed(c.applyFilters),
		KindSearchInput:   typed(c.searchInput),
		KindSelectResult:  typed(c.selectResult),
		KindToggleMeasure: typed(c.toggleMeasure),
		KindToggleMarker:  typed(c.toggleAddMarker),
		KindMapClick:      typed(c.mapClick),
		KindCellClick:     typed(c.cellClick),
		KindSaveMarker:    typed(c.saveMarker),
		KindDeleteMarker:  typed(c.deleteMarker),
		KindClearMarkers:  typed(c.clearMarkers),
		KindPointerDown:   typed(c.pointerDown),
		KindPointerMove:   typed(c.pointerMove),
		KindPointerUp:     typed(func(context.Context, PointerUp) error { return c.endDrag(true) }),
		KindPointerCancel: typed(func(context.Context, PointerCancel) error { return c.endDrag(false) }),
		KindSaveProfile:   typed(c.saveProfile),
		KindLoadProfile:   typed(c.loadProfile),
	}
	return c
}

// Dispatch runs one user action. Failures are also reported through the
// status message; none of them leave the state half updated.
func (c *Controller) Dispatch(ctx context.Context, cmd Command) error {
	h, ok := c.handlers[cmd.Kind()]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownCommand, cmd.Kind())
	}
	return h(ctx, cmd)
}

// State returns a copy of the current session state.
func (c *Controller) State() AppState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state.clone()
}

func (c *Controller) setStatus(msg string) {
	c.mu.Lock()
	c.state.Status = msg
	c.mu.Unlock()
}

// fail records a backend failure as the status message and returns err.
func (c *Controller) fail(prefix string, err error) error {
	logging.LogError(c.logger, prefix, err)
	c.setStatus(statusText(prefix, err))
	return err
}

func statusText(prefix string, err error) string {
	var apiErr *client.APIError
	if errors.As(err, &apiErr) && apiErr.Text != "" {
		return prefix + ": " + apiErr.Text
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return prefix + ": request cancelled"
	}
	return prefix + ": server unreachable"
}
