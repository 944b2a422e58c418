package app

import (
	"log/slog"

	"mobkml.dev/cellmap/internal/appconf"
	"mobkml.dev/cellmap/internal/profiles"
	"mobkml.dev/cellmap/internal/workspace"
)

// Application holds the dependencies for our HTTP handlers, helpers,
// and middleware.
type Application struct {
	Config    appconf.Config
	Logger    *slog.Logger
	Workspace *workspace.Workspace
	Profiles  *profiles.Store
}
