package app

import (
	"net/http"
	"slices"

	"mobkml.dev/cellmap/internal/utils"
)

// AuthEnabled reports whether API keys are configured. Without keys every
// request is accepted, which is how the browser front end runs locally.
func (app *Application) AuthEnabled() bool {
	return len(app.Config.ApiKeys) > 0
}

func (app *Application) RequestHasInvalidAPIKey(r *http.Request) bool {
	if !app.AuthEnabled() {
		return false
	}
	return app.IsInvalidAPIKey(utils.RequestAPIKey(r))
}

func (app *Application) IsInvalidAPIKey(key string) bool {
	if key == "" {
		return true
	}
	return !slices.Contains(app.Config.ApiKeys, key)
}
