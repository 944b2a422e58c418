package restapi

import (
	"log/slog"
	"net/http"

	"mobkml.dev/cellmap/internal/colmap"
	"mobkml.dev/cellmap/internal/logging"
	"mobkml.dev/cellmap/internal/models"
)

func nonNilIssues(issues []string) []string {
	if issues == nil {
		return []string{}
	}
	return issues
}

// autoMapHandler guesses the mapping of the loaded columns and makes it the
// active mapping.
func (api *RestAPI) autoMapHandler(w http.ResponseWriter, r *http.Request) {
	s, err := api.Workspace.Snapshot()
	if err != nil {
		api.handleError(w, r, err)
		return
	}

	mapping := colmap.AutoMap(s.Active.Columns)
	issues := colmap.ValidateMapping(s.Active, mapping)
	api.Workspace.SetMapping(mapping)

	logging.LogOperation(logging.FromContext(r.Context()), "auto_mapped",
		slog.String("latitude", mapping.Latitude),
		slog.String("longitude", mapping.Longitude),
		slog.Int("issues", len(issues)))

	api.sendOK(w, r, models.AutoMapResult{Mapping: mapping, Issues: nonNilIssues(issues)})
}

func (api *RestAPI) validateMappingHandler(w http.ResponseWriter, r *http.Request) {
	var req models.ValidateMappingRequest
	if err := decodeJSON(w, r, &req); err != nil {
		api.badRequestResponse(w, r, msgInvalidBody)
		return
	}
	s, err := api.Workspace.Snapshot()
	if err != nil {
		api.handleError(w, r, err)
		return
	}
	issues := colmap.Validate(s.Active, req.Mapping, req.LabelField)
	api.sendOK(w, r, models.IssuesResult{Issues: nonNilIssues(issues)})
}

// setConfigHandler replaces the whole active configuration. It works with or
// without a loaded dataset.
func (api *RestAPI) setConfigHandler(w http.ResponseWriter, r *http.Request) {
	cfg := models.NewActiveConfig()
	if err := decodeJSON(w, r, &cfg); err != nil {
		api.badRequestResponse(w, r, msgInvalidBody)
		return
	}
	api.Workspace.SetConfig(cfg)
	api.sendOK(w, r, models.AckResult{OK: true})
}

func (api *RestAPI) configHandler(w http.ResponseWriter, r *http.Request) {
	api.sendOK(w, r, api.Workspace.Config())
}
