package restapi

import (
	"log/slog"
	"net/http"

	"mobkml.dev/cellmap/internal/dataset"
	"mobkml.dev/cellmap/internal/logging"
	"mobkml.dev/cellmap/internal/models"
	"mobkml.dev/cellmap/internal/workspace"
)

func (api *RestAPI) filterValuesHandler(w http.ResponseWriter, r *http.Request) {
	var req models.FilterValuesRequest
	if err := decodeJSON(w, r, &req); err != nil {
		api.badRequestResponse(w, r, msgInvalidBody)
		return
	}
	if !api.Workspace.Loaded() {
		api.handleError(w, r, workspace.ErrNoData)
		return
	}
	if req.Column == "" {
		api.badRequestResponse(w, r, msgInvalidColumn)
		return
	}

	values, err := api.Workspace.FacetValues(req.Column, dataset.Filters(req.Filters))
	if err != nil {
		api.handleError(w, r, err)
		return
	}
	api.sendOK(w, r, models.FilterValuesResult{Values: values})
}

func (api *RestAPI) applyFiltersHandler(w http.ResponseWriter, r *http.Request) {
	var req models.ApplyFiltersRequest
	if err := decodeJSON(w, r, &req); err != nil {
		api.badRequestResponse(w, r, msgInvalidBody)
		return
	}

	active, err := api.Workspace.ApplyFilters(dataset.Filters(req.Filters))
	if err != nil {
		api.handleError(w, r, err)
		return
	}

	logging.LogOperation(logging.FromContext(r.Context()), "filters_applied",
		slog.Int("filters", len(req.Filters)),
		slog.Int("rows", active.Len()))

	api.sendOK(w, r, models.ApplyFiltersResult{
		TotalRows: active.Len(),
		Preview:   active.Preview(previewRows),
	})
}
