package restapi

import (
	"net/http"

	"mobkml.dev/cellmap/internal/geo"
	"mobkml.dev/cellmap/internal/search"
	"mobkml.dev/cellmap/internal/utils"
)

// searchHandler looks up sites or cities in the active view. Short queries
// return an empty list rather than an error.
func (api *RestAPI) searchHandler(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	q := query.Get("q")
	if err := utils.ValidateQuery(q); err != nil {
		api.validationErrorResponse(w, r, map[string][]string{"q": {err.Error()}})
		return
	}
	mode := query.Get("mode")
	if mode == "" {
		mode = search.ModeSite
	}

	s, err := api.Workspace.Snapshot()
	if err != nil {
		api.handleError(w, r, err)
		return
	}
	api.sendOK(w, r, search.Search(s.Active, s.SearchFields(), q, mode))
}

func (api *RestAPI) nearbyHandler(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	lat, fieldErrors := utils.RequireFloatParam(query, "lat", nil)
	lon, fieldErrors := utils.RequireFloatParam(query, "lon", fieldErrors)
	radius, fieldErrors := utils.ParseFloatParam(query, "radius", fieldErrors)
	limit, fieldErrors := utils.ParseIntParam(query, "limit", fieldErrors)
	if len(fieldErrors) > 0 {
		api.validationErrorResponse(w, r, fieldErrors)
		return
	}
	if locationErrors := utils.ValidateLocationParams(lat, lon, radius); len(locationErrors) > 0 {
		api.validationErrorResponse(w, r, locationErrors)
		return
	}

	sites, err := api.Workspace.Nearby(geo.Point{Lat: lat, Lon: lon}, radius, limit)
	if err != nil {
		api.handleError(w, r, err)
		return
	}
	api.sendOK(w, r, sites)
}
