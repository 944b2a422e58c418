package restapi

import (
	"net/http"

	"github.com/julienschmidt/httprouter"

	"mobkml.dev/cellmap/internal/webui"
)

type handlerFunc func(w http.ResponseWriter, r *http.Request)

func validateAPIKey(api *RestAPI, finalHandler handlerFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if api.RequestHasInvalidAPIKey(r) {
			api.invalidAPIKeyResponse(w, r)
			return
		}
		finalHandler(w, r)
	})
}

// Router registers every endpoint. Handlers read path parameters from the
// request context.
func (api *RestAPI) Router() *httprouter.Router {
	router := httprouter.New()
	router.HandleMethodNotAllowed = true
	router.NotFound = http.HandlerFunc(api.sendNotFound)

	router.HandlerFunc(http.MethodGet, "/healthz", api.healthzHandler)

	router.Handler(http.MethodGet, "/api/bands", validateAPIKey(api, api.bandsHandler))
	router.Handler(http.MethodPost, "/api/upload", validateAPIKey(api, api.uploadHandler))
	router.Handler(http.MethodPost, "/api/auto-map", validateAPIKey(api, api.autoMapHandler))
	router.Handler(http.MethodPost, "/api/validate-mapping", validateAPIKey(api, api.validateMappingHandler))
	router.Handler(http.MethodPost, "/api/set-config", validateAPIKey(api, api.setConfigHandler))
	router.Handler(http.MethodGet, "/api/config", validateAPIKey(api, api.configHandler))
	router.Handler(http.MethodPost, "/api/filter-values", validateAPIKey(api, api.filterValuesHandler))
	router.Handler(http.MethodPost, "/api/apply-filters", validateAPIKey(api, api.applyFiltersHandler))
	router.Handler(http.MethodGet, "/api/search", validateAPIKey(api, api.searchHandler))
	router.Handler(http.MethodGet, "/api/nearby", validateAPIKey(api, api.nearbyHandler))
	router.Handler(http.MethodGet, "/api/map-data", validateAPIKey(api, api.mapDataHandler))
	router.Handler(http.MethodPost, "/api/sector-preview", validateAPIKey(api, api.sectorPreviewHandler))
	router.Handler(http.MethodPost, "/api/calculate-distance", validateAPIKey(api, api.calculateDistanceHandler))
	router.Handler(http.MethodPost, "/api/generate-kml", validateAPIKey(api, api.generateKMLHandler))
	router.Handler(http.MethodPost, "/api/generate-kmz", validateAPIKey(api, api.generateKMZHandler))
	router.Handler(http.MethodPost, "/api/export-report", validateAPIKey(api, api.exportReportHandler))
	router.Handler(http.MethodGet, "/api/profiles", validateAPIKey(api, api.listProfilesHandler))
	router.Handler(http.MethodPost, "/api/save-profile", validateAPIKey(api, api.saveProfileHandler))
	router.Handler(http.MethodPost, "/api/load-profile", validateAPIKey(api, api.loadProfileHandler))
	router.Handler(http.MethodDelete, "/api/profiles/:name", validateAPIKey(api, api.deleteProfileHandler))
	router.Handler(http.MethodGet, "/api/profiles/:name/qr.png", validateAPIKey(api, api.profileQRHandler))

	debug := &webui.WebUI{Workspace: api.Workspace}
	debug.SetWebUIRoutes(router, func(h http.HandlerFunc) http.Handler {
		return validateAPIKey(api, handlerFunc(h))
	})

	return router
}

func (api *RestAPI) healthzHandler(w http.ResponseWriter, r *http.Request) {
	api.sendOK(w, r, map[string]interface{}{
		"status":     "ok",
		"dataLoaded": api.Workspace.Loaded(),
	})
}
