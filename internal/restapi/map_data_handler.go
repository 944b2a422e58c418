package restapi

import (
	"net/http"

	"mobkml.dev/cellmap/internal/bands"
	"mobkml.dev/cellmap/internal/geo"
	"mobkml.dev/cellmap/internal/models"
	"mobkml.dev/cellmap/internal/render"
	"mobkml.dev/cellmap/internal/utils"
)

// maxPreviewPoints bounds the point-count hint of a preview wedge.
const maxPreviewPoints = 360

func (api *RestAPI) mapDataHandler(w http.ResponseWriter, r *http.Request) {
	s, err := api.Workspace.Snapshot()
	if err != nil {
		api.handleError(w, r, err)
		return
	}

	opts := render.Options{Polyline: r.URL.Query().Get("encoding") == "polyline"}
	data, err := s.Renderer().MapData(opts)
	if err != nil {
		api.handleError(w, r, err)
		return
	}
	api.sendOK(w, r, data)
}

// sectorPreviewHandler builds a single wedge. Zero beamwidth, radius or
// point count fall back to the catalogue defaults.
func (api *RestAPI) sectorPreviewHandler(w http.ResponseWriter, r *http.Request) {
	var req models.SectorRequest
	if err := decodeJSON(w, r, &req); err != nil {
		api.badRequestResponse(w, r, msgInvalidBody)
		return
	}

	fieldErrors := utils.ValidateLocationParams(req.Lat, req.Lon, 0)
	if req.Beamwidth < 0 || req.Beamwidth > 360 {
		fieldErrors["beamwidth"] = append(fieldErrors["beamwidth"], "beamwidth must be between 0 and 360")
	}
	if req.Radius < 0 || req.Radius > utils.MaxRadius {
		fieldErrors["radius"] = append(fieldErrors["radius"], "radius must be between 0 and 50000")
	}
	if len(fieldErrors) > 0 {
		api.validationErrorResponse(w, r, fieldErrors)
		return
	}

	if req.Beamwidth == 0 {
		req.Beamwidth = bands.DefaultBeamwidth
	}
	if req.Radius == 0 {
		req.Radius = bands.DefaultRadius
	}
	if req.Points <= 0 {
		req.Points = geo.DefaultSectorPoints
	}
	req.Points = min(req.Points, maxPreviewPoints)

	ring := geo.SectorPolygon(geo.Point{Lat: req.Lat, Lon: req.Lon}, req.Azimuth, req.Beamwidth, req.Radius, req.Points)
	api.sendOK(w, r, models.SectorResult{Polygon: geo.LatLonPairs(ring)})
}
