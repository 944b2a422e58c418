package restapi

import (
	"math"
	"net/http"

	"mobkml.dev/cellmap/internal/geo"
	"mobkml.dev/cellmap/internal/models"
)

func (api *RestAPI) calculateDistanceHandler(w http.ResponseWriter, r *http.Request) {
	var req models.DistanceRequest
	if err := decodeJSON(w, r, &req); err != nil {
		api.badRequestResponse(w, r, msgInvalidDistance)
		return
	}
	for _, v := range []*float64{req.Lat1, req.Lon1, req.Lat2, req.Lon2} {
		if v == nil || math.IsNaN(*v) || math.IsInf(*v, 0) {
			api.badRequestResponse(w, r, msgInvalidDistance)
			return
		}
	}

	a := geo.Point{Lat: *req.Lat1, Lon: *req.Lon1}
	b := geo.Point{Lat: *req.Lat2, Lon: *req.Lon2}
	meters := geo.Distance(a, b)
	bearing := geo.Bearing(a, b)

	api.sendOK(w, r, models.DistanceResult{
		DistanceM:  meters,
		DistanceKm: meters / 1000,
		DistanceMi: geo.MetersToMiles(meters),
		Formatted:  geo.FormatDistance(meters),
		Bearing:    bearing,
		Compass:    geo.Compass(bearing),
	})
}
