package restapi

import (
	"net/http"

	"mobkml.dev/cellmap/internal/bands"
	"mobkml.dev/cellmap/internal/models"
)

func (api *RestAPI) bandsHandler(w http.ResponseWriter, r *http.Request) {
	api.sendOK(w, r, models.BandList{Bands: bands.Catalog()})
}
