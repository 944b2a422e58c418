package restapi

import (
	"net/http"
	"net/url"

	"mobkml.dev/cellmap/internal/logging"
	"mobkml.dev/cellmap/internal/models"
	"mobkml.dev/cellmap/internal/profiles"
	"mobkml.dev/cellmap/internal/utils"
)

const (
	minQRSize = 64
	maxQRSize = 1024
)

func (api *RestAPI) listProfilesHandler(w http.ResponseWriter, r *http.Request) {
	names, err := api.Profiles.List(r.Context())
	if err != nil {
		api.serverErrorResponse(w, r, err)
		return
	}
	api.sendOK(w, r, models.ProfileList{Profiles: names})
}

func (api *RestAPI) saveProfileHandler(w http.ResponseWriter, r *http.Request) {
	req := models.SaveProfileRequest{Data: models.NewActiveConfig()}
	if err := decodeJSON(w, r, &req); err != nil {
		api.badRequestResponse(w, r, msgInvalidBody)
		return
	}
	if err := api.Profiles.Save(r.Context(), req.Name, req.Data); err != nil {
		api.handleError(w, r, err)
		return
	}
	api.sendOK(w, r, models.AckResult{OK: true})
}

// loadProfileHandler only returns the stored configuration. Clients apply it
// with set-config.
func (api *RestAPI) loadProfileHandler(w http.ResponseWriter, r *http.Request) {
	var req models.LoadProfileRequest
	if err := decodeJSON(w, r, &req); err != nil {
		api.badRequestResponse(w, r, msgInvalidBody)
		return
	}
	cfg, err := api.Profiles.Load(r.Context(), req.Name)
	if err != nil {
		api.handleError(w, r, err)
		return
	}
	api.sendOK(w, r, models.ProfileData{Data: cfg})
}

func (api *RestAPI) deleteProfileHandler(w http.ResponseWriter, r *http.Request) {
	if err := api.Profiles.Delete(r.Context(), utils.ExtractParam(r, "name")); err != nil {
		api.handleError(w, r, err)
		return
	}
	api.sendOK(w, r, models.AckResult{OK: true})
}

// profileQRHandler renders a QR code pointing a browser at the front end
// with the profile preselected.
func (api *RestAPI) profileQRHandler(w http.ResponseWriter, r *http.Request) {
	name, err := profiles.NormalizeName(utils.ExtractParam(r, "name"))
	if err != nil {
		api.handleError(w, r, err)
		return
	}
	if _, err := api.Profiles.Load(r.Context(), name); err != nil {
		api.handleError(w, r, err)
		return
	}

	size, fieldErrors := utils.ParseIntParam(r.URL.Query(), "size", nil)
	if len(fieldErrors) > 0 {
		api.validationErrorResponse(w, r, fieldErrors)
		return
	}
	if size == 0 {
		size = profiles.DefaultQRSize
	}
	size = max(minQRSize, min(size, maxQRSize))

	png, err := profiles.QRCode(profileURL(r, name), size)
	if err != nil {
		api.serverErrorResponse(w, r, err)
		return
	}
	w.Header().Set("Cache-Control", "no-store")
	w.Header().Set("Content-Type", "image/png")
	if _, err := w.Write(png); err != nil {
		logging.LogError(logging.FromContext(r.Context()), "failed to write QR code", err)
	}
}

// profileURL is the address that opens the front end with name loaded.
func profileURL(r *http.Request, name string) string {
	scheme := "http"
	if r.TLS != nil || r.Header.Get("X-Forwarded-Proto") == "https" {
		scheme = "https"
	}
	u := url.URL{
		Scheme:   scheme,
		Host:     r.Host,
		Path:     "/",
		RawQuery: url.Values{"profile": {name}}.Encode(),
	}
	return u.String()
}
