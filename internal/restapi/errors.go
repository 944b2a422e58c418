package restapi

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"mobkml.dev/cellmap/internal/dataset"
	"mobkml.dev/cellmap/internal/logging"
	"mobkml.dev/cellmap/internal/models"
	"mobkml.dev/cellmap/internal/profiles"
	"mobkml.dev/cellmap/internal/render"
	"mobkml.dev/cellmap/internal/workspace"
)

// Messages shown to API clients.
const (
	msgNoData          = "No data loaded. Upload a file first."
	msgEmptyFilename   = "Empty filename."
	msgNoFile          = "No file uploaded."
	msgUnsupported     = "Unsupported file type. Use CSV, TXT or XLSX."
	msgNoColumns       = "File has no columns."
	msgInvalidColumn   = "Invalid column."
	msgNeedCoordinates = "Mapping must include latitude and longitude."
	msgMappingNotSet   = "Mapping not set."
	msgInvalidDistance = "Invalid coordinates. Must be numbers."
	msgProfileName     = "Profile name is required."
	msgProfileInvalid  = "Invalid profile name."
	msgProfileNotFound = "Profile not found."
	msgInvalidBody     = "Invalid JSON body."
)

type errorResponseModel struct {
	Code        int    `json:"code"`
	CurrentTime int64  `json:"currentTime"`
	Text        string `json:"text"`
	Version     int    `json:"version"`
}

// errorResponse sends the error envelope with status and text.
func (api *RestAPI) errorResponse(w http.ResponseWriter, r *http.Request, status int, text string) {
	response := errorResponseModel{
		Code:        status,
		CurrentTime: models.ResponseCurrentTime(),
		Text:        text,
		Version:     models.ResponseVersion,
	}

	setJSONResponseType(&w)
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(response); err != nil {
		logging.LogError(api.Logger, "failed to encode error response", err,
			slog.Int("status", status))
	}
}

// invalidAPIKeyResponse sends a 401 Unauthorized response
func (api *RestAPI) invalidAPIKeyResponse(w http.ResponseWriter, r *http.Request) {
	api.errorResponse(w, r, http.StatusUnauthorized, "permission denied")
}

func (api *RestAPI) badRequestResponse(w http.ResponseWriter, r *http.Request, text string) {
	api.errorResponse(w, r, http.StatusBadRequest, text)
}

func (api *RestAPI) serverErrorResponse(w http.ResponseWriter, r *http.Request, err error) {
	logging.LogError(logging.FromContext(r.Context()), "request failed", err,
		slog.String("method", r.Method),
		slog.String("path", r.URL.Path))
	api.errorResponse(w, r, http.StatusInternalServerError, "internal server error")
}

// validationErrorResponse sends a 400 Bad Request response with field-specific validation errors
func (api *RestAPI) validationErrorResponse(w http.ResponseWriter, r *http.Request, fieldErrors map[string][]string) {
	response := struct {
		FieldErrors map[string][]string `json:"fieldErrors"`
	}{
		FieldErrors: fieldErrors,
	}

	setJSONResponseType(&w)
	w.WriteHeader(http.StatusBadRequest)
	if err := json.NewEncoder(w).Encode(response); err != nil {
		logging.LogError(api.Logger, "failed to encode validation error response", err)
	}
}

// handleError maps domain errors to their HTTP responses. Anything unknown
// is a 500.
func (api *RestAPI) handleError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, workspace.ErrNoData):
		api.badRequestResponse(w, r, msgNoData)
	case errors.Is(err, workspace.ErrMappingIncomplete):
		api.badRequestResponse(w, r, msgMappingNotSet)
	case errors.Is(err, render.ErrMissingCoordinates):
		api.badRequestResponse(w, r, msgNeedCoordinates)
	case errors.Is(err, dataset.ErrUnsupportedFormat):
		api.badRequestResponse(w, r, msgUnsupported)
	case errors.Is(err, dataset.ErrEmpty):
		api.badRequestResponse(w, r, msgNoColumns)
	case errors.Is(err, dataset.ErrUnknownColumn):
		api.badRequestResponse(w, r, msgInvalidColumn)
	case errors.Is(err, profiles.ErrNameMissing):
		api.badRequestResponse(w, r, msgProfileName)
	case errors.Is(err, profiles.ErrInvalidName):
		api.badRequestResponse(w, r, msgProfileInvalid)
	case errors.Is(err, profiles.ErrNotFound):
		api.errorResponse(w, r, http.StatusNotFound, msgProfileNotFound)
	default:
		api.serverErrorResponse(w, r, err)
	}
}
