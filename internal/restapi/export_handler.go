package restapi

import (
	"bytes"
	"log/slog"
	"net/http"

	"mobkml.dev/cellmap/internal/export"
	"mobkml.dev/cellmap/internal/logging"
	"mobkml.dev/cellmap/internal/render"
)

// exportRenderer returns a renderer over the active view once the mapping is
// usable for exports.
func (api *RestAPI) exportRenderer() (*render.Renderer, error) {
	s, err := api.Workspace.Snapshot()
	if err != nil {
		return nil, err
	}
	if err := s.RequireMapping(); err != nil {
		return nil, err
	}
	if !s.Config.Mapping.HasCoordinates() {
		return nil, render.ErrMissingCoordinates
	}
	return s.Renderer(), nil
}

func (api *RestAPI) generateKMLHandler(w http.ResponseWriter, r *http.Request) {
	renderer, err := api.exportRenderer()
	if err != nil {
		api.handleError(w, r, err)
		return
	}

	date := api.now()
	var buf bytes.Buffer
	if err := export.WriteKML(&buf, renderer, date); err != nil {
		api.serverErrorResponse(w, r, err)
		return
	}

	logging.LogOperation(logging.FromContext(r.Context()), "kml_generated",
		slog.Int("bytes", buf.Len()))
	api.sendAttachment(w, r, export.KMLContentType, export.KMLFilename(date), buf.Bytes())
}

func (api *RestAPI) generateKMZHandler(w http.ResponseWriter, r *http.Request) {
	renderer, err := api.exportRenderer()
	if err != nil {
		api.handleError(w, r, err)
		return
	}

	date := api.now()
	var buf bytes.Buffer
	if err := export.WriteKMZ(&buf, renderer, date); err != nil {
		api.serverErrorResponse(w, r, err)
		return
	}

	logging.LogOperation(logging.FromContext(r.Context()), "kmz_generated",
		slog.Int("bytes", buf.Len()))
	api.sendAttachment(w, r, export.KMZContentType, export.KMZFilename(date), buf.Bytes())
}

func (api *RestAPI) exportReportHandler(w http.ResponseWriter, r *http.Request) {
	s, err := api.Workspace.Snapshot()
	if err != nil {
		api.handleError(w, r, err)
		return
	}

	date := api.now()
	summary := export.Summarize(s.Active, s.Config.Mapping, s.Source)
	var buf bytes.Buffer
	if err := export.WriteReport(&buf, summary, date); err != nil {
		api.serverErrorResponse(w, r, err)
		return
	}
	api.sendAttachment(w, r, "text/plain; charset=utf-8", export.ReportFilename(date), buf.Bytes())
}
