package restapi

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"mobkml.dev/cellmap/internal/dataset"
	"mobkml.dev/cellmap/internal/logging"
	"mobkml.dev/cellmap/internal/models"
)

const (
	// maxUploadBytes bounds an uploaded spreadsheet.
	maxUploadBytes = 64 << 20
	// previewRows is how many rows are echoed after an upload or filter.
	previewRows = 10
)

func (api *RestAPI) uploadHandler(w http.ResponseWriter, r *http.Request) {
	logger := logging.FromContext(r.Context())
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		api.badRequestResponse(w, r, msgNoFile)
		return
	}

	file, header, err := r.FormFile("file")
	if errors.Is(err, http.ErrMissingFile) {
		// a part sent with an empty filename is parsed as a plain value
		if _, ok := r.MultipartForm.Value["file"]; ok {
			api.badRequestResponse(w, r, msgEmptyFilename)
			return
		}
		api.badRequestResponse(w, r, msgNoFile)
		return
	}
	if err != nil {
		api.badRequestResponse(w, r, msgNoFile)
		return
	}
	defer logging.SafeCloseWithLogging(file, logger, "upload")

	filename := strings.TrimSpace(header.Filename)
	if filename == "" {
		api.badRequestResponse(w, r, msgEmptyFilename)
		return
	}

	table, meta, err := dataset.Load(file, filename)
	if err != nil {
		logging.LogError(logger, "upload rejected", err, slog.String("filename", filename))
		api.handleError(w, r, err)
		return
	}

	facets := api.Workspace.Replace(table, meta, filename)
	logging.LogOperation(logger, "dataset_uploaded",
		slog.String("filename", filename),
		slog.Int("rows", table.Len()),
		slog.Int("columns", len(table.Columns)))

	api.sendOK(w, r, models.UploadResult{
		Columns:       table.Columns,
		Preview:       table.Preview(previewRows),
		TotalRows:     table.Len(),
		Meta:          models.DatasetMeta{Format: meta.Format, Delimiter: meta.Delimiter},
		SourceName:    filename,
		FilterColumns: facets,
	})
}
