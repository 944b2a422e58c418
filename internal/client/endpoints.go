package client

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"

	"mobkml.dev/cellmap/internal/bands"
	"mobkml.dev/cellmap/internal/geo"
	"mobkml.dev/cellmap/internal/logging"
	"mobkml.dev/cellmap/internal/models"
)

// Health checks that the server answers.
func (c *Client) Health(ctx context.Context) error {
	return c.call(ctx, http.MethodGet, "/healthz", nil, nil, nil)
}

// Bands returns the band catalogue.
func (c *Client) Bands(ctx context.Context) ([]bands.Info, error) {
	var out models.BandList
	if err := c.call(ctx, http.MethodGet, "/api/bands", nil, nil, &out); err != nil {
		return nil, err
	}
	return out.Bands, nil
}

// Upload sends a spreadsheet. It replaces the server dataset.
func (c *Client) Upload(ctx context.Context, filename string, r io.Reader) (models.UploadResult, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", filename)
	if err != nil {
		return models.UploadResult{}, fmt.Errorf("building upload: %w", err)
	}
	if _, err := io.Copy(part, r); err != nil {
		return models.UploadResult{}, fmt.Errorf("reading %s: %w", filename, err)
	}
	if err := mw.Close(); err != nil {
		return models.UploadResult{}, fmt.Errorf("building upload: %w", err)
	}

	req, err := c.newRequest(ctx, http.MethodPost, "/api/upload", nil, &buf)
	if err != nil {
		return models.UploadResult{}, err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	var out models.UploadResult
	if err := c.send(req, &out); err != nil {
		return models.UploadResult{}, err
	}
	logging.LogOperation(c.logger, "uploaded", slog.String("filename", filename), slog.Int("rows", out.TotalRows))
	return out, nil
}

// AutoMap asks the server to guess and store the column mapping.
func (c *Client) AutoMap(ctx context.Context) (models.AutoMapResult, error) {
	var out models.AutoMapResult
	err := c.call(ctx, http.MethodPost, "/api/auto-map", nil, struct{}{}, &out)
	return out, err
}

// ValidateMapping lists what looks wrong with mapping.
func (c *Client) ValidateMapping(ctx context.Context, mapping models.Mapping, labelField string) ([]string, error) {
	var out models.IssuesResult
	in := models.ValidateMappingRequest{Mapping: mapping, LabelField: labelField}
	if err := c.call(ctx, http.MethodPost, "/api/validate-mapping", nil, in, &out); err != nil {
		return nil, err
	}
	return out.Issues, nil
}

// SetConfig replaces the server's active configuration.
func (c *Client) SetConfig(ctx context.Context, cfg models.ActiveConfig) error {
	return c.call(ctx, http.MethodPost, "/api/set-config", nil, cfg, nil)
}

// Config returns the server's active configuration.
func (c *Client) Config(ctx context.Context) (models.ActiveConfig, error) {
	var out models.ActiveConfig
	err := c.call(ctx, http.MethodGet, "/api/config", nil, nil, &out)
	return out, err
}

// FilterValues lists the options of column under the other selections.
func (c *Client) FilterValues(ctx context.Context, column string, filters map[string][]string) ([]string, error) {
	var out models.FilterValuesResult
	in := models.FilterValuesRequest{Column: column, Filters: filters}
	if err := c.call(ctx, http.MethodPost, "/api/filter-values", nil, in, &out); err != nil {
		return nil, err
	}
	return out.Values, nil
}

// ApplyFilters narrows the server's active view.
func (c *Client) ApplyFilters(ctx context.Context, filters map[string][]string) (models.ApplyFiltersResult, error) {
	var out models.ApplyFiltersResult
	err := c.call(ctx, http.MethodPost, "/api/apply-filters", nil, models.ApplyFiltersRequest{Filters: filters}, &out)
	return out, err
}

// Search runs a site or city search.
func (c *Client) Search(ctx context.Context, q, mode string) ([]models.SearchResult, error) {
	query := url.Values{"q": {q}}
	if mode != "" {
		query.Set("mode", mode)
	}
	var out []models.SearchResult
	if err := c.call(ctx, http.MethodGet, "/api/search", query, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Nearby lists sites around center. Zero radius and limit use the server
// defaults.
func (c *Client) Nearby(ctx context.Context, center geo.Point, radius float64, limit int) ([]models.NearbySite, error) {
	query := url.Values{
		"lat": {strconv.FormatFloat(center.Lat, 'f', -1, 64)},
		"lon": {strconv.FormatFloat(center.Lon, 'f', -1, 64)},
	}
	if radius > 0 {
		query.Set("radius", strconv.FormatFloat(radius, 'f', -1, 64))
	}
	if limit > 0 {
		query.Set("limit", strconv.Itoa(limit))
	}
	var out []models.NearbySite
	if err := c.call(ctx, http.MethodGet, "/api/nearby", query, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// MapData fetches the rendered active view.
func (c *Client) MapData(ctx context.Context, polyline bool) (models.MapData, error) {
	var query url.Values
	if polyline {
		query = url.Values{"encoding": {"polyline"}}
	}
	var out models.MapData
	err := c.call(ctx, http.MethodGet, "/api/map-data", query, nil, &out)
	return out, err
}

// SectorPreview asks the server for one wedge.
func (c *Client) SectorPreview(ctx context.Context, req models.SectorRequest) ([][2]float64, error) {
	var out models.SectorResult
	if err := c.call(ctx, http.MethodPost, "/api/sector-preview", nil, req, &out); err != nil {
		return nil, err
	}
	return out.Polygon, nil
}

// CalculateDistance measures from a to b on the server.
func (c *Client) CalculateDistance(ctx context.Context, a, b geo.Point) (models.DistanceResult, error) {
	in := models.DistanceRequest{Lat1: &a.Lat, Lon1: &a.Lon, Lat2: &b.Lat, Lon2: &b.Lon}
	var out models.DistanceResult
	err := c.call(ctx, http.MethodPost, "/api/calculate-distance", nil, in, &out)
	return out, err
}

// GenerateKML downloads the KML export of the active view.
func (c *Client) GenerateKML(ctx context.Context) (Attachment, error) {
	return c.download(ctx, "/api/generate-kml")
}

// GenerateKMZ downloads the zipped KML export.
func (c *Client) GenerateKMZ(ctx context.Context) (Attachment, error) {
	return c.download(ctx, "/api/generate-kmz")
}

// ExportReport downloads the text report.
func (c *Client) ExportReport(ctx context.Context) (Attachment, error) {
	return c.download(ctx, "/api/export-report")
}

// Profiles lists saved profile names.
func (c *Client) Profiles(ctx context.Context) ([]string, error) {
	var out models.ProfileList
	if err := c.call(ctx, http.MethodGet, "/api/profiles", nil, nil, &out); err != nil {
		return nil, err
	}
	return out.Profiles, nil
}

// SaveProfile stores cfg under name.
func (c *Client) SaveProfile(ctx context.Context, name string, cfg models.ActiveConfig) error {
	return c.call(ctx, http.MethodPost, "/api/save-profile", nil, models.SaveProfileRequest{Name: name, Data: cfg}, nil)
}

// LoadProfile returns a saved configuration without applying it.
func (c *Client) LoadProfile(ctx context.Context, name string) (models.ActiveConfig, error) {
	var out models.ProfileData
	if err := c.call(ctx, http.MethodPost, "/api/load-profile", nil, models.LoadProfileRequest{Name: name}, &out); err != nil {
		return models.ActiveConfig{}, err
	}
	return out.Data, nil
}

// DeleteProfile removes a saved profile.
func (c *Client) DeleteProfile(ctx context.Context, name string) error {
	return c.call(ctx, http.MethodDelete, "/api/profiles/"+url.PathEscape(name), nil, nil, nil)
}

// ProfileQR returns the PNG share code of a profile. Zero size uses the
// server default.
func (c *Client) ProfileQR(ctx context.Context, name string, size int) ([]byte, error) {
	var query url.Values
	if size > 0 {
		query = url.Values{"size": {strconv.Itoa(size)}}
	}
	req, err := c.newRequest(ctx, http.MethodGet, "/api/profiles/"+url.PathEscape(name)+"/qr.png", query, nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.do(req)
	if err != nil {
		return nil, err
	}
	defer logging.SafeCloseWithLogging(resp.Body, c.logger, "qr body")

	png, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading qr code: %w", err)
	}
	return png, nil
}
