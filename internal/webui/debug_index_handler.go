// Package webui serves a plain HTML view of the server workspace for
// debugging uploads, mappings and filters.
package webui

import (
	"embed"
	"encoding/json"
	"html/template"
	"net/http"

	"mobkml.dev/cellmap/internal/workspace"
)

//go:embed debug_index.html
var templateFS embed.FS

var debugTemplate = template.Must(template.ParseFS(templateFS, "debug_index.html"))

// debugPreviewRows caps the rows dumped by the preview page.
const debugPreviewRows = 50

// WebUI renders workspace state.
type WebUI struct {
	Workspace *workspace.Workspace
}

type debugData struct {
	Title string
	Types []string
	Pre   string
}

var dataTypes = []string{"summary", "config", "columns", "facets", "preview"}

type workspaceSummary struct {
	Source      string              `json:"source"`
	Format      string              `json:"format"`
	Delimiter   string              `json:"delimiter,omitempty"`
	TotalRows   int                 `json:"total_rows"`
	ActiveRows  int                 `json:"active_rows"`
	Columns     int                 `json:"columns"`
	Filters     map[string][]string `json:"filters"`
	HasMapping  bool                `json:"has_mapping"`
	Coordinates bool                `json:"coordinates_mapped"`
}

func writeDebugData(w http.ResponseWriter, title string, data interface{}) {
	content, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	dataStruct := debugData{
		Title: title,
		Types: dataTypes,
		Pre:   string(content),
	}
	if err := debugTemplate.Execute(w, dataStruct); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func (webUI *WebUI) debugIndexHandler(w http.ResponseWriter, r *http.Request) {
	dataType := r.URL.Query().Get("dataType")

	if dataType == "config" {
		writeDebugData(w, "Active Configuration", webUI.Workspace.Config())
		return
	}

	s, err := webUI.Workspace.Snapshot()
	if err != nil {
		writeDebugData(w, "No Data", map[string]string{"error": err.Error()})
		return
	}

	var data interface{}
	var title string

	switch dataType {
	case "summary":
		data = workspaceSummary{
			Source:      s.Source,
			Format:      s.Meta.Format,
			Delimiter:   s.Meta.Delimiter,
			TotalRows:   s.Full.Len(),
			ActiveRows:  s.Active.Len(),
			Columns:     len(s.Full.Columns),
			Filters:     s.Filters,
			HasMapping:  !s.Config.Mapping.IsEmpty(),
			Coordinates: s.Config.Mapping.HasCoordinates(),
		}
		title = "Workspace - Summary"
	case "columns":
		data = s.Full.Columns
		title = "Workspace - Columns"
	case "facets":
		data = s.Facets
		title = "Workspace - Detected Facets"
	case "preview":
		data = s.Active.Preview(debugPreviewRows)
		title = "Workspace - Active Rows"
	default:
		data = map[string]string{
			"error": "Please use one of the following: summary, config, columns, facets, preview.",
		}
		title = "Choose a data type"
	}

	writeDebugData(w, title, data)
}
