package export

import (
	"fmt"
	"io"
	"slices"
	"strings"
	"time"

	"mobkml.dev/cellmap/internal/bands"
	"mobkml.dev/cellmap/internal/dataset"
	"mobkml.dev/cellmap/internal/models"
)

// ReportTitle heads every text report.
const ReportTitle = "MoB_KML - Report"

// BandCount is the number of rows in one band.
type BandCount struct {
	Label string
	Count int
}

// Summary holds the figures printed in a report.
type Summary struct {
	Source string
	Rows   int
	Sites  int
	Bands  []BandCount
}

// Summarize counts rows, distinct site values and rows per band label. Sites
// and bands stay zero when their columns are unmapped.
func Summarize(t *dataset.Table, m models.Mapping, source string) Summary {
	s := Summary{Source: source, Rows: t.Len()}

	if m.SiteName != "" {
		if values, err := t.Column(m.SiteName); err == nil {
			distinct := make(map[string]struct{}, len(values))
			for _, v := range values {
				distinct[v] = struct{}{}
			}
			s.Sites = len(distinct)
		}
	}

	if m.Earfcn != "" {
		if values, err := t.Column(m.Earfcn); err == nil {
			counts := make(map[string]int)
			for _, v := range values {
				counts[bands.Label(v)]++
			}
			for label, n := range counts {
				s.Bands = append(s.Bands, BandCount{Label: label, Count: n})
			}
			slices.SortFunc(s.Bands, func(a, b BandCount) int {
				return strings.Compare(a.Label, b.Label)
			})
		}
	}
	return s
}

// ReportFilename is the download name of a report made on date.
func ReportFilename(date time.Time) string {
	return "report_" + date.Format(time.DateOnly) + ".txt"
}

// WriteReport writes the summary as plain text lines.
func WriteReport(w io.Writer, s Summary, date time.Time) error {
	lines := []string{
		ReportTitle,
		"Date: " + date.Format(time.DateOnly),
		"Source: " + s.Source,
		"",
		fmt.Sprintf("Total rows: %d", s.Rows),
		fmt.Sprintf("Total sites: %d", s.Sites),
		"",
		"Band distribution:",
	}
	for _, b := range s.Bands {
		lines = append(lines, fmt.Sprintf("- %s: %d", b.Label, b.Count))
	}
	_, err := io.WriteString(w, strings.Join(lines, "\n"))
	return err
}
