package colmap

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"mobkml.dev/cellmap/internal/dataset"
	"mobkml.dev/cellmap/internal/models"
)

// sampleRows is how many leading rows ValidateMapping inspects.
const sampleRows = 50

// ValidateMapping checks the first rows of the mapped coordinate, EARFCN and
// azimuth columns for non-numeric or out-of-range values.
func ValidateMapping(t *dataset.Table, m models.Mapping) []string {
	issues := []string{}

	for _, col := range mappedColumns(m) {
		if !t.Has(col) {
			issues = append(issues, fmt.Sprintf("Mapped column %q is not in the dataset.", col))
		}
	}

	if m.Latitude != "" {
		issues = append(issues, checkCoordinate(t, m.Latitude, "Latitude", 90)...)
	}
	if m.Longitude != "" {
		issues = append(issues, checkCoordinate(t, m.Longitude, "Longitude", 180)...)
	}
	if m.Earfcn != "" && !looksNumeric(sample(t, m.Earfcn)) {
		issues = append(issues, "EARFCN column does not look numeric.")
	}
	if m.Azimuth != "" && !looksNumeric(sample(t, m.Azimuth)) {
		issues = append(issues, "Azimuth column does not look numeric.")
	}
	return issues
}

func mappedColumns(m models.Mapping) []string {
	var cols []string
	for _, c := range []string{m.Latitude, m.Longitude, m.SiteName, m.CellName, m.Earfcn, m.Azimuth, m.Beamwidth} {
		if c != "" {
			cols = append(cols, c)
		}
	}
	return cols
}

func checkCoordinate(t *dataset.Table, column, name string, limit float64) []string {
	values := sample(t, column)
	if !looksNumeric(values) {
		return []string{name + " column does not look numeric."}
	}
	for _, v := range values {
		f, ok := parseFloat(v)
		if !ok {
			continue
		}
		if f < -limit || f > limit {
			return []string{fmt.Sprintf("%s values out of range (-%g to %g).", name, limit, limit)}
		}
	}
	return nil
}

// sample returns up to sampleRows leading values of column. Unknown columns
// yield no values.
func sample(t *dataset.Table, column string) []string {
	values, err := t.Column(column)
	if err != nil {
		return nil
	}
	if len(values) > sampleRows {
		values = values[:sampleRows]
	}
	return values
}

// looksNumeric reports whether every non-empty value parses as a number.
func looksNumeric(values []string) bool {
	for _, v := range values {
		if v == "" {
			continue
		}
		if _, ok := parseFloat(v); !ok {
			return false
		}
	}
	return true
}

// parseFloat accepts surrounding spaces like a spreadsheet user would type.
func parseFloat(v string) (float64, bool) {
	f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
	return f, err == nil && !math.IsNaN(f) && !math.IsInf(f, 0)
}

// Row checks run by the validate-mapping operation. Each reports the source
// row index of the offending line.

// DuplicateCoordinates reports rows whose exact coordinate text was already
// seen with a different site.
func DuplicateCoordinates(t *dataset.Table, latCol, lonCol, siteCol string) []string {
	type key struct{ lat, lon string }
	seen := make(map[key]string)
	var issues []string
	for _, row := range t.Rows {
		lat, lon := t.Get(row, latCol), t.Get(row, lonCol)
		if lat == "" || lon == "" {
			continue
		}
		k := key{lat, lon}
		site := ""
		if siteCol != "" {
			site = t.Get(row, siteCol)
		}
		if prev, ok := seen[k]; ok && prev != site {
			issues = append(issues, fmt.Sprintf("Duplicate coordinates with different sites at row %d.", row.Index))
			continue
		}
		seen[k] = site
	}
	return issues
}

// InvalidAzimuths reports non-numeric azimuths and those outside 0-360.
func InvalidAzimuths(t *dataset.Table, azCol string) []string {
	var issues []string
	for _, row := range t.Rows {
		v := t.Get(row, azCol)
		if v == "" {
			continue
		}
		az, ok := parseFloat(v)
		if !ok {
			issues = append(issues, fmt.Sprintf("Invalid azimuth at row %d.", row.Index))
			continue
		}
		if az < 0 || az > 360 {
			issues = append(issues, fmt.Sprintf("Azimuth out of range at row %d.", row.Index))
		}
	}
	return issues
}

// MissingEarfcn reports rows with an empty EARFCN.
func MissingEarfcn(t *dataset.Table, earfcnCol string) []string {
	var issues []string
	for _, row := range t.Rows {
		if t.Get(row, earfcnCol) == "" {
			issues = append(issues, fmt.Sprintf("Missing EARFCN at row %d.", row.Index))
		}
	}
	return issues
}

// EmptyLabels reports rows whose label column is blank.
func EmptyLabels(t *dataset.Table, labelCol string) []string {
	var issues []string
	for _, row := range t.Rows {
		if strings.TrimSpace(t.Get(row, labelCol)) == "" {
			issues = append(issues, fmt.Sprintf("Empty label value at row %d.", row.Index))
		}
	}
	return issues
}

// Validate runs ValidateMapping plus every row check that applies to the
// mapped columns. labelField enables the empty label check.
func Validate(t *dataset.Table, m models.Mapping, labelField string) []string {
	issues := ValidateMapping(t, m)
	if m.HasCoordinates() && t.Has(m.Latitude) && t.Has(m.Longitude) {
		issues = append(issues, DuplicateCoordinates(t, m.Latitude, m.Longitude, m.SiteName)...)
	}
	if t.Has(m.Azimuth) {
		issues = append(issues, InvalidAzimuths(t, m.Azimuth)...)
	}
	if t.Has(m.Earfcn) {
		issues = append(issues, MissingEarfcn(t, m.Earfcn)...)
	}
	if labelField != "" && t.Has(labelField) {
		issues = append(issues, EmptyLabels(t, labelField)...)
	}
	return issues
}
