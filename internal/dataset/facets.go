package dataset

import (
	"slices"
	"strings"
)

// MaxFacetValues caps the option list returned for one facet.
const MaxFacetValues = 2000

// Facet keys recognised by DetectFilterColumns.
const (
	FacetState    = "uf"
	FacetAreaCode = "cn"
	FacetRegion   = "regional"
	FacetCity     = "municipio"
)

// FacetKeys lists the facets in display order.
var FacetKeys = []string{FacetState, FacetAreaCode, FacetRegion, FacetCity}

var facetKeywords = map[string][]string{
	FacetState:    {"uf", "estado", "state"},
	FacetAreaCode: {"cn", "ddd"},
	FacetRegion:   {"regional", "region", "regiao", "região", "regiÃ£o"},
	FacetCity:     {"municipio", "cidade", "city", "muni", "municipality"},
}

// Filters maps a column to the values a row must hold in it. Columns with no
// values do not constrain anything.
type Filters map[string][]string

// DetectFilterColumns finds the columns behind the regional facets. A column
// whose normalised name equals a keyword wins; otherwise the first column
// starting or ending with a keyword is taken. "state" is only matched loosely
// against short names so columns like "cellstatereason" stay out.
func DetectFilterColumns(columns []string) map[string]string {
	normalized := make([]string, len(columns))
	for i, c := range columns {
		normalized[i] = normalizeColumn(c)
	}

	found := make(map[string]string)
	for _, key := range FacetKeys {
		keywords := facetKeywords[key]
		if col, ok := exactFacetMatch(columns, normalized, keywords); ok {
			found[key] = col
			continue
		}
		if col, ok := looseFacetMatch(columns, normalized, keywords); ok {
			found[key] = col
		}
	}
	return found
}

func exactFacetMatch(columns, normalized, keywords []string) (string, bool) {
	for i, n := range normalized {
		if slices.Contains(keywords, n) {
			return columns[i], true
		}
	}
	return "", false
}

func looseFacetMatch(columns, normalized, keywords []string) (string, bool) {
	for i, n := range normalized {
		for _, k := range keywords {
			if k == "state" && len(n) > 6 {
				continue
			}
			if strings.HasPrefix(n, k) || strings.HasSuffix(n, k) {
				return columns[i], true
			}
		}
	}
	return "", false
}

// Filter returns the rows matching every filter except the one on skip.
// Unknown columns are ignored. Values are compared after trimming spaces so
// they line up with the options produced by Distinct.
func (t *Table) Filter(filters Filters, skip string) *Table {
	type constraint struct {
		col    int
		values map[string]struct{}
	}
	var constraints []constraint
	for col, values := range filters {
		if col == skip || len(values) == 0 {
			continue
		}
		i, ok := t.index[col]
		if !ok {
			continue
		}
		set := make(map[string]struct{}, len(values))
		for _, v := range values {
			set[strings.TrimSpace(v)] = struct{}{}
		}
		constraints = append(constraints, constraint{col: i, values: set})
	}
	if len(constraints) == 0 {
		return t.Clone()
	}

	rows := make([]Row, 0, len(t.Rows))
	for _, row := range t.Rows {
		keep := true
		for _, c := range constraints {
			if _, ok := c.values[strings.TrimSpace(row.Values[c.col])]; !ok {
				keep = false
				break
			}
		}
		if keep {
			rows = append(rows, row)
		}
	}
	return t.withRows(rows)
}

// Distinct returns the sorted, trimmed, non-empty unique values of column,
// at most limit of them when limit is positive.
func (t *Table) Distinct(column string, limit int) ([]string, error) {
	values, err := t.Column(column)
	if err != nil {
		return nil, err
	}
	set := make(map[string]struct{})
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v != "" {
			set[v] = struct{}{}
		}
	}
	out := make([]string, 0, len(set))
	for v := range set {
		out = append(out, v)
	}
	slices.Sort(out)
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// FacetValues returns the options of column once every other facet
// selection is applied to the full table.
func (t *Table) FacetValues(column string, filters Filters) ([]string, error) {
	if !t.Has(column) {
		return nil, ErrUnknownColumn
	}
	return t.Filter(filters, column).Distinct(column, MaxFacetValues)
}
