package search

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/dhconnelly/rtreego"

	"mobkml.dev/cellmap/internal/dataset"
	"mobkml.dev/cellmap/internal/geo"
	"mobkml.dev/cellmap/internal/models"
)

const (
	tolerance   = 1e-6
	minChildren = 25
	maxChildren = 50
	dimensions  = 2

	// DefaultNearbyRadius is used when a nearby query gives no radius.
	DefaultNearbyRadius = 1000.0
	// MaxNearbyRadius bounds nearby queries, in meters.
	MaxNearbyRadius = 50000.0
	// DefaultNearbyLimit is used when a nearby query gives no limit.
	DefaultNearbyLimit = 20
)

// site is one distinct site position with the number of its rows.
type site struct {
	name     string
	position geo.Point
	cells    int
	rect     *rtreego.Rect
}

var _ rtreego.Spatial = (*site)(nil)

func (s *site) Bounds() *rtreego.Rect {
	return s.rect
}

// Index is an R-tree of the distinct sites of a table. It is immutable once
// built and safe for concurrent reads.
type Index struct {
	tree  *rtreego.Rtree
	sites []*site
}

// NewIndex indexes every row of t with numeric coordinates, merging rows of
// the same site name at the same position.
func NewIndex(t *dataset.Table, f Fields) *Index {
	idx := &Index{tree: rtreego.NewTree(dimensions, minChildren, maxChildren)}
	if f.Latitude == "" || f.Longitude == "" {
		return idx
	}

	type key struct {
		name     string
		lat, lon float64
	}
	byKey := make(map[key]*site)
	for _, row := range t.Rows {
		lat, okLat := parseFloat(t.Get(row, f.Latitude))
		lon, okLon := parseFloat(t.Get(row, f.Longitude))
		if !okLat || !okLon {
			continue
		}
		p := geo.Point{Lat: lat, Lon: lon}
		if !p.Valid() {
			continue
		}
		name := ""
		if f.Site != "" {
			name = strings.TrimSpace(t.Get(row, f.Site))
		}

		k := key{name, lat, lon}
		if s, ok := byKey[k]; ok {
			s.cells++
			continue
		}
		s := &site{
			name:     name,
			position: p,
			cells:    1,
			rect:     rtreego.Point{lat, lon}.ToRect(tolerance),
		}
		byKey[k] = s
		idx.sites = append(idx.sites, s)
	}

	for _, s := range idx.sites {
		idx.tree.Insert(s)
	}
	return idx
}

// Size is the number of indexed sites.
func (idx *Index) Size() int {
	return len(idx.sites)
}

// Nearby returns up to limit sites within radius meters of center, nearest
// first. Ties keep name order.
func (idx *Index) Nearby(center geo.Point, radius float64, limit int) ([]models.NearbySite, error) {
	if radius <= 0 {
		radius = DefaultNearbyRadius
	}
	radius = math.Min(radius, MaxNearbyRadius)
	if limit <= 0 {
		limit = DefaultNearbyLimit
	}

	// Degrees of latitude spanned by radius, widened for longitude by the
	// cosine of the latitude, capped near the poles.
	dLat := radius / geo.EarthRadiusMeters * 180 / math.Pi
	dLon := dLat / math.Max(math.Cos(center.Lat*math.Pi/180), 0.01)

	bounds, err := rtreego.NewRect(
		rtreego.Point{center.Lat - dLat, center.Lon - dLon},
		[]float64{2 * dLat, 2 * dLon},
	)
	if err != nil {
		return nil, fmt.Errorf("invalid nearby search: %w", err)
	}

	found := []models.NearbySite{}
	for _, item := range idx.tree.SearchIntersect(bounds) {
		s, ok := item.(*site)
		if !ok {
			continue
		}
		d := geo.Distance(center, s.position)
		if d > radius {
			continue
		}
		found = append(found, models.NearbySite{
			SiteName: s.name,
			Lat:      s.position.Lat,
			Lon:      s.position.Lon,
			Distance: d,
			Bearing:  geo.Bearing(center, s.position),
			Cells:    s.cells,
		})
	}

	sort.Slice(found, func(i, j int) bool {
		if found[i].Distance != found[j].Distance {
			return found[i].Distance < found[j].Distance
		}
		return found[i].SiteName < found[j].SiteName
	})
	if len(found) > limit {
		found = found[:limit]
	}
	return found, nil
}
