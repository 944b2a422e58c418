// Package export writes the active dataset as KML/KMZ documents and plain
// text reports.
package export

import (
	"bufio"
	"encoding/xml"
	"fmt"
	"io"
	"slices"
	"strconv"
	"strings"
	"time"

	"mobkml.dev/cellmap/internal/bands"
	"mobkml.dev/cellmap/internal/geo"
	"mobkml.dev/cellmap/internal/render"
)

// KMLContentType is the media type of KML documents.
const KMLContentType = "application/vnd.google-earth.kml+xml"

// UnknownFolder holds cells whose EARFCN is outside every band.
const UnknownFolder = "Unknown Band"

// KMLFilename is the download name of a KML export made on date.
func KMLFilename(date time.Time) string {
	return "cell_sites_" + date.Format(time.DateOnly) + ".kml"
}

// styleKeys returns the coloured band keys followed by any other catalogue
// key, so every band referenced by a placemark has a style.
func styleKeys() []string {
	keys := slices.Clone(bands.ColoredKeys)
	for _, r := range bands.Ranges {
		if !slices.Contains(keys, r.Key) {
			keys = append(keys, r.Key)
		}
	}
	return keys
}

type folder struct {
	name string
	body strings.Builder
}

// WriteKML writes one Document with a label style, one style per band and
// one Folder per band label holding a site label point and a sector polygon
// for every drawable row.
func WriteKML(w io.Writer, r *render.Renderer, date time.Time) error {
	cfg := r.Config()
	label := cfg.LabelConfig

	var folders []*folder
	byName := make(map[string]*folder)
	for _, c := range r.Cells() {
		name := UnknownFolder
		if c.Banded {
			name = c.BandLabel
		}
		f, ok := byName[name]
		if !ok {
			f = &folder{name: name}
			byName[name] = f
			folders = append(folders, f)
		}
		writeCellPlacemarks(&f.body, r, c)
	}

	bw := bufio.NewWriter(w)
	p := func(format string, args ...any) {
		fmt.Fprintf(bw, format, args...)
	}

	labelScale := label.TextScale
	if !label.ShowLabel {
		labelScale = 0
	}

	p("<?xml version=\"1.0\" encoding=\"UTF-8\"?>\n")
	p("<kml xmlns=\"http://www.opengis.net/kml/2.2\">\n")
	p("  <Document>\n")
	p("    <name>Cell Sites - %s</name>\n", date.Format(time.DateOnly))
	p("    <Style id=\"label_site\">\n")
	p("      <LabelStyle><color>%s</color><scale>%s</scale></LabelStyle>\n",
		bands.HexToKML(label.TextColor, "ff"), formatFloat(labelScale))
	p("      <IconStyle><scale>0</scale></IconStyle>\n")
	p("    </Style>\n")
	for _, key := range styleKeys() {
		color := bands.KMLColor(key)
		p("    <Style id=\"band_%s\">\n", key)
		p("      <PolyStyle><color>%s</color></PolyStyle>\n", color)
		p("      <LineStyle><color>%s</color></LineStyle>\n", color)
		p("      <IconStyle><scale>0</scale></IconStyle>\n")
		p("    </Style>\n")
	}
	for _, f := range folders {
		p("    <Folder>\n")
		p("      <name>%s</name>\n", xmlEscape(f.name))
		p("%s", f.body.String())
		p("    </Folder>\n")
	}
	p("  </Document>\n")
	p("</kml>\n")

	return bw.Flush()
}

func writeCellPlacemarks(b *strings.Builder, r *render.Renderer, c render.Cell) {
	if c.SiteLabel != "" {
		fmt.Fprintf(b, "      <Placemark>\n")
		fmt.Fprintf(b, "        <name>%s</name>\n", xmlEscape(c.SiteLabel))
		fmt.Fprintf(b, "        <styleUrl>#label_site</styleUrl>\n")
		fmt.Fprintf(b, "        <Point><coordinates>%s,%s,0</coordinates></Point>\n",
			formatFloat(c.Position.Lon), formatFloat(c.Position.Lat))
		fmt.Fprintf(b, "      </Placemark>\n")
	}

	lines := make([]string, 0, 8)
	for _, f := range r.Description(c) {
		lines = append(lines, f.Name+" = "+f.Value)
	}

	fmt.Fprintf(b, "      <Placemark>\n")
	fmt.Fprintf(b, "        <name>%s</name>\n", xmlEscape(c.CellLabel))
	fmt.Fprintf(b, "        <styleUrl>#band_%s</styleUrl>\n", c.BandKey)
	fmt.Fprintf(b, "        <description>%s</description>\n", xmlEscape(strings.Join(lines, "\n")))
	fmt.Fprintf(b, "        <Polygon><outerBoundaryIs><LinearRing><coordinates>%s</coordinates></LinearRing></outerBoundaryIs></Polygon>\n",
		ringCoordinates(c.Ring))
	fmt.Fprintf(b, "      </Placemark>\n")
}

func ringCoordinates(ring []geo.Point) string {
	parts := make([]string, len(ring))
	for i, pt := range ring {
		parts[i] = formatFloat(pt.Lon) + "," + formatFloat(pt.Lat) + ",0"
	}
	return strings.Join(parts, "\n")
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// xmlEscape escapes a string for XML text nodes.
func xmlEscape(s string) string {
	var b strings.Builder
	if err := xml.EscapeText(&b, []byte(s)); err != nil {
		return s
	}
	return b.String()
}
