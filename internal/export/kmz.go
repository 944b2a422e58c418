package export

import (
	"fmt"
	"io"
	"time"

	"github.com/klauspost/compress/zip"

	"mobkml.dev/cellmap/internal/render"
)

// KMZContentType is the media type of zipped KML documents.
const KMZContentType = "application/vnd.google-earth.kmz"

// KMZFilename is the download name of a KMZ export made on date.
func KMZFilename(date time.Time) string {
	return "cell_sites_" + date.Format(time.DateOnly) + ".kmz"
}

// WriteKMZ writes the KML document as doc.kml inside a zip archive.
func WriteKMZ(w io.Writer, r *render.Renderer, date time.Time) error {
	zw := zip.NewWriter(w)
	entry, err := zw.CreateHeader(&zip.FileHeader{
		Name:     "doc.kml",
		Method:   zip.Deflate,
		Modified: date,
	})
	if err != nil {
		return fmt.Errorf("creating kmz entry: %w", err)
	}
	if err := WriteKML(entry, r, date); err != nil {
		return fmt.Errorf("writing kml: %w", err)
	}
	return zw.Close()
}
