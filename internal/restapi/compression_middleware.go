package restapi

import (
	"net/http"

	"github.com/klauspost/compress/gzhttp"

	"mobkml.dev/cellmap/internal/export"
)

// CompressionConfig holds configuration options for response compression
type CompressionConfig struct {
	// MinSize is the minimum response size in bytes to compress
	MinSize int
	// Level is the gzip level, 1-9
	Level int
	// Skip lists content types that are already compressed
	Skip []string
}

// DefaultCompressionConfig compresses JSON and KML above 1KB at level 6.
func DefaultCompressionConfig() CompressionConfig {
	return CompressionConfig{
		MinSize: 1024,
		Level:   6,
		Skip:    []string{export.KMZContentType, "image/png"},
	}
}

// NewCompressionMiddleware creates a compression middleware with the given configuration
func NewCompressionMiddleware(config CompressionConfig) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		// an empty exception list would disable compression entirely
		filter := gzhttp.ContentTypeFilter(gzhttp.DefaultContentTypeFilter)
		if len(config.Skip) > 0 {
			filter = gzhttp.ExceptContentTypes(config.Skip)
		}
		wrapper, err := gzhttp.NewWrapper(
			gzhttp.MinSize(config.MinSize),
			gzhttp.CompressionLevel(config.Level),
			filter,
		)
		if err != nil {
			return gzhttp.GzipHandler(next)
		}
		return wrapper(next)
	}
}

// CompressionMiddleware applies gzip compression with default settings
func CompressionMiddleware(next http.Handler) http.Handler {
	return NewCompressionMiddleware(DefaultCompressionConfig())(next)
}
