package profiles

import (
	"bytes"
	"context"
	"io"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mobkml.dev/cellmap/internal/appconf"
	"mobkml.dev/cellmap/internal/logging"
	"mobkml.dev/cellmap/internal/models"
)

func openTestStore(t *testing.T) *Store {
	cfg := appconf.Config{Env: appconf.Test, DBType: DriverSQLite, DBPath: ":memory:"}
	store, err := Open(context.Background(), cfg, logging.NewStructuredLogger(io.Discard, 0))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func sampleConfig() models.ActiveConfig {
	cfg := models.NewActiveConfig()
	cfg.Scale = 0.8
	cfg.Mapping = models.Mapping{Latitude: "Lat", Longitude: "Lon", SiteName: "Site"}
	cfg.ExtraFields = []string{"Vendor"}
	cfg.BandScaleOverrides["1800"] = 450
	cfg.LabelConfig.TextColor = "ff0000"
	return cfg
}

func TestOpenRejectsFileInTests(t *testing.T) {
	_, err := Open(context.Background(), appconf.Config{Env: appconf.Test, DBPath: "profiles.db"}, nil)
	assert.Error(t, err)
}

func TestOpenUnsupportedDriver(t *testing.T) {
	_, err := Open(context.Background(), appconf.Config{DBType: "duckdb"}, nil)
	assert.ErrorContains(t, err, "unsupported database type")

	_, err = Open(context.Background(), appconf.Config{DBType: DriverPgx}, nil)
	assert.ErrorContains(t, err, "connection string")
}

func TestSaveLoadList(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)

	names, err := store.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, names)

	require.NoError(t, store.Save(ctx, "north", sampleConfig()))
	require.NoError(t, store.Save(ctx, "  alpha.json ", models.NewActiveConfig()))

	names, err = store.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"alpha", "north"}, names)

	got, err := store.Load(ctx, "north")
	require.NoError(t, err)
	assert.Equal(t, sampleConfig(), got)

	got, err = store.Load(ctx, "north.json")
	require.NoError(t, err)
	assert.Equal(t, 0.8, got.Scale)
}

func TestSaveOverwrites(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)

	require.NoError(t, store.Save(ctx, "north", sampleConfig()))
	updated := sampleConfig()
	updated.Scale = 2
	require.NoError(t, store.Save(ctx, "north", updated))

	got, err := store.Load(ctx, "north")
	require.NoError(t, err)
	assert.Equal(t, 2.0, got.Scale)

	names, err := store.List(ctx)
	require.NoError(t, err)
	assert.Len(t, names, 1)
}

func TestLoadMissing(t *testing.T) {
	_, err := openTestStore(t).Load(context.Background(), "ghost")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDelete(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)
	require.NoError(t, store.Save(ctx, "north", sampleConfig()))

	require.NoError(t, store.Delete(ctx, "north"))
	assert.ErrorIs(t, store.Delete(ctx, "north"), ErrNotFound)
	_, err := store.Load(ctx, "north")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestNormalizeName(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr error
	}{
		{"north", "north", nil},
		{" north.json ", "north", nil},
		{"Zona Sul", "Zona Sul", nil},
		{"", "", ErrNameMissing},
		{"   ", "", ErrNameMissing},
		{".json", "", ErrNameMissing},
		{"../etc", "", ErrInvalidName},
		{"a/b", "", ErrInvalidName},
		{string(bytes.Repeat([]byte("x"), MaxNameLength+1)), "", ErrInvalidName},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := NormalizeName(tt.in)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
	assert.ErrorIs(t, ErrNameMissing, ErrInvalidName)
}

func TestSaveInvalidName(t *testing.T) {
	err := openTestStore(t).Save(context.Background(), "", sampleConfig())
	assert.ErrorIs(t, err, ErrNameMissing)
}

func TestQRCode(t *testing.T) {
	b, err := QRCode("http://localhost:8000/api/load-profile?name=north", 0)
	require.NoError(t, err)

	img, err := png.Decode(bytes.NewReader(b))
	require.NoError(t, err)
	assert.Equal(t, DefaultQRSize, img.Bounds().Dx())
}
