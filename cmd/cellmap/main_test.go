package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/klauspost/compress/zip"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mobkml.dev/cellmap/internal/appconf"
	"mobkml.dev/cellmap/internal/models"
	"mobkml.dev/cellmap/internal/render"
)

const sitesCSV = `Site,Cell,Latitude,Longitude,EARFCN,Azimuth
SPA01,SPA01A,-23.55,-46.63,1300,0
SPA01,SPA01B,-23.55,-46.63,9410,120
RJO01,RJO01A,-22.90,-43.17,3050,90
`

func writeSites(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "sites.csv")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	fixed := time.Date(2024, 5, 17, 10, 0, 0, 0, time.UTC)
	now = func() time.Time { return fixed }
	t.Cleanup(func() { now = time.Now })

	var out, errOut bytes.Buffer
	root := newRootCmd()
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestKMLCommand(t *testing.T) {
	input := writeSites(t, sitesCSV)
	output := filepath.Join(t.TempDir(), "out.kml")

	stdout, err := execute(t, "kml", input, "-o", output)
	require.NoError(t, err)
	assert.Contains(t, stdout, "Wrote 3 cells to "+output)

	kml, err := os.ReadFile(output)
	require.NoError(t, err)
	assert.Contains(t, string(kml), "<kml")
	assert.Contains(t, string(kml), "SPA01A")
}

func TestKMZCommand(t *testing.T) {
	input := writeSites(t, sitesCSV)
	output := filepath.Join(t.TempDir(), "out.kmz")

	_, err := execute(t, "kml", input, "--kmz", "-o", output)
	require.NoError(t, err)

	zr, err := zip.OpenReader(output)
	require.NoError(t, err)
	defer zr.Close()
	require.Len(t, zr.File, 1)
	assert.Equal(t, "doc.kml", zr.File[0].Name)
}

func TestKMLDefaultFilename(t *testing.T) {
	input := writeSites(t, sitesCSV)
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(t.TempDir()))
	t.Cleanup(func() { _ = os.Chdir(wd) })

	_, err = execute(t, "kml", input)
	require.NoError(t, err)
	_, err = os.Stat("cell_sites_2024-05-17.kml")
	assert.NoError(t, err)
}

func TestKMLWithProfile(t *testing.T) {
	input := writeSites(t, sitesCSV)
	cfg := models.NewActiveConfig()
	cfg.Mapping = models.Mapping{SiteName: "Site"}
	raw, err := json.Marshal(cfg)
	require.NoError(t, err)
	profile := filepath.Join(t.TempDir(), "profile.json")
	require.NoError(t, os.WriteFile(profile, raw, 0o600))

	_, err = execute(t, "kml", input, "--profile", profile, "-o", filepath.Join(t.TempDir(), "x.kml"))
	assert.ErrorIs(t, err, render.ErrMissingCoordinates)
}

func TestKMLErrors(t *testing.T) {
	_, err := execute(t, "kml")
	assert.Error(t, err)

	_, err = execute(t, "kml", filepath.Join(t.TempDir(), "missing.csv"))
	assert.ErrorIs(t, err, os.ErrNotExist)

	bad := filepath.Join(t.TempDir(), "notes.txt")
	require.NoError(t, os.WriteFile(bad, []byte("hello"), 0o600))
	_, err = execute(t, "kml", bad)
	assert.Error(t, err)
}

func TestReportCommand(t *testing.T) {
	input := writeSites(t, sitesCSV)

	stdout, err := execute(t, "report", input)
	require.NoError(t, err)
	assert.Contains(t, stdout, "MoB_KML - Report")
	assert.Contains(t, stdout, "2024-05-17")
	assert.Contains(t, stdout, "sites.csv")
	assert.Contains(t, stdout, "Band distribution:")

	lines := strings.Split(stdout, "\n")
	var rows, sites string
	for _, l := range lines {
		if strings.Contains(l, "Total rows:") {
			rows = l
		}
		if strings.Contains(l, "Total sites:") {
			sites = l
		}
	}
	assert.Contains(t, rows, "3")
	assert.Contains(t, sites, "2")
}

func TestDistanceCommand(t *testing.T) {
	stdout, err := execute(t, "distance", "0", "0", "0", "0.01")
	require.NoError(t, err)
	assert.Contains(t, stdout, "1.11 km")
	assert.Contains(t, stdout, "0.691")
	assert.Contains(t, stdout, "90.0° E")
}

func TestDistanceRejectsBadInput(t *testing.T) {
	_, err := execute(t, "distance", "0", "0", "x", "1")
	assert.EqualError(t, err, `invalid latitude "x"`)

	_, err = execute(t, "distance", "0", "0", "0", "181")
	assert.EqualError(t, err, "coordinates out of range: 0, 181")

	_, err = execute(t, "distance", "0", "0")
	assert.Error(t, err)
}

func TestServeFlagsToConfig(t *testing.T) {
	var opts serveOptions
	cmd := &cobra.Command{Use: "serve"}
	addServeFlags(cmd, &opts)
	require.NoError(t, cmd.ParseFlags([]string{
		"--port", "9000",
		"--env", "production",
		"--api-keys", "a, b,,",
		"--rate-limit", "0",
		"--db-type", "pgx",
		"--db-conn", "postgres://localhost/cellmap",
	}))

	cfg := opts.config()
	assert.Equal(t, 9000, cfg.Port)
	assert.Equal(t, appconf.Production, cfg.Env)
	assert.Equal(t, []string{"a", "b"}, cfg.ApiKeys)
	assert.Zero(t, cfg.RateLimit)
	assert.Equal(t, "pgx", cfg.DBType)
	assert.Equal(t, "postgres://localhost/cellmap", cfg.DBConn)
	assert.Equal(t, "certs", cfg.CertDir)
	assert.Empty(t, cfg.TLSDomain)
}

func TestServeDefaults(t *testing.T) {
	var opts serveOptions
	addServeFlags(&cobra.Command{Use: "serve"}, &opts)
	cfg := opts.config()
	assert.Equal(t, 8000, cfg.Port)
	assert.Equal(t, appconf.Development, cfg.Env)
	assert.Empty(t, cfg.ApiKeys)
	assert.Equal(t, 100, cfg.RateLimit)
	assert.Equal(t, "sqlite", cfg.DBType)
	assert.Equal(t, "profiles.db", cfg.DBPath)
}

func TestServeRejectsBadStore(t *testing.T) {
	err := runServe(context.Background(), appconf.Config{DBType: "oracle"}, &bytes.Buffer{})
	assert.ErrorContains(t, err, "unsupported database type: oracle")
}

func TestServeStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()
	cfg := appconf.Config{Env: appconf.Test, DBType: "sqlite", DBPath: ":memory:", Port: 0}
	assert.NoError(t, runServe(ctx, cfg, &bytes.Buffer{}))
}
