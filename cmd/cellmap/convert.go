package main

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"mobkml.dev/cellmap/internal/colmap"
	"mobkml.dev/cellmap/internal/dataset"
	"mobkml.dev/cellmap/internal/export"
	"mobkml.dev/cellmap/internal/logging"
	"mobkml.dev/cellmap/internal/models"
	"mobkml.dev/cellmap/internal/render"
)

// now is replaced in tests.
var now = time.Now

// loadInput reads a spreadsheet and the configuration to render it with: the
// profile file when given, else the initial configuration. An empty mapping
// is guessed from the columns.
func loadInput(input, profilePath string, logger *slog.Logger) (*dataset.Table, models.ActiveConfig, error) {
	f, err := os.Open(input)
	if err != nil {
		return nil, models.ActiveConfig{}, err
	}
	defer logging.SafeCloseWithLogging(f, logger, "input file")

	table, _, err := dataset.Load(f, filepath.Base(input))
	if err != nil {
		return nil, models.ActiveConfig{}, fmt.Errorf("loading %s: %w", input, err)
	}

	cfg := models.NewActiveConfig()
	if profilePath != "" {
		raw, err := os.ReadFile(profilePath)
		if err != nil {
			return nil, models.ActiveConfig{}, err
		}
		if err := json.Unmarshal(raw, &cfg); err != nil {
			return nil, models.ActiveConfig{}, fmt.Errorf("reading profile %s: %w", profilePath, err)
		}
	}
	if cfg.Mapping.IsEmpty() {
		cfg.Mapping = colmap.AutoMap(table.Columns)
	}
	return table, cfg, nil
}

func cliLogger(cmd *cobra.Command) *slog.Logger {
	return logging.NewTextLogger(cmd.ErrOrStderr(), slog.LevelWarn)
}

func newKMLCmd() *cobra.Command {
	var (
		output  string
		profile string
		kmz     bool
	)
	cmd := &cobra.Command{
		Use:   "kml INPUT",
		Short: "Convert a spreadsheet to KML or KMZ",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) (err error) {
			logger := cliLogger(cmd)
			table, cfg, err := loadInput(args[0], profile, logger)
			if err != nil {
				return err
			}
			if !cfg.Mapping.HasCoordinates() {
				return render.ErrMissingCoordinates
			}

			date := now()
			if output == "" {
				output = export.KMLFilename(date)
				if kmz {
					output = export.KMZFilename(date)
				}
			}

			f, err := os.Create(output)
			if err != nil {
				return err
			}
			defer logging.HandleDeferredError(&err, f.Close, logger, "closing "+output)

			r := render.New(table, cfg)
			if kmz {
				err = export.WriteKMZ(f, r, date)
			} else {
				err = export.WriteKML(f, r, date)
			}
			if err != nil {
				return fmt.Errorf("writing %s: %w", output, err)
			}

			fmt.Fprintln(cmd.OutOrStdout(), successStyle.Render(fmt.Sprintf("Wrote %d cells to %s", len(r.Cells()), output)))
			return nil
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "Output file (default cell_sites_<date>.kml or .kmz)")
	cmd.Flags().StringVar(&profile, "profile", "", "Profile JSON file with the mapping and styling to use")
	cmd.Flags().BoolVar(&kmz, "kmz", false, "Write a zipped KMZ instead of KML")
	return cmd
}

func newReportCmd() *cobra.Command {
	var profile string
	cmd := &cobra.Command{
		Use:   "report INPUT",
		Short: "Print a summary report of a spreadsheet",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			table, cfg, err := loadInput(args[0], profile, cliLogger(cmd))
			if err != nil {
				return err
			}

			s := export.Summarize(table, cfg.Mapping, filepath.Base(args[0]))
			lines := []string{
				titleStyle.Render(export.ReportTitle),
				field("Date", now().Format(time.DateOnly)),
				field("Source", s.Source),
				field("Total rows", fmt.Sprint(s.Rows)),
				field("Total sites", fmt.Sprint(s.Sites)),
			}
			if len(s.Bands) > 0 {
				lines = append(lines, "", labelStyle.Render("Band distribution:"))
				for _, b := range s.Bands {
					lines = append(lines, "  "+field(b.Label, fmt.Sprint(b.Count)))
				}
			}
			fmt.Fprintln(cmd.OutOrStdout(), boxStyle.Render(strings.Join(lines, "\n")))
			return nil
		},
	}
	cmd.Flags().StringVar(&profile, "profile", "", "Profile JSON file with the mapping to use")
	return cmd
}
