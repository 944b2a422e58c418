package models

import (
	"encoding/json"
	"maps"
	"slices"
	"strings"
)

// Mapping ties each semantic field to a dataset column. Empty means unmapped.
type Mapping struct {
	Latitude  string `json:"latitude"`
	Longitude string `json:"longitude"`
	SiteName  string `json:"site_name"`
	CellName  string `json:"cell_name"`
	Earfcn    string `json:"earfcn"`
	Azimuth   string `json:"azimuth"`
	Beamwidth string `json:"beamwidth"`
}

// HasCoordinates reports whether both latitude and longitude are mapped.
func (m Mapping) HasCoordinates() bool {
	return m.Latitude != "" && m.Longitude != ""
}

// IsEmpty reports whether no field is mapped at all.
func (m Mapping) IsEmpty() bool {
	return m == Mapping{}
}

// Label positions accepted by LabelConfig.Position.
const (
	LabelCenter = "center"
	LabelAbove  = "above"
	LabelBelow  = "below"
)

// LabelConfig controls the site and cell labels drawn on the map and in KML.
type LabelConfig struct {
	SiteField      string  `json:"site_field"`
	CellField      string  `json:"cell_field"`
	UseSiteForCell bool    `json:"use_site_for_cell"`
	HideCellLabel  bool    `json:"hide_cell_label"`
	ShowLabel      bool    `json:"show_label"`
	TextScale      float64 `json:"text_scale"`
	TextColor      string  `json:"text_color"`
	Shadow         bool    `json:"shadow"`
	Position       string  `json:"position"`
	Template       string  `json:"template"`
}

// DefaultLabelConfig returns white, unscaled, centred, visible labels.
func DefaultLabelConfig() LabelConfig {
	return LabelConfig{
		ShowLabel: true,
		TextScale: 1.0,
		TextColor: "ffffff",
		Position:  LabelCenter,
	}
}

// UnmarshalJSON fills omitted fields with DefaultLabelConfig and stores the
// text colour without its leading '#'.
func (l *LabelConfig) UnmarshalJSON(b []byte) error {
	type plain LabelConfig
	p := plain(DefaultLabelConfig())
	if err := json.Unmarshal(b, &p); err != nil {
		return err
	}
	*l = LabelConfig(p)
	l.TextColor = strings.TrimLeft(l.TextColor, "#")
	return nil
}

// ActiveConfig is everything map rendering and exports depend on. It is the
// set-config payload and the body of a saved profile.
type ActiveConfig struct {
	Mapping            Mapping            `json:"mapping"`
	ExtraFields        []string           `json:"extra_fields"`
	Scale              float64            `json:"scale"`
	BandScaleOverrides map[string]float64 `json:"band_scale_overrides"`
	BeamwidthOverrides map[string]float64 `json:"beamwidth_overrides"`
	LabelConfig        LabelConfig        `json:"label_config"`
}

// InitialScale is the radius scale in effect before any configuration is set.
const InitialScale = 0.5

// NewActiveConfig returns the configuration in effect right after start-up.
func NewActiveConfig() ActiveConfig {
	return ActiveConfig{
		ExtraFields:        []string{},
		Scale:              InitialScale,
		BandScaleOverrides: map[string]float64{},
		BeamwidthOverrides: map[string]float64{},
		LabelConfig:        DefaultLabelConfig(),
	}
}

// Clone returns a copy that shares no maps or slices with c.
func (c ActiveConfig) Clone() ActiveConfig {
	out := c
	out.ExtraFields = slices.Clone(c.ExtraFields)
	out.BandScaleOverrides = maps.Clone(c.BandScaleOverrides)
	out.BeamwidthOverrides = maps.Clone(c.BeamwidthOverrides)
	return out
}

// UnmarshalJSON defaults an omitted scale to 1 and omitted labels to
// DefaultLabelConfig.
func (c *ActiveConfig) UnmarshalJSON(b []byte) error {
	type plain ActiveConfig
	p := plain{Scale: 1.0, LabelConfig: DefaultLabelConfig()}
	if err := json.Unmarshal(b, &p); err != nil {
		return err
	}
	*c = ActiveConfig(p)
	if c.ExtraFields == nil {
		c.ExtraFields = []string{}
	}
	if c.BandScaleOverrides == nil {
		c.BandScaleOverrides = map[string]float64{}
	}
	if c.BeamwidthOverrides == nil {
		c.BeamwidthOverrides = map[string]float64{}
	}
	return nil
}
