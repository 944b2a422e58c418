package bands

// Overrides carries the per band key radius (meters) and beamwidth
// (degrees) the user set, keyed like "1800".
type Overrides struct {
	Radius    map[string]float64
	Beamwidth map[string]float64
}

// PetalRadius returns the sector radius in meters for an EARFCN value. The
// base is the override, then the band default, then DefaultRadius, and the
// result is scaled and truncated to whole meters.
func PetalRadius(earfcn string, scale float64, overrides Overrides) int {
	r, ok := Lookup(earfcn)
	if !ok {
		return int(DefaultRadius * scale)
	}
	base := float64(DefaultRadiusFor(r.Key))
	if v, ok := overrides.Radius[r.Key]; ok {
		base = v
	}
	return int(base * scale)
}

// Beamwidth returns the sector opening in degrees for an EARFCN value.
func Beamwidth(earfcn string, overrides Overrides) float64 {
	r, ok := Lookup(earfcn)
	if !ok {
		return DefaultBeamwidth
	}
	if v, ok := overrides.Beamwidth[r.Key]; ok {
		return v
	}
	return DefaultBeamwidthFor(r.Key)
}

// Info is the catalogue entry published to map clients.
type Info struct {
	Key              string  `json:"key"`
	Band             int     `json:"band"`
	Label            string  `json:"label"`
	FreqMHz          int     `json:"freq_mhz"`
	DefaultRadius    int     `json:"default_radius"`
	DefaultBeamwidth float64 `json:"default_beamwidth"`
	Color            string  `json:"color"`
}

// Catalog lists every range with its defaults, in range order.
func Catalog() []Info {
	infos := make([]Info, 0, len(Ranges))
	for _, r := range Ranges {
		infos = append(infos, Info{
			Key:              r.Key,
			Band:             r.Band,
			Label:            r.Label,
			FreqMHz:          r.FreqMHz,
			DefaultRadius:    DefaultRadiusFor(r.Key),
			DefaultBeamwidth: DefaultBeamwidthFor(r.Key),
			Color:            HexColor(r.Key),
		})
	}
	return infos
}
