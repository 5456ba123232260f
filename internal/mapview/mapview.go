// Package mapview composes encoded earthquakes into a map description: base
// tile layers, the marker and heat overlays, the depth legend and the initial
// view. The browser page and the JSON API both render from a MapView.
package mapview

import (
	"fmt"
	"time"

	"github.com/couchcryptid/quake-map-service/internal/domain"
	"github.com/golang/geo/s2"
)

// Layer and control settings for the composed map.
const (
	streetTileURL   = "https://{s}.tile.openstreetmap.org/{z}/{x}/{y}.png"
	topoTileURL     = "https://{s}.tile.opentopomap.org/{z}/{x}/{y}.png"
	tileMaxZoom     = 18
	heatRadius      = 25
	heatBlur        = 15
	heatMaxZoom     = 17
	legendPosition  = "bottomright"
	overlayMarkers  = "markers"
	overlayHeat     = "heat"
	legendRangeDash = "–"
)

// Default initial view over the contiguous United States.
var (
	DefaultCenter = domain.Position{Lat: 37.09, Lon: -95.71}
	DefaultZoom   = 5
)

// TileLayer is a selectable base layer.
type TileLayer struct {
	Name        string `json:"name"`
	URL         string `json:"url"`
	Attribution string `json:"attribution"`
	MaxZoom     int    `json:"max_zoom"`
	Default     bool   `json:"default"`
}

// Overlay is a togglable data layer.
type Overlay struct {
	Name    string `json:"name"`
	Kind    string `json:"kind"` // "markers" or "heat"
	Default bool   `json:"default"`
}

// HeatOptions configures the heat layer renderer.
type HeatOptions struct {
	Radius  int `json:"radius"`
	Blur    int `json:"blur"`
	MaxZoom int `json:"max_zoom"`
}

// LayerControl configures the base/overlay switcher.
type LayerControl struct {
	Collapsed bool `json:"collapsed"`
}

// LegendRow is one depth bucket in the legend.
type LegendRow struct {
	Min   float64 `json:"min"`
	Label string  `json:"label"`
	Color string  `json:"color"`
}

// Legend is the fixed depth key.
type Legend struct {
	Position string      `json:"position"`
	Title    string      `json:"title"`
	Rows     []LegendRow `json:"rows"`
}

// View is the initial map viewport.
type View struct {
	Center domain.Position `json:"center"`
	Zoom   int             `json:"zoom"`
}

// Bounds is a south-west / north-east box. West may exceed East when the
// data straddles the antimeridian.
type Bounds struct {
	South float64 `json:"south"`
	West  float64 `json:"west"`
	North float64 `json:"north"`
	East  float64 `json:"east"`
}

// MapView is everything needed to draw the map.
type MapView struct {
	View         View               `json:"view"`
	BaseLayers   []TileLayer        `json:"base_layers"`
	Overlays     []Overlay          `json:"overlays"`
	LayerControl LayerControl       `json:"layer_control"`
	Legend       Legend             `json:"legend"`
	Heat         HeatOptions        `json:"heat"`
	Bounds       *Bounds            `json:"bounds,omitempty"`
	Markers      []domain.Marker    `json:"markers"`
	HeatPoints   []domain.HeatPoint `json:"heat_points"`
}

// Options configures a Composer.
type Options struct {
	Center domain.Position
	Zoom   int
	Scale  domain.DepthScale
}

// DefaultOptions returns the continental US view with the default depth scale.
func DefaultOptions() Options {
	return Options{Center: DefaultCenter, Zoom: DefaultZoom}
}

// Composer builds MapViews from earthquakes.
type Composer struct {
	view    View
	encoder *domain.Encoder
	legend  Legend
}

// NewComposer creates a Composer. Center and Zoom are used as given; a nil
// Scale uses domain.DefaultDepthScale.
func NewComposer(opts Options) *Composer {
	encoder := domain.NewEncoder(opts.Scale)
	return &Composer{
		view:    View{Center: opts.Center, Zoom: opts.Zoom},
		encoder: encoder,
		legend:  BuildLegend(encoder.Scale()),
	}
}

// Legend returns the legend built from the composer's depth scale.
func (c *Composer) Legend() Legend {
	return c.legend
}

// Compose encodes quakes and assembles the map.
func (c *Composer) Compose(quakes []domain.Earthquake) MapView {
	return MapView{
		View: c.view,
		BaseLayers: []TileLayer{
			{
				Name:        "Street Map",
				URL:         streetTileURL,
				Attribution: "&copy; OpenStreetMap contributors",
				MaxZoom:     tileMaxZoom,
				Default:     true,
			},
			{
				Name:        "Satellite Map",
				URL:         topoTileURL,
				Attribution: "&copy; OpenTopoMap (CC-BY-SA)",
				MaxZoom:     tileMaxZoom,
			},
		},
		Overlays: []Overlay{
			{Name: "Earthquakes", Kind: overlayMarkers, Default: true},
			{Name: "Heatmap", Kind: overlayHeat, Default: true},
		},
		LayerControl: LayerControl{Collapsed: false},
		Legend:       c.legend,
		Heat:         HeatOptions{Radius: heatRadius, Blur: heatBlur, MaxZoom: heatMaxZoom},
		Bounds:       DataBounds(quakes),
		Markers:      c.encoder.EncodeAll(quakes),
		HeatPoints:   domain.HeatPoints(quakes),
	}
}

// BuildLegend produces one row per bucket, ascending, labelled "a–b" for
// closed ranges and "a+" for the deepest bucket.
func BuildLegend(scale domain.DepthScale) Legend {
	rows := make([]LegendRow, len(scale))
	for i, b := range scale {
		label := formatDepth(b.Min) + "+"
		if i+1 < len(scale) {
			label = formatDepth(b.Min) + legendRangeDash + formatDepth(scale[i+1].Min)
		}
		rows[i] = LegendRow{Min: b.Min, Label: label, Color: b.Color}
	}
	return Legend{Position: legendPosition, Title: "Depth (km)", Rows: rows}
}

// DataBounds returns the smallest lat/lon box on the sphere containing every
// earthquake, or nil for an empty slice.
func DataBounds(quakes []domain.Earthquake) *Bounds {
	if len(quakes) == 0 {
		return nil
	}
	rect := s2.EmptyRect()
	for _, q := range quakes {
		rect = rect.AddPoint(s2.LatLngFromDegrees(q.Position.Lat, q.Position.Lon))
	}
	lo, hi := rect.Lo(), rect.Hi()
	return &Bounds{
		South: lo.Lat.Degrees(),
		West:  lo.Lng.Degrees(),
		North: hi.Lat.Degrees(),
		East:  hi.Lng.Degrees(),
	}
}

// Snapshot is the result of one full reload of the feed.
type Snapshot struct {
	Title       string              `json:"title"`
	FetchedAt   time.Time           `json:"fetched_at"`
	GeneratedAt time.Time           `json:"generated_at,omitzero"`
	Earthquakes []domain.Earthquake `json:"earthquakes"`
	Skipped     int                 `json:"skipped"`
	View        MapView             `json:"map"`
}

func formatDepth(v float64) string {
	return fmt.Sprintf("%g", v)
}
