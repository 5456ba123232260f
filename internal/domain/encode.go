package domain

import (
	"errors"
	"fmt"
	"html"
	"regexp"
	"strconv"
	"strings"
)

// Fixed marker stroke style.
const (
	markerStrokeColor = "#000"
	markerWeight      = 1
	markerOpacity     = 1
	markerFillOpacity = 0.8

	// radiusScale converts magnitude to marker radius in pixels.
	radiusScale = 4
)

// hexColorRe accepts #rgb and #rrggbb.
var hexColorRe = regexp.MustCompile(`^#(?:[0-9a-fA-F]{3}|[0-9a-fA-F]{6})$`)

// DepthBucket maps depths above Min (km) to Color. The first bucket of a
// scale also catches everything at or below the second bucket's Min.
type DepthBucket struct {
	Min   float64 `json:"min"`
	Color string  `json:"color"`
}

// DepthScale is an ascending list of depth buckets.
type DepthScale []DepthBucket

// DefaultDepthScale is the six-bucket table used for markers and the legend.
var DefaultDepthScale = DepthScale{
	{Min: 0, Color: "#a3f600"},
	{Min: 10, Color: "#dcf400"},
	{Min: 30, Color: "#f7db11"},
	{Min: 50, Color: "#fdb72a"},
	{Min: 70, Color: "#fca35d"},
	{Min: 90, Color: "#ff5f65"},
}

// ParseDepthScale parses "min:color,min:color,..." into a DepthScale.
// Breakpoints must be strictly ascending and colors must be hex.
func ParseDepthScale(s string) (DepthScale, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, errors.New("depth scale is empty")
	}

	parts := strings.Split(s, ",")
	scale := make(DepthScale, 0, len(parts))
	for _, part := range parts {
		minStr, color, ok := strings.Cut(strings.TrimSpace(part), ":")
		if !ok {
			return nil, fmt.Errorf("depth bucket %q: want min:color", part)
		}
		lower, err := strconv.ParseFloat(strings.TrimSpace(minStr), 64)
		if err != nil {
			return nil, fmt.Errorf("depth bucket %q: %w", part, err)
		}
		scale = append(scale, DepthBucket{Min: lower, Color: strings.TrimSpace(color)})
	}

	if err := scale.Validate(); err != nil {
		return nil, err
	}
	return scale, nil
}

// Validate reports whether the scale has at least one bucket, ascending
// breakpoints and hex colors.
func (s DepthScale) Validate() error {
	if len(s) == 0 {
		return errors.New("depth scale has no buckets")
	}
	for i, b := range s {
		if !hexColorRe.MatchString(b.Color) {
			return fmt.Errorf("depth bucket %d: invalid color %q", i, b.Color)
		}
		if i > 0 && b.Min <= s[i-1].Min {
			return fmt.Errorf("depth bucket %d: breakpoint %g not above %g", i, b.Min, s[i-1].Min)
		}
	}
	return nil
}

// Color returns the fill color for a depth. Buckets are checked from the
// deepest down and the first whose Min is strictly exceeded wins; depths that
// exceed none of them get the shallowest bucket's color.
func (s DepthScale) Color(depthKm float64) string {
	if len(s) == 0 {
		return ""
	}
	for i := len(s) - 1; i > 0; i-- {
		if depthKm > s[i].Min {
			return s[i].Color
		}
	}
	return s[0].Color
}

// FillColor returns the marker fill color for a depth using DefaultDepthScale.
func FillColor(depthKm float64) string {
	return DefaultDepthScale.Color(depthKm)
}

// Radius returns the marker radius for a magnitude. Zero and negative
// magnitudes produce zero and negative radii.
func Radius(magnitude float64) float64 {
	return magnitude * radiusScale
}

// PopupHTML renders the marker popup. place is escaped; numbers use the
// shortest decimal representation.
func PopupHTML(magnitude float64, place string, depthKm float64) string {
	return "<h3>Magnitude: " + formatNumber(magnitude) + "</h3><hr>" +
		"<p>Location: " + html.EscapeString(place) + "</p>" +
		"<p>Depth: " + formatNumber(depthKm) + " km</p>"
}

// Encoder turns earthquakes into markers using a depth scale.
type Encoder struct {
	scale DepthScale
}

// NewEncoder creates an Encoder. A nil or empty scale uses DefaultDepthScale.
func NewEncoder(scale DepthScale) *Encoder {
	if len(scale) == 0 {
		scale = DefaultDepthScale
	}
	return &Encoder{scale: scale}
}

// Scale returns the depth scale used for fill colors.
func (e *Encoder) Scale() DepthScale {
	return e.scale
}

// Encode produces the marker for one earthquake.
func (e *Encoder) Encode(q Earthquake) Marker {
	return Marker{
		ID:          q.ID,
		Position:    q.Position,
		Radius:      Radius(q.Magnitude),
		FillColor:   e.scale.Color(q.DepthKm),
		PopupHTML:   PopupHTML(q.Magnitude, q.Place, q.DepthKm),
		Color:       markerStrokeColor,
		Weight:      markerWeight,
		Opacity:     markerOpacity,
		FillOpacity: markerFillOpacity,
		Magnitude:   q.Magnitude,
		DepthKm:     q.DepthKm,
		Place:       q.Place,
	}
}

// EncodeAll encodes every earthquake, preserving order.
func (e *Encoder) EncodeAll(quakes []Earthquake) []Marker {
	markers := make([]Marker, len(quakes))
	for i := range quakes {
		markers[i] = e.Encode(quakes[i])
	}
	return markers
}

// HeatPoints returns one (lat, lon, magnitude) point per earthquake, in order.
func HeatPoints(quakes []Earthquake) []HeatPoint {
	points := make([]HeatPoint, len(quakes))
	for i, q := range quakes {
		points[i] = HeatPoint{Lat: q.Position.Lat, Lon: q.Position.Lon, Intensity: q.Magnitude}
	}
	return points
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
