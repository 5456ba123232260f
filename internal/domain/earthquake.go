package domain

import (
	"encoding/json"
	"errors"
	"time"
)

// ErrNoStoredFeed is returned by feed stores that hold nothing for a URL.
var ErrNoStoredFeed = errors.New("no stored feed document")

// Feed is the GeoJSON FeatureCollection returned by the USGS summary feeds.
// Only the fields the map needs are decoded.
type Feed struct {
	Type     string        `json:"type"`
	Metadata FeedMetadata  `json:"metadata"`
	Features []FeedFeature `json:"features"`
}

// FeedMetadata describes the feed document itself.
type FeedMetadata struct {
	Generated int64  `json:"generated"` // epoch ms
	Title     string `json:"title"`
	Count     int    `json:"count"`
}

// FeedFeature is one event as it appears on the wire. Mag is a pointer
// because the feed emits null for events without a reviewed magnitude.
type FeedFeature struct {
	ID         string         `json:"id"`
	Geometry   FeedGeometry   `json:"geometry"`
	Properties FeedProperties `json:"properties"`
}

// FeedGeometry holds [lon, lat, depthKm].
type FeedGeometry struct {
	Type        string    `json:"type"`
	Coordinates []float64 `json:"coordinates"`
}

// FeedProperties holds the per-event attributes.
type FeedProperties struct {
	Mag   *float64 `json:"mag"`
	Place string   `json:"place"`
	Time  int64    `json:"time"`
	URL   string   `json:"url"`
}

// Position is a WGS-84 latitude/longitude pair.
type Position struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Earthquake is one validated feed record. It is never mutated after
// parsing except by place enrichment, which returns a copy.
type Earthquake struct {
	ID        string    `json:"id"`
	Position  Position  `json:"position"`
	DepthKm   float64   `json:"depth_km"`
	Magnitude float64   `json:"magnitude"`
	Place     string    `json:"place"`
	Time      time.Time `json:"time,omitzero"`
	URL       string    `json:"url,omitempty"`

	// PlaceSource records where Place came from: "feed", "reverse" or "failed".
	// Empty when no geocoder is configured.
	PlaceSource string `json:"place_source,omitempty"`
}

// Marker is the visual encoding of one earthquake.
type Marker struct {
	ID          string   `json:"id"`
	Position    Position `json:"position"`
	Radius      float64  `json:"radius"`
	FillColor   string   `json:"fill_color"`
	PopupHTML   string   `json:"popup_html"`
	Color       string   `json:"color"`
	Weight      float64  `json:"weight"`
	Opacity     float64  `json:"opacity"`
	FillOpacity float64  `json:"fill_opacity"`

	Magnitude float64 `json:"magnitude"`
	DepthKm   float64 `json:"depth_km"`
	Place     string  `json:"place"`
}

// HeatPoint is a weighted point for the heat layer.
type HeatPoint struct {
	Lat       float64
	Lon       float64
	Intensity float64
}

// MarshalJSON encodes the point as [lat, lon, intensity], the tuple form
// Leaflet.heat consumes.
func (h HeatPoint) MarshalJSON() ([]byte, error) {
	return json.Marshal([3]float64{h.Lat, h.Lon, h.Intensity})
}

// UnmarshalJSON decodes the [lat, lon, intensity] tuple form.
func (h *HeatPoint) UnmarshalJSON(data []byte) error {
	var t [3]float64
	if err := json.Unmarshal(data, &t); err != nil {
		return err
	}
	h.Lat, h.Lon, h.Intensity = t[0], t[1], t[2]
	return nil
}

// FeedDocument is a raw feed body as fetched, kept so a restart can rebuild
// the map without reaching the feed.
type FeedDocument struct {
	URL       string
	FetchedAt time.Time
	Body      []byte
}
