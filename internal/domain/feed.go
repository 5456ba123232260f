package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"time"
)

// ErrNotFeatureCollection is returned when the document decodes but is not a
// GeoJSON FeatureCollection.
var ErrNotFeatureCollection = errors.New("feed is not a FeatureCollection")

// SkippedFeature describes a feature that failed validation.
type SkippedFeature struct {
	Index  int
	ID     string
	Reason string
}

// ParsedFeed is the outcome of parsing one feed document.
type ParsedFeed struct {
	Title       string
	GeneratedAt time.Time
	Earthquakes []Earthquake
	Skipped     []SkippedFeature
}

// ParseFeed decodes a USGS GeoJSON document and validates each feature.
// Features with fewer than three coordinates, a null magnitude or a
// non-finite number are skipped and reported in Skipped; they never fail
// the whole document.
func ParseFeed(data []byte) (ParsedFeed, error) {
	var feed Feed
	if err := json.Unmarshal(data, &feed); err != nil {
		return ParsedFeed{}, fmt.Errorf("parse feed: %w", err)
	}
	if feed.Type != "" && feed.Type != "FeatureCollection" {
		return ParsedFeed{}, fmt.Errorf("%w: type %q", ErrNotFeatureCollection, feed.Type)
	}

	out := ParsedFeed{
		Title:       feed.Metadata.Title,
		Earthquakes: make([]Earthquake, 0, len(feed.Features)),
	}
	if feed.Metadata.Generated > 0 {
		out.GeneratedAt = time.UnixMilli(feed.Metadata.Generated).UTC()
	}

	for i, f := range feed.Features {
		q, err := featureToEarthquake(f)
		if err != nil {
			out.Skipped = append(out.Skipped, SkippedFeature{Index: i, ID: f.ID, Reason: err.Error()})
			continue
		}
		out.Earthquakes = append(out.Earthquakes, q)
	}
	return out, nil
}

func featureToEarthquake(f FeedFeature) (Earthquake, error) {
	c := f.Geometry.Coordinates
	if len(c) < 3 {
		return Earthquake{}, fmt.Errorf("want 3 coordinates, got %d", len(c))
	}
	if f.Properties.Mag == nil {
		return Earthquake{}, errors.New("missing magnitude")
	}
	lon, lat, depth, mag := c[0], c[1], c[2], *f.Properties.Mag
	for _, v := range [...]float64{lon, lat, depth, mag} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return Earthquake{}, errors.New("non-finite value")
		}
	}
	if lat < -90 || lat > 90 || lon < -180 || lon > 180 {
		return Earthquake{}, fmt.Errorf("position %g,%g out of range", lat, lon)
	}

	q := Earthquake{
		ID:        f.ID,
		Position:  Position{Lat: lat, Lon: lon},
		DepthKm:   depth,
		Magnitude: mag,
		Place:     f.Properties.Place,
		URL:       f.Properties.URL,
	}
	if f.Properties.Time > 0 {
		q.Time = time.UnixMilli(f.Properties.Time).UTC()
	}
	if q.ID == "" {
		q.ID = fallbackID(q)
	}
	return q, nil
}

// fallbackID derives a deterministic ID for features the feed left unnamed,
// so repeated reloads of the same document key markers identically.
func fallbackID(q Earthquake) string {
	input := fmt.Sprintf("%.4f|%.4f|%g|%g|%d", q.Position.Lat, q.Position.Lon, q.DepthKm, q.Magnitude, q.Time.UnixMilli())
	hash := sha256.Sum256([]byte(input))
	return "eq-" + hex.EncodeToString(hash[:8])
}
