package domain

import (
	"context"
	"log/slog"
)

// Place source labels.
const (
	PlaceSourceFeed    = "feed"
	PlaceSourceReverse = "reverse"
	PlaceSourceFailed  = "failed"
)

// EnrichWithGeocoding fills in Place for an earthquake the feed left
// unlabelled. If geocoder is nil the earthquake is returned unchanged; on a
// lookup failure the original (empty) place is kept and PlaceSource is
// "failed".
func EnrichWithGeocoding(ctx context.Context, q Earthquake, geocoder Geocoder, logger *slog.Logger) Earthquake {
	if geocoder == nil {
		return q
	}
	if q.Place != "" {
		q.PlaceSource = PlaceSourceFeed
		return q
	}

	result, err := geocoder.ReverseGeocode(ctx, q.Position.Lat, q.Position.Lon)
	if err != nil {
		logger.Warn("reverse geocoding failed",
			"earthquake_id", q.ID,
			"lat", q.Position.Lat,
			"lon", q.Position.Lon,
			"error", err,
		)
		q.PlaceSource = PlaceSourceFailed
		return q
	}
	if result.FormattedAddress == "" {
		q.PlaceSource = PlaceSourceFeed
		return q
	}

	logger.Debug("reverse geocoded earthquake",
		"earthquake_id", q.ID,
		"place", result.FormattedAddress,
		"relevance", result.Confidence,
	)
	q.Place = result.FormattedAddress
	q.PlaceSource = PlaceSourceReverse
	return q
}

// EnrichAllWithGeocoding applies EnrichWithGeocoding to every earthquake,
// stopping early only if ctx is cancelled.
func EnrichAllWithGeocoding(ctx context.Context, quakes []Earthquake, geocoder Geocoder, logger *slog.Logger) []Earthquake {
	if geocoder == nil {
		return quakes
	}
	out := make([]Earthquake, len(quakes))
	for i, q := range quakes {
		if ctx.Err() != nil {
			copy(out[i:], quakes[i:])
			break
		}
		out[i] = EnrichWithGeocoding(ctx, q, geocoder, logger)
	}
	return out
}
