// Package domain models USGS earthquake feed data and the visual encoding
// used to draw it on a map.
//
// # Data Source
//
// Events come from the USGS real-time GeoJSON summary feeds, by default the
// "significant earthquakes, past month" feed at
// https://earthquake.usgs.gov/earthquakes/feed/v1.0/summary/significant_month.geojson.
// The feed is a FeatureCollection; each feature is one event.
//
// # USGS Feed Conventions
//
// Geometry:
//
//	"coordinates": [longitude, latitude, depth]
//	Longitude comes first. Depth is kilometres below the surface and may be
//	slightly negative for events above the reference ellipsoid.
//
// Properties used here:
//
//	mag    magnitude, may be null for events still under review, may be
//	       negative for very small events
//	place  free text, e.g. "10km SSE of Example Town"; untrusted
//	time   origin time in milliseconds since the Unix epoch
//	url    event page on earthquake.usgs.gov
//
// # Visual Encoding
//
// Marker radius is magnitude*4 with no clamping. Fill color is a step
// function of depth over six buckets with breakpoints 10, 30, 50, 70 and 90
// km, evaluated from the deepest bucket down; the first bucket whose lower
// bound is strictly exceeded wins and anything at or below 10 km falls into
// the shallowest bucket. The legend uses the same table, so marker colors and
// legend rows cannot drift apart.
package domain
