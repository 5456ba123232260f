package mapview

import (
	"github.com/couchcryptid/quake-map-service/internal/domain"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

// MarkersGeoJSON converts markers to a 2D GeoJSON FeatureCollection with the
// visual encoding carried in each feature's properties.
func MarkersGeoJSON(markers []domain.Marker) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	for _, m := range markers {
		f := geojson.NewFeature(orb.Point{m.Position.Lon, m.Position.Lat})
		f.ID = m.ID
		f.Properties["magnitude"] = m.Magnitude
		f.Properties["depth_km"] = m.DepthKm
		f.Properties["place"] = m.Place
		f.Properties["radius"] = m.Radius
		f.Properties["fill_color"] = m.FillColor
		f.Properties["popup"] = m.PopupHTML
		fc.Append(f)
	}
	return fc
}
