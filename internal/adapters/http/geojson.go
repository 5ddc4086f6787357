package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"github.com/samirrijal/ipmap/internal/core/domain"
)

// GeoJSONHandler returns clusters as a GeoJSON FeatureCollection of points,
// optionally restricted to south/west/north/east bounds.
func GeoJSONHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		region, err := parseRegion(c, false)
		if err != nil {
			return errBadRequest(c, err.Error())
		}

		clusters := deps.Clusters.Snapshot().Clusters()
		if !region.IsEmpty() {
			clusters = deps.Clusters.Visible(region)
		}

		data, err := markersToGeoJSON(deps.Clusters.Markers(clusters)).MarshalJSON()
		if err != nil {
			return errInternal(c, err.Error())
		}
		c.Set(fiber.HeaderContentType, "application/geo+json")
		return c.Send(data)
	}
}

func markersToGeoJSON(markers []domain.Marker) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	for _, m := range markers {
		f := geojson.NewFeature(orb.Point{m.Cluster.Location.Lng, m.Cluster.Location.Lat})
		f.Properties["count"] = m.Cluster.Count
		f.Properties["tier"] = string(m.Density.Tier)
		f.Properties["band"] = m.Density.Band
		f.Properties["size_hint"] = m.Density.SizeHint
		if m.Density.ShowLabel {
			f.Properties["label"] = m.Density.Label
		}
		if m.Cluster.City != "" {
			f.Properties["city"] = m.Cluster.City
		}
		if m.Cluster.State != "" {
			f.Properties["state"] = m.Cluster.State
		}
		if m.Cluster.CountryOrRegion != "" {
			f.Properties["country_or_region"] = m.Cluster.CountryOrRegion
		}
		fc.Append(f)
	}
	return fc
}
