package usecases

import (
	"github.com/samirrijal/ipmap/internal/core/domain"
	"github.com/samirrijal/ipmap/internal/pkg/geospatial"
)

// DefaultFramingPadding is the margin, in display units, kept around the framed
// extent.
const DefaultFramingPadding = 50

// Frame returns the smallest region containing every cluster location. No
// clusters gives the empty region.
func Frame(clusters []domain.LocationCluster) geospatial.Region {
	var r geospatial.Region
	for _, c := range clusters {
		r.Extend(pointOf(c.Location))
	}
	return r
}

// NewFraming describes how the map view should be fitted once at startup. Padding
// is reported alongside the extent and never added to it. When region is empty
// Fit is false and the view must be left alone.
func NewFraming(region geospatial.Region, padding int) domain.Framing {
	if padding < 0 {
		padding = 0
	}
	f := domain.Framing{Padding: padding}
	if region.IsEmpty() {
		return f
	}

	f.Fit = true
	f.Bounds = BoundsOf(region)
	if c, ok := region.Center(); ok {
		f.Center = &domain.GeoPoint{Lat: c.Lat(), Lng: c.Lon()}
	}
	f.SpanKm = geospatial.DiagonalKm(region)
	return f
}
