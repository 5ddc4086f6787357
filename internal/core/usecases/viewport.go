package usecases

import (
	"github.com/paulmach/orb"

	"github.com/samirrijal/ipmap/internal/core/domain"
	"github.com/samirrijal/ipmap/internal/pkg/geospatial"
)

// FilterVisible returns the clusters whose location lies inside region, edges
// included, preserving their relative order. An empty region (no viewport
// available yet) yields an empty, non-nil result.
func FilterVisible(clusters []domain.LocationCluster, region geospatial.Region) []domain.LocationCluster {
	out := make([]domain.LocationCluster, 0)
	if region.IsEmpty() {
		return out
	}
	for _, c := range clusters {
		if region.Contains(pointOf(c.Location)) {
			out = append(out, c)
		}
	}
	return out
}

// RegionFromBounds converts transport bounds into a region.
func RegionFromBounds(b domain.Bounds) geospatial.Region {
	return geospatial.NewRegion(b.South, b.West, b.North, b.East)
}

// BoundsOf converts a region into transport bounds; nil for the empty region.
func BoundsOf(r geospatial.Region) *domain.Bounds {
	if r.IsEmpty() {
		return nil
	}
	return &domain.Bounds{South: r.South(), West: r.West(), North: r.North(), East: r.East()}
}

func pointOf(p domain.GeoPoint) orb.Point {
	return orb.Point{p.Lng, p.Lat}
}
