package usecases

import (
	"math"
	"sort"

	"github.com/samirrijal/ipmap/internal/core/domain"
)

// Aggregate groups records sharing an exact coordinate into clusters.
//
// Records with a zero or NaN latitude or longitude carry no usable location and
// are skipped. Each cluster keeps the descriptive fields of the first record seen
// at its location and lists its members in input order. The result is sorted by
// ascending count; clusters with equal counts keep first-seen order, so denser
// markers end up drawn on top. The result is never nil.
func Aggregate(records []domain.ObservationRecord) []domain.LocationCluster {
	clusters := make([]domain.LocationCluster, 0)
	byPoint := make(map[domain.GeoPoint]int)

	for _, r := range records {
		if !hasLocation(r) {
			continue
		}
		key := r.Location()
		member := domain.Member{ID: r.ID, IPAddress: r.IPAddress}

		if i, ok := byPoint[key]; ok {
			clusters[i].Members = append(clusters[i].Members, member)
			clusters[i].Count++
			continue
		}

		byPoint[key] = len(clusters)
		clusters = append(clusters, domain.LocationCluster{
			Location:        key,
			City:            r.City,
			State:           r.State,
			CountryOrRegion: r.CountryOrRegion,
			Count:           1,
			Members:         []domain.Member{member},
		})
	}

	sort.SliceStable(clusters, func(i, j int) bool {
		return clusters[i].Count < clusters[j].Count
	})
	return clusters
}

func hasLocation(r domain.ObservationRecord) bool {
	if r.Latitude == 0 || r.Longitude == 0 {
		return false
	}
	return !math.IsNaN(r.Latitude) && !math.IsNaN(r.Longitude)
}
