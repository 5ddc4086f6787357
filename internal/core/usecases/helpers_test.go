package usecases_test

import (
	"context"
	"fmt"

	"github.com/samirrijal/ipmap/internal/core/domain"
	"github.com/samirrijal/ipmap/internal/core/usecases"
)

func rec(id string, lat, lng float64) domain.ObservationRecord {
	return domain.ObservationRecord{
		ID:        id,
		IPAddress: fmt.Sprintf("10.0.0.%s", id),
		Latitude:  lat,
		Longitude: lng,
		City:      "city-" + id,
	}
}

// scenarioRecords is two visitors at (10,20) and one at (30,40).
func scenarioRecords() []domain.ObservationRecord {
	return []domain.ObservationRecord{
		rec("1", 10, 20),
		rec("2", 10, 20),
		rec("3", 30, 40),
	}
}

func newSnapshot(records []domain.ObservationRecord) *usecases.ClusterSnapshot {
	return usecases.NewClusterSnapshot(context.Background(), records)
}
