package usecases_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/samirrijal/ipmap/internal/core/domain"
	"github.com/samirrijal/ipmap/internal/core/ports"
	"github.com/samirrijal/ipmap/internal/core/usecases"
	"github.com/samirrijal/ipmap/internal/pkg/geospatial"
)

// --- Mock CacheService ---

type mockCache struct {
	data map[string][]byte
	sets int
}

func newMockCache() *mockCache { return &mockCache{data: make(map[string][]byte)} }

func (m *mockCache) Get(ctx context.Context, key string) ([]byte, error) {
	if v, ok := m.data[key]; ok {
		return v, nil
	}
	return nil, errors.New("miss")
}

func (m *mockCache) Set(ctx context.Context, key string, value []byte, ttlSeconds int) error {
	m.data[key] = value
	m.sets++
	return nil
}

func newClusterService(cache *mockCache) *usecases.ClusterService {
	var c ports.CacheService
	if cache != nil {
		c = cache
	}
	return usecases.NewClusterService(
		newSnapshot(scenarioRecords()),
		usecases.NewDensityClassifier(usecases.DefaultDensityConfig),
		c, 0, usecases.DefaultFramingPadding,
	)
}

func TestClusterService_List(t *testing.T) {
	svc := newClusterService(nil)

	page, total := svc.List(0, 1)
	if total != 2 || len(page) != 1 || page[0].Count != 1 {
		t.Fatalf("unexpected first page %+v (total %d)", page, total)
	}
	page, _ = svc.List(1, 10)
	if len(page) != 1 || page[0].Count != 2 {
		t.Fatalf("unexpected second page %+v", page)
	}
	page, _ = svc.List(5, 10)
	if page == nil || len(page) != 0 {
		t.Fatalf("expected empty page past the end, got %+v", page)
	}
}

func TestClusterService_VisibleMarkersCaches(t *testing.T) {
	cache := newMockCache()
	svc := newClusterService(cache)
	region := geospatial.NewRegion(25, 35, 35, 45)

	markers, err := svc.VisibleMarkers(context.Background(), region)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(markers) != 1 || markers[0].Cluster.Count != 1 {
		t.Fatalf("unexpected markers %+v", markers)
	}
	if cache.sets != 1 {
		t.Fatalf("expected 1 cache write, got %d", cache.sets)
	}
	for k := range cache.data {
		if !strings.Contains(k, svc.Snapshot().FingerprintHex()) {
			t.Errorf("cache key %q is not namespaced by the snapshot", k)
		}
	}

	again, err := svc.VisibleMarkers(context.Background(), region)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cache.sets != 1 {
		t.Errorf("expected a cache hit, got another write")
	}
	if len(again) != 1 || again[0].Cluster.Location != markers[0].Cluster.Location {
		t.Errorf("cached markers differ: %+v", again)
	}
}

func TestClusterService_VisibleMarkersCacheKeepsExactEdges(t *testing.T) {
	cache := newMockCache()
	svc := usecases.NewClusterService(
		newSnapshot([]domain.ObservationRecord{rec("1", 30.000002, 40)}),
		usecases.NewDensityClassifier(usecases.DefaultDensityConfig),
		cache, 0, usecases.DefaultFramingPadding,
	)

	// The two south edges differ only in the sixth decimal place and
	// fall on either side of the record.
	inside := geospatial.NewRegion(30.000001, 39, 31, 41)
	outside := geospatial.NewRegion(30.000003, 39, 31, 41)

	got, err := svc.VisibleMarkers(context.Background(), inside)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("expected 1 marker inside, got %d", len(got))
	}

	got, err = svc.VisibleMarkers(context.Background(), outside)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := usecases.FilterVisible(svc.Snapshot().Clusters(), outside)
	if len(got) != len(want) || len(got) != 0 {
		t.Fatalf("expected %d markers outside, got %d", len(want), len(got))
	}
	if cache.sets != 2 {
		t.Errorf("expected a separate cache entry per region, got %d writes", cache.sets)
	}
}

func TestClusterService_VisibleMarkersEmptyRegion(t *testing.T) {
	svc := newClusterService(nil)

	markers, err := svc.VisibleMarkers(context.Background(), geospatial.Region{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if markers == nil || len(markers) != 0 {
		t.Fatalf("expected empty markers, got %+v", markers)
	}
}

func TestClusterService_Framing(t *testing.T) {
	svc := newClusterService(nil)

	f := svc.Framing()
	if !f.Fit || f.Padding != usecases.DefaultFramingPadding {
		t.Fatalf("unexpected framing %+v", f)
	}
}

func TestClusterService_Lookup(t *testing.T) {
	svc := newClusterService(nil)

	c, err := svc.Lookup(domain.GeoPoint{Lat: 10, Lng: 20})
	if err != nil || c.Count != 2 {
		t.Fatalf("unexpected lookup %+v, %v", c, err)
	}
	if _, err := svc.Lookup(domain.GeoPoint{Lat: 1, Lng: 2}); !errors.Is(err, usecases.ErrClusterNotFound) {
		t.Errorf("expected ErrClusterNotFound, got %v", err)
	}
}

func TestClusterSnapshot_Stats(t *testing.T) {
	a := newSnapshot(scenarioRecords())
	b := newSnapshot(scenarioRecords())
	c := newSnapshot(scenarioRecords()[:2])

	if a.Len() != 2 || a.RecordCount() != 3 {
		t.Errorf("unexpected stats: %d clusters, %d records", a.Len(), a.RecordCount())
	}
	if a.Fingerprint() != b.Fingerprint() {
		t.Error("expected identical inputs to fingerprint equally")
	}
	if a.Fingerprint() == c.Fingerprint() {
		t.Error("expected different inputs to fingerprint differently")
	}
}
