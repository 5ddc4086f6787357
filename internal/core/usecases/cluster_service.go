package usecases

import (
	"context"
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/samirrijal/ipmap/internal/core/domain"
	"github.com/samirrijal/ipmap/internal/core/ports"
	"github.com/samirrijal/ipmap/internal/pkg/geospatial"
	"github.com/samirrijal/ipmap/internal/pkg/metrics"
	"github.com/samirrijal/ipmap/internal/pkg/telemetry"
)

// ClusterService answers stateless queries against the loaded snapshot.
type ClusterService struct {
	snapshot   *ClusterSnapshot
	classifier *DensityClassifier
	cache      ports.CacheService
	cacheTTL   time.Duration
	padding    int
}

// NewClusterService creates a new ClusterService. cache may be nil.
func NewClusterService(snapshot *ClusterSnapshot, classifier *DensityClassifier, cache ports.CacheService, cacheTTL time.Duration, padding int) *ClusterService {
	if cacheTTL <= 0 {
		cacheTTL = 5 * time.Minute
	}
	return &ClusterService{
		snapshot:   snapshot,
		classifier: classifier,
		cache:      cache,
		cacheTTL:   cacheTTL,
		padding:    padding,
	}
}

// Snapshot returns the snapshot the service answers from.
func (s *ClusterService) Snapshot() *ClusterSnapshot { return s.snapshot }

// List returns a page of clusters in ascending count order and the total count.
func (s *ClusterService) List(offset, limit int) ([]domain.LocationCluster, int) {
	all := s.snapshot.Clusters()
	total := len(all)
	if offset < 0 {
		offset = 0
	}
	if offset >= total {
		return []domain.LocationCluster{}, total
	}
	end := total
	if limit > 0 && offset+limit < total {
		end = offset + limit
	}
	return all[offset:end], total
}

// Visible returns the clusters inside region.
func (s *ClusterService) Visible(region geospatial.Region) []domain.LocationCluster {
	return s.snapshot.Visible(region)
}

// VisibleMarkers returns the markers inside region, read through the cache.
func (s *ClusterService) VisibleMarkers(ctx context.Context, region geospatial.Region) ([]domain.Marker, error) {
	ctx, span := telemetry.Tracer().Start(ctx, telemetry.SpanViewportQuery)
	defer span.End()

	if region.IsEmpty() {
		return []domain.Marker{}, nil
	}

	// Try cache
	cacheKey := visibleCacheKey(s.snapshot.FingerprintHex(), region)
	if s.cache != nil {
		if data, err := s.cache.Get(ctx, cacheKey); err == nil {
			var markers []domain.Marker
			if err := json.Unmarshal(data, &markers); err == nil {
				metrics.CacheHits.WithLabelValues("visible").Inc()
				span.SetAttributes(attribute.Bool("cache.hit", true))
				return markers, nil
			}
		}
		metrics.CacheMisses.WithLabelValues("visible").Inc()
	}

	markers := s.classifier.Markers(s.snapshot.Visible(region))
	span.SetAttributes(attribute.Int("clusters.visible", len(markers)))

	if s.cache != nil {
		if data, err := json.Marshal(markers); err == nil {
			_ = s.cache.Set(ctx, cacheKey, data, int(s.cacheTTL.Seconds()))
		}
	}

	return markers, nil
}

// Markers annotates clusters with their density.
func (s *ClusterService) Markers(clusters []domain.LocationCluster) []domain.Marker {
	return s.classifier.Markers(clusters)
}

// Framing returns the initial extent for a freshly opened map.
func (s *ClusterService) Framing() domain.Framing {
	return NewFraming(s.snapshot.Frame(), s.padding)
}

// Classify classifies an arbitrary count.
func (s *ClusterService) Classify(count int) (domain.Density, error) {
	return s.classifier.Classify(count)
}

// Lookup returns the cluster at exactly p.
func (s *ClusterService) Lookup(p domain.GeoPoint) (domain.LocationCluster, error) {
	c, ok := s.snapshot.Lookup(p)
	if !ok {
		return domain.LocationCluster{}, ErrClusterNotFound
	}
	return c, nil
}

// visibleCacheKey names a cached viewport answer. Edges are written exactly:
// regions differing in any bit must not share an entry.
func visibleCacheKey(fingerprint string, r geospatial.Region) string {
	var b strings.Builder
	b.WriteString("clusters:visible:")
	b.WriteString(fingerprint)
	for _, v := range [4]float64{r.South(), r.West(), r.North(), r.East()} {
		b.WriteByte(':')
		b.WriteString(strconv.FormatFloat(v, 'g', -1, 64))
	}
	return b.String()
}
