package usecases

import (
	"context"
	"encoding/binary"
	"math"
	"strconv"

	"github.com/paulmach/orb"
	"github.com/zeebo/xxh3"
	"go.opentelemetry.io/otel/attribute"

	"github.com/samirrijal/ipmap/internal/core/domain"
	"github.com/samirrijal/ipmap/internal/pkg/geospatial"
	"github.com/samirrijal/ipmap/internal/pkg/metrics"
	"github.com/samirrijal/ipmap/internal/pkg/telemetry"
)

// ClusterSnapshot is the immutable result of aggregating the record set: the
// ordered clusters, an R-tree over their locations, a location lookup, the
// initial frame and a content fingerprint. It is built once and shared by every
// session and request without locking.
type ClusterSnapshot struct {
	clusters    []domain.LocationCluster
	records     int
	index       *geospatial.Index
	byPoint     map[domain.GeoPoint]int
	frame       geospatial.Region
	fingerprint uint64
}

// NewClusterSnapshot aggregates records and indexes the resulting clusters.
func NewClusterSnapshot(ctx context.Context, records []domain.ObservationRecord) *ClusterSnapshot {
	_, span := telemetry.Tracer().Start(ctx, telemetry.SpanSnapshotBuild)
	defer span.End()

	clusters := Aggregate(records)

	points := make([]orb.Point, len(clusters))
	byPoint := make(map[domain.GeoPoint]int, len(clusters))
	h := xxh3.New()
	var buf [8]byte
	total := 0
	for i, c := range clusters {
		points[i] = pointOf(c.Location)
		byPoint[c.Location] = i
		total += c.Count

		binary.LittleEndian.PutUint64(buf[:], math.Float64bits(c.Location.Lat))
		_, _ = h.Write(buf[:])
		binary.LittleEndian.PutUint64(buf[:], math.Float64bits(c.Location.Lng))
		_, _ = h.Write(buf[:])
		binary.LittleEndian.PutUint64(buf[:], uint64(c.Count))
		_, _ = h.Write(buf[:])
	}

	s := &ClusterSnapshot{
		clusters:    clusters,
		records:     total,
		index:       geospatial.NewIndex(points),
		byPoint:     byPoint,
		frame:       Frame(clusters),
		fingerprint: h.Sum64(),
	}

	span.SetAttributes(
		attribute.Int("records.input", len(records)),
		attribute.Int("records.located", total),
		attribute.Int("clusters", len(clusters)),
	)
	metrics.SnapshotRecords.Set(float64(total))
	metrics.SnapshotClusters.Set(float64(len(clusters)))
	return s
}

// Clusters returns every cluster in ascending count order. Callers must not
// modify the returned slice.
func (s *ClusterSnapshot) Clusters() []domain.LocationCluster { return s.clusters }

// Len is the number of clusters.
func (s *ClusterSnapshot) Len() int { return len(s.clusters) }

// RecordCount is the number of records with a usable location.
func (s *ClusterSnapshot) RecordCount() int { return s.records }

// Frame is the region enclosing every cluster; empty when there are none.
func (s *ClusterSnapshot) Frame() geospatial.Region { return s.frame }

// Fingerprint identifies the snapshot contents.
func (s *ClusterSnapshot) Fingerprint() uint64 { return s.fingerprint }

// FingerprintHex is Fingerprint formatted for cache keys and ETags.
func (s *ClusterSnapshot) FingerprintHex() string {
	return strconv.FormatUint(s.fingerprint, 16)
}

// Visible returns the clusters inside region in snapshot order. It answers
// exactly like FilterVisible over Clusters, using the R-tree to find candidates.
func (s *ClusterSnapshot) Visible(region geospatial.Region) []domain.LocationCluster {
	positions := s.index.Search(region)
	out := make([]domain.LocationCluster, len(positions))
	for i, pos := range positions {
		out[i] = s.clusters[pos]
	}
	return out
}

// Lookup returns the cluster at exactly p.
func (s *ClusterSnapshot) Lookup(p domain.GeoPoint) (domain.LocationCluster, bool) {
	i, ok := s.byPoint[p]
	if !ok {
		return domain.LocationCluster{}, false
	}
	return s.clusters[i], true
}
