package usecases_test

import (
	"math"
	"testing"

	"github.com/samirrijal/ipmap/internal/core/domain"
	"github.com/samirrijal/ipmap/internal/core/usecases"
)

func TestFrame_Scenario(t *testing.T) {
	r := usecases.Frame(usecases.Aggregate(scenarioRecords()))

	if r.IsEmpty() {
		t.Fatal("expected a region")
	}
	if r.South() != 10 || r.West() != 20 || r.North() != 30 || r.East() != 40 {
		t.Errorf("unexpected extent: %v %v %v %v", r.South(), r.West(), r.North(), r.East())
	}
}

func TestFrame_Empty(t *testing.T) {
	r := usecases.Frame(nil)
	if !r.IsEmpty() {
		t.Fatal("expected the empty region")
	}

	f := usecases.NewFraming(r, usecases.DefaultFramingPadding)
	if f.Fit {
		t.Error("expected Fit=false for no clusters")
	}
	if f.Bounds != nil || f.Center != nil {
		t.Errorf("expected no extent, got %+v", f)
	}
}

func TestFrame_SinglePoint(t *testing.T) {
	r := usecases.Frame([]domain.LocationCluster{{Location: domain.GeoPoint{Lat: 43.26, Lng: -2.93}, Count: 1}})

	f := usecases.NewFraming(r, 50)
	if !f.Fit || f.Bounds == nil {
		t.Fatal("expected a fit")
	}
	if f.Bounds.South != f.Bounds.North || f.Bounds.West != f.Bounds.East {
		t.Errorf("expected a degenerate extent, got %+v", f.Bounds)
	}
	if f.SpanKm != 0 {
		t.Errorf("expected zero span, got %v", f.SpanKm)
	}
}

func TestNewFraming_PaddingNotApplied(t *testing.T) {
	r := usecases.Frame(usecases.Aggregate(scenarioRecords()))
	f := usecases.NewFraming(r, 50)

	if f.Padding != 50 {
		t.Errorf("expected padding 50, got %d", f.Padding)
	}
	if *f.Bounds != (domain.Bounds{South: 10, West: 20, North: 30, East: 40}) {
		t.Errorf("padding leaked into bounds: %+v", f.Bounds)
	}
	if f.Center == nil || f.Center.Lat != 20 || f.Center.Lng != 30 {
		t.Errorf("unexpected center %+v", f.Center)
	}
	if f.SpanKm < 2000 || f.SpanKm > 3500 {
		t.Errorf("unexpected span %v km", f.SpanKm)
	}
}

func TestFrame_AcrossAntimeridian(t *testing.T) {
	clusters := []domain.LocationCluster{
		{Location: domain.GeoPoint{Lat: -17, Lng: 178}, Count: 1},
		{Location: domain.GeoPoint{Lat: -14, Lng: -171}, Count: 1},
	}

	r := usecases.Frame(clusters)
	if !r.CrossesAntimeridian() {
		t.Fatal("expected the frame to cross the antimeridian")
	}
	if math.Abs(r.LngSpan()-11) > 1e-9 {
		t.Errorf("expected an 11 degree span, got %v", r.LngSpan())
	}
}
