package geospatial

import (
	"math"
	"testing"

	"github.com/paulmach/orb"
)

func TestRegion_ZeroValueIsEmpty(t *testing.T) {
	var r Region
	if !r.IsEmpty() {
		t.Fatal("zero region should be empty")
	}
	if r.Contains(orb.Point{0, 0}) {
		t.Error("empty region must contain nothing")
	}
	if _, ok := r.Center(); ok {
		t.Error("empty region has no center")
	}
	if len(r.Bounds()) != 0 {
		t.Errorf("expected no bounds, got %v", r.Bounds())
	}
}

func TestRegion_ContainsIsInclusive(t *testing.T) {
	r := NewRegion(10, 20, 30, 40)

	inside := []orb.Point{{20, 10}, {40, 30}, {20, 30}, {40, 10}, {30, 20}}
	for _, p := range inside {
		if !r.Contains(p) {
			t.Errorf("expected %v inside %+v", p, r)
		}
	}

	outside := []orb.Point{{19.999, 20}, {40.001, 20}, {30, 9.999}, {30, 30.001}}
	for _, p := range outside {
		if r.Contains(p) {
			t.Errorf("expected %v outside", p)
		}
	}
}

func TestRegion_InvertedLatitudeIsEmpty(t *testing.T) {
	if !NewRegion(30, 0, 10, 10).IsEmpty() {
		t.Error("south > north should give the empty region")
	}
	if !NewRegion(math.NaN(), 0, 10, 10).IsEmpty() {
		t.Error("NaN edge should give the empty region")
	}
}

func TestRegion_Antimeridian(t *testing.T) {
	r := NewRegion(-10, 170, 10, -170)
	if !r.CrossesAntimeridian() {
		t.Fatal("expected region to cross the antimeridian")
	}
	if len(r.Bounds()) != 2 {
		t.Fatalf("expected 2 halves, got %d", len(r.Bounds()))
	}
	for _, p := range []orb.Point{{175, 0}, {-175, 0}, {180, 0}, {-180, 0}} {
		if !r.Contains(p) {
			t.Errorf("expected %v inside", p)
		}
	}
	if r.Contains(orb.Point{0, 0}) {
		t.Error("prime meridian should be outside")
	}
	if got := r.LngSpan(); math.Abs(got-20) > 1e-9 {
		t.Errorf("expected span 20, got %f", got)
	}
}

func TestRegion_AntimeridianEdgeMatchesBothSpellings(t *testing.T) {
	east := NewRegion(-10, 170, 10, 180)
	west := NewRegion(-10, -180, 10, -170)

	for _, p := range []orb.Point{{180, 0}, {-180, 0}} {
		if !east.Contains(p) {
			t.Errorf("expected %v inside region ending at 180", p)
		}
		if !west.Contains(p) {
			t.Errorf("expected %v inside region starting at -180", p)
		}
	}
	if NewRegion(-10, 0, 10, 179.9).Contains(orb.Point{-180, 0}) {
		t.Error("region short of the antimeridian must not contain -180")
	}
}

func TestRegion_UnwrappedLongitudes(t *testing.T) {
	// a map panned one world east reports west=170, east=190
	r := NewRegion(-10, 170, 10, 190)
	if !r.CrossesAntimeridian() {
		t.Fatal("expected wrapped region to cross the antimeridian")
	}
	if !r.Contains(orb.Point{-175, 0}) {
		t.Error("expected -175 inside")
	}

	world := NewRegion(-90, -400, 90, 400)
	if world.West() != -180 || world.East() != 180 {
		t.Errorf("expected whole world, got west=%f east=%f", world.West(), world.East())
	}
}

func TestRegion_Extend(t *testing.T) {
	var r Region
	r.Extend(orb.Point{20, 10})
	if r.IsEmpty() {
		t.Fatal("extended region should not be empty")
	}
	if r.South() != 10 || r.North() != 10 || r.West() != 20 || r.East() != 20 {
		t.Fatalf("single point region wrong: %+v", r)
	}

	r.Extend(orb.Point{40, 30})
	r.Extend(orb.Point{30, -5})
	if r.South() != -5 || r.North() != 30 || r.West() != 20 || r.East() != 40 {
		t.Errorf("unexpected extent: s=%f w=%f n=%f e=%f", r.South(), r.West(), r.North(), r.East())
	}

	before := r
	r.Extend(orb.Point{25, 0})
	if r != before {
		t.Error("extending with an inside point must not change the region")
	}
}

func TestRegion_ExtendAcrossDateLine(t *testing.T) {
	var r Region
	r.Extend(orb.Point{170, 0})
	r.Extend(orb.Point{-170, 5})

	if !r.CrossesAntimeridian() {
		t.Fatalf("expected the short way across the date line, got w=%f e=%f", r.West(), r.East())
	}
	if got := r.LngSpan(); math.Abs(got-20) > 1e-9 {
		t.Errorf("expected span 20, got %f", got)
	}
	c, _ := r.Center()
	if math.Abs(math.Abs(c.Lon())-180) > 1e-9 {
		t.Errorf("expected center on the date line, got %v", c)
	}
}

func TestRegionFromBound(t *testing.T) {
	r := RegionFromBound(orb.Bound{Min: orb.Point{-3, 43}, Max: orb.Point{-2, 44}})
	if !r.Contains(orb.Point{-2.5, 43.5}) {
		t.Error("expected point inside converted bound")
	}
}
