package geospatial

import (
	"math/rand"
	"reflect"
	"testing"

	"github.com/paulmach/orb"
)

func linearSearch(points []orb.Point, r Region) []int {
	out := []int{}
	for i, p := range points {
		if r.Contains(p) {
			out = append(out, i)
		}
	}
	return out
}

func TestIndex_Empty(t *testing.T) {
	ix := NewIndex(nil)
	if got := ix.Search(NewRegion(-90, -180, 90, 180)); len(got) != 0 {
		t.Errorf("expected no results, got %v", got)
	}
}

func TestIndex_EmptyRegion(t *testing.T) {
	ix := NewIndex([]orb.Point{{1, 1}})
	if got := ix.Search(Region{}); len(got) != 0 {
		t.Errorf("empty region should match nothing, got %v", got)
	}
}

func TestIndex_BoundaryInclusive(t *testing.T) {
	points := []orb.Point{{20, 10}, {40, 30}, {40.0001, 30}, {30, 20}}
	ix := NewIndex(points)

	got := ix.Search(NewRegion(10, 20, 30, 40))
	want := []int{0, 1, 3}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("expected %v, got %v", want, got)
	}
}

func TestIndex_DuplicatePositions(t *testing.T) {
	points := []orb.Point{{5, 5}, {5, 5}, {5, 5}}
	ix := NewIndex(points)
	got := ix.Search(NewRegion(0, 0, 10, 10))
	if !reflect.DeepEqual(got, []int{0, 1, 2}) {
		t.Errorf("expected all three positions, got %v", got)
	}
}

func TestIndex_AntimeridianSpellings(t *testing.T) {
	points := []orb.Point{{-180, 0}, {180, 5}, {0, 0}}
	ix := NewIndex(points)

	for _, r := range []Region{
		NewRegion(-10, 170, 10, 180),
		NewRegion(-10, -180, 10, -170),
		NewRegion(-10, 170, 10, -170),
	} {
		got := ix.Search(r)
		if !reflect.DeepEqual(got, []int{0, 1}) {
			t.Errorf("region %+v: expected [0 1], got %v", r, got)
		}
		if want := linearSearch(points, r); !reflect.DeepEqual(got, want) {
			t.Errorf("region %+v: index %v, linear scan %v", r, got, want)
		}
	}
}

func TestIndex_MatchesLinearScan(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	points := make([]orb.Point, 2000)
	for i := range points {
		points[i] = orb.Point{rng.Float64()*360 - 180, rng.Float64()*170 - 85}
	}
	ix := NewIndex(points)
	if ix.Size() != len(points) {
		t.Fatalf("expected size %d, got %d", len(points), ix.Size())
	}

	regions := []Region{
		NewRegion(-10, -10, 10, 10),
		NewRegion(40, -130, 60, -60),
		NewRegion(-30, 160, 30, -160), // across the date line
		NewRegion(-90, -180, 90, 180),
	}
	for _, r := range regions {
		got := ix.Search(r)
		want := linearSearch(points, r)
		if !reflect.DeepEqual(got, want) {
			t.Errorf("region %+v: index returned %d results, scan %d", r, len(got), len(want))
		}
	}
}
