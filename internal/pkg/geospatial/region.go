package geospatial

import (
	"math"

	"github.com/paulmach/orb"
)

// Region is a latitude/longitude rectangle used for viewport culling and framing.
//
// The zero value is the empty region: it contains nothing and Extend turns it into
// a single-point region. A region whose west edge is greater than its east edge
// spans the antimeridian.
type Region struct {
	south, west, north, east float64
	set                      bool
}

// NewRegion builds a region from its edges. Longitudes outside [-180, 180] (as
// reported by maps panned across the date line) are wrapped; a longitude span of
// 360 degrees or more covers the whole world. An inverted latitude range or a NaN
// edge yields the empty region.
func NewRegion(south, west, north, east float64) Region {
	for _, v := range []float64{south, west, north, east} {
		if math.IsNaN(v) {
			return Region{}
		}
	}
	if south > north {
		return Region{}
	}
	if east-west >= 360 {
		west, east = -180, 180
	} else {
		west, east = wrapLng(west), wrapLng(east)
	}
	return Region{south: south, west: west, north: north, east: east, set: true}
}

// RegionFromBound converts a non-wrapping orb.Bound (X = longitude, Y = latitude).
func RegionFromBound(b orb.Bound) Region {
	return NewRegion(b.Bottom(), b.Left(), b.Top(), b.Right())
}

func (r Region) South() float64 { return r.south }
func (r Region) West() float64  { return r.west }
func (r Region) North() float64 { return r.north }
func (r Region) East() float64  { return r.east }

// IsEmpty reports whether the region has never been set or extended.
func (r Region) IsEmpty() bool { return !r.set }

// CrossesAntimeridian reports whether the region wraps past ±180°.
func (r Region) CrossesAntimeridian() bool { return r.set && r.west > r.east }

// LngSpan is the eastward longitude width in degrees.
func (r Region) LngSpan() float64 {
	if !r.set {
		return 0
	}
	return eastward(r.west, r.east)
}

// Bounds splits the region into non-wrapping halves: one for ordinary regions,
// two for regions crossing the antimeridian, none for the empty region.
func (r Region) Bounds() []orb.Bound {
	if !r.set {
		return nil
	}
	if r.west <= r.east {
		return []orb.Bound{{Min: orb.Point{r.west, r.south}, Max: orb.Point{r.east, r.north}}}
	}
	return []orb.Bound{
		{Min: orb.Point{r.west, r.south}, Max: orb.Point{180, r.north}},
		{Min: orb.Point{-180, r.south}, Max: orb.Point{r.east, r.north}},
	}
}

// Contains reports whether p lies inside the region, edges included. Longitudes
// -180 and 180 name the same meridian and match either edge.
func (r Region) Contains(p orb.Point) bool {
	lng := wrapLng(p.Lon())
	if r.containsPoint(orb.Point{lng, p.Lat()}) {
		return true
	}
	if alias, ok := antimeridianAlias(lng); ok {
		return r.containsPoint(orb.Point{alias, p.Lat()})
	}
	return false
}

func (r Region) containsPoint(p orb.Point) bool {
	for _, b := range r.Bounds() {
		if b.Contains(p) {
			return true
		}
	}
	return false
}

// Extend grows the region by the least area needed to enclose p. Longitude grows
// in whichever direction adds the smaller span, so points on both sides of the
// date line produce a region that crosses it instead of one spanning the globe.
func (r *Region) Extend(p orb.Point) {
	lat, lng := p.Lat(), wrapLng(p.Lon())
	if !r.set {
		*r = Region{south: lat, west: lng, north: lat, east: lng, set: true}
		return
	}
	r.south = math.Min(r.south, lat)
	r.north = math.Max(r.north, lat)
	if r.containsLng(lng) {
		return
	}
	if eastward(r.east, lng) <= eastward(lng, r.west) {
		r.east = lng
	} else {
		r.west = lng
	}
}

// Center returns the midpoint of the region. The empty region has no center.
func (r Region) Center() (orb.Point, bool) {
	if !r.set {
		return orb.Point{}, false
	}
	lng := wrapLng(r.west + r.LngSpan()/2)
	return orb.Point{lng, (r.south + r.north) / 2}, true
}

func (r Region) containsLng(lng float64) bool {
	if r.west <= r.east {
		return lng >= r.west && lng <= r.east
	}
	return lng >= r.west || lng <= r.east
}

// eastward is the distance in degrees travelling east from one longitude to another.
func eastward(from, to float64) float64 {
	d := to - from
	if d < 0 {
		d += 360
	}
	return d
}

// antimeridianAlias returns the other spelling of the ±180° meridian.
func antimeridianAlias(lng float64) (float64, bool) {
	switch lng {
	case 180:
		return -180, true
	case -180:
		return 180, true
	}
	return 0, false
}

func wrapLng(lng float64) float64 {
	if lng >= -180 && lng <= 180 {
		return lng
	}
	w := math.Mod(lng+180, 360)
	if w < 0 {
		w += 360
	}
	return w - 180
}
