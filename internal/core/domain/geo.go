package domain

// GeoPoint represents a geographic coordinate (WGS 84). It is also the exact-match
// key clusters are grouped by.
type GeoPoint struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Bounds is the transport form of a bounding region.
// A West edge greater than the East edge means the region crosses the antimeridian.
type Bounds struct {
	South float64 `json:"south"`
	West  float64 `json:"west"`
	North float64 `json:"north"`
	East  float64 `json:"east"`
}

// Framing is the initial extent handed to the map view once at startup.
type Framing struct {
	Bounds  *Bounds   `json:"bounds,omitempty"`
	Center  *GeoPoint `json:"center,omitempty"`
	Padding int       `json:"padding"`
	SpanKm  float64   `json:"span_km"`
	Fit     bool      `json:"fit"` // false: nothing to fit, leave the view alone
}
