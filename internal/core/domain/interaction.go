package domain

// MarkerState is the pointer-interaction state of a single marker.
type MarkerState string

const (
	MarkerIdle    MarkerState = "idle"
	MarkerHovered MarkerState = "hovered"
	MarkerFocused MarkerState = "focused"
)

// Tooltip is the descriptive content surfaced while a marker is hovered.
type Tooltip struct {
	Location        GeoPoint `json:"location"`
	City            string   `json:"city,omitempty"`
	State           string   `json:"state,omitempty"`
	CountryOrRegion string   `json:"country_or_region,omitempty"`
	Count           int      `json:"count"`
	Label           string   `json:"label,omitempty"`
	Members         []Member `json:"members"`
	Truncated       bool     `json:"truncated"`
}

// FocusInstruction asks the map view to recenter and zoom on a marker.
type FocusInstruction struct {
	Center GeoPoint `json:"center"`
	Zoom   int      `json:"zoom"`
	Bounds Bounds   `json:"bounds"`
}
