package domain

// DensityTier is the visual-weight bucket of a marker.
type DensityTier string

const (
	TierDot    DensityTier = "dot"
	TierSmall  DensityTier = "small"
	TierMedium DensityTier = "medium"
	TierLarge  DensityTier = "large"
)

// Density is the classification of a cluster count.
type Density struct {
	Tier      DensityTier `json:"tier"`
	Band      int         `json:"band"`      // 0 for dots, 1..3 for labelled markers
	SizeHint  int         `json:"size_hint"` // display units, scaled by the renderer
	ShowLabel bool        `json:"show_label"`
	Label     string      `json:"label,omitempty"`
}

// Marker is a visible cluster annotated for rendering.
type Marker struct {
	Cluster LocationCluster `json:"cluster"`
	Density Density         `json:"density"`
}
