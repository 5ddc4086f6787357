package usecases

import (
	"github.com/dustin/go-humanize"

	"github.com/samirrijal/ipmap/internal/core/domain"
)

// DensityConfig holds the tier boundaries. A count below CrowdingThreshold is a
// plain dot; counts up to SmallBandMax, then MediumBandMax, fall in the small and
// medium bands; anything larger is large.
type DensityConfig struct {
	CrowdingThreshold int
	SmallBandMax      int
	MediumBandMax     int
}

// DefaultDensityConfig matches the stock marker art: 10 / 100 / 1000.
var DefaultDensityConfig = DensityConfig{
	CrowdingThreshold: 10,
	SmallBandMax:      100,
	MediumBandMax:     1000,
}

// display sizes per band, scaled by the renderer
var bandSizes = [4]int{8, 30, 40, 50}

// DensityClassifier maps a cluster count to its visual weight.
type DensityClassifier struct {
	cfg DensityConfig
}

// NewDensityClassifier creates a classifier. Zero fields fall back to
// DefaultDensityConfig.
func NewDensityClassifier(cfg DensityConfig) *DensityClassifier {
	if cfg.CrowdingThreshold <= 0 {
		cfg.CrowdingThreshold = DefaultDensityConfig.CrowdingThreshold
	}
	if cfg.SmallBandMax <= 0 {
		cfg.SmallBandMax = DefaultDensityConfig.SmallBandMax
	}
	if cfg.MediumBandMax <= 0 {
		cfg.MediumBandMax = DefaultDensityConfig.MediumBandMax
	}
	return &DensityClassifier{cfg: cfg}
}

// Config returns the effective tier boundaries.
func (c *DensityClassifier) Config() DensityConfig { return c.cfg }

// Classify returns the tier, band and label for count. Counts below one are
// rejected with ErrInvalidCount.
func (c *DensityClassifier) Classify(count int) (domain.Density, error) {
	if count <= 0 {
		return domain.Density{}, ErrInvalidCount
	}
	if count < c.cfg.CrowdingThreshold {
		return domain.Density{Tier: domain.TierDot, Band: 0, SizeHint: bandSizes[0]}, nil
	}

	var (
		tier domain.DensityTier
		band int
	)
	switch {
	case count <= c.cfg.SmallBandMax:
		tier, band = domain.TierSmall, 1
	case count <= c.cfg.MediumBandMax:
		tier, band = domain.TierMedium, 2
	default:
		tier, band = domain.TierLarge, 3
	}
	return domain.Density{
		Tier:      tier,
		Band:      band,
		SizeHint:  bandSizes[band],
		ShowLabel: true,
		Label:     humanize.Comma(int64(count)),
	}, nil
}

// Markers annotates clusters with their density, keeping order.
func (c *DensityClassifier) Markers(clusters []domain.LocationCluster) []domain.Marker {
	out := make([]domain.Marker, 0, len(clusters))
	for _, cl := range clusters {
		d, err := c.Classify(cl.Count)
		if err != nil {
			// clusters always hold at least one member
			continue
		}
		out = append(out, domain.Marker{Cluster: cl, Density: d})
	}
	return out
}
