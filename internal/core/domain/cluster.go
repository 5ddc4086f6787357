package domain

import "time"

// Member identifies one observation folded into a cluster.
type Member struct {
	ID        string `json:"id"`
	IPAddress string `json:"ip_address"`
}

// LocationCluster is every observation sharing one exact coordinate.
// Count always equals len(Members).
type LocationCluster struct {
	Location        GeoPoint `json:"location"`
	City            string   `json:"city,omitempty"`
	State           string   `json:"state,omitempty"`
	CountryOrRegion string   `json:"country_or_region,omitempty"`
	Count           int      `json:"count"`
	Members         []Member `json:"members"`
}

// VisibleSet is the ordered subset of clusters inside the current viewport.
// Later entries draw on top. A VisibleSet is never modified after it is published.
type VisibleSet struct {
	Revision   uint64            `json:"revision"`
	Bounds     *Bounds           `json:"bounds,omitempty"`
	Clusters   []LocationCluster `json:"clusters"`
	ComputedAt time.Time         `json:"computed_at"`
}
