package http

import (
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/samirrijal/ipmap/internal/core/domain"
	"github.com/samirrijal/ipmap/internal/core/usecases"
	"github.com/samirrijal/ipmap/internal/pkg/geospatial"
)

// VisibleResponse is a visible set annotated for rendering.
type VisibleResponse struct {
	Revision   uint64          `json:"revision"`
	Bounds     *domain.Bounds  `json:"bounds,omitempty"`
	ComputedAt time.Time       `json:"computed_at"`
	Markers    []domain.Marker `json:"markers"`
}

// ListClustersHandler returns every cluster in ascending count order.
func ListClustersHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		offset, limit := pageBounds(c, 100, 1000)
		clusters, total := deps.Clusters.List(offset, limit)

		pg := Pagination{Offset: offset, Limit: limit, Total: total}
		SetLinkHeaders(c, pg)
		return c.JSON(PaginatedResponse[domain.LocationCluster]{Data: clusters, Pagination: pg})
	}
}

// VisibleClustersHandler returns the markers inside a bounding region.
func VisibleClustersHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		region, err := parseRegion(c, true)
		if err != nil {
			return errBadRequest(c, err.Error())
		}

		markers, err := deps.Clusters.VisibleMarkers(c.UserContext(), region)
		if err != nil {
			return errFromUsecase(c, err)
		}

		c.Set("Cache-Control", "public, max-age=60")
		return c.JSON(markers)
	}
}

// FramingHandler returns the extent a freshly opened map should fit.
func FramingHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		return c.JSON(deps.Clusters.Framing())
	}
}

// DensityHandler classifies an arbitrary count.
func DensityHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		raw := c.Query("count")
		if raw == "" {
			return errBadRequest(c, "count query parameter is required")
		}
		count, err := strconv.Atoi(raw)
		if err != nil {
			return errBadRequest(c, "count must be an integer")
		}

		d, err := deps.Clusters.Classify(count)
		if err != nil {
			return errFromUsecase(c, err)
		}
		c.Set("Cache-Control", "public, max-age=3600")
		return c.JSON(d)
	}
}

// parseRegion reads south/west/north/east query parameters. When required is
// false and none are given, the empty region and no error are returned.
func parseRegion(c *fiber.Ctx, required bool) (geospatial.Region, error) {
	names := [4]string{"south", "west", "north", "east"}
	var vals [4]float64
	missing := 0
	for i, name := range names {
		raw := c.Query(name)
		if raw == "" {
			missing++
			continue
		}
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
			return geospatial.Region{}, fmt.Errorf("%s must be a number", name)
		}
		vals[i] = v
	}

	if missing == len(names) && !required {
		return geospatial.Region{}, nil
	}
	if missing > 0 {
		return geospatial.Region{}, fmt.Errorf("south, west, north and east are required")
	}
	return regionFromBounds(domain.Bounds{South: vals[0], West: vals[1], North: vals[2], East: vals[3]})
}

// regionFromBounds validates transport bounds.
func regionFromBounds(b domain.Bounds) (geospatial.Region, error) {
	if b.South < -90 || b.North > 90 {
		return geospatial.Region{}, fmt.Errorf("latitudes must be between -90 and 90")
	}
	if b.South > b.North {
		return geospatial.Region{}, fmt.Errorf("south must not be greater than north")
	}
	return usecases.RegionFromBounds(b), nil
}

func visibleResponse(clusters *usecases.ClusterService, vs *domain.VisibleSet) VisibleResponse {
	return VisibleResponse{
		Revision:   vs.Revision,
		Bounds:     vs.Bounds,
		ComputedAt: vs.ComputedAt,
		Markers:    clusters.Markers(vs.Clusters),
	}
}
