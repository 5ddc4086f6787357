package ports

import (
	"context"

	"github.com/samirrijal/ipmap/internal/core/domain"
	"github.com/samirrijal/ipmap/internal/pkg/geospatial"
)

// ViewSource is the hosting map view as seen by a session.
type ViewSource interface {
	// CurrentBounds returns the visible region, or false when the view is not
	// available (not initialised yet, or already torn down).
	CurrentBounds() (geospatial.Region, bool)
}

// EventPublisher publishes session events to a message broker.
type EventPublisher interface {
	PublishVisibleSet(ctx context.Context, sessionID string, vs *domain.VisibleSet) error
	PublishFocus(ctx context.Context, sessionID string, fi *domain.FocusInstruction) error
}

// ViewChangeSubscriber delivers view-change notifications from a message broker.
type ViewChangeSubscriber interface {
	SubscribeViewChanges(ctx context.Context, handler func(ctx context.Context, sessionID string, bounds domain.Bounds) error) error
}

// CacheService provides read-through caching.
type CacheService interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttlSeconds int) error
}
