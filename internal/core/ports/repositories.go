package ports

import (
	"context"

	"github.com/samirrijal/ipmap/internal/core/domain"
)

// ObservationRepository loads the static observation record set.
type ObservationRepository interface {
	// LoadAll returns every record in a stable order. It is called once at startup.
	LoadAll(ctx context.Context) ([]domain.ObservationRecord, error)
}

// ObservationWriter persists observation records (used by the ingestor only).
type ObservationWriter interface {
	UpsertBatch(ctx context.Context, records []domain.ObservationRecord) error
}
