package postgres

import (
	"context"
	"fmt"
	"math"

	"github.com/jackc/pgx/v5"

	"github.com/samirrijal/ipmap/internal/core/domain"
)

// ObservationRepo implements ports.ObservationRepository and
// ports.ObservationWriter with pgx.
type ObservationRepo struct {
	db *DB
}

// NewObservationRepo creates a new ObservationRepo.
func NewObservationRepo(db *DB) *ObservationRepo {
	return &ObservationRepo{db: db}
}

// LoadAll returns every observation in insertion order. Missing coordinates
// come back as zero.
func (r *ObservationRepo) LoadAll(ctx context.Context) ([]domain.ObservationRecord, error) {
	rows, err := r.db.Pool.Query(ctx, `
		SELECT id, ip_address,
		       COALESCE(latitude, 0), COALESCE(longitude, 0),
		       COALESCE(city, ''), COALESCE(state, ''), COALESCE(country_or_region, '')
		FROM observations
		ORDER BY seq
	`)
	if err != nil {
		return nil, fmt.Errorf("query observations: %w", err)
	}
	defer rows.Close()

	records := []domain.ObservationRecord{}
	for rows.Next() {
		var o domain.ObservationRecord
		if err := rows.Scan(
			&o.ID, &o.IPAddress,
			&o.Latitude, &o.Longitude,
			&o.City, &o.State, &o.CountryOrRegion,
		); err != nil {
			return nil, err
		}
		records = append(records, o)
	}
	return records, rows.Err()
}

// UpsertBatch inserts many observations using pgx.Batch. A record that already
// exists keeps its original position.
func (r *ObservationRepo) UpsertBatch(ctx context.Context, records []domain.ObservationRecord) error {
	if len(records) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	for _, o := range records {
		batch.Queue(`
			INSERT INTO observations (id, ip_address, latitude, longitude, city, state, country_or_region)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
			ON CONFLICT (id) DO UPDATE
			SET ip_address = EXCLUDED.ip_address,
			    latitude = EXCLUDED.latitude, longitude = EXCLUDED.longitude,
			    city = EXCLUDED.city, state = EXCLUDED.state,
			    country_or_region = EXCLUDED.country_or_region
		`, o.ID, o.IPAddress, nullableCoord(o.Latitude), nullableCoord(o.Longitude),
			o.City, o.State, o.CountryOrRegion)
	}
	br := r.db.Pool.SendBatch(ctx, batch)
	defer br.Close()
	for range records {
		if _, err := br.Exec(); err != nil {
			return fmt.Errorf("batch exec: %w", err)
		}
	}
	return nil
}

// Count returns the number of stored observations.
func (r *ObservationRepo) Count(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.Pool.QueryRow(ctx, `SELECT count(*) FROM observations`).Scan(&n)
	return n, err
}

func nullableCoord(v float64) *float64 {
	if v == 0 || math.IsNaN(v) {
		return nil
	}
	return &v
}
