package jsonfile

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/samirrijal/ipmap/internal/core/domain"
)

// ObservationRepo implements ports.ObservationRepository over a JSON export: a
// single array of observation objects.
type ObservationRepo struct {
	path string
}

// NewObservationRepo creates a repo reading from path.
func NewObservationRepo(path string) *ObservationRepo {
	return &ObservationRepo{path: path}
}

// LoadAll decodes every record in file order.
func (r *ObservationRepo) LoadAll(ctx context.Context) ([]domain.ObservationRecord, error) {
	f, err := os.Open(r.path)
	if err != nil {
		return nil, fmt.Errorf("open records: %w", err)
	}
	defer f.Close()

	records, err := Decode(ctx, bufio.NewReaderSize(f, 64*1024))
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", r.path, err)
	}
	return records, nil
}

// Decode streams a JSON array of observation records from rd. Elements are
// decoded one at a time so large exports are never held twice in memory.
func Decode(ctx context.Context, rd io.Reader) ([]domain.ObservationRecord, error) {
	dec := json.NewDecoder(rd)

	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '[' {
		return nil, fmt.Errorf("expected a JSON array, got %v", tok)
	}

	records := []domain.ObservationRecord{}
	for dec.More() {
		if len(records)%4096 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		var o domain.ObservationRecord
		if err := dec.Decode(&o); err != nil {
			return nil, fmt.Errorf("record %d: %w", len(records), err)
		}
		records = append(records, o)
	}

	if _, err := dec.Token(); err != nil {
		return nil, err
	}
	return records, nil
}
