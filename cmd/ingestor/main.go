package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/dustin/go-humanize"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/samirrijal/ipmap/internal/adapters/jsonfile"
	"github.com/samirrijal/ipmap/internal/adapters/postgres"
	"github.com/samirrijal/ipmap/internal/core/domain"
	"github.com/samirrijal/ipmap/internal/core/ports"
	"github.com/samirrijal/ipmap/internal/pkg/config"
	"github.com/samirrijal/ipmap/internal/pkg/logging"
	"github.com/samirrijal/ipmap/internal/pkg/telemetry"
)

const batchSize = 500

// Loads observation exports (local files or http(s) URLs) into Postgres.
//
//	ingestor [source ...]
func main() {
	if os.Getenv("IPMAP_RECORDS_SOURCE") == "" {
		_ = os.Setenv("IPMAP_RECORDS_SOURCE", "postgres")
	}
	cfg, err := config.Load("ipmap-ingestor")
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logging.Setup(cfg.Log.Level, cfg.Log.Format)

	ctx := context.Background()

	if cfg.Telemetry.Enabled {
		shutdown, err := telemetry.InitTracer(ctx, cfg.Telemetry.ServiceName, cfg.Telemetry.TempoAddr)
		if err != nil {
			slog.Warn("telemetry init failed", "error", err)
		} else {
			defer shutdown()
		}
	}

	db, err := postgres.New(ctx, cfg.Database.DSN(), cfg.Database.MaxConns)
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	defer db.Close()
	repo := postgres.NewObservationRepo(db)

	sources := os.Args[1:]
	if len(sources) == 0 {
		sources = []string{cfg.Records.Path}
	}

	client := &http.Client{Timeout: 120 * time.Second}

	var (
		wg     sync.WaitGroup
		mu     sync.Mutex
		failed int
	)
	sem := make(chan struct{}, 4) // max 4 concurrent sources

	for _, src := range sources {
		wg.Add(1)
		go func(src string) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			if err := ingestSource(ctx, repo, client, src); err != nil {
				slog.Error("ingest failed", "source", src, "error", err)
				mu.Lock()
				failed++
				mu.Unlock()
			}
		}(src)
	}
	wg.Wait()

	total, err := repo.Count(ctx)
	if err != nil {
		slog.Warn("count observations", "error", err)
	}
	slog.Info("ingestion complete", "sources", len(sources), "failed", failed, "stored", humanize.Comma(total))
	if failed > 0 {
		os.Exit(1)
	}
}

func ingestSource(ctx context.Context, repo ports.ObservationWriter, client *http.Client, src string) error {
	ctx, span := telemetry.Tracer().Start(ctx, telemetry.SpanRecordsIngest)
	defer span.End()
	span.SetAttributes(attribute.String("source", src))

	rc, err := open(ctx, client, src)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return err
	}
	defer rc.Close()

	records, err := jsonfile.Decode(ctx, rc)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return fmt.Errorf("decode %s: %w", src, err)
	}

	located := 0
	for _, r := range records {
		if r.Latitude != 0 || r.Longitude != 0 {
			located++
		}
	}
	slog.Info("decoded observations", "source", src,
		"records", humanize.Comma(int64(len(records))),
		"located", humanize.Comma(int64(located)))

	if err := upsertInBatches(ctx, repo, records); err != nil {
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	span.SetAttributes(attribute.Int("records", len(records)))
	return nil
}

func upsertInBatches(ctx context.Context, repo ports.ObservationWriter, records []domain.ObservationRecord) error {
	for start := 0; start < len(records); start += batchSize {
		end := start + batchSize
		if end > len(records) {
			end = len(records)
		}
		if err := repo.UpsertBatch(ctx, records[start:end]); err != nil {
			return fmt.Errorf("upsert records %d-%d: %w", start, end, err)
		}
		slog.Debug("batch stored", "from", start, "to", end)
	}
	return nil
}

// open returns the export at src, downloading it when src is an http(s) URL.
func open(ctx context.Context, client *http.Client, src string) (io.ReadCloser, error) {
	if !strings.HasPrefix(src, "http://") && !strings.HasPrefix(src, "https://") {
		f, err := os.Open(src)
		if err != nil {
			return nil, fmt.Errorf("open %s: %w", src, err)
		}
		return f, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, src, nil)
	if err != nil {
		return nil, err
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("download: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("HTTP %d for %s", resp.StatusCode, src)
	}
	return resp.Body, nil
}
