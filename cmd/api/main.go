package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/nats-io/nats.go"
	"go.opentelemetry.io/otel/attribute"

	"github.com/samirrijal/ipmap/internal/adapters/http"
	"github.com/samirrijal/ipmap/internal/adapters/jsonfile"
	natsadapter "github.com/samirrijal/ipmap/internal/adapters/nats"
	"github.com/samirrijal/ipmap/internal/adapters/postgres"
	"github.com/samirrijal/ipmap/internal/adapters/valkey"
	"github.com/samirrijal/ipmap/internal/core/domain"
	"github.com/samirrijal/ipmap/internal/core/ports"
	"github.com/samirrijal/ipmap/internal/core/usecases"
	"github.com/samirrijal/ipmap/internal/pkg/config"
	"github.com/samirrijal/ipmap/internal/pkg/logging"
	"github.com/samirrijal/ipmap/internal/pkg/telemetry"
)

var version = "dev"

func main() {
	cfg, err := config.Load("ipmap-api")
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	// Structured logging
	logging.Setup(cfg.Log.Level, cfg.Log.Format)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Telemetry
	if cfg.Telemetry.Enabled {
		shutdown, err := telemetry.InitTracer(ctx, cfg.Telemetry.ServiceName, cfg.Telemetry.TempoAddr)
		if err != nil {
			slog.Warn("telemetry init failed", "error", err)
		} else {
			defer shutdown()
		}
	}

	// Records
	var (
		db   *postgres.DB
		repo ports.ObservationRepository
	)
	switch cfg.Records.Source {
	case "postgres":
		db, err = postgres.New(ctx, cfg.Database.DSN(), cfg.Database.MaxConns)
		if err != nil {
			log.Fatalf("database: %v", err)
		}
		defer db.Close()
		repo = postgres.NewObservationRepo(db)
	default:
		repo = jsonfile.NewObservationRepo(cfg.Records.Path)
	}

	records, err := loadRecords(ctx, repo)
	if err != nil {
		log.Fatalf("load records: %v", err)
	}
	snapshot := usecases.NewClusterSnapshot(ctx, records)
	slog.Info("snapshot built",
		"source", cfg.Records.Source,
		"records", len(records),
		"located", snapshot.RecordCount(),
		"clusters", snapshot.Len(),
		"fingerprint", snapshot.FingerprintHex(),
	)

	// Cache
	var (
		cache     *valkey.Cache
		cachePort ports.CacheService
	)
	if cfg.Valkey.Enabled {
		cache, err = valkey.New(cfg.Valkey.Addr)
		if err != nil {
			slog.Warn("valkey unavailable", "error", err)
		} else {
			defer cache.Close()
			cachePort = cache
		}
	}

	// NATS
	var (
		natsConn  *nats.Conn
		publisher ports.EventPublisher
	)
	if cfg.NATS.Enabled {
		pub, err := natsadapter.NewPublisher(cfg.NATS.URL)
		if err != nil {
			slog.Warn("nats unavailable", "error", err)
		} else {
			defer pub.Close()
			publisher = pub
		}

		// Raw connection for readiness checks
		natsConn, err = natsadapter.RawConn(cfg.NATS.URL)
		if err != nil {
			slog.Warn("nats conn unavailable", "error", err)
		} else {
			defer natsConn.Close()
		}
	}

	// Use cases
	e := cfg.Engine
	classifier := usecases.NewDensityClassifier(usecases.DensityConfig{
		CrowdingThreshold: e.CrowdingThreshold,
		SmallBandMax:      e.SmallBandMax,
		MediumBandMax:     e.MediumBandMax,
	})
	clusterSvc := usecases.NewClusterService(snapshot, classifier, cachePort, e.CacheTTL, e.FramingPadding)
	sessionSvc := usecases.NewSessionService(snapshot, classifier, publisher, nil, usecases.SessionConfig{
		DebounceWindow:    e.DebounceWindow,
		FocusZoom:         e.FocusZoom,
		FocusRadiusMeters: e.FocusRadiusMeters,
		TooltipMaxMembers: e.TooltipMaxMembers,
	}, e.MaxSessions)

	// View changes published by map clients over NATS
	if cfg.NATS.Enabled {
		sub, err := natsadapter.NewSubscriber(cfg.NATS.URL)
		if err != nil {
			slog.Warn("nats subscriber unavailable", "error", err)
		} else {
			defer sub.Close()
			if err := relayViewChanges(ctx, sub, sessionSvc); err != nil {
				slog.Warn("subscribe view changes", "error", err)
			}
		}
	}

	// Idle session reaper
	go reapIdleSessions(ctx, sessionSvc, e.SessionIdleTimeout)

	deps := &http.Dependencies{
		Clusters: clusterSvc,
		Sessions: sessionSvc,
		NATS:     natsConn,
		DB:       db,
		Cache:    cache,
		Version:  version,
	}

	// Fiber
	app := fiber.New(fiber.Config{
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		BodyLimit:    1024 * 1024, // 1 MB max request body
		AppName:      "ipmap API",
	})
	app.Use(recover.New())
	app.Use(logger.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins:     "http://localhost:3000, http://localhost:5173",
		AllowMethods:     "GET,POST,DELETE,OPTIONS",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		ExposeHeaders:    "Location, ETag, Link",
		AllowCredentials: false,
		MaxAge:           3600,
	}))

	http.SetupRoutes(app, deps)

	// Graceful shutdown
	go func() {
		addr := fmt.Sprintf(":%d", cfg.Server.Port)
		slog.Info("API server starting", "addr", addr, "version", version)
		if err := app.Listen(addr); err != nil {
			log.Fatalf("listen: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	slog.Info("shutdown signal received, draining connections...", "signal", sig.String())

	// Give in-flight requests up to 10s to complete
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		slog.Error("forced shutdown", "error", err)
	}

	// No recompute may publish after this point.
	sessionSvc.CloseAll()
	cancel()

	slog.Info("server stopped")
}

func loadRecords(ctx context.Context, repo ports.ObservationRepository) ([]domain.ObservationRecord, error) {
	ctx, span := telemetry.Tracer().Start(ctx, telemetry.SpanRecordsLoad)
	defer span.End()

	records, err := repo.LoadAll(ctx)
	if err != nil {
		return nil, err
	}
	span.SetAttributes(attribute.Int("records", len(records)))
	return records, nil
}

// relayViewChanges feeds bounds reported over the broker into their sessions.
func relayViewChanges(ctx context.Context, sub ports.ViewChangeSubscriber, sessions *usecases.SessionService) error {
	return sub.SubscribeViewChanges(ctx, func(_ context.Context, sessionID string, b domain.Bounds) error {
		return sessions.UpdateView(sessionID, b)
	})
}

func reapIdleSessions(ctx context.Context, sessions *usecases.SessionService, maxIdle time.Duration) {
	if maxIdle <= 0 {
		return
	}
	ticker := time.NewTicker(maxIdle / 2)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := sessions.ReapIdle(maxIdle); n > 0 {
				slog.Info("reaped idle sessions", "count", n)
			}
		}
	}
}
