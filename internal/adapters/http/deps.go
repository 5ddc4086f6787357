package http

import (
	"github.com/nats-io/nats.go"

	"github.com/samirrijal/ipmap/internal/adapters/postgres"
	"github.com/samirrijal/ipmap/internal/adapters/valkey"
	"github.com/samirrijal/ipmap/internal/core/usecases"
)

// Dependencies holds all services needed by HTTP handlers. NATS, DB and Cache
// are optional and only used for readiness checks.
type Dependencies struct {
	Clusters *usecases.ClusterService
	Sessions *usecases.SessionService
	NATS     *nats.Conn
	DB       *postgres.DB
	Cache    *valkey.Cache
	Version  string
}
