package natsadapter

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/samirrijal/ipmap/internal/core/domain"
)

// Subjects used by the engine.
const (
	SubjectVisiblePrefix = "ipmap.visible."
	SubjectFocusPrefix   = "ipmap.focus."
	SubjectViewWildcard  = "ipmap.view.*"
	subjectViewPrefix    = "ipmap.view."
)

// Publisher implements ports.EventPublisher using NATS JetStream.
type Publisher struct {
	conn *nats.Conn
	js   nats.JetStreamContext
}

// NewPublisher connects to NATS and enables JetStream.
func NewPublisher(url string) (*Publisher, error) {
	conn, err := RawConn(url)
	if err != nil {
		return nil, fmt.Errorf("nats connect: %w", err)
	}

	js, err := conn.JetStream()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("jetstream: %w", err)
	}

	// Ensure streams exist
	streams := []nats.StreamConfig{
		{
			Name:              "IPMAP_VISIBLE",
			Subjects:          []string{SubjectVisiblePrefix + ">"},
			Retention:         nats.LimitsPolicy,
			MaxAge:            10 * time.Minute,
			MaxMsgsPerSubject: 1,
			Storage:           nats.MemoryStorage,
		},
		{
			Name:      "IPMAP_FOCUS",
			Subjects:  []string{SubjectFocusPrefix + ">"},
			Retention: nats.InterestPolicy,
			MaxAge:    1 * time.Hour,
			Storage:   nats.MemoryStorage,
		},
	}

	for _, cfg := range streams {
		if _, err := js.AddStream(&cfg); err != nil {
			// Stream may already exist, try update
			if _, err := js.UpdateStream(&cfg); err != nil {
				conn.Close()
				return nil, fmt.Errorf("ensure stream %s: %w", cfg.Name, err)
			}
		}
	}

	return &Publisher{conn: conn, js: js}, nil
}

// PublishVisibleSet publishes a session's latest visible set. Only the newest
// set per session is retained.
func (p *Publisher) PublishVisibleSet(ctx context.Context, sessionID string, vs *domain.VisibleSet) error {
	data, err := json.Marshal(vs)
	if err != nil {
		return err
	}
	_, err = p.js.Publish(SubjectVisiblePrefix+sessionID, data, nats.Context(ctx))
	return err
}

// PublishFocus publishes a focus instruction for a session's map view.
func (p *Publisher) PublishFocus(ctx context.Context, sessionID string, fi *domain.FocusInstruction) error {
	data, err := json.Marshal(fi)
	if err != nil {
		return err
	}
	_, err = p.js.Publish(SubjectFocusPrefix+sessionID, data, nats.Context(ctx))
	return err
}

// Close drains and closes the connection.
func (p *Publisher) Close() {
	_ = p.conn.Drain()
}

// RawConn creates a plain NATS connection.
func RawConn(url string) (*nats.Conn, error) {
	return nats.Connect(url,
		nats.Name("ipmap"),
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
	)
}
