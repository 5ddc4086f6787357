package natsadapter

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/nats-io/nats.go"

	"github.com/samirrijal/ipmap/internal/core/domain"
)

// Subscriber implements ports.ViewChangeSubscriber over core NATS. View changes
// are only meaningful while a session is live, so nothing is persisted.
type Subscriber struct {
	conn *nats.Conn
	subs []*nats.Subscription
}

// NewSubscriber connects to NATS.
func NewSubscriber(url string) (*Subscriber, error) {
	conn, err := RawConn(url)
	if err != nil {
		return nil, fmt.Errorf("nats connect: %w", err)
	}
	return &Subscriber{conn: conn}, nil
}

// SubscribeViewChanges delivers bounds published on ipmap.view.<session>.
// Messages with a request subject get an "ok" or error reply.
func (s *Subscriber) SubscribeViewChanges(ctx context.Context, handler func(ctx context.Context, sessionID string, bounds domain.Bounds) error) error {
	sub, err := s.conn.Subscribe(SubjectViewWildcard, func(msg *nats.Msg) {
		sessionID := strings.TrimPrefix(msg.Subject, subjectViewPrefix)

		var b domain.Bounds
		if err := json.Unmarshal(msg.Data, &b); err != nil {
			slog.Debug("bad view change payload", "subject", msg.Subject, "error", err)
			respond(msg, err)
			return
		}
		err := handler(ctx, sessionID, b)
		if err != nil {
			slog.Debug("view change rejected", "session_id", sessionID, "error", err)
		}
		respond(msg, err)
	})
	if err != nil {
		return err
	}
	s.subs = append(s.subs, sub)
	return nil
}

// Close unsubscribes and drains.
func (s *Subscriber) Close() {
	for _, sub := range s.subs {
		_ = sub.Unsubscribe()
	}
	_ = s.conn.Drain()
}

func respond(msg *nats.Msg, err error) {
	if msg.Reply == "" {
		return
	}
	if err != nil {
		_ = msg.Respond([]byte("error: " + err.Error()))
		return
	}
	_ = msg.Respond([]byte("ok"))
}
