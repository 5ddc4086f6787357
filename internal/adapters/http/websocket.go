package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/gofiber/websocket/v2"

	"github.com/samirrijal/ipmap/internal/core/domain"
	"github.com/samirrijal/ipmap/internal/pkg/metrics"
)

// wsRequest is sent from client to drive its view session.
type wsRequest struct {
	Action   string           `json:"action"` // "view" | "hover" | "leave" | "click" | "visible"
	Bounds   *domain.Bounds   `json:"bounds,omitempty"`
	Location *domain.GeoPoint `json:"location,omitempty"`
}

// wsEvent is pushed to the client.
type wsEvent struct {
	Type  string      `json:"type"` // "session" | "visible" | "tooltip" | "left" | "focus" | "error"
	Data  interface{} `json:"data,omitempty"`
	Error string      `json:"error,omitempty"`
}

// WebSocketHandler returns a handler that opens one view session per
// connection. The client reports view changes and marker interactions; the
// server pushes the debounced visible set whenever it changes.
//
// Clients send JSON such as
// {"action":"view","bounds":{"south":40,"west":-4,"north":44,"east":0}} or
// {"action":"click","location":{"lat":43.26,"lng":-2.93}}.
func WebSocketHandler(deps *Dependencies) func(*websocket.Conn) {
	return func(c *websocket.Conn) {
		defer c.Close()

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		remoteAddr := c.RemoteAddr().String()
		logger := slog.Default().With("remote_addr", remoteAddr)

		var mu sync.Mutex

		// Helper: thread-safe write
		writeJSON := func(v interface{}) error {
			data, err := json.Marshal(v)
			if err != nil {
				return err
			}
			mu.Lock()
			defer mu.Unlock()
			return c.WriteMessage(websocket.TextMessage, data)
		}

		// Only the newest visible set matters; an unsent older one is replaced.
		updates := make(chan *domain.VisibleSet, 1)
		session, err := deps.Sessions.Open(func(vs *domain.VisibleSet) {
			select {
			case <-updates:
			default:
			}
			updates <- vs
		})
		if err != nil {
			_ = writeJSON(wsEvent{Type: "error", Error: err.Error()})
			return
		}
		defer func() { _ = deps.Sessions.Close(session.ID()) }()

		metrics.ActiveWebSockets.Inc()
		defer metrics.ActiveWebSockets.Dec()
		logger.Info("ws session opened", "session_id", session.ID())

		_ = writeJSON(wsEvent{Type: "session", Data: SessionResponse{
			ID:      session.ID(),
			Framing: deps.Clusters.Framing(),
		}})

		// Push visible sets + keep-alive ping
		done := make(chan struct{})
		go func() {
			ticker := time.NewTicker(30 * time.Second)
			defer ticker.Stop()
			for {
				select {
				case vs := <-updates:
					if err := writeJSON(wsEvent{Type: "visible", Data: visibleResponse(deps.Clusters, vs)}); err != nil {
						return
					}
				case <-ticker.C:
					mu.Lock()
					err := c.WriteMessage(websocket.PingMessage, nil)
					mu.Unlock()
					if err != nil {
						return
					}
				case <-done:
					return
				}
			}
		}()

		// Read client messages
		for {
			_, msg, err := c.ReadMessage()
			if err != nil {
				break
			}

			var m wsRequest
			if err := json.Unmarshal(msg, &m); err != nil {
				_ = writeJSON(wsEvent{Type: "error", Error: "invalid JSON"})
				continue
			}

			switch m.Action {
			case "view":
				if m.Bounds == nil {
					_ = writeJSON(wsEvent{Type: "error", Error: "bounds required"})
					continue
				}
				if _, err := regionFromBounds(*m.Bounds); err != nil {
					_ = writeJSON(wsEvent{Type: "error", Error: err.Error()})
					continue
				}
				if err := deps.Sessions.UpdateView(session.ID(), *m.Bounds); err != nil {
					_ = writeJSON(wsEvent{Type: "error", Error: err.Error()})
				}

			case "visible":
				_ = writeJSON(wsEvent{Type: "visible", Data: visibleResponse(deps.Clusters, session.Visible())})

			case "hover", "leave", "click":
				if m.Location == nil {
					_ = writeJSON(wsEvent{Type: "error", Error: "location required"})
					continue
				}
				var (
					ev  wsEvent
					err error
				)
				switch m.Action {
				case "hover":
					var tip domain.Tooltip
					tip, err = session.Hover(*m.Location)
					ev = wsEvent{Type: "tooltip", Data: tip}
				case "leave":
					err = session.Leave(*m.Location)
					ev = wsEvent{Type: "left", Data: m.Location}
				case "click":
					var fi domain.FocusInstruction
					fi, err = session.Focus(ctx, *m.Location)
					ev = wsEvent{Type: "focus", Data: fi}
				}
				if err != nil {
					ev = wsEvent{Type: "error", Error: err.Error()}
				}
				_ = writeJSON(ev)

			default:
				_ = writeJSON(wsEvent{Type: "error", Error: "unknown action: " + m.Action})
			}
		}

		// Cleanup
		close(done)
		logger.Info("ws session closed", "session_id", session.ID())
	}
}
