package usecases_test

import (
	"errors"
	"testing"
	"time"

	"github.com/facebookgo/clock"

	"github.com/samirrijal/ipmap/internal/core/domain"
	"github.com/samirrijal/ipmap/internal/core/usecases"
)

func newSessionService(clk clock.Clock, max int) *usecases.SessionService {
	return usecases.NewSessionService(
		newSnapshot(scenarioRecords()),
		usecases.NewDensityClassifier(usecases.DefaultDensityConfig),
		nil,
		clk,
		usecases.SessionConfig{DebounceWindow: 100 * time.Millisecond},
		max,
	)
}

func TestSessionService_OpenGetClose(t *testing.T) {
	svc := newSessionService(clock.NewMock(), 10)

	s, err := svc.Open(nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s.ID() == "" {
		t.Fatal("expected a session ID")
	}

	got, err := svc.Get(s.ID())
	if err != nil || got != s {
		t.Fatalf("expected to get the opened session, got %v, %v", got, err)
	}

	if err := svc.Close(s.ID()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !s.Closed() {
		t.Error("expected the session to be closed")
	}
	if _, err := svc.Get(s.ID()); !errors.Is(err, usecases.ErrSessionNotFound) {
		t.Errorf("expected ErrSessionNotFound, got %v", err)
	}
	if err := svc.Close(s.ID()); !errors.Is(err, usecases.ErrSessionNotFound) {
		t.Errorf("expected ErrSessionNotFound on double close, got %v", err)
	}
}

func TestSessionService_UpdateViewDebounces(t *testing.T) {
	clk := clock.NewMock()
	svc := newSessionService(clk, 10)

	var updates []*domain.VisibleSet
	s, err := svc.Open(func(vs *domain.VisibleSet) { updates = append(updates, vs) })
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for i := 0; i < 5; i++ {
		b := domain.Bounds{South: 25, West: 35, North: 35, East: 45}
		if i == 4 {
			b = domain.Bounds{South: 0, West: 0, North: 50, East: 50}
		}
		if err := svc.UpdateView(s.ID(), b); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		clk.Add(20 * time.Millisecond)
	}
	clk.Add(time.Second)

	if len(updates) != 1 {
		t.Fatalf("expected a single recompute, got %d", len(updates))
	}
	if len(updates[0].Clusters) != 2 {
		t.Errorf("expected the last reported view (2 clusters), got %d", len(updates[0].Clusters))
	}
}

func TestSessionService_UpdateViewUnknown(t *testing.T) {
	svc := newSessionService(clock.NewMock(), 10)

	err := svc.UpdateView("nope", domain.Bounds{})
	if !errors.Is(err, usecases.ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound, got %v", err)
	}
}

func TestSessionService_Limit(t *testing.T) {
	svc := newSessionService(clock.NewMock(), 2)

	for i := 0; i < 2; i++ {
		if _, err := svc.Open(nil); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if _, err := svc.Open(nil); !errors.Is(err, usecases.ErrSessionLimit) {
		t.Fatalf("expected ErrSessionLimit, got %v", err)
	}
}

func TestSessionService_ReapIdle(t *testing.T) {
	clk := clock.NewMock()
	svc := newSessionService(clk, 10)

	stale, _ := svc.Open(nil)
	clk.Add(20 * time.Minute)
	fresh, _ := svc.Open(nil)
	clk.Add(15 * time.Minute)

	if n := svc.ReapIdle(30 * time.Minute); n != 1 {
		t.Fatalf("expected 1 reaped session, got %d", n)
	}
	if !stale.Closed() || fresh.Closed() {
		t.Error("reaped the wrong session")
	}
	if svc.Len() != 1 {
		t.Errorf("expected 1 open session, got %d", svc.Len())
	}
}

func TestSessionService_CloseAll(t *testing.T) {
	clk := clock.NewMock()
	svc := newSessionService(clk, 10)

	var updates int
	s, _ := svc.Open(func(*domain.VisibleSet) { updates++ })
	_ = svc.UpdateView(s.ID(), domain.Bounds{South: -90, West: -180, North: 90, East: 180})

	svc.CloseAll()
	clk.Add(time.Second)

	if svc.Len() != 0 {
		t.Errorf("expected no sessions, got %d", svc.Len())
	}
	if updates != 0 {
		t.Errorf("pending recompute ran after shutdown")
	}
}
