package usecases

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/facebookgo/clock"
	"go.opentelemetry.io/otel/attribute"

	"github.com/samirrijal/ipmap/internal/core/domain"
	"github.com/samirrijal/ipmap/internal/core/ports"
	"github.com/samirrijal/ipmap/internal/pkg/geospatial"
	"github.com/samirrijal/ipmap/internal/pkg/metrics"
	"github.com/samirrijal/ipmap/internal/pkg/telemetry"
)

// ReportedView is a ViewSource holding the last bounds a client reported for its
// map. Until the first report, and after Detach, no view is available.
type ReportedView struct {
	mu       sync.RWMutex
	region   geospatial.Region
	set      bool
	detached bool
}

// NewReportedView creates a view with nothing reported yet.
func NewReportedView() *ReportedView { return &ReportedView{} }

// Report stores the bounds currently shown by the client.
func (v *ReportedView) Report(r geospatial.Region) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.detached {
		return
	}
	v.region, v.set = r, true
}

// Detach marks the view as torn down.
func (v *ReportedView) Detach() {
	v.mu.Lock()
	v.detached = true
	v.region, v.set = geospatial.Region{}, false
	v.mu.Unlock()
}

// CurrentBounds implements ports.ViewSource.
func (v *ReportedView) CurrentBounds() (geospatial.Region, bool) {
	v.mu.RLock()
	defer v.mu.RUnlock()
	if v.detached || !v.set {
		return geospatial.Region{}, false
	}
	return v.region, true
}

// SessionConfig tunes view sessions.
type SessionConfig struct {
	DebounceWindow    time.Duration
	FocusZoom         int
	FocusRadiusMeters float64
	TooltipMaxMembers int
}

// DefaultSessionConfig is used for zero SessionConfig fields.
var DefaultSessionConfig = SessionConfig{
	DebounceWindow:    DefaultDebounceWindow,
	FocusZoom:         10,
	FocusRadiusMeters: 5000,
	TooltipMaxMembers: 20,
}

func (c SessionConfig) withDefaults() SessionConfig {
	if c.DebounceWindow <= 0 {
		c.DebounceWindow = DefaultSessionConfig.DebounceWindow
	}
	if c.FocusZoom <= 0 {
		c.FocusZoom = DefaultSessionConfig.FocusZoom
	}
	if c.FocusRadiusMeters <= 0 {
		c.FocusRadiusMeters = DefaultSessionConfig.FocusRadiusMeters
	}
	if c.TooltipMaxMembers <= 0 {
		c.TooltipMaxMembers = DefaultSessionConfig.TooltipMaxMembers
	}
	return c
}

// ViewSessionParams are the collaborators a ViewSession is built from. Publisher
// and OnUpdate are optional.
type ViewSessionParams struct {
	ID         string
	Snapshot   *ClusterSnapshot
	Classifier *DensityClassifier
	View       ports.ViewSource
	Clock      clock.Clock
	Publisher  ports.EventPublisher
	// OnUpdate receives every new visible set. It is called with the session
	// lock held and must not call back into the session.
	OnUpdate func(*domain.VisibleSet)
	Config   SessionConfig
	Logger   *slog.Logger
}

// ViewSession tracks what one map view shows: its visible set, recomputed on a
// debounce after view changes, and the interaction state of its markers.
type ViewSession struct {
	id         string
	snapshot   *ClusterSnapshot
	classifier *DensityClassifier
	view       ports.ViewSource
	clock      clock.Clock
	publisher  ports.EventPublisher
	onUpdate   func(*domain.VisibleSet)
	cfg        SessionConfig
	logger     *slog.Logger
	scheduler  *RecomputeScheduler

	visible    atomic.Pointer[domain.VisibleSet]
	closed     atomic.Bool
	lastActive atomic.Int64

	mu       sync.Mutex
	revision uint64
	markers  map[domain.GeoPoint]domain.MarkerState
	focused  *domain.GeoPoint
}

// NewViewSession creates a session with an empty visible set. Nothing is computed
// until the first view change.
func NewViewSession(p ViewSessionParams) *ViewSession {
	if p.Classifier == nil {
		p.Classifier = NewDensityClassifier(DefaultDensityConfig)
	}
	if p.Clock == nil {
		p.Clock = clock.New()
	}
	if p.Logger == nil {
		p.Logger = slog.Default()
	}
	cfg := p.Config.withDefaults()

	s := &ViewSession{
		id:         p.ID,
		snapshot:   p.Snapshot,
		classifier: p.Classifier,
		view:       p.View,
		clock:      p.Clock,
		publisher:  p.Publisher,
		onUpdate:   p.OnUpdate,
		cfg:        cfg,
		logger:     p.Logger.With("session_id", p.ID),
		markers:    make(map[domain.GeoPoint]domain.MarkerState),
	}
	s.scheduler = NewRecomputeScheduler(p.Clock, cfg.DebounceWindow, s.Recompute)
	s.visible.Store(&domain.VisibleSet{Clusters: []domain.LocationCluster{}, ComputedAt: p.Clock.Now()})
	s.touch()
	return s
}

// ID returns the session identifier.
func (s *ViewSession) ID() string { return s.id }

// Visible returns the latest visible set. The returned value is never modified.
func (s *ViewSession) Visible() *domain.VisibleSet { return s.visible.Load() }

// VisibleMarkers returns the latest visible set annotated with densities.
func (s *ViewSession) VisibleMarkers() []domain.Marker {
	return s.classifier.Markers(s.visible.Load().Clusters)
}

// LastActive is when the session last received a view change or interaction.
func (s *ViewSession) LastActive() time.Time {
	return time.Unix(0, s.lastActive.Load())
}

// Closed reports whether Close has been called.
func (s *ViewSession) Closed() bool { return s.closed.Load() }

// NotifyViewChanged records that the view moved. The visible set is recomputed
// once the view has been still for the debounce window.
func (s *ViewSession) NotifyViewChanged() {
	if s.closed.Load() {
		return
	}
	s.touch()
	metrics.ViewNotifications.Inc()
	s.scheduler.Schedule()
}

// Recompute reads the current view bounds and replaces the visible set. It is
// what the debounce runs, and may be called directly to force a refresh.
func (s *ViewSession) Recompute() {
	if s.closed.Load() {
		metrics.StaleRecomputes.Inc()
		return
	}

	ctx, span := telemetry.Tracer().Start(context.Background(), telemetry.SpanRecompute)
	defer span.End()

	region, ok := s.view.CurrentBounds()
	if !ok {
		region = geospatial.Region{}
	}
	clusters := s.snapshot.Visible(region)

	s.mu.Lock()
	if s.closed.Load() {
		s.mu.Unlock()
		metrics.StaleRecomputes.Inc()
		s.logger.Debug("dropped recompute for closed session")
		return
	}
	s.revision++
	vs := &domain.VisibleSet{
		Revision:   s.revision,
		Bounds:     BoundsOf(region),
		Clusters:   clusters,
		ComputedAt: s.clock.Now(),
	}
	s.visible.Store(vs)
	if s.onUpdate != nil {
		s.onUpdate(vs)
	}
	s.mu.Unlock()

	span.SetAttributes(
		attribute.String("session.id", s.id),
		attribute.Int("clusters.visible", len(clusters)),
	)
	metrics.Recomputes.Inc()
	metrics.VisibleClusters.Observe(float64(len(clusters)))

	if s.publisher != nil {
		if err := s.publisher.PublishVisibleSet(ctx, s.id, vs); err != nil {
			s.logger.Warn("publish visible set", "error", err)
		}
	}
}

// MarkerState returns the interaction state of the marker at p.
func (s *ViewSession) MarkerState(p domain.GeoPoint) domain.MarkerState {
	s.mu.Lock()
	defer s.mu.Unlock()
	if st, ok := s.markers[p]; ok {
		return st
	}
	return domain.MarkerIdle
}

// Hover moves the marker at p from idle to hovered and returns its tooltip. A
// focused marker stays focused.
func (s *ViewSession) Hover(p domain.GeoPoint) (domain.Tooltip, error) {
	c, err := s.interact(p)
	if err != nil {
		return domain.Tooltip{}, err
	}

	s.mu.Lock()
	if s.markers[p] != domain.MarkerFocused {
		s.markers[p] = domain.MarkerHovered
	}
	s.mu.Unlock()

	return s.tooltip(c), nil
}

// Leave returns the marker at p to idle.
func (s *ViewSession) Leave(p domain.GeoPoint) error {
	if _, err := s.interact(p); err != nil {
		return err
	}

	s.mu.Lock()
	delete(s.markers, p)
	if s.focused != nil && *s.focused == p {
		s.focused = nil
	}
	s.mu.Unlock()
	return nil
}

// Focus marks the marker at p as focused and returns the instruction asking the
// map to recenter on it. Only one marker is focused at a time; the previous one
// goes back to idle.
func (s *ViewSession) Focus(ctx context.Context, p domain.GeoPoint) (domain.FocusInstruction, error) {
	if _, err := s.interact(p); err != nil {
		return domain.FocusInstruction{}, err
	}

	s.mu.Lock()
	if s.focused != nil && *s.focused != p {
		delete(s.markers, *s.focused)
	}
	s.markers[p] = domain.MarkerFocused
	focused := p
	s.focused = &focused
	s.mu.Unlock()

	minLat, minLng, maxLat, maxLng := geospatial.BoundingBox(p.Lat, p.Lng, s.cfg.FocusRadiusMeters)
	fi := domain.FocusInstruction{
		Center: p,
		Zoom:   s.cfg.FocusZoom,
		Bounds: domain.Bounds{South: minLat, West: minLng, North: maxLat, East: maxLng},
	}

	if s.publisher != nil {
		if err := s.publisher.PublishFocus(ctx, s.id, &fi); err != nil {
			s.logger.Warn("publish focus", "error", err)
		}
	}
	return fi, nil
}

// Close stops the debounce and detaches the session. A recompute already running
// finishes without storing or publishing anything. Close is idempotent.
func (s *ViewSession) Close() {
	s.mu.Lock()
	already := s.closed.Swap(true)
	s.mu.Unlock()
	if already {
		return
	}
	s.scheduler.Stop()
	s.logger.Debug("session closed")
}

func (s *ViewSession) interact(p domain.GeoPoint) (domain.LocationCluster, error) {
	if s.closed.Load() {
		return domain.LocationCluster{}, ErrSessionClosed
	}
	c, ok := s.snapshot.Lookup(p)
	if !ok {
		return domain.LocationCluster{}, ErrClusterNotFound
	}
	s.touch()
	return c, nil
}

func (s *ViewSession) tooltip(c domain.LocationCluster) domain.Tooltip {
	t := domain.Tooltip{
		Location:        c.Location,
		City:            c.City,
		State:           c.State,
		CountryOrRegion: c.CountryOrRegion,
		Count:           c.Count,
		Members:         c.Members,
	}
	if d, err := s.classifier.Classify(c.Count); err == nil {
		t.Label = d.Label
	}
	if len(t.Members) > s.cfg.TooltipMaxMembers {
		t.Members = t.Members[:s.cfg.TooltipMaxMembers]
		t.Truncated = true
	}
	return t
}

func (s *ViewSession) touch() {
	s.lastActive.Store(s.clock.Now().UnixNano())
}
