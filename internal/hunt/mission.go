package hunt

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"sync"
	"time"
)

type Mode string

const (
	ModeLive Mode = "live"
	ModeTest Mode = "test"
)

// ParseMode maps "" to ModeLive and rejects unknown modes.
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case "", ModeLive:
		return ModeLive, nil
	case ModeTest:
		return ModeTest, nil
	}
	return "", fmt.Errorf("unknown mode %q", s)
}

// Outcome is the result of feeding one event into a mission.
type Outcome struct {
	Triggered bool      `json:"triggered"`
	Geofence  *Geofence `json:"geofence,omitempty"`
	Effects   []Effect  `json:"effects,omitempty"`
	Complete  bool      `json:"complete"`
	Status    string    `json:"status"`
}

// Snapshot is a read-only view of a mission.
type Snapshot struct {
	Mode          Mode      `json:"mode"`
	Status        string    `json:"status"`
	Objective     string    `json:"objective"`
	NextOrder     int       `json:"nextOrder"`
	Visited       int       `json:"visited"`
	Total         int       `json:"total"`
	Target        *Geofence `json:"target,omitempty"`
	Complete      bool      `json:"complete"`
	Watching      bool      `json:"watching"`
	LastTriggerAt *int64    `json:"lastTriggerAt,omitempty"`
}

// Config configures a Mission.
type Config struct {
	Mode      Mode
	Cooldown  time.Duration
	Storage   Storage
	LedgerKey string
	Presenter Presenter
	Logger    *slog.Logger
	// Now defaults to time.Now.
	Now func() time.Time
}

// Mission is one player's run through the geofences. Every method holds the
// mission lock, so position samples and interactions are handled one at a
// time and a cooldown decision is never observed half-applied.
type Mission struct {
	mu        sync.Mutex
	mode      Mode
	geofences []Geofence
	started   bool
	watching  bool
	status    string

	tracker   *Tracker
	evaluator *Evaluator
	ledger    *Ledger
	handler   *Handler
	logger    *slog.Logger
	now       func() time.Time
}

func NewMission(cfg Config) *Mission {
	if cfg.Cooldown <= 0 {
		cfg.Cooldown = DefaultCooldown
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Mode == "" {
		cfg.Mode = ModeLive
	}

	tracker := NewTracker()
	ledger := NewLedger(cfg.Storage, cfg.LedgerKey)
	return &Mission{
		mode:      cfg.Mode,
		tracker:   tracker,
		evaluator: NewEvaluator(cfg.Cooldown),
		ledger:    ledger,
		handler: &Handler{
			Ledger:    ledger,
			Tracker:   tracker,
			Presenter: cfg.Presenter,
			Logger:    cfg.Logger,
		},
		logger: cfg.Logger,
		now:    cfg.Now,
	}
}

// Start loads the geofences, clears the backpack and resets progress. A load
// failure ends any previous run and leaves the mission unstarted; the
// backpack is only cleared once the new geofences are in hand.
func (m *Mission) Start(ctx context.Context, src Source) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	gs, err := LoadGeofences(ctx, src)
	if err != nil {
		m.halt()
		m.status = "Unable to load mission data."
		return err
	}
	if err := m.ledger.Clear(ctx); err != nil {
		m.halt()
		return fmt.Errorf("clearing backpack: %w", err)
	}

	m.geofences = gs
	m.tracker.Reset()
	m.evaluator.Reset()
	m.started = true
	if m.mode == ModeTest {
		m.status = "Test mode: click map to trigger objectives."
	} else {
		m.status = "Locating…"
		m.watching = true
	}

	m.logger.Info("mission started", "mode", m.mode, "geofences", len(gs))
	return nil
}

// halt drops the current run so its target stops accepting triggers.
func (m *Mission) halt() {
	m.started = false
	m.watching = false
	m.geofences = nil
	m.tracker.Reset()
	m.evaluator.Reset()
}

// OnPosition evaluates a live position sample against the active target.
func (m *Mission) OnPosition(ctx context.Context, pos Position) (Outcome, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.started {
		return Outcome{}, ErrNotStarted
	}
	m.status = fmt.Sprintf("Lat %.5f, Lng %.5f, acc ±%d m", pos.Lat, pos.Lng, int(math.Round(pos.Accuracy)))

	now := m.now()
	target, ok := m.tracker.ActiveTarget(m.geofences)
	if !ok {
		return m.outcome(nil, nil), nil
	}
	if !m.evaluator.Proximity(&target, pos, now) {
		return m.outcome(nil, nil), nil
	}
	return m.trigger(ctx, target, now), nil
}

// OnInteraction treats a map click as reaching the active target. Only test
// missions accept it.
func (m *Mission) OnInteraction(ctx context.Context) (Outcome, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.started {
		return Outcome{}, ErrNotStarted
	}
	if m.mode != ModeTest {
		return Outcome{}, ErrNotTestMode
	}

	now := m.now()
	target, ok := m.tracker.ActiveTarget(m.geofences)
	if !ok {
		return m.outcome(nil, nil), nil
	}
	if !m.evaluator.Simulated(&target, now) {
		return m.outcome(nil, nil), nil
	}
	return m.trigger(ctx, target, now), nil
}

// OnPositionError reports a failed position subscription. It is not retried.
func (m *Mission) OnPositionError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.status = "Location error: " + err.Error()
	m.watching = false
}

// Stop ends position watching. Progress and backpack are kept.
func (m *Mission) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.watching = false
	m.status = "Stopped."
}

// Backpack returns the collected items, oldest first.
func (m *Mission) Backpack(ctx context.Context) ([]Item, error) {
	return m.ledger.LoadAll(ctx)
}

// Discard ends the mission and deletes its backpack. The mission cannot be
// used again until it is restarted.
func (m *Mission) Discard(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.halt()
	m.status = "Stopped."
	return m.ledger.Drop(ctx)
}

// Objective describes the active target the way the objective list shows it.
func (m *Mission) Objective() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.objective()
}

func (m *Mission) objective() string {
	g, ok := m.tracker.ActiveTarget(m.geofences)
	if !ok {
		return "All objectives complete."
	}
	return fmt.Sprintf("%s (%g m radius)", g.Title, g.RadiusMeters)
}

func (m *Mission) Snapshot() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()

	s := Snapshot{
		Mode:      m.mode,
		Status:    m.status,
		Objective: m.objective(),
		NextOrder: m.tracker.NextOrder(),
		Visited:   m.tracker.VisitedCount(),
		Total:     len(m.geofences),
		Watching:  m.watching,
	}
	if g, ok := m.tracker.ActiveTarget(m.geofences); ok {
		s.Target = &g
	} else {
		s.Complete = m.started
	}
	if last := m.evaluator.LastTriggerAt(); !last.IsZero() {
		ms := last.UnixMilli()
		s.LastTriggerAt = &ms
	}
	return s
}

// trigger runs the checkpoint handler. The evaluator has already stamped the
// cooldown.
func (m *Mission) trigger(ctx context.Context, g Geofence, now time.Time) Outcome {
	effects := m.handler.Handle(ctx, g, m.geofences, now)
	m.logger.Info("checkpoint reached", "geofence", g.ID, "order", g.Order, "next_order", m.tracker.NextOrder())
	return m.outcome(&g, effects)
}

func (m *Mission) outcome(g *Geofence, effects []Effect) Outcome {
	_, active := m.tracker.ActiveTarget(m.geofences)
	return Outcome{
		Triggered: g != nil,
		Geofence:  g,
		Effects:   effects,
		Complete:  !active,
		Status:    m.status,
	}
}
