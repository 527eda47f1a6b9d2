package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/playperu/geohunt/internal/hunt"
)

var ErrNotFound = errors.New("not found")

// DefaultSessionTTL is how long a session may sit idle before it is expired.
const DefaultSessionTTL = 2 * time.Hour

type session struct {
	mission  *hunt.Mission
	lastSeen time.Time
}

// Sessions keeps the running missions, one per player session. Sessions
// idle for longer than the TTL are expired by Run.
type Sessions struct {
	logger   *slog.Logger
	source   hunt.Source
	storage  hunt.Storage
	cooldown time.Duration
	ttl      time.Duration
	broker   *Broker
	now      func() time.Time

	mu       sync.RWMutex
	sessions map[string]*session
}

func NewSessions(logger *slog.Logger, source hunt.Source, storage hunt.Storage, cooldown, ttl time.Duration, broker *Broker) *Sessions {
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	return &Sessions{
		logger:   logger,
		source:   source,
		storage:  storage,
		cooldown: cooldown,
		ttl:      ttl,
		broker:   broker,
		now:      time.Now,
		sessions: make(map[string]*session),
	}
}

// Start creates a session and starts its mission. The session is only
// registered once the mission data loaded.
func (s *Sessions) Start(ctx context.Context, mode hunt.Mode) (string, *hunt.Mission, error) {
	id := uuid.NewString()
	m := s.newMission(id, mode)

	if err := m.Start(ctx, s.source); err != nil {
		return "", nil, err
	}

	s.mu.Lock()
	s.sessions[id] = &session{mission: m, lastSeen: s.now()}
	s.mu.Unlock()
	return id, m, nil
}

// Restart begins the mission of an existing session again from the first
// geofence with an empty backpack.
func (s *Sessions) Restart(ctx context.Context, id string) (*hunt.Mission, error) {
	m, err := s.Get(id)
	if err != nil {
		return nil, err
	}
	if err := m.Start(ctx, s.source); err != nil {
		return nil, err
	}
	return m, nil
}

// Get returns the mission of session id and marks the session as used.
func (s *Sessions) Get(id string) (*hunt.Mission, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[id]
	if !ok {
		return nil, fmt.Errorf("session %q: %w", id, ErrNotFound)
	}
	sess.lastSeen = s.now()
	return sess.mission, nil
}

// Touch marks session id as used without looking up its mission.
func (s *Sessions) Touch(id string) {
	s.mu.Lock()
	if sess, ok := s.sessions[id]; ok {
		sess.lastSeen = s.now()
	}
	s.mu.Unlock()
}

// Remove ends the mission of session id and deletes its backpack.
func (s *Sessions) Remove(ctx context.Context, id string) error {
	s.mu.Lock()
	sess, ok := s.sessions[id]
	delete(s.sessions, id)
	s.mu.Unlock()
	if !ok {
		return fmt.Errorf("session %q: %w", id, ErrNotFound)
	}

	if err := sess.mission.Discard(ctx); err != nil {
		return fmt.Errorf("discarding session %q: %w", id, err)
	}
	return nil
}

// Expire removes every session idle for at least the TTL. Sessions with a
// live event stream are kept. It returns the number of sessions removed.
func (s *Sessions) Expire(ctx context.Context) int {
	cutoff := s.now().Add(-s.ttl)

	var idle []string
	s.mu.RLock()
	for id, sess := range s.sessions {
		if !sess.lastSeen.After(cutoff) && s.broker.Subscribers(id) == 0 {
			idle = append(idle, id)
		}
	}
	s.mu.RUnlock()

	removed := 0
	for _, id := range idle {
		if err := s.Remove(ctx, id); err != nil {
			s.logger.Error("expiring session", "session", id, "error", err)
			continue
		}
		removed++
	}
	if removed > 0 {
		s.logger.Info("expired idle sessions", "removed", removed, "remaining", s.Len())
	}
	return removed
}

// Run expires idle sessions periodically until ctx is done.
func (s *Sessions) Run(ctx context.Context) error {
	interval := min(s.ttl/4, time.Minute)
	if interval <= 0 {
		interval = time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			s.Expire(ctx)
		}
	}
}

// StopAll stops position watching on every mission.
func (s *Sessions) StopAll() {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, sess := range s.sessions {
		sess.mission.Stop()
	}
}

func (s *Sessions) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

func (s *Sessions) newMission(id string, mode hunt.Mode) *hunt.Mission {
	logger := s.logger.With("session", id)
	return hunt.NewMission(hunt.Config{
		Mode:      mode,
		Cooldown:  s.cooldown,
		Storage:   s.storage,
		LedgerKey: "backpack:" + id,
		Logger:    logger,
		Presenter: hunt.PresenterFunc(func(_ context.Context, e hunt.Effect) {
			s.broker.Publish(id, effectEvent(e))
		}),
	})
}
