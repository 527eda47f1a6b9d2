package server

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/playperu/geohunt/internal/hunt"
)

func testSessions(t *testing.T, ttl time.Duration) (*Sessions, *hunt.MemoryStorage, *time.Time) {
	t.Helper()
	storage := hunt.NewMemoryStorage()
	s := NewSessions(slog.New(slog.NewTextHandler(io.Discard, nil)), writeGeofences(t), storage, 0, ttl, NewBroker())

	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return now }
	return s, storage, &now
}

func TestSessionsExpireIdle(t *testing.T) {
	ctx := context.Background()
	s, storage, now := testSessions(t, time.Hour)

	idle, _, err := s.Start(ctx, hunt.ModeTest)
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	busy, _, err := s.Start(ctx, hunt.ModeTest)
	if err != nil {
		t.Fatalf("start: %v", err)
	}

	*now = now.Add(50 * time.Minute)
	s.Get(busy)
	*now = now.Add(20 * time.Minute)

	if n := s.Expire(ctx); n != 1 {
		t.Fatalf("expired %d sessions, want 1", n)
	}
	if _, err := s.Get(idle); !errors.Is(err, ErrNotFound) {
		t.Errorf("idle session still present: err = %v", err)
	}
	if _, err := s.Get(busy); err != nil {
		t.Errorf("busy session expired: %v", err)
	}
	if _, err := storage.Get(ctx, "backpack:"+idle); !errors.Is(err, hunt.ErrNoValue) {
		t.Errorf("backpack of expired session kept: err = %v", err)
	}
}

func TestSessionsKeepStreamingSessions(t *testing.T) {
	ctx := context.Background()
	s, _, now := testSessions(t, time.Hour)

	id, _, err := s.Start(ctx, hunt.ModeTest)
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	ch := s.broker.Subscribe(id)

	*now = now.Add(2 * time.Hour)
	if n := s.Expire(ctx); n != 0 {
		t.Fatalf("expired %d sessions with a live stream, want 0", n)
	}

	s.broker.Unsubscribe(id, ch)
	if n := s.Expire(ctx); n != 1 {
		t.Errorf("expired %d sessions after the stream closed, want 1", n)
	}
	if s.Len() != 0 {
		t.Errorf("Len = %d, want 0", s.Len())
	}
}

func TestSessionsFailedStartRegistersNothing(t *testing.T) {
	ctx := context.Background()
	storage := hunt.NewMemoryStorage()
	s := NewSessions(slog.New(slog.NewTextHandler(io.Discard, nil)), hunt.FileSource{Path: "/nonexistent.json"}, storage, 0, 0, NewBroker())

	if _, _, err := s.Start(ctx, hunt.ModeLive); !errors.Is(err, hunt.ErrDataUnavailable) {
		t.Fatalf("err = %v, want ErrDataUnavailable", err)
	}
	if s.Len() != 0 {
		t.Errorf("Len = %d, want 0", s.Len())
	}
	if s.ttl != DefaultSessionTTL {
		t.Errorf("ttl = %v, want %v", s.ttl, DefaultSessionTTL)
	}
}

func TestSessionsRunStopsWithContext(t *testing.T) {
	s, _, _ := testSessions(t, time.Hour)
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Run = %v, want nil", err)
		}
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}
}
