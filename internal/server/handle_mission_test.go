package server

import (
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/playperu/geohunt/internal/hunt"
)

func TestStartMission(t *testing.T) {
	h := testServer(t, writeGeofences(t))

	tests := []struct {
		mode       hunt.Mode
		wantStatus string
		watching   bool
	}{
		{hunt.ModeLive, "Locating…", true},
		{hunt.ModeTest, "Test mode: click map to trigger objectives.", false},
	}
	for _, tt := range tests {
		t.Run(string(tt.mode), func(t *testing.T) {
			resp := startMission(t, h, tt.mode)
			if resp.Session == "" {
				t.Fatal("empty session id")
			}
			m := resp.Mission
			if m.Status != tt.wantStatus {
				t.Errorf("status = %q, want %q", m.Status, tt.wantStatus)
			}
			if m.Watching != tt.watching {
				t.Errorf("watching = %v, want %v", m.Watching, tt.watching)
			}
			if m.NextOrder != 1 || m.Total != 2 || m.Complete {
				t.Errorf("progress = %+v, want next order 1 of 2", m)
			}
			if m.Objective != "Mill Ruins (50 m radius)" {
				t.Errorf("objective = %q", m.Objective)
			}
		})
	}
}

func TestStartMissionBadMode(t *testing.T) {
	h := testServer(t, writeGeofences(t))

	rec := do(t, h, http.MethodPost, "/api/missions", StartMissionRequest{Mode: "arcade"})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
}

func TestStartMissionDataUnavailable(t *testing.T) {
	h := testServer(t, hunt.FileSource{Path: "/nonexistent/geofences.json"})

	rec := do(t, h, http.MethodPost, "/api/missions", nil)
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusServiceUnavailable)
	}
	if got := decode[ErrorResponse](t, rec).Error; got != "mission data unavailable" {
		t.Errorf("error = %q", got)
	}
}

func TestUnknownSession(t *testing.T) {
	h := testServer(t, writeGeofences(t))

	for _, path := range []string{
		"/api/missions/nope",
		"/api/missions/nope/backpack",
	} {
		rec := do(t, h, http.MethodGet, path, nil)
		if rec.Code != http.StatusNotFound {
			t.Errorf("GET %s: status = %d, want %d", path, rec.Code, http.StatusNotFound)
		}
	}
	rec := do(t, h, http.MethodPost, "/api/missions/nope/position", atMill)
	if rec.Code != http.StatusNotFound {
		t.Errorf("POST position: status = %d, want %d", rec.Code, http.StatusNotFound)
	}
}

func TestPositionFlow(t *testing.T) {
	h := testServer(t, writeGeofences(t))
	id := startMission(t, h, hunt.ModeLive).Session
	base := "/api/missions/" + id

	// Far from the first geofence.
	rec := do(t, h, http.MethodPost, base+"/position", hunt.Position{Lat: 44.90, Lng: -93.20, Accuracy: 12.4})
	if rec.Code != http.StatusOK {
		t.Fatalf("position: status = %d; body: %s", rec.Code, rec.Body.String())
	}
	out := decode[hunt.Outcome](t, rec)
	if out.Triggered {
		t.Fatal("triggered far from the geofence")
	}
	if out.Status != "Lat 44.90000, Lng -93.20000, acc ±12 m" {
		t.Errorf("status = %q", out.Status)
	}

	// Inside the first geofence.
	out = decode[hunt.Outcome](t, do(t, h, http.MethodPost, base+"/position", atMill))
	if !out.Triggered || out.Geofence == nil || out.Geofence.ID != "1" {
		t.Fatalf("outcome = %+v, want trigger of geofence 1", out)
	}
	if len(out.Effects) != 2 || out.Effects[0].Kind != hunt.EffectPlayMedia || out.Effects[1].Kind != hunt.EffectRefreshObjective {
		t.Fatalf("effects = %+v, want play_media then refresh_objective", out.Effects)
	}
	if out.Effects[0].MediaURL != "https://youtu.be/abc123" {
		t.Errorf("media url = %q", out.Effects[0].MediaURL)
	}
	if next := out.Effects[1].Target; next == nil || next.ID != "2" {
		t.Errorf("refresh target = %+v, want geofence 2", next)
	}

	// The second geofence is reached inside the cooldown window.
	out = decode[hunt.Outcome](t, do(t, h, http.MethodPost, base+"/position", atBridge))
	if out.Triggered {
		t.Error("triggered during cooldown")
	}

	state := decode[MissionResponse](t, do(t, h, http.MethodGet, base, nil)).Mission
	if state.NextOrder != 2 || state.Visited != 1 || state.LastTriggerAt == nil {
		t.Errorf("state = %+v, want next order 2 with one visit", state)
	}
	if state.Objective != "Stone Arch Bridge (50 m radius)" {
		t.Errorf("objective = %q", state.Objective)
	}

	bp := decode[BackpackResponse](t, do(t, h, http.MethodGet, base+"/backpack", nil))
	if len(bp.Items) != 1 {
		t.Fatalf("backpack has %d items, want 1", len(bp.Items))
	}
	item := bp.Items[0]
	if item.ID != "1" || item.ThumbURL != "https://img.youtube.com/vi/abc123/hqdefault.jpg" {
		t.Errorf("item = %+v", item)
	}
}

func TestPositionOutOfRange(t *testing.T) {
	h := testServer(t, writeGeofences(t))
	id := startMission(t, h, hunt.ModeLive).Session

	rec := do(t, h, http.MethodPost, "/api/missions/"+id+"/position", hunt.Position{Lat: 91, Lng: 0})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
}

func TestInteract(t *testing.T) {
	h := testServer(t, writeGeofences(t))

	t.Run("test mode", func(t *testing.T) {
		id := startMission(t, h, hunt.ModeTest).Session
		path := "/api/missions/" + id + "/interact"

		out := decode[hunt.Outcome](t, do(t, h, http.MethodPost, path, nil))
		if !out.Triggered || out.Geofence.ID != "1" {
			t.Fatalf("first click = %+v, want trigger of geofence 1", out)
		}
		out = decode[hunt.Outcome](t, do(t, h, http.MethodPost, path, nil))
		if out.Triggered {
			t.Error("second click triggered during cooldown")
		}
	})

	t.Run("live mode", func(t *testing.T) {
		id := startMission(t, h, hunt.ModeLive).Session

		rec := do(t, h, http.MethodPost, "/api/missions/"+id+"/interact", nil)
		if rec.Code != http.StatusConflict {
			t.Fatalf("status = %d, want %d", rec.Code, http.StatusConflict)
		}
	})
}

func TestRestartClearsProgress(t *testing.T) {
	h := testServer(t, writeGeofences(t))
	id := startMission(t, h, hunt.ModeTest).Session
	base := "/api/missions/" + id

	do(t, h, http.MethodPost, base+"/interact", nil)

	rec := do(t, h, http.MethodPost, base+"/restart", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("restart: status = %d", rec.Code)
	}
	m := decode[MissionResponse](t, rec).Mission
	if m.NextOrder != 1 || m.Visited != 0 || m.LastTriggerAt != nil {
		t.Errorf("after restart = %+v, want fresh progress", m)
	}

	bp := decode[BackpackResponse](t, do(t, h, http.MethodGet, base+"/backpack", nil))
	if len(bp.Items) != 0 {
		t.Errorf("backpack has %d items after restart, want 0", len(bp.Items))
	}

	// Cooldown was reset too.
	if out := decode[hunt.Outcome](t, do(t, h, http.MethodPost, base+"/interact", nil)); !out.Triggered {
		t.Error("interaction after restart did not trigger")
	}
}

func TestSessionsHaveSeparateBackpacks(t *testing.T) {
	h := testServer(t, writeGeofences(t))
	a := startMission(t, h, hunt.ModeTest).Session
	b := startMission(t, h, hunt.ModeTest).Session

	do(t, h, http.MethodPost, "/api/missions/"+a+"/interact", nil)

	bp := decode[BackpackResponse](t, do(t, h, http.MethodGet, "/api/missions/"+b+"/backpack", nil))
	if len(bp.Items) != 0 {
		t.Errorf("session b backpack has %d items, want 0", len(bp.Items))
	}
}

func TestStopAndPositionError(t *testing.T) {
	h := testServer(t, writeGeofences(t))
	id := startMission(t, h, hunt.ModeLive).Session
	base := "/api/missions/" + id

	rec := do(t, h, http.MethodPost, base+"/position-error", PositionErrorRequest{Message: "User denied Geolocation"})
	if rec.Code != http.StatusOK {
		t.Fatalf("position-error: status = %d", rec.Code)
	}
	m := decode[MissionResponse](t, rec).Mission
	if m.Status != "Location error: User denied Geolocation" || m.Watching {
		t.Errorf("after error = %+v", m)
	}

	rec = do(t, h, http.MethodPost, base+"/position-error", PositionErrorRequest{})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("empty message: status = %d, want %d", rec.Code, http.StatusBadRequest)
	}

	m = decode[MissionResponse](t, do(t, h, http.MethodPost, base+"/stop", nil)).Mission
	if m.Status != "Stopped." {
		t.Errorf("status = %q, want Stopped.", m.Status)
	}
	if m.NextOrder != 1 || m.Total != 2 {
		t.Errorf("stop changed progress: %+v", m)
	}
}

func TestPositionRequiresCoordinates(t *testing.T) {
	h := testServer(t, writeGeofences(t))
	id := startMission(t, h, hunt.ModeLive).Session
	path := "/api/missions/" + id + "/position"

	for name, body := range map[string]string{
		"empty body": "",
		"empty json": "{}",
		"lat only":   `{"lat": 44.97}`,
	} {
		t.Run(name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			if rec.Code != http.StatusBadRequest {
				t.Fatalf("status = %d, want %d", rec.Code, http.StatusBadRequest)
			}
		})
	}

	m := decode[MissionResponse](t, do(t, h, http.MethodGet, "/api/missions/"+id, nil)).Mission
	if m.Status != "Locating…" {
		t.Errorf("status = %q, rejected samples must not change it", m.Status)
	}
}

func TestRestartWithUnavailableData(t *testing.T) {
	src := writeGeofences(t)
	h := testServer(t, src)
	id := startMission(t, h, hunt.ModeTest).Session
	base := "/api/missions/" + id

	do(t, h, http.MethodPost, base+"/interact", nil)

	path := src.(hunt.FileSource).Path
	if err := os.WriteFile(path, []byte("nope"), 0o644); err != nil {
		t.Fatal(err)
	}

	rec := do(t, h, http.MethodPost, base+"/restart", nil)
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("restart: status = %d, want %d", rec.Code, http.StatusServiceUnavailable)
	}

	rec = do(t, h, http.MethodPost, base+"/interact", nil)
	if rec.Code != http.StatusConflict {
		t.Errorf("interact after failed restart: status = %d, want %d", rec.Code, http.StatusConflict)
	}
	m := decode[MissionResponse](t, do(t, h, http.MethodGet, base, nil)).Mission
	if m.Status != "Unable to load mission data." || m.Total != 0 {
		t.Errorf("state after failed restart = %+v", m)
	}
}

func TestDeleteMission(t *testing.T) {
	h := testServer(t, writeGeofences(t))
	id := startMission(t, h, hunt.ModeTest).Session
	base := "/api/missions/" + id

	do(t, h, http.MethodPost, base+"/interact", nil)

	rec := do(t, h, http.MethodDelete, base, nil)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("delete: status = %d, want %d", rec.Code, http.StatusNoContent)
	}
	if rec := do(t, h, http.MethodGet, base+"/backpack", nil); rec.Code != http.StatusNotFound {
		t.Errorf("backpack after delete: status = %d, want %d", rec.Code, http.StatusNotFound)
	}
	if rec := do(t, h, http.MethodDelete, base, nil); rec.Code != http.StatusNotFound {
		t.Errorf("second delete: status = %d, want %d", rec.Code, http.StatusNotFound)
	}
}
