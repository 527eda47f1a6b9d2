package hunt

import "testing"

func scenarioGeofences() []Geofence {
	return []Geofence{
		{ID: "2", Title: "Stone Arch Bridge", Order: 2, RadiusMeters: 50, Lat: 44.98, Lng: -93.27},
		{ID: "1", Title: "Mill Ruins", Order: 1, RadiusMeters: 50, Lat: 44.97, Lng: -93.26, VideoURL: "https://youtu.be/abc123"},
	}
}

func TestActiveTarget(t *testing.T) {
	gs := []Geofence{
		{ID: "c", Order: 5},
		{ID: "a", Order: 1},
		{ID: "b", Order: 3},
	}

	tests := []struct {
		name      string
		nextOrder int
		wantID    ID
		wantOK    bool
	}{
		{name: "first", nextOrder: 1, wantID: "a", wantOK: true},
		{name: "gap in orders", nextOrder: 2, wantOK: false},
		{name: "middle", nextOrder: 3, wantID: "b", wantOK: true},
		{name: "last", nextOrder: 5, wantID: "c", wantOK: true},
		{name: "past the end", nextOrder: 6, wantOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr := NewTracker()
			tr.nextOrder = tt.nextOrder

			g, ok := tr.ActiveTarget(gs)
			if ok != tt.wantOK {
				t.Fatalf("ok = %v, want %v", ok, tt.wantOK)
			}
			if ok && g.ID != tt.wantID {
				t.Errorf("target = %q, want %q", g.ID, tt.wantID)
			}
		})
	}
}

func TestActiveTargetEmpty(t *testing.T) {
	if _, ok := NewTracker().ActiveTarget(nil); ok {
		t.Error("expected no target for empty geofence list")
	}
}

func TestActiveTargetTieBreaksByID(t *testing.T) {
	gs := []Geofence{
		{ID: "zeta", Order: 1},
		{ID: "alpha", Order: 1},
		{ID: "mid", Order: 1},
	}
	for range 10 {
		g, ok := NewTracker().ActiveTarget(gs)
		if !ok || g.ID != "alpha" {
			t.Fatalf("target = %q, want alpha", g.ID)
		}
	}
}

func TestActiveTargetTieBreaksNumericIDs(t *testing.T) {
	gs := []Geofence{
		{ID: "10", Order: 1},
		{ID: "9", Order: 1},
	}
	if g, _ := NewTracker().ActiveTarget(gs); g.ID != "9" {
		t.Errorf("target = %q, want 9", g.ID)
	}
}

func TestIDCompare(t *testing.T) {
	tests := []struct {
		a, b ID
		want int
	}{
		{"9", "10", -1},
		{"10", "9", 1},
		{"007", "7", 0},
		{"alpha", "beta", -1},
		{"10", "9b", -1},
		{"-1", "2", -1},
	}
	for _, tt := range tests {
		if got := tt.a.Compare(tt.b); got != tt.want {
			t.Errorf("%q.Compare(%q) = %d, want %d", tt.a, tt.b, got, tt.want)
		}
	}
}

func TestOrderedDoesNotMutateInput(t *testing.T) {
	gs := scenarioGeofences()
	_ = Ordered(gs)
	if gs[0].ID != "2" {
		t.Errorf("input reordered: first id = %q", gs[0].ID)
	}
}

func TestAdvance(t *testing.T) {
	gs := scenarioGeofences()
	tr := NewTracker()

	first, _ := tr.ActiveTarget(gs)
	tr.Advance(first)

	if got := tr.NextOrder(); got != 2 {
		t.Errorf("NextOrder = %d, want 2", got)
	}
	if !tr.Visited("1") {
		t.Error("expected geofence 1 visited")
	}

	next, ok := tr.ActiveTarget(gs)
	if !ok || next.ID != "2" {
		t.Fatalf("active target = %q, want 2", next.ID)
	}

	tr.Advance(next)
	if _, ok := tr.ActiveTarget(gs); ok {
		t.Error("expected mission complete")
	}
}

func TestAdvanceIdempotent(t *testing.T) {
	gs := scenarioGeofences()
	tr := NewTracker()
	g, _ := tr.ActiveTarget(gs)
	tr.Advance(g)

	before, visited := tr.NextOrder(), tr.VisitedCount()
	for range 5 {
		tr.Advance(g)
	}
	if tr.NextOrder() != before || tr.VisitedCount() != visited {
		t.Errorf("state changed: nextOrder %d→%d, visited %d→%d",
			before, tr.NextOrder(), visited, tr.VisitedCount())
	}
}

func TestAdvanceNeverDecreases(t *testing.T) {
	tr := NewTracker()
	tr.Advance(Geofence{ID: "far", Order: 7})
	tr.Advance(Geofence{ID: "near", Order: 2})

	if got := tr.NextOrder(); got != 8 {
		t.Errorf("NextOrder = %d, want 8", got)
	}
}

func TestReset(t *testing.T) {
	tr := NewTracker()
	tr.Advance(Geofence{ID: "1", Order: 1})
	tr.Reset()

	if tr.NextOrder() != 1 || tr.VisitedCount() != 0 || tr.Visited("1") {
		t.Errorf("after reset: nextOrder=%d visited=%d", tr.NextOrder(), tr.VisitedCount())
	}
}
