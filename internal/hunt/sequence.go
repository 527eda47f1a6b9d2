package hunt

import (
	"cmp"
	"slices"
)

// Tracker holds a player's progress through the ordered geofences.
// nextOrder only grows, and only past a geofence that has been visited.
type Tracker struct {
	nextOrder int
	visited   map[ID]struct{}
}

func NewTracker() *Tracker {
	t := &Tracker{}
	t.Reset()
	return t
}

// NextOrder is the order value the player must reach next.
func (t *Tracker) NextOrder() int { return t.nextOrder }

// Visited reports whether id was collected this session.
func (t *Tracker) Visited(id ID) bool {
	_, ok := t.visited[id]
	return ok
}

// VisitedCount returns the number of geofences collected this session.
func (t *Tracker) VisitedCount() int { return len(t.visited) }

// Ordered returns a copy of gs sorted by order, ties broken by id (see
// ID.Compare).
func Ordered(gs []Geofence) []Geofence {
	out := slices.Clone(gs)
	slices.SortStableFunc(out, func(a, b Geofence) int {
		if c := cmp.Compare(a.Order, b.Order); c != 0 {
			return c
		}
		return a.ID.Compare(b.ID)
	})
	return out
}

// ActiveTarget returns the geofence whose order equals NextOrder. It reports
// false once no geofence matches, which is the mission-complete state.
func (t *Tracker) ActiveTarget(gs []Geofence) (Geofence, bool) {
	for _, g := range Ordered(gs) {
		if g.Order == t.nextOrder {
			return g, true
		}
	}
	return Geofence{}, false
}

// Advance records g as visited and moves past it. Repeated calls with an
// already visited geofence change nothing.
func (t *Tracker) Advance(g Geofence) {
	if t.Visited(g.ID) {
		return
	}
	t.visited[g.ID] = struct{}{}
	if next := g.Order + 1; next > t.nextOrder {
		t.nextOrder = next
	}
}

// Reset returns the tracker to the start of a mission.
func (t *Tracker) Reset() {
	t.nextOrder = 1
	t.visited = make(map[ID]struct{})
}
