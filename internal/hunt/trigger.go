package hunt

import "time"

// DefaultCooldown is the minimum time between two accepted triggers.
const DefaultCooldown = 30 * time.Second

// Position is one location sample. Accuracy is in meters and is only shown to
// the player; it never widens or narrows a geofence.
type Position struct {
	Lat      float64 `json:"lat"`
	Lng      float64 `json:"lng"`
	Accuracy float64 `json:"accuracy"`
}

// Coordinate drops the accuracy.
func (p Position) Coordinate() Coordinate {
	return Coordinate{Lat: p.Lat, Lng: p.Lng}
}

// Evaluator decides whether a player occupies the active target and debounces
// accepted triggers with a cooldown shared by every geofence.
type Evaluator struct {
	Cooldown      time.Duration
	lastTriggerAt time.Time
}

func NewEvaluator(cooldown time.Duration) *Evaluator {
	return &Evaluator{Cooldown: cooldown}
}

// LastTriggerAt is the time of the last accepted trigger, zero if none.
func (e *Evaluator) LastTriggerAt() time.Time { return e.lastTriggerAt }

// Reset forgets the last accepted trigger.
func (e *Evaluator) Reset() { e.lastTriggerAt = time.Time{} }

func (e *Evaluator) cooling(now time.Time) bool {
	if e.lastTriggerAt.IsZero() {
		return false
	}
	return now.Sub(e.lastTriggerAt) < e.Cooldown
}

// Proximity accepts a trigger when pos lies within the target radius,
// boundary included. A nil target never triggers.
func (e *Evaluator) Proximity(target *Geofence, pos Position, now time.Time) bool {
	if target == nil || e.cooling(now) {
		return false
	}
	if Distance(pos.Coordinate(), target.Center()) > target.RadiusMeters {
		return false
	}
	e.lastTriggerAt = now
	return true
}

// Simulated treats any interaction as occupying the target. The cooldown
// still applies.
func (e *Evaluator) Simulated(target *Geofence, now time.Time) bool {
	if target == nil || e.cooling(now) {
		return false
	}
	e.lastTriggerAt = now
	return true
}
