// Package hunt implements the geofence sequencing and triggering engine of a
// location-based scavenger hunt: which objective is next, when a player has
// reached it, and what they have collected so far.
// It depends on the standard library only.
package hunt

import "errors"

var (
	// ErrDataUnavailable is returned when the geofence source cannot be
	// reached or does not hold a valid geofence list.
	ErrDataUnavailable = errors.New("hunt: geofence data unavailable")
	// ErrNoValue is returned by Storage when a key has never been written.
	ErrNoValue = errors.New("hunt: no value")
	// ErrNotTestMode is returned when a simulated trigger is attempted on a
	// live mission.
	ErrNotTestMode = errors.New("hunt: simulated triggers require test mode")
	// ErrNotStarted is returned when a mission is used before Start succeeds.
	ErrNotStarted = errors.New("hunt: mission not started")
)
