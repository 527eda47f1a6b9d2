package hunt

import (
	"context"
	"log/slog"
	"time"
)

type EffectKind string

const (
	// EffectPlayMedia asks the presentation layer to show the clue video.
	EffectPlayMedia EffectKind = "play_media"
	// EffectRefreshObjective asks the presentation layer to redraw the
	// current objective.
	EffectRefreshObjective EffectKind = "refresh_objective"
)

// Effect is a side effect for the presentation layer to perform.
type Effect struct {
	Kind     EffectKind `json:"kind"`
	Geofence ID         `json:"geofenceId,omitempty"`
	MediaURL string     `json:"mediaUrl,omitempty"`
	// Target is the objective to show after a refresh; nil when the
	// mission is complete.
	Target *Geofence `json:"target,omitempty"`
}

// Presenter performs effects. Failures are the presenter's own concern.
type Presenter interface {
	Present(ctx context.Context, e Effect)
}

// PresenterFunc adapts a function to Presenter.
type PresenterFunc func(ctx context.Context, e Effect)

func (f PresenterFunc) Present(ctx context.Context, e Effect) { f(ctx, e) }

// Checkpoint derives the backpack item and the media effect for a triggered
// geofence. It touches no state.
func Checkpoint(g Geofence, now time.Time) (Item, Effect) {
	item := Item{
		ID:       g.ID,
		Title:    g.Title,
		ClueText: g.ClueText,
		VideoURL: g.VideoURL,
		ThumbURL: Thumbnail(g.VideoURL),
		TS:       now.UnixMilli(),
	}
	return item, Effect{Kind: EffectPlayMedia, Geofence: g.ID, MediaURL: g.VideoURL}
}

// Handler runs the checkpoint transition: record the artifact, present the
// clue, advance the sequence, refresh the objective.
type Handler struct {
	Ledger    *Ledger
	Tracker   *Tracker
	Presenter Presenter
	Logger    *slog.Logger
}

// Handle processes an accepted trigger for g against the mission geofences
// gs and returns the effects in the order they were presented.
func (h *Handler) Handle(ctx context.Context, g Geofence, gs []Geofence, now time.Time) []Effect {
	item, media := Checkpoint(g, now)

	if err := h.Ledger.Add(ctx, item); err != nil {
		h.logger().Error("recording backpack item", "geofence", g.ID, "error", err)
	}
	h.present(ctx, media)

	h.Tracker.Advance(g)

	refresh := Effect{Kind: EffectRefreshObjective}
	if next, ok := h.Tracker.ActiveTarget(gs); ok {
		refresh.Target = &next
	}
	h.present(ctx, refresh)

	return []Effect{media, refresh}
}

func (h *Handler) present(ctx context.Context, e Effect) {
	if h.Presenter != nil {
		h.Presenter.Present(ctx, e)
	}
}

func (h *Handler) logger() *slog.Logger {
	if h.Logger != nil {
		return h.Logger
	}
	return slog.Default()
}
