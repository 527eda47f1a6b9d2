package server

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/playperu/geohunt/internal/hunt"
)

type StartMissionRequest struct {
	Mode string `json:"mode,omitempty"`
}

type MissionResponse struct {
	Session string        `json:"session"`
	Mission hunt.Snapshot `json:"mission"`
}

type PositionErrorRequest struct {
	Message string `json:"message"`
}

type BackpackResponse struct {
	Items []hunt.Item `json:"items"`
}

func handleStartMission(logger *slog.Logger, sessions *Sessions) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req StartMissionRequest
		if err := readJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		mode, err := hunt.ParseMode(req.Mode)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}

		id, m, err := sessions.Start(r.Context(), mode)
		if errors.Is(err, hunt.ErrDataUnavailable) {
			logger.Error("mission data unavailable", "error", err)
			writeError(w, http.StatusServiceUnavailable, "mission data unavailable")
			return
		}
		if err != nil {
			logger.Error("starting mission", "error", err)
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}

		writeJSON(w, http.StatusCreated, MissionResponse{Session: id, Mission: m.Snapshot()})
	}
}

func handleRestartMission(logger *slog.Logger, sessions *Sessions) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := sessionFrom(r)
		m, err := sessions.Restart(r.Context(), id)
		if errors.Is(err, hunt.ErrDataUnavailable) {
			logger.Error("mission data unavailable", "session", id, "error", err)
			writeError(w, http.StatusServiceUnavailable, "mission data unavailable")
			return
		}
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		writeJSON(w, http.StatusOK, MissionResponse{Session: id, Mission: m.Snapshot()})
	}
}

// handleDeleteMission ends a session and deletes its backpack.
func handleDeleteMission(logger *slog.Logger, sessions *Sessions) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := sessionFrom(r)
		err := sessions.Remove(r.Context(), id)
		if errors.Is(err, ErrNotFound) {
			writeError(w, http.StatusNotFound, "mission not found")
			return
		}
		if err != nil {
			logger.Error("removing session", "session", id, "error", err)
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func handleMissionState() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, MissionResponse{
			Session: sessionFrom(r),
			Mission: missionFrom(r).Snapshot(),
		})
	}
}

// PositionRequest is one position sample. Lat and Lng must both be present.
type PositionRequest struct {
	Lat      *float64 `json:"lat"`
	Lng      *float64 `json:"lng"`
	Accuracy float64  `json:"accuracy"`
}

func (req PositionRequest) problem() string {
	switch {
	case req.Lat == nil || req.Lng == nil:
		return "lat and lng are required"
	case *req.Lat < -90 || *req.Lat > 90 || *req.Lng < -180 || *req.Lng > 180:
		return "coordinates out of range"
	}
	return ""
}

func handlePosition(logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req PositionRequest
		if err := requireJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if msg := req.problem(); msg != "" {
			writeError(w, http.StatusBadRequest, msg)
			return
		}

		pos := hunt.Position{Lat: *req.Lat, Lng: *req.Lng, Accuracy: req.Accuracy}
		out, err := missionFrom(r).OnPosition(r.Context(), pos)
		if err != nil {
			logger.Error("handling position", "session", sessionFrom(r), "error", err)
			writeError(w, http.StatusConflict, err.Error())
			return
		}
		writeJSON(w, http.StatusOK, out)
	}
}

func handleInteract() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		out, err := missionFrom(r).OnInteraction(r.Context())
		if err != nil {
			writeError(w, http.StatusConflict, err.Error())
			return
		}
		writeJSON(w, http.StatusOK, out)
	}
}

func handlePositionError(broker *Broker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req PositionErrorRequest
		if err := readJSON(r, &req); err != nil || req.Message == "" {
			writeError(w, http.StatusBadRequest, "message is required")
			return
		}

		m := missionFrom(r)
		m.OnPositionError(errors.New(req.Message))
		s := m.Snapshot()
		broker.Publish(sessionFrom(r), Event{Type: "status", Status: s.Status})
		writeJSON(w, http.StatusOK, MissionResponse{Session: sessionFrom(r), Mission: s})
	}
}

func handleStop(broker *Broker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		m := missionFrom(r)
		m.Stop()
		s := m.Snapshot()
		broker.Publish(sessionFrom(r), Event{Type: "status", Status: s.Status})
		writeJSON(w, http.StatusOK, MissionResponse{Session: sessionFrom(r), Mission: s})
	}
}

func handleBackpack(logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		items, err := missionFrom(r).Backpack(r.Context())
		if err != nil {
			logger.Error("loading backpack", "session", sessionFrom(r), "error", err)
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		writeJSON(w, http.StatusOK, BackpackResponse{Items: items})
	}
}
