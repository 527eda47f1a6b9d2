package server

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/playperu/geohunt/internal/hunt"
)

type ctxKey int

const (
	ctxKeyMission ctxKey = iota
	ctxKeySession
)

// missionMiddleware resolves {session} to its running mission.
func missionMiddleware(sessions *Sessions) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := chi.URLParam(r, "session")
			m, err := sessions.Get(id)
			if err != nil {
				writeError(w, http.StatusNotFound, "mission not found")
				return
			}

			ctx := context.WithValue(r.Context(), ctxKeyMission, m)
			ctx = context.WithValue(ctx, ctxKeySession, id)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func missionFrom(r *http.Request) *hunt.Mission {
	return r.Context().Value(ctxKeyMission).(*hunt.Mission)
}

func sessionFrom(r *http.Request) string {
	return r.Context().Value(ctxKeySession).(string)
}
