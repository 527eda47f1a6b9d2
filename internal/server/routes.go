package server

import (
	"github.com/go-chi/chi/v5"
	"github.com/swaggest/swgui/v5emb"

	"github.com/playperu/geohunt/internal/handler/health"
)

func addRoutes(r chi.Router, deps Deps, sessions *Sessions, broker *Broker) {
	logger := deps.Logger

	r.Get("/openapi.json", handleOpenAPI())
	r.Mount("/docs", v5emb.New("GeoHunt API", "/openapi.json", "/docs"))
	r.Mount("/healthz", health.NewHandler(logger, deps.Checks).Routes())

	// Registration flow.
	r.Post("/api/verify-code", handleVerifyCode(logger, deps.Registrations))
	r.Post("/api/register", handleRegister(logger, deps.Registrations))

	// Missions, {session} resolved by missionMiddleware.
	r.Post("/api/missions", handleStartMission(logger, sessions))
	r.Route("/api/missions/{session}", func(r chi.Router) {
		r.Use(missionMiddleware(sessions))
		r.Get("/", handleMissionState())
		r.Delete("/", handleDeleteMission(logger, sessions))
		r.Post("/restart", handleRestartMission(logger, sessions))
		r.Post("/position", handlePosition(logger))
		r.Post("/position-error", handlePositionError(broker))
		r.Post("/interact", handleInteract())
		r.Post("/stop", handleStop(broker))
		r.Get("/backpack", handleBackpack(logger))
		r.Get("/events", handleEvents(broker))
		r.Get("/watch", handleWatch(logger, sessions))
	})
}
