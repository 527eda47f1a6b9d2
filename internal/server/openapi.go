package server

import (
	"encoding/json"
	"net/http"

	openapi "github.com/swaggest/openapi-go"
	"github.com/swaggest/openapi-go/openapi3"

	"github.com/playperu/geohunt/internal/hunt"
)

// HealthResponse documents the /healthz body: one entry per dependency.
type HealthResponse map[string]struct {
	Status     string `json:"status"`
	DurationMS int64  `json:"durationMs"`
}

// Request shapes carrying the {session} path parameter.
type (
	sessionPath struct {
		Session string `path:"session"`
	}
	positionDoc struct {
		sessionPath
		PositionRequest
	}
	positionErrorDoc struct {
		sessionPath
		PositionErrorRequest
	}
)

type operation struct {
	method, path, summary, description string
	req                                any
	resp                               map[int]any
}

var operations = []operation{
	{
		method:      http.MethodGet,
		path:        "/healthz",
		summary:     "Health check",
		description: "Returns the health status of backend dependencies.",
		resp:        map[int]any{http.StatusOK: HealthResponse{}, http.StatusServiceUnavailable: HealthResponse{}},
	},
	{
		method:      http.MethodPost,
		path:        "/api/verify-code",
		summary:     "Verify access code",
		description: "Checks the format of an access code, or matches it against a registration. Not a security boundary.",
		req:         VerifyCodeRequest{},
		resp:        map[int]any{http.StatusOK: VerifyCodeResponse{}, http.StatusBadRequest: ErrorResponse{}, http.StatusNotFound: ErrorResponse{}},
	},
	{
		method:      http.MethodPost,
		path:        "/api/register",
		summary:     "Register player",
		description: "Logs a player profile. Clients treat failures as non-blocking.",
		req:         RegisterRequest{},
		resp:        map[int]any{http.StatusOK: RegisterResponse{}, http.StatusBadRequest: ErrorResponse{}},
	},
	{
		method:      http.MethodPost,
		path:        "/api/missions",
		summary:     "Start mission",
		description: "Loads the geofences, clears the backpack and returns a new session.",
		req:         StartMissionRequest{},
		resp:        map[int]any{http.StatusCreated: MissionResponse{}, http.StatusServiceUnavailable: ErrorResponse{}},
	},
	{
		method:      http.MethodGet,
		path:        "/api/missions/{session}",
		summary:     "Mission state",
		description: "Returns status text, the active objective and progress.",
		req:         sessionPath{},
		resp:        map[int]any{http.StatusOK: MissionResponse{}, http.StatusNotFound: ErrorResponse{}},
	},
	{
		method:      http.MethodDelete,
		path:        "/api/missions/{session}",
		summary:     "End mission",
		description: "Ends the session and deletes its backpack.",
		req:         sessionPath{},
		resp:        map[int]any{http.StatusNoContent: nil, http.StatusNotFound: ErrorResponse{}},
	},
	{
		method:      http.MethodPost,
		path:        "/api/missions/{session}/restart",
		summary:     "Restart mission",
		description: "Starts the session's mission again with an empty backpack.",
		req:         sessionPath{},
		resp:        map[int]any{http.StatusOK: MissionResponse{}, http.StatusServiceUnavailable: ErrorResponse{}},
	},
	{
		method:      http.MethodPost,
		path:        "/api/missions/{session}/position",
		summary:     "Submit position",
		description: "Evaluates one position sample against the active geofence.",
		req:         positionDoc{},
		resp:        map[int]any{http.StatusOK: hunt.Outcome{}, http.StatusBadRequest: ErrorResponse{}},
	},
	{
		method:      http.MethodPost,
		path:        "/api/missions/{session}/position-error",
		summary:     "Report location error",
		description: "Records a failed position subscription. Not retried.",
		req:         positionErrorDoc{},
		resp:        map[int]any{http.StatusOK: MissionResponse{}},
	},
	{
		method:      http.MethodPost,
		path:        "/api/missions/{session}/interact",
		summary:     "Simulated trigger",
		description: "Test mode only: treats a map click as reaching the active geofence.",
		req:         sessionPath{},
		resp:        map[int]any{http.StatusOK: hunt.Outcome{}, http.StatusConflict: ErrorResponse{}},
	},
	{
		method:      http.MethodPost,
		path:        "/api/missions/{session}/stop",
		summary:     "Stop watching",
		description: "Stops position watching; progress and backpack are kept.",
		req:         sessionPath{},
		resp:        map[int]any{http.StatusOK: MissionResponse{}},
	},
	{
		method:      http.MethodGet,
		path:        "/api/missions/{session}/backpack",
		summary:     "Backpack",
		description: "Collected clue items, oldest first.",
		req:         sessionPath{},
		resp:        map[int]any{http.StatusOK: BackpackResponse{}},
	},
}

func newOpenAPISpec() *openapi3.Spec {
	r := openapi3.NewReflector()
	r.Spec.Info.Title = "GeoHunt API"
	r.Spec.Info.Version = "0.1.0"
	r.Spec.Info.WithDescription("Backend API for the location-triggered scavenger hunt.")

	for _, op := range operations {
		oc, err := r.NewOperationContext(op.method, op.path)
		if err != nil {
			continue
		}
		oc.SetSummary(op.summary)
		oc.SetDescription(op.description)
		if op.req != nil {
			oc.AddReqStructure(op.req)
		}
		for status, body := range op.resp {
			oc.AddRespStructure(body, openapi.WithHTTPStatus(status))
		}
		_ = r.AddOperation(oc)
	}

	// Streaming endpoints have no JSON schema.
	events, _ := r.NewOperationContext(http.MethodGet, "/api/missions/{session}/events")
	events.AddReqStructure(sessionPath{})
	events.SetSummary("SSE event stream")
	events.SetDescription("Server-Sent Events for presentation effects: play_media, refresh_objective, status.")
	events.AddRespStructure(nil, openapi.WithHTTPStatus(http.StatusOK),
		openapi.WithContentType("text/event-stream"))
	_ = r.AddOperation(events)

	watch, _ := r.NewOperationContext(http.MethodGet, "/api/missions/{session}/watch")
	watch.AddReqStructure(sessionPath{})
	watch.SetSummary("Position watch")
	watch.SetDescription("WebSocket: send position frames, receive one outcome per frame.")
	watch.AddRespStructure(nil, openapi.WithHTTPStatus(http.StatusSwitchingProtocols),
		openapi.WithContentType("text/plain"))
	_ = r.AddOperation(watch)

	return r.Spec
}

func handleOpenAPI() http.HandlerFunc {
	spec := newOpenAPISpec()
	data, _ := json.MarshalIndent(spec, "", "  ")

	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(data)
	}
}
