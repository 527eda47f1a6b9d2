package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"

	"github.com/playperu/geohunt/internal/hunt"
)

// WatchMessage is one client frame on the watch socket: a position sample,
// or the error that ended the device's position subscription.
type WatchMessage struct {
	Lat      float64 `json:"lat"`
	Lng      float64 `json:"lng"`
	Accuracy float64 `json:"accuracy"`
	Error    string  `json:"error,omitempty"`
}

func (m WatchMessage) update() hunt.PositionUpdate {
	if m.Error != "" {
		return hunt.PositionUpdate{Err: errors.New(m.Error)}
	}
	return hunt.PositionUpdate{Position: hunt.Position{Lat: m.Lat, Lng: m.Lng, Accuracy: m.Accuracy}}
}

// handleWatch streams position samples from the client into the mission and
// answers each with its outcome. Closing the socket stops watching but keeps
// mission progress.
func handleWatch(logger *slog.Logger, sessions *Sessions) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		m := missionFrom(r)
		session := sessionFrom(r)

		conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
			InsecureSkipVerify: true,
		})
		if err != nil {
			logger.Error("websocket accept failed", "error", err)
			return
		}
		defer conn.CloseNow()

		ctx, cancel := context.WithTimeout(r.Context(), 4*time.Hour)
		defer cancel()

		sub := hunt.NewChanSubscription(1)
		go func() {
			defer sub.Stop()
			for {
				var msg WatchMessage
				if err := wsjson.Read(ctx, conn, &msg); err != nil {
					logger.Debug("watch read ended", "session", session, "error", err)
					return
				}
				if !sub.Send(ctx, msg.update()) {
					return
				}
			}
		}()

		err = m.Watch(ctx, sub, func(out hunt.Outcome) {
			sessions.Touch(session)
			if err := wsjson.Write(ctx, conn, out); err != nil {
				logger.Debug("watch write failed", "session", session, "error", err)
				cancel()
			}
		})
		if err != nil {
			logger.Info("position subscription failed", "session", session, "error", err)
			_ = wsjson.Write(ctx, conn, ErrorResponse{Error: m.Snapshot().Status})
			conn.Close(websocket.StatusNormalClosure, "location error")
			return
		}
		conn.Close(websocket.StatusNormalClosure, "")
	}
}
