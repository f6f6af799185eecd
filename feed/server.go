package feed

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
)

// speedRequest is the body of POST /api/control/speed.
type speedRequest struct {
	Multiplier *float32 `json:"multiplier"`
}

// NewHandler routes the HTTP API and the websocket endpoint:
//
//	GET  /api/status
//	POST /api/control/start
//	POST /api/control/stop
//	POST /api/control/reset
//	POST /api/control/speed   {"multiplier": 2}
//	GET  /ws
func NewHandler(c *Controller, h *Hub) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/status", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, c.Status())
	})
	mux.HandleFunc("POST /api/control/start", func(w http.ResponseWriter, r *http.Request) {
		c.Start()
		writeJSON(w, http.StatusOK, map[string]bool{"running": true})
	})
	mux.HandleFunc("POST /api/control/stop", func(w http.ResponseWriter, r *http.Request) {
		c.Stop()
		writeJSON(w, http.StatusOK, map[string]bool{"running": false})
	})
	mux.HandleFunc("POST /api/control/reset", func(w http.ResponseWriter, r *http.Request) {
		st := c.Reset()
		writeJSON(w, http.StatusOK, map[string]any{"running": st.Running, "tick": st.Tick})
	})
	mux.HandleFunc("POST /api/control/speed", func(w http.ResponseWriter, r *http.Request) {
		var req speedRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON body"})
			return
		}
		mult := float32(1)
		if req.Multiplier != nil {
			mult = *req.Multiplier
		}
		writeJSON(w, http.StatusOK, map[string]float32{"multiplier": c.SetSpeed(mult)})
	})
	mux.Handle("GET /ws", h)
	return mux
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Warn("failed to write response", "error", err)
	}
}
